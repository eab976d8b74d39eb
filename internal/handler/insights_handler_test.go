package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HungtdFPI/TaskforceAF/internal/dto"
	"github.com/HungtdFPI/TaskforceAF/internal/middleware"
	"github.com/HungtdFPI/TaskforceAF/internal/models"
	"github.com/HungtdFPI/TaskforceAF/internal/service"
	appErrors "github.com/HungtdFPI/TaskforceAF/pkg/errors"
)

type statsServiceStub struct {
	hit bool
}

func (s statsServiceStub) Summary(context.Context, models.Actor) (*models.ReportStats, bool, error) {
	return &models.ReportStats{Total: 7}, s.hit, nil
}

type exportServiceStub struct {
	format service.ExportFormat
	query  dto.ReportQuery
	err    error
}

func (s *exportServiceStub) Export(_ context.Context, _ models.Actor, format service.ExportFormat, query dto.ReportQuery) (*service.ExportFile, error) {
	s.format, s.query = format, query
	if s.err != nil {
		return nil, s.err
	}
	return &service.ExportFile{Filename: "academic_warnings_20241005_143000.csv", ContentType: "text/csv; charset=utf-8", Body: []byte("STT\n")}, nil
}

func TestInsightsHandlerStatsReportsCacheHit(t *testing.T) {
	handler := NewInsightsHandler(statsServiceStub{hit: true}, &exportServiceStub{})

	c, w := authedContext(http.MethodGet, "/reports/stats", nil, lecturerClaims)
	middleware.WithResponseMeta()(c)
	handler.Stats(c)

	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, true, env.Meta["cache_hit"])
	assert.Contains(t, string(env.Data), `"total":7`)
}

func TestInsightsHandlerExport(t *testing.T) {
	stub := &exportServiceStub{}
	handler := NewInsightsHandler(statsServiceStub{}, stub)

	c, w := authedContext(http.MethodGet, "/reports/export?format=csv&status=approved", nil, lecturerClaims)
	handler.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.ExportFormatCSV, stub.format)
	assert.Equal(t, []models.ReportStatus{models.ReportStatusApproved}, stub.query.Status)
	assert.Equal(t, `attachment; filename="academic_warnings_20241005_143000.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "STT\n", w.Body.String())
}

func TestInsightsHandlerExportDisabled(t *testing.T) {
	handler := NewInsightsHandler(statsServiceStub{}, &exportServiceStub{err: appErrors.Clone(appErrors.ErrFeatureDisabled, "report export is disabled")})

	c, w := authedContext(http.MethodGet, "/reports/export", nil, lecturerClaims)
	handler.Export(c)

	require.Equal(t, http.StatusNotFound, w.Code)
}
