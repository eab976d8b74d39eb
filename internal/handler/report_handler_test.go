package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HungtdFPI/TaskforceAF/internal/dto"
	"github.com/HungtdFPI/TaskforceAF/internal/middleware"
	"github.com/HungtdFPI/TaskforceAF/internal/models"
	appErrors "github.com/HungtdFPI/TaskforceAF/pkg/errors"
)

type reportServiceStub struct {
	reports   []models.Report
	report    *models.Report
	err       error
	removed   int
	lastQuery dto.ReportQuery
	lastActor models.Actor
	lastID    string
	lastCare  dto.CareRequest
	created   dto.CreateReportRequest
}

func (s *reportServiceStub) List(_ context.Context, actor models.Actor, query dto.ReportQuery) ([]models.Report, error) {
	s.lastActor, s.lastQuery = actor, query
	return s.reports, s.err
}

func (s *reportServiceStub) Get(_ context.Context, actor models.Actor, id string) (*models.Report, error) {
	s.lastActor, s.lastID = actor, id
	return s.report, s.err
}

func (s *reportServiceStub) Create(_ context.Context, actor models.Actor, req dto.CreateReportRequest) (*models.Report, error) {
	s.lastActor, s.created = actor, req
	return s.report, s.err
}

func (s *reportServiceStub) EditContent(_ context.Context, actor models.Actor, id string, _ dto.UpdateReportRequest) (*models.Report, error) {
	s.lastActor, s.lastID = actor, id
	return s.report, s.err
}

func (s *reportServiceStub) Delete(_ context.Context, actor models.Actor, id string) error {
	s.lastActor, s.lastID = actor, id
	return s.err
}

func (s *reportServiceStub) ClearDrafts(_ context.Context, actor models.Actor) (int, error) {
	s.lastActor = actor
	return s.removed, s.err
}

func (s *reportServiceStub) SetCareStatus(_ context.Context, actor models.Actor, id string, req dto.CareRequest) (*models.Report, error) {
	s.lastActor, s.lastID, s.lastCare = actor, id, req
	return s.report, s.err
}

var lecturerClaims = &models.JWTClaims{UserID: "gv-1", Role: models.RoleLecturer, Campus: models.CampusHN, FullName: "Tran An"}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func authedContext(method, path string, body []byte, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	c, w := newGinContext(method, path, body)
	c.Set(middleware.ContextUserKey, claims)
	return c, w
}

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestReportHandlerListParsesFilters(t *testing.T) {
	stub := &reportServiceStub{reports: []models.Report{{ID: "r1"}, {ID: "r2"}}}
	handler := NewReportHandler(stub)

	c, w := authedContext(http.MethodGet, "/reports?status=draft,submitted&class=GD07201&q=an&period=Week", nil, lecturerClaims)
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.EqualValues(t, 2, env.Meta["total"])
	assert.Equal(t, []models.ReportStatus{models.ReportStatusDraft, models.ReportStatusSubmitted}, stub.lastQuery.Status)
	assert.Equal(t, "GD07201", stub.lastQuery.ClassName)
	assert.Equal(t, "an", stub.lastQuery.Search)
	assert.Equal(t, models.CreatedThisWeek, stub.lastQuery.Period)
	assert.Equal(t, "gv-1", stub.lastActor.UserID)
	assert.Equal(t, "Tran An", stub.lastActor.DisplayName)
}

func TestReportHandlerListRejectsUnknownStatus(t *testing.T) {
	handler := NewReportHandler(&reportServiceStub{})

	c, w := authedContext(http.MethodGet, "/reports?status=archived", nil, lecturerClaims)
	handler.List(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, appErrors.ErrValidation.Code, decodeEnvelope(t, w).Error.Code)
}

func TestReportHandlerListRejectsUnknownPeriod(t *testing.T) {
	handler := NewReportHandler(&reportServiceStub{})

	c, w := authedContext(http.MethodGet, "/reports?period=year", nil, lecturerClaims)
	handler.List(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, appErrors.ErrValidation.Code, decodeEnvelope(t, w).Error.Code)
}

func TestReportHandlerRequiresActor(t *testing.T) {
	handler := NewReportHandler(&reportServiceStub{})

	c, w := newGinContext(http.MethodGet, "/reports", nil)
	handler.List(c)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestReportHandlerCreate(t *testing.T) {
	stub := &reportServiceStub{report: &models.Report{ID: "r1", Status: models.ReportStatusDraft}}
	handler := NewReportHandler(stub)

	payload, _ := json.Marshal(dto.CreateReportRequest{StudentCode: "SE1", StudentName: "An", ClassName: "C1", Subject: "Figma"})
	c, w := authedContext(http.MethodPost, "/reports", payload, lecturerClaims)
	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "SE1", stub.created.StudentCode)

	c, w = authedContext(http.MethodPost, "/reports", []byte("{"), lecturerClaims)
	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportHandlerMapsServiceErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{appErrors.Clone(appErrors.ErrNotFound, "report not found"), http.StatusNotFound},
		{appErrors.Clone(appErrors.ErrForbidden, "nope"), http.StatusForbidden},
		{appErrors.Clone(appErrors.ErrFinalized, "report is finalized"), http.StatusConflict},
		{appErrors.Clone(appErrors.ErrStorageUnavailable, "down"), http.StatusServiceUnavailable},
		{appErrors.Clone(appErrors.ErrOperationFailed, "fallback failed"), http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(appErrors.FromError(tc.err).Code, func(t *testing.T) {
			handler := NewReportHandler(&reportServiceStub{err: tc.err})
			c, w := authedContext(http.MethodGet, "/reports/r1", nil, lecturerClaims)
			c.Params = gin.Params{{Key: "id", Value: "r1"}}
			handler.Get(c)
			require.Equal(t, tc.status, w.Code)
		})
	}
}

func TestReportHandlerDeleteAndClear(t *testing.T) {
	stub := &reportServiceStub{removed: 3}
	handler := NewReportHandler(stub)

	c, _ := authedContext(http.MethodDelete, "/reports/r1", nil, lecturerClaims)
	c.Params = gin.Params{{Key: "id", Value: "r1"}}
	handler.Delete(c)
	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Equal(t, "r1", stub.lastID)

	c, w := authedContext(http.MethodDelete, "/reports/drafts", nil, lecturerClaims)
	handler.ClearDrafts(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"deleted":3}`, string(decodeEnvelope(t, w).Data))
}

func TestReportHandlerCare(t *testing.T) {
	stub := &reportServiceStub{report: &models.Report{ID: "r1", DvsvStatus: models.DvsvStatusSuccess}}
	handler := NewReportHandler(stub)
	claims := &models.JWTClaims{UserID: "dvsv-1", Role: models.RoleStudentAffairs, Campus: models.CampusHN}

	c, w := authedContext(http.MethodPatch, "/reports/r1/care", []byte(`{"status":"success","note":"called"}`), claims)
	c.Params = gin.Params{{Key: "id", Value: "r1"}}
	handler.Care(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.DvsvStatusSuccess, stub.lastCare.Status)
	assert.Equal(t, "called", stub.lastCare.Note)
}
