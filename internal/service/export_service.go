package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/HungtdFPI/TaskforceAF/internal/dto"
	"github.com/HungtdFPI/TaskforceAF/internal/models"
	appErrors "github.com/HungtdFPI/TaskforceAF/pkg/errors"
	"github.com/HungtdFPI/TaskforceAF/pkg/export"
)

// ExportFormat is a supported download format.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type reportLister interface {
	List(ctx context.Context, actor models.Actor, query dto.ReportQuery) ([]models.Report, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders the reports an actor can see as a spreadsheet-style table.
type ExportService struct {
	reports reportLister
	csv     datasetRenderer
	pdf     datasetRenderer
	enabled bool
	logger  *zap.Logger
	now     func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to the package defaults.
func NewExportService(reports reportLister, enabled bool, logger *zap.Logger, csv, pdf datasetRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		reports: reports,
		csv:     csv,
		pdf:     pdf,
		enabled: enabled,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Export renders the actor's visible reports, filtered by query, in format.
func (s *ExportService) Export(ctx context.Context, actor models.Actor, format ExportFormat, query dto.ReportQuery) (*ExportFile, error) {
	if !s.enabled {
		return nil, appErrors.Clone(appErrors.ErrFeatureDisabled, "report export is disabled")
	}
	var (
		renderer    datasetRenderer
		contentType string
	)
	switch ExportFormat(strings.ToLower(string(format))) {
	case ExportFormatCSV, "":
		format, renderer, contentType = ExportFormatCSV, s.csv, "text/csv; charset=utf-8"
	case ExportFormatPDF:
		format, renderer, contentType = ExportFormatPDF, s.pdf, "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	reports, err := s.reports.List(ctx, actor, query)
	if err != nil {
		return nil, err
	}
	body, err := renderer.Render(reportDataset(reports))
	if err != nil {
		s.logger.Error("report export failed", zap.String("format", string(format)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("academic_warnings_%s.%s", s.now().Format("20060102_150405"), format),
		ContentType: contentType,
		Body:        body,
	}, nil
}

var reportColumnsLayout = []export.Column{
	{Header: "STT", Width: 5},
	{Header: "Campus", Width: 8},
	{Header: "Lecturer ID", Width: 15},
	{Header: "Student code", Width: 15},
	{Header: "Student name", Width: 25},
	{Header: "Class", Width: 10},
	{Header: "Subject", Width: 15},
	{Header: "Status detail", Width: 30},
	{Header: "Warn 10%", Width: 10},
	{Header: "Warn 15-17%", Width: 10},
	{Header: "Warn 20%", Width: 10},
	{Header: "Banned (AF)", Width: 10},
	{Header: "Created", Width: 15},
	{Header: "Teacher note", Width: 25},
	{Header: "DVSV note", Width: 25},
	{Header: "DVSV status", Width: 15},
	{Header: "Report status", Width: 15},
}

func reportDataset(reports []models.Report) export.Dataset {
	rows := make([][]string, 0, len(reports))
	for i, r := range reports {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			string(r.Campus),
			r.LecturerID,
			r.StudentCode,
			r.StudentName,
			r.ClassName,
			r.Subject,
			r.StatusDetail,
			mark(r.Warn10),
			mark(r.Warn1517),
			mark(r.Warn20),
			mark(r.Banned),
			r.CreatedAt.Format(models.AssessmentDateLayout),
			r.TeacherNote,
			r.DvsvNote,
			dvsvLabel(r.DvsvStatus),
			statusLabel(r.Status),
		})
	}
	return export.Dataset{Title: "Academic warning reports", Columns: reportColumnsLayout, Rows: rows}
}

func mark(flag bool) string {
	if flag {
		return "X"
	}
	return ""
}

func dvsvLabel(status models.DvsvStatus) string {
	switch status {
	case models.DvsvStatusSuccess:
		return "Success"
	case models.DvsvStatusFailed:
		return "Failed"
	case models.DvsvStatusPending:
		return "Pending"
	}
	return ""
}

func statusLabel(status models.ReportStatus) string {
	switch status {
	case models.ReportStatusSubmitted:
		return "Submitted"
	case models.ReportStatusApproved:
		return "Approved"
	case models.ReportStatusFinalized:
		return "Finalized"
	}
	return "Draft"
}
