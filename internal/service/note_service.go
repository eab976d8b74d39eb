package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/HungtdFPI/TaskforceAF/internal/dto"
	"github.com/HungtdFPI/TaskforceAF/internal/models"
	appErrors "github.com/HungtdFPI/TaskforceAF/pkg/errors"
)

type noteReportWriter interface {
	reportWriter
	UpdateStudentAffairs(ctx context.Context, report *models.Report) error
}

// NoteServiceOption configures the service.
type NoteServiceOption func(*NoteService)

// WithNoteValidator overrides the validator used for note payloads.
func WithNoteValidator(validate *validator.Validate) NoteServiceOption {
	return func(s *NoteService) {
		if validate != nil {
			s.validator = validate
		}
	}
}

// WithNoteClock overrides the time source.
func WithNoteClock(now func() time.Time) NoteServiceOption {
	return func(s *NoteService) {
		if now != nil {
			s.now = now
		}
	}
}

// NoteService keeps the per-field note threads of a report. The report field always mirrors the
// newest note of its thread.
type NoteService struct {
	reports   noteReportWriter
	logs      cycleLogStore
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewNoteService constructs the service.
func NewNoteService(reports noteReportWriter, logs cycleLogStore, logger *zap.Logger, opts ...NoteServiceOption) *NoteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &NoteService{
		reports:   reports,
		logs:      logs,
		validator: validator.New(),
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// AppendNote records content in the field's history and sets the field to it.
func (s *NoteService) AppendNote(ctx context.Context, actor models.Actor, reportID string, field models.LogType, content string) (*models.Report, error) {
	if !field.NoteField() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "field must be status_detail, teacher_note or dvsv_note")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "note content is required")
	}
	if err := s.validator.Struct(dto.AppendNoteRequest{Content: content}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid note payload")
	}
	report, err := s.reports.Get(ctx, actor, reportID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, report, field); err != nil {
		return nil, err
	}
	if field != models.LogTypeDvsvNote {
		if err := s.reports.CheckWritable(report); err != nil {
			return nil, err
		}
	}

	log := &models.ReportLog{
		ReportID:  report.ID,
		UserID:    actor.UserID,
		UserName:  actor.Name(),
		Type:      field,
		Content:   content,
		CreatedAt: s.now(),
	}
	if err := s.logs.AppendLog(ctx, log); err != nil {
		return nil, storeFailure(err, "failed to append note")
	}

	report.SetField(field, content)
	if field == models.LogTypeDvsvNote {
		err = s.reports.UpdateStudentAffairs(ctx, report)
	} else {
		err = s.reports.Update(ctx, report)
	}
	if err != nil {
		s.logger.Warn("note appended but report field not synced",
			zap.String("report_id", report.ID),
			zap.String("field", string(field)),
			zap.Error(err))
		return nil, err
	}
	return report, nil
}

// ListNotes returns a field's note history, newest first.
func (s *NoteService) ListNotes(ctx context.Context, actor models.Actor, reportID string, field models.LogType) ([]models.ReportLog, error) {
	if !field.NoteField() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "field must be status_detail, teacher_note or dvsv_note")
	}
	if _, err := s.reports.Get(ctx, actor, reportID); err != nil {
		return nil, err
	}
	logs, err := s.logs.ListLogs(ctx, reportID, field)
	if err != nil {
		return nil, storeFailure(err, "failed to load notes")
	}
	return logs, nil
}

func (s *NoteService) authorize(actor models.Actor, report *models.Report, field models.LogType) error {
	if field == models.LogTypeDvsvNote {
		if actor.HasRole(models.RoleStudentAffairs) && actor.Campus == report.Campus {
			return nil
		}
		return appErrors.Clone(appErrors.ErrForbidden, "only student affairs of the report's campus can write this note")
	}
	if report.LecturerID == actor.UserID {
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, "only the owning lecturer can write this note")
}
