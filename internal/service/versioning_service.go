package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/HungtdFPI/TaskforceAF/internal/dto"
	"github.com/HungtdFPI/TaskforceAF/internal/models"
	appErrors "github.com/HungtdFPI/TaskforceAF/pkg/errors"
)

// CycleStep names the stage of RecordNewCycle that failed.
type CycleStep string

const (
	CycleStepArchive CycleStep = "archive"
	CycleStepApply   CycleStep = "apply"
	CycleStepNotify  CycleStep = "notify"
)

// CycleError reports which step of a new assessment cycle failed. Earlier steps have already
// taken effect; repeating the whole call is safe.
type CycleError struct {
	Step     CycleStep
	ReportID string
	Err      error
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("new cycle for report %s failed at %s: %v", e.ReportID, e.Step, e.Err)
}

func (e *CycleError) Unwrap() error { return e.Err }

type cycleLogStore interface {
	AppendLog(ctx context.Context, log *models.ReportLog) error
	ListLogs(ctx context.Context, reportID string, logType models.LogType) ([]models.ReportLog, error)
}

type reportWriter interface {
	Get(ctx context.Context, actor models.Actor, id string) (*models.Report, error)
	Update(ctx context.Context, report *models.Report) error
	CheckWritable(report *models.Report) error
}

// VersioningConfig tunes notification previews.
type VersioningConfig struct {
	PreviewLength int
}

// VersioningServiceOption configures the service.
type VersioningServiceOption func(*VersioningService)

// WithVersioningValidator overrides the validator used for cycle payloads.
func WithVersioningValidator(validate *validator.Validate) VersioningServiceOption {
	return func(s *VersioningService) {
		if validate != nil {
			s.validator = validate
		}
	}
}

// WithVersioningClock overrides the time source.
func WithVersioningClock(now func() time.Time) VersioningServiceOption {
	return func(s *VersioningService) {
		if now != nil {
			s.now = now
		}
	}
}

// VersioningService archives a report's state before each new assessment cycle and replays the
// archive as history.
type VersioningService struct {
	reports   reportWriter
	logs      cycleLogStore
	notifier  reportNotifier
	validator *validator.Validate
	logger    *zap.Logger
	cfg       VersioningConfig
	now       func() time.Time
}

// NewVersioningService constructs the engine.
func NewVersioningService(reports reportWriter, logs cycleLogStore, notifier reportNotifier, cfg VersioningConfig, logger *zap.Logger, opts ...VersioningServiceOption) *VersioningService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PreviewLength <= 0 {
		cfg.PreviewLength = 50
	}
	svc := &VersioningService{
		reports:   reports,
		logs:      logs,
		notifier:  notifier,
		validator: validator.New(),
		logger:    logger,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// RecordNewCycle snapshots the report, applies the new cycle's values and announces the change.
// When the announcement fails the updated report is still returned alongside the error.
func (s *VersioningService) RecordNewCycle(ctx context.Context, actor models.Actor, reportID string, req dto.NewCycleRequest) (*models.Report, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cycle payload")
	}
	report, err := s.reports.Get(ctx, actor, reportID)
	if err != nil {
		return nil, err
	}
	if report.LecturerID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the owning lecturer can start a new cycle")
	}
	if err := s.reports.CheckWritable(report); err != nil {
		return nil, err
	}
	now := s.now()
	newDate, err := assessmentDate(req.AssessmentDate, now)
	if err != nil {
		return nil, err
	}

	snapshot := models.SnapshotOf(*report, "Moved to new assessment date: "+newDate)
	content, err := models.EncodeSnapshot(snapshot)
	if err != nil {
		return nil, s.cycleFailure(CycleStepArchive, report.ID, err)
	}
	archive := &models.ReportLog{
		ReportID:  report.ID,
		UserID:    actor.UserID,
		UserName:  actor.Name(),
		Type:      models.LogTypeFullUpdate,
		Content:   content,
		CreatedAt: now,
	}
	if err := s.logs.AppendLog(ctx, archive); err != nil {
		return nil, s.cycleFailure(CycleStepArchive, report.ID, err)
	}

	report.AssessmentDate = newDate
	report.StatusDetail = req.StatusDetail
	report.TeacherNote = req.TeacherNote
	report.Warn10 = req.Warn10
	report.Warn1517 = req.Warn1517
	report.Warn20 = req.Warn20
	report.Banned = req.Banned
	if err := s.reports.Update(ctx, report); err != nil {
		return nil, s.cycleFailure(CycleStepApply, report.ID, err)
	}

	if s.notifier != nil {
		message := fmt.Sprintf("Lecturer %s updated progress for student %s: \"%s\"",
			actor.Name(), report.StudentName, preview(report.StatusDetail, s.cfg.PreviewLength))
		if _, err := s.notifier.Notify(ctx, report.Campus, "Report updated", message, models.NotificationReportUpdated, report.ID); err != nil {
			return report, s.cycleFailure(CycleStepNotify, report.ID, err)
		}
	}
	return report, nil
}

// ListCycles returns the archived cycles of a report, newest first.
func (s *VersioningService) ListCycles(ctx context.Context, actor models.Actor, reportID string) ([]models.CycleEntry, error) {
	if _, err := s.reports.Get(ctx, actor, reportID); err != nil {
		return nil, err
	}
	logs, err := s.logs.ListLogs(ctx, reportID, models.LogTypeFullUpdate)
	if err != nil {
		return nil, storeFailure(err, "failed to load report history")
	}
	entries := make([]models.CycleEntry, 0, len(logs))
	for _, log := range logs {
		entry := models.CycleEntryFrom(log)
		if entry.Raw {
			s.logger.Debug("undecodable cycle snapshot", zap.String("log_id", log.ID), zap.String("report_id", reportID))
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *VersioningService) cycleFailure(step CycleStep, reportID string, err error) error {
	s.logger.Warn("new assessment cycle step failed",
		zap.String("report_id", reportID),
		zap.String("step", string(step)),
		zap.Error(err))
	cycleErr := &CycleError{Step: step, ReportID: reportID, Err: err}
	base := appErrors.FromError(err)
	if base.Code == appErrors.ErrInternal.Code {
		base = appErrors.ErrOperationFailed
	}
	return appErrors.Wrap(cycleErr, base.Code, base.Status, fmt.Sprintf("new assessment cycle failed at %s step", step))
}

// preview shortens text to limit runes, marking truncation with an ellipsis.
func preview(text string, limit int) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return "assessment date updated"
	}
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit]) + "..."
}
