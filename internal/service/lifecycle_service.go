package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/HungtdFPI/TaskforceAF/internal/dto"
	"github.com/HungtdFPI/TaskforceAF/internal/models"
	"github.com/HungtdFPI/TaskforceAF/internal/repository"
	appErrors "github.com/HungtdFPI/TaskforceAF/pkg/errors"
)

type lifecycleStore interface {
	ListReports(ctx context.Context, filter models.ReportFilter) ([]models.Report, error)
	GetReport(ctx context.Context, id string) (*models.Report, error)
	TransitionStatus(ctx context.Context, t models.StatusTransition) ([]string, error)
}

var _ lifecycleStore = (repository.ReportStore)(nil)

type bulkStatusSetter interface {
	BulkSetStatus(ctx context.Context, ids []string, newStatus models.ReportStatus, opts ...BulkOption) (*dto.BatchResult, error)
}

var _ bulkStatusSetter = (*ReportService)(nil)

// LifecycleServiceOption configures the service.
type LifecycleServiceOption func(*LifecycleService)

// WithLifecycleNotifier wires the notification dispatcher.
func WithLifecycleNotifier(notifier reportNotifier) LifecycleServiceOption {
	return func(s *LifecycleService) { s.notifier = notifier }
}

// WithLifecycleStatsInvalidator drops cached statistics after applied transitions.
func WithLifecycleStatsInvalidator(stats statsInvalidator) LifecycleServiceOption {
	return func(s *LifecycleService) { s.stats = stats }
}

// WithLifecycleMetrics counts applied transitions.
func WithLifecycleMetrics(metrics *MetricsService) LifecycleServiceOption {
	return func(s *LifecycleService) { s.metrics = metrics }
}

// WithLifecycleValidator overrides the validator used for transition payloads.
func WithLifecycleValidator(validate *validator.Validate) LifecycleServiceOption {
	return func(s *LifecycleService) {
		if validate != nil {
			s.validator = validate
		}
	}
}

// WithLifecycleClock overrides the time source.
func WithLifecycleClock(now func() time.Time) LifecycleServiceOption {
	return func(s *LifecycleService) {
		if now != nil {
			s.now = now
		}
	}
}

// LifecycleService moves reports through draft, submitted, approved and finalized.
// Batch transitions go through the report repository's BulkSetStatus.
type LifecycleService struct {
	store     lifecycleStore
	reports   bulkStatusSetter
	validator *validator.Validate
	notifier  reportNotifier
	stats     statsInvalidator
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
}

// NewLifecycleService constructs the state machine.
func NewLifecycleService(store lifecycleStore, reports bulkStatusSetter, logger *zap.Logger, opts ...LifecycleServiceOption) *LifecycleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &LifecycleService{
		store:     store,
		reports:   reports,
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

// Submit sends the lecturer's drafts for review. An empty ids list submits every own draft; ids
// that are not own drafts are skipped.
func (s *LifecycleService) Submit(ctx context.Context, actor models.Actor, ids []string) (*dto.BatchResult, error) {
	t, err := s.authorize(actor, TransitionSubmit)
	if err != nil {
		return nil, err
	}
	filter := models.ReportFilter{LecturerID: actor.UserID}
	ids = uniqueIDs(ids)
	if len(ids) > 0 {
		filter.IDs = ids
	} else {
		filter.Status = []models.ReportStatus{t.From}
	}
	candidates, err := s.store.ListReports(ctx, filter)
	if err != nil {
		return nil, storeFailure(err, "failed to load reports")
	}
	if len(ids) == 0 {
		for _, r := range candidates {
			ids = append(ids, r.ID)
		}
	}
	if len(ids) == 0 {
		return &dto.BatchResult{Updated: []string{}, Skipped: []string{}}, nil
	}

	result, err := s.reports.BulkSetStatus(ctx, ids, t.To, OwnedBy(actor.UserID), StampedAt(s.now()))
	if err != nil {
		return nil, err
	}
	s.metrics.RecordTransition(string(t.Name), len(result.Updated))
	counts := movedByCampus(candidates, result.Updated)
	for _, campus := range sortedCampuses(counts) {
		s.notify(ctx, t, campus, fmt.Sprintf("Lecturer %s submitted %d report(s) for review", actor.Name(), counts[campus]), "")
	}
	return result, nil
}

// Approve accepts a submitted report.
func (s *LifecycleService) Approve(ctx context.Context, actor models.Actor, id string) (*dto.TransitionResult, error) {
	return s.single(ctx, actor, id, TransitionApprove, "")
}

// Reject returns a submitted report to its lecturer as a draft.
func (s *LifecycleService) Reject(ctx context.Context, actor models.Actor, id, reason string) (*dto.TransitionResult, error) {
	req := dto.RejectReportRequest{Reason: strings.TrimSpace(reason)}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reject payload")
	}
	return s.single(ctx, actor, id, TransitionReject, req.Reason)
}

// FinalizeAll locks every approved report across all campuses.
func (s *LifecycleService) FinalizeAll(ctx context.Context, actor models.Actor) (*dto.BatchResult, error) {
	t, err := s.authorize(actor, TransitionFinalize)
	if err != nil {
		return nil, err
	}
	approved, err := s.store.ListReports(ctx, models.ReportFilter{Status: []models.ReportStatus{t.From}})
	if err != nil {
		return nil, storeFailure(err, "failed to load reports")
	}
	result, err := s.reports.BulkSetStatus(ctx, nil, t.To, AllMatching(), StampedAt(s.now()))
	if err != nil {
		return nil, err
	}
	s.metrics.RecordTransition(string(t.Name), len(result.Updated))
	counts := movedByCampus(approved, result.Updated)
	for _, campus := range sortedCampuses(counts) {
		s.notify(ctx, t, campus, fmt.Sprintf("%s finalized %d report(s)", actor.Name(), counts[campus]), "")
	}
	s.logger.Info("reports finalized", zap.String("actor_id", actor.UserID), zap.Int("count", len(result.Updated)))
	return result, nil
}

func (s *LifecycleService) single(ctx context.Context, actor models.Actor, id string, name TransitionName, reason string) (*dto.TransitionResult, error) {
	t, err := s.authorize(actor, name)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(id) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "report id is required")
	}
	report, err := s.store.GetReport(ctx, id)
	if err != nil {
		return nil, storeFailure(err, "failed to load report")
	}
	if !actor.CanSee(*report) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
	}
	if report.Status != t.From {
		return skipped(report, t), nil
	}

	at := s.now()
	moved, err := s.store.TransitionStatus(ctx, models.StatusTransition{
		IDs:  []string{report.ID},
		From: t.From,
		To:   t.To,
		At:   at,
	})
	if err != nil {
		return nil, storeFailure(err, fmt.Sprintf("failed to %s report", t.Name))
	}
	if !containsID(moved, report.ID) {
		// Someone else moved it between the read and the write.
		current, err := s.store.GetReport(ctx, report.ID)
		if err != nil {
			return nil, storeFailure(err, "failed to load report")
		}
		return skipped(current, t), nil
	}
	report.Status = t.To
	report.UpdatedAt = at
	s.applied(ctx, t, 1)

	var message string
	switch name {
	case TransitionReject:
		message = fmt.Sprintf("Report for %s was rejected by %s", report.StudentName, actor.Name())
		if reason != "" {
			message += ": " + reason
		}
	default:
		message = fmt.Sprintf("Report for %s was approved by %s", report.StudentName, actor.Name())
	}
	s.notify(ctx, t, report.Campus, message, report.ID)
	return &dto.TransitionResult{Report: report, Applied: true}, nil
}

func (s *LifecycleService) authorize(actor models.Actor, name TransitionName) (Transition, error) {
	t, ok := TransitionFor(name)
	if !ok {
		return Transition{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown transition %q", name))
	}
	if actor.UserID == "" {
		return Transition{}, appErrors.ErrUnauthorized
	}
	if !t.Allows(actor.Role) {
		return Transition{}, appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("role %s cannot %s reports", actor.Role, t.Name))
	}
	return t, nil
}

func (s *LifecycleService) applied(ctx context.Context, t Transition, count int) {
	if count == 0 {
		return
	}
	s.metrics.RecordTransition(string(t.Name), count)
	if s.stats != nil {
		s.stats.Invalidate(ctx)
	}
}

func (s *LifecycleService) notify(ctx context.Context, t Transition, campus models.CampusCode, message, relatedID string) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Notify(ctx, campus, t.Title, message, t.Notification, relatedID); err != nil {
		s.logger.Warn("lifecycle notification failed",
			zap.String("transition", string(t.Name)),
			zap.String("campus", string(campus)),
			zap.Error(err))
	}
}

// skipped describes a single-record transition that found the report in the wrong state.
func skipped(report *models.Report, t Transition) *dto.TransitionResult {
	reason := appErrors.Clone(appErrors.ErrPreconditionNotMet, fmt.Sprintf("report is %s, %s requires %s", report.Status, t.Name, t.From))
	return &dto.TransitionResult{Report: report, Applied: false, Code: reason.Code, Reason: reason.Message}
}

// movedByCampus counts moved ids per campus using the reports read before the transition.
func movedByCampus(reports []models.Report, moved []string) map[models.CampusCode]int {
	counts := make(map[models.CampusCode]int)
	for _, r := range reports {
		if containsID(moved, r.ID) {
			counts[r.Campus]++
		}
	}
	return counts
}

func sortedCampuses(counts map[models.CampusCode]int) []models.CampusCode {
	out := make([]models.CampusCode, 0, len(counts))
	for c := range counts {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
