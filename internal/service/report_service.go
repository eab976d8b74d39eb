package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/HungtdFPI/TaskforceAF/internal/dto"
	"github.com/HungtdFPI/TaskforceAF/internal/models"
	"github.com/HungtdFPI/TaskforceAF/internal/repository"
	appErrors "github.com/HungtdFPI/TaskforceAF/pkg/errors"
)

type reportStore interface {
	repository.ReportStore
	AppendLog(ctx context.Context, log *models.ReportLog) error
}

type reportNotifier interface {
	Notify(ctx context.Context, campus models.CampusCode, title, message string, typ models.NotificationType, relatedID string) (*models.Notification, error)
}

type statsInvalidator interface {
	Invalidate(ctx context.Context)
}

// ReportServiceConfig toggles repository guards.
type ReportServiceConfig struct {
	GuardFinalized bool
}

// ReportServiceOption configures the service.
type ReportServiceOption func(*ReportService)

// WithReportNotifier wires the notification dispatcher.
func WithReportNotifier(notifier reportNotifier) ReportServiceOption {
	return func(s *ReportService) { s.notifier = notifier }
}

// WithReportStatsInvalidator drops cached statistics after writes.
func WithReportStatsInvalidator(stats statsInvalidator) ReportServiceOption {
	return func(s *ReportService) { s.stats = stats }
}

// WithReportClock overrides the time source.
func WithReportClock(now func() time.Time) ReportServiceOption {
	return func(s *ReportService) {
		if now != nil {
			s.now = now
		}
	}
}

// ReportService is the report repository façade: visibility-scoped reads, owner-checked writes and
// the finalized guard.
type ReportService struct {
	store     reportStore
	validator *validator.Validate
	notifier  reportNotifier
	stats     statsInvalidator
	logger    *zap.Logger
	cfg       ReportServiceConfig
	now       func() time.Time
}

// NewReportService constructs the service.
func NewReportService(store reportStore, validate *validator.Validate, logger *zap.Logger, cfg ReportServiceConfig, opts ...ReportServiceOption) *ReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	registerReportValidations(validate)
	svc := &ReportService{
		store:     store,
		validator: validate,
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

func registerReportValidations(validate *validator.Validate) {
	_ = validate.RegisterValidation("campus", func(fl validator.FieldLevel) bool {
		return models.CampusCode(fl.Field().String()).Valid()
	})
	_ = validate.RegisterValidation("study_status", func(fl validator.FieldLevel) bool {
		switch models.StudyStatus(fl.Field().String()) {
		case models.StudyStatusStudying, models.StudyStatusRepeating, models.StudyStatusOnHold, models.StudyStatusWithdrawn:
			return true
		default:
			return false
		}
	})
}

// List returns the reports visible to actor, newest first.
func (s *ReportService) List(ctx context.Context, actor models.Actor, query dto.ReportQuery) ([]models.Report, error) {
	if actor.UserID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	filter := actor.ReportFilter()
	filter.Status = query.Status
	filter.ClassName = strings.TrimSpace(query.ClassName)
	filter.Search = strings.TrimSpace(query.Search)
	if !query.Period.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "period must be all, today, week or month")
	}
	if query.Period != "" && query.Period != models.CreatedAnyTime {
		filter.CreatedFrom, filter.CreatedTo = query.Period.Bounds(s.now())
	}
	reports, err := s.store.ListReports(ctx, filter)
	if err != nil {
		return nil, storeFailure(err, "failed to list reports")
	}
	return reports, nil
}

// Get returns a report when it is inside actor's visibility. Reports outside it do not exist as
// far as the caller is concerned.
func (s *ReportService) Get(ctx context.Context, actor models.Actor, id string) (*models.Report, error) {
	report, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanSee(*report) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
	}
	return report, nil
}

// Create stores a new draft owned by actor and announces it to the report's campus.
func (s *ReportService) Create(ctx context.Context, actor models.Actor, req dto.CreateReportRequest) (*models.Report, error) {
	if !actor.HasRole(models.RoleLecturer) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only lecturers can create reports")
	}
	if req.Campus == "" {
		req.Campus = actor.Campus
	}
	if req.Campus == "" {
		req.Campus = models.CampusHN
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload")
	}
	now := s.now()
	assessed, err := assessmentDate(req.AssessmentDate, now)
	if err != nil {
		return nil, err
	}
	study := req.StudyStatus
	if study == "" {
		study = models.StudyStatusStudying
	}
	report := &models.Report{
		LecturerID:     actor.UserID,
		Campus:         req.Campus,
		StudentCode:    strings.TrimSpace(req.StudentCode),
		StudentName:    strings.TrimSpace(req.StudentName),
		ClassName:      strings.TrimSpace(req.ClassName),
		Subject:        strings.TrimSpace(req.Subject),
		Warn10:         req.Warn10,
		Warn1517:       req.Warn1517,
		Warn20:         req.Warn20,
		Banned:         req.Banned,
		StatusDetail:   req.StatusDetail,
		TeacherNote:    req.TeacherNote,
		DvsvStatus:     models.DvsvStatusPending,
		StudyStatus:    study,
		AssessmentDate: assessed,
		Status:         models.ReportStatusDraft,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.InsertReport(ctx, report); err != nil {
		return nil, storeFailure(err, "failed to create report")
	}
	s.invalidateStats(ctx)
	s.notify(ctx, report.Campus, "New report",
		fmt.Sprintf("Lecturer %s created a report for %s", actor.Name(), report.StudentName),
		models.NotificationReportCreated, report.ID)
	return report, nil
}

// Update writes the full record. Stored campus, owner, status and creation time are kept, so
// status only moves through lifecycle transitions. Finalized reports are refused while the guard
// is on. It emits nothing.
func (s *ReportService) Update(ctx context.Context, report *models.Report) error {
	if report == nil || report.ID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "report id is required")
	}
	return s.persist(ctx, report, s.cfg.GuardFinalized)
}

// EditContent lets the owning lecturer change the report's content fields.
func (s *ReportService) EditContent(ctx context.Context, actor models.Actor, id string, req dto.UpdateReportRequest) (*models.Report, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload")
	}
	report, err := s.ownedReport(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	report.StudentCode = strings.TrimSpace(req.StudentCode)
	report.StudentName = strings.TrimSpace(req.StudentName)
	report.ClassName = strings.TrimSpace(req.ClassName)
	report.Subject = strings.TrimSpace(req.Subject)
	report.Warn10 = req.Warn10
	report.Warn1517 = req.Warn1517
	report.Warn20 = req.Warn20
	report.Banned = req.Banned
	report.StatusDetail = req.StatusDetail
	report.TeacherNote = req.TeacherNote
	if req.StudyStatus != "" {
		report.StudyStatus = req.StudyStatus
	}
	if err := s.Update(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

// UpdateStudentAffairs writes the full record like Update but without the finalized guard. It
// serves the student-affairs fields, which stay editable after finalization.
func (s *ReportService) UpdateStudentAffairs(ctx context.Context, report *models.Report) error {
	if report == nil || report.ID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "report id is required")
	}
	return s.persist(ctx, report, false)
}

// CheckWritable returns ErrFinalized when the guard forbids changing report.
func (s *ReportService) CheckWritable(report *models.Report) error {
	if s.cfg.GuardFinalized && report != nil && report.Status == models.ReportStatusFinalized {
		return appErrors.Clone(appErrors.ErrFinalized, "report is finalized")
	}
	return nil
}

// Delete removes one of actor's own reports. Logs are left in place.
func (s *ReportService) Delete(ctx context.Context, actor models.Actor, id string) error {
	report, err := s.ownedReport(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.CheckWritable(report); err != nil {
		return err
	}
	if err := s.store.DeleteReport(ctx, id); err != nil {
		return storeFailure(err, "failed to delete report")
	}
	s.invalidateStats(ctx)
	return nil
}

// BulkOption narrows or stamps a bulk status change.
type BulkOption func(*models.StatusTransition)

// OwnedBy limits a bulk status change to one lecturer's reports.
func OwnedBy(lecturerID string) BulkOption {
	return func(t *models.StatusTransition) { t.LecturerID = lecturerID }
}

// AllMatching applies a bulk status change to every report in the source state, ignoring ids.
func AllMatching() BulkOption {
	return func(t *models.StatusTransition) { t.AllIDs = true }
}

// StampedAt sets the update time recorded on moved reports.
func StampedAt(at time.Time) BulkOption {
	return func(t *models.StatusTransition) { t.At = at }
}

// BulkSetStatus moves ids to newStatus where the lifecycle allows it. Only submitted (from draft)
// and finalized (from approved) are accepted; ids in any other state are skipped.
func (s *ReportService) BulkSetStatus(ctx context.Context, ids []string, newStatus models.ReportStatus, opts ...BulkOption) (*dto.BatchResult, error) {
	var from models.ReportStatus
	switch newStatus {
	case models.ReportStatusSubmitted:
		from = models.ReportStatusDraft
	case models.ReportStatusFinalized:
		from = models.ReportStatusApproved
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("bulk status change to %q is not supported", newStatus))
	}
	t := models.StatusTransition{IDs: uniqueIDs(ids), From: from, To: newStatus}
	for _, opt := range opts {
		if opt != nil {
			opt(&t)
		}
	}
	if t.AllIDs {
		t.IDs = nil
	}
	return s.transition(ctx, t)
}

// ClearDrafts deletes actor's own drafts and reports how many went.
func (s *ReportService) ClearDrafts(ctx context.Context, actor models.Actor) (int, error) {
	if !actor.HasRole(models.RoleLecturer) || actor.UserID == "" {
		return 0, appErrors.Clone(appErrors.ErrForbidden, "only lecturers can clear drafts")
	}
	removed, err := s.store.DeleteReports(ctx, models.ReportFilter{
		LecturerID: actor.UserID,
		Status:     []models.ReportStatus{models.ReportStatusDraft},
	})
	if err != nil {
		return 0, storeFailure(err, "failed to clear drafts")
	}
	if removed > 0 {
		s.invalidateStats(ctx)
	}
	s.logger.Info("drafts cleared", zap.String("lecturer_id", actor.UserID), zap.Int("count", removed))
	return removed, nil
}

// SetCareStatus records the student-affairs outcome for a report on actor's campus. A note is
// appended to the dvsv_note history and mirrored onto the report.
func (s *ReportService) SetCareStatus(ctx context.Context, actor models.Actor, id string, req dto.CareRequest) (*models.Report, error) {
	if !actor.HasRole(models.RoleStudentAffairs) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only student affairs can record care actions")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid care payload")
	}
	report, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.Campus != actor.Campus {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
	}
	note := strings.TrimSpace(req.Note)
	if note != "" {
		log := &models.ReportLog{
			ReportID:  report.ID,
			UserID:    actor.UserID,
			UserName:  actor.Name(),
			Type:      models.LogTypeDvsvNote,
			Content:   note,
			CreatedAt: s.now(),
		}
		if err := s.store.AppendLog(ctx, log); err != nil {
			return nil, storeFailure(err, "failed to record care note")
		}
		report.DvsvNote = note
	}
	report.DvsvStatus = req.Status
	if err := s.UpdateStudentAffairs(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

func (s *ReportService) transition(ctx context.Context, t models.StatusTransition) (*dto.BatchResult, error) {
	if t.At.IsZero() {
		t.At = s.now()
	}
	moved, err := s.store.TransitionStatus(ctx, t)
	if err != nil {
		return nil, storeFailure(err, "failed to change report status")
	}
	result := &dto.BatchResult{Updated: moved, Skipped: []string{}}
	if result.Updated == nil {
		result.Updated = []string{}
	}
	for _, id := range t.IDs {
		if !containsID(moved, id) {
			result.Skipped = append(result.Skipped, id)
		}
	}
	if len(moved) > 0 {
		s.invalidateStats(ctx)
	}
	return result, nil
}

func (s *ReportService) persist(ctx context.Context, report *models.Report, guard bool) error {
	stored, err := s.store.GetReport(ctx, report.ID)
	switch {
	case err == nil:
		if guard {
			if err := s.CheckWritable(stored); err != nil {
				return err
			}
		}
		report.Campus = stored.Campus
		report.LecturerID = stored.LecturerID
		report.Status = stored.Status
		report.CreatedAt = stored.CreatedAt
	case errors.Is(err, repository.ErrNotFound):
		if !report.Status.Valid() {
			report.Status = models.ReportStatusDraft
		}
		if report.CreatedAt.IsZero() {
			report.CreatedAt = s.now()
		}
	default:
		return storeFailure(err, "failed to load report")
	}
	report.UpdatedAt = s.now()
	if err := s.store.UpsertReport(ctx, report); err != nil {
		return storeFailure(err, "failed to update report")
	}
	s.invalidateStats(ctx)
	return nil
}

func (s *ReportService) load(ctx context.Context, id string) (*models.Report, error) {
	if strings.TrimSpace(id) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "report id is required")
	}
	report, err := s.store.GetReport(ctx, id)
	if err != nil {
		return nil, storeFailure(err, "failed to load report")
	}
	return report, nil
}

func (s *ReportService) ownedReport(ctx context.Context, actor models.Actor, id string) (*models.Report, error) {
	report, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.LecturerID != actor.UserID {
		if actor.CanSee(*report) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "only the owning lecturer can change this report")
		}
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
	}
	return report, nil
}

func (s *ReportService) notify(ctx context.Context, campus models.CampusCode, title, message string, typ models.NotificationType, relatedID string) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Notify(ctx, campus, title, message, typ, relatedID); err != nil {
		s.logger.Warn("report notification failed",
			zap.String("report_id", relatedID),
			zap.String("type", string(typ)),
			zap.Error(err))
	}
}

func (s *ReportService) invalidateStats(ctx context.Context) {
	if s.stats != nil {
		s.stats.Invalidate(ctx)
	}
}

// assessmentDate converts a yyyy-MM-dd input to the stored dd/MM/yyyy form; empty means today.
func assessmentDate(input string, now time.Time) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return now.Format(models.AssessmentDateLayout), nil
	}
	parsed, err := time.Parse("2006-01-02", input)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "assessment_date must be yyyy-MM-dd")
	}
	return parsed.Format(models.AssessmentDateLayout), nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
