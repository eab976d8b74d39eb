package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/HungtdFPI/TaskforceAF/internal/models"
	"github.com/HungtdFPI/TaskforceAF/pkg/jobs"
)

// ErrFallbackFailed marks an operation that failed on the fallback after the primary was
// already unreachable.
var ErrFallbackFailed = errors.New("fallback store failed")

// FailoverRecorder receives a signal each time an operation is rerouted to the fallback.
type FailoverRecorder interface {
	RecordStoreFailover(operation string)
}

// FailoverOption customises a FailoverStore.
type FailoverOption func(*FailoverStore)

// WithFailoverLogger sets the logger.
func WithFailoverLogger(logger *zap.Logger) FailoverOption {
	return func(s *FailoverStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCallTimeout bounds every store call. Zero disables the bound.
func WithCallTimeout(timeout time.Duration) FailoverOption {
	return func(s *FailoverStore) { s.timeout = timeout }
}

// WithProbeSchedule sets how often the primary is re-probed while degraded.
func WithProbeSchedule(schedule jobs.Schedule) FailoverOption {
	return func(s *FailoverStore) { s.schedule = schedule }
}

// WithFailoverRecorder wires a metrics sink.
func WithFailoverRecorder(recorder FailoverRecorder) FailoverOption {
	return func(s *FailoverStore) { s.recorder = recorder }
}

// FailoverStore routes calls to the primary store and reroutes them to the fallback when the
// primary is unreachable. A background poller switches back once the primary answers again.
type FailoverStore struct {
	primary  Store
	fallback Store
	logger   *zap.Logger
	timeout  time.Duration
	schedule jobs.Schedule
	recorder FailoverRecorder
	poller   *jobs.Poller

	mu       sync.RWMutex
	degraded bool
}

// NewFailoverStore probes the primary once and starts in degraded mode if it does not answer.
// fallback may be nil, in which case primary errors pass through unchanged.
func NewFailoverStore(ctx context.Context, primary, fallback Store, opts ...FailoverOption) *FailoverStore {
	s := &FailoverStore{
		primary:  primary,
		fallback: fallback,
		logger:   zap.NewNop(),
		timeout:  3 * time.Second,
		schedule: jobs.Schedule{Interval: 15 * time.Second, Jitter: 2 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.poller = jobs.NewPoller("store-probe", s.probe, jobs.PollerConfig{Schedule: s.schedule, Logger: s.logger})

	if fallback != nil {
		pingCtx, cancel := s.withTimeout(ctx)
		defer cancel()
		if err := primary.Ping(pingCtx); err != nil {
			s.logger.Warn("primary store unreachable at startup, using fallback",
				zap.String("primary", primary.Name()),
				zap.String("fallback", fallback.Name()),
				zap.Error(err))
			s.degraded = true
		}
	}
	return s
}

// Start launches the recovery prober.
func (s *FailoverStore) Start(ctx context.Context) {
	if s.fallback == nil {
		return
	}
	s.poller.Start(ctx)
}

// Stop halts the recovery prober.
func (s *FailoverStore) Stop() {
	s.poller.Stop()
}

// Degraded reports whether calls currently go to the fallback.
func (s *FailoverStore) Degraded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.degraded
}

// Name reports the backend currently answering.
func (s *FailoverStore) Name() string {
	if s.Degraded() {
		return s.fallback.Name()
	}
	return s.primary.Name()
}

// Ping checks whichever backend is active.
func (s *FailoverStore) Ping(ctx context.Context) error {
	_, err := call(ctx, s, "ping", func(ctx context.Context, st Store) (struct{}, error) {
		return struct{}{}, st.Ping(ctx)
	})
	return err
}

func (s *FailoverStore) ListReports(ctx context.Context, filter models.ReportFilter) ([]models.Report, error) {
	return call(ctx, s, "list_reports", func(ctx context.Context, st Store) ([]models.Report, error) {
		return st.ListReports(ctx, filter)
	})
}

func (s *FailoverStore) GetReport(ctx context.Context, id string) (*models.Report, error) {
	return call(ctx, s, "get_report", func(ctx context.Context, st Store) (*models.Report, error) {
		return st.GetReport(ctx, id)
	})
}

func (s *FailoverStore) InsertReport(ctx context.Context, report *models.Report) error {
	return exec(ctx, s, "insert_report", func(ctx context.Context, st Store) error {
		return st.InsertReport(ctx, report)
	})
}

func (s *FailoverStore) UpsertReport(ctx context.Context, report *models.Report) error {
	return exec(ctx, s, "upsert_report", func(ctx context.Context, st Store) error {
		return st.UpsertReport(ctx, report)
	})
}

func (s *FailoverStore) DeleteReport(ctx context.Context, id string) error {
	return exec(ctx, s, "delete_report", func(ctx context.Context, st Store) error {
		return st.DeleteReport(ctx, id)
	})
}

func (s *FailoverStore) DeleteReports(ctx context.Context, filter models.ReportFilter) (int, error) {
	return call(ctx, s, "delete_reports", func(ctx context.Context, st Store) (int, error) {
		return st.DeleteReports(ctx, filter)
	})
}

func (s *FailoverStore) TransitionStatus(ctx context.Context, t models.StatusTransition) ([]string, error) {
	return call(ctx, s, "transition_status", func(ctx context.Context, st Store) ([]string, error) {
		return st.TransitionStatus(ctx, t)
	})
}

func (s *FailoverStore) AppendLog(ctx context.Context, log *models.ReportLog) error {
	return exec(ctx, s, "append_log", func(ctx context.Context, st Store) error {
		return st.AppendLog(ctx, log)
	})
}

func (s *FailoverStore) ListLogs(ctx context.Context, reportID string, logType models.LogType) ([]models.ReportLog, error) {
	return call(ctx, s, "list_logs", func(ctx context.Context, st Store) ([]models.ReportLog, error) {
		return st.ListLogs(ctx, reportID, logType)
	})
}

func (s *FailoverStore) InsertNotification(ctx context.Context, n *models.Notification, retain int) error {
	return exec(ctx, s, "insert_notification", func(ctx context.Context, st Store) error {
		return st.InsertNotification(ctx, n, retain)
	})
}

func (s *FailoverStore) ListNotifications(ctx context.Context, campus models.CampusCode) ([]models.Notification, error) {
	return call(ctx, s, "list_notifications", func(ctx context.Context, st Store) ([]models.Notification, error) {
		return st.ListNotifications(ctx, campus)
	})
}

func (s *FailoverStore) MarkNotificationRead(ctx context.Context, id, userID string) error {
	return exec(ctx, s, "mark_notification_read", func(ctx context.Context, st Store) error {
		return st.MarkNotificationRead(ctx, id, userID)
	})
}

func call[T any](ctx context.Context, s *FailoverStore, op string, fn func(context.Context, Store) (T, error)) (T, error) {
	if s.fallback != nil && s.Degraded() {
		return onFallback(ctx, s, op, fn)
	}

	callCtx, cancel := s.withTimeout(ctx)
	result, err := fn(callCtx, s.primary)
	cancel()
	if err == nil || s.fallback == nil || !IsUnavailable(err) || ctx.Err() != nil {
		return result, err
	}

	s.markDegraded(op, err)
	return onFallback(ctx, s, op, fn)
}

func exec(ctx context.Context, s *FailoverStore, op string, fn func(context.Context, Store) error) error {
	_, err := call(ctx, s, op, func(ctx context.Context, st Store) (struct{}, error) {
		return struct{}{}, fn(ctx, st)
	})
	return err
}

func onFallback[T any](ctx context.Context, s *FailoverStore, op string, fn func(context.Context, Store) (T, error)) (T, error) {
	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	result, err := fn(callCtx, s.fallback)
	if err != nil && IsUnavailable(err) {
		return result, fmt.Errorf("%w: %s on %s: %v", ErrFallbackFailed, op, s.fallback.Name(), err)
	}
	return result, err
}

func (s *FailoverStore) markDegraded(op string, cause error) {
	s.mu.Lock()
	already := s.degraded
	s.degraded = true
	s.mu.Unlock()

	if s.recorder != nil {
		s.recorder.RecordStoreFailover(op)
	}
	if !already {
		s.logger.Warn("primary store unavailable, switching to fallback",
			zap.String("operation", op),
			zap.String("primary", s.primary.Name()),
			zap.String("fallback", s.fallback.Name()),
			zap.Error(cause))
	}
}

func (s *FailoverStore) probe(ctx context.Context) error {
	if !s.Degraded() {
		return nil
	}
	pingCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.primary.Ping(pingCtx); err != nil {
		return fmt.Errorf("probe %s: %w", s.primary.Name(), err)
	}
	s.mu.Lock()
	s.degraded = false
	s.mu.Unlock()
	s.logger.Info("primary store recovered", zap.String("primary", s.primary.Name()))
	return nil
}

func (s *FailoverStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}
