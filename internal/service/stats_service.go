package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/HungtdFPI/TaskforceAF/internal/models"
	appErrors "github.com/HungtdFPI/TaskforceAF/pkg/errors"
)

const statsKeyPattern = "stats:reports:*"

type statsStore interface {
	ListReports(ctx context.Context, filter models.ReportFilter) ([]models.Report, error)
}

// StatsService summarises the reports an actor can see and caches the result per scope.
type StatsService struct {
	store  statsStore
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewStatsService constructs the service. A nil or disabled cache computes every summary.
func NewStatsService(store statsStore, cache *CacheService, ttl time.Duration, logger *zap.Logger) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{
		store:  store,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Summary returns the counts for actor's visibility and whether they came from the cache.
func (s *StatsService) Summary(ctx context.Context, actor models.Actor) (*models.ReportStats, bool, error) {
	if actor.UserID == "" {
		return nil, false, appErrors.ErrUnauthorized
	}
	key := statsKey(actor)
	var cached models.ReportStats
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	reports, err := s.store.ListReports(ctx, actor.ReportFilter())
	if err != nil {
		return nil, false, storeFailure(err, "failed to load report statistics")
	}
	stats := summarize(reports, s.now())
	_ = s.cache.Set(ctx, key, stats, s.ttl)
	return stats, false, nil
}

// Invalidate drops every cached summary.
func (s *StatsService) Invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, statsKeyPattern); err != nil {
		s.logger.Warn("stats cache not invalidated", zap.Error(err))
	}
}

func statsKey(actor models.Actor) string {
	switch models.VisibilityFor(actor.Role) {
	case models.ScopeAll:
		return "stats:reports:all"
	case models.ScopeCampus:
		return "stats:reports:campus:" + string(actor.Campus)
	default:
		return "stats:reports:own:" + actor.UserID
	}
}

func summarize(reports []models.Report, at time.Time) *models.ReportStats {
	stats := &models.ReportStats{
		Total: len(reports),
		ByStatus: map[models.ReportStatus]int{
			models.ReportStatusDraft:     0,
			models.ReportStatusSubmitted: 0,
			models.ReportStatusApproved:  0,
			models.ReportStatusFinalized: 0,
		},
		ByCampus:    map[models.CampusCode]models.CampusStats{},
		GeneratedAt: at,
	}
	for _, r := range reports {
		stats.ByStatus[r.Status]++
		campus := stats.ByCampus[r.Campus]
		campus.Total++
		if r.Banned {
			stats.Banned++
			campus.Banned++
		}
		stats.ByCampus[r.Campus] = campus
		if r.Warned() {
			stats.Warned++
		}
		switch r.DvsvStatus {
		case models.DvsvStatusSuccess:
			stats.CareSuccess++
		case models.DvsvStatusFailed:
			stats.CareFailed++
		}
	}
	return stats
}
