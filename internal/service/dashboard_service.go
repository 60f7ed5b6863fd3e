package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hamidrezasoltanian/recruitment-dashboard/internal/models"
	appErrors "github.com/hamidrezasoltanian/recruitment-dashboard/pkg/errors"
)

type dashboardCandidateRepository interface {
	StageCounts(ctx context.Context) (map[string]int, error)
	Recent(ctx context.Context, limit int) ([]models.Candidate, error)
	UpcomingInterviews(ctx context.Context, limit int) ([]models.Candidate, error)
}

type dashboardStageRepository interface {
	List(ctx context.Context) ([]models.Stage, error)
}

// StageColumn is one Kanban column with its occupancy.
type StageColumn struct {
	StageID    string `json:"stage_id"`
	StageTitle string `json:"stage_title"`
	IsCore     bool   `json:"is_core"`
	Count      int    `json:"count"`
}

// DashboardSummary is the board overview payload.
type DashboardSummary struct {
	Columns            []StageColumn        `json:"columns"`
	TotalCandidates    int                  `json:"total_candidates"`
	RecentCandidates   []models.Candidate   `json:"recent_candidates"`
	UpcomingInterviews []models.Candidate   `json:"upcoming_interviews"`
	Metrics            models.SystemMetrics `json:"metrics"`
	GeneratedAt        time.Time            `json:"generated_at"`
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL      time.Duration
	RecentLimit   int
	UpcomingLimit int
}

// DashboardService composes the board summary with short-lived caching.
type DashboardService struct {
	candidates dashboardCandidateRepository
	stages     dashboardStageRepository
	cache      *CacheService
	metrics    *MetricsService
	logger     *zap.Logger
	cfg        DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(candidates dashboardCandidateRepository, stages dashboardStageRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cfg DashboardServiceConfig) *DashboardService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 2 * time.Minute
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = 5
	}
	if cfg.UpcomingLimit <= 0 {
		cfg.UpcomingLimit = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{candidates: candidates, stages: stages, cache: cache, metrics: metrics, logger: logger, cfg: cfg}
}

const dashboardCacheKey = "dash:board"

// Summary returns the board overview and reports whether it came from cache.
func (s *DashboardService) Summary(ctx context.Context) (*DashboardSummary, bool, error) {
	if s.cache != nil {
		var cached DashboardSummary
		if hit, err := s.cache.Get(ctx, dashboardCacheKey, &cached); err == nil && hit {
			cached.Metrics = s.metrics.Snapshot()
			return &cached, true, nil
		}
	}

	summary, err := s.compose(ctx)
	if err != nil {
		return nil, false, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, dashboardCacheKey, summary, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return summary, false, nil
}

// Invalidate drops the cached summary. Called after candidate or stage writes.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, dashboardCacheKey); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}

func (s *DashboardService) compose(ctx context.Context) (*DashboardSummary, error) {
	stages, err := s.stages.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list stages")
	}
	counts, err := s.candidates.StageCounts(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count candidates")
	}
	recent, err := s.candidates.Recent(ctx, s.cfg.RecentLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list recent candidates")
	}
	upcoming, err := s.candidates.UpcomingInterviews(ctx, s.cfg.UpcomingLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list upcoming interviews")
	}

	summary := &DashboardSummary{
		Columns:            make([]StageColumn, 0, len(stages)),
		RecentCandidates:   recent,
		UpcomingInterviews: upcoming,
		Metrics:            s.metrics.Snapshot(),
		GeneratedAt:        time.Now().UTC(),
	}
	for _, stage := range stages {
		count := counts[stage.ID]
		summary.Columns = append(summary.Columns, StageColumn{
			StageID:    stage.ID,
			StageTitle: stage.Title,
			IsCore:     stage.IsCore,
			Count:      count,
		})
		summary.TotalCandidates += count
	}
	return summary, nil
}
