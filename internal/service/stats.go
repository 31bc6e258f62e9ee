package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/atinyakov/unidocs/internal/apperr"
	"github.com/atinyakov/unidocs/internal/cache"
	"github.com/atinyakov/unidocs/internal/models"
	"github.com/atinyakov/unidocs/internal/repository"
)

const statsCacheKey = "unidocs:stats"

// StatsRepository counts rows of a named aggregate.
type StatsRepository interface {
	CountRows(ctx context.Context, what repository.Countable) (int64, error)
}

// Cache stores JSON values with a TTL. Get returns cache.ErrMiss on a miss.
type Cache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string)
}

// StatsService computes platform-wide counts, caching the result.
type StatsService struct {
	repo   StatsRepository
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewStatsService constructs a StatsService. cache may be nil.
func NewStatsService(repo StatsRepository, c Cache, ttl time.Duration, logger *zap.Logger) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{repo: repo, cache: c, ttl: ttl, logger: logger}
}

// Get returns the current counts.
func (s *StatsService) Get(ctx context.Context) (*models.Stats, error) {
	var stats models.Stats
	if s.cache != nil {
		err := s.cache.Get(ctx, statsCacheKey, &stats)
		if err == nil {
			return &stats, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("stats cache read failed", zap.Error(err))
		}
	}

	targets := []struct {
		what repository.Countable
		dst  *int64
	}{
		{repository.CountInstitutions, &stats.Institutions},
		{repository.CountPrograms, &stats.Programs},
		{repository.CountSubjects, &stats.Subjects},
		{repository.CountDocuments, &stats.Documents},
		{repository.CountUsers, &stats.Users},
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, t := range targets {
		g.Go(func() error {
			n, err := s.repo.CountRows(gctx, t.what)
			if err != nil {
				return err
			}
			*t.dst = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperr.Wrap(err, apperr.ErrInternal, "failed to compute stats")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, statsCacheKey, stats, s.ttl); err != nil {
			s.logger.Warn("stats cache write failed", zap.Error(err))
		}
	}
	return &stats, nil
}

// Invalidate drops the cached counts.
func (s *StatsService) Invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Delete(ctx, statsCacheKey)
	}
}
