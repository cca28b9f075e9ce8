package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jengzang/periodic-risk-go/internal/cache"
	"github.com/jengzang/periodic-risk-go/internal/metrics"
	"github.com/jengzang/periodic-risk-go/internal/models"
	"github.com/jengzang/periodic-risk-go/internal/repository"
)

// ProfileService reads and writes risk profiles through the profile cache.
// Cache failures are logged and fall back to the database.
type ProfileService struct {
	repo    *repository.RiskProfileRepository
	cache   cache.ProfileCache
	metrics *metrics.Registry
	logger  zerolog.Logger
}

// NewProfileService creates a new profile service; c and m may be nil
func NewProfileService(repo *repository.RiskProfileRepository, c cache.ProfileCache, m *metrics.Registry, logger zerolog.Logger) *ProfileService {
	if c == nil {
		c = cache.NopCache{}
	}
	return &ProfileService{
		repo:    repo,
		cache:   c,
		metrics: m,
		logger:  logger,
	}
}

// Get returns the profile of an account, or repository.ErrNotFound
func (s *ProfileService) Get(ctx context.Context, accountID string) (*models.RiskProfile, error) {
	p, found, err := s.cache.Get(ctx, accountID)
	switch {
	case err != nil:
		s.metrics.ObserveCache(metrics.CacheError)
		s.logger.Warn().Err(err).Str("account_id", accountID).Msg("profile cache read failed")
	case found:
		s.metrics.ObserveCache(metrics.CacheHit)
		return p, nil
	default:
		s.metrics.ObserveCache(metrics.CacheMiss)
	}

	p, err = s.repo.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, p); err != nil {
		s.logger.Warn().Err(err).Str("account_id", accountID).Msg("profile cache write failed")
	}
	return p, nil
}

// Lookup is Get returning nil instead of ErrNotFound
func (s *ProfileService) Lookup(ctx context.Context, accountID string) (*models.RiskProfile, error) {
	p, err := s.Get(ctx, accountID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return p, err
}

// Save stores a profile and evicts its cached copy
func (s *ProfileService) Save(ctx context.Context, p *models.RiskProfile) error {
	if err := s.repo.Save(ctx, p); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	s.evict(ctx, p.AccountID)
	return nil
}

// Delete removes the profile of an account
func (s *ProfileService) Delete(ctx context.Context, accountID string) error {
	if err := s.repo.Delete(ctx, accountID); err != nil {
		return err
	}
	s.evict(ctx, accountID)
	return nil
}

func (s *ProfileService) evict(ctx context.Context, accountID string) {
	if err := s.cache.Delete(ctx, accountID); err != nil {
		s.logger.Warn().Err(err).Str("account_id", accountID).Msg("profile cache eviction failed")
	}
}

// Count returns how many accounts have a stored profile
func (s *ProfileService) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
