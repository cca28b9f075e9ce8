package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jengzang/periodic-risk-go/internal/metrics"
	"github.com/jengzang/periodic-risk-go/internal/models"
	"github.com/jengzang/periodic-risk-go/internal/training"
)

// maxScoreBatch caps the transactions of one batch scoring call
const maxScoreBatch = 5000

// ScoringService scores transaction times against stored risk profiles
type ScoringService struct {
	profiles *ProfileService
	scorer   *training.Scorer
	metrics  *metrics.Registry
}

// NewScoringService creates a new scoring service
func NewScoringService(profiles *ProfileService, scorer *training.Scorer, m *metrics.Registry) *ScoringService {
	return &ScoringService{
		profiles: profiles,
		scorer:   scorer,
		metrics:  m,
	}
}

// Score returns the risk of one transaction
func (s *ScoringService) Score(ctx context.Context, req models.ScoreRequest) (*models.ScoreResult, error) {
	at, err := parseTimestamp(req.Timestamp)
	if err != nil {
		return nil, err
	}
	p, err := s.profiles.Lookup(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}
	return s.score(req, p, at)
}

// ScoreAt returns the risk of an account at time at
func (s *ScoringService) ScoreAt(ctx context.Context, accountID string, at time.Time) (*models.ScoreResult, error) {
	return s.Score(ctx, models.ScoreRequest{AccountID: accountID, Timestamp: at.Format(time.RFC3339)})
}

// ScoreBatch scores transactions in request order, loading each account's
// profile once
func (s *ScoringService) ScoreBatch(ctx context.Context, reqs []models.ScoreRequest) ([]models.ScoreResult, error) {
	if len(reqs) > maxScoreBatch {
		return nil, fmt.Errorf("%w: at most %d transactions per request", ErrInvalidRequest, maxScoreBatch)
	}

	profiles := make(map[string]*models.RiskProfile)
	results := make([]models.ScoreResult, 0, len(reqs))
	for i, req := range reqs {
		if req.AccountID == "" {
			return nil, fmt.Errorf("%w: transaction %d has no account_id", ErrInvalidRequest, i)
		}
		at, err := parseTimestamp(req.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}

		p, ok := profiles[req.AccountID]
		if !ok {
			p, err = s.profiles.Lookup(ctx, req.AccountID)
			if err != nil {
				return nil, err
			}
			profiles[req.AccountID] = p
		}

		res, err := s.score(req, p, at)
		if err != nil {
			return nil, err
		}
		results = append(results, *res)
	}
	return results, nil
}

func (s *ScoringService) score(req models.ScoreRequest, p *models.RiskProfile, at time.Time) (*models.ScoreResult, error) {
	sc, err := s.scorer.Score(p, at)
	if err != nil {
		return nil, fmt.Errorf("failed to score account %s: %w", req.AccountID, err)
	}
	s.metrics.ObserveScore(sc.Risk != nil)

	return &models.ScoreResult{
		TransactionID: req.TransactionID,
		AccountID:     req.AccountID,
		Timestamp:     req.Timestamp,
		Risk:          sc.Risk,
		Used:          sc.Used,
		Skipped:       sc.Skipped,
		Reason:        sc.Reason,
	}, nil
}

func parseTimestamp(s string) (time.Time, error) {
	at, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: timestamp %q is not RFC3339", ErrInvalidRequest, s)
	}
	return at, nil
}
