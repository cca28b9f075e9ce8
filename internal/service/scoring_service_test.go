package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/periodic-risk-go/internal/metrics"
	"github.com/jengzang/periodic-risk-go/internal/models"
	"github.com/jengzang/periodic-risk-go/internal/repository"
	"github.com/jengzang/periodic-risk-go/internal/training"
)

func newScoringService(t *testing.T) (*ScoringService, *ProfileService, *metrics.Registry) {
	t.Helper()
	m := metrics.NewRegistry()
	profiles := NewProfileService(repository.NewRiskProfileRepository(newTestDB(t)), nil, m, zerolog.Nop())
	return NewScoringService(profiles, training.NewScorer(training.DefaultScoringConfig()), m), profiles, m
}

func TestScoringServiceScore(t *testing.T) {
	svc, profiles, m := newScoringService(t)
	ctx := context.Background()
	require.NoError(t, profiles.Save(ctx, flatProfile("trusted", 40, 0.9)))
	require.NoError(t, profiles.Save(ctx, flatProfile("untrusted", 40, 0.5)))

	res, err := svc.Score(ctx, models.ScoreRequest{TransactionID: "t1", AccountID: "trusted", Timestamp: "2024-05-01T03:00:00Z"})
	require.NoError(t, err)
	require.NotNil(t, res.Risk)
	assert.Equal(t, 40, *res.Risk)
	assert.Equal(t, "t1", res.TransactionID)
	assert.Len(t, res.Used, 3)

	res, err = svc.Score(ctx, models.ScoreRequest{AccountID: "untrusted", Timestamp: "2024-05-01T03:00:00Z"})
	require.NoError(t, err)
	assert.Nil(t, res.Risk)
	assert.Equal(t, training.ReasonLowConfidence, res.Reason)

	res, err = svc.ScoreAt(ctx, "unknown", time.Now())
	require.NoError(t, err)
	assert.Nil(t, res.Risk)
	assert.Equal(t, training.ReasonNoProfile, res.Reason)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Scores.WithLabelValues("defined")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Scores.WithLabelValues("undefined")))

	_, err = svc.Score(ctx, models.ScoreRequest{AccountID: "trusted", Timestamp: "yesterday"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestScoringServiceBatch(t *testing.T) {
	svc, profiles, _ := newScoringService(t)
	ctx := context.Background()
	require.NoError(t, profiles.Save(ctx, flatProfile("a", 10, 0.95)))
	require.NoError(t, profiles.Save(ctx, flatProfile("b", 70, 0.95)))

	results, err := svc.ScoreBatch(ctx, []models.ScoreRequest{
		{TransactionID: "1", AccountID: "b", Timestamp: "2024-05-01T10:00:00Z"},
		{TransactionID: "2", AccountID: "a", Timestamp: "2024-05-02T10:00:00Z"},
		{TransactionID: "3", AccountID: "c", Timestamp: "2024-05-03T10:00:00Z"},
		{TransactionID: "4", AccountID: "b", Timestamp: "2024-05-04T22:00:00+02:00"},
	})
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.Equal(t, "1", results[0].TransactionID)
	assert.Equal(t, 70, *results[0].Risk)
	assert.Equal(t, 10, *results[1].Risk)
	assert.Nil(t, results[2].Risk)
	assert.Equal(t, 70, *results[3].Risk)

	_, err = svc.ScoreBatch(ctx, []models.ScoreRequest{{AccountID: "a", Timestamp: "bad"}})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = svc.ScoreBatch(ctx, []models.ScoreRequest{{Timestamp: "2024-05-01T10:00:00Z"}})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}
