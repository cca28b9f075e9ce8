package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/periodic-risk-go/internal/circular"
	"github.com/jengzang/periodic-risk-go/internal/database"
	"github.com/jengzang/periodic-risk-go/internal/models"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "service.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = database.NewMigrationManager(db).RunMigrations()
	require.NoError(t, err)
	return db
}

// memoryCache is a ProfileCache backed by a map; err makes every call fail
type memoryCache struct {
	profiles map[string]*models.RiskProfile
	deleted  []string
	err      error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{profiles: make(map[string]*models.RiskProfile)}
}

func (m *memoryCache) Get(_ context.Context, accountID string) (*models.RiskProfile, bool, error) {
	if m.err != nil {
		return nil, false, m.err
	}
	p, ok := m.profiles[accountID]
	return p, ok, nil
}

func (m *memoryCache) Set(_ context.Context, p *models.RiskProfile) error {
	if m.err != nil {
		return m.err
	}
	m.profiles[p.AccountID] = p
	return nil
}

func (m *memoryCache) Delete(_ context.Context, accountID string) error {
	m.deleted = append(m.deleted, accountID)
	if m.err != nil {
		return m.err
	}
	delete(m.profiles, accountID)
	return nil
}

var errCacheDown = errors.New("cache down")

// flatProfile has the same risk everywhere on every domain
func flatProfile(account string, risk int, confidence float64) *models.RiskProfile {
	p := &models.RiskProfile{AccountID: account, RunID: "run", Points: 4, TrainedAt: 1_700_000_000}
	for _, d := range circular.AllDomains() {
		p.Domains = append(p.Domains, models.DomainProfile{
			Domain:     d,
			Bandwidth:  5,
			Confidence: confidence,
			Converged:  true,
			SampleSize: 10,
			Curve:      []float64{0.25, 0.25, 0.25, 0.25},
			RiskScores: []int{risk, risk, risk, risk},
		})
	}
	return p
}

func morningTimes(n int) []time.Time {
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	times := make([]time.Time, n)
	for i := range times {
		times[i] = base.AddDate(0, 0, i).Add(time.Duration(i*7%60) * time.Minute)
	}
	return times
}
