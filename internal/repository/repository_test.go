package repository

import (
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/periodic-risk-go/internal/circular"
	"github.com/jengzang/periodic-risk-go/internal/database"
	"github.com/jengzang/periodic-risk-go/internal/models"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "repo.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = database.NewMigrationManager(db).RunMigrations()
	require.NoError(t, err)
	return db
}

func sampleProfile(account string, lastEventID int64) *models.RiskProfile {
	mean, std := 1.5, 0.4
	p := &models.RiskProfile{
		AccountID:   account,
		RunID:       "run-1",
		Points:      4,
		TrainedAt:   1_700_000_000,
		LastEventID: lastEventID,
	}
	for _, d := range circular.AllDomains() {
		dp := models.DomainProfile{
			Domain:     d,
			Bandwidth:  12.5,
			Confidence: 0.93,
			Converged:  true,
			Iterations: 17,
			SampleSize: 40,
			Curve:      []float64{0.1, 0.4, 0.2, 0},
			RiskScores: []int{75, 0, 50, 100},
			DurationMS: 3,
		}
		if d == circular.Hour {
			dp.MeanAngle, dp.StdAngle = &mean, &std
		}
		p.Domains = append(p.Domains, dp)
	}
	return p
}
