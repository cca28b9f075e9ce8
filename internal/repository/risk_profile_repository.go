package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jengzang/periodic-risk-go/internal/circular"
	"github.com/jengzang/periodic-risk-go/internal/database"
	"github.com/jengzang/periodic-risk-go/internal/models"
)

// RiskProfileRepository handles database operations for risk profiles
type RiskProfileRepository struct {
	db *sqlx.DB
}

// NewRiskProfileRepository creates a new risk profile repository
func NewRiskProfileRepository(db *sqlx.DB) *RiskProfileRepository {
	return &RiskProfileRepository{db: db}
}

// profileRow is one (account, domain) row of risk_profiles
type profileRow struct {
	AccountID   string          `db:"account_id"`
	Domain      string          `db:"domain"`
	RunID       string          `db:"run_id"`
	Points      int             `db:"points"`
	Bandwidth   float64         `db:"bandwidth"`
	Confidence  float64         `db:"confidence"`
	Converged   bool            `db:"converged"`
	Iterations  int             `db:"iterations"`
	SampleSize  int             `db:"sample_size"`
	Curve       string          `db:"curve"`
	RiskScores  string          `db:"risk_scores"`
	MeanAngle   sql.NullFloat64 `db:"mean_angle"`
	StdAngle    sql.NullFloat64 `db:"std_angle"`
	DurationMS  int64           `db:"duration_ms"`
	TrainedAt   int64           `db:"trained_at"`
	LastEventID int64           `db:"last_event_id"`
}

func toRows(p *models.RiskProfile) ([]profileRow, error) {
	rows := make([]profileRow, 0, len(p.Domains))
	for _, d := range p.Domains {
		curve, err := json.Marshal(d.Curve)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s curve: %w", d.Domain, err)
		}
		scores, err := json.Marshal(d.RiskScores)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s risk scores: %w", d.Domain, err)
		}

		row := profileRow{
			AccountID:   p.AccountID,
			Domain:      string(d.Domain),
			RunID:       p.RunID,
			Points:      p.Points,
			Bandwidth:   d.Bandwidth,
			Confidence:  d.Confidence,
			Converged:   d.Converged,
			Iterations:  d.Iterations,
			SampleSize:  d.SampleSize,
			Curve:       string(curve),
			RiskScores:  string(scores),
			DurationMS:  d.DurationMS,
			TrainedAt:   p.TrainedAt,
			LastEventID: p.LastEventID,
		}
		if d.MeanAngle != nil {
			row.MeanAngle = sql.NullFloat64{Float64: *d.MeanAngle, Valid: true}
		}
		if d.StdAngle != nil {
			row.StdAngle = sql.NullFloat64{Float64: *d.StdAngle, Valid: true}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func fromRows(rows []profileRow) (*models.RiskProfile, error) {
	if len(rows) == 0 {
		return nil, ErrNotFound
	}

	p := &models.RiskProfile{
		AccountID:   rows[0].AccountID,
		RunID:       rows[0].RunID,
		Points:      rows[0].Points,
		TrainedAt:   rows[0].TrainedAt,
		LastEventID: rows[0].LastEventID,
	}

	// Keep domains in scoring order
	byDomain := make(map[circular.Domain]profileRow, len(rows))
	for _, row := range rows {
		byDomain[circular.Domain(row.Domain)] = row
	}
	for _, d := range circular.AllDomains() {
		row, ok := byDomain[d]
		if !ok {
			continue
		}

		dp := models.DomainProfile{
			Domain:     d,
			Bandwidth:  row.Bandwidth,
			Confidence: row.Confidence,
			Converged:  row.Converged,
			Iterations: row.Iterations,
			SampleSize: row.SampleSize,
			DurationMS: row.DurationMS,
		}
		if err := json.Unmarshal([]byte(row.Curve), &dp.Curve); err != nil {
			return nil, fmt.Errorf("failed to decode %s curve: %w", d, err)
		}
		if err := json.Unmarshal([]byte(row.RiskScores), &dp.RiskScores); err != nil {
			return nil, fmt.Errorf("failed to decode %s risk scores: %w", d, err)
		}
		if row.MeanAngle.Valid {
			mean := row.MeanAngle.Float64
			dp.MeanAngle = &mean
		}
		if row.StdAngle.Valid {
			std := row.StdAngle.Float64
			dp.StdAngle = &std
		}
		p.Domains = append(p.Domains, dp)
	}

	return p, nil
}

// Save replaces the stored profile of p.AccountID
func (r *RiskProfileRepository) Save(ctx context.Context, p *models.RiskProfile) error {
	return r.SaveBatch(ctx, []*models.RiskProfile{p})
}

// SaveBatch replaces the stored profiles of several accounts in one transaction
func (r *RiskProfileRepository) SaveBatch(ctx context.Context, profiles []*models.RiskProfile) error {
	if len(profiles) == 0 {
		return nil
	}

	insert := `
		INSERT INTO risk_profiles (
			account_id, domain, run_id, points, bandwidth, confidence, converged,
			iterations, sample_size, curve, risk_scores, mean_angle, std_angle,
			duration_ms, trained_at, last_event_id
		) VALUES (
			:account_id, :domain, :run_id, :points, :bandwidth, :confidence, :converged,
			:iterations, :sample_size, :curve, :risk_scores, :mean_angle, :std_angle,
			:duration_ms, :trained_at, :last_event_id
		)
	`

	return database.Transaction(ctx, r.db, func(tx *sqlx.Tx) error {
		for _, p := range profiles {
			rows, err := toRows(p)
			if err != nil {
				return err
			}

			if _, err := tx.ExecContext(ctx, `DELETE FROM risk_profiles WHERE account_id = ?`, p.AccountID); err != nil {
				return fmt.Errorf("failed to clear profile of %s: %w", p.AccountID, err)
			}
			for _, row := range rows {
				if _, err := tx.NamedExecContext(ctx, insert, row); err != nil {
					return fmt.Errorf("failed to save %s profile of %s: %w", row.Domain, p.AccountID, err)
				}
			}
		}
		return nil
	})
}

// Get retrieves the stored profile of an account
func (r *RiskProfileRepository) Get(ctx context.Context, accountID string) (*models.RiskProfile, error) {
	var rows []profileRow
	query := `
		SELECT account_id, domain, run_id, points, bandwidth, confidence, converged,
			   iterations, sample_size, curve, risk_scores, mean_angle, std_angle,
			   duration_ms, trained_at, last_event_id
		FROM risk_profiles
		WHERE account_id = ?
	`
	if err := r.db.SelectContext(ctx, &rows, query, accountID); err != nil {
		return nil, fmt.Errorf("failed to get risk profile: %w", err)
	}

	p, err := fromRows(rows)
	if err != nil {
		return nil, fmt.Errorf("risk profile of %s: %w", accountID, err)
	}
	return p, nil
}

// Delete removes the stored profile of an account
func (r *RiskProfileRepository) Delete(ctx context.Context, accountID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM risk_profiles WHERE account_id = ?`, accountID)
	if err != nil {
		return fmt.Errorf("failed to delete risk profile: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("risk profile of %s: %w", accountID, ErrNotFound)
	}
	return nil
}

// Count returns how many accounts have a stored profile
func (r *RiskProfileRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(DISTINCT account_id) FROM risk_profiles`); err != nil {
		return 0, fmt.Errorf("failed to count risk profiles: %w", err)
	}
	return n, nil
}
