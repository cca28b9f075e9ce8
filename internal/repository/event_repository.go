package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jengzang/periodic-risk-go/internal/database"
	"github.com/jengzang/periodic-risk-go/internal/models"
)

// EventRepository handles database operations for events
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// InsertBatch inserts events in one transaction and returns how many were stored
func (r *EventRepository) InsertBatch(ctx context.Context, events []models.Event) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO events (account_id, transaction_id, occurred_at, ingested_at)
		VALUES (:account_id, :transaction_id, :occurred_at, :ingested_at)
	`

	err := database.Transaction(ctx, r.db, func(tx *sqlx.Tx) error {
		stmt, err := tx.PrepareNamedContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare event insert: %w", err)
		}
		defer stmt.Close()

		for i := range events {
			if _, err := stmt.ExecContext(ctx, events[i]); err != nil {
				return fmt.Errorf("failed to insert event %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return len(events), nil
}

// List retrieves events with filtering and pagination
func (r *EventRepository) List(ctx context.Context, filter models.EventFilter) ([]models.Event, int64, error) {
	var conditions []string
	var args []interface{}

	// Add filters
	if filter.AccountID != "" {
		conditions = append(conditions, "account_id = ?")
		args = append(args, filter.AccountID)
	}
	if filter.StartTime > 0 {
		conditions = append(conditions, "occurred_at >= ?")
		args = append(args, filter.StartTime)
	}
	if filter.EndTime > 0 {
		conditions = append(conditions, "occurred_at <= ?")
		args = append(args, filter.EndTime)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM events"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	// Add pagination
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 100
	}
	if filter.PageSize > 1000 {
		filter.PageSize = 1000
	}
	offset := (filter.Page - 1) * filter.PageSize

	query := `SELECT id, account_id, transaction_id, occurred_at, ingested_at FROM events` + where +
		` ORDER BY occurred_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, filter.PageSize, offset)

	events := []models.Event{}
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to query events: %w", err)
	}

	return events, total, nil
}

// SampleByAccount returns the event times of one account in ascending order
func (r *EventRepository) SampleByAccount(ctx context.Context, accountID string) (models.EventSample, error) {
	samples, err := r.SamplesByAccounts(ctx, []string{accountID})
	if err != nil {
		return models.EventSample{}, err
	}
	return samples[accountID], nil
}

// SamplesByAccounts returns the event times of several accounts keyed by
// account, each with the highest event ID read in the same query
func (r *EventRepository) SamplesByAccounts(ctx context.Context, accountIDs []string) (map[string]models.EventSample, error) {
	samples := make(map[string]models.EventSample, len(accountIDs))
	if len(accountIDs) == 0 {
		return samples, nil
	}

	query, args, err := sqlx.In(`
		SELECT id, account_id, occurred_at FROM events
		WHERE account_id IN (?)
		ORDER BY account_id, occurred_at
	`, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build timestamp query: %w", err)
	}

	var rows []models.Event
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query timestamps: %w", err)
	}

	for _, ev := range rows {
		sample := samples[ev.AccountID]
		sample.Times = append(sample.Times, ev.Time(time.UTC))
		sample.LastEventID = max(sample.LastEventID, ev.ID)
		samples[ev.AccountID] = sample
	}
	return samples, nil
}

// ListAccounts returns every account that has events
func (r *EventRepository) ListAccounts(ctx context.Context) ([]string, error) {
	accounts := []string{}
	query := `SELECT DISTINCT account_id FROM events ORDER BY account_id`
	if err := r.db.SelectContext(ctx, &accounts, query); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// ListStaleAccounts returns accounts without a profile or with events newer
// than the last event their profile was trained on
func (r *EventRepository) ListStaleAccounts(ctx context.Context) ([]string, error) {
	query := `
		SELECT e.account_id
		FROM events e
		LEFT JOIN (
			SELECT account_id, MIN(last_event_id) AS last_event_id
			FROM risk_profiles
			GROUP BY account_id
		) p ON p.account_id = e.account_id
		GROUP BY e.account_id
		HAVING MAX(p.last_event_id) IS NULL OR MAX(e.id) > MAX(p.last_event_id)
		ORDER BY e.account_id
	`

	accounts := []string{}
	if err := r.db.SelectContext(ctx, &accounts, query); err != nil {
		return nil, fmt.Errorf("failed to list stale accounts: %w", err)
	}
	return accounts, nil
}
