package models

import "time"

// Event is one timestamped transaction of an account
type Event struct {
	ID            int64  `json:"id" db:"id"`
	AccountID     string `json:"account_id" db:"account_id"`
	TransactionID string `json:"transaction_id" db:"transaction_id"`
	OccurredAt    int64  `json:"occurred_at" db:"occurred_at"` // Unix timestamp
	IngestedAt    int64  `json:"ingested_at" db:"ingested_at"` // Unix timestamp
}

// Time returns the event time in loc
func (e Event) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Unix(e.OccurredAt, 0).In(loc)
}

// EventSample is the ordered event times of one account together with the
// highest event ID read. A profile trained on the sample covers every event
// up to LastEventID.
type EventSample struct {
	Times       []time.Time
	LastEventID int64
}

// EventInput is one event in an ingest request
type EventInput struct {
	AccountID     string    `json:"account_id" binding:"required"`
	TransactionID string    `json:"transaction_id"`
	Timestamp     time.Time `json:"timestamp" binding:"required"`
}

// EventsResponse represents a paginated list of events
type EventsResponse struct {
	Data       []Event `json:"data"`
	Total      int64   `json:"total"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
	TotalPages int     `json:"total_pages"`
}
