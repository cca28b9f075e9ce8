package models

import "github.com/jengzang/periodic-risk-go/internal/circular"

// DomainProfile is the trained density of one account on one cyclic domain
type DomainProfile struct {
	Domain     circular.Domain `json:"domain"`
	Bandwidth  float64         `json:"bandwidth"`
	Confidence float64         `json:"confidence"` // Kuiper p-value of the sample against its own kernel
	Converged  bool            `json:"converged"`
	Iterations int             `json:"iterations"`
	SampleSize int             `json:"sample_size"`

	Curve      []float64 `json:"curve"`       // raw kernel density on the grid
	RiskScores []int     `json:"risk_scores"` // 0 at the peak, 100 where the density vanishes

	// Nil when the sample has no mean direction
	MeanAngle *float64 `json:"mean_angle,omitempty"`
	StdAngle  *float64 `json:"std_angle,omitempty"`

	DurationMS int64 `json:"duration_ms"`
}

// RiskProfile is the set of per-domain densities trained for one account
type RiskProfile struct {
	AccountID   string          `json:"account_id"`
	RunID       string          `json:"run_id"`
	Points      int             `json:"points"`        // grid size shared by every domain
	TrainedAt   int64           `json:"trained_at"`    // Unix timestamp
	LastEventID int64           `json:"last_event_id"` // highest event ID of the training sample
	Domains     []DomainProfile `json:"domains"`
}

// Domain returns the profile of domain d, or nil
func (p *RiskProfile) Domain(d circular.Domain) *DomainProfile {
	if p == nil {
		return nil
	}
	for i := range p.Domains {
		if p.Domains[i].Domain == d {
			return &p.Domains[i]
		}
	}
	return nil
}

// ScoreRequest asks for the risk of one transaction
type ScoreRequest struct {
	TransactionID string `json:"transaction_id"`
	AccountID     string `json:"account_id" binding:"required"`
	Timestamp     string `json:"timestamp" binding:"required"` // RFC3339
}

// ScoreResult is the risk of one transaction. Risk is nil when no domain of
// the account's profile is trusted enough to score it.
type ScoreResult struct {
	TransactionID string            `json:"transaction_id,omitempty"`
	AccountID     string            `json:"account_id"`
	Timestamp     string            `json:"timestamp"`
	Risk          *int              `json:"risk"`
	Used          []circular.Domain `json:"used,omitempty"`
	Skipped       []circular.Domain `json:"skipped,omitempty"`
	Reason        string            `json:"reason,omitempty"`
}
