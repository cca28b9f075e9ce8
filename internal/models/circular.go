package models

import (
	"time"

	"github.com/jengzang/periodic-risk-go/internal/circular"
)

// AnalyzeRequest asks for a one-off kernel fit of a sample. Either
// Timestamps or Values (fractional hour, weekday or day) must be set.
type AnalyzeRequest struct {
	Domain        string      `json:"domain" binding:"required"`
	Timestamps    []time.Time `json:"timestamps"`
	Values        []float64   `json:"values"`
	Points        int         `json:"points"`
	PeakNormalize bool        `json:"peak_normalize"`
}

// AnalyzeResponse is the fitted density of a sample and its self-consistency
// test
type AnalyzeResponse struct {
	Domain     circular.Domain `json:"domain"`
	Angles     []float64       `json:"angles"`
	Bandwidth  float64         `json:"bandwidth"`
	Converged  bool            `json:"converged"`
	Iterations int             `json:"iterations"`

	Normalization string    `json:"normalization"`
	Curve         []float64 `json:"curve"`
	Modes         []float64 `json:"modes"`

	PValue    float64 `json:"p_value"`
	Statistic float64 `json:"statistic"`
	D1        float64 `json:"d1"`
	D2        float64 `json:"d2"`
	D1Index   int     `json:"d1_index"`
	D2Index   int     `json:"d2_index"`

	// Omitted when the sample has no mean direction
	Mean        *float64 `json:"mean,omitempty"`
	MeanDegrees *float64 `json:"mean_degrees,omitempty"`
	Std         *float64 `json:"std,omitempty"`

	Frequencies []circular.Frequency `json:"frequencies,omitempty"`
}

// DomainInfo describes one cyclic domain
type DomainInfo struct {
	Domain    circular.Domain `json:"domain"`
	Period    float64         `json:"period"`
	Scale     float64         `json:"scale"`
	Offset    float64         `json:"offset"`
	Clockwise bool            `json:"clockwise"`
}

// VonMisesRequest asks for a parametric density with the given mean and std
type VonMisesRequest struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std" binding:"required"`
	Size int     `json:"size"`
}

// VonMisesResponse is a parametric von Mises density sampled around its mean
type VonMisesResponse struct {
	X       []float64 `json:"x"`
	Density []float64 `json:"density"`
}
