package cache

import (
	"context"

	"github.com/jengzang/periodic-risk-go/internal/models"
)

// ProfileCache stores trained risk profiles in front of the database
type ProfileCache interface {
	Get(ctx context.Context, accountID string) (*models.RiskProfile, bool, error)
	Set(ctx context.Context, profile *models.RiskProfile) error
	Delete(ctx context.Context, accountID string) error
}

// NopCache is a ProfileCache that never stores anything
type NopCache struct{}

func (NopCache) Get(context.Context, string) (*models.RiskProfile, bool, error) { return nil, false, nil }
func (NopCache) Set(context.Context, *models.RiskProfile) error                 { return nil }
func (NopCache) Delete(context.Context, string) error                           { return nil }
