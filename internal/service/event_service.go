package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jengzang/periodic-risk-go/internal/models"
	"github.com/jengzang/periodic-risk-go/internal/repository"
)

// maxIngestBatch caps the events accepted by one ingest call
const maxIngestBatch = 10000

// EventService handles business logic for events
type EventService struct {
	repo *repository.EventRepository
	now  func() time.Time
}

// NewEventService creates a new event service
func NewEventService(repo *repository.EventRepository) *EventService {
	return &EventService{
		repo: repo,
		now:  time.Now,
	}
}

// Ingest validates and stores a batch of events
func (s *EventService) Ingest(ctx context.Context, inputs []models.EventInput) (int, error) {
	if len(inputs) == 0 {
		return 0, fmt.Errorf("%w: no events", ErrInvalidRequest)
	}
	if len(inputs) > maxIngestBatch {
		return 0, fmt.Errorf("%w: at most %d events per request", ErrInvalidRequest, maxIngestBatch)
	}

	ingestedAt := s.now().Unix()
	events := make([]models.Event, len(inputs))
	for i, in := range inputs {
		if in.AccountID == "" {
			return 0, fmt.Errorf("%w: event %d has no account_id", ErrInvalidRequest, i)
		}
		if in.Timestamp.IsZero() {
			return 0, fmt.Errorf("%w: event %d has no timestamp", ErrInvalidRequest, i)
		}
		events[i] = models.Event{
			AccountID:     in.AccountID,
			TransactionID: in.TransactionID,
			OccurredAt:    in.Timestamp.Unix(),
			IngestedAt:    ingestedAt,
		}
	}

	n, err := s.repo.InsertBatch(ctx, events)
	if err != nil {
		return 0, fmt.Errorf("failed to ingest events: %w", err)
	}
	return n, nil
}

// GetEvents retrieves events with filtering and pagination
func (s *EventService) GetEvents(ctx context.Context, filter models.EventFilter) (*models.EventsResponse, error) {
	// Validate filter
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 100
	}
	if filter.PageSize > 1000 {
		filter.PageSize = 1000
	}
	if filter.StartTime > 0 && filter.EndTime > 0 && filter.StartTime > filter.EndTime {
		return nil, fmt.Errorf("%w: startTime after endTime", ErrInvalidRequest)
	}

	events, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.PageSize)))

	return &models.EventsResponse{
		Data:       events,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: totalPages,
	}, nil
}

// Sample returns the event times of one account and the last event read
func (s *EventService) Sample(ctx context.Context, accountID string) (models.EventSample, error) {
	return s.repo.SampleByAccount(ctx, accountID)
}
