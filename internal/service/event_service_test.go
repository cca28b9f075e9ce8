package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/periodic-risk-go/internal/models"
	"github.com/jengzang/periodic-risk-go/internal/repository"
)

func TestEventServiceIngest(t *testing.T) {
	svc := NewEventService(repository.NewEventRepository(newTestDB(t)))
	svc.now = func() time.Time { return time.Unix(5_000, 0) }
	ctx := context.Background()

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	n, err := svc.Ingest(ctx, []models.EventInput{
		{AccountID: "acc", TransactionID: "t1", Timestamp: at},
		{AccountID: "acc", TransactionID: "t2", Timestamp: at.Add(time.Hour)},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	resp, err := svc.GetEvents(ctx, models.EventFilter{AccountID: "acc", PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Total)
	assert.Equal(t, 2, resp.TotalPages)
	assert.Equal(t, 1, resp.Page)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "t2", resp.Data[0].TransactionID)
	assert.Equal(t, int64(5_000), resp.Data[0].IngestedAt)

	sample, err := svc.Sample(ctx, "acc")
	require.NoError(t, err)
	assert.Equal(t, []time.Time{at, at.Add(time.Hour)}, sample.Times)
	assert.Equal(t, resp.Data[0].ID, sample.LastEventID)
}

func TestEventServiceValidation(t *testing.T) {
	svc := NewEventService(repository.NewEventRepository(newTestDB(t)))
	ctx := context.Background()

	_, err := svc.Ingest(ctx, nil)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = svc.Ingest(ctx, []models.EventInput{{AccountID: "acc"}})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = svc.Ingest(ctx, []models.EventInput{{Timestamp: time.Now()}})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = svc.GetEvents(ctx, models.EventFilter{StartTime: 10, EndTime: 5})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}
