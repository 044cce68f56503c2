package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickshow/quickshow/internal/model"
	"github.com/quickshow/quickshow/internal/repository"
	"github.com/quickshow/quickshow/internal/reservation"
)

func TestRunOnceExpiresStaleHolds(t *testing.T) {
	store := repository.NewMemoryStore()
	showID := store.AddShow(7, time.Now().Add(48*time.Hour), 1200)
	svc := reservation.New(store, nil, 15*time.Minute)
	ctx := context.Background()

	stale, err := svc.Reserve(ctx, showID, "u1", []string{"A1", "A2"})
	require.NoError(t, err)
	store.Backdate(stale.ID, time.Now().UTC().Add(-20*time.Minute))

	fresh, err := svc.Reserve(ctx, showID, "u2", []string{"B1"})
	require.NoError(t, err)

	s := NewSweeper(svc, time.Minute)
	s.RunOnce(ctx)

	got, err := store.GetByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingExpired, got.Status)

	got, err = store.GetByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingPending, got.Status)

	occupied, err := store.OccupiedSeats(ctx, showID)
	require.NoError(t, err)
	assert.NotContains(t, occupied, "A1")
	assert.NotContains(t, occupied, "A2")
	assert.Contains(t, occupied, "B1")
}

func TestRunOnceLeavesPaidBookingsAlone(t *testing.T) {
	store := repository.NewMemoryStore()
	showID := store.AddShow(7, time.Now().Add(48*time.Hour), 1200)
	svc := reservation.New(store, nil, 15*time.Minute)
	ctx := context.Background()

	paid, err := svc.Reserve(ctx, showID, "u1", []string{"C3"})
	require.NoError(t, err)
	require.NoError(t, svc.Settle(ctx, paid.ID, reservation.OutcomePaid))
	store.Backdate(paid.ID, time.Now().UTC().Add(-2*time.Hour))

	NewSweeper(svc, time.Minute).RunOnce(ctx)

	got, err := store.GetByID(ctx, paid.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingPaid, got.Status)

	occupied, err := store.OccupiedSeats(ctx, showID)
	require.NoError(t, err)
	assert.Equal(t, "u1", occupied["C3"])
}

func TestStartStopsCleanly(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := reservation.New(store, nil, 15*time.Minute)

	s := NewSweeper(svc, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.Start(ctx)
	time.Sleep(30 * time.Millisecond)
	s.Stop() // must not hang or panic
}
