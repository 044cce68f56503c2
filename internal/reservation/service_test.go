package reservation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickshow/quickshow/internal/model"
	"github.com/quickshow/quickshow/internal/repository"
)

// recordingNotifier counts BookingPaid deliveries.
type recordingNotifier struct {
	mu     sync.Mutex
	events []*model.Booking
}

func (n *recordingNotifier) BookingPaid(ctx context.Context, b *model.Booking) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, b)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

func newTestService(t *testing.T) (*Service, *repository.MemoryStore, uint64, *recordingNotifier) {
	t.Helper()
	store := repository.NewMemoryStore()
	showID := store.AddShow(42, time.Now().Add(24*time.Hour), 1500)
	notifier := &recordingNotifier{}
	return New(store, notifier, 15*time.Minute), store, showID, notifier
}

func TestReserveValidation(t *testing.T) {
	svc, _, showID, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		seats []string
	}{
		{"empty", nil},
		{"blank labels only", []string{"", ""}},
		{"lowercase row", []string{"a1"}},
		{"missing number", []string{"A"}},
		{"three digit number", []string{"A100"}},
		{"too many seats", []string{"A1", "A2", "A3", "A4", "A5", "A6", "A7", "A8", "A9", "A10", "B1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Reserve(ctx, showID, "u1", tt.seats)
			assert.ErrorIs(t, err, ErrInvalidSeats)
		})
	}
}

func TestReserveDeduplicatesSeats(t *testing.T) {
	svc, _, showID, _ := newTestService(t)
	ctx := context.Background()

	b, err := svc.Reserve(ctx, showID, "u1", []string{"A1", "A1", "A2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2"}, b.Seats)
	assert.Equal(t, uint32(3000), b.AmountCents)
	assert.Equal(t, model.BookingPending, b.Status)
}

func TestReserveUnknownShow(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	_, err := svc.Reserve(context.Background(), 9999, "u1", []string{"A1"})
	assert.ErrorIs(t, err, repository.ErrShowNotFound)
}

func TestReserveConflictNamesSeats(t *testing.T) {
	svc, _, showID, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Reserve(ctx, showID, "u1", []string{"A1", "A2"})
	require.NoError(t, err)

	_, err = svc.Reserve(ctx, showID, "u2", []string{"A2", "A3"})
	var conflict *repository.SeatsUnavailableError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []string{"A2"}, conflict.Seats)

	// The loser's available seat was not partially claimed.
	occupied, err := svc.Availability(ctx, showID)
	require.NoError(t, err)
	assert.NotContains(t, occupied, "A3")
}

// TestReserveOverlappingRace exercises the core guarantee: two attempts
// sharing a seat resolve to exactly one winner, and the loser gets the
// overlapping seat reported while leaving its other seats untouched.
func TestReserveOverlappingRace(t *testing.T) {
	svc, _, showID, _ := newTestService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]error, 2)
	requests := [][]string{{"A1"}, {"A1", "A2"}}
	for i := range requests {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.Reserve(ctx, showID, "user", requests[i])
		}(i)
	}
	wg.Wait()

	var winners, losers int
	for _, err := range results {
		if err == nil {
			winners++
			continue
		}
		var conflict *repository.SeatsUnavailableError
		require.ErrorAs(t, err, &conflict)
		assert.Contains(t, conflict.Seats, "A1")
		losers++
	}
	assert.Equal(t, 1, winners)
	assert.Equal(t, 1, losers)

	occupied, err := svc.Availability(ctx, showID)
	require.NoError(t, err)
	// A1 has exactly one holder. A2 is held only if its requester won.
	assert.Contains(t, occupied, "A1")
}

func TestReserveDisjointConcurrent(t *testing.T) {
	svc, _, showID, _ := newTestService(t)
	ctx := context.Background()

	rows := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	var wg sync.WaitGroup
	errs := make([]error, len(rows))
	for i, row := range rows {
		wg.Add(1)
		go func(i int, row string) {
			defer wg.Done()
			_, errs[i] = svc.Reserve(ctx, showID, "user-"+row, []string{row + "1", row + "2"})
		}(i, row)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "disjoint request %d must succeed", i)
	}
	occupied, err := svc.Availability(ctx, showID)
	require.NoError(t, err)
	assert.Len(t, occupied, len(rows)*2)
}

func TestSettlePaidIsIdempotent(t *testing.T) {
	svc, _, showID, notifier := newTestService(t)
	ctx := context.Background()

	b, err := svc.Reserve(ctx, showID, "u1", []string{"B5"})
	require.NoError(t, err)

	require.NoError(t, svc.Settle(ctx, b.ID, OutcomePaid))
	require.NoError(t, svc.Settle(ctx, b.ID, OutcomePaid))
	require.NoError(t, svc.Settle(ctx, b.ID, OutcomePaid))

	assert.Equal(t, 1, notifier.count(), "downstream event must fire once")

	occupied, err := svc.Availability(ctx, showID)
	require.NoError(t, err)
	assert.Equal(t, "u1", occupied["B5"], "paid seats stay occupied")
}

func TestSettleCanceledReleasesSeats(t *testing.T) {
	svc, store, showID, notifier := newTestService(t)
	ctx := context.Background()

	b, err := svc.Reserve(ctx, showID, "u1", []string{"C1", "C2"})
	require.NoError(t, err)

	require.NoError(t, svc.Settle(ctx, b.ID, OutcomeCanceled))

	occupied, err := svc.Availability(ctx, showID)
	require.NoError(t, err)
	assert.Empty(t, occupied)
	assert.Zero(t, notifier.count())

	got, err := store.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingExpired, got.Status)

	// The seats are immediately reusable by someone else.
	_, err = svc.Reserve(ctx, showID, "u2", []string{"C1", "C2"})
	assert.NoError(t, err)
}

func TestSettleAfterCancelIsNoOp(t *testing.T) {
	svc, store, showID, notifier := newTestService(t)
	ctx := context.Background()

	b, err := svc.Reserve(ctx, showID, "u1", []string{"D1"})
	require.NoError(t, err)
	require.NoError(t, svc.Settle(ctx, b.ID, OutcomeCanceled))

	// A late PAID for an already expired booking must not resurrect it.
	require.NoError(t, svc.Settle(ctx, b.ID, OutcomePaid))

	got, err := store.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingExpired, got.Status)
	assert.Zero(t, notifier.count())
}

func TestSettleUnknownBooking(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	err := svc.Settle(context.Background(), "no-such-booking", OutcomePaid)
	assert.ErrorIs(t, err, repository.ErrBookingNotFound)
}

func TestSettleUnknownOutcome(t *testing.T) {
	svc, _, showID, _ := newTestService(t)
	ctx := context.Background()
	b, err := svc.Reserve(ctx, showID, "u1", []string{"E1"})
	require.NoError(t, err)
	assert.Error(t, svc.Settle(ctx, b.ID, Outcome("REFUNDED")))
}

func TestExpireStale(t *testing.T) {
	svc, store, showID, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	stale, err := svc.Reserve(ctx, showID, "u1", []string{"F1"})
	require.NoError(t, err)
	store.Backdate(stale.ID, now.Add(-20*time.Minute))

	fresh, err := svc.Reserve(ctx, showID, "u2", []string{"F2"})
	require.NoError(t, err)

	paid, err := svc.Reserve(ctx, showID, "u3", []string{"F3"})
	require.NoError(t, err)
	require.NoError(t, svc.Settle(ctx, paid.ID, OutcomePaid))
	store.Backdate(paid.ID, now.Add(-20*time.Minute))

	n, err := svc.ExpireStale(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := store.GetByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingExpired, got.Status)

	got, err = store.GetByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingPending, got.Status, "fresh holds survive the sweep")

	got, err = store.GetByID(ctx, paid.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingPaid, got.Status, "paid bookings never expire")

	occupied, err := svc.Availability(ctx, showID)
	require.NoError(t, err)
	assert.NotContains(t, occupied, "F1")
	assert.Contains(t, occupied, "F2")
	assert.Contains(t, occupied, "F3")
}

func TestExpireStaleBoundary(t *testing.T) {
	svc, store, showID, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	// Exactly at the cutoff counts as stale.
	b, err := svc.Reserve(ctx, showID, "u1", []string{"G1"})
	require.NoError(t, err)
	store.Backdate(b.ID, now.Add(-15*time.Minute))

	n, err := svc.ExpireStale(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
