package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func openMarketBooking(id, releaser string, releasedAt time.Time) *Booking {
	return &Booking{
		ID:                 id,
		Status:             StatusPending,
		InOpenMarket:       true,
		OpenMarketTime:     ptr(releasedAt),
		OpenMarketVendorID: ptr(releaser),
		CreatedAt:          releasedAt.Add(-time.Hour),
	}
}

func TestVisibleToPartnerOnlyInsideWindow(t *testing.T) {
	b := openMarketBooking("b1", "A", t0)
	partnersOfA := []string{"B"}

	at10 := t0.Add(10 * time.Minute)
	assert.True(t, VisibleTo(b, "B", partnersOfA, at10, DefaultExclusivityWindow))
	assert.False(t, VisibleTo(b, "C", partnersOfA, at10, DefaultExclusivityWindow))

	at30 := t0.Add(30 * time.Minute)
	for _, v := range []string{"B", "C", "D"} {
		assert.True(t, VisibleTo(b, v, partnersOfA, at30, DefaultExclusivityWindow), v)
	}
}

func TestVisibleToUsesReleaserPartners(t *testing.T) {
	b := openMarketBooking("b1", "A", t0)

	// C lists A as its own partner, but A does not list C.
	assert.False(t, VisibleTo(b, "C", []string{"B"}, t0.Add(time.Minute), DefaultExclusivityWindow))
}

func TestVisibleToRequiresOpenPendingBooking(t *testing.T) {
	later := t0.Add(time.Hour)

	closed := openMarketBooking("b1", "A", t0)
	closed.InOpenMarket = false
	assert.False(t, VisibleTo(closed, "B", nil, later, DefaultExclusivityWindow))

	taken := openMarketBooking("b2", "A", t0)
	taken.Status = StatusUpcoming
	assert.False(t, VisibleTo(taken, "B", nil, later, DefaultExclusivityWindow))
}

func TestFilterOpenMarketOrdersOldestFirst(t *testing.T) {
	bookings := []*Booking{
		openMarketBooking("late", "A", t0.Add(20*time.Minute)),
		openMarketBooking("early", "A", t0),
		openMarketBooking("tie-b", "A", t0.Add(5*time.Minute)),
		openMarketBooking("tie-a", "A", t0.Add(5*time.Minute)),
	}
	partners := map[string][]string{"A": {"B"}}

	got := FilterOpenMarket(bookings, "B", partners, t0.Add(25*time.Minute), DefaultExclusivityWindow)
	require.Len(t, got, 4)
	ids := []string{got[0].ID, got[1].ID, got[2].ID, got[3].ID}
	assert.Equal(t, []string{"early", "tie-a", "tie-b", "late"}, ids)

	assert.Equal(t, "late", bookings[0].ID, "input must not be reordered")
}

func TestFilterOpenMarketMixedWindows(t *testing.T) {
	bookings := []*Booking{
		openMarketBooking("public", "A", t0),
		openMarketBooking("fresh", "A", t0.Add(25*time.Minute)),
	}
	partners := map[string][]string{"A": {"B"}}
	now := t0.Add(30 * time.Minute)

	stranger := FilterOpenMarket(bookings, "C", partners, now, DefaultExclusivityWindow)
	require.Len(t, stranger, 1)
	assert.Equal(t, "public", stranger[0].ID)

	partner := FilterOpenMarket(bookings, "B", partners, now, DefaultExclusivityWindow)
	assert.Len(t, partner, 2)
}

func TestReleasers(t *testing.T) {
	bookings := []*Booking{
		openMarketBooking("1", "A", t0),
		openMarketBooking("2", "B", t0),
		openMarketBooking("3", "A", t0),
		{ID: "4"},
	}
	assert.Equal(t, []string{"A", "B"}, Releasers(bookings))
}
