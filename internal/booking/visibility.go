package booking

import (
	"slices"
	"sort"
	"time"
)

// DefaultExclusivityWindow is how long a released booking stays visible only
// to the releasing vendor's partners.
const DefaultExclusivityWindow = 30 * time.Minute

// VisibleTo reports whether an open-market booking is shown to vendorID at now.
// releaserPartners is the partner set of the vendor that released the booking,
// never the requesting vendor's own set.
func VisibleTo(b *Booking, vendorID string, releaserPartners []string, now time.Time, window time.Duration) bool {
	if b.Status != StatusPending || !b.InOpenMarket || b.OpenMarketTime == nil {
		return false
	}
	if now.Sub(*b.OpenMarketTime) >= window {
		return true
	}
	return slices.Contains(releaserPartners, vendorID)
}

// FilterOpenMarket returns the bookings visible to vendorID at now, oldest
// release first. partners maps a releasing vendor id to its partner ids.
// It does not modify its inputs.
func FilterOpenMarket(bookings []*Booking, vendorID string, partners map[string][]string, now time.Time, window time.Duration) []*Booking {
	visible := make([]*Booking, 0, len(bookings))
	for _, b := range bookings {
		var releaserPartners []string
		if b.OpenMarketVendorID != nil {
			releaserPartners = partners[*b.OpenMarketVendorID]
		}
		if VisibleTo(b, vendorID, releaserPartners, now, window) {
			visible = append(visible, b)
		}
	}

	sort.SliceStable(visible, func(i, j int) bool {
		a, b := visible[i], visible[j]
		if !a.OpenMarketTime.Equal(*b.OpenMarketTime) {
			return a.OpenMarketTime.Before(*b.OpenMarketTime)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return visible
}

// Releasers returns the distinct vendors that released the given bookings.
func Releasers(bookings []*Booking) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, b := range bookings {
		if b.OpenMarketVendorID == nil {
			continue
		}
		if _, ok := seen[*b.OpenMarketVendorID]; ok {
			continue
		}
		seen[*b.OpenMarketVendorID] = struct{}{}
		ids = append(ids, *b.OpenMarketVendorID)
	}
	return ids
}
