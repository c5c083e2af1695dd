package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/nekogravitycat/cab-booking-backend/internal/association"
	"github.com/nekogravitycat/cab-booking-backend/internal/booking"
	"github.com/nekogravitycat/cab-booking-backend/internal/fleet"
	"github.com/nekogravitycat/cab-booking-backend/internal/pkg/apperror"
)

type bookingRepository struct {
	s *Store
}

func (r *bookingRepository) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperror.Storage(err)
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	b, ok := r.s.bookings[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	c := b.Clone()
	r.s.attachParties(c)
	return c, nil
}

func (r *bookingRepository) List(ctx context.Context, filter booking.Filter) ([]*booking.Booking, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, apperror.Storage(err)
	}
	r.s.mu.RLock()
	var matched []*booking.Booking
	for _, b := range r.s.bookings {
		if matches(b, filter) {
			c := b.Clone()
			r.s.attachParties(c)
			matched = append(matched, c)
		}
	}
	r.s.mu.RUnlock()

	sortBookings(matched, filter.SortBy, filter.SortAsc)

	total := len(matched)
	if filter.Page > 0 {
		size := filter.PageSize
		if size < 1 {
			size = 20
		}
		start := min((filter.Page-1)*size, total)
		end := min(start+size, total)
		matched = matched[start:end]
	}
	return matched, total, nil
}

func matches(b *booking.Booking, f booking.Filter) bool {
	if f.CompanyID != "" && (b.CompanyID == nil || *b.CompanyID != f.CompanyID) {
		return false
	}
	if f.CompanyIDs != nil && (b.CompanyID == nil || !slices.Contains(f.CompanyIDs, *b.CompanyID)) {
		return false
	}
	if f.VendorID != "" && !b.IsAssignedTo(f.VendorID) {
		return false
	}
	if f.Status != "" && b.Status != f.Status {
		return false
	}
	if f.InOpenMarket != nil && b.InOpenMarket != *f.InOpenMarket {
		return false
	}
	return true
}

func sortKey(b *booking.Booking, field booking.SortField) time.Time {
	switch field {
	case booking.SortByOpenMarketTime:
		if b.OpenMarketTime == nil {
			return time.Time{}
		}
		return *b.OpenMarketTime
	case booking.SortByPickupTime:
		return b.PickupTime
	default:
		return b.CreatedAt
	}
}

func sortBookings(bookings []*booking.Booking, field booking.SortField, asc bool) {
	sort.Slice(bookings, func(i, j int) bool {
		a, b := bookings[i], bookings[j]
		ka, kb := sortKey(a, field), sortKey(b, field)
		if !ka.Equal(kb) {
			if asc {
				return ka.Before(kb)
			}
			return ka.After(kb)
		}
		if asc {
			return a.ID < b.ID
		}
		return a.ID > b.ID
	})
}

// WithinTx holds the store's write lock while fn runs. Writes are staged on
// the transaction and only copied into the store when fn returns nil.
func (r *bookingRepository) WithinTx(ctx context.Context, fn func(tx booking.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return apperror.Storage(err)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	tx := &memTx{
		s:        r.s,
		bookings: make(map[string]*booking.Booking),
		vehicles: make(map[string]*fleet.Vehicle),
	}
	if err := fn(tx); err != nil {
		return err
	}

	for id, b := range tx.bookings {
		r.s.bookings[id] = b
	}
	for id, v := range tx.vehicles {
		r.s.vehicles[id] = v
	}
	return nil
}

// memTx runs with Store.mu already held.
type memTx struct {
	s        *Store
	bookings map[string]*booking.Booking
	vehicles map[string]*fleet.Vehicle
}

func (t *memTx) lookupBooking(id string) (*booking.Booking, bool) {
	if b, ok := t.bookings[id]; ok {
		return b, true
	}
	b, ok := t.s.bookings[id]
	return b, ok
}

func (t *memTx) lookupVehicle(id string) (*fleet.Vehicle, bool) {
	if v, ok := t.vehicles[id]; ok {
		return v, true
	}
	v, ok := t.s.vehicles[id]
	return v, ok
}

func (t *memTx) Insert(ctx context.Context, b *booking.Booking) error {
	if !t.referencesExist(b) {
		return booking.ErrReferenceNotFound
	}
	b.ID = uuid.NewString()
	t.bookings[b.ID] = b.Clone()
	return nil
}

func (t *memTx) referencesExist(b *booking.Booking) bool {
	if b.DriverID != nil {
		if _, ok := t.s.drivers[*b.DriverID]; !ok {
			return false
		}
	}
	if b.VehicleID != nil {
		if _, ok := t.lookupVehicle(*b.VehicleID); !ok {
			return false
		}
	}

	t.s.assocMu.RLock()
	defer t.s.assocMu.RUnlock()
	if b.CompanyID != nil {
		if _, ok := t.s.companies[*b.CompanyID]; !ok {
			return false
		}
	}
	if b.VendorID != nil {
		if _, ok := t.s.vendors[*b.VendorID]; !ok {
			return false
		}
	}
	return true
}

// Associations takes assocMu under the already held mu, keeping the lock order.
func (t *memTx) Associations() association.Repository {
	return &associationRepository{s: t.s}
}

func (t *memTx) LockByID(ctx context.Context, id string) (*booking.Booking, error) {
	b, ok := t.lookupBooking(id)
	if !ok {
		return nil, booking.ErrNotFound
	}
	return b.Clone(), nil
}

func (t *memTx) UpdateIfStatus(ctx context.Context, b *booking.Booking, expected booking.Status) error {
	current, ok := t.lookupBooking(b.ID)
	if !ok {
		return booking.ErrNotFound
	}
	if current.Status != expected {
		return booking.ErrInvalidState
	}
	t.bookings[b.ID] = b.Clone()
	return nil
}

func (t *memTx) LockVehicle(ctx context.Context, id string) (*fleet.Vehicle, error) {
	v, ok := t.lookupVehicle(id)
	if !ok {
		return nil, booking.ErrVehicleNotFound
	}
	c := *v
	return &c, nil
}

func (t *memTx) GetDriver(ctx context.Context, id string) (*fleet.Driver, error) {
	d, ok := t.s.drivers[id]
	if !ok {
		return nil, booking.ErrDriverNotFound
	}
	c := *d
	return &c, nil
}

func (t *memTx) SetVehicleAvailability(ctx context.Context, vehicleID string, available bool) (bool, error) {
	v, ok := t.lookupVehicle(vehicleID)
	if !ok {
		return false, booking.ErrVehicleNotFound
	}
	if v.Availability == available {
		return false, nil
	}
	c := *v
	c.Availability = available
	t.vehicles[vehicleID] = &c
	return true, nil
}
