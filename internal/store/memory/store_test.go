package memory

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/cab-booking-backend/internal/booking"
	"github.com/nekogravitycat/cab-booking-backend/internal/fleet"
	"github.com/nekogravitycat/cab-booking-backend/internal/pkg/apperror"
)

func newBooking(companyID string, createdAt time.Time) *booking.Booking {
	return &booking.Booking{
		CompanyID: &companyID,
		Itinerary: booking.Itinerary{
			GuestName:       "Guest",
			GuestContact:    "+1 555 0100",
			PickupLocation:  "Airport",
			DropoffLocation: "Hotel",
			PickupTime:      createdAt.Add(2 * time.Hour),
			CarCategory:     fleet.CategorySedan,
		},
		Status:    booking.StatusPending,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestWithinTxDiscardsWritesOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	companyID := s.PutCompany(Company{Name: "Acme"})
	vendorID := s.PutVendor(Vendor{Name: "Fast Cabs"})
	vehicleID := s.PutVehicle(fleet.Vehicle{VendorID: vendorID, Type: fleet.CategorySedan, PlateNumber: "AB-1", Availability: true})

	repo := s.Bookings()
	boom := errors.New("boom")

	err := repo.WithinTx(ctx, func(tx booking.Tx) error {
		if err := tx.Insert(ctx, newBooking(companyID, time.Now())); err != nil {
			return err
		}
		changed, err := tx.SetVehicleAvailability(ctx, vehicleID, false)
		require.NoError(t, err)
		require.True(t, changed)
		return boom
	})
	require.ErrorIs(t, err, boom)

	bookings, total, err := repo.List(ctx, booking.Filter{})
	require.NoError(t, err)
	assert.Empty(t, bookings)
	assert.Equal(t, 0, total)

	v, err := s.Fleet().GetVehicle(ctx, vehicleID)
	require.NoError(t, err)
	assert.True(t, v.Availability, "rolled back transaction must not flip the vehicle")
}

func TestUpdateIfStatusRejectsStaleStatus(t *testing.T) {
	ctx := context.Background()
	s := New()
	companyID := s.PutCompany(Company{Name: "Acme"})
	repo := s.Bookings()

	b := newBooking(companyID, time.Now())
	require.NoError(t, repo.WithinTx(ctx, func(tx booking.Tx) error {
		return tx.Insert(ctx, b)
	}))

	err := repo.WithinTx(ctx, func(tx booking.Tx) error {
		locked, err := tx.LockByID(ctx, b.ID)
		require.NoError(t, err)
		locked.Status = booking.StatusCancelled
		return tx.UpdateIfStatus(ctx, locked, booking.StatusUpcoming)
	})
	require.ErrorIs(t, err, booking.ErrInvalidState)

	got, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusPending, got.Status)
}

func TestInsertUnknownCompany(t *testing.T) {
	ctx := context.Background()
	repo := New().Bookings()

	err := repo.WithinTx(ctx, func(tx booking.Tx) error {
		return tx.Insert(ctx, newBooking("missing", time.Now()))
	})
	assert.ErrorIs(t, err, booking.ErrReferenceNotFound)
}

func TestSetVehicleAvailabilityIsConditional(t *testing.T) {
	ctx := context.Background()
	s := New()
	vendorID := s.PutVendor(Vendor{Name: "Fast Cabs"})
	vehicleID := s.PutVehicle(fleet.Vehicle{VendorID: vendorID, Type: fleet.CategorySUV, PlateNumber: "AB-2", Availability: true})

	require.NoError(t, s.Bookings().WithinTx(ctx, func(tx booking.Tx) error {
		changed, err := tx.SetVehicleAvailability(ctx, vehicleID, false)
		require.NoError(t, err)
		assert.True(t, changed)

		changed, err = tx.SetVehicleAvailability(ctx, vehicleID, false)
		require.NoError(t, err)
		assert.False(t, changed, "second claim inside the same transaction must see the staged value")
		return nil
	}))
}

func TestListFiltersSortsAndPaginates(t *testing.T) {
	ctx := context.Background()
	s := New()
	acme := s.PutCompany(Company{Name: "Acme"})
	globex := s.PutCompany(Company{Name: "Globex"})
	repo := s.Bookings()

	base := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	var ids []string
	require.NoError(t, repo.WithinTx(ctx, func(tx booking.Tx) error {
		for i := 0; i < 5; i++ {
			b := newBooking(acme, base.Add(time.Duration(i)*time.Minute))
			if err := tx.Insert(ctx, b); err != nil {
				return err
			}
			ids = append(ids, b.ID)
		}
		return tx.Insert(ctx, newBooking(globex, base))
	}))

	page, total, err := repo.List(ctx, booking.Filter{CompanyID: acme, Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, ids[4], page[0].ID, "newest first")
	assert.Equal(t, ids[3], page[1].ID)

	last, _, err := repo.List(ctx, booking.Filter{CompanyID: acme, Page: 3, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, ids[0], last[0].ID)

	none, _, err := repo.List(ctx, booking.Filter{CompanyIDs: []string{}})
	require.NoError(t, err)
	assert.Empty(t, none)

	both, total, err := repo.List(ctx, booking.Filter{CompanyIDs: []string{acme, globex}})
	require.NoError(t, err)
	assert.Len(t, both, 6)
	assert.Equal(t, 6, total)
}

func TestListReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	companyID := s.PutCompany(Company{Name: "Acme"})
	repo := s.Bookings()

	b := newBooking(companyID, time.Now())
	require.NoError(t, repo.WithinTx(ctx, func(tx booking.Tx) error {
		return tx.Insert(ctx, b)
	}))

	listed, _, err := repo.List(ctx, booking.Filter{})
	require.NoError(t, err)
	listed[0].Status = booking.StatusCompleted

	got, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusPending, got.Status)
}

func TestCancelledContextIsStorageError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := New().Bookings().List(ctx, booking.Filter{})
	assert.True(t, apperror.IsKind(err, apperror.KindStorage))
}

func TestAssociations(t *testing.T) {
	ctx := context.Background()
	s := New()
	acme := s.PutCompany(Company{Name: "Acme"})
	a := s.PutVendor(Vendor{Name: "Bravo Cabs"})
	b := s.PutVendor(Vendor{Name: "Alpha Cabs"})
	c := s.PutVendor(Vendor{Name: "Loner"})
	s.AssociateCompanyVendor(acme, a)
	s.AssociateCompanyVendor(acme, b)
	s.AssociatePartners(a, b)
	s.AssociatePartners(a, a)

	repo := s.Associations()

	partners, err := repo.PartnerIDs(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, []string{a}, partners, "partnership is visible from both sides")

	partners, err = repo.PartnerIDs(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, []string{b}, partners, "self partnership is ignored")

	partners, err = repo.PartnerIDs(ctx, c)
	require.NoError(t, err)
	assert.NotNil(t, partners)
	assert.Empty(t, partners)

	companies, err := repo.CompanyIDsForVendor(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, []string{acme}, companies)

	vendors, err := repo.ListCompanyVendors(ctx, acme)
	require.NoError(t, err)
	require.Len(t, vendors, 2)
	assert.Equal(t, "Alpha Cabs", vendors[0].Name)
	assert.Equal(t, "Bravo Cabs", vendors[1].Name)
}

func TestFleetHidesDeleted(t *testing.T) {
	ctx := context.Background()
	s := New()
	vendorID := s.PutVendor(Vendor{Name: "Fast Cabs"})
	deletedAt := time.Now()
	s.PutDriver(fleet.Driver{VendorID: vendorID, Name: "Kept"})
	gone := s.PutDriver(fleet.Driver{VendorID: vendorID, Name: "Gone", DeletedAt: &deletedAt})
	s.PutVehicle(fleet.Vehicle{VendorID: vendorID, Type: fleet.CategorySUV, PlateNumber: "S-1", Availability: true})
	s.PutVehicle(fleet.Vehicle{VendorID: vendorID, Type: fleet.CategorySedan, PlateNumber: "S-2", Availability: false})

	repo := s.Fleet()

	drivers, err := repo.ListDrivers(ctx, vendorID)
	require.NoError(t, err)
	require.Len(t, drivers, 1)
	assert.Equal(t, "Kept", drivers[0].Name)

	_, err = repo.GetDriver(ctx, gone)
	assert.ErrorIs(t, err, fleet.ErrDriverNotFound)

	vehicles, err := repo.ListVehicles(ctx, fleet.VehicleFilter{VendorID: vendorID, AvailableOnly: true})
	require.NoError(t, err)
	require.Len(t, vehicles, 1)
	assert.Equal(t, "S-1", vehicles[0].PlateNumber)

	vehicles, err = repo.ListVehicles(ctx, fleet.VehicleFilter{VendorID: vendorID, Type: fleet.CategorySedan})
	require.NoError(t, err)
	require.Len(t, vehicles, 1)
	assert.Equal(t, "S-2", vehicles[0].PlateNumber)
}

const seedYAML = `
companies:
  - id: c1
    name: Acme
vendors:
  - id: v1
    name: Fast Cabs
  - id: v2
    name: Slow Cabs
drivers:
  - id: d1
    vendor_id: v1
    name: Dana
vehicles:
  - id: car1
    vendor_id: v1
    type: suv
    plate_number: AB-123
  - id: car2
    vendor_id: v2
    type: sedan
    plate_number: CD-456
    available: false
company_vendors:
  - company_id: c1
    vendor_id: v1
partners:
  - vendor_id: v1
    partner_id: v2
`

func TestLoadSeed(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.LoadSeed(strings.NewReader(seedYAML)))

	v, err := s.Fleet().GetVehicle(ctx, "car1")
	require.NoError(t, err)
	assert.True(t, v.Availability)
	assert.Equal(t, fleet.CategorySUV, v.Type)

	v, err = s.Fleet().GetVehicle(ctx, "car2")
	require.NoError(t, err)
	assert.False(t, v.Availability)

	partners, err := s.Associations().PartnerIDs(ctx, "v2")
	require.NoError(t, err)
	assert.Equal(t, []string{"v1"}, partners)

	vendors, err := s.Associations().VendorIDsForCompany(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"v1"}, vendors)
}

func TestLoadSeedRejectsBadReferences(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown vendor on driver", "drivers:\n  - id: d1\n    vendor_id: nope\n    name: X\n"},
		{"bad vehicle type", "vendors:\n  - id: v1\n    name: A\nvehicles:\n  - id: car\n    vendor_id: v1\n    type: van\n    plate_number: P\n"},
		{"self partnership", "vendors:\n  - id: v1\n    name: A\npartners:\n  - vendor_id: v1\n    partner_id: v1\n"},
		{"unknown company", "vendors:\n  - id: v1\n    name: A\ncompany_vendors:\n  - company_id: c9\n    vendor_id: v1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, New().LoadSeed(strings.NewReader(tt.yaml)))
		})
	}
}

func TestLoadSeedFileShippedFixture(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.LoadSeedFile("../../../fixtures/seed.yaml"))

	vendors, err := s.Associations().VendorIDsForCompany(ctx, "11111111-1111-4111-8111-111111111111")
	require.NoError(t, err)
	assert.Len(t, vendors, 1)

	assert.Error(t, New().LoadSeedFile("does-not-exist.yaml"))
}
