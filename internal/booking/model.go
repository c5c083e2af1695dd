package booking

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/cab-booking-backend/internal/fleet"
	"github.com/nekogravitycat/cab-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound          = apperror.New(http.StatusNotFound, "booking not found")
	ErrReferenceNotFound = apperror.New(http.StatusNotFound, "referenced company, vendor, driver or vehicle not found")

	// ErrInvalidState is the parent of every "not legal in the current status" error,
	// including losing a race to another writer.
	ErrInvalidState        = apperror.NewKind(apperror.KindInvalidState, http.StatusConflict, "booking is not in a valid state for this operation")
	ErrInvalidTransition   = apperror.Wrap(ErrInvalidState, http.StatusConflict, "invalid booking status transition")
	ErrAlreadyInOpenMarket = apperror.Wrap(ErrInvalidState, http.StatusConflict, "booking is already in the open market")

	ErrNotEligible      = apperror.NewKind(apperror.KindNotEligible, http.StatusForbidden, "vendor is not eligible to claim this booking")
	ErrPermissionDenied = apperror.NewKind(apperror.KindNotEligible, http.StatusForbidden, "permission denied")
	ErrDriverNotOwned   = apperror.Wrap(ErrNotEligible, http.StatusForbidden, "driver does not belong to this vendor")
	ErrVehicleNotOwned  = apperror.Wrap(ErrNotEligible, http.StatusForbidden, "vehicle does not belong to this vendor")

	ErrDriverNotFound  = apperror.Wrap(fleet.ErrDriverNotFound, http.StatusNotFound, "driver not found")
	ErrVehicleNotFound = apperror.Wrap(fleet.ErrVehicleNotFound, http.StatusNotFound, "vehicle not found")

	ErrResourceUnavailable = apperror.NewKind(apperror.KindResourceUnavailable, http.StatusConflict, "resource unavailable")
	ErrVehicleUnavailable  = apperror.Wrap(ErrResourceUnavailable, http.StatusConflict, "vehicle is not available")

	ErrValidation         = apperror.NewKind(apperror.KindValidation, http.StatusBadRequest, "invalid input parameters")
	ErrMissingField       = apperror.Wrap(ErrValidation, http.StatusBadRequest, "missing required itinerary field")
	ErrInvalidCarCategory = apperror.Wrap(ErrValidation, http.StatusBadRequest, "invalid car category")
	ErrReasonRequired     = apperror.Wrap(ErrValidation, http.StatusBadRequest, "rejection reason is required")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusUpcoming  Status = "upcoming"
	StatusOngoing   Status = "ongoing"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Itinerary is the guest trip a company (or a vendor, for manual bookings) asks for.
type Itinerary struct {
	GuestName       string
	GuestContact    string
	GuestLocation   *string
	PickupLocation  string
	DropoffLocation string
	PickupTime      time.Time
	CarCategory     fleet.CarCategory
	ReferenceName   *string
	TripDetails     *string
}

type Booking struct {
	ID string

	// CompanyID is nil only for manual bookings a vendor created for its own client.
	CompanyID *string
	VendorID  *string
	DriverID  *string
	VehicleID *string

	Itinerary

	Status             Status
	InOpenMarket       bool
	OpenMarketTime     *time.Time
	OpenMarketVendorID *string
	RejectionReason    *string
	DropoffTime        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	// Display summaries of the referenced accounts. Reads fill them when the
	// referenced row exists; writes ignore them.
	Company *CompanySummary
	Vendor  *VendorSummary
	Driver  *DriverSummary
	Vehicle *VehicleSummary
}

type CompanySummary struct {
	Name          string
	ContactPerson *string
	Phone         *string
}

type VendorSummary struct {
	Name string
}

type DriverSummary struct {
	Name  string
	Phone *string
}

type VehicleSummary struct {
	PlateNumber string
	Type        fleet.CarCategory
	Model       *string
}

// Clone returns a deep copy, so callers can mutate it without touching shared state.
func (b *Booking) Clone() *Booking {
	c := *b
	c.CompanyID = cloneString(b.CompanyID)
	c.VendorID = cloneString(b.VendorID)
	c.DriverID = cloneString(b.DriverID)
	c.VehicleID = cloneString(b.VehicleID)
	c.GuestLocation = cloneString(b.GuestLocation)
	c.ReferenceName = cloneString(b.ReferenceName)
	c.TripDetails = cloneString(b.TripDetails)
	c.OpenMarketTime = cloneTime(b.OpenMarketTime)
	c.OpenMarketVendorID = cloneString(b.OpenMarketVendorID)
	c.RejectionReason = cloneString(b.RejectionReason)
	c.DropoffTime = cloneTime(b.DropoffTime)
	if b.Company != nil {
		c.Company = &CompanySummary{Name: b.Company.Name, ContactPerson: cloneString(b.Company.ContactPerson), Phone: cloneString(b.Company.Phone)}
	}
	if b.Vendor != nil {
		c.Vendor = &VendorSummary{Name: b.Vendor.Name}
	}
	if b.Driver != nil {
		c.Driver = &DriverSummary{Name: b.Driver.Name, Phone: cloneString(b.Driver.Phone)}
	}
	if b.Vehicle != nil {
		c.Vehicle = &VehicleSummary{PlateNumber: b.Vehicle.PlateNumber, Type: b.Vehicle.Type, Model: cloneString(b.Vehicle.Model)}
	}
	return &c
}

// IsAssignedTo reports whether the booking is bound to vendorID.
func (b *Booking) IsAssignedTo(vendorID string) bool {
	return b.VendorID != nil && *b.VendorID == vendorID
}

// SortField is a column listings may be ordered by.
type SortField string

const (
	SortByCreatedAt      SortField = "created_at"
	SortByOpenMarketTime SortField = "open_market_time"
	SortByPickupTime     SortField = "pickup_time"
)

type Filter struct {
	CompanyID    string
	CompanyIDs   []string // Matches any of these companies; an empty non-nil slice matches nothing
	VendorID     string
	Status       Status
	InOpenMarket *bool
	SortBy       SortField // Defaults to created_at
	SortAsc      bool      // Defaults to descending (newest first)
	Page         int       // 0 disables pagination
	PageSize     int
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func ptr[T any](v T) *T {
	return &v
}
