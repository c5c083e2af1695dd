package booking

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nekogravitycat/cab-booking-backend/internal/association"
	"github.com/nekogravitycat/cab-booking-backend/internal/pkg/apperror"
)

// CreateRequest carries a company's booking request.
type CreateRequest struct {
	CompanyID string
	Itinerary Itinerary
}

// AcceptRequest binds a vendor, driver and vehicle to a pending booking.
type AcceptRequest struct {
	BookingID string
	VendorID  string
	DriverID  string
	VehicleID string
}

// ManualRequest carries a booking a vendor takes for its own client.
type ManualRequest struct {
	VendorID  string
	DriverID  string
	VehicleID string
	Itinerary Itinerary
}

// Page selects a slice of a listing. The zero value returns the first page.
type Page struct {
	Number int
	Size   int
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Booking, error)
	GetByID(ctx context.Context, id string) (*Booking, error)
	ListForCompany(ctx context.Context, companyID string, page Page) ([]*Booking, int, error)
	ListForVendor(ctx context.Context, vendorID string, page Page) ([]*Booking, int, error)
	ListPendingForVendor(ctx context.Context, vendorID string) ([]*Booking, error)
	// ListOpenMarket judges the exclusivity window at now, or at the service
	// clock when now is zero, so listing and claiming agree on the boundary.
	ListOpenMarket(ctx context.Context, vendorID string, now time.Time) ([]*Booking, error)

	Accept(ctx context.Context, req AcceptRequest) (*Booking, error)
	Reject(ctx context.Context, id, vendorID, reason string) (*Booking, error)
	PlaceInOpenMarket(ctx context.Context, id, vendorID string) (*Booking, error)
	StartTrip(ctx context.Context, id, vendorID string) (*Booking, error)
	EndTrip(ctx context.Context, id, vendorID string) (*Booking, error)
	CreateManual(ctx context.Context, req ManualRequest) (*Booking, error)
}

type Options struct {
	// ExclusivityWindow defaults to DefaultExclusivityWindow.
	ExclusivityWindow time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

type service struct {
	repo   Repository
	assoc  association.Service
	logger *zap.Logger
	window time.Duration
	now    func() time.Time
}

func NewService(repo Repository, assoc association.Service, logger *zap.Logger, opts Options) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ExclusivityWindow <= 0 {
		opts.ExclusivityWindow = DefaultExclusivityWindow
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &service{
		repo:   repo,
		assoc:  assoc,
		logger: logger,
		window: opts.ExclusivityWindow,
		now:    opts.Now,
	}
}

// validateItinerary trims the text fields in place and checks the required ones.
func validateItinerary(it *Itinerary) error {
	it.GuestName = strings.TrimSpace(it.GuestName)
	it.GuestContact = strings.TrimSpace(it.GuestContact)
	it.PickupLocation = strings.TrimSpace(it.PickupLocation)
	it.DropoffLocation = strings.TrimSpace(it.DropoffLocation)

	required := []struct {
		field string
		empty bool
	}{
		{"guest_name", it.GuestName == ""},
		{"guest_contact", it.GuestContact == ""},
		{"pickup_location", it.PickupLocation == ""},
		{"dropoff_location", it.DropoffLocation == ""},
		{"pickup_time", it.PickupTime.IsZero()},
		{"car_category", it.CarCategory == ""},
	}
	for _, r := range required {
		if r.empty {
			return apperror.Wrap(ErrMissingField, http.StatusBadRequest, r.field+" is required")
		}
	}

	if !it.CarCategory.Valid() {
		return ErrInvalidCarCategory
	}
	return nil
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Booking, error) {
	if strings.TrimSpace(req.CompanyID) == "" {
		return nil, apperror.Wrap(ErrMissingField, http.StatusBadRequest, "company_id is required")
	}
	if err := validateItinerary(&req.Itinerary); err != nil {
		return nil, err
	}

	// Also proves the company exists.
	vendorIDs, err := s.assoc.VendorsForCompany(ctx, req.CompanyID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	b := &Booking{
		CompanyID:    ptr(req.CompanyID),
		Itinerary:    req.Itinerary,
		Status:       StatusPending,
		InOpenMarket: false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.repo.WithinTx(ctx, func(tx Tx) error {
		return tx.Insert(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking created",
		zap.String("booking_id", b.ID),
		zap.String("company_id", req.CompanyID),
		zap.Int("routed_vendors", len(vendorIDs)),
	)
	return b, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Booking, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListForCompany(ctx context.Context, companyID string, page Page) ([]*Booking, int, error) {
	return s.repo.List(ctx, Filter{
		CompanyID: companyID,
		Page:      pageNumber(page),
		PageSize:  pageSize(page),
	})
}

func (s *service) ListForVendor(ctx context.Context, vendorID string, page Page) ([]*Booking, int, error) {
	return s.repo.List(ctx, Filter{
		VendorID: vendorID,
		Page:     pageNumber(page),
		PageSize: pageSize(page),
	})
}

func (s *service) ListPendingForVendor(ctx context.Context, vendorID string) ([]*Booking, error) {
	companyIDs, err := s.assoc.CompaniesForVendor(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if len(companyIDs) == 0 {
		return []*Booking{}, nil
	}

	bookings, _, err := s.repo.List(ctx, Filter{
		CompanyIDs: companyIDs,
		Status:     StatusPending,
	})
	return bookings, err
}

func (s *service) ListOpenMarket(ctx context.Context, vendorID string, now time.Time) ([]*Booking, error) {
	if now.IsZero() {
		now = s.now()
	}

	bookings, _, err := s.repo.List(ctx, Filter{
		Status:       StatusPending,
		InOpenMarket: ptr(true),
		SortBy:       SortByOpenMarketTime,
		SortAsc:      true,
	})
	if err != nil {
		return nil, err
	}

	partners := make(map[string][]string)
	for _, releaser := range Releasers(bookings) {
		ids, err := releaserPartners(ctx, s.assoc, releaser)
		if err != nil {
			return nil, err
		}
		partners[releaser] = ids
	}

	return FilterOpenMarket(bookings, vendorID, partners, now, s.window), nil
}

func (s *service) Accept(ctx context.Context, req AcceptRequest) (*Booking, error) {
	return s.transition(ctx, req.BookingID, StatusUpcoming, func(tx Tx, b *Booking) error {
		if err := s.checkEligible(ctx, txAssociations(tx), b, req.VendorID); err != nil {
			return err
		}
		if err := s.claimResources(ctx, tx, req.VendorID, req.DriverID, req.VehicleID); err != nil {
			return err
		}

		b.VendorID = ptr(req.VendorID)
		b.DriverID = ptr(req.DriverID)
		b.VehicleID = ptr(req.VehicleID)
		b.InOpenMarket = false
		return nil
	})
}

func (s *service) Reject(ctx context.Context, id, vendorID, reason string) (*Booking, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}

	return s.transition(ctx, id, StatusCancelled, func(tx Tx, b *Booking) error {
		if err := checkCompanyVendor(ctx, txAssociations(tx), b, vendorID); err != nil {
			return err
		}
		b.RejectionReason = ptr(reason)
		b.InOpenMarket = false
		return nil
	})
}

func (s *service) PlaceInOpenMarket(ctx context.Context, id, vendorID string) (*Booking, error) {
	var out *Booking
	err := s.repo.WithinTx(ctx, func(tx Tx) error {
		b, err := tx.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if err := CanPlaceInOpenMarket(b); err != nil {
			return err
		}
		if err := checkCompanyVendor(ctx, txAssociations(tx), b, vendorID); err != nil {
			return err
		}

		now := s.now()
		b.InOpenMarket = true
		b.OpenMarketTime = ptr(now)
		b.OpenMarketVendorID = ptr(vendorID)
		b.UpdatedAt = now
		if err := tx.UpdateIfStatus(ctx, b, StatusPending); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking placed in open market",
		zap.String("booking_id", out.ID),
		zap.String("vendor_id", vendorID),
	)
	return out, nil
}

func (s *service) StartTrip(ctx context.Context, id, vendorID string) (*Booking, error) {
	return s.transition(ctx, id, StatusOngoing, func(tx Tx, b *Booking) error {
		if !b.IsAssignedTo(vendorID) {
			return ErrPermissionDenied
		}
		return nil
	})
}

func (s *service) EndTrip(ctx context.Context, id, vendorID string) (*Booking, error) {
	return s.transition(ctx, id, StatusCompleted, func(tx Tx, b *Booking) error {
		if !b.IsAssignedTo(vendorID) {
			return ErrPermissionDenied
		}

		if b.VehicleID != nil {
			if _, err := tx.LockVehicle(ctx, *b.VehicleID); err != nil {
				return err
			}
			changed, err := tx.SetVehicleAvailability(ctx, *b.VehicleID, true)
			if err != nil {
				return err
			}
			if !changed {
				s.logger.Warn("vehicle of ongoing booking was already available",
					zap.String("booking_id", b.ID),
					zap.String("vehicle_id", *b.VehicleID),
				)
			}
		}

		b.DropoffTime = ptr(s.now())
		return nil
	})
}

func (s *service) CreateManual(ctx context.Context, req ManualRequest) (*Booking, error) {
	if strings.TrimSpace(req.VendorID) == "" {
		return nil, apperror.Wrap(ErrMissingField, http.StatusBadRequest, "vendor_id is required")
	}
	if err := validateItinerary(&req.Itinerary); err != nil {
		return nil, err
	}

	now := s.now()
	b := &Booking{
		VendorID:  ptr(req.VendorID),
		DriverID:  ptr(req.DriverID),
		VehicleID: ptr(req.VehicleID),
		Itinerary: req.Itinerary,
		Status:    StatusUpcoming,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.repo.WithinTx(ctx, func(tx Tx) error {
		if err := s.claimResources(ctx, tx, req.VendorID, req.DriverID, req.VehicleID); err != nil {
			return err
		}
		return tx.Insert(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("manual booking created",
		zap.String("booking_id", b.ID),
		zap.String("vendor_id", req.VendorID),
		zap.String("vehicle_id", req.VehicleID),
	)
	return b, nil
}

// transition locks the booking, checks that to is reachable from its current
// status, lets apply mutate it, then writes it back only if the stored status
// has not moved in the meantime.
func (s *service) transition(ctx context.Context, id string, to Status, apply func(tx Tx, b *Booking) error) (*Booking, error) {
	var (
		out  *Booking
		from Status
	)
	err := s.repo.WithinTx(ctx, func(tx Tx) error {
		b, err := tx.LockByID(ctx, id)
		if err != nil {
			return err
		}
		from = b.Status
		if err := Transition(from, to); err != nil {
			return err
		}
		if err := apply(tx, b); err != nil {
			return err
		}

		b.Status = to
		b.UpdatedAt = s.now()
		if err := tx.UpdateIfStatus(ctx, b, from); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	fields := []zap.Field{
		zap.String("booking_id", out.ID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	}
	if out.VendorID != nil {
		fields = append(fields, zap.String("vendor_id", *out.VendorID))
	}
	s.logger.Info("booking status changed", fields...)
	return out, nil
}

// txAssociations answers association questions on the transaction's own
// connection. Checks made while a booking row is locked must go through it.
func txAssociations(tx Tx) association.Service {
	return association.NewService(tx.Associations())
}

// checkEligible decides whether vendorID may claim b. A vendor associated
// with the booking's company accepts directly; anyone else needs the booking
// to be visible to them in the open market right now.
func (s *service) checkEligible(ctx context.Context, assoc association.Service, b *Booking, vendorID string) error {
	if b.CompanyID != nil {
		ok, err := assoc.IsCompanyVendor(ctx, *b.CompanyID, vendorID)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}

	if !b.InOpenMarket || b.OpenMarketVendorID == nil {
		return ErrNotEligible
	}
	partners, err := releaserPartners(ctx, assoc, *b.OpenMarketVendorID)
	if err != nil {
		return err
	}
	if !VisibleTo(b, vendorID, partners, s.now(), s.window) {
		return ErrNotEligible
	}
	return nil
}

// checkCompanyVendor allows only vendors associated with the booking's company.
func checkCompanyVendor(ctx context.Context, assoc association.Service, b *Booking, vendorID string) error {
	if b.CompanyID == nil {
		return ErrPermissionDenied
	}
	ok, err := assoc.IsCompanyVendor(ctx, *b.CompanyID, vendorID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPermissionDenied
	}
	return nil
}

// claimResources checks that the driver and vehicle belong to vendorID and
// takes the vehicle. The booking row, if any, must already be locked.
func (s *service) claimResources(ctx context.Context, tx Tx, vendorID, driverID, vehicleID string) error {
	if strings.TrimSpace(driverID) == "" {
		return apperror.Wrap(ErrMissingField, http.StatusBadRequest, "driver_id is required")
	}
	if strings.TrimSpace(vehicleID) == "" {
		return apperror.Wrap(ErrMissingField, http.StatusBadRequest, "vehicle_id is required")
	}

	driver, err := tx.GetDriver(ctx, driverID)
	if err != nil {
		return err
	}
	if driver.Deleted() {
		return ErrDriverNotFound
	}
	if driver.VendorID != vendorID {
		return ErrDriverNotOwned
	}

	vehicle, err := tx.LockVehicle(ctx, vehicleID)
	if err != nil {
		return err
	}
	if vehicle.Deleted() {
		return ErrVehicleNotFound
	}
	if vehicle.VendorID != vendorID {
		return ErrVehicleNotOwned
	}
	if !vehicle.Availability {
		return ErrVehicleUnavailable
	}

	changed, err := tx.SetVehicleAvailability(ctx, vehicleID, false)
	if err != nil {
		return err
	}
	if !changed {
		return ErrVehicleUnavailable
	}
	return nil
}

// releaserPartners returns the partner set of the vendor that released a
// booking. A releaser that no longer exists has no partners.
func releaserPartners(ctx context.Context, assoc association.Service, vendorID string) ([]string, error) {
	ids, err := assoc.PartnersOf(ctx, vendorID)
	if errors.Is(err, association.ErrVendorNotFound) {
		return nil, nil
	}
	return ids, err
}

func pageNumber(p Page) int {
	if p.Number < 1 {
		return 1
	}
	return p.Number
}

func pageSize(p Page) int {
	switch {
	case p.Size < 1:
		return 20
	case p.Size > 100:
		return 100
	default:
		return p.Size
	}
}
