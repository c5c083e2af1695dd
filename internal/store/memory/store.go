// Package memory is an in-process store driver for local development and tests.
// It implements the same repository interfaces as the PostgreSQL driver.
package memory

import (
	"sync"

	"github.com/google/uuid"

	"github.com/nekogravitycat/cab-booking-backend/internal/association"
	"github.com/nekogravitycat/cab-booking-backend/internal/booking"
	"github.com/nekogravitycat/cab-booking-backend/internal/fleet"
)

type Company struct {
	ID            string
	Name          string
	ContactPerson *string
	Phone         *string
}

type Vendor struct {
	ID            string
	Name          string
	ContactPerson *string
	Phone         *string
}

// Store holds every table in memory.
//
// mu guards bookings, drivers and vehicles. A booking transaction holds it
// for its whole duration, which serializes all writers. Association data sits
// behind its own lock because services consult it from inside transactions.
type Store struct {
	mu       sync.RWMutex
	bookings map[string]*booking.Booking
	drivers  map[string]*fleet.Driver
	vehicles map[string]*fleet.Vehicle

	assocMu        sync.RWMutex
	companies      map[string]*Company
	vendors        map[string]*Vendor
	companyVendors map[string]map[string]struct{} // company id -> vendor ids
	partners       map[string]map[string]struct{} // vendor id -> partner ids, both directions
}

func New() *Store {
	return &Store{
		bookings:       make(map[string]*booking.Booking),
		drivers:        make(map[string]*fleet.Driver),
		vehicles:       make(map[string]*fleet.Vehicle),
		companies:      make(map[string]*Company),
		vendors:        make(map[string]*Vendor),
		companyVendors: make(map[string]map[string]struct{}),
		partners:       make(map[string]map[string]struct{}),
	}
}

// Bookings returns the booking repository backed by s.
func (s *Store) Bookings() booking.Repository { return &bookingRepository{s: s} }

// Associations returns the association repository backed by s.
func (s *Store) Associations() association.Repository { return &associationRepository{s: s} }

// Fleet returns the driver and vehicle repository backed by s.
func (s *Store) Fleet() fleet.Repository { return &fleetRepository{s: s} }

// attachParties fills the display summaries of b from the stored rows.
// Callers hold s.mu for reading.
func (s *Store) attachParties(b *booking.Booking) {
	if b.DriverID != nil {
		if d, ok := s.drivers[*b.DriverID]; ok {
			b.Driver = &booking.DriverSummary{Name: d.Name, Phone: d.Phone}
		}
	}
	if b.VehicleID != nil {
		if v, ok := s.vehicles[*b.VehicleID]; ok {
			b.Vehicle = &booking.VehicleSummary{PlateNumber: v.PlateNumber, Type: v.Type, Model: v.Model}
		}
	}

	s.assocMu.RLock()
	defer s.assocMu.RUnlock()
	if b.CompanyID != nil {
		if c, ok := s.companies[*b.CompanyID]; ok {
			b.Company = &booking.CompanySummary{Name: c.Name, ContactPerson: c.ContactPerson, Phone: c.Phone}
		}
	}
	if b.VendorID != nil {
		if v, ok := s.vendors[*b.VendorID]; ok {
			b.Vendor = &booking.VendorSummary{Name: v.Name}
		}
	}
}

// PutCompany stores c, assigning an id when it has none, and returns the id.
func (s *Store) PutCompany(c Company) string {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	s.assocMu.Lock()
	defer s.assocMu.Unlock()
	s.companies[c.ID] = &c
	return c.ID
}

// PutVendor stores v, assigning an id when it has none, and returns the id.
func (s *Store) PutVendor(v Vendor) string {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	s.assocMu.Lock()
	defer s.assocMu.Unlock()
	s.vendors[v.ID] = &v
	return v.ID
}

// PutDriver stores d, assigning an id when it has none, and returns the id.
func (s *Store) PutDriver(d fleet.Driver) string {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drivers[d.ID] = &d
	return d.ID
}

// PutVehicle stores v, assigning an id when it has none, and returns the id.
func (s *Store) PutVehicle(v fleet.Vehicle) string {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vehicles[v.ID] = &v
	return v.ID
}

// AssociateCompanyVendor links a company to a vendor.
func (s *Store) AssociateCompanyVendor(companyID, vendorID string) {
	s.assocMu.Lock()
	defer s.assocMu.Unlock()
	addEdge(s.companyVendors, companyID, vendorID)
}

// AssociatePartners makes two vendors partners of each other.
func (s *Store) AssociatePartners(vendorID, partnerID string) {
	if vendorID == partnerID {
		return
	}
	s.assocMu.Lock()
	defer s.assocMu.Unlock()
	addEdge(s.partners, vendorID, partnerID)
	addEdge(s.partners, partnerID, vendorID)
}

func addEdge(m map[string]map[string]struct{}, from, to string) {
	set, ok := m[from]
	if !ok {
		set = make(map[string]struct{})
		m[from] = set
	}
	set[to] = struct{}{}
}
