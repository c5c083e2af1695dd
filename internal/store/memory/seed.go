package memory

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nekogravitycat/cab-booking-backend/internal/fleet"
)

// Seed is the fixture file format of the memory driver.
type Seed struct {
	Companies []struct {
		ID            string  `yaml:"id"`
		Name          string  `yaml:"name"`
		ContactPerson *string `yaml:"contact_person"`
		Phone         *string `yaml:"phone"`
	} `yaml:"companies"`
	Vendors []struct {
		ID            string  `yaml:"id"`
		Name          string  `yaml:"name"`
		ContactPerson *string `yaml:"contact_person"`
		Phone         *string `yaml:"phone"`
	} `yaml:"vendors"`
	Drivers []struct {
		ID            string  `yaml:"id"`
		VendorID      string  `yaml:"vendor_id"`
		Name          string  `yaml:"name"`
		Phone         *string `yaml:"phone"`
		LicenseNumber *string `yaml:"license_number"`
	} `yaml:"drivers"`
	Vehicles []struct {
		ID              string            `yaml:"id"`
		VendorID        string            `yaml:"vendor_id"`
		Type            fleet.CarCategory `yaml:"type"`
		Model           *string           `yaml:"model"`
		PlateNumber     string            `yaml:"plate_number"`
		ConditionStatus string            `yaml:"condition_status"`
		Available       *bool             `yaml:"available"` // Defaults to true
	} `yaml:"vehicles"`
	CompanyVendors []struct {
		CompanyID string `yaml:"company_id"`
		VendorID  string `yaml:"vendor_id"`
	} `yaml:"company_vendors"`
	Partners []struct {
		VendorID  string `yaml:"vendor_id"`
		PartnerID string `yaml:"partner_id"`
	} `yaml:"partners"`
}

// LoadSeedFile reads a YAML fixture file into s.
func (s *Store) LoadSeedFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return s.LoadSeed(f)
}

// LoadSeed decodes YAML fixtures from r into s. Every referenced company and
// vendor must be declared in the same document.
func (s *Store) LoadSeed(r io.Reader) error {
	var seed Seed
	if err := yaml.NewDecoder(r).Decode(&seed); err != nil && err != io.EOF {
		return fmt.Errorf("decode seed: %w", err)
	}

	companies := make(map[string]bool)
	vendors := make(map[string]bool)
	for _, c := range seed.Companies {
		if c.ID == "" {
			return fmt.Errorf("seed company %q has no id", c.Name)
		}
		companies[c.ID] = true
	}
	for _, v := range seed.Vendors {
		if v.ID == "" {
			return fmt.Errorf("seed vendor %q has no id", v.Name)
		}
		vendors[v.ID] = true
	}
	for _, d := range seed.Drivers {
		if !vendors[d.VendorID] {
			return fmt.Errorf("seed driver %q references unknown vendor %q", d.Name, d.VendorID)
		}
	}
	for _, v := range seed.Vehicles {
		if !vendors[v.VendorID] {
			return fmt.Errorf("seed vehicle %q references unknown vendor %q", v.PlateNumber, v.VendorID)
		}
		if !v.Type.Valid() {
			return fmt.Errorf("seed vehicle %q has invalid type %q", v.PlateNumber, v.Type)
		}
	}
	for _, a := range seed.CompanyVendors {
		if !companies[a.CompanyID] || !vendors[a.VendorID] {
			return fmt.Errorf("seed association %s -> %s references unknown company or vendor", a.CompanyID, a.VendorID)
		}
	}
	for _, p := range seed.Partners {
		if !vendors[p.VendorID] || !vendors[p.PartnerID] {
			return fmt.Errorf("seed partnership %s <-> %s references unknown vendor", p.VendorID, p.PartnerID)
		}
		if p.VendorID == p.PartnerID {
			return fmt.Errorf("seed vendor %s cannot partner with itself", p.VendorID)
		}
	}

	now := time.Now()
	for _, c := range seed.Companies {
		s.PutCompany(Company{ID: c.ID, Name: c.Name, ContactPerson: c.ContactPerson, Phone: c.Phone})
	}
	for _, v := range seed.Vendors {
		s.PutVendor(Vendor{ID: v.ID, Name: v.Name, ContactPerson: v.ContactPerson, Phone: v.Phone})
	}
	for _, d := range seed.Drivers {
		s.PutDriver(fleet.Driver{
			ID:            d.ID,
			VendorID:      d.VendorID,
			Name:          d.Name,
			Phone:         d.Phone,
			LicenseNumber: d.LicenseNumber,
			CreatedAt:     now,
		})
	}
	for _, v := range seed.Vehicles {
		available := true
		if v.Available != nil {
			available = *v.Available
		}
		s.PutVehicle(fleet.Vehicle{
			ID:              v.ID,
			VendorID:        v.VendorID,
			Type:            v.Type,
			Model:           v.Model,
			PlateNumber:     v.PlateNumber,
			ConditionStatus: v.ConditionStatus,
			Availability:    available,
			CreatedAt:       now,
		})
	}
	for _, a := range seed.CompanyVendors {
		s.AssociateCompanyVendor(a.CompanyID, a.VendorID)
	}
	for _, p := range seed.Partners {
		s.AssociatePartners(p.VendorID, p.PartnerID)
	}
	return nil
}
