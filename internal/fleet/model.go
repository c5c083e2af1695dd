package fleet

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/cab-booking-backend/internal/pkg/apperror"
)

var (
	ErrDriverNotFound  = apperror.New(http.StatusNotFound, "driver not found")
	ErrVehicleNotFound = apperror.New(http.StatusNotFound, "vehicle not found")
)

// CarCategory is the class of car a booking asks for and a vehicle provides.
type CarCategory string

const (
	CategorySedan     CarCategory = "sedan"
	CategoryHatchback CarCategory = "hatchback"
	CategorySUV       CarCategory = "suv"
	CategoryLuxury    CarCategory = "luxury"
)

// Valid reports whether c is a known category.
func (c CarCategory) Valid() bool {
	switch c {
	case CategorySedan, CategoryHatchback, CategorySUV, CategoryLuxury:
		return true
	}
	return false
}

// Driver is owned by exactly one vendor.
type Driver struct {
	ID            string
	VendorID      string
	Name          string
	Phone         *string
	LicenseNumber *string
	CreatedAt     time.Time
	DeletedAt     *time.Time
}

// Vehicle is owned by exactly one vendor. Availability is written only by
// booking transitions.
type Vehicle struct {
	ID              string
	VendorID        string
	Type            CarCategory
	Model           *string
	PlateNumber     string
	ConditionStatus string
	Availability    bool
	CreatedAt       time.Time
	DeletedAt       *time.Time
}

// Deleted reports whether the driver was removed by its vendor.
func (d *Driver) Deleted() bool { return d.DeletedAt != nil }

// Deleted reports whether the vehicle was removed by its vendor.
func (v *Vehicle) Deleted() bool { return v.DeletedAt != nil }

// VehicleFilter narrows a vendor's vehicle listing.
type VehicleFilter struct {
	VendorID      string
	AvailableOnly bool
	Type          CarCategory
}
