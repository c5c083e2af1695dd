package http

import (
	"time"

	"github.com/nekogravitycat/cab-booking-backend/internal/fleet"
)

// ListVehiclesRequest defines query parameters for listing vehicles.
type ListVehiclesRequest struct {
	AvailableOnly bool   `form:"available"`
	Type          string `form:"type" binding:"omitempty,oneof=sedan hatchback suv luxury"`
}

type DriverResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Phone         *string   `json:"phone"`
	LicenseNumber *string   `json:"license_number"`
	CreatedAt     time.Time `json:"created_at"`
}

func NewDriverResponse(d *fleet.Driver) DriverResponse {
	return DriverResponse{
		ID:            d.ID,
		Name:          d.Name,
		Phone:         d.Phone,
		LicenseNumber: d.LicenseNumber,
		CreatedAt:     d.CreatedAt,
	}
}

type VehicleResponse struct {
	ID              string    `json:"id"`
	Type            string    `json:"type"`
	Model           *string   `json:"model"`
	PlateNumber     string    `json:"plate_number"`
	ConditionStatus string    `json:"condition_status"`
	Availability    bool      `json:"availability"`
	CreatedAt       time.Time `json:"created_at"`
}

func NewVehicleResponse(v *fleet.Vehicle) VehicleResponse {
	return VehicleResponse{
		ID:              v.ID,
		Type:            string(v.Type),
		Model:           v.Model,
		PlateNumber:     v.PlateNumber,
		ConditionStatus: v.ConditionStatus,
		Availability:    v.Availability,
		CreatedAt:       v.CreatedAt,
	}
}
