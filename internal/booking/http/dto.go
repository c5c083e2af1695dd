package http

import (
	"time"

	"github.com/nekogravitycat/cab-booking-backend/internal/booking"
	"github.com/nekogravitycat/cab-booking-backend/internal/fleet"
	"github.com/nekogravitycat/cab-booking-backend/internal/pkg/request"
)

// ItineraryBody is the guest trip shared by company and manual bookings.
type ItineraryBody struct {
	GuestName       string    `json:"guest_name" binding:"required"`
	GuestContact    string    `json:"guest_contact" binding:"required"`
	GuestLocation   *string   `json:"guest_location"`
	PickupLocation  string    `json:"pickup_location" binding:"required"`
	DropoffLocation string    `json:"dropoff_location" binding:"required"`
	PickupTime      time.Time `json:"pickup_time" binding:"required"`
	CarCategory     string    `json:"car_category" binding:"required,oneof=sedan hatchback suv luxury"`
	ReferenceName   *string   `json:"reference_name"`
	TripDetails     *string   `json:"trip_details"`
}

func (b ItineraryBody) toItinerary() booking.Itinerary {
	return booking.Itinerary{
		GuestName:       b.GuestName,
		GuestContact:    b.GuestContact,
		GuestLocation:   b.GuestLocation,
		PickupLocation:  b.PickupLocation,
		DropoffLocation: b.DropoffLocation,
		PickupTime:      b.PickupTime,
		CarCategory:     fleet.CarCategory(b.CarCategory),
		ReferenceName:   b.ReferenceName,
		TripDetails:     b.TripDetails,
	}
}

type CreateBookingRequest struct {
	ItineraryBody
}

type ManualBookingRequest struct {
	ItineraryBody
	DriverID  string `json:"driver_id" binding:"required,uuid"`
	VehicleID string `json:"vehicle_id" binding:"required,uuid"`
}

type AcceptBookingRequest struct {
	DriverID  string `json:"driver_id" binding:"required,uuid"`
	VehicleID string `json:"vehicle_id" binding:"required,uuid"`
}

type RejectBookingRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ListBookingsRequest defines query parameters for listing bookings.
type ListBookingsRequest struct {
	request.ListParams
}

type BookingResponse struct {
	ID                 string     `json:"id"`
	CompanyID          *string    `json:"company_id"`
	VendorID           *string    `json:"vendor_id"`
	DriverID           *string    `json:"driver_id"`
	VehicleID          *string    `json:"vehicle_id"`
	GuestName          string     `json:"guest_name"`
	GuestContact       string     `json:"guest_contact"`
	GuestLocation      *string    `json:"guest_location"`
	PickupLocation     string     `json:"pickup_location"`
	DropoffLocation    string     `json:"dropoff_location"`
	PickupTime         time.Time  `json:"pickup_time"`
	CarCategory        string     `json:"car_category"`
	ReferenceName      *string    `json:"reference_name"`
	TripDetails        *string    `json:"trip_details"`
	Status             string     `json:"status"`
	InOpenMarket       bool       `json:"in_open_market"`
	OpenMarketTime     *time.Time `json:"open_market_time"`
	OpenMarketVendorID *string    `json:"open_market_vendor_id"`
	RejectionReason    *string    `json:"rejection_reason"`
	DropoffTime        *time.Time `json:"dropoff_time"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`

	Company *CompanySummaryResponse `json:"company,omitempty"`
	Vendor  *VendorSummaryResponse  `json:"vendor,omitempty"`
	Driver  *DriverSummaryResponse  `json:"driver,omitempty"`
	Vehicle *VehicleSummaryResponse `json:"vehicle,omitempty"`
}

type CompanySummaryResponse struct {
	CompanyName   string  `json:"company_name"`
	ContactPerson *string `json:"contact_person"`
	Phone         *string `json:"phone"`
}

type VendorSummaryResponse struct {
	VendorName string `json:"vendor_name"`
}

type DriverSummaryResponse struct {
	Name  string  `json:"name"`
	Phone *string `json:"phone"`
}

type VehicleSummaryResponse struct {
	PlateNumber string  `json:"plate_number"`
	Type        string  `json:"type"`
	Model       *string `json:"model"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	resp := BookingResponse{
		ID:                 b.ID,
		CompanyID:          b.CompanyID,
		VendorID:           b.VendorID,
		DriverID:           b.DriverID,
		VehicleID:          b.VehicleID,
		GuestName:          b.GuestName,
		GuestContact:       b.GuestContact,
		GuestLocation:      b.GuestLocation,
		PickupLocation:     b.PickupLocation,
		DropoffLocation:    b.DropoffLocation,
		PickupTime:         b.PickupTime,
		CarCategory:        string(b.CarCategory),
		ReferenceName:      b.ReferenceName,
		TripDetails:        b.TripDetails,
		Status:             string(b.Status),
		InOpenMarket:       b.InOpenMarket,
		OpenMarketTime:     b.OpenMarketTime,
		OpenMarketVendorID: b.OpenMarketVendorID,
		RejectionReason:    b.RejectionReason,
		DropoffTime:        b.DropoffTime,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}

	if b.Company != nil {
		resp.Company = &CompanySummaryResponse{
			CompanyName:   b.Company.Name,
			ContactPerson: b.Company.ContactPerson,
			Phone:         b.Company.Phone,
		}
	}
	if b.Vendor != nil {
		resp.Vendor = &VendorSummaryResponse{VendorName: b.Vendor.Name}
	}
	if b.Driver != nil {
		resp.Driver = &DriverSummaryResponse{Name: b.Driver.Name, Phone: b.Driver.Phone}
	}
	if b.Vehicle != nil {
		resp.Vehicle = &VehicleSummaryResponse{
			PlateNumber: b.Vehicle.PlateNumber,
			Type:        string(b.Vehicle.Type),
			Model:       b.Vehicle.Model,
		}
	}
	return resp
}

func newBookingResponses(bookings []*booking.Booking) []BookingResponse {
	items := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = NewBookingResponse(b)
	}
	return items
}
