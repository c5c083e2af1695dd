package http

import "github.com/nekogravitycat/cab-booking-backend/internal/association"

type VendorResponse struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	ContactPerson *string `json:"contact_person"`
	Phone         *string `json:"phone"`
}

func NewVendorResponse(v *association.VendorSummary) VendorResponse {
	return VendorResponse{
		ID:            v.ID,
		Name:          v.Name,
		ContactPerson: v.ContactPerson,
		Phone:         v.Phone,
	}
}

type PartnersResponse struct {
	VendorIDs []string `json:"vendor_ids"`
}
