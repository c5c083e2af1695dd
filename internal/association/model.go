package association

import (
	"net/http"

	"github.com/nekogravitycat/cab-booking-backend/internal/pkg/apperror"
)

var (
	ErrCompanyNotFound = apperror.New(http.StatusNotFound, "company not found")
	ErrVendorNotFound  = apperror.New(http.StatusNotFound, "vendor not found")
)

// VendorSummary is the contact card of a vendor linked to a company.
type VendorSummary struct {
	ID            string
	Name          string
	ContactPerson *string
	Phone         *string
}
