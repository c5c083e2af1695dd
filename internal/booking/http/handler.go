package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/cab-booking-backend/internal/association"
	"github.com/nekogravitycat/cab-booking-backend/internal/auth"
	"github.com/nekogravitycat/cab-booking-backend/internal/booking"
	"github.com/nekogravitycat/cab-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/cab-booking-backend/internal/pkg/response"
)

type Handler struct {
	service      booking.Service
	assocService association.Service
}

func NewHandler(service booking.Service, assocService association.Service) *Handler {
	return &Handler{
		service:      service,
		assocService: assocService,
	}
}

// canView reports whether the caller may read b. Companies see their own
// bookings. Vendors see bookings bound to them and pending bookings they could
// claim, either through their company association or the open market.
func (h *Handler) canView(c *gin.Context, b *booking.Booking) bool {
	accountID := auth.GetAccountID(c)

	switch auth.GetRole(c) {
	case auth.RoleCompany:
		return b.CompanyID != nil && *b.CompanyID == accountID
	case auth.RoleVendor:
		if b.IsAssignedTo(accountID) {
			return true
		}
		if b.Status != booking.StatusPending {
			return false
		}
		if b.InOpenMarket {
			return true
		}
		if b.CompanyID == nil {
			return false
		}
		ok, err := h.assocService.IsCompanyVendor(c.Request.Context(), *b.CompanyID, accountID)
		return err == nil && ok
	default:
		return false
	}
}

// Create handles POST /company/bookings.
func (h *Handler) Create(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	b, err := h.service.Create(c.Request.Context(), booking.CreateRequest{
		CompanyID: auth.GetAccountID(c),
		Itinerary: req.toItinerary(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewBookingResponse(b))
}

// ListForCompany handles GET /company/bookings.
func (h *Handler) ListForCompany(c *gin.Context) {
	var req ListBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	req.Normalize()

	bookings, total, err := h.service.ListForCompany(c.Request.Context(), auth.GetAccountID(c), booking.Page{
		Number: req.Page,
		Size:   req.PageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, response.NewPageResponse(newBookingResponses(bookings), req.Page, req.PageSize, total))
}

// ListForVendor handles GET /vendor/bookings.
func (h *Handler) ListForVendor(c *gin.Context) {
	var req ListBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	req.Normalize()

	bookings, total, err := h.service.ListForVendor(c.Request.Context(), auth.GetAccountID(c), booking.Page{
		Number: req.Page,
		Size:   req.PageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, response.NewPageResponse(newBookingResponses(bookings), req.Page, req.PageSize, total))
}

// ListPending handles GET /vendor/bookings/pending.
func (h *Handler) ListPending(c *gin.Context) {
	bookings, err := h.service.ListPendingForVendor(c.Request.Context(), auth.GetAccountID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": newBookingResponses(bookings)})
}

// ListOpenMarket handles GET /vendor/open-market.
func (h *Handler) ListOpenMarket(c *gin.Context) {
	// The zero time defers to the service clock, which also judges Accept.
	bookings, err := h.service.ListOpenMarket(c.Request.Context(), auth.GetAccountID(c), time.Time{})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": newBookingResponses(bookings)})
}

// Get handles GET /bookings/:id for either party of the booking.
func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, err)
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	// Hide existence from callers outside the booking.
	if !h.canView(c, b) {
		response.Error(c, booking.ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

// Accept handles POST /vendor/bookings/:id/accept.
func (h *Handler) Accept(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, err)
		return
	}

	var req AcceptBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	b, err := h.service.Accept(c.Request.Context(), booking.AcceptRequest{
		BookingID: uri.ID,
		VendorID:  auth.GetAccountID(c),
		DriverID:  req.DriverID,
		VehicleID: req.VehicleID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

// Reject handles POST /vendor/bookings/:id/reject.
func (h *Handler) Reject(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, err)
		return
	}

	var req RejectBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	b, err := h.service.Reject(c.Request.Context(), uri.ID, auth.GetAccountID(c), req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

// PlaceInOpenMarket handles POST /vendor/bookings/:id/open-market.
func (h *Handler) PlaceInOpenMarket(c *gin.Context) {
	h.byID(c, h.service.PlaceInOpenMarket)
}

// StartTrip handles POST /vendor/bookings/:id/start.
func (h *Handler) StartTrip(c *gin.Context) {
	h.byID(c, h.service.StartTrip)
}

// EndTrip handles POST /vendor/bookings/:id/end.
func (h *Handler) EndTrip(c *gin.Context) {
	h.byID(c, h.service.EndTrip)
}

// CreateManual handles POST /vendor/bookings/manual.
func (h *Handler) CreateManual(c *gin.Context) {
	var req ManualBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	b, err := h.service.CreateManual(c.Request.Context(), booking.ManualRequest{
		VendorID:  auth.GetAccountID(c),
		DriverID:  req.DriverID,
		VehicleID: req.VehicleID,
		Itinerary: req.toItinerary(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewBookingResponse(b))
}

// byID runs a vendor action that needs nothing but the booking id from the path.
func (h *Handler) byID(c *gin.Context, action func(ctx context.Context, id, vendorID string) (*booking.Booking, error)) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, err)
		return
	}

	b, err := action(c.Request.Context(), uri.ID, auth.GetAccountID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}
