package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts booking endpoints. company and vendor must already
// enforce authentication and the matching role; shared only authentication.
func RegisterRoutes(company, vendor, shared *gin.RouterGroup, h *Handler) {
	// === Company Routes ===
	companyBookings := company.Group("/bookings")
	{
		companyBookings.POST("", h.Create)
		companyBookings.GET("", h.ListForCompany)
	}

	// === Vendor Routes ===
	vendor.GET("/open-market", h.ListOpenMarket)
	vendorBookings := vendor.Group("/bookings")
	{
		vendorBookings.GET("", h.ListForVendor)
		vendorBookings.GET("/pending", h.ListPending)
		vendorBookings.POST("/manual", h.CreateManual)
		vendorBookings.POST("/:id/accept", h.Accept)
		vendorBookings.POST("/:id/reject", h.Reject)
		vendorBookings.POST("/:id/open-market", h.PlaceInOpenMarket)
		vendorBookings.POST("/:id/start", h.StartTrip)
		vendorBookings.POST("/:id/end", h.EndTrip)
	}

	// === Either Party ===
	shared.GET("/bookings/:id", h.Get)
}
