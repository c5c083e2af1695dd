package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/cab-booking-backend/internal/auth"
	"github.com/nekogravitycat/cab-booking-backend/internal/fleet"
	"github.com/nekogravitycat/cab-booking-backend/internal/pkg/response"
)

type Handler struct {
	service fleet.Service
}

func NewHandler(service fleet.Service) *Handler {
	return &Handler{service: service}
}

// ListDrivers returns the calling vendor's drivers.
func (h *Handler) ListDrivers(c *gin.Context) {
	drivers, err := h.service.ListDrivers(c.Request.Context(), auth.GetAccountID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]DriverResponse, len(drivers))
	for i, d := range drivers {
		items[i] = NewDriverResponse(d)
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// ListVehicles returns the calling vendor's vehicles.
func (h *Handler) ListVehicles(c *gin.Context) {
	var req ListVehiclesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	vehicles, err := h.service.ListVehicles(c.Request.Context(), fleet.VehicleFilter{
		VendorID:      auth.GetAccountID(c),
		AvailableOnly: req.AvailableOnly,
		Type:          fleet.CarCategory(req.Type),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]VehicleResponse, len(vehicles))
	for i, v := range vehicles {
		items[i] = NewVehicleResponse(v)
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}
