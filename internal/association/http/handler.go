package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/cab-booking-backend/internal/association"
	"github.com/nekogravitycat/cab-booking-backend/internal/auth"
	"github.com/nekogravitycat/cab-booking-backend/internal/pkg/response"
)

type Handler struct {
	service association.Service
}

func NewHandler(service association.Service) *Handler {
	return &Handler{service: service}
}

// ListCompanyVendors returns the vendors the calling company works with.
func (h *Handler) ListCompanyVendors(c *gin.Context) {
	vendors, err := h.service.ListCompanyVendors(c.Request.Context(), auth.GetAccountID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]VendorResponse, len(vendors))
	for i, v := range vendors {
		items[i] = NewVendorResponse(v)
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// ListPartners returns the calling vendor's partner network.
func (h *Handler) ListPartners(c *gin.Context) {
	ids, err := h.service.PartnersOf(c.Request.Context(), auth.GetAccountID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, PartnersResponse{VendorIDs: ids})
}
