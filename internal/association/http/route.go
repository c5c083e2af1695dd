package http

import "github.com/gin-gonic/gin"

func RegisterRoutes(company, vendor *gin.RouterGroup, h *Handler) {
	company.GET("/vendors", h.ListCompanyVendors)
	vendor.GET("/partners", h.ListPartners)
}
