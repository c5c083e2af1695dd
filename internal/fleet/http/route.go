package http

import "github.com/gin-gonic/gin"

func RegisterRoutes(vendor *gin.RouterGroup, h *Handler) {
	vendor.GET("/drivers", h.ListDrivers)
	vendor.GET("/vehicles", h.ListVehicles)
}
