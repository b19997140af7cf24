package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ridehail/internal/api/middleware"
	"ridehail/internal/services"
	"ridehail/pkg/logger"
)

type VehicleHandler struct {
	vehicleService *services.VehicleService
	log            logger.ILogger
}

func NewVehicleHandler(vehicleService *services.VehicleService, log logger.ILogger) *VehicleHandler {
	return &VehicleHandler{vehicleService: vehicleService, log: log}
}

func (h *VehicleHandler) List(c *gin.Context) {
	page, err := h.vehicleService.List(c.Request.Context(), middleware.GetIdentity(c), pageRequest(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *VehicleHandler) Create(c *gin.Context) {
	var req services.VehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	vehicle, err := h.vehicleService.Create(c.Request.Context(), middleware.GetIdentity(c), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, vehicle)
}

func (h *VehicleHandler) Get(c *gin.Context) {
	vehicle, err := h.vehicleService.Get(c.Request.Context(), middleware.GetIdentity(c), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, vehicle)
}

func (h *VehicleHandler) Update(c *gin.Context) {
	var req services.VehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	vehicle, err := h.vehicleService.Update(c.Request.Context(), middleware.GetIdentity(c), c.Param("id"), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, vehicle)
}

func (h *VehicleHandler) Delete(c *gin.Context) {
	if err := h.vehicleService.Delete(c.Request.Context(), middleware.GetIdentity(c), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
