package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ridehail/internal/api/middleware"
	"ridehail/internal/services"
	"ridehail/pkg/logger"
)

// RideHandler groups the ride endpoints. Each handler pulls the caller from
// the context and passes it to the service, which runs the role gates.
type RideHandler struct {
	rideService *services.RideService
	log         logger.ILogger
}

func NewRideHandler(rideService *services.RideService, log logger.ILogger) *RideHandler {
	return &RideHandler{rideService: rideService, log: log}
}

// ListRides handles GET /rides.
func (h *RideHandler) ListRides(c *gin.Context) {
	page, err := h.rideService.ListRides(c.Request.Context(), middleware.GetIdentity(c), pageRequest(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// CreateRide handles POST /rides. Any authenticated caller may use it.
func (h *RideHandler) CreateRide(c *gin.Context) {
	h.create(c, services.EntryAPI)
}

// CreateRideForm handles POST /rides/create, the rider-only web-form entry.
func (h *RideHandler) CreateRideForm(c *gin.Context) {
	h.create(c, services.EntryForm)
}

func (h *RideHandler) create(c *gin.Context, entry services.Entry) {
	var req services.CreateRideRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}

	ride, err := h.rideService.CreateRide(c.Request.Context(), middleware.GetIdentity(c), req, entry)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, ride)
}

// GetRide handles GET /rides/:id.
func (h *RideHandler) GetRide(c *gin.Context) {
	ride, err := h.rideService.GetRide(c.Request.Context(), middleware.GetIdentity(c), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, ride)
}

// ListAvailable handles GET /rides/available.
func (h *RideHandler) ListAvailable(c *gin.Context) {
	page, err := h.rideService.ListAvailable(c.Request.Context(), middleware.GetIdentity(c), pageRequest(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// AcceptRide handles POST /rides/:id/accept. A lost race answers 409 with
// the ride's current status.
func (h *RideHandler) AcceptRide(c *gin.Context) {
	ride, err := h.rideService.AcceptRide(c.Request.Context(), middleware.GetIdentity(c), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, ride)
}

// CompleteRide handles POST /rides/:id/complete.
func (h *RideHandler) CompleteRide(c *gin.Context) {
	ride, err := h.rideService.CompleteRide(c.Request.Context(), middleware.GetIdentity(c), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"detail": "Ride marked as completed.", "ride": ride})
}

// RideStatus handles GET /rides/:id/status.
func (h *RideHandler) RideStatus(c *gin.Context) {
	status, err := h.rideService.RideStatus(c.Request.Context(), middleware.GetIdentity(c), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// RiderDashboard handles GET /rider/dashboard.
func (h *RideHandler) RiderDashboard(c *gin.Context) {
	rides, err := h.rideService.RiderDashboard(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rides": rides})
}

// DriverDashboard handles GET /driver/dashboard.
func (h *RideHandler) DriverDashboard(c *gin.Context) {
	dash, err := h.rideService.DriverDashboard(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}
