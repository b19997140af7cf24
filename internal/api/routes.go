// Package api wires the HTTP handlers into a gin engine.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ridehail/internal/api/handlers"
	"ridehail/internal/api/middleware"
	"ridehail/pkg/logger"
)

type Router struct {
	authHandler    *handlers.AuthHandler
	rideHandler    *handlers.RideHandler
	vehicleHandler *handlers.VehicleHandler
	adminHandler   *handlers.AdminHandler
	resolver       middleware.IdentityResolver
	log            logger.ILogger
}

func NewRouter(
	authHandler *handlers.AuthHandler,
	rideHandler *handlers.RideHandler,
	vehicleHandler *handlers.VehicleHandler,
	adminHandler *handlers.AdminHandler,
	resolver middleware.IdentityResolver,
	log logger.ILogger,
) *Router {
	return &Router{
		authHandler:    authHandler,
		rideHandler:    rideHandler,
		vehicleHandler: vehicleHandler,
		adminHandler:   adminHandler,
		resolver:       resolver,
		log:            log,
	}
}

// Setup registers every route. The role middlewares mirror the gates the
// services run, so a rejected request never reaches a handler.
func (r *Router) Setup(engine *gin.Engine) {
	engine.Use(middleware.RequestLogger(r.log))

	// Health check endpoint
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public endpoints
	engine.POST("/registration", r.authHandler.Register)
	engine.POST("/registration/form", r.authHandler.RegisterForm)
	engine.POST("/login", r.authHandler.Login)

	// Protected routes
	api := engine.Group("/")
	api.Use(middleware.Authenticate(r.resolver))
	{
		api.GET("/me", r.authHandler.Me)

		rides := api.Group("/rides")
		{
			rides.GET("", r.rideHandler.ListRides)
			rides.POST("", r.rideHandler.CreateRide)
			rides.POST("/create", middleware.RequireRider(), r.rideHandler.CreateRideForm)
			rides.GET("/available", r.rideHandler.ListAvailable)
			rides.GET("/:id", r.rideHandler.GetRide)
			rides.POST("/:id/accept", middleware.RequireDriver(), r.rideHandler.AcceptRide)
			rides.POST("/:id/complete", r.rideHandler.CompleteRide)
			rides.GET("/:id/status", r.rideHandler.RideStatus)
		}

		vehicles := api.Group("/vehicles")
		{
			vehicles.GET("", r.vehicleHandler.List)
			vehicles.POST("", r.vehicleHandler.Create)
			vehicles.GET("/:id", r.vehicleHandler.Get)
			vehicles.PUT("/:id", r.vehicleHandler.Update)
			vehicles.DELETE("/:id", r.vehicleHandler.Delete)
		}

		api.GET("/rider/dashboard", middleware.RequireRider(), r.rideHandler.RiderDashboard)
		api.GET("/driver/dashboard", middleware.RequireDriver(), r.rideHandler.DriverDashboard)

		admin := api.Group("/admin")
		admin.Use(middleware.RequireAdmin())
		{
			admin.GET("/profiles", r.adminHandler.ListProfiles)
			admin.GET("/profiles/:id/documents/:kind", r.adminHandler.Document)
			admin.POST("/drivers/approve", r.adminHandler.ApproveDrivers)
			admin.POST("/drivers/:id/approve", r.adminHandler.ApproveDriver)
			admin.POST("/rides/complete", r.adminHandler.CompleteRides)
		}
	}
}
