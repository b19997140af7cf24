package handlers

import (
	"mime"
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"ridehail/internal/api/middleware"
	"ridehail/internal/domain/entities"
	"ridehail/internal/repository"
	"ridehail/internal/services"
	"ridehail/pkg/logger"
)

// AdminHandler exposes the administrative actions. Every route is mounted
// behind RequireAdmin, and the service checks the admin gate again.
type AdminHandler struct {
	adminService *services.AdminService
	log          logger.ILogger
}

func NewAdminHandler(adminService *services.AdminService, log logger.ILogger) *AdminHandler {
	return &AdminHandler{adminService: adminService, log: log}
}

// ListProfiles handles GET /admin/profiles?role=&approved=.
func (h *AdminHandler) ListProfiles(c *gin.Context) {
	var filter repository.ProfileFilter
	var problems []string

	if raw := c.Query("role"); raw != "" {
		role, err := entities.ParseRole(raw)
		if err != nil {
			problems = append(problems, "role must be rider, driver or admin")
		}
		filter.Role = &role
	}
	if raw := c.Query("approved"); raw != "" {
		approved, err := cast.ToBoolE(raw)
		if err != nil {
			problems = append(problems, "approved must be true or false")
		}
		filter.Approved = &approved
	}
	if len(problems) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": problems})
		return
	}

	profiles, err := h.adminService.ListProfiles(c.Request.Context(), middleware.GetIdentity(c), filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(profiles), "results": profiles})
}

// ApproveDrivers handles POST /admin/drivers/approve with {"ids": [...]}.
func (h *AdminHandler) ApproveDrivers(c *gin.Context) {
	var body idsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	n, err := h.adminService.ApproveDrivers(c.Request.Context(), middleware.GetIdentity(c), body.IDs)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"approved": n})
}

// ApproveDriver handles POST /admin/drivers/:id/approve.
func (h *AdminHandler) ApproveDriver(c *gin.Context) {
	if err := h.adminService.ApproveDriver(c.Request.Context(), middleware.GetIdentity(c), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"approved": 1})
}

// CompleteRides handles POST /admin/rides/complete with {"ids": [...]}.
func (h *AdminHandler) CompleteRides(c *gin.Context) {
	var body idsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	n, err := h.adminService.CompleteRides(c.Request.Context(), middleware.GetIdentity(c), body.IDs)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"completed": n})
}

// Document handles GET /admin/profiles/:id/documents/:kind.
func (h *AdminHandler) Document(c *gin.Context) {
	rc, ref, err := h.adminService.OpenDocument(c.Request.Context(), middleware.GetIdentity(c), c.Param("id"), c.Param("kind"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(ref))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, -1, contentType, rc, map[string]string{
		"Content-Disposition": `inline; filename="` + path.Base(ref) + `"`,
	})
}
