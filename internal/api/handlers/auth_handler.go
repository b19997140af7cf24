package handlers

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"ridehail/internal/api/middleware"
	"ridehail/internal/services"
	"ridehail/pkg/logger"
)

// AuthHandler serves registration, login and /me.
type AuthHandler struct {
	registration *services.RegistrationService
	auth         *services.AuthService
	log          logger.ILogger
}

func NewAuthHandler(registration *services.RegistrationService, auth *services.AuthService, log logger.ILogger) *AuthHandler {
	return &AuthHandler{registration: registration, auth: auth, log: log}
}

// registrationBody binds from JSON, urlencoded or multipart bodies. Files
// are only read from multipart bodies.
type registrationBody struct {
	Username    string `json:"username" form:"username"`
	Email       string `json:"email" form:"email"`
	Password    string `json:"password" form:"password"`
	Role        string `json:"role" form:"role"`
	FullName    string `json:"full_name" form:"full_name"`
	Phone       string `json:"phone" form:"phone"`
	City        string `json:"city" form:"city"`
	VehicleType string `json:"vehicle_type" form:"vehicle_type"`
	IDType      string `json:"id_type" form:"id_type"`
	IDNumber    string `json:"id_number" form:"id_number"`
}

// Register handles POST /registration.
func (h *AuthHandler) Register(c *gin.Context) {
	h.register(c, services.EntryAPI)
}

// RegisterForm handles POST /registration/form, which also requires a full
// name and a phone number.
func (h *AuthHandler) RegisterForm(c *gin.Context) {
	h.register(c, services.EntryForm)
}

func (h *AuthHandler) register(c *gin.Context, entry services.Entry) {
	var body registrationBody
	if err := c.ShouldBind(&body); err != nil {
		badRequest(c, err)
		return
	}

	req := services.RegistrationRequest{
		Username:    body.Username,
		Email:       body.Email,
		Password:    body.Password,
		Role:        body.Role,
		FullName:    body.FullName,
		Phone:       body.Phone,
		City:        body.City,
		VehicleType: body.VehicleType,
		IDType:      body.IDType,
		IDNumber:    body.IDNumber,
	}

	var opened []multipart.File
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()
	for field, dst := range map[string]**services.Upload{
		"id_document":    &req.IDDocument,
		"driver_license": &req.DriverLicense,
	} {
		// An empty file counts as not uploaded.
		header, err := c.FormFile(field)
		if err != nil || header.Size <= 0 {
			continue
		}
		f, err := header.Open()
		if err != nil {
			badRequest(c, err)
			return
		}
		opened = append(opened, f)
		*dst = &services.Upload{Filename: header.Filename, Content: f}
	}

	summary, err := h.registration.Register(c.Request.Context(), req, entry)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, summary)
}

type loginBody struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// Login handles POST /login.
func (h *AuthHandler) Login(c *gin.Context) {
	var body loginBody
	if err := c.ShouldBind(&body); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.auth.Login(c.Request.Context(), body.Username, body.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Me handles GET /me.
func (h *AuthHandler) Me(c *gin.Context) {
	summary, landing, err := h.auth.Me(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": summary, "landing": landing})
}
