package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-attendance-api/internal/middleware"
	"github.com/noah-isme/student-attendance-api/internal/models"
	"github.com/noah-isme/student-attendance-api/internal/service"
	appErrors "github.com/noah-isme/student-attendance-api/pkg/errors"
	"github.com/noah-isme/student-attendance-api/pkg/response"
)

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Signup godoc
// @Summary Register an admin
// @Description Registers an admin and issues a credential. A duplicate username answers 200 with success=false, which the admin panel depends on.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.SignupRequest true "Signup payload"
// @Success 201 {object} response.Envelope
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid signup payload"))
		return
	}

	res, err := h.service.Signup(c.Request.Context(), req)
	if err != nil {
		if appErrors.FromError(err).Code == appErrors.ErrConflict.Code {
			response.Fail(c, http.StatusOK, err)
			return
		}
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusCreated, "user signed up successfully", res)
}

// Login godoc
// @Summary Authenticate an admin
// @Description Issues a fresh credential. Bad credentials answer 200 with success=false and an undifferentiated message.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 201 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		if appErrors.FromError(err).Code == appErrors.ErrInvalidCredentials.Code {
			response.Fail(c, http.StatusOK, err)
			return
		}
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusCreated, "user logged in successfully", res)
}

// Verify godoc
// @Summary Verify the presented credential
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /auth/ [post]
func (h *AuthHandler) Verify(c *gin.Context) {
	value, exists := c.Get(middleware.ContextAdminKey)
	if !exists {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	admin, ok := value.(*models.Admin)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"admin": admin.Username})
}

// ChangePassword godoc
// @Summary Change an admin password
// @Description Verifies the current password before storing a fresh hash. Outstanding credentials stay valid until expiry.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.ChangePasswordRequest true "Change password payload"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/change-password [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusOK, "password changed", nil)
}
