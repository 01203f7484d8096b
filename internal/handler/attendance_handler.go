package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-attendance-api/internal/service"
	appErrors "github.com/noah-isme/student-attendance-api/pkg/errors"
	"github.com/noah-isme/student-attendance-api/pkg/response"
)

// AttendanceHandler exposes the session ledger endpoints the kiosk
// clients call on class entry and exit.
type AttendanceHandler struct {
	ledger *service.LedgerService
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(ledger *service.LedgerService) *AttendanceHandler {
	return &AttendanceHandler{ledger: ledger}
}

// Login godoc
// @Summary Record a class login
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.SessionLoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /api/login [post]
func (h *AttendanceHandler) Login(c *gin.Context) {
	var req service.SessionLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}
	student, err := h.ledger.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student)
}

// Logout godoc
// @Summary Record a class logout
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.SessionLogoutRequest true "Logout payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /api/logout [post]
func (h *AttendanceHandler) Logout(c *gin.Context) {
	var req service.SessionLogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid logout payload"))
		return
	}
	student, err := h.ledger.Logout(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student)
}
