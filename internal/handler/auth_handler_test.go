package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/student-attendance-api/internal/middleware"
	"github.com/noah-isme/student-attendance-api/internal/models"
	"github.com/noah-isme/student-attendance-api/internal/service"
	"github.com/noah-isme/student-attendance-api/pkg/config"
	"github.com/noah-isme/student-attendance-api/pkg/response"
)

type adminRepoStub struct {
	admin   *models.Admin
	exists  bool
	created *models.Admin
}

func (s *adminRepoStub) FindByUsername(ctx context.Context, username string) (*models.Admin, error) {
	if s.admin == nil || s.admin.Username != username {
		return nil, sql.ErrNoRows
	}
	return s.admin, nil
}

func (s *adminRepoStub) FindByID(ctx context.Context, id string) (*models.Admin, error) {
	if s.admin == nil || s.admin.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.admin, nil
}

func (s *adminRepoStub) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return s.exists, nil
}

func (s *adminRepoStub) Create(ctx context.Context, admin *models.Admin) error {
	admin.ID = "a-1"
	s.created = admin
	return nil
}

func (s *adminRepoStub) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	if s.admin != nil && s.admin.ID == id {
		s.admin.PasswordHash = passwordHash
	}
	return nil
}

func newAuthHandler(repo *adminRepoStub) *AuthHandler {
	svc := service.NewAuthService(repo, validator.New(), zap.NewNop(), config.AuthConfig{
		TokenSecret: "secret",
		TokenExpiry: time.Hour,
		BcryptCost:  bcrypt.MinCost,
		Issuer:      "test",
	})
	return NewAuthHandler(svc)
}

func postJSON(t *testing.T, handle gin.HandlerFunc, path string, payload interface{}) (*httptest.ResponseRecorder, response.Envelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handle(c)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return w, envelope
}

func TestAuthHandlerSignupSuccess(t *testing.T) {
	handler := newAuthHandler(&adminRepoStub{})

	w, envelope := postJSON(t, handler.Signup, "/auth/signup", models.SignupRequest{Username: "admin", Password: "hunter22"})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, envelope.Success)
	assert.Equal(t, "user signed up successfully", envelope.Message)
}

func TestAuthHandlerSignupConflictAnswers200(t *testing.T) {
	handler := newAuthHandler(&adminRepoStub{exists: true})

	w, envelope := postJSON(t, handler.Signup, "/auth/signup", models.SignupRequest{Username: "admin", Password: "hunter22"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, envelope.Success)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "CONFLICT", envelope.Error.Code)
}

func TestAuthHandlerLoginBadCredentialsAnswers200(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	handler := newAuthHandler(&adminRepoStub{admin: &models.Admin{ID: "a-1", Username: "admin", PasswordHash: string(hash)}})

	w, envelope := postJSON(t, handler.Login, "/auth/login", models.LoginRequest{Username: "admin", Password: "wrong"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, envelope.Success)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "INVALID_CREDENTIALS", envelope.Error.Code)
	assert.Equal(t, "incorrect password or username", envelope.Error.Message)
}

func TestAuthHandlerLoginSuccess(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	handler := newAuthHandler(&adminRepoStub{admin: &models.Admin{ID: "a-1", Username: "admin", PasswordHash: string(hash)}})

	w, envelope := postJSON(t, handler.Login, "/auth/login", models.LoginRequest{Username: "admin", Password: "hunter22"})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, envelope.Success)

	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, data["token"])
	assert.Equal(t, "admin", data["username"])
}

func TestAuthHandlerVerify(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAuthHandler(&adminRepoStub{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/auth/", nil)
	c.Request = req
	c.Set(middleware.ContextAdminKey, &models.Admin{ID: "a-1", Username: "admin"})

	handler.Verify(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"admin":"admin"`)
}

func TestAuthHandlerVerifyWithoutAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAuthHandler(&adminRepoStub{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/auth/", nil)
	c.Request = req

	handler.Verify(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
