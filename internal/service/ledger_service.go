package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/student-attendance-api/internal/models"
	"github.com/noah-isme/student-attendance-api/internal/repository"
	appErrors "github.com/noah-isme/student-attendance-api/pkg/errors"
)

type ledgerRepository interface {
	FindByStudentID(ctx context.Context, studentID string) (*models.Student, error)
	AppendSession(ctx context.Context, student *models.Student, session *models.Session) error
	CloseSession(ctx context.Context, studentRef, sessionID string, logoutTime int64, totalTime float64) (bool, error)
	Replace(ctx context.Context, student *models.Student, sessions []models.Session) error
}

// SessionLoginRequest starts a class attendance session. An empty
// className is accepted; kiosks omit it outside scheduled periods.
type SessionLoginRequest struct {
	StudentID string `json:"studentId" validate:"required"`
	ClassName string `json:"className"`
}

// SessionLogoutRequest closes the student's open session.
type SessionLogoutRequest struct {
	StudentID string `json:"studentId" validate:"required"`
}

// ReplaceStudentRequest overwrites a student's mutable fields and
// their entire ledger. The supplied sessions must be chronological;
// the derived last-login/last-logout/last-class markers are recomputed
// from the final element.
type ReplaceStudentRequest struct {
	StudentName     string           `json:"studentName" validate:"required"`
	Classes         []string         `json:"classes"`
	LoginTimestamps []models.Session `json:"loginTimestamps"`
}

// LedgerService owns the session timestamp lifecycle: how login and
// logout events are recorded, matched and reconciled into elapsed-time
// records.
type LedgerService struct {
	repo      ledgerRepository
	cache     *repository.CacheRepository
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewLedgerService constructs the ledger service.
func NewLedgerService(repo ledgerRepository, cache *repository.CacheRepository, validate *validator.Validate, logger *zap.Logger) *LedgerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{repo: repo, cache: cache, validator: validate, logger: logger, now: time.Now}
}

// Login appends a new open session and repoints the student's
// last-login markers at it. If an earlier session is still open it is
// left open permanently; clients rely on that inherited behavior.
func (s *LedgerService) Login(ctx context.Context, req SessionLoginRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	student, err := s.repo.FindByStudentID(ctx, req.StudentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	loginTime := s.now().UnixMilli()
	session := &models.Session{
		ID:         uuid.NewString(),
		ClassName:  req.ClassName,
		LoginTime:  loginTime,
		LogoutTime: loginTime,
		TotalTime:  0,
	}

	if err := s.repo.AppendSession(ctx, student, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record login")
	}

	student.LastLogin = loginTime
	student.LastClass = req.ClassName
	student.OpenSessionID = &session.ID
	student.Sessions = append(student.Sessions, *session)

	s.invalidate(ctx)
	s.logger.Info("student logged in",
		zap.String("student_id", student.StudentID),
		zap.String("class", req.ClassName),
		zap.Int64("login_time", loginTime),
	)
	return student, nil
}

// Logout closes the session the student's open-session pointer
// addresses and records the elapsed seconds. A student with no open
// session is rejected without mutation.
func (s *LedgerService) Logout(ctx context.Context, req SessionLogoutRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid logout payload")
	}

	student, err := s.repo.FindByStudentID(ctx, req.StudentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	if student.OpenSessionID == nil {
		return nil, appErrors.Clone(appErrors.ErrSessionNotFound, "no open session for student")
	}

	open := -1
	for i := range student.Sessions {
		if student.Sessions[i].ID == *student.OpenSessionID {
			open = i
			break
		}
	}
	if open == -1 {
		// Pointer without a matching session should be unreachable
		// under well-formed input but must not crash.
		s.logger.Warn("open session pointer dangling", zap.String("student_id", student.StudentID))
		return nil, appErrors.Clone(appErrors.ErrSessionNotFound, "no open session for student")
	}

	logoutTime := s.now().UnixMilli()
	totalTime := elapsedSeconds(student.Sessions[open].LoginTime, logoutTime)

	closed, err := s.repo.CloseSession(ctx, student.ID, *student.OpenSessionID, logoutTime, totalTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record logout")
	}
	if !closed {
		return nil, appErrors.Clone(appErrors.ErrSessionNotFound, "no open session for student")
	}

	student.Sessions[open].LogoutTime = logoutTime
	student.Sessions[open].TotalTime = totalTime
	student.LastLogout = logoutTime
	student.OpenSessionID = nil

	s.invalidate(ctx)
	s.logger.Info("student logged out",
		zap.String("student_id", student.StudentID),
		zap.Float64("total_time", totalTime),
	)
	return student, nil
}

// Replace overwrites studentName, classes and the ledger wholesale,
// re-deriving the last-login/last-logout/last-class markers from the
// final element of the supplied sequence.
func (s *LedgerService) Replace(ctx context.Context, studentID string, req ReplaceStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	student, err := s.repo.FindByStudentID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	sessions := make([]models.Session, len(req.LoginTimestamps))
	copy(sessions, req.LoginTimestamps)
	for i := range sessions {
		sessions[i].ID = uuid.NewString()
		sessions[i].StudentRef = student.ID
	}

	student.StudentName = req.StudentName
	student.Classes = req.Classes
	student.LastLogin = 0
	student.LastLogout = 0
	student.LastClass = ""
	student.OpenSessionID = nil
	if len(sessions) > 0 {
		last := sessions[len(sessions)-1]
		student.LastLogin = last.LoginTime
		student.LastLogout = last.LogoutTime
		student.LastClass = last.ClassName
		if last.Open() {
			id := last.ID
			student.OpenSessionID = &id
		}
	}

	if err := s.repo.Replace(ctx, student, sessions); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	student.Sessions = sessions

	s.invalidate(ctx)
	return student, nil
}

func (s *LedgerService) invalidate(ctx context.Context) {
	if err := s.cache.DeleteByPattern(ctx, "students:*"); err != nil {
		s.logger.Warn("failed to invalidate student cache", zap.Error(err))
	}
}

// elapsedSeconds is the literal elapsed-time rule: fractional seconds,
// not rounded, negative when the inputs are malformed.
func elapsedSeconds(loginTime, logoutTime int64) float64 {
	return float64(logoutTime-loginTime) / 1000
}
