package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/student-attendance-api/internal/models"
	"github.com/noah-isme/student-attendance-api/internal/repository"
	appErrors "github.com/noah-isme/student-attendance-api/pkg/errors"
)

type studentRepository interface {
	FindByStudentID(ctx context.Context, studentID string) (*models.Student, error)
	List(ctx context.Context) ([]models.Student, error)
	ExistsByStudentID(ctx context.Context, studentID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, studentID string) error
	DeleteAll(ctx context.Context) (int64, error)
}

const (
	cacheKeyStudentList   = "students:list"
	cacheKeyStudentDetail = "students:detail:"
)

// CreateStudentRequest holds payload for registering students.
type CreateStudentRequest struct {
	StudentName string   `json:"studentName" validate:"required"`
	StudentID   string   `json:"studentId" validate:"required"`
	Classes     []string `json:"classes"`
}

// StudentService handles student record use-cases.
type StudentService struct {
	repo      studentRepository
	cache     *repository.CacheRepository
	metrics   *MetricsService
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, cache *repository.CacheRepository, metrics *MetricsService, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, cache: cache, metrics: metrics, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

// Get returns one student with their full ledger.
func (s *StudentService) Get(ctx context.Context, studentID string) (*models.Student, error) {
	key := cacheKeyStudentDetail + studentID
	var cached models.Student
	start := time.Now()
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		s.metrics.RecordCacheOperation(true, time.Since(start))
		return &cached, nil
	}
	s.metrics.RecordCacheOperation(false, time.Since(start))

	student, err := s.repo.FindByStudentID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	writeStart := time.Now()
	if err := s.cache.Set(ctx, key, student, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache student", zap.Error(err))
	}
	s.metrics.ObserveCacheWrite(time.Since(writeStart))
	return student, nil
}

// List returns every student.
func (s *StudentService) List(ctx context.Context) ([]models.Student, error) {
	var cached []models.Student
	start := time.Now()
	if err := s.cache.Get(ctx, cacheKeyStudentList, &cached); err == nil {
		s.metrics.RecordCacheOperation(true, time.Since(start))
		return cached, nil
	}
	s.metrics.RecordCacheOperation(false, time.Since(start))

	students, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}

	writeStart := time.Now()
	if err := s.cache.Set(ctx, cacheKeyStudentList, students, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache student list", zap.Error(err))
	}
	s.metrics.ObserveCacheWrite(time.Since(writeStart))
	return students, nil
}

// Create registers a new student with an empty ledger. The existing
// record is never touched on a duplicate studentId.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	exists, err := s.repo.ExistsByStudentID(ctx, req.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate student id")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student already exists")
	}

	classes := req.Classes
	if classes == nil {
		classes = []string{}
	}
	student := &models.Student{
		StudentID:   req.StudentID,
		StudentName: req.StudentName,
		Classes:     classes,
		Sessions:    []models.Session{},
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}

	s.invalidate(ctx)
	s.logger.Info("student created", zap.String("student_id", student.StudentID))
	return student, nil
}

// Delete removes one student and their ledger.
func (s *StudentService) Delete(ctx context.Context, studentID string) error {
	if err := s.repo.Delete(ctx, studentID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	s.invalidate(ctx)
	return nil
}

// DeleteAll removes every student record, returning the count. The
// handler gates this behind admin credentials.
func (s *StudentService) DeleteAll(ctx context.Context) (int64, error) {
	count, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete students")
	}
	s.invalidate(ctx)
	s.logger.Info("all students deleted", zap.Int64("count", count))
	return count, nil
}

func (s *StudentService) invalidate(ctx context.Context) {
	if err := s.cache.DeleteByPattern(ctx, "students:*"); err != nil {
		s.logger.Warn("failed to invalidate student cache", zap.Error(err))
	}
}
