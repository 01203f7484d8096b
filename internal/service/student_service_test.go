package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/student-attendance-api/internal/models"
	"github.com/noah-isme/student-attendance-api/internal/repository"
	appErrors "github.com/noah-isme/student-attendance-api/pkg/errors"
)

type mockStudentRepo struct {
	student    *models.Student
	students   []models.Student
	findErr    error
	listErr    error
	exists     bool
	existsErr  error
	created    *models.Student
	createErr  error
	deleteErr  error
	deletedID  string
	deletedAll int64
}

func (m *mockStudentRepo) FindByStudentID(ctx context.Context, studentID string) (*models.Student, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.student, nil
}

func (m *mockStudentRepo) List(ctx context.Context) ([]models.Student, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.students, nil
}

func (m *mockStudentRepo) ExistsByStudentID(ctx context.Context, studentID string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	return m.exists, nil
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if m.createErr != nil {
		return m.createErr
	}
	student.ID = "db-1"
	m.created = student
	return nil
}

func (m *mockStudentRepo) Delete(ctx context.Context, studentID string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deletedID = studentID
	return nil
}

func (m *mockStudentRepo) DeleteAll(ctx context.Context) (int64, error) {
	return m.deletedAll, nil
}

func newStudentService(repo *mockStudentRepo) *StudentService {
	cache := repository.NewCacheRepository(nil, zap.NewNop())
	return NewStudentService(repo, cache, nil, 5*time.Minute, validator.New(), zap.NewNop())
}

func TestStudentCreateStartsWithEmptyLedger(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := newStudentService(repo)

	student, err := svc.Create(context.Background(), CreateStudentRequest{
		StudentName: "Ada Lovelace",
		StudentID:   "s-100",
		Classes:     []string{"math", "science"},
	})
	require.NoError(t, err)

	assert.Equal(t, "s-100", student.StudentID)
	assert.Equal(t, []string{"math", "science"}, []string(student.Classes))
	assert.Zero(t, student.LastLogin)
	assert.Zero(t, student.LastLogout)
	assert.Empty(t, student.LastClass)
	assert.Nil(t, student.OpenSessionID)
	assert.Empty(t, student.Sessions)
	assert.NotNil(t, repo.created)
}

func TestStudentCreateDefaultsClasses(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := newStudentService(repo)

	student, err := svc.Create(context.Background(), CreateStudentRequest{StudentName: "Ada", StudentID: "s-100"})
	require.NoError(t, err)
	assert.NotNil(t, student.Classes)
	assert.Empty(t, student.Classes)
}

func TestStudentCreateDuplicate(t *testing.T) {
	repo := &mockStudentRepo{exists: true}
	svc := newStudentService(repo)

	_, err := svc.Create(context.Background(), CreateStudentRequest{StudentName: "Ada", StudentID: "s-100"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestStudentCreateMissingFields(t *testing.T) {
	svc := newStudentService(&mockStudentRepo{})

	_, err := svc.Create(context.Background(), CreateStudentRequest{StudentID: "s-100"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentGetNotFound(t *testing.T) {
	repo := &mockStudentRepo{findErr: sql.ErrNoRows}
	svc := newStudentService(repo)

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStudentList(t *testing.T) {
	repo := &mockStudentRepo{students: []models.Student{{StudentID: "s-1"}, {StudentID: "s-2"}}}
	svc := newStudentService(repo)

	students, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, students, 2)
}

func TestStudentDelete(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := newStudentService(repo)

	require.NoError(t, svc.Delete(context.Background(), "s-100"))
	assert.Equal(t, "s-100", repo.deletedID)
}

func TestStudentDeleteNotFound(t *testing.T) {
	repo := &mockStudentRepo{deleteErr: sql.ErrNoRows}
	svc := newStudentService(repo)

	err := svc.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStudentDeleteAll(t *testing.T) {
	repo := &mockStudentRepo{deletedAll: 7}
	svc := newStudentService(repo)

	count, err := svc.DeleteAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
}
