package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/student-attendance-api/internal/models"
)

// StudentRepository manages persistence for student records and their
// attendance sessions.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `id, student_id, student_name, classes, last_login, last_logout, last_class, open_session_id, created_at, updated_at`
const sessionColumns = `id, student_ref, class_name, login_time, logout_time, total_time`

// FindByStudentID fetches one student with their full session ledger.
func (r *StudentRepository) FindByStudentID(ctx context.Context, studentID string) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE student_id = $1 LIMIT 1`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student: %w", err)
	}

	sessions, err := r.sessionsFor(ctx, student.ID)
	if err != nil {
		return nil, err
	}
	student.Sessions = sessions
	return &student, nil
}

// List returns every student with their ledgers.
func (r *StudentRepository) List(ctx context.Context) ([]models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students ORDER BY created_at`, studentColumns)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}

	sessionQuery := fmt.Sprintf(`SELECT %s FROM attendance_sessions ORDER BY seq`, sessionColumns)
	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, sessionQuery); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	byStudent := make(map[string][]models.Session, len(students))
	for _, s := range sessions {
		byStudent[s.StudentRef] = append(byStudent[s.StudentRef], s)
	}
	for i := range students {
		students[i].Sessions = byStudent[students[i].ID]
	}
	return students, nil
}

// ExistsByStudentID checks whether the external student identifier is
// already taken.
func (r *StudentRepository) ExistsByStudentID(ctx context.Context, studentID string) (bool, error) {
	var exists int
	err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM students WHERE student_id = $1 LIMIT 1`, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check student id: %w", err)
	}
	return true, nil
}

// Create inserts a new student record with an empty ledger.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, student_id, student_name, classes, last_login, last_logout, last_class, open_session_id, created_at, updated_at)
        VALUES (:id, :student_id, :student_name, :classes, :last_login, :last_logout, :last_class, :open_session_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// AppendSession records a new attendance session and repoints the
// student's last-login markers at it in one transaction.
func (r *StudentRepository) AppendSession(ctx context.Context, student *models.Student, session *models.Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	session.StudentRef = student.ID

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append session: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insertQuery = `INSERT INTO attendance_sessions (id, student_ref, class_name, login_time, logout_time, total_time)
        VALUES (:id, :student_ref, :class_name, :login_time, :logout_time, :total_time)`
	if _, err := tx.NamedExecContext(ctx, insertQuery, session); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	const updateQuery = `UPDATE students SET last_login = $2, last_class = $3, open_session_id = $4, updated_at = $5 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, updateQuery, student.ID, session.LoginTime, session.ClassName, session.ID, time.Now().UTC()); err != nil {
		return fmt.Errorf("update login markers: %w", err)
	}

	return tx.Commit()
}

// CloseSession closes the identified session if it is still open and
// clears the student's open-session pointer. Both updates are
// conditional so a concurrent logout cannot close the same session
// twice or overwrite a newer login's pointer. Returns false when the
// session was already closed or does not exist.
func (r *StudentRepository) CloseSession(ctx context.Context, studentRef, sessionID string, logoutTime int64, totalTime float64) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin close session: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const closeQuery = `UPDATE attendance_sessions SET logout_time = $2, total_time = $3 WHERE id = $1 AND logout_time = login_time`
	res, err := tx.ExecContext(ctx, closeQuery, sessionID, logoutTime, totalTime)
	if err != nil {
		return false, fmt.Errorf("close session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("close session result: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	const updateQuery = `UPDATE students SET last_logout = $2, open_session_id = NULL, updated_at = $3 WHERE id = $1 AND open_session_id = $4`
	if _, err := tx.ExecContext(ctx, updateQuery, studentRef, logoutTime, time.Now().UTC(), sessionID); err != nil {
		return false, fmt.Errorf("update logout markers: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// Replace overwrites the student's mutable fields and their entire
// session ledger in one transaction.
func (r *StudentRepository) Replace(ctx context.Context, student *models.Student, sessions []models.Session) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM attendance_sessions WHERE student_ref = $1`, student.ID); err != nil {
		return fmt.Errorf("clear sessions: %w", err)
	}

	const insertQuery = `INSERT INTO attendance_sessions (id, student_ref, class_name, login_time, logout_time, total_time)
        VALUES (:id, :student_ref, :class_name, :login_time, :logout_time, :total_time)`
	for i := range sessions {
		if sessions[i].ID == "" {
			sessions[i].ID = uuid.NewString()
		}
		sessions[i].StudentRef = student.ID
		if _, err := tx.NamedExecContext(ctx, insertQuery, &sessions[i]); err != nil {
			return fmt.Errorf("insert replacement session: %w", err)
		}
	}

	student.UpdatedAt = time.Now().UTC()
	const updateQuery = `UPDATE students SET student_name = :student_name, classes = :classes, last_login = :last_login,
        last_logout = :last_logout, last_class = :last_class, open_session_id = :open_session_id, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, updateQuery, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}

	return tx.Commit()
}

// Delete removes one student and their sessions. Returns sql.ErrNoRows
// when the student does not exist.
func (r *StudentRepository) Delete(ctx context.Context, studentID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM attendance_sessions WHERE student_ref IN (SELECT id FROM students WHERE student_id = $1)`, studentID); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM students WHERE student_id = $1`, studentID)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete student result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return tx.Commit()
}

// DeleteAll removes every student and session, returning the number of
// student records removed.
func (r *StudentRepository) DeleteAll(ctx context.Context) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin delete all: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM attendance_sessions`); err != nil {
		return 0, fmt.Errorf("delete all sessions: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM students`)
	if err != nil {
		return 0, fmt.Errorf("delete all students: %w", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete all result: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *StudentRepository) sessionsFor(ctx context.Context, studentRef string) ([]models.Session, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendance_sessions WHERE student_ref = $1 ORDER BY seq`, sessionColumns)
	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, query, studentRef); err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	return sessions, nil
}
