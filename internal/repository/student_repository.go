package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/peer-match-api/internal/models"
)

// RegistryListLimit caps student and peer list endpoints.
const RegistryListLimit = 500

// ErrReferenced is returned when a delete is blocked by sessions pointing at the row.
var ErrReferenced = errors.New("record is referenced by sessions")

const (
	pqForeignKeyViolation = "23503"
	pqInvalidTextRepr     = "22P02"
)

const studentColumns = "id, name, subject, range_budget, rating, experience, created_at, updated_at"

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID fetches a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := "SELECT " + studentColumns + " FROM students WHERE id = $1"
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, lookupErr(err)
	}
	return &student, nil
}

// ListAll returns every student in stable insertion order, used as bulk match input.
func (r *StudentRepository) ListAll(ctx context.Context) ([]models.Student, error) {
	query := "SELECT " + studentColumns + " FROM students ORDER BY created_at ASC, id ASC"
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list all students: %w", err)
	}
	return students, nil
}

// ListByIDs returns the students with the given IDs in insertion order. Unknown IDs are ignored.
func (r *StudentRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Student, error) {
	if len(ids) == 0 {
		return []models.Student{}, nil
	}
	query := "SELECT " + studentColumns + " FROM students WHERE id = ANY($1) ORDER BY created_at ASC, id ASC"
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list students by ids: %w", err)
	}
	return students, nil
}

// ListUnmatched returns the students with no open session in insertion order.
// A non-empty ids restricts the result to those IDs.
func (r *StudentRepository) ListUnmatched(ctx context.Context, ids []string) ([]models.Student, error) {
	query := "SELECT " + studentColumns + " FROM students t WHERE NOT EXISTS (" +
		"SELECT 1 FROM sessions s WHERE s.student_id = t.id AND s.status = ANY($1))"
	args := []interface{}{pq.Array(models.OpenSessionStatuses())}
	if len(ids) > 0 {
		query += " AND t.id = ANY($2)"
		args = append(args, pq.Array(ids))
	}
	query += " ORDER BY t.created_at ASC, t.id ASC"
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list unmatched students: %w", err)
	}
	return students, nil
}

// List returns the newest students first, capped at RegistryListLimit.
func (r *StudentRepository) List(ctx context.Context) ([]models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students ORDER BY created_at DESC LIMIT %d", studentColumns, RegistryListLimit)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, name, subject, range_budget, rating, experience, created_at, updated_at)
        VALUES (:id, :name, :subject, :range_budget, :rating, :experience, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies an existing student. It returns sql.ErrNoRows when the ID is unknown.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET name = :name, subject = :subject, range_budget = :range_budget, rating = :rating, experience = :experience, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, student)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return expectAffected(res)
}

// Delete removes a student by ID.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM students WHERE id = $1", id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrReferenced
		}
		return fmt.Errorf("delete student: %w", err)
	}
	return expectAffected(res)
}

func expectAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation
}

// lookupErr turns a malformed UUID into sql.ErrNoRows so callers report not found.
func lookupErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqInvalidTextRepr {
		return sql.ErrNoRows
	}
	return err
}
