package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/peer-match-api/internal/models"
)

const sessionDetailSelect = `SELECT s.id, s.student_id, s.peer_id, s.topic, s.scheduled_at, s.status, s.remarks, s.created_at, s.updated_at,
        COALESCE(st.name, '') AS student_name, COALESCE(st.subject, '') AS student_subject,
        COALESCE(p.name, '') AS peer_name, COALESCE(p.domain, '') AS peer_domain
        FROM sessions s
        LEFT JOIN students st ON st.id = s.student_id
        LEFT JOIN peers p ON p.id = s.peer_id`

// SessionRepository persists tutoring sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs a SessionRepository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a session, assigning ID and timestamps when missing.
func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	if session.ScheduledAt.IsZero() {
		session.ScheduledAt = now
	}
	session.UpdatedAt = now
	const query = `INSERT INTO sessions (id, student_id, peer_id, topic, scheduled_at, status, remarks, created_at, updated_at)
        VALUES (:id, :student_id, :peer_id, :topic, :scheduled_at, :status, :remarks, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// FindByID fetches the bare session row.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.Session, error) {
	const query = `SELECT id, student_id, peer_id, topic, scheduled_at, status, remarks, created_at, updated_at FROM sessions WHERE id = $1`
	var session models.Session
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, lookupErr(err)
	}
	return &session, nil
}

// FindDetailByID fetches a session with student and peer summaries.
func (r *SessionRepository) FindDetailByID(ctx context.Context, id string) (*models.SessionDetail, error) {
	query := sessionDetailSelect + " WHERE s.id = $1"
	var detail models.SessionDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, lookupErr(err)
	}
	return &detail, nil
}

// UpdateFields applies the non-nil fields of update and always stamps updated_at.
// It returns sql.ErrNoRows when the session does not exist.
func (r *SessionRepository) UpdateFields(ctx context.Context, id string, update models.SessionUpdate) error {
	if update.UpdatedAt.IsZero() {
		update.UpdatedAt = time.Now().UTC()
	}
	sets := []string{}
	args := []interface{}{}
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if update.Status != nil {
		add("status", string(*update.Status))
	}
	if update.ScheduledAt != nil {
		add("scheduled_at", *update.ScheduledAt)
	}
	if update.Remarks != nil {
		add("remarks", *update.Remarks)
	}
	if update.Topic != nil {
		add("topic", *update.Topic)
	}
	add("updated_at", update.UpdatedAt)
	args = append(args, id)

	query := fmt.Sprintf("UPDATE sessions SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if lookupErr(err) == sql.ErrNoRows {
			return sql.ErrNoRows
		}
		return fmt.Errorf("update session: %w", err)
	}
	return expectAffected(res)
}

// List returns sessions most recently updated first, with referenced summaries.
func (r *SessionRepository) List(ctx context.Context, limit int) ([]models.SessionDetail, error) {
	query := fmt.Sprintf("%s ORDER BY s.updated_at DESC, s.id ASC LIMIT %d", sessionDetailSelect, limit)
	var sessions []models.SessionDetail
	if err := r.db.SelectContext(ctx, &sessions, query); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}
