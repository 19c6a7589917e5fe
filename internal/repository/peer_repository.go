package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/peer-match-api/internal/models"
)

const peerColumns = "id, name, domain, experience, rating, charges, access_code_hash, created_at, updated_at"

// PeerRepository manages persistence for peer tutors.
type PeerRepository struct {
	db *sqlx.DB
}

// NewPeerRepository constructs a PeerRepository.
func NewPeerRepository(db *sqlx.DB) *PeerRepository {
	return &PeerRepository{db: db}
}

// FindByID fetches a peer by ID.
func (r *PeerRepository) FindByID(ctx context.Context, id string) (*models.Peer, error) {
	query := "SELECT " + peerColumns + " FROM peers WHERE id = $1"
	var peer models.Peer
	if err := r.db.GetContext(ctx, &peer, query, id); err != nil {
		return nil, lookupErr(err)
	}
	return &peer, nil
}

// ListAll returns every peer in stable insertion order.
func (r *PeerRepository) ListAll(ctx context.Context) ([]models.Peer, error) {
	query := "SELECT " + peerColumns + " FROM peers ORDER BY created_at ASC, id ASC"
	var peers []models.Peer
	if err := r.db.SelectContext(ctx, &peers, query); err != nil {
		return nil, fmt.Errorf("list all peers: %w", err)
	}
	return peers, nil
}

// ListByIDs returns the peers with the given IDs in insertion order. Unknown IDs are ignored.
func (r *PeerRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Peer, error) {
	if len(ids) == 0 {
		return []models.Peer{}, nil
	}
	query := "SELECT " + peerColumns + " FROM peers WHERE id = ANY($1) ORDER BY created_at ASC, id ASC"
	var peers []models.Peer
	if err := r.db.SelectContext(ctx, &peers, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list peers by ids: %w", err)
	}
	return peers, nil
}

// ListUnmatched returns the peers with no open session in insertion order.
// A non-empty ids restricts the result to those IDs.
func (r *PeerRepository) ListUnmatched(ctx context.Context, ids []string) ([]models.Peer, error) {
	query := "SELECT " + peerColumns + " FROM peers t WHERE NOT EXISTS (" +
		"SELECT 1 FROM sessions s WHERE s.peer_id = t.id AND s.status = ANY($1))"
	args := []interface{}{pq.Array(models.OpenSessionStatuses())}
	if len(ids) > 0 {
		query += " AND t.id = ANY($2)"
		args = append(args, pq.Array(ids))
	}
	query += " ORDER BY t.created_at ASC, t.id ASC"
	var peers []models.Peer
	if err := r.db.SelectContext(ctx, &peers, query, args...); err != nil {
		return nil, fmt.Errorf("list unmatched peers: %w", err)
	}
	return peers, nil
}

// List returns the newest peers first, optionally filtered by domain (case-insensitive).
func (r *PeerRepository) List(ctx context.Context, domain string) ([]models.Peer, error) {
	args := []interface{}{}
	where := ""
	if trimmed := strings.TrimSpace(domain); trimmed != "" {
		where = " WHERE LOWER(domain) = $1"
		args = append(args, strings.ToLower(trimmed))
	}
	query := fmt.Sprintf("SELECT %s FROM peers%s ORDER BY created_at DESC LIMIT %d", peerColumns, where, RegistryListLimit)
	var peers []models.Peer
	if err := r.db.SelectContext(ctx, &peers, query, args...); err != nil {
		return nil, fmt.Errorf("list peers: %w", err)
	}
	return peers, nil
}

// Create inserts a new peer record.
func (r *PeerRepository) Create(ctx context.Context, peer *models.Peer) error {
	if peer.ID == "" {
		peer.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if peer.CreatedAt.IsZero() {
		peer.CreatedAt = now
	}
	peer.UpdatedAt = now
	const query = `INSERT INTO peers (id, name, domain, experience, rating, charges, access_code_hash, created_at, updated_at)
        VALUES (:id, :name, :domain, :experience, :rating, :charges, :access_code_hash, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, peer); err != nil {
		return fmt.Errorf("create peer: %w", err)
	}
	return nil
}

// Update modifies an existing peer. It returns sql.ErrNoRows when the ID is unknown.
func (r *PeerRepository) Update(ctx context.Context, peer *models.Peer) error {
	peer.UpdatedAt = time.Now().UTC()
	const query = `UPDATE peers SET name = :name, domain = :domain, experience = :experience, rating = :rating, charges = :charges, access_code_hash = :access_code_hash, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, peer)
	if err != nil {
		return fmt.Errorf("update peer: %w", err)
	}
	return expectAffected(res)
}

// Delete removes a peer by ID.
func (r *PeerRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM peers WHERE id = $1", id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrReferenced
		}
		return fmt.Errorf("delete peer: %w", err)
	}
	return expectAffected(res)
}
