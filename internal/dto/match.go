package dto

import (
	"time"

	"github.com/noah-isme/peer-match-api/internal/models"
)

// MatchAction selects between ranking and creating on POST /sessions/match.
type MatchAction string

const (
	MatchActionRank   MatchAction = ""
	MatchActionCreate MatchAction = "create"
)

// MatchRequest ranks candidates for a student, or creates a session when Action is create.
type MatchRequest struct {
	Action      MatchAction `json:"action" validate:"omitempty,oneof=create"`
	StudentID   string      `json:"student_id" validate:"required"`
	PeerID      string      `json:"peer_id" validate:"required_if=Action create"`
	Topic       string      `json:"topic"`
	ScheduledAt *time.Time  `json:"scheduled_at"`
	Remarks     string      `json:"remarks"`
	Limit       int         `json:"limit" validate:"gte=0"`
}

// CreateSessionRequest creates a pending session for an explicit student/peer pair.
type CreateSessionRequest struct {
	StudentID   string     `json:"student_id" validate:"required"`
	PeerID      string     `json:"peer_id" validate:"required"`
	Topic       string     `json:"topic"`
	ScheduledAt *time.Time `json:"scheduled_at"`
	Remarks     string     `json:"remarks"`
}

// CandidatesResponse lists ranked candidates.
type CandidatesResponse struct {
	Candidates []models.Candidate `json:"candidates"`
}

// CreatedSessionResponse returns the new session with its compatibility score.
type CreatedSessionResponse struct {
	Session models.SessionDetail `json:"session"`
	Score   models.ScoreResult   `json:"score"`
}

// BulkMatchRequest optionally restricts a bulk run to the given IDs; empty means everyone.
// OnlyUnmatched further skips students and peers that already have an open session.
type BulkMatchRequest struct {
	StudentIDs    []string `json:"student_ids" validate:"omitempty,dive,uuid"`
	PeerIDs       []string `json:"peer_ids" validate:"omitempty,dive,uuid"`
	OnlyUnmatched bool     `json:"only_unmatched"`
}

// BulkMatchSummary counts the outcome of a bulk run.
type BulkMatchSummary struct {
	TotalCreated int `json:"total_created"`
	Failed       int `json:"failed"`
	Students     int `json:"students"`
	Peers        int `json:"peers"`
}

// BulkMatchResponse lists committed assignments in commit order.
type BulkMatchResponse struct {
	Created []models.Assignment `json:"created"`
	Summary BulkMatchSummary    `json:"summary"`
}
