package service

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/peer-match-api/internal/models"
)

// EdgeCommitter persists one accepted edge. A returned error skips that edge only.
type EdgeCommitter func(ctx context.Context, edge models.MatchEdge) error

// BulkResult summarises one greedy pass.
type BulkResult struct {
	Committed []models.MatchEdge
	Failed    int
	Edges     int
}

// BulkMatcher assigns students to peers greedily by descending edge score.
// It is a heuristic: every student and peer is used at most once per run, but the
// matching is not guaranteed to maximise total score.
type BulkMatcher struct {
	logger *zap.Logger
}

// NewBulkMatcher constructs a matcher.
func NewBulkMatcher(logger *zap.Logger) *BulkMatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BulkMatcher{logger: logger}
}

// BuildEdges scores the complete student x peer edge set in input order.
func BuildEdges(ctx context.Context, students []models.Student, peers []models.Peer) ([]models.MatchEdge, error) {
	edges := make([]models.MatchEdge, 0, len(students)*len(peers))
	for _, student := range students {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("build match edges: %w", err)
		}
		for _, peer := range peers {
			result := ComputeScore(student, peer)
			edges = append(edges, models.MatchEdge{
				StudentID: student.ID,
				PeerID:    peer.ID,
				Score:     result.Total,
				Breakdown: result.Breakdown,
			})
		}
	}
	return edges, nil
}

// SortEdges orders edges by score only; equal scores keep generation order.
func SortEdges(edges []models.MatchEdge) {
	sort.SliceStable(edges, func(i, j int) bool {
		return edges[i].Score > edges[j].Score
	})
}

// Match runs the greedy pass. Inputs must be non-empty; callers report InsufficientInput.
// When ctx ends mid-pass the partial result is returned together with the error.
func (m *BulkMatcher) Match(ctx context.Context, students []models.Student, peers []models.Peer, commit EdgeCommitter) (*BulkResult, error) {
	edges, err := BuildEdges(ctx, students, peers)
	if err != nil {
		return nil, err
	}
	SortEdges(edges)

	result := &BulkResult{Edges: len(edges)}
	matchedStudents := make(map[string]struct{}, len(students))
	matchedPeers := make(map[string]struct{}, len(peers))
	limit := len(students)
	if len(peers) < limit {
		limit = len(peers)
	}

	for _, edge := range edges {
		if len(result.Committed) == limit {
			break
		}
		if _, taken := matchedStudents[edge.StudentID]; taken {
			continue
		}
		if _, taken := matchedPeers[edge.PeerID]; taken {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("bulk match interrupted after %d assignments: %w", len(result.Committed), err)
		}
		if err := commit(ctx, edge); err != nil {
			result.Failed++
			m.logger.Warn("bulk match commit failed",
				zap.String("student_id", edge.StudentID),
				zap.String("peer_id", edge.PeerID),
				zap.Float64("score", edge.Score),
				zap.Error(err))
			continue
		}
		matchedStudents[edge.StudentID] = struct{}{}
		matchedPeers[edge.PeerID] = struct{}{}
		result.Committed = append(result.Committed, edge)
	}
	return result, nil
}
