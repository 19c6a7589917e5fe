package service

import (
	"sort"

	"github.com/noah-isme/peer-match-api/internal/models"
)

// RankCandidates scores every peer for the student and orders them best first.
// Ties on score fall back to lower charges, then higher rating, then higher experience;
// peers equal on every key keep their input order.
func RankCandidates(student models.Student, peers []models.Peer) []models.Candidate {
	candidates := make([]models.Candidate, 0, len(peers))
	for _, peer := range peers {
		result := ComputeScore(student, peer)
		candidates = append(candidates, models.Candidate{
			Peer:      peer,
			Score:     result.Total,
			Breakdown: result.Breakdown,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidateLess(candidates[i], candidates[j])
	})
	return candidates
}

func candidateLess(a, b models.Candidate) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	ac, bc := finite(a.Peer.Charges), finite(b.Peer.Charges)
	if ac != bc {
		return ac < bc
	}
	ar, br := finite(a.Peer.Rating), finite(b.Peer.Rating)
	if ar != br {
		return ar > br
	}
	return finite(a.Peer.Experience) > finite(b.Peer.Experience)
}

// TopCandidates truncates a ranked list to at most limit entries.
func TopCandidates(ranked []models.Candidate, limit int) []models.Candidate {
	if limit <= 0 || limit >= len(ranked) {
		return ranked
	}
	return ranked[:limit]
}
