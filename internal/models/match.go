package models

// ScoreBreakdown holds the four weighted sub-scores, each in [0,1].
type ScoreBreakdown struct {
	DomainScore float64 `json:"domain_score"`
	BudgetScore float64 `json:"budget_score"`
	RatingScore float64 `json:"rating_score"`
	ExpScore    float64 `json:"exp_score"`
}

// ScoreResult is the compatibility of one student/peer pair.
type ScoreResult struct {
	Total     float64        `json:"total"`
	Breakdown ScoreBreakdown `json:"breakdown"`
}

// Candidate is one ranked peer for a student.
type Candidate struct {
	Peer      Peer           `json:"peer"`
	Score     float64        `json:"score"`
	Breakdown ScoreBreakdown `json:"breakdown"`
}

// MatchEdge is one scored student/peer pair inside a single bulk run.
type MatchEdge struct {
	StudentID string
	PeerID    string
	Score     float64
	Breakdown ScoreBreakdown
}

// Assignment is a committed bulk match.
type Assignment struct {
	Session   SessionDetail  `json:"session"`
	Score     float64        `json:"score"`
	Breakdown ScoreBreakdown `json:"breakdown"`
}
