package service

import (
	"math"
	"strings"

	"github.com/noah-isme/peer-match-api/internal/models"
)

// Score weights; domain match dominates.
const (
	weightDomain = 0.50
	weightBudget = 0.20
	weightRating = 0.20
	weightExp    = 0.10

	ratingScale           = 5.0
	experienceFallback    = 5.0
	overBudgetSlope       = 1.5
	degenerateBudgetScore = 0.5
)

// ComputeScore scores a student/peer pair. It never fails: non-finite inputs count as 0.
func ComputeScore(student models.Student, peer models.Peer) models.ScoreResult {
	budget := finite(student.RangeBudget)
	charges := finite(peer.Charges)
	peerRating := finite(peer.Rating)
	studentExp := finite(student.Experience)
	peerExp := finite(peer.Experience)

	domain := domainScore(student.Subject, peer.Domain)
	budgetS := budgetScore(budget, charges)
	rating := clamp01(peerRating / ratingScale)
	exp := experienceScore(studentExp, peerExp)

	total := domain*weightDomain + budgetS*weightBudget + rating*weightRating + exp*weightExp

	return models.ScoreResult{
		Total: round3(clamp01(total)),
		Breakdown: models.ScoreBreakdown{
			DomainScore: domain,
			BudgetScore: round3(budgetS),
			RatingScore: round3(rating),
			ExpScore:    round3(exp),
		},
	}
}

// domainScore compares case-insensitively; whitespace is significant.
func domainScore(subject, domain string) float64 {
	if strings.EqualFold(subject, domain) {
		return 1
	}
	return 0
}

// budgetScore rewards closeness to the budget and penalises overshoot 1.5x harder.
func budgetScore(budget, charges float64) float64 {
	var score float64
	switch {
	case budget <= 0 && charges <= 0:
		score = degenerateBudgetScore
	case charges <= budget:
		score = 1 - math.Abs(budget-charges)/math.Max(1, budget)
	default:
		score = 1 - ((charges-budget)/(budget+1))*overBudgetSlope
	}
	return clamp01(score)
}

func experienceScore(studentExp, peerExp float64) float64 {
	if studentExp <= 0 {
		return clamp01(peerExp / experienceFallback)
	}
	return clamp01(peerExp / studentExp)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
