package service

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/peer-match-api/internal/models"
)

func TestComputeScoreDomainIsCaseInsensitive(t *testing.T) {
	result := ComputeScore(models.Student{Subject: "Math"}, models.Peer{Domain: "math"})
	assert.Equal(t, 1.0, result.Breakdown.DomainScore)

	result = ComputeScore(models.Student{Subject: "Math"}, models.Peer{Domain: "Mathematics"})
	assert.Equal(t, 0.0, result.Breakdown.DomainScore, "no partial credit for related subjects")

	result = ComputeScore(models.Student{Subject: " Math"}, models.Peer{Domain: "math"})
	assert.Equal(t, 0.0, result.Breakdown.DomainScore, "surrounding whitespace is not ignored")
}

func TestComputeScoreBudgetAtExactMatch(t *testing.T) {
	result := ComputeScore(models.Student{RangeBudget: 3000}, models.Peer{Charges: 3000})
	assert.Equal(t, 1.0, result.Breakdown.BudgetScore)
}

func TestComputeScoreBudgetDegenerate(t *testing.T) {
	assert.Equal(t, 0.5, ComputeScore(models.Student{}, models.Peer{}).Breakdown.BudgetScore)
	assert.Equal(t, 0.5, ComputeScore(models.Student{RangeBudget: -10}, models.Peer{Charges: 0}).Breakdown.BudgetScore)
}

func TestComputeScoreBudgetUnderDecaysWithDistance(t *testing.T) {
	atBudget := ComputeScore(models.Student{RangeBudget: 2000}, models.Peer{Charges: 2000}).Breakdown.BudgetScore
	near := ComputeScore(models.Student{RangeBudget: 2000}, models.Peer{Charges: 1800}).Breakdown.BudgetScore
	far := ComputeScore(models.Student{RangeBudget: 2000}, models.Peer{Charges: 200}).Breakdown.BudgetScore

	assert.Equal(t, 0.9, near)
	assert.Equal(t, 0.1, far)
	assert.Greater(t, atBudget, near)
	assert.Greater(t, near, far)
}

func TestComputeScoreOverBudgetPenaltyIsSteeper(t *testing.T) {
	budgets := []float64{2, 10, 500, 2000, 3000, 10000}
	for _, budget := range budgets {
		for _, fraction := range []float64{0.01, 0.1, 0.25, 0.5, 1} {
			delta := budget * fraction
			student := models.Student{RangeBudget: budget}
			under := ComputeScore(student, models.Peer{Charges: budget - delta}).Breakdown.BudgetScore
			over := ComputeScore(student, models.Peer{Charges: budget + delta}).Breakdown.BudgetScore
			assert.LessOrEqual(t, over, under, "budget=%v delta=%v", budget, delta)
		}
	}
}

func TestComputeScoreOverBudgetFloorsAtZero(t *testing.T) {
	result := ComputeScore(models.Student{RangeBudget: 2000}, models.Peer{Charges: 5000})
	assert.Equal(t, 0.0, result.Breakdown.BudgetScore)
}

func TestComputeScoreExperience(t *testing.T) {
	tests := []struct {
		name       string
		studentExp float64
		peerExp    float64
		want       float64
	}{
		{name: "relative to student", studentExp: 4, peerExp: 2, want: 0.5},
		{name: "capped at one", studentExp: 1, peerExp: 30, want: 1},
		{name: "absolute fallback", studentExp: 0, peerExp: 2.5, want: 0.5},
		{name: "negative student uses fallback", studentExp: -1, peerExp: 10, want: 1},
		{name: "negative peer clamps", studentExp: 2, peerExp: -3, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ComputeScore(models.Student{Experience: tt.studentExp}, models.Peer{Experience: tt.peerExp})
			assert.Equal(t, tt.want, result.Breakdown.ExpScore)
		})
	}
}

func TestComputeScoreRatingScale(t *testing.T) {
	assert.Equal(t, 0.8, ComputeScore(models.Student{}, models.Peer{Rating: 4}).Breakdown.RatingScore)
	assert.Equal(t, 1.0, ComputeScore(models.Student{}, models.Peer{Rating: 9}).Breakdown.RatingScore)
	assert.Equal(t, 0.0, ComputeScore(models.Student{}, models.Peer{Rating: -2}).Breakdown.RatingScore)
}

func TestComputeScoreWeightedTotal(t *testing.T) {
	student := models.Student{Subject: "Math", RangeBudget: 3000, Rating: 1, Experience: 2}
	peer := models.Peer{Domain: "math", Charges: 3000, Rating: 4, Experience: 1}

	result := ComputeScore(student, peer)

	assert.Equal(t, 0.91, result.Total)
	assert.Equal(t, models.ScoreBreakdown{DomainScore: 1, BudgetScore: 1, RatingScore: 0.8, ExpScore: 0.5}, result.Breakdown)
}

func TestComputeScoreRoundsToThreeDecimals(t *testing.T) {
	result := ComputeScore(models.Student{RangeBudget: 3}, models.Peer{Charges: 2, Rating: 1.2345})

	assert.Equal(t, 0.667, result.Breakdown.BudgetScore)
	assert.Equal(t, 0.247, result.Breakdown.RatingScore)
	assert.Equal(t, math.Round(result.Total*1000)/1000, result.Total)
}

func TestComputeScoreCoercesNonFinite(t *testing.T) {
	student := models.Student{Subject: "x", RangeBudget: math.NaN(), Experience: math.Inf(1)}
	peer := models.Peer{Domain: "x", Charges: math.Inf(-1), Rating: math.NaN(), Experience: math.NaN()}

	result := ComputeScore(student, peer)

	assert.Equal(t, 0.0, result.Breakdown.RatingScore)
	assert.Equal(t, 0.5, result.Breakdown.BudgetScore)
	assert.False(t, math.IsNaN(result.Total))
}

func TestComputeScoreAlwaysWithinUnitInterval(t *testing.T) {
	values := []float64{-5000, -1, 0, 0.5, 1, 2, 4.9, 5, 7, 100, 2999, 3000, 3001, 1e9, math.NaN(), math.Inf(1)}
	subjects := []string{"Math", "math", "Physics", ""}
	for _, budget := range values {
		for _, charges := range values {
			for _, other := range []float64{-3, 0, 2, 6, math.NaN()} {
				for _, subject := range subjects {
					student := models.Student{Subject: subject, RangeBudget: budget, Rating: other, Experience: other}
					peer := models.Peer{Domain: "Math", Charges: charges, Rating: other * 2, Experience: other}
					result := ComputeScore(student, peer)
					assertUnit(t, result.Total)
					assertUnit(t, result.Breakdown.DomainScore)
					assertUnit(t, result.Breakdown.BudgetScore)
					assertUnit(t, result.Breakdown.RatingScore)
					assertUnit(t, result.Breakdown.ExpScore)
				}
			}
		}
	}
}

func assertUnit(t *testing.T, v float64) {
	t.Helper()
	if math.IsNaN(v) || v < 0 || v > 1 {
		t.Fatalf("value %v outside [0,1]", v)
	}
}
