package models

import "time"

// Student is a learner looking for a peer tutor.
type Student struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Subject     string    `db:"subject" json:"subject"`
	RangeBudget float64   `db:"range_budget" json:"range_budget"`
	Rating      float64   `db:"rating" json:"rating"`
	Experience  float64   `db:"experience" json:"experience"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

const (
	DefaultStudentRating     = 1.0
	DefaultStudentExperience = 1.0
)
