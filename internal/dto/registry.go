package dto

// StudentRequest creates or replaces a student.
type StudentRequest struct {
	Name        string   `json:"name" validate:"required"`
	Subject     string   `json:"subject" validate:"required"`
	RangeBudget *float64 `json:"range_budget" validate:"required,gte=0"`
	Rating      *float64 `json:"rating" validate:"omitempty,gte=0,lte=5"`
	Experience  *float64 `json:"experience" validate:"omitempty,gte=0"`
}

// PeerRequest creates or replaces a peer. AccessCode, when set, is stored hashed.
type PeerRequest struct {
	Name       string   `json:"name"`
	Domain     string   `json:"domain"`
	Experience *float64 `json:"experience" validate:"omitempty,gte=0"`
	Rating     *float64 `json:"rating" validate:"omitempty,gte=0,lte=5"`
	Charges    *float64 `json:"charges" validate:"omitempty,gte=0"`
	AccessCode *string  `json:"access_code" validate:"omitempty,min=6"`
}

// DeletedResponse confirms a hard delete.
type DeletedResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}
