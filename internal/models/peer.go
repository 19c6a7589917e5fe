package models

import "time"

// Peer is a tutor offering sessions in one domain.
type Peer struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Domain         string    `db:"domain" json:"domain"`
	Experience     float64   `db:"experience" json:"experience"`
	Rating         float64   `db:"rating" json:"rating"`
	Charges        float64   `db:"charges" json:"charges"`
	AccessCodeHash *string   `db:"access_code_hash" json:"-"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

const DefaultPeerCharges = 3000.0

// HasAccessCode reports whether the peer can exchange an access code for a token.
func (p Peer) HasAccessCode() bool {
	return p.AccessCodeHash != nil && *p.AccessCodeHash != ""
}
