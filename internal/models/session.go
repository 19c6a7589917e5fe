package models

import "time"

// SessionStatus enumerates lifecycle states of a tutoring session.
type SessionStatus string

const (
	SessionStatusPending   SessionStatus = "pending"
	SessionStatusMatched   SessionStatus = "matched"
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusCancelled SessionStatus = "cancelled"
)

// DefaultSessionTopic is used when neither the request nor the student names a topic.
const DefaultSessionTopic = "General"

// SessionStatuses lists every accepted status in lifecycle order.
var SessionStatuses = []SessionStatus{
	SessionStatusPending,
	SessionStatusMatched,
	SessionStatusActive,
	SessionStatusCompleted,
	SessionStatusCancelled,
}

// Valid reports whether the status is one of the known lifecycle states.
func (s SessionStatus) Valid() bool {
	for _, known := range SessionStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether the status ends the lifecycle.
func (s SessionStatus) Terminal() bool {
	return s == SessionStatusCompleted || s == SessionStatusCancelled
}

// OpenSessionStatuses returns the non-terminal statuses; a student or peer with a
// session in one of them is still engaged.
func OpenSessionStatuses() []string {
	open := make([]string, 0, len(SessionStatuses))
	for _, status := range SessionStatuses {
		if !status.Terminal() {
			open = append(open, string(status))
		}
	}
	return open
}

// TransitionAllowed is intentionally open: any known status may follow any other,
// including terminal -> non-terminal.
func TransitionAllowed(from, to SessionStatus) bool {
	return to.Valid()
}

// Session is the durable record of a student/peer pairing.
type Session struct {
	ID          string        `db:"id" json:"id"`
	StudentID   string        `db:"student_id" json:"student_id"`
	PeerID      string        `db:"peer_id" json:"peer_id"`
	Topic       string        `db:"topic" json:"topic"`
	ScheduledAt time.Time     `db:"scheduled_at" json:"scheduled_at"`
	Status      SessionStatus `db:"status" json:"status"`
	Remarks     string        `db:"remarks" json:"remarks"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

// SessionDetail is a session with the referenced student and peer summaries.
type SessionDetail struct {
	Session
	StudentName    string `db:"student_name" json:"student_name"`
	StudentSubject string `db:"student_subject" json:"student_subject"`
	PeerName       string `db:"peer_name" json:"peer_name"`
	PeerDomain     string `db:"peer_domain" json:"peer_domain"`
}

// SessionUpdate carries the optional fields of a session patch; nil means unchanged.
type SessionUpdate struct {
	Status      *SessionStatus
	ScheduledAt *time.Time
	Remarks     *string
	Topic       *string
	UpdatedAt   time.Time
}
