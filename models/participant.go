package models

import "time"

// Participant is a user registered for a tournament. RemovedAt marks a
// soft-deleted registration that is kept for historical match references.
type Participant struct {
	ID           int        `json:"id" db:"id"`
	UserID       int        `json:"user_id" db:"user_id"`
	TournamentID int        `json:"tournament_id" db:"tournament_id"`
	TeamID       *int       `json:"team_id,omitempty" db:"team_id"`
	Substitute   bool       `json:"substitute" db:"substitute"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	RemovedAt    *time.Time `json:"removed_at,omitempty" db:"removed_at"`

	User *User `json:"user,omitempty" db:"-"`
}

// IsActive reports whether the participant has not been removed.
func (p *Participant) IsActive() bool {
	return p.RemovedAt == nil
}
