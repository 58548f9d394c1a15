package models

import "time"

// Team groups participants in a team tournament. Name and tag are unique
// case-insensitively among active (not removed) teams of the same tournament.
type Team struct {
	ID            int        `json:"id" db:"id"`
	TournamentID  int        `json:"tournament_id" db:"tournament_id"`
	Name          string     `json:"name" db:"name"`
	Tag           *string    `json:"tag,omitempty" db:"tag"`
	CaptainUserID int        `json:"captain_user_id" db:"captain_user_id"`
	JoinCodeHash  *string    `json:"-" db:"join_code_hash"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	RemovedAt     *time.Time `json:"removed_at,omitempty" db:"removed_at"`
	ImageKey      *string    `json:"-" db:"image_key"`
	ImageURL      *string    `json:"image_url,omitempty" db:"-"`

	Members []Participant `json:"members,omitempty" db:"-"`

	// MemberCount is filled on bracket reads instead of the full member
	// list.
	MemberCount int `json:"member_count,omitempty" db:"-"`
}

// IsActive reports whether the team has not been removed.
func (t *Team) IsActive() bool {
	return t.RemovedAt == nil
}

// HasJoinCode reports whether joining this team requires a code.
func (t *Team) HasJoinCode() bool {
	return t.JoinCodeHash != nil && *t.JoinCodeHash != ""
}
