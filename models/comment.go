package models

import "time"

// MaxCommentLength is the maximum length of a match comment.
const MaxCommentLength = 1000

// MatchComment is a free-text note attached to a match by a user.
type MatchComment struct {
	ID        int        `json:"id" db:"id"`
	MatchID   int        `json:"match_id" db:"match_id"`
	CreatedBy int        `json:"created_by" db:"created_by"`
	Comment   string     `json:"comment" db:"comment"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" db:"updated_at"`

	// Author is filled on listing reads, not stored on the row itself.
	Author *User `json:"author,omitempty" db:"-"`
}
