package models

import "time"

// Match is a node in a single-elimination bracket. NextMatchID points at the
// match the winner advances into; it is nil only for the final. ConfirmedBy
// is nil while the result is unconfirmed.
type Match struct {
	ID           int        `json:"id" db:"id"`
	TournamentID int        `json:"tournament_id" db:"tournament_id"`
	Round        int        `json:"round" db:"round"`
	MatchOrder   int        `json:"match_order" db:"match_order"`
	NextMatchID  *int       `json:"next_match_id,omitempty" db:"next_match_id"`
	ConfirmedBy  *int       `json:"confirmed_by,omitempty" db:"confirmed_by"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`

	Contestants []MatchContestant `json:"contestants,omitempty" db:"-"`
}

// IsConfirmed reports whether the match result has been confirmed.
func (m *Match) IsConfirmed() bool {
	return m.ConfirmedBy != nil
}
