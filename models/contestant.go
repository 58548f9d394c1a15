package models

import "time"

// ContestantKind discriminates between a solo participant and a team,
// both for tournaments (who competes) and for contestant references.
type ContestantKind string

const (
	ContestantSolo ContestantKind = "solo"
	ContestantTeam ContestantKind = "team"
)

// ContestantRef identifies a contestant in a match: either a participant or
// a team, never both, never neither. The zero value is invalid and treated
// as "no contestant".
type ContestantRef struct {
	Kind ContestantKind `json:"kind"`
	ID   int            `json:"id"`
}

func ParticipantRef(participantID int) ContestantRef {
	return ContestantRef{Kind: ContestantSolo, ID: participantID}
}

func TeamRef(teamID int) ContestantRef {
	return ContestantRef{Kind: ContestantTeam, ID: teamID}
}

// IsZero reports whether the reference does not point at any contestant.
func (r ContestantRef) IsZero() bool {
	return r.Kind == "" || r.ID == 0
}

// MatchContestant is one contestant row in a match, carrying its score once set.
type MatchContestant struct {
	ID        int           `json:"id" db:"id"`
	MatchID   int           `json:"match_id" db:"match_id"`
	Ref       ContestantRef `json:"ref"`
	Score     *int          `json:"score,omitempty" db:"score"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
}
