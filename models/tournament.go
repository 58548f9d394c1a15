package models

import "time"

// TournamentStatus represents tournament lifecycle states, matching the ENUM in the DB.
type TournamentStatus string

const (
	StatusDraft              TournamentStatus = "draft"
	StatusRegistrationOpen   TournamentStatus = "registration_open"
	StatusRegistrationClosed TournamentStatus = "registration_closed"
	StatusOngoing            TournamentStatus = "ongoing"
	StatusPaused             TournamentStatus = "paused"
	StatusCompleted          TournamentStatus = "completed"
	StatusCancelled          TournamentStatus = "cancelled"
)

// TournamentMode determines how matches are paired. Only single elimination
// has bracket generation logic; the other modes exist for data completeness.
type TournamentMode string

const (
	ModeSingleElimination TournamentMode = "single_elimination"
	ModeRoundRobin        TournamentMode = "round_robin"
	ModeHighscore         TournamentMode = "highscore"
)

// validStatusTransitions is the full transition table for TournamentStatus.
// Completed and cancelled are terminal: no outgoing transitions, including
// self-loops.
var validStatusTransitions = map[TournamentStatus][]TournamentStatus{
	StatusDraft:              {StatusRegistrationOpen, StatusCancelled},
	StatusRegistrationOpen:   {StatusRegistrationClosed, StatusCancelled},
	StatusRegistrationClosed: {StatusOngoing, StatusRegistrationOpen, StatusCancelled},
	StatusOngoing:            {StatusPaused, StatusCompleted, StatusCancelled},
	StatusPaused:             {StatusOngoing, StatusCancelled},
	StatusCompleted:          {},
	StatusCancelled:          {},
}

// CanTransition reports whether a tournament may move from one status to another.
func CanTransition(from, to TournamentStatus) bool {
	for _, allowed := range validStatusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsValidStatus reports whether the given value is a known tournament status.
func IsValidStatus(s TournamentStatus) bool {
	_, ok := validStatusTransitions[s]
	return ok
}

// Tournament represents a tournament held at a party.
type Tournament struct {
	ID                int              `json:"id" db:"id"`
	PartyID           int              `json:"party_id" db:"party_id"`
	Name              string           `json:"name" db:"name"`
	Game              *string          `json:"game,omitempty" db:"game"`
	Description       *string          `json:"description,omitempty" db:"description"`
	Ruleset           *string          `json:"ruleset,omitempty" db:"ruleset"`
	StartTime         *time.Time       `json:"start_time,omitempty" db:"start_time"`
	Status            TournamentStatus `json:"status" db:"status"`
	ContestantKind    *ContestantKind  `json:"contestant_kind,omitempty" db:"contestant_kind"`
	Mode              TournamentMode   `json:"mode" db:"mode"`
	MinPlayers        *int             `json:"min_players,omitempty" db:"min_players"`
	MaxPlayers        *int             `json:"max_players,omitempty" db:"max_players"`
	MinTeams          *int             `json:"min_teams,omitempty" db:"min_teams"`
	MaxTeams          *int             `json:"max_teams,omitempty" db:"max_teams"`
	MinPlayersPerTeam *int             `json:"min_players_per_team,omitempty" db:"min_players_per_team"`
	MaxPlayersPerTeam *int             `json:"max_players_per_team,omitempty" db:"max_players_per_team"`
	CreatedAt         time.Time        `json:"created_at" db:"created_at"`
	ImageKey          *string          `json:"-" db:"image_key"`
	ImageURL          *string          `json:"image_url,omitempty" db:"-"`

	// Optional related entities, loaded on demand.
	Participants []Participant `json:"participants,omitempty" db:"-"`
	Teams        []Team        `json:"teams,omitempty" db:"-"`
	Matches      []Match       `json:"matches,omitempty" db:"-"`
}

// IsTerminal reports whether the tournament can no longer change status.
func (t *Tournament) IsTerminal() bool {
	return t.Status == StatusCompleted || t.Status == StatusCancelled
}
