package events

import (
	"context"
	"time"

	"github.com/lanhub/partyhub/models"
)

// Event is a typed domain event published by the tournament core after a
// successful commit. Subscribers are outside the core; the Publisher is the
// only coupling point.
type Event interface {
	EventType() string
	Tournament() int
}

// Publisher delivers events to whoever listens. Publishing must never fail
// the business operation that emitted the event.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// NopPublisher discards all events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) {}

// Base carries the fields shared by every event. Initiator is the acting
// user, nil for system-triggered events.
type Base struct {
	OccurredAt   time.Time `json:"occurred_at"`
	Initiator    *int      `json:"initiator,omitempty"`
	TournamentID int       `json:"tournament_id"`
}

func (b Base) Tournament() int { return b.TournamentID }

// NewBase stamps a base event with the current time.
func NewBase(tournamentID int, initiator *int) Base {
	return Base{OccurredAt: time.Now().UTC(), Initiator: initiator, TournamentID: tournamentID}
}

// tournament

type TournamentCreated struct{ Base }

func (TournamentCreated) EventType() string { return "tournament-created" }

type TournamentUpdated struct{ Base }

func (TournamentUpdated) EventType() string { return "tournament-updated" }

type TournamentDeleted struct{ Base }

func (TournamentDeleted) EventType() string { return "tournament-deleted" }

type TournamentStatusChanged struct {
	Base
	OldStatus models.TournamentStatus `json:"old_status"`
	NewStatus models.TournamentStatus `json:"new_status"`
}

func (TournamentStatusChanged) EventType() string { return "tournament-status-changed" }

// participant

type ParticipantJoined struct {
	Base
	ParticipantID int `json:"participant_id"`
}

func (ParticipantJoined) EventType() string { return "participant-joined" }

type ParticipantLeft struct {
	Base
	ParticipantID int `json:"participant_id"`
}

func (ParticipantLeft) EventType() string { return "participant-left" }

// team

type TeamCreated struct {
	Base
	TeamID int `json:"team_id"`
}

func (TeamCreated) EventType() string { return "team-created" }

type TeamDeleted struct {
	Base
	TeamID int `json:"team_id"`
}

func (TeamDeleted) EventType() string { return "team-deleted" }

type TeamMemberJoined struct {
	Base
	TeamID        int `json:"team_id"`
	ParticipantID int `json:"participant_id"`
}

func (TeamMemberJoined) EventType() string { return "team-member-joined" }

type TeamMemberLeft struct {
	Base
	TeamID        int `json:"team_id"`
	ParticipantID int `json:"participant_id"`
}

func (TeamMemberLeft) EventType() string { return "team-member-left" }

type CaptainTransferred struct {
	Base
	TeamID       int `json:"team_id"`
	NewCaptainID int `json:"new_captain_user_id"`
}

func (CaptainTransferred) EventType() string { return "team-captain-transferred" }

// match

type BracketGenerated struct {
	Base
	MatchCount int `json:"match_count"`
}

func (BracketGenerated) EventType() string { return "bracket-generated" }

type MatchScoreUpdated struct {
	Base
	MatchID int `json:"match_id"`
}

func (MatchScoreUpdated) EventType() string { return "match-score-updated" }

type MatchCreated struct {
	Base
	MatchID int `json:"match_id"`
}

func (MatchCreated) EventType() string { return "match-created" }

type MatchDeleted struct {
	Base
	MatchID int `json:"match_id"`
}

func (MatchDeleted) EventType() string { return "match-deleted" }

type MatchConfirmed struct {
	Base
	MatchID int `json:"match_id"`
}

func (MatchConfirmed) EventType() string { return "match-confirmed" }

type MatchUnconfirmed struct {
	Base
	MatchID int `json:"match_id"`
}

func (MatchUnconfirmed) EventType() string { return "match-unconfirmed" }

type ContestantAdvanced struct {
	Base
	FromMatchID int                  `json:"from_match_id"`
	ToMatchID   int                  `json:"to_match_id"`
	Contestant  models.ContestantRef `json:"contestant"`
}

func (ContestantAdvanced) EventType() string { return "contestant-advanced" }
