package services

import (
	"errors"

	"github.com/lanhub/partyhub/repositories"
)

// Errors shared across services and the HTTP error mapping. Expected
// business-rule violations are returned as these sentinels; only broken
// infrastructure (database, storage) surfaces as wrapped raw errors.
// Not-found sentinels alias the repository ones, so errors.Is matches no
// matter which layer produced the error.
var (
	// Not found
	ErrNotFound            = errors.New("requested resource not found")
	ErrTournamentNotFound  = repositories.ErrTournamentNotFound
	ErrTeamNotFound        = repositories.ErrTeamNotFound
	ErrParticipantNotFound = repositories.ErrParticipantNotFound
	ErrMatchNotFound       = repositories.ErrMatchNotFound
	ErrCommentNotFound     = repositories.ErrCommentNotFound

	// Validation
	ErrNegativeScore        = errors.New("score cannot be negative")
	ErrCommentTooLong       = errors.New("comment exceeds the maximum length")
	ErrTeamNameRequired     = errors.New("team name is required")
	ErrTournamentNameString = errors.New("tournament name is required")
	ErrInvalidContestantRef = errors.New("contestant reference must name a team or a participant")

	// Tournament state
	ErrInvalidStatusTransition   = errors.New("invalid tournament status transition")
	ErrInvalidStatus             = errors.New("invalid tournament status provided")
	ErrRegistrationNotOpen       = errors.New("tournament registration is not open")
	ErrTournamentFull            = errors.New("tournament is full")
	ErrMaxTeamsReached           = errors.New("maximum number of teams reached")
	ErrTeamFull                  = errors.New("team is full")
	ErrAlreadyParticipating      = errors.New("user is already registered for this tournament")
	ErrNoValidTicket             = errors.New("user does not hold a valid ticket for this party")
	ErrUnsupportedTournamentMode = errors.New("bracket generation is only supported for single elimination")

	// ErrUploadsDisabled is returned when no object storage is configured.
	ErrUploadsDisabled = errors.New("image uploads are not configured")

	// Bracket generation
	ErrContestantKindNotSet = errors.New("tournament contestant kind is not set")
	ErrNotEnoughContestants = errors.New("not enough contestants to generate a bracket (minimum 2)")
	ErrBracketAlreadyExists = errors.New("a bracket already exists for this tournament")

	// Match state machine
	ErrMatchAlreadyConfirmed = errors.New("match is already confirmed")
	ErrMatchNotConfirmed     = errors.New("match is not confirmed")
	ErrTooFewContestants     = errors.New("cannot determine a winner with fewer than 2 contestants")
	ErrScoresIncomplete      = errors.New("all contestants must have scores")
	ErrMatchTied             = errors.New("match is tied; correct the scores before confirming")
	ErrContestantNotInMatch  = errors.New("contestant is not part of this match")

	// Teams
	ErrNotTeamTournament      = errors.New("this tournament does not have team contestants")
	ErrAlreadyInTeam          = errors.New("participant is already a member of a team")
	ErrTeamNameConflict       = errors.New("a team with this name already exists in this tournament")
	ErrTeamTagConflict        = errors.New("a team with this tag already exists in this tournament")
	ErrCaptainNotParticipant  = errors.New("the team captain must be an active participant in this tournament")
	ErrCaptainCannotLeave     = errors.New("team captain cannot leave while the team has other members")
	ErrNotTeamMember          = errors.New("participant is not a member of this team")
	ErrJoinCodeRequired       = errors.New("a join code is required to join this team")
	ErrJoinCodeInvalid        = errors.New("invalid join code")
	ErrLeaveAfterStart        = errors.New("cannot leave after the tournament has started or completed")
	ErrNewCaptainNotMember    = errors.New("the new captain must be an active member of the team")
)
