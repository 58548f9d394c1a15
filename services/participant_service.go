package services

import (
	"context"
	"fmt"
	"time"

	"github.com/lanhub/partyhub/events"
	"github.com/lanhub/partyhub/models"
	"github.com/lanhub/partyhub/repositories"
)

// ParticipantService manages tournament registrations. Joining requires a
// valid ticket for the hosting party; removal while a bracket is running
// turns the participant's open matches into default wins for the opponents.
type ParticipantService struct {
	txBeginner      repositories.TxBeginner
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	teamRepo        repositories.TeamRepository
	matchRepo       repositories.MatchRepository
	contestantRepo  repositories.ContestantRepository
	ticketRepo      repositories.TicketRepository
	publisher       events.Publisher
}

func NewParticipantService(
	txBeginner repositories.TxBeginner,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
	contestantRepo repositories.ContestantRepository,
	ticketRepo repositories.TicketRepository,
	publisher events.Publisher,
) *ParticipantService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &ParticipantService{
		txBeginner:      txBeginner,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		teamRepo:        teamRepo,
		matchRepo:       matchRepo,
		contestantRepo:  contestantRepo,
		ticketRepo:      ticketRepo,
		publisher:       publisher,
	}
}

// JoinTournament registers a user for a tournament.
func (s *ParticipantService) JoinTournament(ctx context.Context, tournamentID, userID int) (*models.Participant, error) {
	tx, err := s.txBeginner.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning join transaction: %w", err)
	}
	defer tx.Rollback()

	tournament, err := s.tournamentRepo.GetByIDForUpdate(ctx, tx, tournamentID)
	if err != nil {
		return nil, err
	}
	if tournament.Status != models.StatusRegistrationOpen {
		return nil, ErrRegistrationNotOpen
	}

	hasTicket, err := s.ticketRepo.HasValidTicket(ctx, tournament.PartyID, userID)
	if err != nil {
		return nil, fmt.Errorf("checking ticket: %w", err)
	}
	if !hasTicket {
		return nil, ErrNoValidTicket
	}

	existing, err := s.participantRepo.FindByUserAndTournament(ctx, tx, userID, tournamentID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyParticipating
	}

	count, err := s.participantRepo.CountActiveByTournament(ctx, tx, tournamentID)
	if err != nil {
		return nil, err
	}
	if err := validateParticipantCapacity(tournament, count); err != nil {
		return nil, err
	}

	// A user who withdrew earlier keeps their row; rejoining reactivates it
	// as a fresh registration instead of creating a duplicate.
	removed, err := s.participantRepo.FindRemovedByUserAndTournament(ctx, tx, userID, tournamentID)
	if err != nil {
		return nil, err
	}

	var participant *models.Participant
	if removed != nil {
		now := time.Now().UTC()
		if err := s.participantRepo.Reactivate(ctx, tx, removed.ID, now); err != nil {
			return nil, err
		}
		removed.RemovedAt = nil
		removed.TeamID = nil
		removed.Substitute = false
		removed.CreatedAt = now
		participant = removed
	} else {
		participant = &models.Participant{
			UserID:       userID,
			TournamentID: tournamentID,
		}
		if err := s.participantRepo.Create(ctx, tx, participant); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing registration: %w", err)
	}

	s.publisher.Publish(ctx, events.ParticipantJoined{
		Base:          events.NewBase(tournamentID, &userID),
		ParticipantID: participant.ID,
	})
	return participant, nil
}

// RemoveParticipant withdraws a registration. While a bracket exists the
// registration is kept as a soft-deleted row so historical matches stay
// resolvable; otherwise it is deleted outright.
func (s *ParticipantService) RemoveParticipant(ctx context.Context, participantID int, initiator *int) error {
	tx, err := s.txBeginner.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("beginning removal transaction: %w", err)
	}
	defer tx.Rollback()

	participant, err := s.participantRepo.GetByID(ctx, tx, participantID)
	if err != nil {
		return err
	}
	if !participant.IsActive() {
		return ErrParticipantNotFound
	}
	tournament, err := s.tournamentRepo.GetByIDForUpdate(ctx, tx, participant.TournamentID)
	if err != nil {
		return err
	}
	matchCount, err := s.matchRepo.CountByTournament(ctx, tx, tournament.ID)
	if err != nil {
		return err
	}

	evts, err := s.removeParticipantTx(ctx, tx, tournament, participant, matchCount > 0, initiator)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing removal: %w", err)
	}

	for _, evt := range evts {
		s.publisher.Publish(ctx, evt)
	}
	return nil
}

// RemoveParticipantsWithoutTickets sweeps out every active participant whose
// party ticket has gone invalid since registration. The whole sweep runs in
// one transaction and returns the number of removed participants.
func (s *ParticipantService) RemoveParticipantsWithoutTickets(ctx context.Context, tournamentID int, initiator *int) (int, error) {
	tx, err := s.txBeginner.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning sweep transaction: %w", err)
	}
	defer tx.Rollback()

	tournament, err := s.tournamentRepo.GetByIDForUpdate(ctx, tx, tournamentID)
	if err != nil {
		return 0, err
	}
	participants, err := s.participantRepo.ListActiveByTournament(ctx, tx, tournamentID)
	if err != nil {
		return 0, err
	}
	if len(participants) == 0 {
		return 0, tx.Commit()
	}

	userIDs := make([]int, 0, len(participants))
	for _, p := range participants {
		userIDs = append(userIDs, p.UserID)
	}
	holders, err := s.ticketRepo.FilterTicketHolders(ctx, tournament.PartyID, userIDs)
	if err != nil {
		return 0, fmt.Errorf("checking tickets: %w", err)
	}

	matchCount, err := s.matchRepo.CountByTournament(ctx, tx, tournamentID)
	if err != nil {
		return 0, err
	}

	var evts []events.Event
	removed := 0
	for _, p := range participants {
		if holders[p.UserID] {
			continue
		}
		partEvts, err := s.removeParticipantTx(ctx, tx, tournament, p, matchCount > 0, initiator)
		if err != nil {
			return 0, err
		}
		evts = append(evts, partEvts...)
		removed++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing sweep: %w", err)
	}

	for _, evt := range evts {
		s.publisher.Publish(ctx, evt)
	}
	return removed, nil
}

// removeParticipantTx takes one participant out of a tournament inside the
// caller's transaction: open matches become default wins, the registration
// row is soft-removed (or deleted when no bracket exists yet), team
// membership is unwound, and an orphaned captaincy is handed to the oldest
// remaining member.
func (s *ParticipantService) removeParticipantTx(
	ctx context.Context,
	tx repositories.Tx,
	tournament *models.Tournament,
	participant *models.Participant,
	bracketExists bool,
	initiator *int,
) ([]events.Event, error) {
	var evts []events.Event

	soloTournament := tournament.ContestantKind != nil && *tournament.ContestantKind == models.ContestantSolo
	if bracketExists && soloTournament {
		defwinEvts, err := dropContestantFromBracket(ctx, tx, s.contestantRepo, tournament.ID, models.ParticipantRef(participant.ID), initiator)
		if err != nil {
			return nil, err
		}
		evts = append(evts, defwinEvts...)
	}

	if bracketExists {
		if err := s.participantRepo.SoftRemove(ctx, tx, participant.ID, time.Now().UTC()); err != nil {
			return nil, err
		}
	} else {
		if err := s.participantRepo.Delete(ctx, tx, participant.ID); err != nil {
			return nil, err
		}
	}
	evts = append(evts, events.ParticipantLeft{
		Base:          events.NewBase(tournament.ID, initiator),
		ParticipantID: participant.ID,
	})

	if participant.TeamID == nil {
		return evts, nil
	}
	teamID := *participant.TeamID
	evts = append(evts, events.TeamMemberLeft{
		Base:          events.NewBase(tournament.ID, initiator),
		TeamID:        teamID,
		ParticipantID: participant.ID,
	})

	team, err := s.teamRepo.GetByID(ctx, tx, teamID)
	if err != nil {
		return nil, err
	}
	members, err := s.participantRepo.ListActiveByTeam(ctx, tx, teamID)
	if err != nil {
		return nil, err
	}

	if len(members) == 0 {
		// Last member gone; the team withdraws from the tournament.
		if bracketExists {
			defwinEvts, err := dropContestantFromBracket(ctx, tx, s.contestantRepo, tournament.ID, models.TeamRef(teamID), initiator)
			if err != nil {
				return nil, err
			}
			evts = append(evts, defwinEvts...)
			if err := s.teamRepo.SoftRemove(ctx, tx, teamID, time.Now().UTC()); err != nil {
				return nil, err
			}
		} else {
			if err := s.teamRepo.Delete(ctx, tx, teamID); err != nil {
				return nil, err
			}
		}
		evts = append(evts, events.TeamDeleted{
			Base:   events.NewBase(tournament.ID, initiator),
			TeamID: teamID,
		})
		return evts, nil
	}

	if team.CaptainUserID == participant.UserID {
		// Members are ordered by registration time, earliest first.
		newCaptain := members[0]
		if err := s.teamRepo.UpdateCaptain(ctx, tx, teamID, newCaptain.UserID); err != nil {
			return nil, err
		}
		evts = append(evts, events.CaptainTransferred{
			Base:         events.NewBase(tournament.ID, initiator),
			TeamID:       teamID,
			NewCaptainID: newCaptain.UserID,
		})
	}
	return evts, nil
}
