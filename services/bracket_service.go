package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/lanhub/partyhub/brackets"
	"github.com/lanhub/partyhub/events"
	"github.com/lanhub/partyhub/models"
	"github.com/lanhub/partyhub/repositories"
)

// BracketService generates and regenerates single-elimination brackets.
type BracketService struct {
	txBeginner      repositories.TxBeginner
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	teamRepo        repositories.TeamRepository
	matchRepo       repositories.MatchRepository
	contestantRepo  repositories.ContestantRepository
	commentRepo     repositories.CommentRepository
	publisher       events.Publisher
}

func NewBracketService(
	txBeginner repositories.TxBeginner,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
	contestantRepo repositories.ContestantRepository,
	commentRepo repositories.CommentRepository,
	publisher events.Publisher,
) *BracketService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &BracketService{
		txBeginner:      txBeginner,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		teamRepo:        teamRepo,
		matchRepo:       matchRepo,
		contestantRepo:  contestantRepo,
		commentRepo:     commentRepo,
		publisher:       publisher,
	}
}

// GenerateBracket builds the full match tree for a tournament in one
// transaction and returns the number of matches created. With force set, an
// existing bracket is torn down and rebuilt from the current contestant list;
// without it, an existing bracket is an error.
//
// Contestants are seeded in registration order: the earliest registration is
// the top seed.
func (s *BracketService) GenerateBracket(ctx context.Context, tournamentID int, force bool, initiator *int) (int, error) {
	tx, err := s.txBeginner.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning bracket transaction: %w", err)
	}
	defer tx.Rollback()

	tournament, err := s.tournamentRepo.GetByIDForUpdate(ctx, tx, tournamentID)
	if err != nil {
		return 0, err
	}
	if tournament.Mode != models.ModeSingleElimination {
		return 0, ErrUnsupportedTournamentMode
	}
	if tournament.ContestantKind == nil {
		return 0, ErrContestantKindNotSet
	}

	existing, err := s.matchRepo.CountByTournament(ctx, tx, tournamentID)
	if err != nil {
		return 0, err
	}
	if existing > 0 {
		if !force {
			return 0, ErrBracketAlreadyExists
		}
		if err := s.deleteBracketTx(ctx, tx, tournamentID); err != nil {
			return 0, err
		}
	}

	refs, err := s.collectContestants(ctx, tx, tournament)
	if err != nil {
		return 0, err
	}

	plan, err := brackets.BuildSingleEliminationPlan(refs)
	if err != nil {
		if errors.Is(err, brackets.ErrNotEnoughContestants) {
			return 0, ErrNotEnoughContestants
		}
		return 0, err
	}

	evts, err := s.persistPlan(ctx, tx, tournamentID, plan, initiator)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing bracket: %w", err)
	}

	s.publisher.Publish(ctx, events.BracketGenerated{
		Base:       events.NewBase(tournamentID, initiator),
		MatchCount: len(plan.Matches),
	})
	for _, evt := range evts {
		s.publisher.Publish(ctx, evt)
	}
	return len(plan.Matches), nil
}

// collectContestants resolves the tournament's active contestants as refs,
// in registration order.
func (s *BracketService) collectContestants(ctx context.Context, tx repositories.Tx, tournament *models.Tournament) ([]models.ContestantRef, error) {
	switch *tournament.ContestantKind {
	case models.ContestantSolo:
		participants, err := s.participantRepo.ListActiveByTournament(ctx, tx, tournament.ID)
		if err != nil {
			return nil, err
		}
		refs := make([]models.ContestantRef, 0, len(participants))
		for _, p := range participants {
			if p.Substitute {
				continue
			}
			refs = append(refs, models.ParticipantRef(p.ID))
		}
		return refs, nil
	case models.ContestantTeam:
		teams, err := s.teamRepo.ListActiveByTournament(ctx, tx, tournament.ID)
		if err != nil {
			return nil, err
		}
		refs := make([]models.ContestantRef, 0, len(teams))
		for _, t := range teams {
			refs = append(refs, models.TeamRef(t.ID))
		}
		return refs, nil
	default:
		return nil, ErrContestantKindNotSet
	}
}

// persistPlan writes the planned matches and their contestant rows. Matches
// arrive final-first, so the forward pointer of every match can be set at
// insert time. Returns the creation and walkover-advancement events to
// publish once the transaction commits.
func (s *BracketService) persistPlan(ctx context.Context, tx repositories.Tx, tournamentID int, plan *brackets.Plan, initiator *int) ([]events.Event, error) {
	created := make([]*models.Match, len(plan.Matches))
	var evts []events.Event
	for i, pm := range plan.Matches {
		match := &models.Match{
			TournamentID: tournamentID,
			Round:        pm.Round,
			MatchOrder:   pm.MatchOrder,
		}
		if pm.NextIndex != nil {
			nextID := created[*pm.NextIndex].ID
			match.NextMatchID = &nextID
		}
		if err := s.matchRepo.Create(ctx, tx, match); err != nil {
			return nil, fmt.Errorf("creating match r%d o%d: %w", pm.Round, pm.MatchOrder, err)
		}
		created[i] = match
		evts = append(evts, events.MatchCreated{
			Base:    events.NewBase(tournamentID, initiator),
			MatchID: match.ID,
		})

		for _, ref := range pm.Slots {
			if err := s.contestantRepo.Create(ctx, tx, &models.MatchContestant{
				MatchID: match.ID,
				Ref:     ref,
			}); err != nil {
				return nil, fmt.Errorf("seeding match r%d o%d: %w", pm.Round, pm.MatchOrder, err)
			}
		}
	}

	// Byes: a first-round match with a single contestant is never played;
	// its contestant moves straight into the next round.
	for _, idx := range plan.Walkovers {
		match := created[idx]
		if match.NextMatchID == nil {
			continue
		}
		ref := plan.Matches[idx].Slots[0]
		if err := s.contestantRepo.Create(ctx, tx, &models.MatchContestant{
			MatchID: *match.NextMatchID,
			Ref:     ref,
		}); err != nil {
			return nil, fmt.Errorf("advancing walkover of match %d: %w", match.ID, err)
		}
		evts = append(evts, events.ContestantAdvanced{
			Base:        events.NewBase(tournamentID, initiator),
			FromMatchID: match.ID,
			ToMatchID:   *match.NextMatchID,
			Contestant:  ref,
		})
	}
	return evts, nil
}

// deleteBracketTx removes every match of the tournament together with its
// dependents, in foreign-key order.
func (s *BracketService) deleteBracketTx(ctx context.Context, tx repositories.Tx, tournamentID int) error {
	if err := s.commentRepo.DeleteByTournament(ctx, tx, tournamentID); err != nil {
		return fmt.Errorf("deleting match comments: %w", err)
	}
	if err := s.contestantRepo.DeleteByTournament(ctx, tx, tournamentID); err != nil {
		return fmt.Errorf("deleting match contestants: %w", err)
	}
	if err := s.matchRepo.DeleteByTournament(ctx, tx, tournamentID); err != nil {
		return fmt.Errorf("deleting matches: %w", err)
	}
	return nil
}
