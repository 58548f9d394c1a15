package services

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/lanhub/partyhub/events"
	"github.com/lanhub/partyhub/models"
	"github.com/lanhub/partyhub/repositories"
)

// MatchService covers match results: scores, confirmation, the cascade that
// undoes a confirmation, and match comments.
type MatchService struct {
	txBeginner      repositories.TxBeginner
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	teamRepo        repositories.TeamRepository
	matchRepo       repositories.MatchRepository
	contestantRepo  repositories.ContestantRepository
	commentRepo     repositories.CommentRepository
	publisher       events.Publisher
}

func NewMatchService(
	txBeginner repositories.TxBeginner,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
	contestantRepo repositories.ContestantRepository,
	commentRepo repositories.CommentRepository,
	publisher events.Publisher,
) *MatchService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &MatchService{
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

// GetMatch returns a match with its contestants loaded.
func (s *MatchService) GetMatch(ctx context.Context, matchID int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, nil, matchID)
	if err != nil {
		return nil, err
	}
	contestants, err := s.contestantRepo.ListByMatch(ctx, nil, matchID)
	if err != nil {
		return nil, err
	}
	match.Contestants = make([]models.MatchContestant, 0, len(contestants))
	for _, c := range contestants {
		match.Contestants = append(match.Contestants, *c)
	}
	return match, nil
}

// GetBracket returns the tournament with its matches, participants and teams
// loaded. The independent reads run concurrently.
func (s *MatchService) GetBracket(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		return nil, err
	}

	var (
		matches      []*models.Match
		participants []*models.Participant
		teams        []*models.Team
		memberCounts map[int]int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		matches, err = s.matchRepo.ListByTournament(gctx, nil, tournamentID)
		return err
	})
	g.Go(func() error {
		var err error
		participants, err = s.participantRepo.ListActiveByTournament(gctx, nil, tournamentID)
		return err
	})
	g.Go(func() error {
		var err error
		teams, err = s.teamRepo.ListActiveByTournament(gctx, nil, tournamentID)
		return err
	})
	g.Go(func() error {
		var err error
		memberCounts, err = s.teamRepo.ActiveMemberCounts(gctx, nil, tournamentID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tournament.Matches = make([]models.Match, 0, len(matches))
	for _, m := range matches {
		contestants, err := s.contestantRepo.ListByMatch(ctx, nil, m.ID)
		if err != nil {
			return nil, err
		}
		m.Contestants = make([]models.MatchContestant, 0, len(contestants))
		for _, c := range contestants {
			m.Contestants = append(m.Contestants, *c)
		}
		tournament.Matches = append(tournament.Matches, *m)
	}
	tournament.Participants = make([]models.Participant, 0, len(participants))
	for _, p := range participants {
		tournament.Participants = append(tournament.Participants, *p)
	}
	tournament.Teams = make([]models.Team, 0, len(teams))
	for _, t := range teams {
		team := *t
		team.MemberCount = memberCounts[t.ID]
		tournament.Teams = append(tournament.Teams, team)
	}
	return tournament, nil
}

// SetScore records a contestant's score in an unconfirmed match.
func (s *MatchService) SetScore(ctx context.Context, matchID int, ref models.ContestantRef, score int, initiator *int) error {
	if score < 0 {
		return ErrNegativeScore
	}
	if ref.IsZero() {
		return ErrInvalidContestantRef
	}

	match, err := s.matchRepo.GetByID(ctx, nil, matchID)
	if err != nil {
		return err
	}
	if match.IsConfirmed() {
		return ErrMatchAlreadyConfirmed
	}

	contestant, err := s.contestantRepo.FindByMatchAndRef(ctx, nil, matchID, ref)
	if err != nil {
		return err
	}
	if contestant == nil {
		return ErrContestantNotInMatch
	}

	if err := s.contestantRepo.UpdateScore(ctx, nil, contestant.ID, score); err != nil {
		return err
	}
	s.publisher.Publish(ctx, events.MatchScoreUpdated{
		Base:    events.NewBase(match.TournamentID, initiator),
		MatchID: matchID,
	})
	return nil
}

// ConfirmMatch fixes the result of a match and advances its winner.
//
// Confirmation and advancement are two separate transactions. Once the first
// commit lands, the result is confirmed even if advancing the winner fails;
// the advancement can still be produced by unconfirming and confirming again.
func (s *MatchService) ConfirmMatch(ctx context.Context, matchID int, confirmedBy int) error {
	winner, tournamentID, err := s.confirmTx(ctx, matchID, confirmedBy)
	if err != nil {
		return err
	}
	s.publisher.Publish(ctx, events.MatchConfirmed{
		Base:    events.NewBase(tournamentID, &confirmedBy),
		MatchID: matchID,
	})

	advanced, err := s.advanceWinnerTx(ctx, matchID, winner.Ref, confirmedBy)
	if err != nil {
		return fmt.Errorf("match %d confirmed but winner not advanced: %w", matchID, err)
	}
	if advanced != nil {
		s.publisher.Publish(ctx, *advanced)
	}
	return nil
}

func (s *MatchService) confirmTx(ctx context.Context, matchID, confirmedBy int) (*models.MatchContestant, int, error) {
	tx, err := s.txBeginner.BeginTx(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("beginning confirm transaction: %w", err)
	}
	defer tx.Rollback()

	match, err := s.matchRepo.GetByID(ctx, tx, matchID)
	if err != nil {
		return nil, 0, err
	}
	// Lock the tournament row so concurrent confirm and unconfirm calls on
	// the same bracket serialize.
	if _, err := s.tournamentRepo.GetByIDForUpdate(ctx, tx, match.TournamentID); err != nil {
		return nil, 0, err
	}
	match, err = s.matchRepo.GetByID(ctx, tx, matchID)
	if err != nil {
		return nil, 0, err
	}
	if match.IsConfirmed() {
		return nil, 0, ErrMatchAlreadyConfirmed
	}

	contestants, err := s.contestantRepo.ListByMatch(ctx, tx, matchID)
	if err != nil {
		return nil, 0, err
	}
	winner, err := determineMatchWinner(contestants)
	if err != nil {
		return nil, 0, err
	}

	if err := s.matchRepo.SetConfirmedBy(ctx, tx, matchID, &confirmedBy); err != nil {
		return nil, 0, err
	}
	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("committing confirmation: %w", err)
	}
	return winner, match.TournamentID, nil
}

func (s *MatchService) advanceWinnerTx(ctx context.Context, matchID int, winner models.ContestantRef, initiator int) (*events.ContestantAdvanced, error) {
	tx, err := s.txBeginner.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning advancement transaction: %w", err)
	}
	defer tx.Rollback()

	match, err := s.matchRepo.GetByID(ctx, tx, matchID)
	if err != nil {
		return nil, err
	}
	if _, err := s.tournamentRepo.GetByIDForUpdate(ctx, tx, match.TournamentID); err != nil {
		return nil, err
	}
	if match.NextMatchID == nil {
		return nil, tx.Commit()
	}

	existing, err := s.contestantRepo.FindByMatchAndRef(ctx, tx, *match.NextMatchID, winner)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, tx.Commit()
	}
	if err := s.contestantRepo.Create(ctx, tx, &models.MatchContestant{
		MatchID: *match.NextMatchID,
		Ref:     winner,
	}); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing advancement: %w", err)
	}
	return &events.ContestantAdvanced{
		Base:        events.NewBase(match.TournamentID, &initiator),
		FromMatchID: matchID,
		ToMatchID:   *match.NextMatchID,
		Contestant:  winner,
	}, nil
}

// UnconfirmMatch reverts a confirmed result. If the winner already advanced,
// the downstream match is unconfirmed first (recursively, all the way to the
// final if needed) and the advanced contestant row is deleted. The whole
// cascade runs in one transaction.
func (s *MatchService) UnconfirmMatch(ctx context.Context, matchID int, initiator *int) error {
	tx, err := s.txBeginner.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("beginning unconfirm transaction: %w", err)
	}
	defer tx.Rollback()

	match, err := s.matchRepo.GetByID(ctx, tx, matchID)
	if err != nil {
		return err
	}
	if _, err := s.tournamentRepo.GetByIDForUpdate(ctx, tx, match.TournamentID); err != nil {
		return err
	}
	match, err = s.matchRepo.GetByID(ctx, tx, matchID)
	if err != nil {
		return err
	}
	if !match.IsConfirmed() {
		return ErrMatchNotConfirmed
	}

	unconfirmed, err := s.unconfirmTree(ctx, tx, match)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing unconfirm cascade: %w", err)
	}

	for _, id := range unconfirmed {
		s.publisher.Publish(ctx, events.MatchUnconfirmed{
			Base:    events.NewBase(match.TournamentID, initiator),
			MatchID: id,
		})
	}
	return nil
}

// unconfirmTree clears the confirmation of a match, undoing downstream
// advancements first. Returns the IDs of every match it unconfirmed, deepest
// first.
func (s *MatchService) unconfirmTree(ctx context.Context, tx repositories.Tx, match *models.Match) ([]int, error) {
	var unconfirmed []int

	if match.NextMatchID != nil {
		advancedRow, next, err := s.findAdvancedRow(ctx, tx, match)
		if err != nil {
			return nil, err
		}
		if advancedRow != nil {
			if next.IsConfirmed() {
				downstream, err := s.unconfirmTree(ctx, tx, next)
				if err != nil {
					return nil, err
				}
				unconfirmed = append(unconfirmed, downstream...)
			}
			if err := s.contestantRepo.DeleteByMatchAndRef(ctx, tx, next.ID, advancedRow.Ref); err != nil {
				return nil, fmt.Errorf("removing advanced contestant from match %d: %w", next.ID, err)
			}
		}
	}

	if err := s.matchRepo.SetConfirmedBy(ctx, tx, match.ID, nil); err != nil {
		return nil, err
	}
	return append(unconfirmed, match.ID), nil
}

// findAdvancedRow locates the contestant row that this match's winner holds
// in the next match, if any. The winner is identified structurally, as the
// next-match contestant whose ref also appears in this match, so the cascade
// works even if scores were edited after confirmation.
func (s *MatchService) findAdvancedRow(ctx context.Context, tx repositories.Tx, match *models.Match) (*models.MatchContestant, *models.Match, error) {
	next, err := s.matchRepo.GetByID(ctx, tx, *match.NextMatchID)
	if err != nil {
		return nil, nil, err
	}
	own, err := s.contestantRepo.ListByMatch(ctx, tx, match.ID)
	if err != nil {
		return nil, nil, err
	}
	for _, c := range own {
		row, err := s.contestantRepo.FindByMatchAndRef(ctx, tx, next.ID, c.Ref)
		if err != nil {
			return nil, nil, err
		}
		if row != nil {
			return row, next, nil
		}
	}
	return nil, next, nil
}

// DeleteMatch removes a single match together with its comments and
// contestant rows.
func (s *MatchService) DeleteMatch(ctx context.Context, matchID int, initiator *int) error {
	tx, err := s.txBeginner.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("beginning delete transaction: %w", err)
	}
	defer tx.Rollback()

	match, err := s.matchRepo.GetByID(ctx, tx, matchID)
	if err != nil {
		return err
	}
	if err := s.commentRepo.DeleteByMatch(ctx, tx, matchID); err != nil {
		return err
	}
	if err := s.contestantRepo.DeleteByMatch(ctx, tx, matchID); err != nil {
		return err
	}
	if err := s.matchRepo.Delete(ctx, tx, matchID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing match deletion: %w", err)
	}

	s.publisher.Publish(ctx, events.MatchDeleted{
		Base:    events.NewBase(match.TournamentID, initiator),
		MatchID: matchID,
	})
	return nil
}

// AddComment attaches a free-text comment to a match.
func (s *MatchService) AddComment(ctx context.Context, matchID, userID int, text string) (*models.MatchComment, error) {
	if utf8.RuneCountInString(text) > models.MaxCommentLength {
		return nil, ErrCommentTooLong
	}
	if _, err := s.matchRepo.GetByID(ctx, nil, matchID); err != nil {
		return nil, err
	}
	comment := &models.MatchComment{
		MatchID:   matchID,
		CreatedBy: userID,
		Comment:   text,
	}
	if err := s.commentRepo.Create(ctx, nil, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// ListComments returns the comments of a match, oldest first.
func (s *MatchService) ListComments(ctx context.Context, matchID int) ([]*models.MatchComment, error) {
	if _, err := s.matchRepo.GetByID(ctx, nil, matchID); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByMatch(ctx, nil, matchID)
}

// UpdateComment replaces the text of an existing comment.
func (s *MatchService) UpdateComment(ctx context.Context, commentID int, text string) (*models.MatchComment, error) {
	if utf8.RuneCountInString(text) > models.MaxCommentLength {
		return nil, ErrCommentTooLong
	}
	comment, err := s.commentRepo.GetByID(ctx, nil, commentID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if err := s.commentRepo.UpdateText(ctx, nil, commentID, text, now); err != nil {
		return nil, err
	}
	comment.Comment = text
	comment.UpdatedAt = &now
	return comment, nil
}

// DeleteComment removes a comment.
func (s *MatchService) DeleteComment(ctx context.Context, commentID int) error {
	if _, err := s.commentRepo.GetByID(ctx, nil, commentID); err != nil {
		return err
	}
	return s.commentRepo.Delete(ctx, nil, commentID)
}
