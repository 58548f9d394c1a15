package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/lanhub/partyhub/events"
	"github.com/lanhub/partyhub/models"
	"github.com/lanhub/partyhub/repositories"
	"github.com/lanhub/partyhub/storage"
)

// TournamentService manages the tournament lifecycle itself; brackets,
// registrations and teams have their own services.
type TournamentService struct {
	txBeginner      repositories.TxBeginner
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	teamRepo        repositories.TeamRepository
	matchRepo       repositories.MatchRepository
	contestantRepo  repositories.ContestantRepository
	commentRepo     repositories.CommentRepository
	uploader        storage.FileUploader
	publisher       events.Publisher
}

func NewTournamentService(
	txBeginner repositories.TxBeginner,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
	contestantRepo repositories.ContestantRepository,
	commentRepo repositories.CommentRepository,
	uploader storage.FileUploader,
	publisher events.Publisher,
) *TournamentService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &TournamentService{
		txBeginner:      txBeginner,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		teamRepo:        teamRepo,
		matchRepo:       matchRepo,
		contestantRepo:  contestantRepo,
		commentRepo:     commentRepo,
		uploader:        uploader,
		publisher:       publisher,
	}
}

// Create stores a new tournament. New tournaments always start as drafts.
func (s *TournamentService) Create(ctx context.Context, tournament *models.Tournament, initiator *int) error {
	tournament.Name = strings.TrimSpace(tournament.Name)
	if tournament.Name == "" {
		return ErrTournamentNameString
	}
	tournament.Status = models.StatusDraft
	if tournament.Mode == "" {
		tournament.Mode = models.ModeSingleElimination
	}

	if err := s.tournamentRepo.Create(ctx, nil, tournament); err != nil {
		return err
	}
	s.publisher.Publish(ctx, events.TournamentCreated{
		Base: events.NewBase(tournament.ID, initiator),
	})
	return nil
}

// GetByID returns a tournament by ID.
func (s *TournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	populateTournamentImageURL(s.uploader, tournament)
	return tournament, nil
}

// ListByParty returns the tournaments held at a party.
func (s *TournamentService) ListByParty(ctx context.Context, partyID int) ([]models.Tournament, error) {
	tournaments, err := s.tournamentRepo.ListByParty(ctx, partyID)
	if err != nil {
		return nil, err
	}
	for i := range tournaments {
		populateTournamentImageURL(s.uploader, &tournaments[i])
	}
	return tournaments, nil
}

// Update saves changed tournament attributes. Status is not touched here;
// use ChangeStatus for lifecycle moves.
func (s *TournamentService) Update(ctx context.Context, tournament *models.Tournament, initiator *int) error {
	tournament.Name = strings.TrimSpace(tournament.Name)
	if tournament.Name == "" {
		return ErrTournamentNameString
	}

	tx, err := s.txBeginner.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("beginning tournament update: %w", err)
	}
	defer tx.Rollback()

	current, err := s.tournamentRepo.GetByIDForUpdate(ctx, tx, tournament.ID)
	if err != nil {
		return err
	}
	tournament.Status = current.Status
	if err := s.tournamentRepo.Update(ctx, tx, tournament); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing tournament update: %w", err)
	}

	s.publisher.Publish(ctx, events.TournamentUpdated{
		Base: events.NewBase(tournament.ID, initiator),
	})
	return nil
}

// ChangeStatus moves a tournament along its lifecycle. Only the transitions
// of the status table are allowed; completed and cancelled are final.
func (s *TournamentService) ChangeStatus(ctx context.Context, id int, newStatus models.TournamentStatus, initiator *int) error {
	if !models.IsValidStatus(newStatus) {
		return ErrInvalidStatus
	}

	tx, err := s.txBeginner.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("beginning status change: %w", err)
	}
	defer tx.Rollback()

	tournament, err := s.tournamentRepo.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return err
	}
	if !models.CanTransition(tournament.Status, newStatus) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidStatusTransition, tournament.Status, newStatus)
	}
	if err := s.tournamentRepo.UpdateStatus(ctx, tx, id, newStatus); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing status change: %w", err)
	}

	s.publisher.Publish(ctx, events.TournamentStatusChanged{
		Base:      events.NewBase(id, initiator),
		OldStatus: tournament.Status,
		NewStatus: newStatus,
	})
	return nil
}

// Delete removes a tournament and everything hanging off it, in foreign-key
// order.
func (s *TournamentService) Delete(ctx context.Context, id int, initiator *int) error {
	tx, err := s.txBeginner.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("beginning tournament deletion: %w", err)
	}
	defer tx.Rollback()

	tournament, err := s.tournamentRepo.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return err
	}

	if err := s.commentRepo.DeleteByTournament(ctx, tx, id); err != nil {
		return err
	}
	if err := s.contestantRepo.DeleteByTournament(ctx, tx, id); err != nil {
		return err
	}
	if err := s.matchRepo.DeleteByTournament(ctx, tx, id); err != nil {
		return err
	}
	if err := s.participantRepo.DeleteByTournament(ctx, tx, id); err != nil {
		return err
	}
	if err := s.teamRepo.DeleteByTournament(ctx, tx, id); err != nil {
		return err
	}
	if err := s.tournamentRepo.Delete(ctx, tx, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing tournament deletion: %w", err)
	}

	if tournament.ImageKey != nil && s.uploader != nil {
		// Best effort; a leaked object in storage is not worth failing the
		// deletion for.
		_ = s.uploader.Delete(ctx, *tournament.ImageKey)
	}
	s.publisher.Publish(ctx, events.TournamentDeleted{
		Base: events.NewBase(id, initiator),
	})
	return nil
}

// GetPartyStats returns aggregate tournament statistics for a party.
func (s *TournamentService) GetPartyStats(ctx context.Context, partyID int) (*PartyStats, error) {
	tournaments, err := s.tournamentRepo.ListByParty(ctx, partyID)
	if err != nil {
		return nil, err
	}
	counts := make(map[int]int, len(tournaments))
	for _, t := range tournaments {
		n, err := s.participantRepo.CountActiveByTournament(ctx, nil, t.ID)
		if err != nil {
			return nil, err
		}
		counts[t.ID] = n
	}
	return computePartyStats(tournaments, counts), nil
}

// UploadImage stores a tournament image and records its storage key.
func (s *TournamentService) UploadImage(ctx context.Context, id int, contentType string, file io.Reader) (string, error) {
	if s.uploader == nil {
		return "", ErrUploadsDisabled
	}
	if _, err := s.tournamentRepo.GetByID(ctx, nil, id); err != nil {
		return "", err
	}
	key := fmt.Sprintf("tournaments/%d/image.%s", id, GetExtensionFromContentType(contentType))
	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return "", fmt.Errorf("uploading tournament image: %w", err)
	}
	if err := s.tournamentRepo.UpdateImageKey(ctx, id, &result.Key); err != nil {
		return "", err
	}
	return s.uploader.GetPublicURL(result.Key), nil
}
