package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/lanhub/partyhub/events"
	"github.com/lanhub/partyhub/models"
	"github.com/lanhub/partyhub/repositories"
	"github.com/lanhub/partyhub/storage"
	"github.com/lanhub/partyhub/utils"
)

// TeamService manages teams within team tournaments: creation, membership,
// captaincy and dissolution.
type TeamService struct {
	txBeginner      repositories.TxBeginner
	tournamentRepo  repositories.TournamentRepository
	teamRepo        repositories.TeamRepository
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	contestantRepo  repositories.ContestantRepository
	uploader        storage.FileUploader
	publisher       events.Publisher
}

func NewTeamService(
	txBeginner repositories.TxBeginner,
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	contestantRepo repositories.ContestantRepository,
	uploader storage.FileUploader,
	publisher events.Publisher,
) *TeamService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &TeamService{
		txBeginner:      txBeginner,
		tournamentRepo:  tournamentRepo,
		teamRepo:        teamRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		contestantRepo:  contestantRepo,
		uploader:        uploader,
		publisher:       publisher,
	}
}

// CreateTeamInput carries the optional attributes of a new team. A join code,
// when given, is required from everyone joining later and stored only as a
// hash.
type CreateTeamInput struct {
	Name     string
	Tag      *string
	JoinCode *string
}

// CreateTeam creates a team and makes its creator the captain. The creator
// must already be registered for the tournament and not yet on a team.
func (s *TeamService) CreateTeam(ctx context.Context, tournamentID, captainUserID int, input CreateTeamInput) (*models.Team, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrTeamNameRequired
	}

	tx, err := s.txBeginner.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning team creation: %w", err)
	}
	defer tx.Rollback()

	tournament, err := s.tournamentRepo.GetByIDForUpdate(ctx, tx, tournamentID)
	if err != nil {
		return nil, err
	}
	if tournament.ContestantKind == nil || *tournament.ContestantKind != models.ContestantTeam {
		return nil, ErrNotTeamTournament
	}
	if tournament.Status != models.StatusRegistrationOpen {
		return nil, ErrRegistrationNotOpen
	}

	captain, err := s.participantRepo.FindByUserAndTournament(ctx, tx, captainUserID, tournamentID)
	if err != nil {
		return nil, err
	}
	if captain == nil {
		return nil, ErrCaptainNotParticipant
	}
	if captain.TeamID != nil {
		return nil, ErrAlreadyInTeam
	}

	count, err := s.teamRepo.CountActiveByTournament(ctx, tx, tournamentID)
	if err != nil {
		return nil, err
	}
	if err := validateTeamCapacity(tournament, count); err != nil {
		return nil, err
	}

	if err := s.checkNameAndTagFree(ctx, tx, tournamentID, name, input.Tag, 0); err != nil {
		return nil, err
	}

	team := &models.Team{
		TournamentID:  tournamentID,
		Name:          name,
		Tag:           input.Tag,
		CaptainUserID: captainUserID,
	}
	if input.JoinCode != nil && *input.JoinCode != "" {
		hash, err := utils.HashJoinCode(*input.JoinCode)
		if err != nil {
			return nil, fmt.Errorf("hashing join code: %w", err)
		}
		team.JoinCodeHash = &hash
	}
	if err := s.teamRepo.Create(ctx, tx, team); err != nil {
		return nil, err
	}
	if err := s.participantRepo.UpdateTeam(ctx, tx, captain.ID, &team.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing team creation: %w", err)
	}

	s.publisher.Publish(ctx, events.TeamCreated{
		Base:   events.NewBase(tournamentID, &captainUserID),
		TeamID: team.ID,
	})
	s.publisher.Publish(ctx, events.TeamMemberJoined{
		Base:          events.NewBase(tournamentID, &captainUserID),
		TeamID:        team.ID,
		ParticipantID: captain.ID,
	})
	return team, nil
}

// UpdateTeamInput carries the editable attributes of a team. Nil fields are
// left unchanged; an empty JoinCode clears the code.
type UpdateTeamInput struct {
	Name     *string
	Tag      *string
	JoinCode *string
}

// UpdateTeam renames a team, changes its tag or replaces its join code.
func (s *TeamService) UpdateTeam(ctx context.Context, teamID int, input UpdateTeamInput) (*models.Team, error) {
	tx, err := s.txBeginner.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning team update: %w", err)
	}
	defer tx.Rollback()

	team, err := s.teamRepo.GetByIDForUpdate(ctx, tx, teamID)
	if err != nil {
		return nil, err
	}
	if !team.IsActive() {
		return nil, ErrTeamNotFound
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrTeamNameRequired
		}
		team.Name = name
	}
	if input.Tag != nil {
		if *input.Tag == "" {
			team.Tag = nil
		} else {
			team.Tag = input.Tag
		}
	}
	if err := s.checkNameAndTagFree(ctx, tx, team.TournamentID, team.Name, team.Tag, team.ID); err != nil {
		return nil, err
	}

	if input.JoinCode != nil {
		if *input.JoinCode == "" {
			team.JoinCodeHash = nil
		} else {
			hash, err := utils.HashJoinCode(*input.JoinCode)
			if err != nil {
				return nil, fmt.Errorf("hashing join code: %w", err)
			}
			team.JoinCodeHash = &hash
		}
	}

	if err := s.teamRepo.Update(ctx, tx, team); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing team update: %w", err)
	}
	return team, nil
}

// GetTeam returns a team with its active members loaded.
func (s *TeamService) GetTeam(ctx context.Context, teamID int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, nil, teamID)
	if err != nil {
		return nil, err
	}
	members, err := s.participantRepo.ListActiveByTeam(ctx, nil, teamID)
	if err != nil {
		return nil, err
	}
	team.Members = make([]models.Participant, 0, len(members))
	for _, m := range members {
		team.Members = append(team.Members, *m)
	}
	populateTeamImageURL(s.uploader, team)
	return team, nil
}

// JoinTeam adds a registered participant to a team. Teams with a join code
// require the correct code.
func (s *TeamService) JoinTeam(ctx context.Context, teamID, userID int, joinCode *string) error {
	tx, err := s.txBeginner.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("beginning team join: %w", err)
	}
	defer tx.Rollback()

	team, err := s.teamRepo.GetByID(ctx, tx, teamID)
	if err != nil {
		return err
	}
	tournament, err := s.tournamentRepo.GetByIDForUpdate(ctx, tx, team.TournamentID)
	if err != nil {
		return err
	}
	// Reload under the tournament lock so membership checks are stable.
	team, err = s.teamRepo.GetByIDForUpdate(ctx, tx, teamID)
	if err != nil {
		return err
	}
	if !team.IsActive() {
		return ErrTeamNotFound
	}
	if tournament.Status != models.StatusRegistrationOpen {
		return ErrRegistrationNotOpen
	}

	if team.HasJoinCode() {
		if joinCode == nil || *joinCode == "" {
			return ErrJoinCodeRequired
		}
		if !utils.CheckJoinCode(*joinCode, *team.JoinCodeHash) {
			return ErrJoinCodeInvalid
		}
	}

	participant, err := s.participantRepo.FindByUserAndTournament(ctx, tx, userID, team.TournamentID)
	if err != nil {
		return err
	}
	if participant == nil {
		return ErrParticipantNotFound
	}
	if participant.TeamID != nil {
		return ErrAlreadyInTeam
	}

	members, err := s.participantRepo.ListActiveByTeam(ctx, tx, teamID)
	if err != nil {
		return err
	}
	if tournament.MaxPlayersPerTeam != nil && len(members) >= *tournament.MaxPlayersPerTeam {
		return ErrTeamFull
	}

	if err := s.participantRepo.UpdateTeam(ctx, tx, participant.ID, &teamID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing team join: %w", err)
	}

	s.publisher.Publish(ctx, events.TeamMemberJoined{
		Base:          events.NewBase(team.TournamentID, &userID),
		TeamID:        teamID,
		ParticipantID: participant.ID,
	})
	return nil
}

// LeaveTeam removes a member from a team. The captain may only leave once
// everyone else has left; the last member leaving dissolves the team.
func (s *TeamService) LeaveTeam(ctx context.Context, teamID, userID int) error {
	tx, err := s.txBeginner.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("beginning team leave: %w", err)
	}
	defer tx.Rollback()

	team, err := s.teamRepo.GetByID(ctx, tx, teamID)
	if err != nil {
		return err
	}
	tournament, err := s.tournamentRepo.GetByIDForUpdate(ctx, tx, team.TournamentID)
	if err != nil {
		return err
	}
	team, err = s.teamRepo.GetByIDForUpdate(ctx, tx, teamID)
	if err != nil {
		return err
	}
	if !team.IsActive() {
		return ErrTeamNotFound
	}
	switch tournament.Status {
	case models.StatusOngoing, models.StatusPaused, models.StatusCompleted:
		return ErrLeaveAfterStart
	}

	participant, err := s.participantRepo.FindByUserAndTournament(ctx, tx, userID, team.TournamentID)
	if err != nil {
		return err
	}
	if participant == nil || participant.TeamID == nil || *participant.TeamID != teamID {
		return ErrNotTeamMember
	}

	members, err := s.participantRepo.ListActiveByTeam(ctx, tx, teamID)
	if err != nil {
		return err
	}
	if team.CaptainUserID == userID && len(members) > 1 {
		return ErrCaptainCannotLeave
	}

	if err := s.participantRepo.UpdateTeam(ctx, tx, participant.ID, nil); err != nil {
		return err
	}

	teamDissolved := len(members) == 1
	var defwinEvts []events.Event
	if teamDissolved {
		matchCount, err := s.matchRepo.CountByTournament(ctx, tx, tournament.ID)
		if err != nil {
			return err
		}
		if matchCount > 0 {
			// A bracket references the team; its open matches become
			// default wins and the row is kept for match history.
			defwinEvts, err = dropContestantFromBracket(ctx, tx, s.contestantRepo, tournament.ID, models.TeamRef(teamID), &userID)
			if err != nil {
				return err
			}
			if err := s.teamRepo.SoftRemove(ctx, tx, teamID, time.Now().UTC()); err != nil {
				return err
			}
		} else {
			if err := s.teamRepo.Delete(ctx, tx, teamID); err != nil {
				return err
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing team leave: %w", err)
	}

	s.publisher.Publish(ctx, events.TeamMemberLeft{
		Base:          events.NewBase(team.TournamentID, &userID),
		TeamID:        teamID,
		ParticipantID: participant.ID,
	})
	for _, evt := range defwinEvts {
		s.publisher.Publish(ctx, evt)
	}
	if teamDissolved {
		s.publisher.Publish(ctx, events.TeamDeleted{
			Base:   events.NewBase(team.TournamentID, &userID),
			TeamID: teamID,
		})
	}
	return nil
}

// TransferCaptain hands team captaincy to another active member.
func (s *TeamService) TransferCaptain(ctx context.Context, teamID, newCaptainUserID int, initiator *int) error {
	tx, err := s.txBeginner.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("beginning captain transfer: %w", err)
	}
	defer tx.Rollback()

	team, err := s.teamRepo.GetByIDForUpdate(ctx, tx, teamID)
	if err != nil {
		return err
	}
	if !team.IsActive() {
		return ErrTeamNotFound
	}

	participant, err := s.participantRepo.FindByUserAndTournament(ctx, tx, newCaptainUserID, team.TournamentID)
	if err != nil {
		return err
	}
	if participant == nil || participant.TeamID == nil || *participant.TeamID != teamID {
		return ErrNewCaptainNotMember
	}

	if err := s.teamRepo.UpdateCaptain(ctx, tx, teamID, newCaptainUserID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing captain transfer: %w", err)
	}

	s.publisher.Publish(ctx, events.CaptainTransferred{
		Base:         events.NewBase(team.TournamentID, initiator),
		TeamID:       teamID,
		NewCaptainID: newCaptainUserID,
	})
	return nil
}

// RemoveTeam withdraws a whole team from its tournament. Members are
// detached but keep their registrations. While a bracket exists the team's
// open matches become default wins for its opponents and the team row is
// soft-removed; otherwise it is deleted.
func (s *TeamService) RemoveTeam(ctx context.Context, teamID int, initiator *int) error {
	tx, err := s.txBeginner.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("beginning team removal: %w", err)
	}
	defer tx.Rollback()

	team, err := s.teamRepo.GetByID(ctx, tx, teamID)
	if err != nil {
		return err
	}
	tournament, err := s.tournamentRepo.GetByIDForUpdate(ctx, tx, team.TournamentID)
	if err != nil {
		return err
	}
	team, err = s.teamRepo.GetByIDForUpdate(ctx, tx, teamID)
	if err != nil {
		return err
	}
	if !team.IsActive() {
		return ErrTeamNotFound
	}

	members, err := s.participantRepo.ListActiveByTeam(ctx, tx, teamID)
	if err != nil {
		return err
	}
	for _, m := range members {
		if err := s.participantRepo.UpdateTeam(ctx, tx, m.ID, nil); err != nil {
			return err
		}
	}

	matchCount, err := s.matchRepo.CountByTournament(ctx, tx, tournament.ID)
	if err != nil {
		return err
	}

	var evts []events.Event
	if matchCount > 0 {
		defwinEvts, err := dropContestantFromBracket(ctx, tx, s.contestantRepo, tournament.ID, models.TeamRef(teamID), initiator)
		if err != nil {
			return err
		}
		evts = defwinEvts
		if err := s.teamRepo.SoftRemove(ctx, tx, teamID, time.Now().UTC()); err != nil {
			return err
		}
	} else {
		if err := s.teamRepo.Delete(ctx, tx, teamID); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing team removal: %w", err)
	}

	for _, evt := range evts {
		s.publisher.Publish(ctx, evt)
	}
	s.publisher.Publish(ctx, events.TeamDeleted{
		Base:   events.NewBase(team.TournamentID, initiator),
		TeamID: teamID,
	})
	return nil
}

// UploadImage stores a team image and records its storage key.
func (s *TeamService) UploadImage(ctx context.Context, teamID int, contentType string, file io.Reader) (string, error) {
	if s.uploader == nil {
		return "", ErrUploadsDisabled
	}
	team, err := s.teamRepo.GetByID(ctx, nil, teamID)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("teams/%d/logo.%s", teamID, GetExtensionFromContentType(contentType))
	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return "", fmt.Errorf("uploading team image: %w", err)
	}
	team.ImageKey = &result.Key
	if err := s.teamRepo.Update(ctx, nil, team); err != nil {
		return "", err
	}
	return s.uploader.GetPublicURL(result.Key), nil
}

// checkNameAndTagFree enforces case-insensitive uniqueness of team names and
// tags among active teams of a tournament. excludeTeamID skips the team
// itself during updates.
func (s *TeamService) checkNameAndTagFree(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, name string, tag *string, excludeTeamID int) error {
	byName, err := s.teamRepo.FindActiveByName(ctx, exec, tournamentID, name)
	if err != nil {
		return err
	}
	if byName != nil && byName.ID != excludeTeamID {
		return ErrTeamNameConflict
	}
	if tag != nil && *tag != "" {
		byTag, err := s.teamRepo.FindActiveByTag(ctx, exec, tournamentID, *tag)
		if err != nil {
			return err
		}
		if byTag != nil && byTag.ID != excludeTeamID {
			return ErrTeamTagConflict
		}
	}
	return nil
}
