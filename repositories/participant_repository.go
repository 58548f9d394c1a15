package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lanhub/partyhub/models"
	"github.com/lib/pq"
)

var (
	ErrParticipantNotFound = errors.New("participant registration not found")
	ErrParticipantConflict = errors.New("user is already registered for this tournament")
)

type ParticipantRepository interface {
	Create(ctx context.Context, exec SQLExecutor, participant *models.Participant) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Participant, error)
	FindByUserAndTournament(ctx context.Context, exec SQLExecutor, userID, tournamentID int) (*models.Participant, error)
	// FindRemovedByUserAndTournament returns a soft-removed registration for
	// the user, or nil when none exists.
	FindRemovedByUserAndTournament(ctx context.Context, exec SQLExecutor, userID, tournamentID int) (*models.Participant, error)
	// Reactivate clears the removal marker and resets the registration to a
	// fresh join: no team, not a substitute, joined now.
	Reactivate(ctx context.Context, exec SQLExecutor, participantID int, rejoinedAt time.Time) error
	// ListActiveByTournament returns participants whose removed_at is unset,
	// ordered by join time.
	ListActiveByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Participant, error)
	ListActiveByTeam(ctx context.Context, exec SQLExecutor, teamID int) ([]*models.Participant, error)
	CountActiveByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error)
	UpdateTeam(ctx context.Context, exec SQLExecutor, participantID int, teamID *int) error
	SoftRemove(ctx context.Context, exec SQLExecutor, participantID int, removedAt time.Time) error
	Delete(ctx context.Context, exec SQLExecutor, participantID int) error
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

func (r *postgresParticipantRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const participantColumns = `id, user_id, tournament_id, team_id, substitute, created_at, removed_at`

func (r *postgresParticipantRepository) Create(ctx context.Context, exec SQLExecutor, p *models.Participant) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO participants (user_id, tournament_id, team_id, substitute)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query, p.UserID, p.TournamentID, p.TeamID, p.Substitute).
		Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrParticipantConflict
		}
		return err
	}
	return nil
}

func (r *postgresParticipantRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE id = $1`
	return r.scanOne(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresParticipantRepository) FindByUserAndTournament(ctx context.Context, exec SQLExecutor, userID, tournamentID int) (*models.Participant, error) {
	query := `
		SELECT ` + participantColumns + `
		FROM participants
		WHERE user_id = $1 AND tournament_id = $2 AND removed_at IS NULL`
	p, err := r.scanOne(r.getExecutor(exec).QueryRowContext(ctx, query, userID, tournamentID))
	if errors.Is(err, ErrParticipantNotFound) {
		return nil, nil
	}
	return p, err
}

func (r *postgresParticipantRepository) FindRemovedByUserAndTournament(ctx context.Context, exec SQLExecutor, userID, tournamentID int) (*models.Participant, error) {
	query := `
		SELECT ` + participantColumns + `
		FROM participants
		WHERE user_id = $1 AND tournament_id = $2 AND removed_at IS NOT NULL`
	p, err := r.scanOne(r.getExecutor(exec).QueryRowContext(ctx, query, userID, tournamentID))
	if errors.Is(err, ErrParticipantNotFound) {
		return nil, nil
	}
	return p, err
}

func (r *postgresParticipantRepository) Reactivate(ctx context.Context, exec SQLExecutor, participantID int, rejoinedAt time.Time) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE participants
		SET removed_at = NULL, team_id = NULL, substitute = FALSE, created_at = $1
		WHERE id = $2 AND removed_at IS NOT NULL`,
		rejoinedAt, participantID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) scanOne(row *sql.Row) (*models.Participant, error) {
	p := &models.Participant{}
	err := row.Scan(&p.ID, &p.UserID, &p.TournamentID, &p.TeamID, &p.Substitute, &p.CreatedAt, &p.RemovedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *postgresParticipantRepository) ListActiveByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Participant, error) {
	query := `
		SELECT ` + participantColumns + `
		FROM participants
		WHERE tournament_id = $1 AND removed_at IS NULL
		ORDER BY created_at, id`
	return r.list(ctx, exec, query, tournamentID)
}

func (r *postgresParticipantRepository) ListActiveByTeam(ctx context.Context, exec SQLExecutor, teamID int) ([]*models.Participant, error) {
	query := `
		SELECT ` + participantColumns + `
		FROM participants
		WHERE team_id = $1 AND removed_at IS NULL
		ORDER BY created_at, id`
	return r.list(ctx, exec, query, teamID)
}

func (r *postgresParticipantRepository) list(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]*models.Participant, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := make([]*models.Participant, 0)
	for rows.Next() {
		p := &models.Participant{}
		if scanErr := rows.Scan(&p.ID, &p.UserID, &p.TournamentID, &p.TeamID, &p.Substitute, &p.CreatedAt, &p.RemovedAt); scanErr != nil {
			return nil, scanErr
		}
		participants = append(participants, p)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return participants, nil
}

func (r *postgresParticipantRepository) CountActiveByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM participants WHERE tournament_id = $1 AND removed_at IS NULL`
	err := r.getExecutor(exec).QueryRowContext(ctx, query, tournamentID).Scan(&count)
	return count, err
}

func (r *postgresParticipantRepository) UpdateTeam(ctx context.Context, exec SQLExecutor, participantID int, teamID *int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `UPDATE participants SET team_id = $1 WHERE id = $2`, teamID, participantID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) SoftRemove(ctx context.Context, exec SQLExecutor, participantID int, removedAt time.Time) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE participants SET removed_at = $1 WHERE id = $2 AND removed_at IS NULL`,
		removedAt, participantID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) Delete(ctx context.Context, exec SQLExecutor, participantID int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `DELETE FROM participants WHERE id = $1`, participantID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM participants WHERE tournament_id = $1`, tournamentID)
	return err
}
