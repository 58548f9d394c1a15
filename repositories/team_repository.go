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
	ErrTeamNotFound     = errors.New("team not found")
	ErrTeamNameConflict = errors.New("team name is already in use in this tournament")
	ErrTeamTagConflict  = errors.New("team tag is already in use in this tournament")
)

type TeamRepository interface {
	Create(ctx context.Context, exec SQLExecutor, team *models.Team) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error)
	// GetByIDForUpdate takes a row lock on the team. It must be called
	// inside a transaction.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error)
	FindActiveByName(ctx context.Context, exec SQLExecutor, tournamentID int, name string) (*models.Team, error)
	FindActiveByTag(ctx context.Context, exec SQLExecutor, tournamentID int, tag string) (*models.Team, error)
	ListActiveByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Team, error)
	CountActiveByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error)
	// ActiveMemberCounts returns the number of active participants per
	// active team of the tournament in a single query.
	ActiveMemberCounts(ctx context.Context, exec SQLExecutor, tournamentID int) (map[int]int, error)
	Update(ctx context.Context, exec SQLExecutor, team *models.Team) error
	UpdateCaptain(ctx context.Context, exec SQLExecutor, teamID, captainUserID int) error
	SoftRemove(ctx context.Context, exec SQLExecutor, teamID int, removedAt time.Time) error
	Delete(ctx context.Context, exec SQLExecutor, teamID int) error
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const teamColumns = `id, tournament_id, name, tag, captain_user_id, join_code_hash, created_at, removed_at, image_key`

func (r *postgresTeamRepository) Create(ctx context.Context, exec SQLExecutor, t *models.Team) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO teams (tournament_id, name, tag, captain_user_id, join_code_hash, image_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		t.TournamentID, t.Name, t.Tag, t.CaptainUserID, t.JoinCodeHash, t.ImageKey,
	).Scan(&t.ID, &t.CreatedAt)
	return r.handleTeamError(err)
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id = $1`
	return r.scanOne(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresTeamRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresTeamRepository) FindActiveByName(ctx context.Context, exec SQLExecutor, tournamentID int, name string) (*models.Team, error) {
	query := `
		SELECT ` + teamColumns + `
		FROM teams
		WHERE tournament_id = $1 AND LOWER(name) = LOWER($2) AND removed_at IS NULL`
	t, err := r.scanOne(r.getExecutor(exec).QueryRowContext(ctx, query, tournamentID, name))
	if errors.Is(err, ErrTeamNotFound) {
		return nil, nil
	}
	return t, err
}

func (r *postgresTeamRepository) FindActiveByTag(ctx context.Context, exec SQLExecutor, tournamentID int, tag string) (*models.Team, error) {
	query := `
		SELECT ` + teamColumns + `
		FROM teams
		WHERE tournament_id = $1 AND LOWER(tag) = LOWER($2) AND removed_at IS NULL`
	t, err := r.scanOne(r.getExecutor(exec).QueryRowContext(ctx, query, tournamentID, tag))
	if errors.Is(err, ErrTeamNotFound) {
		return nil, nil
	}
	return t, err
}

func (r *postgresTeamRepository) scanOne(row *sql.Row) (*models.Team, error) {
	t := &models.Team{}
	err := row.Scan(&t.ID, &t.TournamentID, &t.Name, &t.Tag, &t.CaptainUserID, &t.JoinCodeHash, &t.CreatedAt, &t.RemovedAt, &t.ImageKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTeamRepository) ListActiveByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Team, error) {
	query := `
		SELECT ` + teamColumns + `
		FROM teams
		WHERE tournament_id = $1 AND removed_at IS NULL
		ORDER BY created_at, id`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := make([]*models.Team, 0)
	for rows.Next() {
		t := &models.Team{}
		if scanErr := rows.Scan(&t.ID, &t.TournamentID, &t.Name, &t.Tag, &t.CaptainUserID, &t.JoinCodeHash, &t.CreatedAt, &t.RemovedAt, &t.ImageKey); scanErr != nil {
			return nil, scanErr
		}
		teams = append(teams, t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *postgresTeamRepository) CountActiveByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM teams WHERE tournament_id = $1 AND removed_at IS NULL`
	err := r.getExecutor(exec).QueryRowContext(ctx, query, tournamentID).Scan(&count)
	return count, err
}

func (r *postgresTeamRepository) ActiveMemberCounts(ctx context.Context, exec SQLExecutor, tournamentID int) (map[int]int, error) {
	query := `
		SELECT t.id, COUNT(p.id)
		FROM teams t
		LEFT JOIN participants p ON p.team_id = t.id AND p.removed_at IS NULL
		WHERE t.tournament_id = $1 AND t.removed_at IS NULL
		GROUP BY t.id`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var teamID, count int
		if scanErr := rows.Scan(&teamID, &count); scanErr != nil {
			return nil, scanErr
		}
		counts[teamID] = count
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *postgresTeamRepository) Update(ctx context.Context, exec SQLExecutor, t *models.Team) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE teams SET name = $1, tag = $2, join_code_hash = $3, image_key = $4
		WHERE id = $5`

	result, err := executor.ExecContext(ctx, query, t.Name, t.Tag, t.JoinCodeHash, t.ImageKey, t.ID)
	if err != nil {
		return r.handleTeamError(err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) UpdateCaptain(ctx context.Context, exec SQLExecutor, teamID, captainUserID int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `UPDATE teams SET captain_user_id = $1 WHERE id = $2`, captainUserID, teamID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) SoftRemove(ctx context.Context, exec SQLExecutor, teamID int, removedAt time.Time) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE teams SET removed_at = $1 WHERE id = $2 AND removed_at IS NULL`,
		removedAt, teamID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) Delete(ctx context.Context, exec SQLExecutor, teamID int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, teamID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM teams WHERE tournament_id = $1`, tournamentID)
	return err
}

// handleTeamError translates unique-constraint violations lost to a
// concurrent writer into the same conflict errors a pre-check produces.
func (r *postgresTeamRepository) handleTeamError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		switch pqErr.Constraint {
		case "uq_teams_active_name_ci":
			return ErrTeamNameConflict
		case "uq_teams_active_tag_ci":
			return ErrTeamTagConflict
		}
	}
	return err
}
