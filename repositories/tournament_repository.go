package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lanhub/partyhub/models"
	"github.com/lib/pq"
)

var (
	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrTournamentNameConflict = errors.New("tournament name conflict for this party")
	ErrTournamentInvalidParty = errors.New("invalid party reference")
)

type TournamentRepository interface {
	Create(ctx context.Context, exec SQLExecutor, tournament *models.Tournament) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	// GetByIDForUpdate takes a row lock on the tournament. It must be called
	// inside a transaction; the lock is held until that transaction ends.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	ListByParty(ctx context.Context, partyID int) ([]models.Tournament, error)
	Update(ctx context.Context, exec SQLExecutor, tournament *models.Tournament) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error
	UpdateImageKey(ctx context.Context, id int, imageKey *string) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tournamentColumns = `
	id, party_id, name, game, description, ruleset, start_time, status,
	contestant_kind, mode, min_players, max_players, min_teams, max_teams,
	min_players_per_team, max_players_per_team, created_at, image_key`

func (r *postgresTournamentRepository) Create(ctx context.Context, exec SQLExecutor, t *models.Tournament) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO tournaments (
			party_id, name, game, description, ruleset, start_time, status,
			contestant_kind, mode, min_players, max_players, min_teams, max_teams,
			min_players_per_team, max_players_per_team, image_key
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		t.PartyID, t.Name, t.Game, t.Description, t.Ruleset, t.StartTime, t.Status,
		t.ContestantKind, t.Mode, t.MinPlayers, t.MaxPlayers, t.MinTeams, t.MaxTeams,
		t.MinPlayersPerTeam, t.MaxPlayersPerTeam, t.ImageKey,
	).Scan(&t.ID, &t.CreatedAt)

	return r.handleTournamentError(err)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE id = $1`
	return r.scanOne(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresTournamentRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresTournamentRepository) scanOne(row *sql.Row) (*models.Tournament, error) {
	t := &models.Tournament{}
	err := row.Scan(
		&t.ID, &t.PartyID, &t.Name, &t.Game, &t.Description, &t.Ruleset, &t.StartTime, &t.Status,
		&t.ContestantKind, &t.Mode, &t.MinPlayers, &t.MaxPlayers, &t.MinTeams, &t.MaxTeams,
		&t.MinPlayersPerTeam, &t.MaxPlayersPerTeam, &t.CreatedAt, &t.ImageKey,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) ListByParty(ctx context.Context, partyID int) ([]models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE party_id = $1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, partyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if scanErr := rows.Scan(
			&t.ID, &t.PartyID, &t.Name, &t.Game, &t.Description, &t.Ruleset, &t.StartTime, &t.Status,
			&t.ContestantKind, &t.Mode, &t.MinPlayers, &t.MaxPlayers, &t.MinTeams, &t.MaxTeams,
			&t.MinPlayersPerTeam, &t.MaxPlayersPerTeam, &t.CreatedAt, &t.ImageKey,
		); scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) Update(ctx context.Context, exec SQLExecutor, t *models.Tournament) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE tournaments SET
			name = $1, game = $2, description = $3, ruleset = $4, start_time = $5,
			contestant_kind = $6, mode = $7, min_players = $8, max_players = $9,
			min_teams = $10, max_teams = $11, min_players_per_team = $12,
			max_players_per_team = $13
		WHERE id = $14`

	result, err := executor.ExecContext(ctx, query,
		t.Name, t.Game, t.Description, t.Ruleset, t.StartTime,
		t.ContestantKind, t.Mode, t.MinPlayers, t.MaxPlayers,
		t.MinTeams, t.MaxTeams, t.MinPlayersPerTeam, t.MaxPlayersPerTeam,
		t.ID,
	)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `UPDATE tournaments SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateImageKey(ctx context.Context, id int, imageKey *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE tournaments SET image_key = $1 WHERE id = $2`, imageKey, id)
	if err != nil {
		return fmt.Errorf("failed to update tournament image key: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `DELETE FROM tournaments WHERE id = $1`, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505":
			if pqErr.Constraint == "tournaments_party_id_name_key" {
				return ErrTournamentNameConflict
			}
		case "23503":
			if pqErr.Constraint == "tournaments_party_id_fkey" {
				return ErrTournamentInvalidParty
			}
		}
	}
	return err
}
