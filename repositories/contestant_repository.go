package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lanhub/partyhub/models"
)

var ErrContestantNotFound = errors.New("match contestant not found")

// ContestantEntry pairs a contestant row with the match holding it; used by
// the walkover handler to sweep a withdrawn contestant out of the bracket.
type ContestantEntry struct {
	Contestant models.MatchContestant
	Match      models.Match
}

type ContestantRepository interface {
	Create(ctx context.Context, exec SQLExecutor, contestant *models.MatchContestant) error
	ListByMatch(ctx context.Context, exec SQLExecutor, matchID int) ([]*models.MatchContestant, error)
	// FindByMatchAndRef returns the contestant row of the match holding the
	// given identity, or nil if none exists.
	FindByMatchAndRef(ctx context.Context, exec SQLExecutor, matchID int, ref models.ContestantRef) (*models.MatchContestant, error)
	// ListUnconfirmedEntriesByRef returns every contestant row for the given
	// identity across unconfirmed matches of the tournament.
	ListUnconfirmedEntriesByRef(ctx context.Context, exec SQLExecutor, tournamentID int, ref models.ContestantRef) ([]ContestantEntry, error)
	UpdateScore(ctx context.Context, exec SQLExecutor, contestantID int, score int) error
	DeleteByMatchAndRef(ctx context.Context, exec SQLExecutor, matchID int, ref models.ContestantRef) error
	DeleteByMatch(ctx context.Context, exec SQLExecutor, matchID int) error
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
}

type postgresContestantRepository struct {
	db *sql.DB
}

func NewPostgresContestantRepository(db *sql.DB) ContestantRepository {
	return &postgresContestantRepository{db: db}
}

func (r *postgresContestantRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

// refColumns maps the ContestantRef union onto the two nullable columns.
// Exactly one of team_id/participant_id is set per row; a CHECK constraint
// in the schema enforces the same invariant.
func refColumns(ref models.ContestantRef) (teamID, participantID *int, err error) {
	switch ref.Kind {
	case models.ContestantTeam:
		return &ref.ID, nil, nil
	case models.ContestantSolo:
		return nil, &ref.ID, nil
	default:
		return nil, nil, fmt.Errorf("invalid contestant reference %+v", ref)
	}
}

func refFromColumns(teamID, participantID *int) models.ContestantRef {
	if teamID != nil {
		return models.TeamRef(*teamID)
	}
	if participantID != nil {
		return models.ParticipantRef(*participantID)
	}
	return models.ContestantRef{}
}

func (r *postgresContestantRepository) Create(ctx context.Context, exec SQLExecutor, c *models.MatchContestant) error {
	teamID, participantID, err := refColumns(c.Ref)
	if err != nil {
		return err
	}

	executor := r.getExecutor(exec)
	query := `
		INSERT INTO match_contestants (match_id, team_id, participant_id, score)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	return executor.QueryRowContext(ctx, query, c.MatchID, teamID, participantID, c.Score).
		Scan(&c.ID, &c.CreatedAt)
}

const contestantColumns = `id, match_id, team_id, participant_id, score, created_at`

func (r *postgresContestantRepository) ListByMatch(ctx context.Context, exec SQLExecutor, matchID int) ([]*models.MatchContestant, error) {
	query := `
		SELECT ` + contestantColumns + `
		FROM match_contestants
		WHERE match_id = $1
		ORDER BY created_at, id`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contestants := make([]*models.MatchContestant, 0, 2)
	for rows.Next() {
		c, scanErr := scanContestant(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		contestants = append(contestants, c)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return contestants, nil
}

func scanContestant(rows *sql.Rows) (*models.MatchContestant, error) {
	c := &models.MatchContestant{}
	var teamID, participantID *int
	if err := rows.Scan(&c.ID, &c.MatchID, &teamID, &participantID, &c.Score, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Ref = refFromColumns(teamID, participantID)
	return c, nil
}

func (r *postgresContestantRepository) FindByMatchAndRef(ctx context.Context, exec SQLExecutor, matchID int, ref models.ContestantRef) (*models.MatchContestant, error) {
	teamID, participantID, err := refColumns(ref)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT ` + contestantColumns + `
		FROM match_contestants
		WHERE match_id = $1
		  AND ($2::int IS NULL OR team_id = $2)
		  AND ($3::int IS NULL OR participant_id = $3)`

	c := &models.MatchContestant{}
	var scannedTeamID, scannedParticipantID *int
	err = r.getExecutor(exec).QueryRowContext(ctx, query, matchID, teamID, participantID).
		Scan(&c.ID, &c.MatchID, &scannedTeamID, &scannedParticipantID, &c.Score, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	c.Ref = refFromColumns(scannedTeamID, scannedParticipantID)
	return c, nil
}

func (r *postgresContestantRepository) ListUnconfirmedEntriesByRef(ctx context.Context, exec SQLExecutor, tournamentID int, ref models.ContestantRef) ([]ContestantEntry, error) {
	teamID, participantID, err := refColumns(ref)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT
			c.id, c.match_id, c.team_id, c.participant_id, c.score, c.created_at,
			m.id, m.tournament_id, m.round, m.match_order, m.next_match_id, m.confirmed_by, m.created_at
		FROM match_contestants c
		JOIN matches m ON m.id = c.match_id
		WHERE m.tournament_id = $1
		  AND m.confirmed_by IS NULL
		  AND ($2::int IS NULL OR c.team_id = $2)
		  AND ($3::int IS NULL OR c.participant_id = $3)
		ORDER BY m.round, m.match_order`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID, teamID, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]ContestantEntry, 0)
	for rows.Next() {
		var entry ContestantEntry
		var cTeamID, cParticipantID *int
		if scanErr := rows.Scan(
			&entry.Contestant.ID, &entry.Contestant.MatchID, &cTeamID, &cParticipantID,
			&entry.Contestant.Score, &entry.Contestant.CreatedAt,
			&entry.Match.ID, &entry.Match.TournamentID, &entry.Match.Round, &entry.Match.MatchOrder,
			&entry.Match.NextMatchID, &entry.Match.ConfirmedBy, &entry.Match.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		entry.Contestant.Ref = refFromColumns(cTeamID, cParticipantID)
		entries = append(entries, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *postgresContestantRepository) UpdateScore(ctx context.Context, exec SQLExecutor, contestantID int, score int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `UPDATE match_contestants SET score = $1 WHERE id = $2`, score, contestantID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrContestantNotFound)
}

func (r *postgresContestantRepository) DeleteByMatchAndRef(ctx context.Context, exec SQLExecutor, matchID int, ref models.ContestantRef) error {
	teamID, participantID, err := refColumns(ref)
	if err != nil {
		return err
	}

	executor := r.getExecutor(exec)
	query := `
		DELETE FROM match_contestants
		WHERE match_id = $1
		  AND ($2::int IS NULL OR team_id = $2)
		  AND ($3::int IS NULL OR participant_id = $3)`

	result, err := executor.ExecContext(ctx, query, matchID, teamID, participantID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrContestantNotFound)
}

func (r *postgresContestantRepository) DeleteByMatch(ctx context.Context, exec SQLExecutor, matchID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM match_contestants WHERE match_id = $1`, matchID)
	return err
}

func (r *postgresContestantRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	executor := r.getExecutor(exec)
	query := `
		DELETE FROM match_contestants
		WHERE match_id IN (SELECT id FROM matches WHERE tournament_id = $1)`
	_, err := executor.ExecContext(ctx, query, tournamentID)
	return err
}
