package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lanhub/partyhub/models"
)

var ErrCommentNotFound = errors.New("match comment not found")

type CommentRepository interface {
	Create(ctx context.Context, exec SQLExecutor, comment *models.MatchComment) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.MatchComment, error)
	ListByMatch(ctx context.Context, exec SQLExecutor, matchID int) ([]*models.MatchComment, error)
	UpdateText(ctx context.Context, exec SQLExecutor, commentID int, comment string, updatedAt time.Time) error
	Delete(ctx context.Context, exec SQLExecutor, commentID int) error
	DeleteByMatch(ctx context.Context, exec SQLExecutor, matchID int) error
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
}

type postgresCommentRepository struct {
	db *sql.DB
}

func NewPostgresCommentRepository(db *sql.DB) CommentRepository {
	return &postgresCommentRepository{db: db}
}

func (r *postgresCommentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const commentColumns = `id, match_id, created_by, comment, created_at, updated_at`

func (r *postgresCommentRepository) Create(ctx context.Context, exec SQLExecutor, c *models.MatchComment) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO match_comments (match_id, created_by, comment)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	return executor.QueryRowContext(ctx, query, c.MatchID, c.CreatedBy, c.Comment).
		Scan(&c.ID, &c.CreatedAt)
}

func (r *postgresCommentRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.MatchComment, error) {
	query := `SELECT ` + commentColumns + ` FROM match_comments WHERE id = $1`

	c := &models.MatchComment{}
	err := r.getExecutor(exec).QueryRowContext(ctx, query, id).
		Scan(&c.ID, &c.MatchID, &c.CreatedBy, &c.Comment, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *postgresCommentRepository) ListByMatch(ctx context.Context, exec SQLExecutor, matchID int) ([]*models.MatchComment, error) {
	query := `
		SELECT c.id, c.match_id, c.created_by, c.comment, c.created_at, c.updated_at, u.nickname
		FROM match_comments c
		LEFT JOIN users u ON u.id = c.created_by
		WHERE c.match_id = $1
		ORDER BY c.created_at, c.id`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make([]*models.MatchComment, 0)
	for rows.Next() {
		c := &models.MatchComment{}
		var nickname sql.NullString
		if scanErr := rows.Scan(&c.ID, &c.MatchID, &c.CreatedBy, &c.Comment, &c.CreatedAt, &c.UpdatedAt, &nickname); scanErr != nil {
			return nil, scanErr
		}
		c.Author = &models.User{ID: c.CreatedBy}
		if nickname.Valid {
			c.Author.Nickname = &nickname.String
		}
		comments = append(comments, c)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *postgresCommentRepository) UpdateText(ctx context.Context, exec SQLExecutor, commentID int, comment string, updatedAt time.Time) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE match_comments SET comment = $1, updated_at = $2 WHERE id = $3`,
		comment, updatedAt, commentID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrCommentNotFound)
}

func (r *postgresCommentRepository) Delete(ctx context.Context, exec SQLExecutor, commentID int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `DELETE FROM match_comments WHERE id = $1`, commentID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrCommentNotFound)
}

func (r *postgresCommentRepository) DeleteByMatch(ctx context.Context, exec SQLExecutor, matchID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM match_comments WHERE match_id = $1`, matchID)
	return err
}

func (r *postgresCommentRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	executor := r.getExecutor(exec)
	query := `
		DELETE FROM match_comments
		WHERE match_id IN (SELECT id FROM matches WHERE tournament_id = $1)`
	_, err := executor.ExecContext(ctx, query, tournamentID)
	return err
}
