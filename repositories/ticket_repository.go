package repositories

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
)

// TicketRepository answers admission-ticket questions for a party. The
// tournament core only consumes it; ticket CRUD lives elsewhere in the
// application.
type TicketRepository interface {
	// HasValidTicket reports whether the user holds any valid admission
	// ticket for the party.
	HasValidTicket(ctx context.Context, partyID, userID int) (bool, error)
	// FilterTicketHolders returns the subset of the given users that
	// currently hold a valid ticket for the party.
	FilterTicketHolders(ctx context.Context, partyID int, userIDs []int) (map[int]bool, error)
}

type postgresTicketRepository struct {
	db *sql.DB
}

func NewPostgresTicketRepository(db *sql.DB) TicketRepository {
	return &postgresTicketRepository{db: db}
}

func (r *postgresTicketRepository) HasValidTicket(ctx context.Context, partyID, userID int) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM tickets
			WHERE party_id = $1 AND used_by_id = $2 AND revoked = FALSE
		)`
	err := r.db.QueryRowContext(ctx, query, partyID, userID).Scan(&exists)
	return exists, err
}

func (r *postgresTicketRepository) FilterTicketHolders(ctx context.Context, partyID int, userIDs []int) (map[int]bool, error) {
	holders := make(map[int]bool, len(userIDs))
	if len(userIDs) == 0 {
		return holders, nil
	}

	query := `
		SELECT DISTINCT used_by_id FROM tickets
		WHERE party_id = $1 AND used_by_id = ANY($2) AND revoked = FALSE`

	rows, err := r.db.QueryContext(ctx, query, partyID, pq.Array(userIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var userID int
		if scanErr := rows.Scan(&userID); scanErr != nil {
			return nil, scanErr
		}
		holders[userID] = true
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return holders, nil
}
