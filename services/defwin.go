package services

import (
	"context"
	"fmt"

	"github.com/lanhub/partyhub/events"
	"github.com/lanhub/partyhub/models"
	"github.com/lanhub/partyhub/repositories"
)

// dropContestantFromBracket handles the bracket side of removing a contestant
// (a withdrawn participant or a dissolved team) from a tournament. For every
// unconfirmed match the contestant still appears in, its row is deleted; if
// that leaves the match with exactly one contestant, that contestant wins by
// default and advances into the next match.
//
// The caller owns the transaction and publishes the returned events only
// after its commit succeeds. Confirmed matches are left untouched.
func dropContestantFromBracket(
	ctx context.Context,
	exec repositories.SQLExecutor,
	contestantRepo repositories.ContestantRepository,
	tournamentID int,
	ref models.ContestantRef,
	initiator *int,
) ([]events.Event, error) {
	entries, err := contestantRepo.ListUnconfirmedEntriesByRef(ctx, exec, tournamentID, ref)
	if err != nil {
		return nil, fmt.Errorf("listing open matches for contestant: %w", err)
	}

	var evts []events.Event
	for _, entry := range entries {
		match := entry.Match

		if err := contestantRepo.DeleteByMatchAndRef(ctx, exec, match.ID, ref); err != nil {
			return nil, fmt.Errorf("removing contestant from match %d: %w", match.ID, err)
		}

		remaining, err := contestantRepo.ListByMatch(ctx, exec, match.ID)
		if err != nil {
			return nil, fmt.Errorf("listing remaining contestants of match %d: %w", match.ID, err)
		}
		if len(remaining) != 1 || match.NextMatchID == nil {
			continue
		}

		// Default win. Advance the sole remaining contestant, unless a row
		// for it already exists in the target (a prior walkover put it there).
		winner := remaining[0]
		existing, err := contestantRepo.FindByMatchAndRef(ctx, exec, *match.NextMatchID, winner.Ref)
		if err != nil {
			return nil, fmt.Errorf("checking advancement target of match %d: %w", match.ID, err)
		}
		if existing != nil {
			continue
		}
		if err := contestantRepo.Create(ctx, exec, &models.MatchContestant{
			MatchID: *match.NextMatchID,
			Ref:     winner.Ref,
		}); err != nil {
			return nil, fmt.Errorf("advancing default winner of match %d: %w", match.ID, err)
		}
		evts = append(evts, events.ContestantAdvanced{
			Base:        events.NewBase(tournamentID, initiator),
			FromMatchID: match.ID,
			ToMatchID:   *match.NextMatchID,
			Contestant:  winner.Ref,
		})
	}
	return evts, nil
}
