package services

import (
	"errors"
	"testing"

	"github.com/lanhub/partyhub/models"
)

func intPtr(v int) *int { return &v }

func contestant(id int, score *int) *models.MatchContestant {
	return &models.MatchContestant{ID: id, Ref: models.ParticipantRef(id), Score: score}
}

func TestDetermineMatchWinnerPicksStrictlyGreatest(t *testing.T) {
	winner, err := determineMatchWinner([]*models.MatchContestant{
		contestant(1, intPtr(13)),
		contestant(2, intPtr(21)),
	})
	if err != nil {
		t.Fatal(err)
	}
	if winner.ID != 2 {
		t.Errorf("winner = %d, want 2", winner.ID)
	}
}

func TestDetermineMatchWinnerTooFewContestants(t *testing.T) {
	for _, contestants := range [][]*models.MatchContestant{
		nil,
		{contestant(1, intPtr(5))},
	} {
		if _, err := determineMatchWinner(contestants); !errors.Is(err, ErrTooFewContestants) {
			t.Errorf("got %v, want ErrTooFewContestants", err)
		}
	}
}

func TestDetermineMatchWinnerMissingScore(t *testing.T) {
	_, err := determineMatchWinner([]*models.MatchContestant{
		contestant(1, intPtr(5)),
		contestant(2, nil),
	})
	if !errors.Is(err, ErrScoresIncomplete) {
		t.Errorf("got %v, want ErrScoresIncomplete", err)
	}
}

func TestDetermineMatchWinnerTie(t *testing.T) {
	_, err := determineMatchWinner([]*models.MatchContestant{
		contestant(1, intPtr(9)),
		contestant(2, intPtr(9)),
	})
	if !errors.Is(err, ErrMatchTied) {
		t.Errorf("got %v, want ErrMatchTied", err)
	}
}

func TestDetermineMatchWinnerTopTwoTieWithMore(t *testing.T) {
	// A tie among the leaders is a tie even if a third contestant trails.
	_, err := determineMatchWinner([]*models.MatchContestant{
		contestant(1, intPtr(9)),
		contestant(2, intPtr(9)),
		contestant(3, intPtr(3)),
	})
	if !errors.Is(err, ErrMatchTied) {
		t.Errorf("got %v, want ErrMatchTied", err)
	}

	winner, err := determineMatchWinner([]*models.MatchContestant{
		contestant(1, intPtr(4)),
		contestant(2, intPtr(9)),
		contestant(3, intPtr(3)),
	})
	if err != nil {
		t.Fatal(err)
	}
	if winner.ID != 2 {
		t.Errorf("winner = %d, want 2", winner.ID)
	}
}
