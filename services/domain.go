package services

import (
	"sort"

	"github.com/lanhub/partyhub/models"
)

// determineMatchWinner returns the contestant with a strictly greater score
// than every other contestant of the match. Equal top scores are a tie and
// never resolved automatically; the operator must correct the scores.
func determineMatchWinner(contestants []*models.MatchContestant) (*models.MatchContestant, error) {
	if len(contestants) < 2 {
		return nil, ErrTooFewContestants
	}
	for _, c := range contestants {
		if c.Score == nil {
			return nil, ErrScoresIncomplete
		}
	}

	sorted := make([]*models.MatchContestant, len(contestants))
	copy(sorted, contestants)
	sort.SliceStable(sorted, func(i, j int) bool {
		return *sorted[i].Score > *sorted[j].Score
	})

	if *sorted[0].Score == *sorted[1].Score {
		return nil, ErrMatchTied
	}
	return sorted[0], nil
}

// validateParticipantCapacity checks the solo capacity cap, if one is set.
func validateParticipantCapacity(t *models.Tournament, currentCount int) error {
	if t.MaxPlayers != nil && currentCount >= *t.MaxPlayers {
		return ErrTournamentFull
	}
	return nil
}

// validateTeamCapacity checks the team count cap, if one is set.
func validateTeamCapacity(t *models.Tournament, currentCount int) error {
	if t.MaxTeams != nil && currentCount >= *t.MaxTeams {
		return ErrMaxTeamsReached
	}
	return nil
}

// PartyStats aggregates the tournaments held at a party.
type PartyStats struct {
	TournamentCount       int `json:"tournament_count"`
	TotalParticipantCount int `json:"total_participant_count"`
	DraftCount            int `json:"draft_count"`
	RegistrationOpenCount int `json:"registration_open_count"`
	OngoingCount          int `json:"ongoing_count"`
	CompletedCount        int `json:"completed_count"`
}

// computePartyStats folds pre-fetched tournaments and their active
// participant counts into the party aggregate.
func computePartyStats(tournaments []models.Tournament, participantCounts map[int]int) *PartyStats {
	stats := &PartyStats{TournamentCount: len(tournaments)}
	for _, n := range participantCounts {
		stats.TotalParticipantCount += n
	}
	for _, t := range tournaments {
		switch t.Status {
		case models.StatusDraft:
			stats.DraftCount++
		case models.StatusRegistrationOpen:
			stats.RegistrationOpenCount++
		case models.StatusOngoing:
			stats.OngoingCount++
		case models.StatusCompleted:
			stats.CompletedCount++
		}
	}
	return stats
}
