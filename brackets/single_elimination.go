package brackets

import (
	"errors"
	"math"

	"github.com/lanhub/partyhub/models"
)

var ErrNotEnoughContestants = errors.New("not enough contestants to generate a single elimination bracket (minimum 2)")

// PlanMatch is one match in a generated bracket plan. Matches are listed
// final-first, so NextIndex always refers to an element that appears
// earlier in the list; it is nil only for the final.
type PlanMatch struct {
	Round      int
	MatchOrder int
	NextIndex  *int
	Slots      []models.ContestantRef
}

// Plan is the full layout of a single-elimination bracket before anything
// is persisted: the match tree, the seeded round-0 placement, and the
// round-0 matches whose slot partner was a placeholder.
type Plan struct {
	BracketSize int
	Rounds      int
	Matches     []PlanMatch

	// Walkovers holds indexes into Matches of round-0 matches left with
	// exactly one contestant; that contestant advances without playing.
	Walkovers []int
}

type slotKey struct {
	round int
	order int
}

// BuildSingleEliminationPlan lays out the match tree for the given
// contestants. The contestant list is padded with placeholder slots up to
// the next power of two, and real contestants are placed into round-0
// matches following StandardSeedOrder. Round 0 is the earliest round.
func BuildSingleEliminationPlan(contestants []models.ContestantRef) (*Plan, error) {
	n := len(contestants)
	if n < 2 {
		return nil, ErrNotEnoughContestants
	}

	rounds := int(math.Ceil(math.Log2(float64(n))))
	bracketSize := 1 << uint(rounds)

	plan := &Plan{
		BracketSize: bracketSize,
		Rounds:      rounds,
		Matches:     make([]PlanMatch, 0, bracketSize-1),
	}

	// Create matches from the final round backward so each match's forward
	// pointer can name an already-created match.
	indexBySlot := make(map[slotKey]int, bracketSize-1)

	for round := rounds - 1; round >= 0; round-- {
		matchesInRound := bracketSize >> uint(round+1)
		for order := 0; order < matchesInRound; order++ {
			pm := PlanMatch{Round: round, MatchOrder: order}
			if round < rounds-1 {
				next := indexBySlot[slotKey{round + 1, order / 2}]
				pm.NextIndex = &next
			}
			indexBySlot[slotKey{round, order}] = len(plan.Matches)
			plan.Matches = append(plan.Matches, pm)
		}
	}

	// Seeded placement into round-0 slots. Seeds beyond the real contestant
	// count are placeholders and leave their slot empty.
	for pos, seed := range StandardSeedOrder(bracketSize) {
		if seed >= n {
			continue
		}
		idx := indexBySlot[slotKey{0, pos / 2}]
		plan.Matches[idx].Slots = append(plan.Matches[idx].Slots, contestants[seed])
	}

	for order := 0; order < bracketSize/2; order++ {
		idx := indexBySlot[slotKey{0, order}]
		if len(plan.Matches[idx].Slots) == 1 {
			plan.Walkovers = append(plan.Walkovers, idx)
		}
	}

	return plan, nil
}
