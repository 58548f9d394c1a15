package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lanhub/partyhub/events"
	"github.com/lanhub/partyhub/models"
)

// playableBracket generates a 4-contestant solo bracket and returns the
// tournament plus the matches keyed by (round, order).
func playableBracket(t *testing.T, env *testEnv) (*models.Tournament, map[[2]int]*models.Match, []*models.Participant) {
	t.Helper()
	tr := env.addTournament(1, models.ContestantSolo, models.StatusRegistrationClosed)
	participants := make([]*models.Participant, 0, 4)
	for i := 1; i <= 4; i++ {
		participants = append(participants, env.addParticipant(tr.ID, i))
	}
	if _, err := env.brackets.GenerateBracket(context.Background(), tr.ID, false, nil); err != nil {
		t.Fatal(err)
	}
	env.publisher.reset()
	return tr, env.matchesByPosition(tr.ID), participants
}

func (e *testEnv) score(t *testing.T, matchID int, ref models.ContestantRef, score int) {
	t.Helper()
	if err := e.matchSvc.SetScore(context.Background(), matchID, ref, score, nil); err != nil {
		t.Fatal(err)
	}
}

func TestSetScoreValidation(t *testing.T) {
	env := newTestEnv()
	_, byPos, participants := playableBracket(t, env)
	m := byPos[[2]int{0, 0}]
	inMatch := models.ParticipantRef(participants[0].ID)

	if err := env.matchSvc.SetScore(context.Background(), m.ID, inMatch, -1, nil); !errors.Is(err, ErrNegativeScore) {
		t.Errorf("negative score: got %v", err)
	}
	outsider := models.ParticipantRef(participants[1].ID)
	if err := env.matchSvc.SetScore(context.Background(), m.ID, outsider, 5, nil); !errors.Is(err, ErrContestantNotInMatch) {
		t.Errorf("outsider: got %v", err)
	}
	if err := env.matchSvc.SetScore(context.Background(), m.ID, inMatch, 5, nil); err != nil {
		t.Fatal(err)
	}

	row, _ := env.conts.FindByMatchAndRef(context.Background(), nil, m.ID, inMatch)
	if row.Score == nil || *row.Score != 5 {
		t.Errorf("score not stored: %+v", row)
	}
}

func TestConfirmMatchAdvancesWinner(t *testing.T) {
	env := newTestEnv()
	_, byPos, participants := playableBracket(t, env)
	semi := byPos[[2]int{0, 0}]
	final := byPos[[2]int{1, 0}]
	p1 := models.ParticipantRef(participants[0].ID)
	p4 := models.ParticipantRef(participants[3].ID)

	env.score(t, semi.ID, p1, 16)
	env.score(t, semi.ID, p4, 9)
	env.publisher.reset()

	commitsBefore := env.beginner.commits
	if err := env.matchSvc.ConfirmMatch(context.Background(), semi.ID, 42); err != nil {
		t.Fatal(err)
	}
	// Confirmation and advancement commit separately.
	if got := env.beginner.commits - commitsBefore; got != 2 {
		t.Errorf("confirm ran %d commits, want 2", got)
	}

	stored := env.store.matches[semi.ID]
	if stored.ConfirmedBy == nil || *stored.ConfirmedBy != 42 {
		t.Errorf("confirmed_by = %v, want 42", stored.ConfirmedBy)
	}
	refs := env.contestantRefs(final.ID)
	if len(refs) != 1 || refs[0] != p1 {
		t.Errorf("final contestants = %v, want [%v]", refs, p1)
	}
	if got := env.publisher.types(); len(got) != 2 || got[0] != "match-confirmed" || got[1] != "contestant-advanced" {
		t.Errorf("events = %v", got)
	}

	// Re-confirming is rejected.
	if err := env.matchSvc.ConfirmMatch(context.Background(), semi.ID, 42); !errors.Is(err, ErrMatchAlreadyConfirmed) {
		t.Errorf("re-confirm: got %v", err)
	}
}

func TestConfirmMatchRejectsBadStates(t *testing.T) {
	env := newTestEnv()
	_, byPos, participants := playableBracket(t, env)
	semi := byPos[[2]int{0, 0}]
	p1 := models.ParticipantRef(participants[0].ID)
	p4 := models.ParticipantRef(participants[3].ID)

	if err := env.matchSvc.ConfirmMatch(context.Background(), semi.ID, 1); !errors.Is(err, ErrScoresIncomplete) {
		t.Errorf("no scores: got %v", err)
	}

	env.score(t, semi.ID, p1, 7)
	if err := env.matchSvc.ConfirmMatch(context.Background(), semi.ID, 1); !errors.Is(err, ErrScoresIncomplete) {
		t.Errorf("one score: got %v", err)
	}

	env.score(t, semi.ID, p4, 7)
	if err := env.matchSvc.ConfirmMatch(context.Background(), semi.ID, 1); !errors.Is(err, ErrMatchTied) {
		t.Errorf("tie: got %v", err)
	}
}

func TestConfirmFinalHasNoAdvancement(t *testing.T) {
	env := newTestEnv()
	_, byPos, participants := playableBracket(t, env)
	semi0 := byPos[[2]int{0, 0}]
	semi1 := byPos[[2]int{0, 1}]
	final := byPos[[2]int{1, 0}]

	p1 := models.ParticipantRef(participants[0].ID)
	p2 := models.ParticipantRef(participants[1].ID)
	p3 := models.ParticipantRef(participants[2].ID)
	p4 := models.ParticipantRef(participants[3].ID)

	env.score(t, semi0.ID, p1, 10)
	env.score(t, semi0.ID, p4, 2)
	env.score(t, semi1.ID, p2, 3)
	env.score(t, semi1.ID, p3, 8)
	if err := env.matchSvc.ConfirmMatch(context.Background(), semi0.ID, 1); err != nil {
		t.Fatal(err)
	}
	if err := env.matchSvc.ConfirmMatch(context.Background(), semi1.ID, 1); err != nil {
		t.Fatal(err)
	}

	env.score(t, final.ID, p1, 5)
	env.score(t, final.ID, p3, 11)
	env.publisher.reset()
	if err := env.matchSvc.ConfirmMatch(context.Background(), final.ID, 1); err != nil {
		t.Fatal(err)
	}
	if env.publisher.countOf("contestant-advanced") != 0 {
		t.Error("final confirmation advanced a contestant")
	}
}

func TestUnconfirmMatchSimple(t *testing.T) {
	env := newTestEnv()
	_, byPos, participants := playableBracket(t, env)
	semi := byPos[[2]int{0, 0}]
	final := byPos[[2]int{1, 0}]
	p1 := models.ParticipantRef(participants[0].ID)
	p4 := models.ParticipantRef(participants[3].ID)

	env.score(t, semi.ID, p1, 16)
	env.score(t, semi.ID, p4, 9)
	if err := env.matchSvc.ConfirmMatch(context.Background(), semi.ID, 1); err != nil {
		t.Fatal(err)
	}

	if err := env.matchSvc.UnconfirmMatch(context.Background(), semi.ID, nil); err != nil {
		t.Fatal(err)
	}
	if env.store.matches[semi.ID].ConfirmedBy != nil {
		t.Error("match still confirmed")
	}
	if refs := env.contestantRefs(final.ID); len(refs) != 0 {
		t.Errorf("advanced contestant not removed from final: %v", refs)
	}

	// Unconfirming an unconfirmed match fails.
	if err := env.matchSvc.UnconfirmMatch(context.Background(), semi.ID, nil); !errors.Is(err, ErrMatchNotConfirmed) {
		t.Errorf("double unconfirm: got %v", err)
	}
}

func TestUnconfirmCascadesDownstream(t *testing.T) {
	env := newTestEnv()
	_, byPos, participants := playableBracket(t, env)
	semi0 := byPos[[2]int{0, 0}]
	semi1 := byPos[[2]int{0, 1}]
	final := byPos[[2]int{1, 0}]

	p1 := models.ParticipantRef(participants[0].ID)
	p2 := models.ParticipantRef(participants[1].ID)
	p3 := models.ParticipantRef(participants[2].ID)
	p4 := models.ParticipantRef(participants[3].ID)

	env.score(t, semi0.ID, p1, 10)
	env.score(t, semi0.ID, p4, 2)
	env.score(t, semi1.ID, p2, 3)
	env.score(t, semi1.ID, p3, 8)
	if err := env.matchSvc.ConfirmMatch(context.Background(), semi0.ID, 1); err != nil {
		t.Fatal(err)
	}
	if err := env.matchSvc.ConfirmMatch(context.Background(), semi1.ID, 1); err != nil {
		t.Fatal(err)
	}
	env.score(t, final.ID, p1, 5)
	env.score(t, final.ID, p3, 11)
	if err := env.matchSvc.ConfirmMatch(context.Background(), final.ID, 1); err != nil {
		t.Fatal(err)
	}

	// Undoing the first semifinal must first undo the final.
	env.publisher.reset()
	commitsBefore := env.beginner.commits
	if err := env.matchSvc.UnconfirmMatch(context.Background(), semi0.ID, nil); err != nil {
		t.Fatal(err)
	}
	// The whole cascade lands in one transaction.
	if got := env.beginner.commits - commitsBefore; got != 1 {
		t.Errorf("cascade ran %d commits, want 1", got)
	}

	if env.store.matches[final.ID].ConfirmedBy != nil {
		t.Error("final still confirmed after cascade")
	}
	if env.store.matches[semi0.ID].ConfirmedBy != nil {
		t.Error("semifinal still confirmed")
	}
	if env.store.matches[semi1.ID].ConfirmedBy == nil {
		t.Error("unrelated semifinal lost its confirmation")
	}
	// The final keeps the other semifinal's winner; only p1's row is gone.
	refs := env.contestantRefs(final.ID)
	if len(refs) != 1 || refs[0] != p3 {
		t.Errorf("final contestants after cascade = %v, want [%v]", refs, p3)
	}
	// Deepest match first in the event stream.
	evts := env.publisher.events
	if len(evts) != 2 {
		t.Fatalf("%d events, want 2: %v", len(evts), env.publisher.types())
	}
	first, ok := evts[0].(events.MatchUnconfirmed)
	if !ok || first.MatchID != final.ID {
		t.Errorf("first event = %#v, want match-unconfirmed for final", evts[0])
	}
	second, ok := evts[1].(events.MatchUnconfirmed)
	if !ok || second.MatchID != semi0.ID {
		t.Errorf("second event = %#v, want match-unconfirmed for semifinal", evts[1])
	}
}

func TestDeleteMatchRemovesDependents(t *testing.T) {
	env := newTestEnv()
	_, byPos, _ := playableBracket(t, env)
	m := byPos[[2]int{0, 0}]

	if _, err := env.matchSvc.AddComment(context.Background(), m.ID, 7, "gg"); err != nil {
		t.Fatal(err)
	}
	if err := env.matchSvc.DeleteMatch(context.Background(), m.ID, nil); err != nil {
		t.Fatal(err)
	}
	if _, ok := env.store.matches[m.ID]; ok {
		t.Error("match still stored")
	}
	for _, c := range env.store.contestants {
		if c.MatchID == m.ID {
			t.Error("orphaned contestant row")
		}
	}
	for _, c := range env.store.comments {
		if c.MatchID == m.ID {
			t.Error("orphaned comment")
		}
	}
}

func TestCommentLengthLimit(t *testing.T) {
	env := newTestEnv()
	_, byPos, _ := playableBracket(t, env)
	m := byPos[[2]int{0, 0}]

	long := strings.Repeat("x", models.MaxCommentLength+1)
	if _, err := env.matchSvc.AddComment(context.Background(), m.ID, 7, long); !errors.Is(err, ErrCommentTooLong) {
		t.Errorf("long comment: got %v", err)
	}

	exact := strings.Repeat("x", models.MaxCommentLength)
	comment, err := env.matchSvc.AddComment(context.Background(), m.ID, 7, exact)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.matchSvc.UpdateComment(context.Background(), comment.ID, long); !errors.Is(err, ErrCommentTooLong) {
		t.Errorf("long update: got %v", err)
	}
	updated, err := env.matchSvc.UpdateComment(context.Background(), comment.ID, "fixed")
	if err != nil {
		t.Fatal(err)
	}
	if updated.Comment != "fixed" || updated.UpdatedAt == nil {
		t.Errorf("update not applied: %+v", updated)
	}
}

func TestGetBracketAggregates(t *testing.T) {
	env := newTestEnv()
	tr, _, _ := playableBracket(t, env)

	got, err := env.matchSvc.GetBracket(context.Background(), tr.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Matches) != 3 {
		t.Errorf("%d matches, want 3", len(got.Matches))
	}
	if len(got.Participants) != 4 {
		t.Errorf("%d participants, want 4", len(got.Participants))
	}
	total := 0
	for _, m := range got.Matches {
		total += len(m.Contestants)
	}
	if total != 4 {
		t.Errorf("%d contestant rows loaded, want 4", total)
	}
}

func TestGetBracketTeamMemberCounts(t *testing.T) {
	env := newTestEnv()
	tr := env.addTournament(1, models.ContestantTeam, models.StatusRegistrationOpen)
	var teams []*models.Team
	for i, name := range []string{"Red", "Blue"} {
		captain := 10 + i
		env.addParticipant(tr.ID, captain)
		team, err := env.teamSvc.CreateTeam(context.Background(), tr.ID, captain, CreateTeamInput{Name: name})
		if err != nil {
			t.Fatal(err)
		}
		teams = append(teams, team)
	}
	// Blue picks up a second player.
	env.addParticipant(tr.ID, 20)
	if err := env.teamSvc.JoinTeam(context.Background(), teams[1].ID, 20, nil); err != nil {
		t.Fatal(err)
	}
	env.store.tournaments[tr.ID].Status = models.StatusRegistrationClosed
	if _, err := env.brackets.GenerateBracket(context.Background(), tr.ID, false, nil); err != nil {
		t.Fatal(err)
	}

	got, err := env.matchSvc.GetBracket(context.Background(), tr.ID)
	if err != nil {
		t.Fatal(err)
	}
	counts := make(map[int]int, len(got.Teams))
	for _, team := range got.Teams {
		counts[team.ID] = team.MemberCount
	}
	if counts[teams[0].ID] != 1 || counts[teams[1].ID] != 2 {
		t.Errorf("member counts = %v, want 1 and 2", counts)
	}
}
