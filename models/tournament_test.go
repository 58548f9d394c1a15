package models

import "testing"

func TestCanTransitionAllowedMoves(t *testing.T) {
	allowed := []struct{ from, to TournamentStatus }{
		{StatusDraft, StatusRegistrationOpen},
		{StatusDraft, StatusCancelled},
		{StatusRegistrationOpen, StatusRegistrationClosed},
		{StatusRegistrationOpen, StatusCancelled},
		{StatusRegistrationClosed, StatusOngoing},
		{StatusRegistrationClosed, StatusRegistrationOpen},
		{StatusRegistrationClosed, StatusCancelled},
		{StatusOngoing, StatusPaused},
		{StatusOngoing, StatusCompleted},
		{StatusOngoing, StatusCancelled},
		{StatusPaused, StatusOngoing},
		{StatusPaused, StatusCancelled},
	}
	for _, tt := range allowed {
		if !CanTransition(tt.from, tt.to) {
			t.Errorf("expected %s -> %s to be allowed", tt.from, tt.to)
		}
	}
}

func TestCanTransitionRejectsSkips(t *testing.T) {
	denied := []struct{ from, to TournamentStatus }{
		{StatusDraft, StatusOngoing},
		{StatusDraft, StatusCompleted},
		{StatusRegistrationOpen, StatusOngoing},
		{StatusRegistrationClosed, StatusCompleted},
		{StatusPaused, StatusCompleted},
	}
	for _, tt := range denied {
		if CanTransition(tt.from, tt.to) {
			t.Errorf("expected %s -> %s to be rejected", tt.from, tt.to)
		}
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	all := []TournamentStatus{
		StatusDraft, StatusRegistrationOpen, StatusRegistrationClosed,
		StatusOngoing, StatusPaused, StatusCompleted, StatusCancelled,
	}
	for _, terminal := range []TournamentStatus{StatusCompleted, StatusCancelled} {
		for _, to := range all {
			if CanTransition(terminal, to) {
				t.Errorf("terminal %s allows transition to %s", terminal, to)
			}
		}
	}
}

func TestNoSelfLoops(t *testing.T) {
	for status := range validStatusTransitions {
		if CanTransition(status, status) {
			t.Errorf("%s allows a self transition", status)
		}
	}
}

func TestIsValidStatus(t *testing.T) {
	if !IsValidStatus(StatusDraft) || !IsValidStatus(StatusCancelled) {
		t.Error("known statuses reported invalid")
	}
	if IsValidStatus("archived") {
		t.Error("unknown status reported valid")
	}
}

func TestIsTerminal(t *testing.T) {
	for status, terminal := range map[TournamentStatus]bool{
		StatusDraft:     false,
		StatusOngoing:   false,
		StatusCompleted: true,
		StatusCancelled: true,
	} {
		tr := Tournament{Status: status}
		if tr.IsTerminal() != terminal {
			t.Errorf("IsTerminal for %s = %v, want %v", status, tr.IsTerminal(), terminal)
		}
	}
}
