package studio

import (
	"testing"

	"home-rugs-studio/internal/room"
)

func TestReduceGenerationStartedOnlyFromReady(t *testing.T) {
	for _, status := range []Status{StatusCheckingCredential, StatusNoCredential, StatusGenerating, StatusError} {
		s := State{Status: status}
		if got := Reduce(s, GenerationStarted{}); got.Status != status {
			t.Errorf("%s -> %s", status, got.Status)
		}
	}
	if got := Reduce(State{Status: StatusReady, Alert: "old"}, GenerationStarted{}); got.Status != StatusGenerating || got.Alert != "" {
		t.Errorf("ready -> %+v", got)
	}
}

func TestReduceDoesNotShareHistory(t *testing.T) {
	prev := State{
		Status:  StatusGenerating,
		History: make([]room.GeneratedImage, 1, 4),
	}
	prev.History[0] = room.GeneratedImage{ID: "old"}

	next := Reduce(prev, GenerationSucceeded{Image: room.GeneratedImage{ID: "new"}})

	if len(prev.History) != 1 || prev.History[0].ID != "old" {
		t.Fatalf("previous state changed: %+v", prev.History)
	}
	if len(next.History) != 2 || next.History[0].ID != "new" {
		t.Fatalf("next history = %+v", next.History)
	}
	if next.CurrentID != "new" || next.Status != StatusReady {
		t.Errorf("next = %+v", next)
	}
}

func TestReduceFailure(t *testing.T) {
	gen := State{Status: StatusGenerating, History: []room.GeneratedImage{{ID: "a"}}}

	cred := Reduce(gen, GenerationFailed{Message: "x", CredentialInvalid: true})
	if cred.Status != StatusNoCredential || len(cred.History) != 1 {
		t.Errorf("credential failure -> %+v", cred)
	}

	other := Reduce(gen, GenerationFailed{Message: "boom"})
	if other.Status != StatusError || other.Alert != "boom" {
		t.Errorf("failure -> %+v", other)
	}
	if surfaced := Reduce(other, FailureSurfaced{}); surfaced.Status != StatusReady || surfaced.Alert != "boom" {
		t.Errorf("surfaced -> %+v", surfaced)
	}
}

func TestReduceEditAndSelection(t *testing.T) {
	s := State{Status: StatusReady, History: []room.GeneratedImage{{ID: "a"}, {ID: "b"}}}

	if got := Reduce(s, EditStarted{ID: "zzz"}); got.Editing {
		t.Error("edit started for unknown image")
	}
	if got := Reduce(s, EditPromptChanged{Text: "x"}); got.EditPrompt != "" {
		t.Error("prompt changed outside edit mode")
	}

	s = Reduce(s, EditStarted{ID: "b"})
	s = Reduce(s, EditPromptChanged{Text: "warmer"})
	if !s.Editing || s.CurrentID != "b" || s.EditPrompt != "warmer" {
		t.Fatalf("edit state = %+v", s)
	}

	s = Reduce(s, ImageSelected{ID: "a"})
	if s.Editing || s.CurrentID != "a" {
		t.Errorf("select = %+v", s)
	}

	s = Reduce(s, CurrentCleared{})
	if s.CurrentID != "" {
		t.Error("current not cleared")
	}
}

func TestReduceCredentialChecked(t *testing.T) {
	checking := State{Status: StatusCheckingCredential}
	if got := Reduce(checking, CredentialChecked{Present: true}); got.Status != StatusReady {
		t.Errorf("present -> %s", got.Status)
	}
	if got := Reduce(checking, CredentialChecked{}); got.Status != StatusNoCredential {
		t.Errorf("absent -> %s", got.Status)
	}
	if got := Reduce(State{Status: StatusNoCredential}, CredentialSelectionStarted{}); got.Status != StatusCheckingCredential {
		t.Errorf("selection -> %s", got.Status)
	}
	if got := Reduce(State{Status: StatusGenerating}, CredentialSelectionStarted{}); got.Status != StatusGenerating {
		t.Errorf("selection during generation -> %s", got.Status)
	}
}
