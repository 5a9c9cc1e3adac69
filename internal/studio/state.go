package studio

import (
	"home-rugs-studio/internal/room"
)

type Status string

const (
	StatusCheckingCredential Status = "checking-credential"
	StatusNoCredential       Status = "no-credential"
	StatusReady              Status = "ready"
	StatusGenerating         Status = "generating"
	StatusError              Status = "error"
)

// State is the whole application state. History is most-recent-first.
type State struct {
	Status     Status                `json:"status"`
	Config     room.Config           `json:"config"`
	History    []room.GeneratedImage `json:"history"`
	CurrentID  string                `json:"currentId,omitempty"`
	Editing    bool                  `json:"editing"`
	EditPrompt string                `json:"editPrompt"`
	Alert      string                `json:"alert,omitempty"`

	// HistoryLimit caps History; zero keeps everything.
	HistoryLimit int `json:"-"`
}

func InitialState(cfg room.Config, historyLimit int) State {
	return State{
		Status:       StatusCheckingCredential,
		Config:       cfg,
		History:      []room.GeneratedImage{},
		HistoryLimit: historyLimit,
	}
}

// Current returns the image being viewed, if any.
func (s State) Current() (room.GeneratedImage, bool) {
	if s.CurrentID == "" {
		return room.GeneratedImage{}, false
	}
	return s.Find(s.CurrentID)
}

func (s State) Find(id string) (room.GeneratedImage, bool) {
	for _, img := range s.History {
		if img.ID == id {
			return img, true
		}
	}
	return room.GeneratedImage{}, false
}

type Action interface {
	isAction()
}

type (
	CredentialCheckStarted     struct{}
	CredentialChecked          struct{ Present bool }
	CredentialSelectionStarted struct{}
	ConfigChanged              struct{ Config room.Config }
	GenerationStarted          struct{}
	GenerationSucceeded        struct{ Image room.GeneratedImage }
	FailureSurfaced            struct{}
	EditStarted                struct{ ID string }
	EditPromptChanged          struct{ Text string }
	EditCancelled              struct{}
	ImageSelected              struct{ ID string }
	CurrentCleared             struct{}
	AlertDismissed             struct{}
)

// GenerationFailed reports a provider failure. CredentialInvalid failures
// send the session back to credential selection instead of alerting.
type GenerationFailed struct {
	Message           string
	CredentialInvalid bool
}

func (CredentialCheckStarted) isAction()     {}
func (CredentialChecked) isAction()          {}
func (CredentialSelectionStarted) isAction() {}
func (ConfigChanged) isAction()              {}
func (GenerationStarted) isAction()          {}
func (GenerationSucceeded) isAction()        {}
func (GenerationFailed) isAction()           {}
func (FailureSurfaced) isAction()            {}
func (EditStarted) isAction()                {}
func (EditPromptChanged) isAction()          {}
func (EditCancelled) isAction()              {}
func (ImageSelected) isAction()              {}
func (CurrentCleared) isAction()             {}
func (AlertDismissed) isAction()             {}

// Reduce applies a to s and returns the next state. It never mutates s and
// returns s unchanged for actions that are not allowed in s.Status.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case CredentialCheckStarted:
		if s.Status == StatusGenerating {
			return s
		}
		s.Status = StatusCheckingCredential

	case CredentialChecked:
		if s.Status != StatusCheckingCredential {
			return s
		}
		if a.Present {
			s.Status = StatusReady
		} else {
			s.Status = StatusNoCredential
		}

	case CredentialSelectionStarted:
		if s.Status == StatusGenerating {
			return s
		}
		s.Status = StatusCheckingCredential

	case ConfigChanged:
		s.Config = a.Config

	case GenerationStarted:
		if s.Status != StatusReady {
			return s
		}
		s.Status = StatusGenerating
		s.Alert = ""

	case GenerationSucceeded:
		if s.Status != StatusGenerating {
			return s
		}
		history := make([]room.GeneratedImage, 0, len(s.History)+1)
		history = append(history, a.Image)
		history = append(history, s.History...)
		if s.HistoryLimit > 0 && len(history) > s.HistoryLimit {
			history = history[:s.HistoryLimit]
		}
		s.History = history
		s.CurrentID = a.Image.ID
		s.Editing = false
		s.EditPrompt = ""
		s.Status = StatusReady

	case GenerationFailed:
		if s.Status != StatusGenerating {
			return s
		}
		if a.CredentialInvalid {
			s.Status = StatusNoCredential
			return s
		}
		s.Status = StatusError
		s.Alert = a.Message

	case FailureSurfaced:
		if s.Status != StatusError {
			return s
		}
		s.Status = StatusReady

	case EditStarted:
		if _, ok := s.Find(a.ID); !ok {
			return s
		}
		s.CurrentID = a.ID
		s.Editing = true
		s.EditPrompt = ""

	case EditPromptChanged:
		if !s.Editing {
			return s
		}
		s.EditPrompt = a.Text

	case EditCancelled:
		s.Editing = false
		s.EditPrompt = ""

	case ImageSelected:
		if _, ok := s.Find(a.ID); !ok {
			return s
		}
		s.CurrentID = a.ID
		s.Editing = false
		s.EditPrompt = ""

	case CurrentCleared:
		s.CurrentID = ""
		s.Editing = false
		s.EditPrompt = ""

	case AlertDismissed:
		s.Alert = ""
	}
	return s
}
