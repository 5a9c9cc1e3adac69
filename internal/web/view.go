package web

import (
	"time"

	"home-rugs-studio/internal/room"
	"home-rugs-studio/internal/studio"
)

// imageView is a history entry without its payload; clients fetch the bytes
// from URL.
type imageView struct {
	ID        string      `json:"id"`
	URL       string      `json:"url"`
	Download  string      `json:"download"`
	CreatedAt time.Time   `json:"timestamp"`
	Config    room.Config `json:"config"`
	MimeType  string      `json:"mimeType,omitempty"`
}

type stateView struct {
	Status     studio.Status `json:"status"`
	Config     room.Config   `json:"config"`
	History    []imageView   `json:"history"`
	CurrentID  string        `json:"currentId,omitempty"`
	Editing    bool          `json:"editing"`
	EditPrompt string        `json:"editPrompt"`
	Alert      string        `json:"alert,omitempty"`
}

func newImageView(img room.GeneratedImage) imageView {
	return imageView{
		ID:        img.ID,
		URL:       "/api/images/" + img.ID + "/download?inline=1",
		Download:  "/api/images/" + img.ID + "/download",
		CreatedAt: img.CreatedAt,
		Config:    img.Config.WithoutImages(),
		MimeType:  img.MimeType,
	}
}

func newStateView(st studio.State) stateView {
	history := make([]imageView, 0, len(st.History))
	for _, img := range st.History {
		history = append(history, newImageView(img))
	}
	return stateView{
		Status:     st.Status,
		Config:     st.Config,
		History:    history,
		CurrentID:  st.CurrentID,
		Editing:    st.Editing,
		EditPrompt: st.EditPrompt,
		Alert:      st.Alert,
	}
}
