package room

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const DefaultImageSize = "2K"

// ErrCredentialInvalid is returned by image generators when the provider
// rejects, or never received, the API key.
var ErrCredentialInvalid = errors.New("credential invalid")

const baseScene = `TASK: Photorealistic interior photograph of a bright, contemporary living room styled for a premium rug catalogue.

BASE SCENE:
- A spacious living room with large floor-to-ceiling windows along the main wall and soft daylight entering the room.
- Light oak or warm wooden flooring, off-white plastered walls, a low modern sofa, a coffee table, and a few green plants.
- The rug is the hero of the image: it lies flat on the floor in the center of the seating area, fully visible and undistorted.
- Real-estate and editorial interior photography quality. Natural colours, accurate textures, no people, no text, no watermarks.`

// Request is the model-ready payload: attachments in their significant order
// followed by Text as the final part.
type Request struct {
	Text        string
	Attachments []Image
	AspectRatio string
	ImageSize   string
}

// GeneratedImage is one successful generation result. It is never mutated
// after creation.
type GeneratedImage struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"timestamp"`
	Config    Config    `json:"config"`
	Data      string    `json:"base64Data,omitempty"`
	MimeType  string    `json:"mimeType,omitempty"`
}

func (g GeneratedImage) Image() Image {
	return Image{Data: g.Data, MimeType: g.MimeType}
}

// BuildPrompt turns a configuration (plus an optional edit instruction and
// its source image) into a model request. It has no side effects.
func BuildPrompt(cfg Config, edit string, source *GeneratedImage) Request {
	lens := LensDescription(cfg.Lens)
	angle := AngleDescription(cfg.Angle)
	lighting := lightingPhrase(cfg.Lighting)
	hasRugs := len(cfg.RugImages) > 0

	var b strings.Builder
	b.Grow(2048)

	if cfg.RoomReference != nil {
		b.WriteString("STRICT REFERENCE INSTRUCTION:\n")
		b.WriteString("The first attached image is the ROOM REFERENCE.\n")
		b.WriteString("- Keep the architecture, windows, furniture placement, wall colours, and decor EXACTLY as in the room reference.\n")
		b.WriteString("- Do not change the sofa, tables, plants, or layout unless the additional details below ask for it.\n")
		b.WriteString("- The room reference was photographed from: " + AngleDescription(cfg.ReferenceAngle) + "\n")
		b.WriteString("\nEXCEPTION - THE RUG:\n")
		if hasRugs {
			b.WriteString("- REPLACE only the rug with the rug shown in the RUG REFERENCE IMAGES. Fit it to the room's perspective and lighting.\n")
		} else {
			b.WriteString("- Keep the existing rug as it is unless the additional details ask to change it.\n")
		}
		b.WriteString("\nCAMERA & ATMOSPHERE:\n")
		b.WriteString("- Camera style: " + lens + "\n")
		b.WriteString("- Angle logic: " + angle + " (match this perspective relative to the room layout)\n")
		b.WriteString("- Lighting: " + lighting + "\n")
	} else {
		b.WriteString(baseScene)
		b.WriteString("\n\nSCENE SPECIFICATIONS:\n")
		b.WriteString("- Camera angle: " + angle + "\n")
		b.WriteString("- Camera & lens: " + lens + "\n")
		b.WriteString("- Lighting: " + lighting + "\n")
		if hasRugs {
			b.WriteString("\nRUG INSTRUCTION:\n")
			b.WriteString("- The attached images show a specific rug. Render the room with THIS rug on the floor, matching its pattern, colours, and texture.\n")
		}
	}

	b.WriteString(fmt.Sprintf("- Aspect ratio target: %s\n", cfg.AspectRatio))
	b.WriteString(fmt.Sprintf("- Rug scale: %d/10\n", cfg.RugScale))
	b.WriteString(fmt.Sprintf("- Camera height: %d/10 (%s)\n", cfg.CameraHeight, CameraHeightLabel(cfg.CameraHeight)))

	if extra := strings.TrimSpace(cfg.ExtraPrompt); extra != "" {
		b.WriteString("\nADDITIONAL DETAILS / CHANGES: " + extra + "\n")
	}

	edit = strings.TrimSpace(edit)
	editing := edit != "" && source != nil && source.Data != ""
	if editing {
		b.WriteString("\nEDIT INSTRUCTIONS: " + edit + "\n")
		b.WriteString("The last attached image is the photo to edit. Keep the room architecture and perspective exactly the same and apply only the change requested above.\n")
	}

	var attachments []Image
	if cfg.RoomReference != nil {
		attachments = append(attachments, withDefaultMime(*cfg.RoomReference))
	}
	for _, img := range cfg.RugImages {
		attachments = append(attachments, withDefaultMime(img))
	}
	if editing {
		attachments = append(attachments, withDefaultMime(source.Image()))
	}

	return Request{
		Text:        strings.TrimSpace(b.String()),
		Attachments: attachments,
		AspectRatio: cfg.AspectRatio.ProviderRatio(),
		ImageSize:   DefaultImageSize,
	}
}

func lightingPhrase(options []Lighting) string {
	if len(options) == 0 {
		return "natural daylight"
	}
	parts := make([]string, 0, len(options))
	for _, l := range options {
		parts = append(parts, string(l))
	}
	return strings.Join(parts, ", ")
}

func withDefaultMime(img Image) Image {
	if strings.TrimSpace(img.MimeType) == "" {
		img.MimeType = "image/png"
	}
	return img
}
