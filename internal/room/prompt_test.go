package room

import (
	"reflect"
	"strings"
	"testing"
)

func img(data string) Image {
	return Image{Data: data, MimeType: "image/jpeg"}
}

func TestBuildPromptBaseScene(t *testing.T) {
	cfg := Default()

	req := BuildPrompt(cfg, "", nil)

	if !strings.Contains(req.Text, baseScene) {
		t.Error("base scene preamble missing")
	}
	if !strings.Contains(req.Text, AngleDescription(1.0)) {
		t.Errorf("angle 1.0 description missing from %q", req.Text)
	}
	if strings.Contains(req.Text, "STRICT REFERENCE") {
		t.Error("strict block must not appear without a room reference")
	}
	if strings.Contains(req.Text, "RUG INSTRUCTION") {
		t.Error("rug instruction must not appear without rug images")
	}
	if len(req.Attachments) != 0 {
		t.Errorf("expected no attachments, got %d", len(req.Attachments))
	}
	if req.AspectRatio != "1:1" || req.ImageSize != DefaultImageSize {
		t.Errorf("unexpected image config %q %q", req.AspectRatio, req.ImageSize)
	}
}

func TestBuildPromptStrictReferenceWithRug(t *testing.T) {
	cfg := Default().WithRoomReference(&Image{Data: "X", MimeType: "image/png"})
	cfg, err := cfg.WithRugImages([]Image{img("R1")})
	if err != nil {
		t.Fatal(err)
	}
	cfg, err = cfg.WithAngle(3.0)
	if err != nil {
		t.Fatal(err)
	}

	req := BuildPrompt(cfg, "", nil)

	if !strings.Contains(req.Text, "STRICT REFERENCE INSTRUCTION") {
		t.Error("strict consistency block missing")
	}
	if !strings.Contains(req.Text, "REPLACE only the rug") {
		t.Error("rug replacement instruction missing")
	}
	if strings.Contains(req.Text, baseScene) {
		t.Error("base scene must not appear with a room reference")
	}
	if !strings.Contains(req.Text, AngleDescription(3.0)) {
		t.Error("angle 3.0 description missing")
	}

	got := dataOf(req.Attachments)
	want := []string{"X", "R1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("attachments = %v, want %v", got, want)
	}
}

func TestBuildPromptStrictReferenceKeepsRug(t *testing.T) {
	cfg := Default().WithRoomReference(&Image{Data: "X"})

	req := BuildPrompt(cfg, "", nil)

	if !strings.Contains(req.Text, "Keep the existing rug") {
		t.Error("keep-rug instruction missing")
	}
	if len(req.Attachments) != 1 || req.Attachments[0].MimeType != "image/png" {
		t.Errorf("expected room reference with default mime, got %+v", req.Attachments)
	}
}

func TestBuildPromptRugWithoutReference(t *testing.T) {
	cfg, _ := Default().WithRugImages([]Image{img("R1"), img("R2")})

	req := BuildPrompt(cfg, "", nil)

	if !strings.Contains(req.Text, "RUG INSTRUCTION") {
		t.Error("rug instruction missing")
	}
	if got := dataOf(req.Attachments); !reflect.DeepEqual(got, []string{"R1", "R2"}) {
		t.Errorf("attachments = %v", got)
	}
}

func TestBuildPromptEditMode(t *testing.T) {
	cfg := Default().WithRoomReference(&Image{Data: "X"})
	cfg, _ = cfg.WithRugImages([]Image{img("R1"), img("R2")})
	source := &GeneratedImage{ID: "g1", Data: "S", MimeType: "image/webp"}

	req := BuildPrompt(cfg, "  add more plants  ", source)

	if !strings.Contains(req.Text, "EDIT INSTRUCTIONS: add more plants") {
		t.Errorf("edit directive missing from %q", req.Text)
	}
	got := dataOf(req.Attachments)
	want := []string{"X", "R1", "R2", "S"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("attachments = %v, want %v", got, want)
	}
	if last := req.Attachments[len(req.Attachments)-1]; last.MimeType != "image/webp" {
		t.Errorf("source mime = %q", last.MimeType)
	}
}

func TestBuildPromptEditNeedsBothParts(t *testing.T) {
	cfg := Default()
	source := &GeneratedImage{ID: "g1", Data: "S"}

	tests := []struct {
		name   string
		edit   string
		source *GeneratedImage
	}{
		{name: "no source", edit: "change the rug", source: nil},
		{name: "blank edit", edit: "   ", source: source},
		{name: "source without data", edit: "change", source: &GeneratedImage{ID: "g2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := BuildPrompt(cfg, tt.edit, tt.source)
			if strings.Contains(req.Text, "EDIT INSTRUCTIONS") {
				t.Error("edit directive must be omitted")
			}
			if len(req.Attachments) != 0 {
				t.Errorf("expected no attachments, got %d", len(req.Attachments))
			}
		})
	}
}

func TestBuildPromptIsPure(t *testing.T) {
	cfg, _ := Default().WithLighting([]Lighting{LightingGoldenHour, LightingCandlelight})
	cfg = cfg.WithExtraPrompt("Scandinavian furniture")
	cfg, _ = cfg.WithRugImages([]Image{img("R1")})
	source := &GeneratedImage{Data: "S"}

	first := BuildPrompt(cfg, "warmer light", source)
	for i := 0; i < 5; i++ {
		again := BuildPrompt(cfg, "warmer light", source)
		if !reflect.DeepEqual(first, again) {
			t.Fatal("BuildPrompt returned different output for identical input")
		}
	}
	if len(cfg.RugImages) != 1 || cfg.RugImages[0].MimeType != "image/jpeg" {
		t.Error("BuildPrompt modified its input")
	}
}

func TestBuildPromptCommonDirectives(t *testing.T) {
	cfg, _ := Default().WithAspectRatio(Ratio2x1)
	cfg, _ = cfg.WithRugScale(7)
	cfg, _ = cfg.WithCameraHeight(9)
	cfg = cfg.WithExtraPrompt("  add a reading lamp ")

	req := BuildPrompt(cfg, "", nil)

	for _, want := range []string{
		"Aspect ratio target: 2:1",
		"Rug scale: 7/10",
		"Camera height: 9/10 (Bird's Eye / Top Down)",
		"ADDITIONAL DETAILS / CHANGES: add a reading lamp",
		"Lighting: natural daylight",
	} {
		if !strings.Contains(req.Text, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if req.AspectRatio != "16:9" {
		t.Errorf("provider ratio = %q, want 16:9", req.AspectRatio)
	}
}

func TestProviderRatio(t *testing.T) {
	tests := map[AspectRatio]string{
		Ratio1x1:  "1:1",
		Ratio4x5:  "3:4",
		Ratio9x16: "9:16",
		Ratio3x2:  "4:3",
		Ratio2x1:  "16:9",
		Ratio16x9: "16:9",
		"7:3":     "1:1",
	}
	for in, want := range tests {
		if got := in.ProviderRatio(); got != want {
			t.Errorf("%s -> %s, want %s", in, got, want)
		}
	}
}

func TestAngleDescriptionFallback(t *testing.T) {
	if got := AngleDescription(7.25); got != fallbackAngleDescription {
		t.Errorf("got %q", got)
	}
	if got := AngleDescription(5.0); !strings.Contains(got, "Top-down") {
		t.Errorf("5.0 -> %q", got)
	}
}

func TestLensDescription(t *testing.T) {
	if got := LensDescription("50mm"); got != "50mm Prime (Beautiful soft bokeh, premium feel)" {
		t.Errorf("got %q", got)
	}
	if got := LensDescription("tilt-shift"); got != "tilt-shift" {
		t.Errorf("unknown lens should pass through, got %q", got)
	}
}

func dataOf(images []Image) []string {
	out := make([]string, 0, len(images))
	for _, i := range images {
		out = append(out, i.Data)
	}
	return out
}
