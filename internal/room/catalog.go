package room

import "strings"

type AspectRatio string

const (
	Ratio1x1  AspectRatio = "1:1"
	Ratio4x5  AspectRatio = "4:5"
	Ratio9x16 AspectRatio = "9:16"
	Ratio3x2  AspectRatio = "3:2"
	Ratio2x1  AspectRatio = "2:1"
	Ratio16x9 AspectRatio = "16:9"
)

type Lighting string

const (
	LightingGoldenHour  Lighting = "Golden Hour"
	LightingMorning     Lighting = "Morning Light"
	LightingSoftCloudy  Lighting = "Soft Cloudy"
	LightingMoonlight   Lighting = "Moonlight"
	LightingCandlelight Lighting = "Candlelight"
	LightingAccentLamps Lighting = "Accent Lamps Only"
	LightingNeon        Lighting = "Neon Lighting"
	LightingFireplace   Lighting = "Fireplace Glow"
	LightingTVScreen    Lighting = "TV Screen Light"
	LightingSpotlights  Lighting = "Spotlights"
	LightingTableLamps  Lighting = "Table Lamps Only"
	LightingMixed       Lighting = "Mixed Lighting"
)

type NamedOption struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type AngleOption struct {
	Value       float64 `json:"value"`
	Label       string  `json:"label"`
	Description string  `json:"description"`
}

type ratioInfo struct {
	Label    string
	Provider string
}

// Provider values are the image model's accepted vocabulary; unsupported
// ratios are approximated by the nearest accepted one.
var aspectRatios = map[AspectRatio]ratioInfo{
	Ratio1x1:  {Label: "Instagram Post / Square", Provider: "1:1"},
	Ratio4x5:  {Label: "Portrait Post", Provider: "3:4"},
	Ratio9x16: {Label: "Story / Reels", Provider: "9:16"},
	Ratio3x2:  {Label: "Natural Frame", Provider: "4:3"},
	Ratio2x1:  {Label: "Cinematic Wide", Provider: "16:9"},
	Ratio16x9: {Label: "Landscape / Header", Provider: "16:9"},
}

var aspectRatioOrder = []AspectRatio{Ratio1x1, Ratio4x5, Ratio9x16, Ratio3x2, Ratio2x1, Ratio16x9}

var lensOrder = []NamedOption{
	{Key: "iphone-1x", Name: "iPhone 1x", Description: "Most natural perspective, everyday look"},
	{Key: "iphone-0.5x", Name: "iPhone 0.5x", Description: "Ultra wide, slight corner distortion"},
	{Key: "iphone-2x", Name: "iPhone 2x", Description: "Telephoto, tighter framing"},
	{Key: "24mm", Name: "24mm Wide", Description: "Classic architectural wide angle"},
	{Key: "16mm", Name: "16mm Ultra Wide", Description: "Dramatic ultra wide room shot"},
	{Key: "35mm", Name: "35mm Lifestyle", Description: "Natural depth, lifestyle photography"},
	{Key: "50mm", Name: "50mm Prime", Description: "Beautiful soft bokeh, premium feel"},
	{Key: "85mm", Name: "85mm Portrait", Description: "Compresses space, highlights objects"},
	{Key: "135mm", Name: "135mm Tele", Description: "Strong compression, pulls background closer"},
	{Key: "28mm-analog", Name: "28mm Analog", Description: "Vintage grain, slight softness"},
	{Key: "gopro-superview", Name: "GoPro Superview", Description: "Extreme wide, curved edges"},
	{Key: "drone-top", Name: "Drone Top View", Description: "Straight top-down, full floor"},
	{Key: "cctv", Name: "CCTV Lens", Description: "Flat contrast, mild distortion"},
	{Key: "film-90s", Name: "90s Film Lens", Description: "Warm tones, nostalgic softness"},
	{Key: "dslr-14mm", Name: "14mm DSLR", Description: "Super wide, full room coverage"},
}

var angleOrder = []AngleOption{
	{Value: 1.0, Label: "Front", Description: "Straight front view. Directly facing the large floor-to-ceiling windows, symmetrical composition."},
	{Value: 1.5, Label: "Right Corner", Description: "45° right angle. Shows the corner where the window wall meets the right wall."},
	{Value: 2.0, Label: "Right Wall", Description: "Side view facing the wall to the right of the windows."},
	{Value: 2.5, Label: "Rear Right Corner", Description: "Rear corner view. Shows the corner between the right wall and the back wall."},
	{Value: 3.0, Label: "Back Wall", Description: "Back view. Facing the back wall, looking away from the windows."},
	{Value: 3.5, Label: "Rear Left Corner", Description: "Left rear corner. Shows the corner between the back wall and the left wall."},
	{Value: 4.0, Label: "Left Wall", Description: "Side view facing the wall to the left of the windows."},
	{Value: 4.5, Label: "Front Left Corner", Description: "Front corner view. Shows the corner between the left wall and the window wall."},
	{Value: 5.0, Label: "Top Down", Description: "Top-down view. Bird's eye view of the entire floor plan and rug layout."},
}

const fallbackAngleDescription = "Front View."

var lightingOrder = []Lighting{
	LightingGoldenHour,
	LightingMorning,
	LightingSoftCloudy,
	LightingMoonlight,
	LightingCandlelight,
	LightingAccentLamps,
	LightingNeon,
	LightingFireplace,
	LightingTVScreen,
	LightingSpotlights,
	LightingTableLamps,
	LightingMixed,
}

func (r AspectRatio) Valid() bool {
	_, ok := aspectRatios[r]
	return ok
}

// ProviderRatio maps r onto the image model's ratio vocabulary. Unknown
// values fall back to square.
func (r AspectRatio) ProviderRatio() string {
	if info, ok := aspectRatios[r]; ok {
		return info.Provider
	}
	return "1:1"
}

func (l Lighting) Valid() bool {
	for _, opt := range lightingOrder {
		if opt == l {
			return true
		}
	}
	return false
}

func AspectRatios() []NamedOption {
	out := make([]NamedOption, 0, len(aspectRatioOrder))
	for _, r := range aspectRatioOrder {
		out = append(out, NamedOption{Key: string(r), Name: string(r), Description: aspectRatios[r].Label})
	}
	return out
}

func Lenses() []NamedOption {
	return append([]NamedOption(nil), lensOrder...)
}

func Angles() []AngleOption {
	return append([]AngleOption(nil), angleOrder...)
}

func LightingOptions() []Lighting {
	return append([]Lighting(nil), lightingOrder...)
}

// LensDescription renders a lens id as "Name (description)". Unknown ids are
// returned as given.
func LensDescription(id string) string {
	key := strings.TrimSpace(id)
	for _, l := range lensOrder {
		if l.Key == key {
			return l.Name + " (" + l.Description + ")"
		}
	}
	return id
}

func AngleDescription(v float64) string {
	for _, a := range angleOrder {
		if a.Value == v {
			return a.Description
		}
	}
	return fallbackAngleDescription
}

func AngleLabel(v float64) string {
	for _, a := range angleOrder {
		if a.Value == v {
			return a.Label
		}
	}
	return "Front"
}

func CameraHeightLabel(h int) string {
	switch {
	case h <= 2:
		return "Worm's Eye (Floor Texture)"
	case h <= 4:
		return "Low / Knee Level"
	case h <= 6:
		return "Standard Eye Level"
	case h <= 8:
		return "High Angle"
	default:
		return "Bird's Eye / Top Down"
	}
}
