package room

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	MaxRugImages = 3

	MinCameraHeight = 1
	MaxCameraHeight = 10
	MinRugScale     = 1
	MaxRugScale     = 10

	MinAngle  = 1.0
	MaxAngle  = 5.0
	AngleStep = 0.5
)

var (
	ErrInvalidAspectRatio = errors.New("invalid aspect ratio")
	ErrInvalidAngle       = errors.New("invalid angle")
	ErrInvalidLighting    = errors.New("invalid lighting option")
	ErrTooManyRugImages   = errors.New("too many rug images")
)

// Image is an uploaded or generated picture kept as a base64 payload.
type Image struct {
	Data     string `json:"data" yaml:"data"`
	MimeType string `json:"mimeType" yaml:"mimeType"`
}

func (img Image) DataURL() string {
	mime := img.MimeType
	if mime == "" {
		mime = "image/png"
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, img.Data)
}

// Config is one generation request's parameters. Values are immutable: every
// With* method returns a copy and never writes through shared slices.
type Config struct {
	AspectRatio    AspectRatio `json:"aspectRatio" yaml:"aspectRatio"`
	Lens           string      `json:"lens" yaml:"lens"`
	Angle          float64     `json:"angle" yaml:"angle"`
	CameraHeight   int         `json:"cameraHeight" yaml:"cameraHeight"`
	Lighting       []Lighting  `json:"lighting" yaml:"lighting"`
	RugScale       int         `json:"rugScale" yaml:"rugScale"`
	ExtraPrompt    string      `json:"extraPrompt" yaml:"extraPrompt"`
	RugImages      []Image     `json:"rugImages" yaml:"-"`
	RoomReference  *Image      `json:"roomReferenceImage" yaml:"-"`
	ReferenceAngle float64     `json:"referenceImageAngle" yaml:"referenceImageAngle"`
}

func Default() Config {
	return Config{
		AspectRatio:    Ratio1x1,
		Lens:           "iphone-1x",
		Angle:          1.0,
		CameraHeight:   5,
		Lighting:       []Lighting{},
		RugScale:       5,
		RugImages:      []Image{},
		ReferenceAngle: 1.0,
	}
}

func (c Config) WithAspectRatio(ratio AspectRatio) (Config, error) {
	if !ratio.Valid() {
		return c, fmt.Errorf("%w: %q", ErrInvalidAspectRatio, ratio)
	}
	out := c.clone()
	out.AspectRatio = ratio
	return out, nil
}

func (c Config) WithLens(lens string) (Config, error) {
	lens = strings.TrimSpace(lens)
	if lens == "" {
		return c, errors.New("lens is empty")
	}
	out := c.clone()
	out.Lens = lens
	return out, nil
}

func (c Config) WithAngle(angle float64) (Config, error) {
	if !ValidAngle(angle) {
		return c, fmt.Errorf("%w: %v", ErrInvalidAngle, angle)
	}
	out := c.clone()
	out.Angle = angle
	return out, nil
}

func (c Config) WithReferenceAngle(angle float64) (Config, error) {
	if !ValidAngle(angle) {
		return c, fmt.Errorf("%w: %v", ErrInvalidAngle, angle)
	}
	out := c.clone()
	out.ReferenceAngle = angle
	return out, nil
}

func (c Config) WithCameraHeight(height int) (Config, error) {
	if height < MinCameraHeight || height > MaxCameraHeight {
		return c, fmt.Errorf("camera height must be %d-%d, got %d", MinCameraHeight, MaxCameraHeight, height)
	}
	out := c.clone()
	out.CameraHeight = height
	return out, nil
}

func (c Config) WithRugScale(scale int) (Config, error) {
	if scale < MinRugScale || scale > MaxRugScale {
		return c, fmt.Errorf("rug scale must be %d-%d, got %d", MinRugScale, MaxRugScale, scale)
	}
	out := c.clone()
	out.RugScale = scale
	return out, nil
}

func (c Config) WithExtraPrompt(text string) Config {
	out := c.clone()
	out.ExtraPrompt = text
	return out
}

// WithLighting replaces the lighting set. Duplicates collapse onto their
// first occurrence.
func (c Config) WithLighting(options []Lighting) (Config, error) {
	set := make([]Lighting, 0, len(options))
	seen := make(map[Lighting]struct{}, len(options))
	for _, opt := range options {
		if !opt.Valid() {
			return c, fmt.Errorf("%w: %q", ErrInvalidLighting, opt)
		}
		if _, ok := seen[opt]; ok {
			continue
		}
		seen[opt] = struct{}{}
		set = append(set, opt)
	}
	out := c.clone()
	out.Lighting = set
	return out, nil
}

func (c Config) ToggleLighting(opt Lighting) (Config, error) {
	if !opt.Valid() {
		return c, fmt.Errorf("%w: %q", ErrInvalidLighting, opt)
	}
	next := make([]Lighting, 0, len(c.Lighting)+1)
	found := false
	for _, l := range c.Lighting {
		if l == opt {
			found = true
			continue
		}
		next = append(next, l)
	}
	if !found {
		next = append(next, opt)
	}
	out := c.clone()
	out.Lighting = next
	return out, nil
}

func (c Config) WithRugImages(images []Image) (Config, error) {
	if len(images) > MaxRugImages {
		return c, fmt.Errorf("%w: %d > %d", ErrTooManyRugImages, len(images), MaxRugImages)
	}
	out := c.clone()
	out.RugImages = append([]Image{}, images...)
	return out, nil
}

// AddRugImages appends as many of images as fit under MaxRugImages, in order.
func (c Config) AddRugImages(images []Image) Config {
	free := MaxRugImages - len(c.RugImages)
	if free < 0 {
		free = 0
	}
	if len(images) > free {
		images = images[:free]
	}
	out := c.clone()
	out.RugImages = append(out.RugImages, images...)
	return out
}

func (c Config) RemoveRugImage(idx int) (Config, error) {
	if idx < 0 || idx >= len(c.RugImages) {
		return c, fmt.Errorf("rug image %d out of range", idx)
	}
	out := c.clone()
	out.RugImages = append(append([]Image{}, c.RugImages[:idx]...), c.RugImages[idx+1:]...)
	return out, nil
}

// WithRoomReference sets or (with nil) clears the room reference.
func (c Config) WithRoomReference(img *Image) Config {
	out := c.clone()
	if img == nil {
		out.RoomReference = nil
		return out
	}
	ref := *img
	out.RoomReference = &ref
	return out
}

// WithoutImages returns the config with both image fields emptied. Fields are
// listed explicitly so a new image field cannot leak into presets unnoticed.
func (c Config) WithoutImages() Config {
	return Config{
		AspectRatio:    c.AspectRatio,
		Lens:           c.Lens,
		Angle:          c.Angle,
		CameraHeight:   c.CameraHeight,
		Lighting:       append([]Lighting{}, c.Lighting...),
		RugScale:       c.RugScale,
		ExtraPrompt:    c.ExtraPrompt,
		RugImages:      []Image{},
		RoomReference:  nil,
		ReferenceAngle: c.ReferenceAngle,
	}
}

// WithImagesFrom keeps every parameter of c but takes the image fields from
// current.
func (c Config) WithImagesFrom(current Config) Config {
	out := c.WithoutImages()
	out.RugImages = append([]Image{}, current.RugImages...)
	if current.RoomReference != nil {
		ref := *current.RoomReference
		out.RoomReference = &ref
	}
	return out
}

func (c Config) HasImages() bool {
	return len(c.RugImages) > 0 || c.RoomReference != nil
}

func (c Config) Validate() error {
	var errs []error
	if !c.AspectRatio.Valid() {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidAspectRatio, c.AspectRatio))
	}
	if strings.TrimSpace(c.Lens) == "" {
		errs = append(errs, errors.New("lens is empty"))
	}
	if !ValidAngle(c.Angle) {
		errs = append(errs, fmt.Errorf("%w: %v", ErrInvalidAngle, c.Angle))
	}
	if !ValidAngle(c.ReferenceAngle) {
		errs = append(errs, fmt.Errorf("reference %w: %v", ErrInvalidAngle, c.ReferenceAngle))
	}
	if c.CameraHeight < MinCameraHeight || c.CameraHeight > MaxCameraHeight {
		errs = append(errs, fmt.Errorf("camera height out of range: %d", c.CameraHeight))
	}
	if c.RugScale < MinRugScale || c.RugScale > MaxRugScale {
		errs = append(errs, fmt.Errorf("rug scale out of range: %d", c.RugScale))
	}
	for _, l := range c.Lighting {
		if !l.Valid() {
			errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidLighting, l))
		}
	}
	if len(c.RugImages) > MaxRugImages {
		errs = append(errs, fmt.Errorf("%w: %d", ErrTooManyRugImages, len(c.RugImages)))
	}
	return errors.Join(errs...)
}

// ValidAngle reports whether v lies on the 0.5 grid between MinAngle and MaxAngle.
func ValidAngle(v float64) bool {
	if v < MinAngle || v > MaxAngle {
		return false
	}
	steps := (v - MinAngle) / AngleStep
	return math.Abs(steps-math.Round(steps)) < 1e-9
}

func (c Config) clone() Config {
	out := c
	out.Lighting = append([]Lighting{}, c.Lighting...)
	out.RugImages = append([]Image{}, c.RugImages...)
	if c.RoomReference != nil {
		ref := *c.RoomReference
		out.RoomReference = &ref
	}
	return out
}
