package main

import (
	"github.com/spf13/cobra"

	"home-rugs-studio/internal/room"
)

// sceneFlags binds one flag per scene parameter. Only flags the user set are
// applied, so presets and defaults show through.
type sceneFlags struct {
	aspectRatio    string
	lens           string
	angle          float64
	cameraHeight   int
	lighting       []string
	rugScale       int
	extraPrompt    string
	referenceAngle float64
}

func (f *sceneFlags) register(cmd *cobra.Command) {
	d := room.Default()
	fs := cmd.Flags()
	fs.StringVar(&f.aspectRatio, "aspect-ratio", string(d.AspectRatio), "Aspect ratio (1:1, 4:5, 9:16, 3:2, 2:1, 16:9)")
	fs.StringVar(&f.lens, "lens", d.Lens, "Lens id (see `studio options`)")
	fs.Float64Var(&f.angle, "angle", d.Angle, "Camera angle 1.0-5.0 in 0.5 steps")
	fs.IntVar(&f.cameraHeight, "camera-height", d.CameraHeight, "Camera height 1-10")
	fs.StringSliceVar(&f.lighting, "lighting", nil, "Lighting options, repeatable")
	fs.IntVar(&f.rugScale, "rug-scale", d.RugScale, "Rug scale 1-10")
	fs.StringVar(&f.extraPrompt, "extra", "", "Additional scene instructions")
	fs.Float64Var(&f.referenceAngle, "reference-angle", d.ReferenceAngle, "Angle the room reference photo was taken from")
}

func (f *sceneFlags) apply(cmd *cobra.Command, cfg room.Config) (room.Config, error) {
	fs := cmd.Flags()
	var err error
	if fs.Changed("aspect-ratio") {
		if cfg, err = cfg.WithAspectRatio(room.AspectRatio(f.aspectRatio)); err != nil {
			return cfg, err
		}
	}
	if fs.Changed("lens") {
		if cfg, err = cfg.WithLens(f.lens); err != nil {
			return cfg, err
		}
	}
	if fs.Changed("angle") {
		if cfg, err = cfg.WithAngle(f.angle); err != nil {
			return cfg, err
		}
	}
	if fs.Changed("camera-height") {
		if cfg, err = cfg.WithCameraHeight(f.cameraHeight); err != nil {
			return cfg, err
		}
	}
	if fs.Changed("lighting") {
		opts := make([]room.Lighting, 0, len(f.lighting))
		for _, l := range f.lighting {
			opts = append(opts, room.Lighting(l))
		}
		if cfg, err = cfg.WithLighting(opts); err != nil {
			return cfg, err
		}
	}
	if fs.Changed("rug-scale") {
		if cfg, err = cfg.WithRugScale(f.rugScale); err != nil {
			return cfg, err
		}
	}
	if fs.Changed("extra") {
		cfg = cfg.WithExtraPrompt(f.extraPrompt)
	}
	if fs.Changed("reference-angle") {
		if cfg, err = cfg.WithReferenceAngle(f.referenceAngle); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}
