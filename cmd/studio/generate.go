package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"home-rugs-studio/internal/export"
	"home-rugs-studio/internal/room"
	"home-rugs-studio/internal/studio"
	"home-rugs-studio/internal/upload"
)

func newGenerateCmd() *cobra.Command {
	var (
		scene     sceneFlags
		preset    string
		rugs      []string
		roomPhoto string
		out       string
		target    string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate one room image and save it",
		Example: `  # Square living room with the rug from rug.jpg
  studio generate --rug rug.jpg

  # Keep a real room, swap in a new rug, shot from the back wall
  studio generate --room living-room.jpg --reference-angle 1 --rug rug.jpg --angle 3

  # Start from a saved preset and send the result to Telegram
  studio generate --preset 6f1c... --rug rug.jpg --export telegram`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if preset != "" {
				if _, err := a.session.LoadPreset(preset); err != nil {
					return err
				}
			}
			if _, err := a.session.UpdateConfig(func(c room.Config) (room.Config, error) {
				return scene.apply(cmd, c)
			}); err != nil {
				return err
			}

			if len(rugs) > room.MaxRugImages {
				fmt.Fprintf(cmd.ErrOrStderr(), "only the first %d rug images are used\n", room.MaxRugImages)
			}
			sources := make([]upload.Source, 0, len(rugs))
			for _, path := range rugs {
				sources = append(sources, upload.FileSource(path))
			}
			if images := a.uploads.ReadAll(ctx, sources); len(images) > 0 {
				a.session.AttachRugImages(images)
			} else if len(rugs) > 0 {
				return fmt.Errorf("none of the rug images could be read")
			}

			if roomPhoto != "" {
				img, err := a.uploads.Read(upload.FileSource(roomPhoto))
				if err != nil {
					return err
				}
				a.session.SetRoomReference(&img)
			}

			if st := a.session.CheckCredential(ctx); st.Status != studio.StatusReady {
				return fmt.Errorf("%w: set GEMINI_API_KEY", studio.ErrNoCredential)
			}

			img, err := a.session.Generate(ctx)
			if err != nil {
				return err
			}

			location, err := deliver(a, cmd, img, out, target)
			if err != nil {
				return err
			}
			color.New(color.FgGreen, color.Bold).Fprint(cmd.OutOrStdout(), "✓ ")
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", img.ID, location)
			return nil
		},
	}

	scene.register(cmd)
	cmd.Flags().StringVar(&preset, "preset", "", "Preset id to start from")
	cmd.Flags().StringSliceVar(&rugs, "rug", nil, "Rug photo path, repeatable (max 3)")
	cmd.Flags().StringVar(&roomPhoto, "room", "", "Room reference photo path")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file path (default: EXPORT_DIR/home-rugs-<id>.png)")
	cmd.Flags().StringVar(&target, "export", "file", "Export target: file or telegram")
	return cmd
}

func deliver(a *app, cmd *cobra.Command, img room.GeneratedImage, out, target string) (string, error) {
	if out != "" {
		data, err := export.Decode(img)
		if err != nil {
			return "", err
		}
		if dir := filepath.Dir(out); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", err
			}
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return "", err
		}
		return out, nil
	}

	exporter, ok := a.exporters[target]
	if !ok {
		return "", fmt.Errorf("export target %q is not configured", target)
	}
	return exporter.Export(cmd.Context(), img)
}
