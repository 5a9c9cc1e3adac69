package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "studio",
		Short: "Room-with-rug photo generator",
		Long: `Studio renders photorealistic rooms around a rug using a Gemini image model.

Configure the scene (aspect ratio, lens, angle, lighting, rug scale), attach up to
three rug photos and an optional room reference, then generate, edit or resize
the result. Named presets keep scene parameters between sessions.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
		},
	}

	cmd.AddCommand(
		newServeCmd(),
		newGenerateCmd(),
		newPresetsCmd(),
		newOptionsCmd(),
	)
	return cmd
}
