package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"home-rugs-studio/internal/room"
)

func newOptionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "options",
		Short: "Show the available scene options",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printOptions(cmd.OutOrStdout())
			return nil
		},
	}
}

func printOptions(w io.Writer) {
	header := color.New(color.FgCyan, color.Bold)
	key := color.New(color.FgGreen)
	dim := color.New(color.FgHiBlack)

	header.Fprintln(w, "Aspect ratios")
	for _, r := range room.AspectRatios() {
		key.Fprintf(w, "  %-6s", r.Key)
		dim.Fprintf(w, " %s (model ratio %s)\n", r.Description, room.AspectRatio(r.Key).ProviderRatio())
	}

	header.Fprintln(w, "\nLenses")
	for _, l := range room.Lenses() {
		key.Fprintf(w, "  %-16s", l.Key)
		fmt.Fprintf(w, " %s ", l.Name)
		dim.Fprintf(w, "%s\n", l.Description)
	}

	header.Fprintln(w, "\nAngles")
	for _, a := range room.Angles() {
		key.Fprintf(w, "  %.1f", a.Value)
		fmt.Fprintf(w, "  %-18s", a.Label)
		dim.Fprintf(w, " %s\n", a.Description)
	}

	header.Fprintln(w, "\nLighting")
	for _, l := range room.LightingOptions() {
		key.Fprintf(w, "  %s\n", l)
	}

	header.Fprintln(w, "\nCamera height")
	for _, h := range []int{1, 3, 5, 7, 10} {
		key.Fprintf(w, "  %-2d", h)
		dim.Fprintf(w, " %s\n", room.CameraHeightLabel(h))
	}
}
