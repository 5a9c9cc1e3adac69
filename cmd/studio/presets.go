package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"home-rugs-studio/internal/room"
)

func newPresetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "Manage saved scene presets",
	}
	cmd.AddCommand(
		newPresetsListCmd(),
		newPresetsSaveCmd(),
		newPresetsDeleteCmd(),
		newPresetsExportCmd(),
		newPresetsImportCmd(),
	)
	return cmd
}

func newPresetsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			list := a.presets.List()
			if len(list) == 0 {
				color.New(color.FgHiBlack).Fprintln(cmd.OutOrStdout(), "no presets saved")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			header := color.New(color.FgCyan, color.Bold)
			header.Fprintln(tw, "ID\tNAME\tRATIO\tLENS\tANGLE\tLIGHTING\tSAVED")
			for _, p := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					p.ID,
					p.Name,
					p.Config.AspectRatio,
					p.Config.Lens,
					room.AngleLabel(p.Config.Angle),
					lightingList(p.Config.Lighting),
					p.CreatedAt.Local().Format("2006-01-02 15:04"),
				)
			}
			return tw.Flush()
		},
	}
}

func newPresetsSaveCmd() *cobra.Command {
	var scene sceneFlags

	cmd := &cobra.Command{
		Use:     "save NAME",
		Short:   "Save scene parameters as a preset",
		Example: `  studio presets save "Evening loft" --aspect-ratio 16:9 --lens 35mm --lighting "Golden Hour"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			cfg, err := scene.apply(cmd, room.Default())
			if err != nil {
				return err
			}
			p, err := a.presets.Save(cmd.Context(), args[0], cfg)
			if err != nil {
				return err
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "saved %q as %s\n", p.Name, p.ID)
			return nil
		},
	}
	scene.register(cmd)
	return cmd
}

func newPresetsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if _, ok := a.presets.Get(args[0]); !ok {
				color.New(color.FgYellow).Fprintf(cmd.ErrOrStderr(), "preset %s not found\n", args[0])
				return nil
			}
			a.presets.Delete(cmd.Context(), args[0])
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func newPresetsExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [FILE]",
		Short: "Write presets as YAML to FILE or stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if len(args) == 0 {
				return a.presets.ExportYAML(cmd.OutOrStdout())
			}
			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			if err := a.presets.ExportYAML(f); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
}

func newPresetsImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import presets from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			imported, err := a.presets.ImportYAML(cmd.Context(), f)
			for _, p := range imported {
				color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "imported %q as %s\n", p.Name, p.ID)
			}
			return err
		},
	}
}

func lightingList(options []room.Lighting) string {
	if len(options) == 0 {
		return "-"
	}
	names := make([]string, 0, len(options))
	for _, l := range options {
		names = append(names, string(l))
	}
	return strings.Join(names, ", ")
}
