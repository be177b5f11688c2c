package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/srcset/internal/app"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [paths...]",
		Short: "Generate variants for the images under the given paths",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Build(cmd.Context(), args, buildOptions(cmd))
		},
	}
	addBuildFlags(cmd)
	cmd.Flags().Bool("keep-going", false, "Report failed images as warnings and exit successfully")
	return cmd
}

func addBuildFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("out", "o", "", "Publish variants into this directory")
	cmd.Flags().StringP("prefix", "p", "", "URL prefix for published variants in the printed srcset")
	cmd.Flags().IntP("display-width", "w", 0, "Intended display width in CSS pixels for the sizes attribute")
	cmd.Flags().Bool("json", false, "Print a JSON manifest instead of markup lines")
	cmd.Flags().BoolP("quiet", "q", false, "Disable progress output")
}

func buildOptions(cmd *cobra.Command) app.BuildOptions {
	out, _ := cmd.Flags().GetString("out")
	prefix, _ := cmd.Flags().GetString("prefix")
	displayWidth, _ := cmd.Flags().GetInt("display-width")
	asJSON, _ := cmd.Flags().GetBool("json")
	quiet, _ := cmd.Flags().GetBool("quiet")
	keepGoing, _ := cmd.Flags().GetBool("keep-going")

	return app.BuildOptions{
		Config:       configFlag(cmd),
		Out:          out,
		Prefix:       prefix,
		DisplayWidth: displayWidth,
		JSON:         asJSON,
		Quiet:        quiet,
		KeepGoing:    keepGoing,
	}
}
