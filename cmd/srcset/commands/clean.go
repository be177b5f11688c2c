package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/srcset/internal/app"
)

func (c *CLI) newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove the variant cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			prune, _ := cmd.Flags().GetBool("prune")
			return c.app.Clean(cmd.Context(), app.CleanOptions{
				Config: configFlag(cmd),
				Prune:  prune,
			})
		},
	}
	cmd.Flags().Bool("prune", false, "Only delete variant files the cache index no longer references")
	return cmd
}
