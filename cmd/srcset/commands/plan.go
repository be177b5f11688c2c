package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/srcset/internal/app"
)

func (c *CLI) newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the widths generated for an image of the given width",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			width, _ := cmd.Flags().GetInt("width")
			return c.app.Plan(cmd.Context(), app.PlanOptions{
				Config: configFlag(cmd),
				Width:  width,
			})
		},
	}
	cmd.Flags().Int("width", 0, "Intrinsic width of the image in pixels")
	_ = cmd.MarkFlagRequired("width")
	return cmd
}
