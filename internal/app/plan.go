package app

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.trai.ch/srcset/internal/engine/planner"
	"go.trai.ch/srcset/internal/ui/style"
	"go.trai.ch/zerr"
)

// PlanOptions configuration for the Plan method.
type PlanOptions struct {
	// Config names the config file; empty means discovery.
	Config string
	// Width is the intrinsic width to plan for.
	Width int
}

// Plan prints the widths that would be generated for an image of the given intrinsic width.
func (a *App) Plan(_ context.Context, opts PlanOptions) error {
	cwd, err := os.Getwd()
	if err != nil {
		return zerr.Wrap(err, "failed to determine working directory")
	}

	settings, err := a.configLoader.Load(cwd, opts.Config)
	if err != nil {
		return zerr.Wrap(err, "failed to load configuration")
	}

	plan, err := planner.Plan(opts.Width, settings.MaxViewportWidth, settings.WidthMin, settings.WidthStep)
	if err != nil {
		return err
	}

	widths := make([]string, len(plan))
	for i, w := range plan {
		widths[i] = strconv.Itoa(w)
	}

	heading := fmt.Sprintf("%dpx (max viewport %dpx, min %dpx, step %dpx)",
		opts.Width, settings.MaxViewportWidth, settings.WidthMin, settings.WidthStep)
	_, err = fmt.Fprintf(a.stdout, "%s\n%s\n", style.Heading.Render(heading), strings.Join(widths, " "))
	return err
}
