// Package planner computes the set of widths worth generating for an image.
package planner

import (
	"sync"

	"go.trai.ch/srcset/internal/core/domain"
	"go.trai.ch/zerr"
)

// Plan returns the widths to generate for an image of the given intrinsic width.
//
// Widths start at widthMin and grow by widthStep until the ceiling is reached.
// The ceiling is the smaller of the intrinsic width and twice maxViewportWidth,
// and the last step is clamped to it. Images narrower than widthMin yield a
// single width equal to the ceiling, so nothing is ever upscaled.
func Plan(intrinsicWidth, maxViewportWidth, widthMin, widthStep int) (domain.ResolutionPlan, error) {
	switch {
	case widthStep <= 0:
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidConfiguration, "width_step must be positive"), "width_step", widthStep)
	case widthMin <= 0:
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidConfiguration, "width_min must be positive"), "width_min", widthMin)
	case maxViewportWidth <= 0:
		return nil, zerr.With(
			zerr.Wrap(domain.ErrInvalidConfiguration, "max_viewport_width must be positive"),
			"max_viewport_width", maxViewportWidth,
		)
	case intrinsicWidth <= 0:
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidDimensions, "intrinsic width must be positive"), "width", intrinsicWidth)
	}

	ceiling := min(intrinsicWidth, 2*maxViewportWidth)
	if ceiling <= widthMin {
		return domain.ResolutionPlan{ceiling}, nil
	}

	plan := make(domain.ResolutionPlan, 0, (ceiling-widthMin)/widthStep+2)
	for w := widthMin; ; w += widthStep {
		if w >= ceiling {
			w = ceiling
		}
		if n := len(plan); n == 0 || plan[n-1] != w {
			plan = append(plan, w)
		}
		if w == ceiling {
			return plan, nil
		}
	}
}

// Planner memoizes plans for a fixed set of bounds.
// Many images share an intrinsic width, so repeated plans are served from memory.
type Planner struct {
	cfg   domain.Config
	plans sync.Map // intrinsic width -> domain.ResolutionPlan
}

// New validates cfg and returns a Planner bound to it.
func New(cfg domain.Config) (*Planner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Planner{cfg: cfg}, nil
}

// Config returns the bounds the planner was created with.
func (p *Planner) Config() domain.Config {
	return p.cfg
}

// Plan returns the widths to generate for an image of the given intrinsic width.
// The returned slice is shared and must not be modified.
func (p *Planner) Plan(intrinsicWidth int) (domain.ResolutionPlan, error) {
	if cached, ok := p.plans.Load(intrinsicWidth); ok {
		//nolint:errcheck,forcetypeassert // only ResolutionPlan values are stored
		return cached.(domain.ResolutionPlan), nil
	}

	plan, err := Plan(intrinsicWidth, p.cfg.MaxViewportWidth, p.cfg.WidthMin, p.cfg.WidthStep)
	if err != nil {
		return nil, err
	}
	p.plans.Store(intrinsicWidth, plan)
	return plan, nil
}
