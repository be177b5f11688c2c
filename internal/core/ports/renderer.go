package ports

import (
	"context"
	"time"

	"go.trai.ch/srcset/internal/core/domain"
)

// Renderer is the abstraction for progress output.
// It decouples telemetry collection from presentation logic.
//
//go:generate mockgen -source=renderer.go -destination=mocks/mock_renderer.go -package=mocks
type Renderer interface {
	// Start initializes the renderer.
	Start(ctx context.Context) error

	// Stop signals the renderer to stop accepting events and flushes buffered output.
	Stop() error

	// Wait blocks until the renderer has fully terminated.
	Wait() error

	// OnPlanEmit is called once the images of a build are known.
	OnPlanEmit(images []string)

	// OnImageStart is called when a unit of work begins.
	// spanID: unique identifier for this unit of work
	// parentID: spanID of the enclosing unit (empty if root)
	// name: human-readable name
	OnImageStart(spanID, parentID, name string, startTime time.Time)

	// OnImageLog is called when a unit of work emits output.
	// data may contain partial lines.
	OnImageLog(spanID string, data []byte)

	// OnImageComplete is called when a unit of work finishes.
	// summary: variant counts reported by the unit, zero if it reported none
	// err: nil if successful, error otherwise
	OnImageComplete(spanID string, endTime time.Time, summary domain.ImageSummary, err error)
}
