package telemetry

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/srcset/internal/core/ports"
)

// NoOpTracerNodeID is the unique identifier for the silent tracer Graft node.
const NoOpTracerNodeID graft.ID = "adapter.telemetry.noop"

func init() {
	graft.Register(graft.Node[ports.Tracer]{
		ID:        NoOpTracerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Tracer, error) {
			return NewNoOpTracer(), nil
		},
	})
}
