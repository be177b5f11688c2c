package fs

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/srcset/internal/core/ports"
)

const (
	// WalkerNodeID is the unique identifier for the source discovery Graft node.
	WalkerNodeID graft.ID = "adapter.fs.walker"
	// InspectorNodeID is the unique identifier for the source inspector Graft node.
	InspectorNodeID graft.ID = "adapter.fs.inspector"
)

func init() {
	graft.Register(graft.Node[*Walker]{
		ID:        WalkerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Walker, error) {
			return NewWalker(), nil
		},
	})

	graft.Register(graft.Node[ports.SourceInspector]{
		ID:        InspectorNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.SourceInspector, error) {
			return NewInspector(), nil
		},
	})
}
