package cas

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/srcset/internal/core/ports"
)

// NodeID is the unique identifier for the variant cache factory Graft node.
const NodeID graft.ID = "adapter.variant_cache"

func init() {
	graft.Register(graft.Node[ports.VariantCacheFactory]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.VariantCacheFactory, error) {
			return NewFactory(), nil
		},
	})
}
