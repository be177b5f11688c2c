package raster

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/srcset/internal/core/ports"
)

const (
	// DecoderNodeID is the unique identifier for the decoder Graft node.
	DecoderNodeID graft.ID = "adapter.raster.decoder"
	// ResizerNodeID is the unique identifier for the resizer Graft node.
	ResizerNodeID graft.ID = "adapter.raster.resizer"
)

func init() {
	graft.Register(graft.Node[ports.Decoder]{
		ID:        DecoderNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Decoder, error) {
			return NewDecoder(), nil
		},
	})

	graft.Register(graft.Node[ports.Resizer]{
		ID:        ResizerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Resizer, error) {
			return NewResizer(), nil
		},
	})
}
