package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/srcset/internal/adapters/cas"       //nolint:depguard // Wired in app layer
	"go.trai.ch/srcset/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/srcset/internal/adapters/fs"        //nolint:depguard // Wired in app layer
	"go.trai.ch/srcset/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/srcset/internal/adapters/raster"    //nolint:depguard // Wired in app layer
	"go.trai.ch/srcset/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/srcset/internal/adapters/watcher"   //nolint:depguard // Wired in app layer
	"go.trai.ch/srcset/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components bundles what the CLI needs from the dependency graph.
type Components struct {
	App    *App
	Logger ports.Logger
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			fs.WalkerNodeID,
			fs.InspectorNodeID,
			raster.DecoderNodeID,
			raster.ResizerNodeID,
			cas.NodeID,
			watcher.NodeID,
			logger.NodeID,
			telemetry.NoOpTracerNodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			a, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{App: a, Logger: log}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}
	walker, err := graft.Dep[*fs.Walker](ctx)
	if err != nil {
		return nil, err
	}
	inspector, err := graft.Dep[ports.SourceInspector](ctx)
	if err != nil {
		return nil, err
	}
	decoder, err := graft.Dep[ports.Decoder](ctx)
	if err != nil {
		return nil, err
	}
	resizer, err := graft.Dep[ports.Resizer](ctx)
	if err != nil {
		return nil, err
	}
	caches, err := graft.Dep[ports.VariantCacheFactory](ctx)
	if err != nil {
		return nil, err
	}
	w, err := graft.Dep[ports.Watcher](ctx)
	if err != nil {
		return nil, err
	}
	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}
	tracer, err := graft.Dep[ports.Tracer](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, walker, inspector, decoder, resizer, caches, w, log, tracer), nil
}
