// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/srcset/internal/adapters/cas"
	_ "go.trai.ch/srcset/internal/adapters/config"
	_ "go.trai.ch/srcset/internal/adapters/fs"
	_ "go.trai.ch/srcset/internal/adapters/logger"
	_ "go.trai.ch/srcset/internal/adapters/raster"
	_ "go.trai.ch/srcset/internal/adapters/telemetry"
	_ "go.trai.ch/srcset/internal/adapters/watcher"
	// Register app nodes.
	_ "go.trai.ch/srcset/internal/app"
)
