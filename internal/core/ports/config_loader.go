package ports

import "go.trai.ch/srcset/internal/core/domain"

// ConfigLoader defines the interface for loading the host configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load returns the settings for a build started in cwd.
	// If path is non-empty it names the config file explicitly; otherwise the
	// loader walks up from cwd and falls back to defaults when nothing is found.
	Load(cwd, path string) (*domain.Settings, error)
}
