// Package config provides the configuration loader for srcset.
package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"go.trai.ch/srcset/internal/core/domain"
	"go.trai.ch/srcset/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.ConfigLoader = (*Loader)(nil)

// Loader implements ports.ConfigLoader for YAML and TOML files.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load returns the settings for cwd. An explicit path wins over discovery;
// without either, defaults apply with the cache under cwd.
func (l *Loader) Load(cwd, path string) (*domain.Settings, error) {
	if path != "" && !filepath.IsAbs(path) {
		path = filepath.Join(cwd, path)
	}

	if path == "" {
		found, err := l.findConfiguration(cwd)
		if err != nil {
			return nil, err
		}
		path = found
	}

	file := &File{}
	if path != "" {
		if err := decodeFile(path, file); err != nil {
			return nil, err
		}
	}

	settings, err := resolve(file, path, cwd)
	if err != nil {
		return nil, zerr.With(err, "config", path)
	}
	return settings, nil
}

// findConfiguration walks up from cwd and returns the first config file, or "" when none exists.
func (l *Loader) findConfiguration(cwd string) (string, error) {
	dir, err := filepath.Abs(cwd)
	if err != nil {
		return "", zerr.With(errors.Join(domain.ErrConfigReadFailed, err), "cwd", cwd)
	}

	for {
		yamlPath := filepath.Join(dir, domain.YAMLConfigFileName)
		tomlPath := filepath.Join(dir, domain.TOMLConfigFileName)
		hasYAML, hasTOML := exists(yamlPath), exists(tomlPath)

		switch {
		case hasYAML && hasTOML:
			l.Logger.Warn("both " + domain.YAMLConfigFileName + " and " + domain.TOMLConfigFileName +
				" found in " + dir + ", using " + domain.YAMLConfigFileName)
			return yamlPath, nil
		case hasYAML:
			return yamlPath, nil
		case hasTOML:
			return tomlPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func decodeFile(path string, file *File) error {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by the user
	if err != nil {
		return zerr.With(errors.Join(domain.ErrConfigReadFailed, err), "path", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(file); err != nil && !errors.Is(err, io.EOF) {
			return zerr.With(errors.Join(domain.ErrConfigParseFailed, err), "path", path)
		}
	case ".toml":
		md, err := toml.Decode(string(data), file)
		if err != nil {
			return zerr.With(errors.Join(domain.ErrConfigParseFailed, err), "path", path)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			err := zerr.Wrap(domain.ErrConfigParseFailed, "unknown field "+undecoded[0].String())
			return zerr.With(err, "path", path)
		}
	default:
		return zerr.With(zerr.Wrap(domain.ErrUnknownConfigFormat, "cannot decode config"), "path", path)
	}

	return nil
}

// resolve applies defaults and makes the cache directory absolute relative to the config file.
func resolve(file *File, path, cwd string) (*domain.Settings, error) {
	cfg := domain.DefaultConfig()
	if file.MaxViewportWidth != nil {
		cfg.MaxViewportWidth = *file.MaxViewportWidth
	}
	if file.WidthMin != nil {
		cfg.WidthMin = *file.WidthMin
	}
	if file.WidthStep != nil {
		cfg.WidthStep = *file.WidthStep
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if file.Parallelism < 0 {
		err := zerr.Wrap(domain.ErrInvalidConfiguration, "parallelism must not be negative")
		return nil, zerr.With(err, "parallelism", file.Parallelism)
	}

	base := cwd
	if path != "" {
		base = filepath.Dir(path)
	}

	cacheDir := file.CacheDir
	if cacheDir == "" {
		cacheDir = domain.DefaultCachePath()
	}
	if !filepath.IsAbs(cacheDir) {
		cacheDir = filepath.Join(base, cacheDir)
	}
	cacheDir, err := filepath.Abs(cacheDir)
	if err != nil {
		return nil, zerr.With(errors.Join(domain.ErrConfigReadFailed, err), "cache_dir", file.CacheDir)
	}

	var alternates []domain.Format
	if file.WebP == nil || *file.WebP {
		alternates = []domain.Format{domain.FormatWebP}
	}

	return &domain.Settings{
		Config:      cfg,
		CacheDir:    cacheDir,
		Parallelism: file.Parallelism,
		Alternates:  alternates,
		Source:      path,
	}, nil
}
