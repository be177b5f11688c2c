package domain

import "go.trai.ch/zerr"

const (
	// DefaultMaxViewportWidth is the default widest viewport the site is designed for.
	DefaultMaxViewportWidth = 1000
	// DefaultWidthMin is the default smallest variant width.
	DefaultWidthMin = 500
	// DefaultWidthStep is the default distance between two variant widths.
	DefaultWidthStep = 300
)

// Config holds the bounds used to plan variant widths.
type Config struct {
	MaxViewportWidth int `yaml:"max_viewport_width" toml:"max_viewport_width" json:"max_viewport_width"`
	WidthMin         int `yaml:"width_min"          toml:"width_min"          json:"width_min"`
	WidthStep        int `yaml:"width_step"         toml:"width_step"         json:"width_step"`
}

// DefaultConfig returns the default width bounds.
func DefaultConfig() Config {
	return Config{
		MaxViewportWidth: DefaultMaxViewportWidth,
		WidthMin:         DefaultWidthMin,
		WidthStep:        DefaultWidthStep,
	}
}

// MaxWidth returns the largest width ever produced for this config.
func (c Config) MaxWidth() int {
	return 2 * c.MaxViewportWidth
}

// Validate reports ErrInvalidConfiguration for unusable bounds.
func (c Config) Validate() error {
	switch {
	case c.MaxViewportWidth <= 0:
		return notPositive("max_viewport_width", c.MaxViewportWidth)
	case c.WidthMin <= 0:
		return notPositive("width_min", c.WidthMin)
	case c.WidthStep <= 0:
		return notPositive("width_step", c.WidthStep)
	case c.WidthMin > c.MaxWidth():
		err := zerr.Wrap(ErrInvalidConfiguration, "width_min exceeds twice max_viewport_width")
		err = zerr.With(err, "width_min", c.WidthMin)
		return zerr.With(err, "max_width", c.MaxWidth())
	}
	return nil
}

func notPositive(key string, value int) error {
	return zerr.With(zerr.Wrap(ErrInvalidConfiguration, key+" must be positive"), key, value)
}

// Settings is the full host configuration: width bounds plus where and how to run.
type Settings struct {
	Config
	// CacheDir is the absolute path of the variant cache.
	CacheDir string
	// Parallelism bounds concurrent work; zero means one worker per CPU.
	Parallelism int
	// Alternates are extra output formats offered ahead of the source format.
	Alternates []Format
	// Source is the config file the settings were read from, empty for defaults.
	Source string
}
