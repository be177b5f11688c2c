package config

// File is the on-disk shape of srcset.yaml and srcset.toml.
// Width bounds are pointers so an explicit zero is rejected instead of defaulted.
type File struct {
	MaxViewportWidth *int   `yaml:"max_viewport_width" toml:"max_viewport_width"`
	WidthMin         *int   `yaml:"width_min"          toml:"width_min"`
	WidthStep        *int   `yaml:"width_step"         toml:"width_step"`
	CacheDir         string `yaml:"cache_dir"          toml:"cache_dir"`
	Parallelism      int    `yaml:"parallelism"        toml:"parallelism"`
	// WebP enables WebP alternates of every source. Unset means enabled.
	WebP *bool `yaml:"webp" toml:"webp"`
}
