package domain

import "go.trai.ch/zerr"

var (
	// ErrInvalidConfiguration is returned when the width bounds are not usable.
	// It is fatal for a build and is reported before any image is touched.
	ErrInvalidConfiguration = zerr.New("invalid configuration")

	// ErrInvalidDimensions is returned when an image width cannot be planned or resized.
	ErrInvalidDimensions = zerr.New("invalid image dimensions")

	// ErrDecodeFailed is returned when source bytes cannot be decoded as an image.
	ErrDecodeFailed = zerr.New("failed to decode image")

	// ErrUnsupportedFormat is returned when a source format cannot be re-encoded.
	ErrUnsupportedFormat = zerr.New("unsupported image format")

	// ErrEncodeFailed is returned when a resized image cannot be encoded.
	ErrEncodeFailed = zerr.New("failed to encode image")

	// ErrCacheWriteFailed is returned when a variant cannot be written to the cache.
	ErrCacheWriteFailed = zerr.New("failed to write variant to cache")

	// ErrGenerationFailed is returned when no variant of an image could be produced.
	ErrGenerationFailed = zerr.New("failed to generate any variant")

	// ErrSourceReadFailed is returned when a source image cannot be read.
	ErrSourceReadFailed = zerr.New("failed to read source image")

	// ErrSourceChanged is returned when a source changed between inspection and decoding.
	ErrSourceChanged = zerr.New("source image changed during processing")

	// ErrIndexReadFailed is returned when the cache index cannot be read.
	ErrIndexReadFailed = zerr.New("failed to read cache index")

	// ErrIndexWriteFailed is returned when the cache index cannot be written.
	ErrIndexWriteFailed = zerr.New("failed to write cache index")

	// ErrCacheCreateFailed is returned when the cache directory cannot be created.
	ErrCacheCreateFailed = zerr.New("failed to create cache directory")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrUnknownConfigFormat is returned when the config file extension is not recognized.
	ErrUnknownConfigFormat = zerr.New("unknown config file format, expected .yaml, .yml or .toml")

	// ErrNoSources is returned when no source images were found for a build.
	ErrNoSources = zerr.New("no source images found")

	// ErrPublishFailed is returned when a variant cannot be copied into the output directory.
	ErrPublishFailed = zerr.New("failed to publish variant")

	// ErrBuildFailed is returned when at least one image failed during a build.
	ErrBuildFailed = zerr.New("build failed")
)
