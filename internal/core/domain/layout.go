package domain

import "path/filepath"

const (
	// SrcsetDirName is the name of the internal workspace directory.
	SrcsetDirName = ".srcset"

	// CacheDirName is the name of the variant cache directory.
	CacheDirName = "cache"

	// VariantsDirName is the name of the directory holding generated variants inside the cache.
	VariantsDirName = "variants"

	// IndexFileName is the name of the cache index file.
	IndexFileName = "index.json"

	// IndexVersion is the current version of the on-disk index format.
	IndexVersion = 1

	// TempPattern is the pattern used for in-flight cache writes.
	// Files matching it are never referenced by the index.
	TempPattern = ".tmp-*"

	// YAMLConfigFileName is the name of the YAML configuration file.
	YAMLConfigFileName = "srcset.yaml"

	// TOMLConfigFileName is the name of the TOML configuration file.
	TOMLConfigFileName = "srcset.toml"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// DefaultCachePath returns the default path for the variant cache.
// It joins .srcset and cache.
func DefaultCachePath() string {
	return filepath.Join(SrcsetDirName, CacheDirName)
}
