// Package cas implements the content-addressed variant cache.
package cas

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.trai.ch/srcset/internal/core/domain"
	"go.trai.ch/srcset/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

var _ ports.VariantCache = (*Store)(nil)

// index is the on-disk form of the cache index.
type index struct {
	Version int                             `json:"version"`
	Records map[string]domain.VariantRecord `json:"records"`
	Sources map[string]domain.SourceEntry   `json:"sources"`
}

// Store is a variant cache rooted at a directory.
// Variant files are immutable once published; the index maps keys to them.
type Store struct {
	root string
	now  func() time.Time

	mu      sync.RWMutex
	records map[string]domain.VariantRecord
	sources map[string]domain.SourceEntry
	dirty   bool

	inflight singleflight.Group
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used to stamp new records.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Open loads the cache rooted at root, creating it if needed.
// A missing, corrupt or outdated index is treated as empty.
// Temp files left behind by interrupted stores are removed.
func Open(root string, opts ...Option) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, zerr.With(errors.Join(domain.ErrCacheCreateFailed, err), "path", root)
	}

	s := &Store{
		root:    abs,
		now:     time.Now,
		records: make(map[string]domain.VariantRecord),
		sources: make(map[string]domain.SourceEntry),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(filepath.Join(abs, domain.VariantsDirName), domain.DirPerm); err != nil {
		return nil, zerr.With(errors.Join(domain.ErrCacheCreateFailed, err), "path", abs)
	}

	if err := s.load(); err != nil {
		return nil, err
	}
	s.sweepTemp()

	return s, nil
}

func (s *Store) indexPath() string {
	return filepath.Join(s.root, domain.IndexFileName)
}

func (s *Store) load() error {
	//nolint:gosec // Path is constructed from the cache root
	data, err := os.ReadFile(s.indexPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return zerr.With(errors.Join(domain.ErrIndexReadFailed, err), "path", s.indexPath())
	}

	var idx index
	if err := json.Unmarshal(data, &idx); err != nil || idx.Version != domain.IndexVersion {
		// Start over. Files of the old index become unreferenced and are left for Prune.
		s.dirty = true
		return nil
	}

	for k, rec := range idx.Records {
		if !valid(k, rec) {
			// Never trust a path from disk; the file is left for Prune.
			s.dirty = true
			continue
		}
		s.records[k] = rec
	}
	for p, entry := range idx.Sources {
		s.sources[p] = entry
	}
	return nil
}

// valid reports whether rec is the record srcset would have written under k.
func valid(k string, rec domain.VariantRecord) bool {
	return rec.Key.Valid() && rec.Key.String() == k && rec.Path == rec.Key.RelPath()
}

// file returns the absolute path of the variant file of key.
func (s *Store) file(key domain.VariantKey) string {
	return filepath.Join(s.root, filepath.FromSlash(key.RelPath()))
}

// sweepTemp removes temp files left by stores that never reached their rename.
func (s *Store) sweepTemp() {
	_ = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // best effort
		}
		if !d.IsDir() && isTemp(d.Name()) {
			_ = os.Remove(path)
		}
		return nil
	})
}

func isTemp(name string) bool {
	matched, _ := filepath.Match(domain.TempPattern, name)
	return matched
}

// Root returns the absolute cache directory.
func (s *Store) Root() string {
	return s.root
}

// Lookup returns the record for key if its file is still intact.
// Dangling records are dropped from the index and reported as misses.
func (s *Store) Lookup(key domain.VariantKey) (domain.VariantRecord, bool) {
	k := key.String()

	s.mu.RLock()
	rec, ok := s.records[k]
	s.mu.RUnlock()
	if !ok {
		return domain.VariantRecord{}, false
	}

	info, err := os.Stat(s.file(key))
	if err == nil && info.Mode().IsRegular() && info.Size() == rec.Size {
		return rec, true
	}

	s.mu.Lock()
	if cur, still := s.records[k]; still && cur == rec {
		delete(s.records, k)
		s.dirty = true
	}
	s.mu.Unlock()

	if err == nil {
		// Truncated or replaced behind our back.
		_ = os.Remove(s.file(key))
	}
	return domain.VariantRecord{}, false
}

// Store publishes data as the variant for key.
// Concurrent stores of the same key share one write.
func (s *Store) Store(key domain.VariantKey, data []byte) (domain.VariantRecord, error) {
	v, err, _ := s.inflight.Do(key.String(), func() (any, error) {
		if rec, ok := s.Lookup(key); ok {
			return rec, nil
		}
		return s.write(key, data)
	})
	if err != nil {
		return domain.VariantRecord{}, err
	}
	//nolint:errcheck,forcetypeassert // the flight only returns records
	return v.(domain.VariantRecord), nil
}

func (s *Store) write(key domain.VariantKey, data []byte) (domain.VariantRecord, error) {
	dest := s.file(key)
	dir := filepath.Dir(dest)

	fail := func(err error) (domain.VariantRecord, error) {
		return domain.VariantRecord{}, zerr.With(errors.Join(domain.ErrCacheWriteFailed, err), "key", key.String())
	}

	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return fail(err)
	}
	if err := writeAtomic(dir, dest, data); err != nil {
		return fail(err)
	}

	rec := domain.VariantRecord{
		Key:       key,
		Path:      key.RelPath(),
		Size:      int64(len(data)),
		CreatedAt: s.now().UTC(),
	}

	s.mu.Lock()
	s.records[key.String()] = rec
	s.dirty = true
	s.mu.Unlock()

	return rec, nil
}

// writeAtomic writes data to a temp file in dir and renames it to dest.
func writeAtomic(dir, dest string, data []byte) error {
	tmpFile, err := os.CreateTemp(dir, domain.TempPattern)
	if err != nil {
		return zerr.Wrap(err, "failed to create temp file")
	}
	tmpName := tmpFile.Name()

	// Clean up temp file on error
	defer func() {
		if _, err := os.Stat(tmpName); err == nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return zerr.Wrap(err, "failed to write temp file")
	}

	if err := tmpFile.Close(); err != nil {
		return zerr.Wrap(err, "failed to close temp file")
	}

	if err := os.Chmod(tmpName, domain.FilePerm); err != nil {
		return zerr.Wrap(err, "failed to chmod temp file")
	}

	if err := os.Rename(tmpName, dest); err != nil {
		return zerr.Wrap(err, "failed to rename temp file")
	}
	return nil
}

// InvalidateStale records the current identity of sourcePath.
// If its fingerprint changed, records of the previous content are dropped
// and their files removed, unless another tracked source still has that content.
func (s *Store) InvalidateStale(sourcePath string, fingerprint domain.Fingerprint, modTime time.Time) error {
	s.mu.Lock()
	prev, known := s.sources[sourcePath]
	entry := domain.SourceEntry{Fingerprint: fingerprint, ModTime: modTime.UTC()}
	if !known || prev.Fingerprint != fingerprint || !prev.ModTime.Equal(entry.ModTime) {
		s.sources[sourcePath] = entry
		s.dirty = true
	}

	var stale []domain.VariantKey
	if known && prev.Fingerprint != fingerprint && !s.referencedLocked(prev.Fingerprint) {
		stale = s.dropFingerprintLocked(prev.Fingerprint)
	}
	s.mu.Unlock()

	return s.removeFiles(stale)
}

// referencedLocked reports whether any tracked source has fingerprint.
// Must be called with s.mu held.
func (s *Store) referencedLocked(fingerprint domain.Fingerprint) bool {
	for _, entry := range s.sources {
		if entry.Fingerprint == fingerprint {
			return true
		}
	}
	return false
}

// dropFingerprintLocked removes all records of fingerprint and returns their keys.
// Must be called with s.mu held.
func (s *Store) dropFingerprintLocked(fingerprint domain.Fingerprint) []domain.VariantKey {
	var keys []domain.VariantKey
	for k, rec := range s.records {
		if rec.Key.Fingerprint == fingerprint {
			keys = append(keys, rec.Key)
			delete(s.records, k)
			s.dirty = true
		}
	}
	return keys
}

// removeFiles deletes the variant files of keys. Paths are derived from the
// keys alone, so nothing outside the variants directory can be touched.
func (s *Store) removeFiles(keys []domain.VariantKey) error {
	var errs error
	for _, key := range keys {
		err := os.Remove(s.file(key))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = errors.Join(errs, zerr.With(zerr.Wrap(err, "failed to remove stale variant"), "key", key.String()))
		}
	}
	return errs
}

// Stats summarizes the index.
func (s *Store) Stats() domain.CacheStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := domain.CacheStats{
		Records: len(s.records),
		Sources: len(s.sources),
	}
	for _, rec := range s.records {
		stats.Bytes += rec.Size
	}
	return stats
}

// Prune forgets sources that no longer exist, drops records no source refers to,
// and deletes every variant file the index does not reference.
// It returns the number of files removed.
func (s *Store) Prune() (int, error) {
	s.mu.Lock()
	for p := range s.sources {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			delete(s.sources, p)
			s.dirty = true
		}
	}
	live := make(map[domain.Fingerprint]bool, len(s.sources))
	for _, entry := range s.sources {
		live[entry.Fingerprint] = true
	}
	referenced := make(map[string]bool, len(s.records))
	for k, rec := range s.records {
		if !live[rec.Key.Fingerprint] {
			delete(s.records, k)
			s.dirty = true
			continue
		}
		referenced[rec.Key.RelPath()] = true
	}
	s.mu.Unlock()

	removed := 0
	var errs error
	variants := filepath.Join(s.root, domain.VariantsDirName)
	walkErr := filepath.WalkDir(variants, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		if referenced[filepath.ToSlash(rel)] {
			return nil
		}
		if err := os.Remove(path); err != nil {
			errs = errors.Join(errs, zerr.With(zerr.Wrap(err, "failed to remove variant"), "path", rel))
			return nil
		}
		removed++
		return nil
	})
	if walkErr != nil && !errors.Is(walkErr, fs.ErrNotExist) {
		errs = errors.Join(errs, zerr.Wrap(walkErr, "failed to walk variants"))
	}

	removeEmptyShards(variants)

	return removed, errs
}

func removeEmptyShards(variants string) {
	entries, err := os.ReadDir(variants)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			// Remove fails on non-empty directories.
			_ = os.Remove(filepath.Join(variants, e.Name()))
		}
	}
}

// Flush persists the index if it changed since the last flush.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}

	data, err := json.MarshalIndent(index{
		Version: domain.IndexVersion,
		Records: s.records,
		Sources: s.sources,
	}, "", "  ")
	if err != nil {
		return errors.Join(domain.ErrIndexWriteFailed, err)
	}

	if err := writeAtomic(s.root, s.indexPath(), data); err != nil {
		return zerr.With(errors.Join(domain.ErrIndexWriteFailed, err), "path", s.indexPath())
	}

	s.dirty = false
	return nil
}

// Close flushes the index.
func (s *Store) Close() error {
	return s.Flush()
}

// Factory opens Stores.
type Factory struct {
	opts []Option
}

// NewFactory creates a Factory that applies opts to every Store it opens.
func NewFactory(opts ...Option) *Factory {
	return &Factory{opts: opts}
}

// Open opens the cache rooted at dir.
func (f *Factory) Open(dir string) (ports.VariantCache, error) {
	return Open(dir, f.opts...)
}
