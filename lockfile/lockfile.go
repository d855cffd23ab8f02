// Package lockfile implements locsync.lock, a lock file that tracks MD5
// checksums of the source strings last synced into each target file. When a
// source string changes while the structure stays the same, the merge keeps
// the old translation; the lock is what tells the workflow to redo it.
//
// The lock file is stored alongside .locsync.yaml as locsync.lock.
package lockfile

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// LockFileName is the default lock file name.
const LockFileName = "locsync.lock"

// Version is the lock file format version.
const Version = 1

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// LockFile represents the locsync.lock file structure.
type LockFile struct {
	Version   int                          `yaml:"version"`
	Checksums map[string]map[string]string `yaml:"checksums"` // target -> path -> md5

	mu   sync.Mutex `yaml:"-"`
	path string     `yaml:"-"`
}

// New returns an empty lock file that will be saved in dir.
func New(dir string) *LockFile {
	return &LockFile{
		Version:   Version,
		Checksums: make(map[string]map[string]string),
		path:      filepath.Join(dir, LockFileName),
	}
}

// ---------------------------------------------------------------------------
// Loading and saving
// ---------------------------------------------------------------------------

// Load reads a lock file from the given directory.
// Returns an empty lock file if the file doesn't exist.
func Load(dir string) (*LockFile, error) {
	lf := New(dir)

	data, err := os.ReadFile(lf.path)
	if err != nil {
		if os.IsNotExist(err) {
			return lf, nil
		}
		return nil, fmt.Errorf("reading %s: %w", lf.path, err)
	}

	if err := yaml.Unmarshal(data, lf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", lf.path, err)
	}
	if lf.Version > Version {
		return nil, fmt.Errorf("%s: unsupported version %d", lf.path, lf.Version)
	}
	if lf.Checksums == nil {
		lf.Checksums = make(map[string]map[string]string)
	}

	return lf, nil
}

// Save writes the lock file to disk.
func (lf *LockFile) Save() error {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.path == "" {
		return fmt.Errorf("lock file path not set")
	}

	data, err := yaml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("marshaling lock file: %w", err)
	}

	if err := os.WriteFile(lf.path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", lf.path, err)
	}

	return nil
}

// Path returns the lock file path.
func (lf *LockFile) Path() string {
	return lf.path
}

// ---------------------------------------------------------------------------
// Checksum operations
// ---------------------------------------------------------------------------

// Hash computes the MD5 hex digest of a string.
func Hash(s string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(s)))
}

// TargetKey builds the lock key of a target file, e.g.
// "public/locales/ru/common.json".
func TargetKey(filePath string) string {
	return filepath.ToSlash(filePath)
}

// IsStale reports whether the source string at key changed since it was
// recorded for target. A string the lock has never seen is not stale.
func (lf *LockFile) IsStale(target, key, sourceContent string) bool {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	oldHash, ok := lf.Checksums[target][key]
	return ok && oldHash != Hash(sourceContent)
}

// Record replaces the checksums of target with those of entries
// (key -> sourceContent). Keys not in entries are forgotten.
func (lf *LockFile) Record(target string, entries map[string]string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	sums := make(map[string]string, len(entries))
	for key, sourceContent := range entries {
		sums[key] = Hash(sourceContent)
	}
	lf.Checksums[target] = sums
}

// RemoveTarget removes all checksums for a target.
func (lf *LockFile) RemoveTarget(target string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	delete(lf.Checksums, target)
}

// Prune removes the targets under prefix (a slash-separated directory key)
// that keep reports false for, and returns them sorted.
func (lf *LockFile) Prune(prefix string, keep func(target string) bool) []string {
	prefix = strings.TrimSuffix(prefix, "/") + "/"
	var removed []string
	for _, target := range lf.Targets() {
		if strings.HasPrefix(target, prefix) && !keep(target) {
			lf.RemoveTarget(target)
			removed = append(removed, target)
		}
	}
	return removed
}

// ---------------------------------------------------------------------------
// Stats
// ---------------------------------------------------------------------------

// Stats returns the number of targets and total keys in the lock file.
func (lf *LockFile) Stats() (targets, keys int) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	targets = len(lf.Checksums)
	for _, m := range lf.Checksums {
		keys += len(m)
	}
	return
}

// Targets returns sorted list of target keys.
func (lf *LockFile) Targets() []string {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	targets := make([]string, 0, len(lf.Checksums))
	for t := range lf.Checksums {
		targets = append(targets, t)
	}
	sort.Strings(targets)
	return targets
}

// Summary returns a human-readable summary string.
func (lf *LockFile) Summary() string {
	targets, keys := lf.Stats()
	if targets == 0 {
		return "empty"
	}

	lf.mu.Lock()
	defer lf.mu.Unlock()

	names := make([]string, 0, len(lf.Checksums))
	for t := range lf.Checksums {
		names = append(names, t)
	}
	sort.Strings(names)

	var parts []string
	for _, t := range names {
		parts = append(parts, fmt.Sprintf("%s: %d strings", t, len(lf.Checksums[t])))
	}
	return fmt.Sprintf("%d targets, %d strings (%s)", targets, keys, strings.Join(parts, ", "))
}
