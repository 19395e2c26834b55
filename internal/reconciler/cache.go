package reconciler

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"hawk/internal/adapter"
	"hawk/internal/config"
	"hawk/internal/report"
	"hawk/pkg/logging"
)

// DomainSync separates sync fingerprints from other hawk digests.
const DomainSync = "hawk/sync/v1"

// Cached artifact kinds.
const (
	CachedLink     = "link"
	CachedFile     = "file"
	CachedDocument = "document"
)

// CachedArtifact is what a clean pass left at one path.
type CachedArtifact struct {
	Path string `json:"path" yaml:"path"`
	Kind string `json:"kind" yaml:"kind"`
	// Digest is the link target for links and a content hash otherwise.
	// An empty digest records a document that does not exist.
	Digest string `json:"digest" yaml:"digest"`
}

// CacheEntry is the persisted record of the last clean pass of one (directory, tool).
type CacheEntry struct {
	Directory string           `json:"directory" yaml:"directory"`
	Tool      string           `json:"tool" yaml:"tool"`
	Hash      string           `json:"hash" yaml:"hash"`
	Artifacts []CachedArtifact `json:"artifacts" yaml:"artifacts"`
	// Warnings are the tool's warnings; Shared are the resolution warnings of the run.
	Warnings  []report.Warning `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Shared    []report.Warning `json:"shared,omitempty" yaml:"shared,omitempty"`
	UpdatedAt time.Time        `json:"updatedAt" yaml:"updatedAt"`
}

// SyncCache stores one CacheEntry per (directory, tool) under <home>/cache/sync.
type SyncCache struct {
	dir string
}

// NewSyncCache creates a cache below the hawk home.
func NewSyncCache(home string) *SyncCache {
	return &SyncCache{dir: filepath.Join(config.CachePath(home), "sync")}
}

// Dir returns the cache directory.
func (c *SyncCache) Dir() string { return c.dir }

func (c *SyncCache) path(dir, tool string) string {
	sum := sha256.Sum256([]byte(dir + "|" + tool))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:])+".json")
}

// Load returns the entry of (dir, tool). Unreadable entries count as misses.
func (c *SyncCache) Load(dir, tool string) (*CacheEntry, bool) {
	data, err := os.ReadFile(c.path(dir, tool))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logging.Warn("SyncCache", "Ignoring unreadable cache entry for %s (%s): %v", dir, tool, err)
		}
		return nil, false
	}
	var e CacheEntry
	if err := json.Unmarshal(data, &e); err != nil {
		logging.Warn("SyncCache", "Ignoring corrupt cache entry for %s (%s): %v", dir, tool, err)
		return nil, false
	}
	if e.Directory != dir || e.Tool != tool {
		return nil, false
	}
	return &e, true
}

// Store persists e atomically.
func (c *SyncCache) Store(e *CacheEntry) error {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err := atomicWrite(c.path(e.Directory, e.Tool), append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write cache entry for %s (%s): %w", e.Directory, e.Tool, err)
	}
	return nil
}

// Invalidate drops the entry of (dir, tool).
func (c *SyncCache) Invalidate(dir, tool string) error {
	err := os.Remove(c.path(dir, tool))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// List returns every readable entry, sorted by directory then tool.
func (c *SyncCache) List() ([]*CacheEntry, error) {
	files, err := os.ReadDir(c.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var entries []*CacheEntry
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(c.dir, f.Name()))
		if err != nil {
			continue
		}
		var e CacheEntry
		if err := json.Unmarshal(data, &e); err != nil {
			continue
		}
		entries = append(entries, &e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Directory != entries[j].Directory {
			return entries[i].Directory < entries[j].Directory
		}
		return entries[i].Tool < entries[j].Tool
	})
	return entries, nil
}

// Verify re-checks every recorded artifact against the filesystem.
func (e *CacheEntry) Verify() bool {
	for _, a := range e.Artifacts {
		switch a.Kind {
		case CachedLink:
			target, err := os.Readlink(a.Path)
			if err != nil || target != a.Digest {
				return false
			}
		case CachedFile, CachedDocument:
			digest, err := fileDigest(a.Path)
			if err != nil || digest != a.Digest {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// SyncFingerprint combines the resolver input hash with what makes a pass
// tool specific.
func SyncFingerprint(inputHash, tool, root string) string {
	h := sha256.New()
	for _, field := range []string{DomainSync, tool, root, inputHash} {
		h.Write([]byte(field))
		h.Write([]byte{0x00})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// newCacheEntry records the state a clean pass left behind.
func newCacheEntry(dir, hash string, plan *adapter.Plan, warnings, shared []report.Warning) (*CacheEntry, error) {
	e := &CacheEntry{
		Directory: dir,
		Tool:      plan.Tool,
		Hash:      hash,
		Warnings:  warnings,
		Shared:    shared,
		UpdatedAt: time.Now().UTC(),
	}
	for _, a := range plan.Artifacts {
		switch a.Kind {
		case adapter.KindLink:
			e.Artifacts = append(e.Artifacts, CachedArtifact{Path: a.Path, Kind: CachedLink, Digest: a.Source})
		case adapter.KindBridge:
			e.Artifacts = append(e.Artifacts, CachedArtifact{Path: a.Path, Kind: CachedFile, Digest: digest(a.Content)})
		}
	}
	for _, d := range plan.Documents {
		sum, err := fileDigest(d.Path)
		if err != nil {
			return nil, err
		}
		e.Artifacts = append(e.Artifacts, CachedArtifact{Path: d.Path, Kind: CachedDocument, Digest: sum})
	}
	return e, nil
}

func digest(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// fileDigest hashes the file at path; a missing file has the empty digest.
func fileDigest(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return digest(data), nil
}
