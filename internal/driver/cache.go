package driver

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"flux/internal/diag"
	"flux/internal/project"
	"flux/internal/source"
)

// Current schema version - increment when DiskPayload format changes
const diskCacheSchemaVersion uint16 = 1

// DiskCache хранит результаты проверки манифестов на диске.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// DiskPayload is the cached outcome of checking one manifest.
type DiskPayload struct {
	Schema uint16 `msgpack:"schema"`
	// File is the manifest's FileID when the payload was written; spans
	// are remapped to the reader's id.
	File        source.FileID     `msgpack:"file"`
	Diagnostics []diag.Diagnostic `msgpack:"diagnostics"`
	Stats       Stats             `msgpack:"stats"`
}

// OpenDiskCache opens the cache under $XDG_CACHE_HOME/app, falling back to
// ~/.cache/app.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return OpenDiskCacheAt(filepath.Join(base, app))
}

// OpenDiskCacheAt opens a cache rooted at dir, creating it.
func OpenDiskCacheAt(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(key project.Digest) string {
	hexKey := hex.EncodeToString(key[:])
	return filepath.Join(c.dir, "checks", hexKey+".mp")
}

// Put serializes payload under key. The file is replaced atomically so a
// concurrent reader never sees a partial write.
func (c *DiskCache) Put(key project.Digest, payload *DiskPayload) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		// после успешного rename файла уже нет
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = rmErr
		}
	}()

	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(f.Name(), p)
}

// Get reads the payload stored under key into out.
func (c *DiskCache) Get(key project.Digest, out *DiskPayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()
	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, fmt.Errorf("decode cache entry: %w", err)
	}
	return true, nil
}

// DropAll removes every entry.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.MkdirAll(c.dir, 0o750); err != nil {
		return err
	}
	return os.RemoveAll(old)
}

// cacheKey depends on the manifest bytes and on everything that changes
// the diagnostics for the same bytes.
func cacheKey(m *project.Manifest, opts Options) project.Digest {
	fingerprint := fmt.Sprintf("flux %s|max=%d|schema=%d", opts.ToolVersion, opts.MaxDiagnostics, diskCacheSchemaVersion)
	return project.Combine(m.Digest, project.DigestString(fingerprint))
}

func newPayload(file source.FileID, bag *diag.Bag, stats Stats) *DiskPayload {
	items := bag.Items()
	out := &DiskPayload{
		Schema:      diskCacheSchemaVersion,
		File:        file,
		Diagnostics: make([]diag.Diagnostic, len(items)),
		Stats:       stats,
	}
	copy(out.Diagnostics, items)
	return out
}

// restore rebuilds a bag whose spans point at file.
func (p *DiskPayload) restore(file source.FileID, max int) *diag.Bag {
	remap := func(sp source.Span) source.Span {
		if sp.File == p.File && !sp.IsZero() {
			sp.File = file
		}
		return sp
	}
	bag := diag.NewBag(max)
	for _, d := range p.Diagnostics {
		d.Primary = remap(d.Primary)
		notes := make([]diag.Note, len(d.Notes))
		for i, n := range d.Notes {
			notes[i] = diag.Note{Span: remap(n.Span), Msg: n.Msg}
		}
		d.Notes = notes
		bag.Add(d)
	}
	return bag
}
