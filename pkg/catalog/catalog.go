// Package catalog indexes the JSON files a viewer can open from the data
// directory.
//
// The index is rebuilt by [Catalog.Refresh] and kept current by
// [Catalog.Watch], which listens for filesystem events. Paths handed out by the
// catalog are relative and slash-separated; [Catalog.Resolve] turns one back
// into a file path after checking it cannot escape the data directory.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	tgerrors "github.com/matzehuels/thoughtgraph/pkg/errors"
)

// DefaultDir is the data directory used when none is configured.
const DefaultDir = "data/test_output/converted"

// debounce coalesces bursts of filesystem events into one refresh.
const debounce = 200 * time.Millisecond

// Entry describes one JSON file in the catalog.
type Entry struct {
	Path    string    `json:"path"` // relative to the data directory, slash-separated
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Catalog is a goroutine-safe index of *.json files under a directory.
type Catalog struct {
	root   string
	logger *log.Logger

	mu      sync.RWMutex
	entries []Entry
}

// New creates a catalog for root and builds the initial index.
// A missing root yields an empty catalog, not an error.
func New(root string, logger *log.Logger) (*Catalog, error) {
	if root == "" {
		root = DefaultDir
	}
	if logger == nil {
		logger = log.Default()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	c := &Catalog{root: abs, logger: logger}
	if err := c.Refresh(); err != nil {
		return nil, err
	}
	return c, nil
}

// Root returns the absolute data directory.
func (c *Catalog) Root() string { return c.root }

// List returns the indexed files sorted by path.
func (c *Catalog) List() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Refresh rebuilds the index from disk.
func (c *Catalog) Refresh() error {
	entries, err := scan(c.root)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()
	return nil
}

// Resolve validates a catalog path and returns the file it names.
//
// Returns INVALID_PATH for absolute or escaping paths and FILE_NOT_FOUND when
// the file does not exist.
func (c *Catalog) Resolve(rel string) (string, error) {
	if err := tgerrors.ValidatePath(rel); err != nil {
		return "", err
	}
	path := filepath.Join(c.root, filepath.FromSlash(rel))
	info, err := os.Stat(path)
	if err != nil {
		return "", tgerrors.NotFound(err, "file %s does not exist", rel)
	}
	if info.IsDir() {
		return "", tgerrors.NotFound(nil, "%s is a directory, not a file", rel)
	}
	return path, nil
}

// Watch keeps the index current until ctx is done. It returns nil on
// cancellation and an error only when the watcher cannot be set up.
// A missing data dir is not watched and not created.
func (c *Catalog) Watch(ctx context.Context) error {
	if info, err := os.Stat(c.root); err != nil || !info.IsDir() {
		c.logger.Warn("data dir not found, not watching", "dir", c.root)
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	if err := addTree(w, c.root); err != nil {
		return err
	}
	c.logger.Debug("watching data dir", "dir", c.root)

	var timer *time.Timer
	refresh := make(chan struct{}, 1)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addTree(w, ev.Name); err != nil {
						c.logger.Warn("cannot watch directory", "dir", ev.Name, "error", err)
					}
				}
			}
			if !relevant(ev) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case refresh <- struct{}{}:
				default:
				}
			})

		case <-refresh:
			if err := c.Refresh(); err != nil {
				c.logger.Warn("catalog refresh failed", "error", err)
				continue
			}
			c.logger.Debug("catalog refreshed", "files", len(c.List()))

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			c.logger.Warn("watcher error", "error", err)
		}
	}
}

func relevant(ev fsnotify.Event) bool {
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
		return false
	}
	// Removed or renamed directories carry no extension either.
	return isJSON(ev.Name) || filepath.Ext(ev.Name) == ""
}

func addTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := w.Add(path); err != nil {
				return fmt.Errorf("watch %s: %w", path, err)
			}
		}
		return nil
	})
}

func scan(root string) ([]Entry, error) {
	var entries []Entry
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root && errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipAll
			}
			return nil
		}
		if d.IsDir() || !isJSON(path) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		entries = append(entries, Entry{
			Path:    filepath.ToSlash(rel),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
