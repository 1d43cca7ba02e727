package feed

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jonboulle/clockwork"

	"github.com/gcbaptista/go-vocab-highlighter/model"
	"github.com/gcbaptista/go-vocab-highlighter/services"
)

// Document is the part of the document store the directory feed mutates.
type Document interface {
	AppendHTML(r io.Reader) (model.ChangeBatch, error)
	Remove(ids ...model.UnitID) model.ChangeBatch
}

// DirOptions configures a Dir feed.
type DirOptions struct {
	// Extensions lists the file extensions mirrored into the document.
	Extensions []string
	// Debounce is how long file events are collected before they are applied.
	Debounce time.Duration
	Clock    clockwork.Clock
	Buffer   int
	Logger   *slog.Logger
}

type fileState struct {
	hash  string
	units []model.UnitID
}

// Dir mirrors the HTML files of one directory into the document: each file is
// appended as a fragment, a rewrite replaces the file's units and a removal
// drops them. Every applied change is published as a change batch.
type Dir struct {
	dir        string
	doc        Document
	out        *Channel
	extensions map[string]bool
	debounce   time.Duration
	clock      clockwork.Clock

	fsw *fsnotify.Watcher

	mu    sync.Mutex
	files map[string]fileState

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	done   chan struct{}
	logger *slog.Logger
}

var _ services.ChangeFeed = (*Dir)(nil)

// NewDir creates a directory feed over doc.
func NewDir(dir string, doc Document, opts DirOptions) (*Dir, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("watch directory cannot be empty")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 200 * time.Millisecond
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = []string{".html", ".htm"}
	}

	extensions := make(map[string]bool, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extensions[strings.ToLower(ext)] = true
	}

	return &Dir{
		dir:        dir,
		doc:        doc,
		out:        NewChannel(opts.Buffer, opts.Logger),
		extensions: extensions,
		debounce:   opts.Debounce,
		clock:      opts.Clock,
		files:      make(map[string]fileState),
		pending:    make(map[string]fsnotify.Op),
		done:       make(chan struct{}),
		logger:     opts.Logger.With("component", "dir_feed", "dir", dir),
	}, nil
}

// Subscribe implements services.ChangeFeed.
func (d *Dir) Subscribe(ctx context.Context) <-chan model.ChangeBatch {
	return d.out.Subscribe(ctx)
}

// Start loads the files already present and begins watching the directory.
func (d *Dir) Start(ctx context.Context) error {
	if err := os.MkdirAll(d.dir, 0750); err != nil {
		return fmt.Errorf("create watch directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(d.dir); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("watch %s: %w", d.dir, err)
	}
	d.fsw = fsw

	if _, err := d.LoadExisting(); err != nil {
		_ = fsw.Close()
		d.fsw = nil
		return err
	}

	go d.processEvents(ctx)
	d.logger.Info("directory feed started", slog.Duration("debounce", d.debounce))
	return nil
}

// Stop closes the watcher and every subscription.
func (d *Dir) Stop() error {
	var err error
	if d.fsw != nil {
		err = d.fsw.Close()
		<-d.done
	}
	d.out.Close()
	return err
}

// LoadExisting applies every matching file in the directory, in name order,
// and returns how many were loaded.
func (d *Dir) LoadExisting() (int, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return 0, fmt.Errorf("read watch directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && d.matches(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	loaded := 0
	for _, name := range names {
		if _, err := d.Sync(filepath.Join(d.dir, name)); err != nil {
			d.logger.Warn("failed to load file", slog.String("file", name), slog.String("error", err.Error()))
			continue
		}
		loaded++
	}
	return loaded, nil
}

// Sync applies the current content of path and publishes the resulting
// batch. A file whose content is unchanged yields an empty batch.
func (d *Dir) Sync(path string) (model.ChangeBatch, error) {
	content, err := os.ReadFile(path) // #nosec G304 -- path comes from the watched directory
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return d.Drop(path), nil
		}
		return model.ChangeBatch{}, fmt.Errorf("read %s: %w", path, err)
	}
	sum := sha256.Sum256(content)
	hash := hex.EncodeToString(sum[:])

	d.mu.Lock()
	defer d.mu.Unlock()

	prev, known := d.files[path]
	if known && prev.hash == hash {
		return model.ChangeBatch{}, nil
	}

	var batch model.ChangeBatch
	if known && len(prev.units) > 0 {
		removed := d.doc.Remove(prev.units...)
		batch.Removed = removed.Removed
	}
	added, err := d.doc.AppendHTML(bytes.NewReader(content))
	if err != nil {
		delete(d.files, path)
		d.out.Publish(batch)
		return batch, fmt.Errorf("load %s: %w", path, err)
	}
	batch.Added = added.Added

	ids := make([]model.UnitID, 0, len(added.Added))
	for _, u := range added.Added {
		ids = append(ids, u.ID)
	}
	d.files[path] = fileState{hash: hash, units: ids}

	d.out.Publish(batch)
	d.logger.Debug("file applied",
		slog.String("file", filepath.Base(path)),
		slog.Int("added", len(batch.Added)),
		slog.Int("removed", len(batch.Removed)))
	return batch, nil
}

// Drop removes the units loaded from path and publishes the batch.
func (d *Dir) Drop(path string) model.ChangeBatch {
	d.mu.Lock()
	defer d.mu.Unlock()

	prev, ok := d.files[path]
	if !ok {
		return model.ChangeBatch{}
	}
	delete(d.files, path)
	if len(prev.units) == 0 {
		return model.ChangeBatch{}
	}
	batch := d.doc.Remove(prev.units...)
	d.out.Publish(batch)
	d.logger.Debug("file dropped", slog.String("file", filepath.Base(path)), slog.Int("removed", len(batch.Removed)))
	return batch
}

// Files returns the paths currently mirrored into the document.
func (d *Dir) Files() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.files))
	for p := range d.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (d *Dir) matches(name string) bool {
	if strings.HasPrefix(filepath.Base(name), ".") {
		return false
	}
	return d.extensions[strings.ToLower(filepath.Ext(name))]
}

func (d *Dir) processEvents(ctx context.Context) {
	defer close(d.done)
	ticker := d.clock.NewTicker(d.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-d.fsw.Events:
			if !ok {
				return
			}
			if !d.matches(event.Name) {
				continue
			}
			d.pendingMu.Lock()
			d.pending[event.Name] |= event.Op
			d.pendingMu.Unlock()

		case err, ok := <-d.fsw.Errors:
			if !ok {
				return
			}
			d.logger.Error("watcher error", slog.String("error", err.Error()))

		case <-ticker.Chan():
			d.flushPending()
		}
	}
}

func (d *Dir) flushPending() {
	d.pendingMu.Lock()
	if len(d.pending) == 0 {
		d.pendingMu.Unlock()
		return
	}
	toProcess := d.pending
	d.pending = make(map[string]fsnotify.Op)
	d.pendingMu.Unlock()

	paths := make([]string, 0, len(toProcess))
	for p := range toProcess {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, path := range paths {
		op := toProcess[path]
		if op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename) {
			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				d.Drop(path)
				continue
			}
		}
		if _, err := d.Sync(path); err != nil {
			d.logger.Warn("failed to apply file change", slog.String("file", filepath.Base(path)), slog.String("error", err.Error()))
		}
	}
}
