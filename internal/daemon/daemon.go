// Package daemon keeps the remote snapshot current while the store is
// written by any process.
//
// The daemon:
// 1. Pushes both tables once on start
// 2. Watches the store file and its WAL/journal siblings
// 3. Debounces bursts of writes into a single push of both tables
// 4. Handles graceful shutdown
package daemon

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Trigger schedules fire-and-forget pushes.
type Trigger interface {
	SyncCourses()
	SyncClasses()
}

// Config holds configuration for the daemon.
type Config struct {
	// Debounce is how long the store must stay quiet before a push.
	// Rapid writes (a transaction touching the WAL many times) collapse
	// into one push.
	Debounce time.Duration

	// Logger for daemon activity
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Debounce: 500 * time.Millisecond,
		Logger:   log.New(os.Stderr, "[daemon] ", log.LstdFlags),
	}
}

// Daemon watches the store and triggers full-snapshot pushes.
type Daemon struct {
	dir     string
	names   map[string]fsnotify.Op
	trigger Trigger
	config  *Config

	watcher *fsnotify.Watcher

	pendingMu sync.Mutex
	pending   bool
	lastEvent time.Time
	syncs     int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	stop   sync.Once
}

// New creates a daemon for the store file at dbPath.
func New(dbPath string, trigger Trigger) (*Daemon, error) {
	return NewWithConfig(dbPath, trigger, DefaultConfig())
}

// NewWithConfig creates a daemon with custom configuration.
func NewWithConfig(dbPath string, trigger Trigger, config *Config) (*Daemon, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("dbPath cannot be empty")
	}
	if trigger == nil {
		return nil, fmt.Errorf("trigger cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = DefaultConfig().Logger
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultConfig().Debounce
	}

	abs, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dbPath, err)
	}
	base := filepath.Base(abs)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		dir: filepath.Dir(abs),
		// SQLite creates and deletes the -wal and -journal files when
		// connections open and close; only writes to them carry data.
		names: map[string]fsnotify.Op{
			base:              fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename,
			base + "-wal":     fsnotify.Write,
			base + "-journal": fsnotify.Write,
		},
		trigger: trigger,
		config:  config,
		watcher: watcher,
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Start begins the daemon's operation.
//
// The store directory is watched before the startup push so no write made
// after the push is missed. Start blocks until ctx is cancelled or Stop is
// called.
func (d *Daemon) Start(ctx context.Context) error {
	d.config.Logger.Println("Starting daemon")

	// Watch the directory rather than the file: SQLite creates and removes
	// the journal and WAL files as it goes.
	if err := d.watcher.Add(d.dir); err != nil {
		return fmt.Errorf("failed to watch store directory: %w", err)
	}
	d.config.Logger.Printf("Watching: %s", d.dir)

	d.SyncNow()

	d.wg.Add(2)
	go d.watchFileEvents()
	go d.processPending()

	select {
	case <-ctx.Done():
		d.config.Logger.Println("Shutdown signal received")
		return d.Stop()
	case <-d.ctx.Done():
		return nil
	}
}

// Stop gracefully shuts down the daemon. It is safe to call more than once.
func (d *Daemon) Stop() error {
	d.stop.Do(func() {
		d.config.Logger.Println("Stopping daemon")
		d.cancel()
		if err := d.watcher.Close(); err != nil {
			d.config.Logger.Printf("Error closing watcher: %v", err)
		}
		d.wg.Wait()
		d.config.Logger.Println("Daemon stopped")
	})
	return nil
}

// SyncNow triggers a push of both tables immediately.
func (d *Daemon) SyncNow() {
	d.pendingMu.Lock()
	d.syncs++
	d.pending = false
	d.pendingMu.Unlock()

	d.trigger.SyncCourses()
	d.trigger.SyncClasses()
}

// Syncs reports how many times the daemon has triggered a push, including
// the startup push.
func (d *Daemon) Syncs() int {
	d.pendingMu.Lock()
	defer d.pendingMu.Unlock()
	return d.syncs
}

// watchFileEvents monitors filesystem events and marks the store dirty.
func (d *Daemon) watchFileEvents() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return

		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if !d.relevant(event) {
				continue
			}
			d.markDirty()

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.config.Logger.Printf("Watcher error: %v", err)
		}
	}
}

// relevant reports whether event changed the store or wrote to one of its
// siblings.
func (d *Daemon) relevant(event fsnotify.Event) bool {
	if filepath.Dir(event.Name) != d.dir {
		abs, err := filepath.Abs(event.Name)
		if err != nil || filepath.Dir(abs) != d.dir {
			return false
		}
	}
	return event.Op&d.names[filepath.Base(event.Name)] != 0
}

func (d *Daemon) markDirty() {
	d.pendingMu.Lock()
	defer d.pendingMu.Unlock()
	d.pending = true
	d.lastEvent = time.Now()
}

// processPending pushes once the store has been quiet for Debounce.
func (d *Daemon) processPending() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.Debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-ticker.C:
			if d.due(time.Now()) {
				d.config.Logger.Println("Store changed, syncing")
				d.SyncNow()
			}
		}
	}
}

func (d *Daemon) due(now time.Time) bool {
	d.pendingMu.Lock()
	defer d.pendingMu.Unlock()
	return d.pending && now.Sub(d.lastEvent) >= d.config.Debounce
}
