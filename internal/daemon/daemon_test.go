package daemon

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

type countingTrigger struct {
	courses atomic.Int32
	classes atomic.Int32
}

func (c *countingTrigger) SyncCourses() { c.courses.Add(1) }
func (c *countingTrigger) SyncClasses() { c.classes.Add(1) }

func testConfig() *Config {
	return &Config{
		Debounce: 50 * time.Millisecond,
		Logger:   log.New(io.Discard, "", 0),
	}
}

// startDaemon runs a daemon against a fresh store path and waits for the
// startup push.
func startDaemon(t *testing.T) (*Daemon, *countingTrigger, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "yoga.db")
	if err := os.WriteFile(dbPath, nil, 0644); err != nil {
		t.Fatalf("Failed to create store file: %v", err)
	}

	trigger := &countingTrigger{}
	d, err := NewWithConfig(dbPath, trigger, testConfig())
	if err != nil {
		t.Fatalf("NewWithConfig() failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Start(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Start() returned error: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("daemon did not stop")
		}
	})

	waitFor(t, func() bool { return d.Syncs() == 1 })
	return d, trigger, dbPath
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func appendTo(t *testing.T, path string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatalf("Failed to open %s: %v", path, err)
	}
	if _, err := f.WriteString("x"); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	f.Close()
}

func TestNewWithConfig_Validation(t *testing.T) {
	if _, err := NewWithConfig("", &countingTrigger{}, nil); err == nil {
		t.Error("expected error for empty dbPath")
	}
	if _, err := NewWithConfig("yoga.db", nil, nil); err == nil {
		t.Error("expected error for nil trigger")
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	if config.Debounce != 500*time.Millisecond {
		t.Errorf("Debounce = %v, want 500ms", config.Debounce)
	}
	if config.Logger == nil {
		t.Error("Logger is nil")
	}
}

func TestStart_PushesBothTables(t *testing.T) {
	_, trigger, _ := startDaemon(t)

	if trigger.courses.Load() != 1 || trigger.classes.Load() != 1 {
		t.Errorf("startup push: courses=%d classes=%d, want 1 each",
			trigger.courses.Load(), trigger.classes.Load())
	}
}

func TestStoreWrites_Debounced(t *testing.T) {
	d, trigger, dbPath := startDaemon(t)

	for i := 0; i < 5; i++ {
		appendTo(t, dbPath+"-wal")
	}

	waitFor(t, func() bool { return d.Syncs() == 2 })

	// Let a few more debounce windows pass; the burst must not push twice.
	time.Sleep(200 * time.Millisecond)
	if got := d.Syncs(); got != 2 {
		t.Errorf("Syncs() = %d, want 2", got)
	}
	if trigger.courses.Load() != 2 || trigger.classes.Load() != 2 {
		t.Errorf("courses=%d classes=%d, want 2 each", trigger.courses.Load(), trigger.classes.Load())
	}
}

func TestUnrelatedFiles_Ignored(t *testing.T) {
	d, _, dbPath := startDaemon(t)

	appendTo(t, filepath.Join(filepath.Dir(dbPath), "notes.txt"))
	appendTo(t, filepath.Join(filepath.Dir(dbPath), "other.db"))

	time.Sleep(200 * time.Millisecond)
	if got := d.Syncs(); got != 1 {
		t.Errorf("Syncs() = %d, want 1", got)
	}
}

func TestWALCreateRemove_Ignored(t *testing.T) {
	d, _, dbPath := startDaemon(t)

	// SQLite opening and closing its last connection, with no data written.
	for i := 0; i < 3; i++ {
		f, err := os.Create(dbPath + "-wal")
		if err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
		f.Close()
		if err := os.Remove(dbPath + "-wal"); err != nil {
			t.Fatalf("Remove() failed: %v", err)
		}
	}

	time.Sleep(200 * time.Millisecond)
	if got := d.Syncs(); got != 1 {
		t.Errorf("Syncs() = %d, want 1", got)
	}
}

func TestRelevant(t *testing.T) {
	dir := t.TempDir()
	d, err := NewWithConfig(filepath.Join(dir, "yoga.db"), &countingTrigger{}, testConfig())
	if err != nil {
		t.Fatalf("NewWithConfig() failed: %v", err)
	}
	defer d.Stop()

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"db write", fsnotify.Event{Name: filepath.Join(dir, "yoga.db"), Op: fsnotify.Write}, true},
		{"db create", fsnotify.Event{Name: filepath.Join(dir, "yoga.db"), Op: fsnotify.Create}, true},
		{"db remove", fsnotify.Event{Name: filepath.Join(dir, "yoga.db"), Op: fsnotify.Remove}, true},
		{"wal write", fsnotify.Event{Name: filepath.Join(dir, "yoga.db-wal"), Op: fsnotify.Write}, true},
		{"wal create", fsnotify.Event{Name: filepath.Join(dir, "yoga.db-wal"), Op: fsnotify.Create}, false},
		{"wal remove", fsnotify.Event{Name: filepath.Join(dir, "yoga.db-wal"), Op: fsnotify.Remove}, false},
		{"journal write", fsnotify.Event{Name: filepath.Join(dir, "yoga.db-journal"), Op: fsnotify.Write}, true},
		{"journal remove", fsnotify.Event{Name: filepath.Join(dir, "yoga.db-journal"), Op: fsnotify.Remove}, false},
		{"shm write", fsnotify.Event{Name: filepath.Join(dir, "yoga.db-shm"), Op: fsnotify.Write}, false},
		{"chmod", fsnotify.Event{Name: filepath.Join(dir, "yoga.db"), Op: fsnotify.Chmod}, false},
		{"other dir", fsnotify.Event{Name: filepath.Join(dir, "sub", "yoga.db"), Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.relevant(tt.event); got != tt.want {
				t.Errorf("relevant(%v) = %v, want %v", tt.event, got, tt.want)
			}
		})
	}
}

func TestStop_Idempotent(t *testing.T) {
	d, err := NewWithConfig(filepath.Join(t.TempDir(), "yoga.db"), &countingTrigger{}, testConfig())
	if err != nil {
		t.Fatalf("NewWithConfig() failed: %v", err)
	}
	if err := d.Stop(); err != nil {
		t.Fatalf("first Stop() failed: %v", err)
	}
	if err := d.Stop(); err != nil {
		t.Fatalf("second Stop() failed: %v", err)
	}
}
