package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/mschirtzinger/yoga/internal/store"
)

func run(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func TestCLI_CourseAndClassLifecycle(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	dbPath := filepath.Join(dir, "yoga.db")
	common := []string{"--db", dbPath, "--no-sync", "--quiet", "--env-file", filepath.Join(dir, "none.env")}

	args := append([]string{"course", "add",
		"--day", "mon", "--time", "9:00", "--capacity", "20", "--duration", "60",
		"--price", "15.00", "--type", "Flow Yoga"}, common...)
	if err := run(t, args...); err != nil {
		t.Fatalf("course add failed: %v", err)
	}

	args = append([]string{"class", "add", "--course", "1", "--date", "2025-03-10", "--teacher", "Ana"}, common...)
	if err := run(t, args...); err != nil {
		t.Fatalf("class add failed: %v", err)
	}

	// 03/11/2025 is a Tuesday.
	args = append([]string{"class", "add", "--course", "1", "--date", "03/11/2025", "--teacher", "Bo"}, common...)
	if err := run(t, args...); err == nil {
		t.Fatal("class add on the wrong weekday succeeded")
	}

	backup := filepath.Join(dir, "backup.jsonl")
	if err := run(t, append([]string{"export", backup}, common...)...); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	data, err := os.ReadFile(backup)
	if err != nil {
		t.Fatalf("Failed to read backup: %v", err)
	}
	if lines := strings.Count(string(data), "\n"); lines != 2 {
		t.Errorf("backup has %d lines, want 2", lines)
	}

	if err := run(t, append([]string{"course", "delete", "1", "--yes"}, common...)...); err != nil {
		t.Fatalf("course delete failed: %v", err)
	}

	db, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("store.Open() failed: %v", err)
	}
	defer db.Close()

	courses, classes, err := db.Counts(context.Background())
	if err != nil {
		t.Fatalf("Counts() failed: %v", err)
	}
	if courses != 0 || classes != 0 {
		t.Errorf("Counts() = %d, %d after delete, want 0, 0", courses, classes)
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"1", 1, false},
		{"42", 42, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		got, err := parseID("course", tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseID(%q) = %d, %v", tt.in, got, err)
		}
	}
}

func TestFormatSize(t *testing.T) {
	tests := map[int64]string{
		512:             "512 bytes",
		4096:            "4.0 KB",
		3 * 1024 * 1024: "3.0 MB",
	}
	for size, want := range tests {
		if got := formatSize(size); got != want {
			t.Errorf("formatSize(%d) = %q, want %q", size, got, want)
		}
	}
}

func TestCLI_BenchLeavesDatabaseAlone(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	dbPath := filepath.Join(dir, "yoga.db")

	err := run(t, "bench", "--courses", "7", "--classes", "2", "--readers", "2", "--queries", "5",
		"--db", dbPath, "--no-sync", "--quiet", "--env-file", filepath.Join(dir, "none.env"))
	if err != nil {
		t.Fatalf("bench failed: %v", err)
	}

	if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
		t.Errorf("bench created %s, want it untouched", dbPath)
	}
}

func TestCLI_ClassDatesRejectsBadCount(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	common := []string{"--db", filepath.Join(dir, "yoga.db"), "--no-sync", "--quiet", "--env-file", filepath.Join(dir, "none.env")}

	for _, n := range []string{"-1", "0"} {
		err := run(t, append([]string{"class", "dates", "--course", "1", "-n", n}, common...)...)
		if err == nil || !strings.Contains(err.Error(), "--count") {
			t.Errorf("class dates -n %s: error = %v, want a --count error", n, err)
		}
	}
}

func TestCLI_SyncBackgroundPushesBothTables(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))

	err := run(t, "sync", "--background", "--sync-url", server.URL, "--no-sync=false",
		"--db", filepath.Join(dir, "yoga.db"), "--quiet", "--env-file", filepath.Join(dir, "none.env"))
	if err != nil {
		t.Fatalf("sync --background failed: %v", err)
	}

	// The command drains the queue before returning.
	mu.Lock()
	defer mu.Unlock()
	got := strings.Join(paths, ",")
	if len(paths) != 2 || !strings.Contains(got, "/syncYogaCourses") || !strings.Contains(got, "/syncYogaClasses") {
		t.Errorf("pushed %v, want one courses and one classes push", paths)
	}
}
