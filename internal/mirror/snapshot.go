package mirror

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mschirtzinger/yoga/internal/schema"
)

// Snapshot is the last full copy of each table received from a client.
type Snapshot struct {
	Courses         []*schema.Course       `json:"courses"`
	Classes         []*schema.ClassSession `json:"classes"`
	CoursesSyncedAt *time.Time             `json:"coursesSyncedAt,omitempty"`
	ClassesSyncedAt *time.Time             `json:"classesSyncedAt,omitempty"`
}

// holder guards the snapshot and optionally persists it to disk.
type holder struct {
	mu   sync.RWMutex
	snap Snapshot
	path string
}

func newHolder(path string) (*holder, error) {
	h := &holder{
		snap: Snapshot{Courses: []*schema.Course{}, Classes: []*schema.ClassSession{}},
		path: path,
	}
	if path == "" {
		return h, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return h, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &h.snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %s: %w", path, err)
	}
	if h.snap.Courses == nil {
		h.snap.Courses = []*schema.Course{}
	}
	if h.snap.Classes == nil {
		h.snap.Classes = []*schema.ClassSession{}
	}
	return h, nil
}

// replaceCourses swaps the whole course table.
func (h *holder) replaceCourses(courses []*schema.Course, at time.Time) error {
	if courses == nil {
		courses = []*schema.Course{}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	next := h.snap
	next.Courses = courses
	next.CoursesSyncedAt = &at
	return h.commitLocked(next)
}

// replaceClasses swaps the whole class table.
func (h *holder) replaceClasses(classes []*schema.ClassSession, at time.Time) error {
	if classes == nil {
		classes = []*schema.ClassSession{}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	next := h.snap
	next.Classes = classes
	next.ClassesSyncedAt = &at
	return h.commitLocked(next)
}

func (h *holder) get() Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.snap
}

// commitLocked persists next and only then makes it the held snapshot, so a
// failed save leaves the previous tables in place. Callers hold h.mu.
func (h *holder) commitLocked(next Snapshot) error {
	if err := h.save(next); err != nil {
		return err
	}
	h.snap = next
	return nil
}

// save writes snap atomically via a temp file and rename.
func (h *holder) save(snap Snapshot) error {
	if h.path == "" {
		return nil
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(h.path), 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	tmp := h.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, h.path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}
