// Package studio wires the local store to the sync client.
//
// A Studio is built once at process start and handed to whatever presents
// data (CLI commands, the daemon). Reads go straight to the store. Writes go
// through the Studio, which triggers a full-table push after every
// successful mutation, and once at startup.
package studio

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/mschirtzinger/yoga/internal/schema"
	"github.com/mschirtzinger/yoga/internal/store"
)

// Trigger schedules fire-and-forget pushes. *sync.Client satisfies it.
type Trigger interface {
	SyncCourses()
	SyncClasses()
}

// Studio is the explicit composition of store and sync trigger.
type Studio struct {
	db     *store.DB
	sync   Trigger
	logger *log.Logger
}

// New creates a Studio. If logger is nil, stderr is used.
func New(db *store.DB, trigger Trigger, logger *log.Logger) *Studio {
	if logger == nil {
		logger = log.New(os.Stderr, "[studio] ", log.LstdFlags)
	}
	return &Studio{db: db, sync: trigger, logger: logger}
}

// Store returns the underlying store for read operations.
func (s *Studio) Store() *store.DB {
	return s.db
}

// Startup pushes both tables once, as the app does on launch.
func (s *Studio) Startup() {
	s.sync.SyncCourses()
	s.sync.SyncClasses()
}

// AddCourse inserts a course and triggers a course push.
func (s *Studio) AddCourse(ctx context.Context, c *schema.Course) (int64, error) {
	id, err := s.db.InsertCourse(ctx, c)
	if err != nil {
		return 0, err
	}
	s.logger.Printf("Added course %d (%s)", id, c.Label())
	s.sync.SyncCourses()
	return id, nil
}

// EditCourse replaces a course and triggers a course push.
func (s *Studio) EditCourse(ctx context.Context, c *schema.Course) error {
	if err := s.db.UpdateCourse(ctx, c); err != nil {
		return err
	}
	s.logger.Printf("Updated course %d", c.ID)
	s.sync.SyncCourses()
	return nil
}

// RemoveCourse deletes a course and its sessions, then pushes both tables.
//
// Sessions are deleted explicitly before the course so the class push
// reflects the removal even on a server that keeps no foreign keys.
func (s *Studio) RemoveCourse(ctx context.Context, id int64) error {
	if err := s.db.DeleteClassesByCourse(ctx, id); err != nil {
		return err
	}
	if err := s.db.DeleteCourse(ctx, id); err != nil {
		return err
	}
	s.logger.Printf("Removed course %d", id)
	s.sync.SyncCourses()
	s.sync.SyncClasses()
	return nil
}

// RemoveAllCourses empties the store and pushes both (now empty) tables.
func (s *Studio) RemoveAllCourses(ctx context.Context) error {
	if err := s.db.DeleteAllCourses(ctx); err != nil {
		return err
	}
	s.logger.Printf("Removed all courses")
	s.sync.SyncCourses()
	s.sync.SyncClasses()
	return nil
}

// AddClass inserts a session and triggers a class push.
func (s *Studio) AddClass(ctx context.Context, c *schema.ClassSession) (int64, error) {
	id, err := s.db.InsertClass(ctx, c)
	if err != nil {
		return 0, err
	}
	s.logger.Printf("Added class %d to course %d (%s, %s)", id, c.CourseID, c.Date, c.Teacher)
	s.sync.SyncClasses()
	return id, nil
}

// EditClass replaces a session and triggers a class push.
func (s *Studio) EditClass(ctx context.Context, c *schema.ClassSession) error {
	if err := s.db.UpdateClass(ctx, c); err != nil {
		return err
	}
	s.logger.Printf("Updated class %d", c.ID)
	s.sync.SyncClasses()
	return nil
}

// RemoveClass deletes one session and triggers a class push.
func (s *Studio) RemoveClass(ctx context.Context, id int64) error {
	if err := s.db.DeleteClass(ctx, id); err != nil {
		return err
	}
	s.logger.Printf("Removed class %d", id)
	s.sync.SyncClasses()
	return nil
}

// Restore replaces the store contents with the given records, keeping their
// ids, and pushes both tables. Used by backup import.
func (s *Studio) Restore(ctx context.Context, courses []*schema.Course, classes []*schema.ClassSession) error {
	if err := s.db.ReplaceAll(ctx, courses, classes); err != nil {
		return fmt.Errorf("failed to restore backup: %w", err)
	}
	s.logger.Printf("Restored %d courses and %d classes", len(courses), len(classes))
	s.sync.SyncCourses()
	s.sync.SyncClasses()
	return nil
}
