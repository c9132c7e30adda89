// Package migrate moves store contents in and out of JSONL backups.
//
// A backup holds one record per line, courses first:
//
//	{"kind":"course","course":{"id":1,"dayOfTheWeek":"Monday",...}}
//	{"kind":"class","class":{"id":4,"courseId":1,"date":"03/10/2025",...}}
//
// Record bodies use the same JSON shape as the sync protocol, so a backup
// line and a pushed array element are interchangeable.
package migrate

import (
	"bufio"
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/mschirtzinger/yoga/internal/schema"
)

// Record kinds.
const (
	KindCourse = "course"
	KindClass  = "class"
)

// Record is one line of a backup.
type Record struct {
	Kind   string               `json:"kind"`
	Course *schema.Course       `json:"course,omitempty"`
	Class  *schema.ClassSession `json:"class,omitempty"`
}

// Source provides the tables to export. *store.DB satisfies it.
type Source interface {
	ListCourses(ctx context.Context) ([]*schema.Course, error)
	ListAllClasses(ctx context.Context) ([]*schema.ClassSession, error)
}

// Restorer replaces the store contents. *studio.Studio satisfies it, which
// also pushes both tables afterwards.
type Restorer interface {
	Restore(ctx context.Context, courses []*schema.Course, classes []*schema.ClassSession) error
}

// Backup is the decoded content of a JSONL file.
type Backup struct {
	Courses []*schema.Course
	Classes []*schema.ClassSession
}

// ImportOptions contains configuration for an import
type ImportOptions struct {
	From   string // Input JSONL file path
	DryRun bool   // Decode and validate without touching the store
	Strict bool   // Fail on the first bad line instead of skipping it
	Backup bool   // Export the current store next to the input before replacing it
}

// Result contains statistics about an export or import
type Result struct {
	Courses       int
	Classes       int
	BackupCreated string
	Errors        []string
}

// Export writes every course then every class, each in ascending id order.
func Export(ctx context.Context, src Source, w io.Writer) (*Result, error) {
	courses, err := src.ListCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	classes, err := src.ListAllClasses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}

	slices.SortFunc(courses, func(a, b *schema.Course) int { return cmp.Compare(a.ID, b.ID) })
	slices.SortFunc(classes, func(a, b *schema.ClassSession) int { return cmp.Compare(a.ID, b.ID) })

	encoder := json.NewEncoder(w)
	for _, c := range courses {
		if err := encoder.Encode(Record{Kind: KindCourse, Course: c}); err != nil {
			return nil, fmt.Errorf("failed to write course %d: %w", c.ID, err)
		}
	}
	for _, c := range classes {
		if err := encoder.Encode(Record{Kind: KindClass, Class: c}); err != nil {
			return nil, fmt.Errorf("failed to write class %d: %w", c.ID, err)
		}
	}

	return &Result{Courses: len(courses), Classes: len(classes)}, nil
}

// ExportFile writes a backup to path atomically via a temp file.
func ExportFile(ctx context.Context, src Source, path string) (*Result, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	tmpPath := path + ".tmp"
	// #nosec G304 - controlled path from CLI
	file, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}

	result, err := Export(ctx, src, file)
	if cerr := file.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close temp file: %w", cerr)
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return nil, err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to rename temp file: %w", err)
	}
	return result, nil
}

// Decode reads a backup. Bad lines (malformed JSON, missing ids, duplicate
// ids, classes whose course is absent) are reported in the result and
// skipped. With strict set the first bad line is returned as an error.
//
// Field values are kept as stored; they were accepted by the store once.
func Decode(r io.Reader, strict bool) (*Backup, *Result, error) {
	backup := &Backup{}
	result := &Result{}

	fail := func(lineNum int, format string, args ...any) error {
		msg := fmt.Sprintf("line %d: %s", lineNum, fmt.Sprintf(format, args...))
		if strict {
			return fmt.Errorf("invalid backup at %s", msg)
		}
		result.Errors = append(result.Errors, msg)
		return nil
	}

	courseIDs := make(map[int64]bool)
	var pending []*schema.ClassSession
	pendingLines := make(map[*schema.ClassSession]int)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			if err := fail(lineNum, "invalid JSON: %v", err); err != nil {
				return nil, nil, err
			}
			continue
		}

		switch rec.Kind {
		case KindCourse:
			if rec.Course == nil {
				if err := fail(lineNum, "course record without course"); err != nil {
					return nil, nil, err
				}
				continue
			}
			if rec.Course.ID <= 0 {
				if err := fail(lineNum, "course id must be positive (got %d)", rec.Course.ID); err != nil {
					return nil, nil, err
				}
				continue
			}
			if courseIDs[rec.Course.ID] {
				if err := fail(lineNum, "duplicate course id %d", rec.Course.ID); err != nil {
					return nil, nil, err
				}
				continue
			}
			courseIDs[rec.Course.ID] = true
			backup.Courses = append(backup.Courses, rec.Course)

		case KindClass:
			if rec.Class == nil {
				if err := fail(lineNum, "class record without class"); err != nil {
					return nil, nil, err
				}
				continue
			}
			if rec.Class.ID <= 0 {
				if err := fail(lineNum, "class id must be positive (got %d)", rec.Class.ID); err != nil {
					return nil, nil, err
				}
				continue
			}
			pending = append(pending, rec.Class)
			pendingLines[rec.Class] = lineNum

		default:
			if err := fail(lineNum, "unknown record kind %q", rec.Kind); err != nil {
				return nil, nil, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read backup: %w", err)
	}

	// Classes may precede their course in a hand-edited file, so the
	// reference check runs after the whole input is read.
	classIDs := make(map[int64]bool)
	for _, c := range pending {
		lineNum := pendingLines[c]
		if !courseIDs[c.CourseID] {
			if err := fail(lineNum, "class %d references missing course %d", c.ID, c.CourseID); err != nil {
				return nil, nil, err
			}
			continue
		}
		if classIDs[c.ID] {
			if err := fail(lineNum, "duplicate class id %d", c.ID); err != nil {
				return nil, nil, err
			}
			continue
		}
		classIDs[c.ID] = true
		backup.Classes = append(backup.Classes, c)
	}

	result.Courses = len(backup.Courses)
	result.Classes = len(backup.Classes)
	return backup, result, nil
}

// Import replaces the store contents with the backup at opts.From.
func Import(ctx context.Context, src Source, dst Restorer, opts ImportOptions) (*Result, error) {
	// #nosec G304 - controlled path from CLI
	file, err := os.Open(opts.From)
	if err != nil {
		return nil, fmt.Errorf("failed to open backup: %w", err)
	}
	defer file.Close()

	backup, result, err := Decode(file, opts.Strict)
	if err != nil {
		return nil, err
	}
	if opts.DryRun {
		return result, nil
	}

	if opts.Backup {
		backupPath := opts.From + ".before-import." + time.Now().Format("20060102-150405")
		if _, err := ExportFile(ctx, src, backupPath); err != nil {
			return nil, fmt.Errorf("failed to back up current store: %w", err)
		}
		result.BackupCreated = backupPath
	}

	if err := dst.Restore(ctx, backup.Courses, backup.Classes); err != nil {
		return nil, err
	}
	return result, nil
}
