package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mschirtzinger/yoga/internal/schema"
)

const classColumns = `id, courseId, date, teacher, comments`

// ListClassesByCourse returns the sessions of one course, newest first.
func (db *DB) ListClassesByCourse(ctx context.Context, courseID int64) ([]*schema.ClassSession, error) {
	return db.queryClasses(ctx,
		`SELECT `+classColumns+` FROM yoga_classes WHERE courseId = ? ORDER BY id DESC`,
		courseID)
}

// ListAllClasses returns every session across all courses, newest first.
func (db *DB) ListAllClasses(ctx context.Context) ([]*schema.ClassSession, error) {
	return db.queryClasses(ctx,
		`SELECT `+classColumns+` FROM yoga_classes ORDER BY id DESC`)
}

// FindClassesByTeacher returns the sessions of a course whose teacher
// contains substr. The match is case-sensitive; an empty substr matches
// every session of the course.
func (db *DB) FindClassesByTeacher(ctx context.Context, courseID int64, substr string) ([]*schema.ClassSession, error) {
	return db.queryClasses(ctx, `
	SELECT `+classColumns+`
	FROM yoga_classes
	WHERE courseId = ?
	  AND (? = '' OR instr(teacher, ?) > 0)
	ORDER BY id DESC`,
		courseID, substr, substr)
}

// FindClassesByDate returns the sessions of a course on exactly date.
func (db *DB) FindClassesByDate(ctx context.Context, courseID int64, date string) ([]*schema.ClassSession, error) {
	return db.queryClasses(ctx, `
	SELECT `+classColumns+`
	FROM yoga_classes
	WHERE courseId = ? AND date = ?
	ORDER BY id DESC`,
		courseID, date)
}

// GetClass returns the session with the given id, or ErrNotFound.
func (db *DB) GetClass(ctx context.Context, id int64) (*schema.ClassSession, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+classColumns+` FROM yoga_classes WHERE id = ?`, id)

	class, err := scanClass(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("class %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get class %d: %w", id, err)
	}
	return class, nil
}

// InsertClass stores a new session and returns its assigned id.
//
// The parent course must exist and the session date must fall on the
// course's day of week; otherwise ErrConstraintViolation (or
// ErrWeekdayMismatch) is returned.
func (db *DB) InsertClass(ctx context.Context, c *schema.ClassSession) (int64, error) {
	var id int64
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		if err := checkCourseDay(ctx, tx, c.CourseID, c.Date); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `
		INSERT INTO yoga_classes (courseId, date, teacher, comments)
		VALUES (?, ?, ?, ?)`,
			c.CourseID, c.Date, c.Teacher, nullString(c.Comments),
		)
		if err != nil {
			return mapWriteError(err)
		}

		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to insert class: %w", err)
	}
	return id, nil
}

// restoreClass inserts c keeping its id, without the weekday check.
func restoreClass(ctx context.Context, q querier, c *schema.ClassSession) error {
	if c.ID <= 0 {
		return fmt.Errorf("%w: restored class needs an id", ErrConstraintViolation)
	}
	_, err := q.ExecContext(ctx, `
	INSERT INTO yoga_classes (`+classColumns+`)
	VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.CourseID, c.Date, c.Teacher, nullString(c.Comments),
	)
	if err != nil {
		return fmt.Errorf("failed to restore class %d: %w", c.ID, mapWriteError(err))
	}
	return nil
}

// UpdateClass replaces every field of the session with id c.ID.
// Returns ErrNotFound if no such session exists; the same constraints as
// InsertClass apply.
func (db *DB) UpdateClass(ctx context.Context, c *schema.ClassSession) error {
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		if err := checkCourseDay(ctx, tx, c.CourseID, c.Date); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `
		UPDATE yoga_classes SET
			courseId = ?,
			date = ?,
			teacher = ?,
			comments = ?
		WHERE id = ?`,
			c.CourseID, c.Date, c.Teacher, nullString(c.Comments), c.ID,
		)
		if err != nil {
			return mapWriteError(err)
		}
		return requireAffected(res, "class", c.ID)
	})
	if err != nil {
		return fmt.Errorf("failed to update class %d: %w", c.ID, err)
	}
	return nil
}

// DeleteClass removes exactly one session. Deleting a missing session is a no-op.
func (db *DB) DeleteClass(ctx context.Context, id int64) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM yoga_classes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete class %d: %w", id, err)
	}
	return nil
}

// DeleteClassesByCourse removes every session of a course.
func (db *DB) DeleteClassesByCourse(ctx context.Context, courseID int64) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM yoga_classes WHERE courseId = ?`, courseID); err != nil {
		return fmt.Errorf("failed to delete classes of course %d: %w", courseID, err)
	}
	return nil
}

// checkCourseDay verifies the parent course exists and that date falls on
// its day of week. Courses whose day is not a known weekday are not checked.
func checkCourseDay(ctx context.Context, q querier, courseID int64, date string) error {
	var day string
	err := q.QueryRowContext(ctx, `SELECT dayOfTheWeek FROM yoga_courses WHERE id = ?`, courseID).Scan(&day)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: course %d does not exist", ErrConstraintViolation, courseID)
	}
	if err != nil {
		return fmt.Errorf("failed to look up course %d: %w", courseID, err)
	}

	courseDay := schema.Weekday(day)
	if !courseDay.Valid() {
		return nil
	}

	t, err := schema.ParseDate(date)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConstraintViolation, err)
	}
	if got := schema.WeekdayOf(t); got != courseDay {
		return fmt.Errorf("%w: %s is a %s, course %d runs on %s", ErrWeekdayMismatch, date, got, courseID, courseDay)
	}
	return nil
}

func (db *DB) queryClasses(ctx context.Context, query string, args ...any) ([]*schema.ClassSession, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query classes: %w", err)
	}
	defer rows.Close()

	var classes []*schema.ClassSession
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan class: %w", err)
		}
		classes = append(classes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating classes: %w", err)
	}
	return classes, nil
}

func scanClass(row rowScanner) (*schema.ClassSession, error) {
	var c schema.ClassSession
	var comments sql.NullString

	if err := row.Scan(&c.ID, &c.CourseID, &c.Date, &c.Teacher, &comments); err != nil {
		return nil, err
	}
	c.Comments = stringPtr(comments)
	return &c, nil
}
