package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mschirtzinger/yoga/internal/schema"
)

const courseColumns = `id, dayOfTheWeek, time, capacity, duration, price, typeOfClass, description`

// ListCourses returns every course, most recently inserted first.
func (db *DB) ListCourses(ctx context.Context) ([]*schema.Course, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+courseColumns+` FROM yoga_courses ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	defer rows.Close()

	return scanCourses(rows)
}

// GetCourse returns the course with the given id, or ErrNotFound.
func (db *DB) GetCourse(ctx context.Context, id int64) (*schema.Course, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+courseColumns+` FROM yoga_courses WHERE id = ?`, id)

	course, err := scanCourse(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("course %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course %d: %w", id, err)
	}
	return course, nil
}

// InsertCourse stores a new course and returns its assigned id.
// The ID field of c is ignored.
func (db *DB) InsertCourse(ctx context.Context, c *schema.Course) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `
	INSERT INTO yoga_courses (dayOfTheWeek, time, capacity, duration, price, typeOfClass, description)
	VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(c.DayOfWeek), c.Time, c.Capacity, c.Duration, c.Price, c.ClassType, nullString(c.Description),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert course: %w", mapWriteError(err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read new course id: %w", err)
	}
	return id, nil
}

// restoreCourse inserts c keeping its id.
func restoreCourse(ctx context.Context, q querier, c *schema.Course) error {
	if c.ID <= 0 {
		return fmt.Errorf("%w: restored course needs an id", ErrConstraintViolation)
	}
	_, err := q.ExecContext(ctx, `
	INSERT INTO yoga_courses (`+courseColumns+`)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, string(c.DayOfWeek), c.Time, c.Capacity, c.Duration, c.Price, c.ClassType, nullString(c.Description),
	)
	if err != nil {
		return fmt.Errorf("failed to restore course %d: %w", c.ID, mapWriteError(err))
	}
	return nil
}

// ReplaceAll swaps the whole store content for the given records, keeping
// their ids, in one transaction. Either everything is replaced or nothing.
// Used when importing a backup.
//
// The foreign key is enforced but the weekday check is not, so a backup is
// restored exactly as it was taken.
func (db *DB) ReplaceAll(ctx context.Context, courses []*schema.Course, classes []*schema.ClassSession) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM yoga_courses`); err != nil {
			return fmt.Errorf("failed to clear courses: %w", err)
		}
		// Cascade covers sessions of existing courses; orphans cannot exist
		// with foreign keys on, but clear explicitly for older files.
		if _, err := tx.ExecContext(ctx, `DELETE FROM yoga_classes`); err != nil {
			return fmt.Errorf("failed to clear classes: %w", err)
		}
		for _, c := range courses {
			if err := restoreCourse(ctx, tx, c); err != nil {
				return err
			}
		}
		for _, c := range classes {
			if err := restoreClass(ctx, tx, c); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateCourse replaces every field of the course with id c.ID.
// Returns ErrNotFound if no such course exists.
//
// Existing class sessions are not re-checked against a changed day of week.
func (db *DB) UpdateCourse(ctx context.Context, c *schema.Course) error {
	res, err := db.conn.ExecContext(ctx, `
	UPDATE yoga_courses SET
		dayOfTheWeek = ?,
		time = ?,
		capacity = ?,
		duration = ?,
		price = ?,
		typeOfClass = ?,
		description = ?
	WHERE id = ?`,
		string(c.DayOfWeek), c.Time, c.Capacity, c.Duration, c.Price, c.ClassType, nullString(c.Description),
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update course %d: %w", c.ID, mapWriteError(err))
	}
	return requireAffected(res, "course", c.ID)
}

// DeleteCourse removes a course. Its class sessions are removed by the
// foreign key cascade. Deleting a missing course is a no-op.
func (db *DB) DeleteCourse(ctx context.Context, id int64) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM yoga_courses WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete course %d: %w", id, err)
	}
	return nil
}

// DeleteAllCourses empties the course table, and with it every class session.
func (db *DB) DeleteAllCourses(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM yoga_courses`); err != nil {
		return fmt.Errorf("failed to delete all courses: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCourse(row rowScanner) (*schema.Course, error) {
	var c schema.Course
	var day string
	var description sql.NullString

	if err := row.Scan(&c.ID, &day, &c.Time, &c.Capacity, &c.Duration, &c.Price, &c.ClassType, &description); err != nil {
		return nil, err
	}
	c.DayOfWeek = schema.Weekday(day)
	c.Description = stringPtr(description)
	return &c, nil
}

func scanCourses(rows *sql.Rows) ([]*schema.Course, error) {
	var courses []*schema.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating courses: %w", err)
	}
	return courses, nil
}

func requireAffected(res sql.Result, kind string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
	}
	return nil
}
