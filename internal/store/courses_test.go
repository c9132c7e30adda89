package store

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/mschirtzinger/yoga/internal/schema"
)

func TestInsertCourse_GetCourse(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	desc := "Slow flow for beginners"
	in := mondayCourse()
	in.Description = &desc

	id, err := db.InsertCourse(ctx, in)
	if err != nil {
		t.Fatalf("InsertCourse() failed: %v", err)
	}
	if id != 1 {
		t.Errorf("first course id = %d, want 1", id)
	}

	got, err := db.GetCourse(ctx, id)
	if err != nil {
		t.Fatalf("GetCourse() failed: %v", err)
	}

	want := *in
	want.ID = id
	if !reflect.DeepEqual(*got, want) {
		t.Errorf("GetCourse() = %+v, want %+v", *got, want)
	}
}

func TestInsertCourse_IgnoresID(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	c := mondayCourse()
	c.ID = 42
	id, err := db.InsertCourse(ctx, c)
	if err != nil {
		t.Fatalf("InsertCourse() failed: %v", err)
	}
	if id != 1 {
		t.Errorf("id = %d, want store-assigned 1", id)
	}
}

func TestInsertCourse_NilDescription(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	id := mustInsertCourse(t, db, mondayCourse())
	got, err := db.GetCourse(ctx, id)
	if err != nil {
		t.Fatalf("GetCourse() failed: %v", err)
	}
	if got.Description != nil {
		t.Errorf("Description = %q, want nil", *got.Description)
	}
}

func TestGetCourse_NotFound(t *testing.T) {
	db := openTestDB(t)

	_, err := db.GetCourse(context.Background(), 99)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetCourse() error = %v, want ErrNotFound", err)
	}
}

func TestListCourses_NewestFirst(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	var ids []int64
	for _, day := range []schema.Weekday{schema.Monday, schema.Wednesday, schema.Friday} {
		c := mondayCourse()
		c.DayOfWeek = day
		ids = append(ids, mustInsertCourse(t, db, c))
	}

	courses, err := db.ListCourses(ctx)
	if err != nil {
		t.Fatalf("ListCourses() failed: %v", err)
	}
	if len(courses) != 3 {
		t.Fatalf("ListCourses() returned %d courses, want 3", len(courses))
	}
	for i, c := range courses {
		want := ids[len(ids)-1-i]
		if c.ID != want {
			t.Errorf("courses[%d].ID = %d, want %d", i, c.ID, want)
		}
	}
	if courses[0].DayOfWeek != schema.Friday {
		t.Errorf("newest course day = %s, want Friday", courses[0].DayOfWeek)
	}
}

func TestListCourses_Empty(t *testing.T) {
	db := openTestDB(t)

	courses, err := db.ListCourses(context.Background())
	if err != nil {
		t.Fatalf("ListCourses() failed: %v", err)
	}
	if len(courses) != 0 {
		t.Errorf("ListCourses() returned %d courses, want 0", len(courses))
	}
}

func TestUpdateCourse_RoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	id := mustInsertCourse(t, db, mondayCourse())

	desc := "Moved to the evening"
	updated := &schema.Course{
		ID:          id,
		DayOfWeek:   schema.Tuesday,
		Time:        "18:30",
		Capacity:    "12",
		Duration:    "75",
		Price:       "20.50",
		ClassType:   "Aerial Yoga",
		Description: &desc,
	}
	if err := db.UpdateCourse(ctx, updated); err != nil {
		t.Fatalf("UpdateCourse() failed: %v", err)
	}

	got, err := db.GetCourse(ctx, id)
	if err != nil {
		t.Fatalf("GetCourse() failed: %v", err)
	}
	if !reflect.DeepEqual(got, updated) {
		t.Errorf("GetCourse() = %+v, want %+v", got, updated)
	}
}

func TestUpdateCourse_MissingID(t *testing.T) {
	db := openTestDB(t)

	c := mondayCourse()
	c.ID = 7
	err := db.UpdateCourse(context.Background(), c)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateCourse() error = %v, want ErrNotFound", err)
	}
}

func TestDeleteCourse_Cascades(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	keep := mustInsertCourse(t, db, mondayCourse())
	doomed := mustInsertCourse(t, db, mondayCourse())
	mustInsertClass(t, db, keep, "03/10/2025", "Ana")
	for _, date := range []string{"03/10/2025", "03/17/2025", "03/24/2025"} {
		mustInsertClass(t, db, doomed, date, "Ben")
	}

	if err := db.DeleteCourse(ctx, doomed); err != nil {
		t.Fatalf("DeleteCourse() failed: %v", err)
	}

	if _, err := db.GetCourse(ctx, doomed); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted course still found: %v", err)
	}

	classes, err := db.ListClassesByCourse(ctx, doomed)
	if err != nil {
		t.Fatalf("ListClassesByCourse() failed: %v", err)
	}
	if len(classes) != 0 {
		t.Errorf("%d classes survived course delete", len(classes))
	}

	remaining, err := db.ListClassesByCourse(ctx, keep)
	if err != nil {
		t.Fatalf("ListClassesByCourse() failed: %v", err)
	}
	if len(remaining) != 1 {
		t.Errorf("other course has %d classes, want 1", len(remaining))
	}
}

func TestDeleteCourse_Missing(t *testing.T) {
	db := openTestDB(t)
	if err := db.DeleteCourse(context.Background(), 123); err != nil {
		t.Errorf("DeleteCourse() of missing id failed: %v", err)
	}
}

func TestDeleteAllCourses(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	id := mustInsertCourse(t, db, mondayCourse())
	mustInsertCourse(t, db, mondayCourse())
	mustInsertClass(t, db, id, "03/10/2025", "Ana")

	if err := db.DeleteAllCourses(ctx); err != nil {
		t.Fatalf("DeleteAllCourses() failed: %v", err)
	}

	courses, classes, err := db.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts() failed: %v", err)
	}
	if courses != 0 || classes != 0 {
		t.Errorf("Counts() = %d, %d after delete all, want 0, 0", courses, classes)
	}

	// Ids keep increasing after the table is emptied.
	next := mustInsertCourse(t, db, mondayCourse())
	if next != 3 {
		t.Errorf("next id = %d, want 3", next)
	}
}

func TestReplaceAll_KeepsIDs(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	c := mondayCourse()
	c.ID = 10
	if err := db.ReplaceAll(ctx, []*schema.Course{c}, nil); err != nil {
		t.Fatalf("ReplaceAll() failed: %v", err)
	}

	got, err := db.GetCourse(ctx, 10)
	if err != nil {
		t.Fatalf("GetCourse() failed: %v", err)
	}
	if got.ID != 10 {
		t.Errorf("restored id = %d, want 10", got.ID)
	}

	// New inserts continue after the restored id.
	if id := mustInsertCourse(t, db, mondayCourse()); id != 11 {
		t.Errorf("next id = %d, want 11", id)
	}
}

func TestReplaceAll_RejectsBadIDs(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	dup1, dup2 := mondayCourse(), mondayCourse()
	dup1.ID, dup2.ID = 3, 3
	if err := db.ReplaceAll(ctx, []*schema.Course{dup1, dup2}, nil); !errors.Is(err, ErrConstraintViolation) {
		t.Errorf("duplicate course ids: error = %v, want ErrConstraintViolation", err)
	}

	if err := db.ReplaceAll(ctx, []*schema.Course{mondayCourse()}, nil); !errors.Is(err, ErrConstraintViolation) {
		t.Errorf("course without id: error = %v, want ErrConstraintViolation", err)
	}
}

func TestReplaceAll(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	old := mustInsertCourse(t, db, mondayCourse())
	mustInsertClass(t, db, old, "03/10/2025", "Ana")

	c := mondayCourse()
	c.ID = 40
	courses := []*schema.Course{c}
	classes := []*schema.ClassSession{{ID: 41, CourseID: 40, Date: "03/10/2025", Teacher: "Ben"}}

	if err := db.ReplaceAll(ctx, courses, classes); err != nil {
		t.Fatalf("ReplaceAll() failed: %v", err)
	}

	if _, err := db.GetCourse(ctx, old); !errors.Is(err, ErrNotFound) {
		t.Errorf("old course survived ReplaceAll: %v", err)
	}
	got, err := db.GetClass(ctx, 41)
	if err != nil {
		t.Fatalf("GetClass() failed: %v", err)
	}
	if got.Teacher != "Ben" {
		t.Errorf("restored teacher = %q, want Ben", got.Teacher)
	}
}

func TestReplaceAll_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	keep := mustInsertCourse(t, db, mondayCourse())

	c := mondayCourse()
	c.ID = 9
	orphan := &schema.ClassSession{ID: 1, CourseID: 404, Date: "03/10/2025", Teacher: "Ana"}

	err := db.ReplaceAll(ctx, []*schema.Course{c}, []*schema.ClassSession{orphan})
	if !errors.Is(err, ErrConstraintViolation) {
		t.Fatalf("ReplaceAll() error = %v, want ErrConstraintViolation", err)
	}

	if _, err := db.GetCourse(ctx, keep); err != nil {
		t.Errorf("original course lost after failed ReplaceAll: %v", err)
	}
	if _, err := db.GetCourse(ctx, 9); !errors.Is(err, ErrNotFound) {
		t.Errorf("partial ReplaceAll was committed: %v", err)
	}
}
