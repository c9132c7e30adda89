// Package loadtest seeds a throwaway store with a realistic timetable and
// measures query-layer latency under concurrent readers.
package loadtest

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"slices"
	"sync"
	"time"

	"github.com/mschirtzinger/yoga/internal/schema"
	"github.com/mschirtzinger/yoga/internal/store"
)

// LatencyStats summarizes the latencies of one run.
type LatencyStats struct {
	Min          time.Duration `json:"min" yaml:"min"`
	Max          time.Duration `json:"max" yaml:"max"`
	Mean         time.Duration `json:"mean" yaml:"mean"`
	P50          time.Duration `json:"p50" yaml:"p50"`
	P95          time.Duration `json:"p95" yaml:"p95"`
	P99          time.Duration `json:"p99" yaml:"p99"`
	TotalQueries int           `json:"totalQueries" yaml:"total_queries"`
	Errors       int           `json:"errors" yaml:"errors"`
}

// Fixture is a seeded store plus the values its queries draw from.
type Fixture struct {
	DB        *store.DB
	CourseIDs []int64
	Teachers  []string
	Dates     []string
	Classes   int
}

var teachers = []string{"Alice", "Bao", "Carmen", "Dev", "Elif", "Farah", "Goran", "Hana"}

// firstMonday is the date the generated timetable starts from.
var firstMonday = time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)

// Seed fills db with numCourses courses spread across the week, each with
// classesPerCourse weekly sessions on the course's day.
func Seed(ctx context.Context, db *store.DB, numCourses, classesPerCourse int) (*Fixture, error) {
	if numCourses <= 0 {
		return nil, fmt.Errorf("need at least one course (got %d)", numCourses)
	}
	if classesPerCourse < 0 {
		return nil, fmt.Errorf("classes per course must not be negative (got %d)", classesPerCourse)
	}

	f := &Fixture{DB: db, Teachers: teachers}
	seen := make(map[string]bool)

	for i := 0; i < numCourses; i++ {
		day := i % len(schema.Weekdays)
		course := &schema.Course{
			DayOfWeek: schema.Weekdays[day],
			Time:      schema.FormatTime(7+i%12, (i%4)*15),
			Capacity:  fmt.Sprintf("%d", 10+i%20),
			Duration:  []string{"45", "60", "75", "90"}[i%4],
			Price:     fmt.Sprintf("%d.00", 10+i%15),
			ClassType: schema.ClassTypes[i%len(schema.ClassTypes)],
		}
		id, err := db.InsertCourse(ctx, course)
		if err != nil {
			return nil, fmt.Errorf("failed to insert course %d: %w", i, err)
		}
		f.CourseIDs = append(f.CourseIDs, id)

		for j := 0; j < classesPerCourse; j++ {
			date := schema.FormatDate(firstMonday.AddDate(0, 0, day+7*j))
			class := &schema.ClassSession{
				CourseID: id,
				Date:     date,
				Teacher:  teachers[(i+j)%len(teachers)],
			}
			if _, err := db.InsertClass(ctx, class); err != nil {
				return nil, fmt.Errorf("failed to insert class %d of course %d: %w", j, id, err)
			}
			f.Classes++
			if !seen[date] {
				seen[date] = true
				f.Dates = append(f.Dates, date)
			}
		}
	}

	return f, nil
}

// query is one read a simulated reader can issue.
type query func(ctx context.Context, f *Fixture, rng *rand.Rand) error

var queries = []query{
	func(ctx context.Context, f *Fixture, _ *rand.Rand) error {
		_, err := f.DB.ListCourses(ctx)
		return err
	},
	func(ctx context.Context, f *Fixture, rng *rand.Rand) error {
		_, err := f.DB.ListClassesByCourse(ctx, f.CourseIDs[rng.Intn(len(f.CourseIDs))])
		return err
	},
	func(ctx context.Context, f *Fixture, rng *rand.Rand) error {
		id := f.CourseIDs[rng.Intn(len(f.CourseIDs))]
		_, err := f.DB.FindClassesByTeacher(ctx, id, f.Teachers[rng.Intn(len(f.Teachers))][:2])
		return err
	},
	func(ctx context.Context, f *Fixture, rng *rand.Rand) error {
		if len(f.Dates) == 0 {
			_, err := f.DB.ListAllClasses(ctx)
			return err
		}
		id := f.CourseIDs[rng.Intn(len(f.CourseIDs))]
		_, err := f.DB.FindClassesByDate(ctx, id, f.Dates[rng.Intn(len(f.Dates))])
		return err
	},
}

// RunConcurrentQueries simulates readers each issuing queriesPerReader
// query-layer reads, cycling through listing and search.
//
// Returns aggregated latency statistics. Failed queries are counted in
// Errors and left out of the percentiles.
func (f *Fixture) RunConcurrentQueries(ctx context.Context, readers, queriesPerReader int) (*LatencyStats, error) {
	if readers <= 0 || queriesPerReader <= 0 {
		return nil, fmt.Errorf("readers and queries per reader must be positive")
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		all    []time.Duration
		errors int
	)

	for r := 0; r < readers; r++ {
		wg.Add(1)
		go func(reader int) {
			defer wg.Done()

			// Deterministic per reader so runs are comparable.
			rng := rand.New(rand.NewSource(int64(42 + reader)))
			durations := make([]time.Duration, 0, queriesPerReader)
			failed := 0

			for j := 0; j < queriesPerReader; j++ {
				if ctx.Err() != nil {
					break
				}
				q := queries[(reader+j)%len(queries)]
				start := time.Now()
				err := q(ctx, f, rng)
				elapsed := time.Since(start)
				if err != nil {
					failed++
					continue
				}
				durations = append(durations, elapsed)
			}

			mu.Lock()
			all = append(all, durations...)
			errors += failed
			mu.Unlock()
		}(r)
	}
	wg.Wait()

	if len(all) == 0 {
		return nil, fmt.Errorf("no successful queries completed (%d errors)", errors)
	}

	stats := computeLatencyStats(all)
	stats.Errors = errors
	return stats, nil
}

// computeLatencyStats calculates statistics from a slice of durations.
func computeLatencyStats(durations []time.Duration) *LatencyStats {
	if len(durations) == 0 {
		return &LatencyStats{}
	}

	sorted := slices.Clone(durations)
	slices.Sort(sorted)

	var sum time.Duration
	for _, d := range sorted {
		sum += d
	}

	return &LatencyStats{
		Min:          sorted[0],
		Max:          sorted[len(sorted)-1],
		Mean:         sum / time.Duration(len(sorted)),
		P50:          sorted[len(sorted)*50/100],
		P95:          sorted[len(sorted)*95/100],
		P99:          sorted[len(sorted)*99/100],
		TotalQueries: len(sorted),
	}
}

// Fprint writes the statistics in a human-readable block.
func (s *LatencyStats) Fprint(w io.Writer) {
	fmt.Fprintf(w, "Latency Statistics:\n")
	fmt.Fprintf(w, "  Total Queries: %d\n", s.TotalQueries)
	fmt.Fprintf(w, "  Errors:        %d\n", s.Errors)
	fmt.Fprintf(w, "  Min:           %v\n", s.Min)
	fmt.Fprintf(w, "  P50 (Median):  %v\n", s.P50)
	fmt.Fprintf(w, "  Mean:          %v\n", s.Mean)
	fmt.Fprintf(w, "  P95:           %v\n", s.P95)
	fmt.Fprintf(w, "  P99:           %v\n", s.P99)
	fmt.Fprintf(w, "  Max:           %v\n", s.Max)
}
