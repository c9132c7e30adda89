package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	stdsync "sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"

	"github.com/mschirtzinger/yoga/internal/schema"
)

var tracer = otel.Tracer("github.com/mschirtzinger/yoga/internal/sync")

const (
	// CoursesPath is the endpoint receiving the course table.
	CoursesPath = "/syncYogaCourses"
	// ClassesPath is the endpoint receiving the class table.
	ClassesPath = "/syncYogaClasses"

	// RequestIDHeader carries a per-push id for correlating server logs.
	RequestIDHeader = "X-Request-ID"

	maxErrorBody = 512
)

// Source provides the full tables to push. *store.DB satisfies it.
type Source interface {
	ListCourses(ctx context.Context) ([]*schema.Course, error)
	ListAllClasses(ctx context.Context) ([]*schema.ClassSession, error)
}

// Config holds configuration for the sync client.
type Config struct {
	// BaseURL of the remote server, e.g. "http://localhost:3000".
	// Empty disables pushing.
	BaseURL string

	// Timeout bounds a single push (default 30s).
	Timeout time.Duration

	// QueueSize is how many triggers may wait for the worker (default 16).
	QueueSize int

	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client

	// Logger for push outcomes (default: stderr with "[sync] " prefix).
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:   30 * time.Second,
		QueueSize: 16,
	}
}

type job int

const (
	jobCourses job = iota
	jobClasses
)

func (j job) String() string {
	switch j {
	case jobCourses:
		return "courses"
	case jobClasses:
		return "classes"
	default:
		return "unknown"
	}
}

// Client pushes local tables to the remote server.
type Client struct {
	source  Source
	baseURL string
	http    *http.Client
	timeout time.Duration
	logger  *log.Logger

	mu     stdsync.Mutex
	closed bool
	queue  chan job
	done   chan struct{}
}

// New creates a Client and starts its background worker.
// Call Close to let queued pushes finish.
func New(source Source, config Config) *Client {
	defaults := DefaultConfig()
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.QueueSize <= 0 {
		config.QueueSize = defaults.QueueSize
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: config.Timeout}
	}

	c := &Client{
		source:  source,
		baseURL: strings.TrimRight(strings.TrimSpace(config.BaseURL), "/"),
		http:    config.HTTPClient,
		timeout: config.Timeout,
		logger:  config.Logger,
		queue:   make(chan job, config.QueueSize),
		done:    make(chan struct{}),
	}

	go c.run()
	return c
}

// Enabled reports whether a remote endpoint is configured.
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

// SyncCourses schedules a push of the whole course table and returns
// immediately. The outcome is only logged.
func (c *Client) SyncCourses() {
	c.enqueue(jobCourses)
}

// SyncClasses schedules a push of the whole class table and returns
// immediately. The outcome is only logged.
func (c *Client) SyncClasses() {
	c.enqueue(jobClasses)
}

func (c *Client) enqueue(j job) {
	if !c.Enabled() {
		c.logger.Printf("Sync disabled, skipping %s push", j)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		c.logger.Printf("Client closed, skipping %s push", j)
		return
	}

	select {
	case c.queue <- j:
	default:
		// The next trigger sends the full table again.
		c.logger.Printf("Warning: sync queue full, dropping %s push", j)
	}
}

// Close stops accepting triggers and waits for queued pushes to finish or
// for ctx to expire, whichever comes first.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.queue)
	}
	c.mu.Unlock()

	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("sync queue not drained: %w", ctx.Err())
	}
}

// run is the background worker. Errors end here.
func (c *Client) run() {
	defer close(c.done)

	for j := range c.queue {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		var (
			n   int
			err error
		)
		switch j {
		case jobCourses:
			n, err = c.pushCourses(ctx)
		case jobClasses:
			n, err = c.pushClasses(ctx)
		}
		cancel()

		if err != nil {
			c.logger.Printf("Sync of %s failed: %v", j, err)
			continue
		}
		c.logger.Printf("Synced %d %s", n, j)
	}
}

// PushCourses sends the whole course table and waits for the response.
func (c *Client) PushCourses(ctx context.Context) error {
	_, err := c.pushCourses(ctx)
	return err
}

// PushClasses sends the whole class table and waits for the response.
func (c *Client) PushClasses(ctx context.Context) error {
	_, err := c.pushClasses(ctx)
	return err
}

func (c *Client) pushCourses(ctx context.Context) (int, error) {
	courses, err := c.source.ListCourses(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read local courses: %w", err)
	}
	if courses == nil {
		courses = []*schema.Course{}
	}
	return len(courses), c.post(ctx, CoursesPath, courses)
}

func (c *Client) pushClasses(ctx context.Context) (int, error) {
	classes, err := c.source.ListAllClasses(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read local classes: %w", err)
	}
	if classes == nil {
		classes = []*schema.ClassSession{}
	}
	return len(classes), c.post(ctx, ClassesPath, classes)
}

func (c *Client) post(ctx context.Context, path string, payload any) (err error) {
	if !c.Enabled() {
		return ErrNotConfigured
	}

	requestID := uuid.NewString()
	ctx, span := tracer.Start(ctx, "POST "+path)
	span.SetAttributes(attribute.String("yoga.request_id", requestID))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: POST %s: %w", ErrSyncTransport, path, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: POST %s returned %s: %s",
			ErrSyncTransport, path, resp.Status, strings.TrimSpace(string(excerpt)))
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
