package mirror

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/mschirtzinger/yoga/internal/schema"
	yogasync "github.com/mschirtzinger/yoga/internal/sync"
)

var tracer = otel.Tracer("github.com/mschirtzinger/yoga/internal/mirror")

// startSpan continues the client's trace when the push carries one.
func startSpan(r *http.Request, name string) trace.Span {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	_, span := tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindServer))
	span.SetAttributes(attribute.String("yoga.request_id", r.Header.Get(yogasync.RequestIDHeader)))
	return span
}

// handleSyncCourses replaces the held course table with the pushed array.
func (s *Server) handleSyncCourses(w http.ResponseWriter, r *http.Request) {
	span := startSpan(r, "receive courses")
	defer span.End()

	var courses []*schema.Course
	if !s.decodePush(w, r, &courses) {
		return
	}

	if err := s.snapshot.replaceCourses(courses, time.Now()); err != nil {
		s.logger.Printf("Failed to persist snapshot: %v", err)
		http.Error(w, "failed to persist snapshot", http.StatusInternalServerError)
		return
	}

	requestID := r.Header.Get(yogasync.RequestIDHeader)
	s.logger.Printf("Received %d courses (request %s)", len(courses), requestID)
	s.announce(MessageTypeCoursesSynced, len(courses), requestID)
	w.WriteHeader(http.StatusNoContent)
}

// handleSyncClasses replaces the held class table with the pushed array.
func (s *Server) handleSyncClasses(w http.ResponseWriter, r *http.Request) {
	span := startSpan(r, "receive classes")
	defer span.End()

	var classes []*schema.ClassSession
	if !s.decodePush(w, r, &classes) {
		return
	}

	if err := s.snapshot.replaceClasses(classes, time.Now()); err != nil {
		s.logger.Printf("Failed to persist snapshot: %v", err)
		http.Error(w, "failed to persist snapshot", http.StatusInternalServerError)
		return
	}

	requestID := r.Header.Get(yogasync.RequestIDHeader)
	s.logger.Printf("Received %d classes (request %s)", len(classes), requestID)
	s.announce(MessageTypeClassesSynced, len(classes), requestID)
	w.WriteHeader(http.StatusNoContent)
}

// decodePush reads a JSON array body into v, answering 400 on failure.
func (s *Server) decodePush(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, s.maxBody)
	defer body.Close()

	if err := json.NewDecoder(body).Decode(v); err != nil {
		s.logger.Printf("Rejected push to %s: %v", r.URL.Path, err)
		http.Error(w, fmt.Sprintf("invalid JSON array: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) announce(typ MessageType, count int, requestID string) {
	msg, err := newMessage(typ, SyncedData{Count: count, RequestID: requestID})
	if err != nil {
		s.logger.Printf("Failed to marshal %s data: %v", typ, err)
		return
	}
	s.Broadcast(msg)
}

// handleSnapshot returns both held tables.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.snapshot.get())
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"clients": s.ClientCount(),
	})
}

// handleRoot returns basic server information
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	_, _ = fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head>
    <title>Yoga Sync Mirror</title>
</head>
<body>
    <h1>Yoga Sync Mirror</h1>
    <p>Push endpoints: <code>POST %s</code>, <code>POST %s</code></p>
    <p>Current snapshot: <a href="/snapshot">/snapshot</a></p>
    <p>WebSocket endpoint: <code>ws://%s/ws</code></p>
    <p>Health check: <a href="/health">/health</a></p>
</body>
</html>`, yogasync.CoursesPath, yogasync.ClassesPath, r.Host)
}
