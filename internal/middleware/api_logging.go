package middleware

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"pallet-backend/internal/models"
)

// ErrorLogWriter persists error log rows (report_log)
type ErrorLogWriter interface {
	Insert(ctx context.Context, l *models.ErrorLog) error
}

// APILoggingMiddleware records 5xx responses in report_log
type APILoggingMiddleware struct {
	repo    ErrorLogWriter
	logChan chan *models.ErrorLog
	done    chan struct{}
}

// responseWriter wraps http.ResponseWriter to capture status code and the
// start of the body for error responses
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

const maxCapturedBody = 255

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if rw.statusCode >= 500 && rw.body.Len() < maxCapturedBody {
		rest := maxCapturedBody - rw.body.Len()
		if len(b) < rest {
			rest = len(b)
		}
		rw.body.Write(b[:rest])
	}
	return rw.ResponseWriter.Write(b)
}

// Flush keeps streaming responses working through the wrapper
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// NewAPILoggingMiddleware creates a new error logging middleware
func NewAPILoggingMiddleware(repo ErrorLogWriter) *APILoggingMiddleware {
	m := &APILoggingMiddleware{
		repo:    repo,
		logChan: make(chan *models.ErrorLog, 1000), // Buffer for async logging
		done:    make(chan struct{}),
	}

	// Start async log writer
	go m.asyncLogWriter()

	return m
}

// asyncLogWriter writes logs asynchronously to avoid blocking requests
func (m *APILoggingMiddleware) asyncLogWriter() {
	defer close(m.done)
	for entry := range m.logChan {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := m.repo.Insert(ctx, entry); err != nil {
			log.Printf("[ErrorLog] Failed to write report_log: %v", err)
		}
		cancel()
	}
}

// Handler returns the middleware handler
func (m *APILoggingMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip logging for health checks and websocket upgrades
		if shouldSkipLogging(r) {
			next.ServeHTTP(w, r)
			return
		}

		// Authentication runs inside this handler on a derived request, so
		// it reports the user back through the slot
		slot := &userSlot{}
		r = r.WithContext(context.WithValue(r.Context(), userSlotKey, slot))

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		if wrapped.statusCode < 500 {
			return
		}

		var userID *int
		if slot.ok {
			id := slot.id
			userID = &id
		} else if id, ok := GetUserIDFromContext(r.Context()); ok {
			userID = &id
		}

		info := strings.TrimSpace(wrapped.body.String())
		if info == "" {
			info = http.StatusText(wrapped.statusCode)
		}

		entry := &models.ErrorLog{
			Error:     fmt.Sprintf("%s %s -> %d", r.Method, sanitizePath(r.URL.Path), wrapped.statusCode),
			ErrorInfo: info,
			UserID:    userID,
		}

		// Send to async writer (non-blocking)
		select {
		case m.logChan <- entry:
		default:
			log.Printf("[ErrorLog] Log buffer full, dropping entry for %s", r.URL.Path)
		}
	})
}

// shouldSkipLogging returns true for requests that shouldn't be logged
func shouldSkipLogging(r *http.Request) bool {
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return true
	}

	skipPaths := []string{
		"/health",
		"/metrics",
		"/favicon.ico",
	}

	for _, skip := range skipPaths {
		if strings.HasPrefix(r.URL.Path, skip) {
			return true
		}
	}

	return false
}

// sanitizePath strips the query string and truncates very long paths
func sanitizePath(path string) string {
	if idx := strings.Index(path, "?"); idx != -1 {
		path = path[:idx]
	}
	if len(path) > 200 {
		path = path[:200]
	}
	return path
}

// Close stops accepting entries and waits for pending ones to be written
func (m *APILoggingMiddleware) Close() {
	close(m.logChan)
	<-m.done
}
