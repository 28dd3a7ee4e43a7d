package logging

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

const requestAttrsKey contextKey = "requestAttrs"

// requestAttrs collects what inner handlers learn about a request, such as
// the matched route and scene id, for the completion line
type requestAttrs struct {
	mu   sync.Mutex
	args []any
}

// AddRequestAttrs adds key/value pairs to the completion line logged for the
// current request. It does nothing outside RequestIDMiddleware.
func AddRequestAttrs(ctx context.Context, args ...any) {
	ra, ok := ctx.Value(requestAttrsKey).(*requestAttrs)
	if !ok {
		return
	}
	ra.mu.Lock()
	ra.args = append(ra.args, args...)
	ra.mu.Unlock()
}

func (ra *requestAttrs) has(key string) bool {
	ra.mu.Lock()
	defer ra.mu.Unlock()
	for i := 0; i < len(ra.args); i += 2 {
		if k, ok := ra.args[i].(string); ok && k == key {
			return true
		}
	}
	return false
}

// ResponseRecorder captures the status code and body size of a response.
// It passes Flush through so the change feed can stream.
type ResponseRecorder struct {
	http.ResponseWriter
	Status int
	Bytes  int

	wroteHeader bool
}

// NewResponseRecorder wraps w. The status is 200 until WriteHeader says otherwise.
func NewResponseRecorder(w http.ResponseWriter) *ResponseRecorder {
	if rec, ok := w.(*ResponseRecorder); ok {
		return rec
	}
	return &ResponseRecorder{ResponseWriter: w, Status: http.StatusOK}
}

func (rw *ResponseRecorder) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.Status = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *ResponseRecorder) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.Bytes += n
	return n, err
}

func (rw *ResponseRecorder) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer
func (rw *ResponseRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// RequestIDMiddleware tags each request with an ID (taken from X-Request-ID
// when the client sent one) and logs one line when it completes. Client
// errors are warnings; only 5xx responses are logged as errors.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		attrs := &requestAttrs{}
		ctx := WithRequestID(r.Context(), requestID)
		ctx = context.WithValue(ctx, requestAttrsKey, attrs)
		r = r.WithContext(ctx)

		w.Header().Set("X-Request-ID", requestID)
		rec := NewResponseRecorder(w)

		start := time.Now()
		DebugContext(ctx, "request started", "method", r.Method, "path", r.URL.Path)

		next.ServeHTTP(rec, r)

		args := []any{"method", r.Method}
		if !attrs.has("route") {
			args = append(args, "path", r.URL.Path)
		}
		attrs.mu.Lock()
		args = append(args, attrs.args...)
		attrs.mu.Unlock()
		args = append(args,
			"status", rec.Status,
			"bytes", rec.Bytes,
			"durationMs", time.Since(start).Milliseconds(),
		)

		switch {
		case rec.Status >= 500:
			ErrorContext(ctx, "request failed", args...)
		case rec.Status >= 400:
			WarnContext(ctx, "request rejected", args...)
		default:
			InfoContext(ctx, "request completed", args...)
		}
	})
}
