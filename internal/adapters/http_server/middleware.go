package httpserver

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"sweepstakes/internal/adapters/observability"
)

type ctxKey int

const visitorKey ctxKey = iota

// Visitor records the caller's address once per request. It must run after
// chimw.RealIP, which has already folded proxy headers into RemoteAddr.
func Visitor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), visitorKey, clientIP(r.RemoteAddr))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// VisitorIP is the address geolocation should use for this request.
func VisitorIP(ctx context.Context) string {
	ip, _ := ctx.Value(visitorKey).(string)
	return ip
}

func clientIP(remote string) string {
	if host, _, err := net.SplitHostPort(remote); err == nil {
		return host
	}
	return strings.TrimSpace(remote)
}

// ---- response recorder ----

type recorder struct {
	http.ResponseWriter
	code  int
	bytes int64
}

func (w *recorder) WriteHeader(code int) {
	if w.code == 0 {
		w.code = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *recorder) Write(b []byte) (int, error) {
	if w.code == 0 {
		w.code = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += int64(n)
	return n, err
}

// Flush lets event streams through both wrappers.
func (w *recorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *recorder) Unwrap() http.ResponseWriter { return w.ResponseWriter }

func (w *recorder) status() int {
	if w.code == 0 {
		return http.StatusOK
	}
	return w.code
}

// routeLabel keeps metric cardinality bounded: unmatched paths share one label.
func routeLabel(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

func isStream(r *http.Request) bool { return strings.HasSuffix(r.URL.Path, "/stream") }

// ---- metrics ----

func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &recorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		observability.ObserveHTTP(routeLabel(r), r.Method, rec.status(), time.Since(start), isStream(r))
	})
}

// ---- access log ----

// Logger writes one http_request line per request; 5xx responses log at error.
func Logger(l zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &recorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			lvl := zerolog.InfoLevel
			if rec.status() >= http.StatusInternalServerError {
				lvl = zerolog.ErrorLevel
			}
			l.WithLevel(lvl).
				Str("request_id", chimw.GetReqID(r.Context())).
				Str("route", routeLabel(r)).
				Str("method", r.Method).
				Int("status", rec.status()).
				Int64("bytes", rec.bytes).
				Dur("duration", time.Since(start)).
				Str("visitor", VisitorIP(r.Context())).
				Str("ua", r.UserAgent()).
				Msg("http_request")
		})
	}
}

// Timeout bounds request handling. chi's Timeout cancels the request context
// rather than buffering the response, so handlers must honour ctx.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	if d <= 0 {
		d = 5 * time.Second
	}
	return chimw.Timeout(d)
}
