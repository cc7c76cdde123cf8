package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// Server owns the router. Per-route timeouts are set in MountHandlers since
// countdown streams stay open for as long as the client watches.
type Server struct {
	router chi.Router

	// draining is canceled on Shutdown so open streams end
	draining context.Context
	drain    context.CancelFunc
}

func New() *Server {
	r := chi.NewRouter()
	r.Use(
		chimw.RealIP,
		chimw.RequestID,
		chimw.Recoverer,
		Visitor,
		Metrics,
		Logger(log.Logger),
	)
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeProblem(w, http.StatusNotFound, "Not Found", "no route for "+req.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeProblem(w, http.StatusMethodNotAllowed, "Method Not Allowed", req.Method+" is not supported on "+req.URL.Path)
	})
	draining, drain := context.WithCancel(context.Background())
	return &Server{router: r, draining: draining, drain: drain}
}

func (s *Server) Handler() http.Handler { return s.router }

// Mount attaches an extra handler such as /metrics.
func (s *Server) Mount(path string, h http.Handler) { s.router.Handle(path, h) }

// HTTPServer returns a server for the router whose Shutdown also ends open
// countdown streams. Plain requests keep their own context and drain normally.
func (s *Server) HTTPServer(addr string) *http.Server {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	hs.RegisterOnShutdown(s.drain)
	return hs
}
