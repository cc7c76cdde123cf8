package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"sweepstakes/internal/adapters/observability"
	"sweepstakes/internal/discovery"
	"sweepstakes/internal/domain"
)

// streamCountdown pushes a countdown event per interval as server-sent
// events until the listing expires or the connection ends. Server shutdown
// ends it too.
func (h *Handlers) streamCountdown(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	l, _, ok, err := h.Q.Countdown(r.Context(), id)
	if err != nil {
		writeLookupProblem(w, err, "listing")
		return
	}
	if !ok {
		writeProblem(w, http.StatusNotFound, "No Countdown", "listing has no end date")
		return
	}
	end, _ := discovery.ParseEndDate(*l.EndDate)

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeProblem(w, http.StatusInternalServerError, "Streaming Unsupported", "response writer cannot flush")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	observability.CountdownWatches.Inc()
	defer observability.CountdownWatches.Dec()

	clock := h.Clock
	if clock == nil {
		clock = domain.SystemClock
	}
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	if h.draining != nil {
		stop := context.AfterFunc(h.draining, cancel)
		defer stop()
	}

	// emit runs on the watch goroutine; the handler only waits for it, so the
	// writer is never touched concurrently.
	watch := discovery.StartWatch(ctx, end, clock, h.interval(), func(c discovery.Countdown) {
		b, err := json.Marshal(c)
		if err != nil {
			cancel()
			return
		}
		if _, err := fmt.Fprintf(w, "event: countdown\ndata: %s\n\n", b); err != nil {
			log.Debug().Err(err).Str("listing_id", id).Msg("countdown stream write failed")
			cancel()
			return
		}
		flusher.Flush()
	})
	<-watch.Done()
}

func (h *Handlers) interval() time.Duration {
	if h.CountdownInterval <= 0 {
		return time.Second
	}
	return h.CountdownInterval
}
