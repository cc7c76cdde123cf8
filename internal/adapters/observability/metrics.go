package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const namespace = "sweeps"

var (
	// ---- http surface ----
	Requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "http", Name: "requests_total",
		Help: "API requests by route pattern and status code.",
	}, []string{"route", "method", "code"})

	RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
		Help:    "API request latency. Countdown streams are excluded.",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"route"})

	ListingsReturned = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Subsystem: "discovery", Name: "listings_returned",
		Help:    "Listings in one browse or category response.",
		Buckets: []float64{0, 1, 3, 10, 25, 50, 100, 250, 500},
	}, []string{"view"}) // view: browse|category|featured

	// ---- geolocation ----
	GeoLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "geo", Name: "lookups_total",
		Help: "Outbound geolocation calls by provider and HTTP status (0 = transport error).",
	}, []string{"provider", "code"})

	GeoLookupDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Subsystem: "geo", Name: "lookup_duration_seconds",
		Help:    "Outbound geolocation latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})

	GeoResolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "geo", Name: "resolutions_total",
		Help: "Visitor country resolutions.",
	}, []string{"result"}) // result: cached|lookup|failed

	// ---- cache + streams + import ----
	CacheEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "cache", Name: "events_total",
		Help: "Cache hits, misses, writes and evictions.",
	}, []string{"store", "event"}) // event: hit|miss|set|del

	CountdownWatches = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: "countdown", Name: "watches_active",
		Help: "Live countdown streams currently observed.",
	})

	ImportedRecords = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "import", Name: "records_total",
		Help: "Listing records processed by the importer.",
	}, []string{"outcome"}) // outcome: ok|failed
)

func appCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		Requests, RequestDuration, ListingsReturned,
		GeoLookups, GeoLookupDuration, GeoResolutions,
		CacheEvents, CountdownWatches, ImportedRecords,
	}
}

// InitRegistry builds a registry with the service collectors plus the Go
// runtime and process collectors.
func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(appCollectors()...)
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// Serve exposes reg on a separate listener in the background. Empty addr disables it.
func Serve(addr string, reg *prometheus.Registry) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(reg))

	go func() {
		srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		log.Info().Str("addr", addr).Msg("metrics listener up")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics listener failed")
		}
	}()
}

func ObserveHTTP(route, method string, code int, dur time.Duration, streamed bool) {
	Requests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	if !streamed {
		RequestDuration.WithLabelValues(route).Observe(dur.Seconds())
	}
}

func ObserveGeoLookup(provider string, code int, dur time.Duration) {
	GeoLookups.WithLabelValues(provider, strconv.Itoa(code)).Inc()
	GeoLookupDuration.WithLabelValues(provider).Observe(dur.Seconds())
}

func ObserveCache(store, event string) { CacheEvents.WithLabelValues(store, event).Inc() }

func ObserveGeo(result string) { GeoResolutions.WithLabelValues(result).Inc() }

func ObserveListings(view string, n int) { ListingsReturned.WithLabelValues(view).Observe(float64(n)) }

func ObserveImport(ok bool) {
	if ok {
		ImportedRecords.WithLabelValues("ok").Inc()
		return
	}
	ImportedRecords.WithLabelValues("failed").Inc()
}

// LabelErr is a low-cardinality error label: the dynamic type name.
func LabelErr(err error) string {
	if err == nil {
		return "none"
	}
	return fmt.Sprintf("%T", err)
}
