package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"sweepstakes/internal/adapters/observability"
	"sweepstakes/internal/app"
	"sweepstakes/internal/discovery"
	"sweepstakes/internal/domain"
)

type Handlers struct {
	Q   *app.QueryService
	Geo *app.GeoResolver

	Clock             domain.Clock
	CountdownInterval time.Duration
	RequestTimeout    time.Duration

	draining context.Context
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	h.draining = s.draining
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.router.Group(func(r chi.Router) {
		r.Use(Timeout(h.RequestTimeout))
		r.Get("/v1/listings", h.listListings)
		r.Get("/v1/listings/featured", h.featured)
		r.Get("/v1/listings/{id}", h.getListing)
		r.Get("/v1/listings/{id}/countdown", h.countdown)
		r.Get("/v1/categories", h.listCategories)
		r.Get("/v1/categories/{slug}", h.getCategory)
		r.Get("/v1/stats", h.stats)
		r.Get("/v1/geo", h.geo)
	})
	// open until the listing expires or the client leaves
	s.router.Get("/v1/listings/{id}/countdown/stream", h.streamCountdown)
}

// ---- response shapes ----

type listingDTO struct {
	ID                 string               `json:"id"`
	Name               string               `json:"name"`
	Logo               string               `json:"logo"`
	Reward             string               `json:"reward"`
	RewardValue        float64              `json:"reward_value"`
	Category           string               `json:"category"`
	CategorySlug       string               `json:"category_slug"`
	AffLink            string               `json:"aff_link"`
	EndDate            *string              `json:"end_date,omitempty"`
	CustomInstructions *string              `json:"custom_instructions,omitempty"`
	EligibleCountries  []domain.Country     `json:"eligible_countries,omitempty"`
	Countdown          *discovery.Countdown `json:"countdown,omitempty"`
	CreatedAt          time.Time            `json:"created_at"`
}

type listingsResponse struct {
	Items            []listingDTO   `json:"items"`
	Count            int            `json:"count"`
	Sort             string         `json:"sort"`
	Country          domain.Country `json:"country"`
	LocationDetected bool           `json:"location_detected"`
}

type categoryResponse struct {
	Slug        string         `json:"slug"`
	Title       string         `json:"title"`
	Category    string         `json:"category"`
	Description string         `json:"description"`
	Items       []listingDTO   `json:"items"`
	Count       int            `json:"count"`
	Country     domain.Country `json:"country"`
}

type geoResponse struct {
	Country          domain.Country `json:"country"`
	LocationDetected bool           `json:"location_detected"`
	Cached           bool           `json:"cached"`
	Error            string         `json:"error,omitempty"`
}

type statsResponse struct {
	Total     int       `json:"total"`
	NewToday  int       `json:"new_today"`
	UpdatedAt time.Time `json:"updated_at"`
}

type countdownResponse struct {
	ID        string              `json:"id"`
	EndDate   string              `json:"end_date"`
	Countdown discovery.Countdown `json:"countdown"`
}

func (h *Handlers) now() time.Time {
	if h.Clock == nil {
		return time.Now()
	}
	return h.Clock.Now()
}

func toDTO(l domain.Listing, now time.Time) listingDTO {
	d := listingDTO{
		ID:                 l.ID,
		Name:               l.Name,
		Logo:               l.Logo,
		Reward:             l.Reward,
		RewardValue:        discovery.ParseRewardValue(l.Reward),
		Category:           l.Category,
		CategorySlug:       discovery.NormalizeCategory(l.Category),
		AffLink:            l.AffLink,
		EndDate:            l.EndDate,
		CustomInstructions: l.CustomInstructions,
		CreatedAt:          l.CreatedAt,
	}
	for _, code := range l.EligibleCountries {
		d.EligibleCountries = append(d.EligibleCountries, domain.Country{Code: code, Name: domain.CountryName(code)})
	}
	if c, ok := discovery.ComputeFor(l, now); ok {
		d.Countdown = &c
	}
	return d
}

func toDTOs(ls []domain.Listing, now time.Time) []listingDTO {
	out := make([]listingDTO, 0, len(ls))
	for _, l := range ls {
		out = append(out, toDTO(l, now))
	}
	return out
}

// ---- helpers ----

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeLookupProblem(w http.ResponseWriter, err error, what string) {
	if errors.Is(err, domain.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Not Found", what+" not found")
		return
	}
	log.Error().Err(err).Msg("store read failed")
	writeProblem(w, http.StatusServiceUnavailable, "Unavailable", "listings are temporarily unavailable")
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeJSON answers 304 when the client already holds this representation.
func writeJSON(w http.ResponseWriter, r *http.Request, v any, name string) {
	etag, body := calcETagAndBody(v)
	if etag != "" {
		if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
			w.Header().Set("ETag", etag)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msgf("failed to write %s body", name)
	}
}

// visitorCountry resolves the country to filter by. An explicit selector
// skips detection entirely; "all" yields an empty country.
func (h *Handlers) visitorCountry(r *http.Request, selector string) (domain.Country, bool) {
	if sel := strings.TrimSpace(selector); sel != "" {
		if strings.EqualFold(sel, domain.AllCountries) {
			return domain.Country{}, true
		}
		code := strings.ToUpper(sel)
		return domain.Country{Code: code, Name: domain.CountryName(code)}, true
	}
	if h.Geo == nil {
		return domain.Country{}, false
	}
	res := h.Geo.Resolve(r.Context(), VisitorIP(r.Context()))
	return res.Country, !res.Failed
}

// ---- handlers ----

func (h *Handlers) listListings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	crit := domain.FilterCriteria{
		Search:   q.Get("q"),
		Category: discovery.NormalizeCategory(q.Get("category")),
		Country:  strings.TrimSpace(q.Get("country")),
		Sort:     domain.ParseSortKey(q.Get("sort")),
	}
	if crit.Category == "" {
		crit.Category = domain.AllCategories
	}

	country, detected := h.visitorCountry(r, crit.Country)
	items, err := h.Q.Browse(r.Context(), crit, country.Code)
	if err != nil {
		writeLookupProblem(w, err, "listings")
		return
	}
	observability.ObserveListings("browse", len(items))
	now := h.now()
	writeJSON(w, r, listingsResponse{
		Items:            toDTOs(items, now),
		Count:            len(items),
		Sort:             string(crit.Sort),
		Country:          country,
		LocationDetected: detected,
	}, "listListings")
}

func (h *Handlers) featured(w http.ResponseWriter, r *http.Request) {
	items, err := h.Q.Featured(r.Context())
	if err != nil {
		writeLookupProblem(w, err, "listings")
		return
	}
	observability.ObserveListings("featured", len(items))
	writeJSON(w, r, map[string]any{"items": toDTOs(items, h.now())}, "featured")
}

func (h *Handlers) getListing(w http.ResponseWriter, r *http.Request) {
	l, err := h.Q.GetListing(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeLookupProblem(w, err, "listing")
		return
	}
	writeJSON(w, r, toDTO(l, h.now()), "getListing")
}

func (h *Handlers) countdown(w http.ResponseWriter, r *http.Request) {
	l, c, ok, err := h.Q.Countdown(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeLookupProblem(w, err, "listing")
		return
	}
	if !ok {
		writeProblem(w, http.StatusNotFound, "No Countdown", "listing has no end date")
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, r, countdownResponse{ID: l.ID, EndDate: *l.EndDate, Countdown: c}, "countdown")
}

func (h *Handlers) listCategories(w http.ResponseWriter, r *http.Request) {
	pages := domain.CategoryPages()
	out := make([]map[string]string, 0, len(pages))
	for _, p := range pages {
		out = append(out, map[string]string{"slug": p.Slug, "title": p.Title, "category": p.StoreValue})
	}
	writeJSON(w, r, map[string]any{"items": out}, "listCategories")
}

func (h *Handlers) getCategory(w http.ResponseWriter, r *http.Request) {
	country, _ := h.visitorCountry(r, r.URL.Query().Get("country"))
	page, items, err := h.Q.Category(r.Context(), chi.URLParam(r, "slug"), country.Code)
	if err != nil {
		writeLookupProblem(w, err, "category")
		return
	}
	observability.ObserveListings("category", len(items))
	writeJSON(w, r, categoryResponse{
		Slug:        page.Slug,
		Title:       page.Title,
		Category:    page.StoreValue,
		Description: page.Description,
		Items:       toDTOs(items, h.now()),
		Count:       len(items),
		Country:     country,
	}, "getCategory")
}

func (h *Handlers) stats(w http.ResponseWriter, r *http.Request) {
	s, err := h.Q.Stats(r.Context())
	if err != nil {
		writeLookupProblem(w, err, "stats")
		return
	}
	writeJSON(w, r, statsResponse{Total: s.Total, NewToday: s.NewToday, UpdatedAt: s.UpdatedAt}, "stats")
}

func (h *Handlers) geo(w http.ResponseWriter, r *http.Request) {
	if h.Geo == nil {
		writeProblem(w, http.StatusServiceUnavailable, "Unavailable", "geolocation is not configured")
		return
	}
	res := h.Geo.Resolve(r.Context(), VisitorIP(r.Context()))
	out := geoResponse{Country: res.Country, LocationDetected: !res.Failed, Cached: res.Cached}
	if res.Failed {
		out.Error = domain.ErrLookupFailed.Error()
	}
	w.Header().Set("Cache-Control", "private, no-store")
	writeJSON(w, r, out, "geo")
}
