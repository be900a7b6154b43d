// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"review_dashboard/internal/app"
	"review_dashboard/internal/domain"
)

type Handlers struct{ Q *app.QueryService }

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// envelope is the API response wrapper for /api routes.
type envelope struct {
	Status string `json:"status"`
	Result any    `json:"result"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/api/reviews", h.listReviews)
	s.mux.Get("/api/reviews/hostaway", h.listHostawayReviews)
	s.mux.Patch("/api/reviews/{id}/display", h.setDisplay)
	s.mux.Get("/api/properties/performance", h.propertyPerformance)
	s.mux.Get("/api/properties/{propertyID}/reviews", h.listPropertyReviews)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
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

// writeResult writes the {status, result} envelope with ETag handling.
func writeResult(w http.ResponseWriter, r *http.Request, result any) {
	etag, body := calcETagAndBody(envelope{Status: "success", Result: result})
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag) // include ETag on 304
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

// parseReviewsQuery reads the shared filter params (property, display, limit).
func parseReviewsQuery(r *http.Request) (domain.ReviewsQuery, error) {
	q := domain.ReviewsQuery{Limit: 50}
	if p := r.URL.Query().Get("property"); p != "" {
		q.PropertyID = &p
	}
	if ds := r.URL.Query().Get("display"); ds != "" {
		d, err := strconv.ParseBool(ds)
		if err != nil {
			return q, errors.New("display must be true or false")
		}
		q.DisplayOnWebsite = &d
	}
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 200 {
			return q, errors.New("limit must be an integer between 1 and 200")
		}
		q.Limit = l
	}
	return q, nil
}

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	q, err := parseReviewsQuery(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid query", err.Error())
		return
	}
	out, err := h.Q.ListReviews(r.Context(), q)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal", "failed to list reviews")
		return
	}
	if out == nil {
		out = []domain.Review{}
	}
	writeResult(w, r, out)
}

// listHostawayReviews serves the full normalized Hostaway feed; the
// dashboard uses it as its primary data source.
func (h *Handlers) listHostawayReviews(w http.ResponseWriter, r *http.Request) {
	limit := 200
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 200 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 200")
			return
		}
		limit = l
	}
	out, err := h.Q.ListReviews(r.Context(), domain.ReviewsQuery{Limit: limit})
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal", "failed to list reviews")
		return
	}
	if out == nil {
		out = []domain.Review{}
	}
	writeResult(w, r, out)
}

func (h *Handlers) listPropertyReviews(w http.ResponseWriter, r *http.Request) {
	propertyID := chi.URLParam(r, "propertyID")
	q, err := parseReviewsQuery(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid query", err.Error())
		return
	}
	q.PropertyID = &propertyID
	out, err := h.Q.ListReviews(r.Context(), q)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal", "failed to list reviews")
		return
	}
	if out == nil {
		out = []domain.Review{}
	}
	writeResult(w, r, out)
}

func (h *Handlers) propertyPerformance(w http.ResponseWriter, r *http.Request) {
	out, err := h.Q.PropertyPerformance(r.Context(), time.Now())
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal", "failed to compute performance")
		return
	}
	if out == nil {
		out = []domain.PropertyPerformance{}
	}
	writeResult(w, r, out)
}

func (h *Handlers) setDisplay(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body struct {
		DisplayOnWebsite *bool `json:"displayOnWebsite"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.DisplayOnWebsite == nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", `expected {"displayOnWebsite": true|false}`)
		return
	}
	rv, err := h.Q.SetDisplayOnWebsite(r.Context(), id, *body.DisplayOnWebsite)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Not Found", "review not found")
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Internal", "failed to update review")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(envelope{Status: "success", Result: rv}); err != nil {
		log.Error().Err(err).Msg("failed to write setDisplay body")
	}
}
