package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/collection"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/searcher"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/similarity"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/weighting"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/logger"
)

const defaultRunsLimit = 20

type Handler struct {
	svc        *searcher.Service
	maxResults int
	logger     *slog.Logger
}

// New serves svc over HTTP. k is capped at maxResults when positive.
func New(svc *searcher.Service, maxResults int) *Handler {
	return &Handler{
		svc:        svc,
		maxResults: maxResults,
		logger:     slog.Default().With("component", "search-handler"),
	}
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/related/{id}", h.Related)
	mux.HandleFunc("POST /api/v1/evaluate", h.Evaluate)
	mux.HandleFunc("GET /api/v1/evaluations", h.Runs)
	mux.HandleFunc("GET /api/v1/evaluations/{id}", h.Run)
	mux.HandleFunc("GET /api/v1/collection", h.Collection)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

// Search handles GET /api/v1/search?q=...&method=&weighting=&k=&feedback=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	p, err := h.params(q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	fb, err := boolParam(q, "feedback")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	resp, err := h.svc.Search(r.Context(), searcher.SearchRequest{Query: query, Params: p, Feedback: fb})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// Related handles GET /api/v1/related/{id}.
func (h *Handler) Related(w http.ResponseWriter, r *http.Request) {
	p, err := h.params(r.URL.Query())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	resp, err := h.svc.Related(r.Context(), r.PathValue("id"), p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

type evaluateBody struct {
	Method    string `json:"method"`
	Weighting string `json:"weighting"`
	K         int    `json:"k"`
	Feedback  bool   `json:"feedback"`
}

// Evaluate handles POST /api/v1/evaluate. An empty body uses the defaults.
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var body evaluateBody
	if r.ContentLength != 0 {
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&body); err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}
	vals := url.Values{}
	if body.Method != "" {
		vals.Set("method", body.Method)
	}
	if body.Weighting != "" {
		vals.Set("weighting", body.Weighting)
	}
	p, err := h.params(vals)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	k := body.K
	if k < 0 {
		h.writeError(w, http.StatusBadRequest, "k must be a positive integer")
		return
	}
	if k == 0 {
		k = evaluation.DefaultK
	}
	run, err := h.svc.Evaluate(r.Context(), searcher.EvaluateRequest{Params: p, K: k, Feedback: body.Feedback})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, run)
}

// Runs handles GET /api/v1/evaluations?limit=.
func (h *Handler) Runs(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunsLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	runs, err := h.svc.Runs(r.Context(), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"runs": runs, "count": len(runs)})
}

func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	run, err := h.svc.Run(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, run)
}

// Collection describes the loaded collection.
func (h *Handler) Collection(w http.ResponseWriter, r *http.Request) {
	c := h.svc.Collection()
	h.writeJSON(w, http.StatusOK, map[string]any{
		"documents":       c.Len(),
		"vocabulary_size": c.Index().Size(),
		"fingerprint":     c.Fingerprint(),
	})
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	c := h.svc.Cache()
	if c == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := c.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

// CacheInvalidate drops every cached result of the current collection.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	c := h.svc.Cache()
	if c == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	n, err := c.Invalidate(r.Context(), h.svc.Collection().Fingerprint())
	if err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "deleted": n})
}

// params overlays query-string values on the service defaults.
func (h *Handler) params(q url.Values) (collection.Params, error) {
	p := h.svc.Defaults()
	if s := q.Get("method"); s != "" {
		m, err := similarity.ParseMethod(s)
		if err != nil {
			return p, err
		}
		p.Method = m
	}
	if s := q.Get("weighting"); s != "" {
		sc, err := weighting.ParseScheme(s)
		if err != nil {
			return p, err
		}
		p.Scheme = sc
	}
	if s := q.Get("k"); s != "" {
		k, err := strconv.Atoi(s)
		if err != nil || k < 1 {
			return p, apperrors.New(apperrors.ErrInvalidInput, "k", "k must be a positive integer")
		}
		p.K = k
	}
	if h.maxResults > 0 && p.K > h.maxResults {
		p.K = h.maxResults
	}
	return p, nil
}

func boolParam(q url.Values, name string) (bool, error) {
	s := q.Get(name)
	if s == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, apperrors.Newf(apperrors.ErrInvalidInput, name, "%s must be a boolean", name)
	}
	return b, nil
}

// fail maps err to its HTTP status. Server-side failures are logged and
// their details withheld from the client.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatusCode(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
		var appErr *apperrors.AppError
		if status == http.StatusInternalServerError || !errors.As(err, &appErr) {
			h.writeError(w, status, http.StatusText(status))
			return
		}
	}
	h.writeError(w, status, err.Error())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
