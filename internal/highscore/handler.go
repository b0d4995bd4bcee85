package highscore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/samber/lo"
	"github.com/vovakirdan/dude-platformer/internal/config"
)

const maxBodyBytes = 8 << 10

// Handler serves the high-score HTTP API.
type Handler struct {
	svc        *Service
	cfg        config.HighScoreConfig
	logger     *log.Logger
	challenges *clientLimiter
	origins    map[string]bool
	anyOrigin  bool
}

// NewHandler wires the service to HTTP. A nil logger discards output.
func NewHandler(svc *Service, cfg config.HighScoreConfig, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Handler{
		svc:        svc,
		cfg:        cfg,
		logger:     logger,
		challenges: newClientLimiter(cfg.RateLimit.ChallengePerSecond, cfg.RateLimit.ChallengeBurst),
		origins: lo.SliceToMap(cfg.AllowedOrigins, func(o string) (string, bool) {
			return strings.TrimRight(o, "/"), true
		}),
		anyOrigin: lo.Contains(cfg.AllowedOrigins, "*"),
	}
}

// Routes returns the router. The API is mounted at /highscores and
// /api/highscores.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if h.cfg.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(h.logRequests)
	r.Use(middleware.Recoverer)
	if timeout := h.cfg.RequestTimeout(); timeout > 0 {
		r.Use(middleware.Timeout(timeout))
	}
	r.Use(h.cors)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: fmt.Sprintf("method %s not allowed", r.Method)})
	})

	r.Get("/healthz", h.handleHealth)
	for _, path := range []string{"/highscores", "/api/highscores"} {
		r.Get(path, h.handleGet)
		r.Post(path, h.handleSubmit)
		r.Options(path, h.handlePreflight)
	}

	return r
}

type errorBody struct {
	Error string `json:"error"`
}

type successBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")

	switch action := r.URL.Query().Get("action"); action {
	case "":
	case "challenge":
		h.handleChallenge(w, r)
		return
	default:
		writeJSON(w, http.StatusBadRequest, errorBody{Error: fmt.Sprintf("unknown action %q", action)})
		return
	}

	// Anything that is not a positive integer selects the default.
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		limit = 0
	}

	entries, err := h.svc.Leaderboard(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) handleChallenge(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)
	if !h.challenges.Allow(ip, time.Now()) {
		writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "too many challenge requests"})
		return
	}

	challenge, err := h.svc.IssueChallenge(r.Context(), ip)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, challenge)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "request body too large"})
		return
	}

	if err := h.svc.Submit(r.Context(), clientIP(r), body); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, successBody{Status: "success", Message: "Score recorded"})
}

func (h *Handler) handlePreflight(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept")
	w.Header().Set("Access-Control-Max-Age", "600")
	w.WriteHeader(http.StatusNoContent)
}

// cors echoes allowlisted origins. Preflights and submissions from other
// origins are refused; requests without an Origin header pass through.
func (h *Handler) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			if h.originAllowed(origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			} else if r.Method == http.MethodOptions || r.Method == http.MethodPost {
				writeJSON(w, http.StatusForbidden, errorBody{Error: "origin not allowed"})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) originAllowed(origin string) bool {
	return h.anyOrigin || h.origins[strings.TrimRight(origin, "/")]
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"remote", clientIP(r),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// writeError maps rejections to their status. Anything else is logged
// and reported as a generic 500.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var rejected *Error
	if errors.As(err, &rejected) {
		writeJSON(w, rejected.Status, errorBody{Error: rejected.Message})
		return
	}
	h.logger.Error("request failed", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "error", err)
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// clientIP returns the host part of RemoteAddr. With proxy headers
// trusted, RealIP has already rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
