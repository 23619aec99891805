// Package server exposes the NoVo HTTP API: session and profile storage,
// tool dispatch, vendor webhooks and the stateless proxy routes.
package server

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/novolabs/novo/internal/cache"
	"github.com/novolabs/novo/internal/command"
	"github.com/novolabs/novo/internal/config"
	"github.com/novolabs/novo/internal/email"
	"github.com/novolabs/novo/internal/geo"
	"github.com/novolabs/novo/internal/hume"
	"github.com/novolabs/novo/internal/models"
	"github.com/novolabs/novo/internal/storage"
	"github.com/novolabs/novo/internal/tooling"
	"github.com/novolabs/novo/internal/weather"
	"github.com/novolabs/novo/internal/whatsapp"
)

// Server holds the route handlers and their collaborators.
type Server struct {
	cfg        config.Config
	store      *storage.Store
	dispatcher *tooling.Dispatcher
	detector   *command.Detector
	vision     models.VisionModel
	weather    *weather.Client
	geo        *geo.Client
	email      *email.Sender
	whatsapp   *whatsapp.Client
	hume       *hume.Client

	// prosodyCounts tracks prosody messages per chat for the emotion
	// blend warmup.
	prosodyCounts *cache.Cache[int]

	now func() time.Time
}

// New builds a Server. Optional collaborators may be nil; the matching
// routes then answer with fallbacks or configuration errors.
func New(cfg config.Config, store *storage.Store, dispatcher *tooling.Dispatcher, vision models.VisionModel, weatherClient *weather.Client, geoClient *geo.Client, sender *email.Sender, wa *whatsapp.Client) *Server {
	return &Server{
		cfg:           cfg,
		store:         store,
		dispatcher:    dispatcher,
		detector:      command.NewDetector(),
		vision:        vision,
		weather:       weatherClient,
		geo:           geoClient,
		email:         sender,
		whatsapp:      wa,
		hume:          hume.NewClient(cfg.HumeAPIKey, cfg.HumeSecretKey),
		prosodyCounts: cache.New[int](time.Hour),
		now:           time.Now,
	}
}

// Router assembles the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{s.cfg.AllowedOrigin},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "x-admin-pin"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/sessions", s.handleSessions)
		r.Get("/sessions/{id}", s.handleGetSession)

		r.Get("/users", s.handleGetUser)
		r.Post("/users", s.handleUpdateUser)
		r.Post("/users/match", s.handleMatchUsers)

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.requirePIN)
			r.Get("/sessions", s.handleAdminSessions)
			r.Get("/users", s.handleAdminUsers)
			r.Post("/users", s.handleUpdateUser)
		})

		r.Post("/camera/state", s.handleCameraState)
		r.Post("/tools/execute", s.handleToolExecute)
		r.Get("/tools/pending", s.handleToolsPending)
		r.Get("/tools/result/{id}", s.handleToolResult)

		r.Get("/hume/token", s.handleHumeToken)
		r.Post("/hume/webhook", s.handleHumeLegacyWebhook)
		r.Post("/webhooks/hume", s.handleHumeWebhook)
		r.Post("/webhooks/whatsapp", s.handleWhatsAppWebhook)

		r.Get("/weather", s.handleWeather)
		r.Get("/fashion/trends", s.handleFashionTrends)
		r.Post("/fashion/trends", s.handleFashionTrends)
		r.Post("/vision/{kind}", s.handleVision)
		r.Get("/geolocation", s.handleGeolocation)
		r.Post("/images/save", s.handleImageSave)

		r.Get("/health", s.handleHealth)
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

// requirePIN gates admin routes on plain equality with ADMIN_PIN.
func (s *Server) requirePIN(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.AdminPIN == "" || r.Header.Get("x-admin-pin") != s.cfg.AdminPIN {
			writeError(w, http.StatusUnauthorized, "invalid admin PIN")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP derives the caller's address: the first X-Forwarded-For hop,
// then X-Real-IP, then the socket peer.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, ok := strings.Cut(fwd, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(fwd)
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return strings.TrimSpace(real)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "error": message})
}

func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"storage": s.store.Driver(),
		"time":    s.now().UTC().Format(time.RFC3339),
	})
}
