package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lumeahq/lumea/internal/config"
	"github.com/lumeahq/lumea/internal/database"
	"github.com/lumeahq/lumea/internal/geo"
	"github.com/lumeahq/lumea/internal/metrics"
	"github.com/lumeahq/lumea/internal/middleware"
	"github.com/lumeahq/lumea/internal/rollup"
	"github.com/lumeahq/lumea/internal/storage"
	"github.com/lumeahq/lumea/internal/tracking"
	"go.uber.org/zap"
)

// Dependencies holds all external dependencies for the server.
type Dependencies struct {
	DB      *database.PostgresDB
	Redis   *database.RedisDB
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Server wraps HTTP handlers and the rollup/tracking services.
type Server struct {
	rollup   *rollup.Service
	tracking *tracking.Service
	logger   *zap.Logger
	config   *config.Config
	metrics  *metrics.Metrics
}

// NewServer constructs a new http.Handler with all routes registered.
func NewServer(deps *Dependencies) http.Handler {
	// Initialize the data gateway
	var gateway storage.Gateway
	var linkStore storage.LinkStore

	if deps.DB != nil {
		pg := storage.NewPostgresGateway(deps.DB.Pool)
		gateway = pg
		linkStore = pg
	} else {
		mem := storage.NewInMemoryGateway()
		gateway = mem
		linkStore = mem
	}

	// Initialize geo resolver
	var geoResolver geo.Resolver
	if deps.Config.Geo.Enabled {
		r, err := geo.NewMaxMindResolver(deps.Config.Geo.DatabasePath)
		if err != nil {
			deps.Logger.Warn("failed to initialize geo resolver, clicks will have no country", zap.Error(err))
		} else {
			geoResolver = r
		}
	}

	// Initialize click dedup
	var deduper tracking.Deduper
	if deps.Redis != nil {
		deduper = tracking.NewRedisDeduper(deps.Redis.Client)
	}

	loc, err := deps.Config.Rollup.Location()
	if err != nil {
		deps.Logger.Warn("invalid rollup timezone, falling back to UTC", zap.Error(err))
		loc = time.UTC
	}

	s := &Server{
		rollup:   rollup.NewService(gateway, loc),
		tracking: tracking.NewService(linkStore, deduper, geoResolver, deps.Metrics, deps.Logger),
		logger:   deps.Logger,
		config:   deps.Config,
		metrics:  deps.Metrics,
	}

	logging := middleware.NewLoggingMiddleware(deps.Logger, deps.Metrics)
	recovery := middleware.NewRecoveryMiddleware(deps.Logger)
	auth := middleware.NewAuthMiddleware(deps.Config.Auth, deps.Logger)
	rateLimit := middleware.NewRateLimitMiddleware(deps.Config.RateLimit, deps.Logger, deps.Metrics)

	// Bound the per-IP limiter map on the public redirect endpoint.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			rateLimit.CleanupIPLimiters()
		}
	}()

	r := chi.NewRouter()
	r.Use(recovery.Handler)
	r.Use(logging.Handler)
	// Auth covers everything; public routes opt out via skip paths.
	r.Use(auth.Handler)

	// Health check
	r.Get("/health", s.handleHealth)

	// Prometheus metrics
	if deps.Config.Metrics.Enabled {
		r.Handle(deps.Config.Metrics.Path, metrics.Handler())
	}

	// Public redirect endpoint, rate limited per IP
	r.Group(func(pub chi.Router) {
		pub.Use(rateLimit.HandlerPerIP)
		pub.Get("/r/{shortCode}", s.handleRedirect)
	})

	// Dashboard API
	r.Route("/api", func(api chi.Router) {
		api.Use(rateLimit.Handler)

		api.Route("/agencies/{agencyID}", func(ag chi.Router) {
			ag.Get("/tracking-stats", s.handleTrackingStats)
			ag.Get("/analytics", s.handleAnalytics)
			ag.Get("/opportunities/{opportunityID}/analytics", s.handleOpportunityAnalytics)
			ag.Get("/dashboard", s.handleDashboard)
			ag.Get("/dashboard/favorites", s.handleFavorites)
			ag.Get("/engagement", s.handleEngagement)
		})
	})

	return r
}

// ---- Health Check ----

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// ---- Click Redirect ----

func (s *Server) handleRedirect(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "shortCode")
	if shortCode == "" {
		http.NotFound(w, r)
		return
	}

	result, err := s.tracking.RegisterClick(r.Context(), &tracking.ClickParams{
		ShortCode: shortCode,
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
		Referer:   r.Referer(),
	})
	if err != nil {
		if errors.Is(err, tracking.ErrLinkNotFound) || errors.Is(err, tracking.ErrLinkInactive) {
			http.NotFound(w, r)
			return
		}
		s.logger.Error("redirect failed", zap.Error(err), zap.String("short_code", shortCode))
		s.errorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, result.RedirectURL, http.StatusFound)
}

// ---- Tracking Stats ----

func (s *Server) handleTrackingStats(w http.ResponseWriter, r *http.Request) {
	agencyID := chi.URLParam(r, "agencyID")

	start := time.Now()
	stats, err := s.rollup.TrackingStats(r.Context(), agencyID)
	s.observeRollup("tracking_stats", start)
	if err != nil {
		s.logger.Error("failed to compute tracking stats", zap.Error(err), zap.String("agency_id", agencyID))
		s.errorResponse(w, "failed to compute stats", http.StatusInternalServerError)
		return
	}

	s.jsonResponse(w, stats)
}

// ---- Windowed Analytics ----

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	agencyID := chi.URLParam(r, "agencyID")
	rng := rollup.ParseRange(r.URL.Query().Get("range"))

	start := time.Now()
	data, err := s.rollup.AnalyticsData(r.Context(), agencyID, rng)
	s.observeRollup("analytics", start)
	if err != nil {
		s.logger.Error("failed to compute analytics", zap.Error(err), zap.String("agency_id", agencyID))
		s.errorResponse(w, "failed to compute analytics", http.StatusInternalServerError)
		return
	}

	s.jsonResponse(w, data)
}

func (s *Server) handleOpportunityAnalytics(w http.ResponseWriter, r *http.Request) {
	agencyID := chi.URLParam(r, "agencyID")
	opportunityID := chi.URLParam(r, "opportunityID")
	rng := rollup.ParseRange(r.URL.Query().Get("range"))

	start := time.Now()
	data, err := s.rollup.OpportunityAnalytics(r.Context(), agencyID, opportunityID, rng)
	s.observeRollup("opportunity_analytics", start)
	if err != nil {
		s.logger.Error("failed to compute opportunity analytics", zap.Error(err),
			zap.String("agency_id", agencyID),
			zap.String("opportunity_id", opportunityID),
		)
		s.errorResponse(w, "failed to compute analytics", http.StatusInternalServerError)
		return
	}

	s.jsonResponse(w, data)
}

// ---- Pipeline Dashboard ----

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	agencyID := chi.URLParam(r, "agencyID")

	start := time.Now()
	stats, err := s.rollup.DashboardStats(r.Context(), agencyID)
	s.observeRollup("dashboard", start)
	if err != nil {
		s.logger.Error("failed to compute dashboard stats", zap.Error(err), zap.String("agency_id", agencyID))
		s.errorResponse(w, "failed to compute stats", http.StatusInternalServerError)
		return
	}

	s.jsonResponse(w, stats)
}

func (s *Server) handleFavorites(w http.ResponseWriter, r *http.Request) {
	agencyID := chi.URLParam(r, "agencyID")

	favorites, err := s.rollup.FavoriteOpportunities(r.Context(), agencyID)
	if err != nil {
		s.logger.Error("failed to list favorites", zap.Error(err), zap.String("agency_id", agencyID))
		s.errorResponse(w, "failed to list favorites", http.StatusInternalServerError)
		return
	}

	s.jsonResponse(w, favorites)
}

// ---- Engagement ----

func (s *Server) handleEngagement(w http.ResponseWriter, r *http.Request) {
	agencyID := chi.URLParam(r, "agencyID")

	start := time.Now()
	result, err := s.rollup.EngagementStats(r.Context(), agencyID)
	s.observeRollup("engagement", start)
	if err != nil {
		s.logger.Error("failed to compute engagement stats", zap.Error(err), zap.String("agency_id", agencyID))
		s.errorResponse(w, "failed to compute stats", http.StatusInternalServerError)
		return
	}

	s.jsonResponse(w, result)
}

// ---- Helper Methods ----

func (s *Server) observeRollup(operation string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveRollup(operation, time.Since(start))
	}
}

func (s *Server) jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) errorResponse(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// clientIP extracts the originating client IP, honoring proxy headers.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
