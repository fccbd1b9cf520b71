package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/cors"

	"evlog/internal/cache"
	"evlog/internal/log"
	"evlog/internal/middleware/ratelimit"
	"evlog/internal/middleware/security"
	"evlog/internal/middleware/trace"
	"evlog/internal/services"
)

// Server exposes the charging ledger as a JSON API.
type Server struct {
	http.Server

	svc    *services.RecordService
	logger *log.Logger

	limiter  *ratelimit.Limiter
	detector *security.Detector

	statsCache *cache.LRUCache[services.StatsView]
	feedCache  *cache.LRUCache[[]services.FeedItem]
	cacheMgr   *cache.Manager

	shutdownOnce sync.Once
}

const feedCacheKey = "featured"

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, svc *services.RecordService, logger *log.Logger, allowedOrigins []string) *Server {
	mux := http.NewServeMux()

	s := &Server{
		svc:        svc,
		logger:     logger.WithComponent(log.ComponentHTTP),
		limiter:    ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		detector:   security.NewDetector(),
		statsCache: cache.NewLRUCache[services.StatsView](100, 5*time.Minute),
		feedCache:  cache.NewLRUCache[[]services.FeedItem](10, time.Minute),
		cacheMgr:   cache.NewManager(),
	}
	s.cacheMgr.Register(s.statsCache)
	s.cacheMgr.Register(s.feedCache)
	s.cacheMgr.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /records", s.handleListRecords)
	mux.HandleFunc("POST /records", s.handleCreateRecord)
	mux.HandleFunc("GET /records/{id}", s.handleGetRecord)
	mux.HandleFunc("PUT /records/{id}", s.handleUpdateRecord)
	mux.HandleFunc("DELETE /records/{id}", s.handleDeleteRecord)
	mux.HandleFunc("GET /records/{id}/share", s.handleShareRecord)

	mux.HandleFunc("GET /stats", s.handleStats)
	mux.HandleFunc("GET /breakdown", s.handleBreakdown)
	mux.HandleFunc("GET /estimate", s.handleEstimate)
	mux.HandleFunc("GET /reminders", s.handleReminders)

	mux.HandleFunc("GET /expenses", s.handleListExpenses)
	mux.HandleFunc("POST /expenses", s.handleCreateExpense)
	mux.HandleFunc("DELETE /expenses/{id}", s.handleDeleteExpense)

	mux.HandleFunc("GET /settings/fixed", s.handleGetFixedExpenses)
	mux.HandleFunc("PUT /settings/fixed", s.handlePutFixedExpenses)

	mux.HandleFunc("GET /feed/featured", s.handleFeaturedFeed)

	mux.HandleFunc("GET /admin/overview", s.handleFleetOverview)
	mux.HandleFunc("POST /admin/records/{id}/feature", s.handleSetFeatured)

	s.Server = http.Server{
		Addr:    addr,
		Handler: s.buildMiddleware(mux, allowedOrigins),
	}
	return s
}

// buildMiddleware wraps the mux with CORS, tracing, security headers,
// probe detection and rate limiting, outermost first.
func (s *Server) buildMiddleware(mux *http.ServeMux, allowedOrigins []string) http.Handler {
	var handler http.Handler = mux

	handler = s.limitMutations(handler)
	handler = s.rejectSuspicious(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = trace.NewMiddleware(s.logger, s.detector.ExtractClientIP).Middleware(handler)

	corsOpts := cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type", headerOwnerID, headerOwnerEmail},
	}
	if len(allowedOrigins) > 0 {
		corsOpts.AllowedOrigins = allowedOrigins
	} else {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	return cors.New(corsOpts).Handler(handler)
}

// limitMutations applies the rate limiter to writing methods only.
func (s *Server) limitMutations(next http.Handler) http.Handler {
	limited := s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		s.logger.WarnContext(r.Context(), "rate limit exceeded",
			log.FieldClientIP, s.detector.ExtractClientIP(r),
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		w.Header().Set("Retry-After", "60")
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
	})(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
			limited.ServeHTTP(w, r)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

func (s *Server) rejectSuspicious(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.IsSuspicious(r) {
			s.logger.WarnContext(r.Context(), "suspicious request rejected",
				log.FieldClientIP, s.detector.ExtractClientIP(r),
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			writeError(w, http.StatusBadRequest, "malformed request")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheMgr.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// invalidateOwner drops cached views after one owner's data changed.
func (s *Server) invalidateOwner(ownerID string) {
	s.statsCache.DeletePrefix(cache.Key("stats", ownerID))
	s.feedCache.Delete(feedCacheKey)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
