package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/osse101/LabRewards_Go/internal/award"
	"github.com/osse101/LabRewards_Go/internal/badge"
	"github.com/osse101/LabRewards_Go/internal/database"
	"github.com/osse101/LabRewards_Go/internal/handler"
	"github.com/osse101/LabRewards_Go/internal/inventory"
	"github.com/osse101/LabRewards_Go/internal/logger"
	"github.com/osse101/LabRewards_Go/internal/loot"
	"github.com/osse101/LabRewards_Go/internal/metrics"
	"github.com/osse101/LabRewards_Go/internal/quest"
	"github.com/osse101/LabRewards_Go/internal/wallet"
)

// Options configures the HTTP surface
type Options struct {
	Port           int
	APIKey         string
	TrustedProxies []string
	Version        string
	// IsAdmin decides whether an X-User-ID may call /api/v1/admin routes
	IsAdmin func(userID string) bool
	// DBPool is pinged by /readyz; nil for in-memory storage
	DBPool database.Pool
}

// Services are the engine operations exposed over HTTP
type Services struct {
	Awards    award.Service
	Badges    badge.Service
	Quests    quest.Service
	Loot      loot.Service
	Wallet    wallet.Service
	Inventory inventory.Service
}

type Server struct {
	httpServer *http.Server
}

// NewServer builds the router and wraps it in an http.Server
func NewServer(opts Options, svc Services) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", opts.Port),
			Handler:           NewRouter(opts, svc),
			ReadHeaderTimeout: ReadHeaderTimeout,
		},
	}
}

// NewRouter mounts every route. Exposed separately so tests can drive it
// without a listener.
func NewRouter(opts Options, svc Services) http.Handler {
	isAdmin := opts.IsAdmin
	if isAdmin == nil {
		isAdmin = func(string) bool { return false }
	}

	r := chi.NewRouter()

	// Chi middleware executes in order defined (outermost to innermost)
	detector := NewSuspiciousActivityDetector()
	r.Use(SecurityHeadersMiddleware())
	r.Use(loggingMiddleware)
	r.Use(AuthMiddleware(opts.APIKey, opts.TrustedProxies, detector))
	r.Use(RateLimitMiddleware(opts.TrustedProxies, detector))
	r.Use(RequestSizeLimitMiddleware(MaxRequestBodyBytes))
	r.Use(metrics.Middleware)

	r.Get("/healthz", handler.HandleHealthz())
	r.Get("/readyz", handler.HandleReadyz(opts.DBPool))
	r.Get("/version", handler.HandleVersion(opts.Version))
	r.Handle("/metrics", promhttp.Handler())

	awards := handler.NewAwardHandler(svc.Awards)
	badges := handler.NewBadgeHandler(svc.Badges)
	quests := handler.NewQuestHandler(svc.Quests)
	chests := handler.NewLootHandler(svc.Loot)
	wallets := handler.NewWalletHandler(svc.Wallet, svc.Inventory)
	adminMetrics := handler.NewAdminMetricsHandler(nil)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/awards", func(r chi.Router) {
			r.Post("/work-session", awards.HandleWorkSession)
			r.Post("/task", awards.HandleTaskCompletion)
		})

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/progression", awards.HandleGetProgression)
			r.Get("/stats", awards.HandleGetActivityStats)
			r.Get("/badges", badges.HandleGetUserBadges)
			r.Post("/badges/evaluate", badges.HandleEvaluate)
			r.Get("/quests", quests.HandleGetUserQuests)
			r.Post("/quests/{questID}/claim", quests.HandleClaim)
			r.Get("/wallet", wallets.HandleGetBalance)
			r.Get("/inventory", wallets.HandleGetInventory)
			r.Post("/chests/{chestID}/open", chests.HandleOpen)
		})

		r.Get("/badges", badges.HandleList)
		r.Get("/badges/{badgeID}", badges.HandleGet)
		r.Get("/quests", quests.HandleList)
		r.Get("/quests/{questID}", quests.HandleGet)
		r.Get("/chests", chests.HandleList(true))
		r.Get("/chests/{chestID}", chests.HandleGet)

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireAdmin(isAdmin))

			r.Get("/metrics", adminMetrics.HandleGetMetrics)

			r.Route("/users/{userID}", func(r chi.Router) {
				r.Post("/adjustments", awards.HandleManualAdjustment)
				r.Post("/wallet/credit", wallets.HandleCredit)
				r.Post("/badges/{badgeID}", badges.HandleGrant)
				r.Delete("/badges/{badgeID}", badges.HandleRevoke)
			})

			r.Route("/badges", func(r chi.Router) {
				r.Post("/", badges.HandleCreate)
				r.Put("/{badgeID}", badges.HandleUpdate)
				r.Delete("/{badgeID}", badges.HandleDelete)
			})

			r.Route("/quests", func(r chi.Router) {
				r.Post("/", quests.HandleCreate)
				r.Put("/{questID}", quests.HandleUpdate)
				r.Delete("/{questID}", quests.HandleDelete)
			})

			r.Route("/chests", func(r chi.Router) {
				r.Get("/", chests.HandleList(false))
				r.Post("/", chests.HandleCreate)
				r.Put("/{chestID}", chests.HandleUpdate)
				r.Delete("/{chestID}", chests.HandleDelete)
				r.Post("/{chestID}/entries", chests.HandleCreateEntry)
				r.Put("/{chestID}/entries/{entryID}", chests.HandleUpdateEntry)
				r.Delete("/{chestID}/entries/{entryID}", chests.HandleDeleteEntry)
			})
		})
	})

	return r
}

// loggingMiddleware tags the request with an id and logs its start and end.
// Probe and scrape endpoints are not logged.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()

		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" {
			requestID = logger.GenerateRequestID()
		}
		w.Header().Set(HeaderRequestID, requestID)
		ctx := logger.WithRequestID(r.Context(), requestID)
		r = r.WithContext(ctx)
		log := logger.FromContext(ctx)

		log.Info(LogMsgRequestStarted,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"content_length", r.ContentLength)

		sanitized := make(http.Header, len(r.Header))
		for k, v := range r.Header {
			if strings.EqualFold(k, HeaderAPIKey) || strings.EqualFold(k, HeaderAuthorization) {
				sanitized[k] = []string{RedactedValue}
			} else {
				sanitized[k] = v
			}
		}
		log.Debug(LogMsgRequestHeaders, "headers", sanitized)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		log.Info(LogMsgRequestCompleted,
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds())
	})
}

// Start serves until Stop is called
func (s *Server) Start() error {
	slog.Default().Info(LogMsgServerStarting, "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop stops the server gracefully
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
