// Package server wires the dependency graph and owns the HTTP lifecycle.
//
// This is the composition root: the database, services, handlers, OAuth
// providers and the background scheduler are all assembled in New, and
// Start/shutdown manage their lifetimes together. main.go stays minimal.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/mhasan/tweetpilot/internal/auth"
	"github.com/mhasan/tweetpilot/internal/config"
	"github.com/mhasan/tweetpilot/internal/content"
	"github.com/mhasan/tweetpilot/internal/handler"
	"github.com/mhasan/tweetpilot/internal/middleware"
	sqliteRepo "github.com/mhasan/tweetpilot/internal/repository/sqlite"
	"github.com/mhasan/tweetpilot/internal/scheduler"
	"github.com/mhasan/tweetpilot/internal/service"
	"github.com/mhasan/tweetpilot/internal/twitter"
)

// Server bundles the router with the resources it owns: the database
// connection and the background scheduler, both closed on shutdown.
type Server struct {
	router    *chi.Mux
	cfg       *config.Config
	logger    *slog.Logger
	db        *sqliteRepo.DB
	scheduler *scheduler.Scheduler
}

// New opens the database and assembles the full dependency graph.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	// Outbound clients.
	twitterClient := twitter.NewClient(cfg.TwitterAPIKey, cfg.TwitterAPISecret, cfg.TwitterBearerToken)
	generator := content.NewGenerator(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)

	// OAuth providers and the in-memory handshake store.
	oauth2Provider := auth.NewTwitterProvider(cfg.TwitterClientID, cfg.TwitterClientSecret, cfg.TwitterRedirectURL)
	oauth1Provider := auth.NewTwitterLinkProvider(cfg.TwitterAPIKey, cfg.TwitterAPISecret, cfg.TwitterCallbackURL)
	flows := auth.NewFlowStore()

	// Services.
	passwords := auth.NewPasswordService()
	authSvc := service.NewAuthService(db.Users(), tokens, passwords, logger)
	postSvc := service.NewPostService(db.Posts(), logger)
	scheduleSvc := service.NewScheduleService(db.ScheduledPosts(), db.Posts(), db.Users(), twitterClient, logger)
	contentSvc := service.NewContentService(generator, db.ContentLogs(), logger)
	analyticsSvc := service.NewAnalyticsService(db.Posts(), db.Users(), twitterClient, logger)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc, oauth2Provider, oauth1Provider, flows, cfg.FrontendURL, logger)
	postHandler := handler.NewPostHandler(postSvc, logger)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc, logger)
	contentHandler := handler.NewContentHandler(contentSvc, logger)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsSvc, logger)

	s := &Server{
		router:    chi.NewRouter(),
		cfg:       cfg,
		logger:    logger,
		db:        db,
		scheduler: scheduler.New(scheduleSvc, cfg.SchedulerInterval, logger),
	}

	s.setupRoutes(tokens, authHandler, postHandler, scheduleHandler, contentHandler, analyticsHandler)

	return s, nil
}

func (s *Server) setupRoutes(
	tokens *auth.TokenService,
	authHandler *handler.AuthHandler,
	postHandler *handler.PostHandler,
	scheduleHandler *handler.ScheduleHandler,
	contentHandler *handler.ContentHandler,
	analyticsHandler *handler.AnalyticsHandler,
) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	s.router.Route("/api", func(r chi.Router) {
		// Public: account creation, login, and the browser-driven halves of
		// the OAuth flows. The OAuth 1.0a callback is public because Twitter
		// redirects the browser here without our bearer token; the flow
		// store ties it back to the user who started the link.
		r.Post("/auth/register", authHandler.HandleRegister)
		r.Post("/auth/token", authHandler.HandleToken)
		r.Get("/auth/oauth2/twitter/init", authHandler.HandleOAuth2Init)
		r.Get("/auth/oauth2/twitter/callback", authHandler.HandleOAuth2Callback)
		r.Get("/auth/twitter/callback", authHandler.HandleTwitterCallback)

		// Everything below requires a valid bearer token.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Get("/me", authHandler.HandleMe)

			r.Post("/auth/twitter/login", authHandler.HandleTwitterLogin)
			r.Get("/auth/twitter/status", authHandler.HandleTwitterStatus)
			r.Delete("/auth/twitter/disconnect", authHandler.HandleTwitterDisconnect)

			r.Route("/posts", func(r chi.Router) {
				r.Post("/", postHandler.HandleCreate)
				r.Get("/", postHandler.HandleList)
				r.Get("/{id}", postHandler.HandleGet)
				r.Put("/{id}", postHandler.HandleUpdate)
				r.Delete("/{id}", postHandler.HandleDelete)
				r.Post("/{id}/refresh-metrics", analyticsHandler.HandleRefreshMetrics)
			})

			r.Route("/scheduled-posts", func(r chi.Router) {
				r.Post("/", scheduleHandler.HandleCreate)
				r.Get("/", scheduleHandler.HandleList)
				r.Get("/{id}", scheduleHandler.HandleGet)
				r.Put("/{id}", scheduleHandler.HandleUpdate)
				r.Delete("/{id}", scheduleHandler.HandleDelete)
				r.Post("/{id}/post-now", scheduleHandler.HandlePostNow)
			})

			r.Route("/content", func(r chi.Router) {
				r.Post("/generate-tweet", contentHandler.HandleGenerateTweet)
				r.Post("/generate-thread", contentHandler.HandleGenerateThread)
				r.Post("/generate-reply", contentHandler.HandleGenerateReply)
				r.Get("/history", contentHandler.HandleHistory)
			})

			r.Route("/analytics", func(r chi.Router) {
				r.Get("/dashboard", analyticsHandler.HandleDashboard)
				r.Get("/engagement", analyticsHandler.HandleEngagement)
				r.Get("/growth", analyticsHandler.HandleGrowth)
			})
		})
	})
}

// Start runs the server until SIGINT/SIGTERM, then shuts down in order:
// stop accepting connections, drain in-flight requests (30s), stop the
// scheduler, close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	s.scheduler.Start()
	defer s.scheduler.Stop()

	srv := &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.cfg.Port),
			slog.String("database", s.cfg.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
