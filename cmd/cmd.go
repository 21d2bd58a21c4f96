package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"challengr-backend/internal/config"
	"challengr-backend/internal/handlers"
	"challengr-backend/internal/middleware"
	"challengr-backend/internal/repository"
	"challengr-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	// Connect to database
	db, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	if err := repository.EnsureSchema(context.Background(), db); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure database schema")
	}

	// Initialize leaf wrappers
	records := repository.NewRecordStore(db)
	identity := repository.NewIdentityGateway(db)
	blobs, err := repository.NewBlobStore(context.Background(), cfg.AWS)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create blob store")
	}

	// Initialize services
	invites := services.NewInviteCodeAllocator(records)
	membership := services.NewMembershipCoordinator(records, invites)
	ledger := services.NewSubmissionLedger(records, blobs)
	cadence := services.NewCadenceEvaluator(records)
	sessions := services.NewSessionService(identity, records, blobs, cfg.JWT.Secret)
	deprovisioner := services.NewAccountDeprovisioner(identity, records, blobs)
	hub := services.NewHub(membership)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(sessions)
	profileHandler := handlers.NewProfileHandler(sessions, deprovisioner)
	challengeHandler := handlers.NewChallengeHandler(membership, cadence)
	submissionHandler := handlers.NewSubmissionHandler(ledger, hub)
	wsHandler := handlers.NewWebSocketHandler(hub, sessions)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/auth/signup", authHandler.SignUp)
		r.Post("/auth/signin", authHandler.SignIn)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(sessions))
			r.Post("/auth/password", authHandler.ChangePassword)
			r.Get("/me", profileHandler.Me)
			r.Put("/me", profileHandler.UpdateMe)
			r.Post("/me/avatar", profileHandler.UploadAvatar)
			r.Delete("/me", profileHandler.DeleteAccount)
			r.Post("/challenges", challengeHandler.CreateChallenge)
			r.Get("/challenges", challengeHandler.ListChallenges)
			r.Post("/challenges/join", challengeHandler.JoinChallenge)
			r.Put("/challenges/{challenge_id}/config", challengeHandler.SaveConfig)
			r.Get("/challenges/{challenge_id}/cadence", challengeHandler.Cadence)
			r.Post("/challenges/{challenge_id}/submissions", submissionHandler.CreateSubmission)
			r.Get("/challenges/{challenge_id}/submissions", submissionHandler.ListSubmissions)
			r.Post("/submissions/{submission_id}/approve", submissionHandler.Approve)
			r.Post("/submissions/{submission_id}/reject", submissionHandler.Reject)
		})
	})

	// WebSocket route
	r.Get("/ws", wsHandler.HandleWebSocket)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
