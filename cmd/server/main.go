package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/thakuramit5464/Personal-Dashboard/internal/attendance"
	"github.com/thakuramit5464/Personal-Dashboard/internal/auth"
	"github.com/thakuramit5464/Personal-Dashboard/internal/config"
	"github.com/thakuramit5464/Personal-Dashboard/internal/database"
	"github.com/thakuramit5464/Personal-Dashboard/internal/handler"
	"github.com/thakuramit5464/Personal-Dashboard/internal/imagehost"
	"github.com/thakuramit5464/Personal-Dashboard/internal/invite"
	"github.com/thakuramit5464/Personal-Dashboard/internal/jwtauth"
	"github.com/thakuramit5464/Personal-Dashboard/internal/middleware"
	"github.com/thakuramit5464/Personal-Dashboard/internal/profile"
	"github.com/thakuramit5464/Personal-Dashboard/internal/project"
	"github.com/thakuramit5464/Personal-Dashboard/internal/realtime"
	"github.com/thakuramit5464/Personal-Dashboard/internal/task"
	"github.com/thakuramit5464/Personal-Dashboard/internal/team"
	"github.com/thakuramit5464/Personal-Dashboard/internal/todo"
)

func main() {
	migrateCmd := flag.String("migrate", "up", "migration step before serving: up, or down/reset to roll back and exit")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.WithError(err).Warn("failed to read .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	setupLogging(cfg)

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.WithError(err).Warn("error closing database connection")
		}
	}()
	log.Info("database connection established")

	migrator := db.Migrator(database.ResolveMigrationsPath(cfg.MigrationsPath))
	if err := migrator.Run(context.Background(), *migrateCmd); err != nil {
		log.WithError(err).WithField("migrate", *migrateCmd).Fatal("migration failed")
	}
	if *migrateCmd != database.MigrateUp {
		log.WithField("migrate", *migrateCmd).Info("migrations rolled back")
		return
	}
	version, dirty, err := migrator.Version(context.Background())
	switch {
	case err != nil:
		log.WithError(err).Warn("failed to get migration version")
	case dirty:
		log.WithField("version", version).Warn("database is in dirty state; a previous migration failed and manual intervention is required")
	default:
		log.WithField("version", version).Info("database migrations complete")
	}

	bus := newBus(context.Background(), cfg)
	defer func() {
		if err := bus.Close(); err != nil {
			log.WithError(err).Warn("error closing realtime bus")
		}
	}()

	verifier, err := jwtauth.NewVerifier(jwtauth.Config{
		Domain:   cfg.Auth.Domain,
		Audience: cfg.Auth.Audience,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to initialize token verifier")
	}

	profiles := profile.NewManager(profile.NewDatastore(db.DB), bus)
	images := imagehost.NewClient(cfg.ImageHost)
	if !images.Configured() {
		log.Warn("image host credentials missing; uploads are disabled")
	}

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, handler.Dependencies{
		Config:     cfg,
		DB:         db,
		Sessions:   auth.NewAuthenticator(verifier, profiles),
		Profiles:   profiles,
		Teams:      team.NewManager(db.DB, team.NewDatastore(db.DB)),
		Projects:   project.NewManager(project.NewDatastore(db.DB), cfg.ProjectQueryChunk),
		Tasks:      task.NewManager(task.NewDatastore(db.DB), bus),
		Invites:    invite.NewManager(db.DB, invite.NewDatastore(db.DB), bus, cfg.InviteTTL),
		Attendance: attendance.NewManager(attendance.NewDatastore(db.DB)),
		Todos:      todo.NewStore(db.DB),
		Images:     images,
	})

	var h http.Handler = mux
	h = middleware.RequestLogger(log.StandardLogger())(h)
	h = chimw.Recoverer(h)
	h = chimw.RealIP(h)
	h = chimw.RequestID(h)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{"port": cfg.Port, "env": cfg.Environment}).Info("dashboard server starting")
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	case sig := <-shutdown:
		log.WithField("signal", sig.String()).Info("initiating graceful shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("graceful shutdown failed, forcing shutdown")
			if err := server.Close(); err != nil {
				log.WithError(err).Error("forced shutdown failed")
			}
		}
		log.Info("server shutdown complete")
	}
}

func setupLogging(cfg *config.Config) {
	if cfg.IsProduction() {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("unknown LOG_LEVEL, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

// newBus shares change events through Redis when REDIS_URL is set so every
// replica sees them; otherwise events stay in process.
func newBus(ctx context.Context, cfg *config.Config) realtime.Bus {
	if cfg.RedisURL == "" {
		log.Info("realtime bus: in-process")
		return realtime.NewMemoryBus()
	}

	bus, err := realtime.NewRedisBus(ctx, cfg.RedisURL)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to redis")
	}
	log.Info("realtime bus: redis")
	return bus
}
