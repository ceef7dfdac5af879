package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/arshmeetsingh/lego-collection/internal/config"
	"github.com/arshmeetsingh/lego-collection/internal/database"
	"github.com/arshmeetsingh/lego-collection/internal/handlers"
	"github.com/arshmeetsingh/lego-collection/internal/logging"
	"github.com/arshmeetsingh/lego-collection/internal/middleware"
	"github.com/arshmeetsingh/lego-collection/internal/repository"
	"github.com/arshmeetsingh/lego-collection/internal/routes"
	"github.com/arshmeetsingh/lego-collection/internal/services"
	"github.com/arshmeetsingh/lego-collection/web"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to MongoDB
	mongoURI := cfg.Mongo.URI()
	logger.Info("MongoDB URI", zap.String("uri", redactURI(mongoURI)))
	mongoDB, err := database.ConnectMongo(ctx, mongoURI, cfg.Mongo.DatabaseName(), logger)
	if err != nil {
		return err
	}
	defer database.DisconnectMongo(mongoDB)

	users := repository.NewUserRepository(mongoDB.Collection(repository.UsersCollection))
	if err := users.EnsureIndexes(ctx); err != nil {
		return err
	}
	logger.Info("MongoDB user indexes ensured")

	// Connect to PostgreSQL
	pg, err := database.ConnectPostgres(ctx, cfg.Postgres.DSN(), logger)
	if err != nil {
		return err
	}
	defer pg.Close()

	// Connect to Redis
	rdb, err := database.ConnectRedis(ctx, cfg.RedisURI, logger)
	if err != nil {
		return err
	}
	defer rdb.Close()

	// Initialize Cloudinary service
	var images handlers.ImageUploader
	if cfg.Cloudinary.Enabled() {
		uploader, err := services.NewImageUploader(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret)
		if err != nil {
			logger.Warn("set image uploads disabled", zap.Error(err))
		} else {
			images = uploader
			logger.Info("Cloudinary service initialized")
		}
	} else {
		logger.Warn("Cloudinary credentials not found, set image uploads disabled")
	}

	views, err := web.NewViews()
	if err != nil {
		return err
	}

	h := handlers.New(handlers.Deps{
		Credentials: services.NewCredentialStore(users, logger),
		Catalog:     repository.NewCatalogStore(pg, logger),
		Sessions:    services.NewSessionStore(rdb, cfg.Session.Duration, cfg.Session.ActiveDuration),
		Images:      images,
		Views:       views,
		Logger:      logger,
		Cookie: handlers.CookieConfig{
			Name:   cfg.Session.CookieName,
			Secure: cfg.IsProduction(),
		},
	})

	// Setup router
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.SecurityHeaders)
	if cfg.IsProduction() {
		r.Use(middleware.StrictTransport)
	}
	routes.SetupRoutes(r, h)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("LEGO collection running", zap.String("addr", srv.Addr), zap.String("env", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// redactURI hides the password of a connection string for logging.
func redactURI(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<unparseable>"
	}
	return u.Redacted()
}
