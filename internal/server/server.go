package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/agegate/webapp/config"
	"github.com/agegate/webapp/internal/classifier"
	"github.com/agegate/webapp/internal/db"
	"github.com/agegate/webapp/internal/handlers"
	"github.com/agegate/webapp/internal/logging"
	"github.com/agegate/webapp/internal/mail"
	"github.com/agegate/webapp/internal/mq"
	"github.com/agegate/webapp/internal/services"
	"github.com/agegate/webapp/internal/storage"
	"github.com/agegate/webapp/internal/store"
	"github.com/agegate/webapp/internal/token"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	broker     mq.Broker
}

// New constructs a Server with all dependencies wired.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	secret := strings.TrimSpace(cfg.Auth.SecretKey)
	if secret == "" {
		return nil, errors.New("SECRET_KEY is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	userService := services.NewUserService(userRepo)
	tokens := token.NewService(secret, cfg.Auth.ConfirmTokenTTL, cfg.Auth.ResetTokenTTL)
	sessions := handlers.NewSessionManager(secret, cfg.Auth.SessionTTL)

	uploads, err := newUploadStorage(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	notifier, broker, err := newNotifier(ctx, cfg.Mail, logger)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	// The model artifact is loaded once here and shared by every request.
	model, err := classifier.Load(cfg.Classifier.ModelPath)
	if err != nil {
		_ = dbConn.Close()
		if broker != nil {
			_ = broker.Close()
		}
		return nil, err
	}

	handler := handlers.New(handlers.Deps{
		Users:         userService,
		Tokens:        tokens,
		Notifier:      notifier,
		Model:         model,
		Uploads:       uploads,
		Sessions:      sessions,
		Log:           logger,
		ExternalURL:   strings.TrimRight(cfg.ExternalURL, "/"),
		RetainUploads: cfg.Storage.RetainUploads,
	})

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Group(handler.Routes)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		broker:     broker,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.broker != nil {
		_ = s.broker.Close()
	}
	return s.httpServer.Close()
}

func newUploadStorage(ctx context.Context, cfg config.StorageConfig) (storage.ObjectStorage, error) {
	var (
		backend storage.ObjectStorage
		err     error
	)
	switch cfg.Backend {
	case "", "local":
		backend, err = storage.NewLocalStorage(cfg.UploadDir)
	case "minio":
		backend, err = storage.NewMinioStorage(cfg.Minio)
	case "gcs":
		backend, err = storage.NewGCSStorage(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	if err := backend.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return backend, nil
}

func newNotifier(ctx context.Context, cfg config.MailConfig, logger logging.Logger) (mail.Notifier, mq.Broker, error) {
	switch cfg.Backend {
	case "", "log":
		return mail.NewLogNotifier(logger), nil, nil
	case "smtp":
		return mail.NewSMTPNotifier(cfg.SMTP, cfg.From), nil, nil
	case "rabbitmq", "pubsub":
		broker, err := mq.NewBroker(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return mail.NewQueueNotifier(broker, cfg.Queue), broker, nil
	default:
		return nil, nil, fmt.Errorf("unknown mail backend %q", cfg.Backend)
	}
}
