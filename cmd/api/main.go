package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gatherly/eventhub/internal/http/handlers"
	"github.com/gatherly/eventhub/internal/mailer"
	"github.com/gatherly/eventhub/internal/media"
	"github.com/gatherly/eventhub/internal/realtime"
	"github.com/gatherly/eventhub/internal/repository"
	"github.com/gatherly/eventhub/internal/service"
	"github.com/gatherly/eventhub/pkg/cache"
	"github.com/gatherly/eventhub/pkg/config"
	"github.com/gatherly/eventhub/pkg/database"
	"github.com/gatherly/eventhub/pkg/events"
	"github.com/gatherly/eventhub/pkg/logger"
	mw "github.com/gatherly/eventhub/pkg/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
)

func main() {
	godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Committed mutations are mirrored to NATS when configured.
	var eventBus events.EventBus = events.NoopEventBus{}
	if cfg.NATS.URL != "" {
		bus, err := events.NewNATSEventBus(cfg.NATS.URL)
		if err != nil {
			logger.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer bus.Close()
		eventBus = bus
	}

	var mediaStore media.Store
	if cfg.Media.BaseURL != "" {
		mediaStore = media.NewHTTPStore(cfg.Media.BaseURL, cfg.Media.APIKey, cfg.Media.Folder)
	} else {
		logger.Warn("no media host configured, storing images in memory")
		mediaStore = media.NewMemoryStore()
	}

	var mailService mailer.Service
	if cfg.Email.DevMode {
		mailService = mailer.NewDevMailer()
	} else {
		mailService = mailer.NewMailerSend(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.FromEmail)
	}

	userRepo := repository.NewUserRepository(pool)
	eventRepo := repository.NewEventRepository(pool)

	hub := realtime.NewHub()

	authService := service.NewAuthService(userRepo, mailService, cfg)
	eventService := service.NewEventService(eventRepo, userRepo, mediaStore, hub, eventBus)

	h := handlers.New(authService, eventService, hub, cfg)

	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("eventhub"))
	r.Use(mw.Logging)
	r.Use(mw.Health)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Idempotency-Key"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	var idempotency func(http.Handler) http.Handler
	if cfg.Redis.URL != "" {
		store, err := cache.NewRedisStore(cfg.Redis.URL)
		if err != nil {
			logger.Error("failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer store.Close()
		idempotency = mw.Idempotency(store)
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/guest", h.GuestLogin)
		r.Get("/check", h.CheckAuth)
		r.Post("/logout", h.Logout)
	})

	r.Route("/events", func(r chi.Router) {
		r.Get("/", h.ListEvents)
		r.Get("/{id}/live", h.LiveEvents)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireSession)
			if idempotency != nil {
				r.With(idempotency).Post("/", h.CreateEvent)
			} else {
				r.Post("/", h.CreateEvent)
			}
			r.Put("/{id}", h.UpdateEvent)
			r.Delete("/{id}", h.DeleteEvent)
			r.Post("/{id}/join", h.JoinEvent)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}()

	logger.Info("starting eventhub API", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
