package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/roomly/bookings/internal/http/handlers"
	ratelimit "github.com/roomly/bookings/internal/http/middleware"
	"github.com/roomly/bookings/internal/repository"
	"github.com/roomly/bookings/internal/service"
	"github.com/roomly/bookings/pkg/config"
	"github.com/roomly/bookings/pkg/database"
	"github.com/roomly/bookings/pkg/events"
	"github.com/roomly/bookings/pkg/logger"
	mw "github.com/roomly/bookings/pkg/middleware"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	// Connect to database
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Connect to event bus
	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	// Connect to Redis for rate limiting
	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Error("Invalid Redis URL", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	// Initialize repositories
	userRepo := repository.NewUserRepository(pool)
	roomRepo := repository.NewRoomRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)

	// Initialize services
	authService := service.NewAuthService(userRepo, cfg)
	roomService := service.NewRoomService(roomRepo, bookingRepo, userRepo, eventBus)
	bookingService := service.NewBookingService(bookingRepo, roomRepo, userRepo, eventBus)

	// Initialize handlers
	h := handlers.New(authService, roomService, bookingService, cfg)

	// Login throttling
	limits := config.RateLimits()
	loginLimiter := ratelimit.NewRateLimiter(redisClient, ratelimit.RateLimitConfig{
		Requests: limits.LoginAttempts,
		Window:   limits.LoginWindow,
		KeyFunc:  ratelimit.LoginKeys,
	})

	// Setup router
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("api"))
	r.Use(mw.Logging)
	r.Use(mw.Health)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/auth", func(r chi.Router) {
		r.With(loginLimiter.Middleware()).Post("/register", h.Register)
		r.With(loginLimiter.Middleware()).Post("/login", h.Login)
		r.Post("/refresh", h.Refresh)
		r.With(h.RequireJWT).Get("/me", h.Me)
	})

	r.Route("/rooms", func(r chi.Router) {
		r.Use(h.RequireJWT)
		r.Get("/", h.ListRooms)
		r.With(h.RequireAdmin).Post("/", h.CreateRoom)
		r.Get("/{id}", h.GetRoom)
		r.With(h.RequireAdmin).Patch("/{id}", h.UpdateRoom)
		r.With(h.RequireAdmin).Delete("/{id}", h.DeleteRoom)
		r.Post("/{id}/members", h.AddRoomMember)
		r.Get("/{id}/bookings", h.ListRoomBookings)
		r.Post("/{id}/bookings", h.CreateRoomBooking)
	})

	r.Route("/bookings", func(r chi.Router) {
		r.Use(h.RequireJWT)
		r.Get("/", h.ListMyBookings)
		r.Get("/{id}", h.GetBooking)
		r.Patch("/{id}", h.UpdateBooking)
		r.Delete("/{id}", h.CancelBooking)
		r.Post("/{id}/participants", h.AddBookingParticipant)
	})

	// Start server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down API...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("API shutdown error", "error", err)
		}
	}()

	logger.Info("Starting API", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("API server error", "error", err)
		os.Exit(1)
	}
}
