package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"ridehail/internal/api"
	"ridehail/internal/api/handlers"
	"ridehail/internal/blob"
	"ridehail/internal/config"
	"ridehail/internal/notify"
	"ridehail/internal/repository"
	"ridehail/internal/repository/memory"
	"ridehail/internal/repository/postgres"
	"ridehail/internal/services"
	"ridehail/pkg/logger"
	"ridehail/pkg/token"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log := logger.New(cfg.App.ServiceName, cfg.App.LogLevel)
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", logger.Error(err))
		os.Exit(1)
	}
	if cfg.UsesDefaultJWTSecret() {
		log.Warning("JWT_SECRET is not set, signing tokens with the built-in default secret")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize repositories
	var (
		userRepo    repository.UserRepository
		rideRepo    repository.RideRepository
		vehicleRepo repository.VehicleRepository
	)
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		store, err := postgres.New(ctx, cfg.Postgres, log)
		if err != nil {
			log.Error("failed to connect to postgres", logger.Error(err))
			os.Exit(1)
		}
		defer store.Close()
		userRepo, rideRepo, vehicleRepo = store.Users(), store.Rides(), store.Vehicles()
	case config.StorageMemory:
		userRepo, rideRepo, vehicleRepo = memory.NewUserRepository(), memory.NewRideRepository(), memory.NewVehicleRepository()
	default:
		log.Error("unknown storage driver", logger.String("driver", cfg.Storage.Driver))
		os.Exit(1)
	}
	log.Info("storage ready", logger.String("driver", cfg.Storage.Driver))

	blobs, err := blob.NewDiskStore(cfg.Blob.Root)
	if err != nil {
		log.Error("failed to prepare media root", logger.Error(err))
		os.Exit(1)
	}

	dispatcher := notify.NewDispatcher(log, cfg.Notify.SendTimeout, notificationSenders(cfg, log)...)
	defer func() {
		if err := dispatcher.Close(); err != nil {
			log.Warning("closing notification senders", logger.Error(err))
		}
	}()

	// Initialize services
	registration := services.NewRegistrationService(userRepo, blobs, log, cfg)
	authService := services.NewAuthService(userRepo, token.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL), log)
	rideService := services.NewRideService(rideRepo, userRepo, dispatcher, log, cfg)
	vehicleService := services.NewVehicleService(vehicleRepo, userRepo, log, cfg)
	adminService := services.NewAdminService(userRepo, rideRepo, blobs, log)

	if cfg.Auth.AdminUsername != "" {
		created, err := registration.EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword)
		if err != nil {
			log.Error("failed to create admin account", logger.Error(err))
			os.Exit(1)
		}
		log.Info("admin account checked", logger.String("username", cfg.Auth.AdminUsername), logger.Bool("created", created))
	}

	// Setup router
	router := api.NewRouter(
		handlers.NewAuthHandler(registration, authService, log),
		handlers.NewRideHandler(rideService, log),
		handlers.NewVehicleHandler(vehicleService, log),
		handlers.NewAdminHandler(adminService, log),
		authService,
		log,
	)

	engine := gin.New()
	engine.Use(gin.Recovery())
	router.Setup(engine)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Go Learning Note — Graceful Shutdown:
	// ListenAndServe runs in its own goroutine so main can wait for a signal.
	// Shutdown stops accepting connections and waits for in-flight requests,
	// bounded by ShutdownTimeout; the deferred calls then drain notifications
	// and close the database pool.
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting ride-hailing server", logger.String("addr", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		log.Error("server failed", logger.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warning("graceful shutdown failed", logger.Error(err))
	}
}

// notificationSenders registers every sender whose settings are present.
// The log sender is always on.
func notificationSenders(cfg *config.Config, log logger.ILogger) []notify.Sender {
	senders := []notify.Sender{notify.NewLogSender(log)}

	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramAdminChatID != 0 {
		tg, err := notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramAdminChatID, cfg.Notify.SendTimeout)
		if err != nil {
			log.Warning("telegram notifications disabled", logger.Error(err))
		} else {
			log.Info("telegram notifications enabled", logger.Int64("chat_id", cfg.Notify.TelegramAdminChatID))
			senders = append(senders, tg)
		}
	}
	if cfg.Notify.AMQPURL != "" {
		senders = append(senders, notify.NewAMQPSender(cfg.Notify.AMQPURL, cfg.Notify.AMQPExchange))
	}
	if cfg.Notify.SMTPHost != "" && cfg.Notify.MailFrom != "" && len(cfg.Notify.AdminEmails) > 0 {
		senders = append(senders, notify.NewMailSender(
			cfg.Notify.SMTPHost,
			cfg.Notify.SMTPPort,
			cfg.Notify.SMTPUsername,
			cfg.Notify.SMTPPassword,
			cfg.Notify.MailFrom,
			cfg.Notify.AdminEmails,
		))
	}

	names := make([]string, 0, len(senders))
	for _, s := range senders {
		names = append(names, s.Name())
	}
	log.Info("notification senders", logger.Strings("senders", names))
	return senders
}
