package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handler"
	"storefront/internal/mail"
	"storefront/internal/metrics"
	"storefront/internal/payment"
	"storefront/internal/repository"
	"storefront/internal/router"
	"storefront/internal/service"
	"storefront/internal/storage"

	"github.com/rs/zerolog"
)

func migrate(cfg *config.Config, logger zerolog.Logger) error {
	if err := database.Migrate(cfg.Database.ConnectionString(), logger); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger, applyMigrations bool) error {
	logger.Info().Str("app", cfg.App.Name).Msg("starting storefront API server")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if applyMigrations {
		if err := migrate(cfg, logger); err != nil {
			return err
		}
	}

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	userRepo := repository.NewUserRepository(pool, logger)
	subscriberRepo := repository.NewSubscriberRepository(pool, logger)

	// Outbound integrations
	gateway := payment.NewPaystackClient(payment.PaystackConfig{
		SecretKey: cfg.Paystack.SecretKey,
		BaseURL:   cfg.Paystack.BaseURL,
		Currency:  cfg.Paystack.Currency,
		Timeout:   cfg.Paystack.Timeout,
	}, logger)

	var sender mail.Sender
	if cfg.Mail.Enabled {
		sender = mail.NewSMTPSender(cfg.Mail, logger)
	} else {
		sender = mail.NewLogSender(logger)
		logger.Info().Msg("SMTP disabled, outbound email is logged only")
	}

	templates, err := mail.NewTemplates(cfg.App.Name, cfg.App.FrontendURL)
	if err != nil {
		return fmt.Errorf("failed to parse email templates: %w", err)
	}

	imageStore, err := newImageStore(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}

	m := metrics.New()
	notifier := service.NewNotifier(sender, templates, m, logger)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.ResetTokenTTL)

	// Initialize services
	productService := service.NewProductService(productRepo, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, gateway, service.CheckoutConfig{
		CallbackURL: cfg.Paystack.CallbackURL,
		Currency:    cfg.Paystack.Currency,
	}, logger)
	paymentService := service.NewPaymentService(orderRepo, gateway, notifier, cfg.Paystack.SecretKey, m, logger)
	userService := service.NewUserService(userRepo, tokens, notifier, cfg.Auth.VerificationTTL, cfg.Auth.ResetTokenTTL, logger)
	subscriberService := service.NewSubscriberService(subscriberRepo, notifier, logger)
	uploadService := service.NewUploadService(imageStore, logger)

	// Initialize HTTP handlers
	validate := handler.NewValidator()
	handlers := router.Handlers{
		Product:    handler.NewProductHandler(productService, validate, logger),
		Order:      handler.NewOrderHandler(orderService, validate, logger),
		Payment:    handler.NewPaymentHandler(paymentService, logger),
		User:       handler.NewUserHandler(userService, validate, logger),
		Subscriber: handler.NewSubscriberHandler(subscriberService, validate, logger),
		Upload:     handler.NewUploadHandler(uploadService, logger),
	}

	// Initialize router
	mux := router.New(handlers, router.Options{
		Authenticator: userService,
		Metrics:       m,
		UploadDir:     cfg.Storage.UploadDir,
		Production:    cfg.App.IsProduction(),
	}, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newImageStore prefers S3 when enabled and keeps the local directory as the
// fallback for failed or disabled uploads.
func newImageStore(ctx context.Context, cfg config.StorageConfig, logger zerolog.Logger) (storage.ImageStore, error) {
	fileStore, err := storage.NewFileStore(cfg.UploadDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize local image store: %w", err)
	}

	if !cfg.S3Enabled {
		logger.Info().Msg("using local file system for product images (S3 disabled)")
		return fileStore, nil
	}

	s3Store, err := storage.NewS3Store(ctx, storage.S3Config{
		Bucket:        cfg.Bucket,
		Region:        cfg.Region,
		Prefix:        cfg.Prefix,
		PublicBaseURL: cfg.PublicBaseURL,
	}, logger)
	if err != nil {
		logger.Warn().
			Err(err).
			Msg("failed to initialise S3 image store, falling back to local file system only")
		return fileStore, nil
	}

	return storage.NewFallbackStore(s3Store, fileStore, true, logger), nil
}
