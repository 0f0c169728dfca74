package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	auth "github.com/promptcraft/auth-service"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := auth.LoadConfig()
	if err != nil {
		return err
	}

	logger := auth.NewStdLogger(cfg.IsDevelopment())

	if err := cfg.Finalize(logger); err != nil {
		return err
	}

	db, err := auth.OpenDB(cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	if err := auth.CreateSchema(ctx, db); err != nil {
		return err
	}

	repo := auth.NewRepositoryManager(db)
	repo.MustValidate()

	tokens := auth.NewTokenService(cfg, logger)
	mailer := auth.NewLogEmailDispatcher(logger)

	auther := auth.NewAuthenticator(repo, tokens).WithLogger(logger)

	controller := auth.NewAuthController(
		auth.WithControllerLogger(logger),
		auth.WithAuther(auther),
		auth.WithFlowHandlers(
			auth.NewRegisterUserHandler(repo, tokens).
				WithEmailDispatcher(mailer).
				WithLogger(logger).
				WithVerificationBaseURL(cfg.VerificationBaseURL),
			auth.NewVerificationRequestHandler(repo, tokens).
				WithEmailDispatcher(mailer).
				WithLogger(logger).
				WithVerificationBaseURL(cfg.VerificationBaseURL),
			auth.NewVerifyEmailHandler(repo, tokens).WithLogger(logger),
			auth.NewPasswordResetRequestHandler(repo, tokens).
				WithEmailDispatcher(mailer).
				WithLogger(logger).
				WithResetBaseURL(cfg.PasswordResetBaseURL),
			auth.NewFinalizePasswordResetHandler(repo, tokens).WithLogger(logger),
		),
	)

	app := fiber.New(fiber.Config{
		AppName:      "promptcraft-auth",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	auth.RegisterAuthRoutes(app, controller)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(cfg.HTTPAddr)
	}()

	logger.Info("auth service listening", "addr", cfg.HTTPAddr, "env", cfg.Environment)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
		return app.ShutdownWithTimeout(10 * time.Second)
	}
}
