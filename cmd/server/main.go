// @title           Digital Evidence Archive API
// @version         1.0.0
// @description     Case, evidence file and audit API for the Digital Evidence Archive
// @basePath        /
// @schemes         https
// @securityDefinitions.apiKey  Bearer
// @in                          header
// @name                         Authorization
// @description                  "Identity provider id token: 'Bearer {token}'"
//
// @tag.name         System
// @tag.description  Health and version endpoints.
//
// @tag.name         Observability
// @tag.description  Prometheus metrics are served on a dedicated side-channel port (default: 9090) when running as a server. The endpoint path is always GET /metrics.

// Package main is the entry point for the evidence archive backend binary.
// It dispatches three subcommands (serve, lambda and version) via a simple switch
// on os.Args so the binary's full CLI surface is readable in one place without
// requiring a cobra dependency. serve runs a long-lived HTTP server; lambda hands the
// same router to the API Gateway proxy adapter.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/awslabs/aws-lambda-go-api-proxy/gin"
	gingonic "github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/digital-evidence-archive/dea-backend/internal/api"
	"github.com/digital-evidence-archive/dea-backend/internal/audit"
	"github.com/digital-evidence-archive/dea-backend/internal/auth"
	"github.com/digital-evidence-archive/dea-backend/internal/auth/oidc"
	"github.com/digital-evidence-archive/dea-backend/internal/awsconfig"
	"github.com/digital-evidence-archive/dea-backend/internal/config"
	"github.com/digital-evidence-archive/dea-backend/internal/db"
	"github.com/digital-evidence-archive/dea-backend/internal/db/repositories"
	"github.com/digital-evidence-archive/dea-backend/internal/safego"
	"github.com/digital-evidence-archive/dea-backend/internal/services"
	s3store "github.com/digital-evidence-archive/dea-backend/internal/storage/s3"
	"github.com/digital-evidence-archive/dea-backend/internal/telemetry"
)

// version is overridden at link time with -ldflags "-X main.version=..."
var version = "0.1.0"

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error: %v\n", err)
	}
}

func run() error {
	command := "serve"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}
	// The Lambda runtime starts the handler with no arguments
	if command == "serve" && os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		command = "lambda"
	}

	if command == "version" {
		fmt.Printf("DEA backend v%s\n", version)
		return nil
	}

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	switch command {
	case "serve":
		return serve(cfg)
	case "lambda":
		return serveLambda(cfg)
	default:
		return fmt.Errorf("unknown command: %s\nAvailable commands: serve, lambda, version", command)
	}
}

// app is everything built from config that both entry points share
type app struct {
	router   *gingonic.Engine
	bg       *api.BackgroundServices
	recorder *audit.Recorder
}

func (a *app) close() {
	a.bg.Shutdown()
	if err := a.recorder.Close(); err != nil {
		slog.Error("failed to close audit shipper", "error", err)
	}
}

// build creates the AWS clients once and wires repositories, services and the router
func build(ctx context.Context, cfg *config.Config) (*app, error) {
	telemetry.SetupLogger(cfg.Logging.Format, cfg.Logging.Level)
	api.Version = version

	if cfg.Logging.Level == "debug" {
		gingonic.SetMode(gingonic.DebugMode)
	} else {
		gingonic.SetMode(gingonic.ReleaseMode)
	}

	awsCfg, err := awsconfig.Load(ctx, &cfg.AWS)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	slog.Info("AWS config loaded", "region", awsCfg.Region, "auth_method", awsconfig.ResolveAuthMethod(&cfg.AWS))

	table := db.Connect(awsCfg, &cfg.DynamoDB)
	logs := cloudwatchlogs.NewFromConfig(awsCfg)
	store, err := s3store.New(awsCfg, &cfg.Storage.S3)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize evidence storage: %w", err)
	}

	var (
		verifier auth.TokenVerifier
		login    *oidc.OIDCProvider
	)
	switch cfg.Auth.Mode {
	case "jwt":
		if err := auth.ValidateJWTSecret(); err != nil {
			return nil, fmt.Errorf("security configuration error: %w", err)
		}
		verifier = auth.JWTVerifier{}
		slog.Warn("accepting locally signed tokens; use auth.mode=oidc in deployed stages")
	default:
		login, err = oidc.NewOIDCProvider(ctx, &cfg.Auth.OIDC)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OIDC provider: %w", err)
		}
		verifier = login
		slog.Info("OIDC provider ready", "issuer", cfg.Auth.OIDC.IssuerURL)
	}

	shipper, err := audit.NewShipper(&cfg.Audit, logs, os.Stdout)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audit shipper: %w", err)
	}
	recorder := audit.NewRecorder(shipper, cfg.Audit.LogReadOperations)

	users := repositories.NewUserRepository(table)
	cases := repositories.NewCaseRepository(table)
	members := repositories.NewCaseUserRepository(table)
	files := repositories.NewCaseFileRepository(table)
	jobs := repositories.NewAuditJobRepository(table)

	deps := api.Dependencies{
		Config:   cfg,
		Store:    table,
		Verifier: verifier,
		Users:    services.NewUserService(users),
		Cases:    services.NewCaseService(cases, members, users),
		Files:    services.NewFileService(cases, members, files, store),
		Audits:   audit.NewService(audit.NewCloudWatchBackend(logs), jobs, audit.OptionsFromConfig(&cfg.Audit)),
		Guard:    audit.NewGuard(jobs, members, files, users),
		Recorder: recorder,
	}
	// A nil *OIDCProvider must not become a non-nil interface
	if login != nil {
		deps.Login = login
	}

	router, bg := api.NewRouter(deps)
	return &app{router: router, bg: bg, recorder: recorder}, nil
}

func serve(cfg *config.Config) error {
	a, err := build(context.Background(), cfg)
	if err != nil {
		return err
	}

	// Start Prometheus metrics endpoint on a dedicated port so it is not reachable
	// through the public API ingress path.
	if cfg.Telemetry.Metrics.Enabled {
		metricsAddr := fmt.Sprintf(":%d", cfg.Telemetry.Metrics.PrometheusPort)
		safego.Go("metrics-listener", func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			slog.Info("starting Prometheus metrics server", "addr", metricsAddr)
			srv := &http.Server{
				Addr:         metricsAddr,
				Handler:      mux,
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 10 * time.Second,
			}
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server error", "error", err)
			}
		})
	}

	server := &http.Server{
		Addr:         cfg.Server.GetAddress(),
		Handler:      a.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.Server.GetAddress(), "base_url", cfg.Server.BaseURL,
			"table", cfg.DynamoDB.TableName, "bucket", cfg.Storage.S3.Bucket)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serveErr:
		a.close()
		return fmt.Errorf("failed to start server: %w", err)
	}

	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	// Stop rate limiter goroutines and flush the audit shipper
	a.close()

	slog.Info("server stopped gracefully")
	return nil
}

// serveLambda runs the router behind API Gateway. Clients are built once per cold
// start and reused across invocations.
func serveLambda(cfg *config.Config) error {
	a, err := build(context.Background(), cfg)
	if err != nil {
		return err
	}
	adapter := ginadapter.New(a.router)
	lambda.Start(adapter.ProxyWithContext)
	return nil
}
