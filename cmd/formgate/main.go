package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/NeuralTrust/FormGate/pkg/config"
	"github.com/NeuralTrust/FormGate/pkg/dependency_container"
	infraLogger "github.com/NeuralTrust/FormGate/pkg/infra/logger"
	"github.com/NeuralTrust/FormGate/pkg/infra/prometheus"
	"github.com/NeuralTrust/FormGate/pkg/server"
	"github.com/NeuralTrust/FormGate/pkg/server/router"
	"github.com/NeuralTrust/FormGate/pkg/version"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	logger := infraLogger.NewLogger(infraLogger.OptionsFromEnv())
	defer func() { _ = infraLogger.Close(logger) }()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config"
	}
	if err := config.Load(configPath); err != nil {
		logger.WithError(err).Warn("config file not loaded, relying on defaults and environment")
	}
	cfg := config.GetConfig()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := dependency_container.NewContainer(ctx, dependency_container.ContainerDI{
		Cfg:    cfg,
		Logger: logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize dependencies")
	}
	container.LogBuckets.StartJanitor(ctx)

	servers := []server.Server{
		server.NewAPIServer(server.APIServerDI{
			Config: cfg,
			Logger: logger,
			Routers: []router.ServerRouter{
				router.NewAPIRouter(
					container.MiddlewareTransport,
					container.HandlerTransport,
					container.LogGuardMiddleware,
				),
				router.NewDocsRouter(cfg.Server.SwaggerFile),
			},
		}),
	}
	if cfg.Metrics.Enabled {
		prometheus.Initialize()
		servers = append(servers, server.NewMetricsServer(cfg, logger))
	} else {
		logger.Info("prometheus metrics are disabled by configuration")
	}

	logger.WithFields(logrus.Fields{
		"app":     version.AppName,
		"version": version.Version,
		"commit":  version.Commit,
	}).Info("starting " + version.GetInfo().String())

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(srv.Run)
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		var errs []error
		for i := len(servers) - 1; i >= 0; i-- {
			if err := servers[i].Shutdown(); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logger.WithError(err).Error("server stopped unexpectedly")
	}
	container.Close()
	logger.Info("server gracefully stopped")
}
