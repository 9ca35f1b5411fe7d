package dependency_container

import (
	"context"
	"fmt"
	"time"

	appContact "github.com/NeuralTrust/FormGate/pkg/app/contact"
	appSecurity "github.com/NeuralTrust/FormGate/pkg/app/security"
	"github.com/NeuralTrust/FormGate/pkg/config"
	"github.com/NeuralTrust/FormGate/pkg/domain/security"
	"github.com/NeuralTrust/FormGate/pkg/domain/telemetry"
	handlers "github.com/NeuralTrust/FormGate/pkg/handlers/http"
	"github.com/NeuralTrust/FormGate/pkg/infra/cache"
	"github.com/NeuralTrust/FormGate/pkg/infra/captcha"
	"github.com/NeuralTrust/FormGate/pkg/infra/database"
	"github.com/NeuralTrust/FormGate/pkg/infra/httpx"
	"github.com/NeuralTrust/FormGate/pkg/infra/mail"
	"github.com/NeuralTrust/FormGate/pkg/infra/metrics"
	_ "github.com/NeuralTrust/FormGate/pkg/infra/migrations"
	"github.com/NeuralTrust/FormGate/pkg/infra/ratelimit"
	"github.com/NeuralTrust/FormGate/pkg/infra/repository"
	infraTelemetry "github.com/NeuralTrust/FormGate/pkg/infra/telemetry"
	"github.com/NeuralTrust/FormGate/pkg/infra/telemetry/kafka"
	"github.com/NeuralTrust/FormGate/pkg/infra/telemetry/postgres"
	"github.com/NeuralTrust/FormGate/pkg/infra/telemetry/webhook"
	"github.com/NeuralTrust/FormGate/pkg/infra/transcription"
	"github.com/NeuralTrust/FormGate/pkg/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const breakerCooldown = 30 * time.Second

type Container struct {
	Config              *config.Config
	Logger              *logrus.Logger
	Redis               *redis.Client
	DB                  *database.DB
	MetricsWorker       metrics.Worker
	Exporters           []telemetry.Exporter
	Recorder            appSecurity.Recorder
	Gate                appContact.Gate
	LogBuckets          *ratelimit.TokenBucketStore
	HandlerTransport    handlers.HandlerTransport
	MiddlewareTransport middleware.Transport
	LogGuardMiddleware  middleware.Middleware
}

type ContainerDI struct {
	Cfg    *config.Config
	Logger *logrus.Logger
	// Redis overrides the client built from Cfg.Redis.
	Redis *redis.Client
	// SMTPSend overrides the network send of the smtp mail provider.
	SMTPSend mail.SendFunc
}

func NewContainer(ctx context.Context, di ContainerDI) (*Container, error) {
	cfg := di.Cfg
	logger := di.Logger

	redisClient := di.Redis
	if redisClient == nil {
		var err error
		redisClient, err = cache.NewClient(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize cache: %w", err)
		}
	}

	c := &Container{
		Config: cfg,
		Logger: logger,
		Redis:  redisClient,
	}

	var eventRepository security.Repository
	if cfg.Database.Enabled {
		db, err := database.NewDB(ctx, logger, cfg.Database)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		c.DB = db
		eventRepository = repository.NewSecurityEventRepository(db.DB)
	}

	httpClient := httpx.NewFastHTTPClient(httpx.Options{
		Timeout:             10 * time.Second,
		MaxConnsPerHost:     512,
		MaxIdleConnDuration: 90 * time.Second,
	})

	// telemetry
	exporterLocator := infraTelemetry.NewExporterLocator(
		infraTelemetry.WithExporter(kafka.ExporterName, kafka.NewKafkaExporter()),
		infraTelemetry.WithExporter(webhook.ExporterName, webhook.NewWebhookExporter(
			httpClient,
			httpx.NewCircuitBreaker("security-webhook", breakerCooldown, 5),
		)),
		infraTelemetry.WithExporter(postgres.ExporterName, postgres.NewPostgresExporter(eventRepository)),
	)
	exporters, err := exporterLocator.Build(cfg.Monitoring.Exporters)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to configure security exporters: %w", err)
	}
	c.Exporters = exporters

	c.MetricsWorker = metrics.NewWorker(logger, cfg.Monitoring.QueueSize)
	c.MetricsWorker.StartWorkers(cfg.Monitoring.Workers)
	c.Recorder = appSecurity.NewMonitor(logger, c.MetricsWorker, exporters, nil)

	// contact gate
	transport, err := newMailTransport(cfg, logger, httpClient, di.SMTPSend)
	if err != nil {
		c.Close()
		return nil, err
	}
	contactLimiter := ratelimit.NewSlidingWindowLimiter(redisClient, ratelimit.Config{
		Name:          "contact",
		KeyPrefix:     cfg.Contact.KeyPrefix,
		Window:        cfg.Contact.Window,
		MaxRequests:   cfg.Contact.MaxRequests,
		FailurePolicy: ratelimit.FailurePolicy(cfg.Contact.FailurePolicy),
		Atomic:        cfg.Contact.Atomic,
		Timeout:       cfg.Contact.StoreTimeout,
	}, nil)

	c.Gate = appContact.NewGate(appContact.GateDI{
		Logger:    logger,
		Sanitizer: appContact.NewSanitizer(),
		Validator: appContact.NewValidator(),
		Captcha: captcha.NewHCaptchaVerifier(
			logger,
			httpClient,
			httpx.NewCircuitBreaker("hcaptcha", breakerCooldown, uint32(cfg.Captcha.MaxFailures)),
			captcha.Config{
				Secret:    cfg.Captcha.Secret,
				VerifyURL: cfg.Captcha.VerifyURL,
				Timeout:   cfg.Captcha.Timeout,
			},
		),
		Limiter: contactLimiter,
		Dispatcher: mail.NewDispatcher(logger, transport, mail.DispatcherConfig{
			From:  cfg.Mail.From,
			To:    cfg.Mail.To,
			Brand: cfg.Mail.Brand,
		}),
		Recorder: c.Recorder,
		Opts:     appContact.GateOpts{CountFailedCaptcha: cfg.Contact.CountFailedCaptcha},
	})

	// handlers
	c.HandlerTransport = handlers.HandlerTransport{
		ContactHandler:       handlers.NewContactHandler(logger, c.Gate),
		SecurityLogHandler:   handlers.NewSecurityLogHandler(logger, c.Recorder),
		MonitoringLogHandler: handlers.NewMonitoringLogHandler(logger, c.Recorder, cfg.Monitoring.InternalKey),
		TranscribeHandler: handlers.NewTranscribeHandler(logger, transcription.NewOpenAITranscriber(transcription.Config{
			APIKey:  cfg.OpenAI.APIKey,
			Model:   cfg.OpenAI.Model,
			Timeout: cfg.OpenAI.Timeout,
		})),
		GetVersionHandler: handlers.NewGetVersionHandler(),
		HealthHandler:     handlers.NewHealthHandler(),
	}

	// middleware
	c.MiddlewareTransport = middleware.Transport{
		PanicRecoverMiddleware:      middleware.NewPanicRecoverMiddleware(logger),
		MetricsMiddleware:           middleware.NewMetricsMiddleware(logger, cfg.Monitoring.SlowRequestThreshold),
		SecurityHeadersMiddleware:   middleware.NewSecurityHeadersMiddleware(),
		SuspiciousRequestMiddleware: middleware.NewSuspiciousRequestMiddleware(c.Recorder),
		CORSMiddleware:              middleware.NewCORSGlobalMiddleware(cfg.Server.AllowedOrigins),
		BodyLimitMiddleware:         middleware.NewBodyLimitMiddleware(cfg.Server.MaxPostBody),
		APIKeyMiddleware:            middleware.NewAPIKeyMiddleware(cfg.Server.APIKey, c.Recorder),
	}
	if cfg.APIRateLimit.Enabled {
		apiLimiter := ratelimit.NewSlidingWindowLimiter(redisClient, ratelimit.Config{
			Name:          "api",
			KeyPrefix:     cfg.APIRateLimit.KeyPrefix,
			Window:        cfg.APIRateLimit.Window,
			MaxRequests:   cfg.APIRateLimit.MaxRequests,
			FailurePolicy: ratelimit.FailurePolicy(cfg.APIRateLimit.FailurePolicy),
			Timeout:       cfg.Contact.StoreTimeout,
		}, nil)
		c.MiddlewareTransport.RateLimitMiddleware = middleware.NewRateLimitMiddleware(
			logger, apiLimiter, c.Recorder, cfg.APIRateLimit.Window,
		)
	}

	c.LogBuckets = ratelimit.NewTokenBucketStore(
		cfg.LogRateLimit.RPS,
		cfg.LogRateLimit.Burst,
		ratelimit.WithIdleTTL(cfg.LogRateLimit.IdleTTL),
	)
	c.LogGuardMiddleware = middleware.NewTokenBucketMiddleware(c.LogBuckets)

	return c, nil
}

func newMailTransport(
	cfg *config.Config,
	logger *logrus.Logger,
	client httpx.Client,
	smtpSend mail.SendFunc,
) (mail.Transport, error) {
	breaker := httpx.NewCircuitBreaker("mail-"+cfg.Mail.Provider, breakerCooldown, uint32(cfg.Mail.MaxFailures))
	switch cfg.Mail.Provider {
	case config.MailProviderSendGrid:
		return mail.NewSendGridTransport(logger, client, breaker, mail.SendGridConfig{
			APIKey:   cfg.Mail.APIKey,
			Endpoint: cfg.Mail.Endpoint,
			Timeout:  cfg.Mail.Timeout,
		}), nil
	case config.MailProviderSMTP:
		return mail.NewSMTPTransport(mail.SMTPConfig{
			Host:     cfg.Mail.SMTP.Host,
			Port:     cfg.Mail.SMTP.Port,
			Username: cfg.Mail.SMTP.Username,
			Password: cfg.Mail.SMTP.Password,
			Timeout:  cfg.Mail.Timeout,
		}, breaker, smtpSend), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Mail.Provider)
	}
}

// Close releases resources in reverse order of construction.
func (c *Container) Close() {
	if c.MetricsWorker != nil {
		c.MetricsWorker.Shutdown()
	}
	for i := len(c.Exporters) - 1; i >= 0; i-- {
		c.Exporters[i].Close()
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			c.Logger.WithError(err).Error("failed to close database")
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.WithError(err).Error("failed to close redis client")
		}
	}
}
