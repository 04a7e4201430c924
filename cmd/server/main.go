package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	crmapp "github.com/mar-ia/crm/internal/application/crm"
	identityapp "github.com/mar-ia/crm/internal/application/identity"
	intapp "github.com/mar-ia/crm/internal/application/integration"
	"github.com/mar-ia/crm/internal/domain/crm"
	"github.com/mar-ia/crm/internal/infrastructure/auth"
	"github.com/mar-ia/crm/internal/infrastructure/cache"
	"github.com/mar-ia/crm/internal/infrastructure/config"
	"github.com/mar-ia/crm/internal/infrastructure/document"
	"github.com/mar-ia/crm/internal/infrastructure/event"
	"github.com/mar-ia/crm/internal/infrastructure/logger"
	"github.com/mar-ia/crm/internal/infrastructure/persistence"
	"github.com/mar-ia/crm/internal/infrastructure/provider"
	"github.com/mar-ia/crm/internal/infrastructure/storage"
	"github.com/mar-ia/crm/internal/infrastructure/telemetry"
	"github.com/mar-ia/crm/internal/interfaces/http/handler"
	"github.com/mar-ia/crm/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			Client Mar-IA API
//	@version		1.0
//	@description	Multi-tenant CRM API: leads, clients, campaigns and AI-assisted calls

//	@BasePath	/api

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

//	@securityDefinitions.apikey	APIKeyAuth
//	@in							header
//	@name						X-API-Key
//	@description				Organization API key

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.Telemetry.ServiceName,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync(log)

	ctx := context.Background()

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	logProvider, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize log export", zap.Error(err))
	}
	log = logProvider.Bridge(log, cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Log.Level))
	profiler, err := telemetry.NewProfiler(cfg.Telemetry, log)
	if err != nil {
		log.Warn("Profiler disabled", zap.Error(err))
	} else if profiler.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}

	if cfg.JWT.UsingInsecureDefault {
		log.Warn("JWT_SECRET not set, using the insecure development secret")
	}

	log.Info("Starting Client Mar-IA",
		zap.String("version", version),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port))

	// Database
	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithLogger(logger.NewGormLogger(log, cfg.Log.Level, 200*time.Millisecond)))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	tracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled,
		DBSystem:        db.Driver(),
		WithVariables:   !cfg.App.IsProduction(),
		SlowQueryThresh: 200 * time.Millisecond,
	}, log)
	if err := tracing.Register(db.DB); err != nil {
		log.Warn("Database tracing disabled", zap.Error(err))
	}
	// versioned migrations (cmd/migrate) own the postgres schema
	if db.Driver() == "sqlite" {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}
	log.Info("Database connected", zap.String("driver", db.Driver()))

	tenantRepo := persistence.NewGormTenantRepository(db.DB)
	orgRepo := persistence.NewGormOrganizationRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	membershipRepo := persistence.NewGormMembershipRepository(db.DB)
	apiKeyRepo := persistence.NewGormAPIKeyRepository(db.DB)
	leadRepo := persistence.NewGormLeadRepository(db.DB)
	clientRepo := persistence.NewGormClientRepository(db.DB)
	campaignRepo := persistence.NewGormCampaignRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	// conversion events go through the transactional outbox
	eventSerializer := event.NewCRMEventSerializer()
	var uowOpts []persistence.UnitOfWorkOption
	if !cfg.Outbox.Disabled {
		uowOpts = append(uowOpts, persistence.WithOutbox(event.NewOutboxPublisher(eventSerializer)))
	}
	uow := persistence.NewGormUnitOfWork(db.DB, uowOpts...)

	contextCache, err := cache.NewContextCacheFactory(cfg.Cache, cfg.Redis, cache.WithLogger(log)).Create(ctx)
	if err != nil {
		log.Fatal("Failed to create context cache", zap.Error(err))
	}

	// Client documents and voice agents live in Firestore when configured
	var (
		documents crm.ClientDocumentStore
		agents    crm.AgentConfigStore
		fsClient  *firestore.Client
	)
	if cfg.Firestore.Enabled() {
		fsClient, err = document.NewFirestoreClient(ctx, cfg.Firestore)
		if err != nil {
			log.Fatal("Failed to connect to Firestore", zap.Error(err))
		}
		documents = document.NewFirestoreClientStore(fsClient, log)
		agents = document.NewFirestoreAgentStore(fsClient)
	} else {
		log.Warn("Firestore not configured, client documents are kept in memory")
		documents = document.NewMemoryClientStore()
		agents = document.NewMemoryAgentStore()
	}

	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(crmapp.NewTimelineHandler(documents, log))
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	var outboxProcessor *event.OutboxProcessor
	if !cfg.Outbox.Disabled {
		outboxProcessor = event.NewOutboxProcessor(
			event.NewGormOutboxRepository(db.DB),
			eventBus,
			eventSerializer,
			event.ProcessorConfigFrom(cfg.Outbox),
			log,
		)
		if err := outboxProcessor.Start(ctx); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
	}

	var attachments crmapp.AttachmentStorage
	if cfg.Storage.Enabled() {
		s3, err := storage.NewS3AttachmentStorage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			log.Warn("Attachment bucket check failed", zap.String("bucket", s3.Bucket()), zap.Error(err))
		}
		attachments = s3
	} else {
		attachments = storage.NewLocalAttachmentStorage("")
	}

	providers, err := provider.NewSet(ctx, cfg.Providers, log)
	if err != nil {
		log.Fatal("Failed to initialize providers", zap.Error(err))
	}

	meter := meterProvider.Meter("github.com/mar-ia/crm")
	crmMetrics, err := telemetry.NewCRMMetrics(meter)
	if err != nil {
		log.Warn("CRM metrics disabled", zap.Error(err))
		crmMetrics = telemetry.NoopCRMMetrics()
	}

	// Services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(tenantRepo, orgRepo, userRepo, membershipRepo, jwtService, contextCache, log)
	orgService := identityapp.NewOrganizationService(tenantRepo, orgRepo, membershipRepo, leadRepo, contextCache, log)
	apiKeyService := identityapp.NewAPIKeyService(apiKeyRepo, log)
	leadService := crmapp.NewLeadService(leadRepo, campaignRepo, uow, crmMetrics, crmapp.BulkOptions{
		Concurrency: cfg.Bulk.MaxConcurrency,
		MaxItems:    cfg.Bulk.MaxItems,
	}, log)
	clientService := crmapp.NewClientService(clientRepo, documents, attachments, cfg.Storage.PresignExpiration, log)

	handlers := router.Handlers{
		Auth:         handler.NewAuthHandler(authService, cfg.Cookie),
		Organization: handler.NewOrganizationHandler(orgService),
		APIKey:       handler.NewAPIKeyHandler(apiKeyService),
		Lead:         handler.NewLeadHandler(leadService),
		Client:       handler.NewClientHandler(clientService),
		Campaign:     handler.NewCampaignHandler(crmapp.NewCampaignService(campaignRepo, productRepo, log)),
		Product:      handler.NewProductHandler(crmapp.NewProductService(productRepo, log)),
		Integration: handler.NewIntegrationHandler(
			intapp.NewCallPersonalizationService(leadRepo, campaignRepo, documents, providers.Personalization, crmMetrics, log),
			intapp.NewConversationAnalysisService(clientRepo, documents, providers.Analysis, crmMetrics, log),
			intapp.NewWhatsAppService(clientRepo, documents, providers.WhatsApp, crmMetrics, log),
			intapp.NewVoiceAgentService(agents, leadRepo, documents, providers.VoiceAgent, crmMetrics, log),
		),
		System: handler.NewSystemHandler(version, map[string]handler.Pinger{
			"database": db,
		}),
	}

	limiters := router.NewLimiters(cfg.HTTP)
	engine := router.NewEngine(router.Deps{
		Config:   cfg,
		Logger:   log,
		Tokens:   jwtService,
		Contexts: authService,
		APIKeys:  apiKeyService,
		Limiters: limiters,
		Meter:    meter,
	}, handlers)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	apiKeyService.Wait()
	if outboxProcessor != nil {
		if err := outboxProcessor.Stop(shutdownCtx); err != nil {
			log.Warn("Error stopping outbox processor", zap.Error(err))
		}
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Warn("Error stopping event bus", zap.Error(err))
	}
	limiters.Close()
	if err := contextCache.Close(); err != nil {
		log.Warn("Error closing context cache", zap.Error(err))
	}
	if fsClient != nil {
		if err := fsClient.Close(); err != nil {
			log.Warn("Error closing Firestore client", zap.Error(err))
		}
	}
	if err := db.Close(); err != nil {
		log.Error("Error closing database", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Warn("Error stopping profiler", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Error flushing metrics", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Error flushing traces", zap.Error(err))
	}
	if err := logProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Error flushing logs", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
