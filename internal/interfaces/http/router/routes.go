package router

import (
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mar-ia/crm/internal/domain/identity"
	"github.com/mar-ia/crm/internal/infrastructure/config"
	"github.com/mar-ia/crm/internal/infrastructure/logger"
	"github.com/mar-ia/crm/internal/interfaces/http/handler"
	"github.com/mar-ia/crm/internal/interfaces/http/middleware"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	_ "github.com/mar-ia/crm/docs"
)

// Handlers groups every HTTP handler the API mounts
type Handlers struct {
	Auth         *handler.AuthHandler
	Organization *handler.OrganizationHandler
	APIKey       *handler.APIKeyHandler
	Lead         *handler.LeadHandler
	Client       *handler.ClientHandler
	Campaign     *handler.CampaignHandler
	Product      *handler.ProductHandler
	Integration  *handler.IntegrationHandler
	System       *handler.SystemHandler
}

// Limiters are the rate limiters shared by the middleware. Their windows are
// fixed at construction: Global uses the configured window, Auth the login
// window and APIKey one minute.
type Limiters struct {
	Global *middleware.RateLimiter
	Auth   *middleware.RateLimiter
	APIKey *middleware.RateLimiter
}

// NewLimiters creates the limiters for cfg
func NewLimiters(cfg config.HTTPConfig) Limiters {
	return Limiters{
		Global: middleware.NewRateLimiter(cfg.RateLimitWindow),
		Auth:   middleware.NewRateLimiter(cfg.AuthRateLimitWindow),
		APIKey: middleware.NewRateLimiter(time.Minute),
	}
}

// Close stops every limiter's cleanup goroutine
func (l Limiters) Close() {
	for _, rl := range []*middleware.RateLimiter{l.Global, l.Auth, l.APIKey} {
		if rl != nil {
			rl.Close()
		}
	}
}

// Deps is what the engine needs besides the handlers
type Deps struct {
	Config   *config.Config
	Logger   *zap.Logger
	Tokens   middleware.TokenValidator
	Contexts middleware.ContextResolver
	APIKeys  middleware.APIKeyAuthenticator
	Limiters Limiters
	// Meter records HTTP metrics; nil skips them
	Meter metric.Meter
}

// NewEngine builds the gin engine with the middleware stack and every route
func NewEngine(d Deps, h Handlers) *gin.Engine {
	cfg := d.Config
	log := d.Logger

	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Tracing(cfg.Telemetry.ServiceName, cfg.Telemetry.Enabled))
	if d.Meter != nil {
		engine.Use(middleware.HTTPMetrics(d.Meter))
	}

	security := middleware.DefaultSecurityConfig()
	security.HSTSEnabled = cfg.App.IsProduction()
	engine.Use(middleware.SecureWithConfig(security))

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(cors))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	if cfg.HTTP.RateLimitEnabled {
		engine.Use(middleware.RateLimit(d.Limiters.Global, cfg.HTTP.RateLimitRequests))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow))
	}

	engine.GET("/health", h.System.Health)
	engine.GET("/swagger/*any",
		middleware.SwaggerGuard(cfg.Swagger.Enabled, cfg.Swagger.AllowedIPs),
		ginSwagger.WrapHandler(swaggerFiles.Handler))

	r := NewRouter(engine)
	for _, g := range Groups(d, h) {
		r.Register(g)
	}
	r.Setup()
	log.Debug("Routes registered", zap.Strings("routes", r.Routes()))
	return engine
}

// Groups returns the API's domain groups with their middleware attached
func Groups(d Deps, h Handlers) []*DomainGroup {
	cfg := d.Config
	cookie := cfg.Cookie.Name

	bearer := []gin.HandlerFunc{
		middleware.JWTAuth(d.Tokens, cookie, d.Logger),
		middleware.ResolveContext(d.Contexts),
		middleware.SpanEnricher(),
		middleware.Profiling(cfg.Telemetry.ProfilerAddress != ""),
	}
	apiKey := []gin.HandlerFunc{
		middleware.APIKeyAuth(d.APIKeys, d.Limiters.APIKey),
		middleware.SpanEnricher(),
	}

	auth := NewDomainGroup("auth", "/auth")
	auth.POST("/login",
		middleware.RateLimit(d.Limiters.Auth, cfg.HTTP.AuthRateLimitRequests),
		h.Auth.Login)
	auth.POST("/logout", middleware.OptionalJWTAuth(d.Tokens, cookie), h.Auth.Logout)
	auth.GET("/context", slices.Concat(bearer, []gin.HandlerFunc{h.Auth.Context})...)

	user := NewDomainGroup("user", "/user").Use(bearer...)
	user.PUT("/set-active-organization", h.Auth.SwitchOrganization)

	orgs := NewDomainGroup("organizations", "/organizations").Use(bearer...)
	orgs.GET("", h.Organization.List)
	orgs.POST("", h.Organization.Create)
	orgs.GET("/:id", h.Organization.Get)
	orgs.PUT("/:id", h.Organization.Update)
	orgs.DELETE("/:id", h.Organization.Delete)

	keys := NewDomainGroup("api-keys", "/api-keys").
		Use(bearer...).
		Use(middleware.RequireRole(string(identity.RoleOwner), string(identity.RoleAdmin)))
	keys.POST("", h.APIKey.Issue)
	keys.DELETE("/:id", h.APIKey.Revoke)

	leads := NewDomainGroup("leads", "/leads")
	admin := leads.Group("leads-admin", "/admin").Use(apiKey...)
	admin.POST("/create", middleware.RequireScope(identity.ScopeLeadsWrite), h.Lead.AdminCreate)
	admin.DELETE("/bulk-delete", middleware.RequireScope(identity.ScopeLeadsDelete), h.Lead.AdminBulkDelete)
	pipeline := leads.Group("leads-pipeline", "").Use(bearer...)
	pipeline.POST("/get", h.Lead.Board)
	pipeline.GET("", h.Lead.List)
	pipeline.POST("", h.Lead.Create)
	pipeline.POST("/bulk-delete", h.Lead.BulkDelete)
	pipeline.POST("/bulk-update", h.Lead.BulkUpdate)
	pipeline.POST("/bulk-assign-campaign", h.Lead.BulkAssignCampaign)
	pipeline.POST("/convert", h.Lead.Convert)
	pipeline.POST("/import", h.Lead.Import)
	pipeline.GET("/:id", h.Lead.Get)
	pipeline.PUT("/:id", h.Lead.Update)
	pipeline.DELETE("/:id", h.Lead.Delete)

	clients := NewDomainGroup("clients", "/clients").Use(bearer...)
	clients.GET("", h.Client.List)
	clients.POST("", h.Client.Create)
	clients.GET("/:id", h.Client.Get)
	clients.PUT("/:id", h.Client.Update)
	clients.DELETE("/:id", h.Client.Delete)
	clients.POST("/:id/payments", h.Client.RecordPayment)
	clients.GET("/:id/profile", h.Client.GetProfile)
	clients.PUT("/:id/profile", h.Client.SaveProfile)
	clients.GET("/:id/communications", h.Client.ListCommunications)
	clients.POST("/:id/communications", h.Client.AddCommunication)
	clients.POST("/:id/attachments/upload-url", h.Client.AttachmentUploadURL)
	clients.GET("/:id/attachments/download-url", h.Client.AttachmentDownloadURL)

	campaigns := NewDomainGroup("campaigns", "/campaigns").Use(bearer...)
	campaigns.GET("", h.Campaign.List)
	campaigns.POST("", h.Campaign.Create)
	campaigns.GET("/:id", h.Campaign.Get)
	campaigns.PUT("/:id", h.Campaign.Update)
	campaigns.DELETE("/:id", h.Campaign.Delete)
	campaigns.PUT("/:id/products", h.Campaign.SetProducts)
	campaigns.POST("/:id/activate", h.Campaign.Activate)
	campaigns.POST("/:id/pause", h.Campaign.Pause)
	campaigns.POST("/:id/complete", h.Campaign.Complete)

	products := NewDomainGroup("products", "/products").Use(bearer...)
	products.GET("", h.Product.List)
	products.POST("", h.Product.Create)

	calls := NewDomainGroup("calls", "/calls").Use(bearer...)
	calls.POST("/personalize", h.Integration.Personalize)

	analysis := NewDomainGroup("analysis", "/analysis").Use(bearer...)
	analysis.POST("/conversation", h.Integration.AnalyzeConversation)
	analysis.POST("/metrics", h.Integration.Metrics)
	analysis.POST("/next-steps", h.Integration.NextSteps)

	whatsapp := NewDomainGroup("whatsapp", "/whatsapp").Use(bearer...)
	whatsapp.POST("/send", h.Integration.SendWhatsApp)

	agents := NewDomainGroup("agents", "/agents/elevenlabs").Use(bearer...)
	agents.GET("", h.Integration.ListAgents)
	agents.GET("/:agentId", h.Integration.GetAgent)
	agents.PUT("/:agentId", h.Integration.SaveAgent)
	agents.POST("/:agentId/calls", h.Integration.StartCall)

	return []*DomainGroup{
		auth, user, orgs, keys, leads, clients, campaigns, products,
		calls, analysis, whatsapp, agents,
	}
}
