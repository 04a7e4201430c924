package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// InsecureDevJWTSecret is used when no JWT secret is configured outside production.
// Tokens signed with it must never be trusted in a real deployment.
const InsecureDevJWTSecret = "client-maria-insecure-development-secret-change-me"

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Cookie    CookieConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Cache     CacheConfig
	Bulk      BulkConfig
	Outbox    OutboxConfig
	Providers ProvidersConfig
	Firestore FirestoreConfig
	Storage   StorageConfig
	Telemetry TelemetryConfig
	Swagger   SwaggerConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// IsProduction reports whether the app runs in production
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // postgres, sqlite
	URL             string // full connection string, wins over the discrete fields
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds context token settings
type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
	// UsingInsecureDefault is set when Secret fell back to InsecureDevJWTSecret
	UsingInsecureDefault bool
}

// CookieConfig holds settings for the session cookie mirrored from the token
type CookieConfig struct {
	Name     string
	Domain   string
	Path     string
	Secure   bool
	SameSite string // strict, lax, none
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout           time.Duration
	WriteTimeout          time.Duration
	IdleTimeout           time.Duration
	MaxHeaderBytes        int
	MaxBodySize           int64
	RateLimitEnabled      bool
	RateLimitRequests     int
	RateLimitWindow       time.Duration
	AuthRateLimitRequests int
	AuthRateLimitWindow   time.Duration
	CORSAllowOrigins      []string
	CORSAllowMethods      []string
	CORSAllowHeaders      []string
	TrustedProxies        []string
}

// CacheConfig holds the user/tenant context cache settings
type CacheConfig struct {
	Backend  string // memory, redis, auto
	TTL      time.Duration
	Capacity int
}

// BulkConfig bounds batch operations
type BulkConfig struct {
	MaxConcurrency int
	MaxItems       int
}

// OutboxConfig controls delivery of recorded domain events
type OutboxConfig struct {
	Disabled        bool
	PollInterval    time.Duration
	BatchSize       int
	Retention       time.Duration // sent entries older than this are purged
	CleanupInterval time.Duration
}

// ProvidersConfig holds third-party AI and telephony credentials
type ProvidersConfig struct {
	Timeout                 time.Duration
	PersonalizationProvider string // openai, gemini
	AnalysisProvider        string // openai, gemini
	OpenAI                  OpenAIConfig
	Gemini                  GeminiConfig
	ElevenLabs              ElevenLabsConfig
	WhatsApp                WhatsAppConfig
}

// OpenAIConfig holds OpenAI settings
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// GeminiConfig holds Gemini settings
type GeminiConfig struct {
	APIKey string
	Model  string
}

// ElevenLabsConfig holds ElevenLabs settings
type ElevenLabsConfig struct {
	APIKey             string
	BaseURL            string
	AgentPhoneNumberID string
}

// WhatsAppConfig holds WhatsApp Cloud API settings
type WhatsAppConfig struct {
	Token         string
	PhoneNumberID string
	BaseURL       string
}

// FirestoreConfig holds document store settings
type FirestoreConfig struct {
	ProjectID       string
	CredentialsFile string
}

// Enabled reports whether Firestore is configured
func (f FirestoreConfig) Enabled() bool {
	return f.ProjectID != ""
}

// StorageConfig holds S3-compatible object storage settings for attachments
type StorageConfig struct {
	Endpoint          string
	Region            string
	Bucket            string
	AccessKey         string
	SecretKey         string
	UseSSL            bool
	UsePathStyle      bool
	PresignExpiration time.Duration
}

// Enabled reports whether object storage is configured
func (s StorageConfig) Enabled() bool {
	return s.Bucket != "" && s.AccessKey != "" && s.SecretKey != ""
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	MetricsInterval   time.Duration
	ExportLogs        bool
	ProfilerAddress   string // pyroscope server; empty disables profiling
}

// SwaggerConfig controls the /swagger UI
type SwaggerConfig struct {
	Enabled    bool
	AllowedIPs []string // IPs or CIDRs; empty allows any caller
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with CRM_ prefix (e.g., CRM_DATABASE_PASSWORD)
// 2. Well-known unprefixed variables (JWT_SECRET, DATABASE_URL, ALLOWED_ORIGINS, ...)
// 3. config.toml
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/client-maria")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("CRM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindWellKnownEnv(v); err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			URL:             v.GetString("database.url"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:     v.GetString("jwt.secret"),
			Expiration: v.GetDuration("jwt.expiration"),
			Issuer:     v.GetString("jwt.issuer"),
		},
		Cookie: CookieConfig{
			Name:     v.GetString("cookie.name"),
			Domain:   v.GetString("cookie.domain"),
			Path:     v.GetString("cookie.path"),
			Secure:   v.GetBool("cookie.secure"),
			SameSite: v.GetString("cookie.same_site"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:           v.GetDuration("http.read_timeout"),
			WriteTimeout:          v.GetDuration("http.write_timeout"),
			IdleTimeout:           v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:        v.GetInt("http.max_header_bytes"),
			MaxBodySize:           v.GetInt64("http.max_body_size"),
			RateLimitEnabled:      v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests:     v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:       v.GetDuration("http.rate_limit_window"),
			AuthRateLimitRequests: v.GetInt("http.auth_rate_limit_requests"),
			AuthRateLimitWindow:   v.GetDuration("http.auth_rate_limit_window"),
			CORSAllowOrigins:      splitList(v.Get("http.cors_allow_origins")),
			CORSAllowMethods:      splitList(v.Get("http.cors_allow_methods")),
			CORSAllowHeaders:      splitList(v.Get("http.cors_allow_headers")),
			TrustedProxies:        splitList(v.Get("http.trusted_proxies")),
		},
		Cache: CacheConfig{
			Backend:  v.GetString("cache.backend"),
			TTL:      v.GetDuration("cache.ttl"),
			Capacity: v.GetInt("cache.capacity"),
		},
		Bulk: BulkConfig{
			MaxConcurrency: v.GetInt("bulk.max_concurrency"),
			MaxItems:       v.GetInt("bulk.max_items"),
		},
		Outbox: OutboxConfig{
			Disabled:        v.GetBool("outbox.disabled"),
			PollInterval:    v.GetDuration("outbox.poll_interval"),
			BatchSize:       v.GetInt("outbox.batch_size"),
			Retention:       v.GetDuration("outbox.retention"),
			CleanupInterval: v.GetDuration("outbox.cleanup_interval"),
		},
		Providers: ProvidersConfig{
			Timeout:                 v.GetDuration("providers.timeout"),
			PersonalizationProvider: v.GetString("providers.personalization_provider"),
			AnalysisProvider:        v.GetString("providers.analysis_provider"),
			OpenAI: OpenAIConfig{
				APIKey:  v.GetString("providers.openai.api_key"),
				BaseURL: v.GetString("providers.openai.base_url"),
				Model:   v.GetString("providers.openai.model"),
			},
			Gemini: GeminiConfig{
				APIKey: v.GetString("providers.gemini.api_key"),
				Model:  v.GetString("providers.gemini.model"),
			},
			ElevenLabs: ElevenLabsConfig{
				APIKey:             v.GetString("providers.elevenlabs.api_key"),
				BaseURL:            v.GetString("providers.elevenlabs.base_url"),
				AgentPhoneNumberID: v.GetString("providers.elevenlabs.agent_phone_number_id"),
			},
			WhatsApp: WhatsAppConfig{
				Token:         v.GetString("providers.whatsapp.token"),
				PhoneNumberID: v.GetString("providers.whatsapp.phone_number_id"),
				BaseURL:       v.GetString("providers.whatsapp.base_url"),
			},
		},
		Firestore: FirestoreConfig{
			ProjectID:       v.GetString("firestore.project_id"),
			CredentialsFile: v.GetString("firestore.credentials_file"),
		},
		Storage: StorageConfig{
			Endpoint:          v.GetString("storage.endpoint"),
			Region:            v.GetString("storage.region"),
			Bucket:            v.GetString("storage.bucket"),
			AccessKey:         v.GetString("storage.access_key"),
			SecretKey:         v.GetString("storage.secret_key"),
			UseSSL:            v.GetBool("storage.use_ssl"),
			UsePathStyle:      v.GetBool("storage.use_path_style"),
			PresignExpiration: v.GetDuration("storage.presign_expiration"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			ExportLogs:        v.GetBool("telemetry.export_logs"),
			ProfilerAddress:   v.GetString("telemetry.profiler_address"),
		},
		Swagger: SwaggerConfig{
			AllowedIPs: splitList(v.Get("swagger.allowed_ips")),
		},
	}
	// on outside production unless set explicitly
	if v.IsSet("swagger.enabled") {
		cfg.Swagger.Enabled = v.GetBool("swagger.enabled")
	} else {
		cfg.Swagger.Enabled = cfg.App.Env != "production"
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// bindWellKnownEnv maps the unprefixed variables used by existing deployments.
// The CRM_ prefixed name is listed first so it keeps priority.
func bindWellKnownEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"jwt.secret":                         {"CRM_JWT_SECRET", "JWT_SECRET"},
		"database.url":                       {"CRM_DATABASE_URL", "DATABASE_URL"},
		"http.cors_allow_origins":            {"CRM_HTTP_CORS_ALLOW_ORIGINS", "ALLOWED_ORIGINS"},
		"providers.openai.api_key":           {"CRM_PROVIDERS_OPENAI_API_KEY", "OPENAI_API_KEY"},
		"providers.gemini.api_key":           {"CRM_PROVIDERS_GEMINI_API_KEY", "GEMINI_API_KEY"},
		"providers.elevenlabs.api_key":       {"CRM_PROVIDERS_ELEVENLABS_API_KEY", "ELEVENLABS_API_KEY"},
		"providers.whatsapp.token":           {"CRM_PROVIDERS_WHATSAPP_TOKEN", "WHATSAPP_TOKEN"},
		"providers.whatsapp.phone_number_id": {"CRM_PROVIDERS_WHATSAPP_PHONE_NUMBER_ID", "WHATSAPP_PHONE_NUMBER_ID"},
		"firestore.project_id":               {"CRM_FIRESTORE_PROJECT_ID", "FIREBASE_PROJECT_ID"},
		"firestore.credentials_file":         {"CRM_FIRESTORE_CREDENTIALS_FILE", "GOOGLE_APPLICATION_CREDENTIALS"},
		"storage.endpoint":                   {"CRM_STORAGE_ENDPOINT", "STORAGE_ENDPOINT"},
		"storage.bucket":                     {"CRM_STORAGE_BUCKET", "STORAGE_BUCKET"},
		"storage.access_key":                 {"CRM_STORAGE_ACCESS_KEY", "STORAGE_ACCESS_KEY"},
		"storage.secret_key":                 {"CRM_STORAGE_SECRET_KEY", "STORAGE_SECRET_KEY"},
		"app.env":                            {"CRM_APP_ENV", "APP_ENV"},
	}
	for key, envs := range bindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	return nil
}

// splitList accepts either a TOML array or a comma separated env string
func splitList(raw interface{}) []string {
	var parts []string
	switch val := raw.(type) {
	case nil:
		return nil
	case []string:
		parts = val
	case []interface{}:
		for _, p := range val {
			parts = append(parts, fmt.Sprint(p))
		}
	case string:
		parts = strings.Split(val, ",")
	default:
		parts = strings.Split(fmt.Sprint(val), ",")
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "client-maria"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "client_maria"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.JWT.Secret == "" && !cfg.App.IsProduction() {
		cfg.JWT.Secret = InsecureDevJWTSecret
		cfg.JWT.UsingInsecureDefault = true
	}
	if cfg.JWT.Expiration == 0 {
		cfg.JWT.Expiration = 24 * time.Hour
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "client-maria"
	}
	if cfg.Cookie.Name == "" {
		cfg.Cookie.Name = "auth_token"
	}
	if cfg.Cookie.Path == "" {
		cfg.Cookie.Path = "/"
	}
	if cfg.Cookie.SameSite == "" {
		cfg.Cookie.SameSite = "lax"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		// AI provider calls can take a while
		cfg.HTTP.WriteTimeout = 90 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20 // 10MB
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 300
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	if cfg.HTTP.AuthRateLimitRequests == 0 {
		cfg.HTTP.AuthRateLimitRequests = 10
	}
	if cfg.HTTP.AuthRateLimitWindow == 0 {
		cfg.HTTP.AuthRateLimitWindow = time.Minute
	}
	// No default for CORS origins: an empty list allows no cross-origin calls.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID", "X-API-Key"}
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "auto"
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 5 * time.Minute
	}
	if cfg.Cache.Capacity == 0 {
		cfg.Cache.Capacity = 10000
	}
	if cfg.Bulk.MaxConcurrency == 0 {
		cfg.Bulk.MaxConcurrency = 8
	}
	if cfg.Bulk.MaxItems == 0 {
		cfg.Bulk.MaxItems = 500
	}
	if cfg.Outbox.PollInterval <= 0 {
		cfg.Outbox.PollInterval = 2 * time.Second
	}
	if cfg.Outbox.BatchSize <= 0 {
		cfg.Outbox.BatchSize = 100
	}
	if cfg.Outbox.Retention <= 0 {
		cfg.Outbox.Retention = 7 * 24 * time.Hour
	}
	if cfg.Outbox.CleanupInterval <= 0 {
		cfg.Outbox.CleanupInterval = time.Hour
	}
	if cfg.Providers.Timeout == 0 {
		cfg.Providers.Timeout = 60 * time.Second
	}
	if cfg.Providers.PersonalizationProvider == "" {
		cfg.Providers.PersonalizationProvider = "openai"
	}
	if cfg.Providers.AnalysisProvider == "" {
		cfg.Providers.AnalysisProvider = "gemini"
	}
	if cfg.Providers.OpenAI.BaseURL == "" {
		cfg.Providers.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Providers.OpenAI.Model == "" {
		cfg.Providers.OpenAI.Model = "gpt-4o-mini"
	}
	if cfg.Providers.Gemini.Model == "" {
		cfg.Providers.Gemini.Model = "gemini-2.0-flash"
	}
	if cfg.Providers.ElevenLabs.BaseURL == "" {
		cfg.Providers.ElevenLabs.BaseURL = "https://api.elevenlabs.io"
	}
	if cfg.Providers.WhatsApp.BaseURL == "" {
		cfg.Providers.WhatsApp.BaseURL = "https://graph.facebook.com/v21.0"
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.PresignExpiration == 0 {
		cfg.Storage.PresignExpiration = 15 * time.Minute
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.MetricsInterval <= 0 {
		cfg.Telemetry.MetricsInterval = time.Minute
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "client-maria"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.Driver != "postgres" && c.Database.Driver != "sqlite" {
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	switch c.Cache.Backend {
	case "memory", "redis", "auto":
	default:
		return fmt.Errorf("cache.backend must be memory, redis or auto, got %q", c.Cache.Backend)
	}
	if c.Bulk.MaxConcurrency < 1 {
		return fmt.Errorf("bulk.max_concurrency must be positive")
	}
	for _, p := range []string{c.Providers.PersonalizationProvider, c.Providers.AnalysisProvider} {
		if p != "openai" && p != "gemini" {
			return fmt.Errorf("unknown language model provider %q (want openai or gemini)", p)
		}
	}

	if c.App.IsProduction() {
		if c.JWT.Secret == "" {
			return fmt.Errorf("jwt.secret (JWT_SECRET) is required in production")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.JWT.Secret == InsecureDevJWTSecret {
			return fmt.Errorf("jwt.secret must be overridden in production")
		}
		if c.Database.Driver == "sqlite" {
			return fmt.Errorf("database.driver cannot be sqlite in production")
		}
		if c.Database.URL == "" && c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if !c.Cookie.Secure {
			return fmt.Errorf("cookie.secure must be true in production (HTTPS required for secure cookies)")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}
	if c.Cookie.SameSite == "none" && !c.Cookie.Secure {
		return fmt.Errorf("cookie.same_site=none requires cookie.secure=true")
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// DSN returns the database connection string with properly escaped values.
// For sqlite the database name is used as the file path.
func (d *DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	if d.Driver == "sqlite" {
		return d.DBName
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
