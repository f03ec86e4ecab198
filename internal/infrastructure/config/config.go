package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/ordersync/internal/domain/integration"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Log       LogConfig
	HTTP      HTTPConfig
	NetSuite  NetSuiteConfig
	Sync      SyncConfig
	Telemetry TelemetryConfig
	Profiling ProfilingConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name    string
	Env     string
	Port    string
	Version string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxHeaderBytes  int
	MaxBodySize     int64
	MaxBatchSize    int // Max orders per batch request
	TrustedProxies  []string
}

// NetSuiteConfig holds ERP account credentials and client tuning
type NetSuiteConfig struct {
	AccountID       string
	ConsumerKey     string
	ConsumerSecret  string
	TokenID         string
	TokenSecret     string
	SignatureMethod string // HMAC-SHA256 or HMAC-SHA1
	BaseURL         string // Overrides the URL derived from the account id
	TimeoutSeconds  int
	QueryPageSize   int
	QueryMaxPages   int
	// Circuit breaker; a zero threshold disables it
	BreakerFailureThreshold uint32
	BreakerOpenTimeout      time.Duration
}

// SyncConfig holds the account-specific sync choices
type SyncConfig struct {
	EmailQuestionID       int
	PONumberQuestionID    int
	DropshipPaymentMethod string
	ExternalIDPrefix      string
	SubsidiaryID          string
	DepartmentID          string
	LocationID            string
	ItemTypes             []string // Search preference order
	AutoCreateItems       bool
	DefaultItemID         string
	TaxAsLineItem         bool
	TaxItemID             string
	ShippingAsLineItem    bool
	ShippingItemID        string
	ReconciliationMode    string // log or strict
	InterOrderDelay       time.Duration
	LeadStatusID          string
	CampaignCategoryID    string
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	MetricsInterval   time.Duration
	ExportLogs        bool // Ship logs over OTLP in addition to the local output
}

// ProfilingConfig holds Pyroscope continuous profiling configuration
type ProfilingConfig struct {
	Enabled           bool
	ServerAddress     string
	ApplicationName   string
	BasicAuthUser     string
	BasicAuthPassword string
	ProfileTypes      []string
	SpanProfiles      bool // Link CPU profiles to trace spans
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with ORDERSYNC_ prefix (e.g., ORDERSYNC_NETSUITE_TOKEN_SECRET)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("ORDERSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name:    v.GetString("app.name"),
			Env:     v.GetString("app.env"),
			Port:    v.GetString("app.port"),
			Version: v.GetString("app.version"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:     v.GetDuration("http.read_timeout"),
			WriteTimeout:    v.GetDuration("http.write_timeout"),
			IdleTimeout:     v.GetDuration("http.idle_timeout"),
			ShutdownTimeout: v.GetDuration("http.shutdown_timeout"),
			MaxHeaderBytes:  v.GetInt("http.max_header_bytes"),
			MaxBodySize:     v.GetInt64("http.max_body_size"),
			MaxBatchSize:    v.GetInt("http.max_batch_size"),
			TrustedProxies:  v.GetStringSlice("http.trusted_proxies"),
		},
		NetSuite: NetSuiteConfig{
			AccountID:               v.GetString("netsuite.account_id"),
			ConsumerKey:             v.GetString("netsuite.consumer_key"),
			ConsumerSecret:          v.GetString("netsuite.consumer_secret"),
			TokenID:                 v.GetString("netsuite.token_id"),
			TokenSecret:             v.GetString("netsuite.token_secret"),
			SignatureMethod:         v.GetString("netsuite.signature_method"),
			BaseURL:                 v.GetString("netsuite.base_url"),
			TimeoutSeconds:          v.GetInt("netsuite.timeout_seconds"),
			QueryPageSize:           v.GetInt("netsuite.query_page_size"),
			QueryMaxPages:           v.GetInt("netsuite.query_max_pages"),
			BreakerFailureThreshold: v.GetUint32("netsuite.breaker_failure_threshold"),
			BreakerOpenTimeout:      v.GetDuration("netsuite.breaker_open_timeout"),
		},
		Sync: SyncConfig{
			EmailQuestionID:       v.GetInt("sync.email_question_id"),
			PONumberQuestionID:    v.GetInt("sync.po_number_question_id"),
			DropshipPaymentMethod: v.GetString("sync.dropship_payment_method"),
			ExternalIDPrefix:      v.GetString("sync.external_id_prefix"),
			SubsidiaryID:          v.GetString("sync.subsidiary_id"),
			DepartmentID:          v.GetString("sync.department_id"),
			LocationID:            v.GetString("sync.location_id"),
			ItemTypes:             v.GetStringSlice("sync.item_types"),
			AutoCreateItems:       v.GetBool("sync.auto_create_items"),
			DefaultItemID:         v.GetString("sync.default_item_id"),
			TaxAsLineItem:         v.GetBool("sync.tax_as_line_item"),
			TaxItemID:             v.GetString("sync.tax_item_id"),
			ShippingAsLineItem:    v.GetBool("sync.shipping_as_line_item"),
			ShippingItemID:        v.GetString("sync.shipping_item_id"),
			ReconciliationMode:    v.GetString("sync.reconciliation_mode"),
			InterOrderDelay:       v.GetDuration("sync.inter_order_delay"),
			LeadStatusID:          v.GetString("sync.lead_status_id"),
			CampaignCategoryID:    v.GetString("sync.campaign_category_id"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			ExportLogs:        v.GetBool("telemetry.export_logs"),
		},
		Profiling: ProfilingConfig{
			Enabled:           v.GetBool("profiling.enabled"),
			ServerAddress:     v.GetString("profiling.server_address"),
			ApplicationName:   v.GetString("profiling.application_name"),
			BasicAuthUser:     v.GetString("profiling.basic_auth_user"),
			BasicAuthPassword: v.GetString("profiling.basic_auth_password"),
			ProfileTypes:      v.GetStringSlice("profiling.profile_types"),
			SpanProfiles:      v.GetBool("profiling.span_profiles"),
		},
	}

	// An explicit 0s disables pacing, so only an unset delay gets the default
	if !v.IsSet("sync.inter_order_delay") {
		cfg.Sync.InterOrderDelay = -1
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "ordersync"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.App.Version == "" {
		cfg.App.Version = "dev"
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
	// Batches are sequential with a pause between orders
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 5 * time.Minute
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 30 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20 // 10MB
	}
	if cfg.HTTP.MaxBatchSize == 0 {
		cfg.HTTP.MaxBatchSize = 100
	}
	if cfg.NetSuite.SignatureMethod == "" {
		cfg.NetSuite.SignatureMethod = "HMAC-SHA256"
	}
	if cfg.NetSuite.TimeoutSeconds == 0 {
		cfg.NetSuite.TimeoutSeconds = 30
	}
	if cfg.NetSuite.QueryPageSize == 0 {
		cfg.NetSuite.QueryPageSize = 1000
	}
	if cfg.NetSuite.QueryMaxPages == 0 {
		cfg.NetSuite.QueryMaxPages = 50
	}
	if cfg.NetSuite.BreakerOpenTimeout == 0 {
		cfg.NetSuite.BreakerOpenTimeout = 30 * time.Second
	}
	if cfg.Sync.EmailQuestionID == 0 {
		cfg.Sync.EmailQuestionID = 1
	}
	if cfg.Sync.PONumberQuestionID == 0 {
		cfg.Sync.PONumberQuestionID = 2
	}
	if cfg.Sync.DropshipPaymentMethod == "" {
		cfg.Sync.DropshipPaymentMethod = integration.DefaultDropshipPaymentMethod
	}
	if cfg.Sync.ExternalIDPrefix == "" {
		cfg.Sync.ExternalIDPrefix = "WEB"
	}
	if cfg.Sync.SubsidiaryID == "" {
		cfg.Sync.SubsidiaryID = "1"
	}
	if len(cfg.Sync.ItemTypes) == 0 {
		for _, t := range integration.DefaultItemTypes {
			cfg.Sync.ItemTypes = append(cfg.Sync.ItemTypes, string(t))
		}
	}
	if cfg.Sync.ReconciliationMode == "" {
		cfg.Sync.ReconciliationMode = "log"
	}
	if cfg.Sync.InterOrderDelay == -1 {
		cfg.Sync.InterOrderDelay = 500 * time.Millisecond
	}
	if cfg.Sync.LeadStatusID == "" {
		cfg.Sync.LeadStatusID = "6"
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317" // Default gRPC endpoint
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 60 * time.Second
	}
	if cfg.Profiling.ApplicationName == "" {
		cfg.Profiling.ApplicationName = cfg.App.Name
	}
	// Note: Insecure defaults to false for safety (TLS enabled by default)
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	switch c.NetSuite.SignatureMethod {
	case "HMAC-SHA256", "HMAC-SHA1":
	default:
		return fmt.Errorf("netsuite.signature_method must be HMAC-SHA256 or HMAC-SHA1, got %q", c.NetSuite.SignatureMethod)
	}
	if c.NetSuite.TimeoutSeconds < 0 {
		return fmt.Errorf("netsuite.timeout_seconds cannot be negative")
	}
	if c.NetSuite.QueryPageSize < 1 || c.NetSuite.QueryPageSize > 1000 {
		return fmt.Errorf("netsuite.query_page_size must be between 1 and 1000, got %d", c.NetSuite.QueryPageSize)
	}
	if c.NetSuite.QueryMaxPages < 1 {
		return fmt.Errorf("netsuite.query_max_pages must be positive")
	}

	if c.Sync.ReconciliationMode != "log" && c.Sync.ReconciliationMode != "strict" {
		return fmt.Errorf("sync.reconciliation_mode must be log or strict, got %q", c.Sync.ReconciliationMode)
	}
	if c.Sync.InterOrderDelay < 0 {
		return fmt.Errorf("sync.inter_order_delay cannot be negative")
	}
	for _, t := range c.Sync.ItemTypes {
		if !integration.ItemType(t).IsValid() {
			return fmt.Errorf("sync.item_types contains unknown item type %q", t)
		}
	}
	if c.Sync.TaxAsLineItem && c.Sync.TaxItemID == "" {
		return fmt.Errorf("sync.tax_item_id is required when sync.tax_as_line_item is enabled")
	}
	if c.Sync.ShippingAsLineItem && c.Sync.ShippingItemID == "" {
		return fmt.Errorf("sync.shipping_item_id is required when sync.shipping_as_line_item is enabled")
	}
	if c.HTTP.MaxBatchSize < 1 {
		return fmt.Errorf("http.max_batch_size must be positive")
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if missing := c.NetSuite.missingCredentials(); len(missing) > 0 {
			return fmt.Errorf("netsuite credentials are required in production: %s", strings.Join(missing, ", "))
		}
		if c.Log.Format != "json" {
			return fmt.Errorf("log.format must be json in production")
		}
	}

	// Validate telemetry configuration (all environments)
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	if c.Profiling.Enabled && c.Profiling.ServerAddress == "" {
		return fmt.Errorf("profiling.server_address is required when profiling is enabled")
	}

	return nil
}

func (n *NetSuiteConfig) missingCredentials() []string {
	var missing []string
	for _, f := range []struct{ key, value string }{
		{"netsuite.account_id", n.AccountID},
		{"netsuite.consumer_key", n.ConsumerKey},
		{"netsuite.consumer_secret", n.ConsumerSecret},
		{"netsuite.token_id", n.TokenID},
		{"netsuite.token_secret", n.TokenSecret},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.key)
		}
	}
	return missing
}

// HasCredentials returns true when every TBA credential is set
func (n *NetSuiteConfig) HasCredentials() bool {
	return len(n.missingCredentials()) == 0
}

// Addr returns the HTTP listen address
func (a *AppConfig) Addr() string {
	return ":" + a.Port
}
