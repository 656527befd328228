// Package config decodes the shared config/ directory into the settings of
// each binary.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"classyai/internal/site"
	"classyai/internal/transport"
	"classyai/pkg/config"
	"classyai/pkg/otel"
)

// Service names each binary reports under in logs, traces and connection names.
const (
	ServiceSite   = "classyai-site"
	ServiceRelay  = "classyai-relay"
	ServiceWorker = "classyai-worker"
)

type SessionConfig struct {
	IdleTTL      time.Duration `yaml:"idle_ttl"`
	ToastTTL     time.Duration `yaml:"toast_ttl"`
	SecureCookie bool          `yaml:"secure_cookie"`
}

type DraftConfig struct {
	// Backend is "redis" or "memory".
	Backend string `yaml:"backend"`
}

type SiteConfig struct {
	Server    config.ServerConfig `yaml:"server"`
	Redis     config.RedisConfig  `yaml:"redis"`
	Transport transport.Config    `yaml:"transport"`
	Page      site.PageConfig     `yaml:"page"`
	Session   SessionConfig       `yaml:"session"`
	Drafts    DraftConfig         `yaml:"drafts"`
	OTel      otel.Config         `yaml:"otel"`
}

type OutboxConfig struct {
	Interval   time.Duration `yaml:"interval"`
	BatchSize  int           `yaml:"batch_size"`
	MaxRetries int           `yaml:"max_retries"`
}

type RelayConfig struct {
	Server         config.ServerConfig `yaml:"relay_server"`
	DB             config.DBConfig     `yaml:"db"`
	MQ             config.MQConfig     `yaml:"mq"`
	AllowedOrigins []string            `yaml:"allowed_origins"`
	Outbox         OutboxConfig        `yaml:"outbox"`
	OTel           otel.Config         `yaml:"otel"`
}

type BreakerConfig struct {
	MaxFailures int           `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

type WorkerConfig struct {
	DB       config.DBConfig    `yaml:"db"`
	MQ       config.MQConfig    `yaml:"mq"`
	Redis    config.RedisConfig `yaml:"redis"`
	SMTP     config.SMTPConfig  `yaml:"smtp"`
	Delivery DeliveryConfig     `yaml:"delivery"`
	OTel     otel.Config        `yaml:"otel"`
}

type DeliveryConfig struct {
	Queue      string        `yaml:"queue"`
	Inbox      string        `yaml:"inbox"`
	DedupeTTL  time.Duration `yaml:"dedupe_ttl"`
	MaxRetries int           `yaml:"max_retries"`
	Breaker    BreakerConfig `yaml:"breaker"`
}

func load(out interface{}) error {
	env := config.GetConfigEnv()
	configDir := config.GetEnv("CONFIG_DIR", "config")
	return LoadFrom(env, configDir, out)
}

// LoadFrom decodes the merged configuration of env in dir into out.
func LoadFrom(env, dir string, out interface{}) error {
	cfgMap, err := config.LoadConfig(env, dir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	return config.Decode(cfgMap, out)
}

func LoadSite() (*SiteConfig, error) {
	var cfg SiteConfig
	if err := load(&cfg); err != nil {
		return nil, err
	}
	ApplySiteEnv(&cfg)
	return &cfg, nil
}

// ApplySiteEnv applies environment overrides, which win over files.
func ApplySiteEnv(cfg *SiteConfig) {
	config.OverrideServerFromEnv(&cfg.Server)
	config.OverrideRedisFromEnv(&cfg.Redis)
	overrideTransportFromEnv(&cfg.Transport)

	if cfg.Transport.ContactEmail == "" {
		cfg.Transport.ContactEmail = cfg.Page.ContactEmail
	}
	if cfg.Page.ContactEmail == "" {
		cfg.Page.ContactEmail = cfg.Transport.ContactEmail
	}
	if cfg.Transport.BaseURL == "" {
		cfg.Transport.BaseURL = transport.DefaultBaseURL
	}
	if cfg.Drafts.Backend == "" {
		cfg.Drafts.Backend = "redis"
	}
	overrideOTelFromEnv(&cfg.OTel, ServiceSite)
}

func overrideTransportFromEnv(cfg *transport.Config) {
	if base := os.Getenv("VITE_API_BASE_URL"); base != "" {
		cfg.BaseURL = base
	}
	if base := os.Getenv("CONTACT_API_BASE_URL"); base != "" {
		cfg.BaseURL = base
	}
	if strategy := os.Getenv("TRANSPORT_STRATEGY"); strategy != "" {
		cfg.Strategy = transport.Strategy(strategy)
	}
	if email := os.Getenv("CONTACT_EMAIL"); email != "" {
		cfg.ContactEmail = email
	}
}

func LoadRelay() (*RelayConfig, error) {
	var cfg RelayConfig
	if err := load(&cfg); err != nil {
		return nil, err
	}
	ApplyRelayEnv(&cfg)
	return &cfg, nil
}

func ApplyRelayEnv(cfg *RelayConfig) {
	config.OverrideDBFromEnv(&cfg.DB)
	config.OverrideMQFromEnv(&cfg.MQ)
	if port := os.Getenv("RELAY_PORT"); port != "" {
		cfg.Server.Port = port
	}
	if origins := os.Getenv("RELAY_ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = splitList(origins)
	}
	overrideOTelFromEnv(&cfg.OTel, ServiceRelay)
}

func LoadWorker() (*WorkerConfig, error) {
	var cfg WorkerConfig
	if err := load(&cfg); err != nil {
		return nil, err
	}
	ApplyWorkerEnv(&cfg)
	return &cfg, nil
}

func ApplyWorkerEnv(cfg *WorkerConfig) {
	config.OverrideDBFromEnv(&cfg.DB)
	config.OverrideMQFromEnv(&cfg.MQ)
	config.OverrideRedisFromEnv(&cfg.Redis)
	config.OverrideSMTPFromEnv(&cfg.SMTP)
	if inbox := os.Getenv("LEAD_INBOX"); inbox != "" {
		cfg.Delivery.Inbox = inbox
	}
	overrideOTelFromEnv(&cfg.OTel, ServiceWorker)
}

// overrideOTelFromEnv honours the standard OTEL_* variables. Each binary
// reports under its own service name.
func overrideOTelFromEnv(cfg *otel.Config, service string) {
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		cfg.Endpoint = endpoint
		cfg.Enabled = true
	}
	if name := os.Getenv("OTEL_SERVICE_NAME"); name != "" {
		cfg.ServiceName = name
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = service
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
