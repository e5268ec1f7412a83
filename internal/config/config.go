package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"profit-dashboard/internal/kpi"
)

const envPrefix = "DASHBOARD"

type Config struct {
	Server   ServerConfig   `envconfig:"SERVER"`
	Data     DataConfig     `envconfig:"DATA"`
	Logger   LoggerConfig   `envconfig:"LOGGER"`
	Security SecurityConfig `envconfig:"SECURITY"`
	Tracing  TracingConfig  `envconfig:"TRACING"`
	Policy   PolicyConfig   `envconfig:"POLICY"`
}

type ServerConfig struct {
	Host            string        `envconfig:"HOST" default:"localhost"`
	Port            int           `envconfig:"PORT" default:"8084" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"10s" validate:"gt=0"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"30s" validate:"gt=0"`
	IdleTimeout     time.Duration `envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s" validate:"gt=0"`
}

type DataConfig struct {
	File        string        `envconfig:"FILE" default:"data.csv" validate:"required"`
	Sheet       string        `envconfig:"SHEET"`
	LoadTimeout time.Duration `envconfig:"LOAD_TIMEOUT" default:"2m" validate:"gt=0"`
}

type LoggerConfig struct {
	Level  string `envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Format string `envconfig:"FORMAT" default:"json" validate:"oneof=json text"`
}

type SecurityConfig struct {
	EnableRateLimit bool     `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
	RateLimitRPS    int      `envconfig:"RATE_LIMIT_RPS" default:"100" validate:"gt=0"`
	RateLimitBurst  int      `envconfig:"RATE_LIMIT_BURST" default:"20" validate:"gt=0"`
	AllowedOrigins  []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8084"`
	TrustedProxies  []string `envconfig:"TRUSTED_PROXIES" default:"127.0.0.1"`
}

type TracingConfig struct {
	Enabled     bool    `envconfig:"ENABLED" default:"false"`
	Exporter    string  `envconfig:"EXPORTER" default:"stdout" validate:"oneof=stdout none"`
	ServiceName string  `envconfig:"SERVICE_NAME" default:"profit-dashboard" validate:"required"`
	SampleRate  float64 `envconfig:"SAMPLE_RATE" default:"1" validate:"gte=0,lte=1"`
}

// PolicyConfig is read from the environment and then, when File is set,
// overlaid with the keys present in that YAML document.
type PolicyConfig struct {
	File                      string  `envconfig:"FILE" yaml:"-"`
	MarginThreshold           float64 `envconfig:"MARGIN_THRESHOLD" default:"0.10" yaml:"margin_threshold" validate:"gte=0,lte=1"`
	VolatilityMedium          float64 `envconfig:"VOLATILITY_MEDIUM" default:"0.05" yaml:"volatility_medium" validate:"gte=0"`
	VolatilityHigh            float64 `envconfig:"VOLATILITY_HIGH" default:"0.15" yaml:"volatility_high" validate:"gtefield=VolatilityMedium"`
	VolatilityBucket          string  `envconfig:"VOLATILITY_BUCKET" default:"transaction" yaml:"volatility_bucket" validate:"oneof=transaction month"`
	ParetoTarget              float64 `envconfig:"PARETO_TARGET" default:"0.80" yaml:"pareto_target" validate:"gt=0,lte=1"`
	ConcentrationRiskFraction float64 `envconfig:"CONCENTRATION_RISK_FRACTION" default:"0.20" yaml:"concentration_risk_fraction" validate:"gte=0,lte=1"`
	TopSegmentFraction        float64 `envconfig:"TOP_SEGMENT_FRACTION" default:"0.20" yaml:"top_segment_fraction" validate:"gt=0,lte=1"`
}

func (p PolicyConfig) KPI() kpi.Policy {
	return kpi.Policy{
		MarginThreshold:           p.MarginThreshold,
		VolatilityMedium:          p.VolatilityMedium,
		VolatilityHigh:            p.VolatilityHigh,
		VolatilityBucket:          kpi.Bucket(p.VolatilityBucket),
		ParetoTarget:              p.ParetoTarget,
		ConcentrationRiskFraction: p.ConcentrationRiskFraction,
		TopSegmentFraction:        p.TopSegmentFraction,
	}
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if cfg.Policy.File != "" {
		if err := cfg.Policy.loadFile(); err != nil {
			return nil, fmt.Errorf("failed to load policy file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (p *PolicyConfig) loadFile() error {
	data, err := os.ReadFile(p.File)
	if err != nil {
		return err
	}
	return yaml.UnmarshalStrict(data, p)
}

func (c *Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	return c.Policy.KPI().Validate()
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
