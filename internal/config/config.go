package config

import (
	"TraceSpectra/internal/engine/reducer"
	"TraceSpectra/internal/model"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// AnalyzerConfig holds the engine parameters and the traces to compare.
type AnalyzerConfig struct {
	Protocol      string            `yaml:"protocol"`
	SimDuration   string            `yaml:"sim_duration"`
	StartFraction float64           `yaml:"start_fraction"`
	NumWorkers    int               `yaml:"num_workers"`
	Traces        []model.TraceSpec `yaml:"traces"`
}

// Params converts the analyzer section into reducer parameters.
func (a AnalyzerConfig) Params() (reducer.Params, error) {
	d, err := time.ParseDuration(a.SimDuration)
	if err != nil {
		return reducer.Params{}, fmt.Errorf("invalid sim_duration for analyzer: %w", err)
	}
	return reducer.Params{
		Protocol:      a.Protocol,
		SimDuration:   d.Seconds(),
		StartFraction: a.StartFraction,
	}, nil
}

// ClickHouseConfig holds the connection settings of a ClickHouse server.
type ClickHouseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// CSVConfig configures the csv writer.
type CSVConfig struct {
	Path string `yaml:"path"`
}

// TextConfig configures the text report writer. An empty path means stdout.
type TextConfig struct {
	Path string `yaml:"path"`
}

// GobConfig configures the snapshot writer.
type GobConfig struct {
	RootPath string `yaml:"root_path"`
}

// WriterDef defines a single result writer.
type WriterDef struct {
	Type       string           `yaml:"type"`
	Enabled    bool             `yaml:"enabled"`
	CSV        CSVConfig        `yaml:"csv"`
	Text       TextConfig       `yaml:"text"`
	Gob        GobConfig        `yaml:"gob"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
}

// PublisherConfig holds the NATS settings used to stream results.
type PublisherConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// APIConfig holds the query server settings.
type APIConfig struct {
	HttpListenAddr string `yaml:"http_listen_addr"`
	GrpcListenAddr string `yaml:"grpc_listen_addr"`
	// Source selects the result store: "memory" analyzes the configured
	// traces at startup, "clickhouse" reads the trace_metrics table.
	Source     string           `yaml:"source"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
}

// AlerterRule defines a threshold on one metric of one trace.
type AlerterRule struct {
	Name      string  `yaml:"name"`
	Trace     string  `yaml:"trace"` // trace key, "*" for all
	Metric    string  `yaml:"metric"`
	Operator  string  `yaml:"operator"`
	Threshold float64 `yaml:"threshold"`
}

// SMTPConfig holds the SMTP server settings for email notifications.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
}

// AlerterConfig holds the rules evaluated after every batch.
type AlerterConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Rules      []AlerterRule `yaml:"rules"`
	SMTP       SMTPConfig    `yaml:"smtp"`
	AIAnalysis bool          `yaml:"ai_analysis"`
}

// AIConfig holds the OpenAI-compatible endpoint used for narratives.
type AIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	Timeout string `yaml:"timeout"`
}

// Config is the top-level configuration struct for the entire application.
type Config struct {
	Analyzer  AnalyzerConfig  `yaml:"analyzer"`
	Writers   []WriterDef     `yaml:"writers"`
	Publisher PublisherConfig `yaml:"publisher"`
	API       APIConfig       `yaml:"api"`
	Alerter   AlerterConfig   `yaml:"alerter"`
	AI        AIConfig        `yaml:"ai"`
}

// Default returns a configuration for a 100 s tcp experiment with no traces
// and no outputs.
func Default() *Config {
	return &Config{
		Analyzer: AnalyzerConfig{
			Protocol:      "tcp",
			SimDuration:   "100s",
			StartFraction: reducer.DefaultStartFraction,
			NumWorkers:    4,
		},
		Publisher: PublisherConfig{Subject: "tracespectra.results"},
		API: APIConfig{
			HttpListenAddr: ":8080",
			GrpcListenAddr: ":50051",
			Source:         "memory",
		},
		AI: AIConfig{Model: "gpt-4o-mini", Timeout: "60s"},
	}
}

// LoadConfig reads the configuration from a YAML file and returns a Config struct.
// Omitted keys keep the values of Default.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML document.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	for i := range c.Analyzer.Traces {
		if c.Analyzer.Traces[i].Format == "" {
			c.Analyzer.Traces[i].Format = model.FormatNS2
		}
	}
	if c.Analyzer.NumWorkers <= 0 {
		c.Analyzer.NumWorkers = 1
	}
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Analyzer.Protocol == "" {
		return fmt.Errorf("%w: analyzer.protocol is empty", ErrInvalidConfig)
	}
	if _, err := c.Analyzer.Params(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if f := c.Analyzer.StartFraction; f < 0 || f >= 1 {
		return fmt.Errorf("%w: analyzer.start_fraction %v not in [0,1)", ErrInvalidConfig, f)
	}

	seen := make(map[string]bool)
	for _, tr := range c.Analyzer.Traces {
		if tr.Name == "" || tr.Path == "" {
			return fmt.Errorf("%w: every trace needs a name and a path", ErrInvalidConfig)
		}
		if tr.Format != model.FormatNS2 && tr.Format != model.FormatPcap {
			return fmt.Errorf("%w: trace %s has unknown format %q", ErrInvalidConfig, tr.Key(), tr.Format)
		}
		if seen[tr.Key()] {
			return fmt.Errorf("%w: duplicate trace %s", ErrInvalidConfig, tr.Key())
		}
		seen[tr.Key()] = true
	}

	for _, rule := range c.Alerter.Rules {
		switch rule.Metric {
		case "goodput", "plr", "fairness", "cov":
		default:
			return fmt.Errorf("%w: alert rule %q has unknown metric %q", ErrInvalidConfig, rule.Name, rule.Metric)
		}
		switch rule.Operator {
		case ">", "<", "=", ">=", "<=":
		default:
			return fmt.Errorf("%w: alert rule %q has unknown operator %q", ErrInvalidConfig, rule.Name, rule.Operator)
		}
	}

	if c.Publisher.Enabled && c.Publisher.URL == "" {
		return fmt.Errorf("%w: publisher.url is required when the publisher is enabled", ErrInvalidConfig)
	}
	if _, err := time.ParseDuration(c.AI.Timeout); err != nil {
		return fmt.Errorf("%w: invalid ai.timeout: %v", ErrInvalidConfig, err)
	}
	return nil
}

// EnabledWriter returns the first enabled writer of the given type.
func (c *Config) EnabledWriter(typ string) (*WriterDef, bool) {
	for i := range c.Writers {
		if c.Writers[i].Enabled && c.Writers[i].Type == typ {
			return &c.Writers[i], true
		}
	}
	return nil, false
}
