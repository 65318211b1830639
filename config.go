package amas

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aixgo-dev/amas/agent"
	"github.com/aixgo-dev/amas/internal/logging"
	"github.com/aixgo-dev/amas/internal/observability"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultMetricsPort is the port of the metrics server when none is configured.
	DefaultMetricsPort = 9090

	// MaxConfigSize is the largest accepted configuration file.
	MaxConfigSize = 1 << 20

	// MaxConfigDepth is the deepest accepted YAML nesting.
	MaxConfigDepth = 10
)

// ErrInvalidConfig is returned by Validate
var ErrInvalidConfig = errors.New("invalid config")

// Config represents the top-level configuration
type Config struct {
	Agents        AgentsConfig        `yaml:"agents"`
	Log           logging.Config      `yaml:"log"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// AgentsConfig holds the defaults applied to every agent
type AgentsConfig struct {
	// ClockSpeed is the Sleep check interval, in (0, 10ms]
	ClockSpeed time.Duration `yaml:"clock_speed"`

	// RecvTimeout is the poll timeout used by Recv
	RecvTimeout time.Duration `yaml:"recv_timeout"`

	// OffloadLimit bounds concurrent offloaded calls per agent (0 = unlimited)
	OffloadLimit int `yaml:"offload_limit"`
}

// ObservabilityConfig configures tracing and the metrics endpoint
type ObservabilityConfig struct {
	Tracing observability.TracingConfig `yaml:"tracing"`
	Metrics MetricsConfig               `yaml:"metrics"`
}

// MetricsConfig configures the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// DefaultConfig returns the configuration used for keys a file leaves out.
func DefaultConfig() *Config {
	return &Config{
		Agents: AgentsConfig{
			ClockSpeed:  agent.DefaultClockSpeed,
			RecvTimeout: agent.DefaultRecvTimeout,
		},
		Log: logging.Config{
			Level:  "info",
			Format: "text",
		},
		Observability: ObservabilityConfig{
			Tracing: observability.TracingConfig{
				ServiceName: observability.DefaultServiceName,
				Exporter:    "none",
			},
			Metrics: MetricsConfig{
				Port: DefaultMetricsPort,
			},
		},
	}
}

// Document is a configuration file layout. Config is one; programs with
// sections of their own embed Config with `yaml:",inline"` and extend Validate.
type Document interface {
	AmasConfig() *Config
	Validate() error
}

// AmasConfig returns c.
func (c *Config) AmasConfig() *Config {
	return c
}

// Validate checks every section of the configuration.
func (c *Config) Validate() error {
	var errs []error

	if c.Agents.ClockSpeed <= 0 || c.Agents.ClockSpeed > agent.MaxClockSpeed {
		errs = append(errs, fmt.Errorf("agents.clock_speed %s must be in (0, %s]", c.Agents.ClockSpeed, agent.MaxClockSpeed))
	}
	if c.Agents.RecvTimeout < 0 {
		errs = append(errs, fmt.Errorf("agents.recv_timeout %s must not be negative", c.Agents.RecvTimeout))
	}
	if c.Agents.OffloadLimit < 0 {
		errs = append(errs, fmt.Errorf("agents.offload_limit %d must not be negative", c.Agents.OffloadLimit))
	}

	if _, ok := logging.LookupLevel(c.Log.Level); !ok {
		errs = append(errs, fmt.Errorf("log.level %q must be debug, info, warn or error", c.Log.Level))
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be text or json", c.Log.Format))
	}

	switch c.Observability.Tracing.Exporter {
	case "", "none", "stdout", "otlp":
	default:
		errs = append(errs, fmt.Errorf("observability.tracing.exporter %q must be none, stdout or otlp", c.Observability.Tracing.Exporter))
	}
	if m := c.Observability.Metrics; m.Enabled && (m.Port <= 0 || m.Port > 65535) {
		errs = append(errs, fmt.Errorf("observability.metrics.port %d out of range", m.Port))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// AgentOptions returns the agent options derived from the agents section.
func (c *Config) AgentOptions() []agent.Option {
	return []agent.Option{
		agent.WithClockSpeed(c.Agents.ClockSpeed),
		agent.WithRecvTimeout(c.Agents.RecvTimeout),
		agent.WithOffloadLimit(c.Agents.OffloadLimit),
	}
}

// FileReader interface for reading files (testable)
type FileReader interface {
	ReadFile(path string) ([]byte, error)
}

// OSFileReader implements FileReader using os.ReadFile
type OSFileReader struct{}

func (r *OSFileReader) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path) // #nosec G304 - path is from trusted CLI input
}

// ConfigLoader loads configuration from a file
type ConfigLoader struct {
	fileReader FileReader
	lookupEnv  func(string) (string, bool)
}

// NewConfigLoader creates a new config loader reading overrides from the process environment
func NewConfigLoader(fr FileReader) *ConfigLoader {
	return &ConfigLoader{
		fileReader: fr,
		lookupEnv:  os.LookupEnv,
	}
}

// LoadConfig reads configPath over DefaultConfig, applies AMAS_* environment
// overrides and validates the result. An empty path loads the defaults.
func (cl *ConfigLoader) LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()
	if err := cl.LoadInto(configPath, config); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadInto is LoadConfig for a caller-defined Document. Values already in doc
// act as defaults; keys missing from the file keep them.
func (cl *ConfigLoader) LoadInto(configPath string, doc Document) error {
	if configPath != "" {
		data, err := cl.fileReader.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		if err := parseYAML(data, doc); err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cl.applyEnv(doc.AmasConfig()); err != nil {
		return err
	}
	return doc.Validate()
}

// parseYAML decodes data into out, rejecting oversized or deeply nested
// documents and unknown keys.
func parseYAML(data []byte, out any) error {
	if len(data) > MaxConfigSize {
		return fmt.Errorf("config size %d exceeds maximum %d", len(data), MaxConfigSize)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return err
	}
	if depth := nodeDepth(&root); depth > MaxConfigDepth {
		return fmt.Errorf("config nesting depth %d exceeds maximum %d", depth, MaxConfigDepth)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func nodeDepth(n *yaml.Node) int {
	deepest := 0
	for _, c := range n.Content {
		if d := nodeDepth(c); d > deepest {
			deepest = d
		}
	}
	if n.Kind == yaml.MappingNode || n.Kind == yaml.SequenceNode {
		return deepest + 1
	}
	return deepest
}

func (cl *ConfigLoader) applyEnv(c *Config) error {
	if v, ok := cl.lookupEnv("AMAS_LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := cl.lookupEnv("AMAS_LOG_FORMAT"); ok {
		c.Log.Format = v
	}
	if v, ok := cl.lookupEnv("AMAS_TRACES_EXPORTER"); ok {
		c.Observability.Tracing.Exporter = v
		c.Observability.Tracing.Enabled = v != "" && v != "none"
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"AMAS_CLOCK_SPEED", &c.Agents.ClockSpeed},
		{"AMAS_RECV_TIMEOUT", &c.Agents.RecvTimeout},
	}
	for _, d := range durations {
		v, ok := cl.lookupEnv(d.key)
		if !ok {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", d.key, err)
		}
		*d.dst = parsed
	}

	return nil
}
