package config

import (
	"fmt"
	"net/netip"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	AuthWatch AuthWatchConfig `yaml:"authwatch"`
}

// AuthWatchConfig is the project configuration.
type AuthWatchConfig struct {
	Input   InputConfig   `yaml:"input"`
	Parser  ParserConfig  `yaml:"parser"`
	Detect  DetectConfig  `yaml:"detect"`
	Rules   RulesConfig   `yaml:"rules"`
	Output  OutputConfig  `yaml:"output"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// InputConfig controls where raw log lines come from.
type InputConfig struct {
	Mode  string      `yaml:"mode"` // file|redis
	File  FileInput   `yaml:"file"`
	Redis RedisConfig `yaml:"redis"`
}

// FileInput reads batch log files.
type FileInput struct {
	Path  string   `yaml:"path"`
	Paths []string `yaml:"paths"`
}

// RedisConfig drains raw lines from a Redis list.
type RedisConfig struct {
	Addr       string        `yaml:"addr"`
	Password   string        `yaml:"password"`
	DB         int           `yaml:"db"`
	Key        string        `yaml:"key"`
	PopTimeout time.Duration `yaml:"pop_timeout"`
}

// ParserConfig controls line parsing.
type ParserConfig struct {
	// Year injected into syslog timestamps; zero means current year.
	Year int `yaml:"year"`
}

// DetectConfig holds detector tuning.
type DetectConfig struct {
	Window                  time.Duration     `yaml:"window"`
	BruteForceThresholds    ThresholdsConfig  `yaml:"brute_force_thresholds"`
	VulnerableUsernames     []string          `yaml:"vulnerable_usernames"`
	TargetingThreshold      int               `yaml:"targeting_threshold"`
	BreachCriticalThreshold int               `yaml:"breach_critical_threshold"`
	InternalPrefixes        []string          `yaml:"internal_prefixes"`
	ExpectedRegions         []string          `yaml:"expected_regions"`
	PrefixRegions           map[string]string `yaml:"prefix_regions"`
}

// ThresholdsConfig holds brute force severity bands.
type ThresholdsConfig struct {
	Medium   int `yaml:"medium"`
	High     int `yaml:"high"`
	Critical int `yaml:"critical"`
}

// RulesConfig controls optional Sigma rule tagging.
type RulesConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// OutputConfig controls result sinks.
type OutputConfig struct {
	Events  EventOutputConfig `yaml:"events"`
	Alerts  AlertOutputConfig `yaml:"alerts"`
	Summary FileOutputConfig  `yaml:"summary"`
}

// EventOutputConfig controls processed event sinks.
type EventOutputConfig struct {
	JSONLPath string `yaml:"jsonl_path"`
	CSVPath   string `yaml:"csv_path"`
}

// AlertOutputConfig controls the aggregated alert report sinks.
type AlertOutputConfig struct {
	Mode    string           `yaml:"mode"` // file|http
	File    FileOutputConfig `yaml:"file"`
	CSVPath string           `yaml:"csv_path"`
	HTTP    HTTPOutputConfig `yaml:"http"`
}

// FileOutputConfig config for local output.
type FileOutputConfig struct {
	Path string `yaml:"path"`
}

// HTTPOutputConfig config for remote output.
type HTTPOutputConfig struct {
	URL     string            `yaml:"url"`
	Timeout time.Duration     `yaml:"timeout"`
	Headers map[string]string `yaml:"headers"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// LoggingConfig controls logging output.
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
	File    string `yaml:"file"`
	Console bool   `yaml:"console"`
}

// ValidationError marks configuration rejected before any parsing
// begins.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + e.Reason
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Prefixes parses the configured internal CIDR prefixes.
func (c *DetectConfig) Prefixes() ([]netip.Prefix, error) {
	raw := c.InternalPrefixes
	if len(raw) == 0 {
		raw = []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}
	}
	out := make([]netip.Prefix, 0, len(raw))
	for _, s := range raw {
		p, err := netip.ParsePrefix(s)
		if err != nil {
			return nil, &ValidationError{Reason: fmt.Sprintf("bad internal prefix %q: %v", s, err)}
		}
		out = append(out, p)
	}
	return out, nil
}
