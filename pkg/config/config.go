package config

import (
	"fmt"
	"os"
	"time"

	"github.com/perflens/bottleneck-analyzer/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Config is the process-wide configuration, loaded once at startup.
// The threshold section is treated as immutable for the duration of an
// analysis pass; detectors receive it by reference and never mutate it.
type Config struct {
	HttpPort int    `json:"httpPort" yaml:"httpPort"`
	LogLevel string `json:"logLevel" yaml:"logLevel"`

	Database      DatabaseConfig      `json:"database" yaml:"database"`
	MetricsSource MetricsSourceConfig `json:"metricsSource" yaml:"metricsSource"`
	Analysis      AnalysisConfig      `json:"analysis" yaml:"analysis"`
	Thresholds    ThresholdConfig     `json:"thresholds" yaml:"thresholds"`
	Alerts        AlertsConfig        `json:"alerts" yaml:"alerts"`
	Jobs          JobsConfig          `json:"jobs" yaml:"jobs"`
}

type DatabaseConfig struct {
	Host        string `json:"host" yaml:"host"`
	Port        int    `json:"port" yaml:"port"`
	UserName    string `json:"user_name" yaml:"user_name"`
	Password    string `json:"password" yaml:"password"`
	DBName      string `json:"db_name" yaml:"db_name"`
	SSLMode     string `json:"ssl_mode" yaml:"ssl_mode"`
	LogMode     bool   `json:"log_mode" yaml:"log_mode"`
	MaxIdleConn int    `json:"max_idle_conn" yaml:"max_idle_conn"`
	MaxOpenConn int    `json:"max_open_conn" yaml:"max_open_conn"`
}

func (d DatabaseConfig) Validate() error {
	if d.Host == "" || d.Port == 0 || d.DBName == "" {
		return errors.NewError().WithCode(errors.CodeLackOfConfig).WithMessage("database host, port and db_name are required")
	}
	return nil
}

type MetricsSourceConfig struct {
	Endpoint            string `json:"endpoint" yaml:"endpoint"`
	QueryTimeoutSeconds int    `json:"query_timeout_seconds" yaml:"query_timeout_seconds"`
}

// GetQueryTimeout bounds every metrics-source call
func (m MetricsSourceConfig) GetQueryTimeout() time.Duration {
	if m.QueryTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(m.QueryTimeoutSeconds) * time.Second
}

type AnalysisConfig struct {
	Detectors              []string           `json:"detectors" yaml:"detectors"`
	MinSamples             int                `json:"min_samples" yaml:"min_samples"`
	BaselineWindowMinutes  int                `json:"baseline_window_minutes" yaml:"baseline_window_minutes"`
	BaselineStepSeconds    int                `json:"baseline_step_seconds" yaml:"baseline_step_seconds"`
	AnomalyStrategy        string             `json:"anomaly_strategy" yaml:"anomaly_strategy"`
	AnomalyThreshold       float64            `json:"anomaly_threshold" yaml:"anomaly_threshold"`
	HealthPenalties        map[string]float64 `json:"health_penalties" yaml:"health_penalties"`
	ComponentWeights       map[string]float64 `json:"component_weights" yaml:"component_weights"`
	DisableReportHistory   bool               `json:"disable_report_history" yaml:"disable_report_history"`
	TrendMinSamples        int                `json:"trend_min_samples" yaml:"trend_min_samples"`
	TrendMinRSquared       float64            `json:"trend_min_r_squared" yaml:"trend_min_r_squared"`
}

// GetAnomalyStrategy selects between the z-score and MAD strategies;
// z-score is the default for roughly normal distributions
func (a AnalysisConfig) GetAnomalyStrategy() string {
	if a.AnomalyStrategy == "" {
		return "zscore"
	}
	return a.AnomalyStrategy
}

func (a AnalysisConfig) GetMinSamples() int {
	if a.MinSamples <= 0 {
		return 5
	}
	return a.MinSamples
}

func (a AnalysisConfig) GetBaselineWindow() time.Duration {
	if a.BaselineWindowMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(a.BaselineWindowMinutes) * time.Minute
}

func (a AnalysisConfig) GetBaselineStep() int {
	if a.BaselineStepSeconds <= 0 {
		return 30
	}
	return a.BaselineStepSeconds
}

func (a AnalysisConfig) GetAnomalyThreshold() float64 {
	if a.AnomalyThreshold <= 0 {
		return 2.5
	}
	return a.AnomalyThreshold
}

func (a AnalysisConfig) GetTrendMinSamples() int {
	if a.TrendMinSamples <= 0 {
		return 5
	}
	return a.TrendMinSamples
}

func (a AnalysisConfig) GetTrendMinRSquared() float64 {
	if a.TrendMinRSquared <= 0 {
		return 0.6
	}
	return a.TrendMinRSquared
}

// GetHealthPenalty returns the base penalty for one result of the given severity
func (a AnalysisConfig) GetHealthPenalty(severity string) float64 {
	if p, ok := a.HealthPenalties[severity]; ok && p > 0 {
		return p
	}
	switch severity {
	case "critical":
		return 25
	default:
		return 10
	}
}

// GetComponentWeight scales penalties by component criticality
func (a AnalysisConfig) GetComponentWeight(component string) float64 {
	if w, ok := a.ComponentWeights[component]; ok && w > 0 {
		return w
	}
	return 1.0
}

// ThresholdPair holds the warning/critical boundaries for one metric
type ThresholdPair struct {
	Warning  float64 `json:"warning" yaml:"warning"`
	Critical float64 `json:"critical" yaml:"critical"`
}

// ThresholdConfig groups per-component threshold pairs and duration windows
type ThresholdConfig struct {
	Database DatabaseThresholds `json:"database" yaml:"database"`
	Memory   MemoryThresholds   `json:"memory" yaml:"memory"`
	CPU      CPUThresholds      `json:"cpu" yaml:"cpu"`
	Network  NetworkThresholds  `json:"network" yaml:"network"`
}

type DatabaseThresholds struct {
	QueryLatencyP95Ms ThresholdPair `json:"query_latency_p95_ms" yaml:"query_latency_p95_ms"`
	PoolUtilization   ThresholdPair `json:"pool_utilization" yaml:"pool_utilization"`
	LockWaitMs        ThresholdPair `json:"lock_wait_ms" yaml:"lock_wait_ms"`
}

func (d DatabaseThresholds) GetPoolUtilization() ThresholdPair {
	if d.PoolUtilization.Warning <= 0 {
		return ThresholdPair{Warning: 0.7, Critical: 0.9}
	}
	return d.PoolUtilization
}

type MemoryThresholds struct {
	UsedPercent       ThresholdPair `json:"used_percent" yaml:"used_percent"`
	CacheHitRateFloor float64       `json:"cache_hit_rate_floor" yaml:"cache_hit_rate_floor"`
	LeakSlopePerMin   float64       `json:"leak_slope_per_minute" yaml:"leak_slope_per_minute"`
}

func (m MemoryThresholds) GetUsedPercent() ThresholdPair {
	if m.UsedPercent.Critical <= 0 {
		return ThresholdPair{Warning: 85, Critical: 95}
	}
	return m.UsedPercent
}

// GetLeakSlopePerMin is the heap growth rate, in bytes per minute, above
// which a confident upward trend is reported as a leak
func (m MemoryThresholds) GetLeakSlopePerMin() float64 {
	if m.LeakSlopePerMin <= 0 {
		return 1 << 20
	}
	return m.LeakSlopePerMin
}

func (m MemoryThresholds) GetCacheHitRateFloor() float64 {
	if m.CacheHitRateFloor <= 0 {
		return 0.8
	}
	return m.CacheHitRateFloor
}

type CPUThresholds struct {
	UsedPercent    ThresholdPair `json:"used_percent" yaml:"used_percent"`
	SustainedPolls int           `json:"sustained_polls" yaml:"sustained_polls"`
}

func (c CPUThresholds) GetUsedPercent() ThresholdPair {
	if c.UsedPercent.Warning <= 0 {
		return ThresholdPair{Warning: 80, Critical: 90}
	}
	return c.UsedPercent
}

func (c CPUThresholds) GetSustainedPolls() int {
	if c.SustainedPolls <= 0 {
		return 5
	}
	return c.SustainedPolls
}

// NetworkThresholds holds per-dependency latency boundaries in milliseconds
type NetworkThresholds struct {
	Dependencies map[string]ThresholdPair `json:"dependencies" yaml:"dependencies"`
}

type AlertsConfig struct {
	CooldownMinutes  int             `json:"cooldown_minutes" yaml:"cooldown_minutes"`
	RetryCount       int             `json:"retry_count" yaml:"retry_count"`
	RetryWaitSeconds int             `json:"retry_wait_seconds" yaml:"retry_wait_seconds"`
	Channels         []ChannelConfig `json:"channels" yaml:"channels"`
}

func (a AlertsConfig) GetCooldown() time.Duration {
	if a.CooldownMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(a.CooldownMinutes) * time.Minute
}

func (a AlertsConfig) GetRetryCount() int {
	if a.RetryCount <= 0 {
		return 3
	}
	return a.RetryCount
}

func (a AlertsConfig) GetRetryWait() time.Duration {
	if a.RetryWaitSeconds <= 0 {
		return time.Second
	}
	return time.Duration(a.RetryWaitSeconds) * time.Second
}

// ChannelConfig describes one alert delivery channel
type ChannelConfig struct {
	Name   string            `json:"name" yaml:"name"`
	Type   string            `json:"type" yaml:"type"`
	Config map[string]string `json:"config" yaml:"config"`
}

type JobsConfig struct {
	AnalysisCron        string `json:"analysis_cron" yaml:"analysis_cron"`
	BaselineRefreshCron string `json:"baseline_refresh_cron" yaml:"baseline_refresh_cron"`
}

var config *Config

// LoadConfig reads the yaml config from CONFIG_PATH (default config.yaml)
func LoadConfig() (*Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	configFile, err := os.Open(configPath)
	if err != nil {
		return nil, errors.NewError().
			WithCode(errors.CodeInitializeError).
			WithMessage("failed to open config file").
			WithError(err)
	}
	defer configFile.Close()
	decoder := yaml.NewDecoder(configFile)
	err = decoder.Decode(&config)
	if err != nil {
		return nil, errors.NewError().
			WithCode(errors.CodeInitializeError).
			WithMessage("failed to parse config file").
			WithError(err)
	}
	return config, nil
}

// GetConfig returns the loaded configuration
func GetConfig() *Config {
	return config
}

// SetConfig overrides the loaded configuration, for tests
func SetConfig(cfg *Config) {
	config = cfg
}

func (c *Config) GetHttpAddr() string {
	port := c.HttpPort
	if port == 0 {
		port = 8080
	}
	return fmt.Sprintf(":%d", port)
}
