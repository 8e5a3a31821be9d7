package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/angeloszaimis/fleet-monitor/internal/probe"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

const (
	AggregateLast = "last"
	AggregateAll  = "all"
)

const DefaultServiceCommand = probe.DefaultServiceCommand

type LoggingConfig struct {
	Level string `mapstructure:"level"`
	// File receives a copy of every log line. It is truncated at start.
	File string `mapstructure:"file"`
}

type InventoryConfig struct {
	File string `mapstructure:"file"`
}

type SweepConfig struct {
	Workers int `mapstructure:"workers"`
}

type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	Backoff     string        `mapstructure:"backoff"`
	Interval    time.Duration `mapstructure:"interval"`
}

type SSHConfig struct {
	User              string        `mapstructure:"user"`
	Port              int           `mapstructure:"port"`
	Timeout           time.Duration `mapstructure:"timeout"`
	KeyFiles          []string      `mapstructure:"key_files"`
	UseAgent          bool          `mapstructure:"use_agent"`
	AgentSocket       string        `mapstructure:"agent_socket"`
	KnownHostsFile    string        `mapstructure:"known_hosts_file"`
	TrustUnknownHosts bool          `mapstructure:"trust_unknown_hosts"`
	Retry             RetryConfig   `mapstructure:"retry"`
}

type ICMPConfig struct {
	Count   int    `mapstructure:"count"`
	Command string `mapstructure:"command"`
}

type PortsConfig struct {
	SSHPort   int           `mapstructure:"ssh_port"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Aggregate string        `mapstructure:"aggregate"`
}

type HTTPConfig struct {
	Attempts           int           `mapstructure:"attempts"`
	TimeoutBase        time.Duration `mapstructure:"timeout_base"`
	TimeoutInterval    time.Duration `mapstructure:"timeout_interval"`
	Aggregate          string        `mapstructure:"aggregate"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
}

type ServiceConfig struct {
	Command    string `mapstructure:"command"`
	RequirePID bool   `mapstructure:"require_pid"`
}

type ProbesConfig struct {
	ICMP    ICMPConfig    `mapstructure:"icmp"`
	Ports   PortsConfig   `mapstructure:"ports"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Service ServiceConfig `mapstructure:"service"`
}

type JSONReportConfig struct {
	File string `mapstructure:"file"`
}

type MetricsReportConfig struct {
	Textfile string `mapstructure:"textfile"`
}

type EmailReportConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	APIKey    string   `mapstructure:"api_key"`
	From      string   `mapstructure:"from"`
	FromName  string   `mapstructure:"from_name"`
	To        []string `mapstructure:"to"`
	AttachLog bool     `mapstructure:"attach_log"`
}

type ReportConfig struct {
	JSON    JSONReportConfig    `mapstructure:"json"`
	Metrics MetricsReportConfig `mapstructure:"metrics"`
	Email   EmailReportConfig   `mapstructure:"email"`
}

type Config struct {
	Environment string          `mapstructure:"environment"`
	Logging     LoggingConfig   `mapstructure:"logging"`
	Inventory   InventoryConfig `mapstructure:"inventory"`
	Sweep       SweepConfig     `mapstructure:"sweep"`
	SSH         SSHConfig       `mapstructure:"ssh"`
	Probes      ProbesConfig    `mapstructure:"probes"`
	Report      ReportConfig    `mapstructure:"report"`
}

// Overrides carries command-line values that take precedence over the file
// and the environment. Zero values are ignored.
type Overrides struct {
	InventoryFile string
	Workers       int
	LogLevel      string
}

// Load reads config.yaml from ./config or the working directory, or file when
// it is set, then applies environment variables and overrides.
func Load(file string, overrides Overrides) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env file", slog.String("error", err.Error()))
	}

	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	_ = v.BindEnv("ssh.agent_socket", "SSH_AUTH_SOCK")
	_ = v.BindEnv("report.email.api_key", "REPORT_EMAIL_API_KEY", "SENDGRID_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			slog.Error("failed to read config file", slog.String("error", err.Error()))
			return nil, fmt.Errorf("read config: %w", err)
		}
		slog.Warn("config file not found, using defaults and environment variables")
	} else {
		slog.Debug("loaded config file", slog.String("file", v.ConfigFileUsed()))
	}

	if overrides.InventoryFile != "" {
		v.Set("inventory.file", overrides.InventoryFile)
	}
	if overrides.Workers > 0 {
		v.Set("sweep.workers", overrides.Workers)
	}
	if overrides.LogLevel != "" {
		v.Set("logging.level", overrides.LogLevel)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		slog.Error("failed to unmarshal config", slog.String("error", err.Error()))
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.expandPaths()

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", EnvDev)
	v.SetDefault("logging.level", LogLevelInfo)
	v.SetDefault("logging.file", "")
	v.SetDefault("inventory.file", "servers.yaml")
	v.SetDefault("sweep.workers", 1)

	v.SetDefault("ssh.user", "")
	v.SetDefault("ssh.port", 22)
	v.SetDefault("ssh.timeout", "45s")
	v.SetDefault("ssh.key_files", []string{"~/.ssh/id_rsa", "~/.ssh/id_ecdsa", "~/.ssh/id_ed25519"})
	v.SetDefault("ssh.use_agent", true)
	v.SetDefault("ssh.known_hosts_file", "~/.ssh/known_hosts")
	v.SetDefault("ssh.trust_unknown_hosts", true)
	v.SetDefault("ssh.retry.max_attempts", 3)
	v.SetDefault("ssh.retry.backoff", "constant")
	v.SetDefault("ssh.retry.interval", "0s")

	v.SetDefault("probes.icmp.count", 7)
	v.SetDefault("probes.icmp.command", "ping")
	v.SetDefault("probes.ports.ssh_port", 22)
	v.SetDefault("probes.ports.timeout", "5s")
	v.SetDefault("probes.ports.aggregate", AggregateLast)
	v.SetDefault("probes.http.attempts", 3)
	v.SetDefault("probes.http.timeout_base", "30s")
	v.SetDefault("probes.http.timeout_interval", "5s")
	v.SetDefault("probes.http.aggregate", AggregateLast)
	v.SetDefault("probes.http.insecure_skip_verify", false)
	v.SetDefault("probes.service.command", DefaultServiceCommand)
	v.SetDefault("probes.service.require_pid", false)

	v.SetDefault("report.json.file", "")
	v.SetDefault("report.metrics.textfile", "")
	v.SetDefault("report.email.enabled", false)
	v.SetDefault("report.email.from", "")
	v.SetDefault("report.email.from_name", "Fleet Monitor")
	v.SetDefault("report.email.to", []string{})
	v.SetDefault("report.email.attach_log", true)
}

func (c *Config) expandPaths() {
	c.Logging.File = expandHome(c.Logging.File)
	c.Inventory.File = expandHome(c.Inventory.File)
	c.SSH.KnownHostsFile = expandHome(c.SSH.KnownHostsFile)
	for i, f := range c.SSH.KeyFiles {
		c.SSH.KeyFiles[i] = expandHome(f)
	}
	c.Report.JSON.File = expandHome(c.Report.JSON.File)
	c.Report.Metrics.Textfile = expandHome(c.Report.Metrics.Textfile)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Environment,
			validation.Required,
			validation.In(EnvDev, EnvStaging, EnvProd),
		),
		validation.Field(&c.Logging),
		validation.Field(&c.Inventory),
		validation.Field(&c.Sweep),
		validation.Field(&c.SSH),
		validation.Field(&c.Probes),
		validation.Field(&c.Report),
	)
}

func (c LoggingConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Level,
			validation.Required,
			validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
		),
	)
}

func (c InventoryConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.File, validation.Required),
	)
}

func (c SweepConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Workers, validation.Required, validation.Min(1)),
	)
}

func (c SSHConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.User,
			validation.Required.Error("ssh.user must be set; the monitor never falls back to the login user"),
		),
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.KeyFiles,
			validation.When(!c.UseAgent, validation.Required.Error("at least one key file is required when the agent is disabled")),
		),
		validation.Field(&c.Retry),
	)
}

func (c RetryConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.MaxAttempts, validation.Required, validation.Min(1)),
		validation.Field(&c.Backoff,
			validation.Required,
			validation.In("constant", "linear", "exponential"),
		),
		validation.Field(&c.Interval, validation.Min(time.Duration(0))),
	)
}

func (c ProbesConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ICMP),
		validation.Field(&c.Ports),
		validation.Field(&c.HTTP),
		validation.Field(&c.Service),
	)
}

func (c ICMPConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Count, validation.Required, validation.Min(1)),
		validation.Field(&c.Command, validation.Required),
	)
}

func (c PortsConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.SSHPort, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.Aggregate, validation.Required, validation.In(AggregateLast, AggregateAll)),
	)
}

func (c HTTPConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Attempts, validation.Required, validation.Min(1)),
		validation.Field(&c.TimeoutBase, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.TimeoutInterval, validation.Min(time.Duration(0))),
		validation.Field(&c.Aggregate, validation.Required, validation.In(AggregateLast, AggregateAll)),
	)
}

func (c ServiceConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Command, validation.Required),
	)
}

func (c ReportConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Email),
	)
}

func (c EmailReportConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	return validation.ValidateStruct(&c,
		validation.Field(&c.APIKey, validation.Required),
		validation.Field(&c.From, validation.Required, is.EmailFormat),
		validation.Field(&c.To,
			validation.Required,
			validation.Each(is.EmailFormat),
		),
	)
}
