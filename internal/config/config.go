package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/playbook-ai/playbook-ai/internal/constants"
	"github.com/playbook-ai/playbook-ai/internal/messages"
	"github.com/playbook-ai/playbook-ai/internal/serviceerrors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// PortEnvVar is read once at startup to select the listening port
	PortEnvVar = "PORT"
	// EnvPrefix prefixes every other environment override, e.g. PLAYBOOK_MODEL_PROVIDER
	EnvPrefix = "PLAYBOOK"
)

type Config struct {
	Service   *ServiceConfig   `mapstructure:"service"`
	Database  *DatabaseConfig  `mapstructure:"database"`
	Model     *ModelConfig     `mapstructure:"model"`
	Artifacts *ArtifactsConfig `mapstructure:"artifacts"`
	OTEL      *OTELConfig      `mapstructure:"otel"`
}

// ServiceConfig is populated once at startup and passed by value to the listener
type ServiceConfig struct {
	Version           string        `mapstructure:"-"`
	Build             string        `mapstructure:"-"`
	BuildDate         string        `mapstructure:"-"`
	Port              int           `mapstructure:"-"`
	Host              string        `mapstructure:"host"`
	LocalMode         bool          `mapstructure:"local_mode"`
	EnableMCP         bool          `mapstructure:"enable_mcp"`
	CORSOrigin        string        `mapstructure:"cors_origin"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

// Address returns the host:port the listener binds to
func (s ServiceConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ModelConfig selects the runtime used by the agent steps
type ModelConfig struct {
	Provider   string        `mapstructure:"provider"`
	Name       string        `mapstructure:"name"`
	APIKey     string        `mapstructure:"api_key"`
	BaseURL    string        `mapstructure:"base_url"`
	MaxTokens  int           `mapstructure:"max_tokens"`
	MaxRetries int           `mapstructure:"max_retries"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// ArtifactsConfig configures the optional S3 archive of run outputs
type ArtifactsConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	ForcePathStyle  bool   `mapstructure:"force_path_style"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

// OTELConfig configures tracing and log export
type OTELConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	ExporterType     string `mapstructure:"exporter_type"`
	ExporterEndpoint string `mapstructure:"exporter_endpoint"`
	ExporterInsecure bool   `mapstructure:"exporter_insecure"`
	EnableLogs       bool   `mapstructure:"enable_logs"`
	DetectECS        bool   `mapstructure:"detect_ecs"`
}

// ParsePort converts the raw PORT value into a port number. An empty value
// selects the default; anything that is not an integer in 1..65535 is an error.
func ParsePort(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return constants.DEFAULT_PORT, nil
	}
	port, err := strconv.Atoi(raw)
	if err != nil {
		return 0, serviceerrors.NewServiceError(messages.ConfigurationFailed, "Error", fmt.Sprintf("%s must be an integer, got %q", PortEnvVar, raw))
	}
	if port < 1 || port > 65535 {
		return 0, serviceerrors.NewServiceError(messages.ConfigurationFailed, "Error", fmt.Sprintf("%s must be between 1 and 65535, got %d", PortEnvVar, port))
	}
	return port, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.host", "")
	v.SetDefault("service.local_mode", false)
	v.SetDefault("service.enable_mcp", true)
	v.SetDefault("service.cors_origin", "*")
	v.SetDefault("service.read_header_timeout", "10s")
	v.SetDefault("service.shutdown_timeout", "15s")

	v.SetDefault("database.sql.sqlite.enabled", true)
	v.SetDefault("database.sql.sqlite.driver", "sqlite")
	v.SetDefault("database.sql.sqlite.url", ":memory:")

	v.SetDefault("model.provider", "local")
	v.SetDefault("model.name", "claude-sonnet-4-20250514")
	v.SetDefault("model.max_tokens", 4096)
	v.SetDefault("model.max_retries", 2)
	v.SetDefault("model.timeout", "120s")

	v.SetDefault("artifacts.enabled", false)
	v.SetDefault("artifacts.prefix", "playbooks")
	v.SetDefault("artifacts.region", "us-east-1")

	v.SetDefault("otel.enabled", false)
	v.SetDefault("otel.exporter_type", "stdout")
}

// LoadConfig builds the service configuration from defaults, the optional config
// file, environment variables and command line flags, in increasing precedence.
// The PORT environment variable always wins for the listening port.
func LoadConfig(logger *slog.Logger, version string, build string, buildDate string, args []string) (*Config, error) {
	flags := pflag.NewFlagSet("playbook-ai", pflag.ContinueOnError)
	configFile := flags.String("config", "", "path to the configuration file (default config/config.yaml when present)")
	localMode := flags.Bool("local", false, "run agent steps with the offline local runtime")
	if err := flags.Parse(args); err != nil {
		return nil, serviceerrors.NewServiceError(messages.ConfigurationFailed, "Error", err.Error())
	}

	v := viper.New()
	setDefaults(v)

	if *configFile != "" {
		v.SetConfigFile(*configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("config")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if *configFile != "" || !errors.As(err, &notFound) {
			return nil, serviceerrors.NewServiceError(messages.ConfigurationFailed, "Error", err.Error())
		}
		logger.Info("No configuration file found, using defaults")
	} else {
		logger.Info("Loaded configuration file", "file", v.ConfigFileUsed())
		v.OnConfigChange(func(e fsnotify.Event) {
			logger.Warn("Configuration file changed, restart the service to apply it", "file", e.Name, "op", e.Op.String())
		})
		v.WatchConfig()
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("model.api_key", EnvPrefix+"_MODEL_API_KEY", "ANTHROPIC_API_KEY"); err != nil {
		return nil, serviceerrors.NewServiceError(messages.ConfigurationFailed, "Error", err.Error())
	}

	if flags.Changed("local") {
		v.Set("service.local_mode", *localMode)
	}

	config := &Config{}
	decodeHook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
	if err := v.Unmarshal(config, viper.DecodeHook(decodeHook)); err != nil {
		return nil, serviceerrors.NewServiceError(messages.ConfigurationFailed, "Error", err.Error())
	}
	if config.Service == nil {
		config.Service = &ServiceConfig{}
	}

	// PORT is read exactly once, here, and never again
	rawPort, ok := os.LookupEnv(PortEnvVar)
	if (!ok || strings.TrimSpace(rawPort) == "") && v.IsSet("service.port") {
		rawPort = v.GetString("service.port")
	}
	port, err := ParsePort(rawPort)
	if err != nil {
		return nil, err
	}
	config.Service.Port = port
	config.Service.Version = version
	config.Service.Build = build
	config.Service.BuildDate = buildDate

	return config, nil
}
