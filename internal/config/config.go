package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	App         AppConfig         `mapstructure:"app"`
	OpenWeather OpenWeatherConfig `mapstructure:"openweather"`
	Geolocation GeolocationConfig `mapstructure:"geolocation"`
	Lookup      LookupConfig      `mapstructure:"lookup"`
	Alerts      AlertsConfig      `mapstructure:"alerts"`
	History     HistoryConfig     `mapstructure:"history"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Minio       MinioConfig       `mapstructure:"minio"`
	Kafka       KafkaConfig       `mapstructure:"kafka"`
	API         APIConfig         `mapstructure:"api"`
	Scheduler   SchedulerConfig   `mapstructure:"scheduler"`
	HealthCheck HealthCheckConfig `mapstructure:"healthcheck"`
}

type AppConfig struct {
	Name     string `mapstructure:"name" validate:"required"`
	Env      string `mapstructure:"env" validate:"oneof=development production test"`
	LogLevel string `mapstructure:"log_level" validate:"oneof=trace debug info warn warning error"`
}

type OpenWeatherConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url" validate:"required,url"`
	Lang              string        `mapstructure:"lang"`
	Timeout           time.Duration `mapstructure:"timeout" validate:"gt=0"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" validate:"gte=0"`
	Burst             int           `mapstructure:"burst" validate:"gte=0"`
	BreakerFailures   uint32        `mapstructure:"breaker_failures"`
	BreakerTimeout    time.Duration `mapstructure:"breaker_timeout" validate:"gte=0"`
}

type GeolocationConfig struct {
	URL     string        `mapstructure:"url" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

type LookupConfig struct {
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

type AlertsConfig struct {
	HighTemperatureThreshold float64 `mapstructure:"high_temperature_threshold"`
}

type HistoryConfig struct {
	Backend string `mapstructure:"backend" validate:"oneof=file redis minio"`
	File    string `mapstructure:"file"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port" validate:"gte=0,lte=65535"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
	Key      string `mapstructure:"key"`
}

type MinioConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Object    string `mapstructure:"object"`
}

type KafkaConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Broker       string `mapstructure:"broker"`
	Topic        string `mapstructure:"topic"`
	RequiredAcks int16  `mapstructure:"required_acks"`
	MaxRetries   int    `mapstructure:"max_retries" validate:"gte=0"`
}

type APIConfig struct {
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	BasePath        string        `mapstructure:"base_path" validate:"startswith=/"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
	RateLimit       int           `mapstructure:"rate_limit" validate:"gt=0"`
	RateWindow      time.Duration `mapstructure:"rate_window" validate:"gt=0"`
}

type SchedulerConfig struct {
	RefreshInterval time.Duration `mapstructure:"refresh_interval" validate:"gte=0"`
	Timeout         time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

type HealthCheckConfig struct {
	Timeout       time.Duration `mapstructure:"timeout" validate:"gt=0"`
	RetryInterval time.Duration `mapstructure:"retry_interval" validate:"gte=0"`
	MaxRetries    int           `mapstructure:"max_retries" validate:"gte=1"`
}

// envBindings maps config keys to the environment variables that override them.
var envBindings = map[string]string{
	"openweather.api_key":  "WEATHER_API_KEY",
	"openweather.base_url": "OPENWEATHER_BASE_URL",
	"openweather.lang":     "OPENWEATHER_LANG",
	"history.backend":      "HISTORY_BACKEND",
	"history.file":         "HISTORY_FILE",
	"redis.host":           "REDIS_HOST",
	"redis.password":       "REDIS_PASSWORD",
	"minio.endpoint":       "MINIO_ENDPOINT",
	"minio.access_key":     "MINIO_ACCESS_KEY",
	"minio.secret_key":     "MINIO_SECRET_KEY",
	"minio.bucket":         "MINIO_BUCKET",
	"kafka.broker":         "KAFKA_BROKER",
	"kafka.topic":          "KAFKA_LOOKUP_TOPIC",
	"app.env":              "APP_ENV",
	"app.log_level":        "LOG_LEVEL",
}

// flagBindings maps config keys to the command-line flags registered by RegisterFlags.
var flagBindings = map[string]string{
	"app.log_level":   "log-level",
	"app.env":         "env",
	"history.backend": "history-backend",
	"history.file":    "history-file",
	"api.port":        "port",
	"lookup.timeout":  "timeout",
}

// RegisterFlags adds the flags understood by Load.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "path to a config file")
	flags.String("env-file", ".env", "path to a dotenv file")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("env", "development", "environment (development, production, test)")
	flags.String("history-backend", "file", "history backend (file, redis, minio)")
	flags.String("history-file", "search_history.json", "history file for the file backend")
	flags.Int("port", 8080, "API server port")
	flags.Duration("timeout", 10*time.Second, "per-lookup timeout")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "weather-lookup")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("openweather.api_key", "")
	v.SetDefault("openweather.base_url", "https://api.openweathermap.org/data/2.5")
	v.SetDefault("openweather.lang", "en")
	v.SetDefault("openweather.timeout", 10*time.Second)
	v.SetDefault("openweather.requests_per_second", 5)
	v.SetDefault("openweather.burst", 5)
	v.SetDefault("openweather.breaker_failures", 5)
	v.SetDefault("openweather.breaker_timeout", 30*time.Second)

	v.SetDefault("geolocation.url", "https://ipapi.co/json/")
	v.SetDefault("geolocation.timeout", 10*time.Second)

	v.SetDefault("lookup.timeout", 10*time.Second)
	v.SetDefault("alerts.high_temperature_threshold", 35.0)

	v.SetDefault("history.backend", "file")
	v.SetDefault("history.file", "search_history.json")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key", "weather-lookup:history")

	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.access_key", "")
	v.SetDefault("minio.secret_key", "")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.bucket", "weather-lookup")
	v.SetDefault("minio.object", "search_history.json")

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.broker", "localhost:9092")
	v.SetDefault("kafka.topic", "weather.lookups")
	v.SetDefault("kafka.required_acks", 1)
	v.SetDefault("kafka.max_retries", 3)

	v.SetDefault("api.port", 8080)
	v.SetDefault("api.base_path", "/api/v1")
	v.SetDefault("api.read_timeout", 30*time.Second)
	v.SetDefault("api.write_timeout", 30*time.Second)
	v.SetDefault("api.shutdown_timeout", 10*time.Second)
	v.SetDefault("api.rate_limit", 20)
	v.SetDefault("api.rate_window", time.Second)

	v.SetDefault("scheduler.refresh_interval", 0)
	v.SetDefault("scheduler.timeout", 15*time.Second)

	v.SetDefault("healthcheck.timeout", 5*time.Second)
	v.SetDefault("healthcheck.retry_interval", 2*time.Second)
	v.SetDefault("healthcheck.max_retries", 3)
}

// Load resolves the configuration from defaults, a YAML file, a dotenv file,
// the environment and flags, in increasing order of precedence. flags may be nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	envFile := ".env"
	configFile := ""
	if flags != nil {
		if f := flags.Lookup("env-file"); f != nil {
			envFile = f.Value.String()
		}
		if f := flags.Lookup("config"); f != nil {
			configFile = f.Value.String()
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.weather-lookup")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("WEATHER_LOOKUP")
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	if flags != nil {
		for key, name := range flagBindings {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("failed to bind flag --%s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	switch c.History.Backend {
	case "file":
		if c.History.File == "" {
			return errors.New("history.file must be set for the file backend")
		}
	case "redis":
		if c.Redis.Host == "" {
			return errors.New("redis.host must be set for the redis backend")
		}
	case "minio":
		if c.Minio.Endpoint == "" || c.Minio.Bucket == "" {
			return errors.New("minio.endpoint and minio.bucket must be set for the minio backend")
		}
	}

	if c.Kafka.Enabled && (c.Kafka.Broker == "" || c.Kafka.Topic == "") {
		return errors.New("kafka.broker and kafka.topic must be set when kafka is enabled")
	}

	return nil
}

// RequireAPIKey fails when no OpenWeatherMap key is configured. Only commands
// that talk to the provider need one.
func (c *Config) RequireAPIKey() error {
	if c.OpenWeather.APIKey == "" {
		return errors.New("OpenWeatherMap API key is not set: export WEATHER_API_KEY or set openweather.api_key")
	}
	return nil
}
