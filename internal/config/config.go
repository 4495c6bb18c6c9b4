package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/wb-go/wbf/zlog"
)

// Config holds the main configuration for the application.
type Config struct {
	Server     Server     `mapstructure:"server"`
	Contentful Contentful `mapstructure:"contentful"`
	Processing Retry      `mapstructure:"processing"` // wait policy for asset processing
	Storage    Storage    `mapstructure:"storage"`
	Redis      Redis      `mapstructure:"redis"`
	Kafka      Kafka      `mapstructure:"kafka"`
	Retry      Retry      `mapstructure:"retry"`
}

// Server holds HTTP server-related configuration.
type Server struct {
	HTTPPort string `mapstructure:"http_port"` // HTTP port to listen on
}

// Contentful holds the content store coordinates and credentials.
type Contentful struct {
	SpaceID         string `mapstructure:"space_id"`
	Environment     string `mapstructure:"environment"`
	ConfigEntryID   string `mapstructure:"config_entry_id"`  // entry linking the overlay image
	DeliveryToken   string `mapstructure:"delivery_token"`   // read-only CDA token
	ManagementToken string `mapstructure:"management_token"` // CMA token
	Locale          string `mapstructure:"locale"`           // locale of the created asset fields
	DeliveryURL     string `mapstructure:"delivery_url"`
	ManagementURL   string `mapstructure:"management_url"`
	UploadURL       string `mapstructure:"upload_url"`
}

// Storage holds configuration for the optional S3-compatible staging bucket.
// When Endpoint is empty, files are sent through the Contentful Upload API.
type Storage struct {
	Endpoint     string        `mapstructure:"endpoint"`
	AccessKey    string        `mapstructure:"access_key"`
	SecretKey    string        `mapstructure:"secret_key"`
	BucketName   string        `mapstructure:"bucket_name"`
	UseSSL       bool          `mapstructure:"use_ssl"`
	PresignedTTL time.Duration `mapstructure:"presigned_ttl"`
}

// Redis holds configuration for the optional delivery lock.
type Redis struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

// Kafka holds configuration for the optional Kafka transport.
type Kafka struct {
	GroupID      string   `mapstructure:"group_id"`      // Consumer group ID
	Topic        string   `mapstructure:"topic"`         // notification topic; empty disables the consumer
	ResultsTopic string   `mapstructure:"results_topic"` // outcome topic; empty disables outcome events
	Brokers      []string `mapstructure:"brokers"`       // List of Kafka broker addresses
}

// Retry defines retry policy configuration.
type Retry struct {
	Attempts int           `mapstructure:"attempts"` // Number of retry attempts
	Delay    time.Duration `mapstructure:"delay"`    // Initial delay between retries
	Backoff  float64       `mapstructure:"backoff"`  // Backoff multiplier for delays
}

// envBindings maps config keys to the environment variables that carry them.
var envBindings = map[string]string{
	"contentful.space_id":         "SPACE_ID",
	"contentful.config_entry_id":  "WATERMARK_CONFIG_ID",
	"contentful.delivery_token":   "CDA_ACCESS_TOKEN",
	"contentful.management_token": "CMA_ACCESS_TOKEN",
	"contentful.environment":      "CONTENTFUL_ENVIRONMENT",
	"server.http_port":            "HTTP_PORT",
	"storage.endpoint":            "MINIO_ENDPOINT",
	"storage.access_key":          "MINIO_ACCESS_KEY",
	"storage.secret_key":          "MINIO_SECRET_KEY",
	"storage.bucket_name":         "MINIO_BUCKET",
	"redis.addr":                  "REDIS_ADDR",
	"redis.password":              "REDIS_PASSWORD",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_port", ":8080")
	v.SetDefault("contentful.environment", "master")
	v.SetDefault("contentful.locale", "en-US")
	v.SetDefault("contentful.delivery_url", "https://cdn.contentful.com")
	v.SetDefault("contentful.management_url", "https://api.contentful.com")
	v.SetDefault("contentful.upload_url", "https://upload.contentful.com")
	v.SetDefault("processing.attempts", 10)
	v.SetDefault("processing.delay", 500*time.Millisecond)
	v.SetDefault("processing.backoff", 1.5)
	v.SetDefault("storage.presigned_ttl", time.Hour)
	v.SetDefault("redis.lock_ttl", 5*time.Minute)
	v.SetDefault("kafka.group_id", "contentful-watermark")
	v.SetDefault("retry.attempts", 3)
	v.SetDefault("retry.delay", time.Second)
	v.SetDefault("retry.backoff", 2.0)
}

// Load reads the YAML file at path, if it exists, and overlays environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate reports missing settings the service cannot start without.
func (c *Config) Validate() error {
	required := []struct {
		value string
		env   string
	}{
		{c.Contentful.SpaceID, "SPACE_ID"},
		{c.Contentful.ConfigEntryID, "WATERMARK_CONFIG_ID"},
		{c.Contentful.DeliveryToken, "CDA_ACCESS_TOKEN"},
		{c.Contentful.ManagementToken, "CMA_ACCESS_TOKEN"},
	}

	var missing []string
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if c.Storage.Endpoint != "" && c.Storage.BucketName == "" {
		return fmt.Errorf("storage.bucket_name is required when storage.endpoint is set")
	}
	if c.Kafka.Topic != "" && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when kafka.topic is set")
	}

	return nil
}

// MustLoad loads the configuration from the specified file path, after
// loading a .env file from the working directory if there is one.
// It panics if the configuration cannot be loaded or is incomplete.
func MustLoad(path string) *Config {
	if err := godotenv.Load(); err != nil {
		zlog.Logger.Info().Msg("no .env file found, using process environment")
	}

	cfg, err := Load(path)
	if err != nil {
		zlog.Logger.Panic().Err(err).Msg("failed to load config")
	}

	return cfg
}
