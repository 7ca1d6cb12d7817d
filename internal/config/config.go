package config

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	shverrors "github.com/jaspertzx/shardvault/internal/errors"
)

// BackendLocation is one configured storage location, parsed from a
// "s3://bucket", "gs://bucket", "s3:bucket", or bare-name string. Its
// position in the configured list is its LogicalLocation.
type BackendLocation struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"` // "s3" or "gcs"
}

// Config holds the application configuration. Priority order, highest
// first: CLI flags > environment variables > config.yaml > defaults.
type Config struct {
	LogLevel string `yaml:"log_level"`

	// AwsConfig: AWS SDK uses a shared configuration object that contains
	// credentials, region, retry policies, etc. Every S3-backed
	// BackendLocation is constructed from this single config.
	AwsConfig aws.Config
	// GcsClient: Google Cloud SDK uses a single client handling its own
	// configuration internally via environment variables, a service
	// account file, or the metadata service.
	GcsClient *storage.Client

	// BackendLocations, when non-empty, must contain exactly
	// DataShards+ParityShards entries; index i is the LogicalLocation for
	// shard i. LoadConfig also accepts an empty list, in which case no
	// backend is registered.
	BackendLocations []BackendLocation `yaml:"backend_locations"`

	DataShards     int           `yaml:"data_shards"`
	ParityShards   int           `yaml:"parity_shards"`
	WorkerPoolSize int           `yaml:"worker_pool_size"`
	PerCallTimeout time.Duration `yaml:"per_call_timeout"`

	// MetadataDSN is the database/sql data source name for the
	// relational metadata store (see internal/metadata).
	MetadataDSN string `yaml:"metadata_dsn"`

	// HTTPAddr is the address the Boundary's HTTP server listens on.
	HTTPAddr string `yaml:"http_addr"`
}

// TotalShards returns DataShards+ParityShards.
func (c *Config) TotalShards() int {
	return c.DataShards + c.ParityShards
}

// LoadConfig loads configuration from config.yaml, environment variables, or CLI flags.
func LoadConfig(configPath string, rootCmd *cobra.Command) (*Config, error) {
	if err := setupViper(configPath, rootCmd); err != nil {
		return nil, err
	}

	awsConfig, err := loadAWSConfig()
	if err != nil {
		return nil, err
	}

	gcsClient, err := loadGCSClient()
	if err != nil {
		return nil, err
	}

	locations, err := parseBackendLocations(viper.GetStringSlice("backend_locations"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		LogLevel:         viper.GetString("log_level"),
		AwsConfig:        awsConfig,
		GcsClient:        gcsClient,
		BackendLocations: locations,
		DataShards:       viper.GetInt("data_shards"),
		ParityShards:     viper.GetInt("parity_shards"),
		WorkerPoolSize:   viper.GetInt("worker_pool_size"),
		PerCallTimeout:   viper.GetDuration("per_call_timeout"),
		MetadataDSN:      viper.GetString("metadata_dsn"),
		HTTPAddr:         viper.GetString("http_addr"),
	}
	if cfg.MetadataDSN == "" {
		return nil, shverrors.ConfigNotSetError("metadata_dsn")
	}
	if cfg.HTTPAddr == "" {
		return nil, shverrors.ConfigNotSetError("http_addr")
	}
	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = cfg.TotalShards()
	}
	if len(cfg.BackendLocations) != 0 && len(cfg.BackendLocations) != cfg.TotalShards() {
		return nil, fmt.Errorf("backend_locations has %d entries, want %d (data_shards+parity_shards)",
			len(cfg.BackendLocations), cfg.TotalShards())
	}
	return cfg, nil
}

// setupViper configures Viper with defaults, paths, and bindings.
func setupViper(configPath string, rootCmd *cobra.Command) error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	if configPath != "" {
		viper.SetConfigFile(configPath)
	}

	setDefaults()
	viper.AutomaticEnv()

	if rootCmd != nil {
		if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
			return fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// setDefaults sets default configuration values.
func setDefaults() {
	viper.SetDefault("log_level", "info")
	viper.SetDefault("data_shards", 4)
	viper.SetDefault("parity_shards", 2)
	viper.SetDefault("worker_pool_size", 0) // 0 means "default to total shards"
	viper.SetDefault("per_call_timeout", 30*time.Second)
	viper.SetDefault("metadata_dsn", "shardvault:shardvault@tcp(127.0.0.1:3306)/shardvault")
	viper.SetDefault("http_addr", ":8080")
	viper.SetDefault("backend_locations", []string{})
}

// loadAWSConfig loads AWS SDK configuration.
func loadAWSConfig() (aws.Config, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		return aws.Config{}, fmt.Errorf("unable to load AWS SDK config: %v", err)
	}
	return cfg, nil
}

// loadGCSClient loads the Google Cloud Storage client. A failure here is
// tolerated (returns a nil client) since a deployment using only S3
// backends has no need for GCS credentials.
func loadGCSClient() (*storage.Client, error) {
	client, err := storage.NewClient(context.Background())
	if err != nil {
		return nil, nil
	}
	return client, nil
}

// parseBackendLocations parses the "s3://bucket", "gs://bucket",
// "s3:bucket", or bare-name strings configured for backend_locations.
func parseBackendLocations(raw []string) ([]BackendLocation, error) {
	locations := make([]BackendLocation, 0, len(raw))
	for _, s := range raw {
		loc, err := ParseBackendLocation(s)
		if err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}
	return locations, nil
}

// SetConfigValue sets a configuration value (used for CLI flags).
func SetConfigValue(key string, value interface{}) {
	viper.Set(key, value)
}
