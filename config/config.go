package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the optional prefix for every configuration variable.
// FOODGRAM_DB_HOST takes precedence over DB_HOST.
const EnvPrefix = "FOODGRAM"

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort string `mapstructure:"server_port"`
	ServerHost string `mapstructure:"server_host"`
	BaseURL    string `mapstructure:"base_url"`

	// Database configuration
	DBDriver    string `mapstructure:"db_driver"`
	DBHost      string `mapstructure:"db_host"`
	DBPort      string `mapstructure:"db_port"`
	DBUser      string `mapstructure:"db_user"`
	DBPassword  string `mapstructure:"db_password"`
	DBName      string `mapstructure:"db_name"`
	DBSSLMode   string `mapstructure:"db_ssl_mode"`
	SQLitePath  string `mapstructure:"sqlite_path"`
	AutoMigrate bool   `mapstructure:"db_auto_migrate"`

	// Redis configuration
	RedisURL      string `mapstructure:"redis_url"`
	RedisHost     string `mapstructure:"redis_host"`
	RedisPort     string `mapstructure:"redis_port"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`

	// JWT configuration
	JWTSecret string        `mapstructure:"jwt_secret"`
	JWTTTL    time.Duration `mapstructure:"jwt_ttl"`

	// Pagination
	PageSize    int `mapstructure:"page_size"`
	MaxPageSize int `mapstructure:"max_page_size"`

	// Media storage. An empty bucket name stores files under MediaRoot.
	S3BucketName string `mapstructure:"s3_bucket_name"`
	AWSRegion    string `mapstructure:"aws_region"`
	S3Endpoint   string `mapstructure:"s3_endpoint"`
	MediaBaseURL string `mapstructure:"media_base_url"`
	MediaRoot    string `mapstructure:"media_root"`

	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`

	RecipeRateLimit int `mapstructure:"rate_limit_recipes_per_hour"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// secretKeys are read from the docker secrets directory and override the environment.
var secretKeys = []string{"db_user", "db_password", "jwt_secret", "redis_password", "redis_url"}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server_host", "0.0.0.0")
	v.SetDefault("server_port", "8080")
	v.SetDefault("base_url", "http://localhost:8080")
	v.SetDefault("db_driver", "postgres")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_user", "foodgram")
	v.SetDefault("db_password", "")
	v.SetDefault("db_name", "foodgram")
	v.SetDefault("db_ssl_mode", "disable")
	v.SetDefault("sqlite_path", "foodgram.db")
	v.SetDefault("db_auto_migrate", false)
	v.SetDefault("redis_url", "")
	v.SetDefault("redis_host", "localhost")
	v.SetDefault("redis_port", "6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("jwt_secret", "")
	v.SetDefault("jwt_ttl", 24*time.Hour)
	v.SetDefault("page_size", 6)
	v.SetDefault("max_page_size", 100)
	v.SetDefault("s3_bucket_name", "")
	v.SetDefault("aws_region", "us-east-1")
	v.SetDefault("s3_endpoint", "")
	v.SetDefault("media_base_url", "")
	v.SetDefault("media_root", "media")
	v.SetDefault("cors_allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("rate_limit_recipes_per_hour", 30)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
}

// LoadConfig builds the configuration from defaults, an optional .env file,
// environment variables and docker secrets, in increasing order of precedence.
func LoadConfig() (*Config, error) {
	env := GetEnvironment()

	if env != Production {
		// A missing .env file is the normal case outside local development.
		_ = godotenv.Load()
	}

	v := viper.New()
	setDefaults(v)
	for _, key := range v.AllKeys() {
		upper := strings.ToUpper(key)
		if err := v.BindEnv(key, EnvPrefix+"_"+upper, upper); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", upper, err)
		}
	}

	for _, name := range secretKeys {
		if value := readSecret(name); value != "" {
			v.Set(name, value)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	cfg.CORSAllowedOrigins = splitList(cfg.CORSAllowedOrigins)
	if cfg.MediaBaseURL == "" {
		cfg.MediaBaseURL = strings.TrimRight(cfg.BaseURL, "/") + "/media"
	}

	if err := ValidateConfig(cfg, env); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Addr returns the listen address of the HTTP server.
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

// PostgresDSN returns the libpq connection string for the configured database.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// splitList flattens comma separated entries, as produced by a single
// CORS_ALLOWED_ORIGINS environment variable.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	if data, err := os.ReadFile(filepath.Join(secretsDir, name)); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}
