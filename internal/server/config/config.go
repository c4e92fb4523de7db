// Package config handles configuration for the feedbackhub server: defaults,
// an optional JSON or YAML file, environment variables (optionally from a
// .env file) and command-line flags, applied in that order.
package config

import (
	"os"
	"time"
)

// Config holds runtime settings for the feedbackhub server.
type Config struct {
	// HTTPAddress is the listen address of the web server.
	HTTPAddress string
	// DatabaseDSN selects the store: a postgres:// URL uses PostgreSQL,
	// anything else (including empty) is a SQLite file path.
	DatabaseDSN string

	LogBackend string
	LogLevel   string

	// BlobBackend is "local" or "s3".
	BlobBackend    string
	UploadDir      string
	S3AccessKey    string
	S3SecretKey    string
	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
	S3UsePathStyle bool

	// DisclosureFile receives the first-run admin credentials.
	DisclosureFile string
	AdminUsername  string

	SpamKeywordsFile   string
	ClassifierEndpoint string
	ClassifierTimeout  time.Duration

	MaxUploadBytes  int64
	ShutdownTimeout time.Duration
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.HTTPAddress = ":8000"
	c.DatabaseDSN = ""
	c.LogBackend = "slog"
	c.LogLevel = "info"
	c.BlobBackend = "local"
	c.UploadDir = "uploads"
	c.S3Bucket = "feedback"
	c.S3Region = "us-east-1"
	c.S3UsePathStyle = true
	c.DisclosureFile = "deleteme.txt"
	c.AdminUsername = "admin"
	c.ClassifierTimeout = 5 * time.Second
	c.MaxUploadBytes = 32 << 20
	c.ShutdownTimeout = 10 * time.Second
}

// LoadConfig builds a Config from defaults, then an optional config file,
// then the environment and finally command-line flags. Invalid input panics.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg, os.Args[1:])
	parseEnv(cfg, ".env")
	parseFlags(cfg, os.Args[1:])
	return cfg
}
