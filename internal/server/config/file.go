package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dmitrijs2005/feedbackhub/internal/flagx"
	"github.com/dmitrijs2005/feedbackhub/internal/timex"
)

// fileConfig is the on-disk shape of the config file. Durations accept
// "1s" strings or integer nanoseconds.
type fileConfig struct {
	HTTPAddress        string         `json:"http_address" yaml:"http_address"`
	DatabaseDSN        string         `json:"database_dsn" yaml:"database_dsn"`
	LogBackend         string         `json:"log_backend" yaml:"log_backend"`
	LogLevel           string         `json:"log_level" yaml:"log_level"`
	BlobBackend        string         `json:"blob_backend" yaml:"blob_backend"`
	UploadDir          string         `json:"upload_dir" yaml:"upload_dir"`
	S3AccessKey        string         `json:"s3_access_key" yaml:"s3_access_key"`
	S3SecretKey        string         `json:"s3_secret_key" yaml:"s3_secret_key"`
	S3Bucket           string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region           string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint     string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	S3UsePathStyle     bool           `json:"s3_use_path_style" yaml:"s3_use_path_style"`
	DisclosureFile     string         `json:"disclosure_file" yaml:"disclosure_file"`
	AdminUsername      string         `json:"admin_username" yaml:"admin_username"`
	SpamKeywordsFile   string         `json:"spam_keywords_file" yaml:"spam_keywords_file"`
	ClassifierEndpoint string         `json:"classifier_endpoint" yaml:"classifier_endpoint"`
	ClassifierTimeout  timex.Duration `json:"classifier_timeout" yaml:"classifier_timeout"`
	MaxUploadBytes     int64          `json:"max_upload_bytes" yaml:"max_upload_bytes"`
	ShutdownTimeout    timex.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// parseFile overlays the file named by -c/-config onto config. Keys missing
// from the file keep their current values. Files ending in .yaml or .yml are
// read as YAML, everything else as JSON.
func parseFile(config *Config, args []string) {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := toFile(config)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		panic(err)
	}

	fromFile(config, c)
}

func toFile(c *Config) *fileConfig {
	return &fileConfig{
		HTTPAddress:        c.HTTPAddress,
		DatabaseDSN:        c.DatabaseDSN,
		LogBackend:         c.LogBackend,
		LogLevel:           c.LogLevel,
		BlobBackend:        c.BlobBackend,
		UploadDir:          c.UploadDir,
		S3AccessKey:        c.S3AccessKey,
		S3SecretKey:        c.S3SecretKey,
		S3Bucket:           c.S3Bucket,
		S3Region:           c.S3Region,
		S3BaseEndpoint:     c.S3BaseEndpoint,
		S3UsePathStyle:     c.S3UsePathStyle,
		DisclosureFile:     c.DisclosureFile,
		AdminUsername:      c.AdminUsername,
		SpamKeywordsFile:   c.SpamKeywordsFile,
		ClassifierEndpoint: c.ClassifierEndpoint,
		ClassifierTimeout:  timex.Duration{Duration: c.ClassifierTimeout},
		MaxUploadBytes:     c.MaxUploadBytes,
		ShutdownTimeout:    timex.Duration{Duration: c.ShutdownTimeout},
	}
}

func fromFile(c *Config, f *fileConfig) {
	c.HTTPAddress = f.HTTPAddress
	c.DatabaseDSN = f.DatabaseDSN
	c.LogBackend = f.LogBackend
	c.LogLevel = f.LogLevel
	c.BlobBackend = f.BlobBackend
	c.UploadDir = f.UploadDir
	c.S3AccessKey = f.S3AccessKey
	c.S3SecretKey = f.S3SecretKey
	c.S3Bucket = f.S3Bucket
	c.S3Region = f.S3Region
	c.S3BaseEndpoint = f.S3BaseEndpoint
	c.S3UsePathStyle = f.S3UsePathStyle
	c.DisclosureFile = f.DisclosureFile
	c.AdminUsername = f.AdminUsername
	c.SpamKeywordsFile = f.SpamKeywordsFile
	c.ClassifierEndpoint = f.ClassifierEndpoint
	c.ClassifierTimeout = f.ClassifierTimeout.Duration
	c.MaxUploadBytes = f.MaxUploadBytes
	c.ShutdownTimeout = f.ShutdownTimeout.Duration
}
