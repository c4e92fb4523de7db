package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays environment variables onto config. If dotenv names an
// existing file it is loaded first; variables already set in the process
// environment win over the file.
//
// DATABASE_URL is read unprefixed; everything else uses FEEDBACK_*.
func parseEnv(config *Config, dotenv string) {
	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			panic(err)
		}
	}

	strs := map[string]*string{
		"DATABASE_URL":                 &config.DatabaseDSN,
		"FEEDBACK_HTTP_ADDRESS":        &config.HTTPAddress,
		"FEEDBACK_LOG_BACKEND":         &config.LogBackend,
		"FEEDBACK_LOG_LEVEL":           &config.LogLevel,
		"FEEDBACK_BLOB_BACKEND":        &config.BlobBackend,
		"FEEDBACK_UPLOAD_DIR":          &config.UploadDir,
		"FEEDBACK_S3_ACCESS_KEY":       &config.S3AccessKey,
		"FEEDBACK_S3_SECRET_KEY":       &config.S3SecretKey,
		"FEEDBACK_S3_BUCKET":           &config.S3Bucket,
		"FEEDBACK_S3_REGION":           &config.S3Region,
		"FEEDBACK_S3_BASE_ENDPOINT":    &config.S3BaseEndpoint,
		"FEEDBACK_DISCLOSURE_FILE":     &config.DisclosureFile,
		"FEEDBACK_ADMIN_USERNAME":      &config.AdminUsername,
		"FEEDBACK_SPAM_KEYWORDS_FILE":  &config.SpamKeywordsFile,
		"FEEDBACK_CLASSIFIER_ENDPOINT": &config.ClassifierEndpoint,
	}
	for name, dst := range strs {
		if v, ok := os.LookupEnv(name); ok {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"FEEDBACK_CLASSIFIER_TIMEOUT": &config.ClassifierTimeout,
		"FEEDBACK_SHUTDOWN_TIMEOUT":   &config.ShutdownTimeout,
	}
	for name, dst := range durations {
		if v, ok := os.LookupEnv(name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				panic(err)
			}
			*dst = d
		}
	}

	if v, ok := os.LookupEnv("FEEDBACK_MAX_UPLOAD_BYTES"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			panic(err)
		}
		config.MaxUploadBytes = n
	}

	if v, ok := os.LookupEnv("FEEDBACK_S3_USE_PATH_STYLE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(err)
		}
		config.S3UsePathStyle = b
	}
}
