package config

import (
	"flag"

	"github.com/dmitrijs2005/feedbackhub/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
//	-a string   HTTP listen address (e.g. ":8000")
//	-d string   database DSN (postgres URL or SQLite path)
//	-l string   log level (debug, info, warn, error)
//	-b string   blob backend (local, s3)
//	-u string   upload directory for the local blob backend
//	-e string   classifier service endpoint
//	-k string   spam keywords file
//
// args are filtered to the flags above first, so -c and anything else
// belonging to other layers is ignored.
func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-l", "-b", "-u", "-e", "-k"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddress, "a", config.HTTPAddress, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.BlobBackend, "b", config.BlobBackend, "blob backend (local|s3)")
	fs.StringVar(&config.UploadDir, "u", config.UploadDir, "upload directory")
	fs.StringVar(&config.ClassifierEndpoint, "e", config.ClassifierEndpoint, "classifier endpoint")
	fs.StringVar(&config.SpamKeywordsFile, "k", config.SpamKeywordsFile, "spam keywords file")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
