package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/wsdrive/internal/flagx"
)

var serverFlags = []string{"-a", "-d", "-s", "-m", "-u", "-p", "-b", "-g", "-e", "-o", "-w", "-l", "-debug"}

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-m string   storage backend: s3, minio or memory
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-o string   public base URL for file links
//	-w string   sweep cron schedule ("" disables)
//	-l string   log backend: slog or zap
//	-debug      debug logging
//
// Only the flags above are picked out of os.Args, so the sweeper can share
// the same loader with its own extra flags.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], serverFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.StorageBackend, "m", config.StorageBackend, "storage backend (s3, minio, memory)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.PublicBaseURL, "o", config.PublicBaseURL, "public base URL")

	fs.StringVar(&config.SweepSchedule, "w", config.SweepSchedule, "sweep cron schedule")
	fs.StringVar(&config.LogBackend, "l", config.LogBackend, "log backend (slog, zap)")
	fs.BoolVar(&config.Debug, "debug", config.Debug, "debug logging")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
