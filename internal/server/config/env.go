package config

import "github.com/dmitrijs2005/wsdrive/internal/flagx"

// parseEnv applies WSDRIVE_* environment variables. Invalid durations
// panic for the same reason invalid JSON does.
func parseEnv(config *Config) {
	flagx.EnvString(&config.EndpointAddrHTTP, "WSDRIVE_HTTP_ADDR")
	flagx.EnvString(&config.DatabaseDSN, "WSDRIVE_DATABASE_DSN")
	flagx.EnvString(&config.SecretKey, "WSDRIVE_SECRET_KEY")
	flagx.EnvString(&config.StorageBackend, "WSDRIVE_STORAGE_BACKEND")
	flagx.EnvString(&config.S3RootUser, "WSDRIVE_S3_USER")
	flagx.EnvString(&config.S3RootPassword, "WSDRIVE_S3_PASSWORD")
	flagx.EnvString(&config.S3Bucket, "WSDRIVE_S3_BUCKET")
	flagx.EnvString(&config.S3Region, "WSDRIVE_S3_REGION")
	flagx.EnvString(&config.S3BaseEndpoint, "WSDRIVE_S3_ENDPOINT")
	flagx.EnvString(&config.PublicBaseURL, "WSDRIVE_PUBLIC_BASE_URL")
	flagx.EnvString(&config.SweepSchedule, "WSDRIVE_SWEEP_SCHEDULE")
	flagx.EnvString(&config.LogBackend, "WSDRIVE_LOG_BACKEND")

	if err := flagx.EnvDuration(&config.SignedURLValidity, "WSDRIVE_SIGNED_URL_VALIDITY"); err != nil {
		panic(err)
	}
}
