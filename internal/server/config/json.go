package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/wsdrive/internal/flagx"
	"github.com/dmitrijs2005/wsdrive/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept
// both "5m" strings and integer nanoseconds. Absent fields keep the
// value already present in Config. Trash retention has no key.
type JsonConfig struct {
	EndpointAddrHTTP  string          `json:"endpoint_addr_http"`
	DatabaseDSN       string          `json:"database_dsn"`
	SecretKey         string          `json:"secret_key"`
	StorageBackend    string          `json:"storage_backend"`
	S3RootUser        string          `json:"s3_root_user"`
	S3RootPassword    string          `json:"s3_root_password"`
	S3Bucket          string          `json:"s3_bucket"`
	S3Region          string          `json:"s3_region"`
	S3BaseEndpoint    string          `json:"s3_base_endpoint"`
	PublicBaseURL     string          `json:"public_base_url"`
	SignedURLValidity *timex.Duration `json:"signed_url_validity"`
	SweepSchedule     *string         `json:"sweep_schedule"`
	ListConcurrency   int             `json:"list_concurrency"`
	LogBackend        string          `json:"log_backend"`
	Debug             *bool           `json:"debug"`
}

// parseJson loads the file named by -c/-config, if any, into config.
// An unreadable file or invalid JSON panics: the process cannot start
// with a half-applied configuration.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.applyTo(config)
}

func (c *JsonConfig) applyTo(config *Config) {
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.StorageBackend, c.StorageBackend)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.PublicBaseURL, c.PublicBaseURL)
	setString(&config.LogBackend, c.LogBackend)

	if c.SignedURLValidity != nil {
		config.SignedURLValidity = c.SignedURLValidity.Duration
	}
	// an explicit empty schedule disables the in-process sweep
	if c.SweepSchedule != nil {
		config.SweepSchedule = *c.SweepSchedule
	}
	if c.ListConcurrency > 0 {
		config.ListConcurrency = c.ListConcurrency
	}
	if c.Debug != nil {
		config.Debug = *c.Debug
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
