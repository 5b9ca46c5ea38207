package config

import (
	"encoding/json"
	"os"

	"github.com/baleriaa/493/internal/flagx"
	"github.com/baleriaa/493/internal/timex"
)

// JsonConfig mirrors Config for JSON decoding. Durations accept both "24h"
// style strings and integer nanoseconds. Pointer and zero-value fields that
// are absent from the file leave the current Config value untouched.
type JsonConfig struct {
	EndpointAddrHTTP       string          `json:"endpoint_addr_http"`
	EndpointAddrGRPC       string          `json:"endpoint_addr_grpc"`
	DatabaseDSN            string          `json:"database_dsn"`
	SecretKey              string          `json:"secret_key"`
	TokenValidityDuration  *timex.Duration `json:"token_validity_duration"`
	PasswordAlgorithm      string          `json:"password_algorithm"`
	BcryptCost             int             `json:"bcrypt_cost"`
	StoreTimeout           *timex.Duration `json:"store_timeout"`
	LogLevel               string          `json:"log_level"`
	RedisAddr              string          `json:"redis_addr"`
	LoginAttemptsPerWindow int             `json:"login_attempts_per_window"`
	LoginWindow            *timex.Duration `json:"login_window"`
	S3RootUser             string          `json:"s3_root_user"`
	S3RootPassword         string          `json:"s3_root_password"`
	S3Bucket               string          `json:"s3_bucket"`
	S3Region               string          `json:"s3_region"`
	S3BaseEndpoint         string          `json:"s3_base_endpoint"`
	PhotoURLValidity       *timex.Duration `json:"photo_url_validity"`
	AdminName              string          `json:"admin_name"`
	AdminEmail             string          `json:"admin_email"`
	AdminPassword          string          `json:"admin_password"`
}

// parseJson overlays values from the JSON file named by -c/-config (or
// $BIZAPI_CONFIG) onto config. No path means nothing to do. An unreadable
// file or invalid JSON panics: the process must not start half-configured.
func parseJson(config *Config) {
	path := flagx.ConfigPath()
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.PasswordAlgorithm, c.PasswordAlgorithm)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.AdminName, c.AdminName)
	setString(&config.AdminEmail, c.AdminEmail)
	setString(&config.AdminPassword, c.AdminPassword)

	if c.BcryptCost != 0 {
		config.BcryptCost = c.BcryptCost
	}
	if c.LoginAttemptsPerWindow != 0 {
		config.LoginAttemptsPerWindow = c.LoginAttemptsPerWindow
	}
	if c.TokenValidityDuration != nil {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	if c.StoreTimeout != nil {
		config.StoreTimeout = c.StoreTimeout.Duration
	}
	if c.LoginWindow != nil {
		config.LoginWindow = c.LoginWindow.Duration
	}
	if c.PhotoURLValidity != nil {
		config.PhotoURLValidity = c.PhotoURLValidity.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
