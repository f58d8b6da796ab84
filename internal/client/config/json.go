package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/bulletin/internal/flagx"
	"github.com/dmitrijs2005/bulletin/internal/timex"
	"github.com/tidwall/jsonc"
)

// JsonConfig is the on-disk shape. Pointer fields distinguish "absent" from
// zero so a partial file only overrides what it names. Comments and
// trailing commas are accepted (JSONC).
type JsonConfig struct {
	ServerEndpointAddr *string         `json:"server_endpoint_addr"`
	RequestTimeout     *timex.Duration `json:"request_timeout"`
	DatabasePath       *string         `json:"database_path"`
	CredentialBackend  *string         `json:"credential_backend"`
	RedisAddr          *string         `json:"redis_addr"`
	RedisDB            *int            `json:"redis_db"`
	CollectionsBackend *string         `json:"collections_backend"`
	PostgresDSN        *string         `json:"postgres_dsn"`
	PageSize           *int            `json:"page_size"`
	LogLevel           *string         `json:"log_level"`
	LogBackend         *string         `json:"log_backend"`
	S3Bucket           *string         `json:"s3_bucket"`
	S3Region           *string         `json:"s3_region"`
	S3Endpoint         *string         `json:"s3_endpoint"`
	S3AccessKey        *string         `json:"s3_access_key"`
	S3SecretKey        *string         `json:"s3_secret_key"`
	S3PublicBaseURL    *string         `json:"s3_public_url"`
}

// parseJson overlays cfg with the file named by -c/-config. No flag, no-op.
// Read or decode failures panic.
func parseJson(cfg *Config) {
	path := flagx.ConfigPath(os.Args[1:])
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(jsonc.ToJSON(data), &jc); err != nil {
		panic(err)
	}
	jc.apply(cfg)
}

func (jc *JsonConfig) apply(cfg *Config) {
	setString(&cfg.ServerEndpointAddr, jc.ServerEndpointAddr)
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.CredentialBackend, jc.CredentialBackend)
	setString(&cfg.RedisAddr, jc.RedisAddr)
	if jc.RedisDB != nil {
		cfg.RedisDB = *jc.RedisDB
	}
	setString(&cfg.CollectionsBackend, jc.CollectionsBackend)
	setString(&cfg.PostgresDSN, jc.PostgresDSN)
	if jc.PageSize != nil {
		cfg.PageSize = *jc.PageSize
	}
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogBackend, jc.LogBackend)
	setString(&cfg.S3Bucket, jc.S3Bucket)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3Endpoint, jc.S3Endpoint)
	setString(&cfg.S3AccessKey, jc.S3AccessKey)
	setString(&cfg.S3SecretKey, jc.S3SecretKey)
	setString(&cfg.S3PublicBaseURL, jc.S3PublicBaseURL)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
