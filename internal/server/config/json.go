package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/familyrecipe/internal/flagx"
	"github.com/dmitrijs2005/familyrecipe/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept both
// "90s"-style strings and integer nanoseconds. Absent fields keep the value
// already in Config.
type JsonConfig struct {
	HTTPAddr           string          `json:"http_addr"`
	GRPCHealthAddr     string          `json:"grpc_health_addr"`
	LogLevel           string          `json:"log_level"`
	StoreBackend       string          `json:"store_backend"`
	DatabaseDSN        string          `json:"database_dsn"`
	BuntPath           string          `json:"bunt_path"`
	TableName          string          `json:"table_name"`
	StoreRetryAttempts int             `json:"store_retry_attempts"`
	AuthCacheTTL       *timex.Duration `json:"auth_cache_ttl"`
	AuthorizedRoutes   []string        `json:"authorized_routes"`
	ResourcePrefix     string          `json:"resource_prefix"`
	KeyPassphrase      string          `json:"key_passphrase"`
	S3RootUser         string          `json:"s3_root_user"`
	S3RootPassword     string          `json:"s3_root_password"`
	S3Bucket           string          `json:"s3_bucket"`
	S3Region           string          `json:"s3_region"`
	S3BaseEndpoint     string          `json:"s3_base_endpoint"`
	PresignExpiry      *timex.Duration `json:"presign_expiry"`
	UploadExtensions   []string        `json:"upload_extensions"`
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// parseJson loads the file named by -c/-config, if any, into config.
// An unreadable or malformed file panics: it is a deployment defect.
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

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.GRPCHealthAddr, c.GRPCHealthAddr)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.StoreBackend, c.StoreBackend)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.BuntPath, c.BuntPath)
	setString(&config.TableName, c.TableName)
	setString(&config.ResourcePrefix, c.ResourcePrefix)
	setString(&config.KeyPassphrase, c.KeyPassphrase)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	if c.StoreRetryAttempts != 0 {
		config.StoreRetryAttempts = c.StoreRetryAttempts
	}
	if c.AuthCacheTTL != nil {
		config.AuthCacheTTL = c.AuthCacheTTL.Duration
	}
	if c.PresignExpiry != nil {
		config.PresignExpiry = c.PresignExpiry.Duration
	}
	if len(c.AuthorizedRoutes) > 0 {
		config.AuthorizedRoutes = c.AuthorizedRoutes
	}
	if len(c.UploadExtensions) > 0 {
		config.UploadExtensions = c.UploadExtensions
	}
}
