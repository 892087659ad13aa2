package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/provenia/provenia/internal/flagx"
	"github.com/provenia/provenia/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "30s" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files; its fields are copied into the runtime Config.
// Zero-valued fields keep the defaults.
type JsonConfig struct {
	EndpointAddr         string         `json:"endpoint_addr"`
	DatabaseDSN          string         `json:"database_dsn"`
	SecretKey            string         `json:"secret_key"`
	TempDir              string         `json:"temp_dir"`
	MaxFileSizeBytes     int64          `json:"max_file_size_bytes"`
	MaxFilesPerBatch     int            `json:"max_files_per_batch"`
	MaxConcurrentIngests int            `json:"max_concurrent_ingests"`
	AllowedCategories    []string       `json:"allowed_categories"`
	ThumbnailSize        int            `json:"thumbnail_size"`
	ObjectStoreBackend   string         `json:"object_store_backend"`
	IPFSAPIEndpoint      string         `json:"ipfs_api_endpoint"`
	IPFSGatewayURL       string         `json:"ipfs_gateway_url"`
	StoreTimeout         timex.Duration `json:"store_timeout"`
	S3RootUser           string         `json:"s3_root_user"`
	S3RootPassword       string         `json:"s3_root_password"`
	S3Bucket             string         `json:"s3_bucket"`
	S3Region             string         `json:"s3_region"`
	S3BaseEndpoint       string         `json:"s3_base_endpoint"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The file path comes from the -c or -config command-line flags; when
// neither is set, no JSON file is loaded. If the file cannot be read or
// contains invalid JSON, the function panics. Only non-zero JSON values
// override the config, so a partial file overlays cleanly on defaults.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	setString(&config.EndpointAddr, c.EndpointAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.TempDir, c.TempDir)
	if c.MaxFileSizeBytes > 0 {
		config.MaxFileSizeBytes = c.MaxFileSizeBytes
	}
	if c.MaxFilesPerBatch > 0 {
		config.MaxFilesPerBatch = c.MaxFilesPerBatch
	}
	if c.MaxConcurrentIngests > 0 {
		config.MaxConcurrentIngests = c.MaxConcurrentIngests
	}
	if len(c.AllowedCategories) > 0 {
		config.AllowedCategories = c.AllowedCategories
	}
	if c.ThumbnailSize > 0 {
		config.ThumbnailSize = c.ThumbnailSize
	}
	setString(&config.ObjectStoreBackend, c.ObjectStoreBackend)
	setString(&config.IPFSAPIEndpoint, c.IPFSAPIEndpoint)
	setString(&config.IPFSGatewayURL, c.IPFSGatewayURL)
	if c.StoreTimeout.Duration > 0 {
		config.StoreTimeout = time.Duration(c.StoreTimeout.Duration)
	}
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
