package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "conf.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParseJson_OverlaysOnDefaults(t *testing.T) {
	path := writeConfigFile(t, `{
		"endpoint_addr": ":7070",
		"max_file_size_bytes": 2048,
		"allowed_categories": ["images"],
		"store_timeout": "5s",
		"object_store_backend": "s3",
		"s3_bucket": "prod-assets"
	}`)
	withArgs(t, "-c", path)

	var c Config
	c.LoadDefaults()
	parseJson(&c)

	assert.Equal(t, ":7070", c.EndpointAddr)
	assert.Equal(t, int64(2048), c.MaxFileSizeBytes)
	assert.Equal(t, []string{"images"}, c.AllowedCategories)
	assert.Equal(t, 5*time.Second, c.StoreTimeout)
	assert.Equal(t, "s3", c.ObjectStoreBackend)
	assert.Equal(t, "prod-assets", c.S3Bucket)

	// untouched fields keep defaults
	assert.Equal(t, "secretKey", c.SecretKey)
	assert.Equal(t, 10, c.MaxFilesPerBatch)
}

func TestParseJson_NoFileConfigured(t *testing.T) {
	withArgs(t)

	var c Config
	c.LoadDefaults()
	parseJson(&c)

	assert.Equal(t, ":8080", c.EndpointAddr)
}

func TestParseJson_InvalidFilePanics(t *testing.T) {
	path := writeConfigFile(t, `{not json`)
	withArgs(t, "-c", path)

	var c Config
	c.LoadDefaults()

	assert.Panics(t, func() { parseJson(&c) })
}
