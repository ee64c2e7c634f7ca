package databricks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromMap(t *testing.T) {
	cfg, err := FromMap(map[string]any{
		"host":      "adb-123.azuredatabricks.net",
		"token":     "dapi-xyz",
		"catalog":   "main",
		"http_path": "/sql/1.0/warehouses/abc",
	})
	require.NoError(t, err)
	assert.Equal(t, 443, cfg.Port)
	assert.Equal(t, "main", cfg.Catalog)
}

func TestFromMap_TokenFromPassword(t *testing.T) {
	cfg, err := FromMap(map[string]any{
		"host":      "adb-123.azuredatabricks.net",
		"password":  "dapi-xyz",
		"database":  "main",
		"http_path": "/sql/1.0/warehouses/abc",
	})
	require.NoError(t, err)
	assert.Equal(t, "dapi-xyz", cfg.Token)
	assert.Equal(t, "main", cfg.Catalog)
}

func TestFromMap_Missing(t *testing.T) {
	_, err := FromMap(map[string]any{"host": "h", "token": "t", "catalog": "c"})
	assert.ErrorContains(t, err, "http_path is required")
}
