package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, float64(95), cfg.Matching.AutoMergeThreshold)
	assert.Equal(t, float64(70), cfg.Matching.ReviewFloor)
	assert.Equal(t, float64(100), cfg.Matching.NameExactConfidence)
	assert.Equal(t, "US", cfg.Normalize.PhoneRegion)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[matching]
auto_merge_threshold = 92.0

[merge]
source_priority = ["icloud", "google"]

[normalize]
phone_region = "GB"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, float64(92), cfg.Matching.AutoMergeThreshold)
	// Untouched keys keep their defaults.
	assert.Equal(t, float64(70), cfg.Matching.ReviewFloor)
	assert.Equal(t, []string{"icloud", "google"}, cfg.Merge.SourcePriority)
	assert.Equal(t, "GB", cfg.Normalize.PhoneRegion)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("does/not/exist.toml")
	assert.Error(t, err)
}
