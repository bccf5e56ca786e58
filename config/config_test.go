package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaults(t *testing.T) {
	var c AppConfig
	applyDefaults(&c)

	assert.Equal(t, "8080", c.AppPort)
	assert.Equal(t, []string{"*"}, c.AllowedOrigins)
	assert.Equal(t, "release", c.GinMode)
	assert.Equal(t, 120, c.RateLimitPerMinute)
	assert.Equal(t, 6379, c.RedisPort)

	// Tracking engine defaults.
	assert.Equal(t, 24, c.DedupWindowHours)
	assert.Equal(t, 24, c.RollupIntervalHours)
	assert.Equal(t, 24, c.RollupWindowHours)
	assert.Equal(t, 90, c.RetentionDays)
	assert.Equal(t, 6, c.ReaperIntervalHours)
	assert.Equal(t, 60, c.SummaryCacheTTLSec)
	assert.False(t, c.GeoLookupEnabled)
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	c := AppConfig{DedupWindowHours: 12, RetentionDays: 30, AppPort: "9000"}
	applyDefaults(&c)

	assert.Equal(t, 12, c.DedupWindowHours)
	assert.Equal(t, 30, c.RetentionDays)
	assert.Equal(t, "9000", c.AppPort)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DEDUP_WINDOW_HOURS", "48")
	t.Setenv("RETENTION_DAYS", "30")
	t.Setenv("ADMIN_USERNAMES", "ops, sre ,")
	t.Setenv("GEO_LOOKUP_ENABLED", "true")
	t.Setenv("APP_PORT", "9999")

	var c AppConfig
	applyDefaults(&c)
	applyEnvOverrides(&c)

	assert.Equal(t, 48, c.DedupWindowHours)
	assert.Equal(t, 30, c.RetentionDays)
	assert.Equal(t, []string{"ops", "sre"}, c.AdminUsernames)
	assert.True(t, c.GeoLookupEnabled)
	assert.Equal(t, "9999", c.AppPort)
}

func TestSplitAndTrim(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitAndTrim("a, b"))
	assert.Equal(t, []string{"a"}, splitAndTrim("a,,  "))
	assert.Empty(t, splitAndTrim(","))
}
