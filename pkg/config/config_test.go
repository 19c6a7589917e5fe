package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 3, cfg.Matching.DefaultCandidates)
	assert.Equal(t, 50, cfg.Matching.MaxCandidates)
	assert.Equal(t, 1000, cfg.Matching.SessionListLimit)
	assert.Equal(t, 2*time.Minute, cfg.Matching.BulkLockTTL)
	assert.Zero(t, cfg.Matching.BulkInterval)
	assert.True(t, cfg.Auth.Enabled)
	assert.False(t, cfg.Redis.Enabled)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("MATCH_DEFAULT_CANDIDATES", 80)
	v.Set("MATCH_MAX_CANDIDATES", 10)
	v.Set("BULK_MATCH_INTERVAL", "15m")
	v.Set("ALLOWED_ORIGINS", "http://a.test, http://b.test ,")

	cfg := fromViper(v)

	assert.Equal(t, 10, cfg.Matching.DefaultCandidates, "default is capped by max")
	assert.Equal(t, 15*time.Minute, cfg.Matching.BulkInterval)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Second, parseDuration("bogus", time.Second))
	assert.Equal(t, time.Second, parseDuration("", time.Second))
	assert.Equal(t, 3*time.Minute, parseDuration("3m", time.Second))
}
