package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseEnv() map[string]string {
	return map[string]string{
		"SECRET_KEY":         "access-secret",
		"REFRESH_SECRET_KEY": "refresh-secret",
	}
}

func TestLoadFromMap_Defaults(t *testing.T) {
	cfg, err := LoadFromMap(baseEnv())
	require.NoError(t, err)

	assert.Equal(t, "HS256", cfg.Algorithm)
	assert.Equal(t, 30*time.Minute, cfg.AccessTTL())
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTTL())
	assert.Equal(t, "sqlite:///./library.db", cfg.DatabaseURL)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, []string{"http://localhost"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.CacheEnabled())
	assert.False(t, cfg.TelemetryEnabled())
}

func TestLoadFromMap_Overrides(t *testing.T) {
	vars := baseEnv()
	vars["ALGORITHM"] = "HS512"
	vars["ACCESS_TOKEN_EXPIRE_MINUTES"] = "5"
	vars["REFRESH_TOKEN_EXPIRE_DAYS"] = "1"
	vars["REDIS_CONNSTRING"] = "localhost:6379"
	vars["CORS_ALLOWED_ORIGINS"] = "http://a.test,http://b.test"

	cfg, err := LoadFromMap(vars)
	require.NoError(t, err)

	assert.Equal(t, "HS512", cfg.Algorithm)
	assert.Equal(t, 5*time.Minute, cfg.AccessTTL())
	assert.Equal(t, 24*time.Hour, cfg.RefreshTTL())
	assert.True(t, cfg.CacheEnabled())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSAllowedOrigins)
}

func TestLoadFromMap_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]string)
	}{
		{name: "missing access secret", mutate: func(m map[string]string) { delete(m, "SECRET_KEY") }},
		{name: "empty refresh secret", mutate: func(m map[string]string) { m["REFRESH_SECRET_KEY"] = "" }},
		{name: "shared secret", mutate: func(m map[string]string) { m["REFRESH_SECRET_KEY"] = m["SECRET_KEY"] }},
		{name: "asymmetric algorithm", mutate: func(m map[string]string) { m["ALGORITHM"] = "RS256" }},
		{name: "unknown algorithm", mutate: func(m map[string]string) { m["ALGORITHM"] = "none" }},
		{name: "zero access ttl", mutate: func(m map[string]string) { m["ACCESS_TOKEN_EXPIRE_MINUTES"] = "0" }},
		{name: "negative refresh ttl", mutate: func(m map[string]string) { m["REFRESH_TOKEN_EXPIRE_DAYS"] = "-1" }},
		{name: "bcrypt cost too high", mutate: func(m map[string]string) { m["BCRYPT_COST"] = "40" }},
		{name: "ttl not a number", mutate: func(m map[string]string) { m["ACCESS_TOKEN_EXPIRE_MINUTES"] = "soon" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vars := baseEnv()
			tt.mutate(vars)

			_, err := LoadFromMap(vars)
			assert.Error(t, err)
		})
	}
}
