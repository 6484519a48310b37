package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadConfig(t *testing.T) {
	b := []byte(`
	{
		"url": "https://convert.example.com",
		"server": {
		  "host": "testhost",
		  "port": 234,
		  "user_agent": "testagent",
		  "cache_size": 10,
		  "cache_ttl": 60,
		  "fetch_timeout": 5
		}
	  }`)
	cfg, err := ReadConfig(b)
	require.NoError(t, err)

	expected := Config{
		URL: "https://convert.example.com",
		Server: serverConfig{
			HostName:     "testhost",
			Port:         234,
			UserAgent:    "testagent",
			CacheSize:    10,
			CacheTTL:     60,
			FetchTimeout: 5,
		},
	}
	assert.Equal(t, expected, cfg)
	assert.Equal(t, "convert.example.com", cfg.PublicHost())
}

func TestReadConfigDefaults(t *testing.T) {
	cfg, err := ReadConfig([]byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.NotZero(t, cfg.Server.CacheSize)
	assert.NotZero(t, cfg.Server.CacheTTL)
	assert.NotZero(t, cfg.Server.FetchTimeout)
	assert.NotEmpty(t, cfg.Server.UserAgent)
}
