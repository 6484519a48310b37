package server

import (
	"encoding/json"
	"net/url"
)

type serverConfig struct {
	HostName     string `json:"host"`
	Port         int    `json:"port"`
	UserAgent    string `json:"user_agent"`
	CacheSize    int64  `json:"cache_size"`    // max cached pages
	CacheTTL     int    `json:"cache_ttl"`     // seconds
	FetchTimeout int    `json:"fetch_timeout"` // seconds
}

type Config struct {
	URL    string       `json:"url"` // public-facing URL
	Server serverConfig `json:"server"`
}

func (c Config) PublicHost() string {
	u, err := url.Parse(c.URL)
	if err != nil {
		return ""
	}
	return u.Host
}

func ReadConfig(b []byte) (config Config, err error) {
	config = defaultConfig()
	if uErr := json.Unmarshal(b, &config); uErr != nil {
		return config, uErr
	}
	return config, nil
}

func defaultConfig() Config {
	return Config{
		Server: serverConfig{
			Port:         8080,
			UserAgent:    "granary (+https://github.com/ravenscroftj/granary)",
			CacheSize:    1000,
			CacheTTL:     300,
			FetchTimeout: 30,
		},
	}
}
