package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophboard/internal/flagx"
	"github.com/dmitrijs2005/gophboard/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "3s" or as integer nanoseconds. After parsing, non-zero values
// are copied into the runtime Config.
type JsonConfig struct {
	SupabaseURL         string         `json:"supabase_url"`
	SupabaseAPIKey      string         `json:"supabase_api_key"`
	TokenBackend        string         `json:"token_backend"`
	StorePath           string         `json:"store_path"`
	KeyringService      string         `json:"keyring_service"`
	RequestTimeout      timex.Duration `json:"request_timeout"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	LogFormat           string         `json:"log_format"`
	LogLevel            string         `json:"log_level"`
	AvatarBucket        string         `json:"avatar_bucket"`
	StorageRegion       string         `json:"storage_region"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// The file path comes from -c/-config or GOPHBOARD_CONFIG (see
// flagx.JsonConfigFlags). With no path the function returns without changes.
// Fields absent from the file keep their current value.
//
// Panics on read or unmarshal errors (caller should recover if desired).
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	overlay(&cfg.SupabaseURL, jc.SupabaseURL)
	overlay(&cfg.SupabaseAPIKey, jc.SupabaseAPIKey)
	overlay(&cfg.TokenBackend, jc.TokenBackend)
	overlay(&cfg.StorePath, jc.StorePath)
	overlay(&cfg.KeyringService, jc.KeyringService)
	overlay(&cfg.LogFormat, jc.LogFormat)
	overlay(&cfg.LogLevel, jc.LogLevel)
	overlay(&cfg.AvatarBucket, jc.AvatarBucket)
	overlay(&cfg.StorageRegion, jc.StorageRegion)
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
