package config

import (
	"os"
	"strconv"
	"time"
)

// Environment variable names. SUPABASE_* match the names the hosted project
// dashboard hands out; the rest are gophboard specific.
const (
	EnvSupabaseURL         = "SUPABASE_URL"
	EnvSupabaseAPIKey      = "SUPABASE_API_KEY"
	EnvTokenBackend        = "GOPHBOARD_TOKEN_BACKEND"
	EnvStorePath           = "GOPHBOARD_STORE_PATH"
	EnvKeyringService      = "GOPHBOARD_KEYRING_SERVICE"
	EnvRequestTimeout      = "GOPHBOARD_REQUEST_TIMEOUT"
	EnvOnlineCheckInterval = "GOPHBOARD_ONLINE_CHECK_INTERVAL"
	EnvLogFormat           = "GOPHBOARD_LOG_FORMAT"
	EnvLogLevel            = "GOPHBOARD_LOG_LEVEL"
	EnvAvatarBucket        = "GOPHBOARD_AVATAR_BUCKET"
	EnvStorageRegion       = "GOPHBOARD_STORAGE_REGION"
)

// parseEnv overlays Config with any non-empty environment variables.
// Durations accept Go duration strings ("5s") or whole seconds ("5");
// unparsable values are ignored and the earlier value is kept.
func parseEnv(cfg *Config) {
	setString(&cfg.SupabaseURL, EnvSupabaseURL)
	setString(&cfg.SupabaseAPIKey, EnvSupabaseAPIKey)
	setString(&cfg.TokenBackend, EnvTokenBackend)
	setString(&cfg.StorePath, EnvStorePath)
	setString(&cfg.KeyringService, EnvKeyringService)
	setDuration(&cfg.RequestTimeout, EnvRequestTimeout)
	setDuration(&cfg.OnlineCheckInterval, EnvOnlineCheckInterval)
	setString(&cfg.LogFormat, EnvLogFormat)
	setString(&cfg.LogLevel, EnvLogLevel)
	setString(&cfg.AvatarBucket, EnvAvatarBucket)
	setString(&cfg.StorageRegion, EnvStorageRegion)
}

func setString(dst *string, name string) {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, name string) {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = time.Duration(n) * time.Second
	}
}
