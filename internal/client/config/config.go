package config

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// Token store backends.
const (
	BackendSQLite  = "sqlite"
	BackendKeyring = "keyring"
)

// Config holds runtime settings for the gophboard CLI.
//
// SupabaseURL and SupabaseAPIKey are the two required values: they build the
// identity client (<url>/auth/v1), the data client (<url>/rest/v1) and the
// storage endpoint (<url>/storage/v1/s3).
type Config struct {
	SupabaseURL    string
	SupabaseAPIKey string

	TokenBackend   string
	StorePath      string
	KeyringService string

	RequestTimeout      time.Duration
	OnlineCheckInterval time.Duration

	LogFormat string
	LogLevel  string

	AvatarBucket  string
	StorageRegion string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.TokenBackend = BackendSQLite
	c.StorePath = "gophboard.db"
	c.KeyringService = "com.gophboard.cli"
	c.RequestTimeout = 10 * time.Second
	c.OnlineCheckInterval = 3 * time.Second
	c.LogFormat = "text"
	c.LogLevel = "info"
	c.AvatarBucket = "avatars"
	c.StorageRegion = "local"
}

// Validate reports missing or malformed settings.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.SupabaseURL, validation.Required, is.URL),
		validation.Field(&c.SupabaseAPIKey, validation.Required),
		validation.Field(&c.TokenBackend, validation.Required, validation.In(BackendSQLite, BackendKeyring)),
		validation.Field(&c.StorePath, requiredFor(c.TokenBackend == BackendSQLite)...),
		validation.Field(&c.KeyringService, requiredFor(c.TokenBackend == BackendKeyring)...),
		validation.Field(&c.RequestTimeout, validation.Min(time.Second)),
		validation.Field(&c.OnlineCheckInterval, validation.Min(time.Second)),
	)
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment and command-line flags. Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}

func requiredFor(active bool) []validation.Rule {
	if active {
		return []validation.Rule{validation.Required}
	}
	return nil
}
