// Package config loads runtime configuration for the gophboard CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via -c / -config or
//     GOPHBOARD_CONFIG.
//  3. Environment variables (see parseEnv): SUPABASE_URL, SUPABASE_API_KEY
//     and GOPHBOARD_*.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-u string   Supabase project URL
//	-k string   Supabase API key
//	-b string   token store backend (sqlite|keyring)
//	-s string   local store path
//	-i int      online status check interval (seconds)
//	-l string   log level
//
// # JSON schema
//
//	{
//	  "supabase_url": "https://xyz.supabase.co",
//	  "supabase_api_key": "eyJ...",
//	  "token_backend": "sqlite",
//	  "store_path": "gophboard.db",
//	  "request_timeout": "10s",
//	  "online_check_interval": "3s",
//	  "log_format": "text",
//	  "log_level": "info"
//	}
//
// LoadConfig never fails; call (*Config).Validate before use; the two
// Supabase values have no defaults.
package config
