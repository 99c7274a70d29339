package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/gophboard/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-u string   Supabase project URL
//	-k string   Supabase API (anon) key
//	-b string   token store backend: sqlite | keyring
//	-s string   path of the local SQLite store
//	-i int      online check interval in seconds
//	-l string   log level
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-u", "-k", "-b", "-s", "-i", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.SupabaseURL, "u", cfg.SupabaseURL, "Supabase project URL")
	fs.StringVar(&cfg.SupabaseAPIKey, "k", cfg.SupabaseAPIKey, "Supabase API key")
	fs.StringVar(&cfg.TokenBackend, "b", cfg.TokenBackend, "token store backend (sqlite|keyring)")
	fs.StringVar(&cfg.StorePath, "s", cfg.StorePath, "path of the local store")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug|info|warn|error)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
}
