package config

import (
	"flag"
	"os"
	"time"

	"github.com/avlasov/securevault/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the vault API server (default from Config)
//	-i int      username-check debounce in milliseconds (default from Config)
//	-d string   path to the session database file
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-i", "-d"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerBaseURL, "a", cfg.ServerBaseURL, "base URL of the vault API server")
	debounceMs := fs.Int("i", int(cfg.CheckDebounce.Milliseconds()), "username check debounce (in milliseconds)")
	fs.StringVar(&cfg.SessionDBPath, "d", cfg.SessionDBPath, "path to the session database file")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.CheckDebounce = time.Duration(*debounceMs) * time.Millisecond
}
