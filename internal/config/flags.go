package config

import (
	"flag"
	"os"

	"github.com/snakecogs/cogvault/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   data directory for the JSON stores
//	-p string   command prefix
//	-l string   log file path
//	-v string   log level (debug, info, warn, error)
//	-items string  armorsmith catalog file
//
// The function filters os.Args to only include the flags it knows
// about, using flagx.FilterArgs, to avoid interference with other
// components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-p", "-l", "-v", "-items"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory for the JSON stores")
	fs.StringVar(&cfg.Prefix, "p", cfg.Prefix, "command prefix")
	fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "log file path")
	fs.StringVar(&cfg.LogLevel, "v", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.CatalogFile, "items", cfg.CatalogFile, "armorsmith catalog file")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
