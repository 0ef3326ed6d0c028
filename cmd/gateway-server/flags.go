package main

import (
	"flag"
	"fmt"
	"os"
)

// version is injected at build time with -ldflags "-X main.version=...".
var version = "dev"

// cliConfig holds user-supplied flag values prior to overlaying them onto
// the loaded config.Config, mirroring a cliConfig/parseFlags split
// between this file and main.go.
type cliConfig struct {
	configPath  string
	listenIP    string
	logLevel    string
	showVersion bool
}

func parseFlags(args []string) (*cliConfig, error) {
	fs := flag.NewFlagSet("gateway-server", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	cfg := &cliConfig{}
	fs.StringVar(&cfg.configPath, "config", "", "path to YAML configuration file (optional)")
	fs.StringVar(&cfg.listenIP, "listen-ip", "", "UDP listen IP, overrides config listen_ip")
	fs.StringVar(&cfg.logLevel, "log-level", "", "log level: debug|info|warn|error, overrides config log_level")
	fs.BoolVar(&cfg.showVersion, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.logLevel != "" {
		switch cfg.logLevel {
		case "debug", "info", "warn", "error":
		default:
			return nil, fmt.Errorf("invalid log-level %q", cfg.logLevel)
		}
	}

	return cfg, nil
}
