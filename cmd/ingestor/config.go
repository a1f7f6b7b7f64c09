package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

const usage = `Usage: ingestor [--api_help] ADDRESS LOG

Listens on ADDRESS (host:port) and appends POST /log/ form fields
(debug, info, warning, error) to the LOG file.

Environment:
  LOG_LEVEL         diagnostic log level (debug, info, warn, error)
  API_HELP          "true" serves the help page on /
  SHUTDOWN_TIMEOUT  graceful shutdown timeout (default 5s)

Flags:
`

type Config struct {
	Address         string
	LogPath         string
	ServeHelp       bool
	LogLevel        logrus.Level
	ShutdownTimeout time.Duration
}

var errUsage = errors.New("usage")

// parseConfig reads positional arguments and flags (in any order), then
// applies environment overrides. Usage is printed to stderr on failure.
func parseConfig(args []string, getenv func(string) string, stderr io.Writer) (*Config, error) {
	cfg := &Config{
		LogLevel:        logrus.InfoLevel,
		ShutdownTimeout: 5 * time.Second,
	}

	fs := flag.NewFlagSet("ingestor", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	fs.BoolVar(&cfg.ServeHelp, "api_help", false, "Serve API help for this server on /")

	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			break
		}
		positional = append(positional, args[0])
		args = args[1:]
	}

	if len(positional) != 2 {
		fmt.Fprintf(stderr, "expected ADDRESS and LOG, got %d argument(s)\n", len(positional))
		fs.Usage()
		return nil, errUsage
	}
	cfg.Address, cfg.LogPath = positional[0], positional[1]

	if v := getenv("API_HELP"); v == "true" {
		cfg.ServeHelp = true
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		lvl, err := logrus.ParseLevel(v)
		if err != nil {
			fmt.Fprintf(stderr, "invalid LOG_LEVEL %q, using %s\n", v, cfg.LogLevel)
		} else {
			cfg.LogLevel = lvl
		}
	}
	if v := getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			fmt.Fprintf(stderr, "invalid SHUTDOWN_TIMEOUT %q, using %s\n", v, cfg.ShutdownTimeout)
		} else {
			cfg.ShutdownTimeout = d
		}
	}

	return cfg, nil
}
