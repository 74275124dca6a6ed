package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/wtask/relay/internal/logging"
)

type (
	// Configuration - server configuration
	Configuration struct {
		// Port - bind the port, the only positional argument
		Port uint16
		// WriteTimeout - max duration of writing one line to a client
		WriteTimeout time.Duration
		// WebsocketAddress - optional host:port of websocket endpoint
		WebsocketAddress string
		// LogLevel - minimal level of log entries
		LogLevel logging.LogLevel
		// LogDevelopment - switches logger into development mode
		LogDevelopment bool
	}
)

const (
	envLogLevel       = "CHAT_LOG_LEVEL"
	envLogDevelopment = "CHAT_LOG_DEVELOPMENT"
	envWriteTimeout   = "CHAT_WRITE_TIMEOUT"
	envWebsocketAddr  = "CHAT_WS_ADDR"
)

var (
	// BinaryName - name of run application binary
	BinaryName = strings.TrimSuffix(filepath.Base(os.Args[0]), filepath.Ext(os.Args[0]))

	// Version - app version fingerprint, may be overwritten with -ldflags
	Version = "0.4.0"

	errHelp = errors.New("help requested")
)

// parseConfig - builds configuration from command line arguments (without program name) and environment.
func parseConfig(args []string, getenv func(string) string, out io.Writer) (Configuration, error) {
	config := Configuration{
		WriteTimeout: 30 * time.Second,
		LogLevel:     logging.InfoLevel,
	}

	fs := flag.NewFlagSet(BinaryName, flag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() {
		fmt.Fprintf(out, "Launch text chat relay over TCP\n\n\t%s [options] <port>\n\nOptions:\n\n", BinaryName)
		fs.PrintDefaults()
		fmt.Fprintf(out, "\nEnvironment (also read from .env):\n\n")
		fmt.Fprintf(out, "\t%s\tdebug|info|warn|error, default info\n", envLogLevel)
		fmt.Fprintf(out, "\t%s\ttrue enables development logging\n", envLogDevelopment)
		fmt.Fprintf(out, "\t%s\tper-line write timeout, default 30s\n", envWriteTimeout)
		fmt.Fprintf(out, "\t%s\toptional host:port to serve websocket clients on /ws\n\n", envWebsocketAddr)
	}
	help := false
	fs.BoolVar(&help, "help", false, "Print usage help")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return config, errHelp
		}
		return config, err
	}
	if help {
		fs.Usage()
		return config, errHelp
	}

	if fs.NArg() != 1 {
		return config, errors.Errorf("exactly one port argument is expected, got %d", fs.NArg())
	}
	port, err := strconv.ParseUint(fs.Arg(0), 10, 16)
	if err != nil || port == 0 {
		return config, errors.Errorf("invalid port %q", fs.Arg(0))
	}
	config.Port = uint16(port)

	if v := getenv(envLogLevel); v != "" {
		config.LogLevel = logging.ParseLevel(v)
	}
	if v := getenv(envLogDevelopment); v != "" {
		dev, err := strconv.ParseBool(v)
		if err != nil {
			return config, errors.Wrapf(err, "invalid %s", envLogDevelopment)
		}
		config.LogDevelopment = dev
	}
	if v := getenv(envWriteTimeout); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return config, errors.Wrapf(err, "invalid %s", envWriteTimeout)
		}
		if timeout <= 0 {
			return config, errors.Errorf("%s value should be greater 0", envWriteTimeout)
		}
		config.WriteTimeout = timeout
	}
	config.WebsocketAddress = getenv(envWebsocketAddr)

	return config, nil
}

// configure - loads .env (if present) and parses process arguments, exits on failure.
func configure() Configuration {
	out := os.Stderr
	if err := godotenv.Load(); err != nil && !os.IsNotExist(errors.Cause(err)) {
		fmt.Fprintf(out, "%s (v%s) warning: can't load .env: %v\n", BinaryName, Version, err)
	}

	config, err := parseConfig(os.Args[1:], os.Getenv, out)
	switch {
	case err == errHelp:
		os.Exit(0)
	case err != nil:
		fmt.Fprintf(out, "%s (v%s) error:\n\n\t%s\n\nRun %s -help for usage.\n", BinaryName, Version, err, BinaryName)
		os.Exit(1)
	}
	return config
}
