package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/erazemk/orodjarna/internal/config"
)

const usage = `Usage: orodjarna <command> [flags] [args]

Commands:
  serve                 run the Slack webhook and admin API
  ask <text>            answer one message locally and print the reply
  token <subject>       issue an admin API token
  revoke <token>        revoke an admin API token

Flags:
  -c, -config <path>      YAML config file (default: none)
  -d, -db <path>          SQLite database path (default: orodjarna.db, env ORODJARNA_DB)
  -a, -addr <host:port>   listen address for serve (default: :8080)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -t, -ttl <duration>     token lifetime for token (default: 720h)
  -h, -help               show this help and exit
`

// options are the flags shared by every command.
type options struct {
	configPath string
	dbPath     string
	addr       string
	logPath    string
	ttl        string
}

func parseFlags(name string, args []string) (*options, []string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprint(os.Stdout, usage) }

	o := &options{}
	fs.StringVar(&o.configPath, "config", "", "")
	fs.StringVar(&o.configPath, "c", "", "")
	fs.StringVar(&o.dbPath, "db", "", "")
	fs.StringVar(&o.dbPath, "d", "", "")
	fs.StringVar(&o.addr, "addr", "", "")
	fs.StringVar(&o.addr, "a", "", "")
	fs.StringVar(&o.logPath, "log", "", "")
	fs.StringVar(&o.logPath, "l", "", "")
	fs.StringVar(&o.ttl, "ttl", "", "")
	fs.StringVar(&o.ttl, "t", "", "")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return o, fs.Args(), nil
}

// loadConfig reads the config file and environment, then applies flags.
func (o *options) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.dbPath != "" {
		cfg.Server.DB = o.dbPath
	}
	if o.addr != "" {
		cfg.Server.Addr = o.addr
	}
	if o.logPath != "" {
		cfg.Server.Log = o.logPath
	}
	if o.ttl != "" {
		cfg.Admin.TokenTTL = o.ttl
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	name := os.Args[1]
	var run func(*config.Config, []string) error
	level := slog.LevelInfo
	switch name {
	case "serve":
		run = cmdServe
	case "ask":
		run = cmdAsk
		level = slog.LevelWarn
	case "token":
		run = cmdToken
	case "revoke":
		run = cmdRevoke
	case "-h", "-help", "--help", "help":
		fmt.Fprint(os.Stdout, usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n%s", name, usage)
		os.Exit(1)
	}

	opts, args, err := parseFlags(name, os.Args[2:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(1)
	}

	cfg, err := opts.loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	closeLog, err := setupLogger(cfg.Server.Log, level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	err = run(cfg, args)
	closeLog()
	if err != nil {
		slog.Error(name+" failed", "error", err)
		os.Exit(1)
	}
}
