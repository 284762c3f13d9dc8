package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/goccy/go-json"

	"rallyrank/internal/back"
	"rallyrank/internal/config"
	"rallyrank/internal/logging"
)

// Version holds the build-time version string.
var Version = "unknown" // nolint:gochecknoglobals

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, help()) }
	flag.Parse()

	if err := run(*configPath, flag.Args()); err != nil {
		logging.Error().Err(err).Msg("fatal")
		os.Exit(1)
	}
}

func run(configPath string, args []string) error {
	var command string
	if len(args) > 0 {
		command = args[0]
	}

	switch command {
	case "version":
		fmt.Fprintf(os.Stdout, "RallyRank %s\n", Version)
		return nil
	case "help":
		fmt.Fprint(os.Stdout, help())
		return nil
	case "serve", "migrate", "dev:fixtures", "dev:check":
	default:
		fmt.Fprint(os.Stderr, help())
		os.Exit(1)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	if err := back.Migrate(cfg.Database.Path); err != nil {
		return err
	}

	switch command {
	case "serve":
		return serve(cfg)
	case "dev:fixtures":
		return loadFixtures(cfg, args[1:])
	case "dev:check":
		return checkConsistency(cfg)
	}

	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}

	return config.Load()
}

func openBack(cfg *config.Config, publisher back.Publisher) (*back.Back, error) {
	return back.New(cfg.Database.Path, back.Options{
		K:             cfg.Rating.K,
		DefaultRating: cfg.Rating.Default,
		CheckInterval: cfg.Maintenance.Interval,
		Publisher:     publisher,
	})
}

func loadFixtures(cfg *config.Config, args []string) error {
	players, games := 12, 150
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid player count %q: %w", args[0], err)
		}
		players = v
	}
	if len(args) > 1 {
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid game count %q: %w", args[1], err)
		}
		games = v
	}

	b, err := openBack(cfg, nil)
	if err != nil {
		return err
	}
	defer b.Close()

	return b.LoadFixtures(context.Background(), players, games)
}

func checkConsistency(cfg *config.Config) error {
	b, err := openBack(cfg, nil)
	if err != nil {
		return err
	}
	defer b.Close()

	drifts, err := b.CheckConsistency(context.Background())
	if err != nil {
		return err
	}

	if len(drifts) == 0 {
		fmt.Fprintln(os.Stdout, "all ratings match their game history")
		return nil
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(drifts); err != nil {
		return err
	}

	return fmt.Errorf("%d player(s) drifted from their game history", len(drifts))
}

func help() string {
	return fmt.Sprintf(`
RallyRank keeps Elo ratings for head-to-head games, adjusted by the score
margin, and lets past games be edited or deleted without breaking them.

Usage: %[1]s [-config FILE] COMMAND [ARGS…]

COMMANDS
    serve                          run the HTTP API
    migrate                        bring the database schema up to date
    dev:fixtures [PLAYERS] [GAMES] create random players and games
    dev:check                      list players whose rating drifted
    help                           display this help
    version                        display the current version

The configuration is read from -config, $%[2]s, ./rallyrank.yaml or the
user configuration directory, then overridden by RALLYRANK_* variables.
`,
		os.Args[0], config.PathEnvVar,
	)
}
