package main

import (
	"context"
	"fmt"
	"kickelo/internal/config"
	"kickelo/internal/envfile"
	"kickelo/internal/logger"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"
)

const version string = "0.3"

func usage() {
	fmt.Printf("Usage: kickelo [OPTION]... COMMAND\n\n")
	fmt.Printf("Offline access to the kickelo rating engine. Matches are read from the\n")
	fmt.Printf("local database, or from an exported matches JSON file when --file is set.\n\n")
	fmt.Printf("Commands:\n")
	fmt.Printf("  stats     print the leaderboard of the selected season\n")
	fmt.Printf("  suggest   suggest the next match for the given players\n")
	fmt.Printf("  import    store the matches of --file in the local database\n")

	fmt.Printf("\n")
	flag.PrintDefaults()
	fmt.Printf("\n")
}

type options struct {
	file            string
	dbPath          string
	season          string
	players         []string
	jsonOut         bool
	includeInactive bool
	verbose         bool
}

func main() {
	var opts options
	flag.StringVarP(&opts.file, "file", "f", "", "Exported matches JSON file (the /api/matches format).")
	flag.StringVar(&opts.dbPath, "db", "", "SQLite database path. Defaults to DB_PATH.")
	flag.StringVarP(&opts.season, "season", "s", "", "Season id, e.g. \"all-time\". Defaults to the\ncurrent season.")
	flag.StringSliceVarP(&opts.players, "players", "p", nil, "Comma separated active players for suggest.\nDefaults to the stored session.")
	flag.BoolVar(&opts.jsonOut, "json", false, "Write JSON instead of a table.")
	flag.BoolVarP(&opts.includeInactive, "all", "a", false, "Include inactive players in the leaderboard.")
	flag.BoolVarP(&opts.verbose, "verbose", "v", false, "Log progress to stderr.")
	flag.CommandLine.SortFlags = false
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}

	if err := envfile.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
	if opts.dbPath != "" {
		cfg.DBPath = opts.dbPath
	}
	if opts.season != "" {
		cfg.SeasonID = opts.season
	}

	level := zerolog.WarnLevel
	if opts.verbose {
		level = zerolog.DebugLevel
	}

	app := &cli{
		cfg:    cfg,
		opts:   opts,
		logger: logger.Console(level),
		out:    os.Stdout,
		errOut: os.Stderr,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch flag.Arg(0) {
	case "stats":
		err = app.stats(ctx)
	case "suggest":
		err = app.suggest(ctx)
	case "import":
		err = app.importMatches(ctx)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}
