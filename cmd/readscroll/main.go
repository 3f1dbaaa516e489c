package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/readscroll/internal/app"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	})

	if err := app.LoadEnvFiles(".env"); err != nil {
		log.Warn().Err(err).Msg("dotenv")
	}

	cfg, err := parseArgs(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log.Error().Err(err).Msg("invalid arguments")
		os.Exit(1)
	}

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err = run(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("run failed")
	}
	stop()
	os.Exit(exitCode(err))
}

// parseArgs builds the configuration. Explicit flags win over environment
// variables, which win over the config file. A single positional argument
// names the input file or URL.
func parseArgs(args []string) (app.Config, error) {
	var (
		flagCfg    app.Config
		configPath string
		envFile    string
	)
	fs := flag.NewFlagSet("readscroll", flag.ContinueOnError)
	fs.StringVar(&configPath, "config", os.Getenv("READSCROLL_CONFIG"), "Path to YAML or JSON config file (default "+app.DefaultConfigPath()+" when present)")
	fs.StringVar(&envFile, "env", "", "Additional dotenv file to load")
	fs.StringVar(&flagCfg.InputPath, "input", "", "Path to a saved HTML page")
	fs.StringVar(&flagCfg.URL, "url", "", "URL of the page to read")
	fs.StringVar(&flagCfg.OutputPath, "output", "", "Write the reader view here instead of stdout")
	fs.StringVar(&flagCfg.Format, "format", app.DefaultFormat, "Output format: html, text or pdf")
	fs.StringVar(&flagCfg.Strategy, "strategy", app.DefaultStrategy, "Extraction strategy: heuristic or library")
	fs.BoolVar(&flagCfg.PreserveUnlikely, "preserve-unlikely", false, "Keep nodes that look like navigation or comments")
	fs.BoolVar(&flagCfg.MultiCandidate, "multi-candidate", false, "Gather siblings of every strong candidate")
	fs.BoolVar(&flagCfg.IgnoreHints, "ignore-hints", false, "Score the whole body even when the page marks its main content")
	fs.StringVar(&flagCfg.PrefsBackend, "prefs.backend", app.DefaultBackend, "Preferences backend: sqlite, file or memory")
	fs.StringVar(&flagCfg.PrefsPath, "prefs.path", "", "Preferences database or file path")
	fs.StringVar(&flagCfg.PrefsPrefix, "prefs.prefix", "", "Preference key prefix")
	fs.StringVar(&flagCfg.CacheDir, "cache.dir", "", "Page cache directory")
	fs.DurationVar(&flagCfg.CacheMaxAge, "cache.maxAge", 0, "Purge cached pages older than this (e.g. 72h); 0 disables")
	fs.BoolVar(&flagCfg.CacheClear, "cache.clear", false, "Clear the page cache before fetching")
	fs.BoolVar(&flagCfg.CacheStrictPerms, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
	fs.BoolVar(&flagCfg.Scroll, "scroll", false, "Show the article in the auto-scrolling pager")
	fs.IntVar(&flagCfg.ScrollSpeed, "scroll.speed", 0, "Initial scroll speed 0-100")
	fs.IntVar(&flagCfg.ScrollRows, "scroll.rows", app.DefaultScrollRows, "Pager rows")
	fs.IntVar(&flagCfg.ScrollWidth, "scroll.width", app.DefaultWidth, "Pager width in columns")
	fs.StringVar(&flagCfg.UserAgent, "ua", "", "User-Agent for page fetches")
	fs.BoolVar(&flagCfg.Verbose, "v", false, "Verbose logging")
	if err := fs.Parse(args); err != nil {
		return app.Config{}, err
	}
	if fs.NArg() > 1 {
		return app.Config{}, fmt.Errorf("expected at most one input, got %d", fs.NArg())
	}
	if envFile != "" {
		if err := app.LoadEnvFiles(envFile); err != nil {
			return app.Config{}, err
		}
	}

	var cfg app.Config
	if configPath == "" {
		if p := app.DefaultConfigPath(); fileExists(p) {
			configPath = p
		}
	}
	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			return app.Config{}, fmt.Errorf("config %s: %w", configPath, err)
		}
		app.ApplyFileConfig(&cfg, fc)
		log.Debug().Str("path", configPath).Msg("config file loaded")
	}
	app.ApplyEnvOverrides(&cfg)

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	overlayFlags(&cfg, flagCfg, set)
	if fs.NArg() == 1 {
		app.SetSource(&cfg, fs.Arg(0))
	}
	app.ApplyDefaults(&cfg)
	return cfg, app.ValidateConfig(cfg)
}

// overlayFlags copies explicitly set flags into cfg.
func overlayFlags(cfg *app.Config, f app.Config, set map[string]bool) {
	// A source given on the command line replaces the configured one.
	if set["input"] || set["url"] { cfg.InputPath, cfg.URL = f.InputPath, f.URL }
	if set["output"] { cfg.OutputPath = f.OutputPath }
	if set["format"] { cfg.Format = f.Format }
	if set["strategy"] { cfg.Strategy = f.Strategy }
	if set["preserve-unlikely"] { cfg.PreserveUnlikely = f.PreserveUnlikely }
	if set["multi-candidate"] { cfg.MultiCandidate = f.MultiCandidate }
	if set["ignore-hints"] { cfg.IgnoreHints = f.IgnoreHints }
	if set["prefs.backend"] { cfg.PrefsBackend = f.PrefsBackend }
	if set["prefs.path"] { cfg.PrefsPath = f.PrefsPath }
	if set["prefs.prefix"] { cfg.PrefsPrefix = f.PrefsPrefix }
	if set["cache.dir"] { cfg.CacheDir = f.CacheDir }
	if set["cache.maxAge"] { cfg.CacheMaxAge = f.CacheMaxAge }
	if set["cache.clear"] { cfg.CacheClear = f.CacheClear }
	if set["cache.strictPerms"] { cfg.CacheStrictPerms = f.CacheStrictPerms }
	if set["scroll"] { cfg.Scroll = f.Scroll }
	if set["scroll.speed"] { cfg.ScrollSpeed = f.ScrollSpeed }
	if set["scroll.rows"] { cfg.ScrollRows = f.ScrollRows }
	if set["scroll.width"] { cfg.ScrollWidth = f.ScrollWidth }
	if set["ua"] { cfg.UserAgent = f.UserAgent }
	if set["v"] { cfg.Verbose = f.Verbose }
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}

func run(ctx context.Context, cfg app.Config) error {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	return a.Run(ctx)
}

// exitCode maps run errors: 2 when the page has no readable content, 1 for
// any other failure.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, app.ErrNoContent):
		return 2
	}
	return 1
}
