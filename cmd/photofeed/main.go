package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"

	"github.com/thesavant42/photofeed/internal/api"
	"github.com/thesavant42/photofeed/internal/config"
	"github.com/thesavant42/photofeed/internal/db"
	"github.com/thesavant42/photofeed/internal/feed"
	"github.com/thesavant42/photofeed/internal/models"
	"github.com/thesavant42/photofeed/internal/ui"
)

type options struct {
	dbPath string
	print  bool
	search string
	pages  int
	prompt bool
	debug  bool
	clear  bool
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}

	opts, err := parseFlags(os.Args[1:], cfg)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		ui.PrintError(err.Error())
		os.Exit(2)
	}

	if err := run(cfg, opts); err != nil {
		if errors.Is(err, ui.ErrSpinnerCancelled) {
			os.Exit(130)
		}
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}

// parseFlags reads the command line; cfg supplies the defaults
func parseFlags(args []string, cfg config.Config) (options, error) {
	var opts options
	fs := flag.NewFlagSet("photofeed", flag.ContinueOnError)
	fs.StringVar(&opts.dbPath, "db", cfg.DBPath, "Path to SQLite cache database")
	fs.BoolVar(&opts.print, "print", false, "Print the feed as a table instead of opening the browser")
	fs.StringVar(&opts.search, "search", "", "Search term (implies -print)")
	fs.IntVar(&opts.pages, "pages", 1, "Number of pages to fetch and print, starting at page 1")
	fs.BoolVar(&opts.prompt, "prompt", false, "Ask for the search term interactively (implies -print)")
	fs.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	fs.BoolVar(&opts.clear, "clear-cache", false, "Delete the cached recent feed and exit")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	if opts.search != "" || opts.prompt {
		opts.print = true
	}
	if opts.pages < 1 {
		return options{}, fmt.Errorf("-pages must be at least 1")
	}
	return opts, nil
}

func run(cfg config.Config, opts options) error {
	logger, closeLog, err := newLogger(cfg, opts)
	if err != nil {
		return err
	}
	defer closeLog()

	database, err := db.New(opts.dbPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	if opts.clear {
		if err := database.Delete(feed.CacheKey); err != nil {
			return err
		}
		ui.PrintSuccess("Cache cleared")
		return nil
	}

	client := api.NewFlickrClient(logger, api.FlickrConfig{
		Endpoint: cfg.Endpoint,
		APIKey:   cfg.APIKey,
		Timeout:  cfg.Timeout,
	})
	recent := feed.NewController(models.ModeRecent, client, database, logger)
	search := feed.NewController(models.ModeSearch, client, nil, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if !opts.print {
		// Clear screen before launching the TUI (avoids a flash from the alt-screen transition)
		fmt.Print("\033[H\033[2J")
		return ui.RunBrowser(ctx, logger, recent, search)
	}

	if opts.prompt {
		query, err := ui.PromptForSearch(opts.search)
		if err != nil {
			return err
		}
		opts.search = query
	}
	if opts.search != "" {
		return printFeed(ctx, database, search, opts, func(ctx context.Context) error {
			return search.Search(ctx, opts.search)
		})
	}
	return printFeed(ctx, database, recent, opts, recent.LoadInitial)
}

// newLogger builds the process logger. The browser owns the terminal, so
// without a log file its output is discarded.
func newLogger(cfg config.Config, opts options) (*log.Logger, func(), error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid PHOTOFEED_LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}
	if opts.debug {
		level = log.DebugLevel
	}

	var w io.Writer = os.Stderr
	closeFn := func() {}
	switch {
	case cfg.LogFile != "":
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w = f
		closeFn = func() { f.Close() }
	case !opts.print:
		w = io.Discard
	}

	logger := log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		Prefix:          "photofeed",
	})
	return logger, closeFn, nil
}

// printFeed loads the first -pages pages and prints a table.
// With -prompt it offers further pages one at a time.
func printFeed(ctx context.Context, database *db.DB, ctrl *feed.Controller, opts options, first func(context.Context) error) error {
	err := ui.RunWithSpinner("Fetching photos...", func() error {
		return first(ctx)
	})
	if err != nil {
		if errors.Is(err, ui.ErrSpinnerCancelled) || len(ctrl.Snapshot().Items) == 0 {
			return err
		}
		// Cached items are still worth showing
		ui.PrintError(fmt.Sprintf("%v (showing cached photos)", err))
		if cachedAt, err := database.UpdatedAt(feed.CacheKey); err == nil && !cachedAt.IsZero() {
			ui.PrintSuccess("Cached at " + cachedAt.Local().Format("2006-01-02 15:04"))
		}
	}

	for page := 2; page <= opts.pages; page++ {
		if err := loadMore(ctx, ctrl, page); err != nil {
			return err
		}
	}

	s := ctrl.Snapshot()
	ui.PrintFeedHeader(ui.FeedTitle(ctrl.Mode(), s), s)
	ui.PrintPhotoTable(s)

	for opts.prompt && len(s.Items) > 0 {
		more, err := ui.ConfirmLoadMore(s.Page + 1)
		if err != nil || !more {
			break
		}
		before := len(s.Items)
		if err := loadMore(ctx, ctrl, s.Page+1); err != nil {
			return err
		}
		s = ctrl.Snapshot()
		ui.PrintPhotoTable(feed.State{Page: s.Page, Items: s.Items[before:]})
	}

	ui.PrintSuccess(fmt.Sprintf("%d photos across %d page(s)", len(s.Items), s.Page))
	return nil
}

func loadMore(ctx context.Context, ctrl *feed.Controller, page int) error {
	return ui.RunWithSpinner(fmt.Sprintf("Fetching page %d...", page), func() error {
		return ctrl.LoadMore(ctx)
	})
}
