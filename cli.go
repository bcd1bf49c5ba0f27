package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v2"

	"gr-rentals/config"
	"gr-rentals/dashboard"
	"gr-rentals/scraper/craigslist"
	"gr-rentals/services"
	"gr-rentals/storage"
	"gr-rentals/utils"
)

// scheduledRunTimeout bounds one scheduled scrape, fetch and upserts included.
const scheduledRunTimeout = 10 * time.Minute

// configLoader is config.Load in production; tests swap in a fixed Config.
type configLoader func() (*config.Config, error)

// env carries what every command needs. Config is loaded per command so that
// commands which never touch the database run without it.
type env struct {
	out        io.Writer
	loadConfig configLoader
	logger     *utils.Logger
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(out io.Writer, load configLoader, logger *utils.Logger) *cli.App {
	e := &env{out: out, loadConfig: load, logger: logger}
	app := &cli.App{
		Name:    "rentals",
		Usage:   "Grand Rapids rental listings: scrape, import, browse",
		Version: Version,
		Writer:  out,
		Commands: []*cli.Command{
			scrapeCmd(e),
			importCmd(e),
			exportCmd(e),
			templateCmd(e),
			summaryCmd(e),
			dashboardCmd(e),
			scheduleCmd(e),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

func (e *env) config() (*config.Config, error) {
	cfg, err := e.loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.LogLevel != "" {
		e.logger.SetLevel(cfg.LogLevel)
	}
	return cfg, nil
}

func (e *env) openStore(ctx context.Context, cfg *config.Config) (storage.ListingStore, error) {
	store, err := storage.Open(ctx, cfg.DatabaseURL, storage.DefaultOptions, e.logger)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// scrapeFeed runs one feed ingestion with its own connection.
func (e *env) scrapeFeed(ctx context.Context, cfg *config.Config) (int, error) {
	store, err := e.openStore(ctx, cfg)
	if err != nil {
		return 0, err
	}
	defer store.Close()

	ingestor := services.NewIngestor(craigslist.New(cfg, e.logger), store, e.logger)
	report, err := ingestor.IngestFeed(ctx)
	if err != nil {
		return report.Processed, err
	}
	return report.Processed, nil
}

func scrapeCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "scrape",
		Usage: "Fetch the Craigslist RSS feed and upsert every entry",
		Action: func(c *cli.Context) error {
			cfg, err := e.config()
			if err != nil {
				return err
			}
			n, err := e.scrapeFeed(c.Context, cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(e.out, "Upserted %d listings from Craigslist RSS.\n", n)
			return nil
		},
	}
}

func importCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Upsert rows from a manual CSV file",
		ArgsUsage: "<csv_path>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return cli.Exit("usage: rentals import <csv_path>", 2)
			}
			cfg, err := e.config()
			if err != nil {
				return err
			}
			store, err := e.openStore(c.Context, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			report, err := services.NewIngestor(nil, store, e.logger).IngestCSV(c.Context, c.Args().First())
			if err != nil {
				return err
			}
			fmt.Fprintf(e.out, "Manual import complete (%d rows).\n", report.Processed)
			return nil
		},
	}
}

func exportCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Write every stored listing to a CSV in the import format",
		ArgsUsage: "<csv_path>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return cli.Exit("usage: rentals export <csv_path>", 2)
			}
			path := c.Args().First()
			cfg, err := e.config()
			if err != nil {
				return err
			}
			store, err := e.openStore(c.Context, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			listings, err := store.FetchAll(c.Context)
			if err != nil {
				return err
			}
			services.SortListings(listings, "price", false)

			w, err := storage.NewCSVWriter(path)
			if err != nil {
				return err
			}
			if err := w.Write(listings); err != nil {
				_ = w.Close()
				return err
			}
			if err := w.Close(); err != nil {
				return err
			}
			fmt.Fprintf(e.out, "Exported %d listings to %s.\n", len(listings), path)
			return nil
		},
	}
}

func templateCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "template",
		Usage:     "Write an empty CSV with the import header",
		ArgsUsage: "<csv_path>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return cli.Exit("usage: rentals template <csv_path>", 2)
			}
			path := c.Args().First()
			w, err := storage.NewCSVWriter(path)
			if err != nil {
				return err
			}
			if err := w.Close(); err != nil {
				return err
			}
			fmt.Fprintf(e.out, "Wrote import template to %s.\n", path)
			return nil
		},
	}
}

func summaryCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "summary",
		Usage: "Print listing metrics and per-source counts",
		Action: func(c *cli.Context) error {
			cfg, err := e.config()
			if err != nil {
				return err
			}
			store, err := e.openStore(c.Context, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			listings, err := store.FetchAll(c.Context)
			if err != nil {
				return err
			}
			insights := services.NewInsightService(e.logger)
			insights.Print(e.out, insights.Generate(listings), services.CountBySource(listings))
			return nil
		},
	}
}

func dashboardCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "dashboard",
		Usage: "Serve the filterable listings dashboard",
		Action: func(c *cli.Context) error {
			cfg, err := e.config()
			if err != nil {
				return err
			}
			store, err := e.openStore(c.Context, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			srv, err := dashboard.NewServer(cfg, store, e.logger)
			if err != nil {
				return err
			}
			return srv.Run(c.Context)
		},
	}
}

func scheduleCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "schedule",
		Usage: "Run the scrape on SCRAPE_CRON until interrupted",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "now", Usage: "Also run one scrape immediately"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := e.config()
			if err != nil {
				return err
			}

			job := func(ctx context.Context) {
				ctx, cancel := context.WithTimeout(ctx, scheduledRunTimeout)
				defer cancel()
				n, err := e.scrapeFeed(ctx, cfg)
				if err != nil {
					e.logger.Error("[schedule] Scrape failed: %v", err)
					return
				}
				e.logger.Info("[schedule] Upserted %d listings from Craigslist RSS", n)
			}
			return e.runSchedule(c.Context, cfg.ScrapeCron, c.Bool("now"), job)
		},
	}
}

// runSchedule runs job on the cron expression until ctx is done. With runNow
// the first run happens in the foreground before the scheduler starts, so an
// interrupt during it is waited for like any scheduled run.
func (e *env) runSchedule(ctx context.Context, expr string, runNow bool, job func(context.Context)) error {
	sched := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.Recover(cron.PrintfLogger(e.logger)), cron.SkipIfStillRunning(cron.PrintfLogger(e.logger))),
	)
	if _, err := sched.AddFunc(expr, func() { job(ctx) }); err != nil {
		return fmt.Errorf("%w: SCRAPE_CRON %q: %v", utils.ErrConfig, expr, err)
	}

	if runNow {
		job(ctx)
		if ctx.Err() != nil {
			return nil
		}
	}

	e.logger.Info("[schedule] Scraping on %q (UTC)", expr)
	sched.Start()

	<-ctx.Done()
	e.logger.Info("[schedule] Stopping, waiting for a running scrape to finish")
	<-sched.Stop().Done()
	return nil
}
