package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/maltedev/marketplace-scraper/internal/browser"
	"github.com/maltedev/marketplace-scraper/internal/collector"
	"github.com/maltedev/marketplace-scraper/internal/config"
	"github.com/maltedev/marketplace-scraper/internal/database"
	"github.com/maltedev/marketplace-scraper/internal/events"
	"github.com/maltedev/marketplace-scraper/internal/extract"
	"github.com/maltedev/marketplace-scraper/internal/marketplace"
	"github.com/maltedev/marketplace-scraper/internal/models"
	"github.com/maltedev/marketplace-scraper/internal/ratelimit"
	"github.com/maltedev/marketplace-scraper/internal/storage"
	"github.com/maltedev/marketplace-scraper/pkg/stringutil"
)

var collectFlags struct {
	niche    string
	max      int
	out      string
	headless bool
}

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Log in, search the niche and save structured listings as JSON",
	RunE:  runCollect,
}

func init() {
	collectCmd.Flags().StringVar(&collectFlags.niche, "niche", config.DefaultNiche, "search term")
	collectCmd.Flags().IntVar(&collectFlags.max, "max", config.DefaultMaxProducts, "maximum number of products")
	collectCmd.Flags().StringVar(&collectFlags.out, "out", "marketplace_products.json", "output file")
	collectCmd.Flags().BoolVar(&collectFlags.headless, "headless", false, "run the browser without a window")
	rootCmd.AddCommand(collectCmd)
}

// applyCollectFlags lets explicitly set flags win over the environment.
func applyCollectFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("niche") {
		c.Marketplace.Niche = collectFlags.niche
	}
	if flags.Changed("max") {
		c.Marketplace.MaxProducts = collectFlags.max
	}
	if flags.Changed("out") {
		c.Marketplace.OutputFile = collectFlags.out
	}
	if flags.Changed("headless") {
		c.Browser.Headless = collectFlags.headless
	}
}

func browserOptions(c *config.Config) *browser.Options {
	opts := browser.DefaultOptions()
	opts.Headless = c.Browser.Headless
	opts.SlowMo = c.Browser.SlowMo
	opts.Timeout = c.Browser.NavigationTimeout
	opts.UserAgent = c.Browser.UserAgent
	opts.ViewportWidth = c.Browser.ViewportWidth
	opts.ViewportHeight = c.Browser.ViewportHeight
	opts.Locale = c.Browser.Locale
	return opts
}

func runCollect(cmd *cobra.Command, args []string) error {
	applyCollectFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.ValidateCredentials(); err != nil {
		fmt.Fprintln(os.Stderr, "Run `marketplace doctor` to check your setup.")
		return err
	}

	ctx := cmd.Context()
	printRunHeader(cfg)

	extractor, err := extract.New(ctx, cfg.LLM)
	if err != nil {
		return fmt.Errorf("failed to create %s extractor: %w", cfg.LLM.Provider, err)
	}
	defer extractor.Close()

	sinks, closeSinks := openSinks(ctx, cfg)
	defer closeSinks()

	open := func(ctx context.Context) (collector.Session, error) {
		client, err := marketplace.Open(browserOptions(cfg), marketplace.OptionsFromConfig(cfg), log)
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	store := storage.NewRunStore(cfg.Marketplace.OutputFile)
	pipeline := collector.New(open, extractor, store, log,
		collector.WithSinks(sinks...),
		collector.WithLimiter(ratelimit.NewDelay(cfg.Pipeline.ItemDelay).WithJitter(cfg.Pipeline.ItemJitter)),
		collector.WithPromptLimit(cfg.Pipeline.PromptHTMLLimit),
		collector.WithExtractTimeout(cfg.LLM.Timeout),
	)

	run, err := pipeline.Run(ctx, collector.Request{
		Niche:       cfg.Marketplace.Niche,
		MaxProducts: cfg.Marketplace.MaxProducts,
		Email:       cfg.Marketplace.Email,
		Password:    cfg.Marketplace.Password,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Println("\nInterrupted.")
		}
		return err
	}

	printRunSummary(run, store.Path())
	return nil
}

// openSinks connects the optional archive and event stream. A sink that
// cannot connect is skipped.
func openSinks(ctx context.Context, c *config.Config) ([]collector.Sink, func()) {
	var sinks []collector.Sink
	var closers []func()

	if c.Database.URL != "" {
		db, err := database.New(ctx, c.Database.URL, database.DefaultPoolConfig())
		if err != nil {
			log.Warn("postgres archive disabled", "error", err)
		} else {
			archive := database.NewArchive(db, log)
			if err := archive.EnsureSchema(ctx); err != nil {
				log.Warn("postgres archive disabled", "error", err)
				db.Close()
			} else {
				sinks = append(sinks, archive)
				closers = append(closers, db.Close)
			}
		}
	}

	if c.Redis.Addr != "" {
		client, err := events.NewRedisClient(ctx, c.Redis.Addr, c.Redis.Password, c.Redis.DB)
		if err != nil {
			log.Warn("event stream disabled", "error", err)
		} else {
			publisher := events.NewPublisher(client, c.Redis.Stream, log)
			sinks = append(sinks, publisher)
			closers = append(closers, func() { publisher.Close() })
		}
	}

	return sinks, func() {
		for _, closeFn := range closers {
			closeFn()
		}
	}
}

func printRunHeader(c *config.Config) {
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("Facebook Marketplace Scraper")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Niche: %s\n", c.Marketplace.Niche)
	fmt.Printf("Max products: %d\n", c.Marketplace.MaxProducts)
	fmt.Printf("Model provider: %s\n", c.LLM.Provider)
	fmt.Println(strings.Repeat("=", 60))
}

func printRunSummary(run *models.RunResult, path string) {
	if run.TotalProducts == 0 {
		fmt.Println("\nNo products were scraped.")
		fmt.Printf("Empty result saved to: %s\n", path)
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("Scraped %d products (%s)", run.TotalProducts, run.Niche))
	t.AppendHeader(table.Row{"#", "Title", "Price", "URL"})
	for i, p := range run.Products {
		t.AppendRow(table.Row{i + 1, stringutil.TruncateWithEllipsis(p.Title, 40, "..."), p.Price, p.URL})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()

	fmt.Printf("\n✓ Results saved to: %s\n", path)
	fmt.Println("Next: marketplace webformat")
}
