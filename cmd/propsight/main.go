// Command propsight is a terminal client for the PropSight market API:
// listing search, regional summaries, tax estimates, and portfolio access,
// with the same response cache the SDK gives embedding applications.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/propsight/propsight-go/apiclient"
	"github.com/propsight/propsight-go/auth"
	"github.com/propsight/propsight-go/cache"
	"github.com/propsight/propsight-go/internal/config"
	"github.com/propsight/propsight-go/market"
	"github.com/propsight/propsight-go/portfolio"
)

const version = "0.1.0"

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if err := run(os.Args[1:], logger); err != nil {
		logger.Fatal().Err(err).Msg("command failed")
	}
}

func run(args []string, logger zerolog.Logger) error {
	if len(args) == 0 {
		usage()
		return nil
	}

	switch args[0] {
	case "help", "--help", "-h":
		usage()
		return nil
	case "version", "--version", "-v":
		fmt.Println("propsight v" + version)
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Verbose {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}

	app, err := newApp(cfg, logger)
	if err != nil {
		return err
	}

	ctx := context.Background()
	switch args[0] {
	case "search":
		if len(args) < 2 {
			return fmt.Errorf("usage: propsight search <query>")
		}
		return app.search(ctx, args[1])
	case "summary":
		if len(args) < 2 {
			return fmt.Errorf("usage: propsight summary <region>")
		}
		return app.summary(ctx, args[1])
	case "taxes":
		if len(args) < 3 {
			return fmt.Errorf("usage: propsight taxes <region> <price>")
		}
		price, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid price %q: %w", args[2], err)
		}
		return app.taxes(ctx, args[1], price)
	case "portfolio":
		return app.portfolioList(ctx)
	case "cache-clear":
		app.clearCache()
		return nil
	default:
		return fmt.Errorf("unknown command: %s (try 'propsight help')", args[0])
	}
}

func usage() {
	fmt.Println("Usage: propsight <command> [args]")
	fmt.Println("Commands:")
	fmt.Println("  search <query>          Search listings")
	fmt.Println("  summary <region>        Show the market summary for a region")
	fmt.Println("  taxes <region> <price>  Estimate yearly taxes for a purchase price")
	fmt.Println("  portfolio               List your portfolio properties")
	fmt.Println("  cache-clear             Drop every cached response")
	fmt.Println("  version                 Print the version")
	fmt.Println("Environment:")
	fmt.Println("  PROPSIGHT_BASE_URL      API base URL")
	fmt.Println("  PROPSIGHT_TOKEN         Bearer token for authenticated calls")
	fmt.Println("  PROPSIGHT_CACHE_DIR     Response cache directory (default ~/.propsight/cache)")
	fmt.Println("  PROPSIGHT_REDIS_ADDR    Use redis for the response cache instead of files")
	fmt.Println("  PROPSIGHT_NO_CACHE      Disable the response cache entirely")
}

// app wires the SDK pieces together for the CLI commands.
type app struct {
	market    *market.Service
	portfolio *portfolio.Service
	store     *cache.Store
	log       zerolog.Logger
}

func newApp(cfg config.Config, logger zerolog.Logger) (*app, error) {
	opts := []apiclient.Option{
		apiclient.WithTimeout(cfg.Timeout()),
		apiclient.WithMaxRetries(cfg.MaxRetries),
		apiclient.WithRetryDelay(cfg.RetryDelay()),
		apiclient.WithLogger(logger),
	}
	if cfg.Token != "" {
		opts = append(opts, apiclient.WithTokenProvider(auth.StaticToken(cfg.Token)))
	}
	client, err := apiclient.New(cfg.BaseURL, opts...)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	marketOpts := []market.Option{market.WithLogger(logger)}
	pfOpts := []portfolio.Option{portfolio.WithLogger(logger)}
	if store != nil {
		marketOpts = append(marketOpts, market.WithStore(store))
		pfOpts = append(pfOpts, portfolio.WithStore(store))
	}

	return &app{
		market:    market.New(client, marketOpts...),
		portfolio: portfolio.New(client, pfOpts...),
		store:     store,
		log:       logger,
	}, nil
}

// buildStore picks the cache medium: redis when configured, files otherwise,
// nothing when caching is disabled.
func buildStore(cfg config.Config, logger zerolog.Logger) (*cache.Store, error) {
	if cfg.NoCache {
		return nil, nil
	}
	var backend cache.Backend
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		backend = cache.NewRedisBackend(client, time.Second)
	} else {
		fb, err := cache.NewFileBackend(cfg.CacheDir)
		if err != nil {
			return nil, fmt.Errorf("open cache dir: %w", err)
		}
		backend = fb
	}
	return cache.NewStore(backend, cache.WithLogger(logger)), nil
}

func (a *app) search(ctx context.Context, query string) error {
	listings, err := a.market.Search(ctx, market.SearchQuery{Query: query})
	if err != nil {
		return err
	}
	if len(listings) == 0 {
		fmt.Println("No listings found.")
		return nil
	}
	for _, l := range listings {
		fmt.Printf("%-10s %-30s %-12s $%d  %db/%.1fba  %d sqft\n",
			l.ID, l.Address, l.City, l.Price, l.Beds, l.Baths, l.SquareFeet)
	}
	return nil
}

func (a *app) summary(ctx context.Context, region string) error {
	s, err := a.market.Summary(ctx, region)
	if err != nil {
		return err
	}
	fmt.Printf("Market summary for %s\n", s.Region)
	fmt.Printf("  Median price:     $%d\n", s.MedianPrice)
	fmt.Printf("  Price per sqft:   $%.0f\n", s.PricePerSqft)
	fmt.Printf("  Active listings:  %d\n", s.ActiveListings)
	fmt.Printf("  Sold last 30d:    %d\n", s.SoldLast30Days)
	fmt.Printf("  YoY change:       %+.1f%%\n", s.YearOverYearPct)
	return nil
}

func (a *app) taxes(ctx context.Context, region string, price int64) error {
	rates, err := a.market.TaxRates(ctx, region)
	if err != nil {
		return err
	}

	taxable := price - rates.HomesteadExempt
	if taxable < 0 {
		taxable = 0
	}
	yearly := float64(taxable) * rates.PropertyTaxPct / 100
	transfer := float64(price) * rates.TransferTaxPct / 100

	fmt.Printf("Tax estimate for a $%d purchase in %s\n", price, rates.Region)
	fmt.Printf("  Property tax:  $%.0f/year (%.2f%% after $%d exemption)\n",
		yearly, rates.PropertyTaxPct, rates.HomesteadExempt)
	fmt.Printf("  Transfer tax:  $%.0f one-time (%.2f%%)\n", transfer, rates.TransferTaxPct)
	return nil
}

func (a *app) portfolioList(ctx context.Context) error {
	properties, err := a.portfolio.List(ctx)
	if err != nil {
		if apiclient.IsAuthError(err) {
			return fmt.Errorf("not authenticated: set PROPSIGHT_TOKEN and retry")
		}
		return err
	}
	if len(properties) == 0 {
		fmt.Println("Portfolio is empty.")
		return nil
	}
	for _, p := range properties {
		fmt.Printf("%-10s %-30s bought $%d, now $%d\n",
			p.ID, p.Address, p.PurchasePrice, p.CurrentValue)
	}
	return nil
}

func (a *app) clearCache() {
	if a.store == nil {
		fmt.Println("Cache is disabled.")
		return
	}
	a.store.ClearAll()
	fmt.Println("Cache cleared.")
}
