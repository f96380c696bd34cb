package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/pricewatch/hardgamers-watcher/config"
	"github.com/pricewatch/hardgamers-watcher/internal/alert"
	"github.com/pricewatch/hardgamers-watcher/internal/crawler"
	"github.com/pricewatch/hardgamers-watcher/internal/models"
	"github.com/pricewatch/hardgamers-watcher/internal/price"
	"github.com/pricewatch/hardgamers-watcher/internal/storage"
	"github.com/pricewatch/hardgamers-watcher/logger"
	apperrors "github.com/pricewatch/hardgamers-watcher/pkg/errors"
	"github.com/pricewatch/hardgamers-watcher/services/cache"
	"github.com/pricewatch/hardgamers-watcher/services/publisher"
	"github.com/pricewatch/hardgamers-watcher/services/worker"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
)

var errUsage = errors.New("usage")

// color output switches itself off when stdout is not a terminal
var (
	heading = color.New(color.Bold)
	hit     = color.New(color.FgGreen)
	miss    = color.New(color.FgYellow)
)

const usage = `usage: pricewatch <command> [arguments]

commands:
  featured                       list the featured products
  search <text>                  search the site
  history <text>                 search products seen before
  recent [n]                     show the last n products seen (default 20)
  alerts                         list alerts
  alert-add <target|auto> <text> create an alert; auto uses 90% of the cheapest price
  alert-toggle <id>              activate / deactivate an alert
  alert-delete <id>              delete an alert
  check [id]                     check one alert, or every active alert
  summary                        count alerts by state
  watch                          check active alerts periodically and publish triggers
`

func printUsage(w io.Writer) {
	fmt.Fprint(w, usage)
}

// Services holds the optional trigger sink services
type Services struct {
	Cache     cache.CacheService
	Publisher publisher.Publisher
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
}

// App wires the listing, alert and storage components together
type App struct {
	cfg      *config.Config
	db       *storage.DB
	listing  *crawler.ListingService
	alerts   *alert.Service
	products *storage.ProductRepository
	out      io.Writer
	log      *logger.Logger
}

func newApp(ctx context.Context, cfg *config.Config, out io.Writer) (*App, error) {
	db, err := storage.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	listing, err := crawler.CreateListingService(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	engine := alert.NewEngine(listing, cfg.AlertPacing, logger.ForAlerts())

	return &App{
		cfg:      cfg,
		db:       db,
		listing:  listing,
		alerts:   alert.NewService(db.Alerts(), engine, logger.ForAlerts()),
		products: db.Products(),
		out:      out,
		log:      logger.Default,
	}, nil
}

// Close releases the database
func (a *App) Close() error {
	return a.db.Close()
}

// Run dispatches one command
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "featured":
		return a.featured(ctx)
	case "search":
		return a.search(ctx, strings.Join(rest, " "))
	case "history":
		return a.history(ctx, strings.Join(rest, " "))
	case "recent":
		return a.recent(ctx, rest)
	case "alerts":
		return a.listAlerts(ctx)
	case "alert-add":
		return a.addAlert(ctx, rest)
	case "alert-toggle":
		return a.toggleAlert(ctx, rest)
	case "alert-delete":
		return a.deleteAlert(ctx, rest)
	case "check":
		return a.check(ctx, rest)
	case "summary":
		return a.summary(ctx)
	case "watch":
		return a.watch(ctx)
	case "help", "-h", "--help":
		printUsage(a.out)
		return nil
	default:
		return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}
}

func (a *App) featured(ctx context.Context) error {
	products, err := a.listing.FetchFeatured(ctx)
	if err != nil {
		return err
	}

	a.remember(ctx, products)
	if len(products) == 0 {
		fmt.Fprintln(a.out, "No featured products found.")
		return nil
	}

	heading.Fprintf(a.out, "=== FEATURED PRODUCTS (%d) ===\n", len(products))
	a.printProducts(products)
	return nil
}

func (a *App) search(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("search text is required: %w", errUsage)
	}

	products, err := a.listing.Search(ctx, text)
	if err != nil {
		return err
	}

	a.remember(ctx, products)
	if len(products) == 0 {
		fmt.Fprintf(a.out, "No products found for %q.\n", text)
		return nil
	}

	heading.Fprintf(a.out, "=== RESULTS FOR %q (%d) ===\n", text, len(products))
	a.printProducts(products)

	if target, ok := alert.SuggestTarget(products); ok {
		fmt.Fprintf(a.out, "\nSuggested alert target: %s (pricewatch alert-add auto %s)\n", price.Format(target), text)
	}
	return nil
}

func (a *App) history(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("search text is required: %w", errUsage)
	}

	products, err := a.products.SearchByTitle(ctx, strings.TrimSpace(text))
	if err != nil {
		return err
	}
	if len(products) == 0 {
		fmt.Fprintf(a.out, "No stored products match %q.\n", text)
		return nil
	}

	a.printProducts(products)
	return nil
}

func (a *App) recent(ctx context.Context, args []string) error {
	limit := 20
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("invalid count %q: %w", args[0], errUsage)
		}
		limit = n
	}

	products, err := a.products.Recent(ctx, limit)
	if err != nil {
		return err
	}
	if len(products) == 0 {
		fmt.Fprintln(a.out, "No products stored yet.")
		return nil
	}

	a.printProducts(products)
	return nil
}

func (a *App) listAlerts(ctx context.Context) error {
	alerts, err := a.alerts.List(ctx)
	if err != nil {
		return err
	}
	if len(alerts) == 0 {
		fmt.Fprintln(a.out, "No alerts configured.")
		return nil
	}

	heading.Fprintf(a.out, "=== ALERTS (%d) ===\n", len(alerts))
	a.printAlerts(alerts)
	return nil
}

func (a *App) addAlert(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("alert-add needs a target and a search text: %w", errUsage)
	}
	text := strings.Join(args[1:], " ")

	amount, err := a.targetPrice(ctx, args[0], text)
	if err != nil {
		return err
	}

	created, err := a.alerts.Create(ctx, text, amount)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Alert %d created: %q at or below %s\n", created.ID, created.SearchText, price.Format(created.TargetPrice))
	return nil
}

// targetPrice parses raw like a listing price, or derives it from a fresh search when raw is "auto"
func (a *App) targetPrice(ctx context.Context, raw, text string) (decimal.Decimal, error) {
	if raw != "auto" {
		return price.Parse(raw)
	}

	products, err := a.listing.Search(ctx, text)
	if err != nil {
		return decimal.Zero, err
	}

	suggested, ok := alert.SuggestTarget(products)
	if !ok {
		return decimal.Zero, fmt.Errorf("no products found for %q to suggest a target", text)
	}

	fmt.Fprintf(a.out, "Cheapest listed price: %s\n", price.Format(minPrice(products)))
	return suggested, nil
}

func (a *App) toggleAlert(ctx context.Context, args []string) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}

	updated, err := a.alerts.Toggle(ctx, id)
	if apperrors.IsNotFound(err) {
		miss.Fprintf(a.out, "Alert %d not found.\n", id)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Alert %d %s\n", id, status(updated.IsActive))
	return nil
}

func (a *App) deleteAlert(ctx context.Context, args []string) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}

	deleted, err := a.alerts.Delete(ctx, id)
	if err != nil {
		return err
	}

	if deleted {
		fmt.Fprintf(a.out, "Alert %d deleted\n", id)
	} else {
		miss.Fprintf(a.out, "Alert %d not found.\n", id)
	}
	return nil
}

func (a *App) check(ctx context.Context, args []string) error {
	if len(args) > 0 {
		id, err := parseID(args)
		if err != nil {
			return err
		}

		result, err := a.alerts.Check(ctx, id)
		if apperrors.IsNotFound(err) {
			miss.Fprintf(a.out, "Alert %d not found.\n", id)
			return nil
		}
		if err != nil {
			return err
		}

		a.printResult(id, result)
		return nil
	}

	alerts, results, err := a.alerts.CheckActive(ctx)
	for _, al := range alerts {
		if result, ok := results[al.ID]; ok {
			a.printResult(al.ID, result)
		}
	}
	if err != nil {
		return err
	}

	if len(alerts) == 0 {
		fmt.Fprintln(a.out, "No active alerts to check.")
		return nil
	}
	fmt.Fprintf(a.out, "\nChecked %d alerts, %d products at or below target.\n", len(results), results.TotalTriggered())
	return nil
}

func (a *App) summary(ctx context.Context) error {
	summary, err := a.alerts.Summary(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Total: %d  Active: %d  Inactive: %d\n", summary.Total, summary.Active, summary.Inactive)
	if len(summary.Alerts) > 0 {
		fmt.Fprintln(a.out)
		a.printAlerts(summary.Alerts)
	}
	return nil
}

func (a *App) watch(ctx context.Context) error {
	services, err := initializeServices(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer services.Cleanup()

	w := worker.NewWorker(a.alerts, services.Publisher, services.Cache, logger.ForWorker(), worker.Options{
		Interval: a.cfg.CheckInterval,
		DedupTTL: a.cfg.TriggerDedupTTL,
	})

	a.log.Info().
		Dur("check_interval", a.cfg.CheckInterval).
		Bool("publishing", services.Publisher != nil).
		Bool("dedup", services.Cache != nil).
		Msg("Starting alert worker")

	return w.Start(ctx)
}

// initializeServices connects the optional trigger sink services; empty addresses disable them
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{}

	if cfg.MemcacheAddr != "" {
		cacheService := cache.NewMemcacheService(cfg.MemcacheAddr)
		if err := cacheService.Ping(); err != nil {
			return nil, err
		}
		services.Cache = cacheService
		logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
	}

	if cfg.RedisAddr != "" {
		redisPublisher := publisher.NewRedisPublisher(
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamMaxLength,
		)
		if err := redisPublisher.Ping(ctx); err != nil {
			redisPublisher.Close()
			return nil, err
		}
		services.Publisher = redisPublisher
		logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)", cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
	}

	return services, nil
}

// remember stores listed products; storage failures only cost history
func (a *App) remember(ctx context.Context, products []models.Product) {
	if len(products) == 0 {
		return
	}
	if _, err := a.products.SaveAll(ctx, products); err != nil {
		logger.LogError("storage", err, "failed to store %d products", len(products))
	}
}

func (a *App) printProducts(products []models.Product) {
	for i, p := range products {
		fmt.Fprintf(a.out, "\n%d. %s\n", i+1, p.Title)
		fmt.Fprintf(a.out, "   Price: %s\n", p.DisplayPrice())
		fmt.Fprintf(a.out, "   Shop:  %s\n", p.Shop)
		if p.URL != "" {
			fmt.Fprintf(a.out, "   URL:   %s\n", p.URL)
		}
	}
}

func (a *App) printAlerts(alerts []models.Alert) {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tTARGET\tSEARCH\tCREATED")
	for _, al := range alerts {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			al.ID, status(al.IsActive), price.Format(al.TargetPrice), al.SearchText, al.CreatedAt.Format("2006-01-02 15:04"))
	}
	tw.Flush()
}

func (a *App) printResult(id int64, result alert.Result) {
	fmt.Fprintf(a.out, "\nAlert %d: %d products, %d at or below target\n", id, len(result.All), len(result.Triggered))
	for _, p := range result.Triggered {
		hit.Fprintf(a.out, "  - %s\n", p)
	}
}

func parseID(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("an alert id is required: %w", errUsage)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid alert id %q: %w", args[0], errUsage)
	}
	return id, nil
}

func status(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}

func minPrice(products []models.Product) decimal.Decimal {
	cheapest := products[0].Price
	for _, p := range products[1:] {
		if p.Price.LessThan(cheapest) {
			cheapest = p.Price
		}
	}
	return cheapest
}
