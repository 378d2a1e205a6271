package main

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"github.com/unitfund/fundd/internal/api"
	"github.com/unitfund/fundd/internal/config"
	"github.com/unitfund/fundd/internal/custody"
	"github.com/unitfund/fundd/internal/database"
	"github.com/unitfund/fundd/internal/domain"
	"github.com/unitfund/fundd/internal/export"
	"github.com/unitfund/fundd/internal/fees"
	"github.com/unitfund/fundd/internal/issuance"
	"github.com/unitfund/fundd/internal/journal"
	"github.com/unitfund/fundd/internal/ledger"
	"github.com/unitfund/fundd/internal/price"
	"github.com/unitfund/fundd/internal/quote"
	"github.com/unitfund/fundd/internal/redemption"
	"github.com/unitfund/fundd/internal/registry"
	"github.com/unitfund/fundd/internal/snapshot"
	"github.com/unitfund/fundd/internal/valuation"
	"github.com/unitfund/fundd/internal/worker"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// app bundles the wired services one command needs.
type app struct {
	cfg       config.Config
	pool      *pgxpool.Pool
	fund      *domain.Fund
	quotes    *quote.Service
	valuer    *valuation.Engine
	handler   *api.Handler
	snapshots *snapshot.Service
	history   *export.Service
}

func main() {
	cliApp := &cli.App{
		Name:  "fundd",
		Usage: "pooled-fund accounting engine",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API and background workers",
				Action: runServe,
			},
			{
				Name:   "snapshot",
				Usage:  "mark the fund to market and store one snapshot",
				Action: runSnapshot,
			},
			{
				Name:  "export",
				Usage: "export the snapshot history",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "output",
						Usage: "write an XLSX workbook to `PATH` instead of Google Sheets",
					},
				},
				Action: runExport,
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// build wires the full engine. The fund aggregate starts empty; committed
// state lives in memory while quotes, snapshots and events persist in
// PostgreSQL.
func build(ctx context.Context, cfg config.Config) (*app, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	migrationsSub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating migrations sub-fs: %w", err)
	}
	if err := database.RunMigrations(ctx, pool, migrationsSub); err != nil {
		pool.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	assets, err := registry.Parse(cfg.Assets)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("parsing ASSETS: %w", err)
	}

	quoteClient := quote.NewClient(cfg.QuoteAPIURL, cfg.QuoteRetryBaseDelay, cfg.QuoteRetryMax)
	quoteSvc := quote.NewService(quoteClient, quote.NewPgRepository(pool), assets.FeedSymbols(), cfg.QuoteStaleThreshold)
	feed := price.NewFeed(quoteSvc)

	fund := domain.NewFund()
	book := ledger.NewBook()
	vault := custody.NewVault()
	events := journal.NewPgRepository(pool)

	management := fees.Strategy(fees.None{})
	if cfg.ManagementFeePerDay.IsPositive() {
		management = fees.NewLinearTimeFee(cfg.ManagementFeePerDay, time.Now())
	}
	performance := fees.Strategy(fees.None{})
	if cfg.PerformanceFeeRate.IsPositive() {
		// HWM starts at zero: the first realized gain above an empty fund
		// is chargeable.
		performance = fees.NewPerformanceFee(cfg.PerformanceFeeRate, decimal.Zero)
	}

	valuer := valuation.NewEngine(fund, assets, feed, vault, management, performance)
	issuer := issuance.NewEngine(fund, valuer, book, vault, events)
	redeemer := redemption.NewEngine(fund, valuer, book, vault, assets, events)
	snapshots := snapshot.NewService(fund, valuer, snapshot.NewPgRepository(pool), cfg.FundSlug, cfg.FundName)

	var writer export.RowWriter
	switch {
	case cfg.ExportPath != "":
		writer = export.NewExcelWriter(cfg.ExportPath)
	case cfg.SpreadsheetID != "" && cfg.GoogleCredentials != "":
		writer, err = export.NewSheetsWriter(ctx, cfg.SpreadsheetID, cfg.GoogleCredentials)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("creating sheets writer: %w", err)
		}
	}
	var history *export.Service
	if writer != nil {
		history = export.NewService(snapshots, writer)
	}

	return &app{
		cfg:       cfg,
		pool:      pool,
		fund:      fund,
		quotes:    quoteSvc,
		valuer:    valuer,
		handler:   api.NewHandler(fund, valuer, issuer, redeemer, events, snapshots),
		snapshots: snapshots,
		history:   history,
	}, nil
}

func runServe(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	a, err := build(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.pool.Close()

	quoteWorker := worker.NewQuoteWorker(a.quotes, cfg.QuoteInterval)
	go quoteWorker.Run(ctx)

	var hook worker.AfterSnapshotHook
	if a.history != nil {
		hook = a.history
	}
	snapshotWorker := worker.NewSnapshotWorker(a.snapshots, cfg.SnapshotInterval, hook)
	go snapshotWorker.Run(ctx)

	if cfg.AdminAPIKey == "" {
		slog.Warn("ADMIN_API_KEY not set, mutating endpoints are unprotected")
	}

	srv := api.NewServer(cfg.HTTPPort, a.handler, cfg.AdminAPIKey)

	go func() {
		log.Printf("HTTP server listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("Shutdown complete")
	return nil
}

func runSnapshot(c *cli.Context) error {
	cfg := config.Load()
	a, err := build(c.Context, cfg)
	if err != nil {
		return err
	}
	defer a.pool.Close()

	if err := a.quotes.FetchAndStore(c.Context); err != nil {
		return fmt.Errorf("fetching quotes: %w", err)
	}

	rec, err := a.snapshots.Generate(c.Context, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("generating snapshot: %w", err)
	}
	log.Printf("snapshot stored: nav=%s sharePrice=%s", rec.NAV, rec.SharePrice)
	return nil
}

func runExport(c *cli.Context) error {
	cfg := config.Load()
	if out := c.String("output"); out != "" {
		cfg.ExportPath = out
	}

	a, err := build(c.Context, cfg)
	if err != nil {
		return err
	}
	defer a.pool.Close()

	if a.history == nil {
		return fmt.Errorf("no export destination configured: set --output, EXPORT_XLSX_PATH or EXPORT_SPREADSHEET_ID")
	}
	if err := a.history.Export(c.Context, snapshot.Record{}); err != nil {
		return fmt.Errorf("exporting history: %w", err)
	}
	log.Println("export complete")
	return nil
}
