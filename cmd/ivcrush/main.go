package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"IVCrush/internal/collector"
	"IVCrush/internal/config"
	"IVCrush/internal/crush"
	"IVCrush/internal/notifier"
	"IVCrush/internal/scheduler"
	"IVCrush/internal/store"
)

func main() {
	symbol := flag.String("symbol", "", "analyse a single symbol and exit")
	earnings := flag.String("earnings", "", "earnings date (YYYY-MM-DD) for -symbol")
	dte := flag.Int("dte", 0, "days to expiry (default from config)")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] IVCrush starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init fetcher
	var fetcher collector.Fetcher
	switch cfg.DataSource.Provider {
	case "csv":
		fetcher = collector.NewCSVFetcher(cfg.DataSource.CSVDir)
	case "rest":
		fetcher = collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	default:
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())

	// Init bar cache
	var cache store.Cache
	if cfg.Database.SQLitePath != "" {
		sc, err := store.NewSQLiteCache(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite cache failed, using noop: %v", err)
			cache = store.NewNoopCache()
		} else {
			cache = sc
		}
	} else {
		cache = store.NewNoopCache()
	}
	defer cache.Close()

	col := collector.NewCollector(fetcher, cache, cfg.DataSource.IndexSymbol, cfg.Analysis.WindowDays)
	analyzer := crush.NewAnalyzer(cfg.Fallback())

	events, err := cfg.EarningsEvents()
	if err != nil {
		log.Fatalf("[FATAL] parse events: %v", err)
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *symbol != "" {
		if err := runOnce(ctx, col, analyzer, cfg, *symbol, *earnings, *dte); err != nil {
			log.Printf("[ERROR] %v", err)
			cache.Close()
			os.Exit(1)
		}
		return
	}

	if err := cfg.ValidateTelegram(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)

	sched := scheduler.NewScheduler(ctx, col, analyzer, tn, events, cfg.Analysis.DaysToExpiry, cfg.Analysis.RiskFreeRate)
	if err := sched.RegisterAll(cfg.Schedule.DailyCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	go tn.StartPolling(ctx, sched.HandleCommand)
	log.Println("[INFO] Telegram polling started")

	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing earnings sweep now")
		go sched.RunDailyNow()
	}

	log.Printf("[INFO] IVCrush is running with %d configured events. Press Ctrl+C to stop.", len(events))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] IVCrush stopped")
}

// runOnce analyses one earnings event and prints the report to stdout.
func runOnce(ctx context.Context, col *collector.Collector, analyzer *crush.Analyzer, cfg *config.Config,
	symbol, earnings string, days int) error {
	if earnings == "" {
		return fmt.Errorf("-earnings is required with -symbol")
	}
	date, err := time.Parse(config.DateLayout, earnings)
	if err != nil {
		return fmt.Errorf("parse -earnings: %w", err)
	}
	if days <= 0 {
		days = cfg.Analysis.DaysToExpiry
	}

	sched := scheduler.NewScheduler(ctx, col, analyzer, nil, nil, days, cfg.Analysis.RiskFreeRate)
	res, err := sched.Analyze(strings.ToUpper(symbol), date, days)
	if err != nil {
		return err
	}
	fmt.Println(notifier.FormatAnalysisReport(res, cfg.DataSource.IndexSymbol, false))
	fmt.Print(notifier.FormatPriceComparison(res))
	return nil
}
