package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"CycleSentinel/internal/collector"
	"CycleSentinel/internal/metrics"
	"CycleSentinel/internal/monitor"
	"CycleSentinel/internal/notifier"
	"CycleSentinel/internal/prefs"
	"CycleSentinel/internal/recorder"
	"CycleSentinel/internal/scheduler"
)

var runQuiet bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the monitor until interrupted",
	Long: `Run polls the configured data source on the poll cron, feeds every
observation through the ATR and cycle pipeline and renders each frame.

Set RUN_ON_START=true to poll once before the first cron tick.`,
	RunE: runService,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "do not print the console panel")
}

func runService(cmd *cobra.Command, args []string) error {
	log.Println("[INFO] CycleSentinel starting...")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetcher := newFetcher(cfg)
	feed := newHistoryFeed(cfg, fetcher)
	target := collector.NewTarget(cfg.Watch.Symbol, cfg.Watch.Timeframe)
	source := collector.NewQuoteSource(fetcher, target)

	risk, err := prefs.NewStore(cfg.Risk.StateFile, cfg.Risk.Investment, cfg.Risk.Leverage)
	if err != nil {
		return err
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}
	defer rec.Close()

	// Metrics and health
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(reg)
	health := metrics.NewHealthStatus(staleAfter(cfg.Watch.PollCron))
	var srv *metrics.Server
	if cfg.Metrics.Addr != "" {
		srv = metrics.NewServer(cfg.Metrics.Addr, reg, health)
		srv.Start()
	}

	// Render sinks
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	var sinks []notifier.Sink
	if cfg.Console && !runQuiet {
		sinks = append(sinks, notifier.NewConsoleSink(cmd.OutOrStdout()))
	}
	if tn.Enabled() {
		ts := notifier.NewTelegramSink(tn, 16, 3)
		go ts.Run(ctx)
		sinks = append(sinks, ts)
	}

	mon, err := monitor.New(ctx, monitor.Config{
		WindowSize:     cfg.Analysis.Window,
		ATRPeriod:      cfg.Analysis.ATRPeriod,
		BufferCapacity: cfg.Analysis.BufferCapacity,
		ReloadTimeout:  cfg.DataSource.ReloadTimeout,
	}, feed, risk, sinks, rec, m)
	if err != nil {
		return err
	}
	defer mon.Close()

	sched := scheduler.NewScheduler(ctx, source, target, mon, risk, tn, health, m)
	if err := sched.RegisterAll(cfg.Watch.PollCron, cfg.Watch.SummaryCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if tn.Enabled() {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	} else {
		log.Println("[INFO] Telegram not configured, alerts and commands disabled")
	}

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, polling now")
		go sched.PollNow()
	}

	log.Printf("[INFO] CycleSentinel is watching %s (%s). Press Ctrl+C to stop.", cfg.Watch.Symbol, cfg.Watch.Timeframe)

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	if srv != nil {
		stopCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		srv.Stop(stopCtx)
	}
	log.Println("[INFO] CycleSentinel stopped")
	return nil
}
