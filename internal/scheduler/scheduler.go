package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"CycleSentinel/internal/collector"
	"CycleSentinel/internal/metrics"
	"CycleSentinel/internal/model"
	"CycleSentinel/internal/monitor"
	"CycleSentinel/internal/notifier"
	"CycleSentinel/internal/prefs"

	"github.com/robfig/cron/v3"
)

const DefaultTickTimeout = 10 * time.Second

// Scheduler drives the poll loop and the periodic summary.
type Scheduler struct {
	Cron        *cron.Cron
	Source      collector.Source
	Target      *collector.Target
	Monitor     *monitor.Monitor
	Risk        *prefs.Store
	Notifier    *notifier.TelegramNotifier
	Health      *metrics.HealthStatus
	Metrics     *metrics.Metrics
	Ctx         context.Context
	TickTimeout time.Duration

	now func() time.Time
}

// NewScheduler creates a new Scheduler. Jobs that are still running when
// their next run is due are skipped.
func NewScheduler(ctx context.Context, src collector.Source, target *collector.Target, mon *monitor.Monitor,
	risk *prefs.Store, tn *notifier.TelegramNotifier, health *metrics.HealthStatus, m *metrics.Metrics) *Scheduler {
	logger := cron.PrintfLogger(log.Default())
	return &Scheduler{
		Cron:        cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(logger))),
		Source:      src,
		Target:      target,
		Monitor:     mon,
		Risk:        risk,
		Notifier:    tn,
		Health:      health,
		Metrics:     m,
		Ctx:         ctx,
		TickTimeout: DefaultTickTimeout,
		now:         time.Now,
	}
}

// RegisterAll registers the poll task and, when summaryCron is set, the summary task.
func (s *Scheduler) RegisterAll(pollCron, summaryCron string) error {
	if _, err := s.Cron.AddFunc(pollCron, s.pollTask); err != nil {
		return fmt.Errorf("register poll task: %w", err)
	}
	if summaryCron != "" {
		if _, err := s.Cron.AddFunc(summaryCron, s.summaryTask); err != nil {
			return fmt.Errorf("register summary task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// PollNow runs one poll immediately and returns the frame it produced, if any.
func (s *Scheduler) PollNow() *model.Frame {
	return s.poll()
}

func (s *Scheduler) pollTask() {
	s.poll()
}

func (s *Scheduler) poll() *model.Frame {
	ctx, cancel := context.WithTimeout(s.Ctx, s.TickTimeout)
	defer cancel()

	obs, err := s.Source.Observe(ctx)
	if err != nil {
		// The symbol is still passed on so a switch resets the buffer even without a quote.
		log.Printf("[WARN] observe: %v", err)
		s.Metrics.Tick(metrics.TickError)
	}

	frame, err := s.Monitor.Tick(ctx, obs, s.now())
	if err != nil {
		if errors.Is(err, monitor.ErrTickInProgress) {
			log.Println("[WARN] previous tick still running, skipping")
		} else {
			log.Printf("[ERROR] tick: %v", err)
		}
		return nil
	}

	symbol, timeframe, _ := s.Monitor.Watching()
	s.Health.Update(symbol, timeframe, s.Monitor.Samples(), s.Monitor.Reloading(), s.now())
	return frame
}

func (s *Scheduler) summaryTask() {
	log.Println("[INFO] running summary task")
	s.trySend(notifier.FormatSummary(s.Monitor.LastFrame(), s.now()))
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	switch strings.ToLower(fields[0]) {
	case "/watch":
		return s.handleWatch(fields[1:])
	case "/risk":
		return s.handleRisk(fields[1:])
	case "/status":
		return notifier.FormatStatus(s.Monitor.LastFrame())
	case "/summary":
		return notifier.FormatSummary(s.Monitor.LastFrame(), s.now())
	default:
		return helpText
	}
}

const helpText = "Commands:\n" +
	"• /watch SYMBOL TIMEFRAME (e.g. /watch GOLD 5m)\n" +
	"• /risk INVESTMENT LEVERAGE (e.g. /risk 2500 10)\n" +
	"• /status\n" +
	"• /summary"

func (s *Scheduler) handleWatch(args []string) string {
	if len(args) != 2 {
		return "Usage: /watch SYMBOL TIMEFRAME"
	}
	timeframe := strings.ToLower(args[1])
	if !model.KnownTimeframe(timeframe) {
		return fmt.Sprintf("Unknown timeframe %q (use 1m, 5m, 15m, 30m, 1h, 4h, 1d, 1w)", args[1])
	}
	s.Target.Set(args[0], timeframe)
	symbol, tf := s.Target.Get()
	log.Printf("[INFO] watch target set to %s %s", symbol, tf)
	return fmt.Sprintf("👀 Watching %s %s, loading history...", symbol, tf)
}

func (s *Scheduler) handleRisk(args []string) string {
	if len(args) != 2 {
		p := s.Risk.Get()
		return fmt.Sprintf("Usage: /risk INVESTMENT LEVERAGE\nCurrent: investment %s, leverage x%g",
			notifier.FormatMoney(p.Investment), p.Leverage)
	}
	p, err := s.Risk.SetText(args[0], args[1])
	if err != nil {
		return fmt.Sprintf("❌ %v", err)
	}
	return fmt.Sprintf("✅ Risk updated: investment %s, leverage x%g", notifier.FormatMoney(p.Investment), p.Leverage)
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil || !s.Notifier.Enabled() {
		log.Printf("[INFO] telegram disabled, summary:\n%s", text)
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
