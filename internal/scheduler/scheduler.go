package scheduler

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"IVCrush/internal/collector"
	"IVCrush/internal/config"
	"IVCrush/internal/crush"
	"IVCrush/internal/model"
	"IVCrush/internal/notifier"
)

// Sender delivers formatted reports.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler runs analyses for configured earnings events and answers bot commands.
type Scheduler struct {
	Cron         *cron.Cron
	Collector    *collector.Collector
	Analyzer     *crush.Analyzer
	Notifier     Sender
	Events       []model.EarningsEvent
	DefaultDays  int
	RiskFreeRate float64
	Ctx          context.Context

	mu   sync.Mutex
	done map[string]bool
	now  func() time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, an *crush.Analyzer, sender Sender,
	events []model.EarningsEvent, defaultDays int, riskFreeRate float64) *Scheduler {
	return &Scheduler{
		Cron:         cron.New(cron.WithSeconds()),
		Collector:    col,
		Analyzer:     an,
		Notifier:     sender,
		Events:       events,
		DefaultDays:  defaultDays,
		RiskFreeRate: riskFreeRate,
		Ctx:          ctx,
		done:         make(map[string]bool),
		now:          time.Now,
	}
}

// RegisterAll registers the daily earnings sweep.
func (s *Scheduler) RegisterAll(dailyCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, s.dailyTask); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunDailyNow executes the earnings sweep immediately (RUN_ON_START).
func (s *Scheduler) RunDailyNow() {
	s.dailyTask()
}

// Analyze collects market data around the earnings date and runs one analysis.
func (s *Scheduler) Analyze(symbol string, earnings time.Time, days int) (*model.AnalysisResult, error) {
	set, err := s.Collector.Collect(symbol, earnings)
	if err != nil {
		return nil, fmt.Errorf("collect %s: %w", symbol, err)
	}
	res, err := s.Analyzer.Analyze(crush.Input{
		Symbol:       symbol,
		Stock:        set.Stock,
		ImpliedVol:   set.ImpliedVol,
		Index:        set.Index,
		EarningsDate: earnings,
		DaysToExpiry: days,
		RiskFreeRate: s.RiskFreeRate,
	})
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", symbol, err)
	}
	log.Printf("[INFO] %s: IV %.3f -> %.3f (crush %.1f%%, %s), straddle %.2f -> %.2f",
		symbol, res.PreIV, res.PostIV, res.IVCrushPct, res.IVSource, res.PreQuote.Straddle, res.PostQuote.Straddle)
	return res, nil
}

func eventKey(e model.EarningsEvent) string {
	return fmt.Sprintf("%s@%s/%d", e.Symbol, e.EarningsDate.Format(config.DateLayout), e.DaysToExpiry)
}

// dailyTask analyses every event whose announcement has passed, once per event.
// Events still waiting for their post-earnings session stay pending.
func (s *Scheduler) dailyTask() {
	log.Println("[INFO] running earnings sweep")
	today := s.now()
	for _, e := range s.Events {
		key := eventKey(e)
		s.mu.Lock()
		finished := s.done[key]
		s.mu.Unlock()
		if finished || !e.EarningsDate.Before(today) {
			continue
		}

		res, err := s.Analyze(e.Symbol, e.EarningsDate, e.DaysToExpiry)
		if errors.Is(err, crush.ErrInsufficientData) {
			log.Printf("[INFO] %s: waiting for data: %v", key, err)
			continue
		}

		s.mu.Lock()
		s.done[key] = true
		s.mu.Unlock()

		if err != nil {
			log.Printf("[ERROR] %s: %v", key, err)
			s.trySend(failureMessage(e.Symbol, err))
			continue
		}
		s.trySend(notifier.FormatAnalysisReport(res, s.Collector.IndexSymbol, true))
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp(s.DefaultDays)
	}
	switch fields[0] {
	case "/analyze":
		if len(fields) < 3 {
			return "Usage: /analyze SYMBOL YYYY-MM-DD [DAYS_TO_EXPIRY]"
		}
		symbol := strings.ToUpper(fields[1])
		earnings, err := time.Parse(config.DateLayout, fields[2])
		if err != nil {
			return "Invalid date format. Use YYYY-MM-DD"
		}
		days := s.DefaultDays
		if len(fields) > 3 {
			if d, err := strconv.Atoi(fields[3]); err == nil && d > 0 {
				days = d
			} else {
				log.Printf("[WARN] invalid days to expiry %q, using %d", fields[3], s.DefaultDays)
			}
		}
		res, err := s.Analyze(symbol, earnings, days)
		if err != nil {
			log.Printf("[ERROR] command analysis: %v", err)
			return failureMessage(symbol, err)
		}
		return notifier.FormatAnalysisReport(res, s.Collector.IndexSymbol, true)
	case "/events":
		return notifier.FormatEvents(s.Events)
	default:
		return notifier.FormatHelp(s.DefaultDays)
	}
}

// failureMessage renders an analysis error for Telegram HTML. Errors may echo provider response bodies.
func failureMessage(symbol string, err error) string {
	return fmt.Sprintf("❌ IV crush analysis failed for %s: %s", html.EscapeString(symbol), html.EscapeString(err.Error()))
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
