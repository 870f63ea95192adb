package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/vitalwatch/vitalwatch/internal/insight"
	"github.com/vitalwatch/vitalwatch/internal/notify"
	"github.com/vitalwatch/vitalwatch/internal/store"
)

// Config holds scheduler settings.
type Config struct {
	Enabled      bool          `json:"enabled" envconfig:"ENABLED"`
	TickInterval time.Duration `json:"tickInterval" envconfig:"TICK_INTERVAL"`
	MaxConcLLM   int           `json:"maxConcLLM" envconfig:"MAX_CONC_LLM"`
	// BroadcastTarget receives the daily tip and weekly summary. Empty
	// disables both broadcast jobs; per-user reminders still fire.
	BroadcastTarget   string `json:"broadcastTarget" envconfig:"BROADCAST_TARGET"`
	DailyTipCron      string `json:"dailyTipCron" envconfig:"DAILY_TIP_CRON"`
	WeeklySummaryCron string `json:"weeklySummaryCron" envconfig:"WEEKLY_SUMMARY_CRON"`
}

// DefaultConfig returns sensible scheduler defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:           true,
		TickInterval:      time.Minute,
		MaxConcLLM:        3,
		DailyTipCron:      "0 9 * * *",
		WeeklySummaryCron: "0 18 * * 0",
	}
}

var healthTips = []string{
	"Remember to drink water throughout the day!",
	"Take a few minutes to stretch and move around!",
	"Don't forget to take your medications if prescribed!",
	"How are you feeling today? Consider logging your mood!",
	"Remember to eat nutritious meals today!",
	"Take time for deep breathing exercises!",
	"Check your posture - sitting up straight?",
	"Step outside for some fresh air if possible!",
}

// Scheduler drives the per-minute reminder sweep and the cron broadcast jobs.
type Scheduler struct {
	cfg     Config
	store   *store.Store
	insight *insight.Requester
	hub     *notify.Hub

	llmSem        *Semaphore
	dailyTip      *Schedule
	weeklySummary *Schedule
}

// New creates a Scheduler. Invalid cron expressions in the config are
// reported at startup rather than silently skipped.
func New(cfg Config, st *store.Store, req *insight.Requester, hub *notify.Hub) (*Scheduler, error) {
	def := DefaultConfig()
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = def.TickInterval
	}
	if cfg.MaxConcLLM <= 0 {
		cfg.MaxConcLLM = def.MaxConcLLM
	}
	if cfg.DailyTipCron == "" {
		cfg.DailyTipCron = def.DailyTipCron
	}
	if cfg.WeeklySummaryCron == "" {
		cfg.WeeklySummaryCron = def.WeeklySummaryCron
	}

	daily, err := ParseSchedule(cfg.DailyTipCron)
	if err != nil {
		return nil, fmt.Errorf("daily tip cron: %w", err)
	}
	weekly, err := ParseSchedule(cfg.WeeklySummaryCron)
	if err != nil {
		return nil, fmt.Errorf("weekly summary cron: %w", err)
	}

	return &Scheduler{
		cfg:           cfg,
		store:         st,
		insight:       req,
		hub:           hub,
		llmSem:        NewSemaphore(cfg.MaxConcLLM),
		dailyTip:      daily,
		weeklySummary: weekly,
	}, nil
}

// Run starts the tick loop. Blocks until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	slog.Info("Scheduler started", "tick", s.cfg.TickInterval)
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Scheduler stopped")
			return ctx.Err()
		case t := <-ticker.C:
			s.tick(ctx, t)
		}
	}
}

// tick runs once per TickInterval.
func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	s.sweepReminders(ctx, now)

	if s.cfg.BroadcastTarget == "" {
		return
	}
	if s.dailyTip.Matches(now) {
		s.sendDailyTip(ctx)
	}
	if s.weeklySummary.Matches(now) {
		s.sendWeeklySummary(ctx, now)
	}
}

// sweepReminders delivers every reminder due this wall-clock minute and
// deactivates one-shot reminders after firing.
func (s *Scheduler) sweepReminders(ctx context.Context, now time.Time) {
	nowMinute := fmt.Sprintf("%02d:%02d", now.Hour(), now.Minute())
	due, err := s.store.DueReminders(ctx, "", nowMinute)
	if err != nil {
		slog.Warn("Reminder sweep query failed", "error", err)
		return
	}
	for _, r := range due {
		message := s.reminderMessage(ctx, r)
		s.hub.Notify(ctx, r.OwnerID, message)
		if r.Frequency == store.FrequencyOnce {
			if err := s.store.DeactivateReminder(ctx, r.ID); err != nil {
				slog.Warn("Reminder deactivation failed", "id", r.ID, "error", err)
			}
		}
	}
	if len(due) > 0 {
		slog.Info("Reminders processed", "count", len(due), "minute", nowMinute)
	}
}

// reminderMessage builds the delivered text, with an AI motivation line when
// an LLM slot is free. Under contention the plain reminder goes out as-is.
func (s *Scheduler) reminderMessage(ctx context.Context, r store.Reminder) string {
	msg := fmt.Sprintf("Health Reminder: %s", r.Title)
	if r.Description != "" {
		msg += "\n" + r.Description
	}
	if s.llmSem.TryAcquire() {
		defer s.llmSem.Release()
		msg += "\n" + s.insight.ReminderMessage(ctx, r.Title)
	} else {
		slog.Debug("Reminder AI line skipped: concurrency limit", "id", r.ID)
	}
	return msg
}

func (s *Scheduler) sendDailyTip(ctx context.Context) {
	tip := healthTips[rand.Intn(len(healthTips))]
	message := fmt.Sprintf("Daily Health Check!\n\n%s", tip)
	if s.llmSem.TryAcquire() {
		aiTip := s.insight.ReminderMessage(ctx, "daily health check")
		s.llmSem.Release()
		message += "\n\nAI Tip: " + aiTip
	}
	s.hub.Notify(ctx, s.cfg.BroadcastTarget, message)
	slog.Info("Daily health tip sent", "target", s.cfg.BroadcastTarget)
}

func (s *Scheduler) sendWeeklySummary(ctx context.Context, now time.Time) {
	weekAgo := now.AddDate(0, 0, -7)
	active, err := s.store.ActiveUsersSince(ctx, weekAgo)
	if err != nil {
		slog.Warn("Weekly summary query failed", "error", err)
		return
	}
	counts, err := s.store.Counts(ctx)
	if err != nil {
		slog.Warn("Weekly summary counts failed", "error", err)
		return
	}
	message := fmt.Sprintf(
		"Weekly Health Summary\n\nActive users this week: %d\nTotal users: %d\n\nKeep up the great work tracking your health!",
		active, counts.Users)
	s.hub.Notify(ctx, s.cfg.BroadcastTarget, message)
	slog.Info("Weekly summary sent", "target", s.cfg.BroadcastTarget)
}
