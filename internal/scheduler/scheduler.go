package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/uzhanitsoft/qarzdorlik/internal/dashboard"
	"github.com/uzhanitsoft/qarzdorlik/internal/logger"
	"github.com/uzhanitsoft/qarzdorlik/internal/notifier"
)

// Source is the dashboard state the bot reports on.
type Source interface {
	Data() dashboard.DataView
}

// Sender delivers messages to the configured chat.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler runs the cron jobs and answers bot commands.
type Scheduler struct {
	Cron       *cron.Cron
	Source     Source
	Notifier   Sender
	MiniAppURL string
	Ctx        context.Context
	Now        func() time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, src Source, sender Sender, miniAppURL string) *Scheduler {
	return &Scheduler{
		Cron:       cron.New(cron.WithSeconds()),
		Source:     src,
		Notifier:   sender,
		MiniAppURL: miniAppURL,
		Ctx:        ctx,
		Now:        time.Now,
	}
}

// RegisterDigest schedules the daily summary. An empty expression disables it.
func (s *Scheduler) RegisterDigest(expr string) error {
	if expr == "" {
		logger.Info("daily digest disabled")
		return nil
	}
	if _, err := s.Cron.AddFunc(expr, s.digestTask); err != nil {
		return fmt.Errorf("register digest task: %w", err)
	}
	logger.Info("daily digest scheduled: %s", expr)
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	logger.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	logger.Info("scheduler stopped")
}

// RunDigestNow sends the digest immediately.
func (s *Scheduler) RunDigestNow() {
	s.digestTask()
}

func (s *Scheduler) digestTask() {
	logger.Info("running daily digest")
	data := s.Source.Data()
	if len(data.Agents) == 0 && data.LastUpdated == nil {
		logger.Info("digest skipped: no data uploaded yet")
		return
	}
	s.trySend(notifier.FormatDigest(s.Now(), stats(data)))
}

// UploadHook announces each committed upload in the configured chat.
func (s *Scheduler) UploadHook() dashboard.IngestHook {
	return func(_ context.Context, res dashboard.IngestResult) {
		msg := fmt.Sprintf("📥 %d ta agent ma'lumotlari yuklandi", len(res.Agents))
		if n := len(res.Failed); n > 0 {
			msg += fmt.Sprintf("\n⚠️ %d ta fayl o'qilmadi", n)
		}
		s.trySend(msg)
	}
}

// HandleCommand answers a bot command. Unknown commands get the help text.
func (s *Scheduler) HandleCommand(cmd notifier.Command) *notifier.Message {
	switch cmd.Name {
	case "/start":
		return &notifier.Message{
			Text:     notifier.FormatWelcome(cmd.FirstName),
			Keyboard: notifier.DashboardKeyboard(s.MiniAppURL),
		}
	case "/stats":
		return &notifier.Message{Text: notifier.FormatStats(stats(s.Source.Data()))}
	default:
		return &notifier.Message{Text: notifier.FormatHelp()}
	}
}

func stats(data dashboard.DataView) notifier.Stats {
	return notifier.Stats{
		Agents:      len(data.Agents),
		Totals:      data.Totals,
		LastUpdated: data.LastUpdated,
		Changes:     data.Changes,
	}
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		logger.Error("send notification: %v", err)
	}
}
