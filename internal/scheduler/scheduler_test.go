package scheduler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/uzhanitsoft/qarzdorlik/internal/aggregator"
	"github.com/uzhanitsoft/qarzdorlik/internal/dashboard"
	"github.com/uzhanitsoft/qarzdorlik/internal/model"
	"github.com/uzhanitsoft/qarzdorlik/internal/notifier"
)

type staticSource struct{ view dashboard.DataView }

func (s staticSource) Data() dashboard.DataView { return s.view }

type recordingSender struct {
	texts []string
	err   error
}

func (r *recordingSender) SendWithRetry(_ context.Context, text string, _ int) error {
	r.texts = append(r.texts, text)
	return r.err
}

func loadedView() dashboard.DataView {
	updated := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	return dashboard.DataView{
		Agents: []model.Agent{{Name: "Akmal", DebtorCount: 2}, {Name: "Bobur", DebtorCount: 1}},
		Totals: model.Totals{
			TotalUSD:     decimal.NewFromInt(2500),
			TotalUZS:     decimal.NewFromInt(7_000_000),
			TotalDebtors: 3,
		},
		LastUpdated: &updated,
		Changes: &model.Comparison{
			USDChange:    decimal.NewFromInt(300),
			UZSChange:    decimal.Zero,
			DebtorChange: 1,
			Trend:        model.TrendUp,
			PreviousDate: "2026-03-04",
		},
	}
}

func newTestScheduler(view dashboard.DataView) (*Scheduler, *recordingSender) {
	sender := &recordingSender{}
	s := NewScheduler(context.Background(), staticSource{view}, sender, "https://example.com/app")
	s.Now = func() time.Time { return time.Date(2026, 3, 6, 9, 0, 0, 0, time.UTC) }
	return s, sender
}

func TestHandleCommand(t *testing.T) {
	s, _ := newTestScheduler(loadedView())

	tests := []struct {
		cmd          notifier.Command
		wantText     string
		wantKeyboard bool
	}{
		{notifier.Command{Name: "/start", FirstName: "Aziz"}, "Assalomu alaykum, Aziz!", true},
		{notifier.Command{Name: "/help"}, "/stats - Qisqa statistika", false},
		{notifier.Command{Name: "/stats"}, "USD: $2,500", false},
		{notifier.Command{Name: "/weather"}, "Yordam", false},
	}
	for _, tt := range tests {
		t.Run(tt.cmd.Name, func(t *testing.T) {
			msg := s.HandleCommand(tt.cmd)
			if msg == nil {
				t.Fatal("expected a reply")
			}
			if !strings.Contains(msg.Text, tt.wantText) {
				t.Errorf("reply %q does not contain %q", msg.Text, tt.wantText)
			}
			if got := len(msg.Keyboard) > 0; got != tt.wantKeyboard {
				t.Errorf("keyboard present = %v, want %v", got, tt.wantKeyboard)
			}
		})
	}

	start := s.HandleCommand(notifier.Command{Name: "/start"})
	if btn := start.Keyboard[0][0]; btn.WebApp == nil || btn.WebApp.URL != "https://example.com/app" {
		t.Errorf("start button should open the mini app, got %+v", btn)
	}
}

func TestDigest(t *testing.T) {
	s, sender := newTestScheduler(loadedView())
	s.RunDigestNow()

	if len(sender.texts) != 1 {
		t.Fatalf("expected one digest, got %d", len(sender.texts))
	}
	for _, want := range []string{"06.03.2026", "Agentlar: 2", "Qarz oshdi", "USD: +$300"} {
		if !strings.Contains(sender.texts[0], want) {
			t.Errorf("digest missing %q:\n%s", want, sender.texts[0])
		}
	}
}

func TestDigest_SkippedWithoutData(t *testing.T) {
	s, sender := newTestScheduler(dashboard.DataView{})
	s.RunDigestNow()
	if len(sender.texts) != 0 {
		t.Errorf("digest should be skipped before the first upload, sent %v", sender.texts)
	}
}

func TestDigest_SendErrorIsLogged(t *testing.T) {
	s, sender := newTestScheduler(loadedView())
	sender.err = errors.New("telegram down")
	s.RunDigestNow()
	if len(sender.texts) != 1 {
		t.Errorf("expected one attempt, got %d", len(sender.texts))
	}
}

func TestRegisterDigest(t *testing.T) {
	s, _ := newTestScheduler(loadedView())
	if err := s.RegisterDigest(""); err != nil {
		t.Errorf("empty expression should disable the digest: %v", err)
	}
	if err := s.RegisterDigest("0 0 9 * * *"); err != nil {
		t.Errorf("RegisterDigest: %v", err)
	}
	if n := len(s.Cron.Entries()); n != 1 {
		t.Errorf("cron entries = %d, want 1", n)
	}
	if err := s.RegisterDigest("every morning"); err == nil {
		t.Error("expected error for invalid cron expression")
	}
}

func TestUploadHook(t *testing.T) {
	s, sender := newTestScheduler(loadedView())
	hook := s.UploadHook()
	hook(context.Background(), dashboard.IngestResult{
		Agents: []model.Agent{{Name: "A"}, {Name: "B"}},
		Failed: []aggregator.FileError{{File: "x.xlsx", Err: errors.New("bad")}},
	})
	if len(sender.texts) != 1 || !strings.Contains(sender.texts[0], "2 ta agent") || !strings.Contains(sender.texts[0], "1 ta fayl") {
		t.Errorf("unexpected upload notice: %v", sender.texts)
	}
}
