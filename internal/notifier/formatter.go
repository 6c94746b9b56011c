package notifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/uzhanitsoft/qarzdorlik/internal/model"
)

// StatsDateLayout is how dates are shown in chat.
const StatsDateLayout = "02.01.2006"

var million = decimal.NewFromInt(1_000_000)

// Stats is the snapshot rendered by /stats and the daily digest.
type Stats struct {
	Agents      int
	Totals      model.Totals
	LastUpdated *time.Time
	Changes     *model.Comparison
}

// FormatWelcome greets a user who sent /start.
func FormatWelcome(firstName string) string {
	if firstName == "" {
		firstName = "Foydalanuvchi"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Assalomu alaykum, %s! 👋\n\n", firstName))
	b.WriteString("📊 Qarzdorlik Dashboard'ga xush kelibsiz!\n\n")
	b.WriteString("Bu bot orqali agent va qarzdorlar statistikasini ko'rishingiz mumkin.\n\n")
	b.WriteString("👇 Quyidagi tugmani bosib dashboardni oching:")
	return b.String()
}

// DashboardKeyboard is the single button opening the mini app.
func DashboardKeyboard(miniAppURL string) [][]InlineButton {
	return [][]InlineButton{{
		{Text: "📊 Dashboard ochish", WebApp: &WebAppInfo{URL: miniAppURL}},
	}}
}

func FormatHelp() string {
	var b strings.Builder
	b.WriteString("📖 Yordam\n\n")
	b.WriteString("/start - Botni ishga tushirish\n")
	b.WriteString("/stats - Qisqa statistika\n")
	b.WriteString("/help - Yordam\n\n")
	b.WriteString("Dashboard tugmasini bosib to'liq ma'lumotlarni ko'ring.")
	return b.String()
}

// FormatStats renders the quick statistics reply.
func FormatStats(s Stats) string {
	var b strings.Builder
	b.WriteString("📊 Tezkor statistika:\n\n")
	writeTotals(&b, s)
	b.WriteString(fmt.Sprintf("\n📅 Yangilangan: %s", formatDate(s.LastUpdated)))
	return b.String()
}

// FormatDigest renders the scheduled daily summary, including the trend
// against the last recorded day when there is one.
func FormatDigest(now time.Time, s Stats) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🗓 Kunlik hisobot | %s\n\n", now.Format(StatsDateLayout)))
	writeTotals(&b, s)

	if c := s.Changes; c != nil {
		b.WriteString(fmt.Sprintf("\n%s (%s bilan solishtirganda)\n", trendLabel(c.Trend), formatDay(c.PreviousDate)))
		b.WriteString(fmt.Sprintf("   USD: %s\n", signed(FormatUSD(c.USDChange.Abs()), c.USDChange)))
		b.WriteString(fmt.Sprintf("   UZS: %s\n", signed(FormatUZS(c.UZSChange.Abs()), c.UZSChange)))
		b.WriteString(fmt.Sprintf("   Qarzdorlar: %+d\n", c.DebtorChange))
	}

	b.WriteString(fmt.Sprintf("\n📅 Yangilangan: %s", formatDate(s.LastUpdated)))
	return b.String()
}

func writeTotals(b *strings.Builder, s Stats) {
	b.WriteString(fmt.Sprintf("👥 Agentlar: %d\n", s.Agents))
	b.WriteString(fmt.Sprintf("👤 Qarzdorlar: %d\n", s.Totals.TotalDebtors))
	b.WriteString(fmt.Sprintf("💵 USD: %s\n", FormatUSD(s.Totals.TotalUSD)))
	b.WriteString(fmt.Sprintf("💰 UZS: %s\n", FormatUZS(s.Totals.TotalUZS)))
}

// FormatUSD renders whole dollars with thousands separators: $1,234.
func FormatUSD(d decimal.Decimal) string {
	return "$" + humanize.Comma(d.Round(0).IntPart())
}

// FormatUZS renders sums in millions with one decimal: 12.3M.
func FormatUZS(d decimal.Decimal) string {
	return d.Div(million).StringFixed(1) + "M"
}

func signed(s string, d decimal.Decimal) string {
	switch d.Sign() {
	case 1:
		return "+" + s
	case -1:
		return "-" + s
	}
	return s
}

func trendLabel(t model.Trend) string {
	switch t {
	case model.TrendUp:
		return "📈 Qarz oshdi"
	case model.TrendDown:
		return "📉 Qarz kamaydi"
	default:
		return "➖ O'zgarishsiz"
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "Noma'lum"
	}
	return t.Format(StatsDateLayout)
}

func formatDay(date string) string {
	t, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format(StatsDateLayout)
}
