package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/uzhanitsoft/qarzdorlik/internal/logger"
)

const defaultAPIBase = "https://api.telegram.org"

// TelegramNotifier talks to the Telegram Bot API.
type TelegramNotifier struct {
	BotToken string
	// ChatID receives the scheduled digest; replies go to the chat that asked.
	ChatID    string
	BaseURL   string
	RetryBase time.Duration
	Client    *http.Client
}

// WebAppInfo opens a Telegram mini app.
type WebAppInfo struct {
	URL string `json:"url"`
}

// InlineButton is one button of an inline keyboard.
type InlineButton struct {
	Text   string      `json:"text"`
	WebApp *WebAppInfo `json:"web_app,omitempty"`
}

// Message is an outgoing chat message.
type Message struct {
	ChatID   string
	Text     string
	Keyboard [][]InlineButton
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(botToken, chatID, proxyURL string) *TelegramNotifier {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &TelegramNotifier{
		BotToken:  botToken,
		ChatID:    chatID,
		BaseURL:   defaultAPIBase,
		RetryBase: time.Second,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (t *TelegramNotifier) method(name string) string {
	base := t.BaseURL
	if base == "" {
		base = defaultAPIBase
	}
	return fmt.Sprintf("%s/bot%s/%s", base, t.BotToken, name)
}

// SendMessage delivers msg to its chat.
func (t *TelegramNotifier) SendMessage(ctx context.Context, msg Message) error {
	payload := map[string]interface{}{
		"chat_id": msg.ChatID,
		"text":    msg.Text,
	}
	if len(msg.Keyboard) > 0 {
		payload["reply_markup"] = map[string]interface{}{"inline_keyboard": msg.Keyboard}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.method("sendMessage"), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// Send sends text to the configured chat.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	return t.SendMessage(ctx, Message{ChatID: t.ChatID, Text: text})
}

// SendWithRetry sends text to the configured chat with exponential backoff.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		err := t.Send(ctx, text)
		if err == nil {
			return nil
		}
		lastErr = err
		if i == maxRetries {
			break
		}
		backoff := t.RetryBase * time.Duration(1<<uint(i))
		logger.Warn("telegram send failed (attempt %d/%d): %v, retrying in %v", i+1, maxRetries+1, err, backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("all %d retries exhausted: %w", maxRetries+1, lastErr)
}
