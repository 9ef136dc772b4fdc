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

	"github.com/rs/zerolog/log"

	"FeeAllocator/internal/model"
	"FeeAllocator/internal/retry"
)

// DefaultAPIBase is the Telegram Bot API endpoint.
const DefaultAPIBase = "https://api.telegram.org"

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	BotToken string
	ChatID   string
	APIBase  string
	Client   *http.Client
	Format   Formatter
	Exec     *retry.Executor
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(botToken, chatID, proxyURL string, format Formatter) *TelegramNotifier {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &TelegramNotifier{
		BotToken: botToken,
		ChatID:   chatID,
		APIBase:  DefaultAPIBase,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		Format: format,
		Exec:   retry.New(retry.Policy{Attempts: 4, BaseDelay: time.Second, CallTimeout: 30 * time.Second}),
	}
}

func (t *TelegramNotifier) endpoint(method string) string {
	base := t.APIBase
	if base == "" {
		base = DefaultAPIBase
	}
	return fmt.Sprintf("%s/bot%s/%s", base, t.BotToken, method)
}

// Send sends a message to the configured chat.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	payload := map[string]string{
		"chat_id":    t.ChatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint("sendMessage"), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := t.Client.Do(req)
	if err != nil {
		return retry.MarkTransient(fmt.Errorf("send message: %w", err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("telegram API error: status %d, body: %s", resp.StatusCode, string(respBody))
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return retry.MarkTransient(err)
		}
		return err
	}
	return nil
}

// SendWithRetry sends a message with exponential backoff on transient errors.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string) error {
	exec := t.Exec
	if exec == nil {
		exec = retry.New(retry.DefaultPolicy())
	}
	return retry.Run(ctx, exec, "telegram.send", func(ctx context.Context) error {
		return t.Send(ctx, text)
	})
}

// ReportCycle sends a cycle report. Failures are logged only.
func (t *TelegramNotifier) ReportCycle(ctx context.Context, res model.CycleResult) {
	if err := t.SendWithRetry(ctx, t.Format.Cycle(res)); err != nil {
		log.Error().Err(err).Str("cycle_id", res.ID).Msg("send cycle report")
	}
}
