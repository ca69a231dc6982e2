package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/rl1809/po-watcher/internal/core/domain"
)

const maxLoggedBody = 2 << 10

// WebhookAdapter posts every purchase-order email's parsed items to a
// storage endpoint. The response is logged but never checked: only a
// transport failure is reported as an error.
type WebhookAdapter struct {
	client *http.Client
	url    string
	logger *slog.Logger
}

func NewWebhookAdapter(client *http.Client, url string, logger *slog.Logger) *WebhookAdapter {
	return &WebhookAdapter{client: client, url: url, logger: logger}
}

type notification struct {
	Items   []domain.RawItemRecord `json:"items"`
	Subject string                 `json:"subject"`
}

func (a *WebhookAdapter) Notify(ctx context.Context, subject string, items []domain.RawItemRecord) error {
	if items == nil {
		items = []domain.RawItemRecord{}
	}
	payload, err := json.Marshal(notification{Items: items, Subject: subject})
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("post notification: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxLoggedBody))
	a.logger.Info("sink response", "status", resp.StatusCode, "body", string(body))
	return nil
}
