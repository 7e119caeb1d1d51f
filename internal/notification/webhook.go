package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/techbantu/gharse/internal/config"
)

// webhookSender POSTs status notes to an external notification gateway that
// fans out to email/SMS providers.
type webhookSender struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

func newWebhookSender(cfg config.Notification, logger *zap.Logger) *webhookSender {
	return &webhookSender{
		url:    cfg.WebhookURL,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

func (w *webhookSender) SendStatusUpdate(ctx context.Context, note StatusNote) error {
	body, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("marshal status note: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("notification gateway returned %d", resp.StatusCode)
	}

	if w.logger != nil {
		w.logger.Debug("notification delivered",
			zap.Int64("order_id", note.OrderID),
			zap.String("tag", string(note.Tag)),
			zap.Strings("channels", note.Channels),
		)
	}
	return nil
}
