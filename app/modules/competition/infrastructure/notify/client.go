// Package competitionnotify delivers push requests to the notification service.
package competitionnotify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	competitionservice "github.com/Black-And-White-Club/stride-league/app/modules/competition/application"
	"github.com/Black-And-White-Club/stride-league/config"
	"github.com/Black-And-White-Club/stride-league/internal/observability/attr"
	"golang.org/x/oauth2/clientcredentials"
)

const maxErrorBody = 1 << 10

// Client posts notifications to the push endpoint. When token settings are
// present, requests carry a client-credentials bearer token.
type Client struct {
	endpoint string
	http     *http.Client
	logger   *slog.Logger
}

// NewClient builds a Client from notification settings.
func NewClient(ctx context.Context, cfg config.NotificationConfig, logger *slog.Logger) *Client {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	if cfg.TokenURL != "" {
		cc := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
		}
		httpClient = cc.Client(ctx)
		httpClient.Timeout = cfg.Timeout
	}

	return &Client{
		endpoint: cfg.PushURL,
		http:     httpClient,
		logger:   logger.With(attr.String("component", "push_client")),
	}
}

type pushRequest struct {
	Type            string    `json:"type"`
	RecipientUserID string    `json:"recipient_user_id"`
	CompetitionID   string    `json:"competition_id"`
	CompetitionName string    `json:"competition_name"`
	PayoutID        string    `json:"payout_id,omitempty"`
	AmountCents     int64     `json:"amount_cents,omitempty"`
	SentAt          time.Time `json:"sent_at"`
}

// Send posts one notification. Any non-2xx status is an error.
func (c *Client) Send(ctx context.Context, n competitionservice.Notification) error {
	if c.endpoint == "" {
		c.logger.DebugContext(ctx, "Push endpoint not configured, skipping", attr.String("type", n.Type))
		return nil
	}

	body := pushRequest{
		Type:            n.Type,
		RecipientUserID: n.RecipientUserID.String(),
		CompetitionID:   n.CompetitionID.String(),
		CompetitionName: n.CompetitionName,
		AmountCents:     int64(n.AmountCents),
		SentAt:          time.Now().UTC(),
	}
	if n.PayoutID != nil {
		body.PayoutID = n.PayoutID.String()
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal push request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "stride-league/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send push request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.WarnContext(ctx, "Push endpoint rejected notification",
			attr.Int("status", resp.StatusCode),
			attr.String("type", n.Type),
			attr.String("body", string(snippet)),
		)
		return fmt.Errorf("push endpoint returned status %d", resp.StatusCode)
	}

	return nil
}
