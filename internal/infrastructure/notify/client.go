// Package notify implements the outbound notification port against a
// Notify-style HTTP API: template id, recipient email, and a flat
// personalisation map per send.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/openappeals/casework/internal/application/casework"
	"github.com/openappeals/casework/internal/config"
	"github.com/openappeals/casework/internal/infrastructure/monitoring/logging"
	"github.com/openappeals/casework/pkg/errors"
)

// Client posts notifications to the configured API. It implements
// casework.Notifier.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  logging.Logger
}

// NewClient builds a notification client from cfg.
func NewClient(cfg config.NotifyConfig, log logging.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.HTTPTimeout},
		logger:  log.Named("notify"),
	}
}

type sendRequest struct {
	TemplateID      string            `json:"template_id"`
	EmailAddress    string            `json:"email_address"`
	Reference       string            `json:"reference,omitempty"`
	Personalisation map[string]string `json:"personalisation,omitempty"`
}

// Send posts one email notification. Client-side (4xx) rejections and
// server-side (5xx) failures are both reported as dispatch failures; the
// caller decides whether they are fatal or a per-recipient warning.
func (c *Client) Send(ctx context.Context, n casework.Notification) error {
	if n.EmailAddress == "" {
		return errors.IncompleteRecipientData("")
	}

	body, err := json.Marshal(sendRequest{
		TemplateID:      n.Template,
		EmailAddress:    n.EmailAddress,
		Reference:       n.Reference,
		Personalisation: n.Personalisation,
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "encoding notification")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v2/notifications/email", bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "building notification request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeNotifyDispatchFailed, "posting notification")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.New(errors.ErrCodeNotifyDispatchFailed,
			fmt.Sprintf("notification API returned status %d", resp.StatusCode)).
			WithDetail(string(detail))
	}

	c.logger.Debug("notification dispatched",
		logging.String("template", n.Template),
		logging.String("reference", n.Reference))
	return nil
}

var _ casework.Notifier = (*Client)(nil)
