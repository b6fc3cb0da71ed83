// Package notify delivers alert notifications to external channels.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pbonnel/backcheck/internal/config"
	"github.com/pbonnel/backcheck/internal/model"
)

// Provider delivers one notification to one channel.
type Provider interface {
	Name() string
	Send(ctx context.Context, n model.Notification) error
}

// Notifier fans a notification out to every configured provider. Provider
// failures are logged and do not stop delivery to the others.
type Notifier struct {
	providers []Provider
}

// FromConfig builds a notifier with one provider per configured channel.
func FromConfig(cfg config.NotifyConfig) *Notifier {
	var providers []Provider
	if cfg.Ntfy.Topic != "" {
		providers = append(providers, NewNtfy(cfg.Ntfy))
	}
	if cfg.Webhook.URL != "" {
		providers = append(providers, NewWebhook(cfg.Webhook))
	}
	return &Notifier{providers: providers}
}

func (n *Notifier) Providers() int { return len(n.providers) }

// Send delivers to all providers and returns an error only when every
// provider failed.
func (n *Notifier) Send(ctx context.Context, msg model.Notification) error {
	if len(n.providers) == 0 {
		return nil
	}
	failures := 0
	for _, p := range n.providers {
		if err := p.Send(ctx, msg); err != nil {
			slog.Error("notify: delivery failed", "provider", p.Name(), "error", err)
			failures++
			continue
		}
		slog.Debug("notify: delivered", "provider", p.Name(), "alert_type", msg.AlertType)
	}
	if failures == len(n.providers) {
		return fmt.Errorf("all %d notification providers failed", failures)
	}
	return nil
}
