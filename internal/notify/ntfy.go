package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pbonnel/backcheck/internal/config"
	"github.com/pbonnel/backcheck/internal/model"
)

// Ntfy publishes notifications to an ntfy.sh topic.
type Ntfy struct {
	url    string
	topic  string
	token  string
	client *http.Client
}

func NewNtfy(cfg config.NtfyConfig) *Ntfy {
	url := cfg.URL
	if url == "" {
		url = "https://ntfy.sh"
	}
	return &Ntfy{
		url:    strings.TrimRight(url, "/"),
		topic:  cfg.Topic,
		token:  cfg.Token,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *Ntfy) Name() string { return "ntfy" }

func (n *Ntfy) Send(ctx context.Context, msg model.Notification) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		n.url+"/"+n.topic, strings.NewReader(msg.Message))
	if err != nil {
		return err
	}
	req.Header.Set("Title", msg.Title)
	req.Header.Set("Priority", ntfyPriority(msg.Severity))
	req.Header.Set("Tags", ntfyTags(msg))
	if n.token != "" {
		req.Header.Set("Authorization", "Bearer "+n.token)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting to ntfy: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("ntfy returned %s", resp.Status)
	}
	return nil
}

func ntfyPriority(severity string) string {
	switch severity {
	case "critical":
		return "urgent"
	case "warning":
		return "high"
	default:
		return "default"
	}
}

func ntfyTags(msg model.Notification) string {
	if msg.Resolved {
		return "white_check_mark"
	}
	switch msg.Severity {
	case "critical":
		return "rotating_light"
	case "warning":
		return "warning"
	default:
		return "information_source"
	}
}
