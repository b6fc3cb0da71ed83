package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbonnel/backcheck/internal/config"
	"github.com/pbonnel/backcheck/internal/model"
)

func testNotification() model.Notification {
	return model.Notification{
		AlertType: "low_compliance",
		Severity:  "critical",
		Title:     "Compliance below threshold",
		Message:   "Rate dropped to 72.5%",
		Timestamp: time.Now(),
	}
}

func TestNtfySend(t *testing.T) {
	var gotPath, gotTitle, gotPriority, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotTitle = r.Header.Get("Title")
		gotPriority = r.Header.Get("Priority")
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewNtfy(config.NtfyConfig{URL: srv.URL, Topic: "backcheck", Token: "tok"})
	require.NoError(t, n.Send(context.Background(), testNotification()))

	assert.Equal(t, "/backcheck", gotPath)
	assert.Equal(t, "Compliance below threshold", gotTitle)
	assert.Equal(t, "urgent", gotPriority)
	assert.Equal(t, "Bearer tok", gotAuth)
}

func TestNtfyServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	n := NewNtfy(config.NtfyConfig{URL: srv.URL, Topic: "backcheck"})
	assert.Error(t, n.Send(context.Background(), testNotification()))
}

func TestWebhookSend(t *testing.T) {
	var got model.Notification
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	wh := NewWebhook(config.WebhookConfig{URL: srv.URL})
	require.NoError(t, wh.Send(context.Background(), testNotification()))
	assert.Equal(t, "low_compliance", got.AlertType)
}

type stubProvider struct {
	name string
	err  error
	sent int
}

func (s *stubProvider) Name() string { return s.name }
func (s *stubProvider) Send(context.Context, model.Notification) error {
	s.sent++
	return s.err
}

func TestNotifierFanOut(t *testing.T) {
	a := &stubProvider{name: "a"}
	b := &stubProvider{name: "b", err: errors.New("down")}
	n := &Notifier{providers: []Provider{a, b}}

	err := n.Send(context.Background(), testNotification())

	assert.NoError(t, err, "one success is enough")
	assert.Equal(t, 1, a.sent)
	assert.Equal(t, 1, b.sent)
}

func TestNotifierAllFailed(t *testing.T) {
	a := &stubProvider{name: "a", err: errors.New("down")}
	n := &Notifier{providers: []Provider{a}}

	assert.Error(t, n.Send(context.Background(), testNotification()))
}

func TestNotifierEmpty(t *testing.T) {
	n := FromConfig(config.NotifyConfig{})
	assert.Zero(t, n.Providers())
	assert.NoError(t, n.Send(context.Background(), testNotification()))
}

func TestFromConfig(t *testing.T) {
	n := FromConfig(config.NotifyConfig{
		Ntfy:    config.NtfyConfig{Topic: "t"},
		Webhook: config.WebhookConfig{URL: "http://example.com/hook"},
	})
	assert.Equal(t, 2, n.Providers())
}
