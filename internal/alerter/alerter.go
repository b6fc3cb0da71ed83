// Package alerter raises notifications when compliance degrades and clears
// them when it recovers.
package alerter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pbonnel/backcheck/internal/config"
	"github.com/pbonnel/backcheck/internal/model"
)

// Sender delivers notifications. Satisfied by notify.Notifier.
type Sender interface {
	Send(ctx context.Context, n model.Notification) error
}

// AlertLog records fired alerts for the audit trail.
type AlertLog interface {
	InsertAlert(n model.Notification) error
}

const (
	alertLowCompliance = "low_compliance"
	alertUnreferenced  = "unreferenced_hosts"
)

// Alerter inspects compliance results and fires threshold alerts with a
// per-type cooldown. Safe for concurrent use.
type Alerter struct {
	cfg    config.AlertsConfig
	sender Sender
	log    AlertLog

	mu        sync.Mutex
	lastFired map[string]time.Time
	active    map[string]bool
}

func New(cfg config.AlertsConfig, sender Sender, log AlertLog) *Alerter {
	return &Alerter{
		cfg:       cfg,
		sender:    sender,
		log:       log,
		lastFired: make(map[string]time.Time),
		active:    make(map[string]bool),
	}
}

// Evaluate checks one compliance result. Error results are skipped; alerting
// on a degraded read would page people about the database, not the backups.
func (a *Alerter) Evaluate(ctx context.Context, res model.ComplianceResult, now time.Time) {
	if !a.cfg.Enabled || res.Err != "" {
		return
	}

	if res.TotalInScope > 0 && res.Rate < a.cfg.MinRate {
		a.fire(ctx, now, model.Notification{
			AlertType: alertLowCompliance,
			Severity:  "critical",
			Title:     "Backup compliance below threshold",
			Message: fmt.Sprintf("Compliance rate is %.1f%% (threshold %.1f%%): %d of %d servers have no valid backup.",
				res.Rate, a.cfg.MinRate, len(res.NonCompliant), res.TotalInScope),
			Timestamp: now,
		})
	} else {
		a.resolve(ctx, now, alertLowCompliance, model.Notification{
			AlertType: alertLowCompliance,
			Severity:  "info",
			Title:     "Backup compliance recovered",
			Message:   fmt.Sprintf("Compliance rate is back at %.1f%%.", res.Rate),
			Timestamp: now,
			Resolved:  true,
		})
	}

	if a.cfg.AlertUnreferred && len(res.Unreferenced) > 0 {
		a.fire(ctx, now, model.Notification{
			AlertType: alertUnreferenced,
			Severity:  "warning",
			Title:     "Backups for unregistered hosts",
			Message: fmt.Sprintf("%d hosts have backups but no registry entry: %s",
				len(res.Unreferenced), summarize(res.Unreferenced, 10)),
			Timestamp: now,
		})
	}
}

func (a *Alerter) fire(ctx context.Context, now time.Time, n model.Notification) {
	a.mu.Lock()
	last, fired := a.lastFired[n.AlertType]
	if fired && now.Sub(last) < a.cfg.Cooldown.Std() {
		a.mu.Unlock()
		return
	}
	a.lastFired[n.AlertType] = now
	a.active[n.AlertType] = true
	a.mu.Unlock()

	slog.Warn("alert fired", "type", n.AlertType, "severity", n.Severity)
	if err := a.log.InsertAlert(n); err != nil {
		slog.Error("alerter: recording alert", "error", err)
	}
	if err := a.sender.Send(ctx, n); err != nil {
		slog.Error("alerter: sending alert", "type", n.AlertType, "error", err)
	}
}

// resolve sends a recovery notification once for an active alert.
func (a *Alerter) resolve(ctx context.Context, now time.Time, alertType string, n model.Notification) {
	a.mu.Lock()
	if !a.active[alertType] {
		a.mu.Unlock()
		return
	}
	a.active[alertType] = false
	delete(a.lastFired, alertType)
	a.mu.Unlock()

	slog.Info("alert resolved", "type", alertType)
	if err := a.log.InsertAlert(n); err != nil {
		slog.Error("alerter: recording resolution", "error", err)
	}
	if err := a.sender.Send(ctx, n); err != nil {
		slog.Error("alerter: sending resolution", "type", alertType, "error", err)
	}
}

func summarize(hosts []string, max int) string {
	if len(hosts) <= max {
		return fmt.Sprintf("%v", hosts)
	}
	return fmt.Sprintf("%v and %d more", hosts[:max], len(hosts)-max)
}
