// Package templates renders the dashboard pages as templ components.
package templates

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/a-h/templ"

	"github.com/pbonnel/backcheck/internal/model"
	"github.com/pbonnel/backcheck/internal/scheduler"
)

func formatRate(rate float64) string {
	return fmt.Sprintf("%.1f%%", rate)
}

// rateClass picks the badge color for a compliance rate.
func rateClass(rate float64) string {
	switch {
	case rate >= 95:
		return "ok"
	case rate >= 85:
		return "warn"
	default:
		return "crit"
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02/01/2006 15:04")
}

// Dashboard renders the compliance overview page.
func Dashboard(res model.ComplianceResult, nextArchive time.Time) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := writeHeader(w, "Backup Compliance"); err != nil {
			return err
		}
		if res.Err != "" {
			fmt.Fprintf(w, `<div class="banner crit">Calculation failed: %s</div>`,
				templ.EscapeString(res.Err))
		}
		fmt.Fprintf(w, `<section class="summary">
<div class="stat %s"><span class="value">%s</span><span class="label">compliance</span></div>
<div class="stat"><span class="value">%d</span><span class="label">in scope</span></div>
<div class="stat"><span class="value">%d</span><span class="label">compliant</span></div>
<div class="stat"><span class="value">%d</span><span class="label">non-compliant</span></div>
<div class="stat"><span class="value">%d</span><span class="label">unreferenced</span></div>
</section>`,
			rateClass(res.Rate), formatRate(res.Rate),
			res.TotalInScope, len(res.Compliant), len(res.NonCompliant), len(res.Unreferenced))

		fmt.Fprintf(w, `<p class="meta">computed %s · %d jobs in window · next archive %s</p>`,
			formatTime(res.ComputedAt), res.TotalJobs, formatTime(nextArchive))

		if err := hostList(w, "Non-compliant servers", "crit", res.NonCompliant); err != nil {
			return err
		}
		if err := hostList(w, "Unreferenced hosts", "warn", res.Unreferenced); err != nil {
			return err
		}
		return writeFooter(w)
	})
}

// ArchiveList renders the sealed-period history page.
func ArchiveList(archives []model.ComplianceArchive) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := writeHeader(w, "Compliance Archives"); err != nil {
			return err
		}
		io.WriteString(w, `<table class="archives"><thead><tr>
<th>Period end</th><th>Rate</th><th>Compliant</th><th>Non-compliant</th><th>Mode</th>
</tr></thead><tbody>`)
		for _, a := range archives {
			fmt.Fprintf(w, `<tr><td>%s</td><td class="%s">%s</td><td>%d</td><td>%d</td><td>%s</td></tr>`,
				formatTime(a.PeriodEnd), rateClass(a.Rate), formatRate(a.Rate),
				a.Compliant, a.NonCompliant, templ.EscapeString(a.Mode))
		}
		io.WriteString(w, `</tbody></table>`)
		return writeFooter(w)
	})
}

// SchedulerPanel renders the background-loop status fragment.
func SchedulerPanel(st scheduler.Status) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		fmt.Fprintf(w, `<div class="scheduler"><p>next archive %s</p>`, formatTime(st.NextArchiveAt))
		if st.LastArchive != nil {
			switch {
			case st.LastArchive.Created:
				fmt.Fprintf(w, `<p class="ok">last archive created (%s)</p>`,
					templ.EscapeString(st.LastArchive.Period))
			case st.LastArchive.Err != "":
				fmt.Fprintf(w, `<p class="crit">last archive failed: %s</p>`,
					templ.EscapeString(st.LastArchive.Err))
			}
		}
		io.WriteString(w, `</div>`)
		return nil
	})
}

func hostList(w io.Writer, title, class string, hosts []string) error {
	if len(hosts) == 0 {
		return nil
	}
	fmt.Fprintf(w, `<section class="hosts %s"><h2>%s (%d)</h2><ul>`,
		class, templ.EscapeString(title), len(hosts))
	for _, h := range hosts {
		fmt.Fprintf(w, `<li>%s</li>`, templ.EscapeString(h))
	}
	_, err := io.WriteString(w, `</ul></section>`)
	return err
}

func writeHeader(w io.Writer, title string) error {
	_, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en"><head><meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
<style>
body{font-family:system-ui,sans-serif;margin:2rem;background:#f6f7f9;color:#1d2330}
.summary{display:flex;gap:1rem;flex-wrap:wrap}
.stat{background:#fff;border-radius:8px;padding:1rem 1.5rem;box-shadow:0 1px 3px rgba(0,0,0,.1)}
.stat .value{display:block;font-size:1.8rem;font-weight:600}
.stat .label{color:#6b7280;font-size:.85rem}
.ok .value,td.ok{color:#15803d}.warn .value,td.warn{color:#b45309}.crit .value,td.crit{color:#b91c1c}
.banner.crit{background:#fee2e2;color:#b91c1c;padding:.75rem 1rem;border-radius:6px;margin-bottom:1rem}
.meta{color:#6b7280}
.hosts ul{columns:3;list-style:none;padding:0}
table{border-collapse:collapse;background:#fff}th,td{padding:.5rem 1rem;text-align:left;border-bottom:1px solid #e5e7eb}
</style>
</head><body><header><h1>%s</h1></header><main>`,
		templ.EscapeString(title), templ.EscapeString(title))
	return err
}

func writeFooter(w io.Writer) error {
	_, err := io.WriteString(w, `</main></body></html>`)
	return err
}
