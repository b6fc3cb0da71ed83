// Package ingest parses backup-job and server-registry CSV exports. Exports
// come from several backup products, so the parser detects the delimiter,
// accepts localized headers, and tolerates per-row damage: a bad row is
// counted and skipped, never fatal.
package ingest

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/pbonnel/backcheck/internal/model"
	"github.com/pbonnel/backcheck/internal/store"
)

// JobWriter persists parsed job rows.
type JobWriter interface {
	UpsertJob(*model.BackupJob) (bool, error)
}

// ServerWriter persists parsed registry rows.
type ServerWriter interface {
	GetServerByHostname(hostname string) (model.ServerEntry, error)
	CreateServer(*model.ServerEntry) (int64, error)
	UpdateServer(*model.ServerEntry) error
}

var delimiters = []rune{';', ',', '\t', '|'}

// sniffDelimiter picks the candidate occurring most often in the header line.
func sniffDelimiter(header string) rune {
	best := ','
	bestCount := 0
	for _, d := range delimiters {
		if n := strings.Count(header, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

// headerIndex maps canonical field names to column positions using the alias
// table. Unknown columns are ignored.
func headerIndex(header []string, aliases map[string][]string) map[string]int {
	idx := make(map[string]int)
	for col, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		for canonical, names := range aliases {
			if _, taken := idx[canonical]; taken {
				continue
			}
			for _, alias := range names {
				if key == alias {
					idx[canonical] = col
					break
				}
			}
		}
	}
	return idx
}

func field(record []string, idx map[string]int, name string) string {
	col, ok := idx[name]
	if !ok || col >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[col])
}

// newReader wraps r in a CSV reader with the sniffed delimiter, skipping
// comment lines.
func newReader(r io.Reader) (*csv.Reader, error) {
	br := bufio.NewReader(r)
	header, err := br.Peek(4096)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}
	firstLine, _, _ := strings.Cut(string(header), "\n")

	cr := csv.NewReader(br)
	cr.Comma = sniffDelimiter(firstLine)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return cr, nil
}

var jobAliases = map[string][]string{
	"hostname":      {"hostname", "host", "client", "client_name", "server", "serveur", "machine"},
	"backup_time":   {"backup_time", "date", "start_time", "started", "start", "date_sauvegarde", "timestamp"},
	"job_id":        {"job_id", "jobid", "id", "job"},
	"policy":        {"policy", "policy_name", "politique"},
	"schedule":      {"schedule", "schedule_name", "planification"},
	"status":        {"status", "statut", "state", "exit_code", "code", "result"},
	"size":          {"size_gb", "size", "taille", "taille_gb", "volume", "kilobytes", "bytes"},
	"duration":      {"duration", "duration_min", "elapsed", "duree"},
	"media_server":  {"media_server", "media"},
	"storage_unit":  {"storage_unit", "stu", "storage"},
	"error_message": {"error", "error_message", "message", "erreur"},
}

// ImportJobs parses a job CSV and upserts every parseable row. Parsing never
// fails the batch: malformed rows are counted in Errors and skipped.
func ImportJobs(r io.Reader, w JobWriter) (model.ImportStats, error) {
	var stats model.ImportStats

	cr, err := newReader(r)
	if err != nil {
		return stats, err
	}
	header, err := cr.Read()
	if err != nil {
		return stats, fmt.Errorf("reading csv header: %w", err)
	}
	idx := headerIndex(header, jobAliases)
	if _, ok := idx["hostname"]; !ok {
		return stats, fmt.Errorf("no hostname column recognized in header %v", header)
	}

	line := 1
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			slog.Warn("ingest: unreadable row", "line", line, "error", err)
			stats.Errors++
			continue
		}

		job, err := parseJobRow(record, idx)
		if err != nil {
			slog.Warn("ingest: skipping row", "line", line, "error", err)
			stats.Errors++
			continue
		}

		added, err := w.UpsertJob(&job)
		if err != nil {
			slog.Warn("ingest: storing row", "line", line, "error", err)
			stats.Errors++
			continue
		}
		if added {
			stats.Added++
		} else {
			stats.Updated++
		}
	}

	slog.Info("job import finished",
		"added", stats.Added, "updated", stats.Updated, "errors", stats.Errors)
	return stats, nil
}

func parseJobRow(record []string, idx map[string]int) (model.BackupJob, error) {
	hostname := field(record, idx, "hostname")
	if hostname == "" {
		return model.BackupJob{}, fmt.Errorf("empty hostname")
	}

	backupTime, err := parseDate(field(record, idx, "backup_time"))
	if err != nil {
		return model.BackupJob{}, fmt.Errorf("backup time: %w", err)
	}

	size, err := parseSizeGB(field(record, idx, "size"))
	if err != nil {
		return model.BackupJob{}, fmt.Errorf("size: %w", err)
	}

	return model.BackupJob{
		Hostname:     hostname,
		BackupTime:   backupTime,
		JobID:        field(record, idx, "job_id"),
		PolicyName:   field(record, idx, "policy"),
		ScheduleName: field(record, idx, "schedule"),
		Status:       field(record, idx, "status"),
		SizeGB:       size,
		DurationMin:  parseDurationMin(field(record, idx, "duration")),
		MediaServer:  field(record, idx, "media_server"),
		StorageUnit:  field(record, idx, "storage_unit"),
		ErrorMessage: field(record, idx, "error_message"),
	}, nil
}

var dateFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2006-01-02",
	"02/01/2006",
}

// parseDate accepts the date formats seen across backup-product exports,
// plus a raw unix timestamp.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	if epoch, err := strconv.ParseInt(s, 10, 64); err == nil && epoch > 0 {
		return time.Unix(epoch, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// sizeUnits is checked longest suffix first so "KB" wins over "B".
var sizeUnits = []struct {
	suffix string
	factor float64
}{
	{"KB", 1.0 / (1 << 20)},
	{"MB", 1.0 / (1 << 10)},
	{"GB", 1},
	{"TB", 1 << 10},
	{"K", 1.0 / (1 << 20)},
	{"M", 1.0 / (1 << 10)},
	{"G", 1},
	{"T", 1 << 10},
	{"B", 1.0 / (1 << 30)},
}

// parseSizeGB converts a size field to gigabytes. A bare number is taken as
// GB already. Empty input is zero, which the validity rule then rejects.
func parseSizeGB(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	s = strings.ToUpper(strings.TrimSpace(s))

	unit := 1.0
	for _, u := range sizeUnits {
		if strings.HasSuffix(s, u.suffix) && len(s) > len(u.suffix) {
			s = strings.TrimSpace(s[:len(s)-len(u.suffix)])
			unit = u.factor
			break
		}
	}

	n, err := parseLocalizedFloat(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative size %v", n)
	}
	return n * unit, nil
}

// parseLocalizedFloat handles both "1,234.56" and the French "1 234,56".
func parseLocalizedFloat(s string) (float64, error) {
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "") // non-breaking thousands separator
	if strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", "")
	} else {
		s = strings.ReplaceAll(s, ",", ".")
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable number %q", s)
	}
	return n, nil
}

// parseDurationMin accepts minutes as a bare number or an HH:MM:SS elapsed
// time. Unparseable input is zero; duration is informational only.
func parseDurationMin(s string) int {
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return n
	}
	parts := strings.Split(s, ":")
	if len(parts) == 3 {
		h, err1 := strconv.Atoi(parts[0])
		m, err2 := strconv.Atoi(parts[1])
		sec, err3 := strconv.Atoi(parts[2])
		if err1 == nil && err2 == nil && err3 == nil {
			total := h*3600 + m*60 + sec
			return (total + 30) / 60
		}
	}
	return 0
}

var serverAliases = map[string][]string{
	"hostname":        {"hostname", "host", "server", "serveur", "name", "machine"},
	"backup_expected": {"backup_expected", "expected", "sauvegarde_attendue", "backup"},
	"environment":     {"environment", "env", "environnement"},
	"criticality":     {"criticality", "criticite", "priority"},
	"application":     {"application", "app"},
	"owner":           {"owner", "proprietaire", "team"},
	"comment":         {"comment", "commentaire", "notes"},
}

// ImportServers parses a registry CSV, creating new entries and updating
// existing ones by hostname.
func ImportServers(r io.Reader, w ServerWriter, updatedBy string) (model.ImportStats, error) {
	var stats model.ImportStats

	cr, err := newReader(r)
	if err != nil {
		return stats, err
	}
	header, err := cr.Read()
	if err != nil {
		return stats, fmt.Errorf("reading csv header: %w", err)
	}
	idx := headerIndex(header, serverAliases)
	if _, ok := idx["hostname"]; !ok {
		return stats, fmt.Errorf("no hostname column recognized in header %v", header)
	}

	line := 1
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			stats.Errors++
			continue
		}

		hostname := field(record, idx, "hostname")
		if hostname == "" {
			stats.Errors++
			continue
		}

		entry := model.ServerEntry{
			Hostname:       hostname,
			BackupExpected: parseBool(field(record, idx, "backup_expected"), true),
			Environment:    field(record, idx, "environment"),
			Criticality:    field(record, idx, "criticality"),
			Application:    field(record, idx, "application"),
			Owner:          field(record, idx, "owner"),
			Comment:        field(record, idx, "comment"),
			UpdatedBy:      updatedBy,
		}

		existing, err := w.GetServerByHostname(hostname)
		switch {
		case errors.Is(err, store.ErrNotFound):
			if _, err := w.CreateServer(&entry); err != nil {
				slog.Warn("ingest: creating server", "line", line, "hostname", hostname, "error", err)
				stats.Errors++
				continue
			}
			stats.Added++
		case err != nil:
			stats.Errors++
		default:
			entry.ID = existing.ID
			entry.SuspendedFrom = existing.SuspendedFrom
			entry.SuspendedUntil = existing.SuspendedUntil
			entry.SuspendReason = existing.SuspendReason
			if err := w.UpdateServer(&entry); err != nil {
				slog.Warn("ingest: updating server", "line", line, "hostname", hostname, "error", err)
				stats.Errors++
				continue
			}
			stats.Updated++
		}
	}

	slog.Info("server import finished",
		"added", stats.Added, "updated", stats.Updated, "errors", stats.Errors)
	return stats, nil
}

func parseBool(s string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return def
	case "1", "true", "yes", "oui", "y", "x":
		return true
	default:
		return false
	}
}
