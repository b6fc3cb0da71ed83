package ingest

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbonnel/backcheck/internal/model"
	"github.com/pbonnel/backcheck/internal/store"
)

type memJobWriter struct {
	jobs map[string]model.BackupJob
	err  error
}

func newMemJobWriter() *memJobWriter {
	return &memJobWriter{jobs: make(map[string]model.BackupJob)}
}

func (m *memJobWriter) UpsertJob(j *model.BackupJob) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	key := j.JobID
	if key == "" {
		key = j.Hostname + "|" + j.BackupTime.String() + "|" + j.PolicyName
	}
	_, exists := m.jobs[key]
	m.jobs[key] = *j
	return !exists, nil
}

func TestImportJobsSemicolon(t *testing.T) {
	csvData := `hostname;date;status;taille_gb;job_id;policy
srv-web-01;2026-03-01 02:00:00;0;120.5;nbu-1;daily
srv-db-02;2026-03-01 03:00:00;SUCCESS;80;nbu-2;daily
`
	w := newMemJobWriter()
	stats, err := ImportJobs(strings.NewReader(csvData), w)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Added)
	assert.Zero(t, stats.Errors)
	job := w.jobs["nbu-1"]
	assert.Equal(t, "srv-web-01", job.Hostname)
	assert.Equal(t, time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC), job.BackupTime)
	assert.InDelta(t, 120.5, job.SizeGB, 0.001)
	assert.Equal(t, "0", job.Status)
}

func TestImportJobsCommaDelimiter(t *testing.T) {
	csvData := "client,start_time,result,size_gb\nsrv-a,2026-03-01T02:00:00,Success,10\n"
	w := newMemJobWriter()
	stats, err := ImportJobs(strings.NewReader(csvData), w)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Added)
}

func TestImportJobsTabDelimiter(t *testing.T) {
	csvData := "host\tdate\tstatus\tsize\nsrv-a\t2026-03-01\t0\t5\n"
	w := newMemJobWriter()
	stats, err := ImportJobs(strings.NewReader(csvData), w)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Added)
}

func TestImportJobsSkipsBadRows(t *testing.T) {
	csvData := `hostname;date;status;size
srv-ok;2026-03-01 02:00:00;0;10
;2026-03-01 02:00:00;0;10
srv-bad-date;not-a-date;0;10
srv-bad-size;2026-03-01 02:00:00;0;ten
# a comment line
srv-ok-2;2026-03-01 04:00:00;0;20
`
	w := newMemJobWriter()
	stats, err := ImportJobs(strings.NewReader(csvData), w)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Added)
	assert.Equal(t, 3, stats.Errors)
}

func TestImportJobsUpdatesDuplicates(t *testing.T) {
	csvData := `hostname;date;status;size;job_id
srv-a;2026-03-01 02:00:00;1;10;nbu-1
srv-a;2026-03-01 02:00:00;0;10;nbu-1
`
	w := newMemJobWriter()
	stats, err := ImportJobs(strings.NewReader(csvData), w)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Added)
	assert.Equal(t, 1, stats.Updated)
	assert.Equal(t, "0", w.jobs["nbu-1"].Status, "later row wins")
}

func TestImportJobsNoHostnameColumn(t *testing.T) {
	_, err := ImportJobs(strings.NewReader("foo;bar\n1;2\n"), newMemJobWriter())
	assert.Error(t, err)
}

func TestImportJobsBOMHeader(t *testing.T) {
	csvData := "\ufeffhostname;date;status;size\nsrv-a;2026-03-01;0;1\n"
	w := newMemJobWriter()
	stats, err := ImportJobs(strings.NewReader(csvData), w)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Added)
}

func TestParseDate(t *testing.T) {
	want := time.Date(2026, 3, 1, 2, 30, 0, 0, time.UTC)
	for _, in := range []string{
		"2026-03-01 02:30:00",
		"2026-03-01T02:30:00",
		"01/03/2026 02:30:00",
		"01/03/2026 02:30",
	} {
		got, err := parseDate(in)
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, want, got, "input %q", in)
	}

	epoch, err := parseDate("1772332200")
	require.NoError(t, err)
	assert.Equal(t, time.Unix(1772332200, 0).UTC(), epoch)

	_, err = parseDate("yesterday")
	assert.Error(t, err)
	_, err = parseDate("")
	assert.Error(t, err)
}

func TestParseSizeGB(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"", 0},
		{"120.5", 120.5},
		{"120,5", 120.5},
		{"1 024,5", 1024.5},
		{"1,234.56", 1234.56},
		{"500MB", 500.0 / 1024},
		{"500 MB", 500.0 / 1024},
		{"2TB", 2048},
		{"2T", 2048},
		{"1024KB", 1.0 / 1024},
		{"10GB", 10},
		{"10G", 10},
	}
	for _, tt := range tests {
		got, err := parseSizeGB(tt.in)
		require.NoError(t, err, "input %q", tt.in)
		assert.InDelta(t, tt.want, got, 0.0001, "input %q", tt.in)
	}

	_, err := parseSizeGB("lots")
	assert.Error(t, err)
	_, err = parseSizeGB("-5")
	assert.Error(t, err)
}

func TestParseDurationMin(t *testing.T) {
	assert.Equal(t, 45, parseDurationMin("45"))
	assert.Equal(t, 90, parseDurationMin("01:30:00"))
	assert.Equal(t, 91, parseDurationMin("01:30:40"))
	assert.Zero(t, parseDurationMin(""))
	assert.Zero(t, parseDurationMin("soon"))
}

type memServerWriter struct {
	byHostname map[string]model.ServerEntry
	nextID     int64
}

func newMemServerWriter() *memServerWriter {
	return &memServerWriter{byHostname: make(map[string]model.ServerEntry)}
}

func (m *memServerWriter) GetServerByHostname(hostname string) (model.ServerEntry, error) {
	e, ok := m.byHostname[hostname]
	if !ok {
		return model.ServerEntry{}, store.ErrNotFound
	}
	return e, nil
}

func (m *memServerWriter) CreateServer(e *model.ServerEntry) (int64, error) {
	m.nextID++
	e.ID = m.nextID
	m.byHostname[e.Hostname] = *e
	return e.ID, nil
}

func (m *memServerWriter) UpdateServer(e *model.ServerEntry) error {
	m.byHostname[e.Hostname] = *e
	return nil
}

func TestImportServers(t *testing.T) {
	csvData := `hostname;expected;environment;criticality;owner
srv-web-01;oui;PROD;HIGH;web-team
srv-dev-01;non;DEV;LOW;dev-team
srv-db-01;;PROD;CRITICAL;dba
`
	w := newMemServerWriter()
	stats, err := ImportServers(strings.NewReader(csvData), w, "importer")
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Added)
	assert.True(t, w.byHostname["srv-web-01"].BackupExpected)
	assert.False(t, w.byHostname["srv-dev-01"].BackupExpected)
	assert.True(t, w.byHostname["srv-db-01"].BackupExpected, "expected defaults to true")
	assert.Equal(t, "PROD", w.byHostname["srv-web-01"].Environment)
	assert.Equal(t, "importer", w.byHostname["srv-web-01"].UpdatedBy)
}

func TestImportServersUpdatesAndKeepsSuspension(t *testing.T) {
	w := newMemServerWriter()
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	until := from.Add(24 * time.Hour)
	_, err := w.CreateServer(&model.ServerEntry{
		Hostname:       "srv-a",
		BackupExpected: true,
		SuspendedFrom:  &from,
		SuspendedUntil: &until,
		SuspendReason:  "maintenance",
	})
	require.NoError(t, err)

	stats, err := ImportServers(strings.NewReader("hostname;owner\nsrv-a;new-team\n"), w, "importer")
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Updated)
	got := w.byHostname["srv-a"]
	assert.Equal(t, "new-team", got.Owner)
	require.NotNil(t, got.SuspendedFrom, "reimport must not clear an active suspension")
	assert.Equal(t, "maintenance", got.SuspendReason)
}
