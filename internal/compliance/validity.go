package compliance

import (
	"strconv"
	"strings"

	"github.com/pbonnel/backcheck/internal/model"
)

// IsValidJob reports whether a job record counts as a successful backup.
// A job is valid iff its status denotes success or an acceptable warning
// (numeric codes 0 and 1; strings SUCCESS, WARNING, or empty, compared
// case-insensitively) AND its transferred size is strictly positive.
//
// A zero-byte "successful" job does not count: an empty transfer is not a
// backup. Malformed status strings fall through to the string match and
// fail it, so a bad record never errors the batch.
func IsValidJob(job model.BackupJob) bool {
	if job.SizeGB <= 0 {
		return false
	}
	return statusAcceptable(job.Status)
}

func statusAcceptable(status string) bool {
	s := strings.TrimSpace(status)
	if n, err := strconv.Atoi(s); err == nil {
		return n == 0 || n == 1
	}
	switch strings.ToUpper(s) {
	case "", "SUCCESS", "WARNING":
		return true
	}
	return false
}
