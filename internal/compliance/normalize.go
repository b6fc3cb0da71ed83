// Package compliance implements the backup-compliance engine: hostname
// normalization, job validity, the registry/job join, and periodic archival.
package compliance

import "strings"

// Suffixes and prefixes commonly appended by backup tooling. These are a
// fixed, closed set: changing them changes compliance results, so any edit
// must be reflected in the normalization tests.
var (
	hostSuffixes = []string{"_bkp", "_backup", "_prod", "_test", "_dev", "_dr", "_snap", "_clone"}
	hostPrefixes = []string{"bkp_", "backup_"}
)

// Normalize maps a raw hostname to the canonical key used to join registry
// entries against job records. It never fails; empty input yields "".
//
// Order matters: domain and email qualifiers are cut before the suffix and
// prefix sets are stripped.
func Normalize(raw string) string {
	h := strings.ToLower(strings.TrimSpace(raw))
	if h == "" {
		return ""
	}

	// Strip the DNS domain, then any email-style qualifier.
	if i := strings.IndexByte(h, '.'); i >= 0 {
		h = h[:i]
	}
	if i := strings.IndexByte(h, '@'); i >= 0 {
		h = h[:i]
	}

	for _, suffix := range hostSuffixes {
		if strings.HasSuffix(h, suffix) {
			h = h[:len(h)-len(suffix)]
		}
	}
	for _, prefix := range hostPrefixes {
		if strings.HasPrefix(h, prefix) {
			h = h[len(prefix):]
		}
	}

	return h
}
