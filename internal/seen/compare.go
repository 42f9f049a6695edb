package seen

import (
	"net/url"
	"strings"

	"github.com/jimezsa/upjobs/internal/models"
)

// DiffStats captures stats for A-B unseen filtering.
type DiffStats struct {
	TotalNew    int
	TotalSeen   int
	InvalidNew  int
	InvalidSeen int
	Unseen      int
}

// InvalidSkipped returns the total invalid records skipped during comparison.
func (s DiffStats) InvalidSkipped() int {
	return s.InvalidNew + s.InvalidSeen
}

// MergeStats captures stats for seen history updates.
type MergeStats struct {
	TotalSeen    int
	TotalInput   int
	InvalidSeen  int
	InvalidInput int
	Added        int
	TotalOut     int
}

// InvalidSkipped returns the total invalid records skipped during merge.
func (s MergeStats) InvalidSkipped() int {
	return s.InvalidSeen + s.InvalidInput
}

// Key identifies a listing by its URL, ignoring scheme, query string,
// fragment, host case and a trailing slash. Search pages append tracking
// parameters to the same listing.
func Key(record models.JobRecord) (string, bool) {
	raw := strings.TrimSpace(record.URL)
	if raw == "" || raw == models.NotAvailable {
		return "", false
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return "", false
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")
	path := strings.TrimRight(parsed.Path, "/")
	return host + path, true
}

// Diff returns records from newRecords whose key is not in seenRecords.
func Diff(newRecords []models.JobRecord, seenRecords []models.JobRecord) ([]models.JobRecord, DiffStats) {
	stats := DiffStats{
		TotalNew:  len(newRecords),
		TotalSeen: len(seenRecords),
	}

	seenKeys := make(map[string]struct{}, len(seenRecords))
	for _, record := range seenRecords {
		key, ok := Key(record)
		if !ok {
			stats.InvalidSeen++
			continue
		}
		seenKeys[key] = struct{}{}
	}

	newKeys := make(map[string]struct{}, len(newRecords))
	unseen := make([]models.JobRecord, 0, len(newRecords))
	for _, record := range newRecords {
		key, ok := Key(record)
		if !ok {
			stats.InvalidNew++
			continue
		}
		if _, exists := newKeys[key]; exists {
			continue
		}
		newKeys[key] = struct{}{}
		if _, exists := seenKeys[key]; exists {
			continue
		}
		unseen = append(unseen, record)
	}

	stats.Unseen = len(unseen)
	return unseen, stats
}

// Merge appends unique input records to the seen history.
// Existing entries win collisions.
func Merge(existing []models.JobRecord, input []models.JobRecord) ([]models.JobRecord, MergeStats) {
	stats := MergeStats{
		TotalSeen:  len(existing),
		TotalInput: len(input),
	}

	keys := make(map[string]struct{}, len(existing)+len(input))
	out := make([]models.JobRecord, 0, len(existing)+len(input))

	for _, record := range existing {
		key, ok := Key(record)
		if !ok {
			stats.InvalidSeen++
			out = append(out, record)
			continue
		}
		if _, exists := keys[key]; exists {
			continue
		}
		keys[key] = struct{}{}
		out = append(out, record)
	}

	for _, record := range input {
		key, ok := Key(record)
		if !ok {
			stats.InvalidInput++
			continue
		}
		if _, exists := keys[key]; exists {
			continue
		}
		keys[key] = struct{}{}
		out = append(out, record)
		stats.Added++
	}

	stats.TotalOut = len(out)
	return out, stats
}
