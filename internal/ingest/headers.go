package ingest

import (
	"strings"

	"github.com/netopsio/srpulse/internal/domain"
)

// requiredColumns must all be present after synonym mapping.
var requiredColumns = []string{"sr_number", "open_ts", "sr_type", "region", "exc_id"}

// synonyms maps canonical columns to the header aliases seen across regional
// exports. Candidates are tried in order, and a mapping applies only when
// the canonical name itself is absent.
var synonyms = []struct {
	target     string
	candidates []string
}{
	{"open_ts", []string{"sr_open_dttm", "date", "time", "open_date", "opened", "timestamp", "created_at", "open_dttm", "occurrence_time"}},
	{"sr_row_id", []string{"id", "row_id", "record_id", "row", "sr_id", "sr_row", "rowid"}},
	{"sr_type", []string{"type", "complaint_type", "category", "order_type"}},
	{"region", []string{"location", "zone", "area", "region_name"}},
	{"exc_id", []string{"exchange", "exc", "exchange_id", "excid"}},
	{"close_ts", []string{"sr_close_dttm", "close_dttm", "closed_at", "resolution_time"}},
	{"open_date", []string{"sr_open_dt", "open_dt"}},
	{"sr_status", []string{"status"}},
	{"priority", []string{"sr_prio_cd"}},
}

// NormalizeHeader lowercases, trims, and underscores one raw header.
func NormalizeHeader(h string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
}

// MapHeaders normalizes raw headers and applies the synonym table. The
// result is positionally aligned with the input.
func MapHeaders(raw []string) []string {
	cols := make([]string, len(raw))
	present := make(map[string]bool, len(raw))
	for i, h := range raw {
		cols[i] = NormalizeHeader(h)
		present[cols[i]] = true
	}
	for _, syn := range synonyms {
		if present[syn.target] {
			continue
		}
		for _, cand := range syn.candidates {
			if !present[cand] {
				continue
			}
			for i, c := range cols {
				if c == cand {
					cols[i] = syn.target
					break
				}
			}
			delete(present, cand)
			present[syn.target] = true
			break
		}
	}
	return cols
}

// CheckSchema verifies the required canonical columns are all present.
func CheckSchema(cols []string) error {
	present := make(map[string]bool, len(cols))
	for _, c := range cols {
		present[c] = true
	}
	var missing []string
	for _, req := range requiredColumns {
		if !present[req] {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		return &domain.SchemaError{Missing: missing, Found: cols, Required: requiredColumns}
	}
	return nil
}
