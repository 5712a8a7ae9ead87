// Package validate checks the day's ingested complaints for data-quality
// gaps: blank mandatory columns and hours of the day with no rows at all.
// Findings are advisory diagnostics; the stage never fails the pipeline
// over dirty data.
package validate

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/netopsio/srpulse/internal/domain"
	"github.com/netopsio/srpulse/internal/persistence"
)

// maxListedHours bounds how many missing-hour stamps the issue text carries.
const maxListedHours = 5

// QualityReader is the slice of the complaints repository the validator needs.
type QualityReader interface {
	QualityRows(ctx context.Context, day time.Time) ([]persistence.QualityRow, error)
}

// Validator inspects one day's raw rows.
type Validator struct {
	complaints QualityReader
}

func NewValidator(complaints QualityReader) *Validator {
	return &Validator{complaints: complaints}
}

// Run reports data-quality issues for the day. Issues never halt the
// pipeline; an empty day comes back as a warning so the operator can tell
// "clean" from "absent".
func (v *Validator) Run(ctx context.Context, day time.Time) (domain.StageResult, error) {
	day = domain.Midnight(day)
	start := time.Now()

	rows, err := v.complaints.QualityRows(ctx, day)
	if err != nil {
		wrapped := &domain.StoreError{Op: "quality rows", Err: err}
		log.Error().Err(wrapped).Time("target_date", day).Msg("Validation stage failed")
		return domain.Errorf("validation failed: %v", wrapped), wrapped
	}
	if len(rows) == 0 {
		log.Warn().Time("target_date", day).Msg("No data found for validation period")
		return domain.Warning("no data found").WithCount("rows", 0), nil
	}

	issues := append(missingValueIssues(rows), missingHourIssues(day, rows)...)

	if len(issues) > 0 {
		log.Warn().
			Time("target_date", day).
			Strs("issues", issues).
			Msg("Validation issues found")
	} else {
		log.Info().
			Time("target_date", day).
			Int("rows", len(rows)).
			Dur("elapsed", time.Since(start)).
			Msg("Validation passed")
	}

	res := domain.Success("validation complete").
		WithCount("rows", len(rows)).
		WithCount("issues_found", len(issues))
	if len(issues) > 0 {
		res = res.WithDiagnostic("issues", issues)
	}
	return res, nil
}

// missingValueIssues tallies blank values in the columns the analytics
// dimensions key on.
func missingValueIssues(rows []persistence.QualityRow) []string {
	checks := []struct {
		col string
		val func(persistence.QualityRow) string
	}{
		{"region", func(r persistence.QualityRow) string { return r.Region }},
		{"sr_type", func(r persistence.QualityRow) string { return r.SRType }},
		{"rca", func(r persistence.QualityRow) string { return r.RCA }},
	}

	var issues []string
	for _, c := range checks {
		blank := 0
		for _, r := range rows {
			if strings.TrimSpace(c.val(r)) == "" {
				blank++
			}
		}
		if blank > 0 {
			issues = append(issues, fmt.Sprintf("Found %d rows with missing %s", blank, c.col))
		}
	}
	return issues
}

// missingHourIssues flags hours of the day with zero complaints, a proxy for
// ingestion gaps in a feed that normally never goes quiet.
func missingHourIssues(day time.Time, rows []persistence.QualityRow) []string {
	present := make(map[int]bool, 24)
	for _, r := range rows {
		ts := r.OpenTS.UTC()
		if domain.Midnight(ts).Equal(day) {
			present[ts.Hour()] = true
		}
	}

	var missing []string
	for h := 0; h < 24; h++ {
		if !present[h] {
			missing = append(missing, day.Add(time.Duration(h)*time.Hour).Format("2006-01-02 15:04:05"))
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)

	listed := missing
	if len(listed) > maxListedHours {
		listed = listed[:maxListedHours]
	}
	return []string{fmt.Sprintf("Missing data for %d hours: [%s]...",
		len(missing), strings.Join(listed, ", "))}
}
