package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/netopsio/srpulse/internal/domain"
	"github.com/netopsio/srpulse/internal/persistence"
)

// ComplaintWriter is the slice of the complaints repository the ingestor
// needs.
type ComplaintWriter interface {
	UpsertBatch(ctx context.Context, complaints []persistence.Complaint) (int64, error)
}

// Ingestor turns delimited SR exports into complaints_raw rows. Re-running
// the same file is safe: rows are upserted by sr_number.
type Ingestor struct {
	repo ComplaintWriter
}

func New(repo ComplaintWriter) *Ingestor {
	return &Ingestor{repo: repo}
}

// Report carries per-file ingest diagnostics.
type Report struct {
	RunID            string `json:"run_id"`
	Encoding         string `json:"encoding"`
	Delimiter        string `json:"delimiter"`
	RowsRead         int    `json:"rows_read"`
	RowsUpserted     int    `json:"rows_upserted"`
	DroppedNoKey     int    `json:"dropped_no_key"`
	DroppedBadOpenTS int    `json:"dropped_bad_open_ts"`
	SkippedMalformed int    `json:"skipped_malformed"`
	SampleRawTS      string `json:"sample_raw_ts,omitempty"`
	SampleParsedTS   string `json:"sample_parsed_ts,omitempty"`
}

// ReadComplaints parses a delimited SR export into normalized rows without
// touching the database. Rows missing an sr_number or an intelligible open
// timestamp are dropped and counted in the report.
func ReadComplaints(path string) ([]persistence.Complaint, *Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read source file: %w", err)
	}

	f, err := readFrame(path, data)
	if err != nil {
		return nil, nil, err
	}

	report := &Report{
		RunID:            uuid.New().String(),
		Encoding:         f.encoding,
		Delimiter:        string(f.delimiter),
		RowsRead:         len(f.rows),
		SkippedMalformed: f.skipped,
	}

	cols := MapHeaders(f.headers)
	if err := CheckSchema(cols); err != nil {
		return nil, report, err
	}

	idx := make(map[string]int, len(cols))
	for i, c := range cols {
		if _, dup := idx[c]; !dup {
			idx[c] = i
		}
	}
	field := func(row []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	complaints := make([]persistence.Complaint, 0, len(f.rows))
	for _, row := range f.rows {
		srNumber := field(row, "sr_number")
		if srNumber == "" {
			report.DroppedNoKey++
			continue
		}

		rawOpen := field(row, "open_ts")
		if report.SampleRawTS == "" && rawOpen != "" {
			report.SampleRawTS = rawOpen
		}
		openTS, ok := ParseTimestamp(rawOpen)
		if !ok {
			report.DroppedBadOpenTS++
			continue
		}
		if report.SampleParsedTS == "" {
			report.SampleParsedTS = openTS.Format(time.RFC3339)
		}

		// A close stamp that predates the open stamp is export noise.
		var closeTS *time.Time
		if raw := field(row, "close_ts"); raw != "" {
			if t, ok := ParseTimestamp(raw); ok && !t.Before(openTS) {
				closeTS = &t
			}
		}

		complaints = append(complaints, persistence.Complaint{
			SRNumber:    srNumber,
			SRRowID:     field(row, "sr_row_id"),
			MDN:         field(row, "mdn"),
			RegionID:    field(row, "region_id"),
			OpenDate:    domain.Midnight(openTS),
			OpenTS:      openTS,
			CloseTS:     closeTS,
			SRDuration:  field(row, "sr_duration"),
			SRType:      field(row, "sr_type"),
			SRSubType:   field(row, "sr_sub_type"),
			SRStatus:    field(row, "sr_status"),
			SRSubStatus: field(row, "sr_sub_status"),
			RCA:         field(row, "rca"),
			DescText:    field(row, "desc_text"),
			FaultType:   field(row, "fault_type"),
			Department:  field(row, "department"),
			Region:      field(row, "region"),
			City:        field(row, "city"),
			ExcID:       field(row, "exc_id"),
			CabinetID:   field(row, "cabinet_id"),
			DPID:        field(row, "dp_id"),
			SwitchID:    field(row, "switch_id"),
			Product:     field(row, "product"),
			SubProduct:  field(row, "sub_product"),
			ProductID:   field(row, "product_id"),
			CustSeg:     field(row, "cust_seg"),
			ServiceType: field(row, "service_type"),
			Priority:    field(row, "priority"),
		})
	}

	if len(complaints) == 0 && report.DroppedBadOpenTS > 0 {
		return nil, report, &domain.DateParseError{Column: "open_ts", Sample: report.SampleRawTS}
	}

	return complaints, report, nil
}

// IngestFile parses a delimited export and upserts its rows.
func (i *Ingestor) IngestFile(ctx context.Context, path string) (domain.StageResult, error) {
	start := time.Now()
	file := filepath.Base(path)

	complaints, report, err := ReadComplaints(path)
	if err != nil {
		log.Error().Err(err).Str("file", file).Msg("Ingest failed")
		res := domain.Errorf("ingest failed: %v", err)
		if report != nil {
			res = res.WithDiagnostic("report", report)
		}
		return res, err
	}

	if len(complaints) == 0 {
		err := fmt.Errorf("no ingestable rows in %s", file)
		log.Error().Str("file", file).Int("rows_read", report.RowsRead).Msg("Ingest produced no rows")
		return domain.Errorf("%v", err).WithCount("rows_read", report.RowsRead), err
	}

	written, err := i.repo.UpsertBatch(ctx, complaints)
	if err != nil {
		serr := &domain.StoreError{Op: "complaints upsert", Err: err}
		log.Error().Err(serr).Str("file", file).Msg("Ingest failed")
		return domain.Errorf("ingest failed: %v", serr), serr
	}
	report.RowsUpserted = int(written)

	log.Info().
		Str("file", file).
		Str("run_id", report.RunID).
		Str("encoding", report.Encoding).
		Str("delimiter", report.Delimiter).
		Int("rows_read", report.RowsRead).
		Int64("rows_upserted", written).
		Int("dropped_no_key", report.DroppedNoKey).
		Int("dropped_bad_open_ts", report.DroppedBadOpenTS).
		Int("skipped_malformed", report.SkippedMalformed).
		Dur("elapsed", time.Since(start)).
		Msg("Ingest complete")

	res := domain.Success(fmt.Sprintf("ingested %d rows from %s", written, file)).
		WithCount("rows_read", report.RowsRead).
		WithCount("rows_upserted", int(written)).
		WithCount("dropped_no_key", report.DroppedNoKey).
		WithCount("dropped_bad_open_ts", report.DroppedBadOpenTS).
		WithCount("skipped_malformed", report.SkippedMalformed).
		WithDiagnostic("run_id", report.RunID).
		WithDiagnostic("encoding", report.Encoding).
		WithDiagnostic("delimiter", report.Delimiter)
	if report.SampleRawTS != "" {
		res = res.WithDiagnostic("sample_raw_ts", report.SampleRawTS).
			WithDiagnostic("sample_parsed_ts", report.SampleParsedTS)
	}
	return res, nil
}
