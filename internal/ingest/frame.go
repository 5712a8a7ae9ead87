package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/netopsio/srpulse/internal/domain"
)

// frame is a parsed delimited file: a header row plus data rows.
type frame struct {
	headers   []string
	rows      [][]string
	encoding  string
	delimiter rune
	skipped   int
}

var retryDelimiters = []rune{';', '\t', '|'}

// readFrame decodes and parses raw file bytes. Encodings are attempted in
// order with a comma delimiter first. A parse that collapses to a single
// column triggers the alternate delimiters, and a final tolerant pass skips
// malformed rows instead of failing the file.
func readFrame(path string, data []byte) (*frame, error) {
	var (
		decoded     string
		decodedName string
		fallback    *frame
	)
	for _, name := range encodingNames {
		text, err := decodeAs(name, data)
		if err != nil {
			continue
		}
		if decodedName == "" {
			decoded, decodedName = text, name
		}
		f, err := parseStrict(text, ',')
		if err != nil {
			continue
		}
		f.encoding, f.delimiter = name, ','
		if len(f.headers) > 1 && len(f.rows) > 0 {
			return f, nil
		}
		if fallback == nil {
			fallback = f
			decoded, decodedName = text, name
		}
	}

	if decodedName == "" {
		return nil, &domain.EncodingError{Path: path, Attempts: encodingNames}
	}

	for _, d := range retryDelimiters {
		f, err := parseStrict(decoded, d)
		if err != nil || len(f.headers) <= 1 || len(f.rows) == 0 {
			continue
		}
		f.encoding, f.delimiter = decodedName, d
		return f, nil
	}
	if f := parseTolerant(decoded); len(f.headers) > 1 && len(f.rows) > 0 {
		f.encoding = decodedName
		return f, nil
	}
	if fallback != nil {
		return fallback, nil
	}
	return nil, fmt.Errorf("no delimited rows found in %s", path)
}

// parseStrict reads the whole file with the standard csv reader. Any
// malformed row fails the attempt.
func parseStrict(text string, delim rune) (*frame, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty file")
	}
	return &frame{headers: records[0], rows: records[1:], delimiter: delim}, nil
}

// parseTolerant sniffs the delimiter from the header line, relaxes quoting,
// and drops rows whose field count does not match the header.
func parseTolerant(text string) *frame {
	delim := sniffDelimiter(firstLine(text))
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	f := &frame{delimiter: delim}
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			f.skipped++
			continue
		}
		if f.headers == nil {
			f.headers = rec
			continue
		}
		if len(rec) != len(f.headers) {
			f.skipped++
			continue
		}
		f.rows = append(f.rows, rec)
	}
	return f
}

func sniffDelimiter(line string) rune {
	best, bestCount := ',', strings.Count(line, ",")
	for _, c := range retryDelimiters {
		if n := strings.Count(line, string(c)); n > bestCount {
			best, bestCount = c, n
		}
	}
	return best
}

func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return text[:i]
	}
	return text
}
