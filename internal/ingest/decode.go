package ingest

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// encodingNames is the attempt order for raw byte decoding. Field exports
// from the ticketing system arrive in any of these. The BOM-aware attempt
// runs first so a byte-order mark never leaks into the header row.
var encodingNames = []string{"utf-8-sig", "utf-8", "latin-1", "cp1252", "utf-16"}

// decodeAs decodes raw bytes with the named encoding. Decoded text that
// still contains NUL bytes counts as a failure, which keeps UTF-16 payloads
// from slipping through the single-byte codepages as garbage.
func decodeAs(name string, data []byte) (string, error) {
	switch name {
	case "utf-8":
		if !utf8.Valid(data) {
			return "", fmt.Errorf("invalid UTF-8")
		}
		return rejectNUL(string(data))
	case "utf-8-sig":
		if !bytes.HasPrefix(data, utf8BOM) {
			return "", fmt.Errorf("no UTF-8 BOM")
		}
		trimmed := bytes.TrimPrefix(data, utf8BOM)
		if !utf8.Valid(trimmed) {
			return "", fmt.Errorf("invalid UTF-8 after BOM")
		}
		return rejectNUL(string(trimmed))
	case "latin-1":
		return decodeCharmap(charmap.ISO8859_1, data)
	case "cp1252":
		return decodeCharmap(charmap.Windows1252, data)
	case "utf-16":
		enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
		out, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), enc.NewDecoder()))
		if err != nil {
			return "", fmt.Errorf("invalid UTF-16: %w", err)
		}
		return rejectNUL(string(out))
	default:
		return "", fmt.Errorf("unknown encoding %s", name)
	}
}

func decodeCharmap(cm *charmap.Charmap, data []byte) (string, error) {
	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), cm.NewDecoder()))
	if err != nil {
		return "", err
	}
	return rejectNUL(string(out))
}

func rejectNUL(s string) (string, error) {
	if strings.ContainsRune(s, '\x00') {
		return "", fmt.Errorf("decoded text contains NUL bytes")
	}
	return s, nil
}
