// Package export serializes console tables to CSV. Every export path
// in the server goes through WriteCSV so the escaping rule is applied
// in exactly one place.
//
// The rule: a field is wrapped in double quotes, with internal quotes
// doubled, if and only if it contains a comma, a double quote or a
// newline. encoding/csv is deliberately not used — its writer also
// quotes leading-space and carriage-return fields and defaults to CRLF
// line endings, all of which deviate from the format spreadsheet
// importers of these files already depend on.
package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Field stringifies one cell. nil renders as the empty string; floats
// use the shortest representation that round-trips.
func Field(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// Escape applies the quoting rule to a single stringified field.
func Escape(s string) string {
	if !strings.ContainsAny(s, ",\"\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// WriteCSV emits the header row followed by every record, one per
// line, LF line endings, UTF-8.
func WriteCSV(w io.Writer, header []string, rows [][]interface{}) error {
	if err := writeLine(w, header); err != nil {
		return err
	}
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = Field(v)
		}
		if err := writeLine(w, cells); err != nil {
			return err
		}
	}
	return nil
}

func writeLine(w io.Writer, cells []string) error {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		escaped[i] = Escape(c)
	}
	_, err := io.WriteString(w, strings.Join(escaped, ",")+"\n")
	return err
}

// Filename builds the download name used by every export endpoint:
// <subject>-<qualifier>.csv.
func Filename(subject, qualifier string) string {
	return subject + "-" + qualifier + ".csv"
}
