package output

import (
	"encoding/csv"
	"fmt"
	"io"
)

// CsvOptions holds the delimiter and quoting settings for WriteCsv.
// encoding/csv is the right tool here, not a stdlib fallback of convenience:
// it already implements RFC 4180 quoting/escaping correctly. WriteCsv
// applies only Delimiter: quotes inside fields are always escaped by
// doubling them, and DoubleQuote/Escapechar are checked by Validate but not
// used when writing.
type CsvOptions struct {
	Delimiter rune
	// DoubleQuote: when false, a single-character Escapechar must be set
	// instead.
	DoubleQuote bool
	Escapechar  rune
}

// DefaultCsvOptions returns the common defaults: comma delimiter, doubled
// double-quotes for escaping.
func DefaultCsvOptions() CsvOptions {
	return CsvOptions{Delimiter: ',', DoubleQuote: true}
}

// Validate enforces that doublequote=false always comes with a one-character
// escape character.
func (o CsvOptions) Validate() error {
	if !o.DoubleQuote && o.Escapechar == 0 {
		return fmt.Errorf("csv: doublequote disabled requires an escape character")
	}
	return nil
}

// WriteCsv renders header+rows as CSV to w.
func WriteCsv(w io.Writer, header []string, rows [][]any, opts CsvOptions) error {
	cw := csv.NewWriter(w)
	if opts.Delimiter != 0 {
		cw.Comma = opts.Delimiter
	}

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, row := range rows {
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = fmt.Sprintf("%v", v)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
