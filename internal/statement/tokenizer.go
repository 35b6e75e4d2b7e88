package statement

import (
	"bufio"
	"fmt"
	"io"
)

// Tokenizer reads a byte stream and assembles complete, unquoted-';'
// terminated statements, classifying each one as it goes. It produces a
// lazy, finite, non-restartable sequence via Next.
//
// Backslash only toggles escape while inside a quote, and a quote
// character closes the quote unless the previous byte toggled escape.
type Tokenizer struct {
	r         *bufio.Reader
	line      int
	stmtStart int
	index     int
	quote     byte // 0, '\'', or '"'
	escaped   bool
	started   bool // a non-whitespace byte of the current statement was seen
	buf       []byte
	clsf      Classifier
}

// NewTokenizer wraps any byte source — stdin or an open file.
func NewTokenizer(r io.Reader) *Tokenizer {
	return &Tokenizer{r: bufio.NewReader(r), line: 1, stmtStart: 1}
}

// Next returns the next complete Statement, or (Statement{}, false, nil) at
// end of input. A read failure is returned as the third value and is
// always fatal at the call site.
func (t *Tokenizer) Next() (Statement, bool, error) {
	for {
		b, err := t.r.ReadByte()
		if err != nil {
			if err == io.EOF {
				// trailing text without a terminating ';' is discarded.
				return Statement{}, false, nil
			}
			return Statement{}, false, fmt.Errorf("reading input: %w", err)
		}

		if b == '\n' {
			t.line++
		}

		switch {
		case t.quote != 0 && b == '\\':
			t.escaped = !t.escaped
			t.buf = append(t.buf, b)
			continue

		case (t.quote == 0 && (b == '\'' || b == '"')) || (t.quote != 0 && !t.escaped && b == t.quote):
			if t.quote == 0 {
				if !t.started {
					t.stmtStart = t.line
					t.started = true
				}
				t.quote = b
			} else {
				t.quote = 0
			}
			t.buf = append(t.buf, b)
			t.escaped = false
			continue

		case t.quote == 0 && b == ';':
			stmt := Statement{
				LineNumber: t.stmtStart,
				Index:      t.index,
				Query:      string(t.buf),
				Features:   t.clsf.Features(),
			}
			t.index++
			t.buf = nil
			t.quote = 0
			t.escaped = false
			t.started = false
			t.clsf.Reset()
			t.stmtStart = t.line
			return stmt, true, nil

		default:
			if !t.started {
				t.stmtStart = t.line
				t.started = !isWhitespace(b)
			}
			t.buf = append(t.buf, b)
			if t.quote == 0 {
				t.clsf.Feed(b)
			}
			t.escaped = false
		}
	}
}
