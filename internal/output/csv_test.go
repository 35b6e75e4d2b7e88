package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteCsv_BasicRows(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCsv(&buf, []string{"id", "name"}, [][]any{
		{int64(1), "a"},
		{int64(2), "b,c"},
	}, DefaultCsvOptions())
	require.NoError(t, err)
	require.Equal(t, "id,name\n1,a\n2,\"b,c\"\n", buf.String())
}

func TestCsvOptions_ValidateRequiresEscapeWithoutDoubleQuote(t *testing.T) {
	opts := CsvOptions{Delimiter: ',', DoubleQuote: false}
	require.Error(t, opts.Validate())

	opts.Escapechar = '\\'
	require.NoError(t, opts.Validate())
}

func TestWriteCsv_CustomDelimiter(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCsv(&buf, []string{"a", "b"}, [][]any{{int64(1), int64(2)}}, CsvOptions{Delimiter: ';', DoubleQuote: true})
	require.NoError(t, err)
	require.Equal(t, "a;b\n1;2\n", buf.String())
}
