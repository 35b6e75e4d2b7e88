package repl

import (
	"net"
	"strconv"
	"testing"

	"github.com/orneryd/cybolt/internal/boltclient"
	"github.com/orneryd/cybolt/internal/bolttest"
	"github.com/stretchr/testify/require"
)

func TestSummaryLine_Pluralization(t *testing.T) {
	require.Equal(t, "Empty set", summaryLine(0))
	require.Equal(t, "1 row in set", summaryLine(1))
	require.Equal(t, "2 rows in set", summaryLine(2))
}

func TestAppendLine_JoinsWithSpace(t *testing.T) {
	require.Equal(t, "MATCH (n)", appendLine("", "MATCH (n) "))
	require.Equal(t, "MATCH (n) RETURN n", appendLine("MATCH (n)", " RETURN n"))
}

func TestRunOne_ExecutesAndDrainsRows(t *testing.T) {
	srv, err := bolttest.Start(&bolttest.ScriptedExecutor{})
	require.NoError(t, err)
	defer srv.Close()

	host, portStr, err := net.SplitHostPort(srv.Addr())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	session, err := boltclient.Connect(boltclient.Config{Host: host, Port: port})
	require.NoError(t, err)
	defer session.Destroy()

	rows, err := runOne(session, "MATCH (n) RETURN n")
	require.NoError(t, err)
	require.Empty(t, rows)
}
