package boltclient

import (
	"net"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeServer is a minimal Bolt 4.4 responder used to drive Connect/Run/
// Pull/Fetch end to end over a real listener, since Connect dials "tcp".
type fakeServer struct {
	ln        net.Listener
	onRun     func(query string) bool // return false to send FAILURE
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := &fakeServer{ln: ln}
	go s.acceptLoop()
	t.Cleanup(func() { ln.Close() })
	return s
}

func (s *fakeServer) config(t *testing.T) Config {
	t.Helper()
	host, portStr, err := net.SplitHostPort(s.ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return Config{Host: host, Port: port}
}

func (s *fakeServer) acceptLoop() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.serve(conn)
	}
}

func readFull(conn net.Conn, buf []byte) error {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		if err != nil {
			return err
		}
		total += n
	}
	return nil
}

func (s *fakeServer) serve(conn net.Conn) {
	defer conn.Close()
	handshake := make([]byte, 20)
	if readFull(conn, handshake) != nil {
		return
	}
	conn.Write([]byte{0x00, 0x00, 0x04, 0x04})

	for {
		sig, fields, ok := readMsg(conn)
		if !ok {
			return
		}
		switch sig {
		case msgGoodbye:
			return
		case msgRun:
			query, _ := fields[0].(string)
			if s.onRun != nil && !s.onRun(query) {
				writeFailure(conn)
				continue
			}
			writeSuccess(conn)
		default:
			writeSuccess(conn)
		}
	}
}

func readMsg(conn net.Conn) (byte, []any, bool) {
	var message []byte
	for {
		header := make([]byte, 2)
		if readFull(conn, header) != nil {
			return 0, nil, false
		}
		size := int(header[0])<<8 | int(header[1])
		if size == 0 {
			break
		}
		chunk := make([]byte, size)
		if readFull(conn, chunk) != nil {
			return 0, nil, false
		}
		message = append(message, chunk...)
	}
	if len(message) < 2 {
		return 0, nil, false
	}
	sig, fields, _, err := decodeStructure(message, 0)
	if err != nil {
		return 0, nil, false
	}
	return sig, fields, true
}

func writeRaw(conn net.Conn, payload []byte) {
	header := []byte{byte(len(payload) >> 8), byte(len(payload))}
	conn.Write(header)
	conn.Write(payload)
	conn.Write([]byte{0x00, 0x00})
}

func writeSuccess(conn net.Conn) {
	writeRaw(conn, encodeStructure(msgSuccess, map[string]any{}))
}

func writeFailure(conn net.Conn) {
	writeRaw(conn, encodeStructure(msgFailure, map[string]any{
		"code":    "Neo.Transient",
		"message": "conflict",
	}))
}

func TestConnect_HandshakeAndHello(t *testing.T) {
	srv := newFakeServer(t)
	sess, err := Connect(srv.config(t))
	require.NoError(t, err)
	defer sess.Destroy()
	require.Equal(t, StateReady, sess.Status())
}

func TestSession_RunPullFetch_Success(t *testing.T) {
	srv := newFakeServer(t)
	sess, err := Connect(srv.config(t))
	require.NoError(t, err)
	defer sess.Destroy()

	require.NoError(t, sess.Run("CREATE (:A)", nil))
	require.NoError(t, sess.Pull())
	res, err := sess.Fetch()
	require.NoError(t, err)
	require.True(t, res.Done)
}

func TestSession_RunFailure_SetsError(t *testing.T) {
	srv := newFakeServer(t)
	srv.onRun = func(query string) bool { return false }
	sess, err := Connect(srv.config(t))
	require.NoError(t, err)
	defer sess.Destroy()

	err = sess.Run("CREATE (:A)", nil)
	require.Error(t, err)
	qerr, ok := err.(*QueryError)
	require.True(t, ok)
	require.Equal(t, "Neo.Transient", qerr.Code)
	require.Equal(t, err, sess.Err())
}

func TestSession_BeginCommitRollback(t *testing.T) {
	srv := newFakeServer(t)
	sess, err := Connect(srv.config(t))
	require.NoError(t, err)
	defer sess.Destroy()

	require.NoError(t, sess.BeginTx())
	require.NoError(t, sess.Commit())
	require.NoError(t, sess.Rollback())
}

func TestIsTransient(t *testing.T) {
	require.True(t, isTransient("Neo.TransientError.Transaction.ConflictingTransactions"))
	require.False(t, isTransient("Neo.ClientError.Statement.SyntaxError"))
	require.False(t, isTransient(""))
}
