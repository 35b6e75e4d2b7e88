package boltclient

import (
	"crypto/tls"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/google/uuid"
)

// boltMagic is the fixed 4-byte preamble every Bolt connection starts with.
var boltMagic = []byte{0x60, 0x60, 0xB0, 0x17}

const (
	boltV4_4 uint32 = 0x00000404
	dialTimeout             = 5 * time.Second
)

// SessionState is a Session's {ready, bad} lifecycle: a session is ready
// until a query fails in a way that leaves the connection itself unusable,
// at which point it is bad and must be replaced via repair, never reused.
type SessionState int

const (
	StateReady SessionState = iota
	StateBad
)

// Config carries the parameters needed to dial and authenticate a session.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	UseSSL   bool
}

func (c Config) addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Session is a single live Bolt connection: connect, run, pull, fetch, and
// status/error accessors. A Session is owned by exactly one worker slot for
// its lifetime and is never shared across goroutines.
type Session struct {
	conn       net.Conn
	state      SessionState
	lastErr    error
	id         string
	lastFields []string
}

// Connect dials the database and performs the Bolt handshake and HELLO
// exchange. On failure the connection is closed and the error returned;
// whether that is fatal is up to the caller.
func Connect(cfg Config) (*Session, error) {
	dialer := net.Dialer{Timeout: dialTimeout}
	var conn net.Conn
	var err error
	if cfg.UseSSL {
		conn, err = tls.DialWithDialer(&dialer, "tcp", cfg.addr(), &tls.Config{ServerName: cfg.Host})
	} else {
		conn, err = dialer.Dial("tcp", cfg.addr())
	}
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.addr(), err)
	}

	s := &Session{conn: conn, state: StateReady, id: uuid.NewString()}
	if err := s.handshake(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("bolt handshake: %w", err)
	}
	if err := s.hello(cfg); err != nil {
		conn.Close()
		return nil, fmt.Errorf("bolt hello: %w", err)
	}
	return s, nil
}

// handshake proposes Bolt 4.4 and three zero-filled fallback slots.
func (s *Session) handshake() error {
	if _, err := s.conn.Write(boltMagic); err != nil {
		return err
	}
	versions := make([]byte, 16)
	binary.BigEndian.PutUint32(versions[0:4], boltV4_4)
	if _, err := s.conn.Write(versions); err != nil {
		return err
	}
	reply := make([]byte, 4)
	if _, err := io.ReadFull(s.conn, reply); err != nil {
		return fmt.Errorf("reading negotiated version: %w", err)
	}
	if reply[2] == 0 && reply[3] == 0 {
		return fmt.Errorf("server rejected all proposed Bolt versions")
	}
	return nil
}

func (s *Session) hello(cfg Config) error {
	meta := map[string]any{
		"user_agent":   "cybolt/1.0",
		"scheme":       "basic",
		"connection_id": s.id,
	}
	if cfg.Username != "" {
		meta["principal"] = cfg.Username
		meta["credentials"] = cfg.Password
	}
	msg := encodeStructure(msgHello, meta)
	if err := s.sendMessage(msg); err != nil {
		return err
	}
	sig, fields, err := s.readMessage()
	if err != nil {
		s.state = StateBad
		return err
	}
	if sig == msgFailure {
		s.state = StateBad
		return failureError(fields)
	}
	return nil
}

// Run executes a query. Callers that need an explicit multi-statement
// transaction bracket it with BeginTx/Commit themselves; Run only sends
// the RUN message and reads back its SUCCESS/FAILURE.
func (s *Session) Run(query string, params map[string]any) error {
	if params == nil {
		params = map[string]any{}
	}
	msg := encodeStructure(msgRun, query, params, map[string]any{})
	if err := s.sendMessage(msg); err != nil {
		s.state = StateBad
		s.lastErr = err
		return err
	}
	sig, fields, err := s.readMessage()
	if err != nil {
		s.state = StateBad
		s.lastErr = err
		return err
	}
	if sig == msgFailure {
		err := failureError(fields)
		s.lastErr = err
		return err
	}
	s.lastFields = nil
	if len(fields) == 1 {
		if meta, ok := fields[0].(map[string]any); ok {
			if raw, ok := meta["fields"].([]any); ok {
				names := make([]string, len(raw))
				for i, v := range raw {
					if s, ok := v.(string); ok {
						names[i] = s
					}
				}
				s.lastFields = names
			}
		}
	}
	return nil
}

// Fields returns the column names reported by the most recent Run's SUCCESS
// metadata (the Bolt "fields" key), or nil if the server reported none.
func (s *Session) Fields() []string {
	return s.lastFields
}

// Pull requests the next batch of result rows; the caller drains them via
// repeated Fetch calls until the server reports the stream has_more=false.
func (s *Session) Pull() error {
	msg := encodeStructure(msgPull, map[string]any{"n": int64(-1)})
	if err := s.sendMessage(msg); err != nil {
		s.state = StateBad
		s.lastErr = err
		return err
	}
	return nil
}

// FetchResult is one decoded outcome of Fetch: either a data Row, or the
// terminal Done/Err state of the stream.
type FetchResult struct {
	Row  []any
	Done bool
}

// Fetch reads one message of the pulled stream: a RECORD becomes a Row, a
// terminal SUCCESS becomes Done, and a FAILURE is returned as an error.
func (s *Session) Fetch() (FetchResult, error) {
	sig, fields, err := s.readMessage()
	if err != nil {
		s.state = StateBad
		s.lastErr = err
		return FetchResult{}, err
	}
	switch sig {
	case msgRecord:
		if len(fields) == 1 {
			if row, ok := fields[0].([]any); ok {
				return FetchResult{Row: row}, nil
			}
		}
		return FetchResult{Row: fields}, nil
	case msgSuccess:
		return FetchResult{Done: true}, nil
	case msgFailure:
		err := failureError(fields)
		s.lastErr = err
		return FetchResult{}, err
	default:
		return FetchResult{}, fmt.Errorf("unexpected message signature 0x%02X during fetch", sig)
	}
}

// BeginTx, Commit and Rollback bracket a single multi-statement
// transaction.
func (s *Session) BeginTx() error {
	return s.simple(msgBegin, map[string]any{})
}

func (s *Session) Commit() error {
	return s.simple(msgCommit, nil)
}

func (s *Session) Rollback() error {
	return s.simple(msgRollback, nil)
}

func (s *Session) simple(sig byte, meta map[string]any) error {
	var msg []byte
	if meta != nil {
		msg = encodeStructure(sig, meta)
	} else {
		msg = encodeStructure(sig)
	}
	if err := s.sendMessage(msg); err != nil {
		s.state = StateBad
		s.lastErr = err
		return err
	}
	rsig, fields, err := s.readMessage()
	if err != nil {
		s.state = StateBad
		s.lastErr = err
		return err
	}
	if rsig == msgFailure {
		err := failureError(fields)
		s.lastErr = err
		return err
	}
	return nil
}

// Status returns the session's current {ready, bad} state.
func (s *Session) Status() SessionState { return s.state }

// Err returns the last error observed on this session, or nil.
func (s *Session) Err() error { return s.lastErr }

// Destroy tears down the underlying connection.
func (s *Session) Destroy() {
	if s.conn != nil {
		_ = s.sendMessage(encodeStructure(msgGoodbye))
		s.conn.Close()
	}
}

// sendMessage writes a PackStream message split into <=65535-byte chunks,
// terminated by a zero-length chunk.
func (s *Session) sendMessage(payload []byte) error {
	const maxChunk = 65535
	for len(payload) > 0 {
		n := len(payload)
		if n > maxChunk {
			n = maxChunk
		}
		header := []byte{byte(n >> 8), byte(n)}
		if _, err := s.conn.Write(header); err != nil {
			return err
		}
		if _, err := s.conn.Write(payload[:n]); err != nil {
			return err
		}
		payload = payload[n:]
	}
	_, err := s.conn.Write([]byte{0x00, 0x00})
	return err
}

// readMessage reads chunks until the terminating zero-size chunk and
// decodes the resulting PackStream structure into (signature, fields).
func (s *Session) readMessage() (byte, []any, error) {
	var message []byte
	for {
		header := make([]byte, 2)
		if _, err := io.ReadFull(s.conn, header); err != nil {
			return 0, nil, err
		}
		size := int(header[0])<<8 | int(header[1])
		if size == 0 {
			break
		}
		chunk := make([]byte, size)
		if _, err := io.ReadFull(s.conn, chunk); err != nil {
			return 0, nil, err
		}
		message = append(message, chunk...)
	}
	if len(message) < 2 {
		return 0, nil, fmt.Errorf("message too short: %d bytes", len(message))
	}
	sig, fields, _, err := decodeStructure(message, 0)
	if err != nil {
		return 0, nil, err
	}
	return sig, fields, nil
}

func failureError(fields []any) error {
	if len(fields) == 1 {
		if m, ok := fields[0].(map[string]any); ok {
			code, _ := m["code"].(string)
			msg, _ := m["message"].(string)
			return &QueryError{Code: code, Message: msg, Transient: isTransient(code)}
		}
	}
	return &QueryError{Message: "unknown failure", Transient: false}
}

// isTransient recognizes Neo4j/Bolt's TransientError classification,
// canonically a serialization conflict between concurrent transactions.
func isTransient(code string) bool {
	return len(code) >= len("Neo.TransientError") && code[:len("Neo.TransientError")] == "Neo.TransientError"
}

// QueryError is the error shape for a failed RUN/PULL/BEGIN/COMMIT: it
// carries whether the database marked it transient so callers can decide
// retry eligibility without string-matching.
type QueryError struct {
	Code      string
	Message   string
	Transient bool
}

func (e *QueryError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}
