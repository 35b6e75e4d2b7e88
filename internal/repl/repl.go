// Package repl is cybolt's interactive shell: a line-editing prompt, a
// persisted history file, a password prompt when a username is given with
// no password, and automatic reconnection with a bounded retry count when
// the session goes bad mid-session. Line editing and history come from
// github.com/chzyer/readline.
package repl

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/orneryd/cybolt/internal/boltclient"
	"github.com/orneryd/cybolt/internal/logx"
	"github.com/orneryd/cybolt/internal/output"
)

const terminationChar = ";"

// maxReconnectAttempts bounds how many times the shell retries a dropped
// connection before giving up.
const maxReconnectAttempts = 3

// Shell runs the interactive REPL until the user quits (Ctrl-D or ":quit").
// When reconnection after a fatal session error exhausts its retries, the
// shell reports it and keeps reading; the next failing query tries to
// reconnect again.
type Shell struct {
	cfg     boltclient.Config
	log     *logx.Logger
	out     io.Writer
	session *boltclient.Session
}

// New creates a Shell. It does not connect; Run does.
func New(cfg boltclient.Config, out io.Writer, log *logx.Logger) *Shell {
	return &Shell{cfg: cfg, log: log, out: out}
}

// Run prompts for a password if the configured username has none, connects,
// then loops reading statements until EOF, ":quit" or context cancellation.
// It returns an error when the password prompt, the initial connect or
// readline setup fails, or when the context is cancelled; a failed
// reconnect does not end the loop.
func (sh *Shell) Run(ctx context.Context) error {
	cfg := sh.cfg
	if cfg.Username != "" && cfg.Password == "" {
		pw, err := promptPassword()
		if err != nil {
			sh.log.Fatal("Password not submitted", "%v", err)
			return err
		}
		cfg.Password = pw
	}
	sh.cfg = cfg

	session, err := boltclient.Connect(cfg)
	if err != nil {
		sh.log.Fatal("Connection failure", "%v", err)
		return err
	}
	sh.session = session
	defer sh.session.Destroy()

	historyFile := historyPath()
	rl, err := readline.NewEx(&readline.Config{
		Prompt:                 "cybolt> ",
		HistoryFile:            historyFile,
		HistoryLimit:           100000,
		DisableAutoSaveHistory: true,
	})
	if err != nil {
		return fmt.Errorf("initializing readline: %w", err)
	}
	defer rl.Close()

	sh.log.Info("Connected to 'bolt://%s:%d'", cfg.Host, cfg.Port)
	sh.log.Info("Type :quit or Ctrl-D to exit")

	var partial string
	inMidCommand := false

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if inMidCommand {
			rl.SetPrompt("      -> ")
		} else {
			rl.SetPrompt("cybolt> ")
		}

		line, err := rl.Readline()
		if err != nil { // io.EOF on Ctrl-D, readline.ErrInterrupt on Ctrl-C
			sh.log.Info("Bye")
			return nil
		}

		if !inMidCommand && (line == ":quit" || line == ":quit;") {
			sh.log.Info("Bye")
			return nil
		}

		parts := strings.Split(line, terminationChar)
		if len(parts) == 1 {
			if strings.TrimSpace(parts[0]) != "" {
				partial = appendLine(partial, parts[0])
				inMidCommand = true
			}
			continue
		}

		for i, part := range parts {
			isFinal := i == len(parts)-1
			isBlank := strings.TrimSpace(part) == ""

			switch {
			case isBlank && isFinal:
				// trailing text after the last ';' on the line, ignore
			case isBlank && !isFinal:
				if inMidCommand {
					sh.executeAndReport(partial)
					rl.SaveHistory(partial)
					partial = ""
					inMidCommand = false
				}
			case !isBlank && isFinal:
				partial = appendLine(partial, part)
				inMidCommand = true
			default:
				partial = appendLine(partial, part)
				sh.executeAndReport(partial)
				rl.SaveHistory(partial)
				partial = ""
				inMidCommand = false
			}
		}
	}
}

func appendLine(orig, part string) string {
	if orig == "" {
		return strings.TrimSpace(part)
	}
	return orig + " " + strings.TrimSpace(part)
}

// executeAndReport runs one statement and prints its result or error,
// reconnecting on a fatal session error by retrying up to
// maxReconnectAttempts times with a one-second pause between attempts.
func (sh *Shell) executeAndReport(query string) {
	start := time.Now()
	rows, err := runOne(sh.session, query)
	elapsed := time.Since(start)

	if err != nil {
		sh.log.Fatal("Client received query exception", "%v", err)
		if sh.session.Status() == boltclient.StateBad {
			sh.log.Info("Trying to reconnect...")
			if !sh.reconnect() {
				sh.log.Fatal("Couldn't connect to", "'bolt://%s:%d'", sh.cfg.Host, sh.cfg.Port)
			}
		}
		return
	}

	if len(rows) > 0 {
		header := sh.session.Fields()
		if header == nil {
			header = make([]string, len(rows[0]))
			for i := range header {
				header[i] = fmt.Sprintf("col%d", i)
			}
		}
		output.WriteTable(sh.out, header, rows)
	}
	fmt.Fprintf(sh.out, "%s (round trip in %.3f sec)\n", summaryLine(len(rows)), elapsed.Seconds())
}

func summaryLine(n int) string {
	switch n {
	case 0:
		return "Empty set"
	case 1:
		return "1 row in set"
	default:
		return fmt.Sprintf("%d rows in set", n)
	}
}

func (sh *Shell) reconnect() bool {
	for attempt := 0; attempt < maxReconnectAttempts; attempt++ {
		session, err := boltclient.Connect(sh.cfg)
		if err == nil {
			sh.session = session
			sh.log.Info("Connected to 'bolt://%s:%d'", sh.cfg.Host, sh.cfg.Port)
			return true
		}
		time.Sleep(time.Second)
	}
	return false
}

func runOne(session *boltclient.Session, query string) ([][]any, error) {
	if err := session.Run(query, nil); err != nil {
		return nil, err
	}
	if err := session.Pull(); err != nil {
		return nil, err
	}
	var rows [][]any
	for {
		res, err := session.Fetch()
		if err != nil {
			return nil, err
		}
		if res.Done {
			return rows, nil
		}
		rows = append(rows, res.Row)
	}
}

func promptPassword() (string, error) {
	rl, err := readline.New("Password: ")
	if err != nil {
		return "", err
	}
	defer rl.Close()
	pw, err := rl.ReadPassword("Password: ")
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pw), nil
}

// historyPath returns the persisted readline history file location, under
// the user's home directory.
func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cybolt_history"
	}
	dir := filepath.Join(home, ".cybolt")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return filepath.Join(home, ".cybolt_history")
	}
	return filepath.Join(dir, "history")
}
