// Package audit writes a human-readable, append-only trail of completed
// exchanges. It is a side effect only: write failures never reach the caller.
package audit

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// Logger appends one line per exchange to a local file. A nil Logger is a
// valid no-op.
type Logger struct {
	mu   sync.Mutex
	file *os.File
}

// Open creates or opens the audit file for appending. Empty path returns a
// nil logger (auditing disabled).
func Open(path string) (*Logger, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	return &Logger{file: f}, nil
}

// Exchange records one completed question/answer pair. PII in the logged
// text is masked. Returns the write error for metrics only; callers must not
// propagate it.
func (l *Logger) Exchange(sessionID, message, reply string) error {
	if l == nil {
		return nil
	}

	line := fmt.Sprintf("[%s] session=%s user=%q assistant=%q\n",
		time.Now().UTC().Format(time.RFC3339),
		sessionID,
		Redact(oneLine(message)),
		Redact(oneLine(reply)),
	)

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.file.WriteString(line); err != nil {
		return fmt.Errorf("audit write: %w", err)
	}
	return nil
}

func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	return l.file.Close()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
