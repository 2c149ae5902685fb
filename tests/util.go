package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/trezcool/gradewatch/core"
)

// LogEntry is a record captured by Logger.
type LogEntry struct {
	Level string
	Msg   string
	Args  []interface{}
}

// Logger records log calls instead of printing them.
type Logger struct {
	mu      sync.Mutex
	Entries []LogEntry
}

var _ core.Logger = (*Logger)(nil)

func (l *Logger) add(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Entries = append(l.Entries, LogEntry{Level: level, Msg: msg, Args: args})
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.add("DEBUG", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.add("INFO", msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.add("WARN", msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.add("ERROR", msg, args) }
func (l *Logger) Fatal(msg string, args ...interface{}) {
	l.add("FATAL", msg, args)
	panic(fmt.Sprintf("fatal: %s", msg))
}

// Levels returns the level of every entry, in order.
func (l *Logger) Levels() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	levels := make([]string, 0, len(l.Entries))
	for _, e := range l.Entries {
		levels = append(levels, e.Level)
	}
	return levels
}

// Notifier records sent messages; it fails with Err when set.
type Notifier struct {
	NotifierName string
	Err          error

	mu   sync.Mutex
	Sent []core.Message
}

var _ core.Notifier = (*Notifier)(nil)

func (n *Notifier) Name() string {
	if n.NotifierName == "" {
		return "fake"
	}
	return n.NotifierName
}

func (n *Notifier) Send(_ context.Context, msg core.Message) error {
	if n.Err != nil {
		return n.Err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Sent = append(n.Sent, msg)
	return nil
}
