package log

import (
	"fmt"
	"io"
	"sync"
)

// Sink receives game log entries as the engine appends them.
type Sink interface {
	Log(entry Entry)
	Entries() []Entry
}

// --- MemoryLogger: keeps entries for test assertions ---

type MemoryLogger struct {
	mu      sync.Mutex
	entries []Entry
}

func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{}
}

func (l *MemoryLogger) Log(entry Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

func (l *MemoryLogger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// OfCategory returns all entries in the given category.
func (l *MemoryLogger) OfCategory(c Category) []Entry {
	var result []Entry
	for _, e := range l.Entries() {
		if e.Category == c {
			result = append(result, e)
		}
	}
	return result
}

// Last returns the most recent entry, or a zero entry if none.
func (l *MemoryLogger) Last() Entry {
	entries := l.Entries()
	if len(entries) == 0 {
		return Entry{}
	}
	return entries[len(entries)-1]
}

// --- TextLogger: writes human-readable lines to an io.Writer ---

type TextLogger struct {
	MemoryLogger
	w io.Writer
}

func NewTextLogger(w io.Writer) *TextLogger {
	return &TextLogger{w: w}
}

func (l *TextLogger) Log(entry Entry) {
	l.MemoryLogger.Log(entry)
	fmt.Fprintln(l.w, FormatEntry(entry))
}

// Discard drops every entry.
type Discard struct{}

func (Discard) Log(Entry)        {}
func (Discard) Entries() []Entry { return nil }
