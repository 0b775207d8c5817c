package connect

import (
	"sync"
	"time"
)

// Entry is one line of the console log. A zero Text with Cleared set
// signals that the log was emptied.
type Entry struct {
	Time    time.Time
	Text    string
	Cleared bool
}

// Log is the append-only console shown to the user.
// It is safe for concurrent use; callbacks append from service goroutines.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	subs    map[int]chan Entry
	nextSub int
	now     func() time.Time
}

// NewLog creates an empty Log
func NewLog() *Log {
	return &Log{
		subs: make(map[int]chan Entry),
		now:  time.Now,
	}
}

// Append adds a line and notifies subscribers
func (l *Log) Append(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := Entry{Time: l.now(), Text: text}
	l.entries = append(l.entries, e)
	l.publish(e)
}

// Clear empties the log regardless of its contents
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = nil
	l.publish(Entry{Time: l.now(), Cleared: true})
}

// Lines returns a copy of the current lines in order
func (l *Log) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	lines := make([]string, len(l.entries))
	for i, e := range l.entries {
		lines[i] = e.Text
	}
	return lines
}

// Entries returns a copy of the current entries in order
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]Entry(nil), l.entries...)
}

// Len returns the number of lines
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Subscribe returns a channel receiving every new entry and a cancel
// function. Slow subscribers miss entries rather than block appenders.
func (l *Log) Subscribe(buffer int) (<-chan Entry, func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextSub
	l.nextSub++
	ch := make(chan Entry, buffer)
	l.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			delete(l.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// publish must be called with l.mu held
func (l *Log) publish(e Entry) {
	for _, ch := range l.subs {
		select {
		case ch <- e:
		default:
		}
	}
}
