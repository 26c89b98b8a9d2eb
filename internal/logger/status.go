package logger

import (
	"sync"
	"time"

	"github.com/petervdpas/isoedit/internal/util"
	"github.com/sirupsen/logrus"
)

// StatusEntry is one line shown in the status bar.
type StatusEntry struct {
	TS        time.Time `json:"ts"`
	Level     string    `json:"level"`
	Component string    `json:"component,omitempty"`
	Msg       string    `json:"msg"`
	Err       string    `json:"err,omitempty"`
}

// StatusBuffer is a logrus hook keeping the most recent entries at or above
// a minimum level, with fan-out to live subscribers.
type StatusBuffer struct {
	mu      sync.Mutex
	min     logrus.Level
	entries *util.RingBuffer[StatusEntry]
	subs    map[chan StatusEntry]struct{}
}

func NewStatusBuffer(max int, min logrus.Level) *StatusBuffer {
	if max <= 0 {
		max = 200
	}
	return &StatusBuffer{
		min:     min,
		entries: util.NewRingBuffer[StatusEntry](max),
		subs:    make(map[chan StatusEntry]struct{}),
	}
}

// Levels implements logrus.Hook.
func (b *StatusBuffer) Levels() []logrus.Level {
	var out []logrus.Level
	for _, l := range logrus.AllLevels {
		if l <= b.min {
			out = append(out, l)
		}
	}
	return out
}

// Fire implements logrus.Hook.
func (b *StatusBuffer) Fire(e *logrus.Entry) error {
	se := StatusEntry{
		TS:    e.Time,
		Level: e.Level.String(),
		Msg:   e.Message,
	}
	if c, ok := e.Data["component"].(string); ok {
		se.Component = c
	}
	if err, ok := e.Data[logrus.ErrorKey].(error); ok && err != nil {
		se.Err = err.Error()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries.Push(se)
	for ch := range b.subs {
		select {
		case ch <- se:
		default:
			// drop on slow subscriber
		}
	}
	return nil
}

func (b *StatusBuffer) Snapshot() []StatusEntry {
	return b.entries.Snapshot()
}

// Last returns the newest entry, if any.
func (b *StatusBuffer) Last() (StatusEntry, bool) {
	return b.entries.Last()
}

func (b *StatusBuffer) Subscribe() (ch chan StatusEntry, cancel func()) {
	ch = make(chan StatusEntry, 64)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel = func() {
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}
