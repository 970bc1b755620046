// Package notify holds the transient toast shown after cart actions.
package notify

import (
	"sync"
	"time"

	"github.com/duisenbekovayan/devstore/internal/timer"
)

const DefaultTTL = 1600 * time.Millisecond

type Kind string

const (
	KindToast Kind = "toast"
	// KindAlert is a blocking-style notice (checkout demo).
	KindAlert Kind = "alert"
)

type Message struct {
	Text string
	Kind Kind
	At   time.Time
}

// Notifier shows one message at a time; a new message replaces the current
// one and restarts the display timer.
type Notifier struct {
	clock timer.Clock
	ttl   time.Duration

	mu      sync.Mutex
	current *Message
	hide    timer.Timer
}

func New(c timer.Clock, ttl time.Duration) *Notifier {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Notifier{clock: c, ttl: ttl}
}

func (n *Notifier) Show(text string, kind Kind) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.hide != nil {
		n.hide.Stop()
	}
	msg := &Message{Text: text, Kind: kind, At: n.clock.Now()}
	n.current = msg
	n.hide = n.clock.AfterFunc(n.ttl, func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if n.current == msg {
			n.current = nil
			n.hide = nil
		}
	})
}

// Current returns the visible message, if any.
func (n *Notifier) Current() (Message, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return Message{}, false
	}
	return *n.current, true
}

// Stop hides the message and cancels the timer.
func (n *Notifier) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.hide != nil {
		n.hide.Stop()
	}
	n.current = nil
	n.hide = nil
}
