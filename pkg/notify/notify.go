// Package notify provides the user-facing message sinks handed to graphs and
// editing sessions in place of a global toast controller.
package notify

import (
	"sync"

	"github.com/ritzau/dataflows/pkg/logging"
)

// Log writes every message to the structured log at info level
type Log struct {
	Component string
}

func (l Log) Notify(msg string) {
	component := l.Component
	if component == "" {
		component = "notify"
	}
	logging.Info(msg, "component", component)
}

// Recorder keeps messages in order. It is safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	messages []string
}

func (r *Recorder) Notify(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

// Messages returns a copy of everything recorded so far
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.messages))
	copy(out, r.messages)
	return out
}

// Last returns the most recent message, or ""
func (r *Recorder) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return ""
	}
	return r.messages[len(r.messages)-1]
}

// Reset forgets all messages
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = nil
}

// Tee fans a message out to several sinks
type Tee []interface{ Notify(string) }

func (t Tee) Notify(msg string) {
	for _, n := range t {
		n.Notify(msg)
	}
}
