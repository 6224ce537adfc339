// FilePath: internal/notify/notify.go
package notify

import (
	"strings"
	"sync"

	nuts "github.com/vaudience/go-nuts"
)

// Notifier receives operator-facing reports about background work, most
// notably day-long assembly outcomes. Implementations must be safe for
// concurrent use.
type Notifier interface {
	Notify(subject, body string)
}

// LogNotifier writes notifications to the structured log. It is the default
// sink when no external channel is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(subject, body string) {
	nuts.L.Infof("[Notify] %s: %s", subject, body)
}

// Collector buffers lines during a multi-step operation and flushes them as
// one aggregated notification, so a 24-hour assembly produces a single
// report instead of two dozen.
type Collector struct {
	mu      sync.Mutex
	sink    Notifier
	subject string
	lines   []string
}

// NewCollector creates a collector that flushes into sink under the given
// subject.
func NewCollector(sink Notifier, subject string) *Collector {
	return &Collector{sink: sink, subject: subject}
}

// Add appends one report line.
func (c *Collector) Add(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, line)
}

// Flush sends the aggregated notification and resets the collector. A
// collector with no lines flushes nothing.
func (c *Collector) Flush() {
	c.mu.Lock()
	lines := c.lines
	c.lines = nil
	c.mu.Unlock()
	if len(lines) == 0 {
		return
	}
	c.sink.Notify(c.subject, strings.Join(lines, "; "))
}
