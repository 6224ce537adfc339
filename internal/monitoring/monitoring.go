// FilePath: internal/monitoring/monitoring.go
package monitoring

import (
	"sync"
	"time"

	nuts "github.com/vaudience/go-nuts"
)

// Service counts operational events: commands handled, failures, day-long
// builds. Counters are served on the admin endpoint; anything heavier than
// in-process counters stays out of this service.
type Service struct {
	mu       sync.Mutex
	counters map[string]int64
	started  time.Time
}

// NewService creates a monitoring service.
func NewService() *Service {
	return &Service{
		counters: make(map[string]int64),
		started:  time.Now(),
	}
}

// RecordEvent increments the named counter.
func (s *Service) RecordEvent(eventName string, labels map[string]string) {
	s.mu.Lock()
	s.counters[eventName]++
	s.mu.Unlock()
	nuts.L.Debugf("[Monitoring] Event %s recorded with labels: %v", eventName, labels)
}

// Snapshot returns a copy of all counters plus the service uptime in
// seconds.
func (s *Service) Snapshot() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64, len(s.counters)+1)
	for name, count := range s.counters {
		out[name] = count
	}
	out["uptime_seconds"] = int64(time.Since(s.started).Seconds())
	return out
}
