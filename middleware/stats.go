package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/tack-ls/tack/jsonrpc"
)

// Stats counts dispatched methods. The counters feed log output on shutdown
// and give tests a way to assert what the dispatcher saw.
type Stats struct {
	mu      sync.Mutex
	methods map[string]*methodStats
}

type methodStats struct {
	count  int64
	errors int64
	total  time.Duration
}

// MethodStats is a point-in-time copy of one method's counters.
type MethodStats struct {
	Count  int64
	Errors int64
	Total  time.Duration
}

// NewStats creates an empty collector.
func NewStats() *Stats {
	return &Stats{methods: make(map[string]*methodStats)}
}

func (s *Stats) record(method string, elapsed time.Duration, failed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ms, ok := s.methods[method]
	if !ok {
		ms = &methodStats{}
		s.methods[method] = ms
	}
	ms.count++
	ms.total += elapsed
	if failed {
		ms.errors++
	}
}

// Snapshot copies all counters.
func (s *Stats) Snapshot() map[string]MethodStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := make(map[string]MethodStats, len(s.methods))
	for name, ms := range s.methods {
		snap[name] = MethodStats{Count: ms.count, Errors: ms.errors, Total: ms.total}
	}
	return snap
}

// Method returns the counters for a single method.
func (s *Stats) Method(method string) MethodStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ms, ok := s.methods[method]; ok {
		return MethodStats{Count: ms.count, Errors: ms.errors, Total: ms.total}
	}
	return MethodStats{}
}

// Measure records count, latency, and error totals per method.
func Measure(stats *Stats) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, method string, params jsonrpc.RawMessage) (interface{}, error) {
			start := time.Now()
			result, err := next(ctx, method, params)
			stats.record(method, time.Since(start), err != nil)
			return result, err
		}
	}
}
