// Package analytics implements the fire-and-forget counter contract the
// relay's participants and supervisor report into: join/disconnect
// transitions, dropped binary frames, auth failures, expired transactions.
package analytics

import (
	"regexp"
	"sync"
)

// Analytics tracks named integer counters. TrackEvent never blocks and
// never reports an error back to its caller; a failing analytics backend
// must never affect protocol behaviour.
type Analytics interface {
	TrackEvent(label string, delta int)
	QueryEvent(label string) int
	QueryEvents(labels ...string) map[string]int
	QueryEventLabels(filter string) ([]string, error)
}

type memory struct {
	mu     sync.Mutex
	counts map[string]int
}

// New returns an in-memory, mutex-guarded Analytics.
func New() Analytics {
	return &memory{counts: make(map[string]int)}
}

func (m *memory) TrackEvent(label string, delta int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[label] += delta
}

func (m *memory) QueryEvent(label string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[label]
}

func (m *memory) QueryEvents(labels ...string) map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int, len(labels))
	for _, label := range labels {
		out[label] = m.counts[label]
	}
	return out
}

// QueryEventLabels returns every tracked label whose name matches filter,
// a regular expression. An empty filter matches every label.
func (m *memory) QueryEventLabels(filter string) ([]string, error) {
	var re *regexp.Regexp
	if filter != "" {
		var err error
		re, err = regexp.Compile(filter)
		if err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	labels := make([]string, 0, len(m.counts))
	for label := range m.counts {
		if re == nil || re.MatchString(label) {
			labels = append(labels, label)
		}
	}
	return labels, nil
}

// Well-known labels tracked by the core relay.
const (
	LabelMaster              = "master"
	LabelMasterTotal         = "master_total"
	LabelClient              = "client"
	LabelClientTotal         = "client_total"
	LabelFramesBinaryDropped = "frames_binary_dropped"
	LabelAuthFailed          = "auth_failed"
	LabelTransactionsExpired = "transactions_expired"
)
