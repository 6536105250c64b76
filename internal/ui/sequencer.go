package ui

import "sync/atomic"

// Sequencer issues monotonically increasing request tokens for one widget.
// Only the response to the latest issued token may be applied.
type Sequencer struct {
	latest atomic.Uint64
}

// Next issues a new token, superseding all earlier ones
func (s *Sequencer) Next() uint64 {
	return s.latest.Add(1)
}

// IsLatest reports whether token is the most recently issued one
func (s *Sequencer) IsLatest(token uint64) bool {
	return s.latest.Load() == token
}
