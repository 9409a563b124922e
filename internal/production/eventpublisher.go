package production

import (
	"sync"
	"sync/atomic"

	"github.com/comalice/statekernel/internal/core"
)

// ChannelPublisher forwards transition records to a Go channel. Publishing
// never blocks the machine: when the channel is full the record is dropped
// and counted. Rejections are not published.
type ChannelPublisher struct {
	mu      sync.RWMutex
	ch      chan core.TransitionRecord
	closed  bool
	dropped atomic.Uint64
}

// NewChannelPublisher creates a ChannelPublisher with a buffered channel.
func NewChannelPublisher(buffer int) *ChannelPublisher {
	return &ChannelPublisher{ch: make(chan core.TransitionRecord, buffer)}
}

// Records returns the channel records are delivered on. It is closed by Close.
func (p *ChannelPublisher) Records() <-chan core.TransitionRecord {
	return p.ch
}

func (p *ChannelPublisher) OnTransition(rec core.TransitionRecord) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.dropped.Add(1)
		return
	}
	select {
	case p.ch <- rec:
	default:
		p.dropped.Add(1)
	}
}

func (p *ChannelPublisher) OnRejected(core.RejectionRecord) {}

// Dropped returns how many records were discarded.
func (p *ChannelPublisher) Dropped() uint64 {
	return p.dropped.Load()
}

// Close closes the records channel. Safe to call more than once.
func (p *ChannelPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.ch)
	}
	return nil
}
