package extensibility

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/comalice/statekernel/internal/primitives"
)

// EventSource yields events to feed into a machine, in order. The channel is
// closed when the source is exhausted.
type EventSource interface {
	Events() <-chan primitives.Event
}

// ChannelEventSource is an EventSource backed by a Go channel.
type ChannelEventSource struct {
	ch chan primitives.Event
}

// NewChannelEventSource creates a new ChannelEventSource with the given channel.
func NewChannelEventSource(ch chan primitives.Event) *ChannelEventSource {
	return &ChannelEventSource{ch: ch}
}

// NewSliceEventSource returns a closed, pre-filled source replaying events.
func NewSliceEventSource(events []primitives.Event) *ChannelEventSource {
	ch := make(chan primitives.Event, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return &ChannelEventSource{ch: ch}
}

// Events returns the receive-only channel for events.
func (s *ChannelEventSource) Events() <-chan primitives.Event {
	return s.ch
}

// DecoderEventSource streams events decoded from a sequence of JSON values,
// one `{"name": ..., "payload": {...}}` object each, such as JSON lines.
type DecoderEventSource struct {
	ch   chan primitives.Event
	done chan struct{}
	once sync.Once

	mu  sync.Mutex
	err error
}

// NewDecoderEventSource starts decoding r. Call Stop to abandon the stream early.
func NewDecoderEventSource(r io.Reader) *DecoderEventSource {
	s := &DecoderEventSource{
		ch:   make(chan primitives.Event),
		done: make(chan struct{}),
	}
	go s.run(json.NewDecoder(r))
	return s
}

func (s *DecoderEventSource) run(dec *json.Decoder) {
	defer close(s.ch)
	for n := 1; ; n++ {
		var ev primitives.Event
		if err := dec.Decode(&ev); err != nil {
			if !errors.Is(err, io.EOF) {
				s.setErr(fmt.Errorf("event %d: %w", n, err))
			}
			return
		}
		if ev.Name == "" {
			s.setErr(fmt.Errorf("event %d: name is required", n))
			return
		}
		select {
		case s.ch <- ev:
		case <-s.done:
			return
		}
	}
}

func (s *DecoderEventSource) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Events returns the event channel.
func (s *DecoderEventSource) Events() <-chan primitives.Event {
	return s.ch
}

// Err returns the decode error that ended the stream, if any. It is only
// meaningful after the channel is closed.
func (s *DecoderEventSource) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Stop abandons the stream.
func (s *DecoderEventSource) Stop() {
	s.once.Do(func() { close(s.done) })
}
