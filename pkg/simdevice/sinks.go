package simdevice

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/waehniger/mdpnp/internal/domain"
)

// ErrChannelSinkClosed is returned when a channel sink is written to after being closed.
var ErrChannelSinkClosed = errors.New("simdevice: channel sink closed")

// BatchHandler is invoked with ordered groups of batches drained from the queue.
type BatchHandler func([]*SampleBatch) error

// NewCallbackSink adapts a BatchHandler into a Sink so callers can plug
// arbitrary functions without defining structs.
func NewCallbackSink(name string, fn BatchHandler) Sink {
	if name == "" {
		name = "callback"
	}
	return &callbackSink{name: name, fn: fn}
}

// NewChannelSink exposes batches via a channel; it returns the sink, the read-only channel,
// and a close function that the caller should invoke during shutdown.
func NewChannelSink(name string, buffer int) (Sink, <-chan []*SampleBatch, func()) {
	if name == "" {
		name = "channel"
	}
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan []*SampleBatch, buffer)
	s := &channelSink{
		name:   name,
		ch:     ch,
		closed: make(chan struct{}),
	}
	return s, ch, func() { s.close() }
}

// NewJSONLinesSink writes one JSON object per batch to w.
func NewJSONLinesSink(name string, w io.Writer) Sink {
	if name == "" {
		name = "jsonl"
	}
	return &jsonLinesSink{name: name, enc: json.NewEncoder(w)}
}

type callbackSink struct {
	name string
	fn   BatchHandler
}

func (s *callbackSink) WriteBatch(batches []*domain.SampleBatch) error {
	if s.fn == nil {
		return fmt.Errorf("callback sink %q: nil handler", s.name)
	}
	if len(batches) == 0 {
		return nil
	}
	return s.fn(batches)
}

func (s *callbackSink) Name() string { return s.name }

type channelSink struct {
	name   string
	ch     chan []*SampleBatch
	closed chan struct{}
	once   sync.Once
	// writers hold mu shared while sending so close never races a send
	mu sync.RWMutex
}

func (s *channelSink) WriteBatch(batches []*domain.SampleBatch) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	select {
	case <-s.closed:
		return ErrChannelSinkClosed
	default:
	}

	if len(batches) == 0 {
		return nil
	}

	out := make([]*SampleBatch, len(batches))
	copy(out, batches)

	select {
	case <-s.closed:
		return ErrChannelSinkClosed
	case s.ch <- out:
		return nil
	}
}

func (s *channelSink) Name() string { return s.name }

func (s *channelSink) close() {
	s.once.Do(func() {
		close(s.closed)
		s.mu.Lock()
		close(s.ch)
		s.mu.Unlock()
	})
}

type jsonLinesSink struct {
	name string
	mu   sync.Mutex
	enc  *json.Encoder
}

func (s *jsonLinesSink) WriteBatch(batches []*domain.SampleBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range batches {
		if err := s.enc.Encode(b); err != nil {
			return fmt.Errorf("jsonl sink %q: %w", s.name, err)
		}
	}
	return nil
}

func (s *jsonLinesSink) Name() string { return s.name }
