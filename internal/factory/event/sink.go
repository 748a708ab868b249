package event

import "sync"

// Sink receives kernel notifications. Publish is called synchronously from
// the simulation loop and must not block.
type Sink interface {
	Publish(evt Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(evt Event)

// Publish calls f(evt).
func (f SinkFunc) Publish(evt Event) {
	f(evt)
}

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// Bus fans events out to its subscribers in subscription order.
type Bus struct {
	mu   sync.RWMutex
	subs []Sink
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe adds a sink. Nil sinks are ignored.
func (b *Bus) Subscribe(s Sink) {
	if s == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, s)
}

// Publish delivers evt to every subscriber.
func (b *Bus) Publish(evt Event) {
	b.mu.RLock()
	subs := b.subs
	b.mu.RUnlock()
	for _, s := range subs {
		s.Publish(evt)
	}
}

// ChannelSink buffers events for a consumer goroutine.
// If the buffer is full the oldest event is dropped.
type ChannelSink struct {
	events    chan Event
	done      chan struct{}
	closeOnce sync.Once
}

// NewChannelSink creates a channel sink holding up to size events.
func NewChannelSink(size int) *ChannelSink {
	if size < 1 {
		size = 64
	}
	return &ChannelSink{
		events: make(chan Event, size),
		done:   make(chan struct{}),
	}
}

// Publish enqueues evt without blocking.
func (s *ChannelSink) Publish(evt Event) {
	select {
	case <-s.done:
		return
	default:
	}

	select {
	case s.events <- evt:
	default:
		// Buffer full, drop oldest and retry
		select {
		case <-s.events:
		default:
		}
		select {
		case s.events <- evt:
		default:
		}
	}
}

// Events returns the channel to read events from.
func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// Done returns a channel closed by Close.
func (s *ChannelSink) Done() <-chan struct{} {
	return s.done
}

// Close stops accepting events. Safe to call multiple times.
func (s *ChannelSink) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}
