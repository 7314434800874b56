package eventbus

import (
	"sync"

	"imagepick/internal/logging"
)

// Policy declares how a topic buffers values for its subscribers
type Policy struct {
	// Replay is how many of the most recent values a new subscriber receives
	// immediately. 0 makes the topic a one-shot signal.
	Replay int
	// Buffer is the per-subscriber channel capacity. It is raised to Replay
	// if smaller.
	Buffer int
}

// DefaultBuffer is the subscriber channel capacity used when a policy leaves it unset
const DefaultBuffer = 64

var (
	// Signal delivers only to subscribers attached at publish time
	Signal = Policy{Replay: 0}
	// State replays the latest value to every new subscriber
	State = Policy{Replay: 1}
)

// Topic is a typed publish/subscribe channel
type Topic[T any] struct {
	name    string
	policy  Policy
	mu      sync.Mutex
	subs    map[int]chan T
	nextID  int
	history []T
	closed  bool
}

// NewTopic creates a topic with the given buffering policy
func NewTopic[T any](name string, policy Policy) *Topic[T] {
	if policy.Buffer <= 0 {
		policy.Buffer = DefaultBuffer
	}
	if policy.Buffer < policy.Replay {
		policy.Buffer = policy.Replay
	}
	return &Topic[T]{
		name:   name,
		policy: policy,
		subs:   make(map[int]chan T),
	}
}

// Name returns the topic name used in log lines
func (t *Topic[T]) Name() string {
	return t.name
}

// Publish delivers value to every current subscriber and records it for replay.
// A subscriber whose buffer is full misses the value.
func (t *Topic[T]) Publish(value T) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		logging.Debug("eventbus: publish on closed topic %s dropped", t.name)
		return
	}

	if t.policy.Replay > 0 {
		t.history = append(t.history, value)
		if len(t.history) > t.policy.Replay {
			t.history = t.history[len(t.history)-t.policy.Replay:]
		}
	}

	for id, ch := range t.subs {
		select {
		case ch <- value:
		default:
			logging.Warn("eventbus: subscriber %d of %s is full, dropping value", id, t.name)
		}
	}
}

// Subscribe returns a channel receiving future values, preceded by the
// replayed history. The returned function detaches and closes the channel.
func (t *Topic[T]) Subscribe() (<-chan T, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ch := make(chan T, t.policy.Buffer)
	if t.closed {
		close(ch)
		return ch, func() {}
	}

	for _, v := range t.history {
		ch <- v
	}

	id := t.nextID
	t.nextID++
	t.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			if sub, ok := t.subs[id]; ok {
				delete(t.subs, id)
				close(sub)
			}
		})
	}
}

// Latest returns the most recently published value if the topic replays
func (t *Topic[T]) Latest() (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var zero T
	if len(t.history) == 0 {
		return zero, false
	}
	return t.history[len(t.history)-1], true
}

// Close closes every subscriber channel. Later publishes are dropped.
func (t *Topic[T]) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	t.closed = true
	for id, ch := range t.subs {
		delete(t.subs, id)
		close(ch)
	}
}
