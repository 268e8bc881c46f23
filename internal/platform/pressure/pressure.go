// Package pressure delivers process memory-pressure signals to in-process
// subscribers.
package pressure

import "sync"

// Level describes the severity of a memory-pressure signal. Subscribers
// that only release cache may treat every level the same way.
type Level int

const (
	LevelModerate Level = iota
	LevelCritical
)

// String returns the level name.
func (l Level) String() string {
	switch l {
	case LevelModerate:
		return "moderate"
	case LevelCritical:
		return "critical"
	}
	return "unknown"
}

// Source fans memory-pressure notifications out to subscribers. The zero
// Source is ready to use.
type Source struct {
	mu       sync.Mutex
	handlers []func(Level)
}

// NewSource creates an empty notification source.
func NewSource() *Source {
	return &Source{}
}

// Subscribe registers a handler for future notifications. Handlers are
// never unregistered; they live as long as the source.
func (s *Source) Subscribe(handler func(Level)) {
	if s == nil || handler == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, handler)
}

// Notify delivers one signal to every subscriber in registration order.
// Handlers run on the caller's goroutine.
func (s *Source) Notify(level Level) {
	if s == nil {
		return
	}
	s.mu.Lock()
	handlers := make([]func(Level), len(s.handlers))
	copy(handlers, s.handlers)
	s.mu.Unlock()

	for _, handler := range handlers {
		handler(level)
	}
}
