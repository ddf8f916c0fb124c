// Package savestate keeps a bounded history of machine snapshots for rewinding.
package savestate

// Stack is a fixed-capacity ring of snapshots used as a stack: Pop returns the
// most recent Push. Once the ring is full the oldest snapshot is overwritten.
//
// T should be a value type; Push stores a copy and Pop hands that copy back.
type Stack[T any] struct {
	entries []T
	cursor  uint64 // total pushes minus pops, only its value modulo capacity indexes entries
	count   int
}

// New returns an empty stack holding at most capacity snapshots. A capacity of
// zero or less yields a stack that discards everything.
func New[T any](capacity int) *Stack[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &Stack[T]{entries: make([]T, capacity)}
}

// Push stores a snapshot, evicting the oldest one when full.
func (s *Stack[T]) Push(state T) {
	if len(s.entries) == 0 {
		return
	}
	s.entries[s.cursor%uint64(len(s.entries))] = state
	s.cursor++
	if s.count < len(s.entries) {
		s.count++
	}
}

// Pop returns the most recent snapshot and invalidates it. The boolean is false
// when the stack is empty.
func (s *Stack[T]) Pop() (T, bool) {
	var zero T
	if s.count == 0 {
		return zero, false
	}
	s.count--
	s.cursor--
	i := s.cursor % uint64(len(s.entries))
	state := s.entries[i]
	s.entries[i] = zero
	return state, true
}

// Len returns the number of snapshots that can be popped.
func (s *Stack[T]) Len() int {
	return s.count
}

// Cap returns the ring capacity.
func (s *Stack[T]) Cap() int {
	return len(s.entries)
}

// Clear drops every snapshot.
func (s *Stack[T]) Clear() {
	clear(s.entries)
	s.count = 0
}
