// Package signal implements the in-process fan-out of §4.6: slots (a
// receiver identity plus a method to invoke) attached to a named
// Signal, emitted synchronously and in registration order on the
// emitting goroutine.
//
// Grounded on the teacher's guarded-callback pattern (internal/tree's
// failure-barrier style around user-supplied hooks): a slot's panic is
// recovered and logged rather than propagated, so one bad receiver
// cannot break emission to the rest (§4.8: "subscribers that throw do
// not prevent the state change from completing").
package signal

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// Slot is a receiver callback. T is the payload type the Signal
// carries (e.g. a Run for SOR/EOR, a string for a named event).
type Slot[T any] func(T)

type entry[T any] struct {
	receiver interface{}
	slot     Slot[T]
}

// Signal is a named, ordered collection of slots.
type Signal[T any] struct {
	mu      sync.Mutex
	name    string
	entries []entry[T]
}

// New returns an empty, named Signal.
func New[T any](name string) *Signal[T] {
	return &Signal[T]{name: name}
}

// Name returns the signal's name.
func (s *Signal[T]) Name() string { return s.name }

// Connect attaches slot under receiver's identity. A receiver may be
// connected more than once; each connection is independent.
func (s *Signal[T]) Connect(receiver interface{}, slot Slot[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry[T]{receiver: receiver, slot: slot})
}

// Disconnect removes every slot registered under receiver's identity.
// Per §4.6, a receiver is responsible for disconnecting before its own
// destruction; calling Disconnect from within an emitting slot is
// undefined (§9 open questions) and not guarded against here.
func (s *Signal[T]) Disconnect(receiver interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.receiver != receiver {
			kept = append(kept, e)
		}
	}
	s.entries = kept
}

// Len reports how many slots are currently connected.
func (s *Signal[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Emit invokes every connected slot, synchronously, in registration
// order, on the calling goroutine. A panicking slot is recovered and
// logged; emission continues to the remaining slots.
func (s *Signal[T]) Emit(payload T) {
	s.mu.Lock()
	snapshot := make([]entry[T], len(s.entries))
	copy(snapshot, s.entries)
	s.mu.Unlock()

	for _, e := range snapshot {
		s.emitOne(e, payload)
	}
}

func (s *Signal[T]) emitOne(e entry[T], payload T) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{"signal": s.name}).Errorf("slot panicked: %v", r)
		}
	}()
	e.slot(payload)
}
