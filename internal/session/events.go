package session

import (
	"errors"
	"sync"

	"github.com/copyflow-project/copyflow/pkg/errclass"
)

// EventKind names a session notification.
type EventKind string

const (
	EventChunk      EventKind = "chunk"
	EventAuditChunk EventKind = "audit_chunk"
	EventState      EventKind = "state"
	EventError      EventKind = "error"
	EventNotice     EventKind = "notice"
)

// Event is pushed to subscribers after the session changes.
type Event struct {
	Kind  EventKind `json:"kind"`
	Text  string    `json:"text,omitempty"`
	Code  string    `json:"code,omitempty"`
	State *State    `json:"state,omitempty"`
}

type subscribers struct {
	mu   sync.RWMutex
	next int
	fns  map[int]func(Event)
}

func (s *subscribers) add(fn func(Event)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fns == nil {
		s.fns = make(map[int]func(Event))
	}
	id := s.next
	s.next++
	s.fns[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.fns, id)
		s.mu.Unlock()
	}
}

func (s *subscribers) publish(ev Event) {
	s.mu.RLock()
	fns := make([]func(Event), 0, len(s.fns))
	for _, fn := range s.fns {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// errorEvent converts err into a notification. Recoverable errors become
// notices; the session stays usable after them.
func errorEvent(err error) Event {
	ev := Event{Kind: EventError, Text: err.Error()}
	if errclass.IsRecoverable(err) {
		ev.Kind = EventNotice
	}
	var ce *errclass.CopyFlowError
	if errors.As(err, &ce) {
		ev.Code = ce.Code
	}
	return ev
}
