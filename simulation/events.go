package simulation

import (
	"context"
	"sync"

	"github.com/polystream/vault/types"
)

// RecordingEventService captures emitted events for assertions and scenario
// output.
type RecordingEventService struct {
	mu     sync.Mutex
	events []types.Event
}

var _ types.EventService = (*RecordingEventService)(nil)

// NewRecordingEventService creates an empty recorder.
func NewRecordingEventService() *RecordingEventService {
	return &RecordingEventService{}
}

// Emit records the event.
func (s *RecordingEventService) Emit(_ context.Context, event types.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

// Events returns all recorded events in emission order.
func (s *RecordingEventService) Events() []types.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Event, len(s.events))
	copy(out, s.events)
	return out
}

// EventsOfType returns recorded events matching the given type string.
func (s *RecordingEventService) EventsOfType(eventType string) []types.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.Event
	for _, ev := range s.events {
		if ev.EventType() == eventType {
			out = append(out, ev)
		}
	}
	return out
}

// Reset clears recorded events.
func (s *RecordingEventService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}
