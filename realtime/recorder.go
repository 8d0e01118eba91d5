package realtime

import (
	"context"
	"sync"
)

// Recorder keeps every published event; services use it in tests.
type Recorder struct {
	mu     sync.Mutex
	Events []Published
}

type Published struct {
	Room  string
	Event Event
}

func (r *Recorder) Publish(_ context.Context, room string, evt Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, Published{Room: room, Event: evt})
	return nil
}

// Rooms lists the rooms that received an event with the given name.
func (r *Recorder) Rooms(name string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rooms []string
	for _, p := range r.Events {
		if p.Event.Name == name {
			rooms = append(rooms, p.Room)
		}
	}
	return rooms
}
