// Package event carries diagnostic and lifecycle notifications from a search
// session to whoever observes it. Every Bus is owned by one instance; there is
// no process-wide event state.
package event

import (
	"sync"

	"github.com/udisondev/ppather/internal/geo"
)

// Type identifies the kind of event.
type Type int

const (
	SearchBegan Type = iota // route search started
	PathCreated             // route search produced a path
	ChunkAdded              // a geometry chunk was loaded
	LinesAdded              // diagnostic polyline
	SphereAdded             // diagnostic marker
)

var typeNames = [...]string{
	SearchBegan: "search_began",
	PathCreated: "path_created",
	ChunkAdded:  "chunk_added",
	LinesAdded:  "lines_added",
	SphereAdded: "sphere_added",
}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return "unknown"
	}
	return typeNames[t]
}

// MarshalText encodes the type by name so JSON consumers see "path_created".
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Event is one notification. Only the fields relevant to Type are set.
type Event struct {
	Type  Type `json:"type"`
	MapID int  `json:"map_id"`

	// SearchBegan
	From *geo.Location `json:"from,omitempty"`
	To   *geo.Location `json:"to,omitempty"`

	// PathCreated, LinesAdded
	Points []geo.Location `json:"points,omitempty"`

	// ChunkAdded
	Chunk     *geo.ChunkCoord `json:"chunk,omitempty"`
	Triangles int             `json:"triangles,omitempty"`

	// SphereAdded
	Center *geo.Location `json:"center,omitempty"`
	Radius float64       `json:"radius,omitempty"`

	// LinesAdded, SphereAdded
	Label string `json:"label,omitempty"`
}

// Handler receives events on the publishing goroutine.
type Handler func(Event)

type subscription struct {
	id int
	fn Handler
}

// Bus delivers events synchronously to its subscribers in subscription order.
type Bus struct {
	mu     sync.Mutex
	subs   []subscription
	nextID int
}

// NewBus creates a bus with no subscribers.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers fn and returns a function that removes it.
func (b *Bus) Subscribe(fn Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subs = append(b.subs, subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish calls every subscriber with e before returning.
// Handlers may subscribe or publish from inside a handler.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	subs := b.subs
	b.mu.Unlock()

	for _, s := range subs {
		s.fn(e)
	}
}

// Len returns the number of subscribers.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Sphere builds a SphereAdded event.
func Sphere(mapID int, center geo.Location, radius float64, label string) Event {
	return Event{Type: SphereAdded, MapID: mapID, Center: &center, Radius: radius, Label: label}
}

// Lines builds a LinesAdded event for a polyline through points.
func Lines(mapID int, points []geo.Location, label string) Event {
	return Event{Type: LinesAdded, MapID: mapID, Points: points, Label: label}
}
