// Package pubsub provides a generic publish/subscribe event system used to
// report registry activity to long-running consumers such as `entityreg watch`.
package pubsub

import (
	"context"
	"time"
)

// EventType represents the type of event being published.
type EventType string

const (
	ManagerBuiltEvent        EventType = "manager.built"
	ManagerBuildFailedEvent  EventType = "manager.build_failed"
	ExtensionRegisteredEvent EventType = "extension.registered"
	BootedEvent              EventType = "lifecycle.booted"
	MappingsChangedEvent     EventType = "mappings.changed"
	MetadataCompiledEvent    EventType = "metadata.compiled"
)

// Event represents a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// RegistryEvent is the payload published by the registry service.
type RegistryEvent struct {
	Manager   string   `json:"manager,omitempty"`
	Extension string   `json:"extension,omitempty"`
	RunID     string   `json:"run_id,omitempty"`
	Dirs      []string `json:"dirs,omitempty"`
	Count     int      `json:"count,omitempty"`
	Err       string   `json:"error,omitempty"`
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher allows publishing events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
