package presentation

import (
	"time"

	"github.com/zjrosen/entityreg/internal/domain/metadata"
	"github.com/zjrosen/entityreg/internal/domain/persistence"
	"github.com/zjrosen/entityreg/internal/domain/registry"
	"github.com/zjrosen/entityreg/internal/pubsub"
)

// ManagerDTO represents a declared manager for presentation
type ManagerDTO struct {
	Name              string    `json:"name"`
	Driver            string    `json:"driver"`
	Default           bool      `json:"default"`
	DefaultConnection bool      `json:"default_connection"`
	Built             bool      `json:"built"`
	Links             []LinkDTO `json:"links"`
}

// LinkDTO represents one link of a manager's driver chain
type LinkDTO struct {
	Index      int            `json:"index"`
	Origin     string         `json:"origin"`
	Strategy   string         `json:"strategy"`
	Namespaces []NamespaceDTO `json:"namespaces"`
	Locations  []string       `json:"locations,omitempty"`
}

// NamespaceDTO represents a namespace binding
type NamespaceDTO struct {
	Alias     string `json:"alias"`
	Namespace string `json:"namespace"`
}

// ResolutionDTO represents a resolved class
type ResolutionDTO struct {
	Manager  string                     `json:"manager"`
	Class    string                     `json:"class"`
	Link     int                        `json:"link"`
	Origin   string                     `json:"origin"`
	Source   string                     `json:"source"`
	Metadata *persistence.ClassMetadata `json:"metadata,omitempty"`
}

// BootDTO represents the outcome of a boot run
type BootDTO struct {
	RunID      string         `json:"run_id"`
	Extensions []string       `json:"extensions"`
	Compiled   map[string]int `json:"compiled,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// CompileDTO represents the outcome of compiling a manager's metadata
type CompileDTO struct {
	Manager  string `json:"manager"`
	Compiled int    `json:"compiled"`
}

// EventDTO represents a registry event streamed by `watch`
type EventDTO struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	pubsub.RegistryEvent
}

// FromDescriptor converts a descriptor and its chain links to a DTO.
func FromDescriptor(d registry.Descriptor, reader registry.Reader, built bool, links []metadata.LinkView) ManagerDTO {
	return ManagerDTO{
		Name:              d.Name,
		Driver:            d.Driver,
		Default:           d.Name == reader.DefaultManagerName(),
		DefaultConnection: d.Name == reader.DefaultConnectionName(),
		Built:             built,
		Links:             FromLinkViews(links),
	}
}

// FromLinkViews converts chain link snapshots to DTOs.
func FromLinkViews(views []metadata.LinkView) []LinkDTO {
	out := make([]LinkDTO, len(views))
	for i, v := range views {
		namespaces := make([]NamespaceDTO, len(v.Namespaces))
		for j, b := range v.Namespaces {
			namespaces[j] = NamespaceDTO{Alias: b.Alias, Namespace: b.Namespace}
		}
		out[i] = LinkDTO{
			Index:      v.Index,
			Origin:     v.Origin,
			Strategy:   v.Strategy,
			Namespaces: namespaces,
			Locations:  v.Locations,
		}
	}
	return out
}

// FromResolution converts a resolution and its optional metadata to a DTO.
func FromResolution(manager string, res metadata.Resolution, md *persistence.ClassMetadata) ResolutionDTO {
	return ResolutionDTO{
		Manager:  manager,
		Class:    res.Class,
		Link:     res.Link,
		Origin:   res.Origin,
		Source:   res.Source,
		Metadata: md,
	}
}

// FromEvent converts a published registry event to a DTO.
func FromEvent(ev pubsub.Event[pubsub.RegistryEvent]) EventDTO {
	return EventDTO{
		Type:          string(ev.Type),
		Timestamp:     ev.Timestamp,
		RegistryEvent: ev.Payload,
	}
}
