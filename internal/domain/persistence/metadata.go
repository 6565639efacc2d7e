package persistence

import (
	"context"
	"strings"
)

// NamespaceSeparator separates namespace segments in a logical class name,
// e.g. App\Billing\Invoice.
const NamespaceSeparator = `\`

// AliasSeparator separates a namespace alias from a short class name,
// e.g. App:Invoice.
const AliasSeparator = ":"

// FieldMetadata describes one mapped field of a class.
type FieldMetadata struct {
	Name     string `yaml:"name" json:"name"`
	Column   string `yaml:"column" json:"column,omitempty"`
	Type     string `yaml:"type" json:"type"`
	Nullable bool   `yaml:"nullable" json:"nullable,omitempty"`
	ID       bool   `yaml:"id" json:"id,omitempty"`
}

// ClassMetadata is the persistent shape of one class as described by a MappingDriver.
type ClassMetadata struct {
	Class   string            `yaml:"class" json:"class"`
	Table   string            `yaml:"table" json:"table"`
	Fields  []FieldMetadata   `yaml:"fields" json:"fields"`
	Options map[string]string `yaml:"options" json:"options,omitempty"`

	// Source is the location the definition was loaded from.
	Source string `yaml:"-" json:"source,omitempty"`
}

// MappingDriver describes persistent classes. It is what an engine's
// Configuration holds as its discovery strategy.
type MappingDriver interface {
	// Describe returns the metadata for className.
	Describe(ctx context.Context, className string) (*ClassMetadata, error)

	// ClassNames returns every class the driver can describe.
	ClassNames(ctx context.Context) ([]string, error)

	// IsTransient reports whether className is NOT described by this driver.
	IsTransient(ctx context.Context, className string) bool
}

// NamespaceOf returns everything before the last separator of className,
// or "" for a class in the root namespace.
func NamespaceOf(className string) string {
	idx := strings.LastIndex(className, NamespaceSeparator)
	if idx < 0 {
		return ""
	}
	return className[:idx]
}

// ShortName returns the segment after the last separator of className.
func ShortName(className string) string {
	idx := strings.LastIndex(className, NamespaceSeparator)
	if idx < 0 {
		return className
	}
	return className[idx+len(NamespaceSeparator):]
}
