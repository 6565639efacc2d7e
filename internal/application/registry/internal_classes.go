package registry

import (
	"github.com/zjrosen/entityreg/internal/domain/metadata"
	"github.com/zjrosen/entityreg/internal/domain/persistence"
)

// ClassMetadataRecord is the framework class persisted by engines that
// compile metadata.
const ClassMetadataRecord = metadata.InternalNamespace + persistence.NamespaceSeparator + "ClassMetadataRecord"

// InternalClasses returns the framework classes served by the internal link
// of every chain.
func InternalClasses() []*persistence.ClassMetadata {
	return []*persistence.ClassMetadata{
		{
			Class: ClassMetadataRecord,
			Table: "class_metadata",
			Fields: []persistence.FieldMetadata{
				{Name: "id", Column: "id", Type: "integer", ID: true},
				{Name: "manager", Column: "manager", Type: "string"},
				{Name: "class", Column: "class", Type: "string"},
				{Name: "namespace", Column: "namespace", Type: "string"},
				{Name: "table", Column: "table_name", Type: "string"},
				{Name: "fields", Column: "fields", Type: "json"},
				{Name: "options", Column: "options", Type: "json", Nullable: true},
				{Name: "source", Column: "source", Type: "string", Nullable: true},
				{Name: "compiledAt", Column: "compiled_at", Type: "integer"},
			},
		},
	}
}
