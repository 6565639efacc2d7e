package testutil

import (
	"strings"

	"github.com/zjrosen/entityreg/internal/domain/persistence"
)

// ClassOption configures a class before it is written.
type ClassOption func(*persistence.ClassMetadata)

// defaultClass returns a class with an integer id and a snake_case table
// named after the short class name.
func defaultClass(class string) *persistence.ClassMetadata {
	return &persistence.ClassMetadata{
		Class: class,
		Table: strings.ToLower(persistence.ShortName(class)) + "s",
		Fields: []persistence.FieldMetadata{
			{Name: "id", Column: "id", Type: "integer", ID: true},
		},
	}
}

// Table sets the mapped table.
func Table(name string) ClassOption {
	return func(md *persistence.ClassMetadata) {
		md.Table = name
	}
}

// Field adds a non-nullable field stored in a column of the same name.
func Field(name, typ string) ClassOption {
	return func(md *persistence.ClassMetadata) {
		md.Fields = append(md.Fields, persistence.FieldMetadata{Name: name, Column: name, Type: typ})
	}
}

// NullableField adds a nullable field.
func NullableField(name, typ string) ClassOption {
	return func(md *persistence.ClassMetadata) {
		md.Fields = append(md.Fields, persistence.FieldMetadata{Name: name, Column: name, Type: typ, Nullable: true})
	}
}

// Option sets an engine option.
func Option(key, value string) ClassOption {
	return func(md *persistence.ClassMetadata) {
		if md.Options == nil {
			md.Options = make(map[string]string)
		}
		md.Options[key] = value
	}
}
