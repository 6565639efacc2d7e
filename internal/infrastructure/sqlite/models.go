package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/zjrosen/entityreg/internal/domain/persistence"
)

// ClassMetadataModel represents the database row for the class_metadata table.
// Fields and options are stored as JSON text; compiled_at is a Unix timestamp.
type ClassMetadataModel struct {
	ID         int64
	Manager    string
	Class      string
	Namespace  string
	TableName  string
	Fields     string
	Options    *string // nullable
	Source     *string // nullable
	CompiledAt int64
}

// toClassMetadataModel converts described metadata to a row for manager.
func toClassMetadataModel(manager string, md *persistence.ClassMetadata, now time.Time) (*ClassMetadataModel, error) {
	fields := md.Fields
	if fields == nil {
		fields = []persistence.FieldMetadata{}
	}
	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode fields of %s: %w", md.Class, err)
	}

	m := &ClassMetadataModel{
		Manager:    manager,
		Class:      md.Class,
		Namespace:  persistence.NamespaceOf(md.Class),
		TableName:  md.Table,
		Fields:     string(fieldsJSON),
		CompiledAt: now.Unix(),
	}
	if len(md.Options) > 0 {
		optionsJSON, err := json.Marshal(md.Options)
		if err != nil {
			return nil, fmt.Errorf("encode options of %s: %w", md.Class, err)
		}
		s := string(optionsJSON)
		m.Options = &s
	}
	if md.Source != "" {
		s := md.Source
		m.Source = &s
	}
	return m, nil
}

// toClassMetadata converts a row back to metadata.
func (m *ClassMetadataModel) toClassMetadata() (*persistence.ClassMetadata, error) {
	md := &persistence.ClassMetadata{
		Class: m.Class,
		Table: m.TableName,
	}
	if err := json.Unmarshal([]byte(m.Fields), &md.Fields); err != nil {
		return nil, fmt.Errorf("decode fields of %s: %w", m.Class, err)
	}
	if m.Options != nil {
		if err := json.Unmarshal([]byte(*m.Options), &md.Options); err != nil {
			return nil, fmt.Errorf("decode options of %s: %w", m.Class, err)
		}
	}
	if m.Source != nil {
		md.Source = *m.Source
	}
	return md, nil
}
