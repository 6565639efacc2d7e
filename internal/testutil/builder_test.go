package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/entityreg/internal/infrastructure/yamlmapping"
)

func TestBuilder_WritesMappingFiles(t *testing.T) {
	dir := t.TempDir()
	paths := NewBuilder(t, dir).WithStandardMappings().Build()
	require.Len(t, paths, 3)
	require.Equal(t, filepath.Join(dir, yamlmapping.FileName(Invoice)), paths[0])

	driver := yamlmapping.NewFileDriver(dir)
	names, err := driver.ClassNames(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{Payment, Customer, Invoice}, names)

	md, err := driver.Describe(context.Background(), Payment)
	require.NoError(t, err)
	require.Equal(t, "billing_payments", md.Table)
	require.Len(t, md.Fields, 2)
}

func TestBuilder_Defaults(t *testing.T) {
	b := NewBuilder(t, t.TempDir()).WithClass(`App\Order`)
	md := b.Classes()[0]
	require.Equal(t, "orders", md.Table)
	require.True(t, md.Fields[0].ID)
}

func TestBuilder_Options(t *testing.T) {
	md := NewBuilder(t, t.TempDir()).
		WithClass(`App\Order`, Table("sales_orders"), NullableField("note", "string"), Option("engine", "wal")).
		Classes()[0]

	require.Equal(t, "sales_orders", md.Table)
	require.True(t, md.Fields[1].Nullable)
	require.Equal(t, map[string]string{"engine": "wal"}, md.Options)
}

func TestManagerAndConfig(t *testing.T) {
	m := Manager(t, "reporting", map[string]any{"discovery": "none"})
	require.Equal(t, "reporting", m.Name)
	require.Equal(t, "none", m.Settings["discovery"])
	require.Equal(t, "reporting.db", filepath.Base(m.Settings["path"].(string)))

	cfg := Config(m)
	require.NoError(t, cfg.Validate())
	require.Equal(t, []string{"reporting"}, cfg.ManagerNames())
}
