package presentation

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/entityreg/internal/domain/metadata"
	"github.com/zjrosen/entityreg/internal/domain/persistence"
	"github.com/zjrosen/entityreg/internal/pubsub"
)

func TestFromLinkViews(t *testing.T) {
	views := []metadata.LinkView{
		{Index: 0, Origin: "manager", Strategy: "<unbound>"},
		{
			Index:      1,
			Origin:     "internal",
			Strategy:   "*metadata.StaticStrategy",
			Namespaces: []metadata.NamespaceBinding{{Alias: "App", Namespace: `App\Billing`}},
			Locations:  []string{"/srv/mappings"},
		},
	}

	links := FromLinkViews(views)
	require.Len(t, links, 2)
	require.Empty(t, links[0].Namespaces)
	require.Equal(t, []NamespaceDTO{{Alias: "App", Namespace: `App\Billing`}}, links[1].Namespaces)
	require.Equal(t, []string{"/srv/mappings"}, links[1].Locations)
}

func TestFormatter_Resolution(t *testing.T) {
	var buf bytes.Buffer
	res := FromResolution("default", metadata.Resolution{
		Class:  `App\Invoice`,
		Link:   0,
		Origin: "manager",
		Source: "config/mappings/App.Invoice.orm.yaml",
	}, &persistence.ClassMetadata{Class: `App\Invoice`, Table: "invoices"})

	require.NoError(t, NewFormatter(&buf).FormatResolution(res))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, "default", decoded["manager"])
	require.Equal(t, `App\Invoice`, decoded["class"])
	require.Equal(t, "invoices", decoded["metadata"].(map[string]any)["table"])
}

func TestFormatter_EventIsOneLine(t *testing.T) {
	var buf bytes.Buffer
	ev := FromEvent(pubsub.Event[pubsub.RegistryEvent]{
		Type:      pubsub.MappingsChangedEvent,
		Payload:   pubsub.RegistryEvent{Dirs: []string{"config/mappings"}},
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	})

	require.NoError(t, NewFormatter(&buf).FormatEvent(ev))
	out := buf.String()
	require.Equal(t, 1, strings.Count(out, "\n"))
	require.Contains(t, out, `"type":"mappings.changed"`)
	require.Contains(t, out, `"dirs":["config/mappings"]`)
}
