package log

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLog_FormatsFields(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	t.Cleanup(Reset)

	Info(CatRegistry, "manager built", "name", "default", "driver", "sqlite")

	line := buf.String()
	require.Contains(t, line, "[INFO] [registry] manager built name=default driver=sqlite")
	require.True(t, bytes.HasSuffix(buf.Bytes(), []byte("\n")))
}

func TestLog_OddFields(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	t.Cleanup(Reset)

	Debug(CatChain, "resolve", "class")

	require.Contains(t, buf.String(), "class=<missing>")
}

func TestLog_ErrorErr(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	t.Cleanup(Reset)

	ErrorErr(CatDB, "open failed", errors.New("disk full"), "path", "x.db")
	ErrorErr(CatDB, "nil error", nil)

	require.Contains(t, buf.String(), "[ERROR] [db] open failed path=x.db error=disk full")
	require.Contains(t, buf.String(), "error=<nil>")
}

func TestLog_MinLevelAndDisable(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	t.Cleanup(Reset)

	SetMinLevel(LevelWarn)
	Info(CatExt, "dropped")
	Warn(CatExt, "kept")
	require.NotContains(t, buf.String(), "dropped")
	require.Contains(t, buf.String(), "kept")

	buf.Reset()
	SetEnabled(false)
	Error(CatExt, "silenced")
	require.Empty(t, buf.String())
}

func TestLog_NoSinkIsNoop(t *testing.T) {
	Reset()
	require.NotPanics(t, func() {
		Info(CatConfig, "nothing")
	})
}

func TestInit_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")
	cleanup, err := Init(path)
	require.NoError(t, err)

	Warn(CatWatcher, "changed", "path", "a.orm.yaml")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "[WARN] [watcher] changed path=a.orm.yaml")
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, LevelInfo, ParseLevel("INFO"))
	require.Equal(t, LevelWarn, ParseLevel("warning"))
	require.Equal(t, LevelError, ParseLevel("error"))
	require.Equal(t, LevelDebug, ParseLevel("bogus"))
}
