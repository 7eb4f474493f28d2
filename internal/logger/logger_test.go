package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponentLoggerFollowsOutput(t *testing.T) {
	component := GetForComponent("test_component")

	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	SetLevel("debug")
	defer SetLevel("info")

	component.Info().Str("poolID", "0").Msg("hello")
	assert.Contains(t, buf.String(), `"component":"test_component"`)
	assert.Contains(t, buf.String(), `"message":"hello"`)
}

func TestSetLevel(t *testing.T) {
	defer SetLevel("info")

	SetLevel("warn")
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	SetLevel("nonsense")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())

	SetLevel("")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestTeeToFile(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	path := filepath.Join(t.TempDir(), "amm.log")
	closer, err := TeeToFile(path)
	require.NoError(t, err)

	l := GetForComponent("web_server")
	l.Warn().Msg("written twice")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"written twice"`)
	assert.Contains(t, buf.String(), `"message":"written twice"`)
}

func TestTeeToFileMissingDirectory(t *testing.T) {
	_, err := TeeToFile(filepath.Join(t.TempDir(), "missing", "amm.log"))
	assert.Error(t, err)
}
