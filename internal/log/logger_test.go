package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAttachesServiceAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "warn", Output: &buf, Service: "conform"})

	l.Info().Msg("dropped")
	assert.Zero(t, buf.Len(), "info must be filtered at warn level")

	l.Warn().Str(FieldEvent, "TOGGLE").Msg("kept")
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "conform", entry["service"])
	assert.Equal(t, "TOGGLE", entry[FieldEvent])
	assert.Equal(t, "kept", entry["message"])
}

func TestNewDefaultsServiceName(t *testing.T) {
	var buf bytes.Buffer
	New(Config{Output: &buf}).Info().Msg("x")
	assert.Contains(t, buf.String(), `"service":"statekernel"`)
}

func TestNewIgnoresBadLevel(t *testing.T) {
	var buf bytes.Buffer
	New(Config{Level: "loud", Output: &buf}).Info().Msg("x")
	assert.NotZero(t, buf.Len(), "unknown level falls back to info")
}

func TestWithComponent(t *testing.T) {
	l := WithComponent("engine")
	// Base is configured lazily; the child must be usable without Configure.
	l.Debug().Msg("noop")
}
