package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-bakery/framework/config"
	"github.com/km-arc/go-bakery/framework/container"
	"github.com/km-arc/go-bakery/framework/logging"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"Warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"chatty":  slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, logging.ParseLevel(in), "level %q", in)
	}
}

func TestNewWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := logging.NewWriter("bakery", config.LogConfig{Level: "info", Format: "json"}, &buf)

	l.Debug("hidden")
	l.Info("container opened", "container", "App")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "container opened", entry["msg"])
	assert.Equal(t, "App", entry["container"])
	assert.Equal(t, "bakery", entry["module"])
}

func TestFromSlog_CarriesContainerEvents(t *testing.T) {
	var buf bytes.Buffer
	log := logging.FromSlog(logging.NewWriter("bakery", config.LogConfig{Level: "debug"}, &buf))

	c := container.Define("App", []container.Item{{Name: "n", Value: 1}}, container.WithLogger(log))
	ctx := context.Background()
	_, err := c.Open(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Close(ctx))

	out := buf.String()
	assert.Contains(t, out, "recipe realized")
	assert.Contains(t, out, "container opened")
	assert.Contains(t, out, "container closed")
}

func TestFromHCLog(t *testing.T) {
	var buf bytes.Buffer
	log := logging.FromHCLog(logging.NewHCLog("bakery", config.LogConfig{Level: "warn"}, &buf))

	log.Info("quiet")
	log.Warning("loud", "recipe", "db")

	out := buf.String()
	assert.NotContains(t, out, "quiet")
	assert.Contains(t, out, "loud")
	assert.Contains(t, out, "recipe=db")
}

func TestNilAdapteesAreNop(t *testing.T) {
	assert.Equal(t, container.NopLogger{}, logging.FromSlog(nil))
	assert.Equal(t, container.NopLogger{}, logging.FromHCLog(nil))
}

func TestNewContainerLogger(t *testing.T) {
	assert.NotNil(t, logging.NewContainerLogger("bakery", config.LogConfig{Sink: "hclog"}))
	assert.NotNil(t, logging.NewContainerLogger("bakery", config.LogConfig{}))
}
