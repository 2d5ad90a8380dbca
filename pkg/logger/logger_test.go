package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" WARNING "))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: "info", Format: FormatJSON, Output: &buf})

	l.Debug("hidden")
	l.Info("saved", UserID("u1"), Collection("grades"), Err(errors.New("boom")))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "saved", entry["msg"])
	assert.Equal(t, "u1", entry["user_id"])
	assert.Equal(t, "grades", entry["collection"])
	assert.Equal(t, "boom", entry["error"])
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: "debug", Format: FormatText, Output: &buf, NoColor: true})

	l.Debug("rollups rebuilt", Subject("Math"))
	assert.Contains(t, buf.String(), "rollups rebuilt")
	assert.Contains(t, buf.String(), "subject=Math")
}

func TestOrDiscard(t *testing.T) {
	l := Discard()
	assert.Same(t, l, OrDiscard(l))
	assert.NotNil(t, OrDiscard(nil))
}
