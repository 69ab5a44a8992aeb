package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/natefinch/lumberjack.v2"
)

func TestInitWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	Init("debug", &buf)
	defer Init("info", &bytes.Buffer{})

	Info("Joke imported",
		String("external_id", "abc"),
		Int("retry", 3),
		Bool("explicit", false),
		Err(errors.New("boom")),
	)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "Joke imported", entry["message"])
	assert.Equal(t, "abc", entry["external_id"])
	assert.EqualValues(t, 3, entry["retry"])
	assert.Equal(t, false, entry["explicit"])
	assert.Equal(t, "boom", entry["error"])
	assert.Contains(t, entry, "time")
	assert.Contains(t, entry["caller"], "logger_test.go")
}

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		level   string
		debug   bool
		warn    bool
		errorOn bool
	}{
		{"debug", true, true, true},
		{"info", false, true, true},
		{"warn", false, true, true},
		{"error", false, false, true},
		{"unknown", false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			Init(tt.level, &buf)

			Debug("d")
			assert.Equal(t, tt.debug, bytes.Contains(buf.Bytes(), []byte(`"message":"d"`)))

			buf.Reset()
			Warn("w")
			assert.Equal(t, tt.warn, bytes.Contains(buf.Bytes(), []byte(`"message":"w"`)))

			buf.Reset()
			Error("e")
			assert.Equal(t, tt.errorOn, bytes.Contains(buf.Bytes(), []byte(`"message":"e"`)))
		})
	}
}

func TestFileWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chucknorris.log")

	w := FileWriter(path, 10, 3)
	require.IsType(t, &lumberjack.Logger{}, w)

	lj := w.(*lumberjack.Logger)
	assert.Equal(t, path, lj.Filename)
	assert.Equal(t, 10, lj.MaxSize)
	assert.Equal(t, 3, lj.MaxBackups)
}
