package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_JSONToFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "log.jsonl")
	logger, err := New(Options{OutputPaths: []string{out}})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("opening file", zap.String("mode", "raw"))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "opening file", entry["msg"])
	assert.Equal(t, "raw", entry["mode"])
}

func TestNew_VerboseConsole(t *testing.T) {
	out := filepath.Join(t.TempDir(), "log.txt")
	logger, err := New(Options{Verbose: true, Console: true, OutputPaths: []string{out}})
	require.NoError(t, err)

	logger.Debug("viewer started", zap.Int("pid", 42))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "DEBUG")
	assert.Contains(t, string(data), "viewer started")
}
