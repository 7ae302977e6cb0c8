package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scraper.log")

	log, err := New("debug", path)
	require.NoError(t, err)
	log.Debug("captured item")
	_ = log.Sync()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"msg":"captured item"`)
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New("loud", "")
	require.Error(t, err)
}
