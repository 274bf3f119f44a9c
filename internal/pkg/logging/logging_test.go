package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyWriterAppendsToDayFile(t *testing.T) {
	dir := t.TempDir()
	w, err := NewDailyWriter(dir)
	require.NoError(t, err)
	day := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return day }

	_, err = w.Write([]byte("first\n"))
	require.NoError(t, err)
	_, err = w.Write([]byte("second\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "stdout_2026-03-14.log"))
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))
}

func TestDailyWriterIgnoresEmptyWrites(t *testing.T) {
	w, err := NewDailyWriter(t.TempDir())
	require.NoError(t, err)
	n, err := w.Write(nil)
	assert.NoError(t, err)
	assert.Zero(t, n)
}
