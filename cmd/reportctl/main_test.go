package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDay(t *testing.T) {
	got, err := parseDay("", false)
	require.NoError(t, err)
	assert.Nil(t, got)

	start, err := parseDay("2024-06-01", false)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.Local), *start)

	end, err := parseDay("2024-06-01", true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 2, 0, 0, 0, 0, time.Local).Add(-time.Nanosecond), *end)

	_, err = parseDay("06/01/2024", false)
	assert.Error(t, err)
}

func TestWriteOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")

	err := writeOutput(path, func(w io.Writer) error { return writeJSON(w, map[string]int{"plays": 3}) })
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"plays":3}`, string(bytes.TrimSpace(data)))
}
