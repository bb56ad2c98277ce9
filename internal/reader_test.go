package internal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadTranscript_CountsMalformedLines(t *testing.T) {
	input := strings.Join([]string{
		`{"type":"user","message":{"content":"one"}}`,
		`{"type":"user","message":`,
		``,
		`   `,
		`{broken`,
		`{"type":"assistant","message":{"content":"two"}}`,
	}, "\n")

	stats := NewRunStats()
	var types []string
	err := ReadTranscript(context.Background(), strings.NewReader(input), stats, func(rec *RawRecord) error {
		types = append(types, rec.RecordType)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"user", "assistant"}, types)
	assert.Equal(t, 2, stats.ParseErrors)
	assert.Equal(t, 2, stats.Records)
	assert.Equal(t, 6, stats.Lines)
}

func TestReadTranscript_LongLine(t *testing.T) {
	long := strings.Repeat("a", 1<<20)
	input := `{"type":"user","message":{"content":"` + long + `"}}`

	var got string
	err := ReadTranscript(context.Background(), strings.NewReader(input), nil, func(rec *RawRecord) error {
		got = rec.Message.Content[0].Text
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, got, len(long))
}

func TestReadTranscript_CallbackErrorStops(t *testing.T) {
	input := "{\"type\":\"a\"}\n{\"type\":\"b\"}\n"
	stop := errors.New("stop")
	calls := 0
	err := ReadTranscript(context.Background(), strings.NewReader(input), nil, func(*RawRecord) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestReadTranscript_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := ReadTranscript(ctx, strings.NewReader(`{"type":"user"}`), nil, func(*RawRecord) error {
		t.Fatal("callback should not run after cancellation")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadTranscriptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{\"type\":\"user\"}\n"), 0644))

	stats := NewRunStats()
	count := 0
	require.NoError(t, ReadTranscriptFile(context.Background(), path, stats, func(*RawRecord) error {
		count++
		return nil
	}))
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, stats.Files)

	err := ReadTranscriptFile(context.Background(), filepath.Join(dir, "missing.jsonl"), stats, nil)
	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "open", storageErr.Op)
}
