package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStats_NilSafe(t *testing.T) {
	var s *RunStats
	assert.NotPanics(t, func() {
		s.addFile()
		s.addLine()
		s.addParseError()
		s.observeRecord(&RawRecord{RecordType: "user"})
		s.skip(SkipNonDialog)
		s.addEvents(3)
		s.Merge(NewRunStats())
	})
}

func TestRunStats_ObserveRecord(t *testing.T) {
	s := NewRunStats()
	require.NotEmpty(t, s.RunID)

	s.observeRecord(&RawRecord{
		RecordType: RecordAssistant,
		Message: &MessageBody{
			Model: "claude-x",
			Content: []ContentBlock{
				{Kind: BlockText, Type: "text"},
				{Kind: BlockUnknown, Type: "hologram"},
				{Kind: BlockText, Type: "text"},
			},
		},
	})
	s.observeRecord(&RawRecord{})

	assert.Equal(t, 2, s.Records)
	assert.Equal(t, 1, s.RecordTypes[RecordAssistant])
	assert.Equal(t, 1, s.RecordTypes["(none)"])
	assert.Equal(t, 2, s.BlockTypes["text"])
	assert.Equal(t, 1, s.BlockTypes["hologram"])
	assert.Equal(t, 1, s.Models["claude-x"])
}

func TestRunStats_Merge(t *testing.T) {
	a := NewRunStats()
	b := NewRunStats()
	a.skip(SkipNonDialog)
	b.skip(SkipNonDialog)
	b.skip(SkipEmptyContent)
	b.addParseError()
	b.addLine()

	runID := a.RunID
	a.Merge(b)

	assert.Equal(t, runID, a.RunID)
	assert.Equal(t, 3, a.SkippedRecords)
	assert.Equal(t, 2, a.SkipReasons[SkipNonDialog])
	assert.Equal(t, 1, a.SkipReasons[SkipEmptyContent])
	assert.Equal(t, 1, a.ParseErrors)
	assert.Equal(t, 1, a.Lines)
}

func TestTopN(t *testing.T) {
	counts := map[string]int{"b": 2, "a": 2, "c": 5, "d": 1}

	got := TopN(counts, 3)
	assert.Equal(t, []Count{{"c", 5}, {"a", 2}, {"b", 2}}, got)

	assert.Len(t, TopN(counts, 0), 4)
	assert.Empty(t, TopN(nil, 5))
}
