package internal

import (
	"sort"

	"github.com/google/uuid"
)

// Skip reasons recorded when a record yields no event
const (
	SkipNoMessage       = "no_message"
	SkipEmptyContent    = "empty_content"
	SkipFilteredContent = "filtered_content"
	SkipNonDialog       = "non_dialog"
	SkipNotAllowListed  = "not_allow_listed"
	SkipNilRecord       = "nil_record"
)

// RunStats accumulates counters for one decode/normalize run. It is owned by
// a single run and is not safe for concurrent use; use Merge to combine
// per-worker accumulators. All methods accept a nil receiver.
type RunStats struct {
	RunID          string         `json:"run_id" yaml:"run_id"`
	Files          int            `json:"files" yaml:"files"`
	Lines          int            `json:"lines" yaml:"lines"`
	Records        int            `json:"records" yaml:"records"`
	ParseErrors    int            `json:"parse_errors" yaml:"parse_errors"`
	SkippedRecords int            `json:"skipped_records" yaml:"skipped_records"`
	Events         int            `json:"events" yaml:"events"`
	SkipReasons    map[string]int `json:"skip_reasons,omitempty" yaml:"skip_reasons,omitempty"`
	RecordTypes    map[string]int `json:"record_types,omitempty" yaml:"record_types,omitempty"`
	BlockTypes     map[string]int `json:"block_types,omitempty" yaml:"block_types,omitempty"`
	Models         map[string]int `json:"models,omitempty" yaml:"models,omitempty"`
}

// NewRunStats creates an empty accumulator tagged with a fresh run ID
func NewRunStats() *RunStats {
	return &RunStats{
		RunID:       uuid.NewString(),
		SkipReasons: make(map[string]int),
		RecordTypes: make(map[string]int),
		BlockTypes:  make(map[string]int),
		Models:      make(map[string]int),
	}
}

func (s *RunStats) addFile() {
	if s != nil {
		s.Files++
	}
}

func (s *RunStats) addLine() {
	if s != nil {
		s.Lines++
	}
}

func (s *RunStats) addParseError() {
	if s != nil {
		s.ParseErrors++
	}
}

// observeRecord counts a decoded record along with its block types and model
func (s *RunStats) observeRecord(rec *RawRecord) {
	if s == nil || rec == nil {
		return
	}
	s.Records++
	recordType := rec.RecordType
	if recordType == "" {
		recordType = "(none)"
	}
	s.RecordTypes = bump(s.RecordTypes, recordType)
	if rec.Message == nil {
		return
	}
	if rec.Message.Model != "" {
		s.Models = bump(s.Models, rec.Message.Model)
	}
	for _, b := range rec.Message.Content {
		name := b.Type
		if name == "" {
			name = string(b.Kind)
		}
		s.BlockTypes = bump(s.BlockTypes, name)
	}
}

func (s *RunStats) skip(reason string) {
	if s == nil {
		return
	}
	s.SkippedRecords++
	s.SkipReasons = bump(s.SkipReasons, reason)
}

func (s *RunStats) addEvents(n int) {
	if s != nil {
		s.Events += n
	}
}

// Merge adds the counters of other into s. The run ID of s is kept.
func (s *RunStats) Merge(other *RunStats) {
	if s == nil || other == nil {
		return
	}
	s.Files += other.Files
	s.Lines += other.Lines
	s.Records += other.Records
	s.ParseErrors += other.ParseErrors
	s.SkippedRecords += other.SkippedRecords
	s.Events += other.Events
	s.SkipReasons = mergeCounts(s.SkipReasons, other.SkipReasons)
	s.RecordTypes = mergeCounts(s.RecordTypes, other.RecordTypes)
	s.BlockTypes = mergeCounts(s.BlockTypes, other.BlockTypes)
	s.Models = mergeCounts(s.Models, other.Models)
}

func bump(m map[string]int, key string) map[string]int {
	if m == nil {
		m = make(map[string]int)
	}
	m[key]++
	return m
}

func mergeCounts(dst, src map[string]int) map[string]int {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]int, len(src))
	}
	for k, v := range src {
		dst[k] += v
	}
	return dst
}

// Count is one entry of a ranked counter
type Count struct {
	Key   string `json:"key" yaml:"key"`
	Count int    `json:"count" yaml:"count"`
}

// TopN returns the n largest entries of counts, ordered by count descending
// then key ascending. n <= 0 returns every entry.
func TopN(counts map[string]int, n int) []Count {
	out := make([]Count, 0, len(counts))
	for k, v := range counts {
		out = append(out, Count{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
