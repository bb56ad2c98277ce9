package internal

import (
	"context"
	"strings"
)

const previewLimit = 140

// SessionSummary counts the records of one transcript
type SessionSummary struct {
	Session           Transcript `json:"session" yaml:"session"`
	UserMessages      int        `json:"user_messages" yaml:"user_messages"`
	AssistantMessages int        `json:"assistant_messages" yaml:"assistant_messages"`
	OtherRecords      int        `json:"other_records" yaml:"other_records"`
	ParseErrors       int        `json:"parse_errors" yaml:"parse_errors"`
	Preview           string     `json:"preview,omitempty" yaml:"preview,omitempty"`
}

// SummarizeTranscript counts records by kind. With preview it also captures
// the first non-blank user text, flattened and shortened.
func SummarizeTranscript(ctx context.Context, t Transcript, withPreview bool) (*SessionSummary, error) {
	summary := &SessionSummary{Session: t}
	stats := NewRunStats()
	normalizer := NewNormalizer(nil)

	err := ReadTranscriptFile(ctx, t.Path, stats, func(rec *RawRecord) error {
		switch rec.RecordType {
		case RecordUser:
			summary.UserMessages++
			if withPreview && summary.Preview == "" {
				for _, ev := range normalizer.Normalize(rec, ModeDefault, nil) {
					if text := ev.Text(); strings.TrimSpace(text) != "" {
						summary.Preview = CleanPreview(text)
					}
				}
			}
		case RecordAssistant:
			summary.AssistantMessages++
		default:
			summary.OtherRecords++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	summary.ParseErrors = stats.ParseErrors
	return summary, nil
}

// CleanPreview flattens whitespace and shortens text for one-line display
func CleanPreview(text string) string {
	return Ellipsize(flattenWhitespace(text), previewLimit)
}
