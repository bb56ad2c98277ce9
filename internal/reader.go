package internal

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
)

// ReadTranscript decodes r line by line and calls fn for every record.
// Lines have no length limit. Malformed lines are counted in stats and
// skipped; an error from fn or the context stops the read.
func ReadTranscript(ctx context.Context, r io.Reader, stats *RunStats, fn func(*RawRecord) error) error {
	br := bufio.NewReader(r)
	lineNo := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, readErr := br.ReadBytes('\n')
		if len(line) > 0 {
			lineNo++
			stats.addLine()

			rec, ok, err := DecodeRecord(line)
			switch {
			case err != nil:
				stats.addParseError()
				LogDebug("skipping line %d: %v", lineNo, err)
			case ok:
				stats.observeRecord(rec)
				if err := fn(rec); err != nil {
					return err
				}
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return nil
			}
			return readErr
		}
	}
}

// ReadTranscriptFile opens path read-only and streams its records to fn
func ReadTranscriptFile(ctx context.Context, path string, stats *RunStats, fn func(*RawRecord) error) error {
	f, err := os.Open(path)
	if err != nil {
		return &StorageError{Path: path, Op: "open", Err: err}
	}
	defer f.Close()

	stats.addFile()
	if err := ReadTranscript(ctx, f, stats, fn); err != nil {
		var storageErr *StorageError
		if errors.As(err, &storageErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return &StorageError{Path: path, Op: "read", Err: err}
	}
	return nil
}
