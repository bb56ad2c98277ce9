package internal

import (
	"errors"
	"fmt"
)

// ErrEmptyQuery is returned by Search when the query has no content
var ErrEmptyQuery = errors.New("search query is empty")

// DecodeError reports a transcript line that is not valid JSON
type DecodeError struct {
	Offset int64 // byte offset of the syntax error within the line
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode error at offset %d: %v", e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// QueryCompileError reports a regex query that failed to compile
type QueryCompileError struct {
	Query string
	Err   error
}

func (e *QueryCompileError) Error() string {
	return fmt.Sprintf("invalid regex %q: %v", e.Query, e.Err)
}

func (e *QueryCompileError) Unwrap() error {
	return e.Err
}

// StorageError represents errors accessing transcript files
type StorageError struct {
	Path string
	Op   string // "open", "read", "walk", "stat"
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// CacheError represents errors reading or writing the event cache
type CacheError struct {
	Path string
	Op   string // "open", "load", "store", "clear"
	Err  error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *CacheError) Unwrap() error {
	return e.Err
}

// ExportError represents errors during export
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}
