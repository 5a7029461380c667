package models

import "fmt"

// ExtractionError reports a single raw record that could not be turned into an AdRecord.
type ExtractionError struct {
	Source string
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract %s ad: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("extract %s ad: %s", e.Source, e.Reason)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// FetchError reports a page that could not be retrieved or parsed.
type FetchError struct {
	Page int
	URL  string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch page %d (%s): %v", e.Page, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// PersistenceError reports a snapshot that could not be read or written.
type PersistenceError struct {
	Key SnapshotKey
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s snapshot %s: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
