package models

// Search is one configured source+filter combination to watch.
type Search struct {
	Source     string   `mapstructure:"source"`     // Source is the adapter name, e.g. "icarros".
	Model      string   `mapstructure:"model"`      // Model is an optional sub-key inside the source snapshot.
	Filter     string   `mapstructure:"filter"`     // Filter is the source specific query part.
	Recipients []string `mapstructure:"recipients"` // Recipients receive the email digest.
}

// Key returns the snapshot key the search reads and writes.
func (s Search) Key() SnapshotKey {
	return SnapshotKey{Source: s.Source, Model: s.Model}
}

// SnapshotKey scopes a snapshot to a source and, optionally, a model.
type SnapshotKey struct {
	Source string
	Model  string
}

func (k SnapshotKey) String() string {
	if k.Model == "" {
		return k.Source
	}
	return k.Source + "/" + k.Model
}

// RunReport summarizes one run of a search.
type RunReport struct {
	Key                SnapshotKey
	Found              bool // Found is false when the first page had no ads.
	Pages              int
	Candidates         int
	New                int
	ExtractionFailures int
	Notified           bool
}
