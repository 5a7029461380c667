package models

import "encoding/json"

// AdRecord is one listing scraped from a source.
// ID is derived from Payload and is not part of the persisted form,
// where it is the key of the surrounding object.
type AdRecord struct {
	ID      string          `json:"-"`
	URL     string          `json:"url"`
	Payload json.RawMessage `json:"car"`
}

// AdSet maps ad id to its record.
type AdSet map[string]AdRecord

// Add puts rec into the set, replacing any record with the same id.
func (s AdSet) Add(rec AdRecord) {
	s[rec.ID] = rec
}

// MergeAdSets returns the union of base and update. On id collision the
// record from update wins. Neither argument is modified.
func MergeAdSets(base, update AdSet) AdSet {
	out := make(AdSet, len(base)+len(update))
	for id, rec := range base {
		out[id] = rec
	}
	for id, rec := range update {
		rec.ID = id
		out[id] = rec
	}
	return out
}

// Missing returns the records of candidate whose ids are absent from known.
func Missing(candidate, known AdSet) AdSet {
	out := make(AdSet)
	for id, rec := range candidate {
		if _, found := known[id]; !found {
			out[id] = rec
		}
	}
	return out
}
