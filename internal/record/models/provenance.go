package models

import (
	"encoding/json"
	"iter"

	"attest/pkg/domain"
)

// Entry is one recorded (value, source) contribution for a field.
type Entry[T any] struct {
	Value  T
	Source SourceRef
}

// FieldProvenance tracks, for one logical field, every value observed per
// document. Keys are unique per document; re-processing a document replaces
// its entry in place.
//
// Invariants:
//   - Entries are never removed by merges; only Upsert mutates the map.
//   - Iteration order is first-insertion order, which keeps discrepancy
//     reporting deterministic across merges.
//
// The zero value is an empty, usable map meaning "field never observed".
// Serialization happens only at the persistence boundary; in memory the map
// stays strongly typed.
type FieldProvenance[T any] struct {
	entries map[domain.DocumentID]Entry[T]
	order   []domain.DocumentID
}

// Upsert inserts or replaces the entry contributed by source's document.
func (p *FieldProvenance[T]) Upsert(value T, source SourceRef) {
	if p.entries == nil {
		p.entries = make(map[domain.DocumentID]Entry[T])
	}
	if _, exists := p.entries[source.DocumentID]; !exists {
		p.order = append(p.order, source.DocumentID)
	}
	p.entries[source.DocumentID] = Entry[T]{Value: value, Source: source}
}

// Get returns the entry recorded for a document, if any.
func (p *FieldProvenance[T]) Get(documentID domain.DocumentID) (Entry[T], bool) {
	entry, ok := p.entries[documentID]
	return entry, ok
}

// Values yields every recorded entry in first-insertion order. The sequence
// is finite and restartable.
func (p *FieldProvenance[T]) Values() iter.Seq[Entry[T]] {
	return func(yield func(Entry[T]) bool) {
		for _, docID := range p.order {
			if !yield(p.entries[docID]) {
				return
			}
		}
	}
}

// IsEmpty reports whether the field was never observed.
func (p *FieldProvenance[T]) IsEmpty() bool {
	return len(p.entries) == 0
}

// Len returns the number of contributing documents.
func (p *FieldProvenance[T]) Len() int {
	return len(p.entries)
}

// Clone returns an independent deep copy.
func (p *FieldProvenance[T]) Clone() FieldProvenance[T] {
	if len(p.entries) == 0 {
		return FieldProvenance[T]{}
	}
	entries := make(map[domain.DocumentID]Entry[T], len(p.entries))
	for docID, entry := range p.entries {
		entries[docID] = entry
	}
	order := make([]domain.DocumentID, len(p.order))
	copy(order, p.order)
	return FieldProvenance[T]{entries: entries, order: order}
}

// provenanceEntryJSON is the wire shape used at the persistence boundary.
// Entries are stored as an ordered array so insertion order survives a
// round-trip through JSONB.
type provenanceEntryJSON[T any] struct {
	Value  T         `json:"value"`
	Source SourceRef `json:"source"`
}

func (p FieldProvenance[T]) MarshalJSON() ([]byte, error) {
	out := make([]provenanceEntryJSON[T], 0, len(p.order))
	for _, docID := range p.order {
		entry := p.entries[docID]
		out = append(out, provenanceEntryJSON[T]{Value: entry.Value, Source: entry.Source})
	}
	return json.Marshal(out)
}

func (p *FieldProvenance[T]) UnmarshalJSON(data []byte) error {
	var in []provenanceEntryJSON[T]
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*p = FieldProvenance[T]{}
	for _, e := range in {
		p.Upsert(e.Value, e.Source)
	}
	return nil
}
