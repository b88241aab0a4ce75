package state

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Encode serializes the document to its canonical byte form. Struct
// fields marshal in declaration order, map keys sort, and completion
// sets are kept sorted, so identical documents always produce
// identical bytes. The store's read-back verification and the
// round-trip tests depend on this.
func Encode(d *Document) ([]byte, error) {
	for key, ids := range d.Completions {
		if !slices.IsSorted(ids) {
			sorted := slices.Clone(ids)
			slices.Sort(sorted)
			d.Completions[key] = sorted
		}
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return b, nil
}

// Clone deep-copies the document through its canonical encoding.
// Mutations operate on a clone and commit only after a successful
// persist, so a failed write never leaves partial state visible.
func Clone(d *Document) (*Document, error) {
	b, err := Encode(d)
	if err != nil {
		return nil, err
	}
	return Decode(b)
}

// Decode parses a canonical document, rejecting schema versions newer
// than this binary understands.
func Decode(b []byte) (*Document, error) {
	var d Document
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if d.SchemaVersion > SchemaVersion {
		return nil, fmt.Errorf("document schema version %d is newer than supported %d", d.SchemaVersion, SchemaVersion)
	}
	if d.Completions == nil {
		d.Completions = map[string][]string{}
	}
	if d.Tasks == nil {
		d.Tasks = []TaskItem{}
	}
	return &d, nil
}
