package docstore

import (
	"encoding/json"
	"fmt"
)

// ToFields converts a JSON-tagged value into the field map stored for it.
// Reserved keys are dropped; the store owns them.
func ToFields(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return StripReserved(fields), nil
}

// Flatten returns the document's fields plus its id and timestamps, i.e. the
// shape an API client sees.
func (d Document) Flatten() map[string]any {
	out := CloneFields(d.Fields)
	out["id"] = d.ID
	out["createdAt"] = d.CreatedAt
	out["updatedAt"] = d.UpdatedAt
	return out
}

// Decode fills v (a pointer to a JSON-tagged struct) from the document.
func (d Document) Decode(v any) error {
	b, err := json.Marshal(d.Flatten())
	if err != nil {
		return fmt.Errorf("decode document %s: %w", d.ID, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode document %s: %w", d.ID, err)
	}
	return nil
}

// ToValue converts v into plain JSON values (maps, slices, strings, numbers,
// bools) so that every backend stores it with the same field names.
func ToValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	return out, nil
}
