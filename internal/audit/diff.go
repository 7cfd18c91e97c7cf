package audit

import (
	"encoding/json"
	"sort"
)

// FieldChange is one changed field in a before/after pair.
type FieldChange struct {
	Field string `json:"field"`
	Old   any    `json:"old,omitempty"`
	New   any    `json:"new,omitempty"`
}

// Changes computes the per-field change set over the key union of old and
// new. A field counts as changed iff its serialized values differ. This is a
// derived view for display; the stored entry keeps the raw values.
func Changes(oldValue, newValue map[string]any) []FieldChange {
	keys := make(map[string]struct{}, len(oldValue)+len(newValue))
	for k := range oldValue {
		keys[k] = struct{}{}
	}
	for k := range newValue {
		keys[k] = struct{}{}
	}
	ordered := make([]string, 0, len(keys))
	for k := range keys {
		ordered = append(ordered, k)
	}
	sort.Strings(ordered)

	var changes []FieldChange
	for _, k := range ordered {
		before, hasBefore := oldValue[k]
		after, hasAfter := newValue[k]
		if hasBefore && hasAfter && serialize(before) == serialize(after) {
			continue
		}
		changes = append(changes, FieldChange{Field: k, Old: before, New: after})
	}
	return changes
}

func serialize(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "\x00unserializable"
	}
	return string(data)
}
