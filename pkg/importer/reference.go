package importer

// ResolveFunc maps a raw stage link to the reference stored in the table.
// Returning "" drops the reference.
type ResolveFunc func(raw string) string

// ReferenceTable is an append-only list of unique reference strings.
type ReferenceTable struct {
	refs  []string
	index map[string]int
}

// Resolve returns the table index of raw after resolution, appending it
// when new. Empty input, or an empty resolution, yields -1 and leaves the
// table unchanged. A nil fn keeps raw as is.
func (t *ReferenceTable) Resolve(raw string, fn ResolveFunc) int {
	if raw == "" {
		return -1
	}
	resolved := raw
	if fn != nil {
		resolved = fn(raw)
	}
	if resolved == "" {
		return -1
	}

	if i, ok := t.index[resolved]; ok {
		return i
	}
	if t.index == nil {
		t.index = make(map[string]int)
	}
	t.refs = append(t.refs, resolved)
	t.index[resolved] = len(t.refs) - 1
	return len(t.refs) - 1
}

// Len returns the number of references.
func (t *ReferenceTable) Len() int {
	return len(t.refs)
}

// References returns the table in insertion order, nil when empty.
func (t *ReferenceTable) References() []string {
	return t.refs
}
