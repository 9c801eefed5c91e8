package bytecode

import (
	"fmt"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// StringTable is a unit-wide string interning pool. Interning is
// idempotent and safe for concurrent use by independent emitter
// instances working on the same unit.
type StringTable struct {
	mu   sync.RWMutex
	ids  map[string]StringID
	vals []string
}

// NewStringTable creates an empty string table.
func NewStringTable() *StringTable {
	return &StringTable{ids: make(map[string]StringID)}
}

// Intern returns the id of s, inserting it on first use.
func (t *StringTable) Intern(s string) StringID {
	t.mu.RLock()
	id, ok := t.ids[s]
	t.mu.RUnlock()
	if ok {
		return id
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if id, ok := t.ids[s]; ok {
		return id
	}
	id = StringID(len(t.vals))
	t.ids[s] = id
	t.vals = append(t.vals, s)
	return id
}

// Len returns the number of interned strings.
func (t *StringTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.vals)
}

// Snapshot returns a copy of the interned strings, ordered by id.
func (t *StringTable) Snapshot() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return copySlice(t.vals)
}

var canonicalEnc cbor.EncMode

func init() {
	var err error
	canonicalEnc, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: canonical cbor mode: %v", err))
	}
}

// ArrayTable is a unit-wide interning pool for array literals. Values are
// keyed by their canonical CBOR encoding, so deep-equal arrays intern to
// the same id regardless of how they were constructed.
type ArrayTable struct {
	mu   sync.RWMutex
	ids  map[string]ArrayID
	vals []any
}

// NewArrayTable creates an empty array table.
func NewArrayTable() *ArrayTable {
	return &ArrayTable{ids: make(map[string]ArrayID)}
}

// Intern returns the id of v, inserting it on first use.
func (t *ArrayTable) Intern(v any) (ArrayID, error) {
	key, err := canonicalEnc.Marshal(v)
	if err != nil {
		return 0, fmt.Errorf("intern array: %w", err)
	}
	k := string(key)
	t.mu.RLock()
	id, ok := t.ids[k]
	t.mu.RUnlock()
	if ok {
		return id, nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if id, ok := t.ids[k]; ok {
		return id, nil
	}
	id = ArrayID(len(t.vals))
	t.ids[k] = id
	t.vals = append(t.vals, v)
	return id, nil
}

// Len returns the number of interned arrays.
func (t *ArrayTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.vals)
}

// Snapshot returns a copy of the interned values, ordered by id.
func (t *ArrayTable) Snapshot() []any {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return copySlice(t.vals)
}
