package peer

import "sort"

// Table is the process-local list of live connections, addressed by
// contiguous integer index. Ids are reused when an entry is removed: all
// ids greater than a removed one shift down by one. A table id is only
// meaningful within the loop iteration that handed it out.
type Table struct {
	entries []*Entry
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{}
}

// Add appends a new entry and returns its id.
func (t *Table) Add(e *Entry) int {
	t.entries = append(t.entries, e)
	return len(t.entries) - 1
}

// Len returns the current number of live entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// Get returns the entry at id, or nil, false if id is out of range.
func (t *Table) Get(id int) (*Entry, bool) {
	if id < 0 || id >= len(t.entries) {
		return nil, false
	}
	return t.entries[id], true
}

// Each calls fn for every live entry in table order, with its current id.
func (t *Table) Each(fn func(id int, e *Entry)) {
	for i, e := range t.entries {
		fn(i, e)
	}
}

// OtherIDs returns every id other than exclude, in table order.
func (t *Table) OtherIDs(exclude int) []int {
	ids := make([]int, 0, len(t.entries))
	for i := range t.entries {
		if i != exclude {
			ids = append(ids, i)
		}
	}
	return ids
}

// RemoveMany removes every entry named in ids (deduplicated), closing its
// socket, and returns the removed entries. Removal happens in descending
// index order so that ids not yet processed remain stable during the
// operation, per the network loop's per-iteration removal step.
func (t *Table) RemoveMany(ids []int) []*Entry {
	uniq := dedupDesc(ids)
	removed := make([]*Entry, 0, len(uniq))
	for _, id := range uniq {
		if id < 0 || id >= len(t.entries) {
			continue
		}
		e := t.entries[id]
		_ = e.Socket.Close()
		removed = append(removed, e)
		t.entries = append(t.entries[:id], t.entries[id+1:]...)
	}
	return removed
}

func dedupDesc(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}
