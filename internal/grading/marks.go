package grading

import "maps"

// Marks maps a subject id to the raw score entries typed for each of its
// input labels. Only touched subjects and labels are present; a missing
// entry reads as empty.
type Marks map[string]map[string]string

// Get returns the raw entry for (subjectID, label), or "" if none was typed.
func (m Marks) Get(subjectID, label string) string {
	return m[subjectID][label]
}

// Set stores raw for (subjectID, label) if ValidScore accepts it. A rejected
// value leaves the previous entry untouched. m must not be nil.
func (m Marks) Set(subjectID, label, raw string) bool {
	if !ValidScore(raw) {
		return false
	}
	entries, ok := m[subjectID]
	if !ok {
		entries = make(map[string]string)
		m[subjectID] = entries
	}
	entries[label] = raw
	return true
}

// Clone returns a deep copy of m.
func (m Marks) Clone() Marks {
	out := make(Marks, len(m))
	for id, entries := range m {
		out[id] = maps.Clone(entries)
	}
	return out
}
