package domain

// DocumentHits groups the hits of one document.
type DocumentHits struct {
	Path string
	Hits []Hit
}

// ResultSet is an ordered mapping from document path to its hits.
// Only documents with at least one hit are present. A ResultSet is
// built once by NewResultSet and is read-only afterwards.
type ResultSet struct {
	entries []DocumentHits
	index   map[string]int
}

// NewResultSet builds a ResultSet from entries, preserving their order.
// Entries without hits are dropped. A repeated path keeps its first position
// and accumulates the hits of later entries.
func NewResultSet(entries []DocumentHits) *ResultSet {
	rs := &ResultSet{index: make(map[string]int, len(entries))}
	for _, e := range entries {
		if len(e.Hits) == 0 {
			continue
		}
		if i, ok := rs.index[e.Path]; ok {
			rs.entries[i].Hits = append(rs.entries[i].Hits, e.Hits...)
			continue
		}
		hits := make([]Hit, len(e.Hits))
		copy(hits, e.Hits)
		rs.index[e.Path] = len(rs.entries)
		rs.entries = append(rs.entries, DocumentHits{Path: e.Path, Hits: hits})
	}
	return rs
}

// Len returns the number of documents with hits.
func (rs *ResultSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.entries)
}

// IsEmpty reports whether no document has hits.
func (rs *ResultSet) IsEmpty() bool {
	return rs.Len() == 0
}

// TotalHits returns the number of hits across all documents.
func (rs *ResultSet) TotalHits() int {
	if rs == nil {
		return 0
	}
	total := 0
	for _, e := range rs.entries {
		total += len(e.Hits)
	}
	return total
}

// Documents returns the document paths in stored order.
func (rs *ResultSet) Documents() []string {
	if rs == nil {
		return nil
	}
	paths := make([]string, len(rs.entries))
	for i, e := range rs.entries {
		paths[i] = e.Path
	}
	return paths
}

// Hits returns a copy of the hits recorded for path, or nil.
func (rs *ResultSet) Hits(path string) []Hit {
	if rs == nil {
		return nil
	}
	i, ok := rs.index[path]
	if !ok {
		return nil
	}
	hits := make([]Hit, len(rs.entries[i].Hits))
	copy(hits, rs.entries[i].Hits)
	return hits
}

// Each calls fn for every document in stored order. The hits slice must
// not be modified.
func (rs *ResultSet) Each(fn func(path string, hits []Hit)) {
	if rs == nil {
		return
	}
	for _, e := range rs.entries {
		fn(e.Path, e.Hits)
	}
}
