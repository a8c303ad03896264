// Package checkcount implements the geo-restricted Iran variant's
// CheckCount supplement: a per-URI counter incremented once per
// incumbent-revalidation cycle, used to select the "top 100 most
// consistently reachable" slice.
package checkcount

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/sakha1370/openray/internal/domain/proxy"
)

// Store owns the on-disk per-URI counter table.
type Store struct {
	path string
}

// New returns a Store backed by the JSON file at path.
func New(path string) *Store {
	return &Store{path: path}
}

// Load reads the table, returning an empty map if the file is absent.
func (s *Store) Load() (map[string]int, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]int{}, nil
		}
		return nil, err
	}
	var table map[string]int
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, err
	}
	if table == nil {
		table = map[string]int{}
	}
	return table, nil
}

func (s *Store) save(table map[string]int) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Cleanup drops keys no longer present in the incumbent ledger, saving
// only if something changed.
func (s *Store) Cleanup(active []proxy.URI) error {
	table, err := s.Load()
	if err != nil {
		return err
	}
	activeSet := make(map[string]struct{}, len(active))
	for _, u := range active {
		activeSet[string(u)] = struct{}{}
	}
	cleaned := make(map[string]int, len(table))
	for k, v := range table {
		if _, ok := activeSet[k]; ok {
			cleaned[k] = v
		}
	}
	if len(cleaned) == len(table) {
		return nil
	}
	return s.save(cleaned)
}

// Increment adds one to every URI in survivors that is also present in
// active (or to all of survivors when active is nil), then persists.
func (s *Store) Increment(survivors []proxy.URI, active []proxy.URI) error {
	if len(survivors) == 0 {
		return nil
	}
	table, err := s.Load()
	if err != nil {
		return err
	}

	var activeSet map[string]struct{}
	if active != nil {
		activeSet = make(map[string]struct{}, len(active))
		for _, u := range active {
			activeSet[string(u)] = struct{}{}
		}
	}

	for _, u := range survivors {
		key := string(u)
		if key == "" {
			continue
		}
		if activeSet != nil {
			if _, ok := activeSet[key]; !ok {
				continue
			}
		}
		table[key]++
	}
	return s.save(table)
}

// Top100 scores active by its check count (default 0), breaking ties by
// original order, and returns at most the first 100.
func Top100(active []proxy.URI, counts map[string]int) []proxy.URI {
	type scored struct {
		count int
		idx   int
		uri   proxy.URI
	}
	ranked := make([]scored, len(active))
	for i, u := range active {
		ranked[i] = scored{count: counts[string(u)], idx: i, uri: u}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].idx < ranked[j].idx
	})

	n := 100
	if len(ranked) < n {
		n = len(ranked)
	}
	out := make([]proxy.URI, n)
	for i := 0; i < n; i++ {
		out[i] = ranked[i].uri
	}
	return out
}
