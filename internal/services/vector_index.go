package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// Neighbor is one nearest-neighbor hit: lower distance means more similar.
type Neighbor struct {
	ID       string
	Distance float32
	Metadata map[string]string
}

// VectorIndex stores (id, vector, metadata) tuples and answers
// nearest-neighbor queries by Euclidean (L2) distance. Upsert is an
// idempotent overwrite; Query returns neighbors in ascending distance with
// ties broken by insertion order. The filter restricts both operations'
// scope by exact metadata match, which is how batches stay isolated inside
// a shared namespace.
type VectorIndex interface {
	Upsert(ctx context.Context, id string, vector []float32, metadata map[string]string) error
	Query(ctx context.Context, vector []float32, limit int, filter map[string]string) ([]Neighbor, error)
}

type memoryEntry struct {
	id       string
	vector   []float32
	metadata map[string]string
}

// MemoryIndex is a flat in-process index with linear-scan queries. At batch
// scale (a few hundred vectors) exact scan is fast enough and fully
// deterministic; it also backs the test suite.
type MemoryIndex struct {
	mu      sync.RWMutex
	entries []memoryEntry
	byID    map[string]int
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{byID: make(map[string]int)}
}

// Upsert implements VectorIndex. Overwriting an existing id keeps its
// original insertion position, so the tie-break stays stable across
// re-uploads.
func (m *MemoryIndex) Upsert(ctx context.Context, id string, vector []float32, metadata map[string]string) error {
	if err := ctx.Err(); err != nil {
		return &IndexError{Op: "upsert", Err: err}
	}
	if id == "" {
		return &IndexError{Op: "upsert", Err: fmt.Errorf("empty id")}
	}
	if len(vector) == 0 {
		return &IndexError{Op: "upsert", Err: fmt.Errorf("empty vector")}
	}

	stored := make([]float32, len(vector))
	copy(stored, vector)

	m.mu.Lock()
	defer m.mu.Unlock()

	if pos, ok := m.byID[id]; ok {
		m.entries[pos].vector = stored
		m.entries[pos].metadata = metadata
		return nil
	}

	m.byID[id] = len(m.entries)
	m.entries = append(m.entries, memoryEntry{id: id, vector: stored, metadata: metadata})
	return nil
}

// Query implements VectorIndex.
func (m *MemoryIndex) Query(ctx context.Context, vector []float32, limit int, filter map[string]string) ([]Neighbor, error) {
	if err := ctx.Err(); err != nil {
		return nil, &IndexError{Op: "query", Err: err}
	}
	if limit <= 0 {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var neighbors []Neighbor
	for _, entry := range m.entries {
		if !matchesFilter(entry.metadata, filter) {
			continue
		}

		if len(entry.vector) != len(vector) {
			return nil, &IndexError{
				Op:  "query",
				Err: fmt.Errorf("dimension mismatch: stored %d, query %d", len(entry.vector), len(vector)),
			}
		}

		neighbors = append(neighbors, Neighbor{
			ID:       entry.id,
			Distance: euclideanDistance(entry.vector, vector),
			Metadata: entry.metadata,
		})
	}

	// Stable sort keeps insertion order for equal distances
	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].Distance < neighbors[j].Distance
	})

	if len(neighbors) > limit {
		neighbors = neighbors[:limit]
	}

	return neighbors, nil
}

// Len reports how many vectors match the filter.
func (m *MemoryIndex) Len(filter map[string]string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, entry := range m.entries {
		if matchesFilter(entry.metadata, filter) {
			count++
		}
	}
	return count
}

func matchesFilter(metadata, filter map[string]string) bool {
	for key, want := range filter {
		if metadata[key] != want {
			return false
		}
	}
	return true
}

func euclideanDistance(a, b []float32) float32 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return float32(math.Sqrt(sum))
}
