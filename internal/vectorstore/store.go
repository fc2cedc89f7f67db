package vectorstore

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"docchat/internal/models"
)

// Store is an append-only collection of records with brute-force cosine k-NN search.
// The in-memory collection is written through to the persister after every Add.
type Store struct {
	mu        sync.RWMutex
	records   []models.Record
	dimension int
	nextID    int
	persister Persister
}

// Match is one query result.
type Match struct {
	ID       int
	Text     string
	Metadata models.Metadata
	Score    float64
}

// Open loads the snapshot through p. A load failure, a missing snapshot or a
// snapshot with mixed or empty vectors yields an empty store, never an error.
func Open(ctx context.Context, p Persister) *Store {
	s := &Store{persister: p}

	records, err := p.Load(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load vector store snapshot, starting empty")
		records = nil
	}
	if err := checkDimensions(records); err != nil {
		log.Warn().Err(err).Msg("Discarding vector store snapshot, starting empty")
		records = nil
	}

	for _, r := range records {
		s.track(r)
	}
	s.records = records

	log.Debug().Int("records", len(records)).Int("dimension", s.dimension).Msg("Opened vector store")
	return s
}

func checkDimensions(records []models.Record) error {
	for _, r := range records {
		if len(r.Embedding) == 0 {
			return fmt.Errorf("%w: record %d has an empty vector", models.ErrDimensionMismatch, r.ID)
		}
		if len(r.Embedding) != len(records[0].Embedding) {
			return fmt.Errorf("%w: record %d has %d dimensions, want %d",
				models.ErrDimensionMismatch, r.ID, len(r.Embedding), len(records[0].Embedding))
		}
	}
	return nil
}

func (s *Store) track(r models.Record) {
	if s.dimension == 0 && len(r.Embedding) > 0 {
		s.dimension = len(r.Embedding)
	}
	if r.ID >= s.nextID {
		s.nextID = r.ID + 1
	}
}

// Add appends records in order, then persists the whole collection.
// Vectors must be non-empty and share the store's dimensionality, otherwise
// nothing is appended and ErrDimensionMismatch is returned. A persistence
// failure is returned wrapped in ErrPersistenceFailure; the in-memory append
// is kept.
func (s *Store) Add(ctx context.Context, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dim := s.dimension
	for _, r := range records {
		if len(r.Embedding) == 0 {
			return fmt.Errorf("%w: record %d has an empty embedding", models.ErrDimensionMismatch, r.ID)
		}
		if dim == 0 {
			dim = len(r.Embedding)
		}
		if len(r.Embedding) != dim {
			return fmt.Errorf("%w: record %d has %d dimensions, expected %d",
				models.ErrDimensionMismatch, r.ID, len(r.Embedding), dim)
		}
	}

	for _, r := range records {
		s.track(r)
	}
	s.records = append(s.records, records...)

	if err := s.persister.Save(ctx, s.records); err != nil {
		log.Warn().Err(err).Int("records", len(s.records)).Msg("Snapshot write failed, records kept in memory only")
		return fmt.Errorf("%w: %w", models.ErrPersistenceFailure, err)
	}
	return nil
}

// Query returns up to k records ranked by descending cosine similarity to q.
// Records with equal similarity keep their insertion order.
func (s *Store) Query(ctx context.Context, q []float32, k int) ([]Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.records) == 0 || k <= 0 {
		return []Match{}, nil
	}
	if len(q) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, store has %d",
			models.ErrDimensionMismatch, len(q), s.dimension)
	}

	scores := make([]Match, len(s.records))
	for i, r := range s.records {
		if i%1024 == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		scores[i] = Match{
			ID:       r.ID,
			Text:     r.Text,
			Metadata: r.Metadata,
			Score:    CosineSimilarity(q, r.Embedding),
		}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})

	if k > len(scores) {
		k = len(scores)
	}
	return scores[:k], nil
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// NextID returns the id the next chunk should receive: the store size, or one
// past the highest stored id when earlier ingestions dropped chunks.
func (s *Store) NextID() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return max(len(s.records), s.nextID)
}

// Dimension returns the established vector length, 0 while empty.
func (s *Store) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dimension
}

// Records returns a copy of the collection in insertion order.
func (s *Store) Records() []models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.records)
}

func (s *Store) Close() error {
	return s.persister.Close()
}
