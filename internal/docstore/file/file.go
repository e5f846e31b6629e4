// Package file implements the document store as an in-memory collection
// persisted to a single JSON snapshot on disk.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"ragchat/internal/domain"
)

// Store keeps every document in memory and rewrites the whole snapshot
// file after each successful mutation. Search is a brute-force cosine
// scan, O(n*d) per query — a deliberate simplicity trade-off for the
// tens-to-low-thousands of documents this store is meant to hold.
type Store struct {
	mu        sync.RWMutex
	path      string
	embedder  domain.Embedder
	log       *log.Logger
	docs      []domain.Document
	dimension int
}

// NewStore opens the store backed by the snapshot file at path, loading
// any previously persisted documents. A missing file yields an empty
// store; an unreadable or malformed file is an error, never an empty
// store masking data loss.
func NewStore(path string, embedder domain.Embedder, logger *log.Logger) (*Store, error) {
	s := &Store{
		path:     path,
		embedder: embedder,
		log:      logger.With("component", "docstore"),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read snapshot %s: %w", s.path, err)
	}
	var docs []domain.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return fmt.Errorf("%w: decode %s: %v", domain.ErrCorruptSnapshot, s.path, err)
	}
	for _, d := range docs {
		if s.dimension == 0 {
			s.dimension = len(d.Embedding)
		}
		if len(d.Embedding) != s.dimension {
			return fmt.Errorf("%w: document %s has dimension %d, store has %d",
				domain.ErrCorruptSnapshot, d.ID, len(d.Embedding), s.dimension)
		}
	}
	s.docs = docs
	return nil
}

// AddDocument appends a single document. It shares the batch code path
// so there is one embedding entry point.
func (s *Store) AddDocument(ctx context.Context, text string, metadata domain.Metadata) error {
	return s.AddDocuments(ctx, []string{text}, []domain.Metadata{metadata})
}

// AddDocuments embeds all texts in one provider call, appends the
// resulting documents in input order, and persists the snapshot once
// for the whole batch. Validation happens before any provider or disk
// I/O; a provider failure leaves both memory and disk untouched.
func (s *Store) AddDocuments(ctx context.Context, texts []string, metadatas []domain.Metadata) error {
	if len(texts) == 0 {
		return domain.ErrEmptyBatch
	}
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return fmt.Errorf("%w (index %d)", domain.ErrEmptyText, i)
		}
	}
	if metadatas != nil && len(metadatas) != len(texts) {
		return fmt.Errorf("%w: %d texts, %d metadatas", domain.ErrMetadataLength, len(texts), len(metadatas))
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrEmbeddingFailed, err)
	}
	if len(vectors) != len(texts) {
		return fmt.Errorf("%w: got %d vectors for %d texts", domain.ErrEmbeddingFailed, len(vectors), len(texts))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dim := s.dimension
	if dim == 0 {
		dim = len(vectors[0])
	}
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("%w: vector %d has dimension %d, store has %d",
				domain.ErrDimensionMismatch, i, len(v), dim)
		}
	}

	for i := range texts {
		var md domain.Metadata
		if metadatas != nil {
			md = metadatas[i]
		}
		s.docs = append(s.docs, domain.Document{
			ID:        uuid.NewString(),
			Text:      texts[i],
			Embedding: vectors[i],
			Metadata:  md,
		})
	}
	s.dimension = dim
	return s.persistLocked()
}

// SimilaritySearch ranks all stored documents by cosine similarity to
// the query and returns the top k. Retrieval is best-effort: embedding
// failures degrade to an empty result rather than an error, so a
// missing context never aborts the caller's primary request.
func (s *Store) SimilaritySearch(ctx context.Context, query string, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 || s.Count() == 0 {
		return nil, nil
	}
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		s.log.Warn("query embedding failed, retrieval degraded", "err", err)
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.docs) == 0 {
		return nil, nil
	}
	if len(vec) != s.dimension {
		s.log.Warn("query embedding dimension differs from store, retrieval degraded",
			"query_dim", len(vec), "store_dim", s.dimension)
		return nil, nil
	}

	results := make([]domain.SearchResult, 0, len(s.docs))
	for _, d := range s.docs {
		// Zero-magnitude embeddings have undefined similarity; excluded
		// from ranking. A zero-magnitude query excludes everything.
		score, ok := cosineSimilarity(vec, d.Embedding)
		if !ok {
			continue
		}
		results = append(results, domain.SearchResult{Document: d, Score: score})
	}
	// Stable: equal scores keep insertion order.
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if topK > len(results) {
		topK = len(results)
	}
	return results[:topK], nil
}

// Clear empties the collection and persists the empty snapshot, so a
// restart sees zero documents.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = nil
	s.dimension = 0
	return s.persistLocked()
}

// Count returns the number of stored documents.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Documents returns a copy of the stored collection in insertion order.
func (s *Store) Documents() []domain.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Document, len(s.docs))
	copy(out, s.docs)
	return out
}

// persistLocked rewrites the whole snapshot. Writes go through a temp
// file and a rename so the snapshot on disk is never half-written.
// Callers must hold mu.
func (s *Store) persistLocked() error {
	docs := s.docs
	if docs == nil {
		docs = []domain.Document{}
	}
	data, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace snapshot %s: %w", s.path, err)
	}
	return nil
}
