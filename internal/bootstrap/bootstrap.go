// Package bootstrap seeds a freshly empty document store with a fixed
// corpus exactly once per process.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"ragchat/internal/domain"
)

// State is the process-wide retrieval capability, decided exactly once
// at startup and never re-evaluated per request.
type State int

const (
	StateUninitialized State = iota
	StateAvailable
	StateUnavailable
)

func (s State) String() string {
	switch s {
	case StateAvailable:
		return "available"
	case StateUnavailable:
		return "unavailable"
	default:
		return "uninitialized"
	}
}

// SeedDocument is one entry of the bootstrap corpus.
type SeedDocument struct {
	Text     string
	Metadata domain.Metadata
}

// DefaultCorpus is the built-in seed corpus, used when the config does
// not supply its own seed documents.
var DefaultCorpus = []SeedDocument{
	{Text: "ragchat is a terminal chat assistant that augments its answers with documents retrieved from a local knowledge base.", Metadata: domain.Metadata{"source": "seed"}},
	{Text: "Use /remember <text> to store a fact in the knowledge base. Stored facts are retrieved by similarity on later questions.", Metadata: domain.Metadata{"source": "seed"}},
	{Text: "Use /forget to clear the entire knowledge base. There is no per-document delete.", Metadata: domain.Metadata{"source": "seed"}},
	{Text: "The knowledge base persists across restarts in a single JSON snapshot file.", Metadata: domain.Metadata{"source": "seed"}},
}

// Seeder populates an empty store with a seed corpus.
type Seeder struct {
	store  domain.DocumentStore
	corpus []SeedDocument
	log    *log.Logger
}

// NewSeeder creates a seeder for the given store and corpus.
func NewSeeder(store domain.DocumentStore, corpus []SeedDocument, logger *log.Logger) *Seeder {
	return &Seeder{
		store:  store,
		corpus: corpus,
		log:    logger.With("component", "bootstrap"),
	}
}

// Run seeds the store if and only if it is empty and returns the
// resulting retrieval state. A seeding failure (typically an
// unreachable embedding provider) returns StateUnavailable together
// with an error wrapping domain.ErrInitUnavailable; callers continue
// with retrieval disabled rather than crash.
//
// The check-then-act is not guarded against concurrent first-use; the
// process runs this once at startup.
func (s *Seeder) Run(ctx context.Context) (State, error) {
	if s.store.Count() > 0 {
		s.log.Debug("store already populated, seeding skipped", "documents", s.store.Count())
		return StateAvailable, nil
	}
	if len(s.corpus) == 0 {
		return StateAvailable, nil
	}
	texts := make([]string, len(s.corpus))
	metadatas := make([]domain.Metadata, len(s.corpus))
	for i, d := range s.corpus {
		texts[i] = d.Text
		metadatas[i] = d.Metadata
	}
	if err := s.store.AddDocuments(ctx, texts, metadatas); err != nil {
		return StateUnavailable, fmt.Errorf("%w: %v", domain.ErrInitUnavailable, err)
	}
	s.log.Info("seeded knowledge base", "documents", len(s.corpus))
	return StateAvailable, nil
}
