// Package qdrant implements the document store against a remote Qdrant
// collection over its REST API. Durability lives server-side; the
// snapshot-file contract of the file backend does not apply here.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"ragchat/internal/domain"
)

// Store is a minimal REST client to Qdrant. It assumes cosine distance
// and creates the collection lazily on the first add, sized to the
// first batch's embedding dimension.
type Store struct {
	url        string
	apiKey     string
	collection string
	dimension  int
	embedder   domain.Embedder
	client     *http.Client
	log        *log.Logger
}

// Config contains connection details for a Qdrant store.
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// NewStore creates a Qdrant-backed document store.
func NewStore(cfg Config, embedder domain.Embedder, logger *log.Logger) *Store {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Store{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		embedder:   embedder,
		client:     &http.Client{Timeout: timeout},
		log:        logger.With("component", "docstore", "backend", "qdrant"),
	}
}

// AddDocument appends a single document via the batch code path.
func (s *Store) AddDocument(ctx context.Context, text string, metadata domain.Metadata) error {
	return s.AddDocuments(ctx, []string{text}, []domain.Metadata{metadata})
}

// AddDocuments embeds all texts in one provider call and upserts the
// resulting points in one request.
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
	if err := s.ensureCollection(ctx, len(vectors[0])); err != nil {
		return err
	}
	for i, v := range vectors {
		if len(v) != s.dimension {
			return fmt.Errorf("%w: vector %d has dimension %d, collection has %d",
				domain.ErrDimensionMismatch, i, len(v), s.dimension)
		}
	}

	points := make([]map[string]any, len(texts))
	for i := range texts {
		payload := map[string]any{"text": texts[i]}
		if metadatas != nil && metadatas[i] != nil {
			payload["metadata"] = metadatas[i]
		}
		points[i] = map[string]any{
			"id":      uuid.NewString(),
			"vector":  vectors[i],
			"payload": payload,
		}
	}
	body := map[string]any{"points": points}
	return s.putJSON(ctx, fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, s.collection), body)
}

// SimilaritySearch queries Qdrant for the topK nearest points. Like the
// file backend, an embedding failure degrades to an empty result.
func (s *Store) SimilaritySearch(ctx context.Context, query string, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 || s.Count() == 0 {
		return nil, nil
	}
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		s.log.Warn("query embedding failed, retrieval degraded", "err", err)
		return nil, nil
	}
	req := map[string]any{
		"vector":       vec,
		"limit":        topK,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			ID      any            `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/search", s.url, s.collection), req, &resp); err != nil {
		return nil, err
	}
	results := make([]domain.SearchResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		doc := domain.Document{ID: fmt.Sprint(r.ID)}
		if v, ok := r.Payload["text"].(string); ok {
			doc.Text = v
		}
		if v, ok := r.Payload["metadata"].(map[string]any); ok {
			doc.Metadata = domain.Metadata(v)
		}
		results = append(results, domain.SearchResult{Document: doc, Score: r.Score})
	}
	return results, nil
}

// Clear drops the collection. The next add recreates it.
func (s *Store) Clear(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		fmt.Sprintf("%s/collections/%s", s.url, s.collection), nil)
	if err != nil {
		return err
	}
	s.setHeaders(req)
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant DELETE collection: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("qdrant DELETE collection failed: %s", resp.Status)
	}
	s.dimension = 0
	return nil
}

// Count returns the exact number of points in the collection, or 0 when
// the collection does not exist or the count request fails.
func (s *Store) Count() int {
	ctx, cancel := context.WithTimeout(context.Background(), s.client.Timeout)
	defer cancel()
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	err := s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/count", s.url, s.collection),
		map[string]any{"exact": true}, &resp)
	if err != nil {
		s.log.Debug("count failed, assuming empty collection", "err", err)
		return 0
	}
	return resp.Result.Count
}

func (s *Store) ensureCollection(ctx context.Context, dimension int) error {
	if s.dimension != 0 {
		return nil
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	// Qdrant returns 200 OK when the collection already exists with the
	// same schema; anything else propagates.
	if err := s.putJSON(ctx, fmt.Sprintf("%s/collections/%s", s.url, s.collection), body); err != nil {
		return err
	}
	s.dimension = dimension
	return nil
}

func (s *Store) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
}

func (s *Store) putJSON(ctx context.Context, url string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	s.setHeaders(req)
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant PUT %s failed: %s", url, resp.Status)
	}
	return nil
}

func (s *Store) postJSON(ctx context.Context, url string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	s.setHeaders(req)
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant POST %s failed: %s", url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
