package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/internal/bootstrap"
	"ragchat/internal/domain"
)

type fakeModel struct {
	lastMessages []domain.Message
	reply        string
	err          error
}

func (m *fakeModel) Complete(ctx context.Context, messages []domain.Message) (string, error) {
	m.lastMessages = messages
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

type fakeStore struct {
	results     []domain.SearchResult
	searchErr   error
	searchCalls int
	added       []string
	cleared     bool
}

func (f *fakeStore) AddDocument(ctx context.Context, text string, metadata domain.Metadata) error {
	f.added = append(f.added, text)
	return nil
}

func (f *fakeStore) AddDocuments(ctx context.Context, texts []string, metadatas []domain.Metadata) error {
	f.added = append(f.added, texts...)
	return nil
}

func (f *fakeStore) SimilaritySearch(ctx context.Context, query string, topK int) ([]domain.SearchResult, error) {
	f.searchCalls++
	return f.results, f.searchErr
}

func (f *fakeStore) Clear(ctx context.Context) error {
	f.cleared = true
	return nil
}

func (f *fakeStore) Count() int { return len(f.results) }

func doc(text string) domain.SearchResult {
	return domain.SearchResult{Document: domain.Document{ID: text, Text: text}, Score: 0.9}
}

func TestRespondFoldsContextIntoPrompt(t *testing.T) {
	model := &fakeModel{reply: "cats purr"}
	store := &fakeStore{results: []domain.SearchResult{doc("cats are mammals"), doc("dogs are mammals")}}
	svc := New(model, store, bootstrap.StateAvailable, log.New(io.Discard))

	reply, err := svc.Respond(context.Background(), "tell me about pets")
	require.NoError(t, err)
	assert.Equal(t, "cats purr", reply)

	require.NotEmpty(t, model.lastMessages)
	system := model.lastMessages[0]
	assert.Equal(t, domain.RoleSystem, system.Role)
	assert.Contains(t, system.Content, "cats are mammals")
	assert.Contains(t, system.Content, "dogs are mammals")
	last := model.lastMessages[len(model.lastMessages)-1]
	assert.Equal(t, domain.RoleUser, last.Role)
	assert.Equal(t, "tell me about pets", last.Content)
}

func TestRespondWithoutRetrievalWhenUnavailable(t *testing.T) {
	model := &fakeModel{reply: "ok"}
	svc := New(model, nil, bootstrap.StateUnavailable, log.New(io.Discard))

	reply, err := svc.Respond(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "ok", reply)
	assert.NotContains(t, model.lastMessages[0].Content, "Context documents")
}

func TestRespondDegradesOnSearchError(t *testing.T) {
	model := &fakeModel{reply: "still fine"}
	store := &fakeStore{searchErr: errors.New("backend down")}
	svc := New(model, store, bootstrap.StateAvailable, log.New(io.Discard))

	reply, err := svc.Respond(context.Background(), "hello")
	require.NoError(t, err, "retrieval failures are invisible to the user")
	assert.Equal(t, "still fine", reply)
	assert.Equal(t, 1, store.searchCalls)
}

func TestRespondKeepsHistory(t *testing.T) {
	model := &fakeModel{reply: "answer"}
	store := &fakeStore{}
	svc := New(model, store, bootstrap.StateAvailable, log.New(io.Discard))
	ctx := context.Background()

	_, err := svc.Respond(ctx, "first question")
	require.NoError(t, err)
	_, err = svc.Respond(ctx, "second question")
	require.NoError(t, err)

	var contents []string
	for _, m := range model.lastMessages {
		contents = append(contents, m.Role+": "+m.Content)
	}
	joined := strings.Join(contents, "\n")
	assert.Contains(t, joined, "first question")
	assert.Contains(t, joined, "answer")
	assert.Contains(t, joined, "second question")
}

func TestRespondSurfacesModelError(t *testing.T) {
	model := &fakeModel{err: errors.New("model offline")}
	svc := New(model, &fakeStore{}, bootstrap.StateAvailable, log.New(io.Discard))

	_, err := svc.Respond(context.Background(), "hello")
	require.Error(t, err)
}

func TestRememberAndForget(t *testing.T) {
	store := &fakeStore{}
	svc := New(&fakeModel{}, store, bootstrap.StateAvailable, log.New(io.Discard))
	ctx := context.Background()

	require.NoError(t, svc.Remember(ctx, "a new fact"))
	assert.Equal(t, []string{"a new fact"}, store.added)

	require.NoError(t, svc.Forget(ctx))
	assert.True(t, store.cleared)
}

func TestRememberWithoutStore(t *testing.T) {
	svc := New(&fakeModel{}, nil, bootstrap.StateUnavailable, log.New(io.Discard))
	err := svc.Remember(context.Background(), "fact")
	require.ErrorIs(t, err, domain.ErrInitUnavailable)
	require.ErrorIs(t, svc.Forget(context.Background()), domain.ErrInitUnavailable)
}
