// Package service implements the assistant conversation loop around the
// chat model and the document store.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"ragchat/internal/bootstrap"
	"ragchat/internal/domain"
)

const basePrompt = "You are ragchat, a concise terminal assistant. " +
	"Answer the user's question directly. When context documents are " +
	"provided, prefer them over your own knowledge and do not mention " +
	"that you were given context."

// ChatService folds retrieved documents into the prompt and asks the
// chat model for a reply. Retrieval is best-effort: any failure on the
// retrieval path degrades to an unaugmented prompt and is invisible to
// the end user.
type ChatService struct {
	model   domain.ChatModel
	store   domain.DocumentStore
	state   bootstrap.State
	topK    int
	log     *log.Logger
	history []domain.Message
}

// New creates the chat service. store may be nil when state is
// StateUnavailable.
func New(model domain.ChatModel, store domain.DocumentStore, state bootstrap.State, logger *log.Logger) *ChatService {
	return &ChatService{
		model: model,
		store: store,
		state: state,
		topK:  domain.DefaultTopK,
		log:   logger.With("component", "chat"),
	}
}

// RetrievalState reports the one-time retrieval capability decision.
func (s *ChatService) RetrievalState() bootstrap.State { return s.state }

// Respond handles one user turn: retrieve context, build the prompt,
// call the model, and record the exchange in the conversation history.
func (s *ChatService) Respond(ctx context.Context, userText string) (string, error) {
	retrieved := s.retrieve(ctx, userText)

	messages := make([]domain.Message, 0, len(s.history)+2)
	messages = append(messages, domain.Message{Role: domain.RoleSystem, Content: systemPrompt(retrieved)})
	messages = append(messages, s.history...)
	messages = append(messages, domain.Message{Role: domain.RoleUser, Content: userText})

	reply, err := s.model.Complete(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	s.history = append(s.history,
		domain.Message{Role: domain.RoleUser, Content: userText},
		domain.Message{Role: domain.RoleAssistant, Content: reply},
	)
	return reply, nil
}

// Remember stores a user-supplied fact in the knowledge base. Unlike
// retrieval, write failures are surfaced: whoever maintains the
// knowledge base needs to know the fact was not stored.
func (s *ChatService) Remember(ctx context.Context, text string) error {
	if s.store == nil {
		return domain.ErrInitUnavailable
	}
	return s.store.AddDocument(ctx, text, domain.Metadata{"source": "user"})
}

// Forget clears the entire knowledge base.
func (s *ChatService) Forget(ctx context.Context) error {
	if s.store == nil {
		return domain.ErrInitUnavailable
	}
	return s.store.Clear(ctx)
}

func (s *ChatService) retrieve(ctx context.Context, query string) []domain.SearchResult {
	if s.state != bootstrap.StateAvailable {
		return nil
	}
	results, err := s.store.SimilaritySearch(ctx, query, s.topK)
	if err != nil {
		s.log.Warn("retrieval failed, answering without context", "err", err)
		return nil
	}
	return results
}

func systemPrompt(retrieved []domain.SearchResult) string {
	if len(retrieved) == 0 {
		return basePrompt
	}
	var b strings.Builder
	b.WriteString(basePrompt)
	b.WriteString("\n\nContext documents:\n")
	for i, r := range retrieved {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r.Document.Text)
	}
	return b.String()
}
