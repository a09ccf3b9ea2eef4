package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"chat-client/internal/domain"
)

// Store is the in-memory, append-only message log. It is the only owner of
// the sequence; every Append is mirrored to the HistoryStore.
type Store struct {
	history HistoryStore
	render  Renderer
	log     *slog.Logger

	mu       sync.RWMutex
	messages []domain.Message
}

func NewStore(history HistoryStore, render Renderer, log *slog.Logger) (*Store, error) {
	if history == nil {
		return nil, errors.New("usecase: history store must not be nil")
	}
	if render == nil {
		render = nopRenderer{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Store{history: history, render: render, log: log}, nil
}

// Append adds msg to the end of the log. It never fails: a persistence
// error is logged and the in-memory state stays authoritative.
func (s *Store) Append(ctx context.Context, msg domain.Message) {
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	snapshot := s.copyLocked()
	if err := s.history.SaveHistory(ctx, snapshot); err != nil {
		s.log.Warn("history not persisted", "err", newError(ErrorPersistence, "save_history", err))
	}
	s.mu.Unlock()

	s.render.MessageAppended(msg)
}

// ReplaceAll swaps in a hydrated sequence without writing it back.
func (s *Store) ReplaceAll(msgs []domain.Message) {
	s.mu.Lock()
	s.messages = append([]domain.Message(nil), msgs...)
	snapshot := s.copyLocked()
	s.mu.Unlock()

	s.render.HistoryReplaced(snapshot)
}

// Clear drops the whole history, in memory and in durable storage.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	s.messages = nil
	if err := s.history.ClearHistory(ctx); err != nil {
		s.log.Warn("history not cleared in storage", "err", newError(ErrorPersistence, "clear_history", err))
	}
	s.mu.Unlock()

	s.render.HistoryCleared()
}

// Snapshot returns a copy of the sequence; changing it does not affect the store.
func (s *Store) Snapshot() []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

func (s *Store) copyLocked() []domain.Message {
	out := make([]domain.Message, len(s.messages))
	copy(out, s.messages)
	return out
}
