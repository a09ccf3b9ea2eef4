package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"chat-client/internal/domain"
)

func mustNewStore(t *testing.T, h HistoryStore, r Renderer) *Store {
	t.Helper()
	s, err := NewStore(h, r, nil)
	require.NoError(t, err)
	return s
}

func TestNewStore_NilHistory(t *testing.T) {
	_, err := NewStore(nil, nil, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "history store must not be nil")
}

func TestStore_AppendPersistsFullHistory(t *testing.T) {
	h := &memHistory{}
	r := &recordingRenderer{}
	s := mustNewStore(t, h, r)

	first := domain.NewMessage(domain.RoleUser, "one", t0)
	second := domain.NewMessage(domain.RoleAssistant, "two", t0)
	s.Append(context.Background(), first)
	s.Append(context.Background(), second)

	require.Equal(t, 2, s.Len())
	require.Equal(t, []domain.Message{first, second}, h.persisted())
	require.Equal(t, 2, h.saves)
	require.Equal(t, []domain.Message{first, second}, r.appended)
}

func TestStore_AppendSurvivesPersistenceFailure(t *testing.T) {
	h := &memHistory{saveErr: errors.New("disk full")}
	s := mustNewStore(t, h, nil)

	s.Append(context.Background(), domain.NewMessage(domain.RoleUser, "kept", t0))

	require.Equal(t, 1, s.Len())
	require.Equal(t, "kept", s.Snapshot()[0].Content)
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	s := mustNewStore(t, &memHistory{}, nil)
	s.Append(context.Background(), domain.NewMessage(domain.RoleUser, "original", t0))

	snap := s.Snapshot()
	snap[0].Content = "mutated"
	_ = append(snap, domain.Message{})

	require.Equal(t, "original", s.Snapshot()[0].Content)
	require.Equal(t, 1, s.Len())
}

func TestStore_ReplaceAllDoesNotWriteBack(t *testing.T) {
	h := &memHistory{}
	r := &recordingRenderer{}
	s := mustNewStore(t, h, r)

	loaded := []domain.Message{
		domain.NewMessage(domain.RoleUser, "a", t0),
		domain.NewMessage(domain.RoleAssistant, "b", t0),
	}
	s.ReplaceAll(loaded)
	loaded[0].Content = "changed after hydration"

	require.Equal(t, 0, h.saves)
	require.Equal(t, "a", s.Snapshot()[0].Content)
	require.Len(t, r.replaced, 1)
	require.Len(t, r.replaced[0], 2)
}

func TestStore_ClearIsIdempotent(t *testing.T) {
	h := &memHistory{}
	r := &recordingRenderer{}
	s := mustNewStore(t, h, r)
	s.Append(context.Background(), domain.NewMessage(domain.RoleUser, "x", t0))

	s.Clear(context.Background())
	require.Equal(t, 0, s.Len())
	require.Empty(t, h.persisted())

	s.Clear(context.Background())
	require.Equal(t, 0, s.Len())
	require.Empty(t, s.Snapshot())
	require.Equal(t, 2, h.clears)
	require.Equal(t, 2, r.cleared)
}

func TestStore_ClearSurvivesPersistenceFailure(t *testing.T) {
	h := &memHistory{clearErr: errors.New("locked")}
	s := mustNewStore(t, h, nil)
	s.Append(context.Background(), domain.NewMessage(domain.RoleUser, "x", t0))

	s.Clear(context.Background())

	require.Equal(t, 0, s.Len())
}
