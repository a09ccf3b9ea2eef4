package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"chat-client/internal/domain"
)

// Fixed storage keys.
const (
	KeyHistory    = "chatHistory"
	KeyTheme      = "theme"
	KeyCredential = "apiKey"
)

// Adapter mirrors conversation state into a KV. It never originates
// messages; it only stores what it is given and hands back the last
// snapshot at startup.
type Adapter struct {
	kv  KV
	log *slog.Logger
}

// NewAdapter wraps kv. A nil logger falls back to slog.Default().
func NewAdapter(kv KV, log *slog.Logger) (*Adapter, error) {
	if kv == nil {
		return nil, errors.New("repository: kv must not be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{kv: kv, log: log}, nil
}

// SaveHistory overwrites the stored message sequence.
func (a *Adapter) SaveHistory(ctx context.Context, msgs []domain.Message) error {
	if msgs == nil {
		msgs = []domain.Message{}
	}
	raw, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("repository: SaveHistory marshal: %w", err)
	}
	if err := a.kv.Put(ctx, KeyHistory, raw); err != nil {
		return fmt.Errorf("repository: SaveHistory: %w", err)
	}
	return nil
}

// LoadHistory returns the stored sequence. Absent or unparseable data yields
// an empty sequence and no error; entries with an unknown role are dropped.
func (a *Adapter) LoadHistory(ctx context.Context) ([]domain.Message, error) {
	raw, err := a.kv.Get(ctx, KeyHistory)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return []domain.Message{}, nil
		}
		return []domain.Message{}, fmt.Errorf("repository: LoadHistory: %w", err)
	}

	var stored []domain.Message
	if err := json.Unmarshal(raw, &stored); err != nil {
		a.log.Warn("discarding malformed persisted history", "code", "MALFORMED_PERSISTED_DATA", "key", KeyHistory, "err", err)
		return []domain.Message{}, nil
	}

	msgs := make([]domain.Message, 0, len(stored))
	for _, m := range stored {
		if !m.Role.Valid() {
			a.log.Warn("skipping persisted message with unknown role", "role", string(m.Role))
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// ClearHistory removes the stored sequence.
func (a *Adapter) ClearHistory(ctx context.Context) error {
	if err := a.kv.Delete(ctx, KeyHistory); err != nil {
		return fmt.Errorf("repository: ClearHistory: %w", err)
	}
	return nil
}

func (a *Adapter) SaveTheme(ctx context.Context, theme domain.Theme) error {
	if !theme.Valid() {
		return fmt.Errorf("repository: SaveTheme: unknown theme %q", theme)
	}
	if err := a.kv.Put(ctx, KeyTheme, []byte(theme)); err != nil {
		return fmt.Errorf("repository: SaveTheme: %w", err)
	}
	return nil
}

// LoadTheme returns the stored theme, or domain.DefaultTheme when absent or invalid.
func (a *Adapter) LoadTheme(ctx context.Context) (domain.Theme, error) {
	raw, err := a.kv.Get(ctx, KeyTheme)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return domain.DefaultTheme, nil
		}
		return domain.DefaultTheme, fmt.Errorf("repository: LoadTheme: %w", err)
	}
	theme := domain.Theme(strings.TrimSpace(string(raw)))
	if !theme.Valid() {
		a.log.Warn("ignoring unknown persisted theme", "theme", string(raw))
		return domain.DefaultTheme, nil
	}
	return theme, nil
}

func (a *Adapter) SaveCredential(ctx context.Context, value string) error {
	if err := a.kv.Put(ctx, KeyCredential, []byte(value)); err != nil {
		return fmt.Errorf("repository: SaveCredential: %w", err)
	}
	return nil
}

// LoadCredential returns the stored credential, or "" when absent.
func (a *Adapter) LoadCredential(ctx context.Context) (string, error) {
	raw, err := a.kv.Get(ctx, KeyCredential)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("repository: LoadCredential: %w", err)
	}
	return string(raw), nil
}
