package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"chat-client/internal/domain"
)

// Preferences holds theme and credential in memory and mirrors every change
// to the PreferenceStore. It also serves as the transport's credential source.
type Preferences struct {
	store PreferenceStore
	log   *slog.Logger

	fallback func(ctx context.Context) (string, error)

	mu         sync.RWMutex
	theme      domain.Theme
	credential string
}

func NewPreferences(store PreferenceStore, log *slog.Logger) (*Preferences, error) {
	if store == nil {
		return nil, errors.New("usecase: preference store must not be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Preferences{store: store, log: log, theme: domain.DefaultTheme}, nil
}

// WithCredentialFallback makes Load call resolve when no credential has been
// saved on this device. The resolved value is never persisted.
func (p *Preferences) WithCredentialFallback(resolve func(ctx context.Context) (string, error)) *Preferences {
	p.fallback = resolve
	return p
}

// Load hydrates theme and credential. Storage failures leave the defaults.
func (p *Preferences) Load(ctx context.Context) {
	theme, err := p.store.LoadTheme(ctx)
	if err != nil {
		p.log.Warn("theme not loaded", "err", newError(ErrorPersistence, "load_theme", err))
		theme = domain.DefaultTheme
	}
	credential, err := p.store.LoadCredential(ctx)
	if err != nil {
		p.log.Warn("credential not loaded", "err", newError(ErrorPersistence, "load_credential", err))
		credential = ""
	}
	if credential == "" && p.fallback != nil {
		credential = p.loadFallback(ctx)
	}

	p.mu.Lock()
	p.theme = theme
	p.credential = credential
	p.mu.Unlock()
}

func (p *Preferences) loadFallback(ctx context.Context) string {
	token, err := p.fallback(ctx)
	if err != nil {
		p.log.Warn("credential fallback unavailable", "err", err)
		return ""
	}
	return strings.TrimSpace(token)
}

func (p *Preferences) Theme() domain.Theme {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.theme
}

// Credential satisfies chatapi.CredentialSource.
func (p *Preferences) Credential() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.credential
}

// ToggleTheme flips the theme and persists the new value.
func (p *Preferences) ToggleTheme(ctx context.Context) domain.Theme {
	p.mu.Lock()
	p.theme = p.theme.Toggle()
	theme := p.theme
	if err := p.store.SaveTheme(ctx, theme); err != nil {
		p.log.Warn("theme not persisted", "err", newError(ErrorPersistence, "save_theme", err))
	}
	p.mu.Unlock()
	return theme
}

// SetCredential stores a new credential. Blank input is ignored and
// reported as false; the previous credential stays in place.
func (p *Preferences) SetCredential(ctx context.Context, value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	p.mu.Lock()
	p.credential = value
	if err := p.store.SaveCredential(ctx, value); err != nil {
		p.log.Warn("credential not persisted", "err", newError(ErrorPersistence, "save_credential", err))
	}
	p.mu.Unlock()
	return true
}
