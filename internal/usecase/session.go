package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"chat-client/internal/domain"
)

const (
	noticeNothingToExport = "No messages to export"
	noticeSettingsSaved   = "Settings saved"
	noticeSettingsIgnored = "Settings unchanged: credential is empty"

	statusNotConfigured = "Warning: API key not configured"
	statusUnreachable   = "Warning: backend unreachable"
)

// SessionConfig lists the collaborators of a Session.
type SessionConfig struct {
	History       HistoryStore
	Preferences   *Preferences
	Chat          ChatSender
	Health        HealthChecker
	Renderer      Renderer
	Logger        *slog.Logger
	Exporter      Exporter
	AssistantName string
	Now           func() time.Time
}

// Session is the application state of one client run. The presentation
// layer drives it only through the On* commands and reads it through the
// accessors.
type Session struct {
	store    *Store
	coord    *Coordinator
	health   *HealthMonitor
	prefs    *Preferences
	exporter Exporter
	render   Renderer
	log      *slog.Logger
	name     string
}

func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.Preferences == nil {
		return nil, errors.New("usecase: preferences must not be nil")
	}
	if cfg.Renderer == nil {
		cfg.Renderer = nopRenderer{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	name := strings.TrimSpace(cfg.AssistantName)
	if name == "" {
		name = defaultAssistantName
	}
	if strings.TrimSpace(cfg.Exporter.Assistant) == "" {
		cfg.Exporter.Assistant = name
	}
	if cfg.Exporter.Now == nil {
		cfg.Exporter.Now = cfg.Now
	}

	s := &Session{
		prefs:    cfg.Preferences,
		exporter: cfg.Exporter,
		render:   cfg.Renderer,
		log:      cfg.Logger,
		name:     name,
	}

	var err error
	if s.store, err = NewStore(cfg.History, cfg.Renderer, cfg.Logger); err != nil {
		return nil, err
	}
	s.coord, err = NewCoordinator(cfg.Chat, s.store,
		WithCoordinatorLogger(cfg.Logger),
		WithClock(cfg.Now),
		WithBusyHook(func(bool) { s.refreshStatus() }),
	)
	if err != nil {
		return nil, err
	}
	s.health, err = NewHealthMonitor(cfg.Health, cfg.Logger, func(domain.HealthStatus) { s.refreshStatus() })
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Hydrate restores the persisted state and runs the startup health check.
// It is meant to be called once, before any command.
func (s *Session) Hydrate(ctx context.Context) {
	s.prefs.Load(ctx)
	s.render.ThemeChanged(s.prefs.Theme())

	msgs, err := s.store.history.LoadHistory(ctx)
	if err != nil {
		s.log.Warn("history not loaded", "err", newError(ErrorPersistence, "load_history", err))
		msgs = nil
	}
	s.store.ReplaceAll(msgs)

	s.health.Check(ctx)
}

// OnSend dispatches text; see Coordinator.Dispatch.
func (s *Session) OnSend(ctx context.Context, text string) <-chan SendResult {
	return s.coord.Dispatch(ctx, text)
}

// OnClear wipes the history. Calling it on an empty history is harmless.
func (s *Session) OnClear(ctx context.Context) {
	s.store.Clear(ctx)
}

// OnExport writes the transcript and returns its path. With no messages it
// only emits a notice and returns an empty path.
func (s *Session) OnExport(_ context.Context) (string, error) {
	msgs := s.store.Snapshot()
	if len(msgs) == 0 {
		s.render.Notice(noticeNothingToExport)
		return "", nil
	}
	path, err := s.exporter.Write(msgs)
	if err != nil {
		return "", err
	}
	s.render.Notice("Chat exported to " + path)
	return path, nil
}

// OnToggleTheme flips and persists the theme.
func (s *Session) OnToggleTheme(ctx context.Context) domain.Theme {
	theme := s.prefs.ToggleTheme(ctx)
	s.render.ThemeChanged(theme)
	return theme
}

// OnSaveSettings stores a new credential; blank input leaves it unchanged.
func (s *Session) OnSaveSettings(ctx context.Context, credential string) bool {
	if !s.prefs.SetCredential(ctx, credential) {
		s.render.Notice(noticeSettingsIgnored)
		return false
	}
	s.render.Notice(noticeSettingsSaved)
	return true
}

// CheckHealth runs one more readiness check.
func (s *Session) CheckHealth(ctx context.Context) domain.HealthStatus {
	return s.health.Check(ctx)
}

// Watch polls health until ctx is done; see HealthMonitor.Watch.
func (s *Session) Watch(ctx context.Context, interval time.Duration) {
	s.health.Watch(ctx, interval)
}

// Wait blocks until the in-flight send, if any, has resolved.
func (s *Session) Wait() {
	s.coord.Wait()
}

func (s *Session) Messages() []domain.Message {
	return s.store.Snapshot()
}

func (s *Session) IsSending() bool {
	return s.coord.IsSending()
}

func (s *Session) Theme() domain.Theme {
	return s.prefs.Theme()
}

func (s *Session) Credential() string {
	return s.prefs.Credential()
}

func (s *Session) AssistantName() string {
	return s.name
}

func (s *Session) Health() (domain.HealthStatus, bool) {
	return s.health.Last()
}

// Status is the one-line indicator: typing while a send is in flight,
// otherwise a health warning if there is one, otherwise ready.
func (s *Session) Status() string {
	if s.coord.IsSending() {
		return s.name + " is typing..."
	}
	if h, ok := s.health.Last(); ok {
		if !h.Reachable {
			return statusUnreachable
		}
		if !h.Configured {
			return statusNotConfigured
		}
	}
	return s.name + " is ready"
}

func (s *Session) refreshStatus() {
	s.render.StatusChanged(s.Status())
}
