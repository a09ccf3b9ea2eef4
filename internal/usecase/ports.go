package usecase

import (
	"context"

	"chat-client/internal/domain"
)

// HistoryStore is the durable mirror of the message sequence.
type HistoryStore interface {
	SaveHistory(ctx context.Context, msgs []domain.Message) error
	LoadHistory(ctx context.Context) ([]domain.Message, error)
	ClearHistory(ctx context.Context) error
}

// PreferenceStore persists theme and credential.
type PreferenceStore interface {
	SaveTheme(ctx context.Context, theme domain.Theme) error
	LoadTheme(ctx context.Context) (domain.Theme, error)
	SaveCredential(ctx context.Context, value string) error
	LoadCredential(ctx context.Context) (string, error)
}

type ChatSender interface {
	Chat(ctx context.Context, message string) (domain.Reply, error)
}

type HealthChecker interface {
	Health(ctx context.Context) (domain.HealthStatus, error)
}

// Renderer is notified of every observable state change. Calls are made
// without any core lock held, so implementations may read back through
// the Session accessors.
type Renderer interface {
	MessageAppended(msg domain.Message)
	HistoryReplaced(msgs []domain.Message)
	HistoryCleared()
	StatusChanged(status string)
	ThemeChanged(theme domain.Theme)
	Notice(text string)
}

type nopRenderer struct{}

func (nopRenderer) MessageAppended(domain.Message)   {}
func (nopRenderer) HistoryReplaced([]domain.Message) {}
func (nopRenderer) HistoryCleared()                  {}
func (nopRenderer) StatusChanged(string)             {}
func (nopRenderer) ThemeChanged(domain.Theme)        {}
func (nopRenderer) Notice(string)                    {}

// applicationFailure is implemented by transport errors that carry a
// server-supplied description of an unsuccessful response.
type applicationFailure interface {
	ServerMessage() string
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}
