package usecase

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"chat-client/internal/domain"
)

const (
	defaultAssistantName = "JARVIS"
	defaultExportPrefix  = "jarvis-chat"
	userSpeaker          = "You"
)

// Exporter renders the history as a plain-text transcript.
type Exporter struct {
	Dir       string
	Prefix    string
	Assistant string
	Location  *time.Location
	Now       func() time.Time
}

// Render formats one "[HH:MM] Speaker: content" entry per message, entries
// separated by a blank line.
func (e Exporter) Render(msgs []domain.Message) string {
	entries := make([]string, 0, len(msgs))
	for _, m := range msgs {
		entries = append(entries, fmt.Sprintf("[%s] %s: %s", e.clock(m.Timestamp), e.speaker(m.Role), m.Content))
	}
	return strings.Join(entries, "\n\n")
}

// FileName is "<prefix>-YYYY-MM-DD.txt" for the current UTC date.
func (e Exporter) FileName() string {
	prefix := strings.TrimSpace(e.Prefix)
	if prefix == "" {
		prefix = defaultExportPrefix
	}
	return fmt.Sprintf("%s-%s.txt", prefix, e.now().UTC().Format("2006-01-02"))
}

// Write stores the transcript and returns its path. An empty history is
// rejected; callers turn that into a notice instead of an empty file.
func (e Exporter) Write(msgs []domain.Message) (string, error) {
	if len(msgs) == 0 {
		return "", errors.New("usecase: nothing to export")
	}
	dir := strings.TrimSpace(e.Dir)
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("usecase: create export dir: %w", err)
	}
	path := filepath.Join(dir, e.FileName())
	if err := os.WriteFile(path, []byte(e.Render(msgs)+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("usecase: write export: %w", err)
	}
	return path, nil
}

func (e Exporter) clock(ts string) string {
	loc := e.location()
	t, ok := domain.ParseTimestamp(ts, loc)
	if !ok {
		return "--:--"
	}
	return t.In(loc).Format("15:04")
}

func (e Exporter) speaker(role domain.Role) string {
	if role == domain.RoleUser {
		return userSpeaker
	}
	if name := strings.TrimSpace(e.Assistant); name != "" {
		return name
	}
	return defaultAssistantName
}

func (e Exporter) location() *time.Location {
	if e.Location != nil {
		return e.Location
	}
	return time.Local
}

func (e Exporter) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}
