package usecase

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chat-client/internal/domain"
)

func TestExporter_Render(t *testing.T) {
	e := Exporter{Location: time.UTC}
	msgs := []domain.Message{
		{Role: domain.RoleUser, Content: "Hello", Timestamp: "2024-01-01T09:05:00.000Z"},
		{Role: domain.RoleAssistant, Content: "Hi there", Timestamp: "2024-01-01T09:06:30.123456"},
		{Role: domain.RoleAssistant, Content: "odd", Timestamp: "yesterday"},
	}

	got := e.Render(msgs)

	require.Equal(t, "[09:05] You: Hello\n\n[09:06] JARVIS: Hi there\n\n[--:--] JARVIS: odd", got)
}

func TestExporter_RenderUsesLocationAndName(t *testing.T) {
	e := Exporter{Location: time.FixedZone("UTC+2", 2*60*60), Assistant: "Friday"}
	msgs := []domain.Message{{Role: domain.RoleAssistant, Content: "x", Timestamp: "2024-01-01T23:15:00Z"}}

	require.Equal(t, "[01:15] Friday: x", e.Render(msgs))
}

func TestExporter_RenderZonelessTimestampInLocation(t *testing.T) {
	e := Exporter{Location: time.FixedZone("EST", -5*60*60)}
	msgs := []domain.Message{
		{Role: domain.RoleAssistant, Content: "hi", Timestamp: "2024-01-01T12:34:56.789012"},
		{Role: domain.RoleAssistant, Content: "spaced", Timestamp: "2024-01-01 08:15:00"},
		{Role: domain.RoleUser, Content: "zoned", Timestamp: "2024-01-01T17:00:00Z"},
	}

	got := e.Render(msgs)

	require.Equal(t, "[12:34] JARVIS: hi\n\n[08:15] JARVIS: spaced\n\n[12:00] You: zoned", got)
}

func TestExporter_FileNameUsesUTCDate(t *testing.T) {
	est := time.FixedZone("EST", -5*60*60)
	e := Exporter{
		Location: est,
		Now:      func() time.Time { return time.Date(2024, 1, 1, 21, 30, 0, 0, est) },
	}

	require.Equal(t, "jarvis-chat-2024-01-02.txt", e.FileName())
}

func TestExporter_FileName(t *testing.T) {
	e := Exporter{Location: time.UTC, Now: fixedClock}
	require.Equal(t, "jarvis-chat-2024-01-01.txt", e.FileName())

	e.Prefix = "support"
	require.Equal(t, "support-2024-01-01.txt", e.FileName())
}

func TestExporter_Write(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	e := Exporter{Dir: dir, Location: time.UTC, Now: fixedClock}
	msgs := []domain.Message{
		{Role: domain.RoleUser, Content: "Hello", Timestamp: "2024-01-01T09:30:00Z"},
		{Role: domain.RoleAssistant, Content: "Hi there", Timestamp: "2024-01-01T09:30:02Z"},
	}

	path, err := e.Write(msgs)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "jarvis-chat-2024-01-01.txt"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "[09:30] You: Hello\n\n[09:30] JARVIS: Hi there\n", string(raw))
}

func TestExporter_WriteEmpty(t *testing.T) {
	dir := t.TempDir()
	e := Exporter{Dir: dir, Now: fixedClock}

	path, err := e.Write(nil)

	require.Error(t, err)
	require.Empty(t, path)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}
