package handler

import (
	"github.com/charmbracelet/lipgloss"

	"chat-client/internal/domain"
)

// Style holds the console styles for one theme. Only short labels are
// styled; message bodies are printed as-is so multi-line text is not padded.
type Style struct {
	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	ErrorLabel     lipgloss.Style
	Status         lipgloss.Style
	Notice         lipgloss.Style
	Title          lipgloss.Style
}

type palette struct {
	User      string
	Assistant string
	Error     string
	Muted     string
	Accent    string
}

var (
	darkPalette = palette{
		User:      "#7AA2F7",
		Assistant: "#9ECE6A",
		Error:     "#F7768E",
		Muted:     "#565F89",
		Accent:    "#BB9AF7",
	}
	lightPalette = palette{
		User:      "#2E59A8",
		Assistant: "#3A7D1E",
		Error:     "#B3261E",
		Muted:     "#6B6B6B",
		Accent:    "#7A3EB1",
	}
)

// NewStyle builds the styles for theme on r.
func NewStyle(r *lipgloss.Renderer, theme domain.Theme) *Style {
	p := darkPalette
	if theme == domain.ThemeLight {
		p = lightPalette
	}
	return &Style{
		UserLabel:      r.NewStyle().Bold(true).Foreground(lipgloss.Color(p.User)),
		AssistantLabel: r.NewStyle().Bold(true).Foreground(lipgloss.Color(p.Assistant)),
		ErrorLabel:     r.NewStyle().Bold(true).Foreground(lipgloss.Color(p.Error)),
		Status:         r.NewStyle().Faint(true).Foreground(lipgloss.Color(p.Muted)),
		Notice:         r.NewStyle().Italic(true).Foreground(lipgloss.Color(p.Accent)),
		Title:          r.NewStyle().Bold(true).Foreground(lipgloss.Color(p.Accent)),
	}
}
