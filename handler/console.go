package handler

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"chat-client/internal/domain"
	"chat-client/internal/usecase"
)

const (
	promptText      = "> "
	confirmClear    = "Clear the chat? [y/N] "
	credentialInput = "API key (input hidden, empty keeps the current one): "
	errorPrefix     = "Error: "
)

// DefaultSuggestions are offered on the welcome screen.
var DefaultSuggestions = []string{
	"Explain quantum computing in simple terms",
	"Write a short poem about the ocean",
	"Help me plan a productive morning routine",
	"What are some tips for learning Go?",
}

// Session is the command surface the console drives.
type Session interface {
	Hydrate(ctx context.Context)
	OnSend(ctx context.Context, text string) <-chan usecase.SendResult
	OnClear(ctx context.Context)
	OnExport(ctx context.Context) (string, error)
	OnToggleTheme(ctx context.Context) domain.Theme
	OnSaveSettings(ctx context.Context, credential string) bool
	Messages() []domain.Message
	Credential() string
	Status() string
	AssistantName() string
	Wait()
}

// Console is a line-oriented front end. It reads commands and messages from
// its input and renders every session change to its output.
type Console struct {
	in  *bufio.Reader
	out io.Writer
	log *slog.Logger

	renderer    *lipgloss.Renderer
	location    *time.Location
	suggestions []string
	readSecret  func() (string, error)
	waitReplies bool

	mu         sync.Mutex
	style      *Style
	assistant  string
	lastStatus string

	session Session
}

type Option func(*Console)

func WithLogger(log *slog.Logger) Option {
	return func(c *Console) {
		if log != nil {
			c.log = log
		}
	}
}

// WithLocation sets the zone message times are shown in.
func WithLocation(loc *time.Location) Option {
	return func(c *Console) {
		if loc != nil {
			c.location = loc
		}
	}
}

func WithSuggestions(s []string) Option {
	return func(c *Console) {
		c.suggestions = append([]string(nil), s...)
	}
}

// WithSecretReader replaces the plain line read used for credential entry,
// typically with a terminal read that does not echo.
func WithSecretReader(fn func() (string, error)) Option {
	return func(c *Console) {
		c.readSecret = fn
	}
}

// WithWaitReplies makes the console wait for each reply before reading the
// next line. Used when input is piped rather than typed.
func WithWaitReplies(wait bool) Option {
	return func(c *Console) {
		c.waitReplies = wait
	}
}

func NewConsole(in io.Reader, out io.Writer, opts ...Option) (*Console, error) {
	if in == nil {
		return nil, errors.New("handler: input must not be nil")
	}
	if out == nil {
		return nil, errors.New("handler: output must not be nil")
	}
	c := &Console{
		in:          bufio.NewReader(in),
		out:         out,
		log:         slog.Default(),
		renderer:    lipgloss.NewRenderer(out),
		location:    time.Local,
		suggestions: DefaultSuggestions,
		assistant:   "JARVIS",
	}
	for _, opt := range opts {
		opt(c)
	}
	c.style = NewStyle(c.renderer, domain.DefaultTheme)
	return c, nil
}

// Run hydrates s and serves input until EOF, a quit command or ctx ends.
// It returns once any in-flight reply has been rendered.
func (c *Console) Run(ctx context.Context, s Session) error {
	if s == nil {
		return errors.New("handler: session must not be nil")
	}
	c.mu.Lock()
	c.session = s
	c.assistant = s.AssistantName()
	c.mu.Unlock()

	c.printf("%s\n", c.currentStyle().Title.Render(c.assistant+" chat"))
	c.printf("%s\n", c.currentStyle().Status.Render("Type /help for commands, /quit to leave."))
	s.Hydrate(ctx)
	defer s.Wait()

	for {
		if ctx.Err() != nil {
			return nil
		}
		c.printf("%s", promptText)
		line, err := c.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				c.printf("\n")
				return nil
			}
			return fmt.Errorf("handler: read input: %w", err)
		}
		if quit := c.handle(ctx, line); quit {
			return nil
		}
	}
}

func (c *Console) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (c *Console) handle(ctx context.Context, line string) bool {
	trimmed := strings.TrimSpace(line)
	switch strings.ToLower(trimmed) {
	case "exit", "quit":
		return true
	}
	if strings.HasPrefix(trimmed, "/") {
		return c.command(ctx, trimmed)
	}
	c.send(ctx, line)
	return false
}

func (c *Console) send(ctx context.Context, text string) {
	done := c.session.OnSend(ctx, text)
	if c.waitReplies {
		res := <-done
		c.log.Debug("send resolved", "outcome", res.Outcome.String())
		return
	}
	select {
	case res := <-done:
		c.log.Debug("send resolved", "outcome", res.Outcome.String())
	default:
	}
}

func (c *Console) command(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	name, args := strings.ToLower(fields[0]), fields[1:]

	switch name {
	case "/quit", "/exit":
		return true
	case "/help":
		c.help()
	case "/clear", "/new":
		if c.confirm(confirmClear) {
			c.session.OnClear(ctx)
		} else {
			c.Notice("Clear cancelled")
		}
	case "/export":
		if _, err := c.session.OnExport(ctx); err != nil {
			c.Notice("Export failed: " + err.Error())
		}
	case "/theme":
		theme := c.session.OnToggleTheme(ctx)
		c.Notice("Theme: " + string(theme))
	case "/settings":
		c.settings(ctx)
	case "/history":
		c.printHistory(c.session.Messages())
	case "/status":
		c.printf("%s\n", c.currentStyle().Status.Render("· "+c.session.Status()))
	case "/suggest":
		c.suggest(ctx, args)
	default:
		c.Notice(fmt.Sprintf("Unknown command %s. Type /help.", fields[0]))
	}
	return false
}

func (c *Console) help() {
	lines := []string{
		"/help            show this help",
		"/clear, /new     clear the conversation",
		"/export          save the transcript to a text file",
		"/theme           toggle dark/light theme",
		"/settings        set the API key",
		"/history         print the conversation",
		"/status          show the backend status",
		"/suggest N       send suggestion N",
		"/quit            leave",
	}
	c.printf("%s\n", strings.Join(lines, "\n"))
}

func (c *Console) confirm(question string) bool {
	c.printf("%s", question)
	answer, err := c.readLine()
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func (c *Console) settings(ctx context.Context) {
	if current := c.session.Credential(); current != "" {
		c.Notice("Current key: " + maskCredential(current))
	}
	c.printf("%s", credentialInput)

	var (
		value string
		err   error
	)
	if c.readSecret != nil {
		value, err = c.readSecret()
		c.printf("\n")
	} else {
		value, err = c.readLine()
	}
	if err != nil {
		c.Notice("Settings unchanged: " + err.Error())
		return
	}
	c.session.OnSaveSettings(ctx, value)
}

func (c *Console) suggest(ctx context.Context, args []string) {
	if len(args) != 1 {
		c.Notice("Usage: /suggest N")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(c.suggestions) {
		c.Notice(fmt.Sprintf("Pick a suggestion between 1 and %d", len(c.suggestions)))
		return
	}
	c.send(ctx, c.suggestions[n-1])
}

// ----------------------------------------------------------------------------
// usecase.Renderer

func (c *Console) MessageAppended(msg domain.Message) {
	c.printMessage(msg)
}

func (c *Console) HistoryReplaced(msgs []domain.Message) {
	if len(msgs) == 0 {
		c.welcome()
		return
	}
	c.Notice(fmt.Sprintf("Restored %d messages", len(msgs)))
	c.printHistory(msgs)
}

func (c *Console) HistoryCleared() {
	c.welcome()
}

func (c *Console) StatusChanged(status string) {
	c.mu.Lock()
	if status == c.lastStatus {
		c.mu.Unlock()
		return
	}
	c.lastStatus = status
	line := c.style.Status.Render("· " + status)
	fmt.Fprintf(c.out, "%s\n", line)
	c.mu.Unlock()
}

func (c *Console) ThemeChanged(theme domain.Theme) {
	c.mu.Lock()
	c.style = NewStyle(c.renderer, theme)
	c.mu.Unlock()
}

func (c *Console) Notice(text string) {
	c.printf("%s\n", c.currentStyle().Notice.Render(text))
}

// ----------------------------------------------------------------------------

func (c *Console) welcome() {
	st := c.currentStyle()
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", st.Title.Render("Welcome! Ask "+c.assistantName()+" anything."))
	if len(c.suggestions) > 0 {
		fmt.Fprintf(&b, "Try one of these with /suggest N:\n")
		for i, s := range c.suggestions {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, s)
		}
	}
	c.printf("%s", b.String())
}

func (c *Console) printHistory(msgs []domain.Message) {
	if len(msgs) == 0 {
		c.Notice("No messages yet")
		return
	}
	for _, m := range msgs {
		c.printMessage(m)
	}
}

func (c *Console) printMessage(msg domain.Message) {
	st := c.currentStyle()
	label := st.UserLabel.Render("You:")
	if msg.Role == domain.RoleAssistant {
		labelStyle := st.AssistantLabel
		if strings.HasPrefix(msg.Content, errorPrefix) {
			labelStyle = st.ErrorLabel
		}
		label = labelStyle.Render(c.assistantName() + ":")
	}
	c.printf("%s %s %s\n", st.Status.Render("["+c.clock(msg.Timestamp)+"]"), label, msg.Content)
}

func (c *Console) clock(ts string) string {
	t, ok := domain.ParseTimestamp(ts, c.location)
	if !ok {
		return "--:--"
	}
	return t.In(c.location).Format("15:04")
}

func (c *Console) currentStyle() *Style {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.style
}

func (c *Console) assistantName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.assistant
}

func (c *Console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

func maskCredential(v string) string {
	if len(v) <= 4 {
		return strings.Repeat("*", len(v))
	}
	return strings.Repeat("*", len(v)-4) + v[len(v)-4:]
}

var _ usecase.Renderer = (*Console)(nil)
