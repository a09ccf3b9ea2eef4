package usecase

import (
	"context"
	"sync"
	"time"

	"chat-client/internal/domain"
)

var t0 = time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return t0 }

type memHistory struct {
	mu       sync.Mutex
	saved    []domain.Message
	loaded   []domain.Message
	saves    int
	clears   int
	saveErr  error
	loadErr  error
	clearErr error
}

func (h *memHistory) SaveHistory(_ context.Context, msgs []domain.Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.saves++
	if h.saveErr != nil {
		return h.saveErr
	}
	h.saved = append([]domain.Message(nil), msgs...)
	return nil
}

func (h *memHistory) LoadHistory(_ context.Context) ([]domain.Message, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.loadErr != nil {
		return []domain.Message{}, h.loadErr
	}
	return append([]domain.Message(nil), h.loaded...), nil
}

func (h *memHistory) ClearHistory(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clears++
	if h.clearErr != nil {
		return h.clearErr
	}
	h.saved = nil
	return nil
}

func (h *memHistory) persisted() []domain.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]domain.Message(nil), h.saved...)
}

type memPrefs struct {
	mu         sync.Mutex
	theme      domain.Theme
	credential string
	loadErr    error
	saveErr    error
}

func (p *memPrefs) SaveTheme(_ context.Context, theme domain.Theme) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.saveErr != nil {
		return p.saveErr
	}
	p.theme = theme
	return nil
}

func (p *memPrefs) LoadTheme(_ context.Context) (domain.Theme, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loadErr != nil {
		return domain.DefaultTheme, p.loadErr
	}
	if p.theme == "" {
		return domain.DefaultTheme, nil
	}
	return p.theme, nil
}

func (p *memPrefs) SaveCredential(_ context.Context, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.saveErr != nil {
		return p.saveErr
	}
	p.credential = value
	return nil
}

func (p *memPrefs) LoadCredential(_ context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loadErr != nil {
		return "", p.loadErr
	}
	return p.credential, nil
}

func (p *memPrefs) savedTheme() domain.Theme {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.theme
}

// fakeChat answers with reply/err. When gate is set, Chat blocks until the
// gate is closed, after signalling on started.
type fakeChat struct {
	mu      sync.Mutex
	reply   domain.Reply
	err     error
	calls   []string
	gate    chan struct{}
	started chan struct{}
}

func (f *fakeChat) Chat(ctx context.Context, message string) (domain.Reply, error) {
	f.mu.Lock()
	f.calls = append(f.calls, message)
	gate, started := f.gate, f.started
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return domain.Reply{}, ctx.Err()
		}
	}
	return f.reply, f.err
}

func (f *fakeChat) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newBlockingChat(reply domain.Reply) *fakeChat {
	return &fakeChat{
		reply:   reply,
		gate:    make(chan struct{}),
		started: make(chan struct{}, 1),
	}
}

type fakeHealth struct {
	mu     sync.Mutex
	status domain.HealthStatus
	err    error
	calls  int
}

func (f *fakeHealth) Health(_ context.Context) (domain.HealthStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.status, f.err
}

func (f *fakeHealth) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type recordingRenderer struct {
	mu       sync.Mutex
	appended []domain.Message
	replaced [][]domain.Message
	cleared  int
	statuses []string
	themes   []domain.Theme
	notices  []string
}

func (r *recordingRenderer) MessageAppended(msg domain.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appended = append(r.appended, msg)
}

func (r *recordingRenderer) HistoryReplaced(msgs []domain.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replaced = append(r.replaced, msgs)
}

func (r *recordingRenderer) HistoryCleared() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleared++
}

func (r *recordingRenderer) StatusChanged(status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
}

func (r *recordingRenderer) ThemeChanged(theme domain.Theme) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.themes = append(r.themes, theme)
}

func (r *recordingRenderer) Notice(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, text)
}

func (r *recordingRenderer) lastStatus() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.statuses) == 0 {
		return ""
	}
	return r.statuses[len(r.statuses)-1]
}

func (r *recordingRenderer) noticeList() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.notices...)
}

// serverFailure mimics a transport error carrying the server's description.
type serverFailure struct{ msg string }

func (e *serverFailure) Error() string         { return "server: " + e.msg }
func (e *serverFailure) ServerMessage() string { return e.msg }
