package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"chat-client/internal/domain"
)

// Outcome classifies how a send resolved.
type Outcome int

const (
	SendSkippedEmpty Outcome = iota
	SendSkippedBusy
	SendReplied
	SendFailed
)

func (o Outcome) String() string {
	switch o {
	case SendSkippedEmpty:
		return "skipped_empty"
	case SendSkippedBusy:
		return "skipped_busy"
	case SendReplied:
		return "replied"
	case SendFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// SendResult is the terminal value of one send. Reply is the assistant-role
// message that was appended (the answer or the error placeholder); Err is
// set only for SendFailed.
type SendResult struct {
	Outcome Outcome
	Reply   domain.Message
	Err     error
}

// errorPrefix starts every assistant-role error placeholder.
const errorPrefix = "Error: "

// Coordinator serializes sends: at most one request is in flight, further
// sends while busy are dropped, never queued.
type Coordinator struct {
	chat  ChatSender
	store *Store
	log   *slog.Logger
	now   func() time.Time

	onBusy func(bool)

	sending  atomic.Bool
	inflight sync.WaitGroup
}

type CoordinatorOption func(*Coordinator)

func WithCoordinatorLogger(log *slog.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		if log != nil {
			c.log = log
		}
	}
}

func WithClock(now func() time.Time) CoordinatorOption {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

// WithBusyHook is called with true when a send is dispatched and with
// false once it has resolved.
func WithBusyHook(fn func(busy bool)) CoordinatorOption {
	return func(c *Coordinator) {
		c.onBusy = fn
	}
}

func NewCoordinator(chat ChatSender, store *Store, opts ...CoordinatorOption) (*Coordinator, error) {
	if chat == nil {
		return nil, errors.New("usecase: chat sender must not be nil")
	}
	if store == nil {
		return nil, errors.New("usecase: store must not be nil")
	}
	c := &Coordinator{
		chat:  chat,
		store: store,
		log:   slog.Default(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// IsSending reports whether a send is between dispatch and resolution.
func (c *Coordinator) IsSending() bool {
	return c.sending.Load()
}

// Dispatch starts a send and returns a channel that yields exactly one
// SendResult. The user message is appended before Dispatch returns; the
// request itself runs on its own goroutine and is not cancelled with ctx.
func (c *Coordinator) Dispatch(ctx context.Context, text string) <-chan SendResult {
	done := make(chan SendResult, 1)

	text = strings.TrimSpace(text)
	if text == "" {
		done <- SendResult{Outcome: SendSkippedEmpty}
		close(done)
		return done
	}
	if !c.sending.CompareAndSwap(false, true) {
		c.log.Debug("send ignored while another is in flight")
		done <- SendResult{Outcome: SendSkippedBusy}
		close(done)
		return done
	}

	reqCtx := context.WithoutCancel(ctx)
	c.store.Append(reqCtx, domain.NewMessage(domain.RoleUser, text, c.now()))
	c.notifyBusy(true)

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		defer close(done)
		done <- c.resolve(reqCtx, text)
	}()
	return done
}

// Send is the blocking form of Dispatch.
func (c *Coordinator) Send(ctx context.Context, text string) SendResult {
	return <-c.Dispatch(ctx, text)
}

// Wait blocks until no send is in flight.
func (c *Coordinator) Wait() {
	c.inflight.Wait()
}

func (c *Coordinator) resolve(ctx context.Context, text string) SendResult {
	defer c.release()

	reply, err := c.chat.Chat(ctx, text)
	if err != nil {
		uerr := classifySendError(err)
		msg := domain.NewMessage(domain.RoleAssistant, errorPrefix+describe(uerr), c.now())
		c.store.Append(ctx, msg)
		c.log.Warn("send failed", "code", string(uerr.Code), "err", uerr)
		return SendResult{Outcome: SendFailed, Reply: msg, Err: uerr}
	}

	ts := reply.Timestamp
	if ts == "" {
		ts = domain.FormatTimestamp(c.now())
	}
	msg := domain.Message{Role: domain.RoleAssistant, Content: reply.Content, Timestamp: ts}
	c.store.Append(ctx, msg)
	return SendResult{Outcome: SendReplied, Reply: msg}
}

func (c *Coordinator) release() {
	c.sending.Store(false)
	c.notifyBusy(false)
}

func (c *Coordinator) notifyBusy(busy bool) {
	if c.onBusy != nil {
		c.onBusy(busy)
	}
}

func classifySendError(err error) *Error {
	var af applicationFailure
	if errors.As(err, &af) {
		return newError(ErrorApplicationFailure, "response_unsuccessful", err)
	}
	var te interface{ Timeout() bool }
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &te) && te.Timeout()) {
		return newError(ErrorNetworkFailure, "timeout", err)
	}
	if status, ok := upstreamStatusCode(err); ok {
		return newError(ErrorNetworkFailure, fmt.Sprintf("http_%d", status), err)
	}
	return newError(ErrorNetworkFailure, "transport_error", err)
}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.HTTPStatusCode(), true
}

// describe turns a classified failure into the text shown to the user.
func describe(e *Error) string {
	if e.Code == ErrorApplicationFailure {
		var af applicationFailure
		if errors.As(e.Err, &af) {
			return af.ServerMessage()
		}
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Code)
}
