package chat

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/MegaGrindStone/portfolio-web/internal/models"
)

// Completer represents the external text-completion service. It receives the fixed system
// instruction and the latest user text, and returns the generated reply.
type Completer interface {
	Complete(ctx context.Context, systemInstruction, userText string) (string, error)
}

// DefaultFallback is appended in place of the assistant's reply when the completion fails.
const DefaultFallback = "The AI assistant is currently taking a coffee break. Please try again later!"

const errLoggerKey = "err"

// Options tunes the messages a session produces on its own.
type Options struct {
	// Greeting seeds every new transcript.
	Greeting string
	// Fallback replaces the assistant's reply when the completion fails. Defaults to DefaultFallback.
	Fallback string
}

// Session owns the transcript of one chat widget and mediates between the widget's input and the
// completion service. At most one request is in flight per session.
type Session struct {
	id          string
	instruction string
	fallback    string
	completer   Completer
	logger      *slog.Logger

	mu         sync.Mutex
	state      State
	lastActive time.Time
}

// Exchange is one accepted submission waiting for its reply.
type Exchange struct {
	// User is the message appended when the submission was accepted.
	User models.Message

	session *Session
	prior   []models.Message
	once    sync.Once
	reply   models.Message
}

// NewSession creates a session seeded with opts.Greeting.
func NewSession(id string, completer Completer, instruction string, opts Options, logger *slog.Logger) *Session {
	fallback := opts.Fallback
	if fallback == "" {
		fallback = DefaultFallback
	}
	return &Session{
		id:          id,
		instruction: instruction,
		fallback:    fallback,
		completer:   completer,
		logger:      logger.With(slog.String("module", "chat"), slog.String("sessionID", id)),
		state:       NewState(opts.Greeting),
		lastActive:  time.Now(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns a snapshot of the session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Toggle opens or closes the widget and reports the new open flag.
func (s *Session) Toggle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = s.state.Toggle()
	s.lastActive = time.Now()
	return s.state.Open
}

// Accept records the user's message and moves the session to pending. It returns ErrEmptyMessage for
// blank input and ErrPending while a previous exchange hasn't been resolved; in both cases the
// transcript is left unchanged. The returned exchange must be resolved exactly once.
func (s *Session) Accept(text string) (*Exchange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prior := s.state.Transcript
	next, msg, err := s.state.Submit(text)
	if err != nil {
		return nil, err
	}
	s.state = next
	s.lastActive = time.Now()

	return &Exchange{
		User:    msg,
		session: s,
		prior:   prior,
	}, nil
}

// Submit accepts text and waits for the reply, returning the appended assistant message.
func (s *Session) Submit(ctx context.Context, text string) (models.Message, error) {
	ex, err := s.Accept(text)
	if err != nil {
		return models.Message{}, err
	}
	return ex.Resolve(ctx), nil
}

// Resolve asks the completion service for a reply and appends it, or the fallback message, to the
// transcript. Later calls return the same message without dispatching another request.
func (e *Exchange) Resolve(ctx context.Context) models.Message {
	e.once.Do(func() {
		text := e.session.requestCompletion(ctx, e.prior, e.User.Content)
		e.reply = e.session.settle(text)
	})
	return e.reply
}

func (s *Session) requestCompletion(ctx context.Context, prior []models.Message, text string) (reply string) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Completer panicked", slog.String(errLoggerKey, fmt.Sprint(r)))
			reply = s.fallback
		}
	}()

	s.logger.Debug("Requesting completion",
		slog.Int("priorMessages", len(prior)),
		slog.Int("textLength", len(text)))

	res, err := s.completer.Complete(ctx, s.instruction, text)
	if err == nil && res == "" {
		err = ErrEmptyCompletion
	}
	if err != nil {
		s.logger.Error("Completion failed",
			slog.Duration("elapsed", time.Since(start)),
			slog.String(errLoggerKey, err.Error()))
		return s.fallback
	}

	s.logger.Debug("Completion settled", slog.Duration("elapsed", time.Since(start)))
	return res
}

func (s *Session) settle(text string) models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, msg, err := s.state.Settle(text)
	if err != nil {
		// Only reachable if the state was replaced behind the exchange's back.
		s.logger.Error("Failed to settle reply", slog.String(errLoggerKey, err.Error()))
		return msg
	}
	s.state = next
	s.lastActive = time.Now()
	return msg
}

func (s *Session) idleSince(now time.Time) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastActive), s.state.Loading
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}
