package chat

import (
	"errors"
	"slices"
	"strings"

	"github.com/MegaGrindStone/portfolio-web/internal/models"
)

// State is the observable state of one chat widget: the transcript, whether a reply is pending, and
// whether the widget is open. Transitions are pure: each method returns a new State and never mutates
// the transcript of the receiver.
type State struct {
	Transcript []models.Message
	Loading    bool
	Open       bool
}

var (
	// ErrEmptyMessage is returned when the submitted text is empty or whitespace only.
	ErrEmptyMessage = errors.New("chat: message is empty")
	// ErrPending is returned when a submission arrives while a reply is still pending.
	ErrPending = errors.New("chat: a reply is still pending")
	// ErrNotPending is returned when a reply is settled on a state that isn't waiting for one.
	ErrNotPending = errors.New("chat: no reply is pending")
	// ErrEmptyCompletion is reported when the completion service answers without any text.
	ErrEmptyCompletion = errors.New("chat: completion returned no text")
	// ErrSessionNotFound is returned by the registry for unknown or evicted sessions.
	ErrSessionNotFound = errors.New("chat: session not found")
)

// NewState returns the initial state of a widget: closed, idle, and seeded with the greeting.
func NewState(greeting string) State {
	return State{
		Transcript: []models.Message{models.NewMessage(models.RoleAssistant, greeting)},
	}
}

// Submit appends the user's message and marks the state as loading. The text is stored as given;
// trimming is only used to reject blank input.
func (s State) Submit(text string) (State, models.Message, error) {
	if strings.TrimSpace(text) == "" {
		return s, models.Message{}, ErrEmptyMessage
	}
	if s.Loading {
		return s, models.Message{}, ErrPending
	}

	msg := models.NewMessage(models.RoleUser, text)
	s.Transcript = append(slices.Clip(s.Transcript), msg)
	s.Loading = true
	return s, msg, nil
}

// Settle appends the assistant's reply and clears the loading flag.
func (s State) Settle(reply string) (State, models.Message, error) {
	if !s.Loading {
		return s, models.Message{}, ErrNotPending
	}

	msg := models.NewMessage(models.RoleAssistant, reply)
	s.Transcript = append(slices.Clip(s.Transcript), msg)
	s.Loading = false
	return s, msg, nil
}

// Toggle flips the open flag. The transcript is left untouched.
func (s State) Toggle() State {
	s.Open = !s.Open
	return s
}

// Clone returns a copy whose transcript doesn't share memory with s.
func (s State) Clone() State {
	s.Transcript = slices.Clone(s.Transcript)
	return s
}
