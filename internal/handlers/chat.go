package handlers

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/MegaGrindStone/portfolio-web/internal/chat"
	"github.com/a-h/respond"
	"github.com/tmaxmax/go-sse"
)

// SSE event types for real-time updates.
var (
	messagesSSEType = sse.Type("messages")
	loadingSSEType  = sse.Type("loading")
)

type toggleResponse struct {
	IsOpen bool `json:"isOpen"`
}

type transcriptEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type sessionStateResponse struct {
	ID         string            `json:"id"`
	Transcript []transcriptEntry `json:"transcript"`
	IsLoading  bool              `json:"isLoading"`
	IsOpen     bool              `json:"isOpen"`
}

// HandleChats accepts a message from the chat widget. It expects the "session_id" and "message" form
// fields, renders the user's message followed by a loading placeholder, and settles the reply in the
// background. The reply is pushed to the session's SSE topic once the completion service answers (or
// fails, in which case the fallback message is pushed instead), tagged with the user message it
// answers so the widget can swap it in for the placeholder.
//
// Blank messages are ignored with 204 No Content, and a message sent while the previous one is still
// waiting for its reply is rejected with 409 Conflict. Neither changes the transcript.
func (m Main) HandleChats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		m.logger.Error("Method not allowed", slog.String("method", r.Method))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, err := m.sessions.Get(r.FormValue("session_id"))
	if err != nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	ex, err := session.Accept(r.FormValue("message"))
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrEmptyMessage):
			w.WriteHeader(http.StatusNoContent)
		case errors.Is(err, chat.ErrPending):
			http.Error(w, "A reply is still pending", http.StatusConflict)
		default:
			m.logger.Error("Failed to accept message", slog.String(errLoggerKey, err.Error()))
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	// The reply is resolved independently of this request, and only once the fragment below has been
	// written: no event for the placeholder may reach the widget ahead of the placeholder itself.
	defer func() { go m.resolve(session.ID(), ex) }()

	fragment, err := m.exchangeFragment(ex)
	if err != nil {
		m.logger.Error("Failed to render exchange",
			slog.String("messageID", ex.User.ID),
			slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(fragment); err != nil {
		m.logger.Error("Failed to write exchange", slog.String(errLoggerKey, err.Error()))
		return
	}
	// Not every writer can flush; the fragment is then sent when the handler returns.
	_ = http.NewResponseController(w).Flush()
}

// exchangeFragment renders the user's message followed by the loading placeholder the reply will
// replace. The placeholder is keyed by the user message ID.
func (m Main) exchangeFragment(ex *chat.Exchange) ([]byte, error) {
	um, err := renderMessage(ex.User)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := m.templates.ExecuteTemplate(&buf, "user_message", um); err != nil {
		return nil, err
	}
	if err := m.templates.ExecuteTemplate(&buf, "loading", ex.User.ID); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (m Main) resolve(sessionID string, ex *chat.Exchange) {
	topic := sessionTopic(sessionID)

	// The loading indicator goes away whatever happens to the reply's rendering.
	defer func() {
		msg := sse.Message{Type: loadingSSEType}
		msg.AppendData("false")
		if err := m.sseSrv.Publish(&msg, topic); err != nil {
			m.logger.Error("Failed to publish loading state",
				slog.String("sessionID", sessionID),
				slog.String(errLoggerKey, err.Error()))
		}
	}()

	reply := ex.Resolve(context.Background())

	am, err := renderMessage(reply)
	if err != nil {
		m.logger.Error("Failed to render assistant message",
			slog.String("messageID", reply.ID),
			slog.String(errLoggerKey, err.Error()))
		return
	}
	am.ReplyTo = ex.User.ID

	var buf bytes.Buffer
	if err := m.templates.ExecuteTemplate(&buf, "ai_message", am); err != nil {
		m.logger.Error("Failed to execute ai_message template", slog.String(errLoggerKey, err.Error()))
		return
	}

	msg := sse.Message{Type: messagesSSEType}
	msg.AppendData(buf.String())
	if err := m.sseSrv.Publish(&msg, topic); err != nil {
		m.logger.Error("Failed to publish reply",
			slog.String("sessionID", sessionID),
			slog.String(errLoggerKey, err.Error()))
	}
}

// HandleToggle opens or closes the chat widget of the session named by the "session_id" form field.
// The transcript is left untouched.
func (m Main) HandleToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, err := m.sessions.Get(r.FormValue("session_id"))
	if err != nil {
		respond.WithError(w, "session not found", http.StatusNotFound)
		return
	}

	respond.WithJSON(w, toggleResponse{IsOpen: session.Toggle()}, http.StatusOK)
}

// HandleSessionState reports the observable state of a session: its transcript, whether a reply is
// pending and whether the widget is open.
func (m Main) HandleSessionState(w http.ResponseWriter, r *http.Request) {
	session, err := m.sessions.Get(r.PathValue("id"))
	if err != nil {
		respond.WithError(w, "session not found", http.StatusNotFound)
		return
	}

	state := session.State()
	res := sessionStateResponse{
		ID:         session.ID(),
		Transcript: make([]transcriptEntry, len(state.Transcript)),
		IsLoading:  state.Loading,
		IsOpen:     state.Open,
	}
	for i, msg := range state.Transcript {
		res.Transcript[i] = transcriptEntry{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
	}

	respond.WithJSON(w, res, http.StatusOK)
}
