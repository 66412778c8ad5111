package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	portfolioweb "github.com/MegaGrindStone/portfolio-web"
	"github.com/MegaGrindStone/portfolio-web/internal/chat"
	"github.com/MegaGrindStone/portfolio-web/internal/handlers"
	"github.com/MegaGrindStone/portfolio-web/internal/models"
	"github.com/google/go-cmp/cmp"
)

type mockCompleter struct {
	reply   string
	err     error
	release chan struct{}

	onComplete func()
}

type mockInbox struct {
	mu   sync.Mutex
	subs []models.ContactSubmission
	err  error
}

const greeting = "Hi! I'm Alex's AI assistant. Ask me anything about their experience, skills, or projects!"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPortfolio(t *testing.T) models.Portfolio {
	t.Helper()

	f, err := portfolioweb.ContentFS.Open(portfolioweb.DefaultContentPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	p, err := models.LoadPortfolio(f)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func newMain(t *testing.T, c chat.Completer, inbox handlers.Inbox) (handlers.Main, *chat.Registry) {
	t.Helper()

	reg := chat.NewRegistry(c, "instruction", chat.Options{Greeting: greeting}, time.Hour, testLogger())
	m, err := handlers.NewMain(reg, inbox, testPortfolio(t), testLogger())
	if err != nil {
		t.Fatalf("NewMain() error = %v", err)
	}
	t.Cleanup(func() {
		_ = m.Shutdown(context.Background())
	})
	return m, reg
}

func postForm(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func waitSettled(t *testing.T, s *chat.Session) chat.State {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if st := s.State(); !st.Loading {
			return st
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("session did not settle in time")
	return chat.State{}
}

func TestNewMain(t *testing.T) {
	reg := chat.NewRegistry(&mockCompleter{}, "", chat.Options{}, time.Hour, testLogger())
	main, err := handlers.NewMain(reg, &mockInbox{}, models.Portfolio{}, testLogger())
	if err != nil {
		t.Fatalf("NewMain() error = %v", err)
	}

	if main.Shutdown(context.Background()) != nil {
		t.Error("Shutdown() should not return error")
	}
}

func TestHandleHome(t *testing.T) {
	main, reg := newMain(t, &mockCompleter{}, &mockInbox{})

	tests := []struct {
		name         string
		url          string
		wantStatus   int
		wantBody     []string
		wantSessions int
	}{
		{
			name:         "Home page",
			url:          "/",
			wantStatus:   http.StatusOK,
			wantBody:     []string{"Alex Sterling", "Featured Projects", "Soft Skills", "AI assistant. Ask me anything"},
			wantSessions: 1,
		},
		{
			name:         "Unknown path",
			url:          "/missing",
			wantStatus:   http.StatusNotFound,
			wantSessions: 1,
		},
		{
			name:         "Reload starts a new session",
			url:          "/",
			wantStatus:   http.StatusOK,
			wantSessions: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()

			main.HandleHome(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("HandleHome() status = %v, want %v", w.Code, tt.wantStatus)
			}
			for _, want := range tt.wantBody {
				if !strings.Contains(w.Body.String(), want) {
					t.Errorf("HandleHome() body does not contain %q", want)
				}
			}
			if got := reg.Len(); got != tt.wantSessions {
				t.Errorf("sessions = %d, want %d", got, tt.wantSessions)
			}
		})
	}
}

func TestHandleChats(t *testing.T) {
	main, reg := newMain(t, &mockCompleter{reply: "I know **Go**."}, &mockInbox{})
	session := reg.Create()

	tests := []struct {
		name       string
		method     string
		sessionID  string
		message    string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "Invalid method",
			method:     http.MethodGet,
			sessionID:  session.ID(),
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:       "Unknown session",
			method:     http.MethodPost,
			sessionID:  "missing",
			message:    "Hello",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "Empty message",
			method:     http.MethodPost,
			sessionID:  session.ID(),
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "Whitespace message",
			method:     http.MethodPost,
			sessionID:  session.ID(),
			message:    "   ",
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "Message",
			method:     http.MethodPost,
			sessionID:  session.ID(),
			message:    "What are your skills?",
			wantStatus: http.StatusOK,
			wantBody:   "What are your skills?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := url.Values{"session_id": {tt.sessionID}, "message": {tt.message}}
			req := postForm("/chat", form)
			req.Method = tt.method
			w := httptest.NewRecorder()

			main.HandleChats(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("HandleChats() status = %v, want %v", w.Code, tt.wantStatus)
			}
			if !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("HandleChats() body = %v, want to contain %v", w.Body.String(), tt.wantBody)
			}
		})
	}

	st := waitSettled(t, session)
	var got []string
	for _, msg := range st.Transcript {
		got = append(got, string(msg.Role)+": "+msg.Content)
	}
	want := []string{
		"assistant: " + greeting,
		"user: What are your skills?",
		"assistant: I know **Go**.",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("transcript mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleChatsWhilePending(t *testing.T) {
	c := &mockCompleter{reply: "done", release: make(chan struct{})}
	main, reg := newMain(t, c, &mockInbox{})
	session := reg.Create()

	send := func(text string) int {
		w := httptest.NewRecorder()
		main.HandleChats(w, postForm("/chat", url.Values{"session_id": {session.ID()}, "message": {text}}))
		return w.Code
	}

	if got := send("first"); got != http.StatusOK {
		t.Fatalf("first submission status = %d, want %d", got, http.StatusOK)
	}
	if got := send("second"); got != http.StatusConflict {
		t.Errorf("second submission status = %d, want %d", got, http.StatusConflict)
	}

	close(c.release)
	st := waitSettled(t, session)
	if len(st.Transcript) != 3 {
		t.Errorf("transcript length = %d, want 3", len(st.Transcript))
	}
}

func TestHandleChatsFallback(t *testing.T) {
	main, reg := newMain(t, &mockCompleter{err: errors.New("boom")}, &mockInbox{})
	session := reg.Create()

	w := httptest.NewRecorder()
	main.HandleChats(w, postForm("/chat", url.Values{"session_id": {session.ID()}, "message": {"hi"}}))
	if w.Code != http.StatusOK {
		t.Fatalf("HandleChats() status = %v, want %v", w.Code, http.StatusOK)
	}

	st := waitSettled(t, session)
	last := st.Transcript[len(st.Transcript)-1]
	if last.Content != chat.DefaultFallback {
		t.Errorf("last message = %q, want fallback", last.Content)
	}
}

func TestHandleToggle(t *testing.T) {
	main, reg := newMain(t, &mockCompleter{}, &mockInbox{})
	session := reg.Create()

	for _, want := range []bool{true, false} {
		w := httptest.NewRecorder()
		main.HandleToggle(w, postForm("/chat/toggle", url.Values{"session_id": {session.ID()}}))

		if w.Code != http.StatusOK {
			t.Fatalf("HandleToggle() status = %v, want %v", w.Code, http.StatusOK)
		}
		var res struct {
			IsOpen bool `json:"isOpen"`
		}
		if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
			t.Fatal(err)
		}
		if res.IsOpen != want {
			t.Errorf("isOpen = %v, want %v", res.IsOpen, want)
		}
	}

	if got := len(session.State().Transcript); got != 1 {
		t.Errorf("toggle changed the transcript, length = %d", got)
	}

	w := httptest.NewRecorder()
	main.HandleToggle(w, postForm("/chat/toggle", url.Values{"session_id": {"missing"}}))
	if w.Code != http.StatusNotFound {
		t.Errorf("HandleToggle() unknown session status = %v, want %v", w.Code, http.StatusNotFound)
	}
}

func TestHandleSessionState(t *testing.T) {
	main, reg := newMain(t, &mockCompleter{reply: "R"}, &mockInbox{})
	session := reg.Create()
	if _, err := session.Submit(context.Background(), "What are your skills?"); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+session.ID(), nil)
	req.SetPathValue("id", session.ID())
	w := httptest.NewRecorder()

	main.HandleSessionState(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("HandleSessionState() status = %v, want %v", w.Code, http.StatusOK)
	}

	type entry struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	var got struct {
		ID         string  `json:"id"`
		Transcript []entry `json:"transcript"`
		IsLoading  bool    `json:"isLoading"`
		IsOpen     bool    `json:"isOpen"`
	}
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}

	want := got
	want.ID = session.ID()
	want.Transcript = []entry{
		{Role: "assistant", Content: greeting},
		{Role: "user", Content: "What are your skills?"},
		{Role: "assistant", Content: "R"},
	}
	want.IsLoading = false
	want.IsOpen = false
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/sessions/missing", nil)
	req.SetPathValue("id", "missing")
	w = httptest.NewRecorder()
	main.HandleSessionState(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("HandleSessionState() unknown session status = %v, want %v", w.Code, http.StatusNotFound)
	}
}

func TestHandleSSEUnknownSession(t *testing.T) {
	main, _ := newMain(t, &mockCompleter{}, &mockInbox{})

	req := httptest.NewRequest(http.MethodGet, "/sse/messages?session_id=missing", nil)
	w := httptest.NewRecorder()

	main.HandleSSE(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("HandleSSE() status = %v, want %v", w.Code, http.StatusNotFound)
	}
}

func TestHandleContact(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		form       url.Values
		inboxErr   error
		wantStatus int
		wantBody   string
		wantStored int
	}{
		{
			name:       "Invalid method",
			method:     http.MethodGet,
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:       "Valid submission",
			method:     http.MethodPost,
			form:       url.Values{"name": {"Ada"}, "email": {"ada@example.com"}, "message": {"Hello there"}},
			wantStatus: http.StatusOK,
			wantBody:   "Thanks, Ada! Your message has been sent.",
			wantStored: 1,
		},
		{
			name:       "Invalid email",
			method:     http.MethodPost,
			form:       url.Values{"name": {"Ada"}, "email": {"ada"}, "message": {"Hello there"}},
			wantStatus: http.StatusBadRequest,
			wantBody:   "email is invalid",
		},
		{
			name:       "Missing message",
			method:     http.MethodPost,
			form:       url.Values{"name": {"Ada"}, "email": {"ada@example.com"}},
			wantStatus: http.StatusBadRequest,
			wantBody:   "message is required",
		},
		{
			name:       "Inbox failure",
			method:     http.MethodPost,
			form:       url.Values{"name": {"Ada"}, "email": {"ada@example.com"}, "message": {"Hello there"}},
			inboxErr:   errors.New("disk full"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   "could not be sent",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inbox := &mockInbox{err: tt.inboxErr}
			main, _ := newMain(t, &mockCompleter{}, inbox)

			req := postForm("/contact", tt.form)
			req.Method = tt.method
			w := httptest.NewRecorder()

			main.HandleContact(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("HandleContact() status = %v, want %v", w.Code, tt.wantStatus)
			}
			if !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("HandleContact() body = %v, want to contain %v", w.Body.String(), tt.wantBody)
			}
			if got := len(inbox.subs); got != tt.wantStored {
				t.Errorf("stored submissions = %d, want %d", got, tt.wantStored)
			}
		})
	}
}

func (m *mockCompleter) Complete(ctx context.Context, _, _ string) (string, error) {
	if m.onComplete != nil {
		m.onComplete()
	}
	if m.release != nil {
		select {
		case <-m.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func (m *mockInbox) AddSubmission(_ context.Context, sub models.ContactSubmission) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return "", m.err
	}
	m.subs = append(m.subs, sub)
	return sub.ID, nil
}
