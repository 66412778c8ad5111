package handlers

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	portfolioweb "github.com/MegaGrindStone/portfolio-web"
	"github.com/MegaGrindStone/portfolio-web/internal/chat"
	"github.com/MegaGrindStone/portfolio-web/internal/models"
	"github.com/tmaxmax/go-sse"
)

// Sessions is the set of live chat sessions the handlers operate on. Every page load creates one, and
// the widget refers to it by ID afterwards.
type Sessions interface {
	Create() *chat.Session
	Get(id string) (*chat.Session, error)
}

// Inbox stores the messages left through the contact form.
type Inbox interface {
	AddSubmission(ctx context.Context, sub models.ContactSubmission) (string, error)
}

// Main serves the portfolio page and the chat widget. Chat replies are settled asynchronously and
// pushed to the widget through server-sent events, one topic per session.
type Main struct {
	sseSrv    *sse.Server
	templates *template.Template

	sessions  Sessions
	inbox     Inbox
	portfolio models.Portfolio

	logger *slog.Logger
}

const errLoggerKey = "err"

// NewMain creates a new Main instance and parses the page templates from the embedded filesystem.
func NewMain(sessions Sessions, inbox Inbox, portfolio models.Portfolio, logger *slog.Logger) (Main, error) {
	// We parse templates from three distinct directories to separate layout, pages, and partial views
	tmpl, err := template.ParseFS(
		portfolioweb.TemplateFS,
		"templates/layout/*.html",
		"templates/pages/*.html",
		"templates/partials/*.html",
	)
	if err != nil {
		return Main{}, fmt.Errorf("failed to parse templates: %w", err)
	}

	return Main{
		sseSrv: &sse.Server{
			OnSession: func(s *sse.Session) (sse.Subscription, bool) {
				topics := []string{sse.DefaultTopic}

				sessionID := s.Req.URL.Query().Get("session_id")
				if sessionID != "" {
					topics = append(topics, sessionTopic(sessionID))
				}

				return sse.Subscription{
					Client:      s,
					LastEventID: s.LastEventID,
					Topics:      topics,
				}, true
			},
		},
		templates: tmpl,
		sessions:  sessions,
		inbox:     inbox,
		portfolio: portfolio,
		logger:    logger.With(slog.String("module", "main")),
	}, nil
}

func sessionTopic(sessionID string) string {
	return fmt.Sprintf("session-%s", sessionID)
}

// HandleSSE subscribes the widget to the settlement events of its session. The session_id query
// parameter must name a live session.
func (m Main) HandleSSE(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if _, err := m.sessions.Get(sessionID); err != nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	m.sseSrv.ServeHTTP(w, r)
}

// Shutdown gracefully terminates the Main instance's SSE server. It broadcasts a close message to all
// connected clients and waits up to 5 seconds for connections to terminate. After the timeout, any
// remaining connections are forcefully closed.
func (m Main) Shutdown(ctx context.Context) error {
	e := &sse.Message{Type: sse.Type("closeChat")}
	// An event without data is never dispatched by the browser
	e.AppendData("bye")

	// We ignore the error here since we're shutting down anyway
	_ = m.sseSrv.Publish(e)

	ctx, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()

	return m.sseSrv.Shutdown(ctx)
}
