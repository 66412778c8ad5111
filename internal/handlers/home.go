package handlers

import (
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/MegaGrindStone/portfolio-web/internal/models"
)

type message struct {
	ID        string
	Role      string
	Content   template.HTML
	Timestamp time.Time

	// ReplyTo is the ID of the user message an assistant reply answers.
	ReplyTo string
}

type homePageData struct {
	Portfolio   models.Portfolio
	SkillGroups []models.SkillGroup
	SessionID   string
	Messages    []message
	Open        bool
	Year        int
}

func renderMessage(msg models.Message) (message, error) {
	content, err := models.RenderContent(msg)
	if err != nil {
		return message{}, err
	}
	return message{
		ID:        msg.ID,
		Role:      string(msg.Role),
		Content:   content,
		Timestamp: msg.Timestamp,
	}, nil
}

// HandleHome renders the portfolio page. Every visit starts a fresh chat session, seeded with the
// greeting, whose ID is embedded in the widget.
func (m Main) HandleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	session := m.sessions.Create()
	state := session.State()

	msgs := make([]message, len(state.Transcript))
	for i, msg := range state.Transcript {
		rm, err := renderMessage(msg)
		if err != nil {
			m.logger.Error("Failed to render message",
				slog.String("messageID", msg.ID),
				slog.String(errLoggerKey, err.Error()))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		msgs[i] = rm
	}

	data := homePageData{
		Portfolio:   m.portfolio,
		SkillGroups: m.portfolio.SkillsByCategory(),
		SessionID:   session.ID(),
		Messages:    msgs,
		Open:        state.Open,
		Year:        time.Now().Year(),
	}
	if err := m.templates.ExecuteTemplate(w, "home.html", data); err != nil {
		m.logger.Error("Failed to render home page", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
