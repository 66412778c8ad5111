package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MegaGrindStone/portfolio-web/internal/models"
	"github.com/google/uuid"
)

type toast struct {
	Success bool
	Message string
}

// HandleContact stores a contact form submission in the inbox and answers with a toast fragment.
// Invalid submissions get an error toast and 400 Bad Request.
func (m Main) HandleContact(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sub := models.ContactSubmission{
		ID:         uuid.New().String(),
		Name:       strings.TrimSpace(r.FormValue("name")),
		Email:      strings.TrimSpace(r.FormValue("email")),
		Message:    strings.TrimSpace(r.FormValue("message")),
		ReceivedAt: time.Now(),
	}
	if err := sub.Validate(); err != nil {
		m.renderToast(w, http.StatusBadRequest, toast{Message: fmt.Sprintf("Sorry, %s.", err)})
		return
	}

	id, err := m.inbox.AddSubmission(r.Context(), sub)
	if err != nil {
		m.logger.Error("Failed to store contact submission",
			slog.String("email", sub.Email),
			slog.String(errLoggerKey, err.Error()))
		m.renderToast(w, http.StatusInternalServerError,
			toast{Message: "Sorry, your message could not be sent. Please try again later."})
		return
	}

	m.logger.Info("Contact submission received", slog.String("id", id))
	m.renderToast(w, http.StatusOK, toast{
		Success: true,
		Message: fmt.Sprintf("Thanks, %s! Your message has been sent.", sub.Name),
	})
}

func (m Main) renderToast(w http.ResponseWriter, status int, t toast) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := m.templates.ExecuteTemplate(w, "toast", t); err != nil {
		m.logger.Error("Failed to execute toast template", slog.String(errLoggerKey, err.Error()))
	}
}
