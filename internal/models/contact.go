package models

import (
	"errors"
	"strings"
	"time"
)

// ContactSubmission is a message left through the portfolio's contact form.
type ContactSubmission struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Message    string    `json:"message"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// Validate reports the first missing or malformed field of the submission.
func (c ContactSubmission) Validate() error {
	switch {
	case strings.TrimSpace(c.Name) == "":
		return errors.New("name is required")
	case strings.TrimSpace(c.Email) == "":
		return errors.New("email is required")
	case !strings.Contains(c.Email, "@"):
		return errors.New("email is invalid")
	case strings.TrimSpace(c.Message) == "":
		return errors.New("message is required")
	}
	return nil
}
