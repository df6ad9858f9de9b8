package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/sitekeeper/internal/common"
	"github.com/dmitrijs2005/sitekeeper/internal/logging"
	"github.com/dmitrijs2005/sitekeeper/internal/server/mail"
)

// MissingFieldsMessage is the error text for an incomplete contact form.
const MissingFieldsMessage = "Missing required fields"

type ContactInput struct {
	Name    string `json:"name" form:"name"`
	Email   string `json:"email" form:"email"`
	Message string `json:"message" form:"message"`
}

// ContactService relays contact-form messages to the site owner.
type ContactService struct {
	mailer    mail.Mailer
	recipient string
	log       logging.Logger
}

func NewContactService(mailer mail.Mailer, recipient string, log logging.Logger) *ContactService {
	return &ContactService{mailer: mailer, recipient: recipient, log: log.With("module", "contact")}
}

// Send mails in to the owner once. Delivery failures are returned, not
// retried.
func (s *ContactService) Send(ctx context.Context, in ContactInput) error {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	message := strings.TrimSpace(in.Message)
	if name == "" || email == "" || message == "" {
		return common.NewValidationError("", MissingFieldsMessage)
	}

	err := s.mailer.Send(ctx, mail.Message{
		To:      []string{s.recipient},
		ReplyTo: email,
		Subject: fmt.Sprintf("New contact form submission from %s", name),
		Body:    fmt.Sprintf("Name: %s\nEmail: %s\nMessage: %s\n", name, email, message),
	})
	if err != nil {
		s.log.Error(ctx, "contact relay failed", "error", err)
		return deliveryErr(err)
	}
	s.log.Info(ctx, "contact message relayed")
	return nil
}
