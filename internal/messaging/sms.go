package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/models"
	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/twiliosms"
)

// phoneNumberRegex matches all non-numeric characters for phone number canonicalization.
var phoneNumberRegex = regexp.MustCompile(`[^0-9]`)

// SMSService delivers SMS communications through Twilio.
type SMSService struct {
	client twiliosms.Sender
}

// NewSMSService creates an SMS delivery service backed by the given client.
func NewSMSService(client twiliosms.Sender) *SMSService {
	return &SMSService{client: client}
}

// ValidateAndCanonicalizeRecipient validates a phone number and strips
// formatting characters.
func (s *SMSService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	if recipient == "" {
		return "", fmt.Errorf("recipient cannot be empty")
	}

	// Remove all non-numeric characters
	canonical := phoneNumberRegex.ReplaceAllString(recipient, "")

	if canonical == "" {
		return "", fmt.Errorf("invalid phone number: no digits found in recipient %q", recipient)
	}
	if len(canonical) < 6 {
		return "", fmt.Errorf("invalid phone number: %q is too short (minimum 6 digits required)", canonical)
	}

	if canonical != recipient {
		slog.Debug("SMSService canonicalized recipient", "original", recipient, "canonical", canonical)
	}

	return canonical, nil
}

// Deliver sends the communication body as an SMS.
func (s *SMSService) Deliver(ctx context.Context, comm models.Communication) error {
	canonical, err := s.ValidateAndCanonicalizeRecipient(comm.Recipient)
	if err != nil {
		slog.Error("SMSService Deliver validation error", "error", err, "chaseItemID", comm.ChaseItemID)
		return err
	}

	if err := s.client.SendSMS(ctx, canonical, comm.Content); err != nil {
		slog.Error("SMSService Deliver failed", "error", err, "to", canonical, "chaseItemID", comm.ChaseItemID)
		return err
	}
	slog.Debug("SMSService Deliver succeeded", "to", canonical, "chaseItemID", comm.ChaseItemID)
	return nil
}
