package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/models"
)

// Simulator records deliveries instead of sending them. It stands in for
// channels without a live integration (email and phone call tasks) and for
// SMS when no Twilio credentials are configured.
type Simulator struct {
	mu   sync.Mutex
	sent []models.Communication
}

// NewSimulator creates a new simulated delivery service.
func NewSimulator() *Simulator {
	return &Simulator{}
}

// ValidateAndCanonicalizeRecipient trims surrounding whitespace and rejects
// empty recipients. The simulator accepts any channel's address format.
func (s *Simulator) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	canonical := strings.TrimSpace(recipient)
	if canonical == "" {
		return "", fmt.Errorf("recipient cannot be empty")
	}
	return canonical, nil
}

// Deliver records the communication as sent.
func (s *Simulator) Deliver(ctx context.Context, comm models.Communication) error {
	canonical, err := s.ValidateAndCanonicalizeRecipient(comm.Recipient)
	if err != nil {
		slog.Error("Simulator Deliver validation error", "error", err, "channel", comm.Channel)
		return err
	}
	comm.Recipient = canonical

	s.mu.Lock()
	s.sent = append(s.sent, comm)
	s.mu.Unlock()

	slog.Info("Simulated delivery", "channel", comm.Channel, "to", comm.Recipient, "chaseItemID", comm.ChaseItemID)
	return nil
}

// Sent returns a copy of every communication delivered so far.
func (s *Simulator) Sent() []models.Communication {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Communication, len(s.sent))
	copy(out, s.sent)
	return out
}
