package messaging

import (
	"context"

	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/models"
)

// Service defines a pluggable delivery abstraction for outbound chase
// communications. Each channel (SMS, email, phone task) provides its own
// implementation with its own recipient validation rules.
type Service interface {
	// ValidateAndCanonicalizeRecipient validates and canonicalizes a recipient
	// identifier. Returns the canonicalized recipient and an error if
	// validation fails.
	ValidateAndCanonicalizeRecipient(recipient string) (string, error)

	// Deliver sends one outbound communication to its recipient.
	Deliver(ctx context.Context, comm models.Communication) error
}
