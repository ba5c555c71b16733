package messaging

import (
	"context"
	"log/slog"

	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/models"
)

// Dispatcher routes communications to the service registered for their
// channel. Channels without a registered service fall back to the default
// service, so a partially configured deployment still delivers every
// communication somewhere.
type Dispatcher struct {
	services map[models.Channel]Service
	fallback Service
}

// NewDispatcher creates a dispatcher with the given fallback service.
func NewDispatcher(fallback Service) *Dispatcher {
	return &Dispatcher{
		services: make(map[models.Channel]Service),
		fallback: fallback,
	}
}

// Register binds a channel to a delivery service.
func (d *Dispatcher) Register(channel models.Channel, svc Service) {
	d.services[channel] = svc
}

// ValidateAndCanonicalizeRecipient delegates to the fallback service, which
// accepts any channel's address format.
func (d *Dispatcher) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	return d.fallback.ValidateAndCanonicalizeRecipient(recipient)
}

// Deliver routes the communication to its channel's service.
func (d *Dispatcher) Deliver(ctx context.Context, comm models.Communication) error {
	svc, ok := d.services[comm.Channel]
	if !ok {
		svc = d.fallback
	}
	if err := svc.Deliver(ctx, comm); err != nil {
		slog.Error("Dispatcher delivery failed", "error", err, "channel", comm.Channel, "chaseItemID", comm.ChaseItemID)
		return err
	}
	return nil
}
