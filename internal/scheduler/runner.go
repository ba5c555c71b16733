package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/agents"
	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/messaging"
	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/models"
	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/store"
	"github.com/google/uuid"
)

// Cadence defaults for the chase loop.
const (
	// DefaultPollInterval is how often the loop looks for due items.
	DefaultPollInterval = 30 * time.Second
	// DefaultRechaseInterval is the minimum gap between chases of the
	// same item, so a short poll cadence does not re-send every tick.
	DefaultRechaseInterval = 24 * time.Hour
	// DefaultBatchSize caps how many items one tick processes.
	DefaultBatchSize = 50
)

// Delivery outcomes recorded on communications.
const (
	DeliveryStatusSent   = "sent"
	DeliveryStatusFailed = "failed"
)

// RunnerOpts holds optional runner configuration.
type RunnerOpts struct {
	clock           func() time.Time
	rechaseInterval time.Duration
	batchSize       int
}

// RunnerOption configures runner construction.
type RunnerOption func(*RunnerOpts)

// WithClock overrides the runner's time source. Tests use this to make
// tick timing deterministic.
func WithClock(clock func() time.Time) RunnerOption {
	return func(o *RunnerOpts) {
		o.clock = clock
	}
}

// WithRechaseInterval sets the minimum gap between chases of one item.
func WithRechaseInterval(interval time.Duration) RunnerOption {
	return func(o *RunnerOpts) {
		o.rechaseInterval = interval
	}
}

// WithBatchSize caps the number of items processed per tick.
func WithBatchSize(n int) RunnerOption {
	return func(o *RunnerOpts) {
		o.batchSize = n
	}
}

// Runner executes one chase cycle per tick: pull due items, run the agent
// fleet over them, persist the attempt and status moves each decision
// implies, and deliver the communications the policies composed.
type Runner struct {
	store           store.Store
	orchestrator    *agents.Orchestrator
	delivery        messaging.Service
	clock           func() time.Time
	rechaseInterval time.Duration
	batchSize       int
}

// NewRunner creates a chase runner over the given store, agent fleet and
// delivery service.
func NewRunner(st store.Store, orchestrator *agents.Orchestrator, delivery messaging.Service, opts ...RunnerOption) *Runner {
	cfg := RunnerOpts{
		clock:           time.Now,
		rechaseInterval: DefaultRechaseInterval,
		batchSize:       DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Runner{
		store:           st,
		orchestrator:    orchestrator,
		delivery:        delivery,
		clock:           cfg.clock,
		rechaseInterval: cfg.rechaseInterval,
		batchSize:       cfg.batchSize,
	}
}

// RunTick executes one chase cycle. Per-item failures are logged and do
// not stop the cycle; only the initial store query fails the tick.
func (r *Runner) RunTick(ctx context.Context) error {
	now := r.clock()

	items, err := r.store.PendingChaseItems(now, r.rechaseInterval, r.batchSize)
	if err != nil {
		slog.Error("Runner.RunTick: pending item query failed", "error", err)
		return fmt.Errorf("failed to load pending chase items: %w", err)
	}
	if len(items) == 0 {
		slog.Debug("Runner.RunTick: nothing due")
		return nil
	}
	slog.Info("Runner.RunTick: processing due items", "items", len(items))

	byID := make(map[string]models.ChaseItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	results := r.orchestrator.ProcessBatch(ctx, items)
	for _, result := range results {
		item, ok := byID[result.ChaseItemID]
		if !ok {
			continue
		}
		r.Apply(ctx, item, result)
	}
	return nil
}

// Apply persists one processing result: the fresh delay prediction, the
// attempt counter for acted-on items, the escalated status where a policy
// handed the item to a human, and the outbound communication for chasing
// actions. The HTTP process endpoint reuses this path.
func (r *Runner) Apply(ctx context.Context, item models.ChaseItem, result models.CombinedResult) {
	now := r.clock()
	action := result.Action

	if action.Type == models.ActionError {
		slog.Error("Runner.Apply: item processing failed", "item_id", result.ChaseItemID, "details", action.Details)
		return
	}

	if err := r.store.UpdatePredictedDelay(result.ChaseItemID, result.Prediction.PredictedDelayDays, now); err != nil {
		slog.Error("Runner.Apply: failed to store prediction", "error", err, "item_id", result.ChaseItemID)
	}

	if action.Type.IsChasing() || action.Type.IsEscalation() {
		if err := r.store.RecordChaseAttempt(result.ChaseItemID, now); err != nil {
			slog.Error("Runner.Apply: failed to record attempt", "error", err, "item_id", result.ChaseItemID)
		}
	}

	if action.Type.IsEscalation() {
		if err := r.store.UpdateChaseStatus(result.ChaseItemID, models.StatusEscalated, now); err != nil {
			slog.Error("Runner.Apply: failed to mark item escalated", "error", err, "item_id", result.ChaseItemID)
		}
		return
	}
	if !action.Type.IsChasing() {
		return
	}

	comm := r.composeCommunication(item, action, now)
	if err := r.delivery.Deliver(ctx, comm); err != nil {
		slog.Error("Runner.Apply: delivery failed", "error", err, "item_id", item.ID, "channel", comm.Channel)
		comm.Status = DeliveryStatusFailed
	}
	if err := r.store.SaveCommunication(comm); err != nil {
		slog.Error("Runner.Apply: failed to save communication", "error", err, "item_id", item.ID)
	}
}

// composeCommunication turns a chasing action into the outbound
// communication record handed to delivery.
func (r *Runner) composeCommunication(item models.ChaseItem, action models.Action, now time.Time) models.Communication {
	channel := action.Channel
	if channel == "" {
		channel = channelForMethod(action.Method)
	}

	comm := models.Communication{
		ID:          uuid.NewString(),
		ChaseItemID: item.ID,
		Channel:     channel,
		Direction:   models.DirectionOutbound,
		Recipient:   r.recipientFor(item, channel),
		Content:     action.Message,
		Status:      DeliveryStatusSent,
		SentAt:      now,
	}
	if channel == models.ChannelEmail {
		comm.Subject = emailSubject(item)
	}
	return comm
}

// channelForMethod maps a provider chase method onto the channel the
// message goes out on. Phone-inclusive methods record as phone.
func channelForMethod(method models.ChaseMethod) models.Channel {
	if method == models.MethodEmail {
		return models.ChannelEmail
	}
	return models.ChannelPhone
}

// recipientFor resolves where the message goes: the client's stored email
// or phone for client items, the target itself for provider chases.
func (r *Runner) recipientFor(item models.ChaseItem, channel models.Channel) string {
	if item.Category == models.CategoryClient && item.ClientID != "" {
		client, err := r.store.GetClient(item.ClientID)
		if err != nil {
			slog.Error("Runner.recipientFor: client lookup failed", "error", err, "client_id", item.ClientID)
		} else if client != nil {
			switch channel {
			case models.ChannelEmail:
				if client.Email != "" {
					return client.Email
				}
			case models.ChannelSMS, models.ChannelPhone:
				if client.Phone != "" {
					return client.Phone
				}
			}
		}
	}
	return item.Target
}

// emailSubject derives the subject line from the item being chased.
func emailSubject(item models.ChaseItem) string {
	subject := item.Description
	if subject == "" {
		subject = string(item.Kind)
	}
	return "Re: " + subject
}
