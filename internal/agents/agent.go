// Package agents implements the chase decision core: a document chaser for
// items outstanding with clients, an LOA chaser for items outstanding with
// pension providers, a deterministic delay predictor, and the orchestrator
// that routes items between them.
//
// Agents are plain owned values constructed by the caller; there is no
// package-level state. Every agent embeds agentCore, which guards the
// mutable status snapshot with a mutex and emits one ActivityRecord per
// Process call through the configured ActivitySink. Decision logic itself
// is pure: Analyze methods take an explicit now and perform no side effects.
package agents

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/models"
	"github.com/google/uuid"
)

// Well-known agent identifiers.
const (
	DocumentChaserID = "doc_chaser_001"
	LOAChaserID      = "loa_chaser_001"
	PredictorID      = "predictor_001"
	OrchestratorID   = "orchestrator_001"
)

// MaxChaseAttempts is the attempt ceiling after which both policies stop
// chasing and escalate to a human.
const MaxChaseAttempts = 3

// ActivitySink receives the audit record an agent emits once per processed
// item. Implementations must tolerate concurrent calls.
type ActivitySink interface {
	RecordActivity(ctx context.Context, rec models.ActivityRecord) error
}

// SinkFunc adapts a plain function to the ActivitySink interface.
type SinkFunc func(ctx context.Context, rec models.ActivityRecord) error

// RecordActivity calls f(ctx, rec).
func (f SinkFunc) RecordActivity(ctx context.Context, rec models.ActivityRecord) error {
	return f(ctx, rec)
}

// NopSink discards activity records. Used when no audit trail is wired.
func NopSink() ActivitySink {
	return SinkFunc(func(context.Context, models.ActivityRecord) error { return nil })
}

// MultiSink fans each activity record out to every sink in order. Errors
// from individual sinks are logged and do not stop the fan-out.
func MultiSink(sinks ...ActivitySink) ActivitySink {
	return SinkFunc(func(ctx context.Context, rec models.ActivityRecord) error {
		for _, s := range sinks {
			if err := s.RecordActivity(ctx, rec); err != nil {
				slog.Error("MultiSink: sink rejected activity record", "error", err, "agent_type", rec.AgentType, "action", rec.Action)
			}
		}
		return nil
	})
}

// Opts holds optional configuration applied at agent construction.
type Opts struct {
	clock func() time.Time
	sink  ActivitySink
}

// Option configures agent construction.
type Option func(*Opts)

// WithClock overrides the agent's time source. Tests use this to make day
// arithmetic deterministic.
func WithClock(clock func() time.Time) Option {
	return func(o *Opts) {
		o.clock = clock
	}
}

// WithSink sets the ActivitySink agents emit audit records to.
func WithSink(sink ActivitySink) Option {
	return func(o *Opts) {
		o.sink = sink
	}
}

func buildOpts(opts []Option) Opts {
	o := Opts{
		clock: time.Now,
		sink:  NopSink(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// agentCore carries the identity and mutable status shared by every agent.
// The mutex serializes status writers; reads take a snapshot.
type agentCore struct {
	agentID   string
	agentType string
	clock     func() time.Time
	sink      ActivitySink

	mu             sync.Mutex
	status         models.AgentState
	lastAction     string
	lastActionTime time.Time
	acted          bool
	itemsProcessed int
}

func newAgentCore(agentID, agentType string, o Opts) agentCore {
	return agentCore{
		agentID:   agentID,
		agentType: agentType,
		clock:     o.clock,
		sink:      o.sink,
		status:    models.AgentStateIdle,
	}
}

// now returns the agent's view of the current time.
func (c *agentCore) now() time.Time {
	return c.clock()
}

// setStatus moves the agent to a new operational state.
func (c *agentCore) setStatus(s models.AgentState) {
	c.mu.Lock()
	c.status = s
	c.mu.Unlock()
}

// logAction records one completed Process call: it updates the status
// snapshot, increments the processed counter exactly once, and forwards an
// ActivityRecord to the sink. Sink failures are logged, never propagated;
// the audit trail must not break chase processing.
func (c *agentCore) logAction(ctx context.Context, action, details, status, target, itemID string) models.ActivityRecord {
	ts := c.now()

	c.mu.Lock()
	c.lastAction = action
	c.lastActionTime = ts
	c.acted = true
	c.itemsProcessed++
	c.mu.Unlock()

	rec := models.ActivityRecord{
		ID:          uuid.NewString(),
		AgentID:     c.agentID,
		AgentType:   c.agentType,
		Action:      action,
		Target:      target,
		ChaseItemID: itemID,
		Status:      status,
		Details:     details,
		Timestamp:   ts,
	}

	slog.Info("AgentCore.logAction: action recorded", "agent_type", c.agentType, "action", action, "status", status, "details", details)

	if err := c.sink.RecordActivity(ctx, rec); err != nil {
		slog.Error("AgentCore.logAction: failed to record activity", "error", err, "agent_type", c.agentType, "action", action)
	}
	return rec
}

// Status returns a point-in-time snapshot of the agent.
func (c *agentCore) Status() models.AgentStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := models.AgentStatus{
		AgentID:        c.agentID,
		AgentType:      c.agentType,
		Status:         c.status,
		LastAction:     c.lastAction,
		ItemsProcessed: c.itemsProcessed,
	}
	if c.acted {
		t := c.lastActionTime
		st.LastActionTime = &t
	}
	return st
}

// PolicyKind identifies which chase policy handles an item.
type PolicyKind string

const (
	// PolicyDocument handles documents and forms outstanding with clients.
	PolicyDocument PolicyKind = "document"
	// PolicyLOA handles letters of authority outstanding with providers.
	PolicyLOA PolicyKind = "loa"
)

// ChasePolicy is the uniform capability set of a chase policy. Analyze is
// pure; Process owns the status lifecycle and never returns an error:
// internal failures surface as a structured error action instead.
type ChasePolicy interface {
	Kind() PolicyKind
	AgentType() string
	Analyze(item models.ChaseItem, now time.Time) models.PolicyAnalysis
	Process(ctx context.Context, item models.ChaseItem, now time.Time) models.Action
	Status() models.AgentStatus
}

// chaseable rejects items the policies cannot act on at all: without an ID
// the item cannot be tracked, and without a target there is nobody to
// chase. Unrecognized enum values are tolerated here; the ladders and
// thresholds fall back to their defaults downstream.
func chaseable(item models.ChaseItem) error {
	if item.ID == "" {
		return models.ErrEmptyItemID
	}
	if strings.TrimSpace(item.Target) == "" {
		return models.ErrEmptyTarget
	}
	return nil
}

// failAction flips the agent into the error state, records a failed
// activity, and returns the structured error action handed to callers.
func (c *agentCore) failAction(ctx context.Context, item models.ChaseItem, err error) models.Action {
	slog.Error("AgentCore.failAction: processing failed", "agent_type", c.agentType, "item_id", item.ID, "error", err)
	c.setStatus(models.AgentStateError)
	c.logAction(ctx, string(models.ActionError), err.Error(), models.ActivityStatusFailed, item.Target, item.ID)
	return models.Action{
		Type:    models.ActionError,
		Details: err.Error(),
		Status:  models.ActivityStatusFailed,
	}
}
