package agents

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/knowledge"
	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/models"
	"github.com/google/uuid"
)

// Orchestrator routes chase items to the right policy, pairs every decision
// with a prediction, and exposes the combined agent fleet to callers. It is
// the fault boundary: nothing escapes Process as a panic or error.
type Orchestrator struct {
	agentCore
	documentChaser *DocumentChaser
	loaChaser      *LOAChaser
	predictor      *Predictor
}

// NewOrchestrator creates the orchestrator and its agent fleet. The options
// (clock, sink) are shared with every child agent, so one recording sink
// observes the whole fleet.
func NewOrchestrator(directory *knowledge.Directory, opts ...Option) *Orchestrator {
	return &Orchestrator{
		agentCore:      newAgentCore(OrchestratorID, models.AgentTypeOrchestrator, buildOpts(opts)),
		documentChaser: NewDocumentChaser(opts...),
		loaChaser:      NewLOAChaser(directory, opts...),
		predictor:      NewPredictor(opts...),
	}
}

// Route selects the policy for an item. LOAs and anything outstanding with
// a provider go to the LOA chaser; everything else is client-side document
// chasing. Routing is total: every item maps to exactly one policy.
func (o *Orchestrator) Route(item models.ChaseItem) ChasePolicy {
	if item.Kind == models.ChaseKindLOA || item.Category == models.CategoryProvider {
		return o.loaChaser
	}
	return o.documentChaser
}

// Predictor exposes the fleet's predictor for standalone analysis calls.
func (o *Orchestrator) Predictor() *Predictor {
	return o.predictor
}

// Process routes one item, runs the policy and the predictor, and merges
// both into a CombinedResult. Failures never propagate: policy errors
// arrive as error actions, and a panic anywhere below is converted into an
// error result here. Either way the orchestrator's processed count moves
// exactly once.
func (o *Orchestrator) Process(ctx context.Context, item models.ChaseItem) (result models.CombinedResult) {
	o.setStatus(models.AgentStateActive)

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("orchestration failed: %v", r)
			slog.Error("Orchestrator.Process: recovered from panic", "item_id", item.ID, "panic", r)
			o.setStatus(models.AgentStateError)
			o.logAction(ctx, string(models.ActionError), err.Error(), models.ActivityStatusFailed, item.Target, item.ID)
			result = models.CombinedResult{
				ChaseItemID: item.ID,
				AgentType:   models.AgentTypeOrchestrator,
				Action: models.Action{
					Type:    models.ActionError,
					Details: err.Error(),
					Status:  models.ActivityStatusFailed,
				},
				Timestamp: o.now(),
			}
		}
	}()

	now := o.now()
	policy := o.Route(item)
	prediction := o.predictor.Analyze(item, now)
	action := policy.Process(ctx, item, now)

	result = models.CombinedResult{
		ChaseItemID: item.ID,
		AgentType:   policy.AgentType(),
		Action:      action,
		Prediction:  prediction,
		Timestamp:   o.now(),
	}

	o.logAction(ctx, "orchestrated_task", fmt.Sprintf("Routed to %s, action: %s", policy.AgentType(), action.Type), models.ActivityStatusSuccess, item.Target, item.ID)
	o.setStatus(models.AgentStateIdle)
	return result
}

// Analyze builds the read-only combined view of an item: the routed
// policy's analysis plus the prediction. No status moves, no activity is
// emitted, nothing is sent.
func (o *Orchestrator) Analyze(item models.ChaseItem) models.AnalysisBundle {
	now := o.now()
	policy := o.Route(item)
	return models.AnalysisBundle{
		ChaseItemID: item.ID,
		Primary:     policy.Analyze(item, now),
		Prediction:  o.predictor.Analyze(item, now),
		GeneratedAt: now,
	}
}

// ProcessBatch partitions items by policy and processes each partition in
// input order, document items first. Every input yields exactly one result.
func (o *Orchestrator) ProcessBatch(ctx context.Context, items []models.ChaseItem) []models.CombinedResult {
	o.setStatus(models.AgentStateBatch)
	slog.Info("Orchestrator.ProcessBatch: processing batch", "items", len(items))

	var documentItems, loaItems []models.ChaseItem
	for _, item := range items {
		if o.Route(item).Kind() == PolicyLOA {
			loaItems = append(loaItems, item)
		} else {
			documentItems = append(documentItems, item)
		}
	}

	results := make([]models.CombinedResult, 0, len(items))
	for _, item := range documentItems {
		results = append(results, o.Process(ctx, item))
	}
	for _, item := range loaItems {
		results = append(results, o.Process(ctx, item))
	}

	o.setStatus(models.AgentStateIdle)
	return results
}

// AllStatuses reports every agent in the fleet, orchestrator last.
func (o *Orchestrator) AllStatuses() []models.AgentStatus {
	return []models.AgentStatus{
		o.documentChaser.Status(),
		o.loaChaser.Status(),
		o.predictor.Status(),
		o.Status(),
	}
}

// simulatedActions are the demo actions SimulateActivity picks from.
var simulatedActions = []string{
	"Sent reminder email to client",
	"Chased provider via phone",
	"Generated delay prediction",
	"Escalated to advisor",
	"Updated client status",
	"Analyzed response pattern",
}

var simulatedAgentTypes = []string{
	models.AgentTypeDocumentChaser,
	models.AgentTypeLOAChaser,
	models.AgentTypePredictor,
}

// SimulateActivity fabricates a random activity event for demo dashboards.
// The event is returned for broadcast but not persisted and does not touch
// any agent's status or counters.
func (o *Orchestrator) SimulateActivity() models.ActivityRecord {
	return models.ActivityRecord{
		ID:        uuid.NewString(),
		AgentType: simulatedAgentTypes[rand.IntN(len(simulatedAgentTypes))],
		Action:    simulatedActions[rand.IntN(len(simulatedActions))],
		Status:    models.ActivityStatusSuccess,
		Timestamp: o.now(),
	}
}
