package agents

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/models"
)

// ModelVersion tags every prediction so stored results stay comparable if
// the scoring rules change.
const ModelVersion = "v1.0"

// Predictor estimates delay risk for chase items with a fixed, rule-based
// scoring model. Same item, same now, same output; there is no learned
// state and no randomness.
type Predictor struct {
	agentCore
}

// NewPredictor creates a delay predictor.
func NewPredictor(opts ...Option) *Predictor {
	return &Predictor{
		agentCore: newAgentCore(PredictorID, models.AgentTypePredictor, buildOpts(opts)),
	}
}

// AgentType returns the agent type name used in results and audit records.
func (p *Predictor) AgentType() string { return models.AgentTypePredictor }

// itemFeatures is the flat feature view the scoring rules read from.
type itemFeatures struct {
	kind          models.ChaseKind
	category      models.ChaseCategory
	priority      models.Priority
	daysSinceSent int
	attempts      int
	isPeakSeason  bool
	isWeekend     bool
}

// peakSeasonMonths are the tax-year transition months when providers run slow.
var peakSeasonMonths = map[time.Month]bool{
	time.December: true,
	time.January:  true,
	time.March:    true,
	time.April:    true,
}

// extractFeatures flattens an item and the current time into the inputs
// the scoring rules use.
func extractFeatures(item models.ChaseItem, now time.Time) itemFeatures {
	wd := now.Weekday()
	return itemFeatures{
		kind:          item.Kind,
		category:      item.Category,
		priority:      item.Priority,
		daysSinceSent: item.DaysSinceSent(now),
		attempts:      item.Attempts,
		isPeakSeason:  peakSeasonMonths[now.Month()],
		isWeekend:     wd == time.Saturday || wd == time.Sunday,
	}
}

// Analyze produces the deterministic risk and delay estimate for an item
// at the given time. It is pure: no status mutation, no activity emission.
func (p *Predictor) Analyze(item models.ChaseItem, now time.Time) models.PredictionResult {
	features := extractFeatures(item, now)
	score := riskScore(features)
	delay := predictDelay(features, score)

	return models.PredictionResult{
		ChaseItemID:        item.ID,
		PredictedDelayDays: delay,
		Confidence:         float64(score) / 100,
		RiskFactors:        riskFactors(features),
		Recommendation:     recommendation(score),
		ModelVersion:       ModelVersion,
		GeneratedAt:        now,
	}
}

// BatchAnalyze produces one prediction per item, in input order.
func (p *Predictor) BatchAnalyze(items []models.ChaseItem, now time.Time) []models.PredictionResult {
	predictions := make([]models.PredictionResult, 0, len(items))
	for _, item := range items {
		predictions = append(predictions, p.Analyze(item, now))
	}
	return predictions
}

// Process generates a prediction for one item and records the
// prediction_generated activity. Invalid items return an error.
func (p *Predictor) Process(ctx context.Context, item models.ChaseItem) (models.PredictionResult, error) {
	p.setStatus(models.AgentStateActive)

	if err := chaseable(item); err != nil {
		slog.Error("Predictor.Process: invalid item", "item_id", item.ID, "error", err)
		p.setStatus(models.AgentStateError)
		p.logAction(ctx, string(models.ActionError), err.Error(), models.ActivityStatusFailed, item.Target, item.ID)
		return models.PredictionResult{}, err
	}

	prediction := p.Analyze(item, p.now())
	details := fmt.Sprintf("Predicted %d day delay with %.0f%% confidence", prediction.PredictedDelayDays, prediction.Confidence*100)
	p.logAction(ctx, "prediction_generated", details, models.ActivityStatusSuccess, item.Target, item.ID)
	p.setStatus(models.AgentStateIdle)
	return prediction, nil
}

// riskScore applies the additive scoring rules and clamps to [0, 100].
func riskScore(f itemFeatures) int {
	score := 0

	// Providers generally respond slower than clients.
	if f.category == models.CategoryProvider {
		score += 40
	} else {
		score += 20
	}

	if f.daysSinceSent > 14 {
		score += 20
	} else if f.daysSinceSent > 7 {
		score += 10
	}

	score += f.attempts * 10

	switch f.priority {
	case models.PriorityUrgent:
		score += 15
	case models.PriorityHigh:
		score += 10
	case models.PriorityMedium:
		score += 5
	case models.PriorityLow:
		// no bonus
	default:
		score += 5
	}

	if f.isPeakSeason {
		score += 15
	}
	if f.isWeekend {
		score += 5
	}

	if score > 100 {
		score = 100
	}
	return score
}

// predictDelay estimates delay days from the category base, the risk
// multiplier and an attempt penalty.
func predictDelay(f itemFeatures, score int) int {
	baseDelay := 7
	if f.category == models.CategoryProvider {
		baseDelay = 15
	}

	// score/50 gives a 0-2x multiplier, truncated to whole days.
	predicted := baseDelay * score / 50
	predicted += f.attempts * 3
	return predicted
}

// riskFactors names the conditions driving the score. At least one factor
// is always returned.
func riskFactors(f itemFeatures) []string {
	var factors []string

	if f.daysSinceSent > 14 {
		factors = append(factors, "Already delayed beyond typical timeline")
	}
	if f.attempts >= 2 {
		factors = append(factors, "Multiple chase attempts with no response")
	}
	if f.isPeakSeason {
		factors = append(factors, "Peak season - providers experiencing high volume")
	}
	if f.category == models.CategoryProvider && f.attempts == 0 {
		factors = append(factors, "Provider LOAs typically take 15-20 days")
	}
	if f.isWeekend {
		factors = append(factors, "Submitted on weekend - processing may be delayed")
	}
	if f.priority == models.PriorityUrgent && f.daysSinceSent > 3 {
		factors = append(factors, "Urgent item not responded to quickly")
	}

	if len(factors) == 0 {
		return []string{"Low risk - tracking normally"}
	}
	return factors
}

// recommendation maps the risk score to an advisory band.
func recommendation(score int) string {
	switch {
	case score >= 80:
		return "HIGH RISK: Immediate escalation recommended. Consider direct phone contact with relationship manager."
	case score >= 60:
		return "MODERATE RISK: Proactive chase recommended. Follow up via phone if no response within 48 hours."
	case score >= 40:
		return "LOW-MODERATE RISK: Send friendly reminder. Monitor for response within 5 business days."
	default:
		return "LOW RISK: Continue monitoring. Item within expected timeline. No immediate action required."
	}
}
