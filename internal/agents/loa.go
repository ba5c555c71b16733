package agents

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/knowledge"
	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/models"
)

// LOAEscalationDays is the hard ceiling on provider response time. Past it
// an LOA escalates to management regardless of the provider's own average.
const LOAEscalationDays = 30

// LOAChaser chases pension providers for letter-of-authority responses.
// Each provider is judged against its own expected response time from the
// knowledge directory, with a 20% grace buffer on top.
type LOAChaser struct {
	agentCore
	directory *knowledge.Directory
}

// NewLOAChaser creates an LOA chaser policy backed by the given provider
// directory. A nil directory falls back to the built-in provider averages.
func NewLOAChaser(directory *knowledge.Directory, opts ...Option) *LOAChaser {
	if directory == nil {
		directory = knowledge.NewDirectory()
	}
	return &LOAChaser{
		agentCore: newAgentCore(LOAChaserID, models.AgentTypeLOAChaser, buildOpts(opts)),
		directory: directory,
	}
}

// Kind identifies this policy for routing.
func (l *LOAChaser) Kind() PolicyKind { return PolicyLOA }

// AgentType returns the agent type name used in results and audit records.
func (l *LOAChaser) AgentType() string { return models.AgentTypeLOAChaser }

// Analyze judges an LOA against the provider's expected timeline at the
// given time. It is pure: no status mutation, no activity emission.
func (l *LOAChaser) Analyze(item models.ChaseItem, now time.Time) models.PolicyAnalysis {
	profile := l.directory.Lookup(item.Target)
	expectedDays := profile.AvgResponseDays

	// 20% grace buffer, truncated to whole days.
	overdueThreshold := expectedDays + expectedDays/5
	days := item.DaysSinceSent(now)

	urgency := 100
	if overdueThreshold > 0 {
		urgency = days * 100 / overdueThreshold
		if urgency > 100 {
			urgency = 100
		}
	}

	overdueBy := days - overdueThreshold
	if overdueBy < 0 {
		overdueBy = 0
	}

	analysis := models.ProviderAnalysis{
		Provider:          item.Target,
		IsOverdue:         days >= overdueThreshold,
		ShouldEscalate:    item.Attempts >= MaxChaseAttempts || days >= LOAEscalationDays,
		DaysSinceSent:     days,
		ExpectedDays:      expectedDays,
		OverdueBy:         overdueBy,
		UrgencyScore:      urgency,
		Attempts:          item.Attempts,
		RecommendedAction: recommendProviderAction(days),
	}
	return models.PolicyAnalysis{
		AgentType: models.AgentTypeLOAChaser,
		Provider:  &analysis,
	}
}

// Process decides what to do about one provider item at the given time:
// escalate to a manager, chase the provider, or keep monitoring. Escalation
// wins when an item is both overdue and past the escalation limits.
func (l *LOAChaser) Process(ctx context.Context, item models.ChaseItem, now time.Time) models.Action {
	l.setStatus(models.AgentStateActive)

	if err := chaseable(item); err != nil {
		return l.failAction(ctx, item, err)
	}

	analysis := l.Analyze(item, now).Provider
	slog.Debug("LOAChaser.Process: analyzed item", "item_id", item.ID, "provider", analysis.Provider, "days_since_sent", analysis.DaysSinceSent, "overdue", analysis.IsOverdue, "escalate", analysis.ShouldEscalate, "urgency", analysis.UrgencyScore)

	var action models.Action
	switch {
	case analysis.ShouldEscalate:
		action = models.Action{
			Type:              models.ActionEscalatedToManager,
			Details:           fmt.Sprintf("Escalated %s LOA after %d attempts over %d days", analysis.Provider, analysis.Attempts, analysis.DaysSinceSent),
			Reason:            "Exceeded maximum attempts or 30-day threshold",
			RecommendedAction: "Contact provider relationship manager or file formal complaint",
			ComplianceAlert:   true,
		}
	case analysis.IsOverdue:
		method := determineChaseMethod(analysis.Attempts, analysis.UrgencyScore)
		action = models.Action{
			Type:    models.ActionProviderChased,
			Details: fmt.Sprintf("Chased %s via %s - %d days overdue", analysis.Provider, method, analysis.OverdueBy),
			Method:  method,
			Message: composeProviderMessage(item, analysis),
			Urgency: analysis.UrgencyScore,
		}
	default:
		action = models.Action{
			Type:    models.ActionMonitor,
			Details: "Within expected timeframe",
		}
	}

	l.logAction(ctx, string(action.Type), action.Details, models.ActivityStatusSuccess, item.Target, item.ID)
	l.setStatus(models.AgentStateIdle)
	return action
}

// determineChaseMethod picks the contact approach from the attempt count
// and urgency score.
func determineChaseMethod(attempts, urgency int) models.ChaseMethod {
	switch {
	case attempts == 0 && urgency < 50:
		return models.MethodEmail
	case attempts == 1 || urgency < 75:
		return models.MethodPhoneAndEmail
	default:
		return models.MethodEscalatedPhone
	}
}

// recommendProviderAction bands the elapsed days into a next step.
func recommendProviderAction(daysSinceSent int) string {
	switch {
	case daysSinceSent < 10:
		return "monitor"
	case daysSinceSent < 20:
		return "send_polite_reminder"
	case daysSinceSent < 30:
		return "phone_chase_urgent"
	default:
		return "escalate_to_manager"
	}
}

// composeProviderMessage renders the provider follow-up in three tiers
// keyed by attempt count. Tiers past the first name the overdue amount,
// and the final tier is marked urgent.
func composeProviderMessage(item models.ChaseItem, analysis *models.ProviderAnalysis) string {
	clientName := item.ClientName
	if clientName == "" {
		clientName = "client"
	}
	reference := item.ReferenceNumber
	if reference == "" {
		reference = "N/A"
	}

	switch {
	case analysis.Attempts == 0:
		return fmt.Sprintf("Reference: %s. Following up on LOA submitted %d days ago for %s. Please confirm receipt and expected processing timeline.", reference, analysis.DaysSinceSent, clientName)
	case analysis.Attempts == 1:
		return fmt.Sprintf("Reference: %s. Second follow-up on LOA for %s, submitted %d days ago. This is now %d days beyond your standard processing time. Please provide status update urgently.", reference, clientName, analysis.DaysSinceSent, analysis.OverdueBy)
	default:
		return fmt.Sprintf("URGENT - Reference: %s. Final follow-up on LOA for %s. Submitted %d days ago, now %d days beyond your standard processing time, with no response. Client is waiting for advice. Please escalate to your relationship manager or provide immediate status update.", reference, clientName, analysis.DaysSinceSent, analysis.OverdueBy)
	}
}
