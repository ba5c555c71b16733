package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/models"
)

// chaseThresholds are the per-priority day counts the document chaser
// works from: remind once an item is reminderDays old, escalate once it
// is escalationDays old.
type chaseThresholds struct {
	reminderDays   int
	escalationDays int
}

var documentThresholds = map[models.Priority]chaseThresholds{
	models.PriorityUrgent: {reminderDays: 2, escalationDays: 5},
	models.PriorityHigh:   {reminderDays: 4, escalationDays: 7},
	models.PriorityMedium: {reminderDays: 7, escalationDays: 14},
	models.PriorityLow:    {reminderDays: 10, escalationDays: 21},
}

// thresholdsFor returns the thresholds for a priority, treating unknown
// values as medium.
func thresholdsFor(p models.Priority) chaseThresholds {
	if th, ok := documentThresholds[p]; ok {
		return th
	}
	return documentThresholds[models.PriorityMedium]
}

// DocumentChaser chases clients for missing documents and forms. It walks
// a channel ladder (email, then SMS, then phone) and a tone ladder that
// grows firmer with each attempt without ever becoming hostile.
type DocumentChaser struct {
	agentCore
}

// NewDocumentChaser creates a document chaser policy.
func NewDocumentChaser(opts ...Option) *DocumentChaser {
	return &DocumentChaser{
		agentCore: newAgentCore(DocumentChaserID, models.AgentTypeDocumentChaser, buildOpts(opts)),
	}
}

// Kind identifies this policy for routing.
func (d *DocumentChaser) Kind() PolicyKind { return PolicyDocument }

// AgentType returns the agent type name used in results and audit records.
func (d *DocumentChaser) AgentType() string { return models.AgentTypeDocumentChaser }

// Analyze derives the reminder/escalation view of an item at the given
// time. It is pure: no status mutation, no activity emission.
func (d *DocumentChaser) Analyze(item models.ChaseItem, now time.Time) models.PolicyAnalysis {
	days := item.DaysSinceSent(now)
	th := thresholdsFor(item.Priority)

	shouldRemind := days >= th.reminderDays && item.Attempts < MaxChaseAttempts && item.Status != models.StatusReceived
	shouldEscalate := days >= th.escalationDays || item.Attempts >= MaxChaseAttempts

	analysis := models.DocumentAnalysis{
		ShouldSendReminder: shouldRemind,
		ShouldEscalate:     shouldEscalate,
		DaysSinceSent:      days,
		Attempts:           item.Attempts,
		Priority:           item.Priority,
		RecommendedChannel: recommendChannel(item.Attempts),
		Tone:               determineTone(item.Attempts),
	}
	return models.PolicyAnalysis{
		AgentType: models.AgentTypeDocumentChaser,
		Document:  &analysis,
	}
}

// Process decides what to do about one client item at the given time:
// escalate, remind, or keep monitoring. Escalation wins when both
// conditions hold. The item itself is never mutated.
func (d *DocumentChaser) Process(ctx context.Context, item models.ChaseItem, now time.Time) models.Action {
	d.setStatus(models.AgentStateActive)

	if err := chaseable(item); err != nil {
		return d.failAction(ctx, item, err)
	}

	analysis := d.Analyze(item, now).Document
	slog.Debug("DocumentChaser.Process: analyzed item", "item_id", item.ID, "days_since_sent", analysis.DaysSinceSent, "attempts", analysis.Attempts, "remind", analysis.ShouldSendReminder, "escalate", analysis.ShouldEscalate)

	var action models.Action
	switch {
	case analysis.ShouldEscalate:
		action = models.Action{
			Type:              models.ActionEscalated,
			Details:           fmt.Sprintf("Escalated to advisor after %d attempts over %d days", analysis.Attempts, analysis.DaysSinceSent),
			Reason:            "Multiple attempts without response",
			RecommendedAction: "Personal phone call or meeting request",
		}
	case analysis.ShouldSendReminder:
		message := composeClientReminder(item, analysis.Tone)
		slog.Debug("DocumentChaser.Process: composed reminder", "item_id", item.ID, "channel", analysis.RecommendedChannel, "tone", analysis.Tone, "message", message)
		action = models.Action{
			Type:    models.ActionReminderSent,
			Details: fmt.Sprintf("Sent %s reminder via %s to %s", analysis.Tone, analysis.RecommendedChannel, item.Target),
			Channel: analysis.RecommendedChannel,
			Tone:    analysis.Tone,
			Message: message,
		}
	default:
		action = models.Action{
			Type:    models.ActionMonitor,
			Details: "Item within acceptable timeframe",
		}
	}

	d.logAction(ctx, string(action.Type), action.Details, models.ActivityStatusSuccess, item.Target, item.ID)
	d.setStatus(models.AgentStateIdle)
	return action
}

// recommendChannel walks the contact ladder by attempt count.
func recommendChannel(attempts int) models.Channel {
	switch {
	case attempts == 0:
		return models.ChannelEmail
	case attempts == 1:
		return models.ChannelSMS
	default:
		return models.ChannelPhone
	}
}

// determineTone walks the tone ladder by attempt count.
func determineTone(attempts int) models.Tone {
	switch {
	case attempts == 0:
		return models.ToneFriendly
	case attempts == 1:
		return models.ToneGentleReminder
	default:
		return models.ToneUrgentPolite
	}
}

// composeClientReminder renders the reminder body for a tone. Unknown
// tones fall back to the friendly template.
func composeClientReminder(item models.ChaseItem, tone models.Tone) string {
	firstName := clientFirstName(item.Target)
	documentType := item.Description
	if documentType == "" {
		documentType = "documents"
	}

	switch tone {
	case models.ToneGentleReminder:
		return fmt.Sprintf("Hi %s, just following up on our request for %s. I know these things can slip through the cracks! If there's anything unclear or if you're having trouble finding what we need, I'm here to help.", firstName, documentType)
	case models.ToneUrgentPolite:
		return fmt.Sprintf("Hi %s, I wanted to reach out one more time about %s. We really need these to finalize your advice and I don't want any delays on your end. Could you let me know if there's anything blocking you from sending these over? Happy to help in any way!", firstName, documentType)
	default:
		return fmt.Sprintf("Hi %s, I hope you're doing well! Just a friendly reminder that we're still waiting for your %s. No rush, but whenever you get a chance, it would help us move forward with your advice. Let me know if you need any help!", firstName, documentType)
	}
}

// clientFirstName extracts the first name from a target.
func clientFirstName(target string) string {
	fields := strings.Fields(target)
	if len(fields) == 0 {
		return target
	}
	return fields[0]
}
