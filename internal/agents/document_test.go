package agents

import (
	"context"
	"strings"
	"testing"

	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/models"
)

func documentItem(mutate func(*models.ChaseItem)) models.ChaseItem {
	item := models.ChaseItem{
		ID:          "chs_doc",
		Kind:        models.ChaseKindDocument,
		Category:    models.CategoryClient,
		Target:      "John Smith",
		Description: "signed risk questionnaire",
		Status:      models.StatusSent,
		Priority:    models.PriorityMedium,
		SentDate:    sentDaysAgo(testNow, 0),
	}
	if mutate != nil {
		mutate(&item)
	}
	return item
}

func TestDocumentAnalyzeThresholds(t *testing.T) {
	tests := []struct {
		name         string
		priority     models.Priority
		days         int
		attempts     int
		status       models.ChaseStatus
		wantRemind   bool
		wantEscalate bool
	}{
		{"high at reminder threshold", models.PriorityHigh, 5, 0, models.StatusSent, true, false},
		{"high below reminder threshold", models.PriorityHigh, 3, 0, models.StatusSent, false, false},
		{"high at escalation threshold", models.PriorityHigh, 7, 0, models.StatusSent, true, true},
		{"urgent reminds after two days", models.PriorityUrgent, 2, 0, models.StatusSent, true, false},
		{"urgent escalates after five days", models.PriorityUrgent, 5, 0, models.StatusSent, true, true},
		{"medium reminds after a week", models.PriorityMedium, 8, 1, models.StatusSent, true, false},
		{"low waits ten days", models.PriorityLow, 9, 0, models.StatusSent, false, false},
		{"low reminds at ten days", models.PriorityLow, 10, 0, models.StatusSent, true, false},
		{"low escalates at three weeks", models.PriorityLow, 21, 0, models.StatusSent, true, true},
		{"unknown priority uses medium thresholds", "critical", 8, 0, models.StatusSent, true, false},
		{"attempt ceiling blocks reminder", models.PriorityMedium, 8, 3, models.StatusSent, false, true},
		{"attempt ceiling escalates regardless of age", models.PriorityMedium, 0, 4, models.StatusSent, false, true},
		{"received items are not reminded", models.PriorityMedium, 8, 0, models.StatusReceived, false, false},
	}

	d := NewDocumentChaser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := documentItem(func(c *models.ChaseItem) {
				c.Priority = tt.priority
				c.Attempts = tt.attempts
				c.Status = tt.status
				c.SentDate = sentDaysAgo(testNow, tt.days)
			})

			analysis := d.Analyze(item, testNow).Document
			if analysis == nil {
				t.Fatal("document analysis missing from policy analysis")
			}
			if analysis.ShouldSendReminder != tt.wantRemind {
				t.Errorf("ShouldSendReminder = %v, want %v", analysis.ShouldSendReminder, tt.wantRemind)
			}
			if analysis.ShouldEscalate != tt.wantEscalate {
				t.Errorf("ShouldEscalate = %v, want %v", analysis.ShouldEscalate, tt.wantEscalate)
			}
			if analysis.DaysSinceSent != tt.days {
				t.Errorf("DaysSinceSent = %d, want %d", analysis.DaysSinceSent, tt.days)
			}
		})
	}
}

func TestDocumentLadders(t *testing.T) {
	tests := []struct {
		attempts    int
		wantChannel models.Channel
		wantTone    models.Tone
	}{
		{0, models.ChannelEmail, models.ToneFriendly},
		{1, models.ChannelSMS, models.ToneGentleReminder},
		{2, models.ChannelPhone, models.ToneUrgentPolite},
		{5, models.ChannelPhone, models.ToneUrgentPolite},
	}

	for _, tt := range tests {
		if got := recommendChannel(tt.attempts); got != tt.wantChannel {
			t.Errorf("recommendChannel(%d) = %q, want %q", tt.attempts, got, tt.wantChannel)
		}
		if got := determineTone(tt.attempts); got != tt.wantTone {
			t.Errorf("determineTone(%d) = %q, want %q", tt.attempts, got, tt.wantTone)
		}
	}
}

// First reminder on a five day old high priority item goes out friendly,
// by email.
func TestDocumentProcessFirstReminder(t *testing.T) {
	sink := &recordingSink{}
	d := NewDocumentChaser(WithClock(fixedClock(testNow)), WithSink(sink))

	item := documentItem(func(c *models.ChaseItem) {
		c.Priority = models.PriorityHigh
		c.SentDate = sentDaysAgo(testNow, 5)
	})

	action := d.Process(context.Background(), item, testNow)
	if action.Type != models.ActionReminderSent {
		t.Fatalf("action = %q, want %q", action.Type, models.ActionReminderSent)
	}
	if action.Channel != models.ChannelEmail {
		t.Errorf("channel = %q, want %q", action.Channel, models.ChannelEmail)
	}
	if action.Tone != models.ToneFriendly {
		t.Errorf("tone = %q, want %q", action.Tone, models.ToneFriendly)
	}
	if !strings.Contains(action.Message, "Hi John,") {
		t.Errorf("message should greet the client by first name, got %q", action.Message)
	}
	if !strings.Contains(action.Message, "signed risk questionnaire") {
		t.Errorf("message should name the outstanding item, got %q", action.Message)
	}
	if want := "Sent friendly reminder via email to John Smith"; action.Details != want {
		t.Errorf("details = %q, want %q", action.Details, want)
	}

	rec := sink.last(t)
	if rec.Action != string(models.ActionReminderSent) || rec.Status != models.ActivityStatusSuccess {
		t.Errorf("activity = %s/%s, want reminder_sent/success", rec.Action, rec.Status)
	}
	if rec.ChaseItemID != item.ID {
		t.Errorf("activity chase item = %q, want %q", rec.ChaseItemID, item.ID)
	}
	if st := d.Status(); st.Status != models.AgentStateIdle || st.ItemsProcessed != 1 {
		t.Errorf("status after process = %s/%d, want idle/1", st.Status, st.ItemsProcessed)
	}
}

// Four attempts escalate immediately even though the item is only a day old.
func TestDocumentProcessEscalatesOnAttemptCeiling(t *testing.T) {
	d := NewDocumentChaser(WithClock(fixedClock(testNow)))

	item := documentItem(func(c *models.ChaseItem) {
		c.Priority = models.PriorityUrgent
		c.Attempts = 4
		c.SentDate = sentDaysAgo(testNow, 1)
	})

	action := d.Process(context.Background(), item, testNow)
	if action.Type != models.ActionEscalated {
		t.Fatalf("action = %q, want %q", action.Type, models.ActionEscalated)
	}
	if action.Reason != "Multiple attempts without response" {
		t.Errorf("reason = %q", action.Reason)
	}
	if action.RecommendedAction != "Personal phone call or meeting request" {
		t.Errorf("recommended action = %q", action.RecommendedAction)
	}
	if want := "Escalated to advisor after 4 attempts over 1 days"; action.Details != want {
		t.Errorf("details = %q, want %q", action.Details, want)
	}
}

// When an item qualifies for both a reminder and an escalation, escalation
// wins.
func TestDocumentProcessEscalationPrecedence(t *testing.T) {
	d := NewDocumentChaser(WithClock(fixedClock(testNow)))

	item := documentItem(func(c *models.ChaseItem) {
		c.Priority = models.PriorityMedium
		c.Attempts = 1
		c.SentDate = sentDaysAgo(testNow, 15)
	})

	analysis := d.Analyze(item, testNow).Document
	if !analysis.ShouldSendReminder || !analysis.ShouldEscalate {
		t.Fatalf("test item should qualify for both, got remind=%v escalate=%v", analysis.ShouldSendReminder, analysis.ShouldEscalate)
	}

	action := d.Process(context.Background(), item, testNow)
	if action.Type != models.ActionEscalated {
		t.Errorf("action = %q, want %q", action.Type, models.ActionEscalated)
	}
}

func TestDocumentProcessMonitorsFreshItems(t *testing.T) {
	d := NewDocumentChaser(WithClock(fixedClock(testNow)))

	item := documentItem(nil) // sent today
	action := d.Process(context.Background(), item, testNow)
	if action.Type != models.ActionMonitor {
		t.Fatalf("action = %q, want %q", action.Type, models.ActionMonitor)
	}
	if action.Details != "Item within acceptable timeframe" {
		t.Errorf("details = %q", action.Details)
	}

	// Missing sent date counts as age zero.
	item = documentItem(func(c *models.ChaseItem) { c.SentDate = nil })
	if action := d.Process(context.Background(), item, testNow); action.Type != models.ActionMonitor {
		t.Errorf("missing sent date: action = %q, want %q", action.Type, models.ActionMonitor)
	}

	// A future sent date clamps to zero instead of going negative.
	item = documentItem(func(c *models.ChaseItem) { c.SentDate = sentDaysAgo(testNow, -5) })
	if action := d.Process(context.Background(), item, testNow); action.Type != models.ActionMonitor {
		t.Errorf("future sent date: action = %q, want %q", action.Type, models.ActionMonitor)
	}
}

// A failing item flips the agent to error and yields a structured error
// action; the next call succeeds independently.
func TestDocumentProcessErrorRecovery(t *testing.T) {
	sink := &recordingSink{}
	d := NewDocumentChaser(WithClock(fixedClock(testNow)), WithSink(sink))

	bad := documentItem(func(c *models.ChaseItem) { c.Target = "   " })
	action := d.Process(context.Background(), bad, testNow)
	if action.Type != models.ActionError {
		t.Fatalf("action = %q, want %q", action.Type, models.ActionError)
	}
	if action.Status != models.ActivityStatusFailed {
		t.Errorf("action status = %q, want %q", action.Status, models.ActivityStatusFailed)
	}
	if action.Details == "" {
		t.Error("error action should carry details")
	}

	st := d.Status()
	if st.Status != models.AgentStateError {
		t.Errorf("agent status = %q, want %q", st.Status, models.AgentStateError)
	}
	if st.ItemsProcessed != 1 {
		t.Errorf("ItemsProcessed = %d, want 1 (failures still count)", st.ItemsProcessed)
	}
	if rec := sink.last(t); rec.Status != models.ActivityStatusFailed {
		t.Errorf("activity status = %q, want %q", rec.Status, models.ActivityStatusFailed)
	}

	good := documentItem(nil)
	if action := d.Process(context.Background(), good, testNow); action.Type != models.ActionMonitor {
		t.Fatalf("recovery call action = %q, want %q", action.Type, models.ActionMonitor)
	}
	if st := d.Status(); st.Status != models.AgentStateIdle || st.ItemsProcessed != 2 {
		t.Errorf("status after recovery = %s/%d, want idle/2", st.Status, st.ItemsProcessed)
	}
}

func TestComposeClientReminderFallsBackToFriendly(t *testing.T) {
	item := documentItem(nil)

	got := composeClientReminder(item, "sarcastic")
	want := composeClientReminder(item, models.ToneFriendly)
	if got != want {
		t.Errorf("unknown tone should render the friendly template, got %q", got)
	}

	// Missing description falls back to a generic noun.
	item.Description = ""
	if msg := composeClientReminder(item, models.ToneFriendly); !strings.Contains(msg, "your documents") {
		t.Errorf("message should fall back to generic wording, got %q", msg)
	}
}
