package models

import "time"

// AgentState represents the operational state of an agent.
type AgentState string

const (
	// AgentStateIdle indicates the agent is waiting for work.
	AgentStateIdle AgentState = "idle"
	// AgentStateActive indicates the agent is processing an item.
	AgentStateActive AgentState = "active"
	// AgentStateBatch indicates the agent is working through a batch.
	AgentStateBatch AgentState = "batch_processing"
	// AgentStateError indicates the agent's last call failed.
	AgentStateError AgentState = "error"
)

// Agent type names shared by results, activity records and status reports.
const (
	AgentTypeDocumentChaser = "document_chaser"
	AgentTypeLOAChaser      = "loa_chaser"
	AgentTypePredictor      = "predictor"
	AgentTypeOrchestrator   = "orchestrator"
)

// AgentStatus is a point-in-time snapshot of a single agent.
type AgentStatus struct {
	AgentID        string     `json:"agent_id"`
	AgentType      string     `json:"agent_type"`
	Status         AgentState `json:"status"`
	LastAction     string     `json:"last_action,omitempty"`
	LastActionTime *time.Time `json:"last_action_time,omitempty"`
	ItemsProcessed int        `json:"items_processed"`
}

// Activity record outcome values.
const (
	ActivityStatusSuccess = "success"
	ActivityStatusFailed  = "failed"
	ActivityStatusPending = "pending"
)

// ActivityRecord is the audit entry an agent emits once per processed item.
type ActivityRecord struct {
	ID          string    `json:"id"`
	AgentID     string    `json:"agent_id"`
	AgentType   string    `json:"agent_type"`
	Action      string    `json:"action"`
	Target      string    `json:"target,omitempty"`
	ChaseItemID string    `json:"chase_item_id,omitempty"`
	Status      string    `json:"status"`
	Details     string    `json:"details,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// ActionType names the decision a chase policy arrived at.
type ActionType string

const (
	// ActionReminderSent means a client reminder was composed and issued.
	ActionReminderSent ActionType = "reminder_sent"
	// ActionEscalated means the item was handed back to the advisor.
	ActionEscalated ActionType = "escalated"
	// ActionProviderChased means a provider follow-up was composed and issued.
	ActionProviderChased ActionType = "provider_chased"
	// ActionEscalatedToManager means a provider breach was raised to management.
	ActionEscalatedToManager ActionType = "escalated_to_manager"
	// ActionMonitor means the item is within its timeline; nothing was sent.
	ActionMonitor ActionType = "monitor"
	// ActionError means processing failed; details carry the cause.
	ActionError ActionType = "error"
)

// IsChasing reports whether the action actually contacted someone, as
// opposed to monitoring, escalating internally or failing.
func (a ActionType) IsChasing() bool {
	return a == ActionReminderSent || a == ActionProviderChased
}

// IsEscalation reports whether the action hands the item to a human.
func (a ActionType) IsEscalation() bool {
	return a == ActionEscalated || a == ActionEscalatedToManager
}

// Tone is the register a client reminder is written in. Tones escalate
// with the attempt count but never become hostile.
type Tone string

const (
	ToneFriendly       Tone = "friendly"
	ToneGentleReminder Tone = "gentle_reminder"
	ToneUrgentPolite   Tone = "urgent_but_polite"
)

// ChaseMethod is the contact approach for provider follow-ups.
type ChaseMethod string

const (
	MethodEmail          ChaseMethod = "email"
	MethodPhoneAndEmail  ChaseMethod = "phone_and_email"
	MethodEscalatedPhone ChaseMethod = "escalated_phone"
)

// Action is the structured outcome of a single policy Process call.
// Fields beyond Type and Details are populated per action type: reminders
// carry channel/tone/message, provider chases carry method/urgency/message,
// escalations carry reason/recommended action, errors carry Status=failed.
type Action struct {
	Type              ActionType  `json:"action"`
	Details           string      `json:"details,omitempty"`
	Channel           Channel     `json:"channel,omitempty"`
	Tone              Tone        `json:"tone,omitempty"`
	Method            ChaseMethod `json:"method,omitempty"`
	Message           string      `json:"message,omitempty"`
	Urgency           int         `json:"urgency,omitempty"`
	Reason            string      `json:"reason,omitempty"`
	RecommendedAction string      `json:"recommended_action,omitempty"`
	ComplianceAlert   bool        `json:"compliance_alert,omitempty"`
	Status            string      `json:"status,omitempty"`
}

// DocumentAnalysis is the read-only view the document chaser derives
// from a client item.
type DocumentAnalysis struct {
	ShouldSendReminder bool     `json:"should_send_reminder"`
	ShouldEscalate     bool     `json:"should_escalate"`
	DaysSinceSent      int      `json:"days_since_sent"`
	Attempts           int      `json:"attempts"`
	Priority           Priority `json:"priority"`
	RecommendedChannel Channel  `json:"recommended_channel"`
	Tone               Tone     `json:"tone"`
}

// ProviderAnalysis is the read-only view the LOA chaser derives from a
// provider item.
type ProviderAnalysis struct {
	Provider          string `json:"provider"`
	IsOverdue         bool   `json:"is_overdue"`
	ShouldEscalate    bool   `json:"should_escalate"`
	DaysSinceSent     int    `json:"days_since_sent"`
	ExpectedDays      int    `json:"expected_days"`
	OverdueBy         int    `json:"overdue_by"`
	UrgencyScore      int    `json:"urgency_score"`
	Attempts          int    `json:"attempts"`
	RecommendedAction string `json:"recommended_action"`
}

// PolicyAnalysis is a tagged view of a single policy's analysis. Exactly
// one of Document or Provider is set, matching AgentType.
type PolicyAnalysis struct {
	AgentType string            `json:"agent_type"`
	Document  *DocumentAnalysis `json:"document,omitempty"`
	Provider  *ProviderAnalysis `json:"provider,omitempty"`
}

// PredictionResult is the deterministic risk and delay estimate for an item.
type PredictionResult struct {
	ChaseItemID        string    `json:"chase_item_id"`
	PredictedDelayDays int       `json:"predicted_delay_days"`
	Confidence         float64   `json:"confidence"`
	RiskFactors        []string  `json:"risk_factors"`
	Recommendation     string    `json:"recommendation"`
	ModelVersion       string    `json:"model_version"`
	GeneratedAt        time.Time `json:"generated_at"`
}

// CombinedResult is the orchestrator's merged outcome: the routed policy's
// action plus the predictor's estimate for the same item.
type CombinedResult struct {
	ChaseItemID string           `json:"chase_item_id"`
	AgentType   string           `json:"agent_type"`
	Action      Action           `json:"action"`
	Prediction  PredictionResult `json:"prediction"`
	Timestamp   time.Time        `json:"orchestrator_timestamp"`
}

// AnalysisBundle is the orchestrator's read-only combined view of an item.
type AnalysisBundle struct {
	ChaseItemID string           `json:"chase_item_id"`
	Primary     PolicyAnalysis   `json:"primary_agent"`
	Prediction  PredictionResult `json:"prediction"`
	GeneratedAt time.Time        `json:"generated_at"`
}
