// Package models defines the core data structures for the chase engine.
//
// It includes chase items, clients, communications, agent results and the
// shared API response envelope used across modules.
package models

import (
	"errors"
	"strings"
	"time"
)

// ChaseKind identifies what kind of outstanding item is being chased.
type ChaseKind string

const (
	// ChaseKindLOA is a letter of authority sent to a provider.
	ChaseKindLOA ChaseKind = "loa"
	// ChaseKindDocument is a document requested from a client.
	ChaseKindDocument ChaseKind = "document"
	// ChaseKindForm is a form requested from a client.
	ChaseKindForm ChaseKind = "form"
)

// ChaseCategory identifies who the item is outstanding with.
type ChaseCategory string

const (
	// CategoryClient means the item is outstanding with a client.
	CategoryClient ChaseCategory = "client"
	// CategoryProvider means the item is outstanding with a provider.
	CategoryProvider ChaseCategory = "provider"
)

// ChaseStatus represents the lifecycle state of a chase item.
type ChaseStatus string

const (
	// StatusPending indicates the item has been created but not yet sent.
	StatusPending ChaseStatus = "pending"
	// StatusSent indicates the item was sent and a response is awaited.
	StatusSent ChaseStatus = "sent"
	// StatusReceived indicates the response arrived; the item is closed.
	StatusReceived ChaseStatus = "received"
	// StatusOverdue indicates the item has exceeded its expected timeline.
	StatusOverdue ChaseStatus = "overdue"
	// StatusEscalated indicates the item was handed to a human advisor.
	StatusEscalated ChaseStatus = "escalated"
)

// Priority represents the urgency band assigned to a chase item.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Channel identifies the medium a reminder is delivered over.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelPhone Channel = "phone"
)

// Direction identifies whether a communication was sent or received.
type Direction string

const (
	DirectionOutbound Direction = "outbound"
	DirectionInbound  Direction = "inbound"
)

// Error variables for boundary validation and store lookups
var (
	ErrEmptyItemID     = errors.New("chase item id cannot be empty")
	ErrEmptyClientID   = errors.New("client id cannot be empty")
	ErrEmptyTarget     = errors.New("target cannot be empty")
	ErrInvalidKind     = errors.New("invalid chase kind")
	ErrInvalidCategory = errors.New("invalid chase category")
	ErrInvalidStatus   = errors.New("invalid chase status")
	ErrInvalidPriority = errors.New("invalid priority")
	ErrNegativeAttempt = errors.New("attempts cannot be negative")
	ErrNotFound        = errors.New("not found")
)

// IsValidChaseKind checks if the given kind is supported.
func IsValidChaseKind(k ChaseKind) bool {
	switch k {
	case ChaseKindLOA, ChaseKindDocument, ChaseKindForm:
		return true
	default:
		return false
	}
}

// IsValidChaseCategory checks if the given category is supported.
func IsValidChaseCategory(c ChaseCategory) bool {
	switch c {
	case CategoryClient, CategoryProvider:
		return true
	default:
		return false
	}
}

// IsValidChaseStatus checks if the given status is supported.
func IsValidChaseStatus(s ChaseStatus) bool {
	switch s {
	case StatusPending, StatusSent, StatusReceived, StatusOverdue, StatusEscalated:
		return true
	default:
		return false
	}
}

// IsValidPriority checks if the given priority is supported.
func IsValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

// ChaseItem is a single outstanding item an advisor is waiting on.
type ChaseItem struct {
	ID              string        `json:"id"`
	ClientID        string        `json:"client_id,omitempty"`
	ClientName      string        `json:"client_name,omitempty"`
	Kind            ChaseKind     `json:"type"`
	Category        ChaseCategory `json:"category"`
	Target          string        `json:"target"`
	Description     string        `json:"description,omitempty"`
	ReferenceNumber string        `json:"reference_number,omitempty"`
	Status          ChaseStatus   `json:"status"`
	Priority        Priority      `json:"priority"`
	SentDate        *time.Time    `json:"sent_date,omitempty"`
	ExpectedDate    *time.Time    `json:"expected_date,omitempty"`
	ReceivedDate    *time.Time    `json:"received_date,omitempty"`
	Attempts        int           `json:"attempts"`
	LastAttemptDate *time.Time    `json:"last_attempt_date,omitempty"`

	// PredictedDelayDays holds the most recent delay prediction, if any.
	PredictedDelayDays *int `json:"predicted_delay_days,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate performs boundary validation on a chase item.
func (c *ChaseItem) Validate() error {
	if c.ID == "" {
		return ErrEmptyItemID
	}
	if strings.TrimSpace(c.Target) == "" {
		return ErrEmptyTarget
	}
	if !IsValidChaseKind(c.Kind) {
		return ErrInvalidKind
	}
	if !IsValidChaseCategory(c.Category) {
		return ErrInvalidCategory
	}
	if !IsValidChaseStatus(c.Status) {
		return ErrInvalidStatus
	}
	if !IsValidPriority(c.Priority) {
		return ErrInvalidPriority
	}
	if c.Attempts < 0 {
		return ErrNegativeAttempt
	}
	return nil
}

// DaysSinceSent returns whole days elapsed between the sent date and now.
// A missing sent date counts as age zero, and a sent date in the future
// clamps to zero rather than going negative.
func (c *ChaseItem) DaysSinceSent(now time.Time) int {
	if c.SentDate == nil {
		return 0
	}
	days := int(now.Sub(*c.SentDate).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// ChaseItemCreate is the payload for registering a new chase item.
type ChaseItemCreate struct {
	ClientID        string        `json:"client_id,omitempty"`
	ClientName      string        `json:"client_name,omitempty"`
	Kind            ChaseKind     `json:"type"`
	Category        ChaseCategory `json:"category"`
	Target          string        `json:"target"`
	Description     string        `json:"description,omitempty"`
	ReferenceNumber string        `json:"reference_number,omitempty"`
	Priority        Priority      `json:"priority,omitempty"`
	SentDate        *time.Time    `json:"sent_date,omitempty"`
	ExpectedDate    *time.Time    `json:"expected_date,omitempty"`
}

// Validate validates a ChaseItemCreate payload. Priority defaults to
// medium when omitted, so only a present-but-unknown value is rejected.
func (r *ChaseItemCreate) Validate() error {
	if strings.TrimSpace(r.Target) == "" {
		return ErrEmptyTarget
	}
	if !IsValidChaseKind(r.Kind) {
		return ErrInvalidKind
	}
	if !IsValidChaseCategory(r.Category) {
		return ErrInvalidCategory
	}
	if r.Priority != "" && !IsValidPriority(r.Priority) {
		return ErrInvalidPriority
	}
	return nil
}

// Client is an advisory client whose items may be chased.
type Client struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email,omitempty"`
	Phone          string     `json:"phone,omitempty"`
	AdvisorID      string     `json:"advisor_id,omitempty"`
	RiskProfile    string     `json:"risk_profile,omitempty"`
	LastReviewDate *time.Time `json:"last_review_date,omitempty"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Communication is a single outbound or inbound message tied to a chase item.
type Communication struct {
	ID          string    `json:"id"`
	ChaseItemID string    `json:"chase_item_id"`
	Channel     Channel   `json:"channel"`
	Direction   Direction `json:"direction"`
	Recipient   string    `json:"recipient"`
	Subject     string    `json:"subject,omitempty"`
	Content     string    `json:"content"`
	Status      string    `json:"status,omitempty"`
	Read        bool      `json:"read"`
	SentAt      time.Time `json:"sent_at"`
}
