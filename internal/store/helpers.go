package store

import (
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/models"
)

const (
	dayFormat       = "2006-01-02"
	trendWindowDays = 7
)

// Column lists shared by the SQL backends and the squirrel builders.
var (
	clientColumns = []string{
		"id", "name", "email", "phone", "advisor_id", "risk_profile",
		"last_review_date", "status", "created_at",
	}
	chaseItemColumns = []string{
		"id", "client_id", "client_name", "type", "category", "target",
		"description", "reference_number", "status", "priority",
		"sent_date", "expected_date", "received_date", "attempts",
		"last_attempt_date", "predicted_delay_days", "created_at", "updated_at",
	}
	activityColumns = []string{
		"id", "agent_id", "agent_type", "action", "target",
		"chase_item_id", "status", "details", "timestamp",
	}
	communicationColumns = []string{
		"id", "chase_item_id", "channel", "direction", "recipient",
		"subject", "content", "status", "read", "sent_at",
	}
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows, so each entity
// needs only one scan function.
type rowScanner interface {
	Scan(dest ...any) error
}

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// nullTimePtr converts a nullable scan target into the model's pointer form.
func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	tt := t.Time
	return &tt
}

// scanClient scans one clients row.
func scanClient(row rowScanner) (models.Client, error) {
	var c models.Client
	var email, phone, advisorID, riskProfile sql.NullString
	var lastReview sql.NullTime
	err := row.Scan(
		&c.ID, &c.Name, &email, &phone, &advisorID, &riskProfile,
		&lastReview, &c.Status, &c.CreatedAt,
	)
	if err != nil {
		return c, fmt.Errorf("scan client failed: %w", err)
	}
	c.Email = email.String
	c.Phone = phone.String
	c.AdvisorID = advisorID.String
	c.RiskProfile = riskProfile.String
	c.LastReviewDate = nullTimePtr(lastReview)
	return c, nil
}

// scanChaseItem scans one chase_items row.
func scanChaseItem(row rowScanner) (models.ChaseItem, error) {
	var item models.ChaseItem
	var clientID, clientName, description, reference sql.NullString
	var kind, category, status, priority string
	var sentDate, expectedDate, receivedDate, lastAttempt sql.NullTime
	var predictedDelay sql.NullInt64
	err := row.Scan(
		&item.ID, &clientID, &clientName, &kind, &category, &item.Target,
		&description, &reference, &status, &priority,
		&sentDate, &expectedDate, &receivedDate, &item.Attempts,
		&lastAttempt, &predictedDelay, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return item, fmt.Errorf("scan chase item failed: %w", err)
	}
	item.ClientID = clientID.String
	item.ClientName = clientName.String
	item.Kind = models.ChaseKind(kind)
	item.Category = models.ChaseCategory(category)
	item.Description = description.String
	item.ReferenceNumber = reference.String
	item.Status = models.ChaseStatus(status)
	item.Priority = models.Priority(priority)
	item.SentDate = nullTimePtr(sentDate)
	item.ExpectedDate = nullTimePtr(expectedDate)
	item.ReceivedDate = nullTimePtr(receivedDate)
	item.LastAttemptDate = nullTimePtr(lastAttempt)
	if predictedDelay.Valid {
		d := int(predictedDelay.Int64)
		item.PredictedDelayDays = &d
	}
	return item, nil
}

// scanActivity scans one agent_activities row.
func scanActivity(row rowScanner) (models.ActivityRecord, error) {
	var rec models.ActivityRecord
	var target, chaseItemID, details sql.NullString
	err := row.Scan(
		&rec.ID, &rec.AgentID, &rec.AgentType, &rec.Action, &target,
		&chaseItemID, &rec.Status, &details, &rec.Timestamp,
	)
	if err != nil {
		return rec, fmt.Errorf("scan activity failed: %w", err)
	}
	rec.Target = target.String
	rec.ChaseItemID = chaseItemID.String
	rec.Details = details.String
	return rec, nil
}

// scanCommunication scans one communications row.
func scanCommunication(row rowScanner) (models.Communication, error) {
	var comm models.Communication
	var channel, direction string
	var subject, status sql.NullString
	err := row.Scan(
		&comm.ID, &comm.ChaseItemID, &channel, &direction, &comm.Recipient,
		&subject, &comm.Content, &status, &comm.Read, &comm.SentAt,
	)
	if err != nil {
		return comm, fmt.Errorf("scan communication failed: %w", err)
	}
	comm.Channel = models.Channel(channel)
	comm.Direction = models.Direction(direction)
	comm.Subject = subject.String
	comm.Status = status.String
	return comm, nil
}

// round1 rounds to one decimal place, matching the dashboard's display
// precision.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// sameUTCDay reports whether both times fall on the same UTC calendar day.
func sameUTCDay(a, b time.Time) bool {
	return a.UTC().Format(dayFormat) == b.UTC().Format(dayFormat)
}

// wholeDaysBetween returns complete days from first to second, floored
// at zero.
func wholeDaysBetween(first, second time.Time) int {
	days := int(second.Sub(first).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// isAwaitingResponse reports whether a status still needs chasing.
// Received items are closed and escalated items are with a human.
func isAwaitingResponse(status models.ChaseStatus) bool {
	return status == models.StatusPending || status == models.StatusSent || status == models.StatusOverdue
}

// awaitingStatuses is the SQL-side form of isAwaitingResponse.
var awaitingStatuses = []string{
	string(models.StatusPending),
	string(models.StatusSent),
	string(models.StatusOverdue),
}
