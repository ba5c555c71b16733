// Package seed populates an empty store with a realistic demo dataset:
// clients, chase items in believable states, agent activity and
// communications. A freshly started instance then has a working dashboard
// instead of an empty one.
package seed

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/agents"
	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/models"
	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/store"
	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/util"
)

// Default dataset sizes.
const (
	DefaultClientCount        = 20
	DefaultChaseItemCount     = 50
	DefaultActivityCount      = 100
	DefaultCommunicationCount = 150
)

// providers the demo LOAs are addressed to. The names match the provider
// knowledge directory so seeded items resolve to real response profiles.
var providers = []string{
	"Aviva", "Legal & General", "Scottish Widows",
	"Standard Life", "Prudential", "Aegon",
	"Royal London", "Zurich",
}

var documentTypes = []string{
	"Proof of Identity (Passport)",
	"Proof of Address (Utility Bill)",
	"Current Pension Statement",
	"Investment Valuation",
	"P60 Tax Document",
	"Bank Statements (3 months)",
	"Payslips (3 months)",
	"Protection Policy Documents",
}

var loaTypes = []string{
	"Pension Transfer LOA",
	"Investment Account LOA",
	"Protection Policy LOA",
	"ISA Transfer LOA",
}

var riskProfiles = []string{"Conservative", "Moderate", "Balanced", "Growth", "Aggressive"}

var firstNames = []string{
	"Oliver", "Amelia", "George", "Isla", "Harry", "Emily", "Jack",
	"Sophie", "Thomas", "Grace", "James", "Charlotte", "William",
	"Olivia", "Henry", "Emma", "Daniel", "Lucy", "Edward", "Hannah",
}

var lastNames = []string{
	"Smith", "Jones", "Taylor", "Brown", "Williams", "Wilson", "Johnson",
	"Davies", "Patel", "Robinson", "Wright", "Thompson", "Evans",
	"Walker", "White", "Roberts", "Green", "Hall", "Wood", "Clarke",
}

var activityActions = []string{
	"Sent reminder email",
	"Placed chase phone call",
	"Generated delay prediction",
	"Escalated to advisor",
	"Updated status",
	"Analyzed response pattern",
	"Sent SMS reminder",
	"Created escalation ticket",
}

var activityDetails = []string{
	"Completed without issues",
	"Awaiting response",
	"No answer, voicemail left",
	"Response received and filed",
	"Queued for next working day",
}

var communicationBodies = []string{
	"Just checking in on the outstanding item we discussed. Could you send it over when you get a chance?",
	"A quick reminder that we are still waiting on the requested information.",
	"Following up on our earlier request. Please let us know if anything is unclear.",
	"We have not yet received a response to our previous message. A prompt reply would be appreciated.",
	"Thank you for your patience. This is a courtesy update on the open request.",
}

var agentIDsByType = map[string]string{
	models.AgentTypeDocumentChaser: agents.DocumentChaserID,
	models.AgentTypeLOAChaser:      agents.LOAChaserID,
	models.AgentTypePredictor:      agents.PredictorID,
	models.AgentTypeOrchestrator:   agents.OrchestratorID,
}

var seedAgentTypes = []string{
	models.AgentTypeDocumentChaser,
	models.AgentTypeLOAChaser,
	models.AgentTypePredictor,
	models.AgentTypeOrchestrator,
}

// Generator produces demo entities from a seedable random source, so tests
// can pin the dataset.
type Generator struct {
	rng   *rand.Rand
	clock func() time.Time
}

// Option configures generator construction.
type Option func(*Generator)

// WithSeed pins the random source, making the dataset reproducible.
func WithSeed(seed uint64) Option {
	return func(g *Generator) {
		g.rng = rand.New(rand.NewPCG(seed, 0))
	}
}

// WithClock overrides the generator's time source.
func WithClock(clock func() time.Time) Option {
	return func(g *Generator) {
		g.clock = clock
	}
}

// NewGenerator creates a demo data generator. Without options the dataset
// differs on every run.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		rng:   rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Generator) pick(pool []string) string {
	return pool[g.rng.IntN(len(pool))]
}

func (g *Generator) fullName() string {
	return g.pick(firstNames) + " " + g.pick(lastNames)
}

func emailFor(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com"
}

// phoneNumber returns a UK mobile in the Ofcom range reserved for fiction.
func (g *Generator) phoneNumber() string {
	return fmt.Sprintf("+447700900%03d", g.rng.IntN(1000))
}

// pastTimestamp picks a moment within the given number of days before now.
func (g *Generator) pastTimestamp(now time.Time, maxDays int) time.Time {
	return now.Add(-time.Duration(g.rng.IntN(maxDays*24*60)) * time.Minute)
}

// Clients generates advisor clients with review history.
func (g *Generator) Clients(count int) []models.Client {
	now := g.clock().UTC()
	clients := make([]models.Client, 0, count)
	for i := 0; i < count; i++ {
		name := g.fullName()
		lastReview := now.AddDate(0, 0, -g.rng.IntN(730))
		clients = append(clients, models.Client{
			ID:             util.GenerateClientID(),
			Name:           name,
			Email:          emailFor(name),
			Phone:          g.phoneNumber(),
			AdvisorID:      "1",
			RiskProfile:    g.pick(riskProfiles),
			LastReviewDate: &lastReview,
			Status:         "active",
			CreatedAt:      now.AddDate(0, 0, -(365 + g.rng.IntN(4*365))),
		})
	}
	return clients
}

// ChaseItems generates chase items against the given clients, roughly 40%
// provider LOAs and the rest client document requests. Status, attempts
// and priority are banded from how far past the expected date each item is.
func (g *Generator) ChaseItems(clients []models.Client, count int) []models.ChaseItem {
	items := make([]models.ChaseItem, 0, count)
	for i := 0; i < count; i++ {
		client := clients[g.rng.IntN(len(clients))]
		if g.rng.Float64() < 0.4 {
			items = append(items, g.loaItem(client))
		} else {
			items = append(items, g.documentItem(client))
		}
	}
	return items
}

func (g *Generator) loaItem(client models.Client) models.ChaseItem {
	now := g.clock().UTC()
	daysElapsed := 1 + g.rng.IntN(60)
	sent := now.AddDate(0, 0, -daysElapsed)
	expectedDays := 10 + g.rng.IntN(11)

	item := models.ChaseItem{
		ID:              util.GenerateChaseItemID(),
		ClientID:        client.ID,
		ClientName:      client.Name,
		Kind:            models.ChaseKindLOA,
		Category:        models.CategoryProvider,
		Target:          g.pick(providers),
		Description:     g.pick(loaTypes),
		ReferenceNumber: fmt.Sprintf("REF-%04d", 1000+g.rng.IntN(9000)),
		SentDate:        &sent,
		CreatedAt:       sent,
		UpdatedAt:       now,
	}
	g.bandItem(&item, daysElapsed, expectedDays, 7)
	return item
}

func (g *Generator) documentItem(client models.Client) models.ChaseItem {
	now := g.clock().UTC()
	daysElapsed := 1 + g.rng.IntN(45)
	sent := now.AddDate(0, 0, -daysElapsed)
	expectedDays := 5 + g.rng.IntN(10)

	item := models.ChaseItem{
		ID:          util.GenerateChaseItemID(),
		ClientID:    client.ID,
		ClientName:  client.Name,
		Kind:        models.ChaseKindDocument,
		Category:    models.CategoryClient,
		Target:      client.Name,
		Description: g.pick(documentTypes),
		SentDate:    &sent,
		CreatedAt:   sent,
		UpdatedAt:   now,
	}
	g.bandItem(&item, daysElapsed, expectedDays, 5)
	return item
}

// bandItem fills in the timeline-derived fields: status, attempts,
// priority, expected/received dates and the last attempt marker.
// attemptGapDays is the assumed spacing between past chase attempts.
func (g *Generator) bandItem(item *models.ChaseItem, daysElapsed, expectedDays, attemptGapDays int) {
	sent := *item.SentDate
	expected := sent.AddDate(0, 0, expectedDays)
	item.ExpectedDate = &expected

	item.Status = g.statusFor(daysElapsed, expectedDays)
	item.Attempts = attemptsFor(daysElapsed, expectedDays)
	item.Priority = priorityFor(item.Status, daysElapsed)

	if item.Status == models.StatusReceived {
		received := sent.AddDate(0, 0, 1+g.rng.IntN(daysElapsed))
		item.ReceivedDate = &received
	}
	if item.Attempts > 0 {
		lastAttempt := sent.AddDate(0, 0, item.Attempts*attemptGapDays)
		item.LastAttemptDate = &lastAttempt
	}
}

// statusFor bands an item by timeline: a fifth of items came back, the
// rest distribute across overdue, sent and pending.
func (g *Generator) statusFor(daysElapsed, expectedDays int) models.ChaseStatus {
	if g.rng.Float64() < 0.2 {
		return models.StatusReceived
	}
	switch {
	case daysElapsed > expectedDays+7:
		return models.StatusOverdue
	case daysElapsed > expectedDays:
		return models.StatusSent
	default:
		return models.StatusPending
	}
}

// attemptsFor derives how many chases would already have happened, roughly
// one per week past the expected date, capped at three.
func attemptsFor(daysElapsed, expectedDays int) int {
	switch {
	case daysElapsed < expectedDays:
		return 0
	case daysElapsed < expectedDays+7:
		return 1
	case daysElapsed < expectedDays+14:
		return 2
	default:
		n := (daysElapsed - expectedDays) / 7
		if n > 3 {
			n = 3
		}
		return n
	}
}

func priorityFor(status models.ChaseStatus, daysElapsed int) models.Priority {
	switch {
	case status == models.StatusOverdue && daysElapsed > 30:
		return models.PriorityUrgent
	case status == models.StatusOverdue:
		return models.PriorityHigh
	case status == models.StatusSent && daysElapsed > 14:
		return models.PriorityHigh
	case daysElapsed > 7:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}

// Activities generates an agent activity history over the past month.
// About 80% succeed and 70% reference a chase item.
func (g *Generator) Activities(items []models.ChaseItem, count int) []models.ActivityRecord {
	now := g.clock().UTC()
	recs := make([]models.ActivityRecord, 0, count)
	for i := 0; i < count; i++ {
		agentType := g.pick(seedAgentTypes)

		target := g.fullName()
		if g.rng.Float64() < 0.4 {
			target = g.pick(providers)
		}

		status := models.ActivityStatusSuccess
		if g.rng.Float64() >= 0.8 {
			status = models.ActivityStatusFailed
		}

		rec := models.ActivityRecord{
			ID:        uuid.NewString(),
			AgentID:   agentIDsByType[agentType],
			AgentType: agentType,
			Action:    g.pick(activityActions),
			Target:    target,
			Status:    status,
			Details:   g.pick(activityDetails),
			Timestamp: g.pastTimestamp(now, 30),
		}
		if len(items) > 0 && g.rng.Float64() < 0.7 {
			rec.ChaseItemID = items[g.rng.IntN(len(items))].ID
		}
		recs = append(recs, rec)
	}
	return recs
}

// Communications generates a message history tied to the given items,
// 70% outbound.
func (g *Generator) Communications(items []models.ChaseItem, count int) []models.Communication {
	now := g.clock().UTC()
	comms := make([]models.Communication, 0, count)
	channels := []models.Channel{models.ChannelEmail, models.ChannelSMS, models.ChannelPhone}

	for i := 0; i < count; i++ {
		item := items[g.rng.IntN(len(items))]
		channel := channels[g.rng.IntN(len(channels))]

		direction := models.DirectionOutbound
		if g.rng.Float64() >= 0.7 {
			direction = models.DirectionInbound
		}

		recipient := emailFor(item.ClientName)
		if channel != models.ChannelEmail {
			recipient = g.phoneNumber()
		}

		comm := models.Communication{
			ID:          util.GenerateCommunicationID(),
			ChaseItemID: item.ID,
			Channel:     channel,
			Direction:   direction,
			Recipient:   recipient,
			Content:     g.pick(communicationBodies),
			Read:        g.rng.IntN(2) == 0,
			SentAt:      g.pastTimestamp(now, 30),
		}
		if channel == models.ChannelEmail {
			comm.Subject = "Re: " + item.Description
		}
		comms = append(comms, comm)
	}
	return comms
}

// Populate inserts a full default-sized dataset into the store.
func (g *Generator) Populate(st store.Store) error {
	clients := g.Clients(DefaultClientCount)
	for _, client := range clients {
		if err := st.SaveClient(client); err != nil {
			return fmt.Errorf("failed to save demo client: %w", err)
		}
	}

	items := g.ChaseItems(clients, DefaultChaseItemCount)
	for _, item := range items {
		if err := st.SaveChaseItem(item); err != nil {
			return fmt.Errorf("failed to save demo chase item: %w", err)
		}
	}

	for _, rec := range g.Activities(items, DefaultActivityCount) {
		if err := st.RecordActivity(rec); err != nil {
			return fmt.Errorf("failed to record demo activity: %w", err)
		}
	}

	for _, comm := range g.Communications(items, DefaultCommunicationCount) {
		if err := st.SaveCommunication(comm); err != nil {
			return fmt.Errorf("failed to save demo communication: %w", err)
		}
	}

	slog.Info("Seeded demo dataset", "clients", len(clients), "chase_items", len(items), "activities", DefaultActivityCount, "communications", DefaultCommunicationCount)
	return nil
}

// SeedIfEmpty populates the store with the demo dataset when it holds no
// chase items. Returns true when data was inserted.
func SeedIfEmpty(st store.Store, g *Generator) (bool, error) {
	existing, err := st.ListChaseItems(store.ChaseItemFilter{Limit: 1})
	if err != nil {
		return false, fmt.Errorf("failed to check for existing chase items: %w", err)
	}
	if len(existing) > 0 {
		slog.Debug("Store already holds chase items, skipping demo seed", "found", len(existing))
		return false, nil
	}
	return true, g.Populate(st)
}
