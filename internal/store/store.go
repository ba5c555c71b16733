// Package store provides storage backends for the chase engine.
//
// A Store persists clients, chase items, agent activities and
// communications, and serves the dashboard aggregates computed from
// them. Three implementations share the interface: an in-memory store
// for tests and DSN-less runs, SQLite for single-node deployments, and
// PostgreSQL for shared ones. DetectDSNType picks the backend from the
// DSN shape.
package store

import (
	"strings"
	"time"

	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/models"
)

// Stats constants shared by every backend.
const (
	// activeAgentCount is the size of the agent fleet reported in stats:
	// document chaser, LOA chaser, predictor and orchestrator.
	activeAgentCount = 4
	// minutesSavedPerChase is the assumed manual effort one automated
	// chase attempt replaces.
	minutesSavedPerChase = 15
)

// Opts holds store configuration options.
type Opts struct {
	// DSN is the database connection string.
	DSN string
}

// Option configures store construction.
type Option func(*Opts)

// WithSQLiteDSN sets the SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// DetectDSNType reports which backend a DSN selects: "postgres" for
// URL-style or key=value connection strings, "sqlite" for anything else
// (treated as a file path).
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "postgres"
	}
	if strings.Contains(dsn, "host=") || strings.Contains(dsn, "user=") || strings.Contains(dsn, "dbname=") {
		return "postgres"
	}
	return "sqlite"
}

// ChaseItemFilter narrows ListChaseItems. Zero-valued fields are ignored.
type ChaseItemFilter struct {
	Status   models.ChaseStatus
	Priority models.Priority
	Category models.ChaseCategory
	Limit    int
	Offset   int
}

// ActivityFilter narrows ListActivities. Zero-valued fields are ignored.
type ActivityFilter struct {
	AgentType   string
	ChaseItemID string
	Limit       int
}

// CommunicationFilter narrows ListCommunications. Zero-valued fields
// are ignored.
type CommunicationFilter struct {
	ChaseItemID string
	Limit       int
}

// Store is the persistence interface consumed by the API server and the
// chase scheduler. Get methods return (nil, nil) when the record does
// not exist; mutation methods return models.ErrNotFound instead.
type Store interface {
	// Clients
	SaveClient(client models.Client) error
	GetClient(id string) (*models.Client, error)
	ListClients(limit, offset int) ([]models.Client, error)

	// Chase items
	SaveChaseItem(item models.ChaseItem) error
	GetChaseItem(id string) (*models.ChaseItem, error)
	ListChaseItems(filter ChaseItemFilter) ([]models.ChaseItem, error)
	// PendingChaseItems returns items still waiting on a response
	// (pending, sent or overdue) that have not been chased within
	// minInterval, oldest first. limit <= 0 means no limit.
	PendingChaseItems(now time.Time, minInterval time.Duration, limit int) ([]models.ChaseItem, error)
	// RecordChaseAttempt increments the attempt counter and stamps the
	// last attempt time.
	RecordChaseAttempt(id string, at time.Time) error
	// UpdateChaseStatus moves an item to a new status. Moving to
	// received also stamps the received date.
	UpdateChaseStatus(id string, status models.ChaseStatus, at time.Time) error
	// UpdatePredictedDelay stores the latest delay prediction for an item.
	UpdatePredictedDelay(id string, days int, at time.Time) error

	// Agent activities
	RecordActivity(rec models.ActivityRecord) error
	ListActivities(filter ActivityFilter) ([]models.ActivityRecord, error)

	// Communications
	SaveCommunication(comm models.Communication) error
	ListCommunications(filter CommunicationFilter) ([]models.Communication, error)

	// Aggregates
	DashboardStats(now time.Time) (models.DashboardStats, error)
	AnalyticsOverview(now time.Time) (models.AnalyticsOverview, error)

	Close() error
}

var (
	_ Store = (*InMemoryStore)(nil)
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
