// Package store provides storage backends for the chase engine.
//
// This file implements the PostgreSQL-backed store.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	sq "github.com/Masterminds/squirrel"
	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	// Apply options
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")

	// Determine DSN (required)
	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	slog.Debug("Opening Postgres database connection")
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	// Configure connection pool for better performance
	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}
	slog.Debug("Postgres ping successful")

	// Run migrations to ensure tables exist
	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")

	return &PostgresStore{db: db, sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar)}, nil
}

// SaveClient stores or updates a client.
func (s *PostgresStore) SaveClient(client models.Client) error {
	query := `
		INSERT INTO clients (id, name, email, phone, advisor_id, risk_profile, last_review_date, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			advisor_id = EXCLUDED.advisor_id,
			risk_profile = EXCLUDED.risk_profile,
			last_review_date = EXCLUDED.last_review_date,
			status = EXCLUDED.status`
	_, err := s.db.Exec(query, client.ID, client.Name, nilIfEmpty(client.Email), nilIfEmpty(client.Phone),
		nilIfEmpty(client.AdvisorID), nilIfEmpty(client.RiskProfile), client.LastReviewDate, client.Status, client.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveClient failed", "error", err, "clientID", client.ID)
		return fmt.Errorf("failed to save client %s: %w", client.ID, err)
	}
	slog.Debug("PostgresStore SaveClient succeeded", "clientID", client.ID)
	return nil
}

// GetClient retrieves a client by ID. Returns nil without error when the
// client does not exist.
func (s *PostgresStore) GetClient(id string) (*models.Client, error) {
	query := `SELECT id, name, email, phone, advisor_id, risk_profile, last_review_date, status, created_at
			  FROM clients WHERE id = $1`
	client, err := scanClient(s.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		slog.Debug("PostgresStore GetClient not found", "clientID", id)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetClient failed", "error", err, "clientID", id)
		return nil, err
	}
	slog.Debug("PostgresStore GetClient found", "clientID", id)
	return &client, nil
}

// ListClients returns clients ordered newest first.
func (s *PostgresStore) ListClients(limit, offset int) ([]models.Client, error) {
	qb := s.sb.Select(clientColumns...).From("clients").OrderBy("created_at DESC", "id ASC")
	if limit > 0 {
		qb = qb.Limit(uint64(limit))
	}
	if offset > 0 {
		qb = qb.Offset(uint64(offset))
	}
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build clients query: %w", err)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		slog.Error("PostgresStore ListClients query failed", "error", err)
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer rows.Close()

	var clients []models.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			slog.Error("PostgresStore ListClients scan failed", "error", err)
			return nil, err
		}
		clients = append(clients, client)
	}
	if err := rows.Err(); err != nil {
		slog.Error("PostgresStore ListClients rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate client rows: %w", err)
	}
	slog.Debug("PostgresStore ListClients succeeded", "count", len(clients))
	return clients, nil
}

// SaveChaseItem stores or updates a chase item.
func (s *PostgresStore) SaveChaseItem(item models.ChaseItem) error {
	query := `
		INSERT INTO chase_items (id, client_id, client_name, type, category, target,
			description, reference_number, status, priority, sent_date, expected_date,
			received_date, attempts, last_attempt_date, predicted_delay_days, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (id) DO UPDATE SET
			client_id = EXCLUDED.client_id,
			client_name = EXCLUDED.client_name,
			type = EXCLUDED.type,
			category = EXCLUDED.category,
			target = EXCLUDED.target,
			description = EXCLUDED.description,
			reference_number = EXCLUDED.reference_number,
			status = EXCLUDED.status,
			priority = EXCLUDED.priority,
			sent_date = EXCLUDED.sent_date,
			expected_date = EXCLUDED.expected_date,
			received_date = EXCLUDED.received_date,
			attempts = EXCLUDED.attempts,
			last_attempt_date = EXCLUDED.last_attempt_date,
			predicted_delay_days = EXCLUDED.predicted_delay_days,
			updated_at = EXCLUDED.updated_at`
	_, err := s.db.Exec(query,
		item.ID, nilIfEmpty(item.ClientID), nilIfEmpty(item.ClientName), string(item.Kind),
		string(item.Category), item.Target, nilIfEmpty(item.Description), nilIfEmpty(item.ReferenceNumber),
		string(item.Status), string(item.Priority), item.SentDate, item.ExpectedDate,
		item.ReceivedDate, item.Attempts, item.LastAttemptDate, item.PredictedDelayDays,
		item.CreatedAt, item.UpdatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveChaseItem failed", "error", err, "itemID", item.ID)
		return fmt.Errorf("failed to save chase item %s: %w", item.ID, err)
	}
	slog.Debug("PostgresStore SaveChaseItem succeeded", "itemID", item.ID, "status", item.Status)
	return nil
}

// GetChaseItem retrieves a chase item by ID. Returns nil without error
// when the item does not exist.
func (s *PostgresStore) GetChaseItem(id string) (*models.ChaseItem, error) {
	query := `SELECT id, client_id, client_name, type, category, target, description, reference_number,
			  status, priority, sent_date, expected_date, received_date, attempts, last_attempt_date,
			  predicted_delay_days, created_at, updated_at
			  FROM chase_items WHERE id = $1`
	item, err := scanChaseItem(s.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		slog.Debug("PostgresStore GetChaseItem not found", "itemID", id)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetChaseItem failed", "error", err, "itemID", id)
		return nil, err
	}
	slog.Debug("PostgresStore GetChaseItem found", "itemID", id, "status", item.Status)
	return &item, nil
}

// ListChaseItems returns chase items matching the filter, newest first.
func (s *PostgresStore) ListChaseItems(filter ChaseItemFilter) ([]models.ChaseItem, error) {
	qb := s.sb.Select(chaseItemColumns...).From("chase_items").OrderBy("created_at DESC", "id ASC")
	if filter.Status != "" {
		qb = qb.Where(sq.Eq{"status": string(filter.Status)})
	}
	if filter.Priority != "" {
		qb = qb.Where(sq.Eq{"priority": string(filter.Priority)})
	}
	if filter.Category != "" {
		qb = qb.Where(sq.Eq{"category": string(filter.Category)})
	}
	if filter.Limit > 0 {
		qb = qb.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		qb = qb.Offset(uint64(filter.Offset))
	}
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build chase items query: %w", err)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		slog.Error("PostgresStore ListChaseItems query failed", "error", err)
		return nil, fmt.Errorf("failed to query chase items: %w", err)
	}
	defer rows.Close()

	var items []models.ChaseItem
	for rows.Next() {
		item, err := scanChaseItem(rows)
		if err != nil {
			slog.Error("PostgresStore ListChaseItems scan failed", "error", err)
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		slog.Error("PostgresStore ListChaseItems rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate chase item rows: %w", err)
	}
	slog.Debug("PostgresStore ListChaseItems succeeded", "count", len(items))
	return items, nil
}

// PendingChaseItems returns items still awaiting a response that have not
// been chased within minInterval, oldest first.
func (s *PostgresStore) PendingChaseItems(now time.Time, minInterval time.Duration, limit int) ([]models.ChaseItem, error) {
	cutoff := now.Add(-minInterval)
	qb := s.sb.Select(chaseItemColumns...).From("chase_items").
		Where(sq.Eq{"status": awaitingStatuses}).
		Where(sq.Or{sq.Eq{"last_attempt_date": nil}, sq.LtOrEq{"last_attempt_date": cutoff}}).
		OrderBy("created_at ASC", "id ASC")
	if limit > 0 {
		qb = qb.Limit(uint64(limit))
	}
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build pending chase items query: %w", err)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		slog.Error("PostgresStore PendingChaseItems query failed", "error", err)
		return nil, fmt.Errorf("failed to query pending chase items: %w", err)
	}
	defer rows.Close()

	var items []models.ChaseItem
	for rows.Next() {
		item, err := scanChaseItem(rows)
		if err != nil {
			slog.Error("PostgresStore PendingChaseItems scan failed", "error", err)
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		slog.Error("PostgresStore PendingChaseItems rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate pending chase item rows: %w", err)
	}
	slog.Debug("PostgresStore PendingChaseItems succeeded", "count", len(items))
	return items, nil
}

// RecordChaseAttempt increments the attempt counter and stamps the last
// attempt time.
func (s *PostgresStore) RecordChaseAttempt(id string, at time.Time) error {
	res, err := s.db.Exec(`UPDATE chase_items SET attempts = attempts + 1, last_attempt_date = $1, updated_at = $2 WHERE id = $3`, at, at, id)
	if err != nil {
		slog.Error("PostgresStore RecordChaseAttempt failed", "error", err, "itemID", id)
		return fmt.Errorf("failed to record chase attempt for %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		slog.Debug("PostgresStore RecordChaseAttempt no such item", "itemID", id)
		return fmt.Errorf("chase item %s: %w", id, models.ErrNotFound)
	}
	slog.Debug("PostgresStore RecordChaseAttempt succeeded", "itemID", id)
	return nil
}

// UpdateChaseStatus moves an item to a new status. Moving to received
// also stamps the received date.
func (s *PostgresStore) UpdateChaseStatus(id string, status models.ChaseStatus, at time.Time) error {
	var res sql.Result
	var err error
	if status == models.StatusReceived {
		res, err = s.db.Exec(`UPDATE chase_items SET status = $1, received_date = $2, updated_at = $3 WHERE id = $4`, string(status), at, at, id)
	} else {
		res, err = s.db.Exec(`UPDATE chase_items SET status = $1, updated_at = $2 WHERE id = $3`, string(status), at, id)
	}
	if err != nil {
		slog.Error("PostgresStore UpdateChaseStatus failed", "error", err, "itemID", id, "status", status)
		return fmt.Errorf("failed to update status for %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		slog.Debug("PostgresStore UpdateChaseStatus no such item", "itemID", id)
		return fmt.Errorf("chase item %s: %w", id, models.ErrNotFound)
	}
	slog.Debug("PostgresStore UpdateChaseStatus succeeded", "itemID", id, "status", status)
	return nil
}

// UpdatePredictedDelay stores the latest delay prediction for an item.
func (s *PostgresStore) UpdatePredictedDelay(id string, days int, at time.Time) error {
	res, err := s.db.Exec(`UPDATE chase_items SET predicted_delay_days = $1, updated_at = $2 WHERE id = $3`, days, at, id)
	if err != nil {
		slog.Error("PostgresStore UpdatePredictedDelay failed", "error", err, "itemID", id)
		return fmt.Errorf("failed to update predicted delay for %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		slog.Debug("PostgresStore UpdatePredictedDelay no such item", "itemID", id)
		return fmt.Errorf("chase item %s: %w", id, models.ErrNotFound)
	}
	slog.Debug("PostgresStore UpdatePredictedDelay succeeded", "itemID", id, "days", days)
	return nil
}

// RecordActivity appends one agent audit entry.
func (s *PostgresStore) RecordActivity(rec models.ActivityRecord) error {
	query := `
		INSERT INTO agent_activities (id, agent_id, agent_type, action, target, chase_item_id, status, details, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := s.db.Exec(query, rec.ID, rec.AgentID, rec.AgentType, rec.Action,
		nilIfEmpty(rec.Target), nilIfEmpty(rec.ChaseItemID), rec.Status, nilIfEmpty(rec.Details), rec.Timestamp)
	if err != nil {
		slog.Error("PostgresStore RecordActivity failed", "error", err, "agentID", rec.AgentID, "action", rec.Action)
		return fmt.Errorf("failed to record activity %s: %w", rec.ID, err)
	}
	slog.Debug("PostgresStore RecordActivity succeeded", "agentID", rec.AgentID, "action", rec.Action)
	return nil
}

// ListActivities returns agent activities matching the filter, newest first.
func (s *PostgresStore) ListActivities(filter ActivityFilter) ([]models.ActivityRecord, error) {
	qb := s.sb.Select(activityColumns...).From("agent_activities").OrderBy("timestamp DESC", "id ASC")
	if filter.AgentType != "" {
		qb = qb.Where(sq.Eq{"agent_type": filter.AgentType})
	}
	if filter.ChaseItemID != "" {
		qb = qb.Where(sq.Eq{"chase_item_id": filter.ChaseItemID})
	}
	if filter.Limit > 0 {
		qb = qb.Limit(uint64(filter.Limit))
	}
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build activities query: %w", err)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		slog.Error("PostgresStore ListActivities query failed", "error", err)
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var records []models.ActivityRecord
	for rows.Next() {
		rec, err := scanActivity(rows)
		if err != nil {
			slog.Error("PostgresStore ListActivities scan failed", "error", err)
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		slog.Error("PostgresStore ListActivities rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate activity rows: %w", err)
	}
	slog.Debug("PostgresStore ListActivities succeeded", "count", len(records))
	return records, nil
}

// SaveCommunication stores or updates a communication log entry.
func (s *PostgresStore) SaveCommunication(comm models.Communication) error {
	query := `
		INSERT INTO communications (id, chase_item_id, channel, direction, recipient, subject, content, status, read, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			channel = EXCLUDED.channel,
			direction = EXCLUDED.direction,
			recipient = EXCLUDED.recipient,
			subject = EXCLUDED.subject,
			content = EXCLUDED.content,
			status = EXCLUDED.status,
			read = EXCLUDED.read,
			sent_at = EXCLUDED.sent_at`
	_, err := s.db.Exec(query, comm.ID, comm.ChaseItemID, string(comm.Channel), string(comm.Direction),
		comm.Recipient, nilIfEmpty(comm.Subject), comm.Content, nilIfEmpty(comm.Status), comm.Read, comm.SentAt)
	if err != nil {
		slog.Error("PostgresStore SaveCommunication failed", "error", err, "communicationID", comm.ID)
		return fmt.Errorf("failed to save communication %s: %w", comm.ID, err)
	}
	slog.Debug("PostgresStore SaveCommunication succeeded", "communicationID", comm.ID, "channel", comm.Channel)
	return nil
}

// ListCommunications returns communications matching the filter, newest first.
func (s *PostgresStore) ListCommunications(filter CommunicationFilter) ([]models.Communication, error) {
	qb := s.sb.Select(communicationColumns...).From("communications").OrderBy("sent_at DESC", "id ASC")
	if filter.ChaseItemID != "" {
		qb = qb.Where(sq.Eq{"chase_item_id": filter.ChaseItemID})
	}
	if filter.Limit > 0 {
		qb = qb.Limit(uint64(filter.Limit))
	}
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build communications query: %w", err)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		slog.Error("PostgresStore ListCommunications query failed", "error", err)
		return nil, fmt.Errorf("failed to query communications: %w", err)
	}
	defer rows.Close()

	var comms []models.Communication
	for rows.Next() {
		comm, err := scanCommunication(rows)
		if err != nil {
			slog.Error("PostgresStore ListCommunications scan failed", "error", err)
			return nil, err
		}
		comms = append(comms, comm)
	}
	if err := rows.Err(); err != nil {
		slog.Error("PostgresStore ListCommunications rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate communication rows: %w", err)
	}
	slog.Debug("PostgresStore ListCommunications succeeded", "count", len(comms))
	return comms, nil
}

// DashboardStats computes the advisor dashboard headline numbers.
func (s *PostgresStore) DashboardStats(now time.Time) (models.DashboardStats, error) {
	stats, err := dashboardStatsFromSQL(s.db, s.sb, now)
	if err != nil {
		slog.Error("PostgresStore DashboardStats failed", "error", err)
		return stats, err
	}
	slog.Debug("PostgresStore DashboardStats succeeded", "totalItems", stats.TotalItems)
	return stats, nil
}

// AnalyticsOverview computes chase item distributions and the recent
// daily activity trend.
func (s *PostgresStore) AnalyticsOverview(now time.Time) (models.AnalyticsOverview, error) {
	overview, err := analyticsOverviewFromSQL(s.db, s.sb, now)
	if err != nil {
		slog.Error("PostgresStore AnalyticsOverview failed", "error", err)
		return overview, err
	}
	slog.Debug("PostgresStore AnalyticsOverview succeeded", "trendDays", len(overview.DailyActivityTrend))
	return overview, nil
}

// Close closes the Postgres database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing Postgres database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close Postgres database", "error", err)
	} else {
		slog.Debug("Postgres database connection closed successfully")
	}
	return err
}
