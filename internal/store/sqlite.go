// Package store provides storage backends for the chase engine.
//
// This file implements the SQLite-backed store.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	sq "github.com/Masterminds/squirrel"
	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// Constants for SQLite store configuration
const (
	// DefaultDirPermissions defines the default permissions for database directories
	DefaultDirPermissions = 0755
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	// Apply options
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	// Determine DSN (required)
	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	// Ensure the directory exists
	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	slog.Debug("SQLite database directory verified/created", "dir", dir)

	slog.Debug("Opening SQLite database connection")
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}

	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}
	slog.Debug("SQLite ping successful")

	// Run migrations to ensure tables exist
	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db, sb: sq.StatementBuilder.PlaceholderFormat(sq.Question)}, nil
}

// SaveClient stores or replaces a client.
func (s *SQLiteStore) SaveClient(client models.Client) error {
	query := `
		INSERT OR REPLACE INTO clients (id, name, email, phone, advisor_id, risk_profile, last_review_date, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.Exec(query, client.ID, client.Name, nilIfEmpty(client.Email), nilIfEmpty(client.Phone),
		nilIfEmpty(client.AdvisorID), nilIfEmpty(client.RiskProfile), client.LastReviewDate, client.Status, client.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveClient failed", "error", err, "clientID", client.ID)
		return fmt.Errorf("failed to save client %s: %w", client.ID, err)
	}
	slog.Debug("SQLiteStore SaveClient succeeded", "clientID", client.ID)
	return nil
}

// GetClient retrieves a client by ID. Returns nil without error when the
// client does not exist.
func (s *SQLiteStore) GetClient(id string) (*models.Client, error) {
	query := `SELECT id, name, email, phone, advisor_id, risk_profile, last_review_date, status, created_at
			  FROM clients WHERE id = ?`
	client, err := scanClient(s.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		slog.Debug("SQLiteStore GetClient not found", "clientID", id)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetClient failed", "error", err, "clientID", id)
		return nil, err
	}
	slog.Debug("SQLiteStore GetClient found", "clientID", id)
	return &client, nil
}

// ListClients returns clients ordered newest first.
func (s *SQLiteStore) ListClients(limit, offset int) ([]models.Client, error) {
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
		slog.Error("SQLiteStore ListClients query failed", "error", err)
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer rows.Close()

	var clients []models.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			slog.Error("SQLiteStore ListClients scan failed", "error", err)
			return nil, err
		}
		clients = append(clients, client)
	}
	if err := rows.Err(); err != nil {
		slog.Error("SQLiteStore ListClients rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate client rows: %w", err)
	}
	slog.Debug("SQLiteStore ListClients succeeded", "count", len(clients))
	return clients, nil
}

// SaveChaseItem stores or replaces a chase item.
func (s *SQLiteStore) SaveChaseItem(item models.ChaseItem) error {
	query := `
		INSERT OR REPLACE INTO chase_items (id, client_id, client_name, type, category, target,
			description, reference_number, status, priority, sent_date, expected_date,
			received_date, attempts, last_attempt_date, predicted_delay_days, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.Exec(query,
		item.ID, nilIfEmpty(item.ClientID), nilIfEmpty(item.ClientName), string(item.Kind),
		string(item.Category), item.Target, nilIfEmpty(item.Description), nilIfEmpty(item.ReferenceNumber),
		string(item.Status), string(item.Priority), item.SentDate, item.ExpectedDate,
		item.ReceivedDate, item.Attempts, item.LastAttemptDate, item.PredictedDelayDays,
		item.CreatedAt, item.UpdatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveChaseItem failed", "error", err, "itemID", item.ID)
		return fmt.Errorf("failed to save chase item %s: %w", item.ID, err)
	}
	slog.Debug("SQLiteStore SaveChaseItem succeeded", "itemID", item.ID, "status", item.Status)
	return nil
}

// GetChaseItem retrieves a chase item by ID. Returns nil without error
// when the item does not exist.
func (s *SQLiteStore) GetChaseItem(id string) (*models.ChaseItem, error) {
	query := `SELECT id, client_id, client_name, type, category, target, description, reference_number,
			  status, priority, sent_date, expected_date, received_date, attempts, last_attempt_date,
			  predicted_delay_days, created_at, updated_at
			  FROM chase_items WHERE id = ?`
	item, err := scanChaseItem(s.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		slog.Debug("SQLiteStore GetChaseItem not found", "itemID", id)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetChaseItem failed", "error", err, "itemID", id)
		return nil, err
	}
	slog.Debug("SQLiteStore GetChaseItem found", "itemID", id, "status", item.Status)
	return &item, nil
}

// ListChaseItems returns chase items matching the filter, newest first.
func (s *SQLiteStore) ListChaseItems(filter ChaseItemFilter) ([]models.ChaseItem, error) {
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
		slog.Error("SQLiteStore ListChaseItems query failed", "error", err)
		return nil, fmt.Errorf("failed to query chase items: %w", err)
	}
	defer rows.Close()

	var items []models.ChaseItem
	for rows.Next() {
		item, err := scanChaseItem(rows)
		if err != nil {
			slog.Error("SQLiteStore ListChaseItems scan failed", "error", err)
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		slog.Error("SQLiteStore ListChaseItems rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate chase item rows: %w", err)
	}
	slog.Debug("SQLiteStore ListChaseItems succeeded", "count", len(items))
	return items, nil
}

// PendingChaseItems returns items still awaiting a response that have not
// been chased within minInterval, oldest first.
func (s *SQLiteStore) PendingChaseItems(now time.Time, minInterval time.Duration, limit int) ([]models.ChaseItem, error) {
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
		slog.Error("SQLiteStore PendingChaseItems query failed", "error", err)
		return nil, fmt.Errorf("failed to query pending chase items: %w", err)
	}
	defer rows.Close()

	var items []models.ChaseItem
	for rows.Next() {
		item, err := scanChaseItem(rows)
		if err != nil {
			slog.Error("SQLiteStore PendingChaseItems scan failed", "error", err)
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		slog.Error("SQLiteStore PendingChaseItems rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate pending chase item rows: %w", err)
	}
	slog.Debug("SQLiteStore PendingChaseItems succeeded", "count", len(items))
	return items, nil
}

// RecordChaseAttempt increments the attempt counter and stamps the last
// attempt time.
func (s *SQLiteStore) RecordChaseAttempt(id string, at time.Time) error {
	res, err := s.db.Exec(`UPDATE chase_items SET attempts = attempts + 1, last_attempt_date = ?, updated_at = ? WHERE id = ?`, at, at, id)
	if err != nil {
		slog.Error("SQLiteStore RecordChaseAttempt failed", "error", err, "itemID", id)
		return fmt.Errorf("failed to record chase attempt for %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		slog.Debug("SQLiteStore RecordChaseAttempt no such item", "itemID", id)
		return fmt.Errorf("chase item %s: %w", id, models.ErrNotFound)
	}
	slog.Debug("SQLiteStore RecordChaseAttempt succeeded", "itemID", id)
	return nil
}

// UpdateChaseStatus moves an item to a new status. Moving to received
// also stamps the received date.
func (s *SQLiteStore) UpdateChaseStatus(id string, status models.ChaseStatus, at time.Time) error {
	var res sql.Result
	var err error
	if status == models.StatusReceived {
		res, err = s.db.Exec(`UPDATE chase_items SET status = ?, received_date = ?, updated_at = ? WHERE id = ?`, string(status), at, at, id)
	} else {
		res, err = s.db.Exec(`UPDATE chase_items SET status = ?, updated_at = ? WHERE id = ?`, string(status), at, id)
	}
	if err != nil {
		slog.Error("SQLiteStore UpdateChaseStatus failed", "error", err, "itemID", id, "status", status)
		return fmt.Errorf("failed to update status for %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		slog.Debug("SQLiteStore UpdateChaseStatus no such item", "itemID", id)
		return fmt.Errorf("chase item %s: %w", id, models.ErrNotFound)
	}
	slog.Debug("SQLiteStore UpdateChaseStatus succeeded", "itemID", id, "status", status)
	return nil
}

// UpdatePredictedDelay stores the latest delay prediction for an item.
func (s *SQLiteStore) UpdatePredictedDelay(id string, days int, at time.Time) error {
	res, err := s.db.Exec(`UPDATE chase_items SET predicted_delay_days = ?, updated_at = ? WHERE id = ?`, days, at, id)
	if err != nil {
		slog.Error("SQLiteStore UpdatePredictedDelay failed", "error", err, "itemID", id)
		return fmt.Errorf("failed to update predicted delay for %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		slog.Debug("SQLiteStore UpdatePredictedDelay no such item", "itemID", id)
		return fmt.Errorf("chase item %s: %w", id, models.ErrNotFound)
	}
	slog.Debug("SQLiteStore UpdatePredictedDelay succeeded", "itemID", id, "days", days)
	return nil
}

// RecordActivity appends one agent audit entry.
func (s *SQLiteStore) RecordActivity(rec models.ActivityRecord) error {
	query := `
		INSERT INTO agent_activities (id, agent_id, agent_type, action, target, chase_item_id, status, details, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.Exec(query, rec.ID, rec.AgentID, rec.AgentType, rec.Action,
		nilIfEmpty(rec.Target), nilIfEmpty(rec.ChaseItemID), rec.Status, nilIfEmpty(rec.Details), rec.Timestamp)
	if err != nil {
		slog.Error("SQLiteStore RecordActivity failed", "error", err, "agentID", rec.AgentID, "action", rec.Action)
		return fmt.Errorf("failed to record activity %s: %w", rec.ID, err)
	}
	slog.Debug("SQLiteStore RecordActivity succeeded", "agentID", rec.AgentID, "action", rec.Action)
	return nil
}

// ListActivities returns agent activities matching the filter, newest first.
func (s *SQLiteStore) ListActivities(filter ActivityFilter) ([]models.ActivityRecord, error) {
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
		slog.Error("SQLiteStore ListActivities query failed", "error", err)
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var records []models.ActivityRecord
	for rows.Next() {
		rec, err := scanActivity(rows)
		if err != nil {
			slog.Error("SQLiteStore ListActivities scan failed", "error", err)
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		slog.Error("SQLiteStore ListActivities rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate activity rows: %w", err)
	}
	slog.Debug("SQLiteStore ListActivities succeeded", "count", len(records))
	return records, nil
}

// SaveCommunication stores or replaces a communication log entry.
func (s *SQLiteStore) SaveCommunication(comm models.Communication) error {
	query := `
		INSERT OR REPLACE INTO communications (id, chase_item_id, channel, direction, recipient, subject, content, status, read, sent_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.Exec(query, comm.ID, comm.ChaseItemID, string(comm.Channel), string(comm.Direction),
		comm.Recipient, nilIfEmpty(comm.Subject), comm.Content, nilIfEmpty(comm.Status), comm.Read, comm.SentAt)
	if err != nil {
		slog.Error("SQLiteStore SaveCommunication failed", "error", err, "communicationID", comm.ID)
		return fmt.Errorf("failed to save communication %s: %w", comm.ID, err)
	}
	slog.Debug("SQLiteStore SaveCommunication succeeded", "communicationID", comm.ID, "channel", comm.Channel)
	return nil
}

// ListCommunications returns communications matching the filter, newest first.
func (s *SQLiteStore) ListCommunications(filter CommunicationFilter) ([]models.Communication, error) {
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
		slog.Error("SQLiteStore ListCommunications query failed", "error", err)
		return nil, fmt.Errorf("failed to query communications: %w", err)
	}
	defer rows.Close()

	var comms []models.Communication
	for rows.Next() {
		comm, err := scanCommunication(rows)
		if err != nil {
			slog.Error("SQLiteStore ListCommunications scan failed", "error", err)
			return nil, err
		}
		comms = append(comms, comm)
	}
	if err := rows.Err(); err != nil {
		slog.Error("SQLiteStore ListCommunications rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate communication rows: %w", err)
	}
	slog.Debug("SQLiteStore ListCommunications succeeded", "count", len(comms))
	return comms, nil
}

// DashboardStats computes the advisor dashboard headline numbers.
func (s *SQLiteStore) DashboardStats(now time.Time) (models.DashboardStats, error) {
	stats, err := dashboardStatsFromSQL(s.db, s.sb, now)
	if err != nil {
		slog.Error("SQLiteStore DashboardStats failed", "error", err)
		return stats, err
	}
	slog.Debug("SQLiteStore DashboardStats succeeded", "totalItems", stats.TotalItems)
	return stats, nil
}

// AnalyticsOverview computes chase item distributions and the recent
// daily activity trend.
func (s *SQLiteStore) AnalyticsOverview(now time.Time) (models.AnalyticsOverview, error) {
	overview, err := analyticsOverviewFromSQL(s.db, s.sb, now)
	if err != nil {
		slog.Error("SQLiteStore AnalyticsOverview failed", "error", err)
		return overview, err
	}
	slog.Debug("SQLiteStore AnalyticsOverview succeeded", "trendDays", len(overview.DailyActivityTrend))
	return overview, nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close SQLite database", "error", err)
	} else {
		slog.Debug("SQLite database connection closed successfully")
	}
	return err
}
