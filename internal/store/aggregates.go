// Package store provides storage backends for the chase engine.
//
// This file implements the dashboard and analytics aggregates shared by
// the SQLite and PostgreSQL backends. Distribution counts run in SQL;
// day arithmetic runs in Go so both dialects agree on the results.
package store

import (
	"database/sql"
	"fmt"
	"sort"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/models"
)

// groupCount counts table rows grouped by the values of column.
func groupCount(db *sql.DB, sb sq.StatementBuilderType, table, column string) (map[string]int, error) {
	query, _, err := sb.Select(column, "COUNT(*)").From(table).GroupBy(column).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build %s distribution query: %w", column, err)
	}
	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s distribution: %w", column, err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var value string
		var count int
		if err := rows.Scan(&value, &count); err != nil {
			return nil, fmt.Errorf("scan %s distribution failed: %w", column, err)
		}
		counts[value] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s distribution: %w", column, err)
	}
	return counts, nil
}

// dashboardStatsFromSQL computes the advisor dashboard headline numbers.
func dashboardStatsFromSQL(db *sql.DB, sb sq.StatementBuilderType, now time.Time) (models.DashboardStats, error) {
	stats := models.DashboardStats{ActiveAgents: activeAgentCount}

	statusCounts, err := groupCount(db, sb, "chase_items", "status")
	if err != nil {
		return stats, err
	}
	for status, count := range statusCounts {
		stats.TotalItems += count
		switch models.ChaseStatus(status) {
		case models.StatusPending, models.StatusSent:
			stats.PendingItems += count
		case models.StatusOverdue:
			stats.OverdueItems += count
		case models.StatusEscalated:
			stats.EscalatedItems += count
		}
	}

	// Completed-today and average completion need the raw dates.
	query, args, err := sb.Select("sent_date", "received_date").From("chase_items").
		Where(sq.Eq{"status": string(models.StatusReceived)}).
		Where(sq.NotEq{"received_date": nil}).
		ToSql()
	if err != nil {
		return stats, fmt.Errorf("failed to build completion query: %w", err)
	}
	rows, err := db.Query(query, args...)
	if err != nil {
		return stats, fmt.Errorf("failed to query completed items: %w", err)
	}
	defer rows.Close()

	var completedCount, completedDays int
	for rows.Next() {
		var sent, received sql.NullTime
		if err := rows.Scan(&sent, &received); err != nil {
			return stats, fmt.Errorf("scan completion row failed: %w", err)
		}
		if !received.Valid {
			continue
		}
		completedCount++
		if sameUTCDay(received.Time, now) {
			stats.CompletedToday++
		}
		if sent.Valid {
			completedDays += wholeDaysBetween(sent.Time, received.Time)
		}
	}
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("failed to iterate completion rows: %w", err)
	}
	if completedCount > 0 {
		stats.AvgCompletionDays = round1(float64(completedDays) / float64(completedCount))
	}

	// SUM over an empty table yields NULL.
	var totalAttempts sql.NullInt64
	if err := db.QueryRow(`SELECT SUM(attempts) FROM chase_items`).Scan(&totalAttempts); err != nil {
		return stats, fmt.Errorf("failed to sum chase attempts: %w", err)
	}
	stats.TimeSavedHours = round1(float64(totalAttempts.Int64) * minutesSavedPerChase / 60)

	var totalActions int
	if err := db.QueryRow(`SELECT COUNT(*) FROM agent_activities`).Scan(&totalActions); err != nil {
		return stats, fmt.Errorf("failed to count activities: %w", err)
	}
	if totalActions > 0 {
		query, args, err := sb.Select("COUNT(*)").From("agent_activities").
			Where(sq.Eq{"status": models.ActivityStatusSuccess}).
			ToSql()
		if err != nil {
			return stats, fmt.Errorf("failed to build success count query: %w", err)
		}
		var successActions int
		if err := db.QueryRow(query, args...).Scan(&successActions); err != nil {
			return stats, fmt.Errorf("failed to count successful activities: %w", err)
		}
		stats.AutomationRate = round1(float64(successActions) / float64(totalActions) * 100)
	}

	return stats, nil
}

// analyticsOverviewFromSQL computes chase item distributions and the
// recent daily activity trend.
func analyticsOverviewFromSQL(db *sql.DB, sb sq.StatementBuilderType, now time.Time) (models.AnalyticsOverview, error) {
	overview := models.AnalyticsOverview{GeneratedAt: now}

	var err error
	if overview.StatusDistribution, err = groupCount(db, sb, "chase_items", "status"); err != nil {
		return overview, err
	}
	if overview.CategoryDistribution, err = groupCount(db, sb, "chase_items", "category"); err != nil {
		return overview, err
	}
	if overview.PriorityDistribution, err = groupCount(db, sb, "chase_items", "priority"); err != nil {
		return overview, err
	}

	cutoff := now.AddDate(0, 0, -trendWindowDays)
	query, args, err := sb.Select("timestamp").From("agent_activities").
		Where(sq.GtOrEq{"timestamp": cutoff}).
		ToSql()
	if err != nil {
		return overview, fmt.Errorf("failed to build activity trend query: %w", err)
	}
	rows, err := db.Query(query, args...)
	if err != nil {
		return overview, fmt.Errorf("failed to query activity trend: %w", err)
	}
	defer rows.Close()

	byDay := make(map[string]int)
	for rows.Next() {
		var ts time.Time
		if err := rows.Scan(&ts); err != nil {
			return overview, fmt.Errorf("scan activity timestamp failed: %w", err)
		}
		byDay[ts.UTC().Format(dayFormat)]++
	}
	if err := rows.Err(); err != nil {
		return overview, fmt.Errorf("failed to iterate activity trend: %w", err)
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)
	for _, day := range days {
		overview.DailyActivityTrend = append(overview.DailyActivityTrend, models.DailyActivity{Date: day, Count: byDay[day]})
	}
	return overview, nil
}
