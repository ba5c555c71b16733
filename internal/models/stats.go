package models

import "time"

// DashboardStats is the headline view served to the advisor dashboard.
type DashboardStats struct {
	TotalItems        int     `json:"total_items"`
	PendingItems      int     `json:"pending_items"`
	OverdueItems      int     `json:"overdue_items"`
	EscalatedItems    int     `json:"escalated_items"`
	CompletedToday    int     `json:"completed_today"`
	AvgCompletionDays float64 `json:"avg_completion_days"`
	TimeSavedHours    float64 `json:"time_saved_hours"`
	AutomationRate    float64 `json:"automation_rate"`
	ActiveAgents      int     `json:"active_agents"`
}

// DailyActivity is one day's slice of the activity trend.
type DailyActivity struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// AnalyticsOverview aggregates chase item distributions and recent activity.
type AnalyticsOverview struct {
	StatusDistribution   map[string]int  `json:"status_distribution"`
	CategoryDistribution map[string]int  `json:"category_distribution"`
	PriorityDistribution map[string]int  `json:"priority_distribution"`
	DailyActivityTrend   []DailyActivity `json:"daily_activity_trend"`
	GeneratedAt          time.Time       `json:"generated_at"`
}
