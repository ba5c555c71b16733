// Package store provides storage backends for the chase engine.
//
// This file implements the in-memory store used by tests and DSN-less runs.
package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/models"
)

// InMemoryStore keeps everything in process memory behind one RWMutex.
// Suitable for tests and demo runs; contents are lost on restart.
type InMemoryStore struct {
	mu             sync.RWMutex
	clients        map[string]models.Client
	chaseItems     map[string]models.ChaseItem
	activities     []models.ActivityRecord
	communications []models.Communication
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		clients:    make(map[string]models.Client),
		chaseItems: make(map[string]models.ChaseItem),
	}
}

func (s *InMemoryStore) SaveClient(client models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[client.ID] = client
	return nil
}

func (s *InMemoryStore) GetClient(id string) (*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	client, ok := s.clients[id]
	if !ok {
		return nil, nil
	}
	return &client, nil
}

func (s *InMemoryStore) ListClients(limit, offset int) ([]models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clients := make([]models.Client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool {
		if !clients[i].CreatedAt.Equal(clients[j].CreatedAt) {
			return clients[i].CreatedAt.After(clients[j].CreatedAt)
		}
		return clients[i].ID < clients[j].ID
	})
	return window(clients, limit, offset), nil
}

func (s *InMemoryStore) SaveChaseItem(item models.ChaseItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chaseItems[item.ID] = item
	return nil
}

func (s *InMemoryStore) GetChaseItem(id string) (*models.ChaseItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.chaseItems[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (s *InMemoryStore) ListChaseItems(filter ChaseItemFilter) ([]models.ChaseItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]models.ChaseItem, 0, len(s.chaseItems))
	for _, item := range s.chaseItems {
		if filter.Status != "" && item.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && item.Priority != filter.Priority {
			continue
		}
		if filter.Category != "" && item.Category != filter.Category {
			continue
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
	return window(items, filter.Limit, filter.Offset), nil
}

func (s *InMemoryStore) PendingChaseItems(now time.Time, minInterval time.Duration, limit int) ([]models.ChaseItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []models.ChaseItem
	for _, item := range s.chaseItems {
		if !isAwaitingResponse(item.Status) {
			continue
		}
		if item.LastAttemptDate != nil && now.Sub(*item.LastAttemptDate) < minInterval {
			continue
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *InMemoryStore) RecordChaseAttempt(id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.chaseItems[id]
	if !ok {
		return fmt.Errorf("chase item %s: %w", id, models.ErrNotFound)
	}
	item.Attempts++
	t := at
	item.LastAttemptDate = &t
	item.UpdatedAt = at
	s.chaseItems[id] = item
	return nil
}

func (s *InMemoryStore) UpdateChaseStatus(id string, status models.ChaseStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.chaseItems[id]
	if !ok {
		return fmt.Errorf("chase item %s: %w", id, models.ErrNotFound)
	}
	item.Status = status
	if status == models.StatusReceived {
		t := at
		item.ReceivedDate = &t
	}
	item.UpdatedAt = at
	s.chaseItems[id] = item
	return nil
}

func (s *InMemoryStore) UpdatePredictedDelay(id string, days int, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.chaseItems[id]
	if !ok {
		return fmt.Errorf("chase item %s: %w", id, models.ErrNotFound)
	}
	d := days
	item.PredictedDelayDays = &d
	item.UpdatedAt = at
	s.chaseItems[id] = item
	return nil
}

func (s *InMemoryStore) RecordActivity(rec models.ActivityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activities = append(s.activities, rec)
	return nil
}

func (s *InMemoryStore) ListActivities(filter ActivityFilter) ([]models.ActivityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var recs []models.ActivityRecord
	for _, rec := range s.activities {
		if filter.AgentType != "" && rec.AgentType != filter.AgentType {
			continue
		}
		if filter.ChaseItemID != "" && rec.ChaseItemID != filter.ChaseItemID {
			continue
		}
		recs = append(recs, rec)
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Timestamp.After(recs[j].Timestamp)
	})
	if filter.Limit > 0 && len(recs) > filter.Limit {
		recs = recs[:filter.Limit]
	}
	return recs, nil
}

func (s *InMemoryStore) SaveCommunication(comm models.Communication) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.communications = append(s.communications, comm)
	return nil
}

func (s *InMemoryStore) ListCommunications(filter CommunicationFilter) ([]models.Communication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var comms []models.Communication
	for _, comm := range s.communications {
		if filter.ChaseItemID != "" && comm.ChaseItemID != filter.ChaseItemID {
			continue
		}
		comms = append(comms, comm)
	}
	sort.SliceStable(comms, func(i, j int) bool {
		return comms[i].SentAt.After(comms[j].SentAt)
	})
	if filter.Limit > 0 && len(comms) > filter.Limit {
		comms = comms[:filter.Limit]
	}
	return comms, nil
}

func (s *InMemoryStore) DashboardStats(now time.Time) (models.DashboardStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := models.DashboardStats{ActiveAgents: activeAgentCount}

	var completedDays, completedCount, totalAttempts int
	for _, item := range s.chaseItems {
		stats.TotalItems++
		totalAttempts += item.Attempts

		switch item.Status {
		case models.StatusPending, models.StatusSent:
			stats.PendingItems++
		case models.StatusOverdue:
			stats.OverdueItems++
		case models.StatusEscalated:
			stats.EscalatedItems++
		case models.StatusReceived:
			if item.ReceivedDate == nil {
				continue
			}
			if sameUTCDay(*item.ReceivedDate, now) {
				stats.CompletedToday++
			}
			completedCount++
			if item.SentDate != nil {
				completedDays += wholeDaysBetween(*item.SentDate, *item.ReceivedDate)
			}
		}
	}
	if completedCount > 0 {
		stats.AvgCompletionDays = round1(float64(completedDays) / float64(completedCount))
	}
	stats.TimeSavedHours = round1(float64(totalAttempts*minutesSavedPerChase) / 60)

	var successActions int
	for _, rec := range s.activities {
		if rec.Status == models.ActivityStatusSuccess {
			successActions++
		}
	}
	if len(s.activities) > 0 {
		stats.AutomationRate = round1(float64(successActions) / float64(len(s.activities)) * 100)
	}
	return stats, nil
}

func (s *InMemoryStore) AnalyticsOverview(now time.Time) (models.AnalyticsOverview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	overview := models.AnalyticsOverview{
		StatusDistribution:   make(map[string]int),
		CategoryDistribution: make(map[string]int),
		PriorityDistribution: make(map[string]int),
		GeneratedAt:          now,
	}
	for _, item := range s.chaseItems {
		overview.StatusDistribution[string(item.Status)]++
		overview.CategoryDistribution[string(item.Category)]++
		overview.PriorityDistribution[string(item.Priority)]++
	}

	cutoff := now.AddDate(0, 0, -trendWindowDays)
	byDay := make(map[string]int)
	for _, rec := range s.activities {
		if rec.Timestamp.Before(cutoff) {
			continue
		}
		byDay[rec.Timestamp.UTC().Format(dayFormat)]++
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

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}

// window applies limit/offset to an already sorted slice.
func window[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
