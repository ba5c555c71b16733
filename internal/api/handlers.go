package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/models"
	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/store"
	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/util"
)

// queryInt reads an integer query parameter, falling back to def on
// missing, malformed or negative values.
func queryInt(r *http.Request, key string, def int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return def
	}
	n, err := strconv.Atoi(val)
	if err != nil || n < 0 {
		return def
	}
	return n
}

// rootHandler serves the service banner (GET /). The catch-all pattern
// also lands every unrouted path here, which turns into a 404.
func (s *Server) rootHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSON(w, http.StatusNotFound, models.Error("Not found"))
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"app":     AppName,
		"version": AppVersion,
		"status":  "running",
		"message": "Welcome to ChaseFlow AI - Autonomous Agent System for Financial Advisors",
	})
}

// healthHandler provides a health check endpoint for monitoring and load balancing
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": s.clock().UTC().Format(time.RFC3339),
	})
}

// dashboardStatsHandler serves the advisor dashboard headline numbers
// (GET /api/dashboard/stats).
func (s *Server) dashboardStatsHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.dashboardStatsHandler: processing stats request", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	stats, err := s.st.DashboardStats(s.clock())
	if err != nil {
		slog.Error("Server.dashboardStatsHandler: failed to compute stats", "error", err)
		writeJSON(w, http.StatusInternalServerError, models.Error("Failed to compute dashboard stats"))
		return
	}
	writeJSON(w, http.StatusOK, models.Success(stats))
}

// clientsHandler lists clients (GET /api/clients).
func (s *Server) clientsHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.clientsHandler: processing clients request", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	clients, err := s.st.ListClients(queryInt(r, "limit", DefaultListLimit), queryInt(r, "skip", 0))
	if err != nil {
		slog.Error("Server.clientsHandler: failed to list clients", "error", err)
		writeJSON(w, http.StatusInternalServerError, models.Error("Failed to list clients"))
		return
	}
	slog.Debug("Server.clientsHandler: clients fetched", "count", len(clients))
	writeJSON(w, http.StatusOK, models.Success(clients))
}

// clientHandler fetches one client (GET /api/clients/{id}).
func (s *Server) clientHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/clients/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusNotFound, models.Error("Unknown client endpoint"))
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	client, err := s.st.GetClient(id)
	if err != nil {
		slog.Error("Server.clientHandler: failed to fetch client", "error", err, "client_id", id)
		writeJSON(w, http.StatusInternalServerError, models.Error("Failed to fetch client"))
		return
	}
	if client == nil {
		writeJSON(w, http.StatusNotFound, models.Error("Client not found"))
		return
	}
	writeJSON(w, http.StatusOK, models.Success(client))
}

// chaseItemsHandler routes the chase item collection endpoints
// (GET/POST /api/chase-items).
func (s *Server) chaseItemsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listChaseItemsHandler(w, r)
	case http.MethodPost:
		s.createChaseItemHandler(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) listChaseItemsHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.listChaseItemsHandler: processing list request", "path", r.URL.Path)
	q := r.URL.Query()
	filter := store.ChaseItemFilter{
		Status:   models.ChaseStatus(q.Get("status")),
		Priority: models.Priority(q.Get("priority")),
		Category: models.ChaseCategory(q.Get("category")),
		Limit:    queryInt(r, "limit", DefaultListLimit),
		Offset:   queryInt(r, "offset", 0),
	}
	items, err := s.st.ListChaseItems(filter)
	if err != nil {
		slog.Error("Server.listChaseItemsHandler: failed to list chase items", "error", err)
		writeJSON(w, http.StatusInternalServerError, models.Error("Failed to list chase items"))
		return
	}
	slog.Debug("Server.listChaseItemsHandler: items fetched", "count", len(items))
	writeJSON(w, http.StatusOK, models.Success(items))
}

func (s *Server) createChaseItemHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	var req models.ChaseItemCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.createChaseItemHandler: failed to decode JSON", "error", err)
		writeJSON(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		slog.Warn("Server.createChaseItemHandler: validation failed", "error", err)
		writeJSON(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	now := s.clock()
	item := models.ChaseItem{
		ID:              util.GenerateChaseItemID(),
		ClientID:        req.ClientID,
		ClientName:      req.ClientName,
		Kind:            req.Kind,
		Category:        req.Category,
		Target:          req.Target,
		Description:     req.Description,
		ReferenceNumber: req.ReferenceNumber,
		Status:          models.StatusPending,
		Priority:        req.Priority,
		SentDate:        req.SentDate,
		ExpectedDate:    req.ExpectedDate,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if item.Priority == "" {
		item.Priority = models.PriorityMedium
	}

	if err := s.st.SaveChaseItem(item); err != nil {
		slog.Error("Server.createChaseItemHandler: failed to save chase item", "error", err)
		writeJSON(w, http.StatusInternalServerError, models.Error("Failed to create chase item"))
		return
	}
	slog.Info("Server.createChaseItemHandler: chase item created", "item_id", item.ID, "kind", item.Kind, "priority", item.Priority)
	writeJSON(w, http.StatusCreated, models.SuccessWithMessage("Chase item created successfully", item))
}

// chaseItemHandler routes the per-item endpoints
// (GET /api/chase-items/{id}, POST /api/chase-items/{id}/process).
func (s *Server) chaseItemHandler(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/chase-items/")
	segments := strings.Split(path, "/")

	if len(segments) == 0 || segments[0] == "" {
		writeJSON(w, http.StatusNotFound, models.Error("Unknown chase item endpoint"))
		return
	}
	itemID := segments[0]

	if len(segments) == 1 {
		switch r.Method {
		case http.MethodGet:
			s.getChaseItemHandler(w, r, itemID)
		default:
			w.Header().Set("Allow", http.MethodGet)
			writeJSON(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		}
		return
	}
	if len(segments) == 2 && segments[1] == "process" {
		switch r.Method {
		case http.MethodPost:
			s.processChaseItemHandler(w, r, itemID)
		default:
			w.Header().Set("Allow", http.MethodPost)
			writeJSON(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		}
		return
	}
	writeJSON(w, http.StatusNotFound, models.Error("Unknown chase item endpoint"))
}

func (s *Server) getChaseItemHandler(w http.ResponseWriter, r *http.Request, itemID string) {
	item, err := s.st.GetChaseItem(itemID)
	if err != nil {
		slog.Error("Server.getChaseItemHandler: failed to fetch chase item", "error", err, "item_id", itemID)
		writeJSON(w, http.StatusInternalServerError, models.Error("Failed to fetch chase item"))
		return
	}
	if item == nil {
		writeJSON(w, http.StatusNotFound, models.Error("Chase item not found"))
		return
	}
	writeJSON(w, http.StatusOK, models.Success(item))
}

// processChaseItemHandler runs one item through the agent fleet on demand.
func (s *Server) processChaseItemHandler(w http.ResponseWriter, r *http.Request, itemID string) {
	slog.Debug("Server.processChaseItemHandler: processing item", "item_id", itemID)
	item, err := s.st.GetChaseItem(itemID)
	if err != nil {
		slog.Error("Server.processChaseItemHandler: failed to fetch chase item", "error", err, "item_id", itemID)
		writeJSON(w, http.StatusInternalServerError, models.Error("Failed to fetch chase item"))
		return
	}
	if item == nil {
		writeJSON(w, http.StatusNotFound, models.Error("Chase item not found"))
		return
	}

	result := s.orchestrator.Process(r.Context(), *item)
	s.runner.Apply(r.Context(), *item, result)

	// On-demand processing counts as an attempt whatever the decision was.
	// Apply already recorded it for acted-on items.
	if !result.Action.Type.IsChasing() && !result.Action.Type.IsEscalation() {
		if err := s.st.RecordChaseAttempt(itemID, s.clock()); err != nil {
			slog.Error("Server.processChaseItemHandler: failed to record attempt", "error", err, "item_id", itemID)
		}
	}

	slog.Info("Server.processChaseItemHandler: item processed", "item_id", itemID, "action", result.Action.Type)
	writeJSON(w, http.StatusOK, models.Processed(result))
}

// predictionHandler serves the delay prediction for one item
// (GET /api/predictions/{id}).
func (s *Server) predictionHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/predictions/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusNotFound, models.Error("Unknown prediction endpoint"))
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	item, err := s.st.GetChaseItem(id)
	if err != nil {
		slog.Error("Server.predictionHandler: failed to fetch chase item", "error", err, "item_id", id)
		writeJSON(w, http.StatusInternalServerError, models.Error("Failed to fetch chase item"))
		return
	}
	if item == nil {
		writeJSON(w, http.StatusNotFound, models.Error("Chase item not found"))
		return
	}
	prediction := s.orchestrator.Predictor().Analyze(*item, s.clock())
	writeJSON(w, http.StatusOK, models.Success(prediction))
}

// activitiesHandler lists recent agent activity (GET /api/activities).
func (s *Server) activitiesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	filter := store.ActivityFilter{
		AgentType:   q.Get("agent_type"),
		ChaseItemID: q.Get("chase_item_id"),
		Limit:       queryInt(r, "limit", DefaultFeedLimit),
	}
	activities, err := s.st.ListActivities(filter)
	if err != nil {
		slog.Error("Server.activitiesHandler: failed to list activities", "error", err)
		writeJSON(w, http.StatusInternalServerError, models.Error("Failed to list activities"))
		return
	}
	slog.Debug("Server.activitiesHandler: activities fetched", "count", len(activities))
	writeJSON(w, http.StatusOK, models.Success(activities))
}

// communicationsHandler lists recent communications
// (GET /api/communications).
func (s *Server) communicationsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	filter := store.CommunicationFilter{
		ChaseItemID: r.URL.Query().Get("chase_item_id"),
		Limit:       queryInt(r, "limit", DefaultFeedLimit),
	}
	comms, err := s.st.ListCommunications(filter)
	if err != nil {
		slog.Error("Server.communicationsHandler: failed to list communications", "error", err)
		writeJSON(w, http.StatusInternalServerError, models.Error("Failed to list communications"))
		return
	}
	slog.Debug("Server.communicationsHandler: communications fetched", "count", len(comms))
	writeJSON(w, http.StatusOK, models.Success(comms))
}

// agentStatusHandler reports the whole agent fleet
// (GET /api/agents/status).
func (s *Server) agentStatusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	statuses := s.orchestrator.AllStatuses()
	total := 0
	for _, agent := range statuses {
		total += agent.ItemsProcessed
	}
	writeJSON(w, http.StatusOK, models.Success(map[string]interface{}{
		"agents":                statuses,
		"total_items_processed": total,
	}))
}

// simulateActivityHandler fabricates one demo activity event and pushes it
// to WebSocket subscribers (POST /api/simulate/activity). The event is not
// persisted.
func (s *Server) simulateActivityHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	rec := s.orchestrator.SimulateActivity()
	s.hub.BroadcastActivity(rec)
	slog.Debug("Server.simulateActivityHandler: simulated activity broadcast", "agent_type", rec.AgentType, "action", rec.Action)
	writeJSON(w, http.StatusOK, models.SuccessWithMessage("Activity simulated", rec))
}

// analyticsHandler serves the chase item distributions and activity trend
// (GET /api/analytics/overview).
func (s *Server) analyticsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	overview, err := s.st.AnalyticsOverview(s.clock())
	if err != nil {
		slog.Error("Server.analyticsHandler: failed to compute analytics", "error", err)
		writeJSON(w, http.StatusInternalServerError, models.Error("Failed to compute analytics"))
		return
	}
	writeJSON(w, http.StatusOK, models.Success(overview))
}
