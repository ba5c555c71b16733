package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/agents"
	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/messaging"
	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/models"
	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/scheduler"
	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/store"
	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/testutil"
)

// apiTestNow is a Monday in June: outside peak season and not a weekend,
// so predictions stay stable.
var apiTestNow = time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC)

func apiTestClock() time.Time { return apiTestNow }

// newTestServer builds a server over an in-memory store with a fixed clock.
func newTestServer(t *testing.T) (*Server, store.Store) {
	t.Helper()
	st := store.NewInMemoryStore()
	orch := agents.NewOrchestrator(nil, agents.WithClock(apiTestClock))
	runner := scheduler.NewRunner(st, orch, messaging.NewSimulator(), scheduler.WithClock(apiTestClock))
	return NewServer(st, orch, runner, nil, WithClock(apiTestClock)), st
}

func serveRequest(t *testing.T, srv *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	return rr
}

// resultMap extracts the result field of a response envelope as an object.
func resultMap(t *testing.T, resp map[string]interface{}) map[string]interface{} {
	t.Helper()
	result, ok := resp["result"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected object result, got %T", resp["result"])
	}
	return result
}

// resultList extracts the result field of a response envelope as an array.
func resultList(t *testing.T, resp map[string]interface{}) []interface{} {
	t.Helper()
	result, ok := resp["result"].([]interface{})
	if !ok {
		t.Fatalf("expected array result, got %T", resp["result"])
	}
	return result
}

func TestRootBanner(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := serveRequest(t, srv, testutil.CreateHTTPRequest(t, http.MethodGet, "/", nil))
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "root banner")

	var body map[string]interface{}
	testutil.MustUnmarshalJSON(t, rr.Body.Bytes(), &body)
	if body["app"] != AppName {
		t.Errorf("app = %v, want %q", body["app"], AppName)
	}
	if body["version"] != AppVersion {
		t.Errorf("version = %v, want %q", body["version"], AppVersion)
	}
	if body["status"] != "running" {
		t.Errorf("status = %v, want running", body["status"])
	}
}

func TestRootUnknownPath(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := serveRequest(t, srv, testutil.CreateHTTPRequest(t, http.MethodGet, "/definitely/not/here", nil))
	testutil.AssertHTTPStatus(t, http.StatusNotFound, rr.Code, "unknown path")
	testutil.AssertJSONResponse(t, rr, string(models.APIStatusError))
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := serveRequest(t, srv, testutil.CreateHTTPRequest(t, http.MethodGet, "/health", nil))
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "health check")

	var body map[string]interface{}
	testutil.MustUnmarshalJSON(t, rr.Body.Bytes(), &body)
	if body["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", body["status"])
	}
	if body["timestamp"] != "2025-06-16T09:00:00Z" {
		t.Errorf("timestamp = %v, want fixed clock value", body["timestamp"])
	}
}

func TestClientEndpoints(t *testing.T) {
	srv, st := newTestServer(t)
	testutil.SeedChaseData(t, st)

	rr := serveRequest(t, srv, testutil.CreateHTTPRequest(t, http.MethodGet, "/api/clients", nil))
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "list clients")
	resp := testutil.AssertJSONResponse(t, rr, string(models.APIStatusOK))
	if got := len(resultList(t, resp)); got != 1 {
		t.Errorf("client count = %d, want 1", got)
	}

	rr = serveRequest(t, srv, testutil.CreateHTTPRequest(t, http.MethodGet, "/api/clients/cli_test_1", nil))
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "get client")
	resp = testutil.AssertJSONResponse(t, rr, string(models.APIStatusOK))
	if got := resultMap(t, resp)["name"]; got != "Emma Watson" {
		t.Errorf("client name = %v, want Emma Watson", got)
	}

	rr = serveRequest(t, srv, testutil.CreateHTTPRequest(t, http.MethodGet, "/api/clients/cli_missing", nil))
	testutil.AssertHTTPStatus(t, http.StatusNotFound, rr.Code, "missing client")
	resp = testutil.AssertJSONResponse(t, rr, string(models.APIStatusError))
	if resp["message"] != "Client not found" {
		t.Errorf("message = %v, want Client not found", resp["message"])
	}
}

func TestCreateChaseItem(t *testing.T) {
	srv, st := newTestServer(t)

	payload := models.ChaseItemCreate{
		Kind:        models.ChaseKindDocument,
		Category:    models.CategoryClient,
		Target:      "Sarah Mills",
		Description: "P60 Tax Document",
	}
	rr := serveRequest(t, srv, testutil.CreateHTTPRequest(t, http.MethodPost, "/api/chase-items", payload))
	testutil.AssertHTTPStatus(t, http.StatusCreated, rr.Code, "create chase item")
	resp := testutil.AssertJSONResponse(t, rr, string(models.APIStatusOK))
	if resp["message"] != "Chase item created successfully" {
		t.Errorf("message = %v", resp["message"])
	}

	result := resultMap(t, resp)
	id, ok := result["id"].(string)
	if !ok || !strings.HasPrefix(id, "chs_") {
		t.Errorf("id = %v, want chs_ prefix", result["id"])
	}
	if result["status"] != string(models.StatusPending) {
		t.Errorf("status = %v, want pending", result["status"])
	}
	if result["priority"] != string(models.PriorityMedium) {
		t.Errorf("priority = %v, want medium default", result["priority"])
	}

	items, err := st.ListChaseItems(store.ChaseItemFilter{})
	if err != nil {
		t.Fatalf("ListChaseItems: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("stored items = %d, want 1", len(items))
	}
	if items[0].ID != id {
		t.Errorf("stored item id = %s, want %s", items[0].ID, id)
	}
}

func TestCreateChaseItemRejectsBadPayloads(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := serveRequest(t, srv, testutil.CreateJSONRequest(t, http.MethodPost, "/api/chase-items", `{"type":`))
	testutil.AssertHTTPStatus(t, http.StatusBadRequest, rr.Code, "malformed JSON")
	resp := testutil.AssertJSONResponse(t, rr, string(models.APIStatusError))
	if resp["message"] != "Invalid JSON format" {
		t.Errorf("message = %v, want Invalid JSON format", resp["message"])
	}

	// Missing target fails validation.
	payload := models.ChaseItemCreate{Kind: models.ChaseKindDocument, Category: models.CategoryClient}
	rr = serveRequest(t, srv, testutil.CreateHTTPRequest(t, http.MethodPost, "/api/chase-items", payload))
	testutil.AssertHTTPStatus(t, http.StatusBadRequest, rr.Code, "missing target")
	testutil.AssertJSONResponse(t, rr, string(models.APIStatusError))
}

func TestChaseItemLookup(t *testing.T) {
	srv, st := newTestServer(t)
	testutil.SeedChaseData(t, st)

	rr := serveRequest(t, srv, testutil.CreateHTTPRequest(t, http.MethodGet, "/api/chase-items/chs_test_1", nil))
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "get chase item")
	resp := testutil.AssertJSONResponse(t, rr, string(models.APIStatusOK))
	if got := resultMap(t, resp)["id"]; got != "chs_test_1" {
		t.Errorf("item id = %v, want chs_test_1", got)
	}

	rr = serveRequest(t, srv, testutil.CreateHTTPRequest(t, http.MethodGet, "/api/chase-items/chs_missing", nil))
	testutil.AssertHTTPStatus(t, http.StatusNotFound, rr.Code, "missing chase item")

	rr = serveRequest(t, srv, testutil.CreateHTTPRequest(t, http.MethodGet, "/api/chase-items/chs_test_1/unknown", nil))
	testutil.AssertHTTPStatus(t, http.StatusNotFound, rr.Code, "unknown subresource")
	resp = testutil.AssertJSONResponse(t, rr, string(models.APIStatusError))
	if resp["message"] != "Unknown chase item endpoint" {
		t.Errorf("message = %v", resp["message"])
	}
}

func TestListChaseItemsFilters(t *testing.T) {
	srv, st := newTestServer(t)
	testutil.SeedChaseData(t, st)

	tests := []struct {
		name string
		url  string
		want int
	}{
		{name: "all items", url: "/api/chase-items", want: 2},
		{name: "pending only", url: "/api/chase-items?status=pending", want: 1},
		{name: "provider only", url: "/api/chase-items?category=provider", want: 1},
		{name: "high priority", url: "/api/chase-items?priority=high", want: 1},
		{name: "limited", url: "/api/chase-items?limit=1", want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serveRequest(t, srv, testutil.CreateHTTPRequest(t, http.MethodGet, tt.url, nil))
			testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, tt.name)
			resp := testutil.AssertJSONResponse(t, rr, string(models.APIStatusOK))
			if got := len(resultList(t, resp)); got != tt.want {
				t.Errorf("item count = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestProcessChaseItemChases(t *testing.T) {
	srv, st := newTestServer(t)
	testutil.SeedChaseData(t, st)

	// chs_test_1: medium priority document, 8 days out, no attempts yet.
	// The document chaser sends a first reminder by email.
	rr := serveRequest(t, srv, testutil.CreateHTTPRequest(t, http.MethodPost, "/api/chase-items/chs_test_1/process", nil))
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "process chase item")
	resp := testutil.AssertJSONResponse(t, rr, string(models.APIStatusProcessed))

	result := resultMap(t, resp)
	action, ok := result["action"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected action object, got %T", result["action"])
	}
	if action["action"] != string(models.ActionReminderSent) {
		t.Errorf("action = %v, want reminder_sent", action["action"])
	}
	if action["channel"] != string(models.ChannelEmail) {
		t.Errorf("channel = %v, want email", action["channel"])
	}
	prediction, ok := result["prediction"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected prediction object, got %T", result["prediction"])
	}
	if prediction["predicted_delay_days"] != float64(4) {
		t.Errorf("predicted_delay_days = %v, want 4", prediction["predicted_delay_days"])
	}

	item, err := st.GetChaseItem("chs_test_1")
	if err != nil || item == nil {
		t.Fatalf("GetChaseItem after process: item=%v err=%v", item, err)
	}
	if item.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", item.Attempts)
	}
	if item.LastAttemptDate == nil {
		t.Error("expected LastAttemptDate to be recorded")
	}
	if item.PredictedDelayDays == nil || *item.PredictedDelayDays != 4 {
		t.Errorf("persisted PredictedDelayDays = %v, want 4", item.PredictedDelayDays)
	}

	comms, err := st.ListCommunications(store.CommunicationFilter{ChaseItemID: "chs_test_1"})
	if err != nil {
		t.Fatalf("ListCommunications: %v", err)
	}
	if len(comms) != 1 {
		t.Fatalf("communications = %d, want 1", len(comms))
	}
	if comms[0].Recipient != "emma.watson@example.com" {
		t.Errorf("recipient = %s, want client email", comms[0].Recipient)
	}
	if comms[0].Status != scheduler.DeliveryStatusSent {
		t.Errorf("delivery status = %s, want sent", comms[0].Status)
	}
}

func TestProcessChaseItemMonitorStillCountsAttempt(t *testing.T) {
	srv, st := newTestServer(t)

	sent := apiTestNow.AddDate(0, 0, -2)
	item := models.ChaseItem{
		ID:          "chs_fresh",
		ClientName:  "Oliver Smith",
		Kind:        models.ChaseKindDocument,
		Category:    models.CategoryClient,
		Target:      "Oliver Smith",
		Description: "Bank Statements (3 months)",
		Status:      models.StatusPending,
		Priority:    models.PriorityLow,
		SentDate:    &sent,
		CreatedAt:   sent,
		UpdatedAt:   sent,
	}
	if err := st.SaveChaseItem(item); err != nil {
		t.Fatalf("SaveChaseItem: %v", err)
	}

	rr := serveRequest(t, srv, testutil.CreateHTTPRequest(t, http.MethodPost, "/api/chase-items/chs_fresh/process", nil))
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "process fresh item")
	resp := testutil.AssertJSONResponse(t, rr, string(models.APIStatusProcessed))

	action := resultMap(t, resp)["action"].(map[string]interface{})
	if action["action"] != string(models.ActionMonitor) {
		t.Errorf("action = %v, want monitor", action["action"])
	}

	// On-demand processing records the attempt even when the decision was
	// to keep monitoring, and sends nothing.
	stored, err := st.GetChaseItem("chs_fresh")
	if err != nil || stored == nil {
		t.Fatalf("GetChaseItem: item=%v err=%v", stored, err)
	}
	if stored.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", stored.Attempts)
	}
	testutil.AssertCommunicationCount(t, st, 0, "monitor decision")
}

func TestProcessMissingChaseItem(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := serveRequest(t, srv, testutil.CreateHTTPRequest(t, http.MethodPost, "/api/chase-items/chs_missing/process", nil))
	testutil.AssertHTTPStatus(t, http.StatusNotFound, rr.Code, "process missing item")
	resp := testutil.AssertJSONResponse(t, rr, string(models.APIStatusError))
	if resp["message"] != "Chase item not found" {
		t.Errorf("message = %v", resp["message"])
	}
}

func TestPredictionEndpoint(t *testing.T) {
	srv, st := newTestServer(t)
	testutil.SeedChaseData(t, st)

	// chs_test_2: high priority provider LOA, 20 days out, no attempts.
	// Score 40+20+10=70, delay 15*70/50=21.
	rr := serveRequest(t, srv, testutil.CreateHTTPRequest(t, http.MethodGet, "/api/predictions/chs_test_2", nil))
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "prediction")
	resp := testutil.AssertJSONResponse(t, rr, string(models.APIStatusOK))

	result := resultMap(t, resp)
	if result["predicted_delay_days"] != float64(21) {
		t.Errorf("predicted_delay_days = %v, want 21", result["predicted_delay_days"])
	}
	if result["confidence"] != 0.7 {
		t.Errorf("confidence = %v, want 0.7", result["confidence"])
	}
	if result["model_version"] != "v1.0" {
		t.Errorf("model_version = %v, want v1.0", result["model_version"])
	}

	rr = serveRequest(t, srv, testutil.CreateHTTPRequest(t, http.MethodGet, "/api/predictions/chs_missing", nil))
	testutil.AssertHTTPStatus(t, http.StatusNotFound, rr.Code, "prediction for missing item")
}

func TestActivitiesEndpoint(t *testing.T) {
	srv, st := newTestServer(t)

	recs := []models.ActivityRecord{
		{ID: "act_1", AgentID: "doc_chaser_001", AgentType: models.AgentTypeDocumentChaser, Action: "reminder_sent", Status: models.ActivityStatusSuccess, Timestamp: apiTestNow},
		{ID: "act_2", AgentID: "predictor_001", AgentType: models.AgentTypePredictor, Action: "prediction_generated", Status: models.ActivityStatusSuccess, Timestamp: apiTestNow},
	}
	for _, rec := range recs {
		if err := st.RecordActivity(rec); err != nil {
			t.Fatalf("RecordActivity: %v", err)
		}
	}

	rr := serveRequest(t, srv, testutil.CreateHTTPRequest(t, http.MethodGet, "/api/activities", nil))
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "list activities")
	resp := testutil.AssertJSONResponse(t, rr, string(models.APIStatusOK))
	if got := len(resultList(t, resp)); got != 2 {
		t.Errorf("activity count = %d, want 2", got)
	}

	rr = serveRequest(t, srv, testutil.CreateHTTPRequest(t, http.MethodGet, "/api/activities?agent_type=predictor", nil))
	resp = testutil.AssertJSONResponse(t, rr, string(models.APIStatusOK))
	if got := len(resultList(t, resp)); got != 1 {
		t.Errorf("filtered activity count = %d, want 1", got)
	}
}

func TestCommunicationsEndpoint(t *testing.T) {
	srv, st := newTestServer(t)

	comms := []models.Communication{
		{ID: "com_1", ChaseItemID: "chs_a", Channel: models.ChannelEmail, Direction: models.DirectionOutbound, Recipient: "a@example.com", Content: "first", SentAt: apiTestNow},
		{ID: "com_2", ChaseItemID: "chs_b", Channel: models.ChannelSMS, Direction: models.DirectionOutbound, Recipient: "+447700900123", Content: "second", SentAt: apiTestNow},
	}
	for _, comm := range comms {
		if err := st.SaveCommunication(comm); err != nil {
			t.Fatalf("SaveCommunication: %v", err)
		}
	}

	rr := serveRequest(t, srv, testutil.CreateHTTPRequest(t, http.MethodGet, "/api/communications", nil))
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "list communications")
	resp := testutil.AssertJSONResponse(t, rr, string(models.APIStatusOK))
	if got := len(resultList(t, resp)); got != 2 {
		t.Errorf("communication count = %d, want 2", got)
	}

	rr = serveRequest(t, srv, testutil.CreateHTTPRequest(t, http.MethodGet, "/api/communications?chase_item_id=chs_b", nil))
	resp = testutil.AssertJSONResponse(t, rr, string(models.APIStatusOK))
	list := resultList(t, resp)
	if len(list) != 1 {
		t.Fatalf("filtered communication count = %d, want 1", len(list))
	}
	if first, ok := list[0].(map[string]interface{}); !ok || first["id"] != "com_2" {
		t.Errorf("filtered communication = %v, want com_2", list[0])
	}
}

func TestAgentStatusEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := serveRequest(t, srv, testutil.CreateHTTPRequest(t, http.MethodGet, "/api/agents/status", nil))
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "agent status")
	resp := testutil.AssertJSONResponse(t, rr, string(models.APIStatusOK))

	result := resultMap(t, resp)
	agentList, ok := result["agents"].([]interface{})
	if !ok {
		t.Fatalf("expected agents array, got %T", result["agents"])
	}
	if len(agentList) != 4 {
		t.Errorf("agent count = %d, want 4", len(agentList))
	}
	if result["total_items_processed"] != float64(0) {
		t.Errorf("total_items_processed = %v, want 0", result["total_items_processed"])
	}
}

func TestSimulateActivityEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := serveRequest(t, srv, testutil.CreateHTTPRequest(t, http.MethodPost, "/api/simulate/activity", nil))
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "simulate activity")
	resp := testutil.AssertJSONResponse(t, rr, string(models.APIStatusOK))
	if resp["message"] != "Activity simulated" {
		t.Errorf("message = %v", resp["message"])
	}

	result := resultMap(t, resp)
	agentType, _ := result["agent_type"].(string)
	if agentType == "" {
		t.Error("expected simulated activity to carry an agent type")
	}

	rr = serveRequest(t, srv, testutil.CreateHTTPRequest(t, http.MethodGet, "/api/simulate/activity", nil))
	testutil.AssertHTTPStatus(t, http.StatusMethodNotAllowed, rr.Code, "simulate via GET")
}

func TestDashboardStatsEndpoint(t *testing.T) {
	srv, st := newTestServer(t)
	testutil.SeedChaseData(t, st)

	rr := serveRequest(t, srv, testutil.CreateHTTPRequest(t, http.MethodGet, "/api/dashboard/stats", nil))
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "dashboard stats")
	resp := testutil.AssertJSONResponse(t, rr, string(models.APIStatusOK))

	result := resultMap(t, resp)
	if result["total_items"] != float64(2) {
		t.Errorf("total_items = %v, want 2", result["total_items"])
	}
	if result["active_agents"] != float64(4) {
		t.Errorf("active_agents = %v, want 4", result["active_agents"])
	}
}

func TestAnalyticsOverviewEndpoint(t *testing.T) {
	srv, st := newTestServer(t)
	testutil.SeedChaseData(t, st)

	rr := serveRequest(t, srv, testutil.CreateHTTPRequest(t, http.MethodGet, "/api/analytics/overview", nil))
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "analytics overview")
	resp := testutil.AssertJSONResponse(t, rr, string(models.APIStatusOK))

	result := resultMap(t, resp)
	statusDist, ok := result["status_distribution"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected status_distribution object, got %T", result["status_distribution"])
	}
	if statusDist["pending"] != float64(1) || statusDist["sent"] != float64(1) {
		t.Errorf("status_distribution = %v, want pending:1 sent:1", statusDist)
	}
	categoryDist, ok := result["category_distribution"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected category_distribution object, got %T", result["category_distribution"])
	}
	if categoryDist["client"] != float64(1) || categoryDist["provider"] != float64(1) {
		t.Errorf("category_distribution = %v, want client:1 provider:1", categoryDist)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/health"},
		{http.MethodDelete, "/api/chase-items"},
		{http.MethodPost, "/api/clients"},
		{http.MethodPost, "/api/dashboard/stats"},
		{http.MethodPost, "/api/analytics/overview"},
	}

	for _, tt := range tests {
		rr := serveRequest(t, srv, testutil.CreateHTTPRequest(t, tt.method, tt.path, nil))
		testutil.AssertHTTPStatus(t, http.StatusMethodNotAllowed, rr.Code, tt.method+" "+tt.path)
	}
}

func TestWebSocketActivityFeed(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/agent-activity"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to dial WebSocket: %v", err)
	}
	defer conn.Close()

	// Registration happens on the server goroutine after the upgrade.
	deadline := time.Now().Add(2 * time.Second)
	for srv.Hub().SubscriberCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered with hub")
		}
		time.Sleep(10 * time.Millisecond)
	}

	rec := models.ActivityRecord{
		ID:        "act_ws_1",
		AgentID:   "predictor_001",
		AgentType: models.AgentTypePredictor,
		Action:    "Generated delay prediction",
		Status:    models.ActivityStatusSuccess,
		Timestamp: apiTestNow,
	}
	srv.Hub().BroadcastActivity(rec)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event ActivityEvent
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("failed to read activity event: %v", err)
	}
	if event.Type != eventTypeAgentActivity {
		t.Errorf("event type = %s, want %s", event.Type, eventTypeAgentActivity)
	}
	if event.Data.ID != rec.ID || event.Data.AgentType != rec.AgentType {
		t.Errorf("event data = %+v, want broadcast record", event.Data)
	}
}

func TestHubDropsClosedSubscribers(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/agent-activity"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to dial WebSocket: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for srv.Hub().SubscriberCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered with hub")
		}
		time.Sleep(10 * time.Millisecond)
	}

	conn.Close()

	// The read loop notices the close and unregisters the subscriber.
	deadline = time.Now().Add(2 * time.Second)
	for srv.Hub().SubscriberCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never unregistered after close")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
