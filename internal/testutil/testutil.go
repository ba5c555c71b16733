// Package testutil provides common test utilities and helpers for ChaseFlow tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/models"
	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/store"
)

// TestingT is the subset of testing.T the helpers rely on. Taking the
// interface lets the helpers themselves be exercised with a recorder.
type TestingT interface {
	Helper()
	Errorf(format string, args ...interface{})
	Error(args ...interface{})
	Fatalf(format string, args ...interface{})
	Fatal(args ...interface{})
}

// AssertHTTPStatus checks the HTTP status code and fails the test if it doesn't match.
func AssertHTTPStatus(t TestingT, expected, actual int, context string) {
	t.Helper()
	if actual != expected {
		t.Errorf("%s: expected status %d, got %d", context, expected, actual)
	}
}

// AssertJSONResponse decodes JSON response and validates the status field.
func AssertJSONResponse(t TestingT, rr *httptest.ResponseRecorder, expectedStatus string) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON response: %v", err)
	}

	if status, ok := response["status"].(string); ok {
		if status != expectedStatus {
			t.Errorf("expected status '%s', got '%s'", expectedStatus, status)
		}
	} else {
		t.Error("response missing or invalid 'status' field")
	}

	return response
}

// CreateHTTPRequest creates an HTTP request with optional JSON body for testing.
func CreateHTTPRequest(t TestingT, method, url string, body interface{}) *http.Request {
	t.Helper()
	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("failed to create HTTP request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// CreateJSONRequest creates an HTTP request carrying a raw JSON string body.
// Useful for malformed-payload cases that json.Marshal cannot produce.
func CreateJSONRequest(t TestingT, method, url, jsonBody string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(jsonBody))
	if err != nil {
		t.Fatalf("failed to create HTTP request: %v", err)
	}
	if jsonBody != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// AssertCommunicationCount validates the number of communications in store matches expected.
func AssertCommunicationCount(t TestingT, st store.Store, expected int, context string) {
	t.Helper()
	comms, err := st.ListCommunications(store.CommunicationFilter{})
	if err != nil {
		t.Fatalf("%s: failed to list communications: %v", context, err)
	}
	if len(comms) != expected {
		t.Errorf("%s: expected %d communications, got %d", context, expected, len(comms))
	}
}

// SeedChaseData adds a sample client and two chase items to the store for testing.
func SeedChaseData(t TestingT, st store.Store) {
	t.Helper()

	now := time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC)
	client := models.Client{
		ID:          "cli_test_1",
		Name:        "Emma Watson",
		Email:       "emma.watson@example.com",
		Phone:       "+447700900123",
		AdvisorID:   "1",
		RiskProfile: "Balanced",
		Status:      "active",
		CreatedAt:   now,
	}
	if err := st.SaveClient(client); err != nil {
		t.Fatalf("failed to seed test client: %v", err)
	}

	docSent := now.AddDate(0, 0, -8)
	loaSent := now.AddDate(0, 0, -20)
	items := []models.ChaseItem{
		{
			ID:          "chs_test_1",
			ClientID:    client.ID,
			ClientName:  client.Name,
			Kind:        models.ChaseKindDocument,
			Category:    models.CategoryClient,
			Target:      client.Name,
			Description: "Proof of Identity (Passport)",
			Status:      models.StatusPending,
			Priority:    models.PriorityMedium,
			SentDate:    &docSent,
			CreatedAt:   docSent,
			UpdatedAt:   docSent,
		},
		{
			ID:              "chs_test_2",
			ClientID:        client.ID,
			ClientName:      client.Name,
			Kind:            models.ChaseKindLOA,
			Category:        models.CategoryProvider,
			Target:          "Aviva",
			Description:     "Pension Transfer LOA",
			ReferenceNumber: "REF-1001",
			Status:          models.StatusSent,
			Priority:        models.PriorityHigh,
			SentDate:        &loaSent,
			CreatedAt:       loaSent,
			UpdatedAt:       loaSent,
		},
	}
	for _, item := range items {
		if err := st.SaveChaseItem(item); err != nil {
			t.Fatalf("failed to seed test chase item: %v", err)
		}
	}
}

// MustMarshalJSON marshals an object to JSON and fails test on error.
func MustMarshalJSON(t TestingT, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal JSON: %v", err)
	}
	return data
}

// MustUnmarshalJSON unmarshals JSON data into target and fails test on error.
func MustUnmarshalJSON(t TestingT, data []byte, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, target); err != nil {
		t.Fatalf("failed to unmarshal JSON: %v", err)
	}
}
