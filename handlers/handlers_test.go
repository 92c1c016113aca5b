package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"report-triage-pipeline/config"
	"report-triage-pipeline/dedup"
	"report-triage-pipeline/models"
	"report-triage-pipeline/pipeline"
	"report-triage-pipeline/store"

	"github.com/gin-gonic/gin"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.NewJSONLStore(filepath.Join(t.TempDir(), "dataset.jsonl"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := config.Load()
	svc := pipeline.NewService(cfg, st, dedup.NewDetector(st, dedup.DefaultOptions()))
	h := NewHandlers(svc, st)

	router := gin.New()
	router.GET("/health", h.HealthCheck)
	router.POST("/api/v3/reports", h.SubmitReport)
	router.GET("/api/v3/decisions", h.GetRecentDecisions)
	router.GET("/api/v3/stats", h.GetStats)
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid response body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got %q", body["status"])
	}
}

func TestSubmitReportAccepted(t *testing.T) {
	router := newTestRouter(t)

	payload, _ := json.Marshal(models.Report{
		ReportID:    "r1",
		Description: "huge pothole on the main road",
		UserID:      "user-1",
	})
	w := postJSON(t, router, "/api/v3/reports", payload)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var decision models.Decision
	if err := json.Unmarshal(w.Body.Bytes(), &decision); err != nil {
		t.Fatalf("Invalid response body: %v", err)
	}
	if !decision.Accept || decision.Status != models.StatusAccepted {
		t.Errorf("Expected accepted decision, got accept=%v status=%q", decision.Accept, decision.Status)
	}
	if decision.Category != "Road & Traffic" {
		t.Errorf("Expected category Road & Traffic, got %q", decision.Category)
	}
	if decision.Reason != pipeline.ReasonAccepted {
		t.Errorf("Expected reason %q, got %q", pipeline.ReasonAccepted, decision.Reason)
	}
}

func TestSubmitReportGeneratesReportID(t *testing.T) {
	router := newTestRouter(t)

	w := postJSON(t, router, "/api/v3/reports", []byte(`{"description": "garbage pile near the park gate"}`))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var decision models.Decision
	if err := json.Unmarshal(w.Body.Bytes(), &decision); err != nil {
		t.Fatalf("Invalid response body: %v", err)
	}
	if decision.ReportID == "" {
		t.Error("Expected a generated report_id")
	}
}

func TestSubmitReportMissingDescription(t *testing.T) {
	router := newTestRouter(t)

	w := postJSON(t, router, "/api/v3/reports", []byte(`{"report_id": "r1", "description": ""}`))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
	var decision models.Decision
	if err := json.Unmarshal(w.Body.Bytes(), &decision); err != nil {
		t.Fatalf("Invalid response body: %v", err)
	}
	if decision.Accept {
		t.Error("Expected rejected decision")
	}
	if decision.Reason != pipeline.ReasonDescriptionMissing {
		t.Errorf("Expected reason %q, got %q", pipeline.ReasonDescriptionMissing, decision.Reason)
	}
}

func TestSubmitReportInvalidBody(t *testing.T) {
	router := newTestRouter(t)

	w := postJSON(t, router, "/api/v3/reports", []byte(`{not json`))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
}

func TestGetRecentDecisions(t *testing.T) {
	router := newTestRouter(t)

	descriptions := []string{
		"pothole near the bus stop",
		"garbage pile on the corner",
		"water leak near the school",
	}
	for i, desc := range descriptions {
		payload, _ := json.Marshal(models.Report{ReportID: string(rune('a' + i)), Description: desc})
		if w := postJSON(t, router, "/api/v3/reports", payload); w.Code != http.StatusOK {
			t.Fatalf("Seed submission %d failed: %d", i, w.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v3/decisions?limit=2", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var body struct {
		Success bool                    `json:"success"`
		Data    []models.DecisionRecord `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid response body: %v", err)
	}
	if len(body.Data) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(body.Data))
	}
	if body.Data[0].Description != descriptions[2] || body.Data[1].Description != descriptions[1] {
		t.Errorf("Expected newest-first ordering, got %q then %q",
			body.Data[0].Description, body.Data[1].Description)
	}
}

func TestGetRecentDecisionsInvalidLimit(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v3/decisions?limit=zero", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
}

func TestGetStats(t *testing.T) {
	router := newTestRouter(t)

	payload, _ := json.Marshal(models.Report{ReportID: "r1", Description: "water leak near the school"})
	if w := postJSON(t, router, "/api/v3/reports", payload); w.Code != http.StatusOK {
		t.Fatalf("Seed submission failed: %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v3/stats", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var body struct {
		Success bool                 `json:"success"`
		Data    models.DecisionStats `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid response body: %v", err)
	}
	if !body.Success {
		t.Error("Expected success")
	}
	if body.Data.TotalDecisions != 1 || body.Data.Accepted != 1 {
		t.Errorf("Expected 1 accepted decision, got %+v", body.Data)
	}
}
