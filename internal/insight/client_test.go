package insight

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/javiserrasc-tech/Corricion/internal/models"

	"go.uber.org/zap"
)

func testSession() models.RunSession {
	end := int64(30 * 60 * 1000)
	return models.RunSession{
		ID:          "run-1",
		StartTime:   0,
		EndTime:     &end,
		DistanceKm:  5,
		AveragePace: 6,
		Status:      models.StatusCompleted,
	}
}

func TestClientGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/insights" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}

		var req map[string]float64
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req["distanceKm"] != 5 {
			t.Errorf("distanceKm = %v, want 5", req["distanceKm"])
		}
		if req["durationMinutes"] != 30 {
			t.Errorf("durationMinutes = %v, want 30", req["durationMinutes"])
		}
		if req["avgSpeedKmh"] != 10 {
			t.Errorf("avgSpeedKmh = %v, want 10", req["avgSpeedKmh"])
		}

		json.NewEncoder(w).Encode(map[string]string{"insight": "solid tempo work"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", 5*time.Second, zap.NewNop())
	text, err := client.Generate(testSession())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "solid tempo work" {
		t.Fatalf("Generate = %q", text)
	}
}

func TestClientGenerateBackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second, zap.NewNop())
	if _, err := client.Generate(testSession()); err == nil {
		t.Fatal("expected error on 503 response")
	}
}

func TestClientGenerateEmptyInsight(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"insight":""}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second, zap.NewNop())
	if _, err := client.Generate(testSession()); err == nil {
		t.Fatal("expected error on empty commentary")
	}
}

func TestClientGenerateUnreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "", 500*time.Millisecond, zap.NewNop())
	if _, err := client.Generate(testSession()); err == nil {
		t.Fatal("expected error for unreachable backend")
	}
}
