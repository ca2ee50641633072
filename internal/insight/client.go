package insight

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/javiserrasc-tech/Corricion/internal/models"

	"go.uber.org/zap"
)

// Fallback is substituted whenever the coach backend fails or times out.
// Commentary must never block or fail session finalization.
const Fallback = "The AI coach is currently resting. Great job on your run!"

// Client requests AI commentary for a completed run from the coach backend
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new insight client
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

type insightRequest struct {
	DistanceKm      float64 `json:"distanceKm"`
	DurationMinutes float64 `json:"durationMinutes"`
	AvgSpeedKmh     float64 `json:"avgSpeedKmh"`
	AveragePace     float64 `json:"averagePace"`
}

type insightResponse struct {
	Insight string `json:"insight"`
}

// Generate asks the backend for commentary on a completed session
func (c *Client) Generate(session models.RunSession) (string, error) {
	var durationMinutes float64
	if session.EndTime != nil {
		durationMinutes = float64(*session.EndTime-session.StartTime) / 60000
	}

	avgSpeedKmh := 0.0
	if durationMinutes > 0 {
		avgSpeedKmh = session.DistanceKm / (durationMinutes / 60)
	}

	reqBody := insightRequest{
		DistanceKm:      session.DistanceKm,
		DurationMinutes: durationMinutes,
		AvgSpeedKmh:     avgSpeedKmh,
		AveragePace:     session.AveragePace,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal insight request: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/insights", c.baseURL)
	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(startTime)

	if err != nil {
		c.logger.Warn("Insight request failed",
			zap.Error(err),
			zap.String("session_id", session.ID),
			zap.Duration("duration", duration),
		)
		return "", fmt.Errorf("insight request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("Insight backend returned error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("session_id", session.ID),
		)
		return "", fmt.Errorf("insight backend returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed insightResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode insight response: %w", err)
	}
	if parsed.Insight == "" {
		return "", fmt.Errorf("insight backend returned empty commentary")
	}

	c.logger.Info("Insight generated",
		zap.String("session_id", session.ID),
		zap.Duration("duration", duration),
	)
	return parsed.Insight, nil
}
