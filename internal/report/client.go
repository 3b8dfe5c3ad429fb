// Package report talks to the optional narrative agent. The agent consumes
// the engine's output and produces a human-readable summary; it is strictly
// downstream, and its failure must never fail the decision.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"sentinelle/internal/explain"
)

// Payload is the flat decision structure the agent consumes. Only system
// outputs are included, so the narrative cannot be grounded on anything the
// engine did not decide.
type Payload struct {
	Decision      string                `json:"decision"`
	RiskScore     float64               `json:"risk_score"`
	FraudScore    float64               `json:"fraud_score"`
	PolicyRule    string                `json:"policy_rule"`
	ModelVersions map[string]string     `json:"model_versions"`
	Explanations  explain.Explanations  `json:"explanations"`
}

// Client posts decision payloads to the agent's /report endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a report client. Returns nil when disabled; the service
// treats a nil client as "no narrative".
func NewClient(enabled bool, baseURL string, timeout time.Duration) *Client {
	if !enabled {
		return nil
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Generate requests a narrative summary for the payload. Errors are returned
// for logging but callers must treat an empty summary as a valid outcome.
func (c *Client) Generate(ctx context.Context, payload Payload) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal report payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/report", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build report request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("call report agent: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("report agent returned status %d", resp.StatusCode)
	}

	var out struct {
		ReportSummary string `json:"report_summary"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode report response: %w", err)
	}
	return out.ReportSummary, nil
}
