// Package generator is the HTTP client for the external AI workout plan
// generation service. The service is an opaque collaborator: this client sends
// the generation parameters and decodes the nested plan structure it returns,
// nothing more.
package generator

import (
	"bytes"
	"context"
	"easyfitness/plan-service/internal/domain"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout bounds one generation call. Generation is the slowest
// external call in the system, so it gets its own budget instead of the
// shared server timeouts.
const DefaultTimeout = 60 * time.Second

// ExperienceLevel of the user requesting a plan.
type ExperienceLevel string

const (
	LevelBeginner     ExperienceLevel = "beginner"
	LevelIntermediate ExperienceLevel = "intermediate"
	LevelAdvanced     ExperienceLevel = "advanced"
)

// generateRequest is the wire payload of a generation call.
type generateRequest struct {
	UserGoal        string `json:"user_goal"`
	ExperienceLevel string `json:"experience_level"`
	DaysPerWeek     int    `json:"days_per_week"`
}

// generateResponse mirrors the generator's response envelope.
type generateResponse struct {
	Success bool            `json:"success"`
	Data    domain.PlanData `json:"data"`
	Message string          `json:"message"`
}

// Client calls the generation service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a generator client. A nil httpClient falls back to a
// client with DefaultTimeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// Generate requests a new plan. The returned PlanData is decoded as-is;
// structural validation is the caller's concern (the service layer validates
// before persisting).
func (c *Client) Generate(ctx context.Context, userGoal, experienceLevel string, daysPerWeek int) (*domain.PlanData, error) {
	body, err := json.Marshal(generateRequest{
		UserGoal:        userGoal,
		ExperienceLevel: experienceLevel,
		DaysPerWeek:     daysPerWeek,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal generate request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate-workout-plan/", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create generate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	// Correlation ID so one generation can be traced through the generator's logs.
	httpReq.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call generator: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Read a bounded chunk of the body for the error message.
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("generator returned status %d: %s", resp.StatusCode, msg)
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return nil, fmt.Errorf("decode generator response: %w", err)
	}
	if !genResp.Success {
		return nil, fmt.Errorf("generator reported failure: %s", genResp.Message)
	}

	return &genResp.Data, nil
}
