// Package advisor generates human-readable root-cause narratives through the
// Anthropic Messages API. The narrative is supplementary: callers must treat
// any error here as a missing nicety, not a failed analysis.
package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/silpredict/silpredict/internal/rootcause"
)

const defaultBaseURL = "https://api.anthropic.com/v1/messages"

// Anthropic calls the Anthropic Messages API to summarize analysis evidence
type Anthropic struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewAnthropic creates an advisor. The API key is required; an empty model
// falls back to a small default.
func NewAnthropic(apiKey, model string) *Anthropic {
	if model == "" {
		model = "claude-3-5-haiku-latest"
	}
	return &Anthropic{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Anthropic Messages API request/response structures
type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	ID      string `json:"id"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

const systemPrompt = `You are a reliability engineer. Given recurring failure patterns and their correlated evidence for one piece of industrial equipment, write a short root-cause narrative (max 150 words).

IMPORTANT RULES:
- ONLY use the evidence provided - do NOT invent failure modes or measurements
- State the most likely cause first, then the supporting evidence
- Plain prose, no headings or lists

Respond with ONLY the narrative, nothing else.`

// Summarize implements rootcause.Advisor
func (a *Anthropic) Summarize(ctx context.Context, evidence rootcause.Evidence) (string, error) {
	if a.apiKey == "" {
		return "", fmt.Errorf("anthropic api key not configured")
	}

	reqBody := anthropicRequest{
		Model:     a.model,
		MaxTokens: 512,
		System:    systemPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: buildPrompt(evidence)},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.baseURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("anthropic api request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read anthropic response: %w", err)
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("failed to parse anthropic response: %w", err)
	}
	if apiResp.Error != nil {
		return "", fmt.Errorf("anthropic api error: %s", apiResp.Error.Message)
	}
	if len(apiResp.Content) == 0 {
		return "", fmt.Errorf("empty anthropic response")
	}

	narrative := strings.TrimSpace(apiResp.Content[0].Text)
	if narrative == "" {
		return "", fmt.Errorf("empty narrative in anthropic response")
	}
	return narrative, nil
}

func buildPrompt(evidence rootcause.Evidence) string {
	var b strings.Builder

	if evidence.Equipment != nil {
		fmt.Fprintf(&b, "Equipment: %s (%s, tag %s)\n\n",
			evidence.Equipment.Name, evidence.Equipment.Type, evidence.Equipment.Tag)
	}

	b.WriteString("Failure patterns:\n")
	for _, p := range evidence.Patterns {
		fmt.Fprintf(&b, "- %q: %d occurrences, average interval %.1f hours, predominant gravity %s\n",
			p.Description, p.Occurrences, p.AverageIntervalHours, p.PredominantGravity)
	}

	if len(evidence.Causes) > 0 {
		b.WriteString("\nPossible causes:\n")
		for _, c := range evidence.Causes {
			fmt.Fprintf(&b, "- %s (confidence %.2f; %s)\n", c.Description, c.Confidence, c.Evidence)
		}
	}

	return b.String()
}
