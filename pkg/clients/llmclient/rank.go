package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/syncedsports/refassign/pkg/core/assignment"
	"github.com/syncedsports/refassign/pkg/core/model"
)

const systemPrompt = `You are a referee assignment assistant for a sports league.
Rank the candidate referees for the given game, best first. Respond with a JSON
array only, no prose, where each element is
{"referee_id": "...", "confidence": 0.0-1.0, "justification": "..."}.
Every confidence must reflect how well the candidate fits the game.`

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type rankPayload struct {
	Game         gamePayload        `json:"game"`
	Candidates   []candidatePayload `json:"candidates"`
	ContextNotes []string           `json:"context_notes,omitempty"`
}

type gamePayload struct {
	ID         string `json:"id"`
	Start      string `json:"start"`
	Type       string `json:"type"`
	AgeGroup   string `json:"age_group,omitempty"`
	Level      string `json:"level"`
	Location   string `json:"location"`
	RefsNeeded int    `json:"refs_needed"`
}

type candidatePayload struct {
	RefereeID       string  `json:"referee_id"`
	Level           string  `json:"level"`
	YearsExperience int     `json:"years_experience"`
	DistanceKm      float64 `json:"distance_km"`
}

// RankCandidates asks the reasoning service to order the candidates for a
// game. It implements assignment.Ranker.
func (c *Client) RankCandidates(ctx context.Context, req assignment.RankRequest) (*assignment.RankResponse, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("no reasoning service endpoint configured")
	}

	modelName := req.Model
	if modelName == "" {
		modelName = c.defaultModel
	}
	if modelName == "" {
		return nil, fmt.Errorf("no model configured for ranking request")
	}

	payload, err := json.Marshal(buildPayload(req))
	if err != nil {
		return nil, fmt.Errorf("failed to encode ranking payload: %w", err)
	}

	system := systemPrompt
	if req.Prompt != "" {
		system += "\n\nLeague context:\n" + req.Prompt
	}

	body, err := json.Marshal(chatRequest{
		Model:       modelName,
		Temperature: req.Temperature,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: string(payload)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ranking request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read ranking response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ranking request returned status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var chat chatResponse
	if err := json.Unmarshal(respBody, &chat); err != nil {
		return nil, fmt.Errorf("failed to parse ranking response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("ranking response contained no choices")
	}

	rankings, err := parseRankings(chat.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	usedModel := chat.Model
	if usedModel == "" {
		usedModel = modelName
	}
	return &assignment.RankResponse{Rankings: rankings, Model: usedModel}, nil
}

func buildPayload(req assignment.RankRequest) rankPayload {
	candidates := make([]candidatePayload, len(req.Candidates))
	for i, c := range req.Candidates {
		candidates[i] = candidatePayload{
			RefereeID:       c.ID,
			Level:           string(c.Level),
			YearsExperience: c.YearsExperience,
			DistanceKm:      c.DistanceKm,
		}
	}
	return rankPayload{
		Game:         gamePayloadFrom(req.Game),
		Candidates:   candidates,
		ContextNotes: req.ContextNotes,
	}
}

func gamePayloadFrom(g model.Game) gamePayload {
	return gamePayload{
		ID:         g.ID,
		Start:      g.Start.Format("2006-01-02 15:04"),
		Type:       g.Type,
		AgeGroup:   g.AgeGroup,
		Level:      string(g.Level),
		Location:   g.Location,
		RefsNeeded: g.RefsNeeded,
	}
}

// parseRankings extracts the JSON array from the model's reply, tolerating
// markdown code fences around it.
func parseRankings(content string) ([]assignment.CandidateRanking, error) {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
		trimmed = strings.TrimSpace(trimmed)
	}

	var rankings []assignment.CandidateRanking
	if err := json.Unmarshal([]byte(trimmed), &rankings); err != nil {
		return nil, fmt.Errorf("failed to parse model rankings: %w", err)
	}
	return rankings, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
