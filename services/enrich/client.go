package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"reelvault/models"
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("enrichment service not configured")

const systemPrompt = `You are a film metadata normalizer for a movie catalog.
Given the raw title and description of an uploaded video, respond with a single JSON object and nothing else:
{"title": string, "seriesTitle": string, "partNumber": int, "description": string, "stars": [string], "genre": string, "category": string}
Rules: "title" is the clean film title without quality tags or channel noise.
"seriesTitle" is the franchise name, or the title itself for standalone films.
"partNumber" is the installment number, 1 if not part of a series.
"description" is one or two sentences. "stars" lists up to five lead actors.
"category" must be exactly one of: %s.`

// Client calls the AI enrichment service.
type Client struct {
	apiKey    string
	baseURL   string
	model     string
	webSearch bool
	httpc     *http.Client
}

// NewClient creates an enrichment client against an OpenAI-compatible API.
func NewClient(apiKey, baseURL, model string, webSearch bool, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		apiKey:    strings.TrimSpace(apiKey),
		baseURL:   strings.TrimRight(baseURL, "/"),
		model:     model,
		webSearch: webSearch,
		httpc:     httpc,
	}
}

// IsConfigured reports whether the client has credentials.
func (c *Client) IsConfigured() bool {
	return c != nil && c.apiKey != ""
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
	WebSearch      map[string]any `json:"web_search_options,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// rawMetadata mirrors the contract JSON before enum validation.
type rawMetadata struct {
	Title       string   `json:"title"`
	SeriesTitle string   `json:"seriesTitle"`
	PartNumber  int      `json:"partNumber"`
	Description string   `json:"description"`
	Stars       []string `json:"stars"`
	Genre       string   `json:"genre"`
	Category    string   `json:"category"`
}

// Enrich normalizes a candidate's title and description into canonical movie
// metadata. Any transport failure or malformed response is an error; callers
// drop the candidate rather than retrying within the run.
func (c *Client) Enrich(ctx context.Context, title, description string) (models.EnrichedMetadata, error) {
	if !c.IsConfigured() {
		return models.EnrichedMetadata{}, ErrNotConfigured
	}

	categories := make([]string, len(models.Categories))
	for i, cat := range models.Categories {
		categories[i] = string(cat)
	}

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: fmt.Sprintf(systemPrompt, strings.Join(categories, ", "))},
			{Role: "user", Content: fmt.Sprintf("Title: %s\n\nDescription: %s", title, description)},
		},
		ResponseFormat: responseFormat{Type: "json_object"},
	}
	if c.webSearch {
		reqBody.WebSearch = map[string]any{}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return models.EnrichedMetadata{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return models.EnrichedMetadata{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return models.EnrichedMetadata{}, fmt.Errorf("enrichment request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.EnrichedMetadata{}, fmt.Errorf("enrichment request failed: %s", resp.Status)
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return models.EnrichedMetadata{}, fmt.Errorf("decode enrichment response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return models.EnrichedMetadata{}, errors.New("enrichment response has no choices")
	}

	return parseMetadata(chat.Choices[0].Message.Content)
}

// parseMetadata extracts and validates the contract JSON from the model
// output. Code fences around the object are tolerated.
func parseMetadata(content string) (models.EnrichedMetadata, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var raw rawMetadata
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return models.EnrichedMetadata{}, fmt.Errorf("parse enrichment metadata: %w", err)
	}

	raw.Title = strings.TrimSpace(raw.Title)
	if raw.Title == "" {
		return models.EnrichedMetadata{}, errors.New("enrichment metadata missing title")
	}

	category, ok := models.ParseCategory(raw.Category)
	if !ok {
		return models.EnrichedMetadata{}, fmt.Errorf("enrichment metadata has unknown category %q", raw.Category)
	}

	if raw.PartNumber < 1 {
		raw.PartNumber = 1
	}
	if strings.TrimSpace(raw.SeriesTitle) == "" {
		raw.SeriesTitle = raw.Title
	}
	if len(raw.Stars) > 5 {
		raw.Stars = raw.Stars[:5]
	}

	return models.EnrichedMetadata{
		Title:       raw.Title,
		SeriesTitle: strings.TrimSpace(raw.SeriesTitle),
		PartNumber:  raw.PartNumber,
		Description: strings.TrimSpace(raw.Description),
		Stars:       raw.Stars,
		Genre:       strings.TrimSpace(raw.Genre),
		Category:    category,
	}, nil
}
