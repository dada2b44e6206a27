package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	appconfig "amora_server/config"
	"amora_server/models"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// maxExplanationLength bounds the text attached to a candidate.
const maxExplanationLength = 200

// ErrGeminiUnavailable is returned when no API key is configured.
var ErrGeminiUnavailable = errors.New("gemini api key not configured")

// GeminiClient talks to the Gemini REST API for profile embeddings and match
// explanations. Explanation calls are best-effort; callers substitute a
// fallback on any error.
type GeminiClient struct {
	apiKey          string
	generationModel string
	embeddingModel  string
	baseURL         string
	httpClient      *http.Client
}

// NewGeminiClient creates a client from the shared configuration.
func NewGeminiClient(cfg *appconfig.Config) *GeminiClient {
	return &GeminiClient{
		apiKey:          cfg.GeminiAPIKey,
		generationModel: cfg.GeminiModel,
		embeddingModel:  cfg.EmbeddingModel,
		baseURL:         defaultGeminiBaseURL,
		httpClient:      &http.Client{Timeout: 30 * time.Second},
	}
}

// EmbedProfile generates an embedding vector for a profile's free text.
func (g *GeminiClient) EmbedProfile(ctx context.Context, bio, interests string) ([]float32, error) {
	if g.apiKey == "" {
		return nil, ErrGeminiUnavailable
	}

	if bio == "" {
		bio = "No bio provided"
	}
	if interests == "" {
		interests = "No interests"
	}
	profileText := fmt.Sprintf("Bio: %s\nInterests: %s", bio, interests)

	requestBody := map[string]interface{}{
		"model": "models/" + g.embeddingModel,
		"content": map[string]interface{}{
			"parts": []map[string]interface{}{
				{"text": profileText},
			},
		},
		"taskType": "RETRIEVAL_DOCUMENT",
		"title":    "Dating Profile",
	}

	url := fmt.Sprintf("%s/models/%s:embedContent?key=%s", g.baseURL, g.embeddingModel, g.apiKey)
	body, err := g.post(ctx, url, requestBody)
	if err != nil {
		return nil, err
	}

	var response struct {
		Embedding struct {
			Values []float32 `json:"values"`
		} `json:"embedding"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse embedding response: %w", err)
	}
	if len(response.Embedding.Values) == 0 {
		return nil, errors.New("empty embedding in response")
	}
	return response.Embedding.Values, nil
}

// ExplainMatch asks the generation model for a short compatibility rationale
// for two profiles. The result is clamped to maxExplanationLength.
func (g *GeminiClient) ExplainMatch(ctx context.Context, a, b models.ProfileSummary, similarity float64) (string, error) {
	if g.apiKey == "" {
		return "", ErrGeminiUnavailable
	}

	prompt := fmt.Sprintf(`You are an expert matchmaker for a dating app. Based on the following two user profiles, explain why they would be a great match. Focus on shared interests, compatible personalities, and potential for a meaningful connection.

Profile 1:
%s

Profile 2:
%s

Compatibility Score: %.1f%%

Generate a warm, engaging, and concise explanation (2-3 sentences, max 150 characters) about why these two people would be a great match. Focus on specific shared interests or complementary qualities. Make it personal and conversational.

Explanation:`, formatProfileSummary(a), formatProfileSummary(b), similarity*100)

	requestBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]interface{}{
					{"text": prompt},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"temperature": 0.7,
			"topP":        0.8,
			"topK":        40,
		},
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.generationModel, g.apiKey)
	body, err := g.post(ctx, url, requestBody)
	if err != nil {
		return "", err
	}

	text, err := extractTextFromResponse(body)
	if err != nil {
		return "", err
	}

	explanation := strings.TrimSpace(text)
	if explanation == "" {
		return "", errors.New("empty explanation in response")
	}
	// Clamp on rune boundaries; slicing bytes could split a multi-byte
	// character from the model output.
	if utf8.RuneCountInString(explanation) > maxExplanationLength {
		runes := []rune(explanation)
		explanation = string(runes[:maxExplanationLength-3]) + "..."
	}
	return explanation, nil
}

func (g *GeminiClient) post(ctx context.Context, url string, requestBody interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

func extractTextFromResponse(body []byte) (string, error) {
	var response struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to parse API response: %w", err)
	}
	if len(response.Candidates) == 0 {
		return "", errors.New("no candidates in response")
	}
	parts := response.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return "", errors.New("no parts in content")
	}
	return parts[0].Text, nil
}

func formatProfileSummary(s models.ProfileSummary) string {
	orDefault := func(v, fallback string) string {
		if v == "" {
			return fallback
		}
		return v
	}
	return fmt.Sprintf(`Name: %s
Age: %d
Gender: %s
Interests: %s
Bio: %s
Location: %s`,
		s.Name, s.Age, s.Gender,
		orDefault(s.Interests, "Not specified"),
		orDefault(s.Bio, "No bio provided"),
		orDefault(s.Location, "Not specified"))
}
