package llm

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"

	apperrors "github.com/interviewprep-dev/interviewprep/pkg/prep/errors"
)

// Gemini implements Generator on the Gemini API.
type Gemini struct {
	client *genai.Client
}

// NewGemini creates a Gemini generator over an existing client.
func NewGemini(client *genai.Client) *Gemini {
	return &Gemini{client: client}
}

// Generate runs the prompt with the cached content attached.
func (g *Gemini) Generate(ctx context.Context, model, cacheID, promptText string) (string, error) {
	contents := []*genai.Content{
		{Role: "user", Parts: []*genai.Part{{Text: promptText}}},
	}
	config := &genai.GenerateContentConfig{
		CachedContent: cacheID,
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		if isUnknownCache(err) {
			return "", apperrors.NewRemediable(apperrors.ErrCodeCacheExpired,
				"context cache no longer exists", apperrors.RemediationRestart, err)
		}
		return "", apperrors.New(apperrors.ErrCodeGeneration, "Gemini API call failed", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", apperrors.New(apperrors.ErrCodeGeneration, "empty response from model", nil)
	}

	var textParts []string
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			textParts = append(textParts, part.Text)
		}
	}
	text := strings.Join(textParts, "")
	if text == "" {
		return "", apperrors.New(apperrors.ErrCodeGeneration, "response contained no text", nil)
	}
	return text, nil
}

// isUnknownCache reports whether the API rejected the referenced cached
// content. Expired caches surface as 403 or 404.
func isUnknownCache(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == 403 || apiErr.Code == 404
	}
	return false
}
