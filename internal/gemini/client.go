// Package gemini implements integration with Google's Gemini AI API.
// It turns a formatted message backlog into a digest summary.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"

	"github.com/edgard/teledigest/internal/config"
	apperrors "github.com/edgard/teledigest/internal/errors"
)

// Client defines the interface for summary generation.
type Client interface {
	// Summarize sends the prepared prompt to the model and returns the
	// digest text. The prompt must be non-empty; callers skip the call
	// entirely for an empty backlog.
	Summarize(ctx context.Context, prompt string) (string, error)
}

type sdkClient struct {
	genaiClient   *genai.Client
	log           *slog.Logger
	contentConfig *genai.GenerateContentConfig
	modelName     string
	timeout       time.Duration
}

// NewClient creates a new Gemini client with the provided configuration.
func NewClient(ctx context.Context, cfg config.GeminiConfig, log *slog.Logger) (Client, error) {
	if cfg.APIKey == "" {
		return nil, apperrors.NewConfigError("gemini API key is required", nil)
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	temperature := cfg.Temperature
	baseCfg := &genai.GenerateContentConfig{
		Temperature: &temperature,
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: SummarySystemInstruction}},
		},
	}

	logger := log.With("component", "gemini_client")
	logger.Info("Gemini client initialized successfully", "model", cfg.ModelName)
	return &sdkClient{
		genaiClient:   gi,
		log:           logger,
		contentConfig: baseCfg,
		modelName:     cfg.ModelName,
		timeout:       cfg.Timeout,
	}, nil
}

func (c *sdkClient) Summarize(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", apperrors.NewValidationError("summary prompt cannot be empty", nil)
	}

	c.log.DebugContext(ctx, "Requesting summary", "prompt_length", len(prompt))

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	resp, err := c.genaiClient.Models.GenerateContent(ctx, c.modelName, contents, c.contentConfig)
	if err != nil {
		c.log.ErrorContext(ctx, "Gemini API call failed", "error", err)
		return "", apperrors.NewAPIError("gemini API call failed", err)
	}

	text, err := c.extractTextFromResponse(ctx, resp)
	if err != nil {
		return "", err
	}

	c.log.DebugContext(ctx, "Summary generated", "summary_length", len(text))
	return text, nil
}

func (c *sdkClient) extractTextFromResponse(ctx context.Context, resp *genai.GenerateContentResponse) (string, error) {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		reasonMsg := fmt.Sprintf("%v", resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			reasonMsg = resp.PromptFeedback.BlockReasonMessage
		}
		c.log.ErrorContext(ctx, "Gemini request blocked", "reason", reasonMsg)
		return "", apperrors.NewAPIError(fmt.Sprintf("summary blocked by safety filter: %s", reasonMsg), nil)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		finishReason := "unknown"
		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != genai.FinishReasonUnspecified {
			finishReason = fmt.Sprintf("%v", resp.Candidates[0].FinishReason)
		}
		c.log.WarnContext(ctx, "Gemini response missing candidates or content", "finish_reason", finishReason)
		return "", apperrors.NewAPIError(fmt.Sprintf("summary returned no content, finish reason: %s", finishReason), nil)
	}

	text := resp.Text()
	if text == "" {
		return "", apperrors.NewAPIError("summary returned empty text", nil)
	}

	return text, nil
}
