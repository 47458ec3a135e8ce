package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"google.golang.org/genai"
)

type EmbedderService interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

type EmbedderConfig struct {
	Model        string
	Dimensions   int
	MaxChars     int
	MaxAttempts  int
	InitialDelay time.Duration
	CallTimeout  time.Duration
}

type geminiEmbedder struct {
	cfg EmbedderConfig

	// embed performs a single provider call; swapped out in tests.
	embed func(ctx context.Context, text string) ([]float32, error)
}

func NewGeminiEmbedder(apiKey string, cfg EmbedderConfig) (EmbedderService, error) {
	ctx := context.Background()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	e := &geminiEmbedder{cfg: cfg}
	e.embed = func(ctx context.Context, text string) ([]float32, error) {
		var embedCfg *genai.EmbedContentConfig
		if cfg.Dimensions > 0 {
			dims := int32(cfg.Dimensions)
			embedCfg = &genai.EmbedContentConfig{OutputDimensionality: &dims}
		}

		result, err := client.Models.EmbedContent(ctx, cfg.Model, genai.Text(text), embedCfg)
		if err != nil {
			return nil, err
		}

		if result == nil || len(result.Embeddings) == 0 {
			return nil, fmt.Errorf("empty embedding result")
		}

		return result.Embeddings[0].Values, nil
	}

	return e, nil
}

// Dimensions implements EmbedderService.
func (e *geminiEmbedder) Dimensions() int {
	return e.cfg.Dimensions
}

// GenerateEmbedding implements EmbedderService. The input is truncated to
// the configured cap before the call; transient provider failures are
// retried with exponential backoff up to MaxAttempts. The returned error is
// always an *EmbeddingError.
func (e *geminiEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, &EmbeddingError{Err: fmt.Errorf("empty input text")}
	}

	text = TruncateForEmbedding(text, e.cfg.MaxChars)

	maxAttempts := e.cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr *EmbeddingError

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		vector, err := e.embedOnce(ctx, text)
		if err == nil {
			if e.cfg.Dimensions > 0 && len(vector) != e.cfg.Dimensions {
				return nil, &EmbeddingError{
					Err: fmt.Errorf("provider returned %d dimensions, expected %d", len(vector), e.cfg.Dimensions),
				}
			}
			return vector, nil
		}

		lastErr = classifyEmbeddingError(err)
		if !lastErr.Transient {
			return nil, lastErr
		}

		if attempt < maxAttempts {
			delay := e.cfg.InitialDelay * time.Duration(1<<(attempt-1))
			log.Printf("⚠️ Embedding attempt %d failed: %v. Retrying in %s...\n", attempt, err, delay)

			select {
			case <-ctx.Done():
				return nil, &EmbeddingError{Err: fmt.Errorf("context cancelled: %w", ctx.Err())}
			case <-time.After(delay):
			}
		}
	}

	return nil, &EmbeddingError{
		Transient: lastErr.Transient,
		Err:       fmt.Errorf("failed after %d attempts: %w", maxAttempts, lastErr.Err),
	}
}

func (e *geminiEmbedder) embedOnce(ctx context.Context, text string) ([]float32, error) {
	if e.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.CallTimeout)
		defer cancel()
	}

	return e.embed(ctx, text)
}

// classifyEmbeddingError splits provider failures into retryable and
// permanent ones. A timed-out call counts as permanent for this batch.
func classifyEmbeddingError(err error) *EmbeddingError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &EmbeddingError{Err: err}
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 408, 429, 500, 502, 503, 504:
			return &EmbeddingError{Transient: true, Err: err}
		default:
			return &EmbeddingError{Err: err}
		}
	}

	// Unknown failures are assumed to be network-level hiccups
	return &EmbeddingError{Transient: true, Err: err}
}
