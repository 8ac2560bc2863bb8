package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/cinesearch/internal/domain"
	"github.com/kailas-cloud/cinesearch/internal/metrics"
)

// retryBackoff is the delay before the first retry; it doubles per attempt.
var retryBackoff = 500 * time.Millisecond

// createEmbeddings sends one embeddings request, retrying rate-limited and
// server-side failures up to maxRetries times.
func (e *Embedder) createEmbeddings(ctx context.Context, input []string) (openai.EmbeddingResponse, error) {
	req := openai.EmbeddingRequest{
		Input:          input,
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		User:           e.user,
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			metrics.EmbeddingRetriesTotal.WithLabelValues(e.provider, string(e.model)).Inc()
			if err := sleep(ctx, retryBackoff<<(attempt-1)); err != nil {
				return openai.EmbeddingResponse{}, fmt.Errorf("embedding request: %w", err)
			}
		}
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return openai.EmbeddingResponse{}, fmt.Errorf("embedding rate limiter: %w", err)
			}
		}

		resp, err := e.call(ctx, req, len(input))
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			e.countError("api_error")
			return openai.EmbeddingResponse{}, fmt.Errorf("embedding request: %w", ctx.Err())
		}

		lastErr = err
		if !retryable(err) {
			break
		}
		e.logger.Warn("Embedding request failed, will retry",
			zap.Int("attempt", attempt+1),
			zap.Int("status", statusCode(err)),
			zap.Error(err),
		)
	}

	e.countError("api_error")
	return openai.EmbeddingResponse{}, parseAPIError(lastErr)
}

func (e *Embedder) call(ctx context.Context, req openai.EmbeddingRequest, inputs int) (openai.EmbeddingResponse, error) {
	start := time.Now()
	resp, err := e.client.CreateEmbeddings(ctx, req)
	duration := time.Since(start)

	model := string(e.model)
	if err != nil {
		e.logger.Debug("Embedding API call failed",
			zap.String("model", model),
			zap.Int("inputs", inputs),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return openai.EmbeddingResponse{}, err
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(e.provider, model).Observe(duration.Seconds())
	if resp.Usage.TotalTokens > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues(e.provider, model, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.EmbeddingTokensTotal.WithLabelValues(e.provider, model, "total").Add(float64(resp.Usage.TotalTokens))
	}
	return resp, nil
}

func (e *Embedder) countError(kind string) {
	model := string(e.model)
	metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, model, "error").Inc()
	metrics.EmbeddingErrorsTotal.WithLabelValues(e.provider, model, kind).Inc()
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// statusCode returns the HTTP status carried by an API error, or 0 when the
// request never got a response.
func statusCode(err error) int {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	return 0
}

// retryable reports whether another attempt may succeed: throttling,
// server errors and transport failures. Other 4xx responses are final.
func retryable(err error) bool {
	code := statusCode(err)
	return code == 0 || code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// parseAPIError turns a client error into a readable message wrapped with
// domain.ErrEmbeddingProviderError so it maps to 502.
func parseAPIError(err error) error {
	wrap := domain.ErrEmbeddingProviderError

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return fmt.Errorf("embedding API error %d: %s: %w", reqErr.HTTPStatusCode, detail, wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("embedding API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("embedding request failed: %w", wrap)
}

// extractDetail reads the "detail" field some OpenAI-compatible providers use for errors.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		return parsed.Detail
	}
	return ""
}
