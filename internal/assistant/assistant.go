// Package assistant is the boundary to an external language model. It turns
// chart screenshots into trade drafts and answers support questions. The
// calculation packages never import it.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/models"
	"trade-journal/internal/performance"
	"trade-journal/internal/resilience"
	"trade-journal/internal/security"
	"trade-journal/pkg/utils"
)

// TradeImageParser extracts a trade draft from a chart or broker screenshot.
type TradeImageParser interface {
	ParseTradeFromImage(ctx context.Context, image []byte, mime string) (TradeDraft, error)
}

// SupportResponder answers free-form questions about the journal.
type SupportResponder interface {
	GetSupportResponse(ctx context.Context, query string) (Answer, error)
}

// MaxImageBytes caps screenshots sent to the model.
const MaxImageBytes = 8 << 20

// Answer is a support response.
type Answer struct {
	Text  string `json:"text"`
	Model string `json:"model"`
}

// Options configures an Assistant.
type Options struct {
	Timeout time.Duration
	// RatePerMinute limits model calls; zero means unlimited.
	RatePerMinute float64
	// Background returns journal context prepended to support questions.
	Background func(ctx context.Context) (string, error)
	// Retry governs retries of transient model errors. The zero value uses
	// utils.DefaultRetryConfig with IsTransient.
	Retry utils.RetryConfig
	// Breaker stops calling the model after repeated failures. Nil uses
	// resilience.DefaultConfig.
	Breaker *resilience.Breaker
	Logger  zerolog.Logger
}

// Assistant implements TradeImageParser and SupportResponder over an LLMClient.
type Assistant struct {
	client     LLMClient
	timeout    time.Duration
	limiter    *performance.RateLimiter
	retry      utils.RetryConfig
	breaker    *resilience.Breaker
	background func(ctx context.Context) (string, error)
	logger     zerolog.Logger
}

// New creates an assistant. A nil client yields an assistant whose calls
// fail with ErrAssistantUnavailable.
func New(client LLMClient, opts Options) *Assistant {
	a := &Assistant{
		client:     client,
		timeout:    opts.Timeout,
		background: opts.Background,
		retry:      opts.Retry,
		breaker:    opts.Breaker,
		logger:     opts.Logger.With().Str("component", "assistant").Logger(),
	}
	if a.retry.MaxAttempts == 0 {
		a.retry = utils.DefaultRetryConfig()
	}
	if a.retry.Retryable == nil {
		a.retry.Retryable = IsTransient
	}
	if a.breaker == nil {
		a.breaker = resilience.NewBreaker("assistant", resilience.DefaultConfig())
	}
	if opts.RatePerMinute > 0 {
		a.limiter = performance.NewRateLimiter(opts.RatePerMinute/60, 1)
	}
	return a
}

// Available reports whether a model client is configured.
func (a *Assistant) Available() bool {
	return a.client != nil
}

// ParseTradeFromImage asks the model to read a screenshot.
func (a *Assistant) ParseTradeFromImage(ctx context.Context, image []byte, mime string) (TradeDraft, error) {
	const op = "parse-image"
	if len(image) == 0 {
		return TradeDraft{}, apperrors.NewAssistantError(op, apperrors.NewValidationError("image", len(image), "is empty"))
	}
	if len(image) > MaxImageBytes {
		return TradeDraft{}, apperrors.NewAssistantError(op, apperrors.NewValidationError("image", len(image), "exceeds 8 MiB"))
	}
	if mime == "" {
		mime = http.DetectContentType(image)
	}
	if !strings.HasPrefix(mime, "image/") {
		return TradeDraft{}, apperrors.NewAssistantError(op, apperrors.NewValidationError("mime", mime, "is not an image type"))
	}

	raw, err := a.call(ctx, op, func(ctx context.Context) (string, error) {
		return a.client.CompleteWithImage(ctx, parseSystemPrompt, parseUserPrompt, image, mime)
	})
	if err != nil {
		return TradeDraft{}, err
	}

	var draft TradeDraft
	if err := json.Unmarshal([]byte(extractJSON(raw)), &draft); err != nil {
		return TradeDraft{}, apperrors.NewAssistantError(op, fmt.Errorf("decode draft: %w", err))
	}
	draft.Pair = models.NormalizePair(draft.Pair)
	return draft, nil
}

// GetSupportResponse answers a question, with journal background when
// configured.
func (a *Assistant) GetSupportResponse(ctx context.Context, query string) (Answer, error) {
	const op = "support"
	query = strings.TrimSpace(query)
	if query == "" {
		return Answer{}, apperrors.NewAssistantError(op, apperrors.NewValidationError("query", query, "is empty"))
	}

	prompt := query
	if a.background != nil {
		bg, err := a.background(ctx)
		if err != nil {
			a.logger.Warn().Err(err).Msg("Journal background unavailable")
		} else if bg != "" {
			prompt = "Journal context:\n" + bg + "\n\nQuestion: " + query
		}
	}

	text, err := a.call(ctx, op, func(ctx context.Context) (string, error) {
		return a.client.CompleteWithSystem(ctx, supportSystemPrompt, prompt)
	})
	if err != nil {
		return Answer{}, err
	}
	return Answer{Text: strings.TrimSpace(text), Model: a.client.Model()}, nil
}

func (a *Assistant) call(ctx context.Context, op string, fn func(context.Context) (string, error)) (string, error) {
	if a.client == nil {
		return "", apperrors.NewAssistantError(op, apperrors.ErrAssistantUnavailable)
	}
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	start := time.Now()
	out, err := resilience.Do(ctx, a.breaker, func(ctx context.Context) (string, error) {
		return utils.RetryWithResult(ctx, a.retry, func() (string, error) {
			if a.limiter != nil {
				if err := a.limiter.Wait(ctx); err != nil {
					return "", err
				}
			}
			return fn(ctx)
		})
	})
	logger := a.logger.With().Str("operation", op).Str("model", a.client.Model()).Dur("duration", time.Since(start)).Logger()
	if err != nil {
		switch {
		case errors.Is(err, resilience.ErrOpen):
			err = fmt.Errorf("%w: %w", apperrors.ErrAssistantUnavailable, err)
		case errors.Is(err, context.DeadlineExceeded):
			err = fmt.Errorf("%w: %w", apperrors.ErrTimeout, err)
		}
		logger.Error().Str("error", security.MaskSecrets(err.Error())).Str("breaker", string(a.breaker.State())).Msg("Assistant call failed")
		return "", apperrors.NewAssistantError(op, err)
	}
	logger.Debug().Int("response_len", len(out)).Msg("Assistant call completed")
	return out, nil
}

// extractJSON strips markdown fences and leading prose around a JSON object.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}
