// Package rewrite offers AI assisted script rewriting in a chosen tone.
package rewrite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stwalsh4118/prompter/internal/config"
	"github.com/stwalsh4118/prompter/internal/logger"
)

// Result is the outcome of an Enhance call
type Result struct {
	Text      string `json:"text"`
	Tone      Tone   `json:"tone"`
	Unchanged bool   `json:"unchanged"`
}

// Service validates rewrite requests and guards the model behind a
// timeout and a circuit breaker
type Service struct {
	rewriter Rewriter
	timeout  time.Duration
	breaker  *CircuitBreaker
}

// NewService creates a rewrite service. A nil rewriter leaves the service
// unconfigured; Enhance then returns ErrNotConfigured.
func NewService(rewriter Rewriter, cfg *config.RewriteConfig) *Service {
	return &Service{
		rewriter: rewriter,
		timeout:  cfg.Timeout,
		breaker:  NewCircuitBreaker(cfg.FailureThreshold, cfg.ResetTimeout),
	}
}

// NewServiceFromConfig builds the Gemini-backed service. Without an API
// key the service is left unconfigured.
func NewServiceFromConfig(cfg *config.RewriteConfig) *Service {
	if cfg.APIKey == "" {
		logger.Log.Warn().Msg("No Gemini API key configured, AI rewrite disabled")
		return NewService(nil, cfg)
	}
	return NewService(NewGeminiRewriter(cfg.APIKey, cfg.Model), cfg)
}

// Configured reports whether a rewriter is available
func (s *Service) Configured() bool {
	return s.rewriter != nil
}

// BreakerState returns the state of the circuit guarding the model
func (s *Service) BreakerState() CircuitState {
	return s.breaker.State()
}

// Enhance rewrites text in the given tone. When the model returns nothing
// the original text is returned unchanged.
func (s *Service) Enhance(ctx context.Context, text, tone string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	parsed, err := ParseTone(tone)
	if err != nil {
		return nil, err
	}
	if s.rewriter == nil {
		return nil, ErrNotConfigured
	}

	log := logger.Component("rewrite").With().
		Str("tone", string(parsed)).
		Int("text_length", len(text)).
		Logger()

	start := time.Now()
	var rewritten string
	err = s.breaker.Call(ctx, func(ctx context.Context) error {
		if s.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}
		var callErr error
		rewritten, callErr = s.rewriter.Rewrite(ctx, text, parsed)
		return callErr
	})
	if err != nil {
		log.Error().
			Err(err).
			Str("breaker_state", s.breaker.State().String()).
			Msg("Script rewrite failed")
		return nil, fmt.Errorf("failed to rewrite script: %w", err)
	}

	rewritten = strings.TrimSpace(rewritten)
	if rewritten == "" {
		log.Warn().Msg("Model returned no text, keeping original script")
		return &Result{Text: text, Tone: parsed, Unchanged: true}, nil
	}

	log.Info().
		Dur("duration", time.Since(start)).
		Int("result_length", len(rewritten)).
		Msg("Script rewritten")

	return &Result{Text: rewritten, Tone: parsed}, nil
}
