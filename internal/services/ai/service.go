package ai

import (
	"context"
	"errors"
	"log/slog"
	"time"

	dnderr "github.com/KirkDiggler/trpg-session-engine/internal/errors"
	"github.com/KirkDiggler/trpg-session-engine/internal/observe"
)

// DefaultTimeout bounds a single generation attempt
const DefaultTimeout = 30 * time.Second

// timeoutAttempts is the first try plus the single automatic retry on AITimeout
const timeoutAttempts = 2

// Service sends standardized requests and returns validated responses
type Service interface {
	// Request runs req against the generator. Errors carry one of the codes
	// malformed_response, missing_batch_payload, missing_narration, ai_timeout,
	// unavailable or session_ended.
	Request(ctx context.Context, req *Request) (Response, error)
}

type service struct {
	generator Generator
	timeout   time.Duration
	metrics   *observe.Metrics
	logger    *slog.Logger
}

// ServiceConfig holds configuration for the service
type ServiceConfig struct {
	Generator Generator        // Required
	Timeout   time.Duration    // Optional, defaults to DefaultTimeout
	Metrics   *observe.Metrics // Optional
	Logger    *slog.Logger     // Optional, defaults to slog.Default()
}

// NewService creates a new AI service
func NewService(cfg *ServiceConfig) Service {
	if cfg.Generator == nil {
		panic("generator is required")
	}

	svc := &service{
		generator: cfg.Generator,
		timeout:   cfg.Timeout,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
	}
	if svc.timeout <= 0 {
		svc.timeout = DefaultTimeout
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc
}

func (s *service) Request(ctx context.Context, req *Request) (Response, error) {
	if req == nil {
		return nil, dnderr.InvalidArgument("request is required")
	}

	var lastErr error
	for attempt := 1; attempt <= timeoutAttempts; attempt++ {
		start := time.Now()
		output, err := s.generate(ctx, req)
		elapsed := time.Since(start)

		if err != nil {
			s.metrics.RecordAIRequest(ctx, string(req.Type), statusFor(err), elapsed)
			if !dnderr.Is(err, dnderr.CodeAITimeout) {
				return nil, err
			}
			s.logger.Warn("ai: request timed out",
				"type", req.Type,
				"attempt", attempt,
				"timeout", s.timeout)
			lastErr = err
			continue
		}

		resp, err := ValidateResponse(Normalize(req.Type, output))
		if err != nil {
			s.metrics.RecordAIRequest(ctx, string(req.Type), "invalid", elapsed)
			s.logger.Warn("ai: response rejected",
				"type", req.Type,
				"reason", dnderr.GetCode(err),
				"err", err)
			return nil, err
		}
		if req.Type.ExpectsBatch() {
			if _, ok := resp.(*BatchResponse); !ok {
				s.metrics.RecordAIRequest(ctx, string(req.Type), "invalid", elapsed)
				s.logger.Warn("ai: expected batch response", "type", req.Type)
				return nil, dnderr.New(dnderr.CodeMissingBatchPayload, "expected a batch response")
			}
		}

		s.metrics.RecordAIRequest(ctx, string(req.Type), "ok", elapsed)
		return resp, nil
	}

	return nil, lastErr
}

type generateResult struct {
	output string
	err    error
}

// generate runs one attempt bounded by the service timeout. A generator that
// ignores its context is abandoned when the attempt expires.
func (s *service) generate(ctx context.Context, req *Request) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan generateResult, 1)
	go func() {
		output, err := s.generator.Generate(attemptCtx, &GenerateInput{
			SystemPrompt: req.SystemPrompt,
			Context:      req.Context,
			JSON:         req.Type.ExpectsBatch(),
		})
		done <- generateResult{output: output, err: err}
	}()

	var res generateResult
	select {
	case res = <-done:
	case <-attemptCtx.Done():
		res = generateResult{err: attemptCtx.Err()}
	}

	if res.err == nil {
		return res.output, nil
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return "", dnderr.WrapWithCode(ctx.Err(), dnderr.CodeSessionEnded, "ai request discarded")
	}
	if errors.Is(res.err, context.DeadlineExceeded) || errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return "", dnderr.WrapWithCode(res.err, dnderr.CodeAITimeout, "ai request timed out")
	}
	return "", dnderr.WrapWithCode(res.err, dnderr.CodeUnavailable, "ai generation failed")
}

func statusFor(err error) string {
	switch dnderr.GetCode(err) {
	case dnderr.CodeAITimeout:
		return "timeout"
	case dnderr.CodeSessionEnded:
		return "cancelled"
	default:
		return "error"
	}
}
