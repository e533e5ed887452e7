package provider

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/branchrun/agentry/model"
)

// RateLimitedAdapter wraps an Adapter with a tokens-per-minute budget,
// estimated from request size, so a single process does not burst past a
// provider's rate limit across many concurrently running agent nodes.
// Ported from the teacher's cluster-aware AdaptiveRateLimiter, trimmed to
// its process-local token bucket: the cluster-coordination half of that
// design leaned on the Pulse replicated map, which this module drops (see
// DESIGN.md).
type RateLimitedAdapter struct {
	next    Adapter
	limiter *rate.Limiter
}

// NewRateLimitedAdapter wraps next with a limiter budgeted at tokensPerMinute.
func NewRateLimitedAdapter(next Adapter, tokensPerMinute int) *RateLimitedAdapter {
	if tokensPerMinute <= 0 {
		tokensPerMinute = 60000
	}
	return &RateLimitedAdapter{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(float64(tokensPerMinute)/60.0), tokensPerMinute),
	}
}

func (a *RateLimitedAdapter) Name() string { return a.next.Name() }

// Complete blocks until the limiter admits an estimated token cost for req,
// then delegates to the wrapped adapter.
func (a *RateLimitedAdapter) Complete(ctx context.Context, req *model.Request) (*model.Response, error) {
	if err := a.limiter.WaitN(ctx, estimateTokens(req)); err != nil {
		return nil, err
	}
	return a.next.Complete(ctx, req)
}

// estimateTokens is a cheap heuristic over request text: roughly one token
// per three characters, plus a fixed allowance for system-prompt and
// provider framing overhead.
func estimateTokens(req *model.Request) int {
	chars := len(req.SystemPrompt)
	for _, m := range req.Messages {
		for _, p := range m.Parts {
			switch v := p.(type) {
			case model.TextPart:
				chars += len(v.Text)
			case model.ToolResultPart:
				chars += len(v.Content)
			}
		}
	}
	tokens := chars/3 + 500
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
