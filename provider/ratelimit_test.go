package provider_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/branchrun/agentry/model"
	"github.com/branchrun/agentry/provider"
)

type stubAdapter struct {
	name  string
	calls int
}

func (a *stubAdapter) Name() string { return a.name }

func (a *stubAdapter) Complete(ctx context.Context, req *model.Request) (*model.Response, error) {
	a.calls++
	return &model.Response{Text: "ok"}, nil
}

func TestRateLimitedAdapter_DelegatesToWrappedAdapter(t *testing.T) {
	stub := &stubAdapter{name: "stub"}
	limited := provider.NewRateLimitedAdapter(stub, 1_000_000) // generous budget, should not block

	assert.Equal(t, "stub", limited.Name())

	resp, err := limited.Complete(context.Background(), &model.Request{
		Messages: []model.Message{{Role: model.RoleUser, Parts: []model.Part{model.TextPart{Text: "hi"}}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, 1, stub.calls)
}

func TestRateLimitedAdapter_RespectsContextCancellation(t *testing.T) {
	stub := &stubAdapter{name: "stub"}
	// The budget's burst covers the request's estimated cost, so the only
	// reason WaitN can refuse is the context, which is canceled up front.
	limited := provider.NewRateLimitedAdapter(stub, 1000)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := limited.Complete(ctx, &model.Request{
		Messages: []model.Message{{Role: model.RoleUser, Parts: []model.Part{model.TextPart{Text: "hi"}}}},
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, stub.calls)
}
