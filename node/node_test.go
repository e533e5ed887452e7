package node_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/branchrun/agentry/argschema"
	"github.com/branchrun/agentry/node"
	"github.com/branchrun/agentry/spec"
)

func testSpec(t *testing.T) spec.Spec {
	sp, err := spec.NewCodeSpec("echo", "echoes its input", argschema.Schema{
		{Name: "text", Type: argschema.Text},
	}, func(ctx context.Context, args argschema.Bundle) (any, error) { return nil, nil })
	require.NoError(t, err)
	return sp
}

func TestState_Terminal(t *testing.T) {
	assert.False(t, node.Waiting.Terminal())
	assert.False(t, node.Running.Terminal())
	assert.True(t, node.Success.Terminal())
	assert.True(t, node.Error.Terminal())
	assert.True(t, node.Canceled.Terminal())
}

func TestNode_Root(t *testing.T) {
	var mu sync.Mutex
	root := node.New(1, testSpec(t), nil, nil, &mu, nil)
	child := node.New(2, testSpec(t), nil, root, &mu, nil)
	grandchild := node.New(3, testSpec(t), nil, child, &mu, nil)

	assert.Same(t, root, root.Root())
	assert.Same(t, root, child.Root())
	assert.Same(t, root, grandchild.Root())
}

func TestObservable_WatchBlocksUntilNewerSeq(t *testing.T) {
	var mu sync.Mutex
	n := node.New(1, testSpec(t), nil, nil, &mu, nil)

	mu.Lock()
	n.Observable().Publish(node.View{NodeID: 1, Seq: 1, State: node.Running})
	mu.Unlock()

	done := make(chan node.View, 1)
	go func() {
		mu.Lock()
		defer mu.Unlock()
		done <- n.Observable().Watch(1)
	}()

	select {
	case <-done:
		t.Fatal("watch returned before a newer seq was published")
	case <-time.After(50 * time.Millisecond):
	}

	mu.Lock()
	n.Observable().Publish(node.View{NodeID: 1, Seq: 2, State: node.Success})
	mu.Unlock()

	select {
	case v := <-done:
		assert.EqualValues(t, 2, v.Seq)
		assert.Equal(t, node.Success, v.State)
	case <-time.After(time.Second):
		t.Fatal("watch did not wake after publish")
	}
}
