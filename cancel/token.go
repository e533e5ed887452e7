// Package cancel implements the orchestrator's cooperative cancellation
// token (spec.md §4.3, §5): a level-triggered, process-shared boolean event
// that workers poll at safe points. Cancellation is monotonic and parent
// tokens may be linked to children so that a parent's cancellation also
// cancels the child, but not vice versa.
package cancel

import "sync"

// Token is a shared, level-triggered cancellation signal. The zero value is
// not usable; construct one with New.
type Token struct {
	mu       sync.Mutex
	done     chan struct{}
	canceled bool
	children []*Token
}

// New returns an uncanceled Token.
func New() *Token {
	return &Token{done: make(chan struct{})}
}

// Requested reports whether cancellation has been requested on this token.
func (t *Token) Requested() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.canceled
}

// Request marks the token canceled and propagates to every linked child.
// Idempotent: cancellation cannot be un-requested, and requesting an
// already-canceled token is a no-op.
func (t *Token) Request() {
	t.mu.Lock()
	if t.canceled {
		t.mu.Unlock()
		return
	}
	t.canceled = true
	children := t.children
	t.children = nil
	close(t.done)
	t.mu.Unlock()

	for _, c := range children {
		c.Request()
	}
}

// Done returns a channel that is closed when cancellation is requested,
// suitable for use in a select alongside other suspension points.
func (t *Token) Done() <-chan struct{} {
	return t.done
}

// NewLinkedChild returns a new Token that is canceled whenever t is
// canceled, in addition to whatever cancellation the child receives on its
// own. The reverse does not hold: canceling the child never cancels t.
func (t *Token) NewLinkedChild() *Token {
	child := New()
	t.mu.Lock()
	if t.canceled {
		t.mu.Unlock()
		child.Request()
		return child
	}
	t.children = append(t.children, child)
	t.mu.Unlock()
	return child
}
