// Package llmtest provides a scripted llm.Client for tests.
package llmtest

import (
	"context"
	"sync"

	"artwork-catalog/internal/infra/llm"
)

// Reply is one scripted answer. Wait, when set, blocks the call until it is
// closed or the context ends.
type Reply struct {
	Text string
	Err  error
	Wait chan struct{}
}

// Fake answers calls from a queue of replies; once the queue is drained it
// keeps returning Default.
type Fake struct {
	mu       sync.Mutex
	replies  []Reply
	Default  Reply
	Requests []llm.Request
}

func New(replies ...Reply) *Fake {
	return &Fake{replies: replies}
}

func (f *Fake) Push(r Reply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, r)
}

func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Requests)
}

func (f *Fake) next(req llm.Request) Reply {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Requests = append(f.Requests, req)
	if len(f.replies) == 0 {
		return f.Default
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r
}

func (f *Fake) answer(ctx context.Context, req llm.Request) (string, error) {
	r := f.next(req)
	if r.Wait != nil {
		select {
		case <-r.Wait:
		case <-ctx.Done():
			return "", llm.Classify(ctx.Err())
		}
	}
	return r.Text, r.Err
}

func (f *Fake) GenerateJSON(ctx context.Context, req llm.Request) (string, error) {
	text, err := f.answer(ctx, req)
	if err != nil {
		return "", err
	}
	return llm.CleanJSONBlock(text), nil
}

func (f *Fake) GenerateText(ctx context.Context, req llm.Request) (string, error) {
	return f.answer(ctx, req)
}

func (f *Fake) Close() error { return nil }

var _ llm.Client = (*Fake)(nil)
