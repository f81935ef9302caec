package llm

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// FakeReply is one scripted answer of FakeClient.
type FakeReply struct {
	JSON string
	Err  error
}

// FakeClient replays scripted replies in order, keyed by phase when the
// context carries one. It is used offline and in tests.
type FakeClient struct {
	mu      sync.Mutex
	byPhase map[string][]FakeReply
	fifo    []FakeReply
	Calls   []FakeCall
}

// FakeCall records one GenerateJSON invocation.
type FakeCall struct {
	Phase  string
	Prompt string
	Media  int
}

func NewFakeClient(replies ...FakeReply) *FakeClient {
	return &FakeClient{byPhase: map[string][]FakeReply{}, fifo: replies}
}

// OnPhase queues replies that are only consumed for the given phase.
func (f *FakeClient) OnPhase(phase string, replies ...FakeReply) *FakeClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byPhase[phase] = append(f.byPhase[phase], replies...)
	return f
}

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) GenerateJSON(ctx context.Context, prompt string, media ...Media) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	phase := PhaseFrom(ctx)
	f.Calls = append(f.Calls, FakeCall{Phase: phase, Prompt: prompt, Media: len(media)})

	var r FakeReply
	switch {
	case len(f.byPhase[phase]) > 0:
		r = f.byPhase[phase][0]
		f.byPhase[phase] = f.byPhase[phase][1:]
	case len(f.fifo) > 0:
		r = f.fifo[0]
		f.fifo = f.fifo[1:]
	default:
		return nil, errors.New("llm: fake client has no scripted reply")
	}
	if r.Err != nil {
		return nil, r.Err
	}
	return json.RawMessage(r.JSON), nil
}
