package service

import (
	"context"
	"errors"
	"sync"

	"resumechat/internal/generation"
)

type textSource struct {
	text string
	err  error
}

func (s textSource) Fetch(context.Context) (string, error) { return s.text, s.err }

// vectorService embeds from a fixed table; unknown texts fail.
type vectorService struct {
	vectors map[string]any
}

func (v *vectorService) Name() string           { return "table" }
func (v *vectorService) Prepare([]string) error { return nil }
func (v *vectorService) Embed(_ context.Context, text string) (any, error) {
	vec, ok := v.vectors[text]
	if !ok {
		return nil, errors.New("embedding service unavailable")
	}
	return vec, nil
}

// scriptedGenerator streams deltas and optionally fails after them.
type scriptedGenerator struct {
	mu      sync.Mutex
	prompts []string
	deltas  []string
	blob    *string
	failAt  error
	started chan struct{}
	release chan struct{}
	block   bool
}

func (g *scriptedGenerator) Name() string { return "scripted" }

func (g *scriptedGenerator) Generate(ctx context.Context, prompt string, _ generation.Options) (*generation.Response, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()
	if g.started != nil {
		close(g.started)
		g.started = nil
	}
	if g.blob != nil {
		return &generation.Response{Text: *g.blob}, nil
	}
	return generation.Stream(ctx, func(ctx context.Context, emit func(string) error) error {
		if g.release != nil {
			select {
			case <-g.release:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if g.block {
			<-ctx.Done()
			return ctx.Err()
		}
		for _, d := range g.deltas {
			if err := emit(d); err != nil {
				return err
			}
		}
		return g.failAt
	}), nil
}

func (g *scriptedGenerator) lastPrompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.prompts) == 0 {
		return ""
	}
	return g.prompts[len(g.prompts)-1]
}

type message struct {
	sender    Sender
	text      string
	streaming bool
	deltas    []string
	final     string
	finished  bool
}

// recordingSink keeps every event for assertions.
type recordingSink struct {
	mu       sync.Mutex
	statuses []string
	messages []*message
	progress []int
}

func (r *recordingSink) OnStatus(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, text)
}

func (r *recordingSink) OnMessage(sender Sender, text string, streaming bool) MessageHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := &message{sender: sender, text: text, streaming: streaming}
	r.messages = append(r.messages, m)
	return &recordingHandle{sink: r, msg: m}
}

func (r *recordingSink) OnProgress(p int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, p)
}

func (r *recordingSink) last() *message {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return nil
	}
	return r.messages[len(r.messages)-1]
}

func (r *recordingSink) lastStatus() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.statuses) == 0 {
		return ""
	}
	return r.statuses[len(r.statuses)-1]
}

type recordingHandle struct {
	sink *recordingSink
	msg  *message
}

func (h *recordingHandle) Append(delta string) {
	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()
	h.msg.deltas = append(h.msg.deltas, delta)
}

func (h *recordingHandle) Finish(final string) {
	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()
	h.msg.final = final
	h.msg.finished = true
}
