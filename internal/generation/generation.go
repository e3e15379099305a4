// Package generation defines the language model contract used to answer
// questions. A Generator either returns the whole answer at once or a channel
// of deltas that arrive while the model is still producing text.
package generation

import (
	"context"
	"fmt"
	"strings"

	"resumechat/internal/domain"
)

const (
	DefaultMaxTokens   = 250
	DefaultTemperature = 0.2
)

// Options controls a single completion.
type Options struct {
	MaxTokens   int
	Temperature float64
	Stream      bool
}

// DefaultOptions returns the settings used for resume answers.
func DefaultOptions() Options {
	return Options{MaxTokens: DefaultMaxTokens, Temperature: DefaultTemperature, Stream: true}
}

// Delta is one piece of streamed output. A delta with Err set ends the stream.
type Delta struct {
	Content string
	Err     error
}

// Response holds either a complete Text or a Deltas channel that is closed
// when the model is done.
type Response struct {
	Text   string
	Deltas <-chan Delta
}

// Generator produces a completion for a prompt.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string, opts Options) (*Response, error)
}

// Stream runs produce in its own goroutine and exposes what it emits as a
// delta channel. An error returned by produce is sent as the last delta.
func Stream(ctx context.Context, produce func(ctx context.Context, emit func(string) error) error) *Response {
	ch := make(chan Delta)
	go func() {
		defer close(ch)
		emit := func(s string) error {
			select {
			case ch <- Delta{Content: s}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := produce(ctx, emit); err != nil {
			select {
			case ch <- Delta{Err: err}:
			case <-ctx.Done():
			}
		}
	}()
	return &Response{Deltas: ch}
}

// Collect reads a response to the end. onDelta is called for every non-empty
// streamed delta in arrival order; complete texts are returned without it.
// Failures are wrapped in domain.ErrGeneration together with the text
// received so far.
func Collect(ctx context.Context, resp *Response, onDelta func(string)) (string, error) {
	if resp == nil {
		return "", nil
	}
	if resp.Deltas == nil {
		return resp.Text, nil
	}
	var sb strings.Builder
	for {
		select {
		case <-ctx.Done():
			return sb.String(), fmt.Errorf("%w: %w", domain.ErrGeneration, ctx.Err())
		case d, ok := <-resp.Deltas:
			if !ok {
				return sb.String(), nil
			}
			if d.Err != nil {
				return sb.String(), fmt.Errorf("%w: %w", domain.ErrGeneration, d.Err)
			}
			if d.Content == "" {
				continue
			}
			sb.WriteString(d.Content)
			if onDelta != nil {
				onDelta(d.Content)
			}
		}
	}
}
