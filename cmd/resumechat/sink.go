package main

import (
	"fmt"
	"io"

	"resumechat/internal/service"
)

// writerSink prints the answer to out as it streams and status lines to
// status.
type writerSink struct {
	out    io.Writer
	status io.Writer
}

func newWriterSink(out, status io.Writer) *writerSink {
	return &writerSink{out: out, status: status}
}

func (w *writerSink) OnStatus(text string) {
	if text == service.StatusThinking {
		fmt.Fprintln(w.status, text)
	}
}

func (w *writerSink) OnProgress(int) {}

func (w *writerSink) OnMessage(sender service.Sender, text string, streaming bool) service.MessageHandle {
	if sender != service.SenderAssistant {
		return &writerHandle{}
	}
	if !streaming {
		fmt.Fprintln(w.out, text)
		return &writerHandle{}
	}
	fmt.Fprint(w.out, text)
	return &writerHandle{out: w.out, streamed: text}
}

type writerHandle struct {
	out      io.Writer
	streamed string
}

func (h *writerHandle) Append(delta string) {
	if h.out == nil {
		return
	}
	h.streamed += delta
	fmt.Fprint(h.out, delta)
}

// Finish ends the streamed line. A final answer that differs from what was
// streamed, e.g. a fallback, is printed on its own line.
func (h *writerHandle) Finish(final string) {
	if h.out == nil {
		return
	}
	fmt.Fprintln(h.out)
	if final != h.streamed {
		fmt.Fprintln(h.out, final)
	}
}
