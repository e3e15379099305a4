package service

import (
	"fmt"
)

// Sender labels a chat message.
type Sender string

const (
	SenderUser      Sender = "User"
	SenderAssistant Sender = "Assistant"
)

const (
	StatusLoading   = "Loading the resume..."
	StatusEmbedding = "Reading the resume..."
	StatusThinking  = "Thinking..."
	StatusReady     = "I am ready. Ask me anything about my professional experience and I will do my best to answer your questions!"

	Greeting = "Hi there! I've read the resume. How can I help you?"
)

// InitFailure is the status shown when a session could not be opened.
func InitFailure(err error) string {
	return fmt.Sprintf("I couldn't start properly: %v", err)
}

// Sink receives everything a front end displays.
type Sink interface {
	OnStatus(text string)
	// OnMessage adds a chat message. When streaming is true more text will
	// follow through the returned handle.
	OnMessage(sender Sender, text string, streaming bool) MessageHandle
	OnProgress(percent int)
}

// MessageHandle updates a message that is still being streamed.
type MessageHandle interface {
	Append(delta string)
	// Finish replaces the streamed text with the final answer.
	Finish(final string)
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) OnStatus(string) {}
func (NopSink) OnMessage(Sender, string, bool) MessageHandle {
	return nopHandle{}
}
func (NopSink) OnProgress(int) {}

type nopHandle struct{}

func (nopHandle) Append(string) {}
func (nopHandle) Finish(string) {}
