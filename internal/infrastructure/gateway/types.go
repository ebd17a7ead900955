package gateway

import (
	"sync"
)

// Message is a single turn of a chat exchange sent to a provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request carries everything a provider needs to produce a completion.
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// Usage reports token accounting for a completed call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the fully materialized result of a non-streaming call.
type Response struct {
	Model        string `json:"model"`
	Content      string `json:"content"`
	FinishReason string `json:"finish_reason"`
	Usage        Usage  `json:"usage"`
}

// Delta is one incremental chunk of a streaming response. Done is set on
// the final chunk; Err carries a mid-stream failure.
type Delta struct {
	Content string
	Done    bool
	Err     error
}

// Stream delivers deltas from a streaming call. The consumer owns the
// lifecycle: Close releases the underlying connection and may be called
// at any time, including before the stream is drained.
type Stream struct {
	events    chan Delta
	closeOnce sync.Once
	closed    chan struct{}
	doneOnce  sync.Once
	done      chan struct{}
}

func newStream() *Stream {
	return &Stream{
		events: make(chan Delta),
		closed: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Events returns the channel of deltas. The channel is closed after the
// final delta or after Close.
func (s *Stream) Events() <-chan Delta {
	return s.events
}

// Done is closed once the stream has finished or been closed, whichever
// comes first.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Close stops the stream. Safe to call multiple times.
func (s *Stream) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
	})
	s.signalDone()
}

// send delivers a delta unless the consumer has already closed the stream.
// Returns false when the stream is no longer accepting deltas.
func (s *Stream) send(d Delta) bool {
	select {
	case s.events <- d:
		return true
	case <-s.closed:
		return false
	}
}

func (s *Stream) finish() {
	close(s.events)
	s.signalDone()
}

func (s *Stream) signalDone() {
	s.doneOnce.Do(func() {
		close(s.done)
	})
}
