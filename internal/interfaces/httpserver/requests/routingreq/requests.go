package routingreq

import (
	openai "github.com/sashabaranov/go-openai"

	"apex-server/router-api/internal/domain/ensemble"
	"apex-server/router-api/internal/domain/routing"
)

// SelectModelRequest asks for a single-model routing decision without
// invoking the chosen model.
type SelectModelRequest struct {
	Text          string              `json:"text" binding:"required"`
	HistoryLength int                 `json:"history_length" binding:"gte=0"`
	Preferences   routing.Preferences `json:"preferences"`
}

func (r *SelectModelRequest) ToDomain() *routing.Request {
	return &routing.Request{
		Text:          r.Text,
		HistoryLength: r.HistoryLength,
		Preferences:   r.Preferences,
	}
}

// EnsembleRequest fans one prompt out to several named models and reduces
// their answers under the given strategy.
type EnsembleRequest struct {
	Text               string             `json:"text" binding:"required"`
	Models             []string           `json:"models" binding:"required,min=1"`
	Strategy           string             `json:"strategy" binding:"required"`
	Weights            map[string]float64 `json:"weights,omitempty" validate:"omitempty,dive,gte=0"`
	ConsensusThreshold float64            `json:"consensus_threshold" binding:"gte=0,lte=1"`
	Temperature        float64            `json:"temperature,omitempty"`
	MaxTokens          int                `json:"max_tokens,omitempty" binding:"gte=0"`
}

func (r *EnsembleRequest) ToConfig() ensemble.Config {
	return ensemble.Config{
		Models:             r.Models,
		Strategy:           ensemble.Strategy(r.Strategy),
		Weights:            r.Weights,
		ConsensusThreshold: r.ConsensusThreshold,
	}
}

// ChatCompletionRequest is the OpenAI-compatible completion surface. When
// Model is empty or "auto" the router picks the backend.
type ChatCompletionRequest struct {
	openai.ChatCompletionRequest
}

// NeedsRouting reports whether the caller left model selection to us.
func (r *ChatCompletionRequest) NeedsRouting() bool {
	return r.Model == "" || r.Model == "auto"
}

// LastUserText returns the text of the most recent user message, which is
// what the routing pipeline classifies.
func (r *ChatCompletionRequest) LastUserText() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == openai.ChatMessageRoleUser {
			return r.Messages[i].Content
		}
	}
	if len(r.Messages) > 0 {
		return r.Messages[len(r.Messages)-1].Content
	}
	return ""
}
