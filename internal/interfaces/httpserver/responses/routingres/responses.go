package routingres

import (
	"apex-server/router-api/internal/domain/catalog"
)

// ModelSummary is the catalog listing shape exposed over HTTP.
type ModelSummary struct {
	ID              string   `json:"id"`
	Object          string   `json:"object"`
	DisplayName     string   `json:"display_name"`
	Provider        string   `json:"provider"`
	Capabilities    []string `json:"capabilities"`
	Specializations []string `json:"specializations,omitempty"`
	Quality         float64  `json:"quality"`
	AvgLatencyMs    float64  `json:"avg_latency_ms"`
}

// ListModelsResponse mirrors the OpenAI list envelope.
type ListModelsResponse struct {
	Object string         `json:"object"`
	Data   []ModelSummary `json:"data"`
}

func NewListModelsResponse(models []catalog.ModelConfig) ListModelsResponse {
	out := ListModelsResponse{Object: "list", Data: make([]ModelSummary, 0, len(models))}
	for _, m := range models {
		caps := make([]string, 0, len(m.Capabilities))
		for _, c := range m.Capabilities {
			caps = append(caps, string(c))
		}
		out.Data = append(out.Data, ModelSummary{
			ID:              m.ID,
			Object:          "model",
			DisplayName:     m.DisplayName,
			Provider:        string(m.Provider),
			Capabilities:    caps,
			Specializations: m.Specializations,
			Quality:         m.Performance.Quality,
			AvgLatencyMs:    m.Performance.AvgLatencyMs,
		})
	}
	return out
}
