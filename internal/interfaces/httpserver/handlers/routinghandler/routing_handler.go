package routinghandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	openai "github.com/sashabaranov/go-openai"

	"apex-server/router-api/internal/domain/catalog"
	"apex-server/router-api/internal/domain/ensemble"
	"apex-server/router-api/internal/domain/routing"
	"apex-server/router-api/internal/infrastructure/gateway"
	"apex-server/router-api/internal/infrastructure/logger"
	"apex-server/router-api/internal/interfaces/httpserver/dto"
	"apex-server/router-api/internal/interfaces/httpserver/middlewares"
	"apex-server/router-api/internal/interfaces/httpserver/requests/routingreq"
	"apex-server/router-api/internal/interfaces/httpserver/responses/routingres"
	"apex-server/router-api/internal/utils/platformerrors"
)

// RoutingHandler serves the routing decision, ensemble and completion
// endpoints over the shared engine services.
type RoutingHandler struct {
	router     *routing.Router
	aggregator *ensemble.Aggregator
	gateway    *gateway.Gateway
	registry   *catalog.Registry
	validate   *validator.Validate
}

func NewRoutingHandler(
	router *routing.Router,
	aggregator *ensemble.Aggregator,
	gw *gateway.Gateway,
	registry *catalog.Registry,
) *RoutingHandler {
	return &RoutingHandler{
		router:     router,
		aggregator: aggregator,
		gateway:    gw,
		registry:   registry,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

// SelectModel returns the routing decision for a request without invoking
// the chosen model.
func (h *RoutingHandler) SelectModel(c *gin.Context) {
	var req routingreq.SelectModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, platformerrors.NewError(c.Request.Context(), platformerrors.LayerHandler,
			platformerrors.ErrorTypeValidation, "invalid selection request: "+err.Error(), err, "a6e91d03-7f42-4b58-bc17-d2908e5a3f64"))
		return
	}

	selection, err := h.router.SelectModel(c.Request.Context(), req.ToDomain())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.OK(selection))
}

// CombineEnsemble fans the prompt out to the named models and reduces the
// answers under the requested strategy.
func (h *RoutingHandler) CombineEnsemble(c *gin.Context) {
	var req routingreq.EnsembleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, platformerrors.NewError(c.Request.Context(), platformerrors.LayerHandler,
			platformerrors.ErrorTypeValidation, "invalid ensemble request: "+err.Error(), err, "f3b52c87-0a94-4de6-91b3-7c5e8d2a6f10"))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.respondError(c, platformerrors.NewError(c.Request.Context(), platformerrors.LayerHandler,
			platformerrors.ErrorTypeValidation, "invalid ensemble request: "+err.Error(), err, "c71a0f5d-4e28-49b6-8f03-9d64b2e17a85"))
		return
	}

	gwReq := gateway.Request{
		Messages:    []gateway.Message{{Role: openai.ChatMessageRoleUser, Content: req.Text}},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	resp, err := h.aggregator.Combine(c.Request.Context(), gwReq, req.ToConfig())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.OK(resp))
}

// ListModels exposes the current catalog snapshot.
func (h *RoutingHandler) ListModels(c *gin.Context) {
	c.JSON(http.StatusOK, routingres.NewListModelsResponse(h.registry.ListModels()))
}

// ChatCompletions is the OpenAI-compatible completion endpoint. A missing
// or "auto" model runs the routing pipeline first.
func (h *RoutingHandler) ChatCompletions(c *gin.Context) {
	var req routingreq.ChatCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, platformerrors.NewError(c.Request.Context(), platformerrors.LayerHandler,
			platformerrors.ErrorTypeValidation, "invalid completion request: "+err.Error(), err, "1d87f4a2-63c9-40be-a5d1-8e02c7b9f356"))
		return
	}
	if len(req.Messages) == 0 {
		h.respondError(c, platformerrors.NewError(c.Request.Context(), platformerrors.LayerHandler,
			platformerrors.ErrorTypeValidation, "messages must not be empty", nil, "84c0d9e6-2b71-45fa-8c3e-f615a0d72b98"))
		return
	}

	modelID := req.Model
	var selection *routing.ModelSelection
	if req.NeedsRouting() {
		var err error
		selection, err = h.router.SelectModel(c.Request.Context(), &routing.Request{
			Text:          req.LastUserText(),
			HistoryLength: len(req.Messages) - 1,
		})
		if err != nil {
			h.respondError(c, err)
			return
		}
		modelID = selection.Model.ID
	}

	gwReq := gateway.Request{
		Model:       modelID,
		Temperature: float64(req.Temperature),
		MaxTokens:   req.MaxTokens,
	}
	for _, m := range req.Messages {
		gwReq.Messages = append(gwReq.Messages, gateway.Message{Role: m.Role, Content: m.Content})
	}

	if req.Stream {
		h.streamCompletion(c, gwReq)
		return
	}

	resp, err := h.gateway.Invoke(c.Request.Context(), gwReq)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, completionResponse(resp))
}

// streamCompletion relays provider deltas to the client as SSE events.
// Client disconnect cancels the request context, which tears down the
// upstream call.
func (h *RoutingHandler) streamCompletion(c *gin.Context, req gateway.Request) {
	stream, err := h.gateway.InvokeStream(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer stream.Close()

	flusher, ok := middlewares.PrepareSSE(c)
	if !ok {
		h.respondError(c, platformerrors.NewError(c.Request.Context(), platformerrors.LayerHandler,
			platformerrors.ErrorTypeInternal, "response writer does not support streaming", nil, "b2e64f90-8d13-47ca-95b6-0a7c3e1d8f42"))
		return
	}

	created := time.Now().Unix()
	log := logger.GetLogger()
	for {
		select {
		case delta, open := <-stream.Events():
			if !open {
				return
			}
			if delta.Err != nil {
				log.Error().Err(delta.Err).Str("model", req.Model).Msg("stream aborted")
				return
			}
			if delta.Done {
				fmt.Fprint(c.Writer, "data: [DONE]\n\n")
				flusher.Flush()
				return
			}
			chunk := openai.ChatCompletionStreamResponse{
				Object:  "chat.completion.chunk",
				Created: created,
				Model:   req.Model,
				Choices: []openai.ChatCompletionStreamChoice{
					{Delta: openai.ChatCompletionStreamChoiceDelta{Content: delta.Content}},
				},
			}
			payload, err := json.Marshal(chunk)
			if err != nil {
				log.Error().Err(err).Msg("marshal stream chunk")
				return
			}
			fmt.Fprintf(c.Writer, "data: %s\n\n", payload)
			flusher.Flush()
		case <-c.Request.Context().Done():
			return
		}
	}
}

func completionResponse(resp *gateway.Response) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   resp.Model,
		Choices: []openai.ChatCompletionChoice{
			{
				Index: 0,
				Message: openai.ChatCompletionMessage{
					Role:    openai.ChatMessageRoleAssistant,
					Content: resp.Content,
				},
				FinishReason: openai.FinishReason(resp.FinishReason),
			},
		},
		Usage: openai.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
}

func (h *RoutingHandler) respondError(c *gin.Context, err error) {
	var platformErr *platformerrors.PlatformError
	if !errors.As(err, &platformErr) {
		platformErr = platformerrors.AsError(c.Request.Context(), platformerrors.LayerHandler, err, "request failed")
	}
	platformerrors.LogError(logger.GetLogger(), platformErr)

	status := platformerrors.ErrorTypeToHTTPStatus(platformErr.Type)
	c.JSON(status, dto.Fail(string(platformErr.Type), platformErr.Message))
}
