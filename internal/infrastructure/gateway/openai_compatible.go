package gateway

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"apex-server/router-api/internal/infrastructure/logger"
	"apex-server/router-api/internal/utils/platformerrors"

	"github.com/sashabaranov/go-openai"
	"resty.dev/v3"
)

const (
	dataPrefix           = "data: "
	doneMarker           = "[DONE]"
	scannerInitialBuffer = 12 * 1024        // 12KB
	scannerMaxBuffer     = 10 * 1024 * 1024 // 10MB
)

// providerClient speaks the OpenAI-compatible chat completion wire format.
// All supported provider kinds expose this surface either natively or
// through their compatibility endpoints.
type providerClient struct {
	client  *resty.Client
	baseURL string
	name    string
	apiKey  string
}

func newProviderClient(client *resty.Client, name, baseURL, apiKey string) *providerClient {
	return &providerClient{
		client:  client,
		baseURL: normalizeBaseURL(baseURL),
		name:    name,
		apiKey:  apiKey,
	}
}

func (c *providerClient) complete(ctx context.Context, req Request) (*Response, error) {
	var respBody openai.ChatCompletionResponse
	resp, err := c.prepareRequest(ctx).
		SetBody(c.wireRequest(req, false)).
		SetResult(&respBody).
		Post(c.endpoint("/chat/completions"))
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, c.errorFromResponse(ctx, resp, "completion request failed")
	}
	if len(respBody.Choices) == 0 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "provider returned no choices", nil, "f0c2a9d1-4b8e-4c37-9a65-2d1e8f7b3a90")
	}

	choice := respBody.Choices[0]
	return &Response{
		Model:        respBody.Model,
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Usage: Usage{
			PromptTokens:     respBody.Usage.PromptTokens,
			CompletionTokens: respBody.Usage.CompletionTokens,
			TotalTokens:      respBody.Usage.TotalTokens,
		},
	}, nil
}

// streamComplete starts a streaming completion and decodes SSE chunks into
// deltas on the returned stream. The goroutine exits when the provider
// finishes, the context is cancelled, or the consumer closes the stream.
func (c *providerClient) streamComplete(ctx context.Context, req Request) (*Stream, error) {
	resp, err := c.doStreamingRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	stream := newStream()

	go func() {
		defer func() {
			if closeErr := resp.RawResponse.Body.Close(); closeErr != nil {
				log := logger.GetLogger()
				log.Error().Err(closeErr).Str("client", c.name).Msg("unable to close response body")
			}
			stream.finish()
		}()

		scanner := bufio.NewScanner(resp.RawResponse.Body)
		scanner.Buffer(make([]byte, 0, scannerInitialBuffer), scannerMaxBuffer)

		for scanner.Scan() {
			select {
			case <-ctx.Done():
				stream.send(Delta{Err: ctx.Err()})
				return
			default:
			}

			data, found := strings.CutPrefix(scanner.Text(), dataPrefix)
			if !found {
				continue
			}
			if data == doneMarker {
				stream.send(Delta{Done: true})
				return
			}

			content, ok := c.decodeChunk(data)
			if !ok || content == "" {
				continue
			}
			if !stream.send(Delta{Content: content}) {
				return
			}
		}

		if err := scanner.Err(); err != nil {
			stream.send(Delta{Err: err})
		}
	}()

	return stream, nil
}

func (c *providerClient) listModels(ctx context.Context) ([]string, error) {
	var respBody struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	resp, err := c.prepareRequest(ctx).
		SetResult(&respBody).
		Get(c.endpoint("/models"))
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, c.errorFromResponse(ctx, resp, "model listing failed")
	}

	ids := make([]string, 0, len(respBody.Data))
	for _, m := range respBody.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

func (c *providerClient) healthy(ctx context.Context) bool {
	_, err := c.listModels(ctx)
	return err == nil
}

func (c *providerClient) wireRequest(req Request, stream bool) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	out := openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
		Stream:      stream,
	}
	if stream {
		out.StreamOptions = &openai.StreamOptions{IncludeUsage: true}
	}
	return out
}

func (c *providerClient) prepareRequest(ctx context.Context) *resty.Request {
	req := c.client.R().SetContext(ctx)
	req.SetHeader("Content-Type", "application/json")
	if strings.TrimSpace(c.apiKey) != "" {
		req.SetHeader("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	}
	return req
}

func (c *providerClient) endpoint(path string) string {
	if path == "" {
		return c.baseURL
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if c.baseURL == "" {
		return path
	}
	if strings.HasPrefix(path, "/") {
		return c.baseURL + path
	}
	return c.baseURL + "/" + path
}

func (c *providerClient) doStreamingRequest(ctx context.Context, req Request) (*resty.Response, error) {
	request := c.prepareRequest(ctx).
		SetBody(c.wireRequest(req, true)).
		SetDoNotParseResponse(true)

	if request.Header.Get("Accept-Encoding") == "" {
		request.SetHeader("Accept-Encoding", "identity")
	}

	resp, err := request.Post(c.endpoint("/chat/completions"))
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, c.errorFromResponse(ctx, resp, "streaming request failed")
	}
	if resp.RawResponse == nil || resp.RawResponse.Body == nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "streaming request failed: empty response body", nil, "7d9e5b22-3f61-48ac-b5d4-90c8e1a6f2d3")
	}
	return resp, nil
}

func (c *providerClient) errorFromResponse(ctx context.Context, resp *resty.Response, message string) error {
	if resp == nil || resp.RawResponse == nil || resp.RawResponse.Body == nil {
		return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, message, nil, "41c7e8a5-92d0-4f1b-8c36-e5b9d2a7f014")
	}
	defer resp.RawResponse.Body.Close()
	body, err := io.ReadAll(resp.RawResponse.Body)
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, fmt.Sprintf("%s: status %d", message, resp.StatusCode()), nil, "9a3f6c18-d457-4e02-b6a9-1c84f5e7d2b0")
	}
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, fmt.Sprintf("%s: status %d", message, resp.StatusCode()), nil, "c5d08f3a-76b1-4298-a0e4-8b2d9c64f1e7")
	}
	return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, fmt.Sprintf("%s: status %d: %s", message, resp.StatusCode(), trimmed), nil, "2e6b1d94-80fc-45a7-93d8-f4a0c7e5b861")
}

func (c *providerClient) decodeChunk(data string) (string, bool) {
	var chunk struct {
		Choices []struct {
			Delta struct {
				Content string `json:"content"`
			} `json:"delta"`
		} `json:"choices"`
	}
	if err := json.Unmarshal([]byte(data), &chunk); err != nil {
		log := logger.GetLogger()
		log.Error().Err(err).Str("client", c.name).Str("data", data).Msg("failed to parse stream chunk JSON")
		return "", false
	}

	var content strings.Builder
	for _, choice := range chunk.Choices {
		content.WriteString(choice.Delta.Content)
	}
	return content.String(), true
}

func normalizeBaseURL(base string) string {
	trimmed := strings.TrimSpace(base)
	return strings.TrimRight(trimmed, "/")
}
