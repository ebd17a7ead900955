package httpclients

import (
	"context"
	"time"

	"apex-server/router-api/internal/infrastructure/logger"

	"resty.dev/v3"
)

type startedAtKey struct{}

// RequestID keys the caller's request id into outbound request contexts so
// provider calls can be correlated with the inbound request.
type RequestID struct{}

// NewClient builds a resty client that debug-logs every outbound call with
// its latency under the given client name.
func NewClient(clientName string) *resty.Client {
	client := resty.New()

	client.AddRequestMiddleware(func(c *resty.Client, r *resty.Request) error {
		r.SetContext(context.WithValue(r.Context(), startedAtKey{}, time.Now()))
		return nil
	})

	client.AddResponseMiddleware(func(c *resty.Client, r *resty.Response) error {
		ctx := r.Request.Context()
		started, _ := ctx.Value(startedAtKey{}).(time.Time)
		requestID, _ := ctx.Value(RequestID{}).(string)

		log := logger.GetLogger()
		log.Debug().
			Str("client", clientName).
			Str("request_id", requestID).
			Str("method", r.Request.RawRequest.Method).
			Str("path", r.Request.RawRequest.URL.Path).
			Int("status", r.StatusCode()).
			Dur("latency", time.Since(started)).
			Msg("outbound http call")
		return nil
	})
	return client
}
