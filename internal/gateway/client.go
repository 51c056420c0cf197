// Package gateway translates the operations of the portal backend's REST API into Go calls.
// It holds no state besides its HTTP client; every failure is returned as an *Error carrying a message that can be
// shown to the user as-is.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// HeaderRequestID is the header every request is tagged with
const HeaderRequestID = "X-Request-ID"

// Client represents a client of the portal backend
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new backend client.
// If httpClient is nil, a client with a 15 second timeout is used; hung calls are only bounded by this timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// response represents a settled backend call with its decoded body.
// Body is the decoded JSON value (numbers as json.Number), the raw text if the body is not JSON or nil if it is empty.
type response struct {
	Status int
	Body   any
}

// do performs a request and decodes its response.
// Transport failures are returned as *Error with status 0; non-2xx responses as *Error carrying the decoded body.
// Messages of returned errors are generic; the operations replace them with their own normalization.
func (client *Client) do(ctx context.Context, method, path, token string, payload any) (*response, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(raw)
	}

	request, err := http.NewRequestWithContext(ctx, method, client.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	requestID := uuid.NewString()
	request.Header.Set(HeaderRequestID, requestID)
	request.Header.Set("Accept", "application/json")
	if payload != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		request.Header.Set("Authorization", "Token "+token)
	}

	started := time.Now()
	resp, err := client.httpClient.Do(request)
	if err != nil {
		log.Debug().Err(err).Str("method", method).Str("path", path).Str("request_id", requestID).Msg("backend request failed")
		return nil, &Error{Message: err.Error(), cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Status: resp.StatusCode, Message: err.Error(), cause: err}
	}
	res := &response{
		Status: resp.StatusCode,
		Body:   decodeBody(raw),
	}

	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", res.Status).
		Str("request_id", requestID).
		Dur("took", time.Since(started)).
		Msg("backend request settled")

	if res.Status < 200 || res.Status > 299 {
		return nil, &Error{
			Status:  res.Status,
			Message: fmt.Sprintf("backend responded with status %d", res.Status),
			Body:    res.Body,
		}
	}
	return res, nil
}

func decodeBody(raw []byte) any {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var body any
	if err := decoder.Decode(&body); err != nil {
		return string(raw)
	}
	return body
}
