// Package remote sends queued requests to the expense API and applies what
// comes back.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"expense-cli/internal/store"
)

// Command is a queued request as the client sends it.
type Command = store.Request

// CodeOK is the jsonCode of a successful response.
const CodeOK = 200

// Response is the API envelope. OnyxData is applied before the command's own
// success or failure updates.
type Response struct {
	JSONCode int            `json:"jsonCode"`
	Message  string         `json:"message,omitempty"`
	OnyxData []store.Update `json:"onyxData,omitempty"`
}

// Client talks to the API. A returned error means the request never got an
// answer (the caller treats the network as offline); API-level failures come
// back as a Response with a non-200 JSONCode.
type Client interface {
	Write(ctx context.Context, cmd Command) (Response, error)
	Read(ctx context.Context, cmd Command) (Response, error)
}

type wireRequest struct {
	ID     string         `json:"id"`
	Params map[string]any `json:"params,omitempty"`
	Email  string         `json:"email,omitempty"`
}

type HTTPClient struct {
	BaseURL string
	Email   string
	HTTP    *http.Client
}

func NewHTTPClient(baseURL, email string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		Email:   email,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Write(ctx context.Context, cmd Command) (Response, error) {
	return c.post(ctx, cmd)
}

func (c *HTTPClient) Read(ctx context.Context, cmd Command) (Response, error) {
	return c.post(ctx, cmd)
}

func (c *HTTPClient) post(ctx context.Context, cmd Command) (Response, error) {
	body, err := json.Marshal(wireRequest{ID: cmd.ID, Params: cmd.Params, Email: c.Email})
	if err != nil {
		return Response{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/"+cmd.Command, bytes.NewReader(body))
	if err != nil {
		return Response{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return Response{}, fmt.Errorf("%s: http %d", cmd.Command, resp.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return Response{}, err
	}
	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		if resp.StatusCode != http.StatusOK {
			// Plain-text rejections still carry the failure to the caller.
			return Response{JSONCode: resp.StatusCode, Message: truncateMessage(string(raw))}, nil
		}
		return Response{}, fmt.Errorf("%s: decode response (http %d): %w", cmd.Command, resp.StatusCode, err)
	}
	if out.JSONCode == 0 {
		out.JSONCode = resp.StatusCode
	}
	return out, nil
}

const maxMessageLen = 200

func truncateMessage(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxMessageLen {
		return s
	}
	return strings.ToValidUTF8(s[:maxMessageLen], "") + "..."
}

// Loopback acks every write locally. Reads are answered by ReadFunc when set.
type Loopback struct {
	ReadFunc func(ctx context.Context, cmd Command) ([]store.Update, error)
}

func (Loopback) Write(ctx context.Context, cmd Command) (Response, error) {
	return Response{JSONCode: CodeOK}, nil
}

func (l Loopback) Read(ctx context.Context, cmd Command) (Response, error) {
	if l.ReadFunc == nil {
		return Response{JSONCode: CodeOK}, nil
	}
	data, err := l.ReadFunc(ctx, cmd)
	if err != nil {
		return Response{}, err
	}
	return Response{JSONCode: CodeOK, OnyxData: data}, nil
}

// NewClient picks the HTTP client when an endpoint is configured, else loopback.
func NewClient(cfg store.RemoteConfig, email string) Client {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return Loopback{}
	}
	return NewHTTPClient(cfg.Endpoint, email, time.Duration(cfg.TimeoutSeconds)*time.Second)
}
