// API service for making HTTP requests to the lyrics backend
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/lyricsphere/internal/shared"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the backend address used when none is configured.
const DefaultBaseURL = "http://127.0.0.1:5000"

// APIService provides methods for making raw and JSON HTTP requests to the lyrics backend.
type APIService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewAPIService creates a new API service instance for the backend at baseURL.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// WithRateLimit throttles outgoing requests. A non-positive rps disables throttling.
func (a *APIService) WithRateLimit(rps float64, burst int) *APIService {
	if rps <= 0 {
		a.limiter = nil
		return a
	}
	if burst < 1 {
		burst = 1
	}
	a.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	return a
}

// BaseURL returns the backend origin without a trailing slash.
func (a *APIService) BaseURL() string {
	return a.baseURL
}

// URL joins path and an optional query onto the base URL.
func (a *APIService) URL(path string, query url.Values) string {
	u := a.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// APIError is a failed backend call. It wraps [shared.ErrAPIRequest].
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return shared.ErrAPIRequest
}

// Err reports a non-2xx status or a body whose status field is "error". The message comes from the body's message
// field when present.
func (r *APIResponse) Err() error {
	obj, _ := r.JSONData.(map[string]any)
	status, _ := obj["status"].(string)
	if r.StatusCode >= 200 && r.StatusCode < 300 && status != "error" {
		return nil
	}

	msg, _ := obj["message"].(string)
	if msg == "" {
		msg = fmt.Sprintf("Request failed with %d", r.StatusCode)
	}
	return &APIError{StatusCode: r.StatusCode, Message: msg}
}

// Message returns the body's message field, or fallback.
func (r *APIResponse) Message(fallback string) string {
	if obj, ok := r.JSONData.(map[string]any); ok {
		if msg, ok := obj["message"].(string); ok && msg != "" {
			return msg
		}
	}
	return fallback
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return a.do(req)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return a.do(req)
}

// UploadJSON uploads JSON data to the specified path.
func (a *APIService) UploadJSON(ctx context.Context, path string, jsonData []byte) (*APIResponse, error) {
	return a.Post(ctx, path, jsonData)
}

// GetJSON performs a GET and decodes a successful body into out, which may be nil.
func (a *APIService) GetJSON(ctx context.Context, path string, query url.Values, out any) (*APIResponse, error) {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	resp, err := a.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	return resp, decodeInto(resp, out)
}

// PostJSON marshals body, POSTs it and decodes a successful response into out, which may be nil.
func (a *APIService) PostJSON(ctx context.Context, path string, body, out any) (*APIResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	resp, err := a.Post(ctx, path, data)
	if err != nil {
		return nil, err
	}
	return resp, decodeInto(resp, out)
}

func (a *APIService) do(req *http.Request) (*APIResponse, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w: %w", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}

	var jsonData any
	if err := json.Unmarshal(body, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

func decodeInto(resp *APIResponse, out any) error {
	if err := resp.Err(); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if !resp.IsJSON {
		return fmt.Errorf("%w: response is not JSON", shared.ErrAPIRequest)
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
