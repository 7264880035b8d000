package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/gotrue/pkg/idx"
)

// url builds a complete URL by appending the path to the base URL.
func (a *API) url(path string) string {
	return a.baseURL + path
}

// do performs one HTTP request against the auth server. A non-empty token
// is attached as a bearer Authorization header. A JSON body is marshaled
// when body is non-nil. Connectivity failures come back as *APIError with
// a zero status code.
func (a *API) do(
	ctx context.Context,
	method, path string,
	token string,
	body any,
) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, &APIError{Err: fmt.Errorf("encode request body: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.url(path), reader)
	if err != nil {
		return nil, &APIError{Err: fmt.Errorf("create request: %w", err)}
	}

	// Configured default headers first so they cannot clobber the
	// protocol-level ones below.
	for key, value := range a.headers {
		req.Header.Set(key, value)
	}

	reqID := idx.New()
	req.Header.Set("X-Request-ID", reqID.String())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, &APIError{Err: fmt.Errorf("rate limiter: %w", err)}
		}
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.log.DebugContext(ctx, "request failed",
			"method", method, "path", path, "req_id", reqID.String(), "error", err)
		return nil, &APIError{Err: fmt.Errorf("send request: %w", err)}
	}

	a.log.DebugContext(ctx, "request complete",
		"method", method, "path", path, "req_id", reqID.String(), "status", resp.StatusCode)

	return resp, nil
}

// decodeJSON decodes a JSON response into target, mapping error responses
// and undecodable bodies to *APIError.
func decodeJSON(resp *http.Response, target any) error {
	defer resp.Body.Close()

	// Read the body once for both error parsing and success decoding
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseErrorResponse(resp.StatusCode, bodyBytes)
	}

	if err := json.Unmarshal(bodyBytes, target); err != nil {
		return &APIError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}

	return nil
}

// checkStatus drains the response and returns a typed error unless the
// status is 2xx. For endpoints whose success body carries nothing.
func checkStatus(resp *http.Response) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return parseErrorResponse(resp.StatusCode, bodyBytes)
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// parseErrorResponse builds an *APIError from an error response body.
// The server answers with either {"code":..,"msg":..} or the OAuth2
// {"error":..,"error_description":..} pair depending on the endpoint.
func parseErrorResponse(statusCode int, body []byte) error {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		switch {
		case errResp.Error != "":
			return &APIError{StatusCode: statusCode, Code: errResp.Error, Message: errResp.ErrorDescription}
		case errResp.Msg != "":
			return &APIError{StatusCode: statusCode, Message: errResp.Msg}
		}
	}

	return &APIError{StatusCode: statusCode}
}

// discardLogger is used until an option installs a real logger.
func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
