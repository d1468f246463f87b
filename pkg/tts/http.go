package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// doWithRetry sends req, retrying on transport errors, 429 and 5xx.
// body is replayed on each attempt.
func doWithRetry(ctx context.Context, client *http.Client, cfg *Config, logger *slog.Logger, provider string, req *http.Request, body []byte) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, WrapError(provider, ctx.Err())
			case <-time.After(cfg.RetryDelay * time.Duration(attempt)):
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
		}

		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, WrapError(provider, ctx.Err())
			}
			lastErr = WrapError(provider, err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = parseError(provider, resp)
			resp.Body.Close()
			logger.Warn("retrying synthesis",
				"attempt", attempt+1,
				"status", resp.StatusCode,
			)
			continue
		}

		return resp, nil
	}

	return nil, lastErr
}

// parseError reads an error body. OpenAI nests {"error":{...}}, ElevenLabs
// uses {"detail":{"status","message"}}; plain text is kept as is.
func parseError(provider string, resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
		Detail struct {
			Status  string `json:"status"`
			Message string `json:"message"`
		} `json:"detail"`
	}

	message := string(body)
	code := ""
	if json.Unmarshal(body, &errResp) == nil {
		switch {
		case errResp.Error.Message != "":
			message = errResp.Error.Message
			code = errResp.Error.Code
		case errResp.Detail.Message != "":
			message = errResp.Detail.Message
			code = errResp.Detail.Status
		}
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Code:       code,
		Provider:   provider,
	}
}
