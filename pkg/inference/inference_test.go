package inference

import (
	"context"
	"errors"
	"testing"
)

func TestMockProvider(t *testing.T) {
	ctx := context.Background()
	mock := NewMock(`{"action":"question"}`)

	resp, err := mock.Chat(ctx, &ChatRequest{
		Messages: []Message{NewUserMessage("Hello")},
	})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if resp.Message.Content != `{"action":"question"}` {
		t.Errorf("content = %s", resp.Message.Content)
	}

	reqs := mock.Requests()
	if len(reqs) != 1 || reqs[0].Messages[0].Content != "Hello" {
		t.Errorf("requests = %+v", reqs)
	}

	mock.Reset()
	if mock.CallCount() != 0 {
		t.Error("Expected 0 calls after reset")
	}
}

func TestMockWithError(t *testing.T) {
	testErr := errors.New("test error")
	mock := WithError(testErr)

	_, err := mock.Chat(context.Background(), &ChatRequest{})
	if !errors.Is(err, testErr) {
		t.Errorf("Expected test error, got: %v", err)
	}
	var perr *ProviderError
	if !errors.As(err, &perr) || perr.Provider != "mock" {
		t.Errorf("Expected mock ProviderError, got: %v", err)
	}
}

func TestFunctionalOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Apply(
		WithBaseURL("http://localhost:11434/v1"),
		WithAPIKey("test-key"),
		WithModel("llama3"),
		WithMaxTokens(256),
		WithTemperature(0.3),
	)

	if cfg.BaseURL != "http://localhost:11434/v1" {
		t.Errorf("Expected Ollama URL, got %s", cfg.BaseURL)
	}
	if cfg.Model != "llama3" {
		t.Errorf("Expected llama3, got %s", cfg.Model)
	}
	if cfg.MaxTokens != 256 {
		t.Errorf("Expected 256, got %d", cfg.MaxTokens)
	}
	if cfg.Temperature != 0.3 {
		t.Errorf("Expected 0.3, got %f", cfg.Temperature)
	}
}

func TestValidate(t *testing.T) {
	if _, err := NewClient(WithModel("")); !errors.Is(err, ErrNoModel) {
		t.Errorf("Expected ErrNoModel, got %v", err)
	}
	if _, err := NewClient(WithBaseURL("")); !errors.Is(err, ErrNoBaseURL) {
		t.Errorf("Expected ErrNoBaseURL, got %v", err)
	}
	if _, err := NewClient(); err != nil {
		t.Errorf("API key should be optional: %v", err)
	}
}

func TestAPIErrorClassification(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
	}{
		{429, true},
		{500, true},
		{503, true},
		{400, false},
		{401, false},
		{404, false},
	}
	for _, tt := range tests {
		e := &APIError{StatusCode: tt.status, Provider: "test"}
		if e.IsRetryable() != tt.retryable {
			t.Errorf("status %d: IsRetryable = %v", tt.status, e.IsRetryable())
		}
	}
}
