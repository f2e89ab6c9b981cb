package narrative

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	platformerrors "github.com/riftholm/riftholm/internal/platform/errors"
)

func TestGenerateReturnsOutputText(t *testing.T) {
	var gotBody map[string]any
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"output_text": `{"narrative":"You enter the crypt."}`,
		})
	}))
	defer server.Close()

	gen, err := NewOpenAIGenerator(OpenAIConfig{
		ResponsesURL: server.URL,
		APIKey:       "test-key",
		Model:        "narrative-1",
		HTTPClient:   server.Client(),
	})
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}

	text, err := gen.Generate(context.Background(), GenerateRequest{
		SystemInstructions: "You are the narrator.",
		UserPrompt:         "look around",
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != `{"narrative":"You enter the crypt."}` {
		t.Fatalf("unexpected output %q", text)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotBody["model"] != "narrative-1" {
		t.Fatalf("unexpected model %v", gotBody["model"])
	}
	if gotBody["instructions"] != "You are the narrator." {
		t.Fatalf("unexpected instructions %v", gotBody["instructions"])
	}
}

func TestGenerateFallsBackToStructuredOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"output": []map[string]any{
				{"content": []map[string]any{
					{"type": "reasoning", "text": "ignored"},
					{"type": "output_text", "text": "structured text"},
				}},
			},
		})
	}))
	defer server.Close()

	gen, err := NewOpenAIGenerator(OpenAIConfig{ResponsesURL: server.URL, Model: "m", HTTPClient: server.Client()})
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}

	text, err := gen.Generate(context.Background(), GenerateRequest{UserPrompt: "go"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != "structured text" {
		t.Fatalf("unexpected output %q", text)
	}
}

func TestGenerateErrorClassification(t *testing.T) {
	tests := []struct {
		status    int
		wantCode  platformerrors.Code
		retryable bool
	}{
		{http.StatusUnauthorized, platformerrors.CodeModelConfiguration, false},
		{http.StatusForbidden, platformerrors.CodeModelConfiguration, false},
		{http.StatusBadRequest, platformerrors.CodeModelClient, false},
		{http.StatusTooManyRequests, platformerrors.CodeModelInvalidResponse, true},
		{http.StatusInternalServerError, platformerrors.CodeModelInvalidResponse, true},
		{http.StatusRequestTimeout, platformerrors.CodeModelTimeout, true},
	}
	for _, tt := range tests {
		status := tt.status
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", status)
		}))
		gen, err := NewOpenAIGenerator(OpenAIConfig{ResponsesURL: server.URL, Model: "m", HTTPClient: server.Client()})
		if err != nil {
			t.Fatalf("new generator: %v", err)
		}

		_, err = gen.Generate(context.Background(), GenerateRequest{UserPrompt: "go"})
		if got := platformerrors.CodeOf(err); got != tt.wantCode {
			t.Errorf("status %d: expected %s, got %s", status, tt.wantCode, got)
		}
		if got := IsRetryable(err); got != tt.retryable {
			t.Errorf("status %d: expected retryable=%v", status, tt.retryable)
		}
		server.Close()
	}
}

func TestGenerateEmptyOutputIsInvalidResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"output_text": ""})
	}))
	defer server.Close()

	gen, err := NewOpenAIGenerator(OpenAIConfig{ResponsesURL: server.URL, Model: "m", HTTPClient: server.Client()})
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}

	_, err = gen.Generate(context.Background(), GenerateRequest{UserPrompt: "go"})
	if platformerrors.CodeOf(err) != platformerrors.CodeModelInvalidResponse {
		t.Fatalf("expected CodeModelInvalidResponse, got %v", err)
	}
}
