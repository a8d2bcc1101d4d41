package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/docvqa/internal/providers"
)

func TestAnswer(t *testing.T) {
	var auth string
	var body struct {
		Model    string `json:"model"`
		Messages []struct {
			Content []struct {
				Type     string            `json:"type"`
				Text     string            `json:"text"`
				ImageURL map[string]string `json:"image_url"`
			} `json:"content"`
		} `json:"messages"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices": [{"message": {"content": "March 3, 1998"}}]}`))
	}))
	defer server.Close()

	o := &OpenAI{APIKey: "sk-test", BaseURL: server.URL, httpClient: server.Client()}

	answer, err := o.Answer(context.Background(), providers.Request{
		Image:    []byte("abc"),
		MimeType: "image/png",
		Prompt:   "What is the date?",
		Model:    "gpt-4o",
	})
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if answer != "March 3, 1998" {
		t.Errorf("Unexpected answer %q", answer)
	}
	if auth != "Bearer sk-test" {
		t.Errorf("Expected bearer token, got %q", auth)
	}
	if len(body.Messages) != 1 || len(body.Messages[0].Content) != 2 {
		t.Fatalf("Expected one message with text and image parts, got %+v", body.Messages)
	}
	if got := body.Messages[0].Content[1].ImageURL["url"]; got != "data:image/png;base64,YWJj" {
		t.Errorf("Unexpected image URL %q", got)
	}
}

func TestAnswerRequiresKey(t *testing.T) {
	o := &OpenAI{BaseURL: "http://unused", httpClient: http.DefaultClient}
	_, err := o.Answer(context.Background(), providers.Request{})
	if err == nil || !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Errorf("Expected missing key error, got %v", err)
	}
}

func TestAnswerNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	o := &OpenAI{APIKey: "sk-test", BaseURL: server.URL, httpClient: server.Client()}
	if _, err := o.Answer(context.Background(), providers.Request{}); err == nil {
		t.Error("Expected error for empty choices")
	}
}
