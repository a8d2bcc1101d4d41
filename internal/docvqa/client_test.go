package docvqa

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00}

func TestAskSendsMultipartForm(t *testing.T) {
	var gotQuestion, gotFilename, gotContentType string
	var gotData []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("Missing file part: %v", err)
			return
		}
		defer file.Close()
		gotData, _ = io.ReadAll(file)
		gotFilename = header.Filename
		gotContentType = header.Header.Get("Content-Type")
		gotQuestion = r.FormValue("question")

		if len(r.MultipartForm.File) != 1 || len(r.MultipartForm.Value) != 1 {
			t.Errorf("Expected exactly two parts, got files=%d values=%d", len(r.MultipartForm.File), len(r.MultipartForm.Value))
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"answer": "42"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	answer, err := client.Ask(context.Background(), &Image{Name: "scan.png", Data: pngHeader}, "What is the total?")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}

	if answer != "42" {
		t.Errorf("Expected answer 42, got %q", answer)
	}
	if gotQuestion != "What is the total?" {
		t.Errorf("Expected question to be forwarded, got %q", gotQuestion)
	}
	if gotFilename != "scan.png" {
		t.Errorf("Expected filename scan.png, got %q", gotFilename)
	}
	if gotContentType != "image/png" {
		t.Errorf("Expected image/png part, got %q", gotContentType)
	}
	if string(gotData) != string(pngHeader) {
		t.Errorf("File bytes were not forwarded intact")
	}
}

func TestAskValidation(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer server.Close()

	client := NewClient(server.URL)

	tests := []struct {
		name     string
		image    *Image
		question string
	}{
		{name: "missing image", image: nil, question: "What is the date?"},
		{name: "missing question", image: &Image{Name: "a.png", Data: pngHeader}, question: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Ask(context.Background(), tt.image, tt.question)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("Expected ErrValidation, got %v", err)
			}
		})
	}

	if atomic.LoadInt32(&hits) != 0 {
		t.Errorf("Expected no requests, got %d", hits)
	}
}

func TestAskResponses(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantAnswer    string
		wantServer    bool
		wantMalformed bool
		wantMessage   string
	}{
		{
			name:       "answer",
			status:     http.StatusOK,
			body:       `{"answer": "42"}`,
			wantAnswer: "42",
		},
		{
			name:       "empty answer is still an answer",
			status:     http.StatusOK,
			body:       `{"answer": ""}`,
			wantAnswer: "",
		},
		{
			name:        "detail",
			status:      http.StatusBadRequest,
			body:        `{"detail": "bad image"}`,
			wantServer:  true,
			wantMessage: "bad image",
		},
		{
			name:        "validation detail list",
			status:      http.StatusUnprocessableEntity,
			body:        `{"detail": [{"loc": ["body", "question"], "msg": "Field required"}]}`,
			wantServer:  true,
			wantMessage: "Field required",
		},
		{
			name:        "no detail",
			status:      http.StatusInternalServerError,
			body:        `{}`,
			wantServer:  true,
			wantMessage: FallbackServerMessage,
		},
		{
			name:        "unparseable error body",
			status:      http.StatusInternalServerError,
			body:        `Internal Server Error`,
			wantServer:  true,
			wantMessage: FallbackServerMessage,
		},
		{
			name:          "malformed success body",
			status:        http.StatusOK,
			body:          `<html>`,
			wantMalformed: true,
		},
		{
			name:          "success body without answer",
			status:        http.StatusOK,
			body:          `{"result": "42"}`,
			wantMalformed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			answer, err := NewClient(server.URL).Ask(context.Background(), &Image{Name: "a.png", Data: pngHeader}, "q")

			switch {
			case tt.wantServer:
				var serverErr *ServerError
				if !errors.As(err, &serverErr) {
					t.Fatalf("Expected ServerError, got %v", err)
				}
				if serverErr.StatusCode != tt.status {
					t.Errorf("Expected status %d, got %d", tt.status, serverErr.StatusCode)
				}
				if !strings.Contains(err.Error(), tt.wantMessage) {
					t.Errorf("Expected message containing %q, got %q", tt.wantMessage, err.Error())
				}
			case tt.wantMalformed:
				var transportErr *TransportError
				if !errors.As(err, &transportErr) {
					t.Fatalf("Expected TransportError, got %v", err)
				}
				if !errors.Is(err, ErrMalformedResponse) {
					t.Errorf("Expected ErrMalformedResponse, got %v", err)
				}
			default:
				if err != nil {
					t.Fatalf("Unexpected error: %v", err)
				}
				if answer != tt.wantAnswer {
					t.Errorf("Expected answer %q, got %q", tt.wantAnswer, answer)
				}
			}
		})
	}
}

func TestAskTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClient(url).Ask(context.Background(), &Image{Name: "a.png", Data: pngHeader}, "q")

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("Expected TransportError, got %v", err)
	}
	if transportErr.Op != "send" {
		t.Errorf("Expected send op, got %q", transportErr.Op)
	}
	if errors.Is(err, ErrMalformedResponse) {
		t.Error("Network failure should not be reported as a malformed response")
	}
}

func TestAskOversizedResponse(t *testing.T) {
	huge := `{"answer":"` + strings.Repeat("a", MaxResponseSize) + `"}`
	tests := []struct {
		name   string
		status int
	}{
		{name: "success body", status: http.StatusOK},
		{name: "error body", status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, huge)
			}))
			defer server.Close()

			_, err := NewClient(server.URL).Ask(context.Background(), &Image{Name: "a.png", Data: pngHeader}, "q")

			if tt.status == http.StatusOK {
				if !errors.Is(err, ErrMalformedResponse) {
					t.Errorf("Expected malformed response error, got %v", err)
				}
				return
			}
			var serverErr *ServerError
			if !errors.As(err, &serverErr) || serverErr.Error() != FallbackServerMessage {
				t.Errorf("Expected fallback server error, got %v", err)
			}
		})
	}
}

func TestResolveEndpoint(t *testing.T) {
	t.Setenv("DOCVQA_API_URL", "")
	if got := ResolveEndpoint(""); got != DefaultEndpoint {
		t.Errorf("Expected default endpoint, got %s", got)
	}

	t.Setenv("DOCVQA_API_URL", "http://example.test/api/process")
	if got := ResolveEndpoint(""); got != "http://example.test/api/process" {
		t.Errorf("Expected env endpoint, got %s", got)
	}
	if got := ResolveEndpoint("http://flag.test/x"); got != "http://flag.test/x" {
		t.Errorf("Expected explicit endpoint, got %s", got)
	}
}

func TestImageMimeType(t *testing.T) {
	tests := []struct {
		name     string
		image    Image
		expected string
	}{
		{name: "extension wins", image: Image{Name: "page.JPG", Data: pngHeader}, expected: "image/jpeg"},
		{name: "sniffed when no extension", image: Image{Name: "page", Data: pngHeader}, expected: "image/png"},
		{name: "empty data", image: Image{Name: "page"}, expected: "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.image.MimeType(); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestImageDataURL(t *testing.T) {
	img := Image{Name: "x.png", Data: []byte("abc")}
	if got := img.DataURL(); got != "data:image/png;base64,YWJj" {
		t.Errorf("Unexpected data URL %s", got)
	}
}
