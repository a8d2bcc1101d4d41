// Package docvqa is the client side of the document question answering
// protocol: a multipart POST carrying an image and a question, answered with
// a small JSON document.
package docvqa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strings"
)

// DefaultEndpoint is used when neither DOCVQA_API_URL nor an explicit
// endpoint is configured.
const DefaultEndpoint = "http://127.0.0.1:8000/api/process"

// MaxResponseSize caps how much of a reply is read. Answers are short.
const MaxResponseSize = 4 * 1024 * 1024

const (
	// FieldFile and FieldQuestion are the multipart part names.
	FieldFile     = "file"
	FieldQuestion = "question"
)

// Client submits questions about an image to a DocVQA endpoint.
type Client struct {
	Endpoint   string
	HTTPClient *http.Client
}

// NewClient returns a client for endpoint. An empty endpoint falls back to
// DOCVQA_API_URL and then to DefaultEndpoint.
func NewClient(endpoint string) *Client {
	return &Client{
		Endpoint: ResolveEndpoint(endpoint),
		// No client-side timeout: a request runs until the network layer or
		// the caller's context ends it.
		HTTPClient: &http.Client{},
	}
}

// ResolveEndpoint applies the endpoint precedence: explicit value, then the
// DOCVQA_API_URL environment variable, then DefaultEndpoint.
func ResolveEndpoint(endpoint string) string {
	if endpoint != "" {
		return endpoint
	}
	if env := os.Getenv("DOCVQA_API_URL"); env != "" {
		return env
	}
	return DefaultEndpoint
}

// Ask sends the image and question and returns the answer text.
//
// A nil image or empty question fails with ErrValidation before any request
// is made. Non-2xx responses come back as *ServerError, everything else that
// goes wrong as *TransportError.
func (c *Client) Ask(ctx context.Context, img *Image, question string) (string, error) {
	if img == nil || question == "" {
		return "", ErrValidation
	}

	body, contentType, err := encodeForm(img, question)
	if err != nil {
		return "", &TransportError{Op: "encode", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, body)
	if err != nil {
		return "", &TransportError{Op: "request", Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	slog.DebugContext(ctx, "Submitting question", "endpoint", c.Endpoint, "image", img.Name, "bytes", len(img.Data))

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", &TransportError{Op: "send", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return "", &TransportError{Op: "read", Err: err}
	}
	tooLarge := len(data) > MaxResponseSize

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if tooLarge {
			return "", &ServerError{StatusCode: resp.StatusCode}
		}
		return "", &ServerError{StatusCode: resp.StatusCode, Detail: parseDetail(data)}
	}
	if tooLarge {
		return "", &TransportError{Op: "read", Err: fmt.Errorf("%w: response exceeds %d bytes", ErrMalformedResponse, MaxResponseSize)}
	}

	return parseAnswer(data)
}

func encodeForm(img *Image, question string) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	name := img.Name
	if name == "" {
		name = "image"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, FieldFile, escapeQuotes(name)))
	h.Set("Content-Type", img.MimeType())

	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := part.Write(img.Data); err != nil {
		return nil, "", fmt.Errorf("failed to write file part: %w", err)
	}
	if err := mw.WriteField(FieldQuestion, question); err != nil {
		return nil, "", fmt.Errorf("failed to write question part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return body, mw.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

func parseAnswer(data []byte) (string, error) {
	var response struct {
		Answer *string `json:"answer"`
	}
	if err := json.Unmarshal(data, &response); err != nil {
		return "", &TransportError{Op: "decode", Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	if response.Answer == nil {
		return "", &TransportError{Op: "decode", Err: fmt.Errorf(`%w: missing "answer" field`, ErrMalformedResponse)}
	}
	return *response.Answer, nil
}

// parseDetail extracts the error description from a failed response. A string
// detail is used as is; a list of validation errors is flattened to their
// messages. Anything else yields "".
func parseDetail(data []byte) string {
	var response struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &response); err != nil || len(response.Detail) == 0 {
		return ""
	}

	var detail string
	if err := json.Unmarshal(response.Detail, &detail); err == nil {
		return detail
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(response.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			if item.Msg != "" {
				msgs = append(msgs, item.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}

	return ""
}
