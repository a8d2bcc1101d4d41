package console

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/docvqa/internal/docvqa"
	"github.com/lehigh-university-libraries/docvqa/internal/form"
)

type askFunc func(ctx context.Context, img *docvqa.Image, question string) (string, error)

func (f askFunc) Ask(ctx context.Context, img *docvqa.Image, question string) (string, error) {
	return f(ctx, img, question)
}

func TestViewWithController(t *testing.T) {
	var out, errOut bytes.Buffer
	view := New(&out, &errOut)
	ctrl := form.New(view, askFunc(func(ctx context.Context, img *docvqa.Image, question string) (string, error) {
		return "Invoice 1138", nil
	}))

	if enabled, label := view.Submit(); !enabled || label != form.SubmitLabel {
		t.Errorf("Expected enabled %q, got %v %q", form.SubmitLabel, enabled, label)
	}

	if err := ctrl.SelectFile(context.Background(), form.BytesFile("scan.png", []byte("\x89PNG\r\n\x1a\nrest"))); err != nil {
		t.Fatalf("SelectFile failed: %v", err)
	}
	if !view.HasPreview() {
		t.Error("Expected preview to be showing")
	}
	if !strings.Contains(out.String(), "Preview ready (image/png") {
		t.Errorf("Unexpected preview output %q", out.String())
	}

	res := ctrl.SubmitSelected(context.Background(), "What is the invoice number?")
	if res.Err != nil {
		t.Fatalf("Unexpected error: %v", res.Err)
	}
	if text, visible := view.Result(); !visible || text != "Invoice 1138" {
		t.Errorf("Expected visible answer, got %q %v", text, visible)
	}
	if view.Loading() {
		t.Error("Expected loading indicator hidden")
	}
	if !strings.HasSuffix(out.String(), "Invoice 1138\n") {
		t.Errorf("Expected answer on stdout, got %q", out.String())
	}
	if !strings.Contains(errOut.String(), "Processing...") {
		t.Errorf("Expected loading notice on stderr, got %q", errOut.String())
	}
}

func TestViewErrorAndAlert(t *testing.T) {
	var out, errOut bytes.Buffer
	view := New(&out, &errOut)
	ctrl := form.New(view, askFunc(func(ctx context.Context, img *docvqa.Image, question string) (string, error) {
		return "", &docvqa.ServerError{StatusCode: 400, Detail: "Invalid image file provided."}
	}))

	ctrl.SubmitSelected(context.Background(), "q")
	if !strings.Contains(errOut.String(), form.ValidationMessage) {
		t.Errorf("Expected validation alert on stderr, got %q", errOut.String())
	}
	if _, visible := view.Result(); visible {
		t.Error("Validation should not reveal the result region")
	}

	res := ctrl.Submit(context.Background(), form.BytesFile("a.png", []byte("x")), "q")
	var serverErr *docvqa.ServerError
	if !errors.As(res.Err, &serverErr) {
		t.Fatalf("Expected server error, got %v", res.Err)
	}
	if text, _ := view.Result(); text != "Error: Invalid image file provided." {
		t.Errorf("Unexpected result text %q", text)
	}
}

func TestShowPreviewWarning(t *testing.T) {
	var out, errOut bytes.Buffer
	view := New(&out, &errOut)

	view.ShowPreview("data:image/png;base64,YWJj")
	view.ShowPreviewWarning(form.PreviewFailureMessage)

	if view.HasPreview() {
		t.Error("Expected preview to be cleared")
	}
	if errOut.String() != "Warning: "+form.PreviewFailureMessage+"\n" {
		t.Errorf("Unexpected warning output %q", errOut.String())
	}
}
