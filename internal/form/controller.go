// Package form drives an image + question form: it previews the selected
// image and submits the pair to a DocVQA backend, showing the answer or the
// error in the view it was built with.
package form

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/lehigh-university-libraries/docvqa/internal/docvqa"
)

const (
	SubmitLabel = "Get Answer"
	BusyLabel   = "Processing..."

	ValidationMessage     = "Please upload an image and ask a question."
	PreviewFailureMessage = "Could not read the selected image."

	errorPrefix = "Error: "
)

// ErrSubmissionInFlight is returned when Submit is called while the submit
// control is disabled.
var ErrSubmissionInFlight = errors.New("a submission is already in flight")

// Asker answers a question about an image. *docvqa.Client implements it.
type Asker interface {
	Ask(ctx context.Context, img *docvqa.Image, question string) (string, error)
}

// State is the controller's position in a submission.
type State int

const (
	Idle State = iota
	Validating
	Submitting
	ShowingAnswer
	ShowingError
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Submitting:
		return "submitting"
	case ShowingAnswer:
		return "showing_answer"
	case ShowingError:
		return "showing_error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Result is the outcome of one Submit call.
type Result struct {
	Answer string
	Err    error
}

// Text is what the result region shows for r.
func (r Result) Text() string {
	if r.Err != nil {
		return errorPrefix + r.Err.Error()
	}
	return r.Answer
}

// Controller is the form controller. All view updates go through mu.
type Controller struct {
	view  View
	asker Asker

	mu        sync.Mutex
	state     State
	selected  File
	selection uint64
	last      *Result
}

// New returns a controller bound to view that submits through asker. The
// submit control is put into its idle state.
func New(view View, asker Asker) *Controller {
	c := &Controller{view: view, asker: asker}
	view.SetLoading(false)
	view.SetSubmit(true, SubmitLabel)
	return c
}

// State reports the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Selected returns the most recently selected file, or nil.
func (c *Controller) Selected() File {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// LastResult returns the result currently on display, if any.
func (c *Controller) LastResult() (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return Result{}, false
	}
	return *c.last, true
}

// SelectFile makes f the selected file and previews it. It blocks until the
// preview read finishes.
//
// When another selection happens before this read completes, the read's
// outcome is dropped so the preview always reflects the latest selection.
// A failed read drops the selection, shows a preview warning and is
// returned.
func (c *Controller) SelectFile(ctx context.Context, f File) error {
	c.mu.Lock()
	c.selection++
	generation := c.selection
	c.selected = f
	c.mu.Unlock()

	if f == nil {
		return nil
	}

	dataURL, err := ReadDataURL(ctx, f)

	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.selection {
		slog.DebugContext(ctx, "Dropping stale preview", "file", fileName(f))
		return nil
	}
	if err != nil {
		slog.WarnContext(ctx, "Failed to read image for preview", "file", fileName(f), "err", err)
		c.selected = nil
		c.view.ShowPreviewWarning(PreviewFailureMessage)
		return err
	}
	c.view.ShowPreview(dataURL)
	return nil
}

// SubmitSelected submits the currently selected file with question.
func (c *Controller) SubmitSelected(ctx context.Context, question string) Result {
	return c.Submit(ctx, c.Selected(), question)
}

// Submit sends f and question to the backend and shows the outcome.
//
// A nil file or empty question raises the validation alert and returns
// docvqa.ErrValidation without touching the result region. Otherwise
// exactly one of answer or error text is shown, and the loading indicator
// and submit control are restored on every path.
func (c *Controller) Submit(ctx context.Context, f File, question string) Result {
	c.mu.Lock()
	if c.state == Submitting {
		c.mu.Unlock()
		return Result{Err: ErrSubmissionInFlight}
	}

	c.state = Validating
	if f == nil || question == "" {
		c.state = Idle
		c.view.Alert(ValidationMessage)
		c.mu.Unlock()
		return Result{Err: docvqa.ErrValidation}
	}

	c.state = Submitting
	c.view.SetLoading(true)
	c.view.HideResult()
	c.view.SetSubmit(false, BusyLabel)
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.view.SetLoading(false)
		c.view.SetSubmit(true, SubmitLabel)
		c.state = Idle
		c.mu.Unlock()
	}()

	answer, err := c.ask(ctx, f, question)
	result := Result{Answer: answer, Err: err}

	c.mu.Lock()
	if err != nil {
		slog.ErrorContext(ctx, "Submission failed", "file", fileName(f), "err", err)
		c.state = ShowingError
	} else {
		slog.InfoContext(ctx, "Answer received", "file", fileName(f), "length", len(answer))
		c.state = ShowingAnswer
	}
	c.view.ShowResult(result.Text())
	c.last = &result
	c.mu.Unlock()

	return result
}

// ask reads the image and queries the backend. Panics from the asker or
// from reading the file become transport errors, so Submit always has a
// result to show.
func (c *Controller) ask(ctx context.Context, f File, question string) (answer string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &docvqa.TransportError{Op: "submit", Err: fmt.Errorf("%v", r)}
		}
	}()

	img, err := ReadImage(ctx, f)
	if err != nil {
		return "", &docvqa.TransportError{Op: "read", Err: err}
	}
	return c.asker.Ask(ctx, img, question)
}
