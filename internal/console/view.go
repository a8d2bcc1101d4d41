// Package console renders the form view on a terminal.
package console

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// View writes form updates as lines of text. Results go to Out, alerts and
// warnings to Err.
type View struct {
	Out io.Writer
	Err io.Writer

	mu       sync.Mutex
	loading  bool
	enabled  bool
	label    string
	preview  string
	result   string
	hasReply bool
}

// New returns a View writing to out and errOut.
func New(out, errOut io.Writer) *View {
	return &View{Out: out, Err: errOut}
}

func (v *View) ShowPreview(dataURL string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.preview = dataURL
	mimeType, _, _ := strings.Cut(strings.TrimPrefix(dataURL, "data:"), ";")
	fmt.Fprintf(v.Out, "Preview ready (%s, %d bytes encoded)\n", mimeType, len(dataURL))
}

func (v *View) ShowPreviewWarning(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.preview = ""
	fmt.Fprintf(v.Err, "Warning: %s\n", message)
}

func (v *View) SetLoading(visible bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if visible && !v.loading {
		fmt.Fprintln(v.Err, "Processing...")
	}
	v.loading = visible
}

func (v *View) HideResult() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.hasReply = false
	v.result = ""
}

func (v *View) ShowResult(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.result = text
	v.hasReply = true
	fmt.Fprintln(v.Out, text)
}

func (v *View) SetSubmit(enabled bool, label string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.enabled = enabled
	v.label = label
}

func (v *View) Alert(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintln(v.Err, message)
}

// Result returns the text in the result region and whether it is visible.
func (v *View) Result() (string, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.result, v.hasReply
}

// HasPreview reports whether an image preview is showing.
func (v *View) HasPreview() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.preview != ""
}

// Loading reports whether the loading indicator is visible.
func (v *View) Loading() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loading
}

// Submit reports the submit control's state.
func (v *View) Submit() (bool, string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.enabled, v.label
}
