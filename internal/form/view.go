package form

// View is the set of UI elements the controller drives. Hosts implement it
// over whatever surface they have: a terminal, a chat, a test double.
//
// The controller serializes its calls, so implementations need no locking of
// their own unless they are also touched from elsewhere.
type View interface {
	// ShowPreview displays the selected image and reveals the preview region.
	ShowPreview(dataURL string)
	// ShowPreviewWarning replaces the preview with a placeholder warning.
	ShowPreviewWarning(message string)
	// SetLoading shows or hides the loading indicator.
	SetLoading(visible bool)
	// HideResult hides the result region.
	HideResult()
	// ShowResult sets the result text and reveals the result region.
	ShowResult(text string)
	// SetSubmit enables or disables the submit control and sets its label.
	SetSubmit(enabled bool, label string)
	// Alert is a blocking notification to the user.
	Alert(message string)
}
