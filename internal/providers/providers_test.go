package providers

import "testing"

func TestImageFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"image/png", "png"},
		{"IMAGE/JPEG", "jpeg"},
		{"", "jpeg"},
		{"application/octet-stream", "jpeg"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ImageFormat(tt.input); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}
