package tags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeHexColor(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"#0d6efd", "#0d6efd"},
		{"#0D6EFD", "#0d6efd"},
		{"0d6efd", "#0d6efd"},
		{"#abc", "#aabbcc"},
		{"ABC", "#aabbcc"},
		{"  #ffc107  ", "#ffc107"},
		{"", FallbackColor},
		{"   ", FallbackColor},
		{"red", FallbackColor},
		{"#12345", FallbackColor},
		{"#1234567", FallbackColor},
		{"#ggg", FallbackColor},
		{"##abc", FallbackColor},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := SanitizeHexColor(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, SanitizeHexColor(got), "sanitize must be idempotent")
		})
	}
}

func TestLuminance(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"#000000", 0, true},
		{"#ffffff", 1, true},
		{"#fff", 1, true},
		{"#ff0000", 0.299, true},
		{"#00ff00", 0.587, true},
		{"#0000ff", 0.114, true},
		{"nope", 0, false},
		{"#12", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := Luminance(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestReadableTextColor(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"white background", "#ffffff", DarkText},
		{"yellow background", "#ffc107", DarkText},
		{"black background", "#000000", LightText},
		{"blue background", "#0d6efd", LightText},
		{"red background", "#dc3545", LightText},
		{"fallback grey", FallbackColor, LightText},
		{"unparseable", "zzz", LightText},
		{"just above threshold", "#9a9a9a", DarkText},
		{"just below threshold", "#989898", LightText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReadableTextColor(tt.in))
		})
	}
}
