package tags

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	// FallbackColor replaces any color that is not a valid hex triplet.
	FallbackColor = "#6c757d"

	// DarkText and LightText are the two label colors for tag backgrounds.
	DarkText  = "#212529"
	LightText = "#fff"

	// luminanceThreshold above which a background gets dark text
	luminanceThreshold = 0.6
)

var (
	shortHex = regexp.MustCompile(`^#[0-9a-fA-F]{3}$`)
	longHex  = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
)

// SanitizeHexColor normalizes a color to lowercase "#rrggbb". A missing
// "#" is added and the 3-digit form is expanded; anything else yields
// FallbackColor. SanitizeHexColor(SanitizeHexColor(x)) == SanitizeHexColor(x).
func SanitizeHexColor(color string) string {
	value := strings.TrimSpace(color)
	if value == "" {
		return FallbackColor
	}
	if !strings.HasPrefix(value, "#") {
		value = "#" + value
	}
	if shortHex.MatchString(value) {
		value = string([]byte{'#', value[1], value[1], value[2], value[2], value[3], value[3]})
	}
	if !longHex.MatchString(value) {
		return FallbackColor
	}
	return strings.ToLower(value)
}

// Luminance is the broadcast luma of a hex color normalized to [0,1].
// ok is false when the color cannot be parsed.
func Luminance(hex string) (lum float64, ok bool) {
	value := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(value) == 3 {
		value = string([]byte{value[0], value[0], value[1], value[1], value[2], value[2]})
	}
	if len(value) != 6 {
		return 0, false
	}
	rgb, err := strconv.ParseUint(value, 16, 32)
	if err != nil {
		return 0, false
	}
	r := float64(rgb >> 16 & 0xff)
	g := float64(rgb >> 8 & 0xff)
	b := float64(rgb & 0xff)
	return (0.299*r + 0.587*g + 0.114*b) / 255, true
}

// ReadableTextColor picks dark text for light backgrounds and light text
// otherwise. Unparseable colors get light text.
func ReadableTextColor(hex string) string {
	lum, ok := Luminance(hex)
	if !ok {
		return LightText
	}
	if lum > luminanceThreshold {
		return DarkText
	}
	return LightText
}
