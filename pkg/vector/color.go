package vector

import (
	"regexp"
	"strconv"
	"strings"
)

// NormalizeHex lowercases a #rgb or #rrggbb color and expands the short
// form. Anything else, including named colors, is rejected.
func NormalizeHex(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if !strings.HasPrefix(s, "#") {
		return "", false
	}
	if len(s) == 4 {
		s = "#" + string([]byte{s[1], s[1], s[2], s[2], s[3], s[3]})
	}
	if len(s) != 7 {
		return "", false
	}
	for i := 1; i < 7; i++ {
		if !isHexDigit(s[i]) {
			return "", false
		}
	}
	return s, true
}

var rgbFuncRe = regexp.MustCompile(`(?i)^rgb\(\s*(\d{1,3})\s*,\s*(\d{1,3})\s*,\s*(\d{1,3})\s*\)$`)

// ParseColor accepts #rgb, #rrggbb and rgb(r, g, b). Channel values above
// 255 are clamped.
func ParseColor(s string) (RGB, bool) {
	s = strings.TrimSpace(s)
	if m := rgbFuncRe.FindStringSubmatch(s); m != nil {
		return RGB{R: channel(m[1]), G: channel(m[2]), B: channel(m[3])}, true
	}
	hex, ok := NormalizeHex(s)
	if !ok {
		return RGB{}, false
	}
	v, err := strconv.ParseUint(hex[1:], 16, 32)
	if err != nil {
		return RGB{}, false
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, true
}

// MustColor is ParseColor for trusted constants. Invalid input yields black.
func MustColor(s string) RGB {
	c, _ := ParseColor(s)
	return c
}

func channel(s string) uint8 {
	n, _ := strconv.Atoi(s)
	if n > 255 {
		n = 255
	}
	return uint8(n)
}

func isHexDigit(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f')
}
