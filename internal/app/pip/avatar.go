package pip

import (
	"image/color"
	"strings"
	"unicode"

	colorful "github.com/lucasb-eyer/go-colorful"
)

const (
	unknownInitials     = "?"
	fallbackAvatarColor = "#22242A"
)

var defaultAvatarColors = []string{
	"#6A50D3",
	"#FF9B42",
	"#DF486F",
	"#73348C",
	"#B23683",
	"#F96E57",
	"#4380E2",
	"#238561",
	"#00A8B3",
}

// Initials returns up to two upper-cased leading letters of name, or "?".
func Initials(name string) string {
	var b strings.Builder
	n := 0
	for _, word := range strings.Fields(name) {
		if n == 2 {
			break
		}
		r := []rune(word)[0]
		b.WriteString(strings.ToUpper(string(r)))
		n++
	}
	if n == 0 {
		return unknownInitials
	}
	return b.String()
}

// AvatarColor picks a palette entry deterministically from initials. A custom
// palette replaces the default one when not empty.
func AvatarColor(initials string, custom []string) string {
	palette := defaultAvatarColors
	if len(custom) > 0 {
		palette = custom
	}
	var hash int
	for _, r := range initials {
		if unicode.IsPrint(r) {
			hash += int(r)
		}
	}
	return palette[hash%len(palette)]
}

// avatarFill resolves the disc colour, falling back to a neutral tone when the
// palette entry is missing or malformed.
func avatarFill(initials string, custom []string) color.Color {
	if c, err := colorful.Hex(AvatarColor(initials, custom)); err == nil {
		return c
	}
	c, _ := colorful.Hex(fallbackAvatarColor)
	return c
}

// ParseColor parses a #RRGGBB colour.
func ParseColor(s string) (color.Color, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return nil, err
	}
	return c, nil
}
