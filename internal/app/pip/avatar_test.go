package pip

import (
	"testing"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitials(t *testing.T) {
	cases := map[string]string{
		"ada lovelace":               "AL",
		"  Grace   Brewster Hopper ": "GB",
		"prince":                     "P",
		"élodie durand":              "ÉD",
		"":                           "?",
		"   ":                        "?",
	}
	for name, want := range cases {
		assert.Equal(t, want, Initials(name), "name %q", name)
	}
}

func TestAvatarColorDeterministic(t *testing.T) {
	a := AvatarColor("AL", nil)
	assert.Equal(t, a, AvatarColor("AL", nil))
	assert.Contains(t, defaultAvatarColors, a)

	custom := []string{"#000001", "#000002"}
	// 'A'+'B' = 131, odd
	assert.Equal(t, "#000002", AvatarColor("AB", custom))
	assert.Equal(t, "#000001", AvatarColor("", custom))
}

func TestAvatarFillFallsBack(t *testing.T) {
	want, err := colorful.Hex(fallbackAvatarColor)
	require.NoError(t, err)

	got := avatarFill("AB", []string{"not-a-colour"})
	assert.Equal(t, want, got)

	r, g, b, a := avatarFill("AB", []string{"#112233"}).RGBA()
	assert.Equal(t, []uint32{0x1111, 0x2222, 0x3333, 0xffff}, []uint32{r, g, b, a})
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#0E0E10")
	require.NoError(t, err)
	r, g, b, _ := c.RGBA()
	assert.Equal(t, uint32(0x0E0E), r)
	assert.Equal(t, uint32(0x0E0E), g)
	assert.Equal(t, uint32(0x1010), b)

	_, err = ParseColor("nope")
	assert.Error(t, err)
}
