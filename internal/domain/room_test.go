package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRoomName(t *testing.T) {
	name, ok := ParseRoomName("  main  ")
	assert.True(t, ok)
	assert.Equal(t, RoomName("main"), name)

	_, ok = ParseRoomName(" \t ")
	assert.False(t, ok)

	long := strings.Repeat("я", MaxRoomNameLen+5)
	name, ok = ParseRoomName(long)
	assert.True(t, ok)
	assert.Equal(t, MaxRoomNameLen, len([]rune(string(name))))
}

func TestMemberFlags(t *testing.T) {
	m := NewMember(&User{ID: "u"})
	assert.False(t, m.Muted())
	assert.False(t, m.Hidden())
	assert.False(t, m.JoinedAt.IsZero())

	m.SetMuted(true)
	m.SetHidden(true)
	assert.True(t, m.Muted())
	assert.True(t, m.Hidden())
}
