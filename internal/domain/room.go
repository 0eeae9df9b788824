package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MaxRoomNameLen is counted in runes.
const MaxRoomNameLen = 36

type RoomName string

// ParseRoomName trims raw and cuts it to MaxRoomNameLen runes. Blank names
// are rejected.
func ParseRoomName(raw string) (RoomName, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if utf8.RuneCountInString(raw) > MaxRoomNameLen {
		raw = string([]rune(raw)[:MaxRoomNameLen])
	}
	return RoomName(raw), true
}

type Room struct {
	Name      RoomName
	CreatedAt time.Time
}

func NewRoom(name RoomName) *Room {
	return &Room{Name: name, CreatedAt: time.Now()}
}
