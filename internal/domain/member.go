package domain

import (
	"sync/atomic"
	"time"
)

// Member is a user's presence in a room: microphone state and whether the
// user's page is in the background. Flags are safe for concurrent use.
type Member struct {
	User     *User
	JoinedAt time.Time

	muted  atomic.Bool
	hidden atomic.Bool
}

func NewMember(user *User) *Member {
	return &Member{User: user, JoinedAt: time.Now()}
}

func (m *Member) Muted() bool           { return m.muted.Load() }
func (m *Member) SetMuted(muted bool)   { m.muted.Store(muted) }
func (m *Member) Hidden() bool          { return m.hidden.Load() }
func (m *Member) SetHidden(hidden bool) { m.hidden.Store(hidden) }
