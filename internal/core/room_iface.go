package core

import (
	"time"

	"github.com/dkeye/pipcast/internal/domain"
)

// PublishResult reports delivery and backpressure to the orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []MemberSession
}

// MemberDTO is the roster entry sent to clients.
type MemberDTO struct {
	ID       domain.UserID `json:"id"`
	Username string        `json:"username"`
	Muted    bool          `json:"muted"`
	Hidden   bool          `json:"hidden"`
	JoinedAt time.Time     `json:"joined_at"`
}

// RoomService owns the membership set of one room but never touches
// transport resources.
type RoomService interface {
	Room() *domain.Room
	MemberCount() int
	// MembersSnapshot lists members in join order.
	MembersSnapshot() []MemberDTO

	AddMember(sid SessionID, ms MemberSession)
	RemoveMember(sid SessionID)
	Broadcast(from SessionID, data Frame) PublishResult
}

type RoomInfo struct {
	Name        domain.RoomName `json:"name"`
	MemberCount int             `json:"member_count"`
	CreatedAt   time.Time       `json:"created_at"`
}

type RoomManager interface {
	GetOrCreate(name domain.RoomName) RoomService
	// List returns the rooms sorted by name.
	List() []RoomInfo
	// ReapIfEmpty forgets the room when nobody is left in it.
	ReapIfEmpty(name domain.RoomName) bool
	StopRoom(name domain.RoomName)
}
