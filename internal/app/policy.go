package app

import (
	"sync"

	"github.com/dkeye/pipcast/internal/core"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	MarkSlow
	KickMember
	DropFrame
)

// Policy decides what happens to a member whose signal queue is full.
type Policy interface {
	OnBackPressure(room core.RoomService, member core.MemberSession) BackpressureAction
	// Forget drops whatever the policy remembers about member.
	Forget(member core.MemberSession)
}

// StrikePolicy tolerates Limit dropped broadcasts per member, then kicks.
type StrikePolicy struct {
	Limit int

	mu      sync.Mutex
	strikes map[core.MemberSession]int
}

func NewStrikePolicy(limit int) *StrikePolicy {
	if limit < 1 {
		limit = 1
	}
	return &StrikePolicy{Limit: limit, strikes: make(map[core.MemberSession]int)}
}

func (p *StrikePolicy) OnBackPressure(_ core.RoomService, member core.MemberSession) BackpressureAction {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.strikes[member]++
	if p.strikes[member] >= p.Limit {
		delete(p.strikes, member)
		return KickMember
	}
	return MarkSlow
}

func (p *StrikePolicy) Forget(member core.MemberSession) {
	p.mu.Lock()
	delete(p.strikes, member)
	p.mu.Unlock()
}

func (p *StrikePolicy) Strikes(member core.MemberSession) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.strikes[member]
}
