package core

import "github.com/dkeye/pipcast/internal/domain"

// SessionID is the client token of a browser tab. Each session owns exactly
// one user whose id equals the session id.
type SessionID string

func (s SessionID) UserID() domain.UserID { return domain.UserID(s) }

// MemberSession binds domain.Member and its transport endpoints.
type MemberSession interface {
	Meta() *domain.Member
	Signal() SignalConnection
	Media() MediaConnection
	UpdateSignal(SignalConnection) MemberSession
	UpdateMedia(MediaConnection) MemberSession
}
