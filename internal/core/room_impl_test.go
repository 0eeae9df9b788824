package core

import (
	"errors"
	"testing"
	"time"

	"github.com/dkeye/pipcast/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSignal struct {
	err  error
	sent int
}

func (s *stubSignal) TrySend(Frame) error {
	if s.err != nil {
		return s.err
	}
	s.sent++
	return nil
}

func (s *stubSignal) Close() {}

func member(id domain.UserID, joined time.Time, sc SignalConnection) MemberSession {
	m := domain.NewMember(&domain.User{ID: id, Username: string(id)})
	m.JoinedAt = joined
	ms := NewMemberSession(m)
	if sc != nil {
		ms.UpdateSignal(sc)
	}
	return ms
}

func TestBroadcastCountsDrops(t *testing.T) {
	r := NewRoomService(domain.NewRoom("main"))
	now := time.Now()
	ok, full := &stubSignal{}, &stubSignal{err: errors.New("full")}
	r.AddMember("a", member("a", now, &stubSignal{}))
	r.AddMember("b", member("b", now, ok))
	r.AddMember("c", member("c", now, full))
	r.AddMember("d", member("d", now, nil))

	res := r.Broadcast("a", Frame(`{}`))

	assert.Equal(t, 1, res.SendTo)
	require.Len(t, res.Dropped, 1)
	assert.Equal(t, domain.UserID("c"), res.Dropped[0].Meta().User.ID)
	assert.Equal(t, 1, ok.sent)
}

func TestMembersSnapshotJoinOrder(t *testing.T) {
	r := NewRoomService(domain.NewRoom("main"))
	t0 := time.Unix(100, 0)
	r.AddMember("late", member("late", t0.Add(time.Minute), nil))
	r.AddMember("early", member("early", t0, nil))
	muted := member("mid", t0.Add(time.Second), nil)
	muted.Meta().SetMuted(true)
	r.AddMember("mid", muted)

	snap := r.MembersSnapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, []domain.UserID{"early", "mid", "late"}, []domain.UserID{snap[0].ID, snap[1].ID, snap[2].ID})
	assert.True(t, snap[1].Muted)

	r.RemoveMember("mid")
	assert.Equal(t, 2, r.MemberCount())
}

func TestEncodeFrame(t *testing.T) {
	f, err := EncodeFrame(map[string]string{"type": "pong"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"pong"}`, string(f))

	_, err = EncodeFrame(make(chan int))
	assert.Error(t, err)
}
