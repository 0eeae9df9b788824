package app

import (
	"testing"

	"github.com/dkeye/pipcast/internal/core"
	"github.com/dkeye/pipcast/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestStrikePolicy(t *testing.T) {
	p := NewStrikePolicy(3)
	m := core.NewMemberSession(domain.NewMember(&domain.User{ID: "u"}))

	assert.Equal(t, MarkSlow, p.OnBackPressure(nil, m))
	assert.Equal(t, MarkSlow, p.OnBackPressure(nil, m))
	assert.Equal(t, 2, p.Strikes(m))
	assert.Equal(t, KickMember, p.OnBackPressure(nil, m))
	assert.Equal(t, 0, p.Strikes(m))

	p.OnBackPressure(nil, m)
	p.Forget(m)
	assert.Equal(t, 0, p.Strikes(m))
}

func TestStrikePolicyMinimumLimit(t *testing.T) {
	p := NewStrikePolicy(0)
	m := core.NewMemberSession(domain.NewMember(&domain.User{ID: "u"}))
	assert.Equal(t, KickMember, p.OnBackPressure(nil, m))
}
