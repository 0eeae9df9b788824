package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	u, err := NewUser("Ada Lovelace")
	require.NoError(t, err)
	assert.Len(t, string(u.ID), MaxUserIDLen)
	assert.Equal(t, "Ada Lovelace", u.Username)

	_, err = NewUser("   ")
	assert.ErrorIs(t, err, ErrUsernameEmpty)

	_, err = NewUser(strings.Repeat("x", MaxUsernameLen+1))
	assert.ErrorIs(t, err, ErrUsernameTooLong)
}

func TestSetUsernameKeepsOldOnError(t *testing.T) {
	u := &User{ID: "u1", Username: "guest"}
	assert.ErrorIs(t, u.SetUsername(""), ErrUsernameEmpty)
	assert.Equal(t, "guest", u.Username)

	require.NoError(t, u.SetUsername("Grace"))
	assert.Equal(t, "Grace", ParticipantOf(u).Name)
}
