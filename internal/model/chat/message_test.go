package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewMessageAssignsUniqueIDs(t *testing.T) {
	a := NewMessage(RoleUser, "hello")
	b := NewMessage(RoleUser, "hello")

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.Timestamp.IsZero())
	assert.False(t, a.IsError)
}

func TestNewErrorMessage(t *testing.T) {
	msg := NewErrorMessage("could not reach Lumi")
	assert.Equal(t, RoleSystem, msg.Role)
	assert.True(t, msg.IsError)
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleModel.Valid())
	assert.False(t, Role("assistant").Valid())
	assert.False(t, Role("").Valid())
}
