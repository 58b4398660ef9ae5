package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v4"
)

type fakeMembership struct {
	role tele.MemberStatus
	err  error

	chat tele.Recipient
	user tele.Recipient
}

func (f *fakeMembership) ChatMemberOf(chat, user tele.Recipient) (*tele.ChatMember, error) {
	f.chat, f.user = chat, user
	if f.err != nil {
		return nil, f.err
	}
	return &tele.ChatMember{Role: f.role}, nil
}

func TestChannelGateAllowsMembers(t *testing.T) {
	for _, role := range []tele.MemberStatus{tele.Creator, tele.Administrator, tele.Member} {
		api := &fakeMembership{role: role}
		gate := NewChannelGate(api, -100123)
		assert.True(t, gate.IsAdmin(context.Background(), 42), string(role))
	}
}

func TestChannelGateDeniesOutsiders(t *testing.T) {
	for _, role := range []tele.MemberStatus{tele.Left, tele.Kicked, tele.Restricted} {
		api := &fakeMembership{role: role}
		gate := NewChannelGate(api, -100123)
		assert.False(t, gate.IsAdmin(context.Background(), 42), string(role))
	}
}

func TestChannelGateDeniesOnLookupFailure(t *testing.T) {
	api := &fakeMembership{err: errors.New("chat not found")}
	gate := NewChannelGate(api, -100123)
	assert.False(t, gate.IsAdmin(context.Background(), 42))
}

func TestChannelGateQueriesConfiguredChannel(t *testing.T) {
	api := &fakeMembership{role: tele.Member}
	gate := NewChannelGate(api, -100123)
	gate.IsAdmin(context.Background(), 42)

	chat, ok := api.chat.(*tele.Chat)
	assert.True(t, ok)
	assert.EqualValues(t, -100123, chat.ID)
	user, ok := api.user.(*tele.User)
	assert.True(t, ok)
	assert.EqualValues(t, 42, user.ID)
}
