package bot

import (
	"context"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/groupmarket/groupbot/core/logger"
)

// MembershipAPI is the membership slice of the bot client.
type MembershipAPI interface {
	ChatMemberOf(chat, user tele.Recipient) (*tele.ChatMember, error)
}

// ChannelGate authorizes admin actions by checking current membership of the
// admin channel on every call. Membership is never cached: someone removed
// from the channel loses admin powers with their next press.
type ChannelGate struct {
	api       MembershipAPI
	channelID int64
}

// NewChannelGate builds a gate over the given admin channel.
func NewChannelGate(api MembershipAPI, channelID int64) *ChannelGate {
	return &ChannelGate{api: api, channelID: channelID}
}

// IsAdmin reports whether userID currently belongs to the admin channel.
// Lookup failures deny.
func (g *ChannelGate) IsAdmin(ctx context.Context, userID int64) bool {
	member, err := g.api.ChatMemberOf(&tele.Chat{ID: g.channelID}, &tele.User{ID: userID})
	if err != nil {
		logger.Warn(ctx, "tg", "gate.member_of",
			slog.String("status", "fail"),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		return false
	}
	switch member.Role {
	case tele.Creator, tele.Administrator, tele.Member:
		return true
	}
	return false
}
