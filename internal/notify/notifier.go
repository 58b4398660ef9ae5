// Package notify fans out marketplace events to the seller and to the admin
// channel. Every delivery is best-effort: failures are logged and swallowed,
// the calling workflow never aborts because a message did not go through.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/groupmarket/groupbot/core/logger"
	"github.com/groupmarket/groupbot/core/telegram/format"
	"github.com/groupmarket/groupbot/core/telegram/keyboard"
	"github.com/groupmarket/groupbot/internal/model"
	"github.com/groupmarket/groupbot/internal/token"
)

const component = "service.notify"

// API is the slice of the bot client the notifier needs.
type API interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Notifier delivers seller- and admin-facing messages.
type Notifier struct {
	api          API
	adminChannel tele.ChatID
}

// New builds a Notifier sending admin traffic to the given channel id.
func New(api API, adminChannelID int64) *Notifier {
	return &Notifier{api: api, adminChannel: tele.ChatID(adminChannelID)}
}

// GroupLiveness posts the liveness probe into the verified group. The probe
// doubles as visible proof that the bot can write to the chat.
func (n *Notifier) GroupLiveness(ctx context.Context, groupID int64) {
	n.send(ctx, "liveness", tele.ChatID(groupID), "A")
}

// TransferPrompt tells the seller how to hand the group over and gives them
// the button to claim the transfer is done.
func (n *Notifier) TransferPrompt(ctx context.Context, userID, groupID int64) {
	text := "Your group passed the automated check.\n\n" +
		"To finish listing it, transfer ownership to our escrow account:\n" +
		"group settings → Administrators → transfer ownership.\n\n" +
		"Press the button below once the transfer is complete."
	markup := keyboard.Single("I have transferred ownership", token.TransferDone(groupID))
	n.send(ctx, "transfer_prompt", tele.ChatID(userID), text, markup)
}

// VerificationRequest posts the manual-review prompt with approve / reject
// buttons to the admin channel.
func (n *Notifier) VerificationRequest(ctx context.Context, seller *model.UserProfile, l *model.GroupListing) {
	age := "recent"
	if l.IsOldApprox {
		age = "old (approx.)"
	}
	text := fmt.Sprintf(
		"*New group submission*\n"+
			"Seller: %s (id %d)\n"+
			"Group: %s\n"+
			"Link: %s\n"+
			"Group id: `%d`\n"+
			"Age class: %s\n\n"+
			"Please review and decide.",
		sellerHandle(seller), seller.TelegramID,
		escape(l.GroupTitle), escape(l.GroupLink), l.GroupID, age,
	)
	markup := keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		{Text: "Approve", Token: token.AdminApprove(seller.TelegramID, l.GroupID)},
		{Text: "Reject", Token: token.AdminReject(seller.TelegramID, l.GroupID)},
	})
	n.send(ctx, "verification_request", n.adminChannel, text, markup, tele.ModeMarkdown)
}

// TransferClaimed tells the admin channel that the seller claims ownership
// was handed over and manual verification is still required.
func (n *Notifier) TransferClaimed(ctx context.Context, userID, groupID int64) {
	text := fmt.Sprintf(
		"User %d claims ownership of group %d has been transferred.\n"+
			"Manual verification of the transfer is still required.",
		userID, groupID,
	)
	n.send(ctx, "transfer_claimed", n.adminChannel, text)
}

// Disposition tells the seller how their submission was decided.
func (n *Notifier) Disposition(ctx context.Context, userID, groupID int64, approved bool) {
	var text string
	if approved {
		text = fmt.Sprintf(
			"Your group %d was approved. Transfer ownership to our escrow "+
				"account to complete the sale.", groupID)
	} else {
		text = fmt.Sprintf(
			"Your group %d was rejected. Contact support if you believe "+
				"this is a mistake.", groupID)
	}
	n.send(ctx, "disposition", tele.ChatID(userID), text)
}

func (n *Notifier) send(ctx context.Context, event string, to tele.Recipient, what interface{}, opts ...interface{}) {
	if _, err := n.api.Send(to, what, opts...); err != nil {
		logger.Warn(ctx, component, "notify."+event,
			slog.String("status", "fail"),
			slog.String("recipient", to.Recipient()),
			slog.String("err", err.Error()),
		)
		return
	}
	logger.Debug(ctx, component, "notify."+event,
		slog.String("status", "ok"),
		slog.String("recipient", to.Recipient()),
	)
}

func sellerHandle(u *model.UserProfile) string {
	if u.Username != "" {
		return "@" + escape(u.Username)
	}
	return escape(u.FirstName)
}

func escape(s string) string {
	out, err := format.EscapeMarkdown(s, format.MarkdownV1, "")
	if err != nil {
		return s
	}
	return out
}
