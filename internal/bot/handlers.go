// Package bot wires the marketplace workflows to Telegram updates: the main
// menu, the link-submission conversation, the seller's transfer claim, and
// the admin approve / reject buttons.
package bot

import (
	"errors"
	"fmt"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/groupmarket/groupbot/core/logger"
	"github.com/groupmarket/groupbot/core/telegram/callbacks"
	"github.com/groupmarket/groupbot/core/telegram/format"
	tghelpers "github.com/groupmarket/groupbot/core/telegram/helpers"
	"github.com/groupmarket/groupbot/core/telegram/state"
	"github.com/groupmarket/groupbot/core/telegram/ui"
	"github.com/groupmarket/groupbot/internal/listing"
	"github.com/groupmarket/groupbot/internal/model"
	"github.com/groupmarket/groupbot/internal/storage"
	"github.com/groupmarket/groupbot/internal/verifier"
)

// Handlers holds the update handlers and their collaborators.
type Handlers struct {
	svc           *listing.Service
	sessions      state.Manager
	supportHandle string
}

var _ ui.FallbackProvider = (*Handlers)(nil)

// NewHandlers builds the handler set.
func NewHandlers(svc *listing.Service, sessions state.Manager, supportHandle string) *Handlers {
	return &Handlers{svc: svc, sessions: sessions, supportHandle: supportHandle}
}

// Start greets the seller, refreshes their profile record and shows the menu.
func (h *Handlers) Start(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	sender := c.Sender()
	h.sessions.Clear(sender.ID)
	if err := h.svc.RegisterUser(ctx, sender.ID, sender.Username, sender.FirstName); err != nil {
		logger.Warn(ctx, "tg", "start.register",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
	}
	greeting := fmt.Sprintf("Hello, %s! 👋\n\nI help you sell your Telegram group.\n\n", mdEscape(sender.FirstName))
	return tghelpers.SendMD(c, greeting+menuText, mainMenu())
}

// BackToMenu redraws the main menu in place.
func (h *Handlers) BackToMenu(c tele.Context) error {
	h.sessions.Clear(c.Sender().ID)
	return tghelpers.EditOrSendMD(c, menuText, mainMenu())
}

// PriceInfo shows the pricing blurb.
func (h *Handlers) PriceInfo(c tele.Context) error {
	return tghelpers.EditOrSendMD(c, priceText, backMenu())
}

// ViewProfile shows the seller's id, handle and submission count.
func (h *Handlers) ViewProfile(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	sender := c.Sender()
	if err := h.svc.RegisterUser(ctx, sender.ID, sender.Username, sender.FirstName); err != nil {
		return err
	}
	user, err := tghelpers.CurrentUser[*model.UserProfile](ctx, h.svc, sender.ID)
	if err != nil {
		return err
	}
	if user == nil {
		user = &model.UserProfile{TelegramID: sender.ID, Username: sender.Username}
	}
	count, err := h.svc.SubmissionCount(ctx, sender.ID)
	if err != nil {
		return err
	}
	handle := "—"
	if user.Username != "" {
		handle = "@" + mdEscape(user.Username)
	}
	text := fmt.Sprintf("*Your profile*\n\nID: `%d`\nUsername: %s\nSubmitted groups: %d",
		user.TelegramID, handle, count)
	return tghelpers.EditOrSendMD(c, text, backMenu())
}

// WithdrawFunds shows the manual-withdrawal instructions.
func (h *Handlers) WithdrawFunds(c tele.Context) error {
	return tghelpers.EditOrSendMD(c, withdrawText, backMenu())
}

// SupportContact shows the support handle.
func (h *Handlers) SupportContact(c tele.Context) error {
	text := fmt.Sprintf("*Support*\n\nQuestions? Message %s and we will help.", h.supportHandle)
	return tghelpers.EditOrSendMD(c, text, backMenu())
}

// StartVerification asks for the group reference and opens the conversation.
func (h *Handlers) StartVerification(c tele.Context) error {
	h.sessions.SetState(c.Sender().ID, PhaseAwaitingLink)
	return tghelpers.EditOrSendMD(c, linkPrompt, backMenu())
}

// SubmitLink consumes the seller's text while the conversation awaits a group
// reference. Unusable text re-prompts and leaves the phase in place; any
// verifier or storage failure aborts the conversation entirely.
func (h *Handlers) SubmitLink(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	sender := c.Sender()
	ref := c.Text()

	if !listing.ValidReference(ref) {
		return tghelpers.SendText(c, "That does not look like a group link.\n\n"+linkPrompt)
	}

	seller := &model.UserProfile{
		TelegramID: sender.ID,
		Username:   sender.Username,
		FirstName:  sender.FirstName,
	}
	if err := h.svc.RegisterUser(ctx, sender.ID, sender.Username, sender.FirstName); err != nil {
		h.sessions.Clear(sender.ID)
		return err
	}

	h.sessions.SetState(sender.ID, PhaseVerifying)
	_ = tghelpers.SendText(c, "Checking the group, one moment…")

	l, err := h.svc.Submit(ctx, seller, ref)
	if err != nil {
		h.sessions.Clear(sender.ID)
		switch {
		case errors.Is(err, storage.ErrDuplicateListing):
			return tghelpers.SendText(c, "You already submitted this group. Use /start to open the menu.")
		case errors.Is(err, verifier.ErrAlreadyMember):
			return tghelpers.SendText(c, "This group is already being processed. Use /start to open the menu.")
		case errors.Is(err, verifier.ErrUnresolvable):
			return tghelpers.SendText(c, "I could not access that group. Check the link and try again from the menu.")
		default:
			_ = tghelpers.SendText(c, "Something went wrong while checking the group. Please try again later.")
			return err
		}
	}

	// The transfer prompt with its button was already delivered by the
	// fan-out; the phase is dropped so stray text falls back to the menu
	// hint instead of being re-parsed as a link.
	h.sessions.SetState(sender.ID, PhaseAwaitingTransfer)
	h.sessions.Clear(sender.ID)

	logger.Debug(ctx, "tg", "submit.done", slog.Int64("group_id", l.GroupID))
	return nil
}

// VerifyingNotice answers text that arrives mid verification.
func (h *Handlers) VerifyingNotice(c tele.Context) error {
	return tghelpers.SendText(c, "Verification is in progress, hold on…")
}

// TransferReminder answers text that arrives while a transfer claim is open.
func (h *Handlers) TransferReminder(c tele.Context) error {
	return tghelpers.SendText(c, "Press the button under the transfer instructions once you have handed the group over.")
}

// TransferDone handles the seller's ownership-claim button.
func (h *Handlers) TransferDone(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	action, ok := callbacks.FromContext(c)
	if !ok {
		return nil
	}
	if err := action.RequireArgs(1); err != nil {
		return err
	}
	groupID := action.Args[0]

	if _, err := h.svc.ClaimTransfer(ctx, c.Sender().ID, groupID); err != nil {
		return err
	}
	h.sessions.Clear(c.Sender().ID)

	// Stale presses get the same acknowledgement; the claim itself is
	// guarded by the conditional update.
	return c.Edit("Thank you! Our admins will verify the transfer and get back to you.")
}

// AdminApprove handles the approve button in the admin channel.
func (h *Handlers) AdminApprove(c tele.Context) error {
	return h.decide(c, true)
}

// AdminReject handles the reject button in the admin channel.
func (h *Handlers) AdminReject(c tele.Context) error {
	return h.decide(c, false)
}

func (h *Handlers) decide(c tele.Context, approve bool) error {
	ctx := tghelpers.BuildContext(c)
	action, ok := callbacks.FromContext(c)
	if !ok {
		return nil
	}
	if err := action.RequireArgs(2); err != nil {
		return err
	}
	targetUser, groupID := action.Args[0], action.Args[1]

	applied, err := h.svc.AdminDecide(ctx, c.Sender().ID, approve, targetUser, groupID)
	if errors.Is(err, listing.ErrUnauthorized) {
		return nil
	}
	if err != nil {
		return err
	}
	if !applied {
		// Already decided by an earlier press; nothing to change.
		return nil
	}

	marker := "STATUS: ❌ REJECTED"
	if approve {
		marker = "STATUS: ✅ APPROVED"
	}
	return c.Edit(c.Text() + "\n\n" + marker)
}

// Pending reports how many listings still await verification.
func (h *Handlers) Pending(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	n, err := h.svc.PendingCount(ctx)
	if err != nil {
		return err
	}
	return tghelpers.SendText(c, fmt.Sprintf("Listings awaiting verification: %d", n))
}

// UnknownText is the fallback for stray text outside any conversation.
func (h *Handlers) UnknownText(c tele.Context) error {
	return tghelpers.SendText(c, "I only respond to the menu buttons. Use /start to open the menu.")
}

// UnknownDocument is the fallback for attachments, which no workflow accepts.
func (h *Handlers) UnknownDocument(c tele.Context) error {
	return tghelpers.SendText(c, "I cannot process files. Use /start to open the menu.")
}

// UnknownCallback is the fallback for unparseable or unknown action tokens.
// The callback may already be acknowledged by the route, so the response
// error is ignored.
func (h *Handlers) UnknownCallback(c tele.Context) error {
	_ = c.Respond(&tele.CallbackResponse{Text: "Unsupported action"})
	return nil
}

func mdEscape(s string) string {
	out, err := format.EscapeMarkdown(s, format.MarkdownV1, "")
	if err != nil {
		return s
	}
	return out
}
