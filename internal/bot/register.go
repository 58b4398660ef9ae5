package bot

import (
	tg "github.com/groupmarket/groupbot/core/telegram"
	"github.com/groupmarket/groupbot/core/telegram/commands"
	"github.com/groupmarket/groupbot/core/telegram/state"
	"github.com/groupmarket/groupbot/internal/token"
)

// Register binds commands, callback verbs, conversation handlers and
// fallbacks to the registry.
func Register(reg *tg.Registry, h *Handlers) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     h.Start,
		Description: "Open the marketplace menu",
	})
	reg.RegisterCommand("/pending", commands.Command{
		Handler:     h.Pending,
		Description: "Count listings awaiting verification",
		AdminOnly:   true,
		Hidden:      true,
	})

	_ = reg.RegisterCallback(token.PriceInfo, h.PriceInfo)
	_ = reg.RegisterCallback(token.ViewProfile, h.ViewProfile)
	_ = reg.RegisterCallback(token.WithdrawFunds, h.WithdrawFunds)
	_ = reg.RegisterCallback(token.SupportContact, h.SupportContact)
	_ = reg.RegisterCallback(token.StartVerification, h.StartVerification)
	_ = reg.RegisterCallback(token.BackToMenu, h.BackToMenu)
	_ = reg.RegisterCallback(token.VerbTransferDone, h.TransferDone)
	_ = reg.RegisterCallback(token.VerbAdminApprove, h.AdminApprove)
	_ = reg.RegisterCallback(token.VerbAdminReject, h.AdminReject)

	reg.SetTextFallback(h.UnknownText)
	reg.SetCallbackNotFound(h.UnknownCallback)

	state.RegisterHandler(PhaseAwaitingLink, h.SubmitLink)
	state.RegisterHandler(PhaseVerifying, h.VerifyingNotice)
	state.RegisterHandler(PhaseAwaitingTransfer, h.TransferReminder)
}
