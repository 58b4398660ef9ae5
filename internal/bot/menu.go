package bot

import (
	tele "gopkg.in/telebot.v4"

	"github.com/groupmarket/groupbot/core/telegram/keyboard"
	"github.com/groupmarket/groupbot/internal/token"
)

const menuText = "*Group Marketplace*\n\nWhat would you like to do?"

const priceText = "*Pricing*\n\n" +
	"Group value depends on age, size and activity. Old groups " +
	"(pre-2017 style ids) are priced higher. An admin quotes the final " +
	"price after manual review."

const withdrawText = "*Withdrawals*\n\n" +
	"Payouts are processed manually. Once your sale is complete, message " +
	"support and an admin will arrange the transfer."

const linkPrompt = "Send me the group link.\n\n" +
	"Accepted formats: https://t.me/yourgroup or @yourgroup\n" +
	"Private invite links (t.me/+...) cannot be checked."

func mainMenu() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			{Text: "💰 Price info", Token: token.PriceInfo},
			{Text: "👤 My profile", Token: token.ViewProfile},
		},
		[]keyboard.InlineBtn{
			{Text: "💸 Withdraw", Token: token.WithdrawFunds},
			{Text: "🆘 Support", Token: token.SupportContact},
		},
		[]keyboard.InlineBtn{
			{Text: "✅ Sell a group", Token: token.StartVerification},
		},
	)
}

func backMenu() *tele.ReplyMarkup {
	return keyboard.Single("⬅️ Back", token.BackToMenu)
}
