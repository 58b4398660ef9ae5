// Package token defines the action-token vocabulary shared by the keyboards
// that produce callback buttons and the dispatcher that consumes them.
package token

import "github.com/groupmarket/groupbot/core/telegram/callbacks"

// Fixed menu tokens.
const (
	PriceInfo         = "price_info"
	ViewProfile       = "view_profile"
	WithdrawFunds     = "withdraw_funds"
	SupportContact    = "support_contact"
	StartVerification = "start_verification"
	BackToMenu        = "back_to_menu"
)

// Parameterized verbs.
const (
	VerbAdminApprove = "admin_approve"
	VerbAdminReject  = "admin_reject"
	VerbTransferDone = "transfer_done"
)

// AdminApprove encodes an approval token for (userID, groupID).
func AdminApprove(userID, groupID int64) string {
	return callbacks.Encode(VerbAdminApprove, userID, groupID)
}

// AdminReject encodes a rejection token for (userID, groupID).
func AdminReject(userID, groupID int64) string {
	return callbacks.Encode(VerbAdminReject, userID, groupID)
}

// TransferDone encodes the seller's ownership-transfer claim for groupID.
func TransferDone(groupID int64) string {
	return callbacks.Encode(VerbTransferDone, groupID)
}
