package bot

import "github.com/groupmarket/groupbot/core/telegram/state"

// Conversation phases. Best-effort routing hints only; the record store's
// conditional updates are what keeps listings consistent.
const (
	// PhaseAwaitingLink means the seller was asked for a group reference.
	PhaseAwaitingLink state.State = "awaiting_link"
	// PhaseVerifying covers the verifier round trip.
	PhaseVerifying state.State = "verifying"
	// PhaseAwaitingTransfer means the seller was told to hand the group over.
	PhaseAwaitingTransfer state.State = "awaiting_transfer"
)
