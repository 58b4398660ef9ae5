// Package model defines the durable records of the group marketplace:
// seller profiles and group listings moving through the verification and
// approval lifecycle.
package model

import "time"

// ListingStatus is the lifecycle state of a submitted group listing.
type ListingStatus string

const (
	// StatusPendingVerification is the initial state after a successful
	// verifier round trip.
	StatusPendingVerification ListingStatus = "PENDING_VERIFICATION"
	// StatusWaitingOwnershipConfirmation means the seller claims the
	// ownership transfer is done and an admin still has to check it.
	StatusWaitingOwnershipConfirmation ListingStatus = "WAITING_OWNERSHIP_CONFIRMATION"
	// StatusApprovedAwaitingTransfer is the admin approval state. The name
	// follows the historical flow where approval precedes the transfer.
	StatusApprovedAwaitingTransfer ListingStatus = "APPROVED_AWAITING_TRANSFER"
	// StatusRejected is terminal.
	StatusRejected ListingStatus = "REJECTED"
)

// Valid reports whether s is one of the four defined statuses.
func (s ListingStatus) Valid() bool {
	switch s {
	case StatusPendingVerification,
		StatusWaitingOwnershipConfirmation,
		StatusApprovedAwaitingTransfer,
		StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no further transition may leave s.
func (s ListingStatus) Terminal() bool {
	return s == StatusRejected
}

// Decided reports whether an admin disposition has already been recorded.
// Decided listings ignore further approve/reject presses.
func (s ListingStatus) Decided() bool {
	return s == StatusApprovedAwaitingTransfer || s == StatusRejected
}

// UserProfile is a seller known to the bot. It is upserted on every inbound
// private message and never deleted.
type UserProfile struct {
	TelegramID int64     `db:"telegram_id"`
	Username   string    `db:"username"`
	FirstName  string    `db:"first_name"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// GroupListing is a single group submission tied to one seller. A seller has
// at most one listing per group id.
//
// IsOldApprox is a numeric-threshold guess derived from the chat identifier.
// It is approximate and must never feed payment or trust decisions.
type GroupListing struct {
	ID                int64         `db:"id"`
	GroupID           int64         `db:"group_id"`
	UserID            int64         `db:"user_id"`
	GroupLink         string        `db:"group_link"`
	GroupTitle        string        `db:"group_title"`
	IsOldApprox       bool          `db:"is_old_approx"`
	Status            ListingStatus `db:"status"`
	CreatedAt         time.Time     `db:"created_at"`
	TransferClaimedAt *time.Time    `db:"transfer_claimed_at"`
}

// PlaceholderTitle is stored when the group title cannot be retrieved.
const PlaceholderTitle = "Unknown Group"
