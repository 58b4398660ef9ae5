// Package listing owns the group-listing workflow: submission with a
// verifier round trip, the seller's transfer claim, and admin dispositions.
// Every status write goes through a conditional update, so the record store
// stays consistent even when two updates for the same listing race.
package listing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/groupmarket/groupbot/core/logger"
	"github.com/groupmarket/groupbot/internal/model"
	"github.com/groupmarket/groupbot/internal/verifier"
)

const component = "service.listings"

// ErrInvalidReference means the submitted text is neither a t.me link nor an
// @handle. The caller re-prompts without touching the record store.
var ErrInvalidReference = errors.New("listing: not a group link or handle")

// ErrUnauthorized means the acting user is not a member of the admin channel.
// Admin actions carrying it are dropped without any user-visible response.
var ErrUnauthorized = errors.New("listing: actor is not an admin")

var refPattern = regexp.MustCompile(`^(https?://t\.me/\S+|@\w+)$`)

// Inspector performs the join / classify / leave round trip.
type Inspector interface {
	Inspect(ctx context.Context, ref string) (*verifier.Result, error)
}

// Events is the best-effort notification fan-out. Implementations never
// return errors; delivery failures are their own concern.
type Events interface {
	GroupLiveness(ctx context.Context, groupID int64)
	TransferPrompt(ctx context.Context, userID, groupID int64)
	VerificationRequest(ctx context.Context, seller *model.UserProfile, l *model.GroupListing)
	TransferClaimed(ctx context.Context, userID, groupID int64)
	Disposition(ctx context.Context, userID, groupID int64, approved bool)
}

// ListingStore is the listing slice of the record store.
type ListingStore interface {
	Insert(ctx context.Context, listing *model.GroupListing) error
	FindByKey(ctx context.Context, groupID, userID int64) (*model.GroupListing, error)
	CountByUser(ctx context.Context, userID int64) (int, error)
	CountByStatus(ctx context.Context, status model.ListingStatus) (int, error)
	Transition(ctx context.Context, groupID, userID int64, from []model.ListingStatus, to model.ListingStatus) (bool, error)
	ClaimTransfer(ctx context.Context, groupID, userID int64, at time.Time) (bool, error)
}

// UserStore is the seller-profile slice of the record store.
type UserStore interface {
	Upsert(ctx context.Context, telegramID int64, username, firstName string) error
	FindByTelegramID(ctx context.Context, telegramID int64) (*model.UserProfile, error)
}

// AdminGate answers whether a user may take admin actions. Implementations
// must consult live membership, not a cached snapshot.
type AdminGate interface {
	IsAdmin(ctx context.Context, userID int64) bool
}

// Service drives the listing lifecycle.
type Service struct {
	listings ListingStore
	users    UserStore
	agent    Inspector
	events   Events
	gate     AdminGate
	now      func() time.Time
}

// New builds a Service over its collaborators.
func New(listings ListingStore, users UserStore, agent Inspector, events Events, gate AdminGate) *Service {
	return &Service{
		listings: listings,
		users:    users,
		agent:    agent,
		events:   events,
		gate:     gate,
		now:      time.Now,
	}
}

// ValidReference reports whether text looks like a submittable group
// reference: an http(s) t.me link or an @handle, nothing else.
func ValidReference(text string) bool {
	return refPattern.MatchString(text)
}

// RegisterUser upserts the seller profile. Called on every inbound private
// message so profiles stay current without an explicit signup step.
func (s *Service) RegisterUser(ctx context.Context, telegramID int64, username, firstName string) error {
	if err := s.users.Upsert(ctx, telegramID, username, firstName); err != nil {
		return fmt.Errorf("upsert user %d: %w", telegramID, err)
	}
	return nil
}

// GetUserByTelegramID returns the stored seller profile, or nil when the
// user has never talked to the bot.
func (s *Service) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.UserProfile, error) {
	user, err := s.users.FindByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("find user %d: %w", telegramID, err)
	}
	return user, nil
}

// SubmissionCount returns how many groups the seller has submitted.
func (s *Service) SubmissionCount(ctx context.Context, telegramID int64) (int, error) {
	count, err := s.listings.CountByUser(ctx, telegramID)
	if err != nil {
		return 0, fmt.Errorf("count listings for user %d: %w", telegramID, err)
	}
	return count, nil
}

// PendingCount returns how many listings still await verification.
func (s *Service) PendingCount(ctx context.Context) (int, error) {
	count, err := s.listings.CountByStatus(ctx, model.StatusPendingVerification)
	if err != nil {
		return 0, fmt.Errorf("count pending listings: %w", err)
	}
	return count, nil
}

// Submit runs the full submission workflow for one group reference: validate
// the reference, inspect the group, persist the listing, then fan out the
// liveness probe, the seller transfer prompt, and the admin review request.
//
// A verifier failure aborts before anything is written. A duplicate
// submission surfaces storage.ErrDuplicateListing from the insert.
func (s *Service) Submit(ctx context.Context, seller *model.UserProfile, ref string) (*model.GroupListing, error) {
	if !ValidReference(ref) {
		return nil, ErrInvalidReference
	}

	res, err := s.agent.Inspect(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("inspect %q: %w", ref, err)
	}

	title := res.Title
	if title == "" {
		title = model.PlaceholderTitle
	}
	l := &model.GroupListing{
		GroupID:     res.ChatID,
		UserID:      seller.TelegramID,
		GroupLink:   ref,
		GroupTitle:  title,
		IsOldApprox: res.IsOldApprox,
		Status:      model.StatusPendingVerification,
	}
	if err := s.listings.Insert(ctx, l); err != nil {
		return nil, fmt.Errorf("insert listing group=%d user=%d: %w", l.GroupID, l.UserID, err)
	}

	s.events.GroupLiveness(ctx, l.GroupID)
	s.events.TransferPrompt(ctx, seller.TelegramID, l.GroupID)
	s.events.VerificationRequest(ctx, seller, l)

	logger.Info(ctx, component, "listing.submit",
		slog.String("status", "ok"),
		slog.Int64("group_id", l.GroupID),
		slog.Bool("is_old_approx", l.IsOldApprox),
	)
	return l, nil
}

// ClaimTransfer records the seller's claim that ownership of the group has
// been handed over. The status moves from PENDING_VERIFICATION to
// WAITING_OWNERSHIP_CONFIRMATION only if the listing is still pending; a
// stale press matches zero rows and reports applied=false.
//
// The admin channel is told about the claim either way, because the transfer
// still needs a human check regardless of which press landed first.
func (s *Service) ClaimTransfer(ctx context.Context, userID, groupID int64) (bool, error) {
	applied, err := s.listings.ClaimTransfer(ctx, groupID, userID, s.now())
	if err != nil {
		return false, fmt.Errorf("claim transfer group=%d user=%d: %w", groupID, userID, err)
	}

	s.events.TransferClaimed(ctx, userID, groupID)

	logger.Info(ctx, component, "listing.claim_transfer",
		slog.Int64("group_id", groupID),
		slog.Bool("applied", applied),
	)
	return applied, nil
}

// AdminDecide applies an approve or reject decision to a listing. The actor
// must currently be a member of the admin channel; otherwise ErrUnauthorized
// is returned before anything is read or written.
//
// The decision is applied only when the stored status has not been decided
// yet, so a second press on the same message matches zero rows, triggers no
// seller notification, and reports applied=false.
func (s *Service) AdminDecide(ctx context.Context, actorID int64, approve bool, targetUser, groupID int64) (bool, error) {
	if !s.gate.IsAdmin(ctx, actorID) {
		logger.Warn(ctx, component, "listing.decide",
			slog.String("status", "unauthorized"),
			slog.Int64("user_id", actorID),
		)
		return false, ErrUnauthorized
	}

	to := model.StatusRejected
	if approve {
		to = model.StatusApprovedAwaitingTransfer
	}
	from := []model.ListingStatus{
		model.StatusPendingVerification,
		model.StatusWaitingOwnershipConfirmation,
	}
	applied, err := s.listings.Transition(ctx, groupID, targetUser, from, to)
	if err != nil {
		return false, fmt.Errorf("decide group=%d user=%d: %w", groupID, targetUser, err)
	}
	if applied {
		s.events.Disposition(ctx, targetUser, groupID, approve)
	}

	logger.Info(ctx, component, "listing.decide",
		slog.Int64("group_id", groupID),
		slog.Int64("target_user_id", targetUser),
		slog.String("listing_status", string(to)),
		slog.Bool("applied", applied),
	)
	return applied, nil
}
