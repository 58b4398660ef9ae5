package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/groupmarket/groupbot/internal/model"
)

// ErrDuplicateListing is returned when a seller submits a group they already
// have an active listing for.
var ErrDuplicateListing = errors.New("storage: listing already exists for this group and user")

const uniqueViolation = "23505"

// ListingRepository persists group listings. Transition is the concurrency
// boundary: the status predicate is evaluated inside the UPDATE, so a stale
// caller matches zero rows instead of clobbering a newer state.
type ListingRepository interface {
	Insert(ctx context.Context, listing *model.GroupListing) error
	FindByKey(ctx context.Context, groupID, userID int64) (*model.GroupListing, error)
	CountByUser(ctx context.Context, userID int64) (int, error)
	CountByStatus(ctx context.Context, status model.ListingStatus) (int, error)
	Transition(ctx context.Context, groupID, userID int64, from []model.ListingStatus, to model.ListingStatus) (bool, error)
	ClaimTransfer(ctx context.Context, groupID, userID int64, at time.Time) (bool, error)
}

type listingRepo struct {
	db *sqlx.DB
}

// NewListingRepository builds a Postgres-backed ListingRepository.
func NewListingRepository(db *sqlx.DB) ListingRepository {
	return &listingRepo{db: db}
}

func (r *listingRepo) Insert(ctx context.Context, listing *model.GroupListing) error {
	err := r.db.GetContext(ctx, listing, `
		INSERT INTO group_listings
			(group_id, user_id, group_link, group_title, is_old_approx, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *
	`, listing.GroupID, listing.UserID, listing.GroupLink, listing.GroupTitle,
		listing.IsOldApprox, listing.Status)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return ErrDuplicateListing
		}
		return err
	}
	return nil
}

func (r *listingRepo) FindByKey(ctx context.Context, groupID, userID int64) (*model.GroupListing, error) {
	var listing model.GroupListing
	err := r.db.GetContext(ctx, &listing, `
		SELECT * FROM group_listings WHERE group_id = $1 AND user_id = $2
	`, groupID, userID)
	return handleNotFound(&listing, err)
}

func (r *listingRepo) CountByUser(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM group_listings WHERE user_id = $1
	`, userID)
	return count, err
}

func (r *listingRepo) CountByStatus(ctx context.Context, status model.ListingStatus) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM group_listings WHERE status = $1
	`, status)
	return count, err
}

// Transition applies a conditional status update. It reports whether a row
// matched; zero matches signal a stale or duplicate action, never an error.
func (r *listingRepo) Transition(ctx context.Context, groupID, userID int64, from []model.ListingStatus, to model.ListingStatus) (bool, error) {
	if !to.Valid() {
		return false, errors.New("storage: invalid target status")
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE group_listings
		SET status = $1
		WHERE group_id = $2 AND user_id = $3 AND status = ANY($4)
	`, to, groupID, userID, pq.Array(statusStrings(from)))
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ClaimTransfer moves a pending listing into the ownership-confirmation
// state, stamping the claim time. A missing or already-progressed listing
// matches zero rows and reports false.
func (r *listingRepo) ClaimTransfer(ctx context.Context, groupID, userID int64, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE group_listings
		SET status = $1, transfer_claimed_at = $2
		WHERE group_id = $3 AND user_id = $4 AND status = $5
	`, model.StatusWaitingOwnershipConfirmation, at, groupID, userID,
		model.StatusPendingVerification)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func statusStrings(statuses []model.ListingStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}
