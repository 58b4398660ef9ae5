package listing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groupmarket/groupbot/internal/model"
	"github.com/groupmarket/groupbot/internal/storage"
	"github.com/groupmarket/groupbot/internal/verifier"
)

type fakeInspector struct {
	res   *verifier.Result
	err   error
	calls int
}

func (f *fakeInspector) Inspect(_ context.Context, _ string) (*verifier.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.res, nil
}

type fakeEvents struct {
	liveness     []int64
	prompts      []int64
	requests     []*model.GroupListing
	claims       []int64
	dispositions []bool
}

func (f *fakeEvents) GroupLiveness(_ context.Context, groupID int64) {
	f.liveness = append(f.liveness, groupID)
}

func (f *fakeEvents) TransferPrompt(_ context.Context, _, groupID int64) {
	f.prompts = append(f.prompts, groupID)
}

func (f *fakeEvents) VerificationRequest(_ context.Context, _ *model.UserProfile, l *model.GroupListing) {
	f.requests = append(f.requests, l)
}

func (f *fakeEvents) TransferClaimed(_ context.Context, _, groupID int64) {
	f.claims = append(f.claims, groupID)
}

func (f *fakeEvents) Disposition(_ context.Context, _, _ int64, approved bool) {
	f.dispositions = append(f.dispositions, approved)
}

type listingKey struct {
	groupID int64
	userID  int64
}

// fakeListings mirrors the repository's conditional-update behavior in
// memory so races and repeated presses exercise the same zero-row paths.
type fakeListings struct {
	rows      map[listingKey]*model.GroupListing
	insertErr error
}

func newFakeListings() *fakeListings {
	return &fakeListings{rows: map[listingKey]*model.GroupListing{}}
}

func (f *fakeListings) Insert(_ context.Context, l *model.GroupListing) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	key := listingKey{l.GroupID, l.UserID}
	if _, ok := f.rows[key]; ok {
		return storage.ErrDuplicateListing
	}
	clone := *l
	f.rows[key] = &clone
	return nil
}

func (f *fakeListings) FindByKey(_ context.Context, groupID, userID int64) (*model.GroupListing, error) {
	l, ok := f.rows[listingKey{groupID, userID}]
	if !ok {
		return nil, nil
	}
	clone := *l
	return &clone, nil
}

func (f *fakeListings) CountByUser(_ context.Context, userID int64) (int, error) {
	n := 0
	for key := range f.rows {
		if key.userID == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeListings) CountByStatus(_ context.Context, status model.ListingStatus) (int, error) {
	n := 0
	for _, l := range f.rows {
		if l.Status == status {
			n++
		}
	}
	return n, nil
}

func (f *fakeListings) Transition(_ context.Context, groupID, userID int64, from []model.ListingStatus, to model.ListingStatus) (bool, error) {
	l, ok := f.rows[listingKey{groupID, userID}]
	if !ok {
		return false, nil
	}
	for _, s := range from {
		if l.Status == s {
			l.Status = to
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeListings) ClaimTransfer(_ context.Context, groupID, userID int64, at time.Time) (bool, error) {
	l, ok := f.rows[listingKey{groupID, userID}]
	if !ok || l.Status != model.StatusPendingVerification {
		return false, nil
	}
	l.Status = model.StatusWaitingOwnershipConfirmation
	l.TransferClaimedAt = &at
	return true, nil
}

type fakeUsers struct {
	profiles map[int64]*model.UserProfile
	upserts  int
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{profiles: map[int64]*model.UserProfile{}}
}

func (f *fakeUsers) Upsert(_ context.Context, telegramID int64, username, firstName string) error {
	f.upserts++
	f.profiles[telegramID] = &model.UserProfile{
		TelegramID: telegramID,
		Username:   username,
		FirstName:  firstName,
	}
	return nil
}

func (f *fakeUsers) FindByTelegramID(_ context.Context, telegramID int64) (*model.UserProfile, error) {
	return f.profiles[telegramID], nil
}

type fakeGate struct{ allow bool }

func (f fakeGate) IsAdmin(_ context.Context, _ int64) bool { return f.allow }

type fixture struct {
	svc      *Service
	listings *fakeListings
	users    *fakeUsers
	agent    *fakeInspector
	events   *fakeEvents
}

func newFixture(agent *fakeInspector, admin bool) *fixture {
	f := &fixture{
		listings: newFakeListings(),
		users:    newFakeUsers(),
		agent:    agent,
		events:   &fakeEvents{},
	}
	f.svc = New(f.listings, f.users, f.agent, f.events, fakeGate{allow: admin})
	f.svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return f
}

var alice = &model.UserProfile{TelegramID: 100, Username: "alice", FirstName: "Alice"}

func TestValidReference(t *testing.T) {
	valid := []string{
		"https://t.me/sellgroup",
		"http://t.me/sellgroup",
		"https://t.me/+AbCdEf123",
		"@sellgroup",
	}
	for _, ref := range valid {
		assert.True(t, ValidReference(ref), ref)
	}
	invalid := []string{
		"",
		"hello",
		"t.me/sellgroup",
		"https://example.com/group",
		"@",
		"look at https://t.me/sellgroup please",
	}
	for _, ref := range invalid {
		assert.False(t, ValidReference(ref), ref)
	}
}

func TestSubmitHappyPath(t *testing.T) {
	agent := &fakeInspector{res: &verifier.Result{ChatID: -1000987654321, Title: "Cool Traders", IsOldApprox: false}}
	f := newFixture(agent, false)

	l, err := f.svc.Submit(context.Background(), alice, "https://t.me/cooltraders")
	require.NoError(t, err)

	assert.Equal(t, model.StatusPendingVerification, l.Status)
	assert.Equal(t, "Cool Traders", l.GroupTitle)
	assert.Equal(t, alice.TelegramID, l.UserID)

	stored, err := f.listings.FindByKey(context.Background(), l.GroupID, alice.TelegramID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, model.StatusPendingVerification, stored.Status)

	assert.Equal(t, []int64{l.GroupID}, f.events.liveness)
	assert.Equal(t, []int64{l.GroupID}, f.events.prompts)
	require.Len(t, f.events.requests, 1)
	assert.Equal(t, l.GroupID, f.events.requests[0].GroupID)
}

func TestSubmitPlaceholderTitle(t *testing.T) {
	agent := &fakeInspector{res: &verifier.Result{ChatID: -1001234, Title: ""}}
	f := newFixture(agent, false)

	l, err := f.svc.Submit(context.Background(), alice, "@untitled")
	require.NoError(t, err)
	assert.Equal(t, model.PlaceholderTitle, l.GroupTitle)
}

func TestSubmitOldGroupClassification(t *testing.T) {
	agent := &fakeInspector{res: &verifier.Result{ChatID: verifier.OldThreshold - 1, Title: "Veterans", IsOldApprox: true}}
	f := newFixture(agent, false)

	l, err := f.svc.Submit(context.Background(), alice, "@veterans")
	require.NoError(t, err)
	assert.True(t, l.IsOldApprox)
}

func TestSubmitInvalidReference(t *testing.T) {
	agent := &fakeInspector{}
	f := newFixture(agent, false)

	_, err := f.svc.Submit(context.Background(), alice, "not a link")
	require.ErrorIs(t, err, ErrInvalidReference)

	assert.Zero(t, agent.calls, "inspector must not run for invalid input")
	assert.Empty(t, f.listings.rows)
	assert.Empty(t, f.events.liveness)
}

func TestSubmitInspectFailure(t *testing.T) {
	agent := &fakeInspector{err: verifier.ErrUnresolvable}
	f := newFixture(agent, false)

	_, err := f.svc.Submit(context.Background(), alice, "@ghostgroup")
	require.ErrorIs(t, err, verifier.ErrUnresolvable)

	assert.Empty(t, f.listings.rows, "failed inspection must not write")
	assert.Empty(t, f.events.liveness)
	assert.Empty(t, f.events.requests)
}

func TestSubmitDuplicate(t *testing.T) {
	agent := &fakeInspector{res: &verifier.Result{ChatID: -42, Title: "Dupes"}}
	f := newFixture(agent, false)

	_, err := f.svc.Submit(context.Background(), alice, "@dupes")
	require.NoError(t, err)

	_, err = f.svc.Submit(context.Background(), alice, "@dupes")
	require.ErrorIs(t, err, storage.ErrDuplicateListing)
	assert.Len(t, f.events.requests, 1, "duplicate must not fan out again")
}

func TestClaimTransfer(t *testing.T) {
	agent := &fakeInspector{res: &verifier.Result{ChatID: -42, Title: "Traders"}}
	f := newFixture(agent, false)

	_, err := f.svc.Submit(context.Background(), alice, "@traders")
	require.NoError(t, err)

	applied, err := f.svc.ClaimTransfer(context.Background(), alice.TelegramID, -42)
	require.NoError(t, err)
	assert.True(t, applied)

	stored, _ := f.listings.FindByKey(context.Background(), -42, alice.TelegramID)
	assert.Equal(t, model.StatusWaitingOwnershipConfirmation, stored.Status)
	require.NotNil(t, stored.TransferClaimedAt)

	// Second press finds the listing already moved on.
	applied, err = f.svc.ClaimTransfer(context.Background(), alice.TelegramID, -42)
	require.NoError(t, err)
	assert.False(t, applied)

	// Admins hear about every claim, applied or stale.
	assert.Equal(t, []int64{-42, -42}, f.events.claims)
}

func TestClaimTransferMissingListing(t *testing.T) {
	f := newFixture(&fakeInspector{}, false)

	applied, err := f.svc.ClaimTransfer(context.Background(), alice.TelegramID, -999)
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestAdminDecideApprove(t *testing.T) {
	agent := &fakeInspector{res: &verifier.Result{ChatID: -42, Title: "Traders"}}
	f := newFixture(agent, true)

	_, err := f.svc.Submit(context.Background(), alice, "@traders")
	require.NoError(t, err)

	applied, err := f.svc.AdminDecide(context.Background(), 555, true, alice.TelegramID, -42)
	require.NoError(t, err)
	assert.True(t, applied)

	stored, _ := f.listings.FindByKey(context.Background(), -42, alice.TelegramID)
	assert.Equal(t, model.StatusApprovedAwaitingTransfer, stored.Status)
	assert.Equal(t, []bool{true}, f.events.dispositions)
}

func TestAdminDecideSecondPressIgnored(t *testing.T) {
	agent := &fakeInspector{res: &verifier.Result{ChatID: -42, Title: "Traders"}}
	f := newFixture(agent, true)

	_, err := f.svc.Submit(context.Background(), alice, "@traders")
	require.NoError(t, err)

	applied, err := f.svc.AdminDecide(context.Background(), 555, true, alice.TelegramID, -42)
	require.NoError(t, err)
	require.True(t, applied)

	// A conflicting second decision matches zero rows and changes nothing.
	applied, err = f.svc.AdminDecide(context.Background(), 556, false, alice.TelegramID, -42)
	require.NoError(t, err)
	assert.False(t, applied)

	stored, _ := f.listings.FindByKey(context.Background(), -42, alice.TelegramID)
	assert.Equal(t, model.StatusApprovedAwaitingTransfer, stored.Status)
	assert.Equal(t, []bool{true}, f.events.dispositions, "loser press must not notify the seller")
}

func TestAdminDecideAfterClaim(t *testing.T) {
	agent := &fakeInspector{res: &verifier.Result{ChatID: -42, Title: "Traders"}}
	f := newFixture(agent, true)

	_, err := f.svc.Submit(context.Background(), alice, "@traders")
	require.NoError(t, err)
	_, err = f.svc.ClaimTransfer(context.Background(), alice.TelegramID, -42)
	require.NoError(t, err)

	applied, err := f.svc.AdminDecide(context.Background(), 555, false, alice.TelegramID, -42)
	require.NoError(t, err)
	assert.True(t, applied, "claimed listings are still decidable")

	stored, _ := f.listings.FindByKey(context.Background(), -42, alice.TelegramID)
	assert.Equal(t, model.StatusRejected, stored.Status)
}

func TestAdminDecideUnauthorized(t *testing.T) {
	agent := &fakeInspector{res: &verifier.Result{ChatID: -42, Title: "Traders"}}
	f := newFixture(agent, false)

	_, err := f.svc.Submit(context.Background(), alice, "@traders")
	require.NoError(t, err)

	applied, err := f.svc.AdminDecide(context.Background(), 777, true, alice.TelegramID, -42)
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.False(t, applied)

	stored, _ := f.listings.FindByKey(context.Background(), -42, alice.TelegramID)
	assert.Equal(t, model.StatusPendingVerification, stored.Status, "unauthorized press must not write")
	assert.Empty(t, f.events.dispositions)
}

func TestProfile(t *testing.T) {
	agent := &fakeInspector{res: &verifier.Result{ChatID: -42, Title: "Traders"}}
	f := newFixture(agent, false)

	require.NoError(t, f.svc.RegisterUser(context.Background(), alice.TelegramID, alice.Username, alice.FirstName))
	_, err := f.svc.Submit(context.Background(), alice, "@traders")
	require.NoError(t, err)

	user, err := f.svc.GetUserByTelegramID(context.Background(), alice.TelegramID)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "alice", user.Username)

	count, err := f.svc.SubmissionCount(context.Background(), alice.TelegramID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPendingCount(t *testing.T) {
	agent := &fakeInspector{res: &verifier.Result{ChatID: -42, Title: "Traders"}}
	f := newFixture(agent, true)

	_, err := f.svc.Submit(context.Background(), alice, "@traders")
	require.NoError(t, err)

	n, err := f.svc.PendingCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = f.svc.AdminDecide(context.Background(), 555, false, alice.TelegramID, -42)
	require.NoError(t, err)

	n, err = f.svc.PendingCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSubmitWrapsInsertError(t *testing.T) {
	agent := &fakeInspector{res: &verifier.Result{ChatID: -42, Title: "Traders"}}
	f := newFixture(agent, false)
	f.listings.insertErr = errors.New("connection refused")

	_, err := f.svc.Submit(context.Background(), alice, "@traders")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert listing")
	assert.Empty(t, f.events.liveness, "failed insert must not fan out")
}
