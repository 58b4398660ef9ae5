package bot

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/groupmarket/groupbot/core/telegram/callbacks"
	"github.com/groupmarket/groupbot/core/telegram/state"
	"github.com/groupmarket/groupbot/internal/listing"
	"github.com/groupmarket/groupbot/internal/model"
	"github.com/groupmarket/groupbot/internal/token"
	"github.com/groupmarket/groupbot/internal/verifier"
)

// fakeTeleContext implements the slice of tele.Context the handlers touch;
// the embedded interface covers the methods no test path reaches.
type fakeTeleContext struct {
	tele.Context

	sender *tele.User
	text   string
	store  map[string]interface{}

	sends []string
	edits []string
}

func newFakeTeleContext(userID int64, text string) *fakeTeleContext {
	return &fakeTeleContext{
		sender: &tele.User{ID: userID, Username: "alice", FirstName: "Alice"},
		text:   text,
		store:  map[string]interface{}{},
	}
}

func (f *fakeTeleContext) Sender() *tele.User  { return f.sender }
func (f *fakeTeleContext) Chat() *tele.Chat    { return &tele.Chat{ID: f.sender.ID} }
func (f *fakeTeleContext) Update() tele.Update { return tele.Update{ID: 1} }
func (f *fakeTeleContext) Text() string        { return f.text }

func (f *fakeTeleContext) Set(key string, v interface{}) { f.store[key] = v }
func (f *fakeTeleContext) Get(key string) interface{}    { return f.store[key] }

func (f *fakeTeleContext) Send(what interface{}, _ ...interface{}) error {
	if s, ok := what.(string); ok {
		f.sends = append(f.sends, s)
	}
	return nil
}

func (f *fakeTeleContext) Edit(what interface{}, _ ...interface{}) error {
	if s, ok := what.(string); ok {
		f.edits = append(f.edits, s)
	}
	return nil
}

type stubInspector struct {
	res *verifier.Result
	err error
}

func (s *stubInspector) Inspect(_ context.Context, _ string) (*verifier.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.res, nil
}

type stubEvents struct{}

func (stubEvents) GroupLiveness(context.Context, int64)         {}
func (stubEvents) TransferPrompt(context.Context, int64, int64) {}
func (stubEvents) VerificationRequest(context.Context, *model.UserProfile, *model.GroupListing) {}
func (stubEvents) TransferClaimed(context.Context, int64, int64)   {}
func (stubEvents) Disposition(context.Context, int64, int64, bool) {}

type stubListings struct {
	transitionApplied bool
	claimApplied      bool
	transitions       int
	claims            int
	inserted          []*model.GroupListing
}

func (s *stubListings) Insert(_ context.Context, l *model.GroupListing) error {
	s.inserted = append(s.inserted, l)
	return nil
}

func (s *stubListings) FindByKey(context.Context, int64, int64) (*model.GroupListing, error) {
	return nil, nil
}

func (s *stubListings) CountByUser(context.Context, int64) (int, error) { return 0, nil }

func (s *stubListings) CountByStatus(context.Context, model.ListingStatus) (int, error) {
	return 0, nil
}

func (s *stubListings) Transition(context.Context, int64, int64, []model.ListingStatus, model.ListingStatus) (bool, error) {
	s.transitions++
	return s.transitionApplied, nil
}

func (s *stubListings) ClaimTransfer(context.Context, int64, int64, time.Time) (bool, error) {
	s.claims++
	return s.claimApplied, nil
}

type stubUsers struct{}

func (stubUsers) Upsert(context.Context, int64, string, string) error { return nil }

func (stubUsers) FindByTelegramID(_ context.Context, id int64) (*model.UserProfile, error) {
	return &model.UserProfile{TelegramID: id, Username: "alice"}, nil
}

type stubGate struct{ allow bool }

func (g *stubGate) IsAdmin(context.Context, int64) bool { return g.allow }

type handlerFixture struct {
	handlers  *Handlers
	sessions  state.Manager
	listings  *stubListings
	inspector *stubInspector
	gate      *stubGate
}

func newHandlerFixture() *handlerFixture {
	listings := &stubListings{}
	inspector := &stubInspector{res: &verifier.Result{ChatID: -1001500000000, Title: "Vintage Chat", IsOldApprox: true}}
	gate := &stubGate{}
	svc := listing.New(listings, stubUsers{}, inspector, stubEvents{}, gate)
	sessions := state.NewMemoryManager()
	return &handlerFixture{
		handlers:  NewHandlers(svc, sessions, "@support"),
		sessions:  sessions,
		listings:  listings,
		inspector: inspector,
		gate:      gate,
	}
}

func TestDecideApproveAppendsStatusMarker(t *testing.T) {
	fx := newHandlerFixture()
	fx.gate.allow = true
	fx.listings.transitionApplied = true

	c := newFakeTeleContext(99, "Verification request for Vintage Chat")
	callbacks.Store(c, callbacks.Action{Verb: token.VerbAdminApprove, Args: []int64{7, -1001500000000}})

	require.NoError(t, fx.handlers.AdminApprove(c))
	require.Len(t, c.edits, 1)
	assert.True(t, strings.HasPrefix(c.edits[0], "Verification request for Vintage Chat"))
	assert.True(t, strings.HasSuffix(c.edits[0], "STATUS: ✅ APPROVED"))
}

func TestDecideRejectAppendsStatusMarker(t *testing.T) {
	fx := newHandlerFixture()
	fx.gate.allow = true
	fx.listings.transitionApplied = true

	c := newFakeTeleContext(99, "Verification request for Vintage Chat")
	callbacks.Store(c, callbacks.Action{Verb: token.VerbAdminReject, Args: []int64{7, -1001500000000}})

	require.NoError(t, fx.handlers.AdminReject(c))
	require.Len(t, c.edits, 1)
	assert.True(t, strings.HasSuffix(c.edits[0], "STATUS: ❌ REJECTED"))
}

func TestDecideUnauthorizedStaysSilent(t *testing.T) {
	fx := newHandlerFixture()
	fx.gate.allow = false

	c := newFakeTeleContext(500, "Verification request")
	callbacks.Store(c, callbacks.Action{Verb: token.VerbAdminApprove, Args: []int64{7, -1001500000000}})

	require.NoError(t, fx.handlers.AdminApprove(c))
	assert.Empty(t, c.edits, "no message change for an outsider press")
	assert.Empty(t, c.sends)
	assert.Zero(t, fx.listings.transitions)
}

func TestDecideStalePressLeavesMessageAlone(t *testing.T) {
	fx := newHandlerFixture()
	fx.gate.allow = true
	fx.listings.transitionApplied = false

	c := newFakeTeleContext(99, "Verification request")
	callbacks.Store(c, callbacks.Action{Verb: token.VerbAdminReject, Args: []int64{7, -1001500000000}})

	require.NoError(t, fx.handlers.AdminReject(c))
	assert.Empty(t, c.edits, "an already-decided listing keeps its marker")
	assert.Equal(t, 1, fx.listings.transitions)
}

func TestDecideMalformedTokenErrors(t *testing.T) {
	fx := newHandlerFixture()
	fx.gate.allow = true

	c := newFakeTeleContext(99, "Verification request")
	callbacks.Store(c, callbacks.Action{Verb: token.VerbAdminApprove, Args: []int64{7}})

	err := fx.handlers.AdminApprove(c)
	require.Error(t, err)
	assert.ErrorIs(t, err, callbacks.ErrMalformed)
	assert.Empty(t, c.edits)
	assert.Zero(t, fx.listings.transitions)
}

func TestDecideWithoutStoredActionIsNoOp(t *testing.T) {
	fx := newHandlerFixture()
	fx.gate.allow = true

	c := newFakeTeleContext(99, "Verification request")
	require.NoError(t, fx.handlers.AdminApprove(c))
	assert.Empty(t, c.edits)
	assert.Zero(t, fx.listings.transitions)
}

func TestTransferDoneAcknowledgesAndClearsPhase(t *testing.T) {
	fx := newHandlerFixture()
	fx.listings.claimApplied = true
	fx.sessions.SetState(7, PhaseAwaitingTransfer)

	c := newFakeTeleContext(7, "")
	callbacks.Store(c, callbacks.Action{Verb: token.VerbTransferDone, Args: []int64{-1001500000000}})

	require.NoError(t, fx.handlers.TransferDone(c))
	require.Len(t, c.edits, 1)
	assert.Contains(t, c.edits[0], "Thank you")
	assert.False(t, fx.sessions.HasState(7))
	assert.Equal(t, 1, fx.listings.claims)
}

func TestTransferDoneStalePressSameAcknowledgement(t *testing.T) {
	fx := newHandlerFixture()
	fx.listings.claimApplied = false

	c := newFakeTeleContext(7, "")
	callbacks.Store(c, callbacks.Action{Verb: token.VerbTransferDone, Args: []int64{-1001500000000}})

	require.NoError(t, fx.handlers.TransferDone(c))
	require.Len(t, c.edits, 1)
	assert.Contains(t, c.edits[0], "Thank you")
}

func TestTransferDoneMalformedTokenErrors(t *testing.T) {
	fx := newHandlerFixture()

	c := newFakeTeleContext(7, "")
	callbacks.Store(c, callbacks.Action{Verb: token.VerbTransferDone})

	err := fx.handlers.TransferDone(c)
	require.Error(t, err)
	assert.ErrorIs(t, err, callbacks.ErrMalformed)
	assert.Empty(t, c.edits)
	assert.Zero(t, fx.listings.claims)
}

func TestSubmitLinkPrivateInviteReportsAccessFailure(t *testing.T) {
	fx := newHandlerFixture()
	fx.inspector.err = fmt.Errorf("join group: %w", verifier.ErrUnresolvable)
	fx.sessions.SetState(7, PhaseAwaitingLink)

	c := newFakeTeleContext(7, "https://t.me/+AbCdEf")
	require.NoError(t, fx.handlers.SubmitLink(c))

	require.NotEmpty(t, c.sends)
	assert.Contains(t, c.sends[len(c.sends)-1], "could not access that group")
	assert.False(t, fx.sessions.HasState(7), "conversation is aborted")
	assert.Empty(t, fx.listings.inserted)
}
