package verifier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

type fakeSession struct {
	joinInfo *ChatInfo
	joinErr  error
	leaveErr error

	joined int
	left   []int64
}

func (f *fakeSession) Join(ctx context.Context, ref string) (*ChatInfo, error) {
	f.joined++
	return f.joinInfo, f.joinErr
}

func (f *fakeSession) Leave(ctx context.Context, chatID int64) error {
	f.left = append(f.left, chatID)
	return f.leaveErr
}

func TestClassifyOldBoundary(t *testing.T) {
	assert.True(t, ClassifyOld(OldThreshold-1), "id just below threshold is old")
	assert.False(t, ClassifyOld(OldThreshold), "the boundary id itself is new")
	assert.False(t, ClassifyOld(OldThreshold+1), "id just above threshold is new")
}

func TestClassifyOldDeterministic(t *testing.T) {
	const id = int64(-1001500000000)
	first := ClassifyOld(id)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ClassifyOld(id))
	}
	assert.True(t, first, "id numerically below the threshold classifies as old")
}

func TestInspectJoinsClassifiesAndLeaves(t *testing.T) {
	session := &fakeSession{joinInfo: &ChatInfo{ID: -1001500000000, Title: "Vintage Chat", Joined: true}}
	agent := New(session)

	res, err := agent.Inspect(context.Background(), "@vintage")
	require.NoError(t, err)
	assert.Equal(t, int64(-1001500000000), res.ChatID)
	assert.Equal(t, "Vintage Chat", res.Title)
	assert.True(t, res.IsOldApprox)
	assert.Equal(t, []int64{-1001500000000}, session.left, "verifier must leave after inspecting")
}

func TestInspectJoinFailureDoesNotLeave(t *testing.T) {
	session := &fakeSession{joinErr: ErrUnresolvable}
	agent := New(session)

	_, err := agent.Inspect(context.Background(), "https://t.me/+private")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnresolvable)
	assert.Empty(t, session.left, "no join, nothing to leave")
}

func TestInspectReportsLeaveFailure(t *testing.T) {
	session := &fakeSession{
		joinInfo: &ChatInfo{ID: -1002000000000, Joined: true},
		leaveErr: errors.New("kicked"),
	}
	agent := New(session)

	_, err := agent.Inspect(context.Background(), "@somegroup")
	require.Error(t, err)
	assert.Len(t, session.left, 1, "leave must still be attempted")
}

func TestInspectResolveOnlySkipsLeave(t *testing.T) {
	session := &fakeSession{
		joinInfo: &ChatInfo{ID: -1001200000000, Title: "Resolved Only"},
		leaveErr: errors.New("Forbidden: bot is not a member of the supergroup chat"),
	}
	agent := New(session)

	res, err := agent.Inspect(context.Background(), "@resolved")
	require.NoError(t, err)
	assert.Equal(t, int64(-1001200000000), res.ChatID)
	assert.True(t, res.IsOldApprox)
	assert.Empty(t, session.left, "no membership was established, nothing to leave")
}

func TestMapLeaveError(t *testing.T) {
	notMember := &tele.Error{Code: 403, Description: "Forbidden: bot is not a member of the supergroup chat"}
	assert.NoError(t, mapLeaveError(-100, notMember))

	kicked := &tele.Error{Code: 403, Description: "Forbidden: bot was kicked from the supergroup chat"}
	assert.Error(t, mapLeaveError(-100, kicked))

	assert.Error(t, mapLeaveError(-100, errors.New("network down")))
}

func TestNormalizeReference(t *testing.T) {
	cases := []struct {
		in     string
		handle string
		ok     bool
	}{
		{"@somegroup", "@somegroup", true},
		{"https://t.me/somegroup", "@somegroup", true},
		{"http://t.me/somegroup/", "@somegroup", true},
		{"https://t.me/somegroup?start=x", "@somegroup", true},
		{"https://t.me/+AbCdEf", "", false},
		{"https://t.me/joinchat/AbCdEf", "", false},
		{"@", "", false},
		{"https://example.com/somegroup", "", false},
		{"plain text", "", false},
	}
	for _, tc := range cases {
		handle, ok := normalizeReference(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		assert.Equal(t, tc.handle, handle, "input %q", tc.in)
	}
}

func TestDistinctFailureKinds(t *testing.T) {
	assert.False(t, errors.Is(ErrAlreadyMember, ErrUnresolvable))
	assert.False(t, errors.Is(ErrUnresolvable, ErrAlreadyMember))
}
