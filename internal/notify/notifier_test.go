package notify

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/groupmarket/groupbot/internal/model"
)

type sent struct {
	to   string
	what interface{}
	opts []interface{}
}

type fakeAPI struct {
	sent []sent
	err  error
}

func (f *fakeAPI) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	f.sent = append(f.sent, sent{to: to.Recipient(), what: what, opts: opts})
	if f.err != nil {
		return nil, f.err
	}
	return &tele.Message{}, nil
}

func markupOf(t *testing.T, s sent) *tele.ReplyMarkup {
	t.Helper()
	for _, opt := range s.opts {
		if m, ok := opt.(*tele.ReplyMarkup); ok {
			return m
		}
	}
	t.Fatal("no reply markup attached")
	return nil
}

func TestGroupLivenessSendsProbe(t *testing.T) {
	api := &fakeAPI{}
	n := New(api, -100500)

	n.GroupLiveness(context.Background(), -42)

	require.Len(t, api.sent, 1)
	assert.Equal(t, strconv.FormatInt(-42, 10), api.sent[0].to)
	assert.Equal(t, "A", api.sent[0].what)
}

func TestTransferPromptCarriesClaimButton(t *testing.T) {
	api := &fakeAPI{}
	n := New(api, -100500)

	n.TransferPrompt(context.Background(), 7, -42)

	require.Len(t, api.sent, 1)
	assert.Equal(t, "7", api.sent[0].to, "prompt goes to the seller")

	markup := markupOf(t, api.sent[0])
	require.Len(t, markup.InlineKeyboard, 1)
	require.Len(t, markup.InlineKeyboard[0], 1)
	assert.Equal(t, "transfer_done_-42", markup.InlineKeyboard[0][0].Data)
}

func TestVerificationRequestGoesToAdminChannel(t *testing.T) {
	api := &fakeAPI{}
	n := New(api, -100500)

	seller := &model.UserProfile{TelegramID: 7, Username: "alice", FirstName: "Alice"}
	l := &model.GroupListing{
		GroupID:    -42,
		UserID:     7,
		GroupLink:  "https://t.me/traders",
		GroupTitle: "Traders",
	}
	n.VerificationRequest(context.Background(), seller, l)

	require.Len(t, api.sent, 1)
	assert.Equal(t, strconv.FormatInt(-100500, 10), api.sent[0].to)

	text, ok := api.sent[0].what.(string)
	require.True(t, ok)
	assert.Contains(t, text, "@alice")
	assert.Contains(t, text, "Traders")

	markup := markupOf(t, api.sent[0])
	require.Len(t, markup.InlineKeyboard, 1)
	require.Len(t, markup.InlineKeyboard[0], 2)
	assert.Equal(t, "admin_approve_7_-42", markup.InlineKeyboard[0][0].Data)
	assert.Equal(t, "admin_reject_7_-42", markup.InlineKeyboard[0][1].Data)
}

func TestVerificationRequestFallsBackToFirstName(t *testing.T) {
	api := &fakeAPI{}
	n := New(api, -100500)

	seller := &model.UserProfile{TelegramID: 7, FirstName: "Alice"}
	n.VerificationRequest(context.Background(), seller, &model.GroupListing{GroupID: -42})

	text := api.sent[0].what.(string)
	assert.Contains(t, text, "Alice")
	assert.NotContains(t, text, "@")
}

func TestTransferClaimedMentionsManualCheck(t *testing.T) {
	api := &fakeAPI{}
	n := New(api, -100500)

	n.TransferClaimed(context.Background(), 7, -42)

	require.Len(t, api.sent, 1)
	assert.Equal(t, strconv.FormatInt(-100500, 10), api.sent[0].to)
	assert.Contains(t, api.sent[0].what.(string), "Manual verification")
}

func TestDispositionTexts(t *testing.T) {
	api := &fakeAPI{}
	n := New(api, -100500)

	n.Disposition(context.Background(), 7, -42, true)
	n.Disposition(context.Background(), 7, -42, false)

	require.Len(t, api.sent, 2)
	assert.Contains(t, api.sent[0].what.(string), "approved")
	assert.Contains(t, api.sent[1].what.(string), "rejected")
}

func TestDeliveryFailureIsSwallowed(t *testing.T) {
	api := &fakeAPI{err: errors.New("blocked by user")}
	n := New(api, -100500)

	// None of these may panic or surface the transport error.
	n.GroupLiveness(context.Background(), -42)
	n.Disposition(context.Background(), 7, -42, true)
	n.TransferClaimed(context.Background(), 7, -42)

	assert.Len(t, api.sent, 3)
}
