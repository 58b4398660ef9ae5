// Package callbacks implements the action-token protocol carried in inline
// button callback data. A token is an underscore-delimited verb followed by
// zero or more numeric arguments, e.g. "admin_approve_123_-1000500000000".
// The verb itself may contain underscores; trailing segments that parse as
// integers are arguments, everything before them is the verb.
package callbacks

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// ErrMalformed is returned for tokens that cannot be parsed defensively.
var ErrMalformed = errors.New("callbacks: malformed action token")

const maxTokenLen = 64 // Telegram caps callback data at 64 bytes

// Action is a decoded callback token.
type Action struct {
	Verb string
	Args []int64
}

// Encode builds the wire token for a verb and its numeric arguments.
func Encode(verb string, args ...int64) string {
	if len(args) == 0 {
		return verb
	}
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, verb)
	for _, a := range args {
		parts = append(parts, strconv.FormatInt(a, 10))
	}
	return strings.Join(parts, "_")
}

// Parse decodes a wire token. Trailing integer segments become Args; the
// remaining prefix is the Verb. Tokens with no non-numeric prefix, empty
// segments, or excessive length are rejected.
func Parse(data string) (Action, error) {
	data = strings.TrimSpace(data)
	// Telebot prefixes data with \f when buttons are built via markup.Data;
	// raw buttons carry the token as-is. Accept both.
	data = strings.TrimPrefix(data, "\f")
	if data == "" || len(data) > maxTokenLen {
		return Action{}, ErrMalformed
	}

	segments := strings.Split(data, "_")
	for _, s := range segments {
		if s == "" {
			return Action{}, ErrMalformed
		}
	}

	// Walk backwards collecting numeric argument segments.
	split := len(segments)
	for split > 0 {
		if _, err := strconv.ParseInt(segments[split-1], 10, 64); err != nil {
			break
		}
		split--
	}
	if split == 0 {
		return Action{}, fmt.Errorf("%w: token %q has no verb", ErrMalformed, data)
	}

	args := make([]int64, 0, len(segments)-split)
	for _, s := range segments[split:] {
		v, _ := strconv.ParseInt(s, 10, 64)
		args = append(args, v)
	}
	return Action{Verb: strings.Join(segments[:split], "_"), Args: args}, nil
}

// RequireArgs validates the argument count of a decoded action.
func (a Action) RequireArgs(n int) error {
	if len(a.Args) != n {
		return fmt.Errorf("%w: verb %q expects %d args, got %d", ErrMalformed, a.Verb, n, len(a.Args))
	}
	return nil
}

const actionKey = "cb_action"

// Store attaches a decoded action to the telebot context for handlers.
func Store(c tele.Context, a Action) {
	if c != nil {
		c.Set(actionKey, a)
	}
}

// FromContext returns the action previously stored by the callback route.
func FromContext(c tele.Context) (Action, bool) {
	if c == nil {
		return Action{}, false
	}
	if v := c.Get(actionKey); v != nil {
		if a, ok := v.(Action); ok {
			return a, true
		}
	}
	return Action{}, false
}

// Raw returns the callback payload of the current update, if any.
func Raw(c tele.Context) string {
	cb := c.Callback()
	if cb == nil {
		return ""
	}
	return strings.TrimSpace(cb.Data)
}
