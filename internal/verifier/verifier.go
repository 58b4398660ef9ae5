// Package verifier inspects candidate groups with a secondary authenticated
// identity: it joins the referenced chat, derives a coarse age classification
// from the chat identifier, and leaves again. Presence in the target group is
// strictly transient.
package verifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/groupmarket/groupbot/core/logger"
)

const component = "service.verifier"

// OldThreshold is the chat-id boundary of the age heuristic. Supergroup ids
// grow monotonically, so ids below the threshold belong to chats created
// earlier. This is an approximation, not a verified timestamp.
const OldThreshold int64 = -1001000000000

var (
	// ErrUnresolvable means the reference could not be resolved to a chat
	// (invalid or expired link, unknown handle, unsupported private invite).
	ErrUnresolvable = errors.New("verifier: group reference cannot be resolved")
	// ErrAlreadyMember means the verifier identity is already inside the
	// chat, which makes a clean join/leave round trip impossible.
	ErrAlreadyMember = errors.New("verifier: already a member of the group")
)

// ChatInfo describes the inspected chat. Joined reports whether the session
// actually entered the chat or merely resolved the reference; only a real
// join obliges the agent to leave afterwards.
type ChatInfo struct {
	ID     int64
	Title  string
	Joined bool
}

// Session is the secondary platform identity. Implementations must map
// platform failures onto ErrUnresolvable / ErrAlreadyMember where they apply,
// and must report through ChatInfo.Joined whether membership was established.
// Leave is called only after a join that succeeded.
type Session interface {
	Join(ctx context.Context, ref string) (*ChatInfo, error)
	Leave(ctx context.Context, chatID int64) error
}

// Result is the outcome of one inspection round trip.
type Result struct {
	ChatID      int64
	Title       string
	IsOldApprox bool
}

// ClassifyOld reports the approximate-age classification for a chat id.
// Deterministic and pure; the boundary id itself classifies as new.
func ClassifyOld(chatID int64) bool {
	return chatID < OldThreshold
}

// Agent performs join → classify → leave with a guaranteed leave.
type Agent struct {
	session Session
}

// New builds an Agent over the given session.
func New(session Session) *Agent {
	return &Agent{session: session}
}

// Inspect joins the referenced group, classifies its age, and leaves. When
// the session did join, the leave step runs even when a later step fails, so
// the verifier never stays behind in a candidate group. Sessions that only
// resolve the reference have nothing to leave.
func (a *Agent) Inspect(ctx context.Context, ref string) (_ *Result, err error) {
	info, err := a.session.Join(ctx, ref)
	if err != nil {
		logger.Warn(ctx, component, "verify.join",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("join group: %w", err)
	}

	if info.Joined {
		defer func() {
			if leaveErr := a.session.Leave(ctx, info.ID); leaveErr != nil {
				logger.Warn(ctx, component, "verify.leave",
					slog.String("status", "fail"),
					slog.Int64("group_id", info.ID),
					slog.String("err", leaveErr.Error()),
				)
				if err == nil {
					err = fmt.Errorf("leave group %d: %w", info.ID, leaveErr)
				}
			}
		}()
	}

	res := &Result{
		ChatID:      info.ID,
		Title:       info.Title,
		IsOldApprox: ClassifyOld(info.ID),
	}
	logger.Info(ctx, component, "verify.inspect",
		slog.String("status", "ok"),
		slog.Int64("group_id", res.ChatID),
		slog.Bool("is_old_approx", res.IsOldApprox),
	)
	return res, nil
}
