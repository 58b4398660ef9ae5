package verifier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// telegramSession implements Session over a dedicated secondary bot client.
// Public references (@handle, t.me/<name>) are resolved directly; private
// invite links cannot be consumed by a bot identity and are reported as
// unresolvable, which the submission flow surfaces to the seller.
type telegramSession struct {
	bot *tele.Bot
}

// NewTelegramSession wraps a secondary telebot client as a verifier Session.
func NewTelegramSession(bot *tele.Bot) Session {
	return &telegramSession{bot: bot}
}

func (s *telegramSession) Join(ctx context.Context, ref string) (*ChatInfo, error) {
	handle, ok := normalizeReference(ref)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnresolvable, ref)
	}

	chat, err := s.bot.ChatByUsername(handle)
	if err != nil {
		return nil, mapJoinError(err)
	}
	// A bot identity can only resolve public chats, never enter them, so
	// there is no membership to undo after the inspection.
	return &ChatInfo{ID: chat.ID, Title: chat.Title, Joined: false}, nil
}

func (s *telegramSession) Leave(ctx context.Context, chatID int64) error {
	if err := s.bot.Leave(&tele.Chat{ID: chatID}); err != nil {
		return mapLeaveError(chatID, err)
	}
	return nil
}

// mapLeaveError treats a "not a member" rejection as an already-completed
// leave; anything else is a real failure.
func mapLeaveError(chatID int64, err error) error {
	var apiErr *tele.Error
	if errors.As(err, &apiErr) && strings.Contains(strings.ToLower(apiErr.Description), "not a member") {
		return nil
	}
	return fmt.Errorf("leave chat %d: %w", chatID, err)
}

// normalizeReference extracts an @handle from a recognized group reference.
// Private invite links (t.me/+..., t.me/joinchat/...) have no public handle.
func normalizeReference(ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, "@") {
		if len(ref) > 1 {
			return ref, true
		}
		return "", false
	}

	for _, prefix := range []string{"https://t.me/", "http://t.me/"} {
		if !strings.HasPrefix(ref, prefix) {
			continue
		}
		rest := strings.TrimPrefix(ref, prefix)
		rest = strings.SplitN(rest, "?", 2)[0]
		rest = strings.TrimSuffix(rest, "/")
		if rest == "" || strings.HasPrefix(rest, "+") || strings.HasPrefix(rest, "joinchat/") {
			return "", false
		}
		return "@" + rest, true
	}
	return "", false
}

func mapJoinError(err error) error {
	var apiErr *tele.Error
	if errors.As(err, &apiErr) {
		desc := strings.ToLower(apiErr.Description)
		switch {
		case strings.Contains(desc, "not found"):
			return fmt.Errorf("%w: %s", ErrUnresolvable, apiErr.Description)
		case strings.Contains(desc, "already"):
			return fmt.Errorf("%w: %s", ErrAlreadyMember, apiErr.Description)
		}
	}
	return err
}
