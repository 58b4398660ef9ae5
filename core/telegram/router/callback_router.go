package router

import (
	"time"

	tg "github.com/groupmarket/groupbot/core/telegram"
	"github.com/groupmarket/groupbot/core/telegram/callbacks"
	"github.com/groupmarket/groupbot/core/telegram/middleware"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	NotFound tele.HandlerFunc
}

// CallbackRoute returns a handler that decodes action tokens and routes them
// through the registry by verb. Malformed tokens never reach a handler.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		if c.Callback() == nil {
			return nil
		}

		_ = c.Respond()

		fallback := func(reason string) error {
			fb := reg.CallbackNotFound()
			if fb == nil {
				fb = opts.NotFound
			}
			return handleWithSummary(c, "callback.unknown", start, "skip", "ok", func() error {
				if fb != nil {
					return fb(c)
				}
				return nil
			}, slog.String("reason", reason))
		}

		action, err := callbacks.Parse(callbacks.Raw(c))
		if err != nil {
			return fallback("malformed_token")
		}

		cbHandler, ok := reg.GetCallback(action.Verb)
		if !ok || cbHandler == nil {
			return fallback("not_found")
		}

		callbacks.Store(c, action)
		name := "callback." + normalizeHandlerName(action.Verb)
		return handleWithSummary(c, name, start, "", "", func() error {
			return cbHandler(c)
		}, slog.String("cb_key", action.Verb))
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
