// Package app assembles the marketplace bot: storage, verifier, services,
// handlers and the Telegram runtime options.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/jmoiron/sqlx"
	tele "gopkg.in/telebot.v4"

	"github.com/groupmarket/groupbot/core/bootstrap"
	tg "github.com/groupmarket/groupbot/core/telegram"
	"github.com/groupmarket/groupbot/core/telegram/router"
	"github.com/groupmarket/groupbot/core/telegram/state"
	"github.com/groupmarket/groupbot/core/telegram/ui"
	"github.com/groupmarket/groupbot/internal/bot"
	"github.com/groupmarket/groupbot/internal/config"
	"github.com/groupmarket/groupbot/internal/listing"
	"github.com/groupmarket/groupbot/internal/notify"
	"github.com/groupmarket/groupbot/internal/storage"
	"github.com/groupmarket/groupbot/internal/verifier"
)

// botHandle defers access to the main bot client until the runtime hands it
// over in OnStart. The notifier and the admin gate are built before the bot
// exists, so they go through this indirection.
type botHandle struct {
	b atomic.Pointer[tele.Bot]
}

func (h *botHandle) bind(b *tele.Bot) { h.b.Store(b) }

func (h *botHandle) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	b := h.b.Load()
	if b == nil {
		return nil, errors.New("app: bot not started yet")
	}
	return b.Send(to, what, opts...)
}

func (h *botHandle) ChatMemberOf(chat, user tele.Recipient) (*tele.ChatMember, error) {
	b := h.b.Load()
	if b == nil {
		return nil, errors.New("app: bot not started yet")
	}
	return b.ChatMemberOf(chat, user)
}

// App is the assembled application.
type App struct {
	cfg      *config.Config
	db       *sqlx.DB
	registry *tg.Registry
	sessions state.Manager
	sweeper  *state.Sweeper
	handlers *bot.Handlers
	api      *botHandle
}

// Bootstrap initializes infrastructure and wires the application graph.
func Bootstrap(cfg *config.Config) (*App, error) {
	res, err := bootstrap.Run(bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	verifierBot, err := tele.NewBot(tele.Settings{
		Token:  cfg.Marketplace.VerifierToken,
		Client: tg.BuildHTTPClient(),
	})
	if err != nil {
		_ = res.DB.Close()
		return nil, fmt.Errorf("app: verifier bot initialization failed: %w", err)
	}

	api := &botHandle{}
	users := storage.NewUserRepository(res.DB)
	listings := storage.NewListingRepository(res.DB)
	agent := verifier.New(verifier.NewTelegramSession(verifierBot))
	notifier := notify.New(api, cfg.Marketplace.AdminChannelID)
	gate := bot.NewChannelGate(api, cfg.Marketplace.AdminChannelID)
	svc := listing.New(listings, users, agent, notifier, gate)

	sessions := state.NewMemoryManager()
	handlers := bot.NewHandlers(svc, sessions, cfg.Marketplace.SupportHandle)
	registry := tg.NewRegistry()
	bot.Register(registry, handlers)

	return &App{
		cfg:      cfg,
		db:       res.DB,
		registry: registry,
		sessions: sessions,
		sweeper:  state.NewSweeper(sessions, cfg.Marketplace.SessionTTL(), cfg.Marketplace.SweepInterval()),
		handlers: handlers,
		api:      api,
	}, nil
}

// TelegramRunOptions builds the runtime options for the Telegram loop.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	var fallbacks ui.FallbackProvider = a.handlers
	routes := router.TextRoutes(a.sessions, a.registry, router.TextOptions{
		UnknownText:     fallbacks.UnknownText,
		UnknownDocument: fallbacks.UnknownDocument,
	})
	routes = append(routes, router.CommandRoutes(a.registry, router.CommandRouteOptions{
		AdminID: a.cfg.Telegram.AdminID,
	})...)
	routes = append(routes, router.CallbackRoute(a.registry, router.CallbackOptions{
		NotFound: fallbacks.UnknownCallback,
	}))

	middlewares := tg.DefaultMiddlewares(a.cfg.CoreConfig(), nil)
	middlewares = append(middlewares, tg.Middleware{
		Name: "fsm_session",
		Use:  state.WithSession(a.sessions),
	})

	return tg.RunOptions{
		Config:      a.cfg.CoreConfig(),
		Registry:    a.registry,
		Middlewares: middlewares,
		Routes:      routes,
		OnStart: func(_ context.Context, rt tg.Runtime) error {
			a.api.bind(rt.Bot)
			a.sweeper.Start()
			return nil
		},
		OnStop: func(_ context.Context, _ tg.Runtime) error {
			a.sweeper.Stop()
			return a.db.Close()
		},
	}, nil
}
