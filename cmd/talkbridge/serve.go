package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"golang.org/x/oauth2"

	"github.com/talkbridgehq/talkbridge/internal/bridge"
	"github.com/talkbridgehq/talkbridge/internal/callback"
	"github.com/talkbridgehq/talkbridge/internal/config"
	"github.com/talkbridgehq/talkbridge/internal/engine"
	"github.com/talkbridgehq/talkbridge/internal/handlers"
	"github.com/talkbridgehq/talkbridge/internal/logger"
	"github.com/talkbridgehq/talkbridge/internal/mention"
	"github.com/talkbridgehq/talkbridge/internal/mention/discord"
	"github.com/talkbridgehq/talkbridge/internal/mention/telegram"
	"github.com/talkbridgehq/talkbridge/internal/server"
)

const callbackTimeout = 10 * time.Second

func runServe() {
	fx.New(
		fx.Provide(
			provideConfig,
			provideLogger,
			provideTokenSource,
			provideEngineClient,
			provideDeliverer,
			provideBridge,
			provideServerHandler(handlers.NewHealthHandler),
			provideServerHandler(handlers.NewSkillHandler),
			provideServer,
		),
		fx.Invoke(
			startMentionListeners,
			startServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

func provideConfig() (config.Config, error) {
	cfgPath := configPath
	if cfgPath == "" {
		cfgPath = os.Getenv("CONFIG_PATH")
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

// provideTokenSource selects the engine credential source. A fixed token
// wins over JWT minting; nil means the engine accepts anonymous calls.
func provideTokenSource(cfg config.Config) oauth2.TokenSource {
	auth := cfg.Engine.Auth
	if auth.Token != "" {
		return engine.StaticTokenSource(auth.Token)
	}
	if auth.JWTSecret != "" {
		return engine.NewJWTTokenSource(auth.JWTSecret, auth.JWTIssuer, auth.JWTTTL())
	}
	return nil
}

func provideEngineClient(log *slog.Logger, cfg config.Config, tokens oauth2.TokenSource) (*engine.Client, error) {
	client, err := engine.NewClient(log, cfg.Engine.BaseURL, tokens, cfg.Engine.Timeout())
	if err != nil {
		return nil, fmt.Errorf("engine client: %w", err)
	}
	return client, nil
}

func provideDeliverer(log *slog.Logger) *callback.Deliverer {
	return callback.NewDeliverer(log, callbackTimeout)
}

func provideBridge(log *slog.Logger, client *engine.Client, deliverer *callback.Deliverer) *bridge.Orchestrator {
	return bridge.New(log, client, deliverer)
}

type serverParams struct {
	fx.In
	Logger         *slog.Logger
	Config         config.Config
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.New(params.Logger, params.Config.Server.Addr, params.ServerHandlers)
}

// startMentionListeners opens one chat-client session per configured bot
// token. Unconfigured platforms are skipped; a listener that fails to
// start aborts boot.
func startMentionListeners(lc fx.Lifecycle, log *slog.Logger, cfg config.Config, orchestrator *bridge.Orchestrator) {
	var listeners []mention.Listener
	if cfg.Telegram.BotToken != "" {
		listeners = append(listeners, telegram.NewListener(log, cfg.Telegram.BotToken))
	}
	if cfg.Discord.BotToken != "" {
		listeners = append(listeners, discord.NewListener(log, cfg.Discord.BotToken))
	}
	if len(listeners) == 0 {
		log.Info("no chat-client bot tokens configured; mention path disabled")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			for _, l := range listeners {
				if err := l.Start(ctx, orchestrator); err != nil {
					cancel()
					return err
				}
			}
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			var firstErr error
			for _, l := range listeners {
				if err := l.Stop(stopCtx); err != nil && firstErr == nil {
					firstErr = err
				}
			}
			return firstErr
		},
	})
}

func startServer(lc fx.Lifecycle, logger *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}
