package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/jackc/pgx/v5/pgxpool"

	migrations "github.com/parleyhq/parley/db"
	"github.com/parleyhq/parley/internal/autoreply"
	"github.com/parleyhq/parley/internal/config"
	"github.com/parleyhq/parley/internal/contacts"
	"github.com/parleyhq/parley/internal/db"
	"github.com/parleyhq/parley/internal/dispatch"
	"github.com/parleyhq/parley/internal/handlers"
	"github.com/parleyhq/parley/internal/llm"
	"github.com/parleyhq/parley/internal/logger"
	"github.com/parleyhq/parley/internal/messages"
	"github.com/parleyhq/parley/internal/nlquery"
	"github.com/parleyhq/parley/internal/outbox"
	"github.com/parleyhq/parley/internal/realtime"
	"github.com/parleyhq/parley/internal/server"
	"github.com/parleyhq/parley/internal/version"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := runMigrate(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fx.New(
		fx.Provide(
			provideConfig,
			provideLogger,
			provideDBConn,

			contacts.NewService,
			messages.NewService,
			provideLLMClient,
			provideParser,
			provideDispatcher,
			provideExecutor,
			provideAutoReply,
			realtime.NewHub,
			provideListener,
			provideWatcher,

			provideServerHandler(handlers.NewPingHandler),
			provideServerHandler(provideAuthHandler),
			provideServerHandler(provideQueryHandler),
			provideServerHandler(provideActionHandler),
			provideServerHandler(provideContactsHandler),
			provideServerHandler(provideAutoReplyHandler),
			provideServerHandler(provideStreamHandler),

			provideServer,
		),
		fx.Invoke(
			startListener,
			startWatcher,
			startServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func runMigrate(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: parley migrate <up|down|version|force N>")
	}
	cfg, err := provideConfig()
	if err != nil {
		return err
	}
	log := provideLogger(cfg)
	migrationsFS, err := fs.Sub(migrations.MigrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrations fs: %w", err)
	}
	return db.RunMigrate(log, cfg.Postgres, migrationsFS, args[0], args[1:])
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

func provideConfig() (config.Config, error) {
	cfgPath := os.Getenv("CONFIG_PATH")
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

func provideDBConn(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	conn, err := db.Open(context.Background(), cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			conn.Close()
			return nil
		},
	})
	return conn, nil
}

func provideLLMClient(log *slog.Logger, cfg config.Config) (*llm.Client, error) {
	timeout := time.Duration(cfg.Anthropic.TimeoutSeconds) * time.Second
	return llm.NewClient(log, cfg.Anthropic.BaseURL, cfg.Anthropic.APIKey, timeout)
}

func provideParser(log *slog.Logger, client *llm.Client, cfg config.Config) *nlquery.Parser {
	return nlquery.NewParser(log, client, cfg.Anthropic.ParserModel)
}

func provideDispatcher(log *slog.Logger, contactService *contacts.Service) *dispatch.Dispatcher {
	return dispatch.NewDispatcher(log, contactService)
}

func provideExecutor(log *slog.Logger, messageService *messages.Service, contactService *contacts.Service) *dispatch.Executor {
	return dispatch.NewExecutor(log, messageService, contactService)
}

func provideAutoReply(log *slog.Logger, client *llm.Client, cfg config.Config) *autoreply.Service {
	return autoreply.NewService(log, client, cfg.Anthropic.ReplyModel)
}

func provideListener(log *slog.Logger, conn *pgxpool.Pool, hub *realtime.Hub) *realtime.Listener {
	return realtime.NewListener(log, conn, hub)
}

func provideWatcher(log *slog.Logger, messageService *messages.Service, cfg config.Config) (*outbox.Watcher, error) {
	staleAfter, err := time.ParseDuration(cfg.Outbox.StaleAfter)
	if err != nil {
		return nil, fmt.Errorf("outbox stale_after: %w", err)
	}
	return outbox.NewWatcher(log, messageService, cfg.Outbox.Schedule, staleAfter), nil
}

func provideAuthHandler(log *slog.Logger, cfg config.Config) (*handlers.AuthHandler, error) {
	expiresIn, err := time.ParseDuration(cfg.Auth.JWTExpiresIn)
	if err != nil {
		return nil, fmt.Errorf("jwt_expires_in: %w", err)
	}
	return handlers.NewAuthHandler(log, cfg.Admin, cfg.Auth.JWTSecret, expiresIn), nil
}

func provideQueryHandler(log *slog.Logger, parser *nlquery.Parser, dispatcher *dispatch.Dispatcher, cfg config.Config) *handlers.QueryHandler {
	return handlers.NewQueryHandler(log, parser, dispatcher, cfg.Query.RatePerSecond)
}

func provideActionHandler(log *slog.Logger, executor *dispatch.Executor) *handlers.ActionHandler {
	return handlers.NewActionHandler(log, executor)
}

func provideContactsHandler(log *slog.Logger, contactService *contacts.Service, messageService *messages.Service) *handlers.ContactsHandler {
	return handlers.NewContactsHandler(log, contactService, messageService)
}

func provideAutoReplyHandler(log *slog.Logger, replyService *autoreply.Service, contactService *contacts.Service, messageService *messages.Service) *handlers.AutoReplyHandler {
	return handlers.NewAutoReplyHandler(log, replyService, contactService, messageService)
}

func provideStreamHandler(log *slog.Logger, hub *realtime.Hub) *handlers.StreamHandler {
	return handlers.NewStreamHandler(log, hub)
}

type serverParams struct {
	fx.In

	Logger         *slog.Logger
	Config         config.Config
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) (*server.Server, error) {
	if strings.TrimSpace(params.Config.Auth.JWTSecret) == "" {
		return nil, fmt.Errorf("auth.jwt_secret is required")
	}
	return server.NewServer(params.Logger, params.Config.Server.Addr, params.Config.Auth.JWTSecret, params.ServerHandlers...), nil
}

func startListener(lc fx.Lifecycle, listener *realtime.Listener) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				_ = listener.Run(ctx)
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

func startWatcher(lc fx.Lifecycle, watcher *outbox.Watcher) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return watcher.Start()
		},
		OnStop: func(context.Context) error {
			watcher.Stop()
			return nil
		},
	})
}

func startServer(lc fx.Lifecycle, logger *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner) {
	fmt.Printf("Starting Parley %s\n", version.GetInfo())

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
