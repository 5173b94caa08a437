package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"medsync/config"
	"medsync/internal/delivery"
	"medsync/internal/delivery/http"
	"medsync/internal/delivery/http/middleware"
	"medsync/internal/delivery/http/router/handler"
	"medsync/internal/delivery/syncworker"
	"medsync/internal/domain/service"
	"medsync/internal/infra/auth"
	logs "medsync/internal/infra/log"
	"medsync/internal/infra/notification"
	"medsync/internal/infra/persistence/sqlite"
	"medsync/internal/infra/pubsub"
	"medsync/internal/infra/remote"
	"medsync/internal/usecase/impl"

	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Options(
		fx.Provide(
			config.New,
			logs.New,
			context.Background,
			sqlite.New,
		),
		pubsub.Module,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			sqlite.NewChangeQueueRepository,
			sqlite.NewNotificationLogRepository,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewBearerSource,
			remote.NewSyncClient,
			fx.Annotate(
				newPushChannel,
				fx.ResultTags(`group:"channels"`),
			),
			fx.Annotate(
				newSocketChannel,
				fx.ResultTags(`group:"channels"`),
			),
			fx.Annotate(
				newEmailChannel,
				fx.ResultTags(`group:"channels"`),
			),
		),
	)
}

// newPushChannel creates the Firebase push channel when configured
func newPushChannel(ctx context.Context, cfg *config.Config) (service.ChannelAdapter, error) {
	if cfg.Firebase == nil {
		return nil, nil // Push channel is optional
	}

	ch, err := notification.NewPushChannel(ctx, cfg.Firebase.CredentialsPath, cfg.Firebase.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create push channel: %w", err)
	}

	return ch, nil
}

// newSocketChannel creates the in-app websocket channel when configured
func newSocketChannel(cfg *config.Config, logger *slog.Logger) (service.ChannelAdapter, error) {
	if cfg.Socket == nil {
		return nil, nil // In-app channel is optional
	}

	ch, err := notification.NewSocketChannel(cfg.Socket, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create socket channel: %w", err)
	}

	return ch, nil
}

// newEmailChannel creates the SMTP email channel when configured
func newEmailChannel(cfg *config.Config) (service.ChannelAdapter, error) {
	if cfg.SMTP == nil {
		return nil, nil // Email channel is optional
	}

	ch, err := notification.NewEmailChannel(cfg.SMTP)
	if err != nil {
		return nil, fmt.Errorf("failed to create email channel: %w", err)
	}

	return ch, nil
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewQueueService,
			impl.NewConnectivityMonitor,
			impl.NewReconciler,
			impl.NewDispatcher,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewErrorMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewChangeHandler,
			handler.NewNotificationHandler,
			handler.NewSyncHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				http.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
			fx.Annotate(
				syncworker.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
