package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/crewzcontrol/quotesync/internal/cli"
	"github.com/crewzcontrol/quotesync/internal/device"
	"github.com/crewzcontrol/quotesync/internal/quotes"
	"github.com/crewzcontrol/quotesync/pkg/config"
	"github.com/crewzcontrol/quotesync/pkg/crewz"
	pkgerrors "github.com/crewzcontrol/quotesync/pkg/errors"
	"github.com/crewzcontrol/quotesync/pkg/logger"
	"github.com/crewzcontrol/quotesync/pkg/metrics"
	"github.com/crewzcontrol/quotesync/pkg/redis"
	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	if err := run(); err != nil {
		message := err.Error()
		if pkgerrors.As(err) != nil {
			message = pkgerrors.UserMessage(err)
		}
		fmt.Fprintf(os.Stderr, "Error: %s\n", message)
		os.Exit(1)
	}
}

func run() error {
	logg := logger.New(logger.Options{ServiceName: "quotectl"})

	if err := godotenv.Load(); err != nil {
		logg.Debug(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	format := cfg.App.LogFormat
	if cfg.App.IsDev() && isatty.IsTerminal(os.Stderr.Fd()) {
		format = "console"
	}
	logg = logger.New(logger.Options{
		ServiceName: "quotectl",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      format,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithField(ctx, "env", cfg.App.Env)

	var store device.Store = device.NewMemoryStore()
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(ctx, "error closing redis", err)
			}
		}()
		store = redisClient
	} else {
		logg.Warn(ctx, "redis not configured; sign-in will not persist between runs")
	}

	creds, err := device.NewCredentials(store)
	if err != nil {
		return err
	}
	resolver, err := device.NewResolver(device.ResolverParams{
		Identity:    device.IdentityFromConfig(cfg.Device),
		Location:    device.LocationFromConfig(cfg.Location),
		Credentials: creds,
		Logger:      logg,
	})
	if err != nil {
		return err
	}

	callMetrics := metrics.NewRemoteCallMetrics(prometheus.DefaultRegisterer)
	client, err := crewz.NewClient(cfg.Remote.BaseURL,
		crewz.WithClientVersion(cfg.Remote.ClientVersion),
		crewz.WithTimeout(cfg.Remote.Timeout),
		crewz.WithLogger(logg),
		crewz.WithMetrics(callMetrics),
	)
	if err != nil {
		return err
	}

	session, err := quotes.NewSession(quotes.SessionParams{
		Caller:   client,
		Resolver: resolver,
		Logger:   logg,
		Metrics:  callMetrics,
	})
	if err != nil {
		return err
	}
	defer session.Close()

	root := cli.NewRootCmd(&cli.App{Session: session, Auth: resolver})
	return root.ExecuteContext(ctx)
}
