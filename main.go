package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/kotrzina/skolmaten/pkg/config"
	"github.com/kotrzina/skolmaten/pkg/fetcher"
	"github.com/kotrzina/skolmaten/pkg/hass"
	"github.com/kotrzina/skolmaten/pkg/menu"
	"github.com/kotrzina/skolmaten/pkg/prometheus"
	"github.com/kotrzina/skolmaten/pkg/render"
	"github.com/kotrzina/skolmaten/pkg/scheduler"
	"github.com/kotrzina/skolmaten/pkg/store"
	"github.com/kotrzina/skolmaten/pkg/web"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	// for development purposes
	// we don't care about errors here
	_ = godotenv.Load(".env")
	conf := config.NewConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := createLogger(conf.Debug)
	mon := prometheus.New()

	storage, err := createStore(ctx, conf)
	if err != nil {
		logger.Fatalf("Could not create store: %v", err)
	}

	vocabulary := menu.DefaultVocabulary().
		WithWeekdays(conf.WeekdayNames).
		WithNextWeek(conf.NextWeekLabels)

	menuFetcher := fetcher.New(
		createRenderer(conf, logger),
		vocabulary,
		conf.MenuBaseURL,
		conf.ReadyTimeout,
		logger,
	)

	sched := scheduler.New(
		conf,
		menuFetcher,
		hass.New(conf.HassURL, conf.SupervisorToken, logger),
		storage,
		mon,
		logger,
	)

	router := web.NewRouter(web.NewHandlerRepository(sched, storage, mon, logger))

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sched.Run(gCtx)
	})
	g.Go(func() error {
		return web.StartServer(gCtx, router, conf.Port, logger)
	})

	if err := g.Wait(); err != nil {
		logger.Errorf("Stopped with error: %v", err)
		os.Exit(1)
	}
	logger.Info("Stopped")
}

func createLogger(debug bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)
	if debug {
		logger.SetLevel(logrus.DebugLevel)
	}

	return logger
}

func createStore(ctx context.Context, conf *config.Config) (store.Storage, error) {
	switch conf.Store {
	case config.StoreRedis:
		return store.NewRedisStore(ctx, conf), nil
	case config.StorePostgres:
		return store.NewPostgresStore(ctx, conf.DBString)
	default:
		return store.NewFakeStore(), nil
	}
}

func createRenderer(conf *config.Config, logger *logrus.Logger) render.Renderer {
	if conf.Renderer == config.RendererStatic {
		return render.NewStatic(logger)
	}
	return render.NewChrome(conf.ChromeBin, logger)
}
