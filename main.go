package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/apt/middleware"

	"github.com/brewdeck/brewdeck/internal/catalog"
	"github.com/brewdeck/brewdeck/internal/mongo"
	"github.com/brewdeck/brewdeck/internal/order"
	"github.com/brewdeck/brewdeck/pkg"
)

const (
	appNamespace = "BREWDECK"
	appName      = "brewdeck"
	appVersion   = "0.1.0"
)

func main() {
	config, err := apt.LoadConfig(appNamespace, os.Args[1:])
	if err != nil {
		log.Fatalf("%s(%s) cannot setup: %v", appName, appVersion, err)
	}

	logLevel, _ := config.GetString("log.level")
	logger := apt.NewLogger(logLevel)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	seedCtx, cancelSeeds := context.WithCancel(ctx)
	defer cancelSeeds()

	baseRepo := mongo.NewBaseRepo(config, logger)
	err = baseRepo.Start(ctx)
	if err != nil {
		log.Fatalf("%s(%s) cannot start base repository: %v", appName, appVersion, err)
	}

	db := baseRepo.GetDatabase()
	if db == nil {
		log.Fatalf("%s(%s) cannot initialize repository database: %v", appName, appVersion, errors.New("repository database is nil"))
	}

	productRepo := mongo.NewProductRepo(db)
	orderRepo := mongo.NewOrderRepo(db)
	orderItemRepo := mongo.NewOrderItemRepo(db)

	repos := order.Repos{
		OrderRepo:     orderRepo,
		OrderItemRepo: orderItemRepo,
	}

	natsURL := config.GetStringOrDef("nats.url", "nats://localhost:4222")

	pub, err := pkg.NewNATSPublisher(natsURL)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to NATS publisher: %v", appName, appVersion, err)
	}

	sub, err := pkg.NewNATSSubscriber(natsURL)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to NATS subscriber: %v", appName, appVersion, err)
	}

	registry := catalog.DefaultRegistry()

	// The machine gateway exposes the last known sensor reading per ingredient
	// so the cache can warm up before the first live event arrives.
	machineURL, _ := config.GetString("services.machine.url")
	machineClient := apt.NewServiceClient(machineURL)
	stockCache := catalog.NewStockStateCache(machineClient, logger)

	// Stock readings ride JetStream when enabled so a reconnecting service
	// replays the readings it missed instead of serving stale availability.
	var stockSource events.Subscriber = sub
	var stockStream *pkg.NATSStream
	jetstreamEnabled := config.GetStringOrDef("nats.jetstream", "false")
	if jetstreamEnabled == "true" {
		stockStream, err = pkg.NewNATSStream(pkg.NATSStreamConfig{
			URL:          natsURL,
			StreamName:   "STOCK_EVENTS",
			Topic:        pkg.MachineStockTopic,
			ConsumerName: appName,
			MaxAge:       24 * time.Hour,
			MaxMsgs:      100_000,
		})
		if err != nil {
			log.Fatalf("%s(%s) cannot create stock stream: %v", appName, appVersion, err)
		}
		stockSource = stockStream
	}

	stockSub := catalog.NewStockSubscriber(stockSource, stockCache, registry, productRepo, pub, logger)
	machineStatusSub := order.NewMachineStatusSubscriber(sub, orderItemRepo, logger)

	publisherLifecycle := apt.LifecycleHooks{
		OnStop: func(context.Context) error {
			return pub.Close()
		},
	}

	subLifecycle := apt.LifecycleHooks{
		OnStop: func(context.Context) error {
			if stockStream != nil {
				_ = stockStream.Close()
			}
			return sub.Close()
		},
	}

	composer := order.NewComposer(registry, logger)

	catalogHandler := catalog.NewHandler(catalog.HandlerDeps{
		ProductRepo: productRepo,
		Registry:    registry,
		Stock:       stockCache,
	}, config, logger)

	orderHandler := order.NewHandler(order.HandlerDeps{
		Repos:       repos,
		ProductRepo: productRepo,
		Composer:    composer,
		Publisher:   pub,
	}, config, logger)

	// Setup demo seeding if enabled
	demoEnabled, _ := config.GetString("seeding.demo")
	var seedHooks apt.LifecycleHooks
	if demoEnabled == "true" {
		logger.Info("Demo seeding enabled")
		seedHooks = apt.LifecycleHooks{
			OnStart: catalog.DemoSeedingFunc(seedCtx, productRepo, db, logger),
			OnStop: func(context.Context) error {
				cancelSeeds()
				return nil
			},
		}
	}

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger:      logger,
		DisableCORS: false, // Kiosk UIs call this service directly
	})

	lifecycles := []interface{}{
		apt.LifecycleHooks{OnStop: baseRepo.Stop},
		stockSub,
		machineStatusSub,
		publisherLifecycle,
		subLifecycle,
	}
	if demoEnabled == "true" {
		lifecycles = append(lifecycles, seedHooks)
	}

	options := []apt.Option{
		apt.WithConfig(config),
		apt.WithLogger(logger),
		apt.WithHTTPMiddleware(stack...),
		apt.WithHTTPServerModules("web.port", catalogHandler, orderHandler),
		apt.WithLifecycle(lifecycles...),
		apt.WithHealthChecks(appName),
	}

	ms := apt.NewMicro(options...)
	logger.Infof("Starting %s(%s)", appName, appVersion)

	err = ms.Run(ctx)
	if err != nil {
		_ = baseRepo.Stop(context.Background())
		log.Fatalf("%s(%s) stopped: %v", appName, appVersion, err)
	}

	logger.Infof("%s(%s) stopped", appName, appVersion)
}
