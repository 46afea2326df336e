package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/tdex-yield/internal/config"
	"github.com/tdex-network/tdex-yield/internal/core/application/pubsub"
	"github.com/tdex-network/tdex-yield/internal/core/application/yield"
	"github.com/tdex-network/tdex-yield/internal/core/ports"
	"github.com/tdex-network/tdex-yield/internal/infrastructure/devnet"
	krakenoracle "github.com/tdex-network/tdex-yield/internal/infrastructure/oracle/kraken"
	webhookpubsub "github.com/tdex-network/tdex-yield/internal/infrastructure/pubsub"
	dbbadger "github.com/tdex-network/tdex-yield/internal/infrastructure/storage/db/badger"
	"github.com/tdex-network/tdex-yield/internal/infrastructure/storage/db/inmemory"
	httpinterface "github.com/tdex-network/tdex-yield/internal/interfaces/http"
	"github.com/tdex-network/tdex-yield/pkg/stats"
)

func main() {
	if err := config.InitConfig(); err != nil {
		log.WithError(err).Fatal("failed to initialize config")
	}
	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))

	datadir := config.GetDatadir()
	dbDir := filepath.Join(datadir, config.DbLocation)
	profilerDir := filepath.Join(datadir, config.ProfilerLocation)

	// badger is noisy, its logs are limited to warnings and errors.
	dbLogger := log.New()
	dbLogger.SetLevel(log.WarnLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var repoManager ports.RepoManager
	var err error
	switch config.GetString(config.DBTypeKey) {
	case config.DBInMemory:
		repoManager = inmemory.NewRepoManager()
	default:
		repoManager, err = dbbadger.NewRepoManager(dbDir, dbLogger)
		if err != nil {
			log.WithError(err).Fatal("failed to open db")
		}
	}
	defer repoManager.Close()

	owner := config.GetAddress(config.OwnerAddressKey)
	env, err := devnet.New(devnet.Config{
		SupplyRate:    config.GetDecimal(config.DevnetSupplyRateKey),
		RewardSpeed:   config.GetDecimal(config.DevnetRewardSpeedKey),
		RewardReserve: config.GetDecimal(config.DevnetRewardReserveKey),
		Owner:         owner,
		OwnerFunds:    config.GetDecimal(config.DevnetOwnerFundsKey),
	})
	if err != nil {
		log.WithError(err).Fatal("failed to create devnet")
	}

	swapPath, err := env.ResolvePath(config.GetList(config.SwapPathKey))
	if err != nil {
		log.WithError(err).Fatal("invalid swap path")
	}

	oracle := env.Oracle
	if config.GetString(config.PriceSourceKey) == config.PriceSourceKraken {
		krakenOracle, err := krakenoracle.NewKrakenOracle(
			"", config.GetSeconds(config.PriceMaxAgeKey),
			[]krakenoracle.Market{{
				Base:   swapPath[0],
				Quote:  swapPath[len(swapPath)-1],
				Ticker: config.GetString(config.KrakenTickerKey),
			}},
		)
		if err != nil {
			log.WithError(err).Fatal("failed to create kraken oracle")
		}
		if err := krakenOracle.Start(); err != nil {
			log.WithError(err).Fatal("failed to start kraken oracle")
		}
		defer krakenOracle.Stop()
		oracle = krakenOracle
	}

	webhooks, err := webhookpubsub.NewService(
		datadir, dbLogger, append(pubsub.Topics(), ports.AnyTopic),
		config.GetInt(config.WebhookRateLimitKey),
	)
	if err != nil {
		log.WithError(err).Fatal("failed to create pubsub service")
	}
	pubsubSvc := pubsub.NewService(webhooks)
	defer pubsubSvc.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := stats.NewControllerMetrics(registry)
	if err != nil {
		log.WithError(err).Fatal("failed to register metrics")
	}

	if config.GetBool(config.EnableProfilerKey) {
		stats.EnableMemoryStatistics(
			ctx, config.GetSeconds(config.StatsIntervalKey),
			filepath.Join(profilerDir, "prometheus.txt"), registry,
		)
	}

	slippage := config.GetDecimal(config.SwapSlippageKey)
	controller, err := yield.NewController(yield.Config{
		Address:      devnet.ControllerAddress,
		Owner:        owner,
		Underlying:   env.DAI,
		Market:       env.Market,
		Exchange:     env.Router,
		Oracle:       oracle,
		Clock:        env.Ledger,
		RepoManager:  repoManager,
		Ledger:       env.Ledger,
		PubSub:       pubsubSvc,
		Metrics:      metrics,
		SwapPath:     swapPath,
		Slippage:     &slippage,
		SwapDeadline: config.GetSeconds(config.SwapDeadlineKey),
		GuardTimeout: config.GetSeconds(config.GuardTimeoutKey),
	})
	if err != nil {
		log.WithError(err).Fatal("failed to create controller")
	}

	svc, err := httpinterface.NewService(httpinterface.ServiceOpts{
		Port:           config.GetInt(config.HTTPListeningPortKey),
		MaxConnections: config.GetInt(config.HTTPMaxConnectionsKey),
		Controller:     controller,
		PubSub:         pubsubSvc,
		Devnet:         env,
		Gatherer:       registry,
		AuthSecret:     config.GetString(config.AuthSecretKey),
	})
	if err != nil {
		log.WithError(err).Fatal("failed to create http interface")
	}

	log.RegisterExitHandler(svc.Stop)

	log.Info("starting daemon")
	if err := svc.Start(); err != nil {
		log.WithError(err).Fatal("failed to start http interface")
	}
	log.Infof(
		"controller %s managing %s for %s",
		controller.Info().Address, controller.Info().Underlying.Symbol, owner,
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan

	log.Info("shutting down daemon")
	svc.Stop()
	log.Info("exiting")
}
