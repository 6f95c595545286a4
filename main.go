package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"
	"github.com/iqbalbaharum/anyix-swap/internal/adapter"
	"github.com/iqbalbaharum/anyix-swap/internal/anyix"
	"github.com/iqbalbaharum/anyix-swap/internal/cache"
	"github.com/iqbalbaharum/anyix-swap/internal/config"
	"github.com/iqbalbaharum/anyix-swap/internal/handler"
	"github.com/iqbalbaharum/anyix-swap/internal/instructions"
	"github.com/iqbalbaharum/anyix-swap/internal/jupiter"
	bot "github.com/iqbalbaharum/anyix-swap/internal/library"
	"github.com/iqbalbaharum/anyix-swap/internal/pool"
	"github.com/iqbalbaharum/anyix-swap/internal/rpc"
	"github.com/iqbalbaharum/anyix-swap/internal/storage"
	"github.com/sirupsen/logrus"
)

type Server struct {
	Router *chi.Mux
}

func CreateServer(services handler.Services) *Server {
	server := &Server{
		Router: handler.CreateRoutes(services),
	}

	return server
}

const (
	relayWorkers    = 2
	routeCacheSize  = 64
	shutdownTimeout = 10 * time.Second
)

var log = logrus.New()

func main() {
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"})
	log.Infof("Number of CPUs being used: %d", runtime.GOMAXPROCS(0))

	if err := config.InitEnv(); err != nil {
		log.Fatalf("Failed to load environment: %v", err)
	}

	if level, err := logrus.ParseLevel(config.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.Warnf("unknown LOG_LEVEL %q, using info", config.LogLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := adapter.InitRedisClients(ctx, config.RedisAddr, config.RedisPassword, storage.REDIS_DB_DECIMALS, storage.REDIS_DB_ROUTES); err != nil {
		log.Fatalf("Failed to initialize Redis clients: %v", err)
	}
	defer adapter.CloseRedisClients()

	if err := adapter.InitMySQLClient(ctx, config.MysqlDsn, config.MysqlDbName, "migrations"); err != nil {
		log.Fatalf("Failed to initialize SQL client: %v", err)
	}

	if err := loadStorage(); err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	log.Info("Initialized ENVIRONMENT successfully")

	rpcClient := rpc.NewClient(config.RpcHttpUrl, log)
	jupiterClient := jupiter.NewClient(config.JupiterApiUrl, config.JupiterPriceUrl, config.JupiterRps, log)
	decimals := cache.NewDecimalsResolver(rpcClient, storage.Decimals, log)

	routeCache, err := newRouteCache(ctx, jupiterClient, decimals)
	if err != nil {
		log.Fatalf("Failed to initialize route cache: %v", err)
	}

	swapper, err := newSwapper(ctx, jupiterClient, rpcClient, decimals)
	if err != nil {
		log.Fatalf("Failed to initialize swapper: %v", err)
	}

	server := CreateServer(handler.Services{
		Swapper:  swapper,
		Routes:   routeCache,
		History:  storage.Swap,
		Prices:   jupiterClient,
		Balances: rpcClient,
		Account:  config.Payer.PublicKey(),
	})

	httpServer := &http.Server{
		Addr:    ":" + config.Port,
		Handler: server.Router,
	}

	go func() {
		log.Infof("server running on port :%s", config.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("http server: %v", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Error shutting down server: %v", err)
	}
	if closer, ok := swapper.Confirmer.(*rpc.WsRpc); ok {
		closer.Close()
	}
	if relays, ok := swapper.Relays.(*pool.RelayPool); ok {
		relays.Close()
	}
}

func loadStorage() error {
	mySqlClient, err := adapter.GetMySQLClient()
	if err != nil {
		return err
	}

	decimalsClient, err := adapter.GetRedisClient(storage.REDIS_DB_DECIMALS)
	if err != nil {
		return err
	}

	routesClient, err := adapter.GetRedisClient(storage.REDIS_DB_ROUTES)
	if err != nil {
		return err
	}

	storage.Init(mySqlClient, decimalsClient, routesClient)
	return nil
}

// newRouteCache restores persisted routes and keeps the configured pairs warm.
func newRouteCache(ctx context.Context, source *jupiter.Client, decimals *cache.DecimalsResolver) (*cache.RouteCache, error) {
	routeCache := cache.NewRouteCache(routeCacheSize, source, decimals, log)
	routeCache.Store = storage.Routes

	if config.Routes.PlatformFee != "" {
		fee, err := jupiter.ParseFeeBps(config.Routes.PlatformFee)
		if err != nil {
			return nil, err
		}
		routeCache.Options = append(routeCache.Options, jupiter.WithFeeBps(fee))
	}

	restored, err := routeCache.Restore(ctx)
	if err != nil {
		log.Warnf("route cache restore failed: %v", err)
	} else {
		log.Infof("restored %d cached routes", restored)
	}

	targets := make([]cache.Target, 0, len(config.Routes.Pairs))
	for _, pair := range config.Routes.Pairs {
		in, err := solana.PublicKeyFromBase58(pair.Input)
		if err != nil {
			return nil, err
		}
		out, err := solana.PublicKeyFromBase58(pair.Output)
		if err != nil {
			return nil, err
		}
		targets = append(targets, cache.Target{
			Pair:     cache.Pair{Input: in, Output: out},
			UIAmount: pair.UIAmount,
		})
	}

	if len(targets) > 0 {
		go routeCache.Run(ctx, config.RouteRefresh, targets)
	}

	return routeCache, nil
}

func newSwapper(ctx context.Context, aggregator *jupiter.Client, rpcClient *rpc.Client, decimals *cache.DecimalsResolver) (*bot.Swapper, error) {
	slippage, err := jupiter.ParseSlippage(config.Routes.Slippage)
	if err != nil {
		return nil, err
	}

	replacements, err := config.Routes.ReplacementMap()
	if err != nil {
		return nil, err
	}

	markets, err := jupiter.NewMarketFilter(config.Routes.Markets.Whitelist, config.Routes.Markets.Blacklist)
	if err != nil {
		return nil, err
	}

	swapper := bot.NewSwapper(bot.SwapperConfig{
		Payer:        config.Payer.PrivateKey,
		Program:      config.AnyIxProgram,
		Management:   config.AnyIxManagement,
		Vault:        config.AnyIxVault,
		VaultPda:     config.AnyIxVaultPda,
		Replacements: replacements,
		Slippage:     slippage,
		Compute: instructions.ComputeUnit{
			MicroLamports: config.ComputePrice,
			Units:         uint32(config.ComputeUnits),
		},
		MaxTries:       config.MaxTries,
		RetryInterval:  config.RetryInterval,
		ConfirmTimeout: config.ConfirmTimeout,
		SkipPreflight:  config.SkipPreflight,
		FailOnSetup:    config.FailOnSetup,
	}, aggregator, rpcClient, anyix.NewPipeline(log, rpcClient), log)

	swapper.Markets = markets
	swapper.History = storage.Swap
	swapper.Decimals = decimals

	if !config.SkipPreflight {
		wsRpc, err := rpc.NewWsRpc(ctx, config.RpcWsUrl, log)
		if err != nil {
			return nil, err
		}
		swapper.Confirmer = wsRpc
	}

	var relays []pool.Relay
	switch config.SendMode {
	case config.SendModeJito:
		relays = append(relays, rpc.NewJitoClient(config.BlockEngineUrl, log))
	case config.SendModeBloxroute:
		relays = append(relays, rpc.NewBloxRouteClient(config.BloxRouteUrl, config.BloxRouteToken, true))
	}
	if config.RelayBroadcast && config.SendMode != config.SendModeRpc {
		if config.SendMode != config.SendModeJito && config.BlockEngineUrl != "" {
			relays = append(relays, rpc.NewJitoClient(config.BlockEngineUrl, log))
		}
		if config.SendMode != config.SendModeBloxroute && config.BloxRouteUrl != "" {
			relays = append(relays, rpc.NewBloxRouteClient(config.BloxRouteUrl, config.BloxRouteToken, true))
		}
	}

	if len(relays) > 0 {
		relayPool, err := pool.NewRelayPool(relays, relayWorkers, log)
		if err != nil {
			return nil, err
		}
		swapper.Relays = relayPool
	}

	return swapper, nil
}
