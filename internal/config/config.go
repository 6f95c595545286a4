package config

import (
	"os"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

var (
	WRAPPED_SOL              = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	USDC_MINT                = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	ASSOCIATED_TOKEN_PROGRAM = solana.MustPublicKeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
	JUPITER_V3               = solana.MustPublicKeyFromBase58("JUP3c2Uh3WA4Ng34tw6kPd2G4C5BB21Xo36Je1s32Ph")
	JUPITER_V6               = solana.MustPublicKeyFromBase58("JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4")
	LAMPORTS_PER_SOL         = 1000000000
)

const (
	SendModeRpc       = "rpc"
	SendModeJito      = "jito"
	SendModeBloxroute = "bloxroute"
)

var (
	Payer           *solana.Wallet
	RpcHttpUrl      string
	RpcWsUrl        string
	JupiterApiUrl   string
	JupiterPriceUrl string
	JupiterRps      float64
	AnyIxProgram    solana.PublicKey
	AnyIxManagement solana.PublicKey
	AnyIxVault      solana.PublicKey
	AnyIxVaultPda   solana.PublicKey
	MaxTries        uint64
	RetryInterval   time.Duration
	ConfirmTimeout  time.Duration
	RouteRefresh    time.Duration
	ComputeUnits    uint64
	ComputePrice    uint64
	SkipPreflight   bool
	FailOnSetup     bool
	SendMode        string
	RelayBroadcast  bool
	BlockEngineUrl  string
	BloxRouteUrl    string
	BloxRouteToken  string
	RedisAddr       string
	RedisPassword   string
	MysqlDsn        string
	MysqlDbName     string
	Port            string
	LogLevel        string
	Routes          *RouteConfig
)

func InitEnv() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "load .env")
	}

	pay, err := solana.WalletFromPrivateKeyBase58(os.Getenv("PAYER_PRIVATE_KEY"))
	if err != nil {
		return errors.Wrap(err, "PAYER_PRIVATE_KEY")
	}
	Payer = pay

	for name, dst := range map[string]*solana.PublicKey{
		"ANYIX_PROGRAM":    &AnyIxProgram,
		"ANYIX_MANAGEMENT": &AnyIxManagement,
		"ANYIX_VAULT":      &AnyIxVault,
		"ANYIX_VAULT_PDA":  &AnyIxVaultPda,
	} {
		key, err := solana.PublicKeyFromBase58(os.Getenv(name))
		if err != nil {
			return errors.Wrap(err, name)
		}
		*dst = key
	}

	RpcHttpUrl = getEnv("RPC_HTTP_URL", "https://api.mainnet-beta.solana.com")
	RpcWsUrl = getEnv("RPC_WS_URL", "wss://api.mainnet-beta.solana.com")
	JupiterApiUrl = getEnv("JUPITER_API_URL", "https://quote-api.jup.ag/v6/")
	JupiterPriceUrl = getEnv("JUPITER_PRICE_URL", "https://price.jup.ag/v4/")
	SendMode = getEnv("SEND_MODE", SendModeRpc)
	BlockEngineUrl = os.Getenv("BLOCKENGINE_URL")
	BloxRouteUrl = os.Getenv("BLOXROUTE_URL")
	BloxRouteToken = os.Getenv("BLOXROUTE_TOKEN")
	RedisAddr = os.Getenv("REDIS_ADDR")
	RedisPassword = os.Getenv("REDIS_PASSWORD")
	MysqlDsn = os.Getenv("MYSQL_DSN")
	MysqlDbName = getEnv("MYSQL_DB_NAME", "anyix")
	Port = getEnv("PORT", "8080")
	LogLevel = getEnv("LOG_LEVEL", "info")

	SkipPreflight = os.Getenv("SKIP_PREFLIGHT") == "true"
	FailOnSetup = os.Getenv("FAIL_ON_SETUP") == "true"
	RelayBroadcast = os.Getenv("RELAY_BROADCAST") == "true"

	if JupiterRps, err = strconv.ParseFloat(getEnv("JUPITER_RPS", "10"), 64); err != nil {
		return errors.Wrap(err, "JUPITER_RPS")
	}
	if MaxTries, err = strconv.ParseUint(getEnv("MAX_TRIES", "3"), 10, 64); err != nil {
		return errors.Wrap(err, "MAX_TRIES")
	}
	if ComputeUnits, err = strconv.ParseUint(getEnv("COMPUTE_UNIT_LIMIT", "0"), 10, 32); err != nil {
		return errors.Wrap(err, "COMPUTE_UNIT_LIMIT")
	}
	if ComputePrice, err = strconv.ParseUint(getEnv("COMPUTE_UNIT_PRICE", "0"), 10, 64); err != nil {
		return errors.Wrap(err, "COMPUTE_UNIT_PRICE")
	}
	if RetryInterval, err = time.ParseDuration(getEnv("RETRY_INTERVAL", "500ms")); err != nil {
		return errors.Wrap(err, "RETRY_INTERVAL")
	}
	if ConfirmTimeout, err = time.ParseDuration(getEnv("CONFIRM_TIMEOUT", "60s")); err != nil {
		return errors.Wrap(err, "CONFIRM_TIMEOUT")
	}
	if RouteRefresh, err = time.ParseDuration(getEnv("ROUTE_REFRESH_INTERVAL", "30s")); err != nil {
		return errors.Wrap(err, "ROUTE_REFRESH_INTERVAL")
	}

	switch SendMode {
	case SendModeRpc, SendModeJito, SendModeBloxroute:
	default:
		return errors.Errorf("SEND_MODE %q is not one of rpc, jito, bloxroute", SendMode)
	}

	Routes = DefaultRouteConfig()
	if path := os.Getenv("ROUTE_CONFIG"); path != "" {
		if Routes, err = LoadRouteConfig(path); err != nil {
			return err
		}
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
