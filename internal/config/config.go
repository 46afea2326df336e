package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	// DatadirKey is the local data directory to store the internal state of the
	// daemon
	DatadirKey = "DATADIR"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// HTTPListeningPortKey is the port where the HTTP interface will listen on
	HTTPListeningPortKey = "HTTP_LISTENING_PORT"
	// HTTPMaxConnectionsKey is the max number of simultaneous connections
	// accepted by the HTTP interface
	HTTPMaxConnectionsKey = "HTTP_MAX_CONNECTIONS"
	// DBTypeKey is used to switch database type between those supported
	DBTypeKey = "DB_TYPE"
	// OwnerAddressKey is the only account allowed to deposit and withdraw
	OwnerAddressKey = "OWNER_ADDRESS"
	// SwapSlippageKey is the fraction of the oracle estimate a harvest swap is
	// allowed to lose
	SwapSlippageKey = "SWAP_SLIPPAGE"
	// SwapDeadlineKey is the validity of harvest swaps in seconds
	SwapDeadlineKey = "SWAP_DEADLINE"
	// SwapPathKey is the comma separated list of assets rewards are swapped
	// through, from the reward to the underlying
	SwapPathKey = "SWAP_PATH"
	// GuardTimeoutKey is how long in seconds an operation waits for the one
	// in progress
	GuardTimeoutKey = "GUARD_TIMEOUT"
	// AuthSecretKey is the HS256 secret bearer tokens of the HTTP interface
	// are verified with. Requests are not authenticated if empty
	AuthSecretKey = "AUTH_SECRET"
	// PriceSourceKey selects the oracle bounding harvest swaps
	PriceSourceKey = "PRICE_SOURCE"
	// PriceMaxAgeKey is the age in seconds after which a price is stale
	PriceMaxAgeKey = "PRICE_MAX_AGE"
	// KrakenTickerKey is the Kraken pair used to price the reward
	KrakenTickerKey = "KRAKEN_TICKER"
	// EnableProfilerKey enables profiler that can be used to investigate performance issues
	EnableProfilerKey = "ENABLE_PROFILER"
	// StatsIntervalKey defines interval for printing basic statistics
	StatsIntervalKey = "STATS_INTERVAL"
	// WebhookRateLimitKey is the max number of webhook notifications sent per
	// second
	WebhookRateLimitKey = "WEBHOOK_RATE_LIMIT"
	// DevnetSupplyRateKey is the yearly interest rate of the devnet market
	DevnetSupplyRateKey = "DEVNET_SUPPLY_RATE"
	// DevnetRewardSpeedKey is the reward distributed each second by the devnet
	// market
	DevnetRewardSpeedKey = "DEVNET_REWARD_SPEED"
	// DevnetRewardReserveKey is the reward held by the devnet market
	DevnetRewardReserveKey = "DEVNET_REWARD_RESERVE"
	// DevnetOwnerFundsKey is the underlying given to the owner at genesis
	DevnetOwnerFundsKey = "DEVNET_OWNER_FUNDS"

	DbLocation       = "db"
	ProfilerLocation = "stats"

	DBBadger   = "badger"
	DBInMemory = "inmemory"

	PriceSourceSpot   = "spot"
	PriceSourceKraken = "kraken"

	// DefaultOwnerAddress is the devnet owner account.
	DefaultOwnerAddress = "0x00000000000000000000000000000000000a11ce"
)

var (
	vip            *viper.Viper
	defaultDatadir = btcutil.AppDataDir("tdex-yield", false)

	supportedDBs          = map[string]struct{}{DBBadger: {}, DBInMemory: {}}
	supportedPriceSources = map[string]struct{}{
		PriceSourceSpot: {}, PriceSourceKraken: {},
	}
)

func InitConfig() error {
	vip = viper.New()
	vip.SetEnvPrefix("YIELD")
	vip.AutomaticEnv()

	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(HTTPListeningPortKey, 9090)
	vip.SetDefault(HTTPMaxConnectionsKey, 100)
	vip.SetDefault(DBTypeKey, DBBadger)
	vip.SetDefault(OwnerAddressKey, DefaultOwnerAddress)
	vip.SetDefault(SwapSlippageKey, 0.05)
	vip.SetDefault(SwapDeadlineKey, 300)
	vip.SetDefault(SwapPathKey, "COMP,WETH,DAI")
	vip.SetDefault(GuardTimeoutKey, 30)
	vip.SetDefault(PriceSourceKey, PriceSourceSpot)
	vip.SetDefault(PriceMaxAgeKey, 60)
	vip.SetDefault(KrakenTickerKey, "COMP/USD")
	vip.SetDefault(EnableProfilerKey, false)
	vip.SetDefault(StatsIntervalKey, 600)
	vip.SetDefault(WebhookRateLimitKey, 10)
	vip.SetDefault(DevnetSupplyRateKey, 0.05)
	vip.SetDefault(DevnetRewardSpeedKey, 0.0001)
	vip.SetDefault(DevnetRewardReserveKey, 10000)
	vip.SetDefault(DevnetOwnerFundsKey, 10000)

	if err := validate(); err != nil {
		return fmt.Errorf("error while validating config: %s", err)
	}

	if err := initDatadir(); err != nil {
		return fmt.Errorf("error while creating datadir: %s", err)
	}

	return nil
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetFloat(key string) float64 {
	return vip.GetFloat64(key)
}

func GetBool(key string) bool {
	return vip.GetBool(key)
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

// GetDecimal returns the value of key parsed as an exact decimal.
func GetDecimal(key string) decimal.Decimal {
	d, _ := decimal.NewFromString(GetString(key))
	return d
}

// GetSeconds returns the value of key, expressed in seconds, as a duration.
func GetSeconds(key string) time.Duration {
	return time.Duration(GetInt(key)) * time.Second
}

func GetAddress(key string) common.Address {
	return common.HexToAddress(GetString(key))
}

func GetList(key string) []string {
	list := make([]string, 0)
	for _, s := range strings.Split(GetString(key), ",") {
		if s = strings.TrimSpace(s); s != "" {
			list = append(list, s)
		}
	}
	return list
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("missing datadir")
	}

	if _, ok := supportedDBs[GetString(DBTypeKey)]; !ok {
		return fmt.Errorf("unsupported db type %s", GetString(DBTypeKey))
	}
	if _, ok := supportedPriceSources[GetString(PriceSourceKey)]; !ok {
		return fmt.Errorf("unsupported price source %s", GetString(PriceSourceKey))
	}

	owner := GetString(OwnerAddressKey)
	if !common.IsHexAddress(owner) || GetAddress(OwnerAddressKey) == (common.Address{}) {
		return fmt.Errorf("invalid owner address %s", owner)
	}

	for _, key := range []string{
		SwapSlippageKey, DevnetSupplyRateKey, DevnetRewardSpeedKey,
		DevnetRewardReserveKey, DevnetOwnerFundsKey,
	} {
		d, err := decimal.NewFromString(GetString(key))
		if err != nil {
			return fmt.Errorf("invalid %s: %s", key, err)
		}
		if d.IsNegative() {
			return fmt.Errorf("%s must not be negative", key)
		}
	}
	if GetDecimal(SwapSlippageKey).GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("%s must be lower than 1", SwapSlippageKey)
	}

	if len(GetList(SwapPathKey)) < 2 {
		return fmt.Errorf("%s must contain at least 2 assets", SwapPathKey)
	}

	for _, key := range []string{
		SwapDeadlineKey, GuardTimeoutKey, PriceMaxAgeKey, HTTPMaxConnectionsKey,
		WebhookRateLimitKey, StatsIntervalKey,
	} {
		if GetInt(key) <= 0 {
			return fmt.Errorf("%s must be greater than zero", key)
		}
	}

	port := GetInt(HTTPListeningPortKey)
	if port <= 0 || port > 65535 {
		return fmt.Errorf("invalid %s %d", HTTPListeningPortKey, port)
	}

	return nil
}

func initDatadir() error {
	datadir := GetDatadir()
	if GetString(DBTypeKey) == DBBadger {
		if err := makeDirectoryIfNotExists(filepath.Join(datadir, DbLocation)); err != nil {
			return err
		}
	}

	profilerEnabled := GetBool(EnableProfilerKey)
	if profilerEnabled {
		if err := makeDirectoryIfNotExists(filepath.Join(datadir, ProfilerLocation)); err != nil {
			return err
		}
	}
	return nil
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
