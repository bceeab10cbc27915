package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"circ-supply/pkg/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config 定义整个配置的结构
type Config struct {
	Log           LogConfig           `mapstructure:"log"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Solana        SolanaConfig        `mapstructure:"solana"`
	Supply        SupplyConfig        `mapstructure:"supply"`
	LockedWallets LockedWalletsConfig `mapstructure:"locked_wallets"`
	Worker        WorkerConfig        `mapstructure:"worker"`
	Monitor       MonitorConfig       `mapstructure:"monitor"`
	API           APIConfig           `mapstructure:"api"`
}

// RedisConfig Redis 配置，address 为空时不启用
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// DatabaseConfig driver: postgres | mysql
type DatabaseConfig struct {
	Driver      string `mapstructure:"driver"`
	DSN         string `mapstructure:"dsn"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

type SolanaConfig struct {
	RPCURL     string `mapstructure:"rpc_url"`
	RateLimit  int    `mapstructure:"rate_limit"` // requests per second, 0 = unlimited
	TimeoutSec int    `mapstructure:"timeout_sec"`
}

type SupplyConfig struct {
	TokenMint       string `mapstructure:"token_mint"`
	BatchSize       int    `mapstructure:"batch_size"`
	BatchDelayMs    int    `mapstructure:"batch_delay_ms"`
	MaxRPCRetries   int    `mapstructure:"max_rpc_retries"`
	RetryBaseMs     int    `mapstructure:"retry_base_ms"`
	RetryCapMs      int    `mapstructure:"retry_cap_ms"`
	DecimalsDisplay int    `mapstructure:"token_decimals"`
}

// LockedWalletsConfig source 为文件路径或 http(s) URL
type LockedWalletsConfig struct {
	Source     string `mapstructure:"source"`
	TimeoutSec int    `mapstructure:"timeout_sec"`
}

// LogConfig Log 日志配置
type LogConfig struct {
	Level string `mapstructure:"level"`
	Dir   string `mapstructure:"dir"`
}

type WorkerConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type MonitorConfig struct {
	Enable         bool   `mapstructure:"enable"`
	PrometheusAddr string `mapstructure:"prometheus_addr"`
}

type APIConfig struct {
	Addr string `mapstructure:"addr"`
}

func (s SupplyConfig) BatchDelay() time.Duration {
	return time.Duration(s.BatchDelayMs) * time.Millisecond
}

func (s SupplyConfig) RetryBase() time.Duration {
	return time.Duration(s.RetryBaseMs) * time.Millisecond
}

func (s SupplyConfig) RetryCap() time.Duration {
	return time.Duration(s.RetryCapMs) * time.Millisecond
}

// env 变量名与原有部署保持一致
var envBindings = map[string]string{
	"solana.rpc_url":          "RPC_URL",
	"supply.token_mint":       "TOKEN_MINT",
	"supply.batch_size":       "BATCH_SIZE",
	"supply.batch_delay_ms":   "BATCH_DELAY_MS",
	"supply.max_rpc_retries":  "MAX_RPC_RETRIES",
	"supply.token_decimals":   "TOKEN_DECIMALS",
	"locked_wallets.source":   "LOCKED_WALLETS_JSON",
	"database.dsn":            "DATABASE_DSN",
	"database.driver":         "DATABASE_DRIVER",
	"redis.address":           "REDIS_ADDRESS",
	"redis.password":          "REDIS_PASSWORD",
	"log.level":               "LOG_LEVEL",
	"api.addr":                "API_ADDR",
	"monitor.prometheus_addr": "PROMETHEUS_ADDR",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.dir", "logs")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("solana.rate_limit", 0)
	v.SetDefault("solana.timeout_sec", 30)
	v.SetDefault("supply.batch_size", 5)
	v.SetDefault("supply.batch_delay_ms", 1000)
	v.SetDefault("supply.max_rpc_retries", 3)
	v.SetDefault("supply.retry_base_ms", 500)
	v.SetDefault("supply.retry_cap_ms", 3000)
	v.SetDefault("supply.token_decimals", 9)
	v.SetDefault("locked_wallets.source", "data/locked-wallets.json")
	v.SetDefault("locked_wallets.timeout_sec", 15)
	v.SetDefault("worker.interval", "10m")
	v.SetDefault("api.addr", ":8080")
}

// Load reads config/config.worker.yaml (optional) and the environment.
func Load(v *viper.Viper) (Config, error) {
	var config Config

	v.SetConfigName("config.worker")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config/")
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return config, err
		}
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("read config file: %w", err)
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.ComposeDecodeHookFunc(mapstructure.StringToTimeDurationHookFunc()),
		WeaklyTypedInput: true,
		Result:           &config,
	})
	if err != nil {
		return config, err
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return config, fmt.Errorf("decode config: %w", err)
	}
	return config, nil
}

func InitConfig() Config {
	config, err := Load(viper.GetViper())
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %s", err))
	}
	return config
}

// reloadMu 保护热加载对共享 Config 的整体替换
var reloadMu sync.RWMutex

// Snapshot returns a copy of config that is safe to read while a reload runs.
func Snapshot(config *Config) Config {
	reloadMu.RLock()
	defer reloadMu.RUnlock()
	return *config
}

func WatchConfig(config *Config) {
	if viper.ConfigFileUsed() == "" {
		return
	}
	viper.WatchConfig()
	viper.OnConfigChange(func(e fsnotify.Event) {
		newConfig, err := Load(viper.GetViper())
		if err != nil {
			return
		}
		reloadMu.Lock()
		*config = newConfig
		reloadMu.Unlock()
		logger.SetLogLevel(newConfig.Log.Level)
	})
}
