package config

import (
	"fmt"
	"strings"

	"github.com/shouyin-pos/internal/logger"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Checkout CheckoutConfig `mapstructure:"checkout"`
	Tax      TaxConfig      `mapstructure:"tax"`
	Currency CurrencyConfig `mapstructure:"currency"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release
}

// LogConfig 日志配置
type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 本地库配置
type DatabaseConfig struct {
	Driver string             `mapstructure:"driver"` // 数据库驱动（sqlite/postgres）
	DSN    string             `mapstructure:"dsn"`    // 数据库连接串
	Pool   DatabasePoolConfig `mapstructure:"pool"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
}

// SyncConfig 离线同步配置
type SyncConfig struct {
	GatewayBaseURL  string `mapstructure:"gateway_base_url"` // 服务端网关地址
	DeviceID        string `mapstructure:"device_id"`        // 终端设备标识
	IntervalSeconds int    `mapstructure:"interval_seconds"` // 定时排空间隔
	TimeoutMS       int    `mapstructure:"timeout_ms"`       // 单请求超时
	BatchLimit      int    `mapstructure:"batch_limit"`      // 单轮最多处理条数（0 不限制）
}

// CheckoutConfig 收银配置
type CheckoutConfig struct {
	StackingPolicy         string `mapstructure:"stacking_policy"`          // none/promos_only/coupons_only/allow_both
	ManualDiscountCapPct   int    `mapstructure:"manual_discount_cap_pct"`  // 手动折扣上限百分比
	Channel                string `mapstructure:"channel"`                  // 本终端销售渠道
	SnapshotStaleTolerated bool   `mapstructure:"snapshot_stale_tolerated"` // 快照过期时是否继续售卖
}

// CashRoundingConfig 现金取整配置
type CashRoundingConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Increment string `mapstructure:"increment"` // 最小现金单位，例如 0.05
}

// TaxConfig 税费配置（离线兜底值，服务端下发后以设置缓存为准）
type TaxConfig struct {
	PriceMode        string             `mapstructure:"price_mode"`       // tax_inclusive/tax_exclusive
	DefaultRate      string             `mapstructure:"default_rate"`     // 默认税率，例如 0.15
	Precision        int                `mapstructure:"precision"`        // 金额小数位
	RoundingStrategy string             `mapstructure:"rounding"`         // half_up/bankers
	ReceiptRounding  string             `mapstructure:"receipt_rounding"` // none/half_up/bankers
	CashRounding     CashRoundingConfig `mapstructure:"cash_rounding"`
}

// CurrencyConfig 币种配置
type CurrencyConfig struct {
	Code string `mapstructure:"code"`
}

// Load 从 config.yml 加载配置
func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")     // 从当前目录查找
	viper.AddConfigPath("../")   // 如果从 cmd/server 运行
	viper.AddConfigPath("./etc") // etc 文件夹

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", "8090")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("log.dir", "")
	viper.SetDefault("log.filename", "pos.log")
	viper.SetDefault("log.max_size_mb", 100)
	viper.SetDefault("log.max_backups", 7)
	viper.SetDefault("log.max_age_days", 30)
	viper.SetDefault("log.compress", true)
	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.dsn", "./db/shouyin.db")
	viper.SetDefault("database.pool.max_open_conns", 1)
	viper.SetDefault("database.pool.max_idle_conns", 1)
	viper.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	viper.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "127.0.0.1")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.prefix", "sy")
	viper.SetDefault("queue.enabled", false)
	viper.SetDefault("queue.host", "127.0.0.1")
	viper.SetDefault("queue.port", 6379)
	viper.SetDefault("queue.password", "")
	viper.SetDefault("queue.db", 1)
	viper.SetDefault("queue.concurrency", 5)
	viper.SetDefault("queue.queues", map[string]int{
		"default": 10,
	})
	viper.SetDefault("sync.gateway_base_url", "http://127.0.0.1:8080")
	viper.SetDefault("sync.device_id", "")
	viper.SetDefault("sync.interval_seconds", 15)
	viper.SetDefault("sync.timeout_ms", 8000)
	viper.SetDefault("sync.batch_limit", 0)
	viper.SetDefault("checkout.stacking_policy", "allow_both")
	viper.SetDefault("checkout.manual_discount_cap_pct", 100)
	viper.SetDefault("checkout.channel", "store")
	viper.SetDefault("checkout.snapshot_stale_tolerated", true)
	viper.SetDefault("tax.price_mode", "tax_exclusive")
	viper.SetDefault("tax.default_rate", "0")
	viper.SetDefault("tax.precision", 2)
	viper.SetDefault("tax.rounding", "half_up")
	viper.SetDefault("tax.receipt_rounding", "none")
	viper.SetDefault("tax.cash_rounding.enabled", false)
	viper.SetDefault("tax.cash_rounding.increment", "0.05")
	viper.SetDefault("currency.code", "CNY")

	// 环境变量支持
	viper.AutomaticEnv()                                   // 自动读取环境变量
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // 将 . 替换为 _ (例如 server.port -> SERVER_PORT)

	// 读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", viper.ConfigFileUsed())
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("配置解析失败: %w", err))
	}

	return &cfg
}
