package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Cfg 是一个全局变量，用于存储所有应用程序的配置
var Cfg *Config

// Config 结构体定义了应用程序的所有配置项
// 它与 config.yaml 文件的结构完全对应
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Game     GameConfig     `mapstructure:"game"`
}

// ServerConfig 定义了服务器相关的配置
type ServerConfig struct {
	Address string     `mapstructure:"address"`
	Cors    CorsConfig `mapstructure:"cors"`
}

// CorsConfig 定义了CORS相关的配置
type CorsConfig struct {
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

// DatabaseConfig 定义了数据库和缓存相关的配置
type DatabaseConfig struct {
	Redis  RedisConfig  `mapstructure:"redis"`
	Sqlite SqliteConfig `mapstructure:"sqlite"`
}

// RedisConfig 定义了Redis的配置
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SqliteConfig 定义了SQLite的配置
type SqliteConfig struct {
	Path string `mapstructure:"path"`
}

// GameConfig 定义了每日谜题轮换相关的配置
type GameConfig struct {
	// UTCOffsetHours 是自然日边界计算所使用的固定UTC偏移（小时）
	UTCOffsetHours int `mapstructure:"utcOffsetHours"`
	// FallbackIntervalMinutes 是兜底轮换检查的周期
	FallbackIntervalMinutes int `mapstructure:"fallbackIntervalMinutes"`
	// PresenceThresholdSeconds 是在线判定的活跃阈值
	PresenceThresholdSeconds int `mapstructure:"presenceThresholdSeconds"`
	// SnapshotIntervalMinutes 是统计数据快照备份的周期
	SnapshotIntervalMinutes int `mapstructure:"snapshotIntervalMinutes"`
	// AdminPassword 是管理接口的登录口令
	AdminPassword string `mapstructure:"adminPassword"`
}

// setDefaults 注册所有配置项的默认值，保证缺失配置文件时也能启动
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.cors.allowedOrigins", []string{"http://localhost:3000"})
	v.SetDefault("database.redis.address", "localhost:6379")
	v.SetDefault("database.redis.password", "")
	v.SetDefault("database.redis.db", 0)
	v.SetDefault("database.sqlite.path", "puzzle.db")
	v.SetDefault("game.utcOffsetHours", 8)
	v.SetDefault("game.fallbackIntervalMinutes", 60)
	v.SetDefault("game.presenceThresholdSeconds", 300)
	v.SetDefault("game.snapshotIntervalMinutes", 10)
	v.SetDefault("game.adminPassword", "")
}

// LoadConfig 函数负责查找、加载和解析配置文件
// 它会在指定的路径中查找名为 config.yaml 的文件
func LoadConfig() (*Config, error) {
	v := viper.New()

	// 1. 设置配置文件名和类型
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// 2. 添加配置文件搜索路径
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	// 3. 设置环境变量支持，允许通过环境变量覆盖配置，例如 GAME_ADMINPASSWORD=...
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. 注册默认值后读取配置文件；文件不存在时使用默认值继续
	setDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	// 5. 将配置反序列化到结构体中
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// 6. 将加载的配置赋值给全局变量
	Cfg = &cfg

	return Cfg, nil
}
