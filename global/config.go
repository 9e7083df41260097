package global

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config is the application configuration, loaded from config.yaml with
// WS_* environment overrides (WS_SERVER_ADDR, WS_AUTH_JWT_SECRET, ...).
type Config struct {
	Server struct {
		Addr     string `mapstructure:"addr"`
		SiteBase string `mapstructure:"site_base"`
		NodeID   int64  `mapstructure:"node_id"`
		// CORSOrigins is the cross-origin allow list; empty allows all.
		CORSOrigins []string `mapstructure:"cors_origins"`
	} `mapstructure:"server"`

	Auth struct {
		JWTSecret     string `mapstructure:"jwt_secret"`
		RestoreOnFail bool   `mapstructure:"restore_on_fail"`
		TimeoutMS     int    `mapstructure:"timeout_ms"`
	} `mapstructure:"auth"`

	WS struct {
		ReadLimit      int64 `mapstructure:"read_limit"`
		PongWaitMS     int   `mapstructure:"pong_wait_ms"`
		PingIntervalMS int   `mapstructure:"ping_interval_ms"`
		WriteWaitMS    int   `mapstructure:"write_wait_ms"`
		SendQueue      int   `mapstructure:"send_queue"`
	} `mapstructure:"ws"`

	Broadcast struct {
		Driver string `mapstructure:"driver"` // memory | redis | nats

		Redis struct {
			Addr     string `mapstructure:"addr"`
			Password string `mapstructure:"password"`
			DB       int    `mapstructure:"db"`
			PoolSize int    `mapstructure:"pool_size"`
		} `mapstructure:"redis"`

		Nats struct {
			Servers []string `mapstructure:"servers"`
			Name    string   `mapstructure:"name"`
		} `mapstructure:"nats"`
	} `mapstructure:"broadcast"`
}

// Load reads the configuration. A missing config file is fine: defaults
// plus environment carry a dev setup.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("WS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.node_id", 1)
	v.SetDefault("auth.jwt_secret", "dev-secret-change-me")
	v.SetDefault("auth.timeout_ms", 2000)
	v.SetDefault("ws.read_limit", 1<<20)
	v.SetDefault("ws.pong_wait_ms", 60000)
	v.SetDefault("ws.ping_interval_ms", 25000)
	v.SetDefault("ws.write_wait_ms", 5000)
	v.SetDefault("ws.send_queue", 256)
	v.SetDefault("broadcast.driver", "memory")
	v.SetDefault("broadcast.redis.addr", "127.0.0.1:6379")
	v.SetDefault("broadcast.nats.servers", []string{"nats://127.0.0.1:4222"})
	v.SetDefault("broadcast.nats.name", "ws-gateway")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	return &cfg, nil
}
