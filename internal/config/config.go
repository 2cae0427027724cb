package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host string
	Port int
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int
}

type DB struct {
	// Driver is one of "memory", "postgres", "mysql".
	Driver string
	DSN    string
}

type Log struct {
	Level string
}

type Config struct {
	HTTP HTTP
	JWT  JWT
	DB   DB
	Log  Log
}

// Load reads configuration from an optional yaml file (CONFIG_PATH) with
// APP_-prefixed environment overrides, e.g. APP_HTTP_PORT or APP_JWT_SECRET.
func Load(path string) *Config {
	v := viper.New()

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("jwt.secret", "dev-secret-change-me")
	v.SetDefault("jwt.issuer", "auction-house")
	v.SetDefault("jwt.accesstokenttlmin", 60)
	v.SetDefault("db.driver", "memory")
	v.SetDefault("db.dsn", "")
	v.SetDefault("log.level", "info")

	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			log.Fatalf("read config %s: %v", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		log.Fatalf("unmarshal config: %v", err)
	}
	return &c
}
