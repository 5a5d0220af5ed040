package config

import (
	"fmt"
	"time"

	"github.com/rpattn/lexcms/internal/db"
	"github.com/spf13/viper"
)

// Server holds non-database runtime settings.
type Server struct {
	Addr           string
	AdminOrigin    string
	AdminToken     string
	TokenSecret    string
	ConfirmTTL     time.Duration
	RequestTimeout time.Duration
}

// Config is everything the binaries need at startup.
type Config struct {
	Database db.Config
	Server   Server
}

// Load reads config.yaml from configPath (optional) with LEXCMS_-prefixed
// environment overrides, on top of defaults.
func Load(configPath string) (Config, error) {
	cfg := Config{
		Database: db.DefaultConfig(),
		Server: Server{
			Addr:           ":8080",
			AdminOrigin:    "http://localhost:3000",
			ConfirmTTL:     15 * time.Minute,
			RequestTimeout: 15 * time.Second,
		},
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()
	v.SetEnvPrefix("LEXCMS")

	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")
	v.BindEnv("server.addr")
	v.BindEnv("server.admin_origin")
	v.BindEnv("server.admin_token")
	v.BindEnv("server.token_secret")

	if err := v.ReadInConfig(); err != nil {
		fmt.Println("No config.yaml found, using defaults and env vars")
	} else {
		fmt.Println("Loaded config.yaml")
	}

	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}
	if v.IsSet("server.addr") {
		cfg.Server.Addr = v.GetString("server.addr")
	}
	if v.IsSet("server.admin_origin") {
		cfg.Server.AdminOrigin = v.GetString("server.admin_origin")
	}
	if v.IsSet("server.admin_token") {
		cfg.Server.AdminToken = v.GetString("server.admin_token")
	}
	if v.IsSet("server.token_secret") {
		cfg.Server.TokenSecret = v.GetString("server.token_secret")
	}
	if v.IsSet("server.confirm_ttl") {
		cfg.Server.ConfirmTTL = v.GetDuration("server.confirm_ttl")
	}
	if v.IsSet("server.request_timeout") {
		cfg.Server.RequestTimeout = v.GetDuration("server.request_timeout")
	}

	return cfg, nil
}
