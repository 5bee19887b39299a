// Package config loads service settings from an optional config.yaml and the environment.
// Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddr       string
	MigrationsPath string
	LoginURL       string
	Database       Database
	Log            Log
	Auth           Auth
	RabbitMQ       RabbitMQ
	Redis          Redis
	Meilisearch    Meilisearch
	Azure          Azure
	Telegram       Telegram
}

type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// URL is the postgres connection URL shared by pgxpool and golang-migrate.
func (d Database) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + d.Port,
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}

type Log struct {
	Level  string
	Format string
}

type Auth struct {
	JWTSecretKey string
}

type RabbitMQ struct {
	URL   string
	Queue string
}

type Redis struct {
	Addr     string
	Password string
	DB       int
}

type Meilisearch struct {
	Host   string
	APIKey string
	Index  string
}

type Azure struct {
	Account   string
	Key       string
	Container string
}

// Enabled reports whether blob storage credentials are present.
func (a Azure) Enabled() bool {
	return a.Account != "" && a.Key != ""
}

type Telegram struct {
	BotToken string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("migrations_path", "file://migrations")
	v.SetDefault("login_url", "/login")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_user", "postgres")
	v.SetDefault("db_password", "postgres")
	v.SetDefault("db_name", "task_tracker")
	v.SetDefault("db_sslmode", "disable")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("rabbitmq_queue", "audit_logs")
	v.SetDefault("redis_db", 0)
	v.SetDefault("meili_index", "projects")
	v.SetDefault("azure_storage_container", "project-images")

	// ключи без значения по умолчанию тоже должны читаться из окружения
	for _, key := range []string{
		"jwt_secret_key", "rabbitmq_url", "redis_addr", "redis_password",
		"meili_host", "meili_api_key", "azure_storage_account", "azure_storage_key",
		"telegram_bot_token",
	} {
		v.SetDefault(key, "")
	}
}

// Load reads configPath if given, otherwise looks for config.yaml in the working
// directory. A missing file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		HTTPAddr:       v.GetString("http_addr"),
		MigrationsPath: v.GetString("migrations_path"),
		LoginURL:       v.GetString("login_url"),
		Database: Database{
			Host:     v.GetString("db_host"),
			Port:     v.GetString("db_port"),
			User:     v.GetString("db_user"),
			Password: v.GetString("db_password"),
			Name:     v.GetString("db_name"),
			SSLMode:  v.GetString("db_sslmode"),
		},
		Log: Log{
			Level:  v.GetString("log_level"),
			Format: v.GetString("log_format"),
		},
		Auth: Auth{
			JWTSecretKey: v.GetString("jwt_secret_key"),
		},
		RabbitMQ: RabbitMQ{
			URL:   v.GetString("rabbitmq_url"),
			Queue: v.GetString("rabbitmq_queue"),
		},
		Redis: Redis{
			Addr:     v.GetString("redis_addr"),
			Password: v.GetString("redis_password"),
			DB:       v.GetInt("redis_db"),
		},
		Meilisearch: Meilisearch{
			Host:   v.GetString("meili_host"),
			APIKey: v.GetString("meili_api_key"),
			Index:  v.GetString("meili_index"),
		},
		Azure: Azure{
			Account:   v.GetString("azure_storage_account"),
			Key:       v.GetString("azure_storage_key"),
			Container: v.GetString("azure_storage_container"),
		},
		Telegram: Telegram{
			BotToken: v.GetString("telegram_bot_token"),
		},
	}

	if cfg.Auth.JWTSecretKey == "" {
		return nil, errors.New("JWT_SECRET_KEY is required")
	}

	return cfg, nil
}
