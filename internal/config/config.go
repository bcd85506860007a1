package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Env     string        `yaml:"env" env:"ENV" env-default:"local"`
	Storage string        `yaml:"storage" env:"STORAGE" env-default:"postgres"`
	DSN     string        `yaml:"dsn" env:"DSN"`
	HTTP    HTTPConfig    `yaml:"http"`
	Redis   RedisConfig   `yaml:"redis"`
	Auth    AuthConfig    `yaml:"auth"`
	Listing ListingConfig `yaml:"listing"`
	Views   ViewsConfig   `yaml:"views"`
}

type HTTPConfig struct {
	Host            string        `yaml:"host" env:"HTTP_HOST"`
	Port            string        `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env-default:"5s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env-default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"10s"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type AuthConfig struct {
	JWTSecret     string `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	SessionSecret string `yaml:"session_secret" env:"SESSION_SECRET" env-required:"true"`
}

// ListingConfig bounds reader listings. It is handed to the query builder and
// paginator at startup.
type ListingConfig struct {
	DefaultLimit int `yaml:"default_limit" env-default:"12"`
	MaxLimit     int `yaml:"max_limit" env-default:"100"`
	RelatedLimit int `yaml:"related_limit" env-default:"3"`
}

type ViewsConfig struct {
	Workers   int           `yaml:"workers" env-default:"4"`
	QueueSize int           `yaml:"queue_size" env-default:"1024"`
	Timeout   time.Duration `yaml:"timeout" env-default:"5s"`
}

func MustLoad() *Config {
	path := fetchConfigPath()
	if path == "" {
		panic("config path is empty")
	}

	return MustLoadPath(path)
}

func MustLoadPath(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("cannot read config: " + err.Error())
	}

	if cfg.Storage != StorageMemory && cfg.DSN == "" {
		panic("dsn is required for storage " + cfg.Storage)
	}

	return &cfg
}

func fetchConfigPath() string {
	var res string

	// --config="path/to/config.yaml"
	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
