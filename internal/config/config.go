package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	defaultPort            = "8080"
	defaultImageCategory   = "Watch"
	defaultDefaultImageURL = "https://placehold.co/400x500/1e40af/white?text=Watch"
	defaultSignedURLTTL    = time.Hour
)

// Config agrupa la configuración necesaria para correr la aplicación.
type Config struct {
	Port            string        `env:"PORT"`
	DatabaseURL     string        `env:"DATABASE_URL"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogJSON         bool          `env:"LOG_JSON" envDefault:"true"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RunMigrations   bool          `env:"RUN_MIGRATIONS" envDefault:"true"`

	// JWTSecret vacío deja deshabilitadas las rutas autenticadas (siempre 401).
	JWTSecret string `env:"JWT_SECRET"`

	ObjectStore ObjectStore `envPrefix:"OBJECT_STORE_"`
	Images      Images
}

// ObjectStore describe el bucket S3-compatible donde viven las imágenes.
type ObjectStore struct {
	Endpoint  string `env:"ENDPOINT"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	Bucket    string `env:"BUCKET" envDefault:"watch-images"`
	Region    string `env:"REGION" envDefault:"us-east-1"`
	UseSSL    bool   `env:"USE_SSL" envDefault:"true"`
}

// Enabled indica si hay un object store configurado.
// Sin endpoint todas las imágenes resuelven a la imagen por defecto.
func (store ObjectStore) Enabled() bool {
	return store.Endpoint != ""
}

// Images agrupa los parámetros de resolución de imágenes.
type Images struct {
	Category     string        `env:"IMAGE_CATEGORY"`
	DefaultURL   string        `env:"DEFAULT_IMAGE_URL"`
	SignedURLTTL time.Duration `env:"SIGNED_URL_TTL"`
}

// Load lee variables de entorno y valida lo mínimo indispensable.
// Con APP_ENV=local también se intenta cargar un archivo .env.
func Load(paths ...string) (Config, error) {
	if os.Getenv("APP_ENV") == "local" {
		if err := godotenv.Load(paths...); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load .env: %w", err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	// Normalizamos por si alguien manda ":8080"
	cfg.Port = strings.TrimPrefix(strings.TrimSpace(cfg.Port), ":")
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}

	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)
	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing required env var: DATABASE_URL")
	}

	cfg.ObjectStore.Endpoint = strings.TrimSpace(cfg.ObjectStore.Endpoint)

	cfg.Images.Category = strings.Trim(strings.TrimSpace(cfg.Images.Category), "/")
	if cfg.Images.Category == "" {
		cfg.Images.Category = defaultImageCategory
	}
	if strings.TrimSpace(cfg.Images.DefaultURL) == "" {
		cfg.Images.DefaultURL = defaultDefaultImageURL
	}
	if cfg.Images.SignedURLTTL <= 0 {
		cfg.Images.SignedURLTTL = defaultSignedURLTTL
	}

	return cfg, nil
}
