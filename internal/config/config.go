package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config is loaded once at startup and passed by value to every component.
type Config struct {
	Server struct {
		Port string `yaml:"port" env:"SERVER_PORT"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr" env:"REDIS_ADDR"`
		Password string `yaml:"password" env:"REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"REDIS_DB"`
	} `yaml:"redis"`
	Postgres struct {
		URL      string `yaml:"url" env:"DATABASE_URL"`
		Host     string `yaml:"host" env:"DB_HOST"`
		Port     int    `yaml:"port" env:"DB_PORT"`
		User     string `yaml:"user" env:"DB_USER"`
		Password string `yaml:"password" env:"DB_PASSWORD"`
		Name     string `yaml:"name" env:"DB_NAME"`
	} `yaml:"postgres"`
	Questions struct {
		Limit int    `yaml:"limit" env:"QUESTION_LIMIT"`
		TTL   string `yaml:"ttl" env:"QUESTION_CACHE_TTL"`
	} `yaml:"questions"`
	Certificate struct {
		Dir          string  `yaml:"dir" env:"CERTIFICATE_DIR"`
		Template     string  `yaml:"template" env:"CERTIFICATE_TEMPLATE"`
		Font         string  `yaml:"font" env:"CERTIFICATE_FONT"`
		FallbackFont string  `yaml:"fallback_font" env:"CERTIFICATE_FALLBACK_FONT"`
		FontSize     float64 `yaml:"font_size" env:"CERTIFICATE_FONT_SIZE"`
	} `yaml:"certificate"`
	Mail struct {
		Address  string `yaml:"address" env:"EMAIL_ADDRESS"`
		Password string `yaml:"password" env:"EMAIL_PASSWORD"`
		Host     string `yaml:"host" env:"SMTP_HOST"`
		Port     int    `yaml:"port" env:"SMTP_PORT"`
		Timeout  string `yaml:"timeout" env:"SMTP_TIMEOUT"`
	} `yaml:"mail"`
}

// Default returns the settings used when neither the YAML file nor the
// environment provides a value.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Postgres.Port = 5432
	cfg.Questions.Limit = 50
	cfg.Questions.TTL = "10m"
	cfg.Certificate.Dir = "certificates"
	cfg.Certificate.Template = "base_certificate.png"
	cfg.Certificate.Font = "arial.ttf"
	cfg.Certificate.FallbackFont = "/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf"
	cfg.Certificate.FontSize = 80
	cfg.Mail.Host = "smtp.gmail.com"
	cfg.Mail.Port = 465
	cfg.Mail.Timeout = "30s"
	return cfg
}

// Load reads YAML config from path and applies environment overrides on top.
// A missing file is not an error; the defaults and environment are used instead.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// PostgresDSN returns the explicit URL when set, otherwise builds one from the
// discrete host/user/password/name/port settings. It returns "" when no
// database is configured.
func (c Config) PostgresDSN() string {
	pg := c.Postgres
	if pg.URL != "" {
		return pg.URL
	}
	if pg.Host == "" || pg.Name == "" {
		return ""
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(pg.User, pg.Password),
		Host:     net.JoinHostPort(pg.Host, strconv.Itoa(pg.Port)),
		Path:     "/" + pg.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
