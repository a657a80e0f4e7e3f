// config — источник загрузки конфигурации клиента портала.
//
// Источники (по убыванию приоритета):
//  1. явный путь --config;
//  2. CONFIG_PATH;
//  3. ./local.yaml;
//  4. только ENV (cleanenv).
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env      string        `yaml:"env" env:"ENV" env-default:"local"`
	API      APIConfig     `yaml:"api"`
	Session  SessionConfig `yaml:"session"`
	HTTP     HTTPConfig    `yaml:"http"`
	Timeouts TimeoutConfig `yaml:"timeouts"`
}

// APIConfig — REST-бэкенд портала и политика исходящих запросов.
type APIConfig struct {
	BaseURL   string        `yaml:"base_url"   env:"API_BASE_URL"   env-required:"true"`
	Timeout   time.Duration `yaml:"timeout"    env:"API_TIMEOUT"    env-default:"30s"`
	UserAgent string        `yaml:"user_agent" env:"API_USER_AGENT" env-default:"campus-portal"`
	// PerRequestRefresh — каждый запрос, получивший 401, обновляет токен сам.
	// По умолчанию конкурентные 401 ждут один общий refresh-вызов.
	PerRequestRefresh bool        `yaml:"per_request_refresh" env:"API_PER_REQUEST_REFRESH"`
	Paths             PathsConfig `yaml:"paths"`
}

// PathsConfig — пути эндпойнтов относительно BaseURL. "{id}" подставляется клиентом.
type PathsConfig struct {
	Token         string `yaml:"token"          env:"API_PATH_TOKEN"          env-default:"/auth/token"`
	Refresh       string `yaml:"refresh"        env:"API_PATH_REFRESH"        env-default:"/auth/token/refresh"`
	Register      string `yaml:"register"       env:"API_PATH_REGISTER"       env-default:"/auth/register"`
	Profile       string `yaml:"profile"        env:"API_PATH_PROFILE"        env-default:"/student/profile"`
	Subjects      string `yaml:"subjects"       env:"API_PATH_SUBJECTS"       env-default:"/subjects"`
	Students      string `yaml:"students"       env:"API_PATH_STUDENTS"       env-default:"/students"`
	Student       string `yaml:"student"        env:"API_PATH_STUDENT"        env-default:"/students/{id}"`
	AssignStudent string `yaml:"assign_student" env:"API_PATH_ASSIGN_STUDENT" env-default:"/faculty/students/{id}/assign"`
}

// SessionConfig — где хранится пара токенов между запусками.
type SessionConfig struct {
	Driver      string `yaml:"driver"       env:"SESSION_DRIVER"       env-default:"file"`
	Path        string `yaml:"path"         env:"SESSION_PATH"`
	Profile     string `yaml:"profile"      env:"SESSION_PROFILE"      env-default:"default"`
	RedisURL    string `yaml:"redis_url"    env:"SESSION_REDIS_URL"`
	RedisPrefix string `yaml:"redis_prefix" env:"SESSION_REDIS_PREFIX" env-default:"portal:session:"`
}

// HTTPConfig — локальная оболочка (portal serve).
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"127.0.0.1"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"50090"`
}

func (h HTTPConfig) Addr() string { return net.JoinHostPort(h.Host, h.Port) }

// TimeoutConfig — общий дедлайн запроса к оболочке.
type TimeoutConfig struct {
	Service time.Duration `yaml:"service" env:"SERVICE" env-default:"45s"`
}

// Validate проверяет согласованность значений, которые cleanenv не проверяет сам.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}

	if u.Scheme == "" || u.Host == "" {
		return errors.New("api.base_url: absolute URL expected")
	}

	if c.API.Timeout < 0 {
		return errors.New("api.timeout: must not be negative")
	}

	switch c.Session.Driver {
	case "memory", "file":
	case "redis":
		if c.Session.RedisURL == "" {
			return errors.New("session.redis_url: required for redis driver")
		}
	default:
		return fmt.Errorf("session.driver: unknown driver %q", c.Session.Driver)
	}

	return nil
}

// MustLoad — паника при ошибке загрузки.
func MustLoad(path string) *Config {
	cfg, err := Load(path)

	if err != nil {
		panic(err)
	}

	return cfg
}

func Load(path string) (*Config, error) {
	var cfg Config

	finish := func() (*Config, error) {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}

		return &cfg, nil
	}

	tryRead := func(p string) (*Config, error) {
		if p == "" {
			return nil, fmt.Errorf("empty config path")
		}

		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return finish()
	}

	// 1) --config
	if path != "" {
		return tryRead(path)
	}

	// 2) CONFIG_PATH
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return tryRead(envPath)
	}

	// 3) ./local.yaml
	if _, err := os.Stat("local.yaml"); err == nil {
		return tryRead("local.yaml")
	}

	// 4) только ENV
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	return finish()
}
