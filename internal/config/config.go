package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"

	"github.com/Gammanik/media-edge/internal/group"
)

// EnvPrefix префикс переменных окружения, переопределяющих файл
const EnvPrefix = "MEDIA_EDGE_"

//go:embed default_groups.toml
var defaultGroups []byte

//go:embed sample_config.toml
var sampleConfig string

// Server параметры HTTP сервера
type Server struct {
	Listen                 string `toml:"listen" env:"LISTEN"`
	PublicBaseURL          string `toml:"public_base_url" env:"PUBLIC_BASE_URL"`
	ReadTimeoutSeconds     int    `toml:"read_timeout_seconds" env:"READ_TIMEOUT_SECONDS"`
	WriteTimeoutSeconds    int    `toml:"write_timeout_seconds" env:"WRITE_TIMEOUT_SECONDS"`
	ShutdownTimeoutSeconds int    `toml:"shutdown_timeout_seconds" env:"SHUTDOWN_TIMEOUT_SECONDS"`
}

// Upstream параметры источника контента
type Upstream struct {
	BaseURL        string `toml:"base_url" env:"BASE_URL"`
	TimeoutSeconds int    `toml:"timeout_seconds" env:"TIMEOUT_SECONDS"`
	MaxBodyBytes   int64  `toml:"max_body_bytes" env:"MAX_BODY_BYTES"`
	ForwardRange   bool   `toml:"forward_range" env:"FORWARD_RANGE"`
}

// CORS заголовки кросс-доменного доступа
type CORS struct {
	AllowOrigin string `toml:"allow_origin" env:"ALLOW_ORIGIN"`
}

// Logging параметры логирования
type Logging struct {
	Level  string `toml:"level" env:"LEVEL"`
	Format string `toml:"format" env:"FORMAT"`
}

// Catalog путь к bbolt каталогу групп
type Catalog struct {
	Path string `toml:"path" env:"PATH"`
}

// Config конфигурация прокси. После Load значение не меняется.
type Config struct {
	Server   Server   `toml:"server" envPrefix:"SERVER_"`
	Upstream Upstream `toml:"upstream" envPrefix:"UPSTREAM_"`
	CORS     CORS     `toml:"cors" envPrefix:"CORS_"`
	Logging  Logging  `toml:"logging" envPrefix:"LOG_"`
	Catalog  Catalog  `toml:"catalog" envPrefix:"CATALOG_"`

	// Groups таблица из файла конфигурации; пустая, если не задана
	Groups []group.Range `toml:"groups"`
}

// Default возвращает конфигурацию со значениями по умолчанию
func Default() Config {
	return Config{
		Server: Server{
			Listen:                 ":8080",
			ReadTimeoutSeconds:     300,
			WriteTimeoutSeconds:    300,
			ShutdownTimeoutSeconds: 10,
		},
		Upstream: Upstream{
			BaseURL:        "https://raw.githubusercontent.com/DbRDYZmMRu/freshPlayerBucket/main",
			TimeoutSeconds: 30,
			MaxBodyBytes:   256 << 20,
			ForwardRange:   true,
		},
		CORS:    CORS{AllowOrigin: "*"},
		Logging: Logging{Level: "info", Format: "auto"},
	}
}

// Load читает файл (если путь задан), применяет переменные окружения и
// проверяет результат. Отсутствующий явно указанный файл считается ошибкой.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s does not exist", path)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := decode(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func decode(data []byte, cfg *Config) error {
	decoder := toml.NewDecoder(bytes.NewReader(data))
	return decoder.Decode(cfg)
}

func (c *Config) normalize() {
	c.Server.Listen = strings.TrimSpace(c.Server.Listen)
	c.Server.PublicBaseURL = strings.TrimRight(strings.TrimSpace(c.Server.PublicBaseURL), "/")
	c.Upstream.BaseURL = strings.TrimRight(strings.TrimSpace(c.Upstream.BaseURL), "/")
	c.CORS.AllowOrigin = strings.TrimSpace(c.CORS.AllowOrigin)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Catalog.Path = strings.TrimSpace(c.Catalog.Path)
	if c.CORS.AllowOrigin == "" {
		c.CORS.AllowOrigin = "*"
	}
}

// Validate проверяет значения конфигурации
func (c *Config) Validate() error {
	if c.Server.Listen == "" {
		return errors.New("server.listen must not be empty")
	}
	if err := requireAbsoluteURL("upstream.base_url", c.Upstream.BaseURL); err != nil {
		return err
	}
	if c.Server.PublicBaseURL != "" {
		if err := requireAbsoluteURL("server.public_base_url", c.Server.PublicBaseURL); err != nil {
			return err
		}
	}
	if c.Upstream.TimeoutSeconds < 0 {
		return fmt.Errorf("upstream.timeout_seconds must be >= 0, got %d", c.Upstream.TimeoutSeconds)
	}
	if c.Upstream.MaxBodyBytes < 0 {
		return fmt.Errorf("upstream.max_body_bytes must be >= 0, got %d", c.Upstream.MaxBodyBytes)
	}
	if c.Server.ReadTimeoutSeconds < 0 || c.Server.WriteTimeoutSeconds < 0 || c.Server.ShutdownTimeoutSeconds < 0 {
		return errors.New("server timeouts must be >= 0")
	}
	switch c.Logging.Format {
	case "auto", "json", "console":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if len(c.Groups) > 0 {
		if _, err := group.NewTable(c.Groups); err != nil {
			return fmt.Errorf("groups: %w", err)
		}
	}
	return nil
}

func requireAbsoluteURL(key, value string) error {
	u, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) url, got %q", key, value)
	}
	return nil
}

// UpstreamTimeout таймаут одного запроса к апстриму
func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.Upstream.TimeoutSeconds) * time.Second
}

// ReadTimeout, WriteTimeout и ShutdownTimeout для http.Server
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.Server.ReadTimeoutSeconds) * time.Second
}

func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.Server.WriteTimeoutSeconds) * time.Second
}

func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutSeconds) * time.Second
}

// DefaultGroups возвращает встроенную таблицу групп
func DefaultGroups() []group.Range {
	var doc struct {
		Groups []group.Range `toml:"groups"`
	}
	if err := toml.Unmarshal(defaultGroups, &doc); err != nil {
		panic(fmt.Sprintf("config: embedded group table: %v", err))
	}
	return doc.Groups
}

// LoadGroupsFile читает таблицу [[groups]] из отдельного TOML файла
func LoadGroupsFile(path string) ([]group.Range, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read groups file: %w", err)
	}
	var doc struct {
		Groups []group.Range `toml:"groups"`
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse groups file %s: %w", path, err)
	}
	if len(doc.Groups) == 0 {
		return nil, fmt.Errorf("groups file %s has no [[groups]] entries", path)
	}
	return doc.Groups, nil
}

// CreateSample записывает пример конфигурации по указанному пути
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
