package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Port         string
	Environment  string
	ReadTimeout  int
	WriteTimeout int

	Logger LoggerConfig
	Store  StoreConfig
	Editor EditorConfig

	LayoutsURL      string
	EditorURL       string
	UpstreamTimeout time.Duration
}

type LoggerConfig struct {
	ServiceName string
	Level       string
	Format      string // console | json
	LogFile     string
	MaxSize     int
	MaxBackups  int
	MaxAge      int
	Compress    bool
}

type StoreConfig struct {
	Driver      string // sqlite | postgres
	SQLitePath  string
	PostgresDSN string
}

type EditorConfig struct {
	GridUnit     int
	CanvasWidth  int
	CanvasHeight int
	SessionTTL   time.Duration
}

// SetDefaults задаёт значения по умолчанию для всех ключей.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", "3000")
	v.SetDefault("env", "development")
	v.SetDefault("read_timeout", 10)
	v.SetDefault("write_timeout", 10)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("log_file", "")
	v.SetDefault("log_max_size", 50)
	v.SetDefault("log_max_backups", 3)
	v.SetDefault("log_max_age", 14)
	v.SetDefault("log_compress", false)

	v.SetDefault("store_driver", "sqlite")
	v.SetDefault("sqlite_path", "data/db/layouts.db")
	v.SetDefault("postgres_dsn", "")

	v.SetDefault("grid_unit", 20)
	v.SetDefault("canvas_width", 800)
	v.SetDefault("canvas_height", 600)
	v.SetDefault("session_ttl", "30m")

	v.SetDefault("layouts_url", "http://localhost:3002")
	v.SetDefault("editor_url", "http://localhost:3001")
	v.SetDefault("upstream_timeout", "15s")
}

// Option переопределяет значения по умолчанию до сборки Config.
type Option func(v *viper.Viper)

// WithDefault задаёт значение по умолчанию, которое env и файл
// по-прежнему перекрывают.
func WithDefault(key string, value any) Option {
	return func(v *viper.Viper) {
		v.SetDefault(key, value)
	}
}

// Load загружает конфигурацию из переменных окружения
// и, если задан CONFIG_FILE, из YAML файла.
// Отсутствующий файл не фатален, ошибка разбора - да.
func Load(opts ...Option) (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !isNotFound(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	SetDefaults(v)
	for _, opt := range opts {
		opt(v)
	}
	return build(v), nil
}

func isNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
}

// FromViper собирает Config из уже настроенного экземпляра viper.
func FromViper(v *viper.Viper) *Config {
	SetDefaults(v)
	return build(v)
}

func build(v *viper.Viper) *Config {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Config{
		Port:         v.GetString("port"),
		Environment:  v.GetString("env"),
		ReadTimeout:  v.GetInt("read_timeout"),
		WriteTimeout: v.GetInt("write_timeout"),
		Logger: LoggerConfig{
			Level:      v.GetString("log_level"),
			Format:     v.GetString("log_format"),
			LogFile:    v.GetString("log_file"),
			MaxSize:    v.GetInt("log_max_size"),
			MaxBackups: v.GetInt("log_max_backups"),
			MaxAge:     v.GetInt("log_max_age"),
			Compress:   v.GetBool("log_compress"),
		},
		Store: StoreConfig{
			Driver:      strings.ToLower(v.GetString("store_driver")),
			SQLitePath:  v.GetString("sqlite_path"),
			PostgresDSN: v.GetString("postgres_dsn"),
		},
		Editor: EditorConfig{
			GridUnit:     v.GetInt("grid_unit"),
			CanvasWidth:  v.GetInt("canvas_width"),
			CanvasHeight: v.GetInt("canvas_height"),
			SessionTTL:   v.GetDuration("session_ttl"),
		},
		LayoutsURL:      strings.TrimRight(v.GetString("layouts_url"), "/"),
		EditorURL:       strings.TrimRight(v.GetString("editor_url"), "/"),
		UpstreamTimeout: v.GetDuration("upstream_timeout"),
	}
}
