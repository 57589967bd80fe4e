package config

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env  string `yaml:"env" env:"ORDERVIEW_ENV" env-default:"local"`
	HTTP HTTP   `yaml:"http"`
	Data Data   `yaml:"data"`
	View View   `yaml:"view"`
	Log  Log    `yaml:"log"`
}

type HTTP struct {
	Addr            string        `yaml:"addr" env:"ORDERVIEW_ADDR" env-default:":60004" validate:"required"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"ORDERVIEW_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

type Data struct {
	// ExportPath is the pre-generated export file loaded at start-up; empty starts
	// with no data until something is uploaded.
	ExportPath    string        `yaml:"export_path" env:"ORDERVIEW_EXPORT_PATH" env-default:"optimized_orders.json"`
	Watch         bool          `yaml:"watch" env:"ORDERVIEW_WATCH" env-default:"false"`
	WatchDebounce time.Duration `yaml:"watch_debounce" env:"ORDERVIEW_WATCH_DEBOUNCE" env-default:"300ms" validate:"gte=0"`
}

type View struct {
	PageSize int    `yaml:"page_size" env:"ORDERVIEW_PAGE_SIZE" env-default:"30" validate:"gte=1,lte=1000"`
	Locale   string `yaml:"locale" env:"ORDERVIEW_LOCALE" env-default:"zh-CN" validate:"required"`
	Timezone string `yaml:"timezone" env:"ORDERVIEW_TIMEZONE" env-default:"Local" validate:"required"`
}

type Log struct {
	Level  string `yaml:"level" env:"ORDERVIEW_LOG_LEVEL" env-default:"info" validate:"oneof=trace debug info warn error"`
	Pretty bool   `yaml:"pretty" env:"ORDERVIEW_LOG_PRETTY" env-default:"false"`
}

// Read loads configuration from the YAML file at path overlaid with environment
// variables, or from the environment alone when path is empty.
func Read(path string) (*Config, error) {
	var cfg Config
	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, errors.Wrap(err, "read env config")
		}
	} else if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	if _, err := cfg.View.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Location resolves the configured time zone.
func (v View) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(v.Timezone)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid timezone %q", v.Timezone)
	}
	return loc, nil
}
