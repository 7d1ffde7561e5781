// Package config loads the settings of the streamparser command.
package config

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/heathj/streamparser/autoescape"
	"github.com/heathj/streamparser/parser"
)

type Config struct {
	LogLevel        string `mapstructure:"LOG_LEVEL"`
	DefaultMode     string `mapstructure:"DEFAULT_MODE"`
	MaxIncludeDepth int    `mapstructure:"MAX_INCLUDE_DEPTH"`
}

// LoadConfig reads app.env from path, if there is one, and lets the
// environment override it.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DEFAULT_MODE", parser.ModeHTML.String())
	v.SetDefault("MAX_INCLUDE_DEPTH", autoescape.DefaultMaxIncludeDepth)
	v.AutomaticEnv()

	if err = v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return config, errors.Wrap(err, "reading config")
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return config, errors.Wrap(err, "decoding config")
	}
	return config, config.validate()
}

func (config Config) validate() error {
	if _, err := config.Level(); err != nil {
		return err
	}
	if _, err := config.Mode(); err != nil {
		return err
	}
	if config.MaxIncludeDepth <= 0 {
		return errors.Errorf("MAX_INCLUDE_DEPTH must be positive, got %d", config.MaxIncludeDepth)
	}
	return nil
}

// Level returns the logrus level named by LOG_LEVEL.
func (config Config) Level() (logrus.Level, error) {
	level, err := logrus.ParseLevel(config.LogLevel)
	if err != nil {
		return level, errors.Wrap(err, "LOG_LEVEL")
	}
	return level, nil
}

// Mode returns the parser mode named by DEFAULT_MODE.
func (config Config) Mode() (parser.Mode, error) {
	mode, ok := parser.ParseMode(config.DefaultMode)
	if !ok {
		return mode, errors.Errorf("DEFAULT_MODE: unknown parser mode %q", config.DefaultMode)
	}
	return mode, nil
}
