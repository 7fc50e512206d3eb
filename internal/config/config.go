// Package config loads service settings from configs/config.yml and
// DTFAN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

const (
	DefaultDir = "configs"
	envPrefix  = "DTFAN"
)

type Config struct {
	Port   string       `mapstructure:"port"`
	Log    LogConfig    `mapstructure:"log"`
	DB     DBConfig     `mapstructure:"db"`
	Serial SerialConfig `mapstructure:"serial"`
	Sim    SimConfig    `mapstructure:"sim"`
	Curve  CurveConfig  `mapstructure:"curve"`
	Auth   AuthConfig   `mapstructure:"auth"`
	MQTT   MQTTConfig   `mapstructure:"mqtt"`
}

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

// SerialConfig: a non-empty Port is opened at startup.
type SerialConfig struct {
	Port          string        `mapstructure:"port"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	SkipMalformed bool          `mapstructure:"skip_malformed"`
	Simulate      bool          `mapstructure:"simulate"`
	SettleDelay   time.Duration `mapstructure:"settle_delay"`
	StopGrace     time.Duration `mapstructure:"stop_grace"`
}

type SimConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	AmbientC    float64       `mapstructure:"ambient"`
	HeatCPerSec float64       `mapstructure:"heat"`
}

// CurveConfig selects where the curve is persisted: "sqlite" or "file".
type CurveConfig struct {
	Store string `mapstructure:"store"`
	File  string `mapstructure:"file"`
}

type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

type MQTTConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Broker   string        `mapstructure:"broker"`
	ClientID string        `mapstructure:"client_id"`
	Topic    string        `mapstructure:"topic"`
	QoS      byte          `mapstructure:"qos"`
	Retained bool          `mapstructure:"retained"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

var defaults = map[string]interface{}{
	"port":                  "8080",
	"log.level":             "info",
	"log.encoding":          "console",
	"db.path":               "app.db",
	"serial.port":           "",
	"serial.read_timeout":   250 * time.Millisecond,
	"serial.skip_malformed": true,
	"serial.simulate":       false,
	"serial.settle_delay":   800 * time.Millisecond,
	"serial.stop_grace":     2 * time.Second,
	"sim.interval":          time.Second,
	"sim.ambient":           22.0,
	"sim.heat":              0.15,
	"curve.store":           "sqlite",
	"curve.file":            "dt_fancontrol.json",
	"auth.signing_key":      "",
	"auth.token_ttl":        time.Hour,
	"mqtt.enabled":          false,
	"mqtt.broker":           "tcp://localhost:1883",
	"mqtt.client_id":        "dt_fancontrol",
	"mqtt.topic":            "dt_fancontrol/telemetry",
	"mqtt.qos":              0,
	"mqtt.retained":         false,
	"mqtt.username":         "",
	"mqtt.password":         "",
	"mqtt.timeout":          5 * time.Second,
}

// Load reads config.yml from dir. A missing file leaves the defaults
// in place; environment variables override both.
func Load(dir string) (*Config, error) {
	return LoadFs(afero.NewOsFs(), dir)
}

func LoadFs(fsys afero.Fs, dir string) (*Config, error) {
	v := viper.New()
	v.SetFs(fsys)
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.AddConfigPath(dir)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Curve.Store {
	case "sqlite", "file":
	default:
		return fmt.Errorf("curve.store: unknown store %q", c.Curve.Store)
	}
	if c.Curve.Store == "file" && c.Curve.File == "" {
		return errors.New("curve.file: required when curve.store is file")
	}
	if c.MQTT.Enabled && (c.MQTT.Broker == "" || c.MQTT.Topic == "") {
		return errors.New("mqtt: broker and topic are required when enabled")
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos: %d out of range", c.MQTT.QoS)
	}
	return nil
}
