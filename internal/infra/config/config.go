// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Config represents the controller configuration.
type Config struct {
	Sound        SoundConfig       `yaml:"sound"`
	GPIO         GPIOConfig        `yaml:"gpio"`
	Serial       SerialConfig      `yaml:"serial"`
	Schedulers   []SchedulerConfig `yaml:"schedulers"`
	MessageTimer string            `yaml:"message_timer" default:"0"`
	Direct       DirectConfig      `yaml:"direct"`
	Log          LogConfig         `yaml:"log"`
}

// SoundConfig locates the sound library and the output device.
type SoundConfig struct {
	Directory string `yaml:"directory" validate:"required"`
	Extension string `yaml:"extension" default:".wav"`
	Device    string `yaml:"device" default:"default"`
}

// GPIOConfig names the channel-busy input and remote-busy output pins.
type GPIOConfig struct {
	COSPin               string `yaml:"cos_pin" default:"GPIO17"`
	COSActiveHigh        bool   `yaml:"cos_active_high"`
	RemoteBusyPin        string `yaml:"remote_busy_pin" default:"GPIO27"`
	RemoteBusyActiveHigh *bool  `yaml:"remote_busy_active_high"`
	COSDebounceMs        int    `yaml:"cos_debounce_ms" default:"500" validate:"gte=0,lte=10000"`
	MaxCOSInterruptions  int    `yaml:"max_cos_interruptions" default:"3" validate:"gte=1"`
}

// SerialConfig describes the command input port.
type SerialConfig struct {
	Port string `yaml:"port" default:"/dev/ttyUSB0"`
	Baud int    `yaml:"baud" default:"9600" validate:"gt=0"`
}

// SchedulerConfig is one scheduler block as written in the file. The
// settings are decoded per kind; a malformed entry is skipped with a
// warning rather than failing startup.
type SchedulerConfig struct {
	Kind     string         `yaml:"kind"`
	Settings map[string]any `yaml:"settings"`
}

// DirectConfig controls playing codes that match no scheduler block.
type DirectConfig struct {
	Enabled *bool `yaml:"enabled"` // nil means enabled
}

// LogConfig represents logging configuration.
type LogConfig struct {
	Level string `yaml:"level" default:"info"`
	File  string `yaml:"file"`
}

// Block is a decoded, validated scheduler block.
type Block struct {
	Kind     string
	Base     int
	End      int
	Interval time.Duration
}

type schedulerSettings struct {
	Base        int `mapstructure:"base" validate:"required,gte=0,lte=9999"`
	End         int `mapstructure:"end" validate:"required,gte=0,lte=9999,gtfield=Base"`
	IntervalSec int `mapstructure:"interval_sec" validate:"gte=0"`
}

var schedulerKinds = map[string]bool{
	"rotation":    true,
	"random":      true,
	"sudo_random": true,
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	cfg.overrideFromEnv()

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("DRX_SOUND_DIRECTORY"); v != "" {
		c.Sound.Directory = v
	}
	if v := os.Getenv("DRX_SERIAL_PORT"); v != "" {
		c.Serial.Port = v
	}
}

// Validate validates the configuration. Scheduler blocks and the
// message timer are excluded here; they degrade to warnings instead.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}

// DirectPlayEnabled reports whether unconfigured codes may play
// straight from the library. Defaults to true when the section is
// absent.
func (c *Config) DirectPlayEnabled() bool {
	return c.Direct.Enabled == nil || *c.Direct.Enabled
}

// BusyOutputActiveHigh reports the remote-busy output polarity,
// defaulting to active-high.
func (c *Config) BusyOutputActiveHigh() bool {
	return c.GPIO.RemoteBusyActiveHigh == nil || *c.GPIO.RemoteBusyActiveHigh
}

// ParseMessageTimer interprets the message_timer value: "N" never
// plays messages, "0" always plays them, any other number is the
// minimum gap in minutes. An unparseable value falls back to "0" with
// a warning, the same degrade-don't-abort policy as SchedulerBlocks.
func (c *Config) ParseMessageTimer() (never bool, interval time.Duration) {
	v := strings.TrimSpace(c.MessageTimer)
	if v == "" || v == "0" {
		return false, 0
	}
	if strings.EqualFold(v, "N") {
		return true, 0
	}
	minutes, err := strconv.Atoi(v)
	if err != nil || minutes < 0 {
		zlog.Warn().Str("message_timer", c.MessageTimer).Msg("invalid message_timer value, falling back to 0 (always allow)")
		return false, 0
	}
	return false, time.Duration(minutes) * time.Minute
}

// SchedulerBlocks decodes and validates the configured scheduler
// entries, in file order. Invalid entries are logged and skipped so a
// config typo never takes the controller down.
func (c *Config) SchedulerBlocks() []Block {
	blocks := make([]Block, 0, len(c.Schedulers))
	for i, sc := range c.Schedulers {
		block, err := decodeSchedulerBlock(sc)
		if err != nil {
			zlog.Warn().Err(err).Int("index", i).Str("kind", sc.Kind).Msg("skipping invalid scheduler block")
			continue
		}
		blocks = append(blocks, block)
	}
	return blocks
}

func decodeSchedulerBlock(sc SchedulerConfig) (Block, error) {
	if !schedulerKinds[sc.Kind] {
		return Block{}, errors.Newf("unknown scheduler kind %q", sc.Kind)
	}
	if len(sc.Settings) == 0 {
		return Block{}, errors.New("settings are required")
	}

	var settings schedulerSettings
	if err := mapstructure.Decode(sc.Settings, &settings); err != nil {
		return Block{}, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&settings); err != nil {
		return Block{}, errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(settings); err != nil {
		return Block{}, errors.Wrap(err, "validation failed")
	}

	return Block{
		Kind:     sc.Kind,
		Base:     settings.Base,
		End:      settings.End,
		Interval: time.Duration(settings.IntervalSec) * time.Second,
	}, nil
}
