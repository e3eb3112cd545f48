// Package config loads the daemon configuration file.
//
// The file is JSON unless its name ends in .yaml or .yml. Only ignition_pin
// and serial_port are required; everything else has a default.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ErrConfig marks a missing, malformed or invalid configuration.
var ErrConfig = errors.New("config")

const (
	InputGPIO  = "gpio"
	InputEvdev = "evdev"
)

// DefaultLogFile is the audit log used when log_file is unset, and before
// the configuration is loaded.
const DefaultLogFile = "talkingcar.log"

// Config is the validated, immutable daemon configuration.
type Config struct {
	IgnitionPin int
	SerialPort  string

	Input       string
	GPIOChip    string
	EvdevDevice string
	EvdevKey    int
	Debounce    time.Duration

	Track             uint8
	Baud              int
	ReadTimeout       time.Duration
	HandshakeInterval time.Duration
	HandshakeTimeout  time.Duration
	HandshakeAttempts int

	ResetInterval time.Duration

	LogFile  string
	LogLevel log.Level
}

// file mirrors the on-disk keys. Pointers tell missing keys from zeros.
type file struct {
	IgnitionPin *int    `json:"ignition_pin" yaml:"ignition_pin"`
	SerialPort  *string `json:"serial_port" yaml:"serial_port"`

	Input       string   `json:"input" yaml:"input"`
	GPIOChip    string   `json:"gpio_chip" yaml:"gpio_chip"`
	EvdevDevice string   `json:"evdev_device" yaml:"evdev_device"`
	EvdevKey    int      `json:"evdev_key" yaml:"evdev_key"`
	Debounce    Duration `json:"debounce" yaml:"debounce"`

	Track             *int     `json:"track" yaml:"track"`
	Baud              int      `json:"baud" yaml:"baud"`
	ReadTimeout       Duration `json:"read_timeout" yaml:"read_timeout"`
	HandshakeInterval Duration `json:"handshake_interval" yaml:"handshake_interval"`
	HandshakeTimeout  Duration `json:"handshake_timeout" yaml:"handshake_timeout"`
	HandshakeAttempts int      `json:"handshake_attempts" yaml:"handshake_attempts"`

	ResetInterval Duration `json:"reset_interval" yaml:"reset_interval"`

	LogFile  string `json:"log_file" yaml:"log_file"`
	LogLevel string `json:"log_level" yaml:"log_level"`
}

// Load reads, decodes and validates the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrConfig, path, err)
	}
	f := file{HandshakeTimeout: Duration(-1)}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &f)
	default:
		err = json.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %w", ErrConfig, path, err)
	}
	cfg, err := f.build()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConfig, path, err)
	}
	return cfg, nil
}

func (f *file) build() (*Config, error) {
	if f.IgnitionPin == nil {
		return nil, errors.New("ignition_pin is required")
	}
	if f.SerialPort == nil || *f.SerialPort == "" {
		return nil, errors.New("serial_port is required")
	}
	if *f.IgnitionPin < 0 {
		return nil, fmt.Errorf("ignition_pin %d is negative", *f.IgnitionPin)
	}
	c := &Config{
		IgnitionPin:       *f.IgnitionPin,
		SerialPort:        *f.SerialPort,
		Input:             f.Input,
		GPIOChip:          f.GPIOChip,
		EvdevDevice:       f.EvdevDevice,
		EvdevKey:          f.EvdevKey,
		Debounce:          time.Duration(f.Debounce),
		Track:             1,
		Baud:              f.Baud,
		ReadTimeout:       time.Duration(f.ReadTimeout),
		HandshakeInterval: time.Duration(f.HandshakeInterval),
		HandshakeTimeout:  time.Duration(f.HandshakeTimeout),
		HandshakeAttempts: f.HandshakeAttempts,
		ResetInterval:     time.Duration(f.ResetInterval),
		LogFile:           f.LogFile,
		LogLevel:          log.DebugLevel,
	}
	if f.Track != nil {
		if *f.Track < 0 || *f.Track > 255 {
			return nil, fmt.Errorf("track %d out of range 0..255", *f.Track)
		}
		c.Track = uint8(*f.Track)
	}
	if f.LogLevel != "" {
		lvl, err := log.ParseLevel(f.LogLevel)
		if err != nil {
			return nil, err
		}
		c.LogLevel = lvl
	}
	c.setDefaults()
	return c, c.validate()
}

func (c *Config) setDefaults() {
	if c.Input == "" {
		c.Input = InputGPIO
	}
	if c.GPIOChip == "" {
		c.GPIOChip = "gpiochip0"
	}
	if c.Debounce == 0 {
		c.Debounce = 300 * time.Millisecond
	}
	if c.Baud == 0 {
		c.Baud = 9600
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = time.Second
	}
	if c.HandshakeInterval == 0 {
		c.HandshakeInterval = 100 * time.Millisecond
	}
	// absent means the default bound; an explicit "0" disables it
	if c.HandshakeTimeout < 0 {
		c.HandshakeTimeout = 30 * time.Second
	}
	if c.LogFile == "" {
		c.LogFile = DefaultLogFile
	}
}

func (c *Config) validate() error {
	switch c.Input {
	case InputGPIO:
	case InputEvdev:
		if c.EvdevDevice == "" {
			return errors.New("evdev_device is required with input evdev")
		}
	default:
		return fmt.Errorf("unknown input %q", c.Input)
	}
	if c.Baud < 0 {
		return fmt.Errorf("baud %d is negative", c.Baud)
	}
	for name, d := range map[string]time.Duration{
		"debounce":           c.Debounce,
		"read_timeout":       c.ReadTimeout,
		"handshake_interval": c.HandshakeInterval,
		"reset_interval":     c.ResetInterval,
	} {
		if d < 0 {
			return fmt.Errorf("%s %v is negative", name, d)
		}
	}
	if c.HandshakeAttempts < 0 {
		return fmt.Errorf("handshake_attempts %d is negative", c.HandshakeAttempts)
	}
	return nil
}

// Duration decodes from a time.ParseDuration string.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"300ms\": %w", err)
	}
	return d.set(s)
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	return d.set(s)
}

func (d *Duration) set(s string) error {
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}
