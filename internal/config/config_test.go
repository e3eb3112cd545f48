package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadMinimal(t *testing.T) {
	p := writeFile(t, "config.json", `{ "ignition_pin": 17, "serial_port": "/dev/ttyS0" }`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	want := Config{
		IgnitionPin:       17,
		SerialPort:        "/dev/ttyS0",
		Input:             InputGPIO,
		GPIOChip:          "gpiochip0",
		Debounce:          300 * time.Millisecond,
		Track:             1,
		Baud:              9600,
		ReadTimeout:       time.Second,
		HandshakeInterval: 100 * time.Millisecond,
		HandshakeTimeout:  30 * time.Second,
		LogFile:           "talkingcar.log",
		LogLevel:          log.DebugLevel,
	}
	if *cfg != want {
		t.Fatalf("wanted %+v, got %+v", want, *cfg)
	}
}

func TestLoadYAML(t *testing.T) {
	p := writeFile(t, "config.yaml", `
ignition_pin: 4
serial_port: /dev/ttyAMA0
input: evdev
evdev_device: ignition-keys
evdev_key: 28
track: 7
handshake_timeout: 0s
handshake_attempts: 50
reset_interval: 1m
log_level: info
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.IgnitionPin != 4 || cfg.SerialPort != "/dev/ttyAMA0" {
		t.Fatalf("wrong pin/port: %+v", cfg)
	}
	if cfg.Input != InputEvdev || cfg.EvdevDevice != "ignition-keys" || cfg.EvdevKey != 28 {
		t.Fatalf("wrong input: %+v", cfg)
	}
	if cfg.Track != 7 {
		t.Fatalf("wanted track 7, got %d", cfg.Track)
	}
	if cfg.HandshakeTimeout != 0 || cfg.HandshakeAttempts != 50 {
		t.Fatalf("wrong handshake bounds: %v / %d", cfg.HandshakeTimeout, cfg.HandshakeAttempts)
	}
	if cfg.ResetInterval != time.Minute {
		t.Fatalf("wanted 1m reset interval, got %v", cfg.ResetInterval)
	}
	if cfg.LogLevel != log.InfoLevel {
		t.Fatalf("wanted info level, got %v", cfg.LogLevel)
	}
}

func TestLoadErrors(t *testing.T) {
	tts := []struct {
		name string
		body string
	}{
		{"config.json", `{ "ignition_pin": 17, "serial_port": `},
		{"config.json", `{ "serial_port": "/dev/ttyS0" }`},
		{"config.json", `{ "ignition_pin": 17 }`},
		{"config.json", `{ "ignition_pin": 17, "serial_port": "" }`},
		{"config.json", `{ "ignition_pin": -1, "serial_port": "/dev/ttyS0" }`},
		{"config.json", `{ "ignition_pin": 17, "serial_port": "/dev/ttyS0", "track": 256 }`},
		{"config.json", `{ "ignition_pin": 17, "serial_port": "/dev/ttyS0", "input": "adc" }`},
		{"config.json", `{ "ignition_pin": 17, "serial_port": "/dev/ttyS0", "input": "evdev" }`},
		{"config.json", `{ "ignition_pin": 17, "serial_port": "/dev/ttyS0", "debounce": 300 }`},
		{"config.json", `{ "ignition_pin": 17, "serial_port": "/dev/ttyS0", "debounce": "soon" }`},
		{"config.json", `{ "ignition_pin": 17, "serial_port": "/dev/ttyS0", "log_level": "loud" }`},
		{"config.yml", "ignition_pin: [17\n"},
	}
	for i, tt := range tts {
		_, err := Load(writeFile(t, tt.name, tt.body))
		if !errors.Is(err, ErrConfig) {
			t.Errorf("#%d: expected ErrConfig, got %v", i, err)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "config.json"))
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist cause, got %v", err)
	}
}
