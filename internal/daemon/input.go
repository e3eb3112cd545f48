package daemon

import (
	"github.com/KacperPiotrowski/talkingcar/ignition"
	"github.com/KacperPiotrowski/talkingcar/internal/config"
)

func newSource(cfg *config.Config) ignition.Source {
	if cfg.Input == config.InputEvdev {
		return &ignition.EvdevSource{
			Device: cfg.EvdevDevice,
			Key:    cfg.EvdevKey,
		}
	}
	return &ignition.GPIOSource{
		Chip:     cfg.GPIOChip,
		Debounce: cfg.Debounce,
	}
}
