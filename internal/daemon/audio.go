package daemon

import (
	"context"

	"github.com/KacperPiotrowski/talkingcar/audio"
	"github.com/KacperPiotrowski/talkingcar/internal/config"
)

// AudioConfig maps the daemon configuration onto the audio channel.
func AudioConfig(cfg *config.Config) audio.Config {
	return audio.Config{
		Port:              cfg.SerialPort,
		Baud:              cfg.Baud,
		ReadTimeout:       cfg.ReadTimeout,
		HandshakeInterval: cfg.HandshakeInterval,
		HandshakeTimeout:  cfg.HandshakeTimeout,
		HandshakeAttempts: cfg.HandshakeAttempts,
	}
}

func (d *daemon) startAudio(ctx context.Context) (channel, error) {
	ch, err := audio.Dial(ctx, AudioConfig(d.cfg), d.log)
	if err != nil {
		return nil, err
	}
	d.log.Info("audio module initialized")
	return ch, nil
}
