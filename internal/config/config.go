// Package config holds the host settings shared by every neotron command.
package config

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	vgaconsole "github.com/neotron-os/go-neotron"
)

// Config is embedded into the command line. Every flag can also be set from
// the environment.
type Config struct {
	Rows int    `name:"rows" default:"25" env:"NEOTRON_ROWS" help:"Console rows."`
	Cols int    `name:"cols" default:"80" env:"NEOTRON_COLS" help:"Console columns."`
	Root string `name:"root" default:"." env:"NEOTRON_ROOT" type:"existingdir" help:"Host directory used as the disk."`

	SerialPort string `name:"serial-port" env:"NEOTRON_SERIAL_PORT" help:"Serial device the console is mirrored to."`
	Baud       uint   `name:"baud" default:"115200" env:"NEOTRON_BAUD" help:"Serial baud rate."`
	Listen     string `name:"listen" env:"NEOTRON_LISTEN" help:"Address to serve the WebSocket console mirror on, e.g. :8080."`

	Audio     bool `name:"audio" default:"true" negatable:"" env:"NEOTRON_AUDIO" help:"Play the audio device through the host speaker."`
	AudioRate int  `name:"audio-rate" default:"48000" env:"NEOTRON_AUDIO_RATE" help:"Host speaker sample rate."`

	LogLevel string `name:"log-level" default:"info" enum:"trace,debug,info,warn,error" env:"NEOTRON_LOG_LEVEL" help:"Log level."`
	LogFile  string `name:"log-file" env:"NEOTRON_LOG_FILE" help:"Write logs to this file instead of discarding them."`

	SystemStart uint32 `name:"system-start" default:"0" env:"NEOTRON_SYSTEM_START" help:"Reserve arena memory below this address (0 for none)."`
}

// Validate is called by kong after parsing.
func (c *Config) Validate() error {
	if c.Rows < 1 || c.Rows > 255 {
		return errors.Errorf("rows must be between 1 and 255, got %d", c.Rows)
	}
	if c.Cols < 1 || c.Cols > 255 {
		return errors.Errorf("cols must be between 1 and 255, got %d", c.Cols)
	}
	if c.Baud == 0 {
		return errors.New("baud must be positive")
	}
	if c.AudioRate < 8000 || c.AudioRate > 192000 {
		return errors.Errorf("audio rate must be between 8000 and 192000, got %d", c.AudioRate)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "log level")
	}
	return nil
}

// Mode returns the configured console geometry.
func (c *Config) Mode() vgaconsole.TextMode {
	return vgaconsole.TextMode{Rows: c.Rows, Cols: c.Cols}
}

// Level returns the parsed log level, or Info if it does not parse.
func (c *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// SystemStartAddr returns the system start address, or nil if none is set.
func (c *Config) SystemStartAddr() *uint32 {
	if c.SystemStart == 0 {
		return nil
	}
	addr := c.SystemStart
	return &addr
}
