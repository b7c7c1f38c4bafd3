package main

import (
	"io"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/jacobsa/go-serial/serial"
	"github.com/pkg/errors"

	"github.com/neotron-os/go-neotron/program"
)

// openSerial opens the console mirror port as 8N1.
func openSerial(name string, baud uint) (io.ReadWriteCloser, error) {
	port, err := serial.Open(serial.OpenOptions{
		PortName:        name,
		BaudRate:        baud,
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open serial port %s", name)
	}
	return port, nil
}

// startSpeaker plays the audio device through the host speaker.
func startSpeaker(sink *program.BeepSink, rate int) error {
	sr := beep.SampleRate(rate)
	if err := speaker.Init(sr, sr.N(time.Second/10)); err != nil {
		return errors.Wrap(err, "speaker")
	}
	speaker.Play(sink.Streamer())
	return nil
}
