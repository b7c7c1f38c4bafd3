package program

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gopxl/beep"
)

// SampleFormat is the PCM layout a program writes to the audio device.
type SampleFormat uint8

const (
	EightBitMono SampleFormat = iota
	EightBitStereo
	SixteenBitMono
	SixteenBitStereo
)

func (f SampleFormat) String() string {
	switch f {
	case EightBitMono:
		return "8-bit mono"
	case EightBitStereo:
		return "8-bit stereo"
	case SixteenBitMono:
		return "16-bit mono"
	case SixteenBitStereo:
		return "16-bit stereo"
	default:
		return fmt.Sprintf("format(%d)", uint8(f))
	}
}

// FrameSize returns the number of bytes per sample frame.
func (f SampleFormat) FrameSize() int {
	switch f {
	case EightBitMono:
		return 1
	case EightBitStereo, SixteenBitMono:
		return 2
	default:
		return 4
	}
}

// AudioConfig is the format and sample rate of the audio device.
type AudioConfig struct {
	Format SampleFormat
	Rate   uint32
}

// DefaultAudioConfig is 16-bit stereo at 48 kHz.
var DefaultAudioConfig = AudioConfig{Format: SixteenBitStereo, Rate: 48000}

// Pack encodes c as an ioctl value: the format in the top nibble and the
// sample rate in the low 32 bits.
func (c AudioConfig) Pack() uint64 {
	return uint64(c.Format)<<60 | uint64(c.Rate)
}

// UnpackAudioConfig decodes an ioctl value.
func UnpackAudioConfig(v uint64) (AudioConfig, error) {
	format := SampleFormat(v >> 60)
	rate := uint32(v)
	if format > SixteenBitStereo || rate == 0 {
		return AudioConfig{}, ErrInvalidArg
	}
	return AudioConfig{Format: format, Rate: rate}, nil
}

func (c AudioConfig) String() string {
	return fmt.Sprintf("%v @ %d Hz", c.Format, c.Rate)
}

// AudioDevice is the audio handle's backend.
type AudioDevice interface {
	Config() AudioConfig
	SetConfig(AudioConfig) error
	Write(p []byte) (int, error)
	Space() int
}

// BeepSink is an AudioDevice that plays through a beep.Streamer. PCM written by
// the program is queued and decoded as the speaker pulls samples; the queue
// plays silence when it runs dry.
type BeepSink struct {
	mu       sync.Mutex
	cfg      AudioConfig
	queue    []byte
	capacity int

	device    beep.SampleRate
	resampler *beep.Resampler
}

// NewBeepSink creates a sink buffering up to capacity bytes, resampled to the
// device rate.
func NewBeepSink(device beep.SampleRate, capacity int) *BeepSink {
	s := &BeepSink{
		cfg:      DefaultAudioConfig,
		queue:    make([]byte, 0, capacity),
		capacity: capacity,
		device:   device,
	}
	s.resampler = beep.Resample(4, beep.SampleRate(s.cfg.Rate), device, sinkStreamer{s})
	return s
}

// Streamer returns the device-rate stream to hand to the speaker.
func (s *BeepSink) Streamer() beep.Streamer {
	return s.resampler
}

// Config returns the current format and rate.
func (s *BeepSink) Config() AudioConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// SetConfig changes the format and rate. Queued audio is discarded.
func (s *BeepSink) SetConfig(cfg AudioConfig) error {
	if cfg.Format > SixteenBitStereo || cfg.Rate == 0 {
		return ErrInvalidArg
	}

	s.mu.Lock()
	s.cfg = cfg
	s.queue = s.queue[:0]
	s.mu.Unlock()

	s.resampler.SetRatio(float64(cfg.Rate) / float64(s.device))
	return nil
}

// Write queues whole frames of PCM and returns how many bytes were taken.
func (s *BeepSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	frame := s.cfg.Format.FrameSize()
	n := s.capacity - len(s.queue)
	if n > len(p) {
		n = len(p)
	}
	n -= n % frame
	s.queue = append(s.queue, p[:n]...)
	return n, nil
}

// Space returns the number of bytes Write will accept.
func (s *BeepSink) Space() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.capacity - len(s.queue)
}

// Buffered returns the number of queued bytes.
func (s *BeepSink) Buffered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// stream decodes queued frames into samples at the program's rate.
func (s *BeepSink) stream(samples [][2]float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	frame := s.cfg.Format.FrameSize()
	off, i := 0, 0
	for ; i < len(samples) && len(s.queue)-off >= frame; i++ {
		samples[i] = decodeFrame(s.cfg.Format, s.queue[off:off+frame])
		off += frame
	}
	for ; i < len(samples); i++ {
		samples[i] = [2]float64{}
	}

	s.queue = s.queue[:copy(s.queue, s.queue[off:])]
}

func decodeFrame(format SampleFormat, b []byte) [2]float64 {
	switch format {
	case EightBitMono:
		v := unsigned8(b[0])
		return [2]float64{v, v}
	case EightBitStereo:
		return [2]float64{unsigned8(b[0]), unsigned8(b[1])}
	case SixteenBitMono:
		v := signed16(b)
		return [2]float64{v, v}
	default:
		return [2]float64{signed16(b), signed16(b[2:])}
	}
}

func unsigned8(b byte) float64 {
	return (float64(b) - 128) / 128
}

func signed16(b []byte) float64 {
	return float64(int16(binary.LittleEndian.Uint16(b))) / 32768
}

// sinkStreamer adapts BeepSink to beep.Streamer. It never ends.
type sinkStreamer struct {
	s *BeepSink
}

func (st sinkStreamer) Stream(samples [][2]float64) (int, bool) {
	st.s.stream(samples)
	return len(samples), true
}

func (st sinkStreamer) Err() error {
	return nil
}
