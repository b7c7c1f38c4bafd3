package main

import (
	"context"
	"debug/elf"
	"fmt"
	"io"

	"github.com/gopxl/beep"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	vgaconsole "github.com/neotron-os/go-neotron"
	"github.com/neotron-os/go-neotron/hostfs"
	"github.com/neotron-os/go-neotron/internal/config"
	"github.com/neotron-os/go-neotron/internal/lock"
	"github.com/neotron-os/go-neotron/program"
	"github.com/neotron-os/go-neotron/tpa"
)

// audioBufferSize is the audio queue in bytes, about a tenth of a second
// of 16-bit stereo at 48 kHz.
const audioBufferSize = 19200

// Host owns everything a running OS instance needs: the console, the disk,
// the Transient Program Area and the processor that runs programs out of it.
type Host struct {
	cfg *config.Config
	log *logrus.Logger

	console *vgaconsole.Console
	cell    *lock.Cell[io.Writer]
	out     *program.ConsoleWriter
	input   *program.InputQueue
	mirror  *Mirror

	fs       *hostfs.DirFS
	cpu      *program.Z80
	arena    *tpa.Arena
	loader   *tpa.Loader
	api      *program.API
	executor *program.Executor
	audio    *program.BeepSink
}

// NewHost builds a host from cfg. Nothing is started.
func NewHost(cfg *config.Config, log *logrus.Logger) (*Host, error) {
	h := &Host{
		cfg:    cfg,
		log:    log,
		input:  program.NewInputQueue(),
		mirror: NewMirror(64*1024, log),
	}

	h.console = vgaconsole.New(
		vgaconsole.WithMode(cfg.Mode()),
		vgaconsole.WithResponse(h.input),
		vgaconsole.WithRecording(h.mirror),
	)
	h.mirror.SetConsole(h.console)
	h.cell = lock.New[io.Writer](h.console)
	h.out = program.NewConsoleWriter(h.cell, nil, log)

	fs, err := hostfs.NewDirFS(cfg.Root)
	if err != nil {
		return nil, errors.Wrap(err, "disk")
	}
	h.fs = fs

	h.cpu = program.NewZ80(program.WithZ80Logger(log))
	h.arena, err = tpa.New(h.cpu.Region(), cfg.SystemStartAddr())
	if err != nil {
		return nil, errors.Wrap(err, "transient program area")
	}
	h.loader = tpa.NewLoader(h.arena, h.fs, tpa.WithMachine(elf.EM_Z80), tpa.WithLogger(log))

	h.audio = program.NewBeepSink(beep.SampleRate(cfg.AudioRate), audioBufferSize)
	h.api = program.NewAPI(program.NewHandleTable(log),
		program.WithFileSystem(h.fs),
		program.WithStdout(h.out),
		program.WithStdin(h.input),
		program.WithAudio(h.audio),
		program.WithAPILogger(log),
	)
	h.executor = program.NewExecutor(h.arena, h.api, h.cpu, program.WithLogger(log))

	return h, nil
}

// Console returns the text console.
func (h *Host) Console() *vgaconsole.Console {
	return h.console
}

// FS returns the disk.
func (h *Host) FS() *hostfs.DirFS {
	return h.fs
}

// Arena returns the Transient Program Area.
func (h *Host) Arena() *tpa.Arena {
	return h.arena
}

// Memory returns the processor address space.
func (h *Host) Memory() *program.Memory {
	return h.cpu.Memory()
}

// Output returns the writer programs and the shell print through.
func (h *Host) Output() io.Writer {
	return h.out
}

// Input returns the keyboard queue.
func (h *Host) Input() *program.InputQueue {
	return h.input
}

// SetSerial mirrors console output to w and feeds bytes read from it into
// the keyboard queue until ctx is done or the port fails.
func (h *Host) SetSerial(ctx context.Context, port io.ReadWriter) {
	h.out.SetSerial(port)
	go func() {
		buf := make([]byte, 64)
		for ctx.Err() == nil {
			n, err := port.Read(buf)
			if err != nil {
				h.log.Warnf("serial: %v", err)
				return
			}
			h.input.PushString(string(buf[:n]))
		}
	}()
}

// Load stages a program from disk.
func (h *Host) Load(name string) error {
	return h.loader.Load(name)
}

// LoadROM stages a built-in program.
func (h *Host) LoadROM(name string) error {
	image, ok := romImage(name)
	if !ok {
		return errors.Errorf("couldn't find %s in ROM", name)
	}
	return h.loader.LoadBytes(name, image)
}

// Run executes the staged program with args.
func (h *Host) Run(ctx context.Context, args ...string) (int32, error) {
	return h.executor.Execute(ctx, args...)
}

// Printf writes formatted text to the console.
func (h *Host) Printf(format string, args ...any) {
	fmt.Fprintf(h.out, format, args...)
}

// PanicPrint writes a diagnostic unless the console is mid-write.
func (h *Host) PanicPrint(format string, args ...any) {
	lock.PanicPrint(h.cell, format, args...)
}
