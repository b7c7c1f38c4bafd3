package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/neotron-os/go-neotron/internal/config"
)

const (
	// frameInterval is how often the screen is repainted.
	frameInterval = time.Second / 30
	// idleInterval is how long the shell sleeps when no input is queued.
	idleInterval = 5 * time.Millisecond
)

// ShellCmd runs the interactive shell on the host terminal.
type ShellCmd struct{}

// Run starts the shell and blocks until Ctrl-Q or a signal.
func (c *ShellCmd) Run(cfg *config.Config, log *logrus.Logger) error {
	host, err := NewHost(cfg, log)
	if err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return errors.Wrap(err, "screen")
	}
	if err := screen.Init(); err != nil {
		return errors.Wrap(err, "screen")
	}
	defer screen.Fini()

	ctx, cancel := signalContext()
	defer cancel()

	if err := startDevices(ctx, host, cfg, log); err != nil {
		return err
	}

	display := NewDisplay(screen, host.Console(), host.Input())
	shell := NewShell(host)
	shell.Banner()
	shell.Prompt()

	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			if !display.HandleEvent(ev) {
				cancel()
				return
			}
		}
	}()

	go func() {
		defer recoverPanic(host, log, cancel)
		for ctx.Err() == nil {
			if !shell.Poll(ctx) {
				time.Sleep(idleInterval)
			}
		}
	}()

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			display.Draw()
			return nil
		case <-ticker.C:
			display.Draw()
		}
	}
}

// RunCmd loads a single program, runs it with the terminal in raw mode and
// prints the final screen.
type RunCmd struct {
	File string   `arg:"" help:"ELF program relative to --root, or the name of a built-in program."`
	Args []string `arg:"" optional:"" help:"Up to four program arguments."`
}

// Run executes the program and fails if it exits non-zero.
func (c *RunCmd) Run(cfg *config.Config, log *logrus.Logger) error {
	host, err := NewHost(cfg, log)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	if err := startDevices(ctx, host, cfg, log); err != nil {
		return err
	}

	if _, ok := romImage(c.File); ok {
		err = host.LoadROM(c.File)
	} else {
		err = host.Load(c.File)
	}
	if err != nil {
		return err
	}

	code, err := c.execute(ctx, host, log)
	fmt.Println(host.Console().String())
	if err != nil {
		return errors.Wrap(err, "failed to execute")
	}
	if code != 0 {
		return errors.Errorf("error code: %d", code)
	}
	return nil
}

// execute runs the program with stdin in raw mode feeding the keyboard queue.
func (c *RunCmd) execute(ctx context.Context, host *Host, log *logrus.Logger) (code int32, err error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		old, err := term.MakeRaw(fd)
		if err != nil {
			return 0, errors.Wrap(err, "raw mode")
		}
		defer term.Restore(fd, old)

		go func() {
			buf := make([]byte, 16)
			for ctx.Err() == nil {
				n, err := os.Stdin.Read(buf)
				if err != nil {
					return
				}
				host.Input().PushString(string(buf[:n]))
			}
		}()
	}

	defer recoverPanic(host, log, func() {
		err = errors.New("program panicked")
	})
	return host.Run(ctx, c.Args...)
}
