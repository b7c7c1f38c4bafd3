// Command neotron runs the Neotron console and program loader on a host
// terminal, with an optional serial port and WebSocket mirror.
package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/neotron-os/go-neotron/internal/config"
	"github.com/neotron-os/go-neotron/internal/lock"
)

// CLI is the command line.
type CLI struct {
	config.Config `embed:""`

	Shell ShellCmd `cmd:"" default:"1" help:"Start the interactive shell (default)."`
	Run   RunCmd   `cmd:"" help:"Load and run one program, then print the screen."`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("neotron"),
		kong.Description("A VGA text console and Z80 program loader."),
		kong.UsageOnError(),
	)

	log, closeLog, err := newLogger(&cli.Config)
	ctx.FatalIfErrorf(err)

	err = ctx.Run(&cli.Config, log)
	closeLog()
	ctx.FatalIfErrorf(err)
}

// newLogger writes to the configured log file. Without one, logs are
// discarded, since the console owns the terminal.
func newLogger(cfg *config.Config) (*logrus.Logger, func(), error) {
	log := logrus.New()
	log.SetLevel(cfg.Level())
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if cfg.LogFile == "" {
		log.SetOutput(io.Discard)
		return log, func() {}, nil
	}

	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, errors.Wrap(err, "log file")
	}
	log.SetOutput(f)
	return log, func() { f.Close() }, nil
}

// startDevices attaches the optional serial port, WebSocket mirror and
// speaker. They are shut down when ctx is done.
func startDevices(ctx context.Context, host *Host, cfg *config.Config, log *logrus.Logger) error {
	if cfg.SerialPort != "" {
		port, err := openSerial(cfg.SerialPort, cfg.Baud)
		if err != nil {
			return err
		}
		host.SetSerial(ctx, port)
		go func() {
			<-ctx.Done()
			port.Close()
		}()
		log.Infof("serial: mirroring to %s at %d baud", cfg.SerialPort, cfg.Baud)
	}

	if cfg.Listen != "" {
		mux := http.NewServeMux()
		mux.Handle("/ws", host.mirror)
		srv := &http.Server{Addr: cfg.Listen, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorf("mirror: %v", err)
			}
		}()
		go func() {
			<-ctx.Done()
			shutdown, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			srv.Shutdown(shutdown)
		}()
		log.Infof("mirror: serving ws://%s/ws", cfg.Listen)
	}

	if cfg.Audio {
		if err := startSpeaker(host.audio, cfg.AudioRate); err != nil {
			log.Warnf("audio disabled: %v", err)
		}
	}
	return nil
}

// recoverPanic reports a panic on the console the way the OS would, then
// calls stop. The console is left untouched if the panic happened while it
// was being written.
func recoverPanic(host *Host, log *logrus.Logger, stop func()) {
	r := recover()
	if r == nil {
		return
	}
	lock.SetPanicking()
	log.Errorf("panic: %v\n%s", r, debug.Stack())
	host.PanicPrint("PANIC!\n%v\n", r)
	stop()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
