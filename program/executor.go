// Package program runs a program staged in the Transient Program Area and
// serves the host API it calls back into.
package program

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/neotron-os/go-neotron/tpa"
)

// MaxArgs is the number of argument slots passed to a program.
const MaxArgs = 4

// Args is the fixed argument array handed to a program. Slots past Count are empty.
type Args struct {
	Values [MaxArgs]string
	Count  int
}

// Processor transfers control to a loaded program and runs it until it returns.
// It is the only place program code executes.
type Processor interface {
	Call(ctx context.Context, entry tpa.EntryPoint, api *API, args Args) (int32, error)
}

// Executor runs the program staged in an arena.
type Executor struct {
	arena *tpa.Arena
	api   *API
	proc  Processor
	log   *logrus.Logger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithLogger sets the logger. Defaults to logrus.StandardLogger().
func WithLogger(log *logrus.Logger) ExecutorOption {
	return func(e *Executor) {
		e.log = log
	}
}

// NewExecutor creates an executor for programs staged in arena.
func NewExecutor(arena *tpa.Arena, api *API, proc Processor, opts ...ExecutorOption) *Executor {
	e := &Executor{
		arena: arena,
		api:   api,
		proc:  proc,
		log:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs the staged program with up to MaxArgs arguments and returns its
// exit code. A non-zero exit code is not an error. Whatever happens, every
// handle is closed and the program must be loaded again before the next run.
func (e *Executor) Execute(ctx context.Context, args ...string) (int32, error) {
	entry := e.arena.LastEntry()
	if !entry.Valid() {
		return 0, ErrNothingLoaded
	}
	if len(args) > MaxArgs {
		return 0, errors.Wrapf(ErrTooManyArgs, "%d given, at most %d", len(args), MaxArgs)
	}

	handles := e.api.Handles()
	handles.Reset()
	defer func() {
		handles.CloseAll()
		e.arena.ClearLastEntry()
	}()

	var packed Args
	packed.Count = copy(packed.Values[:], args)

	e.log.Debugf("program: calling %v with %d arguments", entry, packed.Count)
	code, err := e.proc.Call(ctx, entry, e.api, packed)
	if err != nil {
		return 0, errors.Wrapf(err, "execute %v", entry)
	}

	e.log.Infof("program: %v exited with code %d", entry, code)
	return code, nil
}
