package program

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/neotron-os/go-neotron/tpa"
)

// scriptedProcessor runs a Go function in place of program code.
type scriptedProcessor struct {
	run   func(api *API, args Args) (int32, error)
	calls int
	entry tpa.EntryPoint
	kinds [MaxHandles]Kind
}

func (p *scriptedProcessor) Call(ctx context.Context, entry tpa.EntryPoint, api *API, args Args) (int32, error) {
	p.calls++
	p.entry = entry
	p.kinds = api.Handles().Kinds()
	return p.run(api, args)
}

func newTestExecutor(t *testing.T, proc Processor) (*Executor, *tpa.Arena, *testAPI) {
	t.Helper()
	arena, err := tpa.New(tpa.Region{Base: ArenaBase, Mem: make([]byte, 0x100)}, nil)
	if err != nil {
		t.Fatalf("tpa.New: %v", err)
	}
	ta := newTestAPI(t)
	return NewExecutor(arena, ta.api, proc, WithLogger(quietLogger())), arena, ta
}

func TestExecuteNothingLoaded(t *testing.T) {
	proc := &scriptedProcessor{run: func(*API, Args) (int32, error) { return 0, nil }}
	e, _, _ := newTestExecutor(t, proc)

	if _, err := e.Execute(context.Background()); !errors.Is(err, ErrNothingLoaded) {
		t.Errorf("expected ErrNothingLoaded, got %v", err)
	}
	if proc.calls != 0 {
		t.Errorf("expected no call, got %d", proc.calls)
	}
}

func TestExecuteTooManyArgs(t *testing.T) {
	proc := &scriptedProcessor{run: func(*API, Args) (int32, error) { return 0, nil }}
	e, arena, _ := newTestExecutor(t, proc)
	arena.CopyProgram([]byte{0xC9})

	_, err := e.Execute(context.Background(), "1", "2", "3", "4", "5")
	if !errors.Is(err, ErrTooManyArgs) {
		t.Errorf("expected ErrTooManyArgs, got %v", err)
	}
	if !arena.LastEntry().Valid() {
		t.Error("expected the program to stay loaded after a rejected call")
	}
}

func TestExecutePacksArgs(t *testing.T) {
	var got Args
	proc := &scriptedProcessor{run: func(api *API, args Args) (int32, error) {
		got = args
		return 0, nil
	}}
	e, arena, _ := newTestExecutor(t, proc)
	arena.CopyProgram([]byte{0xC9})

	e.Execute(context.Background(), "a", "")

	if got.Count != 2 {
		t.Errorf("expected 2 arguments, got %d", got.Count)
	}
	if got.Values != [MaxArgs]string{"a", "", "", ""} {
		t.Errorf("expected [a, '', '', ''], got %q", got.Values)
	}
	if proc.entry != tpa.EntryPoint(ArenaBase) {
		t.Errorf("expected entry 0x100, got %v", proc.entry)
	}
}

func TestExecuteHandleHygiene(t *testing.T) {
	proc := &scriptedProcessor{run: func(api *API, args Args) (int32, error) {
		if _, err := api.Open("LEAK.TXT", OpenCreate); err != nil {
			return 0, err
		}
		if _, err := api.Open(AudioPath, 0); err != nil {
			return 0, err
		}
		return 3, nil
	}}
	e, arena, ta := newTestExecutor(t, proc)

	// Handles left open before the run are discarded by the reset.
	ta.api.Handles().Allocate(KindAudio, nil, AudioPath)
	ta.api.Handles().Allocate(KindAudio, nil, AudioPath)
	ta.api.Handles().Allocate(KindAudio, nil, AudioPath)
	ta.api.Handles().Allocate(KindAudio, nil, AudioPath)

	arena.CopyProgram([]byte{0xC9})
	code, err := e.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if code != 3 {
		t.Errorf("expected exit code 3 reported as success, got %d", code)
	}

	want := [MaxHandles]Kind{KindStdIn, KindStdout, KindStdErr}
	if proc.kinds != want {
		t.Errorf("expected a fresh table during the run, got %v", proc.kinds)
	}
	if ta.api.Handles().Kinds() != [MaxHandles]Kind{} {
		t.Errorf("expected every handle closed after the run, got %v", ta.api.Handles().Kinds())
	}
	if arena.LastEntry().Valid() {
		t.Error("expected the entry point cleared after the run")
	}

	if _, err := e.Execute(context.Background()); !errors.Is(err, ErrNothingLoaded) {
		t.Errorf("expected ErrNothingLoaded on re-run, got %v", err)
	}
}

func TestExecuteProcessorFailureStillCleansUp(t *testing.T) {
	boom := errors.New("cpu fault")
	proc := &scriptedProcessor{run: func(api *API, args Args) (int32, error) {
		api.Open(AudioPath, 0)
		return 0, boom
	}}
	e, arena, ta := newTestExecutor(t, proc)
	arena.CopyProgram([]byte{0xC9})

	_, err := e.Execute(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("expected cpu fault, got %v", err)
	}
	if ta.api.Handles().Kinds() != [MaxHandles]Kind{} {
		t.Errorf("expected every handle closed, got %v", ta.api.Handles().Kinds())
	}
	if arena.LastEntry().Valid() {
		t.Error("expected the entry point cleared")
	}
}
