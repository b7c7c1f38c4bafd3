package program

import (
	"github.com/pkg/errors"

	"github.com/neotron-os/go-neotron/hostfs"
)

var (
	// ErrNothingLoaded is returned by Execute when no program is staged.
	ErrNothingLoaded = errors.New("nothing loaded")
	// ErrTooManyArgs is returned when more than MaxArgs arguments are passed.
	ErrTooManyArgs = errors.New("too many arguments")
	// ErrArgsTooLong is returned when the arguments do not fit the argument area.
	ErrArgsTooLong = errors.New("arguments too long")
)

// APIError is the closed set of errors a program sees through the host API.
type APIError uint8

const (
	ErrUnimplemented APIError = iota + 1
	ErrBadHandle
	ErrInvalidPath
	ErrInvalidArg
	ErrOutOfMemory
	ErrDeviceSpecific
)

func (e APIError) Error() string {
	switch e {
	case ErrUnimplemented:
		return "unimplemented"
	case ErrBadHandle:
		return "bad handle"
	case ErrInvalidPath:
		return "invalid path"
	case ErrInvalidArg:
		return "invalid argument"
	case ErrOutOfMemory:
		return "out of memory"
	case ErrDeviceSpecific:
		return "device specific error"
	default:
		return "unknown api error"
	}
}

// ErrorCode converts an error to the byte a program receives: 0 for success,
// the APIError value when err is one, ErrDeviceSpecific otherwise.
func ErrorCode(err error) uint8 {
	if err == nil {
		return 0
	}
	var apiErr APIError
	if errors.As(err, &apiErr) {
		return uint8(apiErr)
	}
	return uint8(ErrDeviceSpecific)
}

// fsError maps a filesystem failure onto the host API error set.
// The original error stays reachable through errors.Is.
func fsError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, hostfs.ErrNotFound),
		errors.Is(err, hostfs.ErrInvalidPath),
		errors.Is(err, hostfs.ErrExists),
		errors.Is(err, hostfs.ErrIsDir):
		return &wrapped{code: ErrInvalidPath, err: err}
	case errors.Is(err, hostfs.ErrReadOnly):
		return &wrapped{code: ErrBadHandle, err: err}
	default:
		return &wrapped{code: ErrDeviceSpecific, err: err}
	}
}

type wrapped struct {
	code APIError
	err  error
}

func (w *wrapped) Error() string {
	return w.code.Error() + ": " + w.err.Error()
}

func (w *wrapped) Unwrap() []error {
	return []error{w.code, w.err}
}
