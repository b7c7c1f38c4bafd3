package program

import (
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/neotron-os/go-neotron/hostfs"
)

// AudioPath is the device path that opens the audio handle.
const AudioPath = "AUDIO:"

// OpenFlags select how Open opens a file.
type OpenFlags uint8

const (
	OpenWrite OpenFlags = 1 << iota
	OpenCreate
	OpenTruncate
	OpenAppend
)

// Whence is the origin of a Seek.
type Whence uint8

const (
	SeekSet Whence = iota
	SeekCur
	SeekEnd
)

// Audio ioctl commands.
const (
	IoctlAudioGetConfig uint64 = 0
	IoctlAudioSetConfig uint64 = 1
	IoctlAudioSpace     uint64 = 2
)

// FileInfo is what Stat and Fstat report.
type FileInfo struct {
	Size     uint64
	Dir      bool
	ReadOnly bool
	ModTime  time.Time
}

// API is the host side of the callback table a running program calls into.
// Every method returns nil or an error carrying an APIError.
type API struct {
	handles *HandleTable
	fs      hostfs.FileSystem
	stdout  io.Writer
	stdin   io.Reader
	audio   AudioDevice
	log     *logrus.Logger
}

// APIOption configures an API.
type APIOption func(*API)

// WithFileSystem provides the volume for file handles.
func WithFileSystem(fs hostfs.FileSystem) APIOption {
	return func(a *API) {
		a.fs = fs
	}
}

// WithStdout sets where handles 1 and 2 write.
func WithStdout(w io.Writer) APIOption {
	return func(a *API) {
		a.stdout = w
	}
}

// WithStdin sets where handle 0 reads from. Reads must not block.
func WithStdin(r io.Reader) APIOption {
	return func(a *API) {
		a.stdin = r
	}
}

// WithAudio provides the device behind AudioPath.
func WithAudio(dev AudioDevice) APIOption {
	return func(a *API) {
		a.audio = dev
	}
}

// WithAPILogger sets the logger. Defaults to logrus.StandardLogger().
func WithAPILogger(log *logrus.Logger) APIOption {
	return func(a *API) {
		a.log = log
	}
}

// NewAPI creates the host API over a handle table.
func NewAPI(handles *HandleTable, opts ...APIOption) *API {
	a := &API{
		handles: handles,
		stdout:  io.Discard,
		stdin:   strings.NewReader(""),
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Handles returns the handle table.
func (a *API) Handles() *HandleTable {
	return a.handles
}

// Open opens a file, or the audio device when path is AudioPath.
func (a *API) Open(path string, flags OpenFlags) (Handle, error) {
	if strings.EqualFold(path, AudioPath) {
		if a.audio == nil {
			return 0, ErrInvalidPath
		}
		return a.handles.Allocate(KindAudio, nil, AudioPath)
	}
	if a.fs == nil {
		return 0, ErrInvalidPath
	}

	mode := hostfs.ReadOnly
	switch {
	case flags&OpenAppend != 0:
		mode = hostfs.Append
	case flags&(OpenCreate|OpenTruncate) != 0:
		mode = hostfs.Create
	case flags&OpenWrite != 0:
		mode = hostfs.ReadWrite
	}

	f, err := a.fs.Open(path, mode)
	if err != nil {
		return 0, fsError(err)
	}
	h, err := a.handles.Allocate(KindFile, f, path)
	if err != nil {
		f.Close()
		return 0, err
	}
	return h, nil
}

// Close closes a handle.
func (a *API) Close(h Handle) error {
	return a.handles.Release(h)
}

// Write writes to standard output, a file or the audio device.
func (a *API) Write(h Handle, data []byte) (int, error) {
	kind, f, err := a.handles.Get(h)
	if err != nil {
		return 0, err
	}

	switch kind {
	case KindStdout, KindStdErr:
		n, err := a.stdout.Write(data)
		if err != nil {
			return n, &wrapped{code: ErrDeviceSpecific, err: err}
		}
		return n, nil
	case KindFile:
		n, err := f.Write(data)
		return n, fsError(err)
	case KindAudio:
		n, err := a.audio.Write(data)
		if err != nil {
			return n, &wrapped{code: ErrDeviceSpecific, err: err}
		}
		return n, nil
	default:
		return 0, ErrBadHandle
	}
}

// Read reads from standard input or a file. End of file is a zero-length read.
func (a *API) Read(h Handle, buf []byte) (int, error) {
	kind, f, err := a.handles.Get(h)
	if err != nil {
		return 0, err
	}

	var n int
	switch kind {
	case KindStdIn:
		n, err = a.stdin.Read(buf)
	case KindFile:
		n, err = f.Read(buf)
	default:
		return 0, ErrBadHandle
	}
	if err == io.EOF {
		err = nil
	}
	return n, fsError(err)
}

// Seek moves a file handle and returns the new offset.
func (a *API) Seek(h Handle, offset int64, whence Whence) (uint64, error) {
	kind, f, err := a.handles.Get(h)
	if err != nil {
		return 0, err
	}
	if kind != KindFile {
		return 0, ErrBadHandle
	}

	var w int
	switch whence {
	case SeekSet:
		w = io.SeekStart
	case SeekCur:
		w = io.SeekCurrent
	case SeekEnd:
		w = io.SeekEnd
	default:
		return 0, ErrInvalidArg
	}

	pos, err := f.Seek(offset, w)
	if err != nil {
		return 0, &wrapped{code: ErrInvalidArg, err: err}
	}
	return uint64(pos), nil
}

// Rename renames a file.
func (a *API) Rename(oldPath, newPath string) error {
	if a.fs == nil {
		return ErrInvalidPath
	}
	return fsError(a.fs.Rename(oldPath, newPath))
}

// Ioctl controls a device handle. Only the audio device takes commands.
func (a *API) Ioctl(h Handle, cmd, value uint64) (uint64, error) {
	kind, _, err := a.handles.Get(h)
	if err != nil {
		return 0, err
	}
	if kind != KindAudio {
		return 0, ErrBadHandle
	}

	switch cmd {
	case IoctlAudioGetConfig:
		return a.audio.Config().Pack(), nil
	case IoctlAudioSetConfig:
		cfg, err := UnpackAudioConfig(value)
		if err != nil {
			return 0, err
		}
		if err := a.audio.SetConfig(cfg); err != nil {
			return 0, errors.Wrap(err, "set audio config")
		}
		a.log.Debugf("program: audio set to %v", cfg)
		return 0, nil
	case IoctlAudioSpace:
		return uint64(a.audio.Space()), nil
	default:
		return 0, ErrInvalidArg
	}
}

// OpenDir is not supported.
func (a *API) OpenDir(path string) (Handle, error) {
	return 0, ErrUnimplemented
}

// CloseDir is not supported.
func (a *API) CloseDir(h Handle) error {
	return ErrUnimplemented
}

// ReadDir is not supported.
func (a *API) ReadDir(h Handle) (FileInfo, string, error) {
	return FileInfo{}, "", ErrUnimplemented
}

// Stat describes a path.
func (a *API) Stat(path string) (FileInfo, error) {
	if a.fs == nil {
		return FileInfo{}, ErrInvalidPath
	}
	info, err := a.fs.Stat(path)
	if err != nil {
		return FileInfo{}, fsError(err)
	}
	return toFileInfo(info), nil
}

// Fstat describes an open file.
func (a *API) Fstat(h Handle) (FileInfo, error) {
	kind, f, err := a.handles.Get(h)
	if err != nil {
		return FileInfo{}, err
	}
	if kind != KindFile {
		return FileInfo{}, ErrBadHandle
	}
	info, err := f.Stat()
	if err != nil {
		return FileInfo{}, fsError(err)
	}
	return toFileInfo(info), nil
}

// DeleteFile deletes a file.
func (a *API) DeleteFile(path string) error {
	if a.fs == nil {
		return ErrInvalidPath
	}
	return fsError(a.fs.Remove(path))
}

// DeleteDir deletes an empty directory.
func (a *API) DeleteDir(path string) error {
	if a.fs == nil {
		return ErrInvalidPath
	}
	return fsError(a.fs.RemoveDir(path))
}

// ChangeDir changes the current directory.
func (a *API) ChangeDir(path string) error {
	if a.fs == nil {
		return ErrInvalidPath
	}
	return fsError(a.fs.Chdir(path))
}

// ChangeDirHandle is not supported.
func (a *API) ChangeDirHandle(h Handle) error {
	return ErrUnimplemented
}

// Pwd returns the current directory.
func (a *API) Pwd() (string, error) {
	if a.fs == nil {
		return "", ErrInvalidPath
	}
	return a.fs.Getwd(), nil
}

// Malloc is not supported; programs manage the arena themselves.
func (a *API) Malloc(size, align uint32) (uint32, error) {
	return 0, ErrUnimplemented
}

// Free is not supported.
func (a *API) Free(ptr, size, align uint32) error {
	return ErrUnimplemented
}

func toFileInfo(info hostfs.FileInfo) FileInfo {
	return FileInfo{
		Size:     info.Size,
		Dir:      info.Dir,
		ReadOnly: info.ReadOnly,
		ModTime:  info.ModTime,
	}
}
