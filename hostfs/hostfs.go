// Package hostfs defines the filesystem collaborator used by the program loader
// and the host API, and provides an implementation backed by a host directory.
package hostfs

import (
	"io"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned when a path does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidPath is returned for empty paths and paths escaping the root.
	ErrInvalidPath = errors.New("invalid path")
	// ErrExists is returned when creating a path that already exists.
	ErrExists = errors.New("already exists")
	// ErrReadOnly is returned when writing to a file opened read-only.
	ErrReadOnly = errors.New("read only")
	// ErrIsDir is returned when a file operation is applied to a directory.
	ErrIsDir = errors.New("is a directory")
)

// Mode selects how a file is opened.
type Mode uint8

const (
	// ReadOnly opens an existing file for reading.
	ReadOnly Mode = iota
	// ReadWrite opens an existing file for reading and writing.
	ReadWrite
	// Create creates the file, truncating it if it exists.
	Create
	// Append opens or creates the file with the offset at the end.
	Append
)

func (m Mode) String() string {
	switch m {
	case ReadOnly:
		return "read-only"
	case ReadWrite:
		return "read-write"
	case Create:
		return "create"
	case Append:
		return "append"
	default:
		return "unknown"
	}
}

// FileInfo describes a file or directory.
type FileInfo struct {
	Name     string
	Size     uint64
	Dir      bool
	ReadOnly bool
	ModTime  time.Time
}

// File is an open file.
type File interface {
	io.Reader
	io.Writer
	io.Seeker
	io.Closer
	Stat() (FileInfo, error)
}

// FileSystem is the volume programs are loaded from and read and write through.
// Relative paths resolve against the current directory.
type FileSystem interface {
	Open(name string, mode Mode) (File, error)
	Stat(name string) (FileInfo, error)
	ReadDir(name string) ([]FileInfo, error)
	Rename(oldName, newName string) error
	Remove(name string) error
	RemoveDir(name string) error
	Chdir(name string) error
	Getwd() string
}
