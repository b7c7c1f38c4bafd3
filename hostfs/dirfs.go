package hostfs

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// DirFS is a FileSystem rooted at a host directory.
// Paths use '/' separators; the root is "/" and nothing above it is reachable.
type DirFS struct {
	mu   sync.Mutex
	root string
	cwd  string
}

// NewDirFS returns a FileSystem rooted at dir.
func NewDirFS(dir string) (*DirFS, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve %s", dir)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, translate(err, dir)
	}
	if !info.IsDir() {
		return nil, errors.Wrapf(ErrInvalidPath, "%s is not a directory", dir)
	}
	return &DirFS{root: abs, cwd: "/"}, nil
}

// Root returns the host directory backing the filesystem.
func (d *DirFS) Root() string {
	return d.root
}

// Getwd returns the current directory.
func (d *DirFS) Getwd() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cwd
}

// Chdir changes the current directory.
func (d *DirFS) Chdir(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	clean, err := d.resolve(name)
	if err != nil {
		return err
	}
	info, err := os.Stat(d.hostPath(clean))
	if err != nil {
		return translate(err, name)
	}
	if !info.IsDir() {
		return errors.Wrapf(ErrInvalidPath, "%s is not a directory", name)
	}
	d.cwd = clean
	return nil
}

// Open opens a file.
func (d *DirFS) Open(name string, mode Mode) (File, error) {
	host, err := d.lookup(name)
	if err != nil {
		return nil, err
	}

	flag := os.O_RDONLY
	switch mode {
	case ReadWrite:
		flag = os.O_RDWR
	case Create:
		flag = os.O_RDWR | os.O_CREATE | os.O_TRUNC
	case Append:
		flag = os.O_RDWR | os.O_CREATE | os.O_APPEND
	}

	f, err := os.OpenFile(host, flag, 0o644)
	if err != nil {
		return nil, translate(err, name)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, translate(err, name)
	}
	if info.IsDir() {
		f.Close()
		return nil, errors.Wrap(ErrIsDir, name)
	}
	return &dirFile{f: f, name: path.Base(name), readOnly: mode == ReadOnly}, nil
}

// Stat describes a path.
func (d *DirFS) Stat(name string) (FileInfo, error) {
	host, err := d.lookup(name)
	if err != nil {
		return FileInfo{}, err
	}
	info, err := os.Stat(host)
	if err != nil {
		return FileInfo{}, translate(err, name)
	}
	return fileInfo(info), nil
}

// ReadDir lists a directory sorted by name.
func (d *DirFS) ReadDir(name string) ([]FileInfo, error) {
	host, err := d.lookup(name)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(host)
	if err != nil {
		return nil, translate(err, name)
	}

	infos := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		infos = append(infos, fileInfo(info))
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Rename moves a file or directory.
func (d *DirFS) Rename(oldName, newName string) error {
	from, err := d.lookup(oldName)
	if err != nil {
		return err
	}
	to, err := d.lookup(newName)
	if err != nil {
		return err
	}
	if _, err := os.Stat(to); err == nil {
		return errors.Wrap(ErrExists, newName)
	}
	return translate(os.Rename(from, to), oldName)
}

// Remove deletes a file.
func (d *DirFS) Remove(name string) error {
	host, err := d.lookup(name)
	if err != nil {
		return err
	}
	info, err := os.Stat(host)
	if err != nil {
		return translate(err, name)
	}
	if info.IsDir() {
		return errors.Wrap(ErrIsDir, name)
	}
	return translate(os.Remove(host), name)
}

// RemoveDir deletes an empty directory.
func (d *DirFS) RemoveDir(name string) error {
	host, err := d.lookup(name)
	if err != nil {
		return err
	}
	if host == d.root {
		return errors.Wrap(ErrInvalidPath, "cannot remove root")
	}
	info, err := os.Stat(host)
	if err != nil {
		return translate(err, name)
	}
	if !info.IsDir() {
		return errors.Wrapf(ErrInvalidPath, "%s is not a directory", name)
	}
	return translate(os.Remove(host), name)
}

func (d *DirFS) lookup(name string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	clean, err := d.resolve(name)
	if err != nil {
		return "", err
	}
	return d.hostPath(clean), nil
}

// resolve turns name into a clean absolute volume path.
func (d *DirFS) resolve(name string) (string, error) {
	if name == "" || strings.ContainsRune(name, 0) || strings.Contains(name, `\`) {
		return "", errors.Wrapf(ErrInvalidPath, "%q", name)
	}
	if !strings.HasPrefix(name, "/") {
		name = d.cwd + "/" + name
	}
	// Reject ".." segments that would climb above the root.
	depth := 0
	for _, seg := range strings.Split(name, "/") {
		switch seg {
		case "", ".":
		case "..":
			depth--
			if depth < 0 {
				return "", errors.Wrapf(ErrInvalidPath, "%q escapes the root", name)
			}
		default:
			depth++
		}
	}
	return path.Clean(name), nil
}

func (d *DirFS) hostPath(clean string) string {
	return filepath.Join(d.root, filepath.FromSlash(clean))
}

func fileInfo(info fs.FileInfo) FileInfo {
	return FileInfo{
		Name:     info.Name(),
		Size:     uint64(info.Size()),
		Dir:      info.IsDir(),
		ReadOnly: info.Mode().Perm()&0o200 == 0,
		ModTime:  info.ModTime(),
	}
}

func translate(err error, name string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return errors.Wrap(ErrNotFound, name)
	case errors.Is(err, fs.ErrExist):
		return errors.Wrap(ErrExists, name)
	default:
		return errors.Wrap(err, name)
	}
}

type dirFile struct {
	f        *os.File
	name     string
	readOnly bool
}

func (f *dirFile) Read(p []byte) (int, error) {
	return f.f.Read(p)
}

func (f *dirFile) Write(p []byte) (int, error) {
	if f.readOnly {
		return 0, errors.Wrap(ErrReadOnly, f.name)
	}
	return f.f.Write(p)
}

func (f *dirFile) Seek(offset int64, whence int) (int64, error) {
	return f.f.Seek(offset, whence)
}

func (f *dirFile) Close() error {
	return f.f.Close()
}

func (f *dirFile) Stat() (FileInfo, error) {
	info, err := f.f.Stat()
	if err != nil {
		return FileInfo{}, translate(err, f.name)
	}
	return fileInfo(info), nil
}
