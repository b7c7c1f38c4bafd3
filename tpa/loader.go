package tpa

import (
	"debug/elf"
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/neotron-os/go-neotron/hostfs"
)

// Loader loads ELF executables into an arena.
type Loader struct {
	arena   *Arena
	fs      hostfs.FileSystem
	machine elf.Machine
	align   uint32
	log     *logrus.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithMachine rejects executables built for any other machine.
func WithMachine(m elf.Machine) LoaderOption {
	return func(l *Loader) {
		l.machine = m
	}
}

// WithAlignment sets the required entry point alignment.
func WithAlignment(align uint32) LoaderOption {
	return func(l *Loader) {
		l.align = align
	}
}

// WithLogger sets the logger. Defaults to logrus.StandardLogger().
func WithLogger(log *logrus.Logger) LoaderOption {
	return func(l *Loader) {
		l.log = log
	}
}

// NewLoader creates a loader writing into arena and reading from fs.
// fs may be nil if only LoadBytes is used.
func NewLoader(arena *Arena, fs hostfs.FileSystem, opts ...LoaderOption) *Loader {
	l := &Loader{
		arena: arena,
		fs:    fs,
		align: 1,
		log:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Arena returns the arena programs are loaded into.
func (l *Loader) Arena() *Arena {
	return l.arena
}

// Load reads name from the filesystem and stages it for execution.
// Any previously staged program is unstaged first, whether or not the load succeeds.
// Headers are checked before the arena is written, so a rejected image leaves memory untouched.
func (l *Loader) Load(name string) error {
	l.arena.ClearLastEntry()
	if l.fs == nil {
		return newLoadError(ErrFilesystem, errors.New("no filesystem"))
	}

	f, err := l.fs.Open(name, hostfs.ReadOnly)
	if err != nil {
		return newLoadError(ErrFilesystem, errors.Wrapf(err, "open %s", name))
	}
	defer f.Close()

	src, err := NewFileSource(f)
	if err != nil {
		return newLoadError(ErrFilesystem, errors.Wrapf(err, "stat %s", name))
	}

	cached := NewCachedSource(src, src.Size())
	err = l.load(name, cached)
	hits, misses := cached.Stats()
	l.log.Debugf("tpa: %s read cache %d hits, %d misses", name, hits, misses)
	return err
}

// LoadBytes stages an executable image held in memory.
func (l *Loader) LoadBytes(name string, image []byte) error {
	l.arena.ClearLastEntry()
	if uint64(len(image)) > 0xFFFFFFFF {
		return errors.Wrapf(ErrProgramTooLarge, "%s is %d bytes", name, len(image))
	}
	return l.load(name, NewCachedSource(BytesSource(image), uint32(len(image))))
}

func (l *Loader) load(name string, src *CachedSource) error {
	f, err := elf.NewFile(io.NewSectionReader(src, 0, int64(src.Size())))
	if err != nil {
		return newLoadError(ErrElf, errors.Wrapf(err, "parse %s", name))
	}

	if l.machine != elf.EM_NONE && f.Machine != l.machine {
		return newLoadError(ErrElf, errors.Errorf("%s is built for %v, not %v", name, f.Machine, l.machine))
	}

	bottom, top := l.arena.Bottom(), l.arena.Top()
	var segments []int
	for i, p := range f.Progs {
		if p.Type != elf.PT_LOAD {
			continue
		}
		if p.Vaddr < uint64(bottom) {
			l.log.Debugf("tpa: %s segment %d at 0x%08x is below the arena, skipped", name, i, p.Vaddr)
			continue
		}
		if p.Filesz > p.Memsz {
			return newLoadError(ErrElf, errors.Errorf("%s segment %d: file size %d exceeds memory size %d", name, i, p.Filesz, p.Memsz))
		}
		if p.Vaddr+p.Memsz > uint64(top) {
			return errors.Wrapf(ErrProgramTooLarge, "%s segment %d: 0x%08x+%d past top 0x%08x", name, i, p.Vaddr, p.Memsz, top)
		}
		if p.Off+p.Filesz > uint64(src.Size()) {
			return newLoadError(ErrElf, errors.Errorf("%s segment %d truncated: %d bytes at %d, file is %d", name, i, p.Filesz, p.Off, src.Size()))
		}
		segments = append(segments, i)
	}

	if f.Entry > 0xFFFFFFFF {
		return errors.Wrapf(ErrBadAddress, "entry 0x%x", f.Entry)
	}
	entry, err := TryNewEntryPoint(uint32(f.Entry), l.arena, l.align)
	if err != nil {
		return err
	}

	for _, i := range segments {
		p := f.Progs[i]
		span, err := l.arena.Span(uint32(p.Vaddr), uint32(p.Memsz))
		if err != nil {
			return err
		}
		clear(span)

		if p.Filesz > 0 {
			if err := src.Read(uint32(p.Off), span[:p.Filesz]); err != nil {
				return newLoadError(ErrFilesystem, errors.Wrapf(err, "%s segment %d", name, i))
			}
		}

		l.log.Debugf("tpa: %s segment %d: 0x%08x memsz=%d filesz=%d", name, i, p.Vaddr, p.Memsz, p.Filesz)
	}
	l.arena.SetLastEntry(entry)

	l.log.Infof("tpa: loaded %s, %d segments, entry %v", name, len(segments), entry)
	return nil
}
