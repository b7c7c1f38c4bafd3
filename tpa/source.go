package tpa

import (
	"io"

	"github.com/pkg/errors"

	"github.com/neotron-os/go-neotron/hostfs"
)

// CacheSize is the read-ahead size of a CachedSource.
const CacheSize = 128

// Source is positioned-read access to an executable image.
// Read fills out entirely or fails.
type Source interface {
	Read(offset uint32, out []byte) error
}

// FileSource reads from an open file by seeking before every read.
type FileSource struct {
	f    hostfs.File
	size uint32
}

// NewFileSource wraps f. The file size is taken from Stat.
func NewFileSource(f hostfs.File) (*FileSource, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size > 0xFFFFFFFF {
		return nil, errors.Wrapf(ErrProgramTooLarge, "file of %d bytes", info.Size)
	}
	return &FileSource{f: f, size: uint32(info.Size)}, nil
}

// Size returns the file size.
func (s *FileSource) Size() uint32 {
	return s.size
}

func (s *FileSource) Read(offset uint32, out []byte) error {
	if _, err := s.f.Seek(int64(offset), io.SeekStart); err != nil {
		return errors.Wrapf(err, "seek to %d", offset)
	}
	if _, err := io.ReadFull(s.f, out); err != nil {
		return errors.Wrapf(err, "read %d bytes at %d", len(out), offset)
	}
	return nil
}

// BytesSource reads from an in-memory image.
type BytesSource []byte

func (s BytesSource) Read(offset uint32, out []byte) error {
	if uint64(offset)+uint64(len(out)) > uint64(len(s)) {
		return errors.Wrapf(io.ErrUnexpectedEOF, "read %d bytes at %d of %d", len(out), offset, len(s))
	}
	copy(out, s[offset:])
	return nil
}

// CachedSource keeps one CacheSize block of read-ahead in front of a Source,
// keyed by the offset of the read that filled it. Header parsing issues many
// small reads close together; most are served from the block.
type CachedSource struct {
	src   Source
	size  uint32
	cache [CacheSize]byte
	off   uint32
	n     uint32

	hits, misses int
}

// NewCachedSource wraps src, an image of size bytes.
func NewCachedSource(src Source, size uint32) *CachedSource {
	return &CachedSource{src: src, size: size}
}

// Size returns the image size.
func (c *CachedSource) Size() uint32 {
	return c.size
}

// Stats returns the number of reads served from and past the cache.
func (c *CachedSource) Stats() (hits, misses int) {
	return c.hits, c.misses
}

func (c *CachedSource) Read(offset uint32, out []byte) error {
	end := uint64(offset) + uint64(len(out))
	if end > uint64(c.size) {
		return errors.Wrapf(io.ErrUnexpectedEOF, "read %d bytes at %d of %d", len(out), offset, c.size)
	}
	if len(out) == 0 {
		return nil
	}

	if c.n > 0 && offset >= c.off && end <= uint64(c.off)+uint64(c.n) {
		c.hits++
		copy(out, c.cache[offset-c.off:])
		return nil
	}
	c.misses++

	if len(out) > CacheSize {
		return c.src.Read(offset, out)
	}

	n := c.size - offset
	if n > CacheSize {
		n = CacheSize
	}
	c.n = 0
	if err := c.src.Read(offset, c.cache[:n]); err != nil {
		return err
	}
	c.off = offset
	c.n = n
	copy(out, c.cache[:len(out)])
	return nil
}

// ReadAt implements io.ReaderAt so the image can be handed to debug/elf.
func (c *CachedSource) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.Errorf("negative offset %d", off)
	}
	if off >= int64(c.size) {
		return 0, io.EOF
	}
	n := len(p)
	if rest := int64(c.size) - off; int64(n) > rest {
		n = int(rest)
	}
	if err := c.Read(uint32(off), p[:n]); err != nil {
		return 0, err
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
