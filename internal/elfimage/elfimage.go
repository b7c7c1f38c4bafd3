// Package elfimage builds minimal little-endian ELF32 executables: a file header,
// one program header per segment and the segment data. It is used for the
// built-in ROM programs and by tests.
package elfimage

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
)

const (
	headerSize = 52
	phentSize  = 32
)

// Segment is one PT_LOAD segment. Memsz smaller than len(Data) is raised to it.
type Segment struct {
	Vaddr uint32
	Data  []byte
	Memsz uint32
	Flags elf.ProgFlag
}

// Build returns an executable for machine with the given entry point and segments.
func Build(machine elf.Machine, entry uint32, segs ...Segment) []byte {
	var buf bytes.Buffer

	var ident [elf.EI_NIDENT]byte
	copy(ident[:], elf.ELFMAG)
	ident[elf.EI_CLASS] = byte(elf.ELFCLASS32)
	ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)

	hdr := elf.Header32{
		Ident:     ident,
		Type:      uint16(elf.ET_EXEC),
		Machine:   uint16(machine),
		Version:   uint32(elf.EV_CURRENT),
		Entry:     entry,
		Phoff:     headerSize,
		Ehsize:    headerSize,
		Phentsize: phentSize,
		Phnum:     uint16(len(segs)),
	}
	binary.Write(&buf, binary.LittleEndian, hdr)

	off := uint32(headerSize + phentSize*len(segs))
	for _, s := range segs {
		memsz := s.Memsz
		if memsz < uint32(len(s.Data)) {
			memsz = uint32(len(s.Data))
		}
		flags := s.Flags
		if flags == 0 {
			flags = elf.PF_R | elf.PF_W | elf.PF_X
		}
		binary.Write(&buf, binary.LittleEndian, elf.Prog32{
			Type:   uint32(elf.PT_LOAD),
			Off:    off,
			Vaddr:  s.Vaddr,
			Paddr:  s.Vaddr,
			Filesz: uint32(len(s.Data)),
			Memsz:  memsz,
			Flags:  uint32(flags),
			Align:  1,
		})
		off += uint32(len(s.Data))
	}

	for _, s := range segs {
		buf.Write(s.Data)
	}

	return buf.Bytes()
}
