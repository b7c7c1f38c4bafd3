package main

import (
	"debug/elf"
	"encoding/binary"
	"sort"
	"strings"

	"github.com/neotron-os/go-neotron/internal/elfimage"
	"github.com/neotron-os/go-neotron/program"
)

// writeTrap is the address of the write callback.
const writeTrap = program.TrapBase + 2

// roms are programs built into the host, loadable by name without a disk.
var roms = map[string]func() []byte{
	"hello": helloROM,
	"echo":  echoROM,
}

func romImage(name string) ([]byte, bool) {
	build, ok := roms[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return build(), true
}

func romNames() []string {
	names := make([]string, 0, len(roms))
	for name := range roms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func z80Image(code []byte) []byte {
	return elfimage.Build(elf.EM_Z80, program.ArenaBase, elfimage.Segment{
		Vaddr: program.ArenaBase,
		Data:  code,
		Flags: elf.PF_R | elf.PF_X,
	})
}

// helloROM prints a greeting and exits with 0.
func helloROM() []byte {
	msg := "Hello from the TPA!\r\n"
	code := []byte{
		0x3E, 0x01,                 // LD A,1
		0x21, 0, 0,                 // LD HL,msg
		0x01, byte(len(msg)), 0x00, // LD BC,len
		0xCD, 0, 0,                 // CALL write
		0x21, 0x00, 0x00,           // LD HL,0
		0xC9,                       // RET
	}
	binary.LittleEndian.PutUint16(code[3:], uint16(program.ArenaBase+len(code)))
	binary.LittleEndian.PutUint16(code[9:], writeTrap)
	return z80Image(append(code, msg...))
}

// echoROM prints its first argument and exits with the number of arguments.
func echoROM() []byte {
	code := []byte{
		0xC5,       // PUSH BC
		0xEB,       // EX DE,HL
		0x5E,       // LD E,(HL)
		0x23,       // INC HL
		0x56,       // LD D,(HL)
		0x23,       // INC HL
		0x4E,       // LD C,(HL)
		0x23,       // INC HL
		0x46,       // LD B,(HL)
		0xEB,       // EX DE,HL
		0x3E, 0x01, // LD A,1
		0xCD, 0, 0, // CALL write
		0xE1,       // POP HL
		0xC9,       // RET
	}
	binary.LittleEndian.PutUint16(code[13:], writeTrap)
	return z80Image(code)
}
