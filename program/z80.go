package program

import (
	"context"
	"encoding/binary"

	"github.com/koron-go/z80"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/neotron-os/go-neotron/tpa"
)

// Z80 memory map. Everything below ArenaBase belongs to the host.
const (
	ExitTrap      = 0x0000
	TrapBase      = 0x0008
	CallbackTable = 0x0040
	ArgvAddr      = 0x0080
	ArgTextAddr   = 0x0090
	ArenaBase     = 0x0100
	MemorySize    = 0x10000
)

const (
	opHALT = 0x76
	opRET  = 0xC9
)

// Memory is the 64 KiB address space of the Z80.
type Memory [MemorySize]byte

// Get implements z80.Memory.
func (m *Memory) Get(addr uint16) uint8 {
	return m[addr]
}

// Set implements z80.Memory.
func (m *Memory) Set(addr uint16, value uint8) {
	m[addr] = value
}

func (m *Memory) u16(addr uint16) uint16 {
	return uint16(m[addr]) | uint16(m[addr+1])<<8
}

func (m *Memory) setU16(addr, v uint16) {
	m[addr] = uint8(v)
	m[addr+1] = uint8(v >> 8)
}

// slice returns n bytes at addr, refusing ranges that wrap the address space.
func (m *Memory) slice(addr, n uint16) ([]byte, error) {
	if int(addr)+int(n) > MemorySize {
		return nil, ErrInvalidArg
	}
	return m[addr : int(addr)+int(n)], nil
}

// trap is one host API entry in the callback table.
//
// Register use on entry: A handle, HL pointer, BC length, DE second argument,
// IX second length. On return A holds the ErrorCode and HL the result.
type trap struct {
	name string
	fn   func(z *Z80, cpu *z80.CPU, api *API) error
}

// traps is ordered as the callback table.
var traps = []trap{
	{"open", trapOpen},
	{"close", trapClose},
	{"write", trapWrite},
	{"read", trapRead},
	{"seek_set", trapSeek(SeekSet)},
	{"seek_cur", trapSeek(SeekCur)},
	{"seek_end", trapSeek(SeekEnd)},
	{"rename", trapRename},
	{"ioctl", trapIoctl},
	{"opendir", trapPath(func(api *API, p string) error { _, err := api.OpenDir(p); return err })},
	{"closedir", func(z *Z80, cpu *z80.CPU, api *API) error { return api.CloseDir(Handle(cpu.AF.Hi)) }},
	{"readdir", func(z *Z80, cpu *z80.CPU, api *API) error { _, _, err := api.ReadDir(Handle(cpu.AF.Hi)); return err }},
	{"stat", trapStat},
	{"fstat", trapFstat},
	{"deletefile", trapPath((*API).DeleteFile)},
	{"deletedir", trapPath((*API).DeleteDir)},
	{"chdir", trapPath((*API).ChangeDir)},
	{"dchdir", func(z *Z80, cpu *z80.CPU, api *API) error { return api.ChangeDirHandle(Handle(cpu.AF.Hi)) }},
	{"pwd", trapPwd},
	{"malloc", func(z *Z80, cpu *z80.CPU, api *API) error {
		_, err := api.Malloc(uint32(cpu.BC.U16()), uint32(cpu.DE.U16()))
		return err
	}},
	{"free", func(z *Z80, cpu *z80.CPU, api *API) error {
		return api.Free(uint32(cpu.HL.U16()), uint32(cpu.BC.U16()), uint32(cpu.DE.U16()))
	}},
}

// Z80 is a Processor that runs programs on an emulated Z80.
// Programs reach the host by calling the trap addresses listed in the callback
// table and return their exit code in HL.
type Z80 struct {
	mem      *Memory
	stackTop uint16
	log      *logrus.Logger
}

// Z80Option configures a Z80.
type Z80Option func(*Z80)

// WithStackTop sets the initial stack pointer. The default of 0 places the
// stack at the very top of memory.
func WithStackTop(sp uint16) Z80Option {
	return func(z *Z80) {
		z.stackTop = sp
	}
}

// WithZ80Logger sets the logger. Defaults to logrus.StandardLogger().
func WithZ80Logger(log *logrus.Logger) Z80Option {
	return func(z *Z80) {
		z.log = log
	}
}

// NewZ80 creates a processor with zeroed memory.
func NewZ80(opts ...Z80Option) *Z80 {
	z := &Z80{
		mem: new(Memory),
		log: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(z)
	}
	return z
}

// Memory returns the whole address space.
func (z *Z80) Memory() *Memory {
	return z.mem
}

// Region returns the part of memory programs are loaded into.
func (z *Z80) Region() tpa.Region {
	return tpa.Region{Base: ArenaBase, Mem: z.mem[ArenaBase:]}
}

// Call runs the program at entry until it returns to the exit trap or halts.
// On entry HL points at the callback table, BC holds the argument count and
// DE points at the argument array of (pointer, length) pairs.
func (z *Z80) Call(ctx context.Context, entry tpa.EntryPoint, api *API, args Args) (int32, error) {
	if entry.Addr() < ArenaBase || entry.Addr() >= MemorySize {
		return 0, errors.Wrapf(tpa.ErrBadAddress, "entry %v outside Z80 arena", entry)
	}

	z.installTraps()
	if err := z.packArgs(args); err != nil {
		return 0, err
	}

	cpu := z80.CPU{
		States: z80.States{SPR: z80.SPR{PC: uint16(entry.Addr()), SP: z.stackTop}},
		Memory: z.mem,
	}
	cpu.HL.SetU16(CallbackTable)
	cpu.BC.SetU16(uint16(args.Count))
	cpu.DE.SetU16(ArgvAddr)
	z.push(&cpu, ExitTrap)

	cpu.BreakPoints = map[uint16]struct{}{ExitTrap: {}}
	for i := range traps {
		cpu.BreakPoints[uint16(TrapBase+i)] = struct{}{}
	}

	for {
		err := cpu.Run(ctx)
		if err == nil {
			// HALT: treat as a return with whatever is in HL.
			return exitCode(&cpu), nil
		}
		if !errors.Is(err, z80.ErrBreakPoint) {
			return 0, errors.Wrap(err, "z80")
		}

		pc := cpu.PC
		if pc == ExitTrap {
			return exitCode(&cpu), nil
		}

		t := traps[pc-TrapBase]
		callErr := t.fn(z, &cpu, api)
		cpu.AF.Hi = ErrorCode(callErr)
		if callErr != nil {
			z.log.Debugf("program: %s failed: %v", t.name, callErr)
		} else {
			z.log.Tracef("program: %s ok, HL=0x%04x", t.name, cpu.HL.U16())
		}
		cpu.PC = z.pop(&cpu)
	}
}

func exitCode(cpu *z80.CPU) int32 {
	return int32(int16(cpu.HL.U16()))
}

func (z *Z80) push(cpu *z80.CPU, v uint16) {
	cpu.SP -= 2
	z.mem.setU16(cpu.SP, v)
}

func (z *Z80) pop(cpu *z80.CPU) uint16 {
	v := z.mem.u16(cpu.SP)
	cpu.SP += 2
	return v
}

// installTraps writes the exit trap, one RET per API trap and the callback table.
// Breakpoints stop the CPU before any of these instructions run.
func (z *Z80) installTraps() {
	z.mem[ExitTrap] = opHALT
	for i := range traps {
		addr := uint16(TrapBase + i)
		z.mem[addr] = opRET
		z.mem.setU16(uint16(CallbackTable+2*i), addr)
	}
}

// packArgs writes the argument array and text.
func (z *Z80) packArgs(args Args) error {
	text := uint16(ArgTextAddr)
	for i, arg := range args.Values {
		slot := uint16(ArgvAddr + 4*i)
		if i >= args.Count || arg == "" {
			z.mem.setU16(slot, 0)
			z.mem.setU16(slot+2, 0)
			continue
		}
		if int(text)+len(arg) > ArenaBase {
			return errors.Wrapf(ErrArgsTooLong, "%d bytes of argument space", ArenaBase-ArgTextAddr)
		}
		copy(z.mem[text:], arg)
		z.mem.setU16(slot, text)
		z.mem.setU16(slot+2, uint16(len(arg)))
		text += uint16(len(arg))
	}
	return nil
}

func (z *Z80) str(ptr, n uint16) (string, error) {
	b, err := z.mem.slice(ptr, n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func trapOpen(z *Z80, cpu *z80.CPU, api *API) error {
	path, err := z.str(cpu.HL.U16(), cpu.BC.U16())
	if err != nil {
		return err
	}
	h, err := api.Open(path, OpenFlags(cpu.DE.Lo))
	if err != nil {
		return err
	}
	cpu.HL.SetU16(uint16(h))
	return nil
}

func trapClose(z *Z80, cpu *z80.CPU, api *API) error {
	return api.Close(Handle(cpu.AF.Hi))
}

func trapWrite(z *Z80, cpu *z80.CPU, api *API) error {
	buf, err := z.mem.slice(cpu.HL.U16(), cpu.BC.U16())
	if err != nil {
		return err
	}
	n, err := api.Write(Handle(cpu.AF.Hi), buf)
	cpu.HL.SetU16(uint16(n))
	return err
}

func trapRead(z *Z80, cpu *z80.CPU, api *API) error {
	buf, err := z.mem.slice(cpu.HL.U16(), cpu.BC.U16())
	if err != nil {
		return err
	}
	n, err := api.Read(Handle(cpu.AF.Hi), buf)
	cpu.HL.SetU16(uint16(n))
	return err
}

// trapSeek takes a signed 32-bit offset in DE:HL and returns the position there.
func trapSeek(whence Whence) func(z *Z80, cpu *z80.CPU, api *API) error {
	return func(z *Z80, cpu *z80.CPU, api *API) error {
		offset := int32(uint32(cpu.DE.U16())<<16 | uint32(cpu.HL.U16()))
		pos, err := api.Seek(Handle(cpu.AF.Hi), int64(offset), whence)
		if err != nil {
			return err
		}
		cpu.DE.SetU16(uint16(pos >> 16))
		cpu.HL.SetU16(uint16(pos))
		return nil
	}
}

func trapRename(z *Z80, cpu *z80.CPU, api *API) error {
	oldPath, err := z.str(cpu.HL.U16(), cpu.BC.U16())
	if err != nil {
		return err
	}
	newPath, err := z.str(cpu.DE.U16(), cpu.IX)
	if err != nil {
		return err
	}
	return api.Rename(oldPath, newPath)
}

// trapIoctl reads the command from DE and the 64-bit value from the eight bytes
// at HL, and writes the result back there.
func trapIoctl(z *Z80, cpu *z80.CPU, api *API) error {
	buf, err := z.mem.slice(cpu.HL.U16(), 8)
	if err != nil {
		return err
	}
	result, err := api.Ioctl(Handle(cpu.AF.Hi), uint64(cpu.DE.U16()), binary.LittleEndian.Uint64(buf))
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(buf, result)
	return nil
}

// statSize is the layout written by stat and fstat: size (8 bytes), flags
// (bit 0 directory, bit 1 read-only) and modification time in Unix seconds (4 bytes).
const statSize = 13

func writeStat(z *Z80, addr uint16, info FileInfo) error {
	buf, err := z.mem.slice(addr, statSize)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(buf, info.Size)
	var flags byte
	if info.Dir {
		flags |= 1
	}
	if info.ReadOnly {
		flags |= 2
	}
	buf[8] = flags
	binary.LittleEndian.PutUint32(buf[9:], uint32(info.ModTime.Unix()))
	return nil
}

func trapStat(z *Z80, cpu *z80.CPU, api *API) error {
	path, err := z.str(cpu.HL.U16(), cpu.BC.U16())
	if err != nil {
		return err
	}
	info, err := api.Stat(path)
	if err != nil {
		return err
	}
	return writeStat(z, cpu.DE.U16(), info)
}

func trapFstat(z *Z80, cpu *z80.CPU, api *API) error {
	info, err := api.Fstat(Handle(cpu.AF.Hi))
	if err != nil {
		return err
	}
	return writeStat(z, cpu.DE.U16(), info)
}

func trapPath(fn func(api *API, path string) error) func(z *Z80, cpu *z80.CPU, api *API) error {
	return func(z *Z80, cpu *z80.CPU, api *API) error {
		path, err := z.str(cpu.HL.U16(), cpu.BC.U16())
		if err != nil {
			return err
		}
		return fn(api, path)
	}
}

// trapPwd copies the current directory into the buffer at HL of BC bytes and
// returns its length in HL.
func trapPwd(z *Z80, cpu *z80.CPU, api *API) error {
	dir, err := api.Pwd()
	if err != nil {
		return err
	}
	buf, err := z.mem.slice(cpu.HL.U16(), cpu.BC.U16())
	if err != nil {
		return err
	}
	if len(dir) > len(buf) {
		return ErrInvalidArg
	}
	copy(buf, dir)
	cpu.HL.SetU16(uint16(len(dir)))
	return nil
}
