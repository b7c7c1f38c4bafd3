package main

import (
	"bufio"
	"context"
	"fmt"
	"image/png"
	"io"
	"path"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"

	vgaconsole "github.com/neotron-os/go-neotron"
	"github.com/neotron-os/go-neotron/hostfs"
	"github.com/neotron-os/go-neotron/program"
)

const (
	version = "Neotron OS v0.8.1 (go)"
	prompt  = "> "

	// maxLine is the longest command line the shell accepts.
	maxLine = 256
	// maxExecDepth stops scripts from executing themselves forever.
	maxExecDepth = 4
)

// modes are the text modes selectable with the mode command, by number.
var modes = []vgaconsole.TextMode{
	vgaconsole.Mode80x25,
	vgaconsole.Mode80x30,
	vgaconsole.Mode80x50,
	vgaconsole.Mode80x60,
	vgaconsole.Mode40x25,
}

type command struct {
	name  string
	usage string
	help  string
	run   func(ctx context.Context, args []string)
}

// Shell is the command line: it edits a line from the keyboard queue and
// dispatches it to a command.
type Shell struct {
	host     *Host
	commands []command
	line     []byte
	depth    int
}

// NewShell creates a shell that drives host.
func NewShell(host *Host) *Shell {
	s := &Shell{host: host}
	s.commands = []command{
		{"help", "", "List the commands", s.help},
		{"dir", "", "List the current directory", s.dir},
		{"load", "FILE", "Load an ELF program into the TPA", s.load},
		{"rom", "[NAME]", "List or load the built-in programs", s.rom},
		{"run", "[ARG...]", "Run a program (with up to four arguments)", s.run},
		{"exec", "FILE", "Run each line of FILE as a command", s.exec},
		{"type", "FILE", "Print a text file", s.typeFile},
		{"hexdump", "ADDR [LEN]", "Dump the contents of RAM as hex", s.hexdump},
		{"cls", "", "Clear the screen", s.cls},
		{"mode", "[N]", "List or change the text mode", s.mode},
		{"screenshot", "FILE", "Save the screen as a PNG", s.screenshot},
	}
	return s
}

func (s *Shell) printf(format string, args ...any) {
	s.host.Printf(format, args...)
}

// Banner prints the startup messages and shows the cursor.
func (s *Shell) Banner() {
	mode := s.host.Console().Mode()
	arena := s.host.Arena()
	s.printf("\x1b[0mConfigured VGA console %dx%d\n", mode.Cols, mode.Rows)
	s.printf("\x1b[44;33;1m%s\x1b[0m\n", version)
	s.printf("\x1b[7mTPA: %d bytes @ 0x%08x\x1b[0m\n", arena.Len(), arena.Bottom())
	s.printf("\x1b[?25h")
}

// Prompt prints the prompt.
func (s *Shell) Prompt() {
	s.printf(prompt)
}

// Poll consumes queued keyboard bytes. It returns false when nothing was queued,
// so the caller can idle.
func (s *Shell) Poll(ctx context.Context) bool {
	var buf [program.InputQueueSize]byte
	n, _ := s.host.Input().Read(buf[:])
	for _, b := range buf[:n] {
		s.Feed(ctx, b)
	}
	return n > 0
}

// Feed edits the line with b, running it on carriage return.
func (s *Shell) Feed(ctx context.Context, b byte) {
	switch b {
	case '\r', '\n':
		s.printf("\n")
		line := string(s.line)
		s.line = s.line[:0]
		s.Exec(ctx, line)
		s.Prompt()
	case '\b', 0x7F:
		if len(s.line) > 0 {
			s.line = s.line[:len(s.line)-1]
			s.printf("\b \b")
		}
	default:
		if b < ' ' || len(s.line) == maxLine {
			return
		}
		s.line = append(s.line, b)
		s.host.Output().Write([]byte{b})
	}
}

// Exec runs one command line.
func (s *Shell) Exec(ctx context.Context, line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	for _, c := range s.commands {
		if strings.EqualFold(c.name, fields[0]) {
			c.run(ctx, fields[1:])
			return
		}
	}
	s.printf("Command %q not found. Try 'help'.\n", fields[0])
}

func (s *Shell) help(ctx context.Context, args []string) {
	for _, c := range s.commands {
		usage := strings.TrimSpace(c.name + " " + c.usage)
		s.printf("  %-22s %s\n", usage, c.help)
	}
}

func (s *Shell) dir(ctx context.Context, args []string) {
	fs := s.host.FS()
	s.printf("Listing files on %s\n", fs.Getwd())

	entries, err := fs.ReadDir(".")
	if err != nil {
		s.printf("Error: %v\n", err)
		return
	}

	var total uint64
	files := 0
	for _, e := range entries {
		ext := strings.TrimPrefix(path.Ext(e.Name), ".")
		base := strings.TrimSuffix(e.Name, path.Ext(e.Name))
		s.printf("%-8s %-3s", base, ext)
		if e.Dir {
			s.printf(" <DIR>        ")
		} else {
			s.printf(" %13d", e.Size)
			total += e.Size
			files++
		}
		s.printf(" %s\n", e.ModTime.Format("02/01/2006  15:04"))
	}
	s.printf("%9d file(s)  %13d bytes\n", files, total)
}

func (s *Shell) load(ctx context.Context, args []string) {
	if len(args) == 0 {
		s.printf("Need a filename\n")
		return
	}
	if err := s.host.Load(args[0]); err != nil {
		s.printf("Error: %v\n", err)
	}
}

func (s *Shell) rom(ctx context.Context, args []string) {
	if len(args) == 0 {
		for _, name := range romNames() {
			image, _ := romImage(name)
			s.printf("%s (%d bytes)\n", name, len(image))
		}
		return
	}
	if err := s.host.LoadROM(args[0]); err != nil {
		s.printf("Error: %v\n", err)
	}
}

func (s *Shell) run(ctx context.Context, args []string) {
	code, err := s.host.Run(ctx, args...)
	switch {
	case err != nil:
		s.printf("\nFailed to execute: %v\n", err)
	case code != 0:
		s.printf("\nError Code: %d\n", code)
	default:
		s.printf("\n")
	}
}

func (s *Shell) exec(ctx context.Context, args []string) {
	if len(args) == 0 {
		s.printf("Need a filename\n")
		return
	}
	if s.depth == maxExecDepth {
		s.printf("Error: scripts nested too deeply\n")
		return
	}

	data, err := s.readFile(args[0])
	if err != nil {
		s.printf("Error: %v\n", err)
		return
	}

	s.depth++
	defer func() { s.depth-- }()
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		s.Exec(ctx, scanner.Text())
	}
}

func (s *Shell) typeFile(ctx context.Context, args []string) {
	if len(args) == 0 {
		s.printf("Need a filename\n")
		return
	}
	data, err := s.readFile(args[0])
	if err == nil {
		s.printf("%s\n", data)
	}
	s.printf("\x1b[0m")
	if err != nil {
		s.printf("Error: %v\n", err)
	}
}

// readFile reads a whole text file, refusing anything that would not fit in
// the TPA.
func (s *Shell) readFile(name string) ([]byte, error) {
	f, err := s.host.FS().Open(name, hostfs.ReadOnly)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	limit := s.host.Arena().Len()
	data, err := io.ReadAll(io.LimitReader(f, int64(limit)+1))
	if err != nil {
		return nil, err
	}
	if uint32(len(data)) > limit {
		return nil, errors.Errorf("file too large! Max %d bytes allowed", limit)
	}
	if !utf8.Valid(data) {
		return nil, errors.New("file is not valid UTF-8")
	}
	return data, nil
}

func (s *Shell) hexdump(ctx context.Context, args []string) {
	const bytesPerLine = 16

	if len(args) == 0 {
		s.printf("No address\n")
		return
	}
	addr, err := parseNumber(args[0])
	if err != nil || addr >= program.MemorySize {
		s.printf("Bad address\n")
		return
	}
	length := uint64(16)
	if len(args) > 1 {
		if length, err = parseNumber(args[1]); err != nil {
			s.printf("Bad length\n")
			return
		}
	}
	length = min(length, program.MemorySize-addr)

	mem := s.host.Memory()
	var sb strings.Builder
	for i := uint64(0); i < length; i++ {
		if i%bytesPerLine == 0 {
			if i > 0 {
				sb.WriteString("\n")
			}
			fmt.Fprintf(&sb, "%08x: ", addr+i)
		}
		fmt.Fprintf(&sb, "%02x ", mem[addr+i])
	}
	sb.WriteString("\n")
	s.printf("%s", sb.String())
}

// parseNumber accepts decimal or 0x-prefixed hex.
func parseNumber(s string) (uint64, error) {
	if digits, ok := strings.CutPrefix(s, "0x"); ok {
		return strconv.ParseUint(digits, 16, 64)
	}
	return strconv.ParseUint(s, 10, 64)
}

func (s *Shell) cls(ctx context.Context, args []string) {
	s.printf("\x1b[0m\x1b[1;1H\x1b[2J")
}

func (s *Shell) mode(ctx context.Context, args []string) {
	console := s.host.Console()
	if len(args) == 0 {
		current := console.Mode()
		for i, m := range modes {
			mark := " "
			if m == current {
				mark = "*"
			}
			s.printf("%3d%s: %d x %d\n", i, mark, m.Cols, m.Rows)
		}
		return
	}

	n, err := strconv.ParseUint(args[0], 10, 8)
	if err != nil {
		s.printf("Invalid integer %q\n", args[0])
		return
	}
	if int(n) >= len(modes) {
		s.printf("Invalid mode %q\n", args[0])
		return
	}
	if err := console.ChangeMode(modes[n]); err != nil {
		s.printf("Failed to change mode: %v\n", err)
		return
	}
	s.printf("Now in mode %d\n", n)
}

func (s *Shell) screenshot(ctx context.Context, args []string) {
	if len(args) == 0 {
		s.printf("Need a filename\n")
		return
	}
	f, err := s.host.FS().Open(args[0], hostfs.Create)
	if err != nil {
		s.printf("Error: %v\n", err)
		return
	}
	defer f.Close()

	if err := png.Encode(f, s.host.Console().Screenshot()); err != nil {
		s.printf("Error: %v\n", err)
		return
	}
	s.printf("Saved %s\n", args[0])
}
