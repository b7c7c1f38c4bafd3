package hostfs

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
)

func newTestFS(t *testing.T) (*DirFS, string) {
	t.Helper()
	dir := t.TempDir()
	d, err := NewDirFS(dir)
	if err != nil {
		t.Fatalf("NewDirFS: %v", err)
	}
	return d, dir
}

func TestDirFSOpenRead(t *testing.T) {
	d, dir := newTestFS(t)
	if err := os.WriteFile(filepath.Join(dir, "HELLO.TXT"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := d.Open("HELLO.TXT", ReadOnly)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("expected 'hello', got %q", data)
	}

	info, err := f.Stat()
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Size != 5 {
		t.Errorf("expected size 5, got %d", info.Size)
	}
}

func TestDirFSReadOnlyRejectsWrite(t *testing.T) {
	d, dir := newTestFS(t)
	os.WriteFile(filepath.Join(dir, "A"), []byte("x"), 0o644)

	f, err := d.Open("A", ReadOnly)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	if _, err := f.Write([]byte("y")); !errors.Is(err, ErrReadOnly) {
		t.Errorf("expected ErrReadOnly, got %v", err)
	}
}

func TestDirFSCreateAndAppend(t *testing.T) {
	d, dir := newTestFS(t)

	f, err := d.Open("OUT.TXT", Create)
	if err != nil {
		t.Fatalf("Open create: %v", err)
	}
	f.Write([]byte("ab"))
	f.Close()

	f, err = d.Open("OUT.TXT", Append)
	if err != nil {
		t.Fatalf("Open append: %v", err)
	}
	f.Write([]byte("cd"))
	f.Close()

	data, _ := os.ReadFile(filepath.Join(dir, "OUT.TXT"))
	if string(data) != "abcd" {
		t.Errorf("expected 'abcd', got %q", data)
	}
}

func TestDirFSNotFound(t *testing.T) {
	d, _ := newTestFS(t)

	if _, err := d.Open("MISSING", ReadOnly); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := d.Stat("MISSING"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDirFSRejectsEscape(t *testing.T) {
	d, _ := newTestFS(t)

	tests := []string{"", "../etc/passwd", "/../x", "a/../../b", `a\b`}
	for _, name := range tests {
		if _, err := d.Stat(name); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("expected ErrInvalidPath for %q, got %v", name, err)
		}
	}
}

func TestDirFSOpenDirectory(t *testing.T) {
	d, dir := newTestFS(t)
	os.Mkdir(filepath.Join(dir, "SUB"), 0o755)

	if _, err := d.Open("SUB", ReadOnly); !errors.Is(err, ErrIsDir) {
		t.Errorf("expected ErrIsDir, got %v", err)
	}
}

func TestDirFSChdir(t *testing.T) {
	d, dir := newTestFS(t)
	os.Mkdir(filepath.Join(dir, "SUB"), 0o755)
	os.WriteFile(filepath.Join(dir, "SUB", "F"), []byte("1"), 0o644)

	if d.Getwd() != "/" {
		t.Errorf("expected cwd '/', got %q", d.Getwd())
	}
	if err := d.Chdir("SUB"); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	if d.Getwd() != "/SUB" {
		t.Errorf("expected cwd '/SUB', got %q", d.Getwd())
	}
	if _, err := d.Stat("F"); err != nil {
		t.Errorf("expected relative stat to succeed, got %v", err)
	}
	if err := d.Chdir(".."); err != nil {
		t.Fatalf("Chdir ..: %v", err)
	}
	if d.Getwd() != "/" {
		t.Errorf("expected cwd '/', got %q", d.Getwd())
	}
	if err := d.Chdir("SUB/F"); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("expected ErrInvalidPath for chdir into a file, got %v", err)
	}
}

func TestDirFSReadDirSorted(t *testing.T) {
	d, dir := newTestFS(t)
	os.WriteFile(filepath.Join(dir, "B"), nil, 0o644)
	os.WriteFile(filepath.Join(dir, "A"), []byte("12"), 0o644)
	os.Mkdir(filepath.Join(dir, "C"), 0o755)

	infos, err := d.ReadDir("/")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(infos) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(infos))
	}
	if infos[0].Name != "A" || infos[1].Name != "B" || infos[2].Name != "C" {
		t.Errorf("expected A B C, got %s %s %s", infos[0].Name, infos[1].Name, infos[2].Name)
	}
	if infos[0].Size != 2 {
		t.Errorf("expected size 2, got %d", infos[0].Size)
	}
	if !infos[2].Dir {
		t.Error("expected C to be a directory")
	}
}

func TestDirFSRenameRemove(t *testing.T) {
	d, dir := newTestFS(t)
	os.WriteFile(filepath.Join(dir, "OLD"), []byte("x"), 0o644)
	os.WriteFile(filepath.Join(dir, "TAKEN"), []byte("y"), 0o644)
	os.Mkdir(filepath.Join(dir, "D"), 0o755)

	if err := d.Rename("OLD", "TAKEN"); !errors.Is(err, ErrExists) {
		t.Errorf("expected ErrExists, got %v", err)
	}
	if err := d.Rename("OLD", "NEW"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if _, err := d.Stat("NEW"); err != nil {
		t.Errorf("expected NEW to exist, got %v", err)
	}
	if err := d.Remove("D"); !errors.Is(err, ErrIsDir) {
		t.Errorf("expected ErrIsDir, got %v", err)
	}
	if err := d.RemoveDir("NEW"); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("expected ErrInvalidPath, got %v", err)
	}
	if err := d.Remove("NEW"); err != nil {
		t.Errorf("Remove: %v", err)
	}
	if err := d.RemoveDir("D"); err != nil {
		t.Errorf("RemoveDir: %v", err)
	}
	if err := d.RemoveDir("/"); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("expected ErrInvalidPath removing root, got %v", err)
	}
}
