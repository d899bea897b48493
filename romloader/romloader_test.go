package romloader_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ZacGeurts/acornarc-AI/hw/bus/addresses"
	"github.com/ZacGeurts/acornarc-AI/romloader"
)

func TestLoadReturnsFileContents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "riscos.rom")
	want := []byte{0xEA, 0x00, 0x00, 0x05, 0xDE, 0xAD, 0xBE, 0xEF}
	if err := os.WriteFile(path, want, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got := romloader.Load(path)
	if !bytes.Equal(got, want) {
		t.Fatalf("expected %x, got %x", want, got)
	}
}

func TestLoadTruncatesOversizedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toobig.rom")
	data := make([]byte, addresses.ROMSizeMax+1024)
	for i := range data {
		data[i] = byte(i)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got := romloader.Load(path)
	if len(got) != addresses.ROMSizeMax {
		t.Fatalf("expected %d bytes, got %d", addresses.ROMSizeMax, len(got))
	}
	if !bytes.Equal(got, data[:addresses.ROMSizeMax]) {
		t.Fatalf("truncated content does not match the file's leading bytes")
	}
}

func TestLoadMissingFileReturnsNil(t *testing.T) {
	got := romloader.Load(filepath.Join(t.TempDir(), "does-not-exist.rom"))
	if got != nil {
		t.Fatalf("expected nil for a missing file, got %d bytes", len(got))
	}
}

func TestLoadNilFeedsBusLoadROMAsZeroFill(t *testing.T) {
	// Load's nil-on-error contract only makes sense paired with
	// Bus.LoadROM, which zero-fills whatever copy(dst, data) leaves
	// short. This checks the copy half: a missing file's nil result
	// copies zero bytes.
	dst := make([]byte, 8)
	for i := range dst {
		dst[i] = 0xFF
	}
	n := copy(dst, romloader.Load(filepath.Join(t.TempDir(), "missing.rom")))
	if n != 0 {
		t.Fatalf("expected zero bytes copied from a missing file's load result")
	}
}
