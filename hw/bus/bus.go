// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package bus implements the Archimedes physical address decoder: a
// 26-bit address space split between RAM, ROM (with a boot-time alias
// into low memory), and the IOC/VIDC MMIO windows.
//
// The CPU holds only a non-owning reference to a Bus (hardware design
// note in spec.md §9); the Bus in turn owns the RAM/ROM buffers and
// holds non-owning references to the IOC and VIDC register banks it
// routes MMIO traffic to, grounded on the teacher's VCSMemory, which
// owns the RAM/cartridge areas and routes to ChipMemory areas it does
// not own the contents of.
package bus

import (
	"encoding/binary"

	"github.com/ZacGeurts/acornarc-AI/hw/bus/addresses"
	"github.com/ZacGeurts/acornarc-AI/internal/logger"
)

// Register is an MMIO peripheral addressed by word offset from its
// base address, implemented by both the IOC and VIDC register banks.
// The Bus never interprets register contents itself: it only computes
// the offset and delegates, the way VCSMemory delegates to ChipMemory
// without caring what TIA/RIOT do with the data.
type Register interface {
	ReadRegister(offset uint32) uint32
	WriteRegister(offset uint32, value uint32)
}

// Bus decodes a 26-bit physical address and routes the access to RAM,
// ROM, or one of the two MMIO peripherals.
type Bus struct {
	ram []byte
	rom []byte

	// romLoaded is the number of bytes actually copied in by LoadROM;
	// used for the modulo-wrap boot alias. The rest of rom is
	// zero-filled up to len(rom).
	romLoaded int

	// bootMode is true from Reset() until the first word write to the
	// MEMC control register (spec §3 "boot_mode is monotonic").
	bootMode bool

	ioc  Register
	vidc Register
}

// New creates a Bus with the given RAM size (bytes) and the IOC/VIDC
// register banks it should route MMIO accesses to. ramSize should be
// one of 4, 8, or 16 MiB; values outside that range are clamped to the
// nearest bound by the caller (see machine.Config.Validate).
func New(ramSize int, ioc, vidc Register) *Bus {
	return &Bus{
		ram:      make([]byte, ramSize),
		rom:      make([]byte, addresses.ROMSizeMax),
		bootMode: true,
		ioc:      ioc,
		vidc:     vidc,
	}
}

// LoadROM copies up to len(b.rom) bytes from data into the ROM buffer
// and records the actual size loaded. Any remainder of the ROM buffer
// stays zero-filled. ROM content is never mutated again (spec §3
// "ROM contents are never mutated after load").
func (b *Bus) LoadROM(data []byte) {
	n := copy(b.rom, data)
	for i := n; i < len(b.rom); i++ {
		b.rom[i] = 0
	}
	b.romLoaded = n
}

// Reset re-enters boot mode. It does not touch RAM or ROM contents.
func (b *Bus) Reset() {
	b.bootMode = true
}

// BootMode reports whether the low alias is currently backed by ROM.
func (b *Bus) BootMode() bool {
	return b.bootMode
}

// RAM exposes the backing RAM buffer directly for VIDC's scan-out,
// which reads video memory as raw paletted bytes rather than through
// the word/byte decode path every other caller uses (spec §4.4
// "render_frame ... read one byte from ram[...]"). The slice aliases
// the Bus's RAM; neither LoadROM nor Reset reallocates it.
func (b *Bus) RAM() []byte {
	return b.ram
}

// ReadWord reads a little-endian 32-bit word. See spec §4.1 for the
// resolution order.
func (b *Bus) ReadWord(addr uint32) uint32 {
	addr &= addresses.AddressMask

	switch {
	case addr <= addresses.LowAliasTop && b.bootMode:
		return b.romWordWrapped(addr)

	case addr >= addresses.ROMAliasBase && addr <= addresses.ROMAliasTop:
		return b.romWordWrapped(addr - addresses.ROMAliasBase)

	case addr <= addresses.RAMTop:
		return b.ramWord(addr)

	case addr >= addresses.IOCBase && addr <= addresses.IOCTop:
		return b.ioc.ReadRegister((addr - addresses.IOCBase) >> 2)

	case addr >= addresses.VIDCBase && addr <= addresses.VIDCTop:
		return b.vidc.ReadRegister((addr - addresses.VIDCBase) >> 2)

	case addr >= addresses.ROMBase && addr <= addresses.ROMTop:
		return b.romWordDirect(addr - addresses.ROMBase)
	}

	logger.Logf(logger.Debug, "bus", "invalid read at %#08x", addr)
	return addresses.InvalidRead
}

// WriteWord writes a little-endian 32-bit word. See spec §4.1.
func (b *Bus) WriteWord(addr uint32, value uint32) {
	addr &= addresses.AddressMask

	switch {
	case addr == addresses.MEMCControl:
		b.bootMode = false
		return

	case addr <= addresses.LowAliasTop && b.bootMode:
		// ROM write, silently ignored.
		return

	case addr >= addresses.ROMAliasBase && addr <= addresses.ROMAliasTop:
		return

	case addr <= addresses.RAMTop:
		b.writeRAMWord(addr, value)
		return

	case addr >= addresses.IOCBase && addr <= addresses.IOCTop:
		b.ioc.WriteRegister((addr-addresses.IOCBase)>>2, value)
		return

	case addr >= addresses.VIDCBase && addr <= addresses.VIDCTop:
		b.vidc.WriteRegister((addr-addresses.VIDCBase)>>2, value)
		return

	case addr >= addresses.ROMBase && addr <= addresses.ROMTop:
		logger.Logf(logger.Debug, "bus", "write to ROM ignored at %#08x", addr)
		return
	}

	logger.Logf(logger.Debug, "bus", "invalid write at %#08x", addr)
}

// invalidReadWord holds addresses.InvalidRead as a non-constant value
// so it can be truncated to uint8 for byte-width invalid reads.
var invalidReadWord uint32 = addresses.InvalidRead

// ReadByte reads a single byte. Byte access on MMIO is serviced by a
// read of the containing word (spec §4.1 "byte access on MMIO").
func (b *Bus) ReadByte(addr uint32) uint8 {
	addr &= addresses.AddressMask

	switch {
	case addr <= addresses.LowAliasTop && b.bootMode:
		return b.romByteWrapped(addr)

	case addr >= addresses.ROMAliasBase && addr <= addresses.ROMAliasTop:
		return b.romByteWrapped(addr - addresses.ROMAliasBase)

	case addr <= addresses.RAMTop:
		if int(addr) < len(b.ram) {
			return b.ram[addr]
		}
		logger.Logf(logger.Debug, "bus", "invalid read at %#08x", addr)
		return uint8(invalidReadWord)

	case addr >= addresses.IOCBase && addr <= addresses.IOCTop:
		return byteLane(b.ioc.ReadRegister((addr-addresses.IOCBase)>>2), addr)

	case addr >= addresses.VIDCBase && addr <= addresses.VIDCTop:
		return byteLane(b.vidc.ReadRegister((addr-addresses.VIDCBase)>>2), addr)

	case addr >= addresses.ROMBase && addr <= addresses.ROMTop:
		off := addr - addresses.ROMBase
		if int(off) < len(b.rom) {
			return b.rom[off]
		}
		logger.Logf(logger.Debug, "bus", "invalid read at %#08x", addr)
		return uint8(invalidReadWord)
	}

	logger.Logf(logger.Debug, "bus", "invalid read at %#08x", addr)
	return uint8(invalidReadWord)
}

// WriteByte writes a single byte, read-modify-writing the containing
// word when the address decodes to MMIO.
func (b *Bus) WriteByte(addr uint32, value uint8) {
	addr &= addresses.AddressMask

	switch {
	case addr == addresses.MEMCControl:
		// only a word write to the control register triggers the
		// boot-mode side effect (spec §4.1).
		return

	case addr <= addresses.LowAliasTop && b.bootMode:
		return

	case addr >= addresses.ROMAliasBase && addr <= addresses.ROMAliasTop:
		return

	case addr <= addresses.RAMTop:
		if int(addr) < len(b.ram) {
			b.ram[addr] = value
			return
		}
		logger.Logf(logger.Debug, "bus", "invalid write at %#08x", addr)
		return

	case addr >= addresses.IOCBase && addr <= addresses.IOCTop:
		off := (addr - addresses.IOCBase) >> 2
		b.ioc.WriteRegister(off, rmwLane(b.ioc.ReadRegister(off), addr, value))
		return

	case addr >= addresses.VIDCBase && addr <= addresses.VIDCTop:
		off := (addr - addresses.VIDCBase) >> 2
		b.vidc.WriteRegister(off, rmwLane(b.vidc.ReadRegister(off), addr, value))
		return

	case addr >= addresses.ROMBase && addr <= addresses.ROMTop:
		logger.Logf(logger.Debug, "bus", "write to ROM ignored at %#08x", addr)
		return
	}

	logger.Logf(logger.Debug, "bus", "invalid write at %#08x", addr)
}

// romWordWrapped reads a little-endian word from ROM starting at
// offset, wrapping each of the four bytes modulo the loaded ROM size
// (spec §4.1: "rom[(addr & 0x001F_FFFF) mod rom_size]").
func (b *Bus) romWordWrapped(offset uint32) uint32 {
	if b.romLoaded == 0 {
		return addresses.InvalidRead
	}
	var buf [4]byte
	for i := range buf {
		buf[i] = b.rom[(int(offset)+i)%b.romLoaded]
	}
	return binary.LittleEndian.Uint32(buf[:])
}

func (b *Bus) romByteWrapped(offset uint32) uint8 {
	if b.romLoaded == 0 {
		return uint8(invalidReadWord)
	}
	return b.rom[int(offset)%b.romLoaded]
}

// romWordDirect reads a word from the primary ROM window with no
// wrapping; out-of-bounds accesses return the sentinel (spec §4.1 and
// the "word access spanning the last 3 bytes" boundary case).
func (b *Bus) romWordDirect(offset uint32) uint32 {
	if int(offset)+4 > len(b.rom) {
		logger.Logf(logger.Debug, "bus", "invalid read at ROM offset %#08x", offset)
		return addresses.InvalidRead
	}
	return binary.LittleEndian.Uint32(b.rom[offset : offset+4])
}

func (b *Bus) ramWord(addr uint32) uint32 {
	if int(addr)+4 > len(b.ram) {
		logger.Logf(logger.Debug, "bus", "invalid read at %#08x", addr)
		return addresses.InvalidRead
	}
	return binary.LittleEndian.Uint32(b.ram[addr : addr+4])
}

func (b *Bus) writeRAMWord(addr uint32, value uint32) {
	if int(addr)+4 > len(b.ram) {
		logger.Logf(logger.Debug, "bus", "invalid write at %#08x", addr)
		return
	}
	binary.LittleEndian.PutUint32(b.ram[addr:addr+4], value)
}

// byteLane extracts the little-endian byte lane addr selects from a
// 32-bit register value.
func byteLane(word uint32, addr uint32) uint8 {
	return uint8(word >> ((addr & 3) * 8))
}

// rmwLane returns word with the byte lane addr selects replaced by
// value, for read-modify-write byte access to MMIO.
func rmwLane(word uint32, addr uint32, value uint8) uint32 {
	shift := (addr & 3) * 8
	mask := uint32(0xFF) << shift
	return (word &^ mask) | (uint32(value) << shift)
}
