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

// Package registers implements the ARMv2/v3 26-bit register file: the
// sixteen general registers, the banked copies a mode switch exposes
// in their place, and the current/saved program status registers.
//
// R15 carries PC and the condition/interrupt flags in one register on
// real hardware; per spec.md §3 and §9 ("R15 dual role") this package
// keeps PC and PSR as separate fields. The cpu package reads R15 as an
// operand as the PC alone (instruction address + 8); the PSR bits are
// not composed into that value.
package registers

// Mode is one of the four processor modes the 26-bit architecture
// supports. Unlike full 32-bit ARM (seven modes), 26-bit mode has room
// for only two mode bits in R15, so there are exactly four.
type Mode uint8

const (
	User Mode = iota
	FIQ
	IRQ
	SVC
)

func (m Mode) String() string {
	switch m {
	case User:
		return "USR"
	case FIQ:
		return "FIQ"
	case IRQ:
		return "IRQ"
	case SVC:
		return "SVC"
	}
	return "???"
}

// PSR is a program status register: the four condition flags, the two
// interrupt-disable bits, and the current mode. It is used both as the
// CPU's CPSR and, banked per mode, as each mode's SPSR.
type PSR struct {
	N, Z, C, V bool
	I, F       bool
	Mode       Mode
}

// Encode packs the PSR into the bit layout it occupies within R15 on
// real 26-bit hardware: NZCV in the top nibble, I/F in bits 7:6, mode
// in bits 1:0. SPSR slots and CPSR both use this encoding.
func (p PSR) Encode() uint32 {
	var v uint32
	if p.N {
		v |= 1 << 31
	}
	if p.Z {
		v |= 1 << 30
	}
	if p.C {
		v |= 1 << 29
	}
	if p.V {
		v |= 1 << 28
	}
	if p.I {
		v |= 1 << 7
	}
	if p.F {
		v |= 1 << 6
	}
	v |= uint32(p.Mode) & 0x3
	return v
}

// Decode unpacks a PSR from its R15 bit layout.
func Decode(v uint32) PSR {
	return PSR{
		N:    v&(1<<31) != 0,
		Z:    v&(1<<30) != 0,
		C:    v&(1<<29) != 0,
		V:    v&(1<<28) != 0,
		I:    v&(1<<7) != 0,
		F:    v&(1<<6) != 0,
		Mode: Mode(v & 0x3),
	}
}

// File is the ARM register file. R0-R7 are never banked. R8-R12 are
// banked only for FIQ (the rest of the modes share the User bank).
// R13 and R14 are banked per mode. This is the "6x2 bank table" from
// spec.md §9, indexed directly by the current mode rather than spilled
// on every mode switch.
type File struct {
	gp      [8]uint32 // R0-R7
	fiqMid  [5]uint32 // R8-R12 under FIQ
	userMid [5]uint32 // R8-R12 under every other mode
	r13     [4]uint32 // indexed by Mode
	r14     [4]uint32 // indexed by Mode

	pc uint32 // word-aligned program counter, bits 25..2

	CPSR PSR
	spsr [4]PSR // indexed by Mode; User entry unused
}

// NewFile returns a File with every register zeroed ("Reset
// initialises: all registers 0", spec.md §4.3). CPSR is zero too (User
// mode, interrupts enabled); Reset sets the reset-time CPSR.
func NewFile() *File {
	return &File{}
}

// Reset zeroes every register, including PC (the reset vector), and
// sets CPSR to the spec's reset value (I and F set, mode SVC).
func (f *File) Reset() {
	*f = File{}
	f.CPSR = PSR{I: true, F: true, Mode: SVC}
}

// Get returns the value of register n (0-15) as seen in the current
// mode. R15 here returns only the raw PC, without the flags.
func (f *File) Get(n uint8) uint32 {
	switch {
	case n <= 7:
		return f.gp[n]
	case n <= 12:
		if f.CPSR.Mode == FIQ {
			return f.fiqMid[n-8]
		}
		return f.userMid[n-8]
	case n == 13:
		return f.r13[f.CPSR.Mode]
	case n == 14:
		return f.r14[f.CPSR.Mode]
	default:
		return f.pc
	}
}

// Set writes register n (0-15) in the current mode. Writing R15 here
// only sets the raw PC; the cpu package handles the 26-bit mask and
// the "write through data processing also restores flags" quirk.
func (f *File) Set(n uint8, v uint32) {
	switch {
	case n <= 7:
		f.gp[n] = v
	case n <= 12:
		if f.CPSR.Mode == FIQ {
			f.fiqMid[n-8] = v
		} else {
			f.userMid[n-8] = v
		}
	case n == 13:
		f.r13[f.CPSR.Mode] = v
	case n == 14:
		f.r14[f.CPSR.Mode] = v
	default:
		f.pc = v
	}
}

// PC returns the raw program counter.
func (f *File) PC() uint32 { return f.pc }

// SetPC sets the raw program counter.
func (f *File) SetPC(v uint32) { f.pc = v }

// SPSR returns the saved PSR for the current mode.
func (f *File) SPSR() PSR { return f.spsr[f.CPSR.Mode] }

// SetSPSR sets the saved PSR for the current mode.
func (f *File) SetSPSR(p PSR) { f.spsr[f.CPSR.Mode] = p }

// SPSRFor and SetSPSRFor address a specific mode's SPSR slot, used
// during exception entry before CPSR.Mode has been switched to the
// target mode.
func (f *File) SPSRFor(m Mode) PSR       { return f.spsr[m] }
func (f *File) SetSPSRFor(m Mode, p PSR) { f.spsr[m] = p }
