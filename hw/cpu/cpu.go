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

// Package cpu implements the ARMv2/v3 26-bit fetch/decode/execute
// loop, grounded on the shape of the teacher's 6507 interpreter (a
// single Step that samples interrupts, fetches, and dispatches) but
// targeting a different, much richer instruction set.
package cpu

import (
	"github.com/ZacGeurts/acornarc-AI/hw/bus"
	"github.com/ZacGeurts/acornarc-AI/hw/bus/addresses"
	"github.com/ZacGeurts/acornarc-AI/hw/cpu/registers"
	"github.com/ZacGeurts/acornarc-AI/internal/logger"
)

// Interrupts is the pending-interrupt source the CPU samples between
// instruction retirements (spec.md §4.3); IOC implements it.
type Interrupts interface {
	IRQPending() bool
	FIQPending() bool
}

// CPU fetches, decodes, and executes instructions against a borrowed
// Bus reference (spec.md §9: "the CPU holds only a non-owning
// reference to the Bus").
type CPU struct {
	Regs *registers.File

	bus *bus.Bus
	irq Interrupts

	// Halted is set when the CPU fetches the invalid-read sentinel; it
	// stops further stepping for the remainder of the frame but is not
	// a fatal error (spec.md §4.2, §7).
	Halted bool
}

// New returns a CPU wired to bus for memory access and irq for
// interrupt sampling.
func New(regs *registers.File, b *bus.Bus, irq Interrupts) *CPU {
	return &CPU{Regs: regs, bus: b, irq: irq}
}

// Reset zeroes the register file and clears Halted. The Bus's own
// Reset (re-entering boot mode) is the Machine's responsibility.
func (c *CPU) Reset() {
	c.Regs.Reset()
	c.Halted = false
}

// Step performs one instruction retirement: sample interrupts, fetch,
// advance PC, evaluate the condition, and dispatch (spec.md §4.2). A
// taken exception entry consumes the step; no instruction is fetched
// in the same call.
func (c *CPU) Step() {
	if c.Halted {
		return
	}

	if c.checkInterrupts() {
		return
	}

	pc := c.Regs.PC() & addresses.WordAlignMask
	instr := c.bus.ReadWord(pc)
	c.Regs.SetPC(pc + 4)

	if instr == addresses.InvalidRead {
		logger.Logf(logger.Info, "cpu", "invalid fetch at %#08x, halting frame", pc)
		c.Halted = true
		return
	}

	if c.evalCondition(instr) {
		c.dispatch(instr, pc)
	}

	// spec.md §3: "After each CPU step, R15's low two bits are zero."
	c.Regs.SetPC(c.Regs.PC() & addresses.WordAlignMask)
}

func (c *CPU) checkInterrupts() bool {
	if c.irq == nil {
		return false
	}
	if c.irq.FIQPending() && !c.Regs.CPSR.F {
		c.enterException(registers.FIQ, addresses.VectorFIQ, true)
		return true
	}
	if c.irq.IRQPending() && !c.Regs.CPSR.I {
		c.enterException(registers.IRQ, addresses.VectorIRQ, false)
		return true
	}
	return false
}

// enterException implements spec.md §4.3 steps 1-4.
func (c *CPU) enterException(mode registers.Mode, vector uint32, isFIQ bool) {
	old := c.Regs.CPSR
	c.Regs.SetSPSRFor(mode, old)

	retAddr := c.Regs.PC() + 4

	c.Regs.CPSR.Mode = mode
	c.Regs.CPSR.I = true
	if isFIQ {
		c.Regs.CPSR.F = true
	}

	c.Regs.Set(14, retAddr)
	c.Regs.SetPC(vector & addresses.AddressMask)
}

func (c *CPU) evalCondition(instr uint32) bool {
	p := c.Regs.CPSR
	switch instr >> 28 {
	case 0x0:
		return p.Z
	case 0x1:
		return !p.Z
	case 0x2:
		return p.C
	case 0x3:
		return !p.C
	case 0x4:
		return p.N
	case 0x5:
		return !p.N
	case 0x6:
		return p.V
	case 0x7:
		return !p.V
	case 0x8:
		return p.C && !p.Z
	case 0x9:
		return !p.C || p.Z
	case 0xA:
		return p.N == p.V
	case 0xB:
		return p.N != p.V
	case 0xC:
		return !p.Z && p.N == p.V
	case 0xD:
		return p.Z || p.N != p.V
	}
	// 0xE (AL) and the reserved 0xF pattern both execute unconditionally;
	// ARM2/3 predates 0xF being redefined as NV.
	return true
}

func (c *CPU) dispatch(instr, pcAtFetch uint32) {
	top8 := (instr >> 20) & 0xFF

	switch {
	case instr&0x0FC000F0 == 0x0000_0090:
		c.execMultiply(instr)
	case top8&0xC0 == 0x00:
		c.execDataProcessing(instr, pcAtFetch)
	case top8&0xC0 == 0x40:
		c.execSingleDataTransfer(instr, pcAtFetch)
	case top8&0xE0 == 0x80:
		c.execBlockDataTransfer(instr, pcAtFetch)
	case top8&0xE0 == 0xA0:
		c.execBranch(instr)
	case top8&0xF0 == 0xF0:
		c.execSWI()
	case top8&0xE0 == 0xC0:
		logger.Logf(logger.Info, "cpu", "unimplemented coprocessor instruction %#08x at %#08x", instr, pcAtFetch)
	default:
		logger.Logf(logger.Info, "cpu", "unimplemented instruction %#08x at %#08x", instr, pcAtFetch)
	}
}

func (c *CPU) readRegOperand(n uint8, pcAtFetch uint32) uint32 {
	if n == 15 {
		return pcAtFetch + 8
	}
	return c.Regs.Get(n)
}

// writePC writes a computed value to PC, masking to the 26-bit address
// space. restoreFlags additionally restores CPSR from the current
// mode's SPSR, the exception-return form of an S=1, Rd=15 write.
func (c *CPU) writePC(value uint32, restoreFlags bool) {
	if restoreFlags {
		c.Regs.CPSR = c.Regs.SPSR()
	}
	c.Regs.SetPC(value & addresses.AddressMask)
}

// regUserView returns get/set closures that address register n
// through the User-mode bank regardless of the current mode, used by
// block transfers with S=1 that do not include R15 (spec.md §4.2).
func (c *CPU) regUserView(n uint8) (get func() uint32, set func(uint32)) {
	saved := c.Regs.CPSR.Mode
	get = func() uint32 {
		c.Regs.CPSR.Mode = registers.User
		v := c.Regs.Get(n)
		c.Regs.CPSR.Mode = saved
		return v
	}
	set = func(v uint32) {
		c.Regs.CPSR.Mode = registers.User
		c.Regs.Set(n, v)
		c.Regs.CPSR.Mode = saved
	}
	return get, set
}

// operand2 evaluates a data-processing instruction's second operand
// and returns the shifter's carry-out alongside it (spec.md §4.2
// "Operand 2 and the barrel shifter").
func (c *CPU) operand2(instr, pcAtFetch uint32) (uint32, bool) {
	if instr&(1<<25) != 0 {
		imm := instr & 0xFF
		rot := ((instr >> 8) & 0xF) * 2
		if rot == 0 {
			return imm, c.Regs.CPSR.C
		}
		result := (imm >> rot) | (imm << (32 - rot))
		return result, result&(1<<31) != 0
	}

	rm := uint8(instr & 0xF)
	value := c.readRegOperand(rm, pcAtFetch)
	shiftType := (instr >> 5) & 0x3

	amountIsReg := instr&(1<<4) != 0
	var amount uint32
	if amountIsReg {
		rs := uint8((instr >> 8) & 0xF)
		amount = c.Regs.Get(rs) & 0xFF
	} else {
		amount = (instr >> 7) & 0x1F
	}

	return c.shift(value, shiftType, amount, amountIsReg)
}

// shift implements the barrel shifter, including the RRX and
// immediate-zero-means-32 special cases from spec.md §4.2.
func (c *CPU) shift(value, shiftType, amount uint32, amountIsReg bool) (uint32, bool) {
	carryIn := c.Regs.CPSR.C

	switch shiftType {
	case 0: // LSL
		switch {
		case amount == 0:
			return value, carryIn
		case amount < 32:
			return value << amount, (value>>(32-amount))&1 != 0
		case amount == 32:
			return 0, value&1 != 0
		default:
			return 0, false
		}

	case 1: // LSR
		if !amountIsReg && amount == 0 {
			amount = 32
		}
		switch {
		case amount == 0:
			return value, carryIn
		case amount < 32:
			return value >> amount, (value>>(amount-1))&1 != 0
		case amount == 32:
			return 0, value&(1<<31) != 0
		default:
			return 0, false
		}

	case 2: // ASR
		if !amountIsReg && amount == 0 {
			amount = 32
		}
		signed := int32(value)
		switch {
		case amount == 0:
			return value, carryIn
		case amount < 32:
			return uint32(signed >> amount), (value>>(amount-1))&1 != 0
		default:
			if signed < 0 {
				return 0xFFFFFFFF, true
			}
			return 0, false
		}

	default: // ROR / RRX
		if !amountIsReg && amount == 0 {
			carryOut := value&1 != 0
			result := value >> 1
			if carryIn {
				result |= 1 << 31
			}
			return result, carryOut
		}
		if amount == 0 {
			return value, carryIn
		}
		amount %= 32
		if amount == 0 {
			return value, value&(1<<31) != 0
		}
		result := (value >> amount) | (value << (32 - amount))
		return result, (value>>(amount-1))&1 != 0
	}
}

func boolToU32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// addWithFlags computes a+b+carryIn and the resulting carry/overflow,
// per the ARM ARM's add semantics (spec.md §4.2).
func addWithFlags(a, b, carryIn uint32) (result uint32, carryOut, overflow bool) {
	sum := uint64(a) + uint64(b) + uint64(carryIn)
	result = uint32(sum)
	carryOut = sum > 0xFFFFFFFF
	overflow = (a>>31 == b>>31) && (result>>31 != a>>31)
	return
}

// subWithFlags computes a-b-borrowIn via two's-complement addition, so
// that carryOut is ¬borrow as the ARM ARM defines it rather than the
// inverted expression spec.md §9 flags as a bug in the original source.
func subWithFlags(a, b, borrowIn uint32) (result uint32, carryOut, overflow bool) {
	carryIn := uint32(1)
	if borrowIn != 0 {
		carryIn = 0
	}
	sum := uint64(a) + uint64(^b) + uint64(carryIn)
	result = uint32(sum)
	carryOut = sum > 0xFFFFFFFF
	overflow = (a>>31 != b>>31) && (result>>31 != a>>31)
	return
}

func (c *CPU) execDataProcessing(instr, pcAtFetch uint32) {
	opcode := (instr >> 21) & 0xF
	s := instr&(1<<20) != 0
	rn := uint8((instr >> 16) & 0xF)
	rd := uint8((instr >> 12) & 0xF)

	op1 := c.readRegOperand(rn, pcAtFetch)
	op2, shiftCarry := c.operand2(instr, pcAtFetch)

	var result uint32
	carry := c.Regs.CPSR.C
	overflow := c.Regs.CPSR.V
	logical := false
	discard := false

	switch opcode {
	case 0x0:
		result, logical = op1&op2, true
	case 0x1:
		result, logical = op1^op2, true
	case 0x2:
		result, carry, overflow = subWithFlags(op1, op2, 0)
	case 0x3:
		result, carry, overflow = subWithFlags(op2, op1, 0)
	case 0x4:
		result, carry, overflow = addWithFlags(op1, op2, 0)
	case 0x5:
		result, carry, overflow = addWithFlags(op1, op2, boolToU32(c.Regs.CPSR.C))
	case 0x6:
		result, carry, overflow = subWithFlags(op1, op2, boolToU32(!c.Regs.CPSR.C))
	case 0x7:
		result, carry, overflow = subWithFlags(op2, op1, boolToU32(!c.Regs.CPSR.C))
	case 0x8:
		result, logical, discard = op1&op2, true, true
	case 0x9:
		result, logical, discard = op1^op2, true, true
	case 0xA:
		result, carry, overflow = subWithFlags(op1, op2, 0)
		discard = true
	case 0xB:
		result, carry, overflow = addWithFlags(op1, op2, 0)
		discard = true
	case 0xC:
		result, logical = op1|op2, true
	case 0xD:
		result, logical = op2, true
	case 0xE:
		result, logical = op1&^op2, true
	case 0xF:
		result, logical = ^op2, true
	}

	if logical {
		carry = shiftCarry
	}

	restoreFlags := s && rd == 15 && !discard

	if s && !restoreFlags {
		c.Regs.CPSR.N = result&(1<<31) != 0
		c.Regs.CPSR.Z = result == 0
		c.Regs.CPSR.C = carry
		if !logical {
			c.Regs.CPSR.V = overflow
		}
	}

	if discard {
		return
	}
	if rd == 15 {
		c.writePC(result, restoreFlags)
		return
	}
	c.Regs.Set(rd, result)
}

func (c *CPU) execMultiply(instr uint32) {
	rd := uint8((instr >> 16) & 0xF)
	rn := uint8((instr >> 12) & 0xF)
	rs := uint8((instr >> 8) & 0xF)
	rm := uint8(instr & 0xF)
	accumulate := instr&(1<<21) != 0
	s := instr&(1<<20) != 0

	result := c.Regs.Get(rm) * c.Regs.Get(rs)
	if accumulate {
		result += c.Regs.Get(rn)
	}
	c.Regs.Set(rd, result)

	if s {
		c.Regs.CPSR.N = result&(1<<31) != 0
		c.Regs.CPSR.Z = result == 0
	}
}

func (c *CPU) execSingleDataTransfer(instr, pcAtFetch uint32) {
	regOffset := instr&(1<<25) != 0
	p := instr&(1<<24) != 0
	u := instr&(1<<23) != 0
	b := instr&(1<<22) != 0
	w := instr&(1<<21) != 0
	l := instr&(1<<20) != 0
	rn := uint8((instr >> 16) & 0xF)
	rd := uint8((instr >> 12) & 0xF)

	var offset uint32
	if regOffset {
		rm := uint8(instr & 0xF)
		value := c.Regs.Get(rm)
		shiftType := (instr >> 5) & 0x3
		amount := (instr >> 7) & 0x1F
		offset, _ = c.shift(value, shiftType, amount, false)
	} else {
		offset = instr & 0xFFF
	}

	base := c.readRegOperand(rn, pcAtFetch)
	var indexed uint32
	if u {
		indexed = base + offset
	} else {
		indexed = base - offset
	}

	effective := indexed
	if !p {
		effective = base
	}

	if l {
		var value uint32
		if b {
			value = uint32(c.bus.ReadByte(effective))
		} else {
			value = c.bus.ReadWord(effective)
		}
		if rd == 15 {
			c.writePC(value, false)
		} else {
			c.Regs.Set(rd, value)
		}
	} else {
		value := c.readRegOperand(rd, pcAtFetch)
		if b {
			c.bus.WriteByte(effective, uint8(value))
		} else {
			c.bus.WriteWord(effective, value)
		}
	}

	if !p || w {
		c.Regs.Set(rn, indexed)
	}
}

func (c *CPU) execBlockDataTransfer(instr, pcAtFetch uint32) {
	p := instr&(1<<24) != 0
	u := instr&(1<<23) != 0
	s := instr&(1<<22) != 0
	w := instr&(1<<21) != 0
	l := instr&(1<<20) != 0
	rn := uint8((instr >> 16) & 0xF)
	list := instr & 0xFFFF

	count := uint32(0)
	for i := 0; i < 16; i++ {
		if list&(1<<uint(i)) != 0 {
			count++
		}
	}

	base := c.Regs.Get(rn)
	var start uint32
	if u {
		start = base
		if p {
			start += 4
		}
	} else {
		start = base - count*4
		if !p {
			start += 4
		}
	}

	hasR15 := list&(1<<15) != 0
	userBank := s && !hasR15

	addr := start
	for i := 0; i < 16; i++ {
		if list&(1<<uint(i)) == 0 {
			continue
		}
		reg := uint8(i)

		if l {
			value := c.bus.ReadWord(addr)
			switch {
			case reg == 15:
				c.writePC(value, s)
			case userBank:
				_, set := c.regUserView(reg)
				set(value)
			default:
				c.Regs.Set(reg, value)
			}
		} else {
			var value uint32
			switch {
			case reg == 15:
				value = pcAtFetch + 8
			case userBank:
				get, _ := c.regUserView(reg)
				value = get()
			default:
				value = c.Regs.Get(reg)
			}
			c.bus.WriteWord(addr, value)
		}
		addr += 4
	}

	if w {
		if u {
			c.Regs.Set(rn, base+count*4)
		} else {
			c.Regs.Set(rn, base-count*4)
		}
	}
}

func (c *CPU) execBranch(instr uint32) {
	link := instr&(1<<24) != 0
	offset := instr & 0xFFFFFF
	if offset&0x0080_0000 != 0 {
		offset |= 0xFF00_0000
	}
	delta := int32(offset) << 2

	linkAddr := c.Regs.PC() // already pcAtFetch+4: the instruction after the branch.
	target := uint32(int32(linkAddr+4) + delta)
	target &= addresses.AddressMask

	if link {
		c.Regs.Set(14, linkAddr)
	}
	c.Regs.SetPC(target)
}

func (c *CPU) execSWI() {
	old := c.Regs.CPSR
	c.Regs.SetSPSRFor(registers.SVC, old)
	retAddr := c.Regs.PC()

	c.Regs.CPSR.Mode = registers.SVC
	c.Regs.CPSR.I = true

	c.Regs.Set(14, retAddr)
	c.Regs.SetPC(addresses.VectorSWI & addresses.AddressMask)
}
