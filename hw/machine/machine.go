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

// Package machine wires Bus, IOC, VIDC, and CPU together into the one
// object a host frontend drives: New/LoadROM/Reset/RunFrame/Deinit
// (spec.md §5, §6). It is grounded on the teacher's VCS type, which
// plays the same role of owning every chip and exposing a small
// frame-oriented API (AttachCartridge, Step, Reset) to whatever drives
// it, rather than letting the host poke at chips directly.
package machine

import (
	"fmt"

	"github.com/ZacGeurts/acornarc-AI/hw/bus"
	"github.com/ZacGeurts/acornarc-AI/hw/bus/addresses"
	"github.com/ZacGeurts/acornarc-AI/hw/cpu"
	"github.com/ZacGeurts/acornarc-AI/hw/cpu/registers"
	"github.com/ZacGeurts/acornarc-AI/hw/input"
	"github.com/ZacGeurts/acornarc-AI/hw/ioc"
	"github.com/ZacGeurts/acornarc-AI/hw/vidc"
	"github.com/ZacGeurts/acornarc-AI/internal/logger"
	"github.com/ZacGeurts/acornarc-AI/romloader"
	"github.com/ZacGeurts/acornarc-AI/video"
)

// Config holds the handful of values spec.md §6 says the core reads at
// startup: RAM size, ROM base, the per-frame instruction budget, and
// display dimensions.
type Config struct {
	// RAMSize in bytes; must be one of 4, 8, or 16 MiB. Validate
	// rounds anything else up to the next of those three, and anything
	// above 16 MiB down to 16 MiB.
	RAMSize int

	// ROMBase is recorded for Validate to check against the bus's
	// fixed decode map (addresses.ROMBase) rather than actually
	// relocating anything: the Bus's address decoder is a fixed
	// switch over constant ranges, not a relocatable window, so a
	// ROMBase other than the default cannot be honoured without
	// changing the decoder itself. Left in Config because spec.md §6
	// lists it as a configuration value the core reads, even though
	// this implementation only supports one value.
	ROMBase uint32

	// InstructionBudget caps how many CPU steps RunFrame takes before
	// returning, independent of cycles spent ticking the IOC timers
	// (spec.md §5 "instruction budget per frame").
	InstructionBudget int

	// CyclesPerFrame is the argument passed to IOC.UpdateTimers once
	// per frame (spec.md §4.5: 160 000 at 8 MHz / 50 Hz).
	CyclesPerFrame uint32

	// DisplayWidth and DisplayHeight are advisory only: VIDC derives
	// the actual scanned rectangle from its own timing registers
	// (spec.md §4.4). Recorded here only because spec.md §6 lists
	// display dimensions as a configuration value; RunFrame never
	// reads them.
	DisplayWidth, DisplayHeight int
}

// DefaultConfig returns the spec's stated defaults: 4 MiB RAM, ROM
// based at addresses.ROMBase, a 160 000-instruction/cycle budget per
// frame, and a 640x480 display.
func DefaultConfig() Config {
	return Config{
		RAMSize:           4 * 1024 * 1024,
		ROMBase:           addresses.ROMBase,
		InstructionBudget: 160_000,
		CyclesPerFrame:    160_000,
		DisplayWidth:      640,
		DisplayHeight:     480,
	}
}

// Validate rounds RAMSize up to the next of 4/8/16 MiB (capping it at
// 16 MiB) and rejects a
// ROMBase other than the one the Bus decoder actually honours.
func (c *Config) Validate() error {
	switch {
	case c.RAMSize <= 4*1024*1024:
		c.RAMSize = 4 * 1024 * 1024
	case c.RAMSize <= 8*1024*1024:
		c.RAMSize = 8 * 1024 * 1024
	default:
		c.RAMSize = 16 * 1024 * 1024
	}
	if c.ROMBase == 0 {
		c.ROMBase = addresses.ROMBase
	}
	if c.ROMBase != addresses.ROMBase {
		return fmt.Errorf("machine: ROM base %#08x is not supported; the bus decoder only services %#08x", c.ROMBase, addresses.ROMBase)
	}
	if c.InstructionBudget <= 0 {
		c.InstructionBudget = 160_000
	}
	if c.CyclesPerFrame == 0 {
		c.CyclesPerFrame = 160_000
	}
	return nil
}

// Machine owns every chip and exposes the frame-oriented lifecycle a
// host frontend drives (spec.md §6 "External interfaces").
type Machine struct {
	cfg  Config
	host video.Host

	Regs   *registers.File
	Bus    *bus.Bus
	IOC    *ioc.IOC
	VIDC   *vidc.VIDC
	CPU    *cpu.CPU
	Poller *input.Poller

	// Running mirrors spec.md §7's "non-fatal running=false" flag: it
	// goes false the instant the CPU halts on an invalid fetch, and is
	// only restored by Reset. While it is false RunFrame skips the CPU
	// steps; input drain, the IOC tick and scan-out still happen.
	Running bool
}

// New builds a Machine ready for LoadROM. host may be nil for a
// headless machine (tests, fuzzing); slots are the input_state queries
// polled once per frame (spec.md §5 "input drain").
func New(cfg Config, host video.Host, slots ...input.Slot) (*Machine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	i := ioc.New()
	v := vidc.New(i)
	b := bus.New(cfg.RAMSize, i, v)
	regs := registers.NewFile()
	c := cpu.New(regs, b, i)

	var src input.Source
	if host != nil {
		src = host
	}

	return &Machine{
		cfg:     cfg,
		host:    host,
		Regs:    regs,
		Bus:     b,
		IOC:     i,
		VIDC:    v,
		CPU:     c,
		Poller:  input.NewPoller(src, slots...),
		Running: true,
	}, nil
}

// LoadROM reads path via romloader and copies the result into the
// Bus's ROM buffer. A load failure is logged by romloader itself and
// is non-fatal here too: the Bus ends up with a zero-filled ROM
// (spec.md §7 "ROM load error ... leave ROM zero-filled; continue").
func (m *Machine) LoadROM(path string) {
	m.Bus.LoadROM(romloader.Load(path))
}

// Reset puts the register file, CPU, Bus boot mode and IOC back to
// their power-on state and sets Running back to true. VIDC registers
// are left as they are.
func (m *Machine) Reset() {
	m.Regs.Reset()
	m.Bus.Reset()
	m.IOC.Reset()
	m.CPU.Reset()
	m.Running = true
}

// Deinit releases the Machine's references to the host. It does not
// need to flush anything: the core does no blocking I/O and owns no
// resources outside process memory (spec.md §5 "no blocking I/O inside
// the core").
func (m *Machine) Deinit() {
	m.host = nil
}

// RunFrame advances exactly one frame, in the strict order spec.md §5
// mandates: input drain, IOC tick, interrupt sampling (folded into
// each CPU.Step), up to InstructionBudget CPU steps, VIDC scan-out.
// It returns the scanned framebuffer and also hands it to the host's
// VideoRefresh callback, if a host is attached.
func (m *Machine) RunFrame() []byte {
	m.Poller.Drain()
	m.IOC.UpdateTimers(m.cfg.CyclesPerFrame)

	if m.Running {
		wasHalted := m.CPU.Halted
		for n := 0; n < m.cfg.InstructionBudget && !m.CPU.Halted; n++ {
			m.CPU.Step()
		}
		if m.CPU.Halted && !wasHalted {
			m.Running = false
			if m.host != nil {
				m.host.Message("halted: invalid instruction fetch", 180)
			}
			logger.Logf(logger.Info, "machine", "frame halted at PC %#08x", m.Regs.PC())
		}
	}

	frame := m.VIDC.RenderFrame(m.Bus.RAM())
	if m.host != nil {
		width, height := m.VIDC.Dimensions()
		m.host.VideoRefresh(frame, width, height, width*2)
	}
	return frame
}
